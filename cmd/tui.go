package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/songrec/internal/audio"
	"github.com/desertthunder/songrec/internal/shared"
	"github.com/desertthunder/songrec/internal/ui"
)

// TUI launches the interactive terminal UI.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger(cmd.String("log"))
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	r.SetLogger(fileLogger)

	engine, err := r.loadEngine(ctx, cmd.Bool("no-save"))
	if err != nil {
		return err
	}

	var preview *audio.Preview
	if r.config.Preview.Enabled && !cmd.Bool("no-preview") {
		preview = audio.NewPreview(audio.Options{
			Enabled:      true,
			CompactWidth: r.config.Preview.CompactWidth,
			Fetch:        audio.HTTPFetcher(r.httpClient),
			Logger:       fileLogger,
		})
		defer preview.Close()
	}

	model := ui.NewModel(ui.Options{
		Context:      ctx,
		Engine:       engine,
		Preview:      preview,
		Logger:       fileLogger,
		SearchLimit:  r.config.Catalog.SearchLimit,
		DefaultSeeds: r.config.Catalog.DefaultSeeds,
	})
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
