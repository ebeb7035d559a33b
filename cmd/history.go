package main

import (
	"context"
	"strings"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/songrec/internal/formatter"
)

// HistoryList prints saved sessions in storage order, oldest first.
func (r *Runner) HistoryList(ctx context.Context, cmd *cli.Command) error {
	store, err := r.loadHistory()
	if err != nil {
		return err
	}

	sessions, err := store.List(ctx)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(sessions, cmd.Bool("pretty"))
	}

	if len(sessions) == 0 {
		return r.writePlain("No saved sessions\n")
	}

	r.writePlainHeader("Session History")
	for i, s := range sessions {
		names := make([]string, 0, len(s.Input))
		for _, in := range s.Input {
			names = append(names, in.Name)
		}
		created := "-"
		if !s.CreatedAt.IsZero() {
			created = s.CreatedAt.Local().Format(time.DateTime)
		}
		r.writePlain("%3d  %s  %d recs  %s\n", i, created, len(s.Output), strings.Join(names, ", "))
	}
	return nil
}

// HistoryShow renders one saved session.
func (r *Runner) HistoryShow(ctx context.Context, cmd *cli.Command) error {
	index, err := intArg(cmd, "index")
	if err != nil {
		return err
	}
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	store, err := r.loadHistory()
	if err != nil {
		return err
	}
	s, err := store.Get(ctx, index)
	if err != nil {
		return err
	}

	return formatter.Render(r.output, s, format)
}

// HistoryExport writes one saved session to a file.
func (r *Runner) HistoryExport(ctx context.Context, cmd *cli.Command) error {
	index, err := intArg(cmd, "index")
	if err != nil {
		return err
	}
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	store, err := r.loadHistory()
	if err != nil {
		return err
	}
	s, err := store.Get(ctx, index)
	if err != nil {
		return err
	}

	result, err := formatter.WriteSessionExport(s, format, cmd.String("dir"))
	if err != nil {
		return err
	}

	r.logger.Info("session exported", "index", index, "format", format, "files", len(result.Files))
	for _, f := range result.Files {
		r.writePlain("✓ %s\n", f)
	}
	return nil
}

// HistoryClear removes every saved session.
func (r *Runner) HistoryClear(ctx context.Context, cmd *cli.Command) error {
	store, err := r.loadHistory()
	if err != nil {
		return err
	}
	if err := store.Clear(ctx); err != nil {
		return err
	}
	return r.writePlain("✓ History cleared\n")
}
