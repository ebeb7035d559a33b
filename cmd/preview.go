package main

import (
	"context"
	"fmt"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/songrec/internal/audio"
	"github.com/desertthunder/songrec/internal/shared"
)

// Preview plays a song's audio preview for a number of seconds.
func (r *Runner) Preview(ctx context.Context, cmd *cli.Command) error {
	id, err := intArg(cmd, "id")
	if err != nil {
		return err
	}
	if !audio.Available {
		return fmt.Errorf("%w: audio playback is not supported in this build", shared.ErrNotImplemented)
	}

	engine, err := r.loadEngine(ctx, true)
	if err != nil {
		return err
	}

	meta, degraded, err := engine.Enrich(ctx, id)
	if err != nil {
		return err
	}
	if degraded || meta.PreviewURL == "" {
		return fmt.Errorf("%w: no preview available for %q", shared.ErrServiceUnavailable, meta.Name)
	}

	preview := audio.NewPreview(audio.Options{
		Enabled: true,
		Fetch:   audio.HTTPFetcher(r.httpClient),
		Logger:  r.logger,
	})
	defer preview.Close()

	r.writePlain("▶ %s - %s\n", meta.ArtistLine(), meta.Name)
	if err := preview.Play(ctx, meta.PreviewURL); err != nil {
		return err
	}

	select {
	case <-ctx.Done():
	case <-time.After(time.Duration(cmd.Int("seconds")) * time.Second):
	}
	return nil
}
