package main

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/songrec/internal/formatter"
	"github.com/desertthunder/songrec/internal/models"
	"github.com/desertthunder/songrec/internal/session"
	"github.com/desertthunder/songrec/internal/shared"
	"github.com/desertthunder/songrec/internal/tasks"
)

// RecsMetadata fetches and prints metadata for catalog songs.
func (r *Runner) RecsMetadata(ctx context.Context, cmd *cli.Command) error {
	ids := cmd.IntSlice("id")
	if len(ids) == 0 {
		return fmt.Errorf("%w: at least one --id", shared.ErrMissingArgument)
	}

	engine, err := r.loadEngine(ctx, true)
	if err != nil {
		return err
	}

	asJSON := cmd.Bool("json")
	progressCh, done := r.progressPrinter(asJSON)
	results := engine.EnrichMany(ctx, ids, cmd.Int("workers"), progressCh)
	close(progressCh)
	<-done

	songs := make([]models.SongMetadata, 0, len(results))
	var errs []error
	for _, res := range results {
		if res.Err != nil {
			errs = append(errs, res.Err)
			continue
		}
		songs = append(songs, res.Meta)
	}

	if asJSON {
		if err := r.writeJSON(songs, cmd.Bool("pretty")); err != nil {
			return err
		}
	} else {
		for _, s := range songs {
			r.writePlain("\n")
			r.printSong(s)
		}
	}

	return errors.Join(errs...)
}

// RecsGet enriches the seeds and requests recommendations for them.
func (r *Runner) RecsGet(ctx context.Context, cmd *cli.Command) error {
	seeds := cmd.IntSlice("seed")
	if len(seeds) == 0 {
		return fmt.Errorf("%w: at least one --seed", shared.ErrMissingArgument)
	}

	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	state := session.NewState()
	if err := applyGenres(state.Preferences, cmd.StringSlice("genre"), cmd.Bool("no-genres")); err != nil {
		return err
	}
	if cmd.IsSet("count") {
		if got := state.Preferences.SetNumRecs(cmd.Int("count")); got != cmd.Int("count") {
			r.logger.Warn("count out of range, clamped", "requested", cmd.Int("count"), "used", got)
		}
	}

	engine, err := r.loadEngine(ctx, cmd.Bool("no-save"))
	if err != nil {
		return err
	}

	quiet := format != formatter.Text && format != formatter.Markdown
	progressCh, done := r.progressPrinter(quiet)

	for _, res := range engine.EnrichMany(ctx, seeds, tasks.DefaultWorkers, progressCh) {
		if res.Err != nil {
			close(progressCh)
			<-done
			return res.Err
		}
		state.Selection.Add(res.Meta)
	}

	result, err := engine.Recommend(ctx, state.Snapshot(), progressCh)
	close(progressCh)
	<-done
	if err != nil {
		return fmt.Errorf("could not get recommendations, try again: %w", err)
	}

	if !quiet {
		r.writePlain("\n")
	}
	if err := formatter.Render(r.output, result.Session, format); err != nil {
		return err
	}

	switch {
	case result.HistoryErr != nil:
		r.logger.Warn("session not saved to history", "error", result.HistoryErr)
	case result.Saved:
		r.logger.Info("session saved to history", "id", result.Session.ID)
	}
	return nil
}

// applyGenres turns --genre values into preferences. No values keeps every genre;
// "all" selects the full vocabulary.
func applyGenres(prefs *session.Preferences, tags []string, none bool) error {
	if none {
		prefs.SetGenres(nil)
		return nil
	}
	if len(tags) == 0 || slices.Contains(tags, models.AllGenresTag) {
		prefs.SetAll()
		return nil
	}
	for _, tag := range tags {
		if !models.IsGenre(tag) {
			return fmt.Errorf("%w: %q (choose from %v)", shared.ErrUnknownGenre, tag, models.Genres())
		}
	}
	prefs.SetGenres(tags)
	return nil
}

// progressPrinter drains progress updates onto the output. When quiet, updates go to the debug log
// so machine-readable output stays clean. done closes once the channel is drained.
func (r *Runner) progressPrinter(quiet bool) (chan tasks.ProgressUpdate, <-chan struct{}) {
	progressCh := make(chan tasks.ProgressUpdate, 50)
	done := make(chan struct{})

	go func() {
		defer close(done)
		for update := range progressCh {
			if quiet {
				r.logger.Debug(update.Message, "phase", update.Phase)
				continue
			}
			switch update.Phase {
			case tasks.Enrich:
				r.writePlain("📥 %s\n", update.Message)
			case tasks.Recommend:
				r.writePlain("🎧 %s\n", update.Message)
			case tasks.SaveHistory:
				r.writePlain("💾 %s\n", update.Message)
			}
		}
	}()

	return progressCh, done
}
