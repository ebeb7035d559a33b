package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/songrec/internal/formatter"
	"github.com/desertthunder/songrec/internal/models"
	"github.com/desertthunder/songrec/internal/shared"
)

// CatalogSearch prints the catalog songs whose name or artists match the query.
func (r *Runner) CatalogSearch(ctx context.Context, cmd *cli.Command) error {
	query := cmd.StringArg("query")
	limit := cmd.Int("limit")
	if !cmd.IsSet("limit") && r.config.Catalog.SearchLimit > 0 {
		limit = r.config.Catalog.SearchLimit
	}

	c, err := r.loadCatalog(ctx)
	if err != nil {
		return err
	}

	results, total := c.Search(query, limit)
	r.logger.Debug("catalog search", "query", query, "shown", len(results), "total", total)

	if cmd.Bool("json") {
		return r.writeJSON(struct {
			Songs []models.Song `json:"songs"`
			Total int           `json:"total"`
		}{results, total}, cmd.Bool("pretty"))
	}

	if len(results) == 0 {
		return r.writePlain("No songs match %q\n", query)
	}
	for _, s := range results {
		r.writePlain("%6d  %s\n", s.ID, formatter.SongLine(s))
	}
	if total > len(results) {
		r.writePlain("\nShowing %d of %d matches\n", len(results), total)
	}
	return nil
}

// CatalogShow prints one catalog entry.
func (r *Runner) CatalogShow(ctx context.Context, cmd *cli.Command) error {
	id, err := intArg(cmd, "id")
	if err != nil {
		return err
	}

	c, err := r.loadCatalog(ctx)
	if err != nil {
		return err
	}

	song, ok := c.Lookup(id)
	if !ok {
		return fmt.Errorf("%w: %d", shared.ErrSongNotFound, id)
	}

	if cmd.Bool("json") {
		return r.writeJSON(song, true)
	}
	r.printSong(models.FromSong(song))
	return nil
}

// CatalogRandom prints a uniformly random catalog song.
func (r *Runner) CatalogRandom(ctx context.Context, cmd *cli.Command) error {
	engine, err := r.loadEngine(ctx, true)
	if err != nil {
		return err
	}

	exclude := map[int]bool{}
	for _, id := range cmd.IntSlice("exclude") {
		exclude[id] = true
	}

	song, err := engine.PickRandom(func(id int) bool { return exclude[id] })
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(song, true)
	}
	r.printSong(models.FromSong(song))
	return nil
}

func (r *Runner) printSong(s models.SongMetadata) {
	r.writePlainHeader(s.Name)
	r.writePlain("ID:       %d\n", s.ID)
	r.writePlain("Artists:  %s\n", s.ArtistLine())
	r.writePlain("Genre:    %s", s.Genre)
	if s.Subgenre != "" {
		r.writePlain(" (%s)", s.Subgenre)
	}
	r.writePlain("\n")
	if s.TrackID != "" {
		r.writePlain("Track ID: %s\n", s.TrackID)
	}
	if s.TrackURL != "" {
		r.writePlain("Link:     %s\n", s.TrackURL)
	}
	if s.PreviewURL != "" {
		r.writePlain("Preview:  %s\n", s.PreviewURL)
	}
	if s.ImageURL != "" {
		r.writePlain("Cover:    %s\n", s.ImageURL)
	}
}
