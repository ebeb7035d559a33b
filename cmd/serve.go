package main

import (
	"context"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/songrec/internal/server"
	"github.com/desertthunder/songrec/internal/session"
	"github.com/desertthunder/songrec/internal/tasks"
)

// Serve runs the local JSON API until the context is cancelled.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	engine, err := r.loadEngine(ctx, false)
	if err != nil {
		return err
	}

	addr := r.config.Server.Addr()
	if cmd.IsSet("addr") {
		addr = cmd.String("addr")
	}

	api := server.NewAPI(engine, seedManager(ctx, engine, r.config.Catalog.DefaultSeeds, r.logger), engine.History(), r.logger)
	router := server.NewRouter(api, r.logger)

	r.logger.Info("serving API", "addr", addr, "songs", engine.Catalog().Len())
	return server.Serve(ctx, addr, router, r.logger)
}

// seedManager starts the API session with the configured default seeds already enriched.
func seedManager(ctx context.Context, engine *tasks.Engine, ids []int, logger *log.Logger) *session.Manager {
	state := session.NewState()
	for _, id := range ids {
		meta, degraded, err := engine.Enrich(ctx, id)
		if err != nil {
			logger.Warn("default seed not in catalog", "id", id)
			continue
		}
		if degraded {
			logger.Debug("default seed added without metadata", "id", id)
		}
		state.Selection.Add(meta)
	}
	return session.NewManager(state)
}
