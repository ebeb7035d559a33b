package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/songrec/internal/shared"
)

// SetupDatabase initializes the database and runs migrations.
func (r *Runner) SetupDatabase(ctx context.Context, cmd *cli.Command) error {
	if err := r.ensureConfig(cmd.String("config")); err != nil {
		return err
	}

	r.logger.Info("initializing database", "path", r.config.Database.Path)

	db, err := shared.NewDatabase(r.config.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to create database: %w", err)
	}
	defer db.Close()

	shared.ConfigureDatabase(db, r.config.Database.MaxOpenConns, r.config.Database.MaxIdleConns)

	r.logger.Info("running database migrations")
	if err := shared.RunMigrations(db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	r.logger.Infof("setup complete for database: %v", r.config.Database.Path)
	return nil
}

// SetupConfig writes config.toml from the embedded example and validates the result.
func (r *Runner) SetupConfig(ctx context.Context, cmd *cli.Command) error {
	path := cmd.String("config")
	if err := shared.CreateConfigFile(path); err != nil {
		return err
	}

	config, err := shared.LoadConfig(path)
	if err != nil {
		return err
	}
	if err := config.Validate(); err != nil {
		r.logger.Warn("config needs attention", "error", err)
	}

	r.writePlain("✓ Config written to %s\n", path)
	r.writePlain("Set catalog.path and recommender.endpoint, or export %s and %s\n",
		shared.EnvCatalogPath, shared.EnvEndpoint)
	return nil
}

// ensureConfig loads the config at path, creating it from the template when missing.
func (r *Runner) ensureConfig(path string) error {
	if path == "" || path == r.configPath {
		return nil
	}

	config, err := shared.LoadConfig(path)
	if err != nil {
		r.logger.Info("config file not found, creating from template", "path", path)
		if err := shared.CreateConfigFile(path); err != nil {
			r.logger.Warn("failed to create config file, using defaults", "error", err)
			return nil
		}
		if config, err = shared.LoadConfig(path); err != nil {
			return err
		}
	}

	if err := config.ApplyEnv(); err != nil {
		return err
	}
	r.config = config
	r.configPath = path
	return nil
}
