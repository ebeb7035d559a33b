// submodule cmd contains command definitions
package main

import (
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/songrec/internal/catalog"
	"github.com/desertthunder/songrec/internal/models"
	"github.com/desertthunder/songrec/internal/tasks"
)

func jsonFlag() *cli.BoolFlag {
	return &cli.BoolFlag{Name: "json", Usage: "Output raw JSON"}
}

func prettyFlag() *cli.BoolFlag {
	return &cli.BoolFlag{Name: "pretty", Usage: "Pretty-print JSON output"}
}

func formatFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:    "format",
		Aliases: []string{"f"},
		Usage:   "Output format: txt, markdown, csv or json",
		Value:   "txt",
	}
}

func configFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to configuration file",
		Value:   "config.toml",
	}
}

// setupCommand handles setup operations for the database and config file.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:   "database",
				Usage:  "Initialize database and run migrations",
				Flags:  []cli.Flag{configFlag()},
				Action: r.SetupDatabase,
			},
			{
				Name:   "config",
				Usage:  "Write config.toml from the built-in template",
				Flags:  []cli.Flag{configFlag()},
				Action: r.SetupConfig,
			},
		},
	}
}

// catalogCommand handles local catalog lookups
func catalogCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "catalog",
		Aliases: []string{"cat"},
		Usage:   "Search and inspect the song catalog",
		Commands: []*cli.Command{
			{
				Name:      "search",
				Usage:     "Search songs by name or artist",
				Arguments: []cli.Argument{&cli.StringArg{Name: "query"}},
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:    "limit",
						Aliases: []string{"n"},
						Usage:   "Maximum number of results",
						Value:   catalog.DefaultSearchLimit,
					},
					jsonFlag(),
					prettyFlag(),
				},
				Action: r.CatalogSearch,
			},
			{
				Name:      "show",
				Usage:     "Show one catalog song",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Flags:     []cli.Flag{jsonFlag()},
				Action:    r.CatalogShow,
			},
			{
				Name:  "random",
				Usage: "Pick a random catalog song",
				Flags: []cli.Flag{
					&cli.IntSliceFlag{Name: "exclude", Usage: "Song IDs to skip"},
					jsonFlag(),
				},
				Action: r.CatalogRandom,
			},
		},
	}
}

// recsCommand talks to the recommendation service
func recsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "recs",
		Usage: "Fetch metadata and recommendations",
		Commands: []*cli.Command{
			{
				Name:  "metadata",
				Usage: "Fetch enriched metadata for catalog songs",
				Flags: []cli.Flag{
					&cli.IntSliceFlag{Name: "id", Usage: "Song ID (repeatable)", Required: true},
					&cli.IntFlag{Name: "workers", Usage: "Concurrent requests", Value: tasks.DefaultWorkers},
					jsonFlag(),
					prettyFlag(),
				},
				Action: r.RecsMetadata,
			},
			{
				Name:  "get",
				Usage: "Get recommendations for seed songs",
				Flags: []cli.Flag{
					&cli.IntSliceFlag{Name: "seed", Aliases: []string{"s"}, Usage: "Seed song ID (repeatable)", Required: true},
					&cli.StringSliceFlag{Name: "genre", Aliases: []string{"g"}, Usage: "Genre filter (repeatable, or \"all\")"},
					&cli.BoolFlag{Name: "no-genres", Usage: "Send an empty genre filter"},
					&cli.IntFlag{Name: "count", Aliases: []string{"n"}, Usage: "Number of recommendations", Value: models.DefaultNumRecs},
					formatFlag(),
					&cli.BoolFlag{Name: "no-save", Usage: "Do not save the session to history"},
				},
				Action: r.RecsGet,
			},
		},
	}
}

// historyCommand manages saved sessions
func historyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "List, show, export and clear saved sessions",
		Commands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List saved sessions, oldest first",
				Flags:  []cli.Flag{jsonFlag(), prettyFlag()},
				Action: r.HistoryList,
			},
			{
				Name:      "show",
				Usage:     "Show one saved session by index",
				Arguments: []cli.Argument{&cli.StringArg{Name: "index"}},
				Flags:     []cli.Flag{formatFlag()},
				Action:    r.HistoryShow,
			},
			{
				Name:      "export",
				Usage:     "Export one saved session to a file",
				Arguments: []cli.Argument{&cli.StringArg{Name: "index"}},
				Flags: []cli.Flag{
					formatFlag(),
					&cli.StringFlag{Name: "dir", Aliases: []string{"d"}, Usage: "Output directory", Value: "."},
				},
				Action: r.HistoryExport,
			},
			{
				Name:   "clear",
				Usage:  "Remove every saved session",
				Action: r.HistoryClear,
			},
		},
	}
}

// previewCommand plays a song's audio preview
func previewCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "preview",
		Usage:     "Play a song's audio preview",
		Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "seconds", Usage: "How long to play", Value: 10},
		},
		Action: r.Preview,
	}
}

// serveCommand runs the local JSON API
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the local JSON API",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "addr", Usage: "Listen address (default from config)"},
		},
		Action: r.Serve,
	}
}

// tuiCommand launches the interactive interface
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "tui",
		Usage: "Interactive terminal interface",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "log", Usage: "Log file path", Value: "./tmp/songrec-tui.log"},
			&cli.BoolFlag{Name: "no-save", Usage: "Do not save sessions to history"},
			&cli.BoolFlag{Name: "no-preview", Usage: "Disable audio previews"},
		},
		Action: r.TUI,
	}
}
