package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/songrec/internal/catalog"
	"github.com/desertthunder/songrec/internal/repositories"
	"github.com/desertthunder/songrec/internal/services"
	"github.com/desertthunder/songrec/internal/shared"
	"github.com/desertthunder/songrec/internal/tasks"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
//
// The catalog, recommender and history store are built lazily from the config the first
// time a command needs them, so commands like `setup config` never touch the network or disk.
type Runner struct {
	config      *shared.Config
	configPath  string
	httpClient  *http.Client
	logger      *log.Logger
	output      io.Writer
	catalog     *catalog.Catalog
	recommender services.Recommender
	history     repositories.HistoryStore
	db          *sql.DB
	engine      *tasks.Engine
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config      *shared.Config
	ConfigPath  string
	HTTPClient  *http.Client
	Logger      *log.Logger
	Output      io.Writer
	Catalog     *catalog.Catalog
	Recommender services.Recommender
	History     repositories.HistoryStore
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}

	return &Runner{
		config:      opts.Config,
		configPath:  opts.ConfigPath,
		httpClient:  opts.HTTPClient,
		logger:      opts.Logger,
		output:      opts.Output,
		catalog:     opts.Catalog,
		recommender: opts.Recommender,
		history:     opts.History,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, catalogCommand, recsCommand, historyCommand, previewCommand, serveCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// SetLogger swaps the logger, e.g. for a file logger while the TUI owns the terminal.
func (r *Runner) SetLogger(logger *log.Logger) {
	r.logger = logger
	r.engine = nil
}

// Close releases the database handle if one was opened.
func (r *Runner) Close() error {
	if r.db == nil {
		return nil
	}
	err := r.db.Close()
	r.db = nil
	return err
}

// loadCatalog reads the catalog from the configured path or URL once.
func (r *Runner) loadCatalog(ctx context.Context) (*catalog.Catalog, error) {
	if r.catalog != nil {
		return r.catalog, nil
	}

	r.logger.Debug("loading catalog", "source", r.config.Catalog.Path)
	c, err := catalog.Load(ctx, r.config.Catalog.Path)
	if err != nil {
		return nil, err
	}
	r.logger.Info("catalog loaded", "songs", c.Len())
	r.catalog = c
	return c, nil
}

// loadHistory opens and migrates the database once.
func (r *Runner) loadHistory() (repositories.HistoryStore, error) {
	if r.history != nil {
		return r.history, nil
	}

	db, err := shared.OpenDatabase(r.config.Database)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrStorage, err)
	}
	r.db = db
	r.history = repositories.NewHistoryRepository(db, r.logger)
	return r.history, nil
}

// loadEngine wires the catalog, recommender and (unless skipHistory) history into an [tasks.Engine].
func (r *Runner) loadEngine(ctx context.Context, skipHistory bool) (*tasks.Engine, error) {
	if r.engine != nil && !skipHistory {
		return r.engine, nil
	}

	c, err := r.loadCatalog(ctx)
	if err != nil {
		return nil, err
	}

	if r.recommender == nil {
		r.recommender = services.NewFromConfig(ctx, r.config.Recommender, c.Lookup, r.logger)
	}

	opts := tasks.EngineOpts{Catalog: c, Recommender: r.recommender, Logger: r.logger}
	if skipHistory {
		return tasks.NewEngine(opts), nil
	}

	history, err := r.loadHistory()
	if err != nil {
		r.logger.Warn("history unavailable, sessions will not be saved", "error", err)
	} else {
		opts.History = history
	}

	r.engine = tasks.NewEngine(opts)
	return r.engine, nil
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}

// intArg parses a required positional integer argument.
func intArg(cmd *cli.Command, name string) (int, error) {
	raw := cmd.StringArg(name)
	if raw == "" {
		return 0, fmt.Errorf("%w: %s", shared.ErrMissingArgument, name)
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer, got %q", shared.ErrInvalidArgument, name, raw)
	}
	return n, nil
}
