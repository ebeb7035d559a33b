// package tasks implements the operations a recommendation session runs against the recommender.
//
// The core abstraction is Engine, which enriches seeds, picks random seeds, and runs recommendation requests.
// Operations emit progress updates via channels for non-blocking status reporting to CLI/UI layers.
package tasks

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/songrec/internal/catalog"
	"github.com/desertthunder/songrec/internal/models"
	"github.com/desertthunder/songrec/internal/repositories"
	"github.com/desertthunder/songrec/internal/services"
	"github.com/desertthunder/songrec/internal/shared"
)

// EnrichResult is the outcome of enriching one seed.
type EnrichResult struct {
	ID       int
	Meta     models.SongMetadata
	Degraded bool  // Meta holds only catalog fields because the recommender failed
	Err      error // Set only when the id is not in the catalog
}

// RecommendResult contains the session produced by a recommendation run.
type RecommendResult struct {
	Session    models.Session // Snapshot with the new output, as stored when saved
	Saved      bool           // Whether the snapshot reached history
	HistoryErr error          // Storage failure, logged and otherwise ignored
}

// Engine coordinates the catalog, the recommender and history for one session.
type Engine struct {
	catalog     *catalog.Catalog
	recommender services.Recommender
	history     repositories.HistoryStore
	logger      *log.Logger

	mu  sync.Mutex
	rng *rand.Rand
}

// EngineOpts configures an [Engine]. History may be nil to skip persistence.
type EngineOpts struct {
	Catalog     *catalog.Catalog
	Recommender services.Recommender
	History     repositories.HistoryStore
	Logger      *log.Logger
	Rand        *rand.Rand
}

// NewEngine creates a new Engine with the provided dependencies.
func NewEngine(opts EngineOpts) *Engine {
	if opts.Catalog == nil {
		opts.Catalog = catalog.New(nil)
	}
	if opts.Logger == nil {
		opts.Logger = shared.NopLogger()
	}
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &Engine{
		catalog:     opts.Catalog,
		recommender: opts.Recommender,
		history:     opts.History,
		logger:      opts.Logger,
		rng:         opts.Rand,
	}
}

// Catalog returns the catalog the engine searches.
func (e *Engine) Catalog() *catalog.Catalog {
	return e.catalog
}

// History returns the configured history store, which may be nil.
func (e *Engine) History() repositories.HistoryStore {
	return e.history
}

// sendProgress sends a progress update through the channel without blocking.
// Uses select with default to ensure progress reporting never blocks execution.
func (e *Engine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

// Enrich fetches metadata for a catalog song.
//
// Recommender failures never fail the add: the catalog fields are returned with degraded set.
// Only an id missing from the catalog is an error.
func (e *Engine) Enrich(ctx context.Context, id int) (models.SongMetadata, bool, error) {
	local, ok := e.catalog.Lookup(id)
	if !ok {
		return models.SongMetadata{}, false, fmt.Errorf("%w: %d", shared.ErrSongNotFound, id)
	}
	fallback := models.FromSong(local)

	if e.recommender == nil {
		return fallback, true, nil
	}

	songs, err := e.recommender.FetchMetadata(ctx, []int{id})
	if err != nil {
		e.logger.Warn("metadata fetch failed, using catalog fields", "id", id, "error", err)
		return fallback, true, nil
	}

	for _, s := range songs {
		if s.ID == id {
			return models.Merge(local, true, s), false, nil
		}
	}

	e.logger.Warn("metadata response did not include song, using catalog fields", "id", id)
	return fallback, true, nil
}

// PickRandom returns a uniformly random catalog song for which exclude is false.
func (e *Engine) PickRandom(exclude func(id int) bool) (models.Song, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.catalog.RandomExcluding(e.rng, exclude)
}

// Recommend requests recommendations for the session's seeds and preferences.
//
// On success the returned session carries the new output and has been appended to history
// when a store is configured. A history failure is recorded in the result and does not fail
// the run. On failure nothing is returned, so the caller's output stays as it was.
func (e *Engine) Recommend(ctx context.Context, session models.Session, progress chan<- ProgressUpdate) (*RecommendResult, error) {
	if e.recommender == nil {
		return nil, fmt.Errorf("%w: recommender not configured", shared.ErrServiceUnavailable)
	}
	if len(session.Input) == 0 {
		return nil, shared.ErrNoSeeds
	}

	snapshot := session.Clone()
	snapshot.NumRecs = models.ClampNumRecs(snapshot.NumRecs)

	e.sendProgress(progress, requestingUpdate(snapshot))

	recs, err := e.recommender.FetchRecommendations(ctx, snapshot.SeedIDs(), snapshot.Genres, snapshot.NumRecs)
	if err != nil {
		e.logger.Error("recommendation request failed", "seeds", len(snapshot.Input), "error", err)
		return nil, err
	}

	e.sendProgress(progress, receivedUpdate(len(recs)))

	snapshot.Version = models.SessionVersion
	snapshot.ID = ""
	snapshot.CreatedAt = time.Time{}
	snapshot.Output = recs
	if snapshot.Output == nil {
		snapshot.Output = []models.SongMetadata{}
	}

	result := &RecommendResult{Session: snapshot}
	if e.history == nil {
		return result, nil
	}

	e.sendProgress(progress, savingUpdate())

	stored, err := e.history.Append(ctx, snapshot)
	if err != nil {
		e.logger.Warn("failed to save session to history", "error", err)
		result.HistoryErr = err
	} else {
		result.Session = stored
		result.Saved = true
	}

	e.sendProgress(progress, savedUpdate(result.Session, err))
	return result, nil
}
