package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/songrec/internal/models"
	"github.com/desertthunder/songrec/internal/shared"
)

// HistoryKey is the kv_store key holding the session history.
const HistoryKey = "history"

// HistoryStore is the contract the session engine relies on.
type HistoryStore interface {
	Append(ctx context.Context, session models.Session) (models.Session, error)
	List(ctx context.Context) ([]models.Session, error)
	Get(ctx context.Context, index int) (models.Session, error)
	Clear(ctx context.Context) error
}

// keyValue is the slice of [KVStore] the history needs.
type keyValue interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// HistoryRepository persists sessions most-recent-last under [HistoryKey].
type HistoryRepository struct {
	kv     keyValue
	logger *log.Logger
	now    func() time.Time
}

// NewHistoryRepository creates a new HistoryRepository with the given database connection
func NewHistoryRepository(db *sql.DB, logger *log.Logger) *HistoryRepository {
	if logger == nil {
		logger = shared.NopLogger()
	}
	return &HistoryRepository{kv: NewKVStore(db), logger: logger, now: time.Now}
}

// Append stamps session and pushes it onto the stored history, returning the stored copy.
//
// The version is always set to [models.SessionVersion]; id and created_at are filled when empty.
func (r *HistoryRepository) Append(ctx context.Context, session models.Session) (models.Session, error) {
	entry := session.Clone()
	entry.Version = models.SessionVersion
	if entry.ID == "" {
		entry.ID = shared.GenerateID()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = r.now().UTC().Truncate(time.Second)
	}

	history, err := r.load(ctx)
	if err != nil {
		return entry, err
	}
	history = append(history, entry)

	data, err := json.Marshal(history)
	if err != nil {
		return entry, fmt.Errorf("%w: failed to encode history: %v", shared.ErrStorage, err)
	}
	if err := r.kv.Set(ctx, HistoryKey, string(data)); err != nil {
		return entry, err
	}

	return entry, nil
}

// List returns the stored sessions in storage order.
//
// A missing or corrupt value yields an empty history, as does a failed read, which is logged.
func (r *HistoryRepository) List(ctx context.Context) ([]models.Session, error) {
	history, err := r.load(ctx)
	if err != nil {
		r.logger.Warn("history unreadable, treating as empty", "error", err)
		return []models.Session{}, nil
	}
	return history, nil
}

// load decodes the stored history. Missing or corrupt values read as empty; read errors are returned
// so writers never overwrite history they could not see.
func (r *HistoryRepository) load(ctx context.Context) ([]models.Session, error) {
	raw, ok, err := r.kv.Get(ctx, HistoryKey)
	if err != nil {
		return nil, err
	}
	if !ok || raw == "" {
		return []models.Session{}, nil
	}

	var history []models.Session
	if err := json.Unmarshal([]byte(raw), &history); err != nil {
		r.logger.Warn("history is corrupt, treating as empty", "error", err)
		return []models.Session{}, nil
	}
	if history == nil {
		history = []models.Session{}
	}

	for i := range history {
		if history[i].Version == 0 {
			history[i].Version = models.SessionVersion
		}
	}
	return history, nil
}

// Get returns the session at index in storage order.
func (r *HistoryRepository) Get(ctx context.Context, index int) (models.Session, error) {
	history, err := r.List(ctx)
	if err != nil {
		return models.Session{}, err
	}
	if index < 0 || index >= len(history) {
		return models.Session{}, fmt.Errorf("%w: index %d of %d", shared.ErrHistoryNotFound, index, len(history))
	}
	return history[index], nil
}

// Clear removes the history key.
func (r *HistoryRepository) Clear(ctx context.Context) error {
	return r.kv.Delete(ctx, HistoryKey)
}
