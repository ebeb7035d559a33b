package repositories

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/songrec/internal/models"
	"github.com/desertthunder/songrec/internal/shared"
)

// setupTestDB creates an in-memory SQLite database with migrations applied
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	db.SetMaxOpenConns(1)

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	return db
}

func sampleSession() models.Session {
	s := models.NewSession()
	s.Input = []models.SongMetadata{{
		Song:       models.Song{ID: 1, TrackID: "t1", Name: "Song A", Artists: []string{"Artist X"}, Genre: "pop", Subgenre: "dance pop"},
		PreviewURL: "https://p/1",
	}}
	s.Genres = []string{"pop", "rock"}
	s.NumRecs = 10
	s.Output = []models.SongMetadata{{Song: models.Song{ID: 5, Name: "Five", Artists: []string{"Y"}, Genre: "pop"}}}
	return s
}

func TestKVStore(t *testing.T) {
	ctx := context.Background()

	t.Run("Get Missing", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		_, ok, err := NewKVStore(db).Get(ctx, "absent")
		if err != nil || ok {
			t.Errorf("Get() = %v, %v; want not found", ok, err)
		}
	})

	t.Run("Set Overwrites", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		kv := NewKVStore(db)
		if err := kv.Set(ctx, "k", "one"); err != nil {
			t.Fatal(err)
		}
		if err := kv.Set(ctx, "k", "two"); err != nil {
			t.Fatal(err)
		}

		v, ok, err := kv.Get(ctx, "k")
		if err != nil || !ok || v != "two" {
			t.Errorf("Get() = %q, %v, %v", v, ok, err)
		}
	})

	t.Run("Delete", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		kv := NewKVStore(db)
		kv.Set(ctx, "k", "v")
		if err := kv.Delete(ctx, "k"); err != nil {
			t.Fatal(err)
		}
		if _, ok, _ := kv.Get(ctx, "k"); ok {
			t.Error("key should be gone")
		}
		if err := kv.Delete(ctx, "k"); err != nil {
			t.Errorf("deleting an absent key should not fail: %v", err)
		}
	})

	t.Run("Closed Database", func(t *testing.T) {
		db := setupTestDB(t)
		db.Close()

		kv := NewKVStore(db)
		if err := kv.Set(ctx, "k", "v"); !errors.Is(err, shared.ErrStorage) {
			t.Errorf("expected ErrStorage, got %v", err)
		}
		if _, _, err := kv.Get(ctx, "k"); !errors.Is(err, shared.ErrStorage) {
			t.Errorf("expected ErrStorage, got %v", err)
		}
	})
}

// flakyKV fails reads while readErr is set and counts writes.
type flakyKV struct {
	*KVStore
	readErr error
	writes  int
}

func (f *flakyKV) Get(ctx context.Context, key string) (string, bool, error) {
	if f.readErr != nil {
		return "", false, f.readErr
	}
	return f.KVStore.Get(ctx, key)
}

func (f *flakyKV) Set(ctx context.Context, key, value string) error {
	f.writes++
	return f.KVStore.Set(ctx, key, value)
}

func TestHistoryRepository(t *testing.T) {
	ctx := context.Background()
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	newRepo := func(t *testing.T, db *sql.DB) *HistoryRepository {
		t.Helper()
		repo := NewHistoryRepository(db, nil)
		repo.now = func() time.Time { return fixed }
		return repo
	}

	t.Run("Append Then List", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()
		repo := newRepo(t, db)

		first, err := repo.Append(ctx, models.NewSession())
		if err != nil {
			t.Fatalf("Append() error = %v", err)
		}
		stored, err := repo.Append(ctx, sampleSession())
		if err != nil {
			t.Fatalf("Append() error = %v", err)
		}

		if stored.Version != models.SessionVersion || stored.ID == "" || !stored.CreatedAt.Equal(fixed) {
			t.Errorf("entry not stamped: %+v", stored)
		}

		history, err := repo.List(ctx)
		if err != nil {
			t.Fatalf("List() error = %v", err)
		}
		if len(history) != 2 {
			t.Fatalf("expected 2 entries, got %d", len(history))
		}
		if history[0].ID != first.ID {
			t.Error("storage order should be most-recent-last")
		}
		if !reflect.DeepEqual(history[1], stored) {
			t.Errorf("last entry = %+v, want %+v", history[1], stored)
		}
	})

	t.Run("Append Keeps Existing ID", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()
		repo := newRepo(t, db)

		s := sampleSession()
		s.ID = "keep-me"
		s.Version = 0
		stored, err := repo.Append(ctx, s)
		if err != nil {
			t.Fatal(err)
		}
		if stored.ID != "keep-me" || stored.Version != models.SessionVersion {
			t.Errorf("unexpected stamp: %+v", stored)
		}
	})

	t.Run("Clear", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()
		repo := newRepo(t, db)

		repo.Append(ctx, sampleSession())
		if err := repo.Clear(ctx); err != nil {
			t.Fatalf("Clear() error = %v", err)
		}

		history, err := repo.List(ctx)
		if err != nil || len(history) != 0 || history == nil {
			t.Errorf("List() after Clear() = %#v, %v", history, err)
		}
	})

	t.Run("Corrupt Value Reads As Empty", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		var buf bytes.Buffer
		repo := NewHistoryRepository(db, shared.NewLogger(&buf))
		if err := NewKVStore(db).Set(ctx, HistoryKey, "{not json"); err != nil {
			t.Fatal(err)
		}

		history, err := repo.List(ctx)
		if err != nil || len(history) != 0 {
			t.Errorf("List() = %v, %v; want empty", history, err)
		}
		if !strings.Contains(buf.String(), "corrupt") {
			t.Errorf("expected corrupt history to be logged, got %q", buf.String())
		}

		if _, err := repo.Append(ctx, sampleSession()); err != nil {
			t.Fatalf("Append() over corrupt value error = %v", err)
		}
		history, _ = repo.List(ctx)
		if len(history) != 1 {
			t.Errorf("expected corrupt value to be replaced, got %d entries", len(history))
		}
	})

	t.Run("Unversioned Entries", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()
		repo := newRepo(t, db)

		legacy := `[{"input":[],"genres":["pop"],"num_recs":25,"output":[]}]`
		NewKVStore(db).Set(ctx, HistoryKey, legacy)

		history, _ := repo.List(ctx)
		if len(history) != 1 || history[0].Version != models.SessionVersion {
			t.Errorf("unexpected history: %+v", history)
		}
	})

	t.Run("Get", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()
		repo := newRepo(t, db)

		stored, _ := repo.Append(ctx, sampleSession())
		got, err := repo.Get(ctx, 0)
		if err != nil || got.ID != stored.ID {
			t.Errorf("Get(0) = %+v, %v", got, err)
		}
		if _, err := repo.Get(ctx, 3); !errors.Is(err, shared.ErrHistoryNotFound) {
			t.Errorf("expected ErrHistoryNotFound, got %v", err)
		}
	})

	t.Run("Read Failure Leaves History Untouched", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()
		repo := newRepo(t, db)
		kv := &flakyKV{KVStore: NewKVStore(db)}
		repo.kv = kv

		for range 2 {
			if _, err := repo.Append(ctx, sampleSession()); err != nil {
				t.Fatalf("Append() error = %v", err)
			}
		}
		writes := kv.writes

		kv.readErr = fmt.Errorf("%w: database is locked", shared.ErrStorage)
		if _, err := repo.Append(ctx, sampleSession()); !errors.Is(err, shared.ErrStorage) {
			t.Fatalf("expected ErrStorage, got %v", err)
		}
		if kv.writes != writes {
			t.Errorf("expected no write after a failed read, got %d", kv.writes-writes)
		}

		listed, err := repo.List(ctx)
		if err != nil || len(listed) != 0 {
			t.Errorf("expected List to read as empty while storage fails, got %d, %v", len(listed), err)
		}

		kv.readErr = nil
		listed, err = repo.List(ctx)
		if err != nil {
			t.Fatalf("List() error = %v", err)
		}
		if len(listed) != 2 {
			t.Errorf("expected both stored sessions to survive, got %d", len(listed))
		}
	})

	t.Run("Write Failure", func(t *testing.T) {
		db := setupTestDB(t)
		repo := newRepo(t, db)
		db.Close()

		if _, err := repo.Append(ctx, sampleSession()); !errors.Is(err, shared.ErrStorage) {
			t.Errorf("expected ErrStorage, got %v", err)
		}
	})
}
