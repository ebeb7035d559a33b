package main

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/songrec/internal/catalog"
	"github.com/desertthunder/songrec/internal/models"
	"github.com/desertthunder/songrec/internal/repositories"
	"github.com/desertthunder/songrec/internal/session"
	"github.com/desertthunder/songrec/internal/shared"
	tu "github.com/desertthunder/songrec/internal/testing"
)

func testCatalog() *catalog.Catalog {
	return catalog.New([]models.Song{
		{ID: 1, TrackID: "t1", Name: "Blinding Lights", Artists: []string{"The Weeknd"}, Genre: "pop", Subgenre: "dance pop"},
		{ID: 2, TrackID: "t2", Name: "Lose Yourself", Artists: []string{"Eminem"}, Genre: "rap", Subgenre: "hip hop"},
		{ID: 3, TrackID: "t3", Name: "Lights Up", Artists: []string{"Harry Styles"}, Genre: "pop"},
	})
}

func setupHistory(t *testing.T) *repositories.HistoryRepository {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	if err := shared.RunMigrations(db); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}
	return repositories.NewHistoryRepository(db, shared.NopLogger())
}

type harness struct {
	runner  *Runner
	output  *bytes.Buffer
	rec     *tu.MockRecommender
	history *repositories.HistoryRepository
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		output: &bytes.Buffer{},
		rec: &tu.MockRecommender{
			Metadata: map[int]models.SongMetadata{
				1: {Song: models.Song{ID: 1, Name: "Blinding Lights"}, PreviewURL: "https://p/1.mp3", TrackURL: "https://open/1"},
			},
			Recs: []models.SongMetadata{
				{Song: models.Song{ID: 3, Name: "Lights Up", Artists: []string{"Harry Styles"}}, TrackURL: "https://open/3"},
			},
		},
		history: setupHistory(t),
	}
	h.runner = NewRunner(RunnerOpts{
		Logger:      shared.NopLogger(),
		Output:      h.output,
		Catalog:     testCatalog(),
		Recommender: h.rec,
		History:     h.history,
	})
	return h
}

func (h *harness) run(args ...string) error {
	app := &cli.Command{
		Name:     "songrec",
		Writer:   h.output,
		Commands: h.runner.register(),
	}
	return app.Run(context.Background(), append([]string{"songrec"}, args...))
}

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with all dependencies provided", func(t *testing.T) {
			config := shared.DefaultConfig()
			logger := shared.NewLogger(nil)
			output := &bytes.Buffer{}
			httpClient := &http.Client{}
			c := testCatalog()
			rec := &tu.MockRecommender{}

			runner := NewRunner(RunnerOpts{
				Config:      config,
				Logger:      logger,
				Output:      output,
				HTTPClient:  httpClient,
				Catalog:     c,
				Recommender: rec,
			})

			if runner.config != config {
				t.Error("expected config to be set")
			}
			if runner.logger != logger {
				t.Error("expected logger to be set")
			}
			if runner.output != output {
				t.Error("expected output to be set")
			}
			if runner.httpClient != httpClient {
				t.Error("expected httpClient to be set")
			}
			if runner.catalog != c {
				t.Error("expected catalog to be set")
			}
			if runner.recommender != rec {
				t.Error("expected recommender to be set")
			}
		})

		t.Run("with nil config uses defaults", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Config: nil})

			if runner.config == nil {
				t.Error("expected default config to be set")
			}
		})

		t.Run("with nil logger uses default", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Logger: nil})

			if runner.logger == nil {
				t.Error("expected default logger to be set")
			}
		})

		t.Run("with nil output uses stdout", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: nil})

			if runner.output != os.Stdout {
				t.Error("expected output to default to os.Stdout")
			}
		})

		t.Run("with nil httpClient uses default", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{HTTPClient: nil})

			if runner.httpClient != http.DefaultClient {
				t.Error("expected httpClient to default to http.DefaultClient")
			}
		})
	})

	t.Run("writeJSON", func(t *testing.T) {
		t.Run("writes formatted JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			data := map[string]string{"key": "value"}
			err := runner.writeJSON(data, true)

			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			if !strings.Contains(result, `"key": "value"`) {
				t.Errorf("expected formatted JSON, got %s", result)
			}
			if !strings.HasSuffix(result, "\n") {
				t.Error("expected output to end with newline")
			}
		})

		t.Run("writes compact JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			data := map[string]string{"key": "value"}
			err := runner.writeJSON(data, false)

			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			expected := `{"key":"value"}` + "\n"
			if result != expected {
				t.Errorf("expected %q, got %q", expected, result)
			}
		})

		t.Run("handles marshal error with non-serializable data", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			// channels cannot be marshaled to JSON
			data := make(chan int)
			err := runner.writeJSON(data, false)

			if err == nil {
				t.Fatal("expected error for non-serializable data")
			}
			if !strings.Contains(err.Error(), "failed to marshal JSON") {
				t.Errorf("expected marshal error, got %v", err)
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			failing := &tu.FWriter{}
			runner := NewRunner(RunnerOpts{Output: failing})

			data := map[string]string{"key": "value"}
			err := runner.writeJSON(data, false)

			if err == nil {
				t.Fatal("expected error from failing writer")
			}
			if !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})

		t.Run("handles newline write failure", func(t *testing.T) {
			data := map[string]string{"key": "value"}
			limitedWriter := tu.NewLimitedWriter(1, 0, &bytes.Buffer{})
			runner := NewRunner(RunnerOpts{Output: &limitedWriter})

			err := runner.writeJSON(data, false)

			if err == nil {
				t.Fatal("expected error writing newline")
			}
			if !strings.Contains(err.Error(), "failed to write newline") {
				t.Errorf("expected newline write error, got %v", err)
			}
		})
	})

	t.Run("writePlain", func(t *testing.T) {
		t.Run("writes plain text successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			err := runner.writePlain("hello %s", "world")

			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			if result != "hello world" {
				t.Errorf("expected 'hello world', got %q", result)
			}
		})

		t.Run("writes plain text without formatting", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			err := runner.writePlain("simple text")

			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			if result != "simple text" {
				t.Errorf("expected 'simple text', got %q", result)
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			failing := &tu.FWriter{}
			runner := NewRunner(RunnerOpts{Output: failing})

			err := runner.writePlain("test")

			if err == nil {
				t.Fatal("expected error from failing writer")
			}
			if !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})
	})

	t.Run("register", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{})
		commands := runner.register()

		want := []string{"setup", "catalog", "recs", "history", "preview", "serve", "tui"}
		if len(commands) != len(want) {
			t.Fatalf("expected %d commands, got %d", len(want), len(commands))
		}
		for i, name := range want {
			if commands[i].Name != name {
				t.Errorf("command %d: expected %q, got %q", i, name, commands[i].Name)
			}
		}
	})

	t.Run("loadEngine", func(t *testing.T) {
		t.Run("missing catalog fails", func(t *testing.T) {
			config := shared.DefaultConfig()
			config.Catalog.Path = filepath.Join(t.TempDir(), "missing.csv")
			runner := NewRunner(RunnerOpts{Config: config, Logger: shared.NopLogger()})

			if _, err := runner.loadEngine(context.Background(), true); err == nil {
				t.Fatal("expected error for missing catalog")
			}
		})

		t.Run("loads catalog and opens history from config", func(t *testing.T) {
			dir := t.TempDir()
			path := filepath.Join(dir, "songs.csv")
			csv := "id;track_id;name;artists;genre;subgenre\n1;t1;Song A;['Artist X'];pop;dance pop\n"
			if err := os.WriteFile(path, []byte(csv), 0644); err != nil {
				t.Fatal(err)
			}

			config := shared.DefaultConfig()
			config.Catalog.Path = path
			config.Database.Path = filepath.Join(dir, "songrec.db")
			runner := NewRunner(RunnerOpts{Config: config, Logger: shared.NopLogger()})
			defer runner.Close()

			engine, err := runner.loadEngine(context.Background(), false)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if engine.Catalog().Len() != 1 {
				t.Errorf("expected 1 song, got %d", engine.Catalog().Len())
			}
			if engine.History() == nil {
				t.Error("expected history store")
			}

			again, _ := runner.loadEngine(context.Background(), false)
			if again != engine {
				t.Error("expected engine to be reused")
			}
		})
	})
}

func TestCatalogCommands(t *testing.T) {
	t.Run("search text", func(t *testing.T) {
		h := newHarness(t)
		if err := h.run("catalog", "search", "lights"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		out := h.output.String()
		if !strings.Contains(out, "Blinding Lights") || !strings.Contains(out, "Lights Up") {
			t.Errorf("expected both matches, got %q", out)
		}
		if strings.Contains(out, "Lose Yourself") {
			t.Error("unexpected non-matching song")
		}
	})

	t.Run("search limit reports total", func(t *testing.T) {
		h := newHarness(t)
		if err := h.run("catalog", "search", "--limit", "1", "lights"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(h.output.String(), "Showing 1 of 2 matches") {
			t.Errorf("expected truncation note, got %q", h.output.String())
		}
	})

	t.Run("search json", func(t *testing.T) {
		h := newHarness(t)
		if err := h.run("catalog", "search", "--json", "eminem"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(h.output.String(), `"total":1`) {
			t.Errorf("expected total in JSON, got %q", h.output.String())
		}
	})

	t.Run("show unknown id", func(t *testing.T) {
		h := newHarness(t)
		err := h.run("catalog", "show", "99")
		if !errors.Is(err, shared.ErrSongNotFound) {
			t.Errorf("expected ErrSongNotFound, got %v", err)
		}
	})

	t.Run("show invalid id", func(t *testing.T) {
		h := newHarness(t)
		err := h.run("catalog", "show", "abc")
		if !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("random respects exclusions", func(t *testing.T) {
		h := newHarness(t)
		if err := h.run("catalog", "random", "--exclude", "1", "--exclude", "2", "--json"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(h.output.String(), `"id": 3`) {
			t.Errorf("expected song 3, got %q", h.output.String())
		}
	})

	t.Run("random exhausted", func(t *testing.T) {
		h := newHarness(t)
		err := h.run("catalog", "random", "--exclude", "1", "--exclude", "2", "--exclude", "3")
		if !errors.Is(err, shared.ErrCatalogExhausted) {
			t.Errorf("expected ErrCatalogExhausted, got %v", err)
		}
	})
}

func TestRecsCommands(t *testing.T) {
	t.Run("get saves to history", func(t *testing.T) {
		h := newHarness(t)
		err := h.run("recs", "get", "--seed", "1", "--genre", "pop", "--count", "12")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if !strings.Contains(h.output.String(), "Lights Up") {
			t.Errorf("expected recommendation in output, got %q", h.output.String())
		}
		call := h.rec.RecsCalls[0]
		if call.Count != 12 || len(call.Genres) != 1 || call.Genres[0] != "pop" {
			t.Errorf("unexpected request %+v", call)
		}

		sessions, _ := h.history.List(context.Background())
		if len(sessions) != 1 || sessions[0].Input[0].PreviewURL != "https://p/1.mp3" {
			t.Errorf("expected enriched session saved, got %+v", sessions)
		}
	})

	t.Run("get no-save", func(t *testing.T) {
		h := newHarness(t)
		if err := h.run("recs", "get", "--seed", "1", "--no-save", "--format", "json"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		sessions, _ := h.history.List(context.Background())
		if len(sessions) != 0 {
			t.Errorf("expected nothing saved, got %d", len(sessions))
		}
		if !strings.HasPrefix(h.output.String(), "{") {
			t.Errorf("expected clean JSON output, got %q", h.output.String())
		}
	})

	t.Run("get failure", func(t *testing.T) {
		h := newHarness(t)
		h.rec.RecsErr = shared.ErrAPIRequest

		err := h.run("recs", "get", "--seed", "1")
		if !errors.Is(err, shared.ErrAPIRequest) || !strings.Contains(err.Error(), "try again") {
			t.Errorf("expected try again error, got %v", err)
		}
		sessions, _ := h.history.List(context.Background())
		if len(sessions) != 0 {
			t.Error("failed run must not be saved")
		}
	})

	t.Run("get unknown genre", func(t *testing.T) {
		h := newHarness(t)
		err := h.run("recs", "get", "--seed", "1", "--genre", "polka")
		if !errors.Is(err, shared.ErrUnknownGenre) {
			t.Errorf("expected ErrUnknownGenre, got %v", err)
		}
	})

	t.Run("metadata degrades unknown to catalog fields", func(t *testing.T) {
		h := newHarness(t)
		if err := h.run("recs", "metadata", "--id", "1", "--id", "2", "--json"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		out := h.output.String()
		if !strings.Contains(out, "https://p/1.mp3") || !strings.Contains(out, "Lose Yourself") {
			t.Errorf("expected enriched and fallback songs, got %q", out)
		}
	})
}

func TestApplyGenres(t *testing.T) {
	tests := []struct {
		name    string
		tags    []string
		none    bool
		want    int
		wantErr error
	}{
		{name: "default is all", want: 6},
		{name: "all tag", tags: []string{"pop", "all"}, want: 6},
		{name: "subset", tags: []string{"pop", "rap"}, want: 2},
		{name: "none", none: true, want: 0},
		{name: "unknown", tags: []string{"polka"}, wantErr: shared.ErrUnknownGenre},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prefs := session.NewPreferences()
			err := applyGenres(prefs, tt.tags, tt.none)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if got := len(prefs.Genres()); got != tt.want {
				t.Errorf("expected %d genres, got %d", tt.want, got)
			}
		})
	}
}

func TestSeedManager(t *testing.T) {
	h := newHarness(t)
	engine, err := h.runner.loadEngine(context.Background(), true)
	if err != nil {
		t.Fatalf("loadEngine() error = %v", err)
	}

	m := seedManager(context.Background(), engine, []int{1, 99, 2, 1}, shared.NopLogger())
	snap := m.Snapshot()

	if len(snap.Input) != 2 {
		t.Fatalf("expected 2 seeds, got %d", len(snap.Input))
	}
	if snap.Input[0].ID != 1 || snap.Input[0].PreviewURL != "https://p/1.mp3" {
		t.Errorf("expected enriched seed 1 first, got %+v", snap.Input[0])
	}
	if snap.Input[1].ID != 2 {
		t.Errorf("expected seed 2 second, got %+v", snap.Input[1])
	}

	var pending int
	m.Do(func(s *session.State) { pending = len(s.Selection.Pending()) })
	if pending != 0 {
		t.Errorf("expected no pending seeds, got %d", pending)
	}
}

func TestHistoryCommands(t *testing.T) {
	seed := func(t *testing.T, h *harness) {
		t.Helper()
		s := models.NewSession()
		s.Input = []models.SongMetadata{{Song: models.Song{ID: 1, Name: "Blinding Lights"}}}
		s.Output = []models.SongMetadata{{Song: models.Song{ID: 3, Name: "Lights Up"}}}
		if _, err := h.history.Append(context.Background(), s); err != nil {
			t.Fatal(err)
		}
	}

	t.Run("list", func(t *testing.T) {
		h := newHarness(t)
		seed(t, h)
		if err := h.run("history", "list"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(h.output.String(), "Blinding Lights") {
			t.Errorf("expected seed names, got %q", h.output.String())
		}
	})

	t.Run("list empty", func(t *testing.T) {
		h := newHarness(t)
		if err := h.run("history", "list"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(h.output.String(), "No saved sessions") {
			t.Errorf("unexpected output %q", h.output.String())
		}
	})

	t.Run("show out of range", func(t *testing.T) {
		h := newHarness(t)
		err := h.run("history", "show", "3")
		if !errors.Is(err, shared.ErrHistoryNotFound) {
			t.Errorf("expected ErrHistoryNotFound, got %v", err)
		}
	})

	t.Run("show markdown", func(t *testing.T) {
		h := newHarness(t)
		seed(t, h)
		if err := h.run("history", "show", "--format", "md", "0"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(h.output.String(), "Lights Up") {
			t.Errorf("expected output songs, got %q", h.output.String())
		}
	})

	t.Run("export", func(t *testing.T) {
		h := newHarness(t)
		seed(t, h)
		dir := t.TempDir()
		if err := h.run("history", "export", "--format", "csv", "--dir", dir, "0"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		matches, _ := filepath.Glob(filepath.Join(dir, "session_*.csv"))
		if len(matches) != 1 {
			t.Fatalf("expected one CSV export, got %v", matches)
		}
		if !strings.Contains(tu.MustReadFile(t, matches[0]), "Lights Up") {
			t.Error("expected recommendations in export")
		}
	})

	t.Run("clear", func(t *testing.T) {
		h := newHarness(t)
		seed(t, h)
		if err := h.run("history", "clear"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		sessions, _ := h.history.List(context.Background())
		if len(sessions) != 0 {
			t.Errorf("expected empty history, got %d", len(sessions))
		}
	})
}

func TestSetupConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	h := newHarness(t)

	if err := h.run("setup", "config", "--config", path); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	tu.AssertFileExists(t, path)

	if err := h.run("setup", "config", "--config", path); err == nil {
		t.Error("expected error when config already exists")
	}
}
