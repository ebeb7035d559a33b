package shared

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestConfig(t *testing.T) {
	t.Run("DefaultConfig", func(t *testing.T) {
		config := DefaultConfig()

		if config.Database.Path != "./songrec.db" {
			t.Errorf("expected database path ./songrec.db, got %s", config.Database.Path)
		}
		if config.Server.Port != 3000 {
			t.Errorf("expected server port 3000, got %d", config.Server.Port)
		}
		if config.Catalog.SearchLimit != 15 {
			t.Errorf("expected search limit 15, got %d", config.Catalog.SearchLimit)
		}
		if config.Recommender.Endpoint != "http://127.0.0.1:8000/recommend" {
			t.Errorf("unexpected recommender endpoint %s", config.Recommender.Endpoint)
		}
		if config.Recommender.Auth.Enabled() {
			t.Error("auth should be disabled by default")
		}
		if !config.Preview.Enabled || config.Preview.CompactWidth != 80 {
			t.Errorf("unexpected preview config %+v", config.Preview)
		}
		if err := config.Validate(); err != nil {
			t.Errorf("default config should validate: %v", err)
		}
	})

	t.Run("CreateConfigFile", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.toml")

		if err := CreateConfigFile(configPath); err != nil {
			t.Fatalf("failed to create config file: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load created config: %v", err)
		}

		if config.Database.Path != DefaultConfig().Database.Path {
			t.Errorf("created config database path doesn't match default")
		}

		if err := CreateConfigFile(configPath); err == nil {
			t.Error("creating config file again should fail")
		}
	})

	t.Run("LoadConfig", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.toml")

		testConfig := `[catalog]
path = "/data/songs.csv"
default_seeds = [1085, 2430]

[recommender]
endpoint = "https://recs.example.com/prod"

[recommender.auth]
client_id = "id"
client_secret = "secret"
token_url = "https://auth.example.com/token"

[server]
port = 8080
`
		if err := os.WriteFile(configPath, []byte(testConfig), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}

		if config.Catalog.Path != "/data/songs.csv" {
			t.Errorf("expected catalog path /data/songs.csv, got %s", config.Catalog.Path)
		}
		if len(config.Catalog.DefaultSeeds) != 2 || config.Catalog.DefaultSeeds[1] != 2430 {
			t.Errorf("unexpected default seeds %v", config.Catalog.DefaultSeeds)
		}
		if !config.Recommender.Auth.Enabled() {
			t.Error("expected auth to be enabled")
		}
		if config.Server.Port != 8080 {
			t.Errorf("expected server port 8080, got %d", config.Server.Port)
		}
		if config.Catalog.SearchLimit != 15 {
			t.Errorf("keys missing from the file should keep defaults, got search limit %d", config.Catalog.SearchLimit)
		}
	})

	t.Run("LoadConfig Errors", func(t *testing.T) {
		if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.toml")); !errors.Is(err, ErrMissingConfig) {
			t.Errorf("expected ErrMissingConfig, got %v", err)
		}

		configPath := filepath.Join(t.TempDir(), "broken.toml")
		if err := os.WriteFile(configPath, []byte("[catalog\npath ="), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}
		if _, err := LoadConfig(configPath); !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})

	t.Run("ApplyEnv", func(t *testing.T) {
		envPath := filepath.Join(t.TempDir(), ".env")
		env := "SONGREC_CATALOG_PATH=/env/songs.csv\nSONGREC_SERVER_PORT=4000\n"
		if err := os.WriteFile(envPath, []byte(env), 0644); err != nil {
			t.Fatalf("failed to write env file: %v", err)
		}
		t.Cleanup(func() {
			os.Unsetenv(EnvCatalogPath)
			os.Unsetenv(EnvServerPort)
		})
		t.Setenv(EnvEndpoint, "http://override.local/recs")

		config := DefaultConfig()
		if err := config.ApplyEnv(envPath); err != nil {
			t.Fatalf("ApplyEnv() error = %v", err)
		}

		if config.Catalog.Path != "/env/songs.csv" {
			t.Errorf("expected catalog path from .env, got %s", config.Catalog.Path)
		}
		if config.Server.Port != 4000 {
			t.Errorf("expected port 4000 from .env, got %d", config.Server.Port)
		}
		if config.Recommender.Endpoint != "http://override.local/recs" {
			t.Errorf("expected endpoint from environment, got %s", config.Recommender.Endpoint)
		}
	})

	t.Run("ApplyEnv Missing File", func(t *testing.T) {
		config := DefaultConfig()
		if err := config.ApplyEnv(filepath.Join(t.TempDir(), "nope.env")); err != nil {
			t.Errorf("missing dotenv file should be ignored, got %v", err)
		}
	})

	t.Run("ApplyEnv Bad Port", func(t *testing.T) {
		t.Setenv(EnvServerPort, "http")
		config := DefaultConfig()
		if err := config.ApplyEnv(filepath.Join(t.TempDir(), "nope.env")); !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})

	t.Run("Validate", func(t *testing.T) {
		config := DefaultConfig()
		config.Catalog.Path = ""
		config.Recommender.Endpoint = " "

		err := config.Validate()
		if !errors.Is(err, ErrInvalidConfig) {
			t.Fatalf("expected ErrInvalidConfig, got %v", err)
		}
	})
}
