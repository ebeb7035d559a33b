package shared

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

//go:embed config.example.toml
var exampleConf []byte

// Environment variables that override values loaded from config.toml.
const (
	EnvCatalogPath = "SONGREC_CATALOG_PATH"
	EnvEndpoint    = "SONGREC_RECOMMENDER_ENDPOINT"
	EnvClientID    = "SONGREC_CLIENT_ID"
	EnvSecret      = "SONGREC_CLIENT_SECRET"
	EnvTokenURL    = "SONGREC_TOKEN_URL"
	EnvDatabase    = "SONGREC_DATABASE_PATH"
	EnvServerPort  = "SONGREC_SERVER_PORT"
)

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Catalog     CatalogConfig     `toml:"catalog"`
	Recommender RecommenderConfig `toml:"recommender"`
	Database    DatabaseConfig    `toml:"database"`
	Server      ServerConfig      `toml:"server"`
	Preview     PreviewConfig     `toml:"preview"`
}

// CatalogConfig locates the song catalog and tunes the search dropdown.
type CatalogConfig struct {
	Path         string `toml:"path"`
	SearchLimit  int    `toml:"search_limit"`
	DefaultSeeds []int  `toml:"default_seeds"`
}

// RecommenderConfig points at the external recommendation endpoint.
type RecommenderConfig struct {
	Endpoint  string     `toml:"endpoint"`
	RateLimit float64    `toml:"rate_limit"`
	Burst     int        `toml:"burst"`
	Auth      AuthConfig `toml:"auth"`
}

// AuthConfig contains optional OAuth2 client credentials for the endpoint.
type AuthConfig struct {
	ClientID     string   `toml:"client_id"`
	ClientSecret string   `toml:"client_secret"`
	TokenURL     string   `toml:"token_url"`
	Scopes       []string `toml:"scopes"`
}

// Enabled reports whether enough credentials are present to request tokens.
func (a AuthConfig) Enabled() bool {
	return a.ClientID != "" && a.ClientSecret != "" && a.TokenURL != ""
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// Addr returns the host:port pair the local API listens on.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// PreviewConfig controls hover audio previews.
type PreviewConfig struct {
	Enabled      bool `toml:"enabled"`
	CompactWidth int  `toml:"compact_width"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Keys missing from the file keep the values of the embedded defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read config file: %v", ErrMissingConfig, err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("%w: failed to parse config: %v", ErrInvalidConfig, err)
	}

	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// ApplyEnv loads the given dotenv files (missing files are ignored) and overlays
// SONGREC_* environment variables onto the config.
func (c *Config) ApplyEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: failed to load %s: %v", ErrInvalidConfig, f, err)
		}
	}

	setString(&c.Catalog.Path, EnvCatalogPath)
	setString(&c.Recommender.Endpoint, EnvEndpoint)
	setString(&c.Recommender.Auth.ClientID, EnvClientID)
	setString(&c.Recommender.Auth.ClientSecret, EnvSecret)
	setString(&c.Recommender.Auth.TokenURL, EnvTokenURL)
	setString(&c.Database.Path, EnvDatabase)

	if raw := os.Getenv(EnvServerPort); raw != "" {
		port, err := strconv.Atoi(raw)
		if err != nil {
			return fmt.Errorf("%w: %s=%q is not a port", ErrInvalidConfig, EnvServerPort, raw)
		}
		c.Server.Port = port
	}

	return nil
}

// Validate checks the settings every command relies on.
func (c *Config) Validate() error {
	var problems []string
	if strings.TrimSpace(c.Catalog.Path) == "" {
		problems = append(problems, "catalog.path is empty")
	}
	if strings.TrimSpace(c.Recommender.Endpoint) == "" {
		problems = append(problems, "recommender.endpoint is empty")
	}
	if c.Catalog.SearchLimit < 0 {
		problems = append(problems, "catalog.search_limit is negative")
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		problems = append(problems, "server.port is out of range")
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(problems, "; "))
	}
	return nil
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}
