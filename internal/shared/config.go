package shared

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

const (
	StoreMemory = "memory"
	StoreSQLite = "sqlite"
)

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Log         LogConfig         `toml:"log"`
	Credentials CredentialsConfig `toml:"credentials"`
	Server      ServerConfig      `toml:"server"`
	Auth        AuthConfig        `toml:"auth"`
	Export      ExportConfig      `toml:"export"`
	Database    DatabaseConfig    `toml:"database"`
}

// LogConfig controls the logger level.
type LogConfig struct {
	Level string `toml:"level"`
}

// CredentialsConfig contains service-specific credentials.
type CredentialsConfig struct {
	Spotify SpotifyConfig `toml:"spotify"`
	Gemini  GeminiConfig  `toml:"gemini"`
}

// SpotifyConfig contains Spotify API credentials.
type SpotifyConfig struct {
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
	RedirectURI  string `toml:"redirect_uri"`
}

// GeminiConfig contains text generation credentials.
type GeminiConfig struct {
	APIKey  string `toml:"api_key"`
	Model   string `toml:"model"`
	BaseURL string `toml:"base_url"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host           string   `toml:"host"`
	Port           int      `toml:"port"`
	FrontendURL    string   `toml:"frontend_url"`
	AllowedOrigins []string `toml:"allowed_origins"`
	TimeoutSeconds int      `toml:"timeout_seconds"`
}

// AuthConfig contains settings for the pending authorization store.
type AuthConfig struct {
	Store                string `toml:"store"`
	StateTTLSeconds      int    `toml:"state_ttl_seconds"`
	SweepIntervalSeconds int    `toml:"sweep_interval_seconds"`
}

// ExportConfig tunes track resolution during exports.
type ExportConfig struct {
	Workers           int     `toml:"workers"`
	SearchesPerSecond float64 `toml:"searches_per_second"`
	Public            bool    `toml:"public"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// Addr returns the host:port listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// Timeout returns the per-call outbound timeout, defaulting to 10 seconds.
func (s ServerConfig) Timeout() time.Duration {
	if s.TimeoutSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(s.TimeoutSeconds) * time.Second
}

// StateTTL returns how long an unredeemed authorization stays valid.
func (a AuthConfig) StateTTL() time.Duration {
	if a.StateTTLSeconds <= 0 {
		return 10 * time.Minute
	}
	return time.Duration(a.StateTTLSeconds) * time.Second
}

// SweepInterval returns the period of the expired-state sweep.
func (a AuthConfig) SweepInterval() time.Duration {
	if a.SweepIntervalSeconds <= 0 {
		return time.Minute
	}
	return time.Duration(a.SweepIntervalSeconds) * time.Second
}

// Validate reports configuration that would make the service unusable.
func (c *Config) Validate() error {
	if c.Credentials.Spotify.ClientID == "" {
		return fmt.Errorf("%w: credentials.spotify.client_id is required", ErrMissingCredentials)
	}
	if c.Credentials.Spotify.RedirectURI == "" {
		return fmt.Errorf("%w: credentials.spotify.redirect_uri is required", ErrInvalidConfig)
	}
	switch c.Auth.Store {
	case "", StoreMemory, StoreSQLite:
	default:
		return fmt.Errorf("%w: unknown auth.store %q", ErrInvalidConfig, c.Auth.Store)
	}
	return nil
}

// ApplyEnv overrides credentials and URLs from environment variables when present.
func (c *Config) ApplyEnv() {
	overrides := []struct {
		key    string
		target *string
	}{
		{"SPOTIFY_CLIENT_ID", &c.Credentials.Spotify.ClientID},
		{"SPOTIFY_CLIENT_SECRET", &c.Credentials.Spotify.ClientSecret},
		{"SPOTIFY_REDIRECT_URI", &c.Credentials.Spotify.RedirectURI},
		{"GEMINI_API_KEY", &c.Credentials.Gemini.APIKey},
		{"PROMPTLIST_FRONTEND_URL", &c.Server.FrontendURL},
	}
	for _, o := range overrides {
		if v := os.Getenv(o.key); v != "" {
			*o.target = v
		}
	}
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Values missing from the file keep their defaults from the embedded example config.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
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

// SaveConfig encodes config as TOML and writes it to path.
func SaveConfig(path string, config *Config) error {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(config); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
