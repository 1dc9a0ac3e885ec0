package shared

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestConfig(t *testing.T) {
	t.Run("DefaultConfig", func(t *testing.T) {
		config := DefaultConfig()

		if config.Database.Path != "./promptlist.db" {
			t.Errorf("expected database path ./promptlist.db, got %s", config.Database.Path)
		}

		if config.Server.Port != 3001 {
			t.Errorf("expected server port 3001, got %d", config.Server.Port)
		}

		if config.Credentials.Spotify.ClientID != "your_spotify_client_id" {
			t.Errorf("expected spotify client_id your_spotify_client_id, got %s", config.Credentials.Spotify.ClientID)
		}

		if config.Auth.Store != StoreMemory {
			t.Errorf("expected memory store by default, got %s", config.Auth.Store)
		}

		if !config.Export.Public {
			t.Error("expected exported playlists to be public by default")
		}
	})

	t.Run("Durations", func(t *testing.T) {
		config := DefaultConfig()

		if got := config.Server.Timeout(); got != 10*time.Second {
			t.Errorf("expected 10s timeout, got %v", got)
		}
		if got := config.Auth.StateTTL(); got != 10*time.Minute {
			t.Errorf("expected 10m state TTL, got %v", got)
		}
		if got := config.Auth.SweepInterval(); got != time.Minute {
			t.Errorf("expected 1m sweep interval, got %v", got)
		}

		var zero Config
		if got := zero.Server.Timeout(); got != 10*time.Second {
			t.Errorf("expected zero timeout to fall back to 10s, got %v", got)
		}
		if got := zero.Auth.StateTTL(); got != 10*time.Minute {
			t.Errorf("expected zero TTL to fall back to 10m, got %v", got)
		}
	})

	t.Run("Validate", func(t *testing.T) {
		config := DefaultConfig()
		if err := config.Validate(); err != nil {
			t.Errorf("expected default config to validate, got %v", err)
		}

		config.Credentials.Spotify.ClientID = ""
		if err := config.Validate(); !errors.Is(err, ErrMissingCredentials) {
			t.Errorf("expected ErrMissingCredentials, got %v", err)
		}

		config = DefaultConfig()
		config.Auth.Store = "redis"
		if err := config.Validate(); !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig for unknown store, got %v", err)
		}
	})

	t.Run("ApplyEnv", func(t *testing.T) {
		t.Setenv("SPOTIFY_CLIENT_ID", "env_client")
		t.Setenv("GEMINI_API_KEY", "env_key")
		t.Setenv("SPOTIFY_REDIRECT_URI", "")

		config := DefaultConfig()
		config.ApplyEnv()

		if config.Credentials.Spotify.ClientID != "env_client" {
			t.Errorf("expected client id from env, got %s", config.Credentials.Spotify.ClientID)
		}
		if config.Credentials.Gemini.APIKey != "env_key" {
			t.Errorf("expected api key from env, got %s", config.Credentials.Gemini.APIKey)
		}
		if config.Credentials.Spotify.RedirectURI != "http://127.0.0.1:3001/callback" {
			t.Errorf("expected empty env var to keep default redirect, got %s", config.Credentials.Spotify.RedirectURI)
		}
	})

	t.Run("CreateConfigFile", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

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
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		testConfig := `[server]
host = "0.0.0.0"
port = 8080
frontend_url = "https://app.example.com"

[credentials.spotify]
client_id = "test_client_id"
redirect_uri = "http://localhost:3001/callback"

[auth]
store = "sqlite"
`
		if err := os.WriteFile(configPath, []byte(testConfig), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}

		if config.Server.Port != 8080 {
			t.Errorf("expected server port 8080, got %d", config.Server.Port)
		}
		if config.Server.FrontendURL != "https://app.example.com" {
			t.Errorf("expected frontend url from file, got %s", config.Server.FrontendURL)
		}
		if config.Auth.Store != StoreSQLite {
			t.Errorf("expected sqlite store, got %s", config.Auth.Store)
		}
		if config.Export.Workers != 4 {
			t.Errorf("expected omitted export.workers to keep default 4, got %d", config.Export.Workers)
		}
	})

	t.Run("LoadConfig Missing File", func(t *testing.T) {
		if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
			t.Error("expected error for missing config file")
		}
	})

	t.Run("SaveConfig", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "saved.toml")
		config := DefaultConfig()
		config.Server.Port = 9999

		if err := SaveConfig(configPath, config); err != nil {
			t.Fatalf("failed to save config: %v", err)
		}

		loaded, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load saved config: %v", err)
		}
		if loaded.Server.Port != 9999 {
			t.Errorf("expected port 9999, got %d", loaded.Server.Port)
		}
	})
}
