// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"fmt"
	"os"
	"slices"
	"sync"
	"testing"

	"github.com/desertthunder/promptlist/internal/services"
)

// FakeCatalog is a test double for [services.Catalog].
//
// Searches are answered from Tracks by query; unknown queries are misses. A non-nil *Err field makes the
// matching call fail. Every call is recorded.
type FakeCatalog struct {
	mu sync.Mutex

	UserID   string
	Tracks   map[string]string
	Playlist services.SpotifyPlaylist

	UserErr   error
	SearchErr map[string]error
	CreateErr error
	AddErr    error

	Searches []string
	Created  []services.PlaylistOptions
	Added    [][]string
	Tokens   []string
}

// NewFakeCatalog returns a catalog with a user and an empty playlist pl-1.
func NewFakeCatalog(tracks map[string]string) *FakeCatalog {
	return &FakeCatalog{
		UserID: "user-1",
		Tracks: tracks,
		Playlist: services.SpotifyPlaylist{
			ID:           "pl-1",
			ExternalURLs: services.ExternalURLs{Spotify: "https://open.spotify.com/playlist/pl-1"},
		},
	}
}

func (f *FakeCatalog) CurrentUser(_ context.Context, token string) (*services.SpotifyUser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Tokens = append(f.Tokens, token)
	if f.UserErr != nil {
		return nil, f.UserErr
	}
	return &services.SpotifyUser{ID: f.UserID}, nil
}

func (f *FakeCatalog) SearchTrack(ctx context.Context, token, query string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Searches = append(f.Searches, query)
	if err := f.SearchErr[query]; err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return f.Tracks[query], nil
}

func (f *FakeCatalog) CreatePlaylist(_ context.Context, _, userID string, opts services.PlaylistOptions) (*services.SpotifyPlaylist, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Created = append(f.Created, opts)
	if f.CreateErr != nil {
		return nil, f.CreateErr
	}
	if userID != f.UserID {
		return nil, fmt.Errorf("unexpected user %q", userID)
	}
	pl := f.Playlist
	pl.Name = opts.Name
	return &pl, nil
}

func (f *FakeCatalog) AddTracks(_ context.Context, _, _ string, uris []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Added = append(f.Added, slices.Clone(uris))
	return f.AddErr
}

// AddedURIs flattens every AddTracks batch in call order.
func (f *FakeCatalog) AddedURIs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var all []string
	for _, batch := range f.Added {
		all = append(all, batch...)
	}
	return all
}

// SearchCount returns the number of searches performed.
func (f *FakeCatalog) SearchCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Searches)
}

// FakeGenerator is a test double for [services.Generator].
type FakeGenerator struct {
	Text    string
	Err     error
	Prompts []string
}

func (g *FakeGenerator) Generate(_ context.Context, prompt string) (string, error) {
	g.Prompts = append(g.Prompts, prompt)
	return g.Text, g.Err
}

func (g *FakeGenerator) Name() string { return "fake" }

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

func MustGetwd(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	return wd
}

func MustChdir(t *testing.T, dir string) {
	t.Helper()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Failed to change directory to %s: %v", dir, err)
	}
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
