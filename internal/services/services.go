// package services defines the interfaces for the external HTTP APIs used by promptlist
//
// Spotify (catalog & playlists), Gemini (text generation)
package services

import (
	"context"
)

// Catalog is the subset of the Spotify Web API used to build a playlist.
//
// Every call carries its own bearer token; implementations hold no per-user state.
type Catalog interface {
	// CurrentUser returns the profile that owns token.
	CurrentUser(ctx context.Context, token string) (*SpotifyUser, error)

	// SearchTrack returns the URI of the best match for query, or "" when nothing matched.
	SearchTrack(ctx context.Context, token, query string) (string, error)

	// CreatePlaylist creates an empty playlist owned by userID.
	CreatePlaylist(ctx context.Context, token, userID string, opts PlaylistOptions) (*SpotifyPlaylist, error)

	// AddTracks appends uris, in order, to the playlist.
	AddTracks(ctx context.Context, token, playlistID string, uris []string) error
}

// Generator turns a natural-language playlist idea into raw text.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)

	// Name returns the name of the backing service (e.g., "Gemini")
	Name() string
}

// PlaylistOptions describes a playlist to be created.
type PlaylistOptions struct {
	Name        string
	Description string
	Public      bool
}
