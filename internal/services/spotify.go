// Spotify Web API implementation of [Catalog]
//
// Spotify API response types based on https://developer.spotify.com/documentation/web-api/reference/
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/promptlist/internal/shared"
	"golang.org/x/oauth2"
)

const (
	spotifyBaseURL = "https://api.spotify.com/v1"

	// MaxTracksPerRequest is the most URIs Spotify accepts in one add-items call.
	MaxTracksPerRequest = 100
)

// SpotifyUser represents a Spotify user profile.
type SpotifyUser struct {
	ID          string         `json:"id"`
	DisplayName string         `json:"display_name"`
	Country     string         `json:"country"`
	Product     string         `json:"product"` // premium, free, etc.
	Images      []SpotifyImage `json:"images"`
}

// SpotifyImage represents an image resource.
type SpotifyImage struct {
	URL    string `json:"url"`
	Height int    `json:"height"`
	Width  int    `json:"width"`
}

// SpotifyArtist represents a simplified Spotify artist.
type SpotifyArtist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URI  string `json:"uri"`
}

// SpotifyTrack represents a Spotify track.
type SpotifyTrack struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Artists    []SpotifyArtist `json:"artists"`
	DurationMS int             `json:"duration_ms"`
	URI        string          `json:"uri"`
}

// ExternalURLs holds the public links of a Spotify object.
type ExternalURLs struct {
	Spotify string `json:"spotify"`
}

// SpotifyPlaylist represents a newly created Spotify playlist.
type SpotifyPlaylist struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	Description  string       `json:"description"`
	Public       bool         `json:"public"`
	ExternalURLs ExternalURLs `json:"external_urls"`
	URI          string       `json:"uri"`
}

// URL returns the shareable web link of the playlist.
func (p SpotifyPlaylist) URL() string {
	if p.ExternalURLs.Spotify != "" {
		return p.ExternalURLs.Spotify
	}
	return "https://open.spotify.com/playlist/" + p.ID
}

type searchResponse struct {
	Tracks struct {
		Items []SpotifyTrack `json:"items"`
	} `json:"tracks"`
}

type apiError struct {
	Error struct {
		Status  int    `json:"status"`
		Message string `json:"message"`
	} `json:"error"`
}

// SpotifyConfig configures a [SpotifyService].
type SpotifyConfig struct {
	BaseURL    string        // defaults to the public Web API
	Timeout    time.Duration // per call; defaults to 10 seconds
	HTTPClient *http.Client
}

// SpotifyService implements [Catalog] over the Spotify Web API.
type SpotifyService struct {
	baseURL    string
	timeout    time.Duration
	httpClient *http.Client
	logger     *log.Logger
}

// NewSpotifyService creates a new Spotify client.
func NewSpotifyService(cfg SpotifyConfig, logger *log.Logger) *SpotifyService {
	if cfg.BaseURL == "" {
		cfg.BaseURL = spotifyBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = http.DefaultClient
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	return &SpotifyService{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		timeout:    cfg.Timeout,
		httpClient: cfg.HTTPClient,
		logger:     shared.WithLogger(logger, "service", "spotify"),
	}
}

func (s *SpotifyService) Name() string {
	return "Spotify"
}

// doRequest performs an authenticated HTTP request to the Spotify API.
func (s *SpotifyService) doRequest(ctx context.Context, token, method, endpoint string, body, result any) error {
	if strings.TrimSpace(token) == "" {
		return shared.ErrNotAuthenticated
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+endpoint, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	client := oauth2.NewClient(
		context.WithValue(ctx, oauth2.HTTPClient, s.httpClient),
		oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"}),
	)

	resp, err := client.Do(req)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("%w: %s %s: %w", shared.ErrAPIRequest, method, endpoint, shared.ErrTimeout)
		}
		return fmt.Errorf("%w: %s %s: %w", shared.ErrAPIRequest, method, endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := http.StatusText(resp.StatusCode)
		var apiErr apiError
		if err := json.NewDecoder(resp.Body).Decode(&apiErr); err == nil && apiErr.Error.Message != "" {
			msg = apiErr.Error.Message
		}

		s.logger.Debug("request rejected", "method", method, "endpoint", endpoint, "status", resp.StatusCode)

		switch resp.StatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			return fmt.Errorf("%w: status %d: %s", shared.ErrAuth, resp.StatusCode, msg)
		default:
			return fmt.Errorf("%w: spotify API error: status %d: %s", shared.ErrAPIRequest, resp.StatusCode, msg)
		}
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("%w: failed to decode response: %w", shared.ErrAPIRequest, err)
		}
	}

	return nil
}

// CurrentUser retrieves the profile of the token's owner.
func (s *SpotifyService) CurrentUser(ctx context.Context, token string) (*SpotifyUser, error) {
	var user SpotifyUser
	if err := s.doRequest(ctx, token, http.MethodGet, "/me", nil, &user); err != nil {
		return nil, err
	}
	if user.ID == "" {
		return nil, fmt.Errorf("%w: profile has no id", shared.ErrAPIRequest)
	}
	return &user, nil
}

// SearchTrack runs a free-text track search and returns the first hit's URI.
func (s *SpotifyService) SearchTrack(ctx context.Context, token, query string) (string, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("type", "track")
	params.Set("limit", "1")

	var response searchResponse
	if err := s.doRequest(ctx, token, http.MethodGet, "/search?"+params.Encode(), nil, &response); err != nil {
		return "", err
	}

	if len(response.Tracks.Items) == 0 {
		return "", nil
	}
	return response.Tracks.Items[0].URI, nil
}

// CreatePlaylist creates an empty playlist for userID.
func (s *SpotifyService) CreatePlaylist(ctx context.Context, token, userID string, opts PlaylistOptions) (*SpotifyPlaylist, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user id", shared.ErrMissingArgument)
	}

	body := map[string]any{
		"name":        opts.Name,
		"description": opts.Description,
		"public":      opts.Public,
	}
	endpoint := fmt.Sprintf("/users/%s/playlists", url.PathEscape(userID))

	var playlist SpotifyPlaylist
	if err := s.doRequest(ctx, token, http.MethodPost, endpoint, body, &playlist); err != nil {
		return nil, err
	}
	if playlist.ID == "" {
		return nil, fmt.Errorf("%w: created playlist has no id", shared.ErrAPIRequest)
	}
	return &playlist, nil
}

// AddTracks appends up to [MaxTracksPerRequest] URIs to a playlist.
func (s *SpotifyService) AddTracks(ctx context.Context, token, playlistID string, uris []string) error {
	if len(uris) == 0 {
		return fmt.Errorf("%w: no track URIs provided", shared.ErrMissingArgument)
	}
	if len(uris) > MaxTracksPerRequest {
		return fmt.Errorf("%w: maximum %d track URIs per request", shared.ErrInvalidArgument, MaxTracksPerRequest)
	}

	endpoint := fmt.Sprintf("/playlists/%s/tracks", url.PathEscape(playlistID))
	return s.doRequest(ctx, token, http.MethodPost, endpoint, map[string]any{"uris": uris}, nil)
}
