// package models defines the data model for the playlist generation service
package models

import (
	"strings"
	"time"
)

// PendingAuthorization binds an authorization redirect to its callback.
//
// Entries are single-use and are discarded after ExpiresAt.
type PendingAuthorization struct {
	State     string
	Verifier  string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Expired reports whether the authorization can no longer be redeemed at now.
func (p PendingAuthorization) Expired(now time.Time) bool {
	return !p.ExpiresAt.IsZero() && !now.Before(p.ExpiresAt)
}

// AccessCredential is a bearer token produced by a successful code exchange.
//
// A zero ExpiresAt means the lifetime is unknown.
type AccessCredential struct {
	Token     string    `json:"access_token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired reports whether the credential must not be sent at now.
func (c AccessCredential) Expired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && !now.Before(c.ExpiresAt)
}

// Present reports whether a token is set.
func (c AccessCredential) Present() bool {
	return strings.TrimSpace(c.Token) != ""
}

// TrackCandidate is a track suggested by the generator, identified only by its position in the list.
type TrackCandidate struct {
	Title  string `json:"name"`
	Artist string `json:"artist"`
}

// Query returns the free-text catalog search query for the candidate.
func (c TrackCandidate) Query() string {
	return strings.TrimSpace(c.Title + " " + c.Artist)
}

func (c TrackCandidate) String() string {
	return c.Title + " -- " + c.Artist
}

// ResolvedTrack pairs a candidate with its catalog URI. An empty URI means no match.
type ResolvedTrack struct {
	Candidate TrackCandidate `json:"candidate"`
	URI       string         `json:"uri,omitempty"`
}

// Found reports whether the candidate matched a catalog track.
func (r ResolvedTrack) Found() bool {
	return r.URI != ""
}

// ExportResult describes a playlist created by a successful export.
type ExportResult struct {
	PlaylistID  string           `json:"playlistId"`
	PlaylistURL string           `json:"playlistUrl"`
	Added       int              `json:"added"`
	Skipped     int              `json:"skipped"`
	Unresolved  []TrackCandidate `json:"unresolved"`
}
