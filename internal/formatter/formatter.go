// package formatter parses generated track lists and renders them to various formats (CSV, Markdown, plain text)
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/desertthunder/promptlist/internal/models"
	"github.com/desertthunder/promptlist/internal/shared"
)

// Format is an output format for a track listing.
type Format string

const (
	FormatText     Format = "txt"
	FormatMarkdown Format = "md"
	FormatCSV      Format = "csv"
)

// ParseFormat validates a format name. "markdown" and "text" are accepted as aliases.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "txt", "text":
		return FormatText, nil
	case "md", "markdown":
		return FormatMarkdown, nil
	case "csv":
		return FormatCSV, nil
	default:
		return "", fmt.Errorf("%w: unknown format %q (want txt, md or csv)", shared.ErrInvalidArgument, s)
	}
}

// Listing is a named, ordered track list ready to be rendered.
type Listing struct {
	Name        string
	PlaylistURL string
	Tracks      []models.ResolvedTrack
}

// NewListing builds a [Listing] from unresolved candidates.
func NewListing(name string, candidates []models.TrackCandidate) Listing {
	tracks := make([]models.ResolvedTrack, len(candidates))
	for i, c := range candidates {
		tracks[i] = models.ResolvedTrack{Candidate: c}
	}
	return Listing{Name: name, Tracks: tracks}
}

// Render converts l to the requested format.
func Render(l Listing, f Format) ([]byte, error) {
	switch f {
	case FormatText:
		return ToText(l), nil
	case FormatMarkdown:
		return ToMarkdown(l), nil
	case FormatCSV:
		return ToCSV(l)
	default:
		return nil, fmt.Errorf("%w: unknown format %q", shared.ErrInvalidArgument, f)
	}
}

// ToCSV converts a listing to CSV format with columns: Position, Title, Artist, URI
func ToCSV(l Listing) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write([]string{"Position", "Title", "Artist", "URI"}); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for i, track := range l.Tracks {
		record := []string{strconv.Itoa(i + 1), track.Candidate.Title, track.Candidate.Artist, track.URI}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ToMarkdown converts a listing to Markdown. Resolved tracks link to their Spotify page.
func ToMarkdown(l Listing) []byte {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "# %s\n\n", displayName(l.Name))
	if l.PlaylistURL != "" {
		fmt.Fprintf(&buf, "**Playlist**: <%s>\n", l.PlaylistURL)
	}
	fmt.Fprintf(&buf, "**Tracks**: %d\n\n", len(l.Tracks))

	buf.WriteString("## Tracks\n\n")
	for i, track := range l.Tracks {
		title := track.Candidate.Title
		if link := trackLink(track.URI); link != "" {
			title = fmt.Sprintf("[%s](%s)", title, link)
		}
		fmt.Fprintf(&buf, "%d. %s -- %s\n", i+1, title, track.Candidate.Artist)
	}

	return buf.Bytes()
}

// ToText converts a listing to plain text. The track lines can be read back with [ParseTrackList].
func ToText(l Listing) []byte {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "Playlist: %s\n", displayName(l.Name))
	if l.PlaylistURL != "" {
		fmt.Fprintf(&buf, "URL: %s\n", l.PlaylistURL)
	}
	fmt.Fprintf(&buf, "Tracks: %d\n\n", len(l.Tracks))

	for i, track := range l.Tracks {
		fmt.Fprintf(&buf, "%d. %s\n", i+1, track.Candidate)
	}

	return buf.Bytes()
}

// WriteListing renders l and writes it to path.
//
// Defaults to {slug(name)}.{format} as the filename.
func WriteListing(l Listing, f Format, path string) (string, error) {
	if path == "" {
		path = Slug(l.Name) + "." + string(f)
	}

	data, err := Render(l, f)
	if err != nil {
		return "", err
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", fmt.Errorf("failed to create directory: %w", err)
		}
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write %s file: %w", f, err)
	}
	return path, nil
}

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

// Slug converts a playlist name into a filename-safe string.
func Slug(name string) string {
	s := strings.Trim(nonSlug.ReplaceAllString(strings.ToLower(name), "-"), "-")
	if s == "" {
		return "playlist"
	}
	return s
}

func displayName(name string) string {
	if strings.TrimSpace(name) == "" {
		return "Untitled"
	}
	return name
}

// trackLink converts "spotify:track:<id>" to its web URL.
func trackLink(uri string) string {
	id, ok := strings.CutPrefix(uri, "spotify:track:")
	if !ok || id == "" {
		return ""
	}
	return "https://open.spotify.com/track/" + id
}
