package formatter

import (
	"bufio"
	"regexp"
	"strings"

	"github.com/desertthunder/promptlist/internal/models"
)

// trackLine matches "1. Title -- Artist"; any run of dashes separates title from artist.
var trackLine = regexp.MustCompile(`^\d+\.\s*(.+?)\s*-+\s*(.+)$`)

// ParseTrackList extracts numbered "Title -- Artist" lines from generated text, in order.
//
// Lines that do not match are dropped, so headings and commentary around the list are ignored.
func ParseTrackList(text string) []models.TrackCandidate {
	candidates := []models.TrackCandidate{}

	scanner := bufio.NewScanner(strings.NewReader(text))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		m := trackLine.FindStringSubmatch(line)
		if m == nil {
			continue
		}

		title := strings.TrimSpace(m[1])
		artist := strings.TrimSpace(m[2])
		if title == "" || artist == "" {
			continue
		}
		candidates = append(candidates, models.TrackCandidate{Title: title, Artist: artist})
	}

	return candidates
}
