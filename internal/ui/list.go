package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/promptlist/internal/models"
)

var _ list.Item = candidateItem{}

// candidateItem wraps [models.TrackCandidate] to implement [list.Item].
type candidateItem struct {
	position  int
	candidate models.TrackCandidate
}

func (i candidateItem) FilterValue() string { return i.candidate.Title }
func (i candidateItem) Title() string {
	return fmt.Sprintf("%d. %s", i.position, i.candidate.Title)
}
func (i candidateItem) Description() string { return i.candidate.Artist }

func candidateItems(candidates []models.TrackCandidate) []list.Item {
	items := make([]list.Item, len(candidates))
	for i, c := range candidates {
		items[i] = candidateItem{position: i + 1, candidate: c}
	}
	return items
}
