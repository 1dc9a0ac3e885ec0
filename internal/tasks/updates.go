package tasks

import (
	"fmt"

	"github.com/desertthunder/promptlist/internal/models"
	"github.com/desertthunder/promptlist/internal/services"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	ValidateRequest Phase = iota
	IdentifyUser
	CreatePlaylist
	ResolveTracks
	CheckResolved
	AttachTracks
	Completed
)

func (p Phase) String() string {
	switch p {
	case ValidateRequest:
		return "validate"
	case IdentifyUser:
		return "identify"
	case CreatePlaylist:
		return "create"
	case ResolveTracks:
		return "resolve"
	case CheckResolved:
		return "check"
	case AttachTracks:
		return "attach"
	case Completed:
		return "completed"
	default:
		return ""
	}
}

func validateUpdate(total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ValidateRequest,
		Step:    0,
		Total:   total,
		Message: fmt.Sprintf("Validating export request (%d tracks)...", total),
	}
}

func identifyUpdate() ProgressUpdate {
	return ProgressUpdate{
		Phase:   IdentifyUser,
		Step:    1,
		Total:   1,
		Message: "Looking up Spotify account...",
	}
}

func createPlaylistUpdate(name string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   CreatePlaylist,
		Step:    0,
		Total:   1,
		Message: fmt.Sprintf("Creating playlist %q...", name),
	}
}

func playlistCreatedUpdate(pl *services.SpotifyPlaylist) ProgressUpdate {
	return ProgressUpdate{
		Phase:   CreatePlaylist,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Playlist created: %s (ID: %s)", pl.Name, pl.ID),
		Data:    pl,
	}
}

func resolveTrackUpdate(step, total int, rt models.ResolvedTrack) ProgressUpdate {
	mark := "✓"
	if !rt.Found() {
		mark = "✗"
	}
	return ProgressUpdate{
		Phase:   ResolveTracks,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] %s %s", step, total, mark, rt.Candidate),
		Data:    rt,
	}
}

func checkUpdate(found, total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   CheckResolved,
		Step:    found,
		Total:   total,
		Message: fmt.Sprintf("Matched %d of %d tracks", found, total),
	}
}

func attachUpdate(step, total, added int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   AttachTracks,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Added %d tracks (batch %d/%d)", added, step, total),
	}
}

func completedUpdate(result *models.ExportResult) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Completed,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Export complete: %d added, %d skipped", result.Added, result.Skipped),
		Data:    result,
	}
}
