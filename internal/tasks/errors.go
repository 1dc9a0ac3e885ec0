package tasks

import (
	"errors"
	"fmt"

	"github.com/desertthunder/promptlist/internal/shared"
)

// FailureKind is the stable, machine-readable class of an export failure.
type FailureKind string

const (
	KindInvalidRequest      FailureKind = "invalid_request"
	KindAuth                FailureKind = "auth_error"
	KindUpstream            FailureKind = "upstream_error"
	KindResolutionTransport FailureKind = "resolution_error"
	KindPlaylistCreate      FailureKind = "playlist_create_error"
	KindNoTracksResolved    FailureKind = "no_tracks_resolved"
	KindAttach              FailureKind = "attach_error"
)

// Reauthorize reports whether the user must log in again before retrying.
func (k FailureKind) Reauthorize() bool {
	return k == KindAuth
}

// Sentinel returns the shared error every failure of this kind wraps.
func (k FailureKind) Sentinel() error {
	switch k {
	case KindInvalidRequest:
		return shared.ErrInvalidRequest
	case KindAuth:
		return shared.ErrAuth
	case KindResolutionTransport:
		return shared.ErrResolutionTransport
	case KindPlaylistCreate:
		return shared.ErrPlaylistCreate
	case KindNoTracksResolved:
		return shared.ErrNoTracksResolved
	case KindAttach:
		return shared.ErrAttach
	default:
		return shared.ErrAPIRequest
	}
}

// ExportError is the single failure value returned by [ExportEngine.Export].
//
// It unwraps to the kind's sentinel and to the underlying cause, so callers can use [errors.Is].
type ExportError struct {
	Kind  FailureKind
	Stage Stage
	Err   error
}

func newExportError(kind FailureKind, cause error) *ExportError {
	sentinel := kind.Sentinel()
	switch {
	case cause == nil:
		cause = sentinel
	case !errors.Is(cause, sentinel):
		cause = fmt.Errorf("%w: %w", sentinel, cause)
	}
	return &ExportError{Kind: kind, Err: cause}
}

func (e *ExportError) Error() string {
	if e.Stage == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("export failed at %s: %v", e.Stage, e.Err)
}

func (e *ExportError) Unwrap() error {
	return e.Err
}

// KindOf returns the failure kind of err, or "" if err is not an [ExportError].
func KindOf(err error) FailureKind {
	var xe *ExportError
	if errors.As(err, &xe) {
		return xe.Kind
	}
	return ""
}
