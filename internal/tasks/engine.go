// package tasks implements the export pipeline that turns a track list into a Spotify playlist.
//
// The core abstraction is ExportEngine, which runs an ordered list of named stages.
// Operations emit progress updates via channels for non-blocking status reporting to CLI/UI layers.
package tasks

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/promptlist/internal/models"
	"github.com/desertthunder/promptlist/internal/services"
	"github.com/desertthunder/promptlist/internal/shared"
)

// Stage names a step of the export pipeline.
type Stage string

const (
	StageValidate Stage = "validate"
	StageIdentify Stage = "identify"
	StageCreate   Stage = "create"
	StageResolve  Stage = "resolve"
	StageCheck    Stage = "check"
	StageAttach   Stage = "attach"
)

const defaultDescription = "Generated by promptlist"

// ExportRequest is a track list to be exported as a new playlist.
type ExportRequest struct {
	Name        string
	Description string // defaults to "Generated by promptlist"
	Public      bool
	Tracks      []models.TrackCandidate
	Credential  models.AccessCredential
}

// Exporter creates playlists from track lists.
type Exporter interface {
	Export(ctx context.Context, req ExportRequest, progress chan<- ProgressUpdate) (*models.ExportResult, error)
}

// ExportEngine implements [Exporter] against a [services.Catalog].
type ExportEngine struct {
	catalog  services.Catalog
	resolver *Resolver
	observer Observer
	logger   *log.Logger
	now      func() time.Time
}

// NewExportEngine creates an ExportEngine. A nil observer discards telemetry.
func NewExportEngine(catalog services.Catalog, resolver *Resolver, observer Observer, logger *log.Logger) *ExportEngine {
	if observer == nil {
		observer = NopObserver{}
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &ExportEngine{
		catalog:  catalog,
		resolver: resolver,
		observer: observer,
		logger:   shared.WithLogger(logger, "component", "export"),
		now:      time.Now,
	}
}

// exportRun carries the state threaded through the stages of one export.
type exportRun struct {
	id       string
	req      ExportRequest
	progress chan<- ProgressUpdate
	logger   *log.Logger

	user       *services.SpotifyUser
	playlist   *services.SpotifyPlaylist
	resolved   []models.ResolvedTrack
	uris       []string
	unresolved []models.TrackCandidate
}

type stage struct {
	name Stage
	run  func(ctx context.Context, r *exportRun) error
}

func (e *ExportEngine) stages() []stage {
	return []stage{
		{StageValidate, e.validate},
		{StageIdentify, e.identify},
		{StageCreate, e.create},
		{StageResolve, e.resolve},
		{StageCheck, e.check},
		{StageAttach, e.attach},
	}
}

// Export runs every stage in order and stops at the first failure, which is returned as an [*ExportError].
//
// Side effects of completed stages are not rolled back: a failure after create leaves the playlist in place.
func (e *ExportEngine) Export(ctx context.Context, req ExportRequest, progress chan<- ProgressUpdate) (*models.ExportResult, error) {
	run := &exportRun{id: shared.GenerateID(), req: req, progress: progress}
	run.logger = shared.WithLogger(e.logger, "export", run.id)

	for _, st := range e.stages() {
		start := e.now()
		err := st.run(ctx, run)
		e.observer.ObserveStage(st.name, time.Since(start), err)

		if err != nil {
			var xe *ExportError
			if !errors.As(err, &xe) {
				xe = newExportError(KindUpstream, err)
			}
			xe.Stage = st.name

			run.logger.Warn("export failed", "stage", st.name, "kind", xe.Kind, "error", xe.Err)
			e.observer.ObserveExport(xe.Kind)
			return nil, xe
		}
		run.logger.Debug("stage complete", "stage", st.name, "duration", time.Since(start))
	}

	result := &models.ExportResult{
		PlaylistID:  run.playlist.ID,
		PlaylistURL: run.playlist.URL(),
		Added:       len(run.uris),
		Skipped:     len(run.unresolved),
		Unresolved:  run.unresolved,
	}

	run.logger.Info("export complete", "playlist", result.PlaylistID, "added", result.Added, "skipped", result.Skipped)
	e.observer.ObserveExport("")
	e.sendProgress(progress, completedUpdate(result))
	return result, nil
}

func (e *ExportEngine) validate(_ context.Context, r *exportRun) error {
	e.sendProgress(r.progress, validateUpdate(len(r.req.Tracks)))

	r.req.Name = strings.TrimSpace(r.req.Name)
	if r.req.Name == "" {
		return newExportError(KindInvalidRequest, fmt.Errorf("%w: playlist name", shared.ErrMissingArgument))
	}
	if len(r.req.Tracks) == 0 {
		return newExportError(KindInvalidRequest, fmt.Errorf("%w: tracks", shared.ErrMissingArgument))
	}
	if !r.req.Credential.Present() {
		return newExportError(KindInvalidRequest, fmt.Errorf("%w: access token", shared.ErrMissingArgument))
	}
	if r.req.Credential.Expired(e.now()) {
		return newExportError(KindAuth, shared.ErrTokenExpired)
	}

	if r.req.Description == "" {
		r.req.Description = defaultDescription
	}
	return nil
}

func (e *ExportEngine) identify(ctx context.Context, r *exportRun) error {
	e.sendProgress(r.progress, identifyUpdate())

	user, err := e.catalog.CurrentUser(ctx, r.req.Credential.Token)
	if err != nil {
		if errors.Is(err, shared.ErrAuth) {
			return newExportError(KindAuth, err)
		}
		return newExportError(KindUpstream, err)
	}

	r.user = user
	r.logger.Debug("identified user", "user", user.ID)
	return nil
}

func (e *ExportEngine) create(ctx context.Context, r *exportRun) error {
	e.sendProgress(r.progress, createPlaylistUpdate(r.req.Name))

	pl, err := e.catalog.CreatePlaylist(ctx, r.req.Credential.Token, r.user.ID, services.PlaylistOptions{
		Name:        r.req.Name,
		Description: r.req.Description,
		Public:      r.req.Public,
	})
	if err != nil {
		return newExportError(KindPlaylistCreate, err)
	}

	r.playlist = pl
	e.sendProgress(r.progress, playlistCreatedUpdate(pl))
	return nil
}

// resolve maps every candidate first and filters afterwards, so a miss never aborts the stage.
func (e *ExportEngine) resolve(ctx context.Context, r *exportRun) error {
	total := len(r.req.Tracks)
	resolved, err := e.resolver.ResolveAll(ctx, r.req.Tracks, r.req.Credential, func(done int, rt models.ResolvedTrack) {
		e.sendProgress(r.progress, resolveTrackUpdate(done, total, rt))
	})
	if err != nil {
		if errors.Is(err, shared.ErrAuth) {
			return newExportError(KindAuth, err)
		}
		return newExportError(KindResolutionTransport, err)
	}

	r.resolved = resolved
	r.uris = make([]string, 0, len(resolved))
	r.unresolved = []models.TrackCandidate{}
	for _, rt := range resolved {
		if rt.Found() {
			r.uris = append(r.uris, rt.URI)
			continue
		}
		r.unresolved = append(r.unresolved, rt.Candidate)
		r.logger.Info("track not found", "track", rt.Candidate.String())
	}
	return nil
}

func (e *ExportEngine) check(_ context.Context, r *exportRun) error {
	e.sendProgress(r.progress, checkUpdate(len(r.uris), len(r.resolved)))

	if len(r.uris) == 0 {
		return newExportError(KindNoTracksResolved, fmt.Errorf("%w: none of %d tracks matched", shared.ErrNoTracksResolved, len(r.resolved)))
	}
	return nil
}

// attach adds the URIs in resolution order, in batches of [services.MaxTracksPerRequest].
func (e *ExportEngine) attach(ctx context.Context, r *exportRun) error {
	batches := chunk(r.uris, services.MaxTracksPerRequest)

	added := 0
	for i, batch := range batches {
		if err := e.catalog.AddTracks(ctx, r.req.Credential.Token, r.playlist.ID, batch); err != nil {
			return newExportError(KindAttach, err)
		}
		added += len(batch)
		e.sendProgress(r.progress, attachUpdate(i+1, len(batches), added))
	}
	return nil
}

func chunk(items []string, size int) [][]string {
	var out [][]string
	for start := 0; start < len(items); start += size {
		end := min(start+size, len(items))
		out = append(out, items[start:end])
	}
	return out
}

// sendProgress sends a progress update through the channel without blocking.
func (e *ExportEngine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}
