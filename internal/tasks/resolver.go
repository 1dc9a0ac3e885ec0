package tasks

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/promptlist/internal/models"
	"github.com/desertthunder/promptlist/internal/services"
	"github.com/desertthunder/promptlist/internal/shared"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// ResolverOpts contains configuration for track resolution.
type ResolverOpts struct {
	Workers           int     // Concurrent searches (default: 4, max: 10)
	SearchesPerSecond float64 // Search pacing; <= 0 disables pacing
}

// Resolver maps track candidates to Spotify track URIs.
type Resolver struct {
	catalog  services.Catalog
	limiter  *rate.Limiter
	workers  int
	observer Observer
	logger   *log.Logger
	now      func() time.Time
}

// NewResolver creates a [Resolver] that searches catalog.
func NewResolver(catalog services.Catalog, opts ResolverOpts, observer Observer, logger *log.Logger) *Resolver {
	if opts.Workers <= 0 {
		opts.Workers = 4
	}
	if opts.Workers > 10 {
		opts.Workers = 10
	}

	limit := rate.Inf
	if opts.SearchesPerSecond > 0 {
		limit = rate.Limit(opts.SearchesPerSecond)
	}

	if observer == nil {
		observer = NopObserver{}
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	return &Resolver{
		catalog:  catalog,
		limiter:  rate.NewLimiter(limit, 1),
		workers:  opts.Workers,
		observer: observer,
		logger:   shared.WithLogger(logger, "component", "resolver"),
		now:      time.Now,
	}
}

// Resolve searches for a single candidate. A miss is a [models.ResolvedTrack] with an empty URI, not an error.
// A candidate without a title is a miss and is never searched.
//
// Every failure wraps [shared.ErrResolutionTransport]; a missing, expired or rejected credential also wraps
// [shared.ErrAuth].
func (r *Resolver) Resolve(ctx context.Context, c models.TrackCandidate, cred models.AccessCredential) (models.ResolvedTrack, error) {
	rt := models.ResolvedTrack{Candidate: c}

	if !cred.Present() {
		return rt, fmt.Errorf("%w: %w: %w", shared.ErrResolutionTransport, shared.ErrAuth, shared.ErrNotAuthenticated)
	}
	if cred.Expired(r.now()) {
		return rt, fmt.Errorf("%w: %w: %w", shared.ErrResolutionTransport, shared.ErrAuth, shared.ErrTokenExpired)
	}

	if strings.TrimSpace(c.Title) == "" {
		r.observer.ObserveResolution(false)
		r.logger.Debug("skipping candidate without a title", "artist", c.Artist)
		return rt, nil
	}

	if err := r.limiter.Wait(ctx); err != nil {
		return rt, fmt.Errorf("%w: %q: %w", shared.ErrResolutionTransport, c.String(), err)
	}

	uri, err := r.catalog.SearchTrack(ctx, cred.Token, c.Query())
	if err != nil {
		return rt, fmt.Errorf("%w: %q: %w", shared.ErrResolutionTransport, c.String(), err)
	}

	rt.URI = uri
	r.observer.ObserveResolution(rt.Found())
	if !rt.Found() {
		r.logger.Debug("no match", "track", c.String())
	}
	return rt, nil
}

// ResolveAll resolves candidates concurrently and returns results in input order.
//
// onResolved, when non-nil, is called after each resolution with the number completed so far. The first
// failure cancels the searches still in flight and is returned.
func (r *Resolver) ResolveAll(
	ctx context.Context,
	candidates []models.TrackCandidate,
	cred models.AccessCredential,
	onResolved func(done int, rt models.ResolvedTrack),
) ([]models.ResolvedTrack, error) {
	results := make([]models.ResolvedTrack, len(candidates))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)

	var done atomic.Int64
	for i, c := range candidates {
		g.Go(func() error {
			rt, err := r.Resolve(gctx, c, cred)
			if err != nil {
				return err
			}
			results[i] = rt

			n := done.Add(1)
			if onResolved != nil {
				onResolved(int(n), rt)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
