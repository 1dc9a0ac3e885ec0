package auth

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/promptlist/internal/models"
)

// Store holds pending authorizations between the redirect and the callback.
type Store interface {
	// Save records a new pending authorization.
	Save(ctx context.Context, pending models.PendingAuthorization) error

	// Redeem atomically looks up and deletes the entry for state.
	// Unknown, already redeemed and expired states return [shared.ErrStateNotFound].
	Redeem(ctx context.Context, state string) (models.PendingAuthorization, error)

	// Sweep removes expired entries and returns how many were removed.
	Sweep(ctx context.Context) (int, error)

	// Close releases resources held by the store.
	Close() error
}

// RunSweeper calls [Store.Sweep] every interval until ctx is cancelled.
func RunSweeper(ctx context.Context, store Store, interval time.Duration, logger *log.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := store.Sweep(ctx)
			if err != nil {
				logger.Warn("failed to sweep pending authorizations", "error", err)
				continue
			}
			if n > 0 {
				logger.Debug("swept expired authorizations", "count", n)
			}
		}
	}
}
