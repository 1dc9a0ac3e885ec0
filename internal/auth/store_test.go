package auth

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/desertthunder/promptlist/internal/models"
	"github.com/desertthunder/promptlist/internal/shared"
)

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func newClock() *clock { return &clock{t: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)} }

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func newSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	db, err := shared.OpenMigrated(shared.DatabaseConfig{Path: filepath.Join(t.TempDir(), "auth.db"), MaxOpenConns: 1})
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	s := NewSQLiteStore(db)
	t.Cleanup(func() { s.Close() })
	return s
}

// storeCases runs fn against every [Store] implementation with a controllable clock.
func storeCases(t *testing.T, fn func(t *testing.T, s Store, c *clock)) {
	t.Run("MemoryStore", func(t *testing.T) {
		c := newClock()
		s := NewMemoryStore()
		s.now = c.Now
		fn(t, s, c)
	})

	t.Run("SQLiteStore", func(t *testing.T) {
		c := newClock()
		s := newSQLiteStore(t)
		s.now = c.Now
		fn(t, s, c)
	})
}

func TestStore(t *testing.T) {
	ctx := context.Background()

	t.Run("Redeem returns the saved verifier once", func(t *testing.T) {
		storeCases(t, func(t *testing.T, s Store, c *clock) {
			p, err := NewPendingAuthorization(c.Now(), time.Minute)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if err := s.Save(ctx, p); err != nil {
				t.Fatalf("save failed: %v", err)
			}

			got, err := s.Redeem(ctx, p.State)
			if err != nil {
				t.Fatalf("redeem failed: %v", err)
			}
			if got.Verifier != p.Verifier {
				t.Errorf("expected verifier %q, got %q", p.Verifier, got.Verifier)
			}

			if _, err := s.Redeem(ctx, p.State); !errors.Is(err, shared.ErrStateNotFound) {
				t.Errorf("expected ErrStateNotFound on second redeem, got %v", err)
			}
		})
	})

	t.Run("Unknown state", func(t *testing.T) {
		storeCases(t, func(t *testing.T, s Store, _ *clock) {
			if _, err := s.Redeem(ctx, "never-issued"); !errors.Is(err, shared.ErrStateNotFound) {
				t.Errorf("expected ErrStateNotFound, got %v", err)
			}
		})
	})

	t.Run("Expired entries cannot be redeemed", func(t *testing.T) {
		storeCases(t, func(t *testing.T, s Store, c *clock) {
			p, _ := NewPendingAuthorization(c.Now(), time.Minute)
			if err := s.Save(ctx, p); err != nil {
				t.Fatalf("save failed: %v", err)
			}

			c.Advance(time.Minute)

			if _, err := s.Redeem(ctx, p.State); !errors.Is(err, shared.ErrStateNotFound) {
				t.Errorf("expected ErrStateNotFound for expired entry, got %v", err)
			}
		})
	})

	t.Run("Sweep removes only expired entries", func(t *testing.T) {
		storeCases(t, func(t *testing.T, s Store, c *clock) {
			short, _ := NewPendingAuthorization(c.Now(), time.Minute)
			long, _ := NewPendingAuthorization(c.Now(), time.Hour)
			for _, p := range []models.PendingAuthorization{short, long} {
				if err := s.Save(ctx, p); err != nil {
					t.Fatalf("save failed: %v", err)
				}
			}

			c.Advance(2 * time.Minute)

			n, err := s.Sweep(ctx)
			if err != nil {
				t.Fatalf("sweep failed: %v", err)
			}
			if n != 1 {
				t.Errorf("expected 1 swept entry, got %d", n)
			}

			if _, err := s.Redeem(ctx, long.State); err != nil {
				t.Errorf("unexpired entry should survive sweep: %v", err)
			}
		})
	})

	t.Run("Concurrent redeem succeeds exactly once", func(t *testing.T) {
		storeCases(t, func(t *testing.T, s Store, c *clock) {
			p, _ := NewPendingAuthorization(c.Now(), time.Minute)
			if err := s.Save(ctx, p); err != nil {
				t.Fatalf("save failed: %v", err)
			}

			var (
				wg        sync.WaitGroup
				successes atomic.Int32
			)
			for range 16 {
				wg.Add(1)
				go func() {
					defer wg.Done()
					if _, err := s.Redeem(ctx, p.State); err == nil {
						successes.Add(1)
					}
				}()
			}
			wg.Wait()

			if got := successes.Load(); got != 1 {
				t.Errorf("expected exactly one successful redeem, got %d", got)
			}
		})
	})
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()

	t.Run("Save rejects duplicate state", func(t *testing.T) {
		s := NewMemoryStore()
		p, _ := NewPendingAuthorization(time.Now(), time.Minute)
		if err := s.Save(ctx, p); err != nil {
			t.Fatalf("save failed: %v", err)
		}
		if err := s.Save(ctx, p); err == nil {
			t.Error("expected error for duplicate state")
		}
	})

	t.Run("Close clears entries", func(t *testing.T) {
		s := NewMemoryStore()
		p, _ := NewPendingAuthorization(time.Now(), time.Minute)
		_ = s.Save(ctx, p)
		if s.Len() != 1 {
			t.Fatalf("expected 1 entry, got %d", s.Len())
		}
		_ = s.Close()
		if s.Len() != 0 {
			t.Errorf("expected 0 entries after close, got %d", s.Len())
		}
	})
}

func TestRunSweeper(t *testing.T) {
	s := NewMemoryStore()
	c := newClock()
	s.now = c.Now

	p, _ := NewPendingAuthorization(c.Now(), time.Millisecond)
	_ = s.Save(context.Background(), p)
	c.Advance(time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		RunSweeper(ctx, s, 5*time.Millisecond, shared.NewLogger(nil))
		close(done)
	}()

	deadline := time.After(2 * time.Second)
	for s.Len() != 0 {
		select {
		case <-deadline:
			t.Fatal("sweeper did not remove expired entry")
		case <-time.After(5 * time.Millisecond):
		}
	}

	cancel()
	<-done
}
