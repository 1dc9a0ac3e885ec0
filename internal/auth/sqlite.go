package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/promptlist/internal/models"
	"github.com/desertthunder/promptlist/internal/shared"
)

// SQLiteStore is a [Store] backed by the pending_authorizations table.
//
// The database must already be migrated with [shared.RunMigrations].
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLiteStore creates a [SQLiteStore] using db.
func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db, now: time.Now}
}

func (s *SQLiteStore) Save(ctx context.Context, p models.PendingAuthorization) error {
	query := `
		INSERT INTO pending_authorizations (state, verifier, created_at, expires_at) VALUES (?, ?, ?, ?)
	`
	if _, err := s.db.ExecContext(ctx, query, p.State, p.Verifier, p.CreatedAt.UnixMilli(), p.ExpiresAt.UnixMilli()); err != nil {
		return fmt.Errorf("failed to insert pending authorization: %w", err)
	}
	return nil
}

// Redeem deletes and returns the row in a single statement, so concurrent callbacks cannot both succeed.
func (s *SQLiteStore) Redeem(ctx context.Context, state string) (models.PendingAuthorization, error) {
	query := `
		DELETE FROM pending_authorizations WHERE state = ? RETURNING verifier, created_at, expires_at
	`

	var (
		verifier  string
		createdAt int64
		expiresAt int64
	)

	err := s.db.QueryRowContext(ctx, query, state).Scan(&verifier, &createdAt, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.PendingAuthorization{}, shared.ErrStateNotFound
	}
	if err != nil {
		return models.PendingAuthorization{}, fmt.Errorf("failed to redeem pending authorization: %w", err)
	}

	p := models.PendingAuthorization{
		State:     state,
		Verifier:  verifier,
		CreatedAt: time.UnixMilli(createdAt),
		ExpiresAt: time.UnixMilli(expiresAt),
	}
	if p.Expired(s.now()) {
		return models.PendingAuthorization{}, shared.ErrStateNotFound
	}
	return p, nil
}

func (s *SQLiteStore) Sweep(ctx context.Context) (int, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM pending_authorizations WHERE expires_at <= ?`, s.now().UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("failed to sweep pending authorizations: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count swept rows: %w", err)
	}
	return int(n), nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
