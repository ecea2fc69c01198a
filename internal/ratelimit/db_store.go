package ratelimit

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-songcard-backend/internal/domain"
	"github.com/tbourn/go-songcard-backend/internal/repo"
)

// DBStore keeps windows in the rate_limits table.
type DBStore struct {
	DB *gorm.DB
}

// NewDBStore returns a Store backed by db.
func NewDBStore(db *gorm.DB) *DBStore { return &DBStore{DB: db} }

// Current implements Store.
func (s *DBStore) Current(ctx context.Context, ip string, action domain.Action, since time.Time) (*Window, error) {
	w, err := repo.CurrentWindow(ctx, s.DB, ip, action, since)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &Window{ID: w.ID, Count: w.Count, Start: w.WindowStart}, nil
}

// Open implements Store. Expired rows are left for PurgeWindows; ttl is unused.
func (s *DBStore) Open(ctx context.Context, ip string, action domain.Action, start time.Time, _ time.Duration) error {
	_, err := repo.OpenWindow(ctx, s.DB, ip, action, start)
	return err
}

// Increment implements Store.
func (s *DBStore) Increment(ctx context.Context, _ string, _ domain.Action, w *Window) error {
	return repo.IncrementWindow(ctx, s.DB, w.ID)
}
