package repo

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-songcard-backend/internal/domain"
)

// CurrentWindow returns the newest window for (ip, action) that opened at or
// after since, or ErrNotFound when the pair has no live window.
func CurrentWindow(ctx context.Context, db *gorm.DB, ip string, action domain.Action, since time.Time) (*domain.RateLimitWindow, error) {
	var w domain.RateLimitWindow
	err := db.WithContext(ctx).
		Where("ip_address = ? AND action = ? AND window_start >= ?", ip, action, since.UTC()).
		Order("window_start desc").
		First(&w).Error
	if err != nil {
		return nil, err
	}
	return &w, nil
}

// OpenWindow starts a fresh window with count 1.
func OpenWindow(ctx context.Context, db *gorm.DB, ip string, action domain.Action, start time.Time) (*domain.RateLimitWindow, error) {
	w := &domain.RateLimitWindow{
		ID:          uuid.NewString(),
		IPAddress:   ip,
		Action:      action,
		Count:       1,
		WindowStart: start.UTC(),
	}
	if err := db.WithContext(ctx).Create(w).Error; err != nil {
		return nil, err
	}
	return w, nil
}

// IncrementWindow bumps the count of window id by one.
func IncrementWindow(ctx context.Context, db *gorm.DB, id string) error {
	res := db.WithContext(ctx).
		Model(&domain.RateLimitWindow{}).
		Where("id = ?", id).
		UpdateColumn("count", gorm.Expr("count + 1"))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// PurgeWindows deletes windows that opened before cutoff and returns how many
// rows were removed.
func PurgeWindows(ctx context.Context, db *gorm.DB, cutoff time.Time) (int64, error) {
	res := db.WithContext(ctx).Where("window_start < ?", cutoff.UTC()).Delete(&domain.RateLimitWindow{})
	return res.RowsAffected, res.Error
}

// IsNotFound reports whether err is the repository not-found condition.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }
