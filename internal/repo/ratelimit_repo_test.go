package repo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tbourn/go-songcard-backend/internal/domain"
)

func TestWindows_OpenFindIncrementPurge(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	now := time.Date(2026, 1, 2, 12, 0, 0, 0, time.UTC)

	if _, err := CurrentWindow(ctx, db, "1.2.3.4", domain.ActionSendEmail, now.Add(-time.Hour)); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound before any window, got %v", err)
	}

	w, err := OpenWindow(ctx, db, "1.2.3.4", domain.ActionSendEmail, now)
	if err != nil {
		t.Fatalf("OpenWindow: %v", err)
	}
	if err := IncrementWindow(ctx, db, w.ID); err != nil {
		t.Fatalf("IncrementWindow: %v", err)
	}
	got, err := CurrentWindow(ctx, db, "1.2.3.4", domain.ActionSendEmail, now.Add(-time.Hour))
	if err != nil || got.Count != 2 {
		t.Fatalf("CurrentWindow = %+v, %v", got, err)
	}

	// other action and other ip are independent
	if _, err := CurrentWindow(ctx, db, "1.2.3.4", domain.ActionGenerateSong, now.Add(-time.Hour)); !errors.Is(err, ErrNotFound) {
		t.Fatalf("other action should have no window, got %v", err)
	}
	if _, err := CurrentWindow(ctx, db, "5.6.7.8", domain.ActionSendEmail, now.Add(-time.Hour)); !errors.Is(err, ErrNotFound) {
		t.Fatalf("other ip should have no window, got %v", err)
	}

	// once the start falls out of the lookback, the window is gone
	if _, err := CurrentWindow(ctx, db, "1.2.3.4", domain.ActionSendEmail, now.Add(time.Second)); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expired window should not be current, got %v", err)
	}

	if err := IncrementWindow(ctx, db, "nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("increment missing err = %v", err)
	}
	n, err := PurgeWindows(ctx, db, now.Add(time.Minute))
	if err != nil || n != 1 {
		t.Fatalf("PurgeWindows = %d, %v", n, err)
	}
}
