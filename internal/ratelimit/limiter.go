// Package ratelimit implements the per-IP, per-action fixed-window limiter
// that guards every call to an external provider.
//
// A window opens on the first counted action and lasts Policy.Window. While a
// window is current its count decides whether further actions are allowed;
// once its start falls outside the lookback, the next action opens a fresh
// window. Check and Increment are separate calls, so concurrent requests from
// one IP may briefly overrun the limit.
package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tbourn/go-songcard-backend/internal/domain"
)

var (
	// ErrUnknownAction is returned for actions without a configured policy.
	ErrUnknownAction = errors.New("ratelimit: unknown action")
	// ErrWindowGone is returned by Store.Increment when the window seen by
	// Current expired before it could be counted.
	ErrWindowGone = errors.New("ratelimit: window gone")
)

// Policy caps an action at Limit calls per Window.
type Policy struct {
	Limit  int
	Window time.Duration
}

// DefaultPolicies are the per-IP limits for each guarded action.
var DefaultPolicies = map[domain.Action]Policy{
	domain.ActionCreateCard:     {Limit: 5, Window: 60 * time.Minute},
	domain.ActionGenerateLyrics: {Limit: 10, Window: 60 * time.Minute},
	domain.ActionGenerateSong:   {Limit: 5, Window: 60 * time.Minute},
	domain.ActionSendEmail:      {Limit: 3, Window: 60 * time.Minute},
}

// Window is a live counter as seen by a Store.
type Window struct {
	// ID is store-specific; stores that key by (ip, action) may leave it empty.
	ID    string
	Count int
	Start time.Time
}

// Store persists windows. Current returns (nil, nil) when no window for the
// pair started at or after since.
type Store interface {
	Current(ctx context.Context, ip string, action domain.Action, since time.Time) (*Window, error)
	Open(ctx context.Context, ip string, action domain.Action, start time.Time, ttl time.Duration) error
	Increment(ctx context.Context, ip string, action domain.Action, w *Window) error
}

// Decision is the outcome of Check.
type Decision struct {
	Limited   bool
	Remaining int
	ResetAt   time.Time
}

// Limiter applies policies against a Store.
type Limiter struct {
	store    Store
	policies map[domain.Action]Policy
	now      func() time.Time
}

// New returns a Limiter. A nil policies map selects DefaultPolicies.
func New(store Store, policies map[domain.Action]Policy) *Limiter {
	if policies == nil {
		policies = DefaultPolicies
	}
	return &Limiter{store: store, policies: policies, now: func() time.Time { return time.Now().UTC() }}
}

// WithClock replaces the time source; used by tests.
func (l *Limiter) WithClock(now func() time.Time) *Limiter {
	l.now = now
	return l
}

// Policy returns the configured policy for action.
func (l *Limiter) Policy(action domain.Action) (Policy, bool) {
	p, ok := l.policies[action]
	return p, ok
}

// Check reports whether ip may perform action now. It never mutates state.
func (l *Limiter) Check(ctx context.Context, ip string, action domain.Action) (Decision, error) {
	p, ok := l.policies[action]
	if !ok {
		return Decision{}, fmt.Errorf("%w: %s", ErrUnknownAction, action)
	}
	now := l.now()
	w, err := l.store.Current(ctx, ip, action, now.Add(-p.Window))
	if err != nil {
		return Decision{}, err
	}
	if w == nil {
		return Decision{Limited: false, Remaining: p.Limit, ResetAt: now.Add(p.Window)}, nil
	}
	remaining := p.Limit - w.Count
	if remaining < 0 {
		remaining = 0
	}
	return Decision{
		Limited:   w.Count >= p.Limit,
		Remaining: remaining,
		ResetAt:   w.Start.Add(p.Window),
	}, nil
}

// Increment counts one action for ip, opening a window when none is current.
func (l *Limiter) Increment(ctx context.Context, ip string, action domain.Action) error {
	p, ok := l.policies[action]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownAction, action)
	}
	now := l.now()
	w, err := l.store.Current(ctx, ip, action, now.Add(-p.Window))
	if err != nil {
		return err
	}
	if w == nil {
		return l.store.Open(ctx, ip, action, now, p.Window)
	}
	err = l.store.Increment(ctx, ip, action, w)
	if errors.Is(err, ErrWindowGone) {
		return l.store.Open(ctx, ip, action, now, p.Window)
	}
	return err
}
