package services

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/tbourn/go-songcard-backend/internal/domain"
)

// checkLimit returns a *RateLimitError when ip has exhausted action. Limiter
// failures are logged and the action is allowed.
func checkLimit(ctx context.Context, rl RateLimiter, ip string, action domain.Action) error {
	if rl == nil {
		return nil
	}
	d, err := rl.Check(ctx, ip, action)
	if err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("action", string(action)).Msg("rate limit check failed; allowing")
		return nil
	}
	if d.Limited {
		rateLimited.WithLabelValues(string(action)).Inc()
		return &RateLimitError{Action: action, Remaining: d.Remaining, ResetAt: d.ResetAt}
	}
	return nil
}

// countAction records one allowed action. Failures are logged only.
func countAction(ctx context.Context, rl RateLimiter, ip string, action domain.Action) {
	if rl == nil {
		return
	}
	if err := rl.Increment(ctx, ip, action); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("action", string(action)).Msg("rate limit increment failed")
	}
}
