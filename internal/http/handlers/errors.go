// Package handlers: error codes and the service error mapping.
//
// Every handler funnels service failures through writeServiceError so the
// status code, code string and headers stay consistent across endpoints.
// Provider failures are logged in full but answered with a generic message,
// except email delivery, whose provider text is shown to the sender.
package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-songcard-backend/internal/domain"
	"github.com/tbourn/go-songcard-backend/internal/http/middleware"
	"github.com/tbourn/go-songcard-backend/internal/providers"
	"github.com/tbourn/go-songcard-backend/internal/services"
)

const (
	ErrCodeBadRequest         = "bad_request"
	ErrCodeValidation         = "validation_error"
	ErrCodeNotFound           = "not_found"
	ErrCodeConflict           = "conflict"
	ErrCodeRateLimited        = "rate_limited"
	ErrCodeMethodNotAllowed   = "method_not_allowed"
	ErrCodeInternal           = "internal_error"
	ErrCodeFeatureUnavailable = "feature_unavailable"

	// Domain-specific:
	ErrCodeLyricsRequired = "lyrics_required"
	ErrCodeLyricsFailed   = "lyrics_failed"
	ErrCodeSongFailed     = "song_failed"
	ErrCodeEmailFailed    = "email_failed"
)

const (
	headerRateRemaining = "X-RateLimit-Remaining"
	headerRateReset     = "X-RateLimit-Reset"
)

// throttleMessages are the 429 messages per action.
var throttleMessages = map[domain.Action]string{
	domain.ActionCreateCard:     "Too many cards created. Please try again later.",
	domain.ActionGenerateLyrics: "Too many lyrics generations. Please try again later.",
	domain.ActionGenerateSong:   "Too many song generations. Please try again later.",
	domain.ActionSendEmail:      "Too many emails sent. Please try again later.",
}

// writeServiceError maps err to an HTTP response. providerCode is the code
// used when a provider call failed.
func writeServiceError(c *gin.Context, err error, providerCode string) {
	var (
		ve *services.ValidationError
		rl *services.RateLimitError
		fe *services.FeatureError
		ae *providers.AdapterError
	)
	switch {
	case errors.As(err, &ve):
		failWith(c, http.StatusBadRequest, ErrorResponse{Error: ErrCodeValidation, Message: "Validation error", Details: ve.Fields})

	case errors.Is(err, services.ErrLyricsRequired):
		fail(c, http.StatusBadRequest, ErrCodeLyricsRequired, "Lyrics must be generated first")

	case errors.Is(err, services.ErrNoUpdatableFields):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "No valid fields to update")

	case errors.Is(err, services.ErrCardNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "Card not found")

	case errors.Is(err, services.ErrJobNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "Job not found")

	case errors.Is(err, services.ErrStatusConflict):
		fail(c, http.StatusConflict, ErrCodeConflict, err.Error())

	case errors.As(err, &rl):
		reset := rl.ResetAt.UTC()
		c.Header(headerRateRemaining, strconv.Itoa(rl.Remaining))
		c.Header(headerRateReset, reset.Format(time.RFC3339))
		msg, found := throttleMessages[rl.Action]
		if !found {
			msg = "Rate limit exceeded"
		}
		failWith(c, http.StatusTooManyRequests, ErrorResponse{Error: ErrCodeRateLimited, Message: msg, ResetAt: &reset})

	case errors.As(err, &fe):
		fail(c, http.StatusNotImplemented, ErrCodeFeatureUnavailable, "Configure "+fe.EnvVar+" to enable "+fe.Feature)

	case errors.As(err, &ae):
		middleware.LoggerFrom(c).Error().Err(err).
			Str("provider", ae.Provider).
			Str("op", ae.Op).
			Int("provider_status", ae.StatusCode).
			Msg("provider failure")
		msg := genericProviderMessage(providerCode)
		if providerCode == ErrCodeEmailFailed && ae.Body != "" {
			msg = ae.Body
		}
		fail(c, http.StatusInternalServerError, providerCode, msg)

	default:
		middleware.LoggerFrom(c).Error().Err(err).Msg("unhandled service error")
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "Internal server error")
	}
}

func genericProviderMessage(code string) string {
	switch code {
	case ErrCodeLyricsFailed:
		return "Failed to generate lyrics"
	case ErrCodeSongFailed:
		return "Failed to generate song"
	case ErrCodeEmailFailed:
		return "Failed to send email"
	default:
		return "Internal server error"
	}
}
