// Package handlers provides the HTTP handlers of the song-card API.
//
// This file defines the response helpers shared by every endpoint. Errors
// always use ErrorResponse; successes are plain JSON objects carrying
// `success: true`.
//
// Example error response:
//
//	HTTP/1.1 429 Too Many Requests
//	X-RateLimit-Remaining: 0
//	X-RateLimit-Reset: 2026-05-01T13:00:00Z
//	{
//	  "request_id": "123e4567-e89b-12d3-a456-426614174000",
//	  "error": "rate_limited",
//	  "message": "Too many song generations. Please try again later.",
//	  "resetAt": "2026-05-01T13:00:00Z"
//	}
package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-songcard-backend/internal/http/middleware"
)

// ErrorResponse is the error envelope returned by all endpoints.
type ErrorResponse struct {
	// Correlates server logs and client errors
	RequestID string `json:"request_id,omitempty" example:"123e4567-e89b-12d3-a456-426614174000"`
	// Stable, machine-readable code (see errors.go)
	Error string `json:"error" example:"not_found"`
	// Human-readable message, safe to show to users
	Message string `json:"message,omitempty" example:"Card not found"`
	// Field-level validation messages keyed by JSON field name
	Details map[string][]string `json:"details,omitempty"`
	// When a throttled action becomes available again
	ResetAt *time.Time `json:"resetAt,omitempty" example:"2026-05-01T13:00:00Z"`
}

// fail aborts with an ErrorResponse built from code and msg.
func fail(c *gin.Context, status int, code, msg string) {
	failWith(c, status, ErrorResponse{Error: code, Message: msg})
}

// failWith fills in the request id, logs 5xx responses with the request
// logger, and aborts with resp.
func failWith(c *gin.Context, status int, resp ErrorResponse) {
	resp.RequestID = c.Writer.Header().Get("X-Request-ID")
	if status >= http.StatusInternalServerError {
		middleware.LoggerFrom(c).Error().
			Int("status", status).
			Str("code", resp.Error).
			Str("message", resp.Message).
			Msg("api error")
	}
	c.AbortWithStatusJSON(status, resp)
}

// Fail is the exported form of fail, used for router fallbacks.
func Fail(c *gin.Context, status int, code, msg string) { fail(c, status, code, msg) }

func ok(c *gin.Context, status int, body any) {
	c.JSON(status, body)
}
