// Package handlers: service contracts and handler wiring.
//
// Handlers are transport-thin. They decode JSON, call one service method
// with the caller's IP, and translate the result or error into a response.
package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-songcard-backend/internal/domain"
	"github.com/tbourn/go-songcard-backend/internal/services"
)

// CardService defines the card operations used by the handlers.
type CardService interface {
	// Create inserts a card for the caller at ip, replaying an earlier result
	// when idemKey matches.
	Create(ctx context.Context, ip, idemKey string, in services.CreateCardInput) (*services.CreateResult, error)
	// Get resolves a card by id or share id.
	Get(ctx context.Context, key string) (*domain.Card, error)
	// Patch applies the allow-listed fields.
	Patch(ctx context.Context, id string, in services.PatchCardInput) (*domain.Card, error)
}

// Workflow defines the generation and delivery operations.
type Workflow interface {
	RequestLyrics(ctx context.Context, ip string, req services.CardRequest) (*services.LyricsResult, error)
	RequestSong(ctx context.Context, ip string, req services.CardRequest) (*services.SongResult, error)
	PollSongStatus(ctx context.Context, jobID string) (*services.PollResult, error)
	SendCardEmail(ctx context.Context, ip string, in services.SendCardInput) (*services.EmailResult, error)
}

// Handlers groups the API endpoints.
type Handlers struct {
	cards CardService
	flow  Workflow
}

// New constructs Handlers bound to the given services.
func New(cards CardService, flow Workflow) *Handlers {
	return &Handlers{cards: cards, flow: flow}
}

// clientIP is the identity used for per-action rate limits. It relies on the
// engine's trusted proxy configuration.
func clientIP(c *gin.Context) string {
	if ip := c.ClientIP(); ip != "" {
		return ip
	}
	return "unknown"
}
