// Card HTTP handlers.
//
//   - POST  /cards                 (create)
//   - GET   /cards/{idOrShareId}   (lookup by id or share id)
//   - PATCH /cards/{id}            (restricted update)
package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-songcard-backend/internal/domain"
	"github.com/tbourn/go-songcard-backend/internal/http/middleware"
	"github.com/tbourn/go-songcard-backend/internal/services"
)

// CardSummary is the short form returned on creation.
type CardSummary struct {
	ID      string            `json:"id"      example:"V1StGXR8_Z5jdHi6B-myT"`
	ShareID string            `json:"shareId" example:"abcDEF123_-x"`
	Status  domain.SongStatus `json:"status"  example:"pending"`
}

// CreateCardResponse is returned by POST /cards.
type CreateCardResponse struct {
	Success bool        `json:"success" example:"true"`
	Card    CardSummary `json:"card"`
}

// CardView is the public projection of a card.
type CardView struct {
	ID                string            `json:"id"`
	ShareID           string            `json:"shareId"`
	RecipientName     string            `json:"recipientName"`
	PersonalityTraits []string          `json:"personalityTraits"`
	Interests         []string          `json:"interests"`
	Relationship      string            `json:"relationship"`
	MusicStyle        domain.MusicStyle `json:"musicStyle"`
	ThemeID           domain.ThemeID    `json:"themeId"`
	Occasion          domain.Occasion   `json:"occasion"`
	CustomMessage     string            `json:"customMessage"`
	SenderName        string            `json:"senderName"`
	SenderEmail       *string           `json:"senderEmail"`
	SongStatus        domain.SongStatus `json:"songStatus"`
	SongURL           *string           `json:"songUrl"`
	Lyrics            *string           `json:"lyrics"`
	CreatedAt         time.Time         `json:"createdAt"`
}

// GetCardResponse is returned by GET /cards/{idOrShareId}.
type GetCardResponse struct {
	Success bool     `json:"success" example:"true"`
	Card    CardView `json:"card"`
}

// PatchedCard is the subset echoed after PATCH.
type PatchedCard struct {
	ID         string            `json:"id"`
	SongStatus domain.SongStatus `json:"songStatus"`
	SongURL    *string           `json:"songUrl"`
	Lyrics     *string           `json:"lyrics"`
	SunoJobID  *string           `json:"sunoJobId"`
	UpdatedAt  time.Time         `json:"updatedAt"`
}

// PatchCardResponse is returned by PATCH /cards/{id}.
type PatchCardResponse struct {
	Success bool        `json:"success" example:"true"`
	Card    PatchedCard `json:"card"`
}

func viewOf(c *domain.Card) CardView {
	occasion := c.Occasion
	if occasion == "" {
		occasion = domain.DefaultOccasion
	}
	return CardView{
		ID:                c.ID,
		ShareID:           c.ShareID,
		RecipientName:     c.RecipientName,
		PersonalityTraits: []string(c.PersonalityTraits),
		Interests:         []string(c.Interests),
		Relationship:      c.Relationship,
		MusicStyle:        c.MusicStyle,
		ThemeID:           c.ThemeID,
		Occasion:          occasion,
		CustomMessage:     c.CustomMessage,
		SenderName:        c.SenderName,
		SenderEmail:       c.SenderEmail,
		SongStatus:        c.SongStatus,
		SongURL:           c.SongURL,
		Lyrics:            c.Lyrics,
		CreatedAt:         c.CreatedAt,
	}
}

// CreateCard godoc
// @ID          createCard
// @Summary     Create a card
// @Description Validates the card details and stores a new card. A repeated Idempotency-Key from the same client returns the originally created card.
// @Tags        Cards
// @Accept      json
// @Produce     json
// @Param       Idempotency-Key  header  string                    false  "Idempotency key for safe retries"
// @Param       body             body    services.CreateCardInput  true   "Card details"
// @Success     201  {object}  handlers.CreateCardResponse
// @Header      201  {string}  Idempotency-Replayed  "true when an earlier result was replayed"
// @Failure     400  {object}  handlers.ErrorResponse  "Validation error"
// @Failure     429  {object}  handlers.ErrorResponse  "Rate limited"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /cards [post]
func (h *Handlers) CreateCard(c *gin.Context) {
	var in services.CreateCardInput
	if err := c.ShouldBindJSON(&in); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "Invalid JSON body")
		return
	}
	key, _ := middleware.GetIdempotencyKey(c)

	res, err := h.cards.Create(c.Request.Context(), clientIP(c), key, in)
	if err != nil {
		writeServiceError(c, err, ErrCodeInternal)
		return
	}
	if res.Replayed {
		c.Header("Idempotency-Replayed", "true")
	}
	ok(c, http.StatusCreated, CreateCardResponse{
		Success: true,
		Card:    CardSummary{ID: res.Card.ID, ShareID: res.Card.ShareID, Status: res.Card.SongStatus},
	})
}

// GetCard godoc
// @ID          getCard
// @Summary     Get a card
// @Description Resolves the key as a card id first, then as a share id.
// @Tags        Cards
// @Produce     json
// @Param       idOrShareId  path  string  true  "Card id (21 chars) or share id (12 chars)"
// @Success     200  {object}  handlers.GetCardResponse
// @Failure     404  {object}  handlers.ErrorResponse  "Card not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /cards/{idOrShareId} [get]
func (h *Handlers) GetCard(c *gin.Context) {
	card, err := h.cards.Get(c.Request.Context(), c.Param("idOrShareId"))
	if err != nil {
		writeServiceError(c, err, ErrCodeInternal)
		return
	}
	ok(c, http.StatusOK, GetCardResponse{Success: true, Card: viewOf(card)})
}

// PatchCard godoc
// @ID          patchCard
// @Summary     Update generation fields of a card
// @Description Only songStatus, songUrl, lyrics and sunoJobId are writable. A songStatus must be a legal transition.
// @Tags        Cards
// @Accept      json
// @Produce     json
// @Param       id    path  string                   true  "Card id"
// @Param       body  body  services.PatchCardInput  true  "Fields to update"
// @Success     200  {object}  handlers.PatchCardResponse
// @Failure     400  {object}  handlers.ErrorResponse  "No valid fields or invalid values"
// @Failure     404  {object}  handlers.ErrorResponse  "Card not found"
// @Failure     409  {object}  handlers.ErrorResponse  "Illegal status transition"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /cards/{id} [patch]
func (h *Handlers) PatchCard(c *gin.Context) {
	var in services.PatchCardInput
	if err := c.ShouldBindJSON(&in); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "Invalid JSON body")
		return
	}
	card, err := h.cards.Patch(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		writeServiceError(c, err, ErrCodeInternal)
		return
	}
	ok(c, http.StatusOK, PatchCardResponse{
		Success: true,
		Card: PatchedCard{
			ID:         card.ID,
			SongStatus: card.SongStatus,
			SongURL:    card.SongURL,
			Lyrics:     card.Lyrics,
			SunoJobID:  card.SunoJobID,
			UpdatedAt:  card.UpdatedAt,
		},
	})
}
