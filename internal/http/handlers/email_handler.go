// Email HTTP handler.
//
//   - POST /send-card   (email the card's share link)
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-songcard-backend/internal/services"
)

// SendCardResponse is returned by POST /send-card.
type SendCardResponse struct {
	Success   bool   `json:"success" example:"true"`
	CardID    string `json:"cardId"`
	MessageID string `json:"messageId" example:"49a3999c-0ce1-4ea6-ab68-afcd6dc2e794"`
	CardURL   string `json:"cardUrl" example:"https://songcards.app/card/abcDEF123_-x"`
}

// SendCard godoc
// @ID          sendCard
// @Summary     Email a card
// @Description Sends the card's share link to the recipient. Every attempt is logged; provider errors are shown as-is.
// @Tags        Email
// @Accept      json
// @Produce     json
// @Param       body  body  services.SendCardInput  true  "Card and recipient"
// @Success     200  {object}  handlers.SendCardResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Validation error"
// @Failure     404  {object}  handlers.ErrorResponse  "Card not found"
// @Failure     429  {object}  handlers.ErrorResponse  "Rate limited"
// @Failure     500  {object}  handlers.ErrorResponse  "Provider failure"
// @Failure     501  {object}  handlers.ErrorResponse  "Email provider not configured"
// @Router      /send-card [post]
func (h *Handlers) SendCard(c *gin.Context) {
	var in services.SendCardInput
	if err := c.ShouldBindJSON(&in); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "Card ID and recipient email are required")
		return
	}
	res, err := h.flow.SendCardEmail(c.Request.Context(), clientIP(c), in)
	if err != nil {
		writeServiceError(c, err, ErrCodeEmailFailed)
		return
	}
	ok(c, http.StatusOK, SendCardResponse{Success: true, CardID: res.CardID, MessageID: res.MessageID, CardURL: res.CardURL})
}
