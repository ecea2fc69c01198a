// Generation HTTP handlers.
//
//   - POST /generate-lyrics        (lyrics for a card; cached when present)
//   - POST /generate-song          (submit a song job; needs lyrics)
//   - GET  /song-status/{jobId}    (poll and reconcile a song job)
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-songcard-backend/internal/domain"
	"github.com/tbourn/go-songcard-backend/internal/services"
)

// LyricsResponse is returned by POST /generate-lyrics.
type LyricsResponse struct {
	Success bool   `json:"success" example:"true"`
	CardID  string `json:"cardId"`
	Lyrics  string `json:"lyrics"`
	// Cached is true when the card already had lyrics.
	Cached bool `json:"cached"`
}

// SongResponse is returned by POST /generate-song.
type SongResponse struct {
	Success bool             `json:"success" example:"true"`
	CardID  string           `json:"cardId"`
	JobID   string           `json:"jobId,omitempty" example:"5c79b2a6-7d6a-4e0b-9c3f-2f2f1c0d9a11"`
	Status  domain.JobStatus `json:"status" example:"processing"`
	SongURL string           `json:"songUrl,omitempty"`
	Message string           `json:"message,omitempty" example:"Song already generated"`
}

// SongStatusResponse is returned by GET /song-status/{jobId}.
type SongStatusResponse struct {
	Success bool             `json:"success" example:"true"`
	CardID  string           `json:"cardId"`
	JobID   string           `json:"jobId"`
	Status  domain.JobStatus `json:"status" example:"complete"`
	SongURL string           `json:"songUrl,omitempty"`
	Error   string           `json:"error,omitempty"`
}

// GenerateLyrics godoc
// @ID          generateLyrics
// @Summary     Generate lyrics for a card
// @Description Calls the lyrics model once per card; later calls return the stored lyrics.
// @Tags        Generation
// @Accept      json
// @Produce     json
// @Param       body  body  services.CardRequest  true  "Card to write lyrics for"
// @Success     200  {object}  handlers.LyricsResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Invalid card id"
// @Failure     404  {object}  handlers.ErrorResponse  "Card not found"
// @Failure     409  {object}  handlers.ErrorResponse  "Generation already running"
// @Failure     429  {object}  handlers.ErrorResponse  "Rate limited"
// @Failure     500  {object}  handlers.ErrorResponse  "Provider failure"
// @Failure     501  {object}  handlers.ErrorResponse  "Lyrics provider not configured"
// @Router      /generate-lyrics [post]
func (h *Handlers) GenerateLyrics(c *gin.Context) {
	var req services.CardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "Invalid card ID")
		return
	}
	res, err := h.flow.RequestLyrics(c.Request.Context(), clientIP(c), req)
	if err != nil {
		writeServiceError(c, err, ErrCodeLyricsFailed)
		return
	}
	ok(c, http.StatusOK, LyricsResponse{Success: true, CardID: res.CardID, Lyrics: res.Lyrics, Cached: res.Cached})
}

// GenerateSong godoc
// @ID          generateSong
// @Summary     Start song generation for a card
// @Description Submits the card's lyrics to the song provider. Cards that already have a song return it without a new job.
// @Tags        Generation
// @Accept      json
// @Produce     json
// @Param       body  body  services.CardRequest  true  "Card to generate a song for"
// @Success     200  {object}  handlers.SongResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Invalid card id or lyrics missing"
// @Failure     404  {object}  handlers.ErrorResponse  "Card not found"
// @Failure     409  {object}  handlers.ErrorResponse  "Generation already running"
// @Failure     429  {object}  handlers.ErrorResponse  "Rate limited"
// @Failure     500  {object}  handlers.ErrorResponse  "Provider failure"
// @Failure     501  {object}  handlers.ErrorResponse  "Song provider not configured"
// @Router      /generate-song [post]
func (h *Handlers) GenerateSong(c *gin.Context) {
	var req services.CardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "Invalid card ID")
		return
	}
	res, err := h.flow.RequestSong(c.Request.Context(), clientIP(c), req)
	if err != nil {
		writeServiceError(c, err, ErrCodeSongFailed)
		return
	}
	resp := SongResponse{Success: true, CardID: res.CardID, JobID: res.JobID, Status: res.Status, SongURL: res.SongURL}
	if res.Cached {
		resp.Message = "Song already generated"
	}
	ok(c, http.StatusOK, resp)
}

// SongStatus godoc
// @ID          songStatus
// @Summary     Poll a song generation job
// @Description Asks the provider for the job's state and stores terminal results. Finished jobs are answered from the store.
// @Tags        Generation
// @Produce     json
// @Param       jobId  path  string  true  "Provider job id"
// @Success     200  {object}  handlers.SongStatusResponse
// @Failure     404  {object}  handlers.ErrorResponse  "Job not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Provider failure"
// @Failure     501  {object}  handlers.ErrorResponse  "Song provider not configured"
// @Router      /song-status/{jobId} [get]
func (h *Handlers) SongStatus(c *gin.Context) {
	res, err := h.flow.PollSongStatus(c.Request.Context(), c.Param("jobId"))
	if err != nil {
		writeServiceError(c, err, ErrCodeSongFailed)
		return
	}
	ok(c, http.StatusOK, SongStatusResponse{
		Success: true,
		CardID:  res.CardID,
		JobID:   res.JobID,
		Status:  res.Status,
		SongURL: res.SongURL,
		Error:   res.Error,
	})
}
