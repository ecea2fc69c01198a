// Package services – Workflow
//
// Workflow drives a card through its song pipeline:
//
//	pending -> generating_lyrics -> pending -> generating_song -> complete
//
// with failed reachable from every in-progress stage. Each entry point
// reloads the card, checks its preconditions and the caller's rate limit,
// calls one provider, and writes the result back before returning. Provider
// failures mark the card (and job) failed on a best-effort basis; a failing
// cleanup write is logged and the original error is still returned.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/tbourn/go-songcard-backend/internal/domain"
	"github.com/tbourn/go-songcard-backend/internal/providers"
	"github.com/tbourn/go-songcard-backend/internal/providers/lyrics"
	"github.com/tbourn/go-songcard-backend/internal/providers/mailer"
	"github.com/tbourn/go-songcard-backend/internal/providers/suno"
	"github.com/tbourn/go-songcard-backend/internal/repo"
)

const (
	opLyrics = "generate_lyrics"
	opSong   = "generate_song"
	opPoll   = "poll_song"
	opEmail  = "send_email"

	defaultSongError = "song generation failed"
)

// Workflow coordinates the card store, the rate limiter, and the providers.
// A nil provider disables the operations that need it.
type Workflow struct {
	DB      *gorm.DB
	Cards   CardRepo
	Jobs    JobRepo
	Emails  EmailLogRepo
	Limiter RateLimiter

	Lyrics LyricsGenerator
	Songs  SongGenerator
	Mail   Mailer

	Validator *Validator
	// PublicBaseURL prefixes share links, e.g. https://songcards.app.
	PublicBaseURL string
	// Now is the clock; defaults to time.Now.
	Now func() time.Time
}

// NewWorkflow constructs a Workflow over the given stores. Providers and the
// limiter are attached by the caller.
func NewWorkflow(db *gorm.DB, cards CardRepo, jobs JobRepo, emails EmailLogRepo) *Workflow {
	return &Workflow{
		DB:        db,
		Cards:     cards,
		Jobs:      jobs,
		Emails:    emails,
		Validator: NewValidator(),
		Now:       func() time.Time { return time.Now().UTC() },
	}
}

// LyricsResult is returned by RequestLyrics.
type LyricsResult struct {
	CardID string
	Lyrics string
	// Cached is true when the card already had lyrics and no model call was made.
	Cached bool
}

// SongResult is returned by RequestSong.
type SongResult struct {
	CardID string
	JobID  string
	Status domain.JobStatus
	// SongURL is set when the card already had a song (Cached).
	SongURL string
	Cached  bool
}

// PollResult is returned by PollSongStatus.
type PollResult struct {
	CardID  string
	JobID   string
	Status  domain.JobStatus
	SongURL string
	Error   string
	// Cached is true when the stored terminal result was returned without
	// asking the provider.
	Cached bool
}

// EmailResult is returned by SendCardEmail.
type EmailResult struct {
	CardID    string
	MessageID string
	CardURL   string
}

// RequestLyrics generates lyrics for the card, or returns the stored lyrics
// when the card already has them.
func (w *Workflow) RequestLyrics(ctx context.Context, ip string, req CardRequest) (res *LyricsResult, err error) {
	ctx, span := w.start(ctx, "RequestLyrics", req.CardID)
	defer func() { w.finish(span, opLyrics, err, res != nil && res.Cached) }()

	if err := w.Validator.Struct(req); err != nil {
		return nil, err
	}
	if w.Lyrics == nil {
		return nil, &FeatureError{Feature: "lyrics generation", EnvVar: "OPENAI_API_KEY"}
	}
	if err := checkLimit(ctx, w.Limiter, ip, domain.ActionGenerateLyrics); err != nil {
		return nil, err
	}
	card, err := w.loadCard(ctx, req.CardID)
	if err != nil {
		return nil, err
	}
	if card.HasLyrics() {
		return &LyricsResult{CardID: card.ID, Lyrics: *card.Lyrics, Cached: true}, nil
	}

	if err := w.transition(ctx, card.ID, domain.SongStatusGeneratingLyrics); err != nil {
		return nil, err
	}

	text, err := w.Lyrics.Generate(ctx, lyrics.Request{
		RecipientName:     card.RecipientName,
		PersonalityTraits: card.PersonalityTraits,
		Interests:         card.Interests,
		Relationship:      card.Relationship,
		SenderName:        card.SenderName,
		MusicStyle:        card.MusicStyle,
		Occasion:          card.Occasion,
	})
	if err != nil {
		w.logProviderError(ctx, opLyrics, card.ID, err)
		w.markCardFailed(ctx, card.ID)
		return nil, err
	}

	ready := domain.SongStatusPending
	if _, err := w.Cards.UpdateCard(ctx, w.DB, card.ID, domain.CardUpdate{Lyrics: &text, SongStatus: &ready}, w.Now()); err != nil {
		w.markCardFailed(ctx, card.ID)
		return nil, fmt.Errorf("store lyrics: %w", err)
	}
	countAction(ctx, w.Limiter, ip, domain.ActionGenerateLyrics)
	return &LyricsResult{CardID: card.ID, Lyrics: text}, nil
}

// RequestSong submits a song generation job for a card that has lyrics, or
// returns the stored song URL when the card already has one. The lyrics
// precondition is checked before the rate limit.
func (w *Workflow) RequestSong(ctx context.Context, ip string, req CardRequest) (res *SongResult, err error) {
	ctx, span := w.start(ctx, "RequestSong", req.CardID)
	defer func() { w.finish(span, opSong, err, res != nil && res.Cached) }()

	if err := w.Validator.Struct(req); err != nil {
		return nil, err
	}
	if w.Songs == nil {
		return nil, &FeatureError{Feature: "song generation", EnvVar: "SUNO_API_KEY"}
	}
	card, err := w.loadCard(ctx, req.CardID)
	if err != nil {
		return nil, err
	}
	if card.HasSong() {
		res := &SongResult{CardID: card.ID, Status: domain.JobStatusComplete, SongURL: *card.SongURL, Cached: true}
		if card.SunoJobID != nil {
			res.JobID = *card.SunoJobID
		}
		return res, nil
	}
	if !card.HasLyrics() {
		return nil, ErrLyricsRequired
	}
	if err := checkLimit(ctx, w.Limiter, ip, domain.ActionGenerateSong); err != nil {
		return nil, err
	}

	if err := w.transition(ctx, card.ID, domain.SongStatusGeneratingSong); err != nil {
		return nil, err
	}

	job, err := w.Songs.Submit(ctx, suno.SongRequest{
		Lyrics:    *card.Lyrics,
		StyleTags: domain.StyleTags(card.MusicStyle),
		Title:     domain.SongTitle(card.Occasion, card.RecipientName),
	})
	if err != nil {
		w.logProviderError(ctx, opSong, card.ID, err)
		w.markCardFailed(ctx, card.ID)
		return nil, err
	}

	if _, err := w.Cards.UpdateCard(ctx, w.DB, card.ID, domain.CardUpdate{SunoJobID: &job.ID}, w.Now()); err != nil {
		w.markCardFailed(ctx, card.ID)
		return nil, fmt.Errorf("store job id: %w", err)
	}
	if _, err := w.Jobs.CreateJob(ctx, w.DB, card.ID, job.ID, domain.JobStatusProcessing); err != nil {
		w.markCardFailed(ctx, card.ID)
		return nil, fmt.Errorf("record generation job: %w", err)
	}
	countAction(ctx, w.Limiter, ip, domain.ActionGenerateSong)
	return &SongResult{CardID: card.ID, JobID: job.ID, Status: domain.JobStatusProcessing}, nil
}

// PollSongStatus reconciles the provider's view of jobID into the store.
// Terminal results already stored are returned without calling the provider.
func (w *Workflow) PollSongStatus(ctx context.Context, jobID string) (res *PollResult, err error) {
	ctx, span := otel.Tracer("services/Workflow").Start(ctx, "PollSongStatus",
		trace.WithAttributes(attribute.String("job_id", jobID)))
	defer func() { w.finish(span, opPoll, err, res != nil && res.Cached) }()

	jobID = strings.TrimSpace(jobID)
	if jobID == "" {
		return nil, ErrJobNotFound
	}
	job, err := w.Jobs.GetJobBySunoID(ctx, w.DB, jobID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrJobNotFound
	}
	if err != nil {
		return nil, err
	}
	card, err := w.loadCard(ctx, job.CardID)
	if err != nil {
		return nil, err
	}

	switch {
	case job.Status == domain.JobStatusComplete && card.HasSong():
		return &PollResult{CardID: card.ID, JobID: jobID, Status: domain.JobStatusComplete, SongURL: *card.SongURL, Cached: true}, nil
	case job.Status == domain.JobStatusFailed:
		return &PollResult{CardID: card.ID, JobID: jobID, Status: domain.JobStatusFailed, Error: jobError(job), Cached: true}, nil
	}

	if w.Songs == nil {
		return nil, &FeatureError{Feature: "song generation", EnvVar: "SUNO_API_KEY"}
	}
	st, err := w.Songs.GetStatus(ctx, jobID)
	if err != nil {
		w.logProviderError(ctx, opPoll, card.ID, err)
		if errors.Is(err, providers.ErrTimeout) {
			// The provider may still finish; leave the job open for the next poll.
			return nil, err
		}
		msg := defaultSongError
		w.markJobFailed(ctx, job.ID, &msg)
		w.markCardFailed(ctx, card.ID)
		return nil, err
	}

	var errMsg *string
	if st.Error != "" {
		errMsg = &st.Error
	}
	if st.Status != job.Status {
		if err := w.Jobs.UpdateJobStatus(ctx, w.DB, job.ID, st.Status, errMsg); err != nil {
			return nil, fmt.Errorf("store job status: %w", err)
		}
	}

	switch {
	case st.Status == domain.JobStatusComplete && st.AudioURL != "":
		done := domain.SongStatusComplete
		url := st.AudioURL
		if _, err := w.Cards.UpdateCard(ctx, w.DB, card.ID, domain.CardUpdate{SongURL: &url, SongStatus: &done}, w.Now()); err != nil {
			return nil, fmt.Errorf("store song url: %w", err)
		}
		return &PollResult{CardID: card.ID, JobID: jobID, Status: domain.JobStatusComplete, SongURL: url}, nil

	case st.Status == domain.JobStatusFailed:
		msg := st.Error
		if msg == "" {
			msg = defaultSongError
		}
		w.markCardFailed(ctx, card.ID)
		return &PollResult{CardID: card.ID, JobID: jobID, Status: domain.JobStatusFailed, Error: msg}, nil

	case st.Status == domain.JobStatusComplete:
		// complete without audio: keep polling until the URL shows up
		return &PollResult{CardID: card.ID, JobID: jobID, Status: domain.JobStatusProcessing}, nil

	default:
		return &PollResult{CardID: card.ID, JobID: jobID, Status: st.Status}, nil
	}
}

// SendCardEmail emails the card's share link to recipient. Every attempt is
// recorded in the email log; only successful sends count toward the limit.
func (w *Workflow) SendCardEmail(ctx context.Context, ip string, in SendCardInput) (res *EmailResult, err error) {
	ctx, span := w.start(ctx, "SendCardEmail", in.CardID)
	defer func() { w.finish(span, opEmail, err, false) }()

	in.RecipientEmail = strings.TrimSpace(in.RecipientEmail)
	if err := w.Validator.Struct(in); err != nil {
		return nil, err
	}
	if w.Mail == nil {
		return nil, &FeatureError{Feature: "email delivery", EnvVar: "RESEND_API_KEY"}
	}
	if err := checkLimit(ctx, w.Limiter, ip, domain.ActionSendEmail); err != nil {
		return nil, err
	}
	card, err := w.loadCard(ctx, in.CardID)
	if err != nil {
		return nil, err
	}

	cardURL := w.ShareURL(card.ShareID)
	msgID, sendErr := w.Mail.Send(ctx, mailer.Message{
		RecipientEmail: in.RecipientEmail,
		RecipientName:  card.RecipientName,
		SenderName:     card.SenderName,
		CardURL:        cardURL,
		CustomMessage:  card.CustomMessage,
		Occasion:       card.Occasion,
	})

	entry := &domain.EmailLog{CardID: card.ID, RecipientEmail: in.RecipientEmail, SentAt: w.Now()}
	if sendErr != nil {
		detail := sendErr.Error()
		var ae *providers.AdapterError
		if errors.As(sendErr, &ae) && ae.Body != "" {
			detail = ae.Body
		}
		entry.Status = domain.EmailStatusFailed
		entry.ErrorMessage = &detail
	} else {
		entry.Status = domain.EmailStatusSent
		entry.ProviderID = &msgID
	}
	if err := w.Emails.CreateEmailLog(ctx, w.DB, entry); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("card_id", card.ID).Msg("write email log")
	}
	emailsSent.WithLabelValues(string(entry.Status)).Inc()

	if sendErr != nil {
		w.logProviderError(ctx, opEmail, card.ID, sendErr)
		return nil, sendErr
	}
	countAction(ctx, w.Limiter, ip, domain.ActionSendEmail)
	return &EmailResult{CardID: card.ID, MessageID: msgID, CardURL: cardURL}, nil
}

// ShareURL builds the public link for shareID.
func (w *Workflow) ShareURL(shareID string) string {
	return strings.TrimRight(w.PublicBaseURL, "/") + "/card/" + shareID
}

func (w *Workflow) loadCard(ctx context.Context, id string) (*domain.Card, error) {
	c, err := w.Cards.GetCardByID(ctx, w.DB, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrCardNotFound
	}
	return c, err
}

// transition moves the card into an in-progress stage through the store's
// compare-and-swap so that two concurrent requests cannot both start work.
func (w *Workflow) transition(ctx context.Context, id string, to domain.SongStatus) error {
	err := w.Cards.TransitionCardStatus(ctx, w.DB, id, domain.TransitionSources(to), to, w.Now())
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repo.ErrConflict):
		return fmt.Errorf("%w: cannot enter %s", ErrStatusConflict, to)
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrCardNotFound
	default:
		return err
	}
}

// markCardFailed is the best-effort cleanup after a provider failure.
func (w *Workflow) markCardFailed(ctx context.Context, id string) {
	failed := domain.SongStatusFailed
	if _, err := w.Cards.UpdateCard(ctx, w.DB, id, domain.CardUpdate{SongStatus: &failed}, w.Now()); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("card_id", id).Msg("mark card failed")
	}
}

func (w *Workflow) markJobFailed(ctx context.Context, id string, msg *string) {
	if err := w.Jobs.UpdateJobStatus(ctx, w.DB, id, domain.JobStatusFailed, msg); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("job_id", id).Msg("mark job failed")
	}
}

func (w *Workflow) logProviderError(ctx context.Context, op, cardID string, err error) {
	ev := zerolog.Ctx(ctx).Error().Err(err).Str("operation", op).Str("card_id", cardID)
	var ae *providers.AdapterError
	if errors.As(err, &ae) {
		ev = ev.Str("provider", ae.Provider).Int("provider_status", ae.StatusCode).Bool("timeout", ae.Timeout)
	}
	ev.Msg("provider call failed")
}

func (w *Workflow) start(ctx context.Context, name, cardID string) (context.Context, trace.Span) {
	return otel.Tracer("services/Workflow").Start(ctx, name,
		trace.WithAttributes(attribute.String("card_id", cardID)))
}

// finish records the outcome on span and in the transition counter.
func (w *Workflow) finish(span trace.Span, op string, err error, cached bool) {
	defer span.End()
	switch {
	case err == nil && cached:
		observe(op, outcomeCached)
	case err == nil:
		observe(op, outcomeSuccess)
	case providers.IsAdapterError(err):
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		observe(op, outcomeFailed)
	default:
		observe(op, outcomeRejected)
	}
}

func jobError(j *domain.GenerationJob) string {
	if j.ErrorMessage != nil && *j.ErrorMessage != "" {
		return *j.ErrorMessage
	}
	return defaultSongError
}
