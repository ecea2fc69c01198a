package services

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-songcard-backend/internal/domain"
	"github.com/tbourn/go-songcard-backend/internal/providers/lyrics"
	"github.com/tbourn/go-songcard-backend/internal/providers/mailer"
	"github.com/tbourn/go-songcard-backend/internal/providers/suno"
	"github.com/tbourn/go-songcard-backend/internal/ratelimit"
)

// CardRepo defines the card persistence contract. Lookups return
// gorm.ErrRecordNotFound for unknown keys.
type CardRepo interface {
	CreateCard(ctx context.Context, db *gorm.DB, c *domain.Card) error
	GetCardByID(ctx context.Context, db *gorm.DB, id string) (*domain.Card, error)
	GetCardByShareID(ctx context.Context, db *gorm.DB, shareID string) (*domain.Card, error)
	UpdateCard(ctx context.Context, db *gorm.DB, id string, upd domain.CardUpdate, now time.Time) (*domain.Card, error)
	// TransitionCardStatus is a compare-and-swap on song_status.
	TransitionCardStatus(ctx context.Context, db *gorm.DB, id string, from []domain.SongStatus, to domain.SongStatus, now time.Time) error
}

// JobRepo defines the generation job persistence contract.
type JobRepo interface {
	CreateJob(ctx context.Context, db *gorm.DB, cardID, sunoJobID string, status domain.JobStatus) (*domain.GenerationJob, error)
	GetJobBySunoID(ctx context.Context, db *gorm.DB, sunoJobID string) (*domain.GenerationJob, error)
	UpdateJobStatus(ctx context.Context, db *gorm.DB, id string, status domain.JobStatus, errMsg *string) error
}

// EmailLogRepo appends email audit rows.
type EmailLogRepo interface {
	CreateEmailLog(ctx context.Context, db *gorm.DB, l *domain.EmailLog) error
}

// IdempotencyRepo stores replay records for card creation.
type IdempotencyRepo interface {
	GetIdempotency(ctx context.Context, db *gorm.DB, scope, key string, now time.Time) (*domain.Idempotency, error)
	CreateIdempotency(ctx context.Context, db *gorm.DB, scope, key, cardID string, status int, ttl time.Duration) (*domain.Idempotency, error)
}

// RateLimiter is the per-IP action limiter.
type RateLimiter interface {
	Check(ctx context.Context, ip string, action domain.Action) (ratelimit.Decision, error)
	Increment(ctx context.Context, ip string, action domain.Action) error
}

// LyricsGenerator produces lyrics for a card.
type LyricsGenerator interface {
	Generate(ctx context.Context, req lyrics.Request) (string, error)
}

// SongGenerator submits and polls song generation jobs.
type SongGenerator interface {
	Submit(ctx context.Context, req suno.SongRequest) (suno.Job, error)
	GetStatus(ctx context.Context, jobID string) (suno.Status, error)
}

// Mailer delivers card notification emails.
type Mailer interface {
	Send(ctx context.Context, msg mailer.Message) (string, error)
}
