package app

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-songcard-backend/internal/domain"
	"github.com/tbourn/go-songcard-backend/internal/repo"
)

// cardRepoShim adapts the repo free functions to services.CardRepo.
type cardRepoShim struct{}

func (cardRepoShim) CreateCard(ctx context.Context, db *gorm.DB, c *domain.Card) error {
	return repo.CreateCard(ctx, db, c)
}

func (cardRepoShim) GetCardByID(ctx context.Context, db *gorm.DB, id string) (*domain.Card, error) {
	return repo.GetCardByID(ctx, db, id)
}

func (cardRepoShim) GetCardByShareID(ctx context.Context, db *gorm.DB, shareID string) (*domain.Card, error) {
	return repo.GetCardByShareID(ctx, db, shareID)
}

func (cardRepoShim) UpdateCard(ctx context.Context, db *gorm.DB, id string, upd domain.CardUpdate, now time.Time) (*domain.Card, error) {
	return repo.UpdateCard(ctx, db, id, upd, now)
}

func (cardRepoShim) TransitionCardStatus(ctx context.Context, db *gorm.DB, id string, from []domain.SongStatus, to domain.SongStatus, now time.Time) error {
	return repo.TransitionCardStatus(ctx, db, id, from, to, now)
}

// jobRepoShim adapts the repo free functions to services.JobRepo.
type jobRepoShim struct{}

func (jobRepoShim) CreateJob(ctx context.Context, db *gorm.DB, cardID, sunoJobID string, status domain.JobStatus) (*domain.GenerationJob, error) {
	return repo.CreateJob(ctx, db, cardID, sunoJobID, status)
}

func (jobRepoShim) GetJobBySunoID(ctx context.Context, db *gorm.DB, sunoJobID string) (*domain.GenerationJob, error) {
	return repo.GetJobBySunoID(ctx, db, sunoJobID)
}

func (jobRepoShim) UpdateJobStatus(ctx context.Context, db *gorm.DB, id string, status domain.JobStatus, errMsg *string) error {
	return repo.UpdateJobStatus(ctx, db, id, status, errMsg)
}

// emailLogRepoShim adapts repo.CreateEmailLog to services.EmailLogRepo.
type emailLogRepoShim struct{}

func (emailLogRepoShim) CreateEmailLog(ctx context.Context, db *gorm.DB, l *domain.EmailLog) error {
	return repo.CreateEmailLog(ctx, db, l)
}

// idempotencyRepoShim adapts the replay record functions to
// services.IdempotencyRepo.
type idempotencyRepoShim struct{}

func (idempotencyRepoShim) GetIdempotency(ctx context.Context, db *gorm.DB, scope, key string, now time.Time) (*domain.Idempotency, error) {
	return repo.GetIdempotency(ctx, db, scope, key, now)
}

func (idempotencyRepoShim) CreateIdempotency(ctx context.Context, db *gorm.DB, scope, key, cardID string, status int, ttl time.Duration) (*domain.Idempotency, error) {
	return repo.CreateIdempotency(ctx, db, scope, key, cardID, status, ttl)
}
