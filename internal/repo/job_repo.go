package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-songcard-backend/internal/domain"
)

// CreateJob records a provider job for cardID with the given status.
func CreateJob(ctx context.Context, db *gorm.DB, cardID, sunoJobID string, status domain.JobStatus) (*domain.GenerationJob, error) {
	now := time.Now().UTC()
	j := &domain.GenerationJob{
		ID:        uuid.NewString(),
		CardID:    cardID,
		SunoJobID: sunoJobID,
		Status:    status,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := db.WithContext(ctx).Create(j).Error; err != nil {
		return nil, err
	}
	return j, nil
}

// GetJobBySunoID fetches the job tracking the provider's job handle, or
// ErrNotFound.
func GetJobBySunoID(ctx context.Context, db *gorm.DB, sunoJobID string) (*domain.GenerationJob, error) {
	var j domain.GenerationJob
	if err := db.WithContext(ctx).Where("suno_job_id = ?", sunoJobID).First(&j).Error; err != nil {
		return nil, err
	}
	return &j, nil
}

// UpdateJobStatus stores a new status and, when errMsg is non-nil, the error
// message. It returns ErrNotFound when no row matches id.
func UpdateJobStatus(ctx context.Context, db *gorm.DB, id string, status domain.JobStatus, errMsg *string) error {
	fields := map[string]any{
		"status":     status,
		"updated_at": time.Now().UTC(),
	}
	if errMsg != nil {
		fields["error_message"] = *errMsg
	}
	res := db.WithContext(ctx).Model(&domain.GenerationJob{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ListJobsForCard returns every job recorded for cardID, newest first.
func ListJobsForCard(ctx context.Context, db *gorm.DB, cardID string) ([]domain.GenerationJob, error) {
	var out []domain.GenerationJob
	err := db.WithContext(ctx).
		Where("card_id = ?", cardID).
		Order("created_at desc").
		Find(&out).Error
	return out, err
}
