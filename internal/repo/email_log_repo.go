package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-songcard-backend/internal/domain"
)

// CreateEmailLog appends an audit row for a send attempt. ID and SentAt are
// filled when empty.
func CreateEmailLog(ctx context.Context, db *gorm.DB, l *domain.EmailLog) error {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	if l.SentAt.IsZero() {
		l.SentAt = time.Now().UTC()
	}
	return db.WithContext(ctx).Create(l).Error
}

// ListEmailLogs returns the send attempts for cardID, newest first.
func ListEmailLogs(ctx context.Context, db *gorm.DB, cardID string) ([]domain.EmailLog, error) {
	var out []domain.EmailLog
	err := db.WithContext(ctx).
		Where("card_id = ?", cardID).
		Order("sent_at desc").
		Find(&out).Error
	return out, err
}
