// Package repo: card persistence.
//
// Cards are addressable by primary id and by public share id. Writes refresh
// updated_at. Status moves that need protection against concurrent requests
// go through TransitionCardStatus, a compare-and-swap on song_status.
package repo

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-songcard-backend/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound so callers can use either.
var ErrNotFound = gorm.ErrRecordNotFound

// ErrConflict is returned when a compare-and-swap update finds the row in an
// unexpected state.
var ErrConflict = errors.New("conflict")

// CreateCard inserts c. A unique violation on id or share_id is reported as
// ErrDuplicate so callers can regenerate identifiers and retry.
func CreateCard(ctx context.Context, db *gorm.DB, c *domain.Card) error {
	if c.CreatedAt.IsZero() {
		now := time.Now().UTC()
		c.CreatedAt, c.UpdatedAt = now, now
	}
	if err := db.WithContext(ctx).Create(c).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

// GetCardByID fetches a card by primary id or returns ErrNotFound.
func GetCardByID(ctx context.Context, db *gorm.DB, id string) (*domain.Card, error) {
	var c domain.Card
	if err := db.WithContext(ctx).Where("id = ?", id).First(&c).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

// GetCardByShareID fetches a card by its public share id or returns ErrNotFound.
func GetCardByShareID(ctx context.Context, db *gorm.DB, shareID string) (*domain.Card, error) {
	var c domain.Card
	if err := db.WithContext(ctx).Where("share_id = ?", shareID).First(&c).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

// UpdateCard merges the non-nil fields of upd into the card, sets updated_at
// to a value strictly after the stored one, and returns the merged record.
func UpdateCard(ctx context.Context, db *gorm.DB, id string, upd domain.CardUpdate, now time.Time) (*domain.Card, error) {
	var out domain.Card
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var cur domain.Card
		if err := tx.Where("id = ?", id).First(&cur).Error; err != nil {
			return err
		}

		fields := map[string]any{"updated_at": nextUpdatedAt(cur.UpdatedAt, now)}
		if upd.SongStatus != nil {
			fields["song_status"] = *upd.SongStatus
		}
		if upd.Lyrics != nil {
			fields["lyrics"] = *upd.Lyrics
		}
		if upd.SongURL != nil {
			fields["song_url"] = *upd.SongURL
		}
		if upd.SunoJobID != nil {
			fields["suno_job_id"] = *upd.SunoJobID
		}
		if err := tx.Model(&domain.Card{}).Where("id = ?", id).Updates(fields).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).First(&out).Error
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// TransitionCardStatus moves the card to `to` only if its current status is
// one of `from`. It returns ErrNotFound for an unknown id and ErrConflict when
// the card exists in another status.
func TransitionCardStatus(ctx context.Context, db *gorm.DB, id string, from []domain.SongStatus, to domain.SongStatus, now time.Time) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var cur domain.Card
		if err := tx.Select("id", "updated_at").Where("id = ?", id).First(&cur).Error; err != nil {
			return err
		}
		res := tx.Model(&domain.Card{}).
			Where("id = ? AND song_status IN ?", id, from).
			Updates(map[string]any{"song_status": to, "updated_at": nextUpdatedAt(cur.UpdatedAt, now)})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrConflict
		}
		return nil
	})
}

// nextUpdatedAt returns now, or prev plus one microsecond when the clock has
// not moved past prev (coarse clocks, postgres microsecond precision).
func nextUpdatedAt(prev, now time.Time) time.Time {
	now = now.UTC()
	if now.After(prev) {
		return now
	}
	return prev.Add(time.Microsecond).UTC()
}
