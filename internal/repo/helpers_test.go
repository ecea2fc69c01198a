package repo

import (
	"fmt"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite" // pure-Go SQLite
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/go-songcard-backend/internal/domain"
)

// newTestDB opens a unique in-memory database per test and migrates the full
// schema.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:repo_%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := AutoMigrate(db); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

func sampleCard(id, shareID string) *domain.Card {
	now := time.Now().UTC()
	return &domain.Card{
		ID:                id,
		ShareID:           shareID,
		RecipientName:     "Sam",
		PersonalityTraits: []string{"funny", "kind"},
		Interests:         []string{"hiking"},
		Relationship:      "friend",
		MusicStyle:        domain.MusicStyleUpbeatPop,
		ThemeID:           "classic",
		Occasion:          domain.OccasionBirthday,
		SenderName:        "Alex",
		SongStatus:        domain.SongStatusPending,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
}

func strp(s string) *string { return &s }
