// Package domain defines the persistence models for song cards, generation
// jobs, email logs, and rate-limit windows. These types are mapped with GORM
// and shared across the repository and service layers.
package domain

import (
	"time"

	"gorm.io/datatypes"
)

// Card is a personalization record driving the visual card and the optional
// AI song.
//
// Fields:
//   - ID: opaque 21-character primary key.
//   - ShareID: public 12-character URL-safe key (unique).
//   - PersonalityTraits / Interests: up to five short strings each, stored as JSON.
//   - SongStatus: stage of the song pipeline.
//   - Lyrics / SongURL / SunoJobID: generation outputs, nil until produced.
//   - CreatedAt / UpdatedAt: timestamps managed by GORM.
type Card struct {
	ID                string                      `json:"id"                gorm:"type:varchar(21);primaryKey"`
	ShareID           string                      `json:"shareId"           gorm:"type:varchar(12);not null;uniqueIndex:ux_cards_share_id"`
	RecipientName     string                      `json:"recipientName"     gorm:"type:varchar(50);not null"`
	PersonalityTraits datatypes.JSONSlice[string] `json:"personalityTraits" gorm:"not null"`
	Interests         datatypes.JSONSlice[string] `json:"interests"         gorm:"not null"`
	Relationship      string                      `json:"relationship"      gorm:"type:varchar(30);not null"`
	MusicStyle        MusicStyle                  `json:"musicStyle"        gorm:"type:varchar(32);not null"`
	ThemeID           ThemeID                     `json:"themeId"           gorm:"type:varchar(32);not null"`
	Occasion          Occasion                    `json:"occasion"          gorm:"type:varchar(32);not null;default:'birthday'"`
	CustomMessage     string                      `json:"customMessage"     gorm:"type:text;not null;default:''"`
	SenderName        string                      `json:"senderName"        gorm:"type:varchar(50);not null"`
	SenderEmail       *string                     `json:"senderEmail"       gorm:"type:varchar(254)"`
	SongStatus        SongStatus                  `json:"songStatus"        gorm:"type:varchar(32);not null;default:'pending';index"`
	Lyrics            *string                     `json:"lyrics"            gorm:"type:text"`
	SongURL           *string                     `json:"songUrl"           gorm:"type:text"`
	SunoJobID         *string                     `json:"sunoJobId"         gorm:"type:varchar(128)"`
	CreatedAt         time.Time                   `json:"createdAt"`
	UpdatedAt         time.Time                   `json:"updatedAt"`
}

// TableName returns the database table name for Card.
func (Card) TableName() string { return "cards" }

// HasLyrics reports whether non-empty lyrics are stored.
func (c *Card) HasLyrics() bool { return c.Lyrics != nil && *c.Lyrics != "" }

// HasSong reports whether a song URL is stored.
func (c *Card) HasSong() bool { return c.SongURL != nil && *c.SongURL != "" }

// CardUpdate is a partial update. Nil fields are left untouched.
type CardUpdate struct {
	SongStatus *SongStatus
	Lyrics     *string
	SongURL    *string
	SunoJobID  *string
}

// Empty reports whether no field is set.
func (u CardUpdate) Empty() bool {
	return u.SongStatus == nil && u.Lyrics == nil && u.SongURL == nil && u.SunoJobID == nil
}

// GenerationJob tracks one song-generation attempt at the provider.
type GenerationJob struct {
	ID           string    `json:"id"           gorm:"type:char(36);primaryKey"`
	CardID       string    `json:"cardId"       gorm:"type:varchar(21);not null;index"`
	SunoJobID    string    `json:"sunoJobId"    gorm:"type:varchar(128);not null;uniqueIndex:ux_jobs_suno_job_id"`
	Status       JobStatus `json:"status"       gorm:"type:varchar(16);not null;check:status IN ('pending','processing','complete','failed')"`
	ErrorMessage *string   `json:"errorMessage" gorm:"type:text"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`

	Card Card `json:"-" gorm:"foreignKey:CardID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for GenerationJob.
func (GenerationJob) TableName() string { return "generation_jobs" }

// EmailLog is the audit record of a single send attempt.
type EmailLog struct {
	ID             string      `json:"id"             gorm:"type:char(36);primaryKey"`
	CardID         string      `json:"cardId"         gorm:"type:varchar(21);not null;index"`
	RecipientEmail string      `json:"recipientEmail" gorm:"type:varchar(254);not null"`
	Status         EmailStatus `json:"status"         gorm:"type:varchar(16);not null;check:status IN ('pending','sent','failed')"`
	ProviderID     *string     `json:"providerId"     gorm:"type:varchar(128)"`
	ErrorMessage   *string     `json:"errorMessage"   gorm:"type:text"`
	SentAt         time.Time   `json:"sentAt"`

	Card Card `json:"-" gorm:"foreignKey:CardID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for EmailLog.
func (EmailLog) TableName() string { return "email_logs" }

// RateLimitWindow counts actions for one (ip, action) pair within a fixed
// window that opened at WindowStart.
type RateLimitWindow struct {
	ID          string    `gorm:"type:char(36);primaryKey"`
	IPAddress   string    `gorm:"type:varchar(64);not null;index:idx_rl_lookup,priority:1"`
	Action      Action    `gorm:"type:varchar(32);not null;index:idx_rl_lookup,priority:2"`
	Count       int       `gorm:"not null;default:1"`
	WindowStart time.Time `gorm:"not null;index:idx_rl_lookup,priority:3"`
}

// TableName returns the database table name for RateLimitWindow.
func (RateLimitWindow) TableName() string { return "rate_limits" }
