package domain

import "time"

// Idempotency records the card produced for a previously processed create
// request, keyed by (scope, key). Scope identifies the caller (client IP),
// so the same key from two clients never collides.
type Idempotency struct {
	ID        string    `gorm:"type:char(36);primaryKey"`
	Scope     string    `gorm:"type:varchar(64);not null;uniqueIndex:ux_idem_scope_key,priority:1"`
	Key       string    `gorm:"type:varchar(128);not null;uniqueIndex:ux_idem_scope_key,priority:2"`
	CardID    string    `gorm:"type:varchar(21);not null"`
	Status    int       `gorm:"not null"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime"`
	ExpiresAt time.Time `gorm:"not null;index"`
}

// TableName implements the GORM tabler interface.
func (Idempotency) TableName() string { return "idempotency" }
