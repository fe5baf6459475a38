package domain

import "time"

// Idempotency records that a unit of inbound work identified by
// (scope, key) has already been claimed. It is used to process each
// Telegram callback id at most once even when the webhook is redelivered.
type Idempotency struct {
	ID        string    `gorm:"type:TEXT NOT NULL;primaryKey"`
	Scope     string    `gorm:"type:TEXT NOT NULL;uniqueIndex:ux_scope_key,priority:1"`
	Key       string    `gorm:"type:TEXT NOT NULL;uniqueIndex:ux_scope_key,priority:2"`
	Result    string    `gorm:"type:TEXT NOT NULL;default:''"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime"`
	ExpiresAt time.Time `gorm:"not null;index"`
}

// TableName implements the GORM tabler interface.
func (Idempotency) TableName() string { return "idempotency" }
