package models

import (
	"time"
)

// PasswordReset is a one-time token. It can be redeemed once, before ExpiresAt.
type PasswordReset struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	Token     string    `gorm:"unique;not null;size:64" json:"-"`
	ExpiresAt time.Time `gorm:"not null" json:"expires_at"`
	IsUsed    bool      `gorm:"default:false" json:"is_used"`
	CreatedAt time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
}

// Redeemable reports whether the token may still be used at now.
func (p PasswordReset) Redeemable(now time.Time) bool {
	return !p.IsUsed && now.Before(p.ExpiresAt)
}
