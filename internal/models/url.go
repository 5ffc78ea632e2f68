package models

import (
	"time"
)

type URL struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	ShortCode   string    `gorm:"unique;not null;size:20" json:"short_code"`
	OriginalURL string    `gorm:"not null;type:text" json:"original_url"`
	UserID      *uint     `gorm:"index" json:"user_id,omitempty"` // Nullable for anonymous
	IsActive    bool      `gorm:"default:true;index" json:"is_active"`
	CreatedAt   time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName pins the table name used by the migrations.
func (URL) TableName() string {
	return "urls"
}
