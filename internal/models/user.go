package models

import (
	"time"
)

type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Email        string    `gorm:"unique;not null;size:120" json:"email"`
	Username     string    `gorm:"unique;not null;size:80" json:"username"`
	PasswordHash string    `gorm:"not null;size:255" json:"-"`
	IsActive     bool      `gorm:"default:true" json:"is_active"`
	IsSuperuser  bool      `gorm:"default:false" json:"is_superuser"`
	APIKey       *string   `gorm:"unique;size:32" json:"api_key,omitempty"` // Nullable, unique when set
	CreatedAt    time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
}
