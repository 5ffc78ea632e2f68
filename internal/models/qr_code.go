package models

import (
	"time"
)

// QRStyle is the persisted style document of a QR code.
type QRStyle struct {
	Style       string `json:"style"`
	ColorType   string `json:"color_type"`
	FrontColor  string `json:"front_color"`
	BackColor   string `json:"back_color"`
	CenterColor string `json:"center_color"`
	EdgeColor   string `json:"edge_color"`
}

type QRCode struct {
	ID          uint      `gorm:"primaryKey" json:"-"`
	PublicID    string    `gorm:"unique;not null;size:36" json:"id"`
	URLID       uint      `gorm:"not null;index" json:"url_id"`
	UserID      *uint     `gorm:"index" json:"user_id,omitempty"`
	StyleConfig QRStyle   `gorm:"serializer:json;type:text" json:"style_config"`
	IsActive    bool      `gorm:"default:true" json:"is_active"`
	CreatedAt   time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (QRCode) TableName() string {
	return "qr_codes"
}
