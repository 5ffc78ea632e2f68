package models

import (
	"time"
)

// QRAnalytics is one scan of a stored QR code. Insert only.
type QRAnalytics struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	QRCodeID   uint      `gorm:"not null;index" json:"qr_code_id"`
	Timestamp  time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"timestamp"`
	IPAddress  string    `gorm:"size:45" json:"ip_address,omitempty"`
	UserAgent  string    `gorm:"size:512" json:"user_agent"`
	Referrer   string    `gorm:"size:512" json:"referrer"`
	Country    string    `gorm:"size:100;default:'Unknown'" json:"country"`
	DeviceType string    `gorm:"size:50" json:"device_type"`
}

func (QRAnalytics) TableName() string {
	return "qr_analytics"
}
