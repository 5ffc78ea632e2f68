package models

import (
	"time"
)

// URLAnalytics is one redirect event. Rows are inserted once and never updated.
type URLAnalytics struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	URLID      uint      `gorm:"not null;index" json:"url_id"`
	Timestamp  time.Time `gorm:"default:CURRENT_TIMESTAMP;index" json:"timestamp"`
	IPAddress  string    `gorm:"size:45" json:"ip_address,omitempty"`
	UserAgent  string    `gorm:"size:512" json:"user_agent"`
	Referrer   string    `gorm:"size:512;default:'Direct'" json:"referrer"`
	Country    string    `gorm:"size:100;default:'Unknown'" json:"country"`
	Region     string    `gorm:"size:100" json:"region"`
	City       string    `gorm:"size:100" json:"city"`
	Browser    string    `gorm:"size:50" json:"browser"`
	OS         string    `gorm:"size:100" json:"os"`
	DeviceType string    `gorm:"size:50" json:"device_type"`
}

func (URLAnalytics) TableName() string {
	return "url_analytics"
}
