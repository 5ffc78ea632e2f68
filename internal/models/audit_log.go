package models

import (
	"time"
)

type AuditLog struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    *uint     `gorm:"index" json:"user_id"`           // Nullable for anonymous actions
	Action    string    `gorm:"size:50;not null" json:"action"` // e.g. "REGISTER", "CREATE_LINK"
	EntityID  string    `gorm:"size:50" json:"entity_id"`       // Short code, user id, QR id
	Details   string    `gorm:"type:text" json:"details"`       // JSON
	IPAddress string    `gorm:"size:45" json:"ip_address"`
	Timestamp time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"timestamp"`
}

// All lists every model in dependency order, for AutoMigrate.
func All() []interface{} {
	return []interface{}{
		&User{},
		&URL{},
		&URLAnalytics{},
		&QRCode{},
		&QRAnalytics{},
		&PasswordReset{},
		&AuditLog{},
	}
}
