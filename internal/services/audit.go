package services

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/makingtheimpact/blnk-icu/internal/models"

	"gorm.io/gorm"
)

// Audit actions.
const (
	ActionRegister       = "REGISTER"
	ActionLogin          = "LOGIN"
	ActionResetRequest   = "PASSWORD_RESET_REQUEST"
	ActionResetConfirm   = "PASSWORD_RESET_CONFIRM"
	ActionAPIKeyRotate   = "API_KEY_ROTATE"
	ActionCreateLink     = "CREATE_LINK"
	ActionDeactivateLink = "DEACTIVATE_LINK"
	ActionCreateQR       = "CREATE_QR"
)

const auditBuffer = 100

// AuditService writes audit rows from a single background worker so request
// handlers never wait on the insert.
type AuditService struct {
	db      *gorm.DB
	logger  *slog.Logger
	entries chan models.AuditLog
}

func NewAuditService(db *gorm.DB, logger *slog.Logger) *AuditService {
	return &AuditService{
		db:      db,
		logger:  logger,
		entries: make(chan models.AuditLog, auditBuffer),
	}
}

func (s *AuditService) Start(ctx context.Context) {
	s.logger.Info("Audit worker starting")
	for {
		select {
		case entry := <-s.entries:
			s.write(entry)
		case <-ctx.Done():
			s.drain()
			s.logger.Info("Audit worker stopping")
			return
		}
	}
}

// drain flushes entries queued before shutdown.
func (s *AuditService) drain() {
	for {
		select {
		case entry := <-s.entries:
			s.write(entry)
		default:
			return
		}
	}
}

func (s *AuditService) write(entry models.AuditLog) {
	if err := s.db.Create(&entry).Error; err != nil {
		s.logger.Error("Failed to write audit log", "action", entry.Action, "error", err)
	}
}

// LogAction queues an audit row. A nil service discards it.
func (s *AuditService) LogAction(userID *uint, action, entityID string, details interface{}, ip string) {
	if s == nil {
		return
	}

	var detailJSON string
	if details != nil {
		if b, err := json.Marshal(details); err == nil {
			detailJSON = string(b)
		}
	}

	entry := models.AuditLog{
		UserID:    userID,
		Action:    action,
		EntityID:  entityID,
		Details:   detailJSON,
		IPAddress: ip,
		Timestamp: time.Now(),
	}

	select {
	case s.entries <- entry:
	default:
		s.logger.Warn("Audit channel full, dropping log", "action", action)
	}
}
