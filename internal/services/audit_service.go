package services

import (
	"log"

	"github.com/google/uuid"
	"github.com/invitelink/backend/internal/models"
	"gorm.io/gorm"
)

// Audit actions recorded by the handlers
const (
	AuditActionRegister        = "register"
	AuditActionOTPSent         = "otp_sent"
	AuditActionLogin           = "login"
	AuditActionInviteActivated = "invite_activated"
)

type AuditService struct {
	db *gorm.DB
}

func NewAuditService(db *gorm.DB) *AuditService {
	return &AuditService{db: db}
}

// Record writes an audit log entry. Failures are logged, never surfaced;
// auditing must not fail the request it describes.
func (s *AuditService) Record(actorID *uuid.UUID, action, details, ipAddress string) {
	entry := &models.AuditLog{
		ActorID:   actorID,
		Action:    action,
		Details:   details,
		IPAddress: ipAddress,
	}

	if err := s.db.Create(entry).Error; err != nil {
		log.Printf("WARN: Failed to write audit log entry (%s): %v", action, err)
	}
}

// GetLogs retrieves audit entries with pagination, newest first
func (s *AuditService) GetLogs(offset, limit int) ([]*models.AuditLog, int64, error) {
	var logs []*models.AuditLog
	var total int64

	query := s.db.Model(&models.AuditLog{})
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := query.Preload("Actor").Offset(offset).Limit(limit).Order("created_at DESC").Find(&logs).Error; err != nil {
		return nil, 0, err
	}

	return logs, total, nil
}
