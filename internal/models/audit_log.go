package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AuditLog records an auth or referral event
type AuditLog struct {
	ID        uuid.UUID  `gorm:"type:uuid;primary_key" json:"id"`
	ActorID   *uuid.UUID `gorm:"type:uuid;index" json:"actor_id,omitempty"`
	Actor     *User      `gorm:"foreignKey:ActorID" json:"actor,omitempty"`
	Action    string     `gorm:"type:varchar(100);not null" json:"action"` // e.g., "register", "otp_sent", "login", "invite_activated"
	Details   string     `gorm:"type:text" json:"details,omitempty"`
	IPAddress string     `gorm:"type:varchar(45)" json:"ip_address,omitempty"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`
}

// TableName specifies the table name for AuditLog
func (AuditLog) TableName() string {
	return "audit_logs"
}

func (a *AuditLog) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
