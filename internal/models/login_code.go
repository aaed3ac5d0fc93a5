package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// LoginCode is the single outstanding one-time passcode for a profile.
// Issuing a new code overwrites the existing row (unique profile_id), it is
// never appended. Expiry is computed from CreatedAt; the row is not deleted
// on successful verification, only a fresh issuance replaces it.
type LoginCode struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key"`
	ProfileID uuid.UUID `gorm:"type:uuid;uniqueIndex;not null"`
	Code      string    `gorm:"type:varchar(4);not null"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time

	// Relations
	Profile Profile `gorm:"foreignKey:ProfileID"`
}

func (l *LoginCode) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}

// ExpiresAt returns the moment the code stops being accepted.
func (l *LoginCode) ExpiresAt(ttl time.Duration) time.Time {
	return l.CreatedAt.Add(ttl)
}

// IsExpired checks the fixed, non-sliding TTL against the given time.
func (l *LoginCode) IsExpired(now time.Time, ttl time.Duration) bool {
	return now.After(l.ExpiresAt(ttl))
}
