package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Profile holds the phone-login identity of a user. The invite code stays
// NULL until the first successful code verification; activated_invite_id is
// set at most once and never cleared.
type Profile struct {
	ID                uuid.UUID  `gorm:"type:uuid;primary_key" json:"id"`
	UserID            uuid.UUID  `gorm:"type:uuid;uniqueIndex;not null" json:"user_id"`
	PhoneNumber       string     `gorm:"uniqueIndex;not null" json:"phone_number"`
	InviteCode        *string    `gorm:"type:varchar(6);uniqueIndex" json:"invite_code,omitempty"`
	ActivatedInviteID *uuid.UUID `gorm:"type:uuid" json:"activated_invite_id,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`

	// Relations
	User            User     `gorm:"foreignKey:UserID" json:"-"`
	ActivatedInvite *Profile `gorm:"foreignKey:ActivatedInviteID" json:"activated_invite,omitempty"`
}

func (p *Profile) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// HasInviteCode reports whether the profile has been assigned its own code.
func (p *Profile) HasInviteCode() bool {
	return p.InviteCode != nil && *p.InviteCode != ""
}

// HasActivatedInvite reports whether the profile already used someone's code.
func (p *Profile) HasActivatedInvite() bool {
	return p.ActivatedInviteID != nil
}
