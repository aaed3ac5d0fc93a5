package services

import (
	"crypto/rand"
	"errors"
	"math/big"

	"github.com/google/uuid"
	"github.com/invitelink/backend/internal/models"
	"gorm.io/gorm"
)

const (
	inviteCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	inviteCodeLength   = 6

	// The unique index on profiles.invite_code is the authoritative guard;
	// the existence pre-check below is an optimization. With 36^6 possible
	// codes the loop terminates almost immediately, the cap exists so a
	// near-full code space fails loudly instead of spinning.
	inviteCodeMaxAttempts = 100
)

var (
	ErrInviteCodeRequired = errors.New("invite code is required")
	ErrInviteNotFound     = errors.New("invalid invite code")
	ErrAlreadyActivated   = errors.New("invite code has already been activated")
	ErrSelfActivation     = errors.New("you cannot activate your own code")
	ErrMutualActivation   = errors.New("mutual invite activation is not allowed")
	ErrCodeSpaceExhausted = errors.New("could not generate a unique invite code")
)

type InviteService struct {
	db *gorm.DB
}

func NewInviteService(db *gorm.DB) *InviteService {
	return &InviteService{db: db}
}

func generateInviteCode() (string, error) {
	b := make([]byte, inviteCodeLength)
	max := big.NewInt(int64(len(inviteCodeAlphabet)))
	for i := range b {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b[i] = inviteCodeAlphabet[n.Int64()]
	}
	return string(b), nil
}

// AssignInviteCode gives the profile its own invite code if it does not have
// one yet. Draws fresh random codes until one clears both the pre-check and
// the unique index, then updates the profile in place.
func (s *InviteService) AssignInviteCode(profile *models.Profile) error {
	if profile.HasInviteCode() {
		return nil
	}

	for attempt := 0; attempt < inviteCodeMaxAttempts; attempt++ {
		code, err := generateInviteCode()
		if err != nil {
			return err
		}

		var count int64
		if err := s.db.Model(&models.Profile{}).Where("invite_code = ?", code).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			continue
		}

		result := s.db.Model(&models.Profile{}).
			Where("id = ? AND invite_code IS NULL", profile.ID).
			Update("invite_code", code)
		if result.Error != nil {
			if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
				// Lost the race for this code, draw a new one
				continue
			}
			return result.Error
		}

		if result.RowsAffected == 0 {
			// A concurrent login already assigned a code; reload it
			return s.db.Select("invite_code").First(profile, profile.ID).Error
		}

		profile.InviteCode = &code
		return nil
	}

	return ErrCodeSpaceExhausted
}

// Activate records that the given user used someone's invite code. The link
// is directional, permanent and singular; direct reciprocity is rejected,
// longer cycles are not checked.
func (s *InviteService) Activate(userID uuid.UUID, code string) (*models.Profile, error) {
	if code == "" {
		return nil, ErrInviteCodeRequired
	}

	var inviter models.Profile
	if err := s.db.Where("invite_code = ?", code).First(&inviter).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInviteNotFound
		}
		return nil, err
	}

	var current models.Profile
	if err := s.db.Where("user_id = ?", userID).First(&current).Error; err != nil {
		return nil, err
	}

	if current.HasActivatedInvite() {
		return nil, ErrAlreadyActivated
	}

	if inviter.ID == current.ID {
		return nil, ErrSelfActivation
	}

	if inviter.ActivatedInviteID != nil && *inviter.ActivatedInviteID == current.ID {
		return nil, ErrMutualActivation
	}

	// Set-once guard: the WHERE clause loses against any concurrent
	// activation by the same profile, so two attempts cannot both win.
	result := s.db.Model(&models.Profile{}).
		Where("id = ? AND activated_invite_id IS NULL", current.ID).
		Update("activated_invite_id", inviter.ID)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, ErrAlreadyActivated
	}

	return &inviter, nil
}

// GetReferrals returns the profiles that activated this profile's code.
// Direct referrals only, no transitive closure.
func (s *InviteService) GetReferrals(profileID uuid.UUID) ([]models.Profile, error) {
	var referrals []models.Profile
	if err := s.db.Preload("User").Where("activated_invite_id = ?", profileID).Find(&referrals).Error; err != nil {
		return nil, err
	}
	return referrals, nil
}

// GetProfileByInviteCode retrieves the profile owning an invite code
func (s *InviteService) GetProfileByInviteCode(code string) (*models.Profile, error) {
	var profile models.Profile
	if err := s.db.Where("invite_code = ?", code).First(&profile).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInviteNotFound
		}
		return nil, err
	}
	return &profile, nil
}

// InviteStats returns counts of issued codes and activations
func (s *InviteService) InviteStats() (map[string]int64, error) {
	stats := make(map[string]int64)

	var issued int64
	if err := s.db.Model(&models.Profile{}).Where("invite_code IS NOT NULL").Count(&issued).Error; err != nil {
		return nil, err
	}
	stats["issued"] = issued

	var activated int64
	if err := s.db.Model(&models.Profile{}).Where("activated_invite_id IS NOT NULL").Count(&activated).Error; err != nil {
		return nil, err
	}
	stats["activated"] = activated

	return stats, nil
}
