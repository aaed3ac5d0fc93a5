package services

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/invitelink/backend/internal/models"
	"gorm.io/gorm"
)

var ErrUserNotFound = errors.New("user not found")

// ProfileService assembles the public view of a profile together with its
// direct referrals.
type ProfileService struct {
	db            *gorm.DB
	inviteService *InviteService
}

func NewProfileService(db *gorm.DB, inviteService *InviteService) *ProfileService {
	return &ProfileService{db: db, inviteService: inviteService}
}

// ProfileView is the response shape for the profile endpoint
type ProfileView struct {
	User      UserView       `json:"user"`
	Referrals []ReferralView `json:"referrals"`
}

type UserView struct {
	ID          uuid.UUID `json:"id"`
	Username    string    `json:"username"`
	PhoneNumber string    `json:"phone_number"`
	InviteCode  *string   `json:"invite_code"`
	CreatedAt   time.Time `json:"created_at"`
}

type ReferralView struct {
	Username    string `json:"username"`
	PhoneNumber string `json:"phone_number"`
}

// GetProfileByUserID retrieves a user's profile with the user preloaded
func (s *ProfileService) GetProfileByUserID(userID uuid.UUID) (*models.Profile, error) {
	var profile models.Profile
	if err := s.db.Preload("User").Where("user_id = ?", userID).First(&profile).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &profile, nil
}

// Describe returns the user's own data plus the profiles that activated its
// invite code. Referrals are unordered and direct only.
func (s *ProfileService) Describe(userID uuid.UUID) (*ProfileView, error) {
	profile, err := s.GetProfileByUserID(userID)
	if err != nil {
		return nil, err
	}

	referrals, err := s.inviteService.GetReferrals(profile.ID)
	if err != nil {
		return nil, err
	}

	view := &ProfileView{
		User: UserView{
			ID:          profile.User.ID,
			Username:    profile.User.Username,
			PhoneNumber: profile.PhoneNumber,
			InviteCode:  profile.InviteCode,
			CreatedAt:   profile.User.CreatedAt,
		},
		Referrals: make([]ReferralView, 0, len(referrals)),
	}

	for _, r := range referrals {
		view.Referrals = append(view.Referrals, ReferralView{
			Username:    r.User.Username,
			PhoneNumber: r.PhoneNumber,
		})
	}

	return view, nil
}
