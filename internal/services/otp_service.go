package services

import (
	"crypto/rand"
	"errors"
	"math/big"
	"time"

	"github.com/invitelink/backend/internal/config"
	"github.com/invitelink/backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const otpCodeLength = 4

var (
	ErrProfileNotFound = errors.New("user not found")
	ErrInvalidCode     = errors.New("invalid code")
	ErrCodeExpired     = errors.New("code expired")
	ErrIncorrectCode   = errors.New("incorrect code")
)

// OTPService issues and verifies the one-time login codes. Codes are not
// unique across profiles or across time; only invite codes carry a
// uniqueness constraint.
type OTPService struct {
	db            *gorm.DB
	cfg           *config.Config
	inviteService *InviteService

	// Injected for tests; default to the real clock.
	now   func() time.Time
	sleep func(time.Duration)
}

func NewOTPService(db *gorm.DB, cfg *config.Config, inviteService *InviteService) *OTPService {
	return &OTPService{
		db:            db,
		cfg:           cfg,
		inviteService: inviteService,
		now:           time.Now,
		sleep:         time.Sleep,
	}
}

func generateOTPCode() (string, error) {
	digits := make([]byte, otpCodeLength)
	ten := big.NewInt(10)
	for i := range digits {
		n, err := rand.Int(rand.Reader, ten)
		if err != nil {
			return "", err
		}
		digits[i] = byte('0' + n.Int64())
	}
	return string(digits), nil
}

// Issue creates or replaces the login code for the profile behind the phone
// number and returns it. The configured send delay stands in for SMS
// delivery latency and is incurred before the code is returned; it only
// blocks this request's goroutine.
func (s *OTPService) Issue(phoneNumber string) (string, error) {
	var profile models.Profile
	if err := s.db.Where("phone_number = ?", phoneNumber).First(&profile).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrProfileNotFound
		}
		return "", err
	}

	s.sleep(s.cfg.OTPSendDelay)

	code, err := generateOTPCode()
	if err != nil {
		return "", err
	}

	// Blind overwrite: at most one live code per profile, last writer wins
	loginCode := models.LoginCode{
		ProfileID: profile.ID,
		Code:      code,
		CreatedAt: s.now(),
	}
	err = s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "profile_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"code":       loginCode.Code,
			"created_at": loginCode.CreatedAt,
		}),
	}).Create(&loginCode).Error
	if err != nil {
		return "", err
	}

	return code, nil
}

// Verify checks a submitted code against the profile's outstanding one.
// A missing record is reported as ErrInvalidCode, indistinguishable from a
// wrong code for the caller. On first successful login the profile gets its
// invite code assigned before returning.
//
// The record is deliberately left in place on success, so re-submitting the
// same code within the TTL succeeds again. A fresh issuance is the only
// thing that replaces it.
func (s *OTPService) Verify(phoneNumber, submittedCode string) (*models.Profile, error) {
	var profile models.Profile
	if err := s.db.Preload("User").Where("phone_number = ?", phoneNumber).First(&profile).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCode
		}
		return nil, err
	}

	var loginCode models.LoginCode
	if err := s.db.Where("profile_id = ?", profile.ID).First(&loginCode).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCode
		}
		return nil, err
	}

	if loginCode.IsExpired(s.now(), s.cfg.OTPCodeTTL) {
		return nil, ErrCodeExpired
	}

	// Exact string equality, no normalization
	if loginCode.Code != submittedCode {
		return nil, ErrIncorrectCode
	}

	if !profile.HasInviteCode() {
		if err := s.inviteService.AssignInviteCode(&profile); err != nil {
			return nil, err
		}
	}

	return &profile, nil
}
