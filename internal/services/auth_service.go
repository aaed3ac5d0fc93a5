package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/invitelink/backend/internal/config"
	"github.com/invitelink/backend/internal/models"
	"github.com/invitelink/backend/pkg/crypto"
	jwtpkg "github.com/invitelink/backend/pkg/jwt"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

var (
	ErrUsernameTaken   = errors.New("username already taken")
	ErrPhoneRegistered = errors.New("phone number already registered")
)

type AuthService struct {
	db    *gorm.DB
	redis *redis.Client
	cfg   *config.Config
}

func NewAuthService(db *gorm.DB, redis *redis.Client, cfg *config.Config) *AuthService {
	return &AuthService{
		db:    db,
		redis: redis,
		cfg:   cfg,
	}
}

// Register creates a new user account with its profile. The profile starts
// without an invite code; one is assigned on the first successful OTP login.
func (s *AuthService) Register(username, password, phoneNumber string) (*models.User, error) {
	// Pre-checks for friendlier errors; the unique indexes close the race
	var count int64
	if err := s.db.Model(&models.User{}).Where("username = ?", username).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, ErrUsernameTaken
	}

	if err := s.db.Model(&models.Profile{}).Where("phone_number = ?", phoneNumber).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, ErrPhoneRegistered
	}

	hashedPassword, err := crypto.HashPassword(password, s.cfg.BcryptCost)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Username: username,
		Password: hashedPassword,
		IsActive: true,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(user).Error; err != nil {
			return err
		}
		profile := &models.Profile{
			UserID:      user.ID,
			PhoneNumber: phoneNumber,
		}
		if err := tx.Create(profile).Error; err != nil {
			return err
		}
		user.Profile = profile
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrPhoneRegistered
		}
		return nil, err
	}

	return user, nil
}

// EstablishSession issues an access/refresh token pair for a user whose
// phone possession has just been proven
func (s *AuthService) EstablishSession(user *models.User) (string, string, error) {
	accessToken, err := jwtpkg.GenerateToken(user.ID.String(), jwtpkg.AccessToken, s.cfg.JWTSecret, s.cfg.JWTAccessTokenDuration)
	if err != nil {
		return "", "", err
	}

	refreshToken, err := jwtpkg.GenerateToken(user.ID.String(), jwtpkg.RefreshToken, s.cfg.JWTSecret, s.cfg.JWTRefreshTokenDuration)
	if err != nil {
		return "", "", err
	}

	refreshTokenModel := &models.RefreshToken{
		UserID:    user.ID,
		Token:     refreshToken,
		ExpiresAt: time.Now().Add(s.cfg.JWTRefreshTokenDuration),
	}

	if err := s.db.Create(refreshTokenModel).Error; err != nil {
		return "", "", err
	}

	return accessToken, refreshToken, nil
}

// RefreshToken generates new access token from refresh token
func (s *AuthService) RefreshToken(refreshToken string) (string, error) {
	claims, err := jwtpkg.ValidateToken(refreshToken, s.cfg.JWTSecret)
	if err != nil {
		return "", errors.New("invalid refresh token")
	}

	if claims.TokenType != jwtpkg.RefreshToken {
		return "", errors.New("invalid token type")
	}

	var tokenModel models.RefreshToken
	if err := s.db.Where("token = ?", refreshToken).First(&tokenModel).Error; err != nil {
		return "", errors.New("refresh token not found")
	}

	if time.Now().After(tokenModel.ExpiresAt) {
		return "", errors.New("refresh token expired")
	}

	accessToken, err := jwtpkg.GenerateToken(claims.UserID, jwtpkg.AccessToken, s.cfg.JWTSecret, s.cfg.JWTAccessTokenDuration)
	if err != nil {
		return "", err
	}

	return accessToken, nil
}

// Logout invalidates the user's refresh tokens and blacklists the access
// token for the remainder of its lifetime
func (s *AuthService) Logout(userID uuid.UUID, accessToken string) error {
	if err := s.db.Where("user_id = ?", userID).Delete(&models.RefreshToken{}).Error; err != nil {
		return err
	}

	if accessToken != "" {
		ctx := context.Background()
		blacklistKey := fmt.Sprintf("blacklist:token:%s", accessToken)
		if err := s.redis.Set(ctx, blacklistKey, 1, s.cfg.JWTAccessTokenDuration).Err(); err != nil {
			// Redis being down must not block logout; refresh tokens are gone
			log.Printf("WARN: Could not blacklist access token in Redis: %v", err)
		}
	}

	return nil
}

// ValidateAccessToken validates an access token and returns claims
func (s *AuthService) ValidateAccessToken(token string) (*jwtpkg.Claims, error) {
	claims, err := jwtpkg.ValidateToken(token, s.cfg.JWTSecret)
	if err != nil {
		return nil, err
	}

	if claims.TokenType != jwtpkg.AccessToken {
		return nil, errors.New("invalid token type")
	}

	// If redis is down, we allow the request to proceed
	ctx := context.Background()
	blacklistKey := fmt.Sprintf("blacklist:token:%s", token)
	exists, err := s.redis.Exists(ctx, blacklistKey).Result()
	if err != nil {
		log.Printf("WARN: Could not connect to Redis to check token blacklist: %v", err)
	} else if exists > 0 {
		return nil, errors.New("token is blacklisted")
	}

	return claims, nil
}

// GetUserByID retrieves a user by ID
func (s *AuthService) GetUserByID(userID uuid.UUID) (*models.User, error) {
	var user models.User
	if err := s.db.First(&user, userID).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// CleanupExpiredTokens removes expired refresh tokens
func (s *AuthService) CleanupExpiredTokens() error {
	return s.db.Where("expires_at < ?", time.Now()).Delete(&models.RefreshToken{}).Error
}
