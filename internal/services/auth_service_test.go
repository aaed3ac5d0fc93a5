package services

import (
	"testing"

	"github.com/invitelink/backend/internal/models"
	"github.com/invitelink/backend/pkg/crypto"
	jwtpkg "github.com/invitelink/backend/pkg/jwt"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

// Points at nothing; the service tolerates an unreachable Redis for reads
func newTestRedis() *redis.Client {
	return redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"})
}

func TestRegisterCreatesUserAndProfile(t *testing.T) {
	db := newTestDB(t)
	svc := NewAuthService(db, newTestRedis(), newTestConfig())

	user, err := svc.Register("alice", "Sup3rSecret", "+15551230001")
	require.NoError(t, err)
	require.NotNil(t, user.Profile)
	require.Equal(t, "+15551230001", user.Profile.PhoneNumber)
	require.True(t, crypto.CheckPassword("Sup3rSecret", user.Password))

	// No invite code until the first successful OTP login
	require.Nil(t, user.Profile.InviteCode)

	var stored models.Profile
	require.NoError(t, db.Where("user_id = ?", user.ID).First(&stored).Error)
	require.Equal(t, user.Profile.ID, stored.ID)
}

func TestRegisterDuplicateUsername(t *testing.T) {
	db := newTestDB(t)
	svc := NewAuthService(db, newTestRedis(), newTestConfig())

	_, err := svc.Register("alice", "Sup3rSecret", "+15551230001")
	require.NoError(t, err)

	_, err = svc.Register("alice", "Sup3rSecret", "+15551230002")
	require.ErrorIs(t, err, ErrUsernameTaken)
}

func TestRegisterDuplicatePhone(t *testing.T) {
	db := newTestDB(t)
	svc := NewAuthService(db, newTestRedis(), newTestConfig())

	_, err := svc.Register("alice", "Sup3rSecret", "+15551230001")
	require.NoError(t, err)

	_, err = svc.Register("bob", "Sup3rSecret", "+15551230001")
	require.ErrorIs(t, err, ErrPhoneRegistered)
}

func TestEstablishSessionIssuesTokenPair(t *testing.T) {
	db := newTestDB(t)
	cfg := newTestConfig()
	svc := NewAuthService(db, newTestRedis(), cfg)

	user, err := svc.Register("alice", "Sup3rSecret", "+15551230001")
	require.NoError(t, err)

	access, refresh, err := svc.EstablishSession(user)
	require.NoError(t, err)

	claims, err := jwtpkg.ValidateToken(access, cfg.JWTSecret)
	require.NoError(t, err)
	require.Equal(t, jwtpkg.AccessToken, claims.TokenType)
	require.Equal(t, user.ID.String(), claims.UserID)

	// Refresh token is persisted for later rotation
	var stored models.RefreshToken
	require.NoError(t, db.Where("user_id = ?", user.ID).First(&stored).Error)
	require.Equal(t, refresh, stored.Token)
}

func TestRefreshTokenFlow(t *testing.T) {
	db := newTestDB(t)
	cfg := newTestConfig()
	svc := NewAuthService(db, newTestRedis(), cfg)

	user, err := svc.Register("alice", "Sup3rSecret", "+15551230001")
	require.NoError(t, err)

	_, refresh, err := svc.EstablishSession(user)
	require.NoError(t, err)

	access, err := svc.RefreshToken(refresh)
	require.NoError(t, err)

	claims, err := jwtpkg.ValidateToken(access, cfg.JWTSecret)
	require.NoError(t, err)
	require.Equal(t, jwtpkg.AccessToken, claims.TokenType)
}

func TestRefreshTokenRejectsAccessToken(t *testing.T) {
	db := newTestDB(t)
	svc := NewAuthService(db, newTestRedis(), newTestConfig())

	user, err := svc.Register("alice", "Sup3rSecret", "+15551230001")
	require.NoError(t, err)

	access, _, err := svc.EstablishSession(user)
	require.NoError(t, err)

	_, err = svc.RefreshToken(access)
	require.Error(t, err)
}

func TestLogoutRemovesRefreshTokens(t *testing.T) {
	db := newTestDB(t)
	svc := NewAuthService(db, newTestRedis(), newTestConfig())

	user, err := svc.Register("alice", "Sup3rSecret", "+15551230001")
	require.NoError(t, err)

	_, refresh, err := svc.EstablishSession(user)
	require.NoError(t, err)

	require.NoError(t, svc.Logout(user.ID, ""))

	_, err = svc.RefreshToken(refresh)
	require.Error(t, err)
}
