package services

import (
	"fmt"
	"testing"
	"time"

	"github.com/invitelink/backend/internal/config"
	"github.com/invitelink/backend/internal/models"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	// Named in-memory DB so the connection pool shares one database
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, models.Migrate(db))
	return db
}

func newTestConfig() *config.Config {
	return &config.Config{
		Env:                     "test",
		JWTSecret:               "test-secret",
		JWTAccessTokenDuration:  time.Hour,
		JWTRefreshTokenDuration: 24 * time.Hour,
		OTPCodeTTL:              5 * time.Minute,
		OTPSendDelay:            2 * time.Second,
		DefaultPhoneRegion:      "US",
		BcryptCost:              4,
	}
}

func createTestUser(t *testing.T, db *gorm.DB, username, phone string) *models.User {
	t.Helper()

	user := &models.User{
		Username: username,
		Password: "not-a-real-hash",
		IsActive: true,
	}
	require.NoError(t, db.Create(user).Error)

	profile := &models.Profile{
		UserID:      user.ID,
		PhoneNumber: phone,
	}
	require.NoError(t, db.Create(profile).Error)

	user.Profile = profile
	return user
}

// newOTPServiceForTest wires an OTP service with a controllable clock and a
// sleep that records instead of waiting
func newOTPServiceForTest(db *gorm.DB, cfg *config.Config) (*OTPService, *time.Time, *[]time.Duration) {
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	var slept []time.Duration

	svc := NewOTPService(db, cfg, NewInviteService(db))
	svc.now = func() time.Time { return now }
	svc.sleep = func(d time.Duration) { slept = append(slept, d) }
	return svc, &now, &slept
}
