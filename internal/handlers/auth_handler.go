package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/invitelink/backend/internal/config"
	"github.com/invitelink/backend/internal/services"
	"github.com/invitelink/backend/pkg/validation"
)

type AuthHandler struct {
	authService  *services.AuthService
	otpService   *services.OTPService
	auditService *services.AuditService
	cfg          *config.Config
}

func NewAuthHandler(authService *services.AuthService, otpService *services.OTPService, auditService *services.AuditService, cfg *config.Config) *AuthHandler {
	return &AuthHandler{
		authService:  authService,
		otpService:   otpService,
		auditService: auditService,
		cfg:          cfg,
	}
}

// Register handles user registration
func (h *AuthHandler) Register(c *gin.Context) {
	var req struct {
		Username    string `json:"username" binding:"required,min=3,max=30"`
		Password    string `json:"password" binding:"required,min=8"`
		PhoneNumber string `json:"phone_number" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if !validation.ValidateUsername(req.Username) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid username format"})
		return
	}

	if !validation.ValidatePassword(req.Password) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Password must contain at least one uppercase letter, one lowercase letter and one number"})
		return
	}

	phone, err := validation.NormalizePhoneNumber(req.PhoneNumber, h.cfg.DefaultPhoneRegion)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.authService.Register(req.Username, req.Password, phone)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	h.auditService.Record(&user.ID, services.AuditActionRegister, fmt.Sprintf("username=%s", user.Username), c.ClientIP())

	c.JSON(http.StatusCreated, gin.H{
		"message": "Registration successful",
		"user": gin.H{
			"id":           user.ID,
			"username":     user.Username,
			"phone_number": phone,
		},
	})
}

// SendCode issues a one-time login code for a registered phone number.
// The code is echoed in the response for development visibility; real
// delivery would go through an SMS channel.
func (h *AuthHandler) SendCode(c *gin.Context) {
	var req struct {
		PhoneNumber string `json:"phone_number"`
	}

	if err := c.ShouldBindJSON(&req); err != nil || req.PhoneNumber == "" {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "Phone number is required"})
		return
	}

	phone, err := validation.NormalizePhoneNumber(req.PhoneNumber, h.cfg.DefaultPhoneRegion)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}

	code, err := h.otpService.Issue(phone)
	if err != nil {
		if errors.Is(err, services.ErrProfileNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"detail": "User not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "Failed to send code"})
		return
	}

	h.auditService.Record(nil, services.AuditActionOTPSent, fmt.Sprintf("phone=%s", phone), c.ClientIP())

	c.JSON(http.StatusOK, gin.H{
		"detail": "Code sent",
		"code":   code,
	})
}

// VerifyCode checks a submitted login code and, on success, logs the user in
func (h *AuthHandler) VerifyCode(c *gin.Context) {
	var req struct {
		PhoneNumber string `json:"phone_number"`
		Code        string `json:"code"`
	}

	if err := c.ShouldBindJSON(&req); err != nil || req.PhoneNumber == "" || req.Code == "" {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "Phone number and code are required"})
		return
	}

	phone, err := validation.NormalizePhoneNumber(req.PhoneNumber, h.cfg.DefaultPhoneRegion)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}

	profile, err := h.otpService.Verify(phone, req.Code)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidCode):
			c.JSON(http.StatusBadRequest, gin.H{"detail": "Invalid code"})
		case errors.Is(err, services.ErrCodeExpired):
			c.JSON(http.StatusBadRequest, gin.H{"detail": "Code expired"})
		case errors.Is(err, services.ErrIncorrectCode):
			c.JSON(http.StatusBadRequest, gin.H{"detail": "Incorrect code"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"detail": "Verification failed"})
		}
		return
	}

	accessToken, refreshToken, err := h.authService.EstablishSession(&profile.User)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "Failed to establish session"})
		return
	}

	h.auditService.Record(&profile.UserID, services.AuditActionLogin, fmt.Sprintf("phone=%s", phone), c.ClientIP())

	c.JSON(http.StatusOK, gin.H{
		"detail":        "Logged in",
		"username":      profile.User.Username,
		"invite_code":   profile.InviteCode,
		"access_token":  accessToken,
		"refresh_token": refreshToken,
	})
}

// RefreshToken handles token refresh
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refresh_token" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	accessToken, err := h.authService.RefreshToken(req.RefreshToken)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"access_token": accessToken,
	})
}

// Logout handles user logout
func (h *AuthHandler) Logout(c *gin.Context) {
	userID, exists := c.Get("userID")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	accessToken := c.GetString("accessToken")

	if err := h.authService.Logout(userID.(uuid.UUID), accessToken); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to logout"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Logout successful"})
}
