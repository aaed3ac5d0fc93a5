package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/invitelink/backend/internal/services"
)

type ProfileHandler struct {
	profileService *services.ProfileService
	inviteService  *services.InviteService
	auditService   *services.AuditService
}

func NewProfileHandler(profileService *services.ProfileService, inviteService *services.InviteService, auditService *services.AuditService) *ProfileHandler {
	return &ProfileHandler{
		profileService: profileService,
		inviteService:  inviteService,
		auditService:   auditService,
	}
}

// GetProfile returns the current user's data and direct referrals
func (h *ProfileHandler) GetProfile(c *gin.Context) {
	userID, _ := c.Get("userID")

	view, err := h.profileService.Describe(userID.(uuid.UUID))
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load profile"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user":      view.User,
		"referrals": view.Referrals,
	})
}

// ActivateInvite records that the current user used another profile's code
func (h *ProfileHandler) ActivateInvite(c *gin.Context) {
	userID, _ := c.Get("userID")

	var req struct {
		InviteCode string `json:"invite_code"`
	}

	if err := c.ShouldBindJSON(&req); err != nil || req.InviteCode == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invite code is required"})
		return
	}

	uid := userID.(uuid.UUID)
	inviter, err := h.inviteService.Activate(uid, req.InviteCode)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInviteCodeRequired):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invite code is required"})
		case errors.Is(err, services.ErrInviteNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Invalid invite code"})
		case errors.Is(err, services.ErrAlreadyActivated):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invite code has already been activated"})
		case errors.Is(err, services.ErrSelfActivation):
			c.JSON(http.StatusBadRequest, gin.H{"error": "You cannot activate your own code"})
		case errors.Is(err, services.ErrMutualActivation):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Mutual invite activation is not allowed"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to activate invite code"})
		}
		return
	}

	h.auditService.Record(&uid, services.AuditActionInviteActivated, fmt.Sprintf("inviter_profile=%s code=%s", inviter.ID, req.InviteCode), c.ClientIP())

	c.JSON(http.StatusOK, gin.H{
		"message": fmt.Sprintf("Invite code %s activated successfully", req.InviteCode),
	})
}
