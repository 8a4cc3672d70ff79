package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nextshorts/nextshorts/internal/entitlement"
	"gorm.io/gorm"
)

// ProfileHandler serves the authenticated user's profile and usage readout.
type ProfileHandler struct {
	db *gorm.DB
}

// NewProfileHandler constructs a ProfileHandler.
func NewProfileHandler(db *gorm.DB) *ProfileHandler {
	return &ProfileHandler{db: db}
}

// Me returns the profile, subscription state, and remaining quota.
func (h *ProfileHandler) Me(c *gin.Context) {
	user := getUser(c)
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	limits := entitlement.LimitsFromSettings()
	trendUsage := entitlement.CheckUsageLimit(user, entitlement.ActionTrend, limits)
	keywordUsage := entitlement.CheckUsageLimit(user, entitlement.ActionKeyword, limits)

	c.JSON(http.StatusOK, gin.H{
		"user": gin.H{
			"uid":          user.UID,
			"email":        user.Email,
			"display_name": user.DisplayName,
			"photo_url":    user.PhotoURL,
			"provider":     user.Provider,
			"role":         user.Role,
		},
		"subscription": gin.H{
			"tier":       user.SubscriptionTier,
			"status":     user.SubscriptionStatus,
			"started_at": user.SubscriptionStarted,
			"auto_renew": user.AutoRenew,
		},
		"usage": gin.H{
			"trend":   trendUsage,
			"keyword": keywordUsage,
		},
	})
}
