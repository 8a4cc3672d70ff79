package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nextshorts/nextshorts/internal/models"
	"gorm.io/gorm"
)

// DashboardHandler serves aggregate platform statistics.
type DashboardHandler struct {
	db *gorm.DB
}

// NewDashboardHandler constructs a DashboardHandler.
func NewDashboardHandler(db *gorm.DB) *DashboardHandler {
	return &DashboardHandler{db: db}
}

// Stats returns user totals, per-tier counts, and ledger volume.
func (h *DashboardHandler) Stats(c *gin.Context) {
	ctx := c.Request.Context()

	var totalUsers int64
	if errCount := h.db.WithContext(ctx).Model(&models.User{}).Count(&totalUsers).Error; errCount != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "count users failed"})
		return
	}

	tiers := gin.H{}
	for _, tier := range []models.SubscriptionTier{models.TierFree, models.TierPro, models.TierEnterprise} {
		var count int64
		if errCount := h.db.WithContext(ctx).Model(&models.User{}).
			Where("subscription_tier = ?", tier).
			Count(&count).Error; errCount != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "count tiers failed"})
			return
		}
		tiers[string(tier)] = count
	}

	var activeSubscriptions int64
	if errCount := h.db.WithContext(ctx).Model(&models.User{}).
		Where("subscription_tier <> ? AND subscription_status = ?", models.TierFree, models.StatusActive).
		Count(&activeSubscriptions).Error; errCount != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "count subscriptions failed"})
		return
	}

	var totalTransactions int64
	if errCount := h.db.WithContext(ctx).Model(&models.Transaction{}).Count(&totalTransactions).Error; errCount != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "count transactions failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"total_users":          totalUsers,
		"users_by_tier":        tiers,
		"active_subscriptions": activeSubscriptions,
		"total_transactions":   totalTransactions,
	})
}
