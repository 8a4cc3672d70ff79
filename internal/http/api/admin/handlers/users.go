package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	internaldb "github.com/nextshorts/nextshorts/internal/db"
	"github.com/nextshorts/nextshorts/internal/models"
	"gorm.io/gorm"
)

// UserHandler manages admin operations on platform accounts.
type UserHandler struct {
	db *gorm.DB
}

// NewUserHandler constructs a UserHandler.
func NewUserHandler(db *gorm.DB) *UserHandler {
	return &UserHandler{db: db}
}

// List returns users with optional tier filter and email/name search.
func (h *UserHandler) List(c *gin.Context) {
	q := h.db.WithContext(c.Request.Context()).Model(&models.User{})

	if tier := strings.TrimSpace(c.Query("tier")); tier != "" {
		q = q.Where("subscription_tier = ?", tier)
	}
	if search := strings.TrimSpace(c.Query("q")); search != "" {
		pattern := internaldb.NormalizeLikePattern(h.db, "%"+search+"%")
		q = q.Where(
			h.db.Where(internaldb.CaseInsensitiveLikeExpr(h.db, "email"), pattern).
				Or(internaldb.CaseInsensitiveLikeExpr(h.db, "display_name"), pattern),
		)
	}

	limit := 50
	if limitQ := strings.TrimSpace(c.Query("limit")); limitQ != "" {
		if parsed, errParse := strconv.Atoi(limitQ); errParse == nil && parsed > 0 && parsed <= 500 {
			limit = parsed
		}
	}
	offset := 0
	if offsetQ := strings.TrimSpace(c.Query("offset")); offsetQ != "" {
		if parsed, errParse := strconv.Atoi(offsetQ); errParse == nil && parsed >= 0 {
			offset = parsed
		}
	}

	var total int64
	if errCount := q.Count(&total).Error; errCount != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "count users failed"})
		return
	}

	var rows []models.User
	if errFind := q.Order("created_at DESC").Limit(limit).Offset(offset).Find(&rows).Error; errFind != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list users failed"})
		return
	}

	out := make([]gin.H, 0, len(rows))
	for _, row := range rows {
		out = append(out, h.formatUser(&row))
	}
	c.JSON(http.StatusOK, gin.H{"users": out, "total": total})
}

// Get returns a single user by UID.
func (h *UserHandler) Get(c *gin.Context) {
	uid := strings.TrimSpace(c.Param("uid"))
	if uid == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid uid"})
		return
	}

	var user models.User
	if errFind := h.db.WithContext(c.Request.Context()).First(&user, "uid = ?", uid).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query user failed"})
		return
	}
	c.JSON(http.StatusOK, h.formatUser(&user))
}

// changeTierRequest defines the request body for tier changes.
type changeTierRequest struct {
	Tier string `json:"tier"`
}

// ChangeTier sets a user's subscription tier.
func (h *UserHandler) ChangeTier(c *gin.Context) {
	uid := strings.TrimSpace(c.Param("uid"))
	if uid == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid uid"})
		return
	}

	var body changeTierRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	tier := models.SubscriptionTier(strings.ToLower(strings.TrimSpace(body.Tier)))
	if tier != models.TierFree && tier != models.TierPro && tier != models.TierEnterprise {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid tier"})
		return
	}

	res := h.db.WithContext(c.Request.Context()).Model(&models.User{}).
		Where("uid = ?", uid).
		Updates(map[string]any{
			"subscription_tier": tier,
			"updated_at":        time.Now().UTC(),
		})
	if res.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update user failed"})
		return
	}
	if res.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"uid": uid, "tier": tier})
}

// Disable flips the administrative kill switch off for an account.
func (h *UserHandler) Disable(c *gin.Context) {
	h.setActive(c, false)
}

// Enable flips the administrative kill switch back on for an account.
func (h *UserHandler) Enable(c *gin.Context) {
	h.setActive(c, true)
}

func (h *UserHandler) setActive(c *gin.Context, active bool) {
	uid := strings.TrimSpace(c.Param("uid"))
	if uid == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid uid"})
		return
	}

	res := h.db.WithContext(c.Request.Context()).Model(&models.User{}).
		Where("uid = ?", uid).
		Updates(map[string]any{
			"is_active":  active,
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update user failed"})
		return
	}
	if res.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"uid": uid, "is_active": active})
}

// formatUser converts a user model to a response payload.
func (h *UserHandler) formatUser(user *models.User) gin.H {
	return gin.H{
		"uid":                         user.UID,
		"email":                       user.Email,
		"display_name":                user.DisplayName,
		"photo_url":                   user.PhotoURL,
		"provider":                    user.Provider,
		"role":                        user.Role,
		"subscription_tier":           user.SubscriptionTier,
		"subscription_status":         user.SubscriptionStatus,
		"subscription_started":        user.SubscriptionStarted,
		"paypal_subscription_id":      user.PayPalSubscriptionID,
		"auto_renew":                  user.AutoRenew,
		"trend_analyses_this_week":    user.TrendAnalysesThisWeek,
		"keyword_searches_this_month": user.KeywordSearchesThisMonth,
		"is_active":                   user.IsActive,
		"created_at":                  user.CreatedAt,
		"updated_at":                  user.UpdatedAt,
	}
}
