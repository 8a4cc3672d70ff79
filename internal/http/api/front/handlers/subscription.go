package handlers

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nextshorts/nextshorts/internal/models"
	"github.com/nextshorts/nextshorts/internal/paypal"
	internalsettings "github.com/nextshorts/nextshorts/internal/settings"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Billing intervals accepted by the subscription endpoint.
const (
	intervalMonthly = "monthly"
	intervalAnnual  = "annual"
)

// SubscriptionCreator is the subset of the PayPal client the handler needs.
type SubscriptionCreator interface {
	CreateSubscription(ctx context.Context, req paypal.SubscriptionRequest) (*paypal.Subscription, error)
}

// SubscriptionHandler handles PayPal subscription creation and the approval
// return redirect.
type SubscriptionHandler struct {
	db     *gorm.DB
	paypal SubscriptionCreator
	appURL string
}

// NewSubscriptionHandler constructs a SubscriptionHandler. The PayPal client
// may be nil when credentials are not configured; creation then fails with 500.
func NewSubscriptionHandler(db *gorm.DB, paypalClient SubscriptionCreator, appURL string) *SubscriptionHandler {
	return &SubscriptionHandler{
		db:     db,
		paypal: paypalClient,
		appURL: strings.TrimRight(strings.TrimSpace(appURL), "/"),
	}
}

// createSubscriptionRequest defines the request body for creating a
// subscription. Either a concrete plan ID or a tier+interval pair resolved
// against settings.
type createSubscriptionRequest struct {
	PlanID   string `json:"planId"`
	Tier     string `json:"tier"`
	Interval string `json:"interval"`
}

// Create starts a subscription for the authenticated user and returns the
// approval URL the UI redirects to.
func (h *SubscriptionHandler) Create(c *gin.Context) {
	user := getUser(c)
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	if h.paypal == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "billing not configured"})
		return
	}

	var body createSubscriptionRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	planID := strings.TrimSpace(body.PlanID)
	tier := strings.ToLower(strings.TrimSpace(body.Tier))
	if planID == "" {
		var okResolve bool
		planID, okResolve = resolvePlanID(tier, strings.ToLower(strings.TrimSpace(body.Interval)))
		if !okResolve {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Plan ID and User ID are required"})
			return
		}
	}
	if tier == "" {
		tier = string(models.TierPro)
	}

	subscription, errCreate := h.paypal.CreateSubscription(c.Request.Context(), paypal.SubscriptionRequest{
		PlanID:          planID,
		UserID:          user.UID,
		SubscriberEmail: user.Email,
		BrandName:       "Next Shorts",
		ReturnURL:       h.appURL + "/api/paypal/subscription/success?userId=" + url.QueryEscape(user.UID) + "&tier=" + url.QueryEscape(tier),
		CancelURL:       h.appURL + "/pricing?canceled=true",
	})
	if errCreate != nil {
		log.WithError(errCreate).Error("paypal subscription creation failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create subscription"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"subscriptionId": subscription.ID,
		"approvalUrl":    subscription.ApprovalURL,
	})
}

// Success handles the approval return redirect from PayPal. The user record
// is updated optimistically; the webhook remains the source of truth and
// reconciles the same fields when the ACTIVATED event arrives.
func (h *SubscriptionHandler) Success(c *gin.Context) {
	subscriptionID := strings.TrimSpace(c.Query("subscription_id"))
	userID := strings.TrimSpace(c.Query("userId"))
	if subscriptionID == "" || userID == "" {
		c.Redirect(http.StatusFound, h.appURL+"/pricing?error=missing_params")
		return
	}

	tier := models.SubscriptionTier(strings.ToLower(strings.TrimSpace(c.Query("tier"))))
	if tier != models.TierPro && tier != models.TierEnterprise {
		tier = models.TierPro
	}

	now := time.Now().UTC()
	res := h.db.WithContext(c.Request.Context()).Model(&models.User{}).
		Where("uid = ?", userID).
		Updates(map[string]any{
			"subscription_tier":      tier,
			"subscription_status":    models.StatusActive,
			"subscription_started":   now,
			"paypal_subscription_id": subscriptionID,
			"auto_renew":             true,
			"updated_at":             now,
		})
	if res.Error != nil || res.RowsAffected == 0 {
		if res.Error != nil {
			log.WithError(res.Error).Error("subscription success processing failed")
		}
		c.Redirect(http.StatusFound, h.appURL+"/pricing?error=processing_failed")
		return
	}

	c.Redirect(http.StatusFound, h.appURL+"/pricing?success=true")
}

// resolvePlanID maps a tier+interval pair onto the provisioned plan ID
// stored in settings.
func resolvePlanID(tier, interval string) (string, bool) {
	var key string
	switch {
	case tier == string(models.TierPro) && interval == intervalMonthly:
		key = internalsettings.PlanIDProMonthlyKey
	case tier == string(models.TierPro) && interval == intervalAnnual:
		key = internalsettings.PlanIDProAnnualKey
	case tier == string(models.TierEnterprise) && interval == intervalMonthly:
		key = internalsettings.PlanIDEnterpriseMonthlyKey
	case tier == string(models.TierEnterprise) && interval == intervalAnnual:
		key = internalsettings.PlanIDEnterpriseAnnualKey
	default:
		return "", false
	}
	planID := internalsettings.StringValue(key, "")
	if planID == "" {
		return "", false
	}
	return planID, true
}
