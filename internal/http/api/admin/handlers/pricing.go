package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/nextshorts/nextshorts/internal/billing"
	"github.com/nextshorts/nextshorts/internal/models"
)

// PricingHandler runs the operator price-change workflow. The flow is
// two-step: a preview call shows what would be created, then the operator
// repeats the request with confirm set to actually create provider plans.
type PricingHandler struct {
	provisioner *billing.Provisioner
}

// NewPricingHandler constructs a PricingHandler.
func NewPricingHandler(provisioner *billing.Provisioner) *PricingHandler {
	return &PricingHandler{provisioner: provisioner}
}

// priceChangeRequest defines the request body for both steps.
type priceChangeRequest struct {
	Tier         string  `json:"tier"`
	MonthlyPrice float64 `json:"monthly_price"`
	Confirm      bool    `json:"confirm"`
}

// Change previews or executes a tier price update.
func (h *PricingHandler) Change(c *gin.Context) {
	if h.provisioner == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "billing is not configured"})
		return
	}

	var body priceChangeRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	change := billing.PriceChange{
		Tier:         models.SubscriptionTier(strings.ToLower(strings.TrimSpace(body.Tier))),
		MonthlyPrice: body.MonthlyPrice,
	}

	if !body.Confirm {
		preview, errPreview := h.provisioner.Preview(change)
		if errPreview != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": errPreview.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"preview": preview, "confirm_required": true})
		return
	}

	result, errExecute := h.provisioner.Execute(c.Request.Context(), change)
	if errExecute != nil {
		if errors.Is(errExecute, billing.ErrInvalidPriceChange) {
			c.JSON(http.StatusBadRequest, gin.H{"error": errExecute.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "provisioning failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"result": result})
}
