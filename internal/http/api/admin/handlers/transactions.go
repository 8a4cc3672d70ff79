package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/nextshorts/nextshorts/internal/models"
	"gorm.io/gorm"
)

// TransactionHandler exposes the billing ledger to the dashboard.
type TransactionHandler struct {
	db *gorm.DB
}

// NewTransactionHandler constructs a TransactionHandler.
func NewTransactionHandler(db *gorm.DB) *TransactionHandler {
	return &TransactionHandler{db: db}
}

// List returns ledger rows newest first, with an optional type filter.
func (h *TransactionHandler) List(c *gin.Context) {
	q := h.db.WithContext(c.Request.Context()).Model(&models.Transaction{})

	if txnType := strings.TrimSpace(c.Query("type")); txnType != "" {
		q = q.Where("type = ?", txnType)
	}
	if userID := strings.TrimSpace(c.Query("user_id")); userID != "" {
		q = q.Where("user_id = ?", userID)
	}

	limit := 100
	if limitQ := strings.TrimSpace(c.Query("limit")); limitQ != "" {
		if parsed, errParse := strconv.Atoi(limitQ); errParse == nil && parsed > 0 && parsed <= 1000 {
			limit = parsed
		}
	}

	var rows []models.Transaction
	if errFind := q.Order("created_at DESC").Limit(limit).Find(&rows).Error; errFind != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list transactions failed"})
		return
	}

	out := make([]gin.H, 0, len(rows))
	for _, row := range rows {
		out = append(out, gin.H{
			"id":                     row.ID,
			"user_id":                row.UserID,
			"type":                   row.Type,
			"paypal_subscription_id": row.PayPalSubscriptionID,
			"paypal_transaction_id":  row.PayPalTransactionID,
			"billing_agreement_id":   row.BillingAgreementID,
			"amount":                 row.Amount,
			"currency":               row.Currency,
			"created_at":             row.CreatedAt,
		})
	}
	c.JSON(http.StatusOK, gin.H{"transactions": out})
}
