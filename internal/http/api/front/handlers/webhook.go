package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nextshorts/nextshorts/internal/billing"
	log "github.com/sirupsen/logrus"
)

// maxWebhookBodyBytes bounds the webhook request body.
const maxWebhookBodyBytes = 1 << 20

// WebhookHandler receives PayPal webhook deliveries and hands them to the
// reconciler.
type WebhookHandler struct {
	reconciler *billing.Reconciler
}

// NewWebhookHandler constructs a WebhookHandler.
func NewWebhookHandler(reconciler *billing.Reconciler) *WebhookHandler {
	return &WebhookHandler{reconciler: reconciler}
}

// Handle processes one webhook delivery. A well-formed body is always
// acknowledged with 200 so the provider does not retry endlessly, even when
// reconciliation fails; only an unreadable or undecodable body yields 500.
func (h *WebhookHandler) Handle(c *gin.Context) {
	body, errRead := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBodyBytes))
	if errRead != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "read body failed"})
		return
	}

	event, errDecode := billing.DecodeEvent(body)
	if errDecode != nil {
		log.WithError(errDecode).Warn("webhook: undecodable delivery")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "invalid payload"})
		return
	}

	if errReconcile := h.reconciler.Reconcile(c.Request.Context(), event); errReconcile != nil {
		log.WithError(errReconcile).WithField("event_type", event.Type).Error("webhook: reconciliation failed")
	}

	c.JSON(http.StatusOK, gin.H{"received": true})
}
