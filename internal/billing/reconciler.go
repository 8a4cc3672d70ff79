package billing

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nextshorts/nextshorts/internal/models"
	log "github.com/sirupsen/logrus"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Reconciler maps provider webhook events onto subscription state mutations
// and ledger appends. Events are not signature-verified or deduplicated;
// replaying a delivery produces a second ledger row.
type Reconciler struct {
	db *gorm.DB
}

// NewReconciler constructs a Reconciler.
func NewReconciler(db *gorm.DB) *Reconciler {
	return &Reconciler{db: db}
}

// Reconcile applies one webhook event. Unknown event types and subscription
// events without a user correlation ID are ignored without error; persistence
// failures propagate to the caller.
func (r *Reconciler) Reconcile(ctx context.Context, event Event) error {
	if r == nil || r.db == nil {
		return fmt.Errorf("billing: reconciler not initialized")
	}

	switch event.Kind() {
	case KindSubscriptionActivated:
		return r.subscriptionActivated(ctx, event)
	case KindSubscriptionCancelled:
		return r.subscriptionCancelled(ctx, event)
	case KindSubscriptionSuspended:
		return r.subscriptionSuspended(ctx, event)
	case KindSubscriptionExpired:
		return r.subscriptionExpired(ctx, event)
	case KindPaymentSaleCompleted:
		return r.paymentSaleCompleted(ctx, event)
	}

	log.WithField("event_type", event.Type).Info("billing: ignoring unhandled webhook event")
	return nil
}

func (r *Reconciler) subscriptionActivated(ctx context.Context, event Event) error {
	userID := strings.TrimSpace(event.Resource.CustomID)
	if userID == "" {
		return nil
	}
	subscriptionID := strings.TrimSpace(event.Resource.ID)
	now := time.Now().UTC()

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.User{}).Where("uid = ?", userID).Updates(map[string]any{
			"subscription_status":     models.StatusActive,
			"paypal_subscription_id":  subscriptionID,
			"subscription_started":    now,
			"auto_renew":              true,
			"updated_at":              now,
		})
		if res.Error != nil {
			return fmt.Errorf("billing: activate subscription for %s: %w", userID, res.Error)
		}
		if res.RowsAffected == 0 {
			log.WithField("user_id", userID).Warn("billing: activation event for unknown user")
			return nil
		}
		return r.appendTransaction(tx, models.Transaction{
			UserID:               userID,
			Type:                 models.TxnSubscriptionActivated,
			PayPalSubscriptionID: subscriptionID,
			RawPayload:           datatypes.JSON(event.RawResource),
		})
	})
}

func (r *Reconciler) subscriptionCancelled(ctx context.Context, event Event) error {
	userID := strings.TrimSpace(event.Resource.CustomID)
	if userID == "" {
		return nil
	}
	now := time.Now().UTC()

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.User{}).Where("uid = ?", userID).Updates(map[string]any{
			"subscription_status": models.StatusCanceled,
			"auto_renew":          false,
			"updated_at":          now,
		})
		if res.Error != nil {
			return fmt.Errorf("billing: cancel subscription for %s: %w", userID, res.Error)
		}
		if res.RowsAffected == 0 {
			log.WithField("user_id", userID).Warn("billing: cancellation event for unknown user")
			return nil
		}
		return r.appendTransaction(tx, models.Transaction{
			UserID:               userID,
			Type:                 models.TxnSubscriptionCancelled,
			PayPalSubscriptionID: strings.TrimSpace(event.Resource.ID),
			RawPayload:           datatypes.JSON(event.RawResource),
		})
	})
}

func (r *Reconciler) subscriptionSuspended(ctx context.Context, event Event) error {
	userID := strings.TrimSpace(event.Resource.CustomID)
	if userID == "" {
		return nil
	}

	// Suspension changes status only; no ledger row.
	res := r.db.WithContext(ctx).Model(&models.User{}).Where("uid = ?", userID).Updates(map[string]any{
		"subscription_status": models.StatusSuspended,
		"updated_at":          time.Now().UTC(),
	})
	if res.Error != nil {
		return fmt.Errorf("billing: suspend subscription for %s: %w", userID, res.Error)
	}
	return nil
}

func (r *Reconciler) subscriptionExpired(ctx context.Context, event Event) error {
	userID := strings.TrimSpace(event.Resource.CustomID)
	if userID == "" {
		return nil
	}

	// Expiry is the only event that demotes the tier.
	res := r.db.WithContext(ctx).Model(&models.User{}).Where("uid = ?", userID).Updates(map[string]any{
		"subscription_status": models.StatusExpired,
		"subscription_tier":   models.TierFree,
		"updated_at":          time.Now().UTC(),
	})
	if res.Error != nil {
		return fmt.Errorf("billing: expire subscription for %s: %w", userID, res.Error)
	}
	return nil
}

func (r *Reconciler) paymentSaleCompleted(ctx context.Context, event Event) error {
	// Sale events carry no custom_id; the ledger row is keyed by the
	// billing agreement instead of a user.
	txn := models.Transaction{
		Type:                models.TxnPaymentCompleted,
		PayPalTransactionID: strings.TrimSpace(event.Resource.ID),
		BillingAgreementID:  strings.TrimSpace(event.Resource.BillingAgreementID),
		RawPayload:          datatypes.JSON(event.RawResource),
	}
	if event.Resource.Amount != nil {
		txn.Amount = event.Resource.Amount.Total
		txn.Currency = event.Resource.Amount.Currency
	}
	return r.appendTransaction(r.db.WithContext(ctx), txn)
}

// appendTransaction inserts one ledger row, assigning its UUID.
func (r *Reconciler) appendTransaction(tx *gorm.DB, txn models.Transaction) error {
	txn.ID = uuid.NewString()
	if len(txn.RawPayload) == 0 {
		txn.RawPayload = datatypes.JSON([]byte("{}"))
	}
	if errCreate := tx.Create(&txn).Error; errCreate != nil {
		return fmt.Errorf("billing: append %s transaction: %w", txn.Type, errCreate)
	}
	return nil
}
