package models

import (
	"time"

	"gorm.io/datatypes"
)

// TransactionType identifies the billing event a ledger row records.
type TransactionType string

// Transaction types written by the reconciler.
const (
	// TxnSubscriptionActivated records a provider subscription activation.
	TxnSubscriptionActivated TransactionType = "subscription_activated"
	// TxnSubscriptionCancelled records a provider subscription cancellation.
	TxnSubscriptionCancelled TransactionType = "subscription_cancelled"
	// TxnPaymentCompleted records a completed sale payment.
	TxnPaymentCompleted TransactionType = "payment_completed"
)

// Transaction is an append-only ledger row for a billing-relevant event.
// Rows are never updated or deleted once written.
type Transaction struct {
	ID string `gorm:"primaryKey;type:text"` // UUID assigned at insert.

	UserID string          `gorm:"type:text;index"`            // Related user UID; empty for provider-level events.
	Type   TransactionType `gorm:"type:varchar(40);not null"`  // Event category.

	PayPalSubscriptionID string `gorm:"column:paypal_subscription_id;type:text"` // Provider subscription ID when present.
	PayPalTransactionID  string `gorm:"column:paypal_transaction_id;type:text"`  // Provider sale transaction ID when present.
	BillingAgreementID   string `gorm:"type:text"` // Billing agreement ID for sale events.

	Amount   string `gorm:"type:text"`       // Decimal amount as reported by the provider.
	Currency string `gorm:"type:varchar(8)"` // ISO currency code.

	RawPayload datatypes.JSON `gorm:"type:jsonb"` // Original provider resource for diagnostics.

	CreatedAt time.Time `gorm:"not null;autoCreateTime;index"` // Ledger timestamp.
}
