// Package billing reconciles payment-provider webhook events into persisted
// subscription state and the append-only transaction ledger, and provisions
// provider-side billing plans when pricing changes.
package billing

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Provider event type strings as delivered in webhook payloads.
const (
	EventSubscriptionActivated = "BILLING.SUBSCRIPTION.ACTIVATED"
	EventSubscriptionCancelled = "BILLING.SUBSCRIPTION.CANCELLED"
	EventSubscriptionSuspended = "BILLING.SUBSCRIPTION.SUSPENDED"
	EventSubscriptionExpired   = "BILLING.SUBSCRIPTION.EXPIRED"
	EventPaymentSaleCompleted  = "PAYMENT.SALE.COMPLETED"
)

// EventKind is the closed set of event variants the reconciler handles.
type EventKind int

// Event variants. Anything not recognized maps to KindUnknown.
const (
	KindUnknown EventKind = iota
	KindSubscriptionActivated
	KindSubscriptionCancelled
	KindSubscriptionSuspended
	KindSubscriptionExpired
	KindPaymentSaleCompleted
)

// Amount is a money value as reported by the provider.
type Amount struct {
	Total    string `json:"total"`    // Decimal string.
	Currency string `json:"currency"` // ISO currency code.
}

// Resource carries the fields of the webhook resource object this service
// consumes. CustomID correlates subscription events to a user; sale events
// carry a billing agreement ID instead.
type Resource struct {
	ID                 string  `json:"id"`
	CustomID           string  `json:"custom_id"`
	BillingAgreementID string  `json:"billing_agreement_id"`
	Amount             *Amount `json:"amount"`
}

// Event is one decoded webhook delivery.
type Event struct {
	Type     string   // Provider event type string.
	Resource Resource // Typed resource fields.

	// RawResource preserves the original resource JSON for the ledger.
	RawResource json.RawMessage
}

// Kind maps the provider event type onto the closed variant set.
func (e Event) Kind() EventKind {
	switch e.Type {
	case EventSubscriptionActivated:
		return KindSubscriptionActivated
	case EventSubscriptionCancelled:
		return KindSubscriptionCancelled
	case EventSubscriptionSuspended:
		return KindSubscriptionSuspended
	case EventSubscriptionExpired:
		return KindSubscriptionExpired
	case EventPaymentSaleCompleted:
		return KindPaymentSaleCompleted
	}
	return KindUnknown
}

// DecodeEvent parses a webhook body into an Event. Only a top-level decode
// failure is an error; unknown event types decode successfully and map to
// KindUnknown.
func DecodeEvent(body []byte) (Event, error) {
	// envelope maps the webhook delivery fields we consume.
	var envelope struct {
		EventType string          `json:"event_type"`
		Resource  json.RawMessage `json:"resource"`
	}
	if errUnmarshal := json.Unmarshal(body, &envelope); errUnmarshal != nil {
		return Event{}, fmt.Errorf("billing: decode webhook body: %w", errUnmarshal)
	}

	event := Event{
		Type:        strings.TrimSpace(envelope.EventType),
		RawResource: envelope.Resource,
	}
	if len(envelope.Resource) > 0 {
		// A malformed resource degrades to empty fields rather than failing
		// the delivery; the raw payload still reaches the ledger.
		_ = json.Unmarshal(envelope.Resource, &event.Resource)
	}
	return event, nil
}
