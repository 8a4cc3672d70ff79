package models

import "time"

// SubscriptionTier identifies the paid level of an account.
type SubscriptionTier string

// Subscription tiers supported by the platform.
const (
	// TierFree is the default tier with metered usage.
	TierFree SubscriptionTier = "free"
	// TierPro removes usage metering.
	TierPro SubscriptionTier = "pro"
	// TierEnterprise removes usage metering and unlocks team features.
	TierEnterprise SubscriptionTier = "enterprise"
)

// SubscriptionStatus identifies the lifecycle state of a subscription.
type SubscriptionStatus string

// Subscription lifecycle states.
const (
	// StatusActive marks a subscription in good standing.
	StatusActive SubscriptionStatus = "active"
	// StatusCanceled marks a subscription the user has cancelled.
	StatusCanceled SubscriptionStatus = "canceled"
	// StatusTrial marks a trial subscription.
	StatusTrial SubscriptionStatus = "trial"
	// StatusSuspended marks a subscription paused by the payment provider.
	StatusSuspended SubscriptionStatus = "suspended"
	// StatusExpired marks a subscription past its paid period.
	StatusExpired SubscriptionStatus = "expired"
)

// User roles.
const (
	// RoleUser is a regular platform account.
	RoleUser = "user"
	// RoleAdmin can access the operator dashboard.
	RoleAdmin = "admin"
)

// User represents one platform account stored in the database.
type User struct {
	UID string `gorm:"primaryKey;type:text"` // Identity provider scoped ID, e.g. "kakao_123".

	Email       string `gorm:"type:text;index"`                          // Email address, may be empty.
	DisplayName string `gorm:"type:text"`                                // Display name from the identity provider.
	PhotoURL    string `gorm:"type:text"`                                // Profile image URL.
	Provider    string `gorm:"type:text"`                                // Identity provider name.
	Role        string `gorm:"type:varchar(20);not null;default:'user'"` // user | admin.

	SubscriptionTier     SubscriptionTier   `gorm:"type:varchar(20);not null;default:'free';index"` // Paid level.
	SubscriptionStatus   SubscriptionStatus `gorm:"type:varchar(20);not null;default:'active'"`     // Lifecycle state.
	SubscriptionStarted  *time.Time         // When the current subscription started.
	PayPalSubscriptionID string             `gorm:"column:paypal_subscription_id;type:text;index"` // Provider-side subscription ID.
	AutoRenew            bool               `gorm:"not null;default:false"` // Whether the provider renews automatically.

	TrendAnalysesThisWeek    int        `gorm:"not null;default:0"` // Rolling weekly trend analysis counter.
	KeywordSearchesThisMonth int        `gorm:"not null;default:0"` // Rolling monthly keyword search counter.
	LastResetWeek            *time.Time // Last weekly counter reset.
	LastResetMonth           *time.Time // Last monthly counter reset.

	IsActive bool `gorm:"not null;default:true"` // Administrative kill switch, independent of subscription status.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}
