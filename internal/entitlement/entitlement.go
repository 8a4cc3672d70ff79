// Package entitlement decides whether a metered action is allowed for a user
// and what quota remains. Evaluation is pure; the transactional consume path
// lives in consume.go.
package entitlement

import (
	"github.com/nextshorts/nextshorts/internal/models"
	internalsettings "github.com/nextshorts/nextshorts/internal/settings"
)

// ActionKind identifies a metered action.
type ActionKind string

// Metered action kinds.
const (
	// ActionTrend is one trend analysis run.
	ActionTrend ActionKind = "trend"
	// ActionKeyword is one keyword outlier search.
	ActionKeyword ActionKind = "keyword"
)

// UnlimitedLimit is the sentinel limit for tiers without metering.
const UnlimitedLimit = -1

// Limits carries the free-tier thresholds, injected at call time so the
// evaluator never reads ambient state.
type Limits struct {
	Trend   int // Weekly trend analyses allowed on the free tier.
	Keyword int // Monthly keyword searches allowed on the free tier.
}

// LimitsFromSettings builds Limits from the current settings snapshot.
func LimitsFromSettings() Limits {
	return Limits{
		Trend:   internalsettings.IntValue(internalsettings.FreeTrendLimitKey, internalsettings.DefaultFreeTrendLimit),
		Keyword: internalsettings.IntValue(internalsettings.FreeKeywordLimitKey, internalsettings.DefaultFreeKeywordLimit),
	}
}

// Result is the outcome of an entitlement check.
type Result struct {
	Allowed bool `json:"allowed"` // Whether the action may proceed.
	Current int  `json:"current"` // Counter value at evaluation time.
	Limit   int  `json:"limit"`   // Applicable limit; -1 means unlimited.
}

// CheckUsageLimit reports whether the user may perform the metered action and
// what quota remains. It never errors: a nil user or unknown action kind
// yields the most restrictive outcome.
func CheckUsageLimit(user *models.User, kind ActionKind, limits Limits) Result {
	if user == nil {
		return Result{Allowed: false, Current: 0, Limit: 0}
	}

	// Paid tiers are unmetered regardless of subscription status.
	if IsPro(user) {
		return Result{Allowed: true, Current: 0, Limit: UnlimitedLimit}
	}

	switch kind {
	case ActionTrend:
		current := user.TrendAnalysesThisWeek
		return Result{Allowed: current < limits.Trend, Current: current, Limit: limits.Trend}
	case ActionKeyword:
		current := user.KeywordSearchesThisMonth
		return Result{Allowed: current < limits.Keyword, Current: current, Limit: limits.Keyword}
	}
	return Result{Allowed: false, Current: 0, Limit: 0}
}

// IsPro reports whether the user is on a paid tier (pro or enterprise).
func IsPro(user *models.User) bool {
	if user == nil {
		return false
	}
	return user.SubscriptionTier == models.TierPro || user.SubscriptionTier == models.TierEnterprise
}

// IsEnterprise reports whether the user is on the enterprise tier.
func IsEnterprise(user *models.User) bool {
	if user == nil {
		return false
	}
	return user.SubscriptionTier == models.TierEnterprise
}

// IsActive reports whether the subscription is in good standing.
func IsActive(user *models.User) bool {
	if user == nil {
		return false
	}
	return user.SubscriptionStatus == models.StatusActive
}

// FeatureTier identifies a gated feature level.
type FeatureTier string

// Feature levels for CanAccess.
const (
	// FeatureBasic is available to every account.
	FeatureBasic FeatureTier = "basic"
	// FeaturePro requires an active pro or enterprise subscription.
	FeaturePro FeatureTier = "pro"
	// FeatureEnterprise requires an active enterprise subscription.
	FeatureEnterprise FeatureTier = "enterprise"
)

// CanAccess reports whether the user may use a feature at the given level.
func CanAccess(user *models.User, feature FeatureTier) bool {
	if user == nil {
		return false
	}
	switch feature {
	case FeatureBasic:
		return true
	case FeaturePro:
		return IsPro(user) && IsActive(user)
	case FeatureEnterprise:
		return IsEnterprise(user) && IsActive(user)
	}
	return false
}
