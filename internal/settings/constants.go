package settings

// DB config keys and defaults for settings.
const (
	// FreeTrendLimitKey controls weekly trend analyses allowed on the free tier.
	FreeTrendLimitKey = "FREE_TREND_LIMIT"
	// FreeKeywordLimitKey controls monthly keyword searches allowed on the free tier.
	FreeKeywordLimitKey = "FREE_KEYWORD_LIMIT"
	// PricingProKey is the advertised monthly price for the pro tier (USD).
	PricingProKey = "PRICING_PRO"
	// PricingEnterpriseKey is the advertised monthly price for the enterprise tier (USD).
	PricingEnterpriseKey = "PRICING_ENTERPRISE"
	// PayPalProductIDKey stores the provider-side product all plans belong to.
	PayPalProductIDKey = "PAYPAL_PRODUCT_ID"
	// PlanIDProMonthlyKey stores the provider plan ID for pro monthly billing.
	PlanIDProMonthlyKey = "PLAN_ID_PRO_MONTHLY"
	// PlanIDProAnnualKey stores the provider plan ID for pro annual billing.
	PlanIDProAnnualKey = "PLAN_ID_PRO_ANNUAL"
	// PlanIDEnterpriseMonthlyKey stores the provider plan ID for enterprise monthly billing.
	PlanIDEnterpriseMonthlyKey = "PLAN_ID_ENTERPRISE_MONTHLY"
	// PlanIDEnterpriseAnnualKey stores the provider plan ID for enterprise annual billing.
	PlanIDEnterpriseAnnualKey = "PLAN_ID_ENTERPRISE_ANNUAL"
	// RateLimitKey controls the per-user request limit per second on metered endpoints.
	RateLimitKey = "RATE_LIMIT"
	// RateLimitRedisEnabledKey toggles Redis-backed rate limiting.
	RateLimitRedisEnabledKey = "RATE_LIMIT_REDIS_ENABLED"
	// RateLimitRedisAddrKey defines the Redis address for rate limiting.
	RateLimitRedisAddrKey = "RATE_LIMIT_REDIS_ADDR"
	// RateLimitRedisPasswordKey defines the Redis password for rate limiting.
	RateLimitRedisPasswordKey = "RATE_LIMIT_REDIS_PASSWORD"
	// RateLimitRedisDBKey defines the Redis DB index for rate limiting.
	RateLimitRedisDBKey = "RATE_LIMIT_REDIS_DB"
	// RateLimitRedisPrefixKey defines the Redis key prefix for rate limiting.
	RateLimitRedisPrefixKey = "RATE_LIMIT_REDIS_PREFIX"

	// DefaultFreeTrendLimit is the fallback weekly trend analysis allowance.
	DefaultFreeTrendLimit = 3
	// DefaultFreeKeywordLimit is the fallback monthly keyword search allowance.
	DefaultFreeKeywordLimit = 5
	// DefaultPricingPro is the fallback pro monthly price (USD).
	DefaultPricingPro = 9.0
	// DefaultPricingEnterprise is the fallback enterprise monthly price (USD).
	DefaultPricingEnterprise = 99.0
	// DefaultRateLimit is the fallback request limit (0 means unlimited).
	DefaultRateLimit = 0
	// DefaultRateLimitRedisPrefix is the fallback Redis key prefix.
	DefaultRateLimitRedisPrefix = "nxs:rl"
)
