// Package front registers the public API routes consumed by the web UI.
package front

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/nextshorts/nextshorts/internal/billing"
	"github.com/nextshorts/nextshorts/internal/config"
	handlers "github.com/nextshorts/nextshorts/internal/http/api/front/handlers"
	"github.com/nextshorts/nextshorts/internal/models"
	"github.com/nextshorts/nextshorts/internal/ratelimit"
	"github.com/nextshorts/nextshorts/internal/security"
	"gorm.io/gorm"
)

// Deps carries the external collaborators the front API uses. Nil clients
// are tolerated; the affected endpoints answer 500 until configured.
type Deps struct {
	Kakao   handlers.KakaoProvider
	PayPal  handlers.SubscriptionCreator
	Trends  handlers.Analyzer
	Limiter *ratelimit.Manager
	AppURL  string
}

// RegisterFrontRoutes registers front routes, middleware, and handlers.
func RegisterFrontRoutes(r *gin.Engine, db *gorm.DB, jwtCfg config.JWTConfig, deps Deps) {
	if r == nil || db == nil {
		return
	}

	api := r.Group("/api")

	authHandler := handlers.NewKakaoAuthHandler(db, deps.Kakao, jwtCfg, deps.AppURL)
	api.GET("/auth/kakao/callback", authHandler.Callback)
	api.POST("/auth/kakao", authHandler.Login)

	webhookHandler := handlers.NewWebhookHandler(billing.NewReconciler(db))
	api.POST("/paypal/webhook", webhookHandler.Handle)

	subscriptionHandler := handlers.NewSubscriptionHandler(db, deps.PayPal, deps.AppURL)
	// PayPal redirects the subscriber here; no session token is present.
	api.GET("/paypal/subscription/success", subscriptionHandler.Success)

	authed := api.Group("")
	authed.Use(userAuthMiddleware(db, jwtCfg))

	profileHandler := handlers.NewProfileHandler(db)
	authed.GET("/me", profileHandler.Me)
	authed.POST("/paypal/subscription/create", subscriptionHandler.Create)

	metered := authed.Group("")
	metered.Use(rateLimitMiddleware(deps.Limiter))

	analysisHandler := handlers.NewAnalysisHandler(db, deps.Trends)
	metered.GET("/trend", analysisHandler.Trend)
	metered.POST("/outlier", analysisHandler.Outliers)
	metered.POST("/viral-list", analysisHandler.ViralPlans)
}

// userAuthMiddleware validates user session JWTs and loads user context.
func userAuthMiddleware(db *gorm.DB, jwtCfg config.JWTConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing authorization header"})
			return
		}

		token := strings.TrimPrefix(authHeader, "Bearer ")
		if token == authHeader {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization format"})
			return
		}
		token = strings.TrimSpace(token)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "empty token"})
			return
		}

		claims, errJWT := security.ParseUserToken(jwtCfg.Secret, token)
		if errJWT != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		var user models.User
		if errFind := db.WithContext(c.Request.Context()).First(&user, "uid = ?", claims.UID).Error; errFind != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
			return
		}
		if !user.IsActive {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "account disabled"})
			return
		}

		c.Set(handlers.ContextUserKey, &user)
		c.Next()
	}
}

// rateLimitMiddleware enforces the per-user request limit from settings.
func rateLimitMiddleware(manager *ratelimit.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		if manager == nil {
			c.Next()
			return
		}
		value, ok := c.Get(handlers.ContextUserKey)
		if !ok {
			c.Next()
			return
		}
		user, ok := value.(*models.User)
		if !ok {
			c.Next()
			return
		}

		limit := ratelimit.LoadSettingsConfig().Limit
		result, errAllow := manager.Allow(c.Request.Context(), ratelimit.KeyForUser(user.UID), limit)
		if errAllow != nil {
			// Limiter failures never block traffic.
			c.Next()
			return
		}
		if !result.Allowed {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}
		c.Next()
	}
}
