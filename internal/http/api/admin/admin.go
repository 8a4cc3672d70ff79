// Package admin registers the operator dashboard API routes.
package admin

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/nextshorts/nextshorts/internal/billing"
	"github.com/nextshorts/nextshorts/internal/config"
	handlers "github.com/nextshorts/nextshorts/internal/http/api/admin/handlers"
	"github.com/nextshorts/nextshorts/internal/models"
	"github.com/nextshorts/nextshorts/internal/security"
	"gorm.io/gorm"
)

// RegisterAdminRoutes registers admin routes, middleware, and handlers.
func RegisterAdminRoutes(r *gin.Engine, db *gorm.DB, jwtCfg config.JWTConfig, provisioner *billing.Provisioner) {
	if r == nil || db == nil {
		return
	}

	healthHandler := handlers.NewHealthHandler(db)
	r.GET("/healthz", healthHandler.Healthz)

	v0 := r.Group("/v0/admin")

	authHandler := handlers.NewAuthHandler(db, jwtCfg)
	v0.POST("/login", authHandler.Login)

	authed := v0.Group("")
	authed.Use(adminAuthMiddleware(db, jwtCfg))

	dashboardHandler := handlers.NewDashboardHandler(db)
	authed.GET("/dashboard", dashboardHandler.Stats)

	userHandler := handlers.NewUserHandler(db)
	authed.GET("/users", userHandler.List)
	authed.GET("/users/:uid", userHandler.Get)
	authed.PUT("/users/:uid/tier", userHandler.ChangeTier)
	authed.POST("/users/:uid/disable", userHandler.Disable)
	authed.POST("/users/:uid/enable", userHandler.Enable)

	transactionHandler := handlers.NewTransactionHandler(db)
	authed.GET("/transactions", transactionHandler.List)

	settingHandler := handlers.NewSettingHandler(db)
	authed.GET("/settings", settingHandler.List)
	authed.PUT("/settings", settingHandler.Update)

	pricingHandler := handlers.NewPricingHandler(provisioner)
	authed.POST("/pricing", pricingHandler.Change)
}

// adminAuthMiddleware validates admin session JWTs and loads admin context.
func adminAuthMiddleware(db *gorm.DB, jwtCfg config.JWTConfig) gin.HandlerFunc {
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

		claims, errJWT := security.ParseAdminToken(jwtCfg.Secret, token)
		if errJWT != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		var admin models.Admin
		if errFind := db.WithContext(c.Request.Context()).First(&admin, "id = ?", claims.AdminID).Error; errFind != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "admin not found"})
			return
		}
		if !admin.Active {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "account disabled"})
			return
		}

		c.Set("adminUsername", admin.Username)
		c.Next()
	}
}
