// Package app boots the API server from resolved configuration.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nextshorts/nextshorts/internal/billing"
	"github.com/nextshorts/nextshorts/internal/config"
	"github.com/nextshorts/nextshorts/internal/db"
	"github.com/nextshorts/nextshorts/internal/gemini"
	"github.com/nextshorts/nextshorts/internal/http/api/admin"
	"github.com/nextshorts/nextshorts/internal/http/api/front"
	"github.com/nextshorts/nextshorts/internal/kakao"
	"github.com/nextshorts/nextshorts/internal/models"
	"github.com/nextshorts/nextshorts/internal/paypal"
	"github.com/nextshorts/nextshorts/internal/ratelimit"
	"github.com/nextshorts/nextshorts/internal/security"
	"github.com/nextshorts/nextshorts/internal/trends"
	"github.com/nextshorts/nextshorts/internal/youtube"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Migrate opens the database and runs migrations.
func Migrate(ctx context.Context, cfg config.AppConfig) error {
	configPath := config.ResolveConfigPath(cfg.ConfigPath)
	dsn, err := config.LoadDatabaseDSN(configPath)
	if err != nil {
		return err
	}
	conn, err := db.Open(dsn)
	if err != nil {
		return err
	}
	return db.Migrate(conn)
}

// RunServer boots the API server with database-backed components.
func RunServer(ctx context.Context, cfg config.AppConfig, port int) error {
	configPath := config.ResolveConfigPath(cfg.ConfigPath)
	dsn, err := config.LoadDatabaseDSN(configPath)
	if err != nil {
		return err
	}
	conn, err := db.Open(dsn)
	if err != nil {
		return err
	}
	if errMigrate := db.Migrate(conn); errMigrate != nil {
		return errMigrate
	}
	if errRefresh := db.RefreshSettingsSnapshot(ctx, conn); errRefresh != nil {
		return errRefresh
	}

	jwtConfig, _ := config.LoadJWTConfig(configPath)
	providerConfig, _ := config.LoadProviderConfig(configPath)

	deps := buildFrontDeps(providerConfig)
	provisioner := buildProvisioner(conn, providerConfig)

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	front.RegisterFrontRoutes(engine, conn, jwtConfig, deps)
	admin.RegisterAdminRoutes(engine, conn, jwtConfig, provisioner)

	addr := fmt.Sprintf(":%d", port)
	srv := &http.Server{
		Addr:    addr,
		Handler: engine,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if errShutdown := srv.Shutdown(shutdownCtx); errShutdown != nil {
			log.Errorf("server shutdown error: %v", errShutdown)
		}
	}()

	log.Infof("starting server on %s with config=%s", addr, configPath)
	if errListen := srv.ListenAndServe(); errListen != nil && !errors.Is(errListen, http.ErrServerClosed) {
		return errListen
	}
	return nil
}

// buildFrontDeps constructs the external clients the front API uses. A client
// with missing credentials stays nil; its endpoints answer 500 until the
// operator configures it.
func buildFrontDeps(providerConfig config.ProviderConfig) front.Deps {
	deps := front.Deps{
		Limiter: ratelimit.NewManager(nil, nil, nil),
		AppURL:  providerConfig.AppURL,
	}

	if kakaoClient, errKakao := kakao.New(providerConfig.KakaoClientID); errKakao != nil {
		log.WithError(errKakao).Warn("kakao login disabled")
	} else {
		deps.Kakao = kakaoClient
	}

	if paypalClient, errPayPal := paypal.New(providerConfig); errPayPal != nil {
		log.WithError(errPayPal).Warn("subscriptions disabled")
	} else {
		deps.PayPal = paypalClient
	}

	youtubeClient, errYouTube := youtube.New(providerConfig.YouTubeAPIKey)
	geminiClient, errGemini := gemini.New(providerConfig.GeminiAPIKey)
	if errYouTube != nil || errGemini != nil {
		log.Warn("trend analysis disabled, missing youtube or gemini credentials")
	} else {
		deps.Trends = trends.NewService(youtubeClient, geminiClient)
	}

	return deps
}

// buildProvisioner wires the price-change workflow when PayPal is configured.
func buildProvisioner(conn *gorm.DB, providerConfig config.ProviderConfig) *billing.Provisioner {
	paypalClient, errPayPal := paypal.New(providerConfig)
	if errPayPal != nil {
		return nil
	}
	return billing.NewProvisioner(conn, paypalClient)
}

// CreateAdminUser creates an operator account for the dashboard.
func CreateAdminUser(ctx context.Context, cfg config.AppConfig, username, password string) error {
	configPath := config.ResolveConfigPath(cfg.ConfigPath)
	dsn, err := config.LoadDatabaseDSN(configPath)
	if err != nil {
		return err
	}
	conn, err := db.Open(dsn)
	if err != nil {
		return err
	}
	if errMigrate := db.Migrate(conn); errMigrate != nil {
		return errMigrate
	}
	return CreateAdminUserWithConn(conn, username, password)
}

// CreateAdminUserWithConn creates an operator account on an open connection.
func CreateAdminUserWithConn(conn *gorm.DB, username, password string) error {
	if conn == nil {
		return fmt.Errorf("open database: nil connection")
	}
	username = strings.TrimSpace(username)
	if username == "" {
		return fmt.Errorf("admin username is required")
	}
	if len(password) < 6 {
		return fmt.Errorf("admin password must be at least 6 characters")
	}

	hashedPassword, errHash := security.HashPassword(password)
	if errHash != nil {
		return fmt.Errorf("hash password: %w", errHash)
	}

	now := time.Now().UTC()
	adminUser := models.Admin{
		Username:  username,
		Password:  hashedPassword,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if errCreate := conn.Create(&adminUser).Error; errCreate != nil {
		return fmt.Errorf("create admin: %w", errCreate)
	}
	return nil
}
