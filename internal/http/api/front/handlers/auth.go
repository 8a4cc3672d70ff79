package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nextshorts/nextshorts/internal/config"
	"github.com/nextshorts/nextshorts/internal/entitlement"
	"github.com/nextshorts/nextshorts/internal/kakao"
	"github.com/nextshorts/nextshorts/internal/models"
	"github.com/nextshorts/nextshorts/internal/security"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// KakaoProvider is the subset of the Kakao client the auth handler needs.
type KakaoProvider interface {
	ExchangeCode(ctx context.Context, code, redirectURI string) (string, error)
	UserProfile(ctx context.Context, accessToken string) (*kakao.Profile, error)
}

// KakaoAuthHandler handles Kakao OAuth login.
type KakaoAuthHandler struct {
	db     *gorm.DB
	kakao  KakaoProvider
	jwtCfg config.JWTConfig
	appURL string
}

// NewKakaoAuthHandler constructs a KakaoAuthHandler. The kakao client may be
// nil when the client ID is not configured; login then fails with 500.
func NewKakaoAuthHandler(db *gorm.DB, kakaoClient KakaoProvider, jwtCfg config.JWTConfig, appURL string) *KakaoAuthHandler {
	return &KakaoAuthHandler{
		db:     db,
		kakao:  kakaoClient,
		jwtCfg: jwtCfg,
		appURL: strings.TrimRight(strings.TrimSpace(appURL), "/"),
	}
}

// Callback handles the OAuth redirect: exchanges the code, upserts the user,
// and redirects back to the login page with a session token.
func (h *KakaoAuthHandler) Callback(c *gin.Context) {
	code := strings.TrimSpace(c.Query("code"))
	if code == "" {
		h.redirectLoginError(c, "no_code")
		return
	}
	if h.kakao == nil {
		h.redirectLoginError(c, "config_error")
		return
	}

	redirectURI := h.appURL + "/api/auth/kakao/callback"
	accessToken, errExchange := h.kakao.ExchangeCode(c.Request.Context(), code, redirectURI)
	if errExchange != nil {
		log.WithError(errExchange).Warn("kakao login: token exchange failed")
		h.redirectLoginError(c, "token_exchange")
		return
	}

	profile, errProfile := h.kakao.UserProfile(c.Request.Context(), accessToken)
	if errProfile != nil {
		log.WithError(errProfile).Warn("kakao login: profile fetch failed")
		h.redirectLoginError(c, "user_info")
		return
	}

	user, errUpsert := h.upsertUser(c.Request.Context(), profile)
	if errUpsert != nil {
		log.WithError(errUpsert).Error("kakao login: user upsert failed")
		h.redirectLoginError(c, "auth_failed")
		return
	}

	token, errSign := security.SignUserToken(h.jwtCfg.Secret, user.UID, h.jwtCfg.Expiry)
	if errSign != nil {
		log.WithError(errSign).Error("kakao login: token signing failed")
		h.redirectLoginError(c, "auth_failed")
		return
	}

	c.Redirect(http.StatusFound, h.appURL+"/login?token="+url.QueryEscape(token))
}

// loginRequest defines the request body for token-based login.
type loginRequest struct {
	AccessToken string `json:"accessToken"`
}

// Login authenticates with a Kakao access token obtained by the client and
// returns a session token as JSON.
func (h *KakaoAuthHandler) Login(c *gin.Context) {
	var body loginRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if strings.TrimSpace(body.AccessToken) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "access token is required"})
		return
	}
	if h.kakao == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "kakao login not configured"})
		return
	}

	profile, errProfile := h.kakao.UserProfile(c.Request.Context(), body.AccessToken)
	if errProfile != nil {
		log.WithError(errProfile).Warn("kakao login: profile fetch failed")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication failed"})
		return
	}

	user, errUpsert := h.upsertUser(c.Request.Context(), profile)
	if errUpsert != nil {
		log.WithError(errUpsert).Error("kakao login: user upsert failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "authentication failed"})
		return
	}

	token, errSign := security.SignUserToken(h.jwtCfg.Secret, user.UID, h.jwtCfg.Expiry)
	if errSign != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "authentication failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"user": gin.H{
			"uid":          user.UID,
			"email":        user.Email,
			"display_name": user.DisplayName,
			"photo_url":    user.PhotoURL,
		},
	})
}

// upsertUser creates the account on first login with free-tier defaults, or
// refreshes profile fields on subsequent logins. Stale usage counters are
// reset here; there is no background scheduler.
func (h *KakaoAuthHandler) upsertUser(ctx context.Context, profile *kakao.Profile) (*models.User, error) {
	var user models.User
	errFind := h.db.WithContext(ctx).First(&user, "uid = ?", profile.UID).Error
	if errFind == nil {
		updates := map[string]any{
			"display_name": profile.DisplayName,
			"photo_url":    profile.PhotoURL,
			"updated_at":   time.Now().UTC(),
		}
		if profile.Email != "" {
			updates["email"] = profile.Email
		}
		if errUpdate := h.db.WithContext(ctx).Model(&models.User{}).
			Where("uid = ?", user.UID).
			Updates(updates).Error; errUpdate != nil {
			return nil, errUpdate
		}
		if errReset := entitlement.ResetStaleCounters(ctx, h.db, &user); errReset != nil {
			return nil, errReset
		}
		return &user, nil
	}
	if !errors.Is(errFind, gorm.ErrRecordNotFound) {
		return nil, errFind
	}

	now := time.Now().UTC()
	user = models.User{
		UID:                profile.UID,
		Email:              profile.Email,
		DisplayName:        profile.DisplayName,
		PhotoURL:           profile.PhotoURL,
		Provider:           "kakao",
		Role:               models.RoleUser,
		SubscriptionTier:   models.TierFree,
		SubscriptionStatus: models.StatusActive,
		LastResetWeek:      &now,
		LastResetMonth:     &now,
		IsActive:           true,
	}
	if errCreate := h.db.WithContext(ctx).Create(&user).Error; errCreate != nil {
		return nil, errCreate
	}
	return &user, nil
}

func (h *KakaoAuthHandler) redirectLoginError(c *gin.Context, reason string) {
	c.Redirect(http.StatusFound, h.appURL+"/login?error="+url.QueryEscape(reason))
}
