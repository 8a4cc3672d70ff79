package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nextshorts/nextshorts/internal/db"
	"github.com/nextshorts/nextshorts/internal/models"
	internalsettings "github.com/nextshorts/nextshorts/internal/settings"
	"gorm.io/gorm"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, errOpen := db.Open("file:" + filepath.Join(t.TempDir(), "handlers.db"))
	if errOpen != nil {
		t.Fatalf("open test db: %v", errOpen)
	}
	if errMigrate := db.Migrate(conn); errMigrate != nil {
		t.Fatalf("migrate test db: %v", errMigrate)
	}
	return conn
}

func seedUser(t *testing.T, conn *gorm.DB, uid string, tier models.SubscriptionTier) *models.User {
	t.Helper()
	now := time.Now().UTC()
	user := models.User{
		UID:                uid,
		Email:              uid + "@example.com",
		DisplayName:        "Test User",
		Provider:           "kakao",
		Role:               models.RoleUser,
		SubscriptionTier:   tier,
		SubscriptionStatus: models.StatusActive,
		LastResetWeek:      &now,
		LastResetMonth:     &now,
		IsActive:           true,
	}
	if errCreate := conn.Create(&user).Error; errCreate != nil {
		t.Fatalf("seed user: %v", errCreate)
	}
	return &user
}

// withUser injects the user into the request context the way the auth
// middleware does.
func withUser(user *models.User) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(ContextUserKey, user)
		c.Next()
	}
}

func resetSnapshot(t *testing.T, values map[string]json.RawMessage) {
	t.Helper()
	internalsettings.StoreDBConfig(time.Now().UTC(), values)
	t.Cleanup(func() {
		internalsettings.StoreDBConfig(time.Now().UTC(), map[string]json.RawMessage{})
	})
}

func performRequest(t *testing.T, engine *gin.Engine, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if errDecode := json.Unmarshal(rec.Body.Bytes(), &out); errDecode != nil {
		t.Fatalf("decode response body: %v", errDecode)
	}
	return out
}
