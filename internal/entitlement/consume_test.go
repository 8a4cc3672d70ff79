package entitlement

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/nextshorts/nextshorts/internal/db"
	"github.com/nextshorts/nextshorts/internal/models"
	"gorm.io/gorm"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := db.Open("file:" + filepath.Join(t.TempDir(), "nxs-test.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if errMigrate := db.Migrate(conn); errMigrate != nil {
		t.Fatalf("migrate: %v", errMigrate)
	}
	return conn
}

func seedUser(t *testing.T, conn *gorm.DB, user models.User) {
	t.Helper()
	if errCreate := conn.Create(&user).Error; errCreate != nil {
		t.Fatalf("seed user: %v", errCreate)
	}
}

func TestConsume_IncrementsUntilLimit(t *testing.T) {
	conn := openTestDB(t)
	seedUser(t, conn, models.User{
		UID:                "u1",
		SubscriptionTier:   models.TierFree,
		SubscriptionStatus: models.StatusActive,
		IsActive:           true,
	})

	limits := Limits{Trend: 3, Keyword: 5}
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		got, err := Consume(ctx, conn, "u1", ActionTrend, limits)
		if err != nil {
			t.Fatalf("consume %d: %v", i, err)
		}
		if !got.Allowed || got.Current != i {
			t.Fatalf("consume %d: expected allowed with current=%d, got %+v", i, i, got)
		}
	}

	// Fourth attempt must be denied and leave the counter at the limit.
	got, err := Consume(ctx, conn, "u1", ActionTrend, limits)
	if err != nil {
		t.Fatalf("consume past limit: %v", err)
	}
	if got.Allowed || got.Current != 3 || got.Limit != 3 {
		t.Fatalf("expected denial at limit, got %+v", got)
	}

	var user models.User
	if errFind := conn.First(&user, "uid = ?", "u1").Error; errFind != nil {
		t.Fatalf("reload user: %v", errFind)
	}
	if user.TrendAnalysesThisWeek != 3 {
		t.Fatalf("expected counter pinned at 3, got %d", user.TrendAnalysesThisWeek)
	}
}

func TestConsume_ReportsPersistedCounter(t *testing.T) {
	conn := openTestDB(t)
	seedUser(t, conn, models.User{
		UID:                   "u5",
		SubscriptionTier:      models.TierFree,
		SubscriptionStatus:    models.StatusActive,
		IsActive:              true,
		TrendAnalysesThisWeek: 2,
	})

	got, err := Consume(context.Background(), conn, "u5", ActionTrend, Limits{Trend: 10, Keyword: 5})
	if err != nil {
		t.Fatalf("consume: %v", err)
	}
	if !got.Allowed || got.Current != 3 {
		t.Fatalf("expected allowed with current=3, got %+v", got)
	}

	// The reported count is read back from the updated row, not derived
	// from the pre-update snapshot.
	var user models.User
	if errFind := conn.First(&user, "uid = ?", "u5").Error; errFind != nil {
		t.Fatalf("reload user: %v", errFind)
	}
	if user.TrendAnalysesThisWeek != got.Current {
		t.Fatalf("reported current %d must match persisted counter %d", got.Current, user.TrendAnalysesThisWeek)
	}
}

func TestConsume_PaidTierSkipsCounter(t *testing.T) {
	conn := openTestDB(t)
	seedUser(t, conn, models.User{
		UID:                "u2",
		SubscriptionTier:   models.TierPro,
		SubscriptionStatus: models.StatusActive,
		IsActive:           true,
	})

	got, err := Consume(context.Background(), conn, "u2", ActionKeyword, Limits{Trend: 3, Keyword: 5})
	if err != nil {
		t.Fatalf("consume: %v", err)
	}
	if !got.Allowed || got.Limit != UnlimitedLimit {
		t.Fatalf("expected unlimited result, got %+v", got)
	}

	var user models.User
	if errFind := conn.First(&user, "uid = ?", "u2").Error; errFind != nil {
		t.Fatalf("reload user: %v", errFind)
	}
	if user.KeywordSearchesThisMonth != 0 {
		t.Fatalf("paid tier consume must not touch counters, got %d", user.KeywordSearchesThisMonth)
	}
}

func TestConsume_MissingUserFailsClosed(t *testing.T) {
	conn := openTestDB(t)
	got, err := Consume(context.Background(), conn, "ghost", ActionTrend, Limits{Trend: 3, Keyword: 5})
	if err != nil {
		t.Fatalf("consume: %v", err)
	}
	if got.Allowed || got.Current != 0 || got.Limit != 0 {
		t.Fatalf("expected fail-closed result, got %+v", got)
	}
}

func TestConsume_DeactivatedUserFailsClosed(t *testing.T) {
	conn := openTestDB(t)
	seedUser(t, conn, models.User{
		UID:                "u3",
		SubscriptionTier:   models.TierPro,
		SubscriptionStatus: models.StatusActive,
		IsActive:           false,
	})

	got, err := Consume(context.Background(), conn, "u3", ActionTrend, Limits{Trend: 3, Keyword: 5})
	if err != nil {
		t.Fatalf("consume: %v", err)
	}
	if got.Allowed {
		t.Fatalf("kill-switched user must be denied, got %+v", got)
	}
}
