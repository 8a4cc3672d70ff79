package entitlement

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nextshorts/nextshorts/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Consume atomically checks the quota and increments the usage counter for a
// free-tier user in one conditional update, so two concurrent requests cannot
// both pass at the boundary. Paid tiers pass through without touching any
// counter. A missing or deactivated user fails closed without error.
func Consume(ctx context.Context, conn *gorm.DB, uid string, kind ActionKind, limits Limits) (Result, error) {
	var user models.User
	errFind := conn.WithContext(ctx).First(&user, "uid = ?", uid).Error
	if errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return Result{Allowed: false, Current: 0, Limit: 0}, nil
		}
		return Result{}, fmt.Errorf("entitlement: load user: %w", errFind)
	}
	if !user.IsActive {
		return Result{Allowed: false, Current: 0, Limit: 0}, nil
	}

	if IsPro(&user) {
		return Result{Allowed: true, Current: 0, Limit: UnlimitedLimit}, nil
	}

	column, limit, okKind := counterFor(kind, limits)
	if !okKind {
		return Result{Allowed: false, Current: 0, Limit: 0}, nil
	}

	var updated models.User
	res := conn.WithContext(ctx).Model(&updated).
		Clauses(clause.Returning{}).
		Where("uid = ? AND "+column+" < ?", uid, limit).
		UpdateColumns(map[string]any{
			column:       gorm.Expr(column + " + 1"),
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return Result{}, fmt.Errorf("entitlement: consume %s: %w", kind, res.Error)
	}
	if res.RowsAffected == 0 {
		current := currentCounter(ctx, conn, uid, kind, &user)
		return Result{Allowed: false, Current: current, Limit: limit}, nil
	}

	// RETURNING hands back the post-update row, so Current stays exact when
	// another request incremented between the initial read and the update.
	current := counterValue(&updated, kind)
	if current == 0 {
		current = counterValue(&user, kind) + 1
	}
	return Result{Allowed: true, Current: current, Limit: limit}, nil
}

func counterFor(kind ActionKind, limits Limits) (string, int, bool) {
	switch kind {
	case ActionTrend:
		return "trend_analyses_this_week", limits.Trend, true
	case ActionKeyword:
		return "keyword_searches_this_month", limits.Keyword, true
	}
	return "", 0, false
}

func counterValue(user *models.User, kind ActionKind) int {
	switch kind {
	case ActionTrend:
		return user.TrendAnalysesThisWeek
	case ActionKeyword:
		return user.KeywordSearchesThisMonth
	}
	return 0
}

// currentCounter re-reads the counter after a denied consume so the caller
// reports an accurate count; falls back to the stale read on query failure.
func currentCounter(ctx context.Context, conn *gorm.DB, uid string, kind ActionKind, stale *models.User) int {
	var fresh models.User
	if errFind := conn.WithContext(ctx).First(&fresh, "uid = ?", uid).Error; errFind == nil {
		return counterValue(&fresh, kind)
	}
	return counterValue(stale, kind)
}

// ResetStaleCounters zeroes usage counters whose rolling window has elapsed.
// Called on login rather than by a scheduler; the original design leaves the
// reset mechanism to the caller.
func ResetStaleCounters(ctx context.Context, conn *gorm.DB, user *models.User) error {
	if user == nil {
		return nil
	}
	now := time.Now().UTC()
	updates := map[string]any{}

	if user.LastResetWeek == nil || now.Sub(*user.LastResetWeek) >= 7*24*time.Hour {
		updates["trend_analyses_this_week"] = 0
		updates["last_reset_week"] = now
	}
	if user.LastResetMonth == nil || now.Sub(*user.LastResetMonth) >= 30*24*time.Hour {
		updates["keyword_searches_this_month"] = 0
		updates["last_reset_month"] = now
	}
	if len(updates) == 0 {
		return nil
	}
	updates["updated_at"] = now

	if errUpdate := conn.WithContext(ctx).Model(&models.User{}).
		Where("uid = ?", user.UID).
		UpdateColumns(updates).Error; errUpdate != nil {
		return fmt.Errorf("entitlement: reset counters: %w", errUpdate)
	}

	if _, ok := updates["trend_analyses_this_week"]; ok {
		user.TrendAnalysesThisWeek = 0
		user.LastResetWeek = &now
	}
	if _, ok := updates["keyword_searches_this_month"]; ok {
		user.KeywordSearchesThisMonth = 0
		user.LastResetMonth = &now
	}
	return nil
}
