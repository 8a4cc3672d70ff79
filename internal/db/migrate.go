package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/nextshorts/nextshorts/internal/models"
	internalsettings "github.com/nextshorts/nextshorts/internal/settings"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Migrate applies schema migrations and seeds default settings.
func Migrate(conn *gorm.DB) error {
	if conn == nil {
		return fmt.Errorf("db: nil connection")
	}
	if errAutoMigrate := conn.AutoMigrate(
		&models.Admin{},
		&models.User{},
		&models.Transaction{},
		&models.Setting{},
	); errAutoMigrate != nil {
		return fmt.Errorf("db: migrate: %w", errAutoMigrate)
	}
	if errSeed := ensureDefaultSettings(conn); errSeed != nil {
		return errSeed
	}
	return nil
}

// ensureDefaultSettings inserts missing settings rows with their defaults.
func ensureDefaultSettings(conn *gorm.DB) error {
	defaults := map[string]string{
		internalsettings.FreeTrendLimitKey:    strconv.Itoa(internalsettings.DefaultFreeTrendLimit),
		internalsettings.FreeKeywordLimitKey:  strconv.Itoa(internalsettings.DefaultFreeKeywordLimit),
		internalsettings.PricingProKey:        strconv.FormatFloat(internalsettings.DefaultPricingPro, 'f', -1, 64),
		internalsettings.PricingEnterpriseKey: strconv.FormatFloat(internalsettings.DefaultPricingEnterprise, 'f', -1, 64),
	}
	for key, value := range defaults {
		var existing models.Setting
		errFind := conn.Where("key = ?", key).First(&existing).Error
		if errFind == nil {
			continue
		}
		if !errors.Is(errFind, gorm.ErrRecordNotFound) {
			return fmt.Errorf("db: read setting %s: %w", key, errFind)
		}
		row := models.Setting{Key: key, Value: datatypes.JSON(value)}
		if errCreate := conn.Create(&row).Error; errCreate != nil {
			return fmt.Errorf("db: seed setting %s: %w", key, errCreate)
		}
	}
	return nil
}

// RefreshSettingsSnapshot rebuilds the in-memory settings snapshot from the DB.
func RefreshSettingsSnapshot(ctx context.Context, conn *gorm.DB) error {
	var rows []models.Setting
	if errFind := conn.WithContext(ctx).
		Select("key", "value", "updated_at").
		Order("key ASC").
		Find(&rows).Error; errFind != nil {
		return fmt.Errorf("db: load settings: %w", errFind)
	}

	values := make(map[string]json.RawMessage, len(rows))
	maxUpdatedAt := time.Time{}
	for _, row := range rows {
		key := strings.TrimSpace(row.Key)
		if key == "" {
			continue
		}
		values[key] = json.RawMessage(row.Value)
		if rowUpdatedAt := row.UpdatedAt.UTC(); rowUpdatedAt.After(maxUpdatedAt) {
			maxUpdatedAt = rowUpdatedAt
		}
	}

	internalsettings.StoreDBConfig(maxUpdatedAt, values)
	return nil
}
