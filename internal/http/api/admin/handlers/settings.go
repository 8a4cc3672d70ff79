package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	internaldb "github.com/nextshorts/nextshorts/internal/db"
	"github.com/nextshorts/nextshorts/internal/models"
	internalsettings "github.com/nextshorts/nextshorts/internal/settings"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// settingValidators maps each editable key to its value check. Keys absent
// from this map cannot be written through the API.
var settingValidators = map[string]func(raw json.RawMessage) error{
	internalsettings.FreeTrendLimitKey:         validateNonNegativeInt,
	internalsettings.FreeKeywordLimitKey:       validateNonNegativeInt,
	internalsettings.PricingProKey:             validatePositiveNumber,
	internalsettings.PricingEnterpriseKey:      validatePositiveNumber,
	internalsettings.RateLimitKey:              validateNonNegativeInt,
	internalsettings.RateLimitRedisEnabledKey:  validateBool,
	internalsettings.RateLimitRedisAddrKey:     validateString,
	internalsettings.RateLimitRedisPasswordKey: validateString,
	internalsettings.RateLimitRedisDBKey:       validateNonNegativeInt,
	internalsettings.RateLimitRedisPrefixKey:   validateString,
}

// SettingHandler reads and updates global configuration rows.
type SettingHandler struct {
	db *gorm.DB
}

// NewSettingHandler constructs a SettingHandler.
func NewSettingHandler(db *gorm.DB) *SettingHandler {
	return &SettingHandler{db: db}
}

// List returns every stored setting as raw JSON keyed by name.
func (h *SettingHandler) List(c *gin.Context) {
	var rows []models.Setting
	if errFind := h.db.WithContext(c.Request.Context()).Find(&rows).Error; errFind != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list settings failed"})
		return
	}

	out := make(map[string]json.RawMessage, len(rows))
	for _, row := range rows {
		out[row.Key] = json.RawMessage(row.Value)
	}
	c.JSON(http.StatusOK, gin.H{"settings": out})
}

// Update merges the submitted keys into the settings table. Validation runs
// over the whole body before any write, so a bad key leaves the table
// untouched. The in-process snapshot is refreshed after a successful write.
func (h *SettingHandler) Update(c *gin.Context) {
	var body map[string]json.RawMessage
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if len(body) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no settings provided"})
		return
	}

	for key, raw := range body {
		validate, known := settingValidators[key]
		if !known {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("unknown setting %q", key)})
			return
		}
		if errValidate := validate(raw); errValidate != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid value for %s: %s", key, errValidate)})
			return
		}
	}

	ctx := c.Request.Context()
	for key, raw := range body {
		if errWrite := writeSetting(ctx, h.db, key, raw); errWrite != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "write setting failed"})
			return
		}
	}
	if errRefresh := internaldb.RefreshSettingsSnapshot(ctx, h.db); errRefresh != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "refresh settings failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"updated": len(body)})
}

// writeSetting upserts one settings row.
func writeSetting(ctx context.Context, conn *gorm.DB, key string, raw json.RawMessage) error {
	var existing models.Setting
	errFind := conn.WithContext(ctx).Where("key = ?", key).First(&existing).Error
	if errFind == nil {
		return conn.WithContext(ctx).Model(&models.Setting{}).
			Where("key = ?", key).
			Update("value", datatypes.JSON(raw)).Error
	}
	if !errors.Is(errFind, gorm.ErrRecordNotFound) {
		return errFind
	}
	row := models.Setting{Key: key, Value: datatypes.JSON(raw)}
	return conn.WithContext(ctx).Create(&row).Error
}

func validateNonNegativeInt(raw json.RawMessage) error {
	var value int
	if errParse := json.Unmarshal(raw, &value); errParse != nil {
		return errors.New("expected an integer")
	}
	if value < 0 {
		return errors.New("must not be negative")
	}
	return nil
}

func validatePositiveNumber(raw json.RawMessage) error {
	var value float64
	if errParse := json.Unmarshal(raw, &value); errParse != nil {
		return errors.New("expected a number")
	}
	if value <= 0 {
		return errors.New("must be positive")
	}
	return nil
}

func validateBool(raw json.RawMessage) error {
	var value bool
	if errParse := json.Unmarshal(raw, &value); errParse != nil {
		return errors.New("expected a boolean")
	}
	return nil
}

func validateString(raw json.RawMessage) error {
	var value string
	if errParse := json.Unmarshal(raw, &value); errParse != nil {
		return errors.New("expected a string")
	}
	return nil
}
