package billing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/nextshorts/nextshorts/internal/db"
	"github.com/nextshorts/nextshorts/internal/models"
	"github.com/nextshorts/nextshorts/internal/paypal"
	internalsettings "github.com/nextshorts/nextshorts/internal/settings"
	log "github.com/sirupsen/logrus"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// annualPriceFactor converts a monthly price into the annual plan price
// (two months free).
const annualPriceFactor = 10

// productName is the provider-side product all plans are created under.
const productName = "Next Shorts"

// PlanCreator is the subset of the PayPal client the provisioner needs.
type PlanCreator interface {
	CreateProduct(ctx context.Context, name, description string) (string, error)
	CreatePlan(ctx context.Context, spec paypal.PlanSpec) (string, error)
}

// Provisioner runs the operator price-change workflow: create new provider
// plans for a tier, then persist the plan IDs and price. A failed step leaves
// previously persisted settings untouched; the operator retries manually.
type Provisioner struct {
	db     *gorm.DB
	client PlanCreator
}

// NewProvisioner constructs a Provisioner.
func NewProvisioner(conn *gorm.DB, client PlanCreator) *Provisioner {
	return &Provisioner{db: conn, client: client}
}

// PriceChange describes a requested tier price update.
type PriceChange struct {
	Tier         models.SubscriptionTier
	MonthlyPrice float64
}

// PlanPreview describes what Execute would create, for operator confirmation.
type PlanPreview struct {
	Tier         models.SubscriptionTier `json:"tier"`
	MonthlyPrice float64                 `json:"monthly_price"`
	AnnualPrice  float64                 `json:"annual_price"`
	MonthlyName  string                  `json:"monthly_name"`
	AnnualName   string                  `json:"annual_name"`
}

// ProvisionResult reports the provider IDs created by Execute.
type ProvisionResult struct {
	ProductID     string  `json:"product_id"`
	MonthlyPlanID string  `json:"monthly_plan_id"`
	AnnualPlanID  string  `json:"annual_plan_id"`
	MonthlyPrice  float64 `json:"monthly_price"`
	AnnualPrice   float64 `json:"annual_price"`
}

// ErrInvalidPriceChange indicates a tier or price that cannot be provisioned.
var ErrInvalidPriceChange = errors.New("billing: price change requires a paid tier and a positive price")

// Preview validates the change and returns what Execute would create.
func (p *Provisioner) Preview(change PriceChange) (PlanPreview, error) {
	if errValidate := validateChange(change); errValidate != nil {
		return PlanPreview{}, errValidate
	}
	tierName := tierDisplayName(change.Tier)
	return PlanPreview{
		Tier:         change.Tier,
		MonthlyPrice: change.MonthlyPrice,
		AnnualPrice:  change.MonthlyPrice * annualPriceFactor,
		MonthlyName:  tierName + " Monthly",
		AnnualName:   tierName + " Annual",
	}, nil
}

// Execute creates the provider plans and persists the outcome. The product is
// created first when no product ID is stored yet; plan IDs and the new price
// are persisted only after both plan creations succeed.
func (p *Provisioner) Execute(ctx context.Context, change PriceChange) (ProvisionResult, error) {
	if errValidate := validateChange(change); errValidate != nil {
		return ProvisionResult{}, errValidate
	}

	productID, errProduct := p.ensureProduct(ctx)
	if errProduct != nil {
		return ProvisionResult{}, errProduct
	}

	tierName := tierDisplayName(change.Tier)
	annualPrice := change.MonthlyPrice * annualPriceFactor

	monthlyPlanID, errMonthly := p.client.CreatePlan(ctx, paypal.PlanSpec{
		ProductID:    productID,
		Name:         tierName + " Monthly",
		Description:  tierName + " tier, billed monthly",
		Price:        change.MonthlyPrice,
		IntervalUnit: paypal.IntervalMonth,
	})
	if errMonthly != nil {
		return ProvisionResult{}, fmt.Errorf("billing: create monthly plan: %w", errMonthly)
	}

	annualPlanID, errAnnual := p.client.CreatePlan(ctx, paypal.PlanSpec{
		ProductID:    productID,
		Name:         tierName + " Annual",
		Description:  tierName + " tier, billed annually",
		Price:        annualPrice,
		IntervalUnit: paypal.IntervalYear,
	})
	if errAnnual != nil {
		return ProvisionResult{}, fmt.Errorf("billing: create annual plan: %w", errAnnual)
	}

	monthlyKey, annualKey, pricingKey := settingKeysFor(change.Tier)
	writes := []struct {
		key   string
		value any
	}{
		{monthlyKey, monthlyPlanID},
		{annualKey, annualPlanID},
		{pricingKey, change.MonthlyPrice},
	}
	for _, write := range writes {
		if errUpsert := upsertSetting(ctx, p.db, write.key, write.value); errUpsert != nil {
			return ProvisionResult{}, errUpsert
		}
	}
	if errRefresh := db.RefreshSettingsSnapshot(ctx, p.db); errRefresh != nil {
		return ProvisionResult{}, errRefresh
	}

	log.WithField("tier", change.Tier).
		WithField("monthly_plan_id", monthlyPlanID).
		WithField("annual_plan_id", annualPlanID).
		Info("billing: provisioned new plans")

	return ProvisionResult{
		ProductID:     productID,
		MonthlyPlanID: monthlyPlanID,
		AnnualPlanID:  annualPlanID,
		MonthlyPrice:  change.MonthlyPrice,
		AnnualPrice:   annualPrice,
	}, nil
}

// ensureProduct returns the stored product ID, creating and persisting the
// provider product on first use.
func (p *Provisioner) ensureProduct(ctx context.Context) (string, error) {
	if productID := internalsettings.StringValue(internalsettings.PayPalProductIDKey, ""); productID != "" {
		return productID, nil
	}

	productID, errCreate := p.client.CreateProduct(ctx, productName, "Subscription Product")
	if errCreate != nil {
		return "", fmt.Errorf("billing: create product: %w", errCreate)
	}
	if errUpsert := upsertSetting(ctx, p.db, internalsettings.PayPalProductIDKey, productID); errUpsert != nil {
		return "", errUpsert
	}
	if errRefresh := db.RefreshSettingsSnapshot(ctx, p.db); errRefresh != nil {
		return "", errRefresh
	}
	return productID, nil
}

func validateChange(change PriceChange) error {
	if change.Tier != models.TierPro && change.Tier != models.TierEnterprise {
		return ErrInvalidPriceChange
	}
	if change.MonthlyPrice <= 0 {
		return ErrInvalidPriceChange
	}
	return nil
}

func tierDisplayName(tier models.SubscriptionTier) string {
	name := string(tier)
	if name == "" {
		return ""
	}
	return strings.ToUpper(name[:1]) + name[1:]
}

func settingKeysFor(tier models.SubscriptionTier) (monthly, annual, pricing string) {
	if tier == models.TierEnterprise {
		return internalsettings.PlanIDEnterpriseMonthlyKey,
			internalsettings.PlanIDEnterpriseAnnualKey,
			internalsettings.PricingEnterpriseKey
	}
	return internalsettings.PlanIDProMonthlyKey,
		internalsettings.PlanIDProAnnualKey,
		internalsettings.PricingProKey
}

// upsertSetting writes one settings row, creating it when missing.
func upsertSetting(ctx context.Context, conn *gorm.DB, key string, value any) error {
	encoded, errMarshal := json.Marshal(value)
	if errMarshal != nil {
		return fmt.Errorf("billing: marshal setting %s: %w", key, errMarshal)
	}

	var existing models.Setting
	errFind := conn.WithContext(ctx).Where("key = ?", key).First(&existing).Error
	if errFind == nil {
		if errUpdate := conn.WithContext(ctx).Model(&models.Setting{}).
			Where("key = ?", key).
			Update("value", datatypes.JSON(encoded)).Error; errUpdate != nil {
			return fmt.Errorf("billing: update setting %s: %w", key, errUpdate)
		}
		return nil
	}
	if !errors.Is(errFind, gorm.ErrRecordNotFound) {
		return fmt.Errorf("billing: read setting %s: %w", key, errFind)
	}
	row := models.Setting{Key: key, Value: datatypes.JSON(encoded)}
	if errCreate := conn.WithContext(ctx).Create(&row).Error; errCreate != nil {
		return fmt.Errorf("billing: create setting %s: %w", key, errCreate)
	}
	return nil
}
