package billing

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

func countTransactions(t *testing.T, conn *gorm.DB, userID string) int64 {
	t.Helper()
	var count int64
	query := conn.Model(&models.Transaction{})
	if userID != "" {
		query = query.Where("user_id = ?", userID)
	}
	if errCount := query.Count(&count).Error; errCount != nil {
		t.Fatalf("count transactions: %v", errCount)
	}
	return count
}

func activationEvent(userID, subscriptionID string) Event {
	return Event{
		Type: EventSubscriptionActivated,
		Resource: Resource{
			ID:       subscriptionID,
			CustomID: userID,
		},
		RawResource: []byte(`{"id":"` + subscriptionID + `","custom_id":"` + userID + `"}`),
	}
}

func TestReconcile_ActivationUpdatesUserAndAppendsLedger(t *testing.T) {
	conn := openTestDB(t)
	seedUser(t, conn, models.User{
		UID:                "u1",
		SubscriptionTier:   models.TierPro,
		SubscriptionStatus: models.StatusTrial,
		IsActive:           true,
	})

	rec := NewReconciler(conn)
	if err := rec.Reconcile(context.Background(), activationEvent("u1", "I-SUB1")); err != nil {
		t.Fatalf("reconcile: %v", err)
	}

	var user models.User
	if errFind := conn.First(&user, "uid = ?", "u1").Error; errFind != nil {
		t.Fatalf("reload user: %v", errFind)
	}
	if user.SubscriptionStatus != models.StatusActive {
		t.Fatalf("expected status active, got %q", user.SubscriptionStatus)
	}
	if user.PayPalSubscriptionID != "I-SUB1" {
		t.Fatalf("expected subscription id I-SUB1, got %q", user.PayPalSubscriptionID)
	}
	if user.SubscriptionStarted == nil {
		t.Fatalf("expected subscription start to be recorded")
	}
	if !user.AutoRenew {
		t.Fatalf("expected auto renew on")
	}
	// Activation never touches the tier; the checkout flow set it.
	if user.SubscriptionTier != models.TierPro {
		t.Fatalf("tier must be untouched, got %q", user.SubscriptionTier)
	}

	if got := countTransactions(t, conn, "u1"); got != 1 {
		t.Fatalf("expected exactly one ledger row, got %d", got)
	}
}

func TestReconcile_ActivationRowsQueryableByProviderColumns(t *testing.T) {
	conn := openTestDB(t)
	seedUser(t, conn, models.User{
		UID:                "u1",
		SubscriptionTier:   models.TierPro,
		SubscriptionStatus: models.StatusTrial,
		IsActive:           true,
	})

	rec := NewReconciler(conn)
	if err := rec.Reconcile(context.Background(), activationEvent("u1", "I-SUB1")); err != nil {
		t.Fatalf("reconcile: %v", err)
	}

	// The provider ID columns keep their literal paypal_ names; raw lookups
	// must resolve the rows the activation wrote.
	var user models.User
	if errFind := conn.First(&user, "paypal_subscription_id = ?", "I-SUB1").Error; errFind != nil {
		t.Fatalf("load user by subscription id: %v", errFind)
	}
	if user.UID != "u1" || user.SubscriptionStatus != models.StatusActive {
		t.Fatalf("unexpected user row: uid=%q status=%q", user.UID, user.SubscriptionStatus)
	}

	var txn models.Transaction
	if errFind := conn.First(&txn, "paypal_subscription_id = ? AND user_id = ?", "I-SUB1", "u1").Error; errFind != nil {
		t.Fatalf("load ledger row by subscription id: %v", errFind)
	}
	if txn.Type != models.TxnSubscriptionActivated {
		t.Fatalf("expected subscription_activated row, got %q", txn.Type)
	}
}

func TestReconcile_ActivationReplayAppendsSecondLedgerRow(t *testing.T) {
	conn := openTestDB(t)
	seedUser(t, conn, models.User{UID: "u1", IsActive: true})

	rec := NewReconciler(conn)
	event := activationEvent("u1", "I-SUB1")
	for i := 0; i < 2; i++ {
		if err := rec.Reconcile(context.Background(), event); err != nil {
			t.Fatalf("reconcile %d: %v", i, err)
		}
	}

	// Deliveries are not deduplicated; a replay is a second ledger row.
	if got := countTransactions(t, conn, "u1"); got != 2 {
		t.Fatalf("expected two ledger rows after replay, got %d", got)
	}
}

func TestReconcile_CancellationKeepsTier(t *testing.T) {
	conn := openTestDB(t)
	seedUser(t, conn, models.User{
		UID:                "u1",
		SubscriptionTier:   models.TierPro,
		SubscriptionStatus: models.StatusActive,
		AutoRenew:          true,
		IsActive:           true,
	})

	rec := NewReconciler(conn)
	err := rec.Reconcile(context.Background(), Event{
		Type:     EventSubscriptionCancelled,
		Resource: Resource{ID: "I-SUB1", CustomID: "u1"},
	})
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}

	var user models.User
	if errFind := conn.First(&user, "uid = ?", "u1").Error; errFind != nil {
		t.Fatalf("reload user: %v", errFind)
	}
	if user.SubscriptionStatus != models.StatusCanceled || user.AutoRenew {
		t.Fatalf("expected canceled without auto renew, got status=%q auto_renew=%v", user.SubscriptionStatus, user.AutoRenew)
	}
	// Cancellation leaves the paid tier until expiry.
	if user.SubscriptionTier != models.TierPro {
		t.Fatalf("cancellation must keep the tier, got %q", user.SubscriptionTier)
	}
	if got := countTransactions(t, conn, "u1"); got != 1 {
		t.Fatalf("expected one ledger row, got %d", got)
	}
}

func TestReconcile_SuspensionWritesNoLedgerRow(t *testing.T) {
	conn := openTestDB(t)
	seedUser(t, conn, models.User{
		UID:                "u1",
		SubscriptionTier:   models.TierPro,
		SubscriptionStatus: models.StatusActive,
		IsActive:           true,
	})

	rec := NewReconciler(conn)
	err := rec.Reconcile(context.Background(), Event{
		Type:     EventSubscriptionSuspended,
		Resource: Resource{ID: "I-SUB1", CustomID: "u1"},
	})
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}

	var user models.User
	if errFind := conn.First(&user, "uid = ?", "u1").Error; errFind != nil {
		t.Fatalf("reload user: %v", errFind)
	}
	if user.SubscriptionStatus != models.StatusSuspended {
		t.Fatalf("expected suspended status, got %q", user.SubscriptionStatus)
	}
	if got := countTransactions(t, conn, "u1"); got != 0 {
		t.Fatalf("suspension must not append a ledger row, got %d", got)
	}
}

func TestReconcile_ExpiryDemotesTier(t *testing.T) {
	conn := openTestDB(t)
	seedUser(t, conn, models.User{
		UID:                "u1",
		SubscriptionTier:   models.TierEnterprise,
		SubscriptionStatus: models.StatusCanceled,
		IsActive:           true,
	})

	rec := NewReconciler(conn)
	err := rec.Reconcile(context.Background(), Event{
		Type:     EventSubscriptionExpired,
		Resource: Resource{ID: "I-SUB1", CustomID: "u1"},
	})
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}

	var user models.User
	if errFind := conn.First(&user, "uid = ?", "u1").Error; errFind != nil {
		t.Fatalf("reload user: %v", errFind)
	}
	if user.SubscriptionStatus != models.StatusExpired {
		t.Fatalf("expected expired status, got %q", user.SubscriptionStatus)
	}
	if user.SubscriptionTier != models.TierFree {
		t.Fatalf("expiry must demote to free, got %q", user.SubscriptionTier)
	}
}

func TestReconcile_PaymentSaleCompletedAppendsLedgerOnly(t *testing.T) {
	conn := openTestDB(t)

	rec := NewReconciler(conn)
	err := rec.Reconcile(context.Background(), Event{
		Type: EventPaymentSaleCompleted,
		Resource: Resource{
			ID:                 "TX-1",
			BillingAgreementID: "I-SUB1",
			Amount:             &Amount{Total: "9.00", Currency: "USD"},
		},
	})
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}

	var txn models.Transaction
	if errFind := conn.First(&txn, "paypal_transaction_id = ?", "TX-1").Error; errFind != nil {
		t.Fatalf("load transaction: %v", errFind)
	}
	if txn.Type != models.TxnPaymentCompleted {
		t.Fatalf("expected payment_completed type, got %q", txn.Type)
	}
	if txn.BillingAgreementID != "I-SUB1" || txn.Amount != "9.00" || txn.Currency != "USD" {
		t.Fatalf("unexpected transaction: %+v", txn)
	}
	if txn.UserID != "" {
		t.Fatalf("sale ledger rows carry no user id, got %q", txn.UserID)
	}
}

func TestReconcile_MissingCorrelationIDIsIgnored(t *testing.T) {
	conn := openTestDB(t)
	seedUser(t, conn, models.User{UID: "u1", SubscriptionStatus: models.StatusTrial, IsActive: true})

	rec := NewReconciler(conn)
	err := rec.Reconcile(context.Background(), Event{
		Type:     EventSubscriptionActivated,
		Resource: Resource{ID: "I-SUB1"},
	})
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}

	var user models.User
	if errFind := conn.First(&user, "uid = ?", "u1").Error; errFind != nil {
		t.Fatalf("reload user: %v", errFind)
	}
	if user.SubscriptionStatus != models.StatusTrial {
		t.Fatalf("event without custom_id must not touch users, got %q", user.SubscriptionStatus)
	}
	if got := countTransactions(t, conn, ""); got != 0 {
		t.Fatalf("expected no ledger rows, got %d", got)
	}
}

func TestReconcile_UnknownUserActivationSkipsLedger(t *testing.T) {
	conn := openTestDB(t)

	rec := NewReconciler(conn)
	if err := rec.Reconcile(context.Background(), activationEvent("ghost", "I-SUB1")); err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if got := countTransactions(t, conn, ""); got != 0 {
		t.Fatalf("unknown user must not produce ledger rows, got %d", got)
	}
}

func TestReconcile_UnknownEventTypeIsNoop(t *testing.T) {
	conn := openTestDB(t)
	seedUser(t, conn, models.User{UID: "u1", SubscriptionStatus: models.StatusActive, IsActive: true})

	rec := NewReconciler(conn)
	err := rec.Reconcile(context.Background(), Event{
		Type:     "BILLING.SUBSCRIPTION.UPDATED",
		Resource: Resource{ID: "I-SUB1", CustomID: "u1"},
	})
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if got := countTransactions(t, conn, ""); got != 0 {
		t.Fatalf("unknown event must be a no-op, got %d ledger rows", got)
	}
}
