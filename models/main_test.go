package models

import (
	"fmt"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB opens a private in-memory database per test. cache=shared keeps
// the database alive across the pooled connections of one test.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.ReplaceAll(t.Name(), "/", "_")
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	err = db.AutoMigrate(
		&User{}, &IdempotencyKey{},
		&Client{}, &DebtEntry{},
		&Product{}, &StoreProduct{},
		&Sale{}, &Debtor{}, &DebtorProduct{}, &DebtorPayment{},
		&Master{}, &MasterCar{}, &CarSale{}, &CarPayment{},
		&ProductReceipt{}, &ReceiptItem{},
		&Budget{}, &Expense{}, &ExchangeRate{},
	)
	if err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return db
}

func dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	v, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("bad decimal literal %q: %v", s, err)
	}
	return v
}

func mustEqual(t *testing.T, got, want decimal.Decimal, what string) {
	t.Helper()
	if !got.Equal(want) {
		t.Fatalf("%s = %s, want %s", what, got.String(), want.String())
	}
}
