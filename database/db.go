package database

import (
	"fmt"
	"os"

	"savdo-backend/config"
	"savdo-backend/models"

	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

func envDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func Connect() {
	if err := godotenv.Load(); err != nil {
		config.Logger().Warn("no .env file found, relying on environment")
	}

	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=Asia/Tashkent",
		envDefault("DB_HOST", "db"),
		os.Getenv("DB_USER"), os.Getenv("DB_PASSWORD"), os.Getenv("DB_NAME"),
		envDefault("DB_PORT", "5432"))

	var err error
	DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		config.LogError("database", "Connect", nil, err)
		panic("could not connect to database")
	}
}

// AutoMigrate applies the schema, then hardens the money columns and the
// non-negativity invariants the models rely on.
func AutoMigrate() error {
	err := DB.AutoMigrate(
		&models.User{},
		&models.Client{},
		&models.DebtEntry{},
		&models.Product{},
		&models.StoreProduct{},
		&models.Debtor{},
		&models.DebtorProduct{},
		&models.DebtorPayment{},
		&models.Sale{},
		&models.Budget{},
		&models.ExchangeRate{},
		&models.Master{},
		&models.MasterCar{},
		&models.CarSale{},
		&models.CarPayment{},
		&models.ProductReceipt{},
		&models.ReceiptItem{},
		&models.Expense{},
		&models.IdempotencyKey{},
	)
	if err != nil {
		return fmt.Errorf("automigrate failed: %w", err)
	}

	// Stock and ledger quantities must never go negative at the store level
	// either; these are idempotent on postgres 9.6+.
	checks := []string{
		`ALTER TABLE products       DROP CONSTRAINT IF EXISTS chk_products_stock_nonneg`,
		`ALTER TABLE products       ADD  CONSTRAINT chk_products_stock_nonneg CHECK (stock >= 0)`,
		`ALTER TABLE store_products DROP CONSTRAINT IF EXISTS chk_store_qty_nonneg`,
		`ALTER TABLE store_products ADD  CONSTRAINT chk_store_qty_nonneg CHECK (quantity >= 0)`,
		`ALTER TABLE debt_entries   DROP CONSTRAINT IF EXISTS chk_debt_remaining_nonneg`,
		`ALTER TABLE debt_entries   ADD  CONSTRAINT chk_debt_remaining_nonneg CHECK (remaining_debt >= 0)`,
	}
	for _, stmt := range checks {
		if err := DB.Exec(stmt).Error; err != nil {
			return fmt.Errorf("constraint migration failed on %q: %w", stmt, err)
		}
	}
	return nil
}
