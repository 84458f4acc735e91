package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// Payment methods accepted across sales and payment logs.
const (
	PaymentCash     = "cash"
	PaymentCard     = "card"
	PaymentTransfer = "transfer"
	PaymentDebt     = "debt"
)

// Locations stock can be sold from.
const (
	LocationWarehouse = "warehouse"
	LocationStore     = "store"
)

// Sale is an immutable finalized transaction. TotalPriceSum is the local
// currency value frozen at write time from the rate snapshot the operation
// ran with; it is never recomputed from a later rate. ProductSnapshot
// preserves the product state the sale was made against.
type Sale struct {
	ID          uint    `json:"id" gorm:"primaryKey"`
	ProductID   string  `json:"product_id" gorm:"index;not null"`
	ProductName string  `json:"product_name" gorm:"not null"`

	SellPrice decimal.Decimal `json:"sell_price" gorm:"type:decimal(20,4)"`
	BuyPrice  decimal.Decimal `json:"buy_price" gorm:"type:decimal(20,4)"`
	Quantity  decimal.Decimal `json:"quantity" gorm:"type:decimal(20,4)"`
	Currency  string          `json:"currency" gorm:"type:VARCHAR(10);default:sum"`

	TotalPrice    decimal.Decimal `json:"total_price" gorm:"type:decimal(20,4)"`
	TotalPriceSum decimal.Decimal `json:"total_price_sum" gorm:"type:decimal(20,4)"`

	PaymentMethod string `json:"payment_method" gorm:"type:VARCHAR(20)"`
	Location      string `json:"location" gorm:"type:VARCHAR(20);default:store"`

	DebtorName  *string    `json:"debtor_name"`
	DebtorPhone *string    `json:"debtor_phone"`
	DebtDueDate *time.Time `json:"debt_due_date"`

	ProductSnapshot datatypes.JSON `json:"product_snapshot" gorm:"type:jsonb"`

	CreatedAt time.Time `json:"created_at" gorm:"index"`
}

// Profit is the realized gain this sale contributed to the budget.
func (sale *Sale) Profit() decimal.Decimal {
	return sale.SellPrice.Sub(sale.BuyPrice).Mul(sale.Quantity)
}
