package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Product is the warehouse-side record of an item. Stock here is the
// warehouse quantity; the storefront quantity lives on StoreProduct.
type Product struct {
	Id          string `json:"id" gorm:"primaryKey"`
	ProductName string `json:"product_name" gorm:"not null;index"`
	Model       string `json:"model" gorm:"not null"`

	Stock decimal.Decimal `json:"stock" gorm:"type:decimal(20,4);default:0"`

	PurchasePrice    decimal.Decimal `json:"purchase_price" gorm:"type:decimal(20,4)"`
	PurchaseCurrency string          `json:"purchase_currency" gorm:"type:VARCHAR(10);default:usd"`
	SellPrice        decimal.Decimal `json:"sell_price" gorm:"type:decimal(20,4)"`
	SellCurrency     string          `json:"sell_currency" gorm:"type:VARCHAR(10);default:usd"`

	BrandName      string `json:"brand_name"`
	IsStoreProduct bool   `json:"store_product"`

	// Unit the stock is counted in: dona (piece), metr, kg, litr, qadoq, blok.
	CountType string `json:"count_type" gorm:"type:VARCHAR(20);not null"`

	Barcode string `json:"barcode" gorm:"uniqueIndex;not null"`

	SpecialNotes string `json:"special_notes"`
	ReceivedFrom string `json:"received_from"`

	PaidAmount decimal.Decimal `json:"paid_amount" gorm:"type:decimal(20,4);default:0"`

	// Derived; recomputed from stock, prices and paid amount on every save.
	TotalPurchasePrice decimal.Decimal `json:"total_purchase_price" gorm:"type:decimal(20,4)"`
	TotalSellPrice     decimal.Decimal `json:"total_sell_price" gorm:"type:decimal(20,4)"`
	DebtAmount         decimal.Decimal `json:"debt_amount" gorm:"type:decimal(20,4)"`

	ClientId *string `json:"-" gorm:"index"`
	Client   *Client `json:"client" gorm:"foreignKey:ClientId;references:Id"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (product *Product) BeforeCreate(tx *gorm.DB) (err error) {
	if product.Id == "" {
		product.Id = uuid.NewString()
	}
	return
}

// BeforeSave keeps the derived totals in sync with their inputs. They are
// never writable on their own.
func (product *Product) BeforeSave(tx *gorm.DB) (err error) {
	product.TotalPurchasePrice = product.Stock.Mul(product.PurchasePrice)
	product.TotalSellPrice = product.Stock.Mul(product.SellPrice)

	debt := product.TotalSellPrice.Sub(product.PaidAmount)
	if debt.IsNegative() {
		debt = decimal.Zero
	}
	product.DebtAmount = debt
	return
}
