package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// StoreProduct is the storefront quantity for one product, kept apart from
// the warehouse stock on Product.
type StoreProduct struct {
	Id          uint            `json:"id" gorm:"primaryKey"`
	ProductID   string          `json:"product_id" gorm:"uniqueIndex;not null"`
	Product     *Product        `json:"product" gorm:"foreignKey:ProductID;references:Id"`
	ProductName string          `json:"product_name" gorm:"not null"`
	Quantity    decimal.Decimal `json:"quantity" gorm:"type:decimal(20,4);default:0"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}
