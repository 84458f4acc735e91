package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Receipt settlement status against its total.
const (
	ReceiptStatusPaid    = "paid"
	ReceiptStatusPartial = "partial"
	ReceiptStatusDebt    = "debt"
)

// ProductReceipt is an inbound delivery document from a supplier party.
// Items are snapshots; totals and status are derived on every save.
type ProductReceipt struct {
	Id          uint      `json:"id" gorm:"primaryKey"`
	ClientID    *string   `json:"client_id" gorm:"index"`
	Client      *Client   `json:"client" gorm:"foreignKey:ClientID;references:Id"`
	ReceiptDate time.Time `json:"receipt_date" gorm:"not null"`

	Items []ReceiptItem `json:"products" gorm:"foreignKey:ReceiptID;constraint:OnDelete:CASCADE"`

	TotalAmount decimal.Decimal `json:"total_amount" gorm:"type:decimal(20,4)"`
	PaidAmount  decimal.Decimal `json:"paid_amount" gorm:"type:decimal(20,4);default:0"`
	DebtAmount  decimal.Decimal `json:"debt_amount" gorm:"type:decimal(20,4)"`

	Status        string `json:"status" gorm:"type:VARCHAR(20);default:debt"`
	PaymentMethod string `json:"payment_method" gorm:"type:VARCHAR(20);default:cash"`
	Notes         string `json:"notes"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ReceiptItem is one delivered line, snapshotted at receipt time.
type ReceiptItem struct {
	ID        uint `json:"id" gorm:"primaryKey"`
	ReceiptID uint `json:"-" gorm:"index;not null"`

	ProductName string `json:"product_name" gorm:"not null"`
	Model       string `json:"model"`

	Quantity   decimal.Decimal `json:"quantity" gorm:"type:decimal(20,4)"`
	UnitPrice  decimal.Decimal `json:"unit_price" gorm:"type:decimal(20,4)"`
	TotalPrice decimal.Decimal `json:"total_price" gorm:"type:decimal(20,4)"`

	Currency     string `json:"currency" gorm:"type:VARCHAR(10);default:sum"`
	BrandName    string `json:"brand_name"`
	CountType    string `json:"count_type"`
	Barcode      string `json:"barcode"`
	ReceivedFrom string `json:"received_from"`
}

// BeforeSave recomputes line totals, the document totals and the status.
func (receipt *ProductReceipt) BeforeSave(tx *gorm.DB) (err error) {
	total := decimal.Zero
	for i := range receipt.Items {
		item := &receipt.Items[i]
		item.TotalPrice = item.Quantity.Mul(item.UnitPrice)
		total = total.Add(item.TotalPrice)
	}
	receipt.TotalAmount = total
	receipt.DebtAmount = total.Sub(receipt.PaidAmount)

	switch {
	case receipt.PaidAmount.IsZero():
		receipt.Status = ReceiptStatusDebt
	case receipt.PaidAmount.LessThan(total):
		receipt.Status = ReceiptStatusPartial
	default:
		receipt.Status = ReceiptStatusPaid
	}
	return
}
