package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Debtor is an installment ("nasiya") record: a customer took goods before
// paying in full. DebtAmount is always expressed in the debtor's declared
// currency; payments in the other unit are normalized through the reference
// currency before comparison.
type Debtor struct {
	Id    string `json:"id" gorm:"primaryKey"`
	Name  string `json:"name" gorm:"not null"`
	Phone string `json:"phone" gorm:"not null;index"`

	DebtAmount decimal.Decimal `json:"debt_amount" gorm:"type:decimal(20,4)"`
	DueDate    time.Time       `json:"due_date" gorm:"not null"`
	Currency   string          `json:"currency" gorm:"type:VARCHAR(10);not null"`

	Products   []DebtorProduct `json:"products" gorm:"foreignKey:DebtorID;constraint:OnDelete:CASCADE"`
	PaymentLog []DebtorPayment `json:"payment_log" gorm:"foreignKey:DebtorID;constraint:OnDelete:CASCADE"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (debtor *Debtor) BeforeCreate(tx *gorm.DB) (err error) {
	if debtor.Id == "" {
		debtor.Id = uuid.NewString()
	}
	return
}

// DebtorProduct is one owed line: goods already handed over, payment pending.
type DebtorProduct struct {
	ID       uint   `json:"id" gorm:"primaryKey"`
	DebtorID string `json:"-" gorm:"index;not null"`

	ProductID   string `json:"product_id" gorm:"not null"`
	ProductName string `json:"product_name" gorm:"not null"`

	Quantity  decimal.Decimal `json:"quantity" gorm:"type:decimal(20,4)"`
	SellPrice decimal.Decimal `json:"sell_price" gorm:"type:decimal(20,4)"`
	Currency  string          `json:"currency" gorm:"type:VARCHAR(10)"`

	SoldDate time.Time `json:"sold_date"`
	DueDate  time.Time `json:"due_date"`
}

// DebtorPayment is an append-only payment log line. The raw amount and
// currency are stored untouched; history survives full settlement.
type DebtorPayment struct {
	ID       uint   `json:"id" gorm:"primaryKey"`
	DebtorID string `json:"-" gorm:"index;not null"`

	Amount   decimal.Decimal `json:"amount" gorm:"type:decimal(20,4)"`
	Currency string          `json:"currency" gorm:"type:VARCHAR(10);default:usd"`
	Date     time.Time       `json:"date"`
}
