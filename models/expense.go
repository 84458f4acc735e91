package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Expense is a cash-out entry. Creating one decrements the budget by the
// same amount.
type Expense struct {
	ID          uint            `json:"id" gorm:"primaryKey"`
	PaymentSumm decimal.Decimal `json:"payment_summ" gorm:"type:decimal(20,4);not null"`
	Comment     string          `json:"comment" gorm:"not null"`
	StaffName   string          `json:"staff_name" gorm:"default:-"`
	CreatedAt   time.Time       `json:"created_at"`
}

// CreateExpense records the expense and moves the budget inside the caller's
// transaction.
func CreateExpense(db *gorm.DB, in *Expense) (*Expense, error) {
	if in.PaymentSumm.LessThanOrEqual(decimal.Zero) {
		return nil, Invalid("expense amount must be positive")
	}
	if in.Comment == "" {
		return nil, Invalid("expense comment is required")
	}
	if err := db.Create(in).Error; err != nil {
		return nil, err
	}
	if _, err := AddToBudget(db, in.PaymentSumm.Neg()); err != nil {
		return nil, err
	}
	return in, nil
}
