package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Budget is the singleton running total of realized profit. It is created
// lazily with a zero balance and has no lower bound: a period where returns
// exceed realized gains legitimately drives it negative.
type Budget struct {
	ID          uint            `json:"id" gorm:"primaryKey"`
	TotalBudget decimal.Decimal `json:"total_budget" gorm:"type:decimal(20,4);default:0"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// GetBudget loads the singleton, creating it on first access.
func GetBudget(db *gorm.DB) (*Budget, error) {
	var budget Budget
	err := db.First(&budget).Error
	if err == gorm.ErrRecordNotFound {
		budget = Budget{TotalBudget: decimal.Zero}
		if err := db.Create(&budget).Error; err != nil {
			return nil, err
		}
		return &budget, nil
	}
	if err != nil {
		return nil, err
	}
	return &budget, nil
}

// AddToBudget moves the running total by delta (positive or negative) inside
// the caller's transaction, locking the row against concurrent movements.
func AddToBudget(db *gorm.DB, delta decimal.Decimal) (*Budget, error) {
	var budget Budget
	err := db.Clauses(clause.Locking{Strength: "UPDATE"}).First(&budget).Error
	if err == gorm.ErrRecordNotFound {
		budget = Budget{TotalBudget: delta}
		if err := db.Create(&budget).Error; err != nil {
			return nil, err
		}
		return &budget, nil
	}
	if err != nil {
		return nil, err
	}
	budget.TotalBudget = budget.TotalBudget.Add(delta)
	if err := db.Save(&budget).Error; err != nil {
		return nil, err
	}
	return &budget, nil
}
