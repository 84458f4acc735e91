package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ExchangeRate is the singleton latest-known rate: local units per one
// reference unit. There is no historical tracking; callers read it once
// before a transactional section and pass the snapshot in.
type ExchangeRate struct {
	ID        uint            `json:"id" gorm:"primaryKey"`
	Rate      decimal.Decimal `json:"rate" gorm:"type:decimal(20,4);default:0"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// CurrentRate returns the stored rate, failing with InvalidRate when the
// row is absent or holds a non-positive value. No rate=1 fallback.
func CurrentRate(db *gorm.DB) (decimal.Decimal, error) {
	var rate ExchangeRate
	if err := db.First(&rate).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return decimal.Zero, InvalidRate(decimal.Zero)
		}
		return decimal.Zero, err
	}
	if rate.Rate.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero, InvalidRate(rate.Rate)
	}
	return rate.Rate, nil
}

// SetRate upserts the singleton rate row.
func SetRate(db *gorm.DB, value decimal.Decimal) (*ExchangeRate, error) {
	if value.LessThanOrEqual(decimal.Zero) {
		return nil, InvalidRate(value)
	}
	var rate ExchangeRate
	err := db.First(&rate).Error
	switch {
	case err == gorm.ErrRecordNotFound:
		rate = ExchangeRate{Rate: value}
		if err := db.Create(&rate).Error; err != nil {
			return nil, err
		}
	case err != nil:
		return nil, err
	default:
		rate.Rate = value
		if err := db.Save(&rate).Error; err != nil {
			return nil, err
		}
	}
	return &rate, nil
}
