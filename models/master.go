package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"savdo-backend/utils"
)

// Master is a craftsman/driver with per-vehicle running accounts. Each car
// accumulates pending sale lines and payments; once the converted payments
// cover the converted sales, the pending lines finalize into Sale rows and
// the car account clears.
type Master struct {
	Id         string      `json:"id" gorm:"primaryKey"`
	MasterName string      `json:"master_name" gorm:"not null"`
	Cars       []MasterCar `json:"cars" gorm:"foreignKey:MasterID;constraint:OnDelete:CASCADE"`
	CreatedAt  time.Time   `json:"created_at"`
	UpdatedAt  time.Time   `json:"updated_at"`
}

func (master *Master) BeforeCreate(tx *gorm.DB) (err error) {
	if master.Id == "" {
		master.Id = uuid.NewString()
	}
	return
}

type MasterCar struct {
	Id       string    `json:"id" gorm:"primaryKey"`
	MasterID string    `json:"-" gorm:"index;not null"`
	CarName  string    `json:"car_name"`
	Date     time.Time `json:"date"`

	Sales      []CarSale    `json:"sales" gorm:"foreignKey:CarID;constraint:OnDelete:CASCADE"`
	PaymentLog []CarPayment `json:"payment_log" gorm:"foreignKey:CarID;constraint:OnDelete:CASCADE"`
}

func (car *MasterCar) BeforeCreate(tx *gorm.DB) (err error) {
	if car.Id == "" {
		car.Id = uuid.NewString()
	}
	if car.Date.IsZero() {
		car.Date = time.Now()
	}
	return
}

// CarSale is a pending sale line on a car account. It becomes a Sale row
// only when the account settles.
type CarSale struct {
	ID    uint   `json:"id" gorm:"primaryKey"`
	CarID string `json:"-" gorm:"index;not null"`

	ProductID   string `json:"product_id" gorm:"not null"`
	ProductName string `json:"product_name" gorm:"not null"`

	SellPrice decimal.Decimal `json:"sell_price" gorm:"type:decimal(20,4)"`
	BuyPrice  decimal.Decimal `json:"buy_price" gorm:"type:decimal(20,4)"`
	Currency  string          `json:"currency" gorm:"type:VARCHAR(10);default:sum"`

	Quantity      decimal.Decimal `json:"quantity" gorm:"type:decimal(20,4)"`
	TotalPrice    decimal.Decimal `json:"total_price" gorm:"type:decimal(20,4)"`
	TotalPriceSum decimal.Decimal `json:"total_price_sum" gorm:"type:decimal(20,4)"`

	CreatedAt time.Time `json:"created_at"`
}

type CarPayment struct {
	ID    uint   `json:"id" gorm:"primaryKey"`
	CarID string `json:"-" gorm:"index;not null"`

	Amount        decimal.Decimal `json:"amount" gorm:"type:decimal(20,4)"`
	Currency      string          `json:"currency" gorm:"type:VARCHAR(10);default:sum"`
	PaymentMethod string          `json:"payment_method" gorm:"type:VARCHAR(20)"`
	Date          time.Time       `json:"date"`
}

func lockCar(db *gorm.DB, masterID, carID string) (*MasterCar, error) {
	var car MasterCar
	err := db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Preload("Sales").
		Preload("PaymentLog").
		First(&car, "id = ? AND master_id = ?", carID, masterID).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, NotFound("car")
		}
		return nil, err
	}
	return &car, nil
}

// AddCarSale appends a pending sale line to a car account.
func AddCarSale(db *gorm.DB, masterID, carID string, line CarSale) (*CarSale, error) {
	if line.Quantity.LessThanOrEqual(decimal.Zero) {
		return nil, Invalid("sale quantity must be positive")
	}
	car, err := lockCar(db, masterID, carID)
	if err != nil {
		return nil, err
	}
	line.CarID = car.Id
	line.TotalPrice = line.SellPrice.Mul(line.Quantity)
	if err := db.Create(&line).Error; err != nil {
		return nil, err
	}
	return &line, nil
}

// CarPaymentInput carries one payment against a car account.
type CarPaymentInput struct {
	Amount        decimal.Decimal
	Currency      string
	PaymentMethod string
}

// ApplyCarPayment records the payment, then compares the car's sales and
// payments in local units. When payments cover sales, every pending line
// becomes a finalized Sale row (profit to the budget) and the car account
// clears. This account settles in local currency, unlike the debtor flow
// which normalizes through the reference unit.
func ApplyCarPayment(db *gorm.DB, masterID, carID string, in CarPaymentInput, rate decimal.Decimal) (*MasterCar, bool, error) {
	if in.Amount.LessThanOrEqual(decimal.Zero) {
		return nil, false, Invalid("payment amount must be positive")
	}
	if !utils.IsValidCurrency(in.Currency) {
		return nil, false, Invalid("unknown currency " + in.Currency)
	}

	car, err := lockCar(db, masterID, carID)
	if err != nil {
		return nil, false, err
	}

	payment := CarPayment{
		CarID:         car.Id,
		Amount:        in.Amount,
		Currency:      in.Currency,
		PaymentMethod: in.PaymentMethod,
		Date:          time.Now(),
	}
	if err := db.Create(&payment).Error; err != nil {
		return nil, false, err
	}
	car.PaymentLog = append(car.PaymentLog, payment)

	totalSales := decimal.Zero
	for _, line := range car.Sales {
		converted, err := utils.ToLocal(line.TotalPrice, line.Currency, rate)
		if err != nil {
			return nil, false, InvalidRate(rate)
		}
		totalSales = totalSales.Add(converted)
	}
	totalPayments := decimal.Zero
	for _, p := range car.PaymentLog {
		converted, err := utils.ToLocal(p.Amount, p.Currency, rate)
		if err != nil {
			return nil, false, InvalidRate(rate)
		}
		totalPayments = totalPayments.Add(converted)
	}

	if totalPayments.Round(0).LessThan(totalSales.Round(0)) {
		return car, false, nil
	}

	for _, line := range car.Sales {
		totalSum, err := utils.ToLocal(line.TotalPrice, line.Currency, rate)
		if err != nil {
			return nil, false, InvalidRate(rate)
		}
		sale := Sale{
			ProductID:     line.ProductID,
			ProductName:   line.ProductName,
			SellPrice:     line.SellPrice,
			BuyPrice:      line.BuyPrice,
			Quantity:      line.Quantity,
			Currency:      line.Currency,
			TotalPrice:    line.TotalPrice,
			TotalPriceSum: totalSum,
			PaymentMethod: PaymentCash,
			Location:      LocationStore,
		}
		if err := db.Create(&sale).Error; err != nil {
			return nil, false, err
		}
		if _, err := AddToBudget(db, sale.Profit()); err != nil {
			return nil, false, err
		}
	}

	if err := db.Where("car_id = ?", car.Id).Delete(&CarSale{}).Error; err != nil {
		return nil, false, err
	}
	if err := db.Where("car_id = ?", car.Id).Delete(&CarPayment{}).Error; err != nil {
		return nil, false, err
	}
	car.Sales = nil
	car.PaymentLog = nil
	return car, true, nil
}
