package models

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"savdo-backend/utils"
)

// Sale/debtor settlement engine. Composes the currency converter, the
// inventory engine and the budget ledger. Every function here expects the
// caller's transaction.

func snapshotProduct(product *Product) []byte {
	snap, err := json.Marshal(product)
	if err != nil {
		return nil
	}
	return snap
}

// frozenLocalTotal converts total into local units once, at write time,
// using the rate snapshot the operation ran with. Local-currency totals
// need no rate at all.
func frozenLocalTotal(total decimal.Decimal, currency string, rate decimal.Decimal) (decimal.Decimal, error) {
	if currency == utils.CurrencyLocal {
		return total, nil
	}
	sum, err := utils.ToLocal(total, currency, rate)
	if err != nil {
		return decimal.Zero, InvalidRate(rate)
	}
	return sum, nil
}

// CashSaleInput describes a direct (non-credit) sale.
type CashSaleInput struct {
	ProductID     string
	Quantity      decimal.Decimal
	SellPrice     decimal.Decimal
	BuyPrice      decimal.Decimal
	Currency      string
	PaymentMethod string
	Location      string
}

// RecordCashSale decrements stock at the given location, writes the Sale row
// and adds the realized profit to the budget.
func RecordCashSale(db *gorm.DB, in CashSaleInput, rate decimal.Decimal) (*Sale, error) {
	if in.Quantity.LessThanOrEqual(decimal.Zero) {
		return nil, Invalid("sale quantity must be positive")
	}
	if in.SellPrice.IsNegative() || in.BuyPrice.IsNegative() {
		return nil, Invalid("invalid profit: prices must not be negative")
	}
	if !utils.IsValidCurrency(in.Currency) {
		return nil, Invalid("unknown currency " + in.Currency)
	}

	var product *Product
	var err error
	if in.Location == LocationWarehouse {
		product, err = SellFromWarehouse(db, in.ProductID, in.Quantity)
		if err != nil {
			return nil, err
		}
	} else {
		in.Location = LocationStore
		if _, err = SellFromStore(db, in.ProductID, in.Quantity); err != nil {
			return nil, err
		}
		if product, err = lockProduct(db, in.ProductID); err != nil {
			return nil, err
		}
	}

	total := in.SellPrice.Mul(in.Quantity)
	totalSum, err := frozenLocalTotal(total, in.Currency, rate)
	if err != nil {
		return nil, err
	}

	sale := Sale{
		ProductID:       product.Id,
		ProductName:     product.ProductName,
		SellPrice:       in.SellPrice,
		BuyPrice:        in.BuyPrice,
		Quantity:        in.Quantity,
		Currency:        in.Currency,
		TotalPrice:      total,
		TotalPriceSum:   totalSum,
		PaymentMethod:   in.PaymentMethod,
		Location:        in.Location,
		ProductSnapshot: snapshotProduct(product),
	}
	if err := db.Create(&sale).Error; err != nil {
		return nil, err
	}

	if _, err := AddToBudget(db, sale.Profit()); err != nil {
		return nil, err
	}
	return &sale, nil
}

// CreditSaleInput describes a sale whose payment is deferred to a debtor
// record.
type CreditSaleInput struct {
	ProductID   string
	Quantity    decimal.Decimal
	SellPrice   decimal.Decimal
	Currency    string
	Location    string
	DebtorName  string
	DebtorPhone string
	DueDate     time.Time
}

// RecordCreditSale decrements stock immediately (the goods leave before the
// payment completes) and opens a debtor record carrying the full amount.
// No Sale row and no budget movement until settlement.
func RecordCreditSale(db *gorm.DB, in CreditSaleInput) (*Debtor, error) {
	if in.Quantity.LessThanOrEqual(decimal.Zero) {
		return nil, Invalid("sale quantity must be positive")
	}
	if in.SellPrice.IsNegative() {
		return nil, Invalid("sell price must not be negative")
	}
	if in.DebtorName == "" || in.DebtorPhone == "" {
		return nil, Invalid("debtor name and phone are required")
	}
	if !utils.IsValidCurrency(in.Currency) {
		return nil, Invalid("unknown currency " + in.Currency)
	}

	var product *Product
	var err error
	if in.Location == LocationWarehouse {
		if product, err = SellFromWarehouse(db, in.ProductID, in.Quantity); err != nil {
			return nil, err
		}
	} else {
		if _, err = SellFromStore(db, in.ProductID, in.Quantity); err != nil {
			return nil, err
		}
		if product, err = lockProduct(db, in.ProductID); err != nil {
			return nil, err
		}
	}

	debtor := Debtor{
		Name:       in.DebtorName,
		Phone:      in.DebtorPhone,
		DebtAmount: in.SellPrice.Mul(in.Quantity),
		DueDate:    in.DueDate,
		Currency:   in.Currency,
		Products: []DebtorProduct{{
			ProductID:   product.Id,
			ProductName: product.ProductName,
			Quantity:    in.Quantity,
			SellPrice:   in.SellPrice,
			Currency:    in.Currency,
			SoldDate:    time.Now(),
			DueDate:     in.DueDate,
		}},
	}
	if err := db.Create(&debtor).Error; err != nil {
		return nil, err
	}
	return &debtor, nil
}

// DebtorPaymentInput carries one incoming payment against a debtor.
type DebtorPaymentInput struct {
	Amount        decimal.Decimal
	Currency      string
	PaymentMethod string
	// SettleAndDelete removes the debtor row on full settlement instead of
	// keeping the emptied record. Default keeps the record so the payment
	// history survives.
	SettleAndDelete bool
}

func lockDebtor(db *gorm.DB, debtorID string) (*Debtor, error) {
	var debtor Debtor
	err := db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Preload("Products").
		Preload("PaymentLog").
		First(&debtor, "id = ?", debtorID).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, NotFound("debtor")
		}
		return nil, err
	}
	return &debtor, nil
}

// ApplyDebtorPayment normalizes the outstanding balance and the incoming
// amount to the reference currency, logs the raw payment unconditionally,
// and either reduces the balance (partial) or finalizes every owed line
// into a Sale (full settlement). The goods already left stock when the
// credit sale was opened, so settlement writes the Sale rows and moves the
// budget without touching inventory.
func ApplyDebtorPayment(db *gorm.DB, debtorID string, in DebtorPaymentInput, rate decimal.Decimal) (*Debtor, bool, error) {
	if in.Amount.LessThanOrEqual(decimal.Zero) {
		return nil, false, Invalid("payment amount must be positive")
	}
	if !utils.IsValidCurrency(in.Currency) {
		return nil, false, Invalid("unknown currency " + in.Currency)
	}

	debtor, err := lockDebtor(db, debtorID)
	if err != nil {
		return nil, false, err
	}
	if debtor.Currency == "" {
		return nil, false, Invalid("debtor has no declared currency")
	}

	balanceRef, err := utils.ToReference(debtor.DebtAmount, debtor.Currency, rate)
	if err != nil {
		return nil, false, InvalidRate(rate)
	}
	amountRef, err := utils.ToReference(in.Amount, in.Currency, rate)
	if err != nil {
		return nil, false, InvalidRate(rate)
	}
	remainingRef := balanceRef.Sub(amountRef)

	// History must never be lossy, even on full settlement.
	payment := DebtorPayment{
		DebtorID: debtor.Id,
		Amount:   in.Amount,
		Currency: in.Currency,
		Date:     time.Now(),
	}
	if err := db.Create(&payment).Error; err != nil {
		return nil, false, err
	}

	if remainingRef.GreaterThan(decimal.Zero) {
		newBalance, err := utils.FromReference(remainingRef, debtor.Currency, rate)
		if err != nil {
			return nil, false, InvalidRate(rate)
		}
		debtor.DebtAmount = newBalance
		err = db.Model(debtor).Select("DebtAmount").Updates(debtor).Error
		if err != nil {
			return nil, false, err
		}
		return debtor, false, nil
	}

	// Full settlement: finalize every owed line in the line's own currency,
	// not the payment's.
	method := in.PaymentMethod
	if method == "" {
		method = PaymentCash
	}
	for _, line := range debtor.Products {
		product, err := lockProduct(db, line.ProductID)
		if err != nil {
			return nil, false, err
		}

		lineCurrency := line.Currency
		if lineCurrency == "" {
			lineCurrency = debtor.Currency
		}
		total := line.SellPrice.Mul(line.Quantity)
		totalSum, err := frozenLocalTotal(total, lineCurrency, rate)
		if err != nil {
			return nil, false, err
		}

		sale := Sale{
			ProductID:       product.Id,
			ProductName:     line.ProductName,
			SellPrice:       line.SellPrice,
			BuyPrice:        product.PurchasePrice,
			Quantity:        line.Quantity,
			Currency:        lineCurrency,
			TotalPrice:      total,
			TotalPriceSum:   totalSum,
			PaymentMethod:   method,
			Location:        LocationStore,
			DebtorName:      &debtor.Name,
			DebtorPhone:     &debtor.Phone,
			DebtDueDate:     &debtor.DueDate,
			ProductSnapshot: snapshotProduct(product),
		}
		if err := db.Create(&sale).Error; err != nil {
			return nil, false, err
		}
		if _, err := AddToBudget(db, sale.Profit()); err != nil {
			return nil, false, err
		}
	}

	if in.SettleAndDelete {
		if err := db.Select("Products", "PaymentLog").Delete(debtor).Error; err != nil {
			return nil, false, err
		}
		return debtor, true, nil
	}

	if err := db.Where("debtor_id = ?", debtor.Id).Delete(&DebtorProduct{}).Error; err != nil {
		return nil, false, err
	}
	debtor.DebtAmount = decimal.Zero
	debtor.Products = nil
	err = db.Model(debtor).Select("DebtAmount").Updates(debtor).Error
	if err != nil {
		return nil, false, err
	}
	return debtor, true, nil
}

// ReturnDebtorItem hands qty of one owed line back to the storefront,
// shrinking the line and the balance by qty times the line's price. A line
// driven to zero disappears.
func ReturnDebtorItem(db *gorm.DB, debtorID, productID string, qty decimal.Decimal) (*Debtor, error) {
	if qty.LessThanOrEqual(decimal.Zero) {
		return nil, Invalid("return quantity must be positive")
	}
	debtor, err := lockDebtor(db, debtorID)
	if err != nil {
		return nil, err
	}

	var line *DebtorProduct
	for i := range debtor.Products {
		if debtor.Products[i].ProductID == productID {
			line = &debtor.Products[i]
			break
		}
	}
	if line == nil {
		return nil, NotFound("debtor product")
	}
	if qty.GreaterThan(line.Quantity) {
		return nil, Invalidf("return quantity %s exceeds owed quantity %s",
			qty.String(), line.Quantity.String())
	}

	if _, err := ReturnToStore(db, productID, qty); err != nil {
		return nil, err
	}

	line.Quantity = line.Quantity.Sub(qty)
	debtor.DebtAmount = debtor.DebtAmount.Sub(line.SellPrice.Mul(qty))
	if debtor.DebtAmount.IsNegative() {
		debtor.DebtAmount = decimal.Zero
	}

	if line.Quantity.LessThanOrEqual(decimal.Zero) {
		if err := db.Delete(line).Error; err != nil {
			return nil, err
		}
	} else {
		if err := db.Model(line).Select("Quantity").Updates(line).Error; err != nil {
			return nil, err
		}
	}
	err = db.Model(debtor).Select("DebtAmount").Updates(debtor).Error
	if err != nil {
		return nil, err
	}
	return debtor, nil
}

// ReturnSaleItem hands qty of a finalized sale back to its source location
// and shrinks the row proportionally, including the frozen local total. The
// budget gives back the profit share. A sale driven to zero disappears.
func ReturnSaleItem(db *gorm.DB, saleID uint, qty decimal.Decimal) (*Sale, error) {
	if qty.LessThanOrEqual(decimal.Zero) {
		return nil, Invalid("return quantity must be positive")
	}
	var sale Sale
	err := db.Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&sale, "id = ?", saleID).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, NotFound("sale")
		}
		return nil, err
	}
	if qty.GreaterThan(sale.Quantity) {
		return nil, Invalidf("return quantity %s exceeds sold quantity %s",
			qty.String(), sale.Quantity.String())
	}

	if sale.Location == LocationWarehouse {
		if _, err := ReturnToWarehouse(db, sale.ProductID, qty); err != nil {
			return nil, err
		}
	} else {
		if _, err := ReturnToStore(db, sale.ProductID, qty); err != nil {
			return nil, err
		}
	}

	unitProfit := sale.SellPrice.Sub(sale.BuyPrice)
	if _, err := AddToBudget(db, unitProfit.Mul(qty).Neg()); err != nil {
		return nil, err
	}

	remaining := sale.Quantity.Sub(qty)
	if remaining.LessThanOrEqual(decimal.Zero) {
		if err := db.Delete(&sale).Error; err != nil {
			return nil, err
		}
		sale.Quantity = decimal.Zero
		sale.TotalPrice = decimal.Zero
		sale.TotalPriceSum = decimal.Zero
		return &sale, nil
	}

	// Scale the frozen local total instead of reconverting: the rate the sale
	// ran with is not stored, and frozen values never move with a later rate.
	sale.TotalPriceSum = sale.TotalPriceSum.Mul(remaining).Div(sale.Quantity)
	sale.Quantity = remaining
	sale.TotalPrice = sale.SellPrice.Mul(remaining)
	err = db.Model(&sale).
		Select("Quantity", "TotalPrice", "TotalPriceSum").
		Updates(&sale).Error
	if err != nil {
		return nil, err
	}
	return &sale, nil
}

// DeleteSale reverses a finalized sale: the quantity goes back to the
// location it was sold from and the budget gives the profit back.
func DeleteSale(db *gorm.DB, saleID uint) error {
	var sale Sale
	err := db.Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&sale, "id = ?", saleID).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return NotFound("sale")
		}
		return err
	}

	if sale.Location == LocationWarehouse {
		if _, err := ReturnToWarehouse(db, sale.ProductID, sale.Quantity); err != nil {
			return err
		}
	} else {
		if _, err := ReturnToStore(db, sale.ProductID, sale.Quantity); err != nil {
			return err
		}
	}

	if _, err := AddToBudget(db, sale.Profit().Neg()); err != nil {
		return err
	}
	return db.Delete(&sale).Error
}
