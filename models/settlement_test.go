package models

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func budgetTotal(t *testing.T, db *gorm.DB) decimal.Decimal {
	t.Helper()
	var budget Budget
	err := db.First(&budget).Error
	if err == gorm.ErrRecordNotFound {
		return decimal.Zero
	}
	if err != nil {
		t.Fatalf("load budget: %v", err)
	}
	return budget.TotalBudget
}

func TestRecordCashSaleFreezesLocalTotalAndMovesBudget(t *testing.T) {
	db := newTestDB(t)
	product := seedProduct(t, db, "10")
	rate := dec(t, "12500")

	sale, err := RecordCashSale(db, CashSaleInput{
		ProductID:     product.Id,
		Quantity:      dec(t, "2"),
		SellPrice:     dec(t, "100"),
		BuyPrice:      dec(t, "60"),
		Currency:      "usd",
		PaymentMethod: PaymentCash,
		Location:      LocationWarehouse,
	}, rate)
	if err != nil {
		t.Fatalf("RecordCashSale: %v", err)
	}

	mustEqual(t, sale.TotalPrice, dec(t, "200"), "sale total")
	mustEqual(t, sale.TotalPriceSum, dec(t, "2500000"), "frozen local total")
	mustEqual(t, sale.Profit(), dec(t, "80"), "profit")
	mustEqual(t, budgetTotal(t, db), dec(t, "80"), "budget")

	var after Product
	if err := db.First(&after, "id = ?", product.Id).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	mustEqual(t, after.Stock, dec(t, "8"), "warehouse stock")
	if len(sale.ProductSnapshot) == 0 {
		t.Fatal("missing product snapshot")
	}
}

func TestRecordCashSaleLocalCurrencyNeedsNoRate(t *testing.T) {
	db := newTestDB(t)
	product := seedProduct(t, db, "10")
	if _, _, err := TransferToStore(db, product.Id, dec(t, "5")); err != nil {
		t.Fatalf("transfer: %v", err)
	}

	sale, err := RecordCashSale(db, CashSaleInput{
		ProductID:     product.Id,
		Quantity:      dec(t, "1"),
		SellPrice:     dec(t, "150000"),
		BuyPrice:      dec(t, "100000"),
		Currency:      "sum",
		PaymentMethod: PaymentCard,
		Location:      LocationStore,
	}, decimal.Zero)
	if err != nil {
		t.Fatalf("RecordCashSale: %v", err)
	}
	mustEqual(t, sale.TotalPriceSum, dec(t, "150000"), "local total")
}

func TestRecordCashSaleInvalidRate(t *testing.T) {
	db := newTestDB(t)
	product := seedProduct(t, db, "10")

	_, err := RecordCashSale(db, CashSaleInput{
		ProductID:     product.Id,
		Quantity:      dec(t, "1"),
		SellPrice:     dec(t, "100"),
		BuyPrice:      dec(t, "60"),
		Currency:      "usd",
		PaymentMethod: PaymentCash,
		Location:      LocationWarehouse,
	}, decimal.Zero)
	if !IsKind(err, KindInvalidRate) {
		t.Fatalf("expected invalid rate, got %v", err)
	}
}

func TestRecordCreditSaleOpensDebtorWithoutSale(t *testing.T) {
	db := newTestDB(t)
	product := seedProduct(t, db, "10")
	if _, _, err := TransferToStore(db, product.Id, dec(t, "5")); err != nil {
		t.Fatalf("transfer: %v", err)
	}

	due := time.Now().AddDate(0, 1, 0)
	debtor, err := RecordCreditSale(db, CreditSaleInput{
		ProductID:   product.Id,
		Quantity:    dec(t, "2"),
		SellPrice:   dec(t, "100"),
		Currency:    "usd",
		Location:    LocationStore,
		DebtorName:  "Bobur",
		DebtorPhone: "+998901234567",
		DueDate:     due,
	})
	if err != nil {
		t.Fatalf("RecordCreditSale: %v", err)
	}
	mustEqual(t, debtor.DebtAmount, dec(t, "200"), "debtor balance")
	if len(debtor.Products) != 1 {
		t.Fatalf("debtor lines = %d, want 1", len(debtor.Products))
	}

	// Goods left immediately, but nothing finalized yet.
	var store StoreProduct
	if err := db.First(&store, "product_id = ?", product.Id).Error; err != nil {
		t.Fatalf("load store: %v", err)
	}
	mustEqual(t, store.Quantity, dec(t, "3"), "store quantity")

	var sales int64
	db.Model(&Sale{}).Count(&sales)
	if sales != 0 {
		t.Fatalf("credit sale produced %d Sale rows", sales)
	}
	mustEqual(t, budgetTotal(t, db), decimal.Zero, "budget")
}

func seedDebtor(t *testing.T, db *gorm.DB, product *Product, balance, currency string) *Debtor {
	t.Helper()
	debtor := Debtor{
		Name:       "Bobur",
		Phone:      "+998901234567",
		DebtAmount: dec(t, balance),
		DueDate:    time.Now().AddDate(0, 1, 0),
		Currency:   currency,
		Products: []DebtorProduct{{
			ProductID:   product.Id,
			ProductName: product.ProductName,
			Quantity:    dec(t, "1"),
			SellPrice:   dec(t, balance),
			Currency:    currency,
			SoldDate:    time.Now(),
			DueDate:     time.Now().AddDate(0, 1, 0),
		}},
	}
	if err := db.Create(&debtor).Error; err != nil {
		t.Fatalf("seed debtor: %v", err)
	}
	return &debtor
}

// A 100 sum balance at rate 12500 equals 0.008 usd exactly. Half of it in
// usd leaves 50 sum; the other half settles in full.
func TestApplyDebtorPaymentCrossCurrency(t *testing.T) {
	db := newTestDB(t)
	product := seedProduct(t, db, "10")
	if _, _, err := TransferToStore(db, product.Id, dec(t, "5")); err != nil {
		t.Fatalf("transfer: %v", err)
	}
	debtor := seedDebtor(t, db, product, "100", "sum")
	rate := dec(t, "12500")

	got, settled, err := ApplyDebtorPayment(db, debtor.Id, DebtorPaymentInput{
		Amount:   dec(t, "0.004"),
		Currency: "usd",
	}, rate)
	if err != nil {
		t.Fatalf("partial payment: %v", err)
	}
	if settled {
		t.Fatal("partial payment reported as settled")
	}
	mustEqual(t, got.DebtAmount, dec(t, "50"), "balance after partial payment")

	got, settled, err = ApplyDebtorPayment(db, debtor.Id, DebtorPaymentInput{
		Amount:   dec(t, "0.004"),
		Currency: "usd",
	}, rate)
	if err != nil {
		t.Fatalf("settling payment: %v", err)
	}
	if !settled {
		t.Fatal("covering payment did not settle")
	}
	mustEqual(t, got.DebtAmount, decimal.Zero, "balance after settlement")

	// The record and its payment history survive by default.
	var reloaded Debtor
	err = db.Preload("Products").Preload("PaymentLog").
		First(&reloaded, "id = ?", debtor.Id).Error
	if err != nil {
		t.Fatalf("reload debtor: %v", err)
	}
	if len(reloaded.Products) != 0 {
		t.Fatalf("owed lines survived settlement: %d", len(reloaded.Products))
	}
	if len(reloaded.PaymentLog) != 2 {
		t.Fatalf("payment log lines = %d, want 2", len(reloaded.PaymentLog))
	}

	// One Sale row per owed line, in the line's own currency.
	var sales []Sale
	if err := db.Find(&sales).Error; err != nil {
		t.Fatalf("load sales: %v", err)
	}
	if len(sales) != 1 {
		t.Fatalf("sale rows = %d, want 1", len(sales))
	}
	if sales[0].Currency != "sum" {
		t.Fatalf("sale currency = %q, want sum", sales[0].Currency)
	}
	mustEqual(t, sales[0].TotalPriceSum, dec(t, "100"), "sale local total")
	mustEqual(t, budgetTotal(t, db), sales[0].Profit(), "budget")
}

func TestApplyDebtorPaymentSettleAndDelete(t *testing.T) {
	db := newTestDB(t)
	product := seedProduct(t, db, "10")
	if _, _, err := TransferToStore(db, product.Id, dec(t, "5")); err != nil {
		t.Fatalf("transfer: %v", err)
	}
	debtor := seedDebtor(t, db, product, "100", "usd")

	_, settled, err := ApplyDebtorPayment(db, debtor.Id, DebtorPaymentInput{
		Amount:          dec(t, "100"),
		Currency:        "usd",
		SettleAndDelete: true,
	}, dec(t, "12500"))
	if err != nil {
		t.Fatalf("payment: %v", err)
	}
	if !settled {
		t.Fatal("covering payment did not settle")
	}

	var count int64
	db.Model(&Debtor{}).Where("id = ?", debtor.Id).Count(&count)
	if count != 0 {
		t.Fatal("debtor row survived settle-and-delete")
	}
}

// Resettling an already emptied record logs the payment and changes nothing
// else.
func TestApplyDebtorPaymentOnSettledRecordIsTerminal(t *testing.T) {
	db := newTestDB(t)
	product := seedProduct(t, db, "10")
	if _, _, err := TransferToStore(db, product.Id, dec(t, "5")); err != nil {
		t.Fatalf("transfer: %v", err)
	}
	debtor := seedDebtor(t, db, product, "100", "usd")
	rate := dec(t, "12500")

	if _, _, err := ApplyDebtorPayment(db, debtor.Id, DebtorPaymentInput{
		Amount: dec(t, "100"), Currency: "usd",
	}, rate); err != nil {
		t.Fatalf("first payment: %v", err)
	}
	budgetBefore := budgetTotal(t, db)

	got, settled, err := ApplyDebtorPayment(db, debtor.Id, DebtorPaymentInput{
		Amount: dec(t, "10"), Currency: "usd",
	}, rate)
	if err != nil {
		t.Fatalf("second payment: %v", err)
	}
	if !settled {
		t.Fatal("payment against empty record should report settled")
	}
	mustEqual(t, got.DebtAmount, decimal.Zero, "balance")
	mustEqual(t, budgetTotal(t, db), budgetBefore, "budget unchanged")

	var sales int64
	db.Model(&Sale{}).Count(&sales)
	if sales != 1 {
		t.Fatalf("sale rows = %d, want 1", sales)
	}
}

// The goods leave stock once, when the credit sale is opened. Settling the
// debtor finalizes the Sale rows without moving inventory again.
func TestCreditSaleSettlementMovesStockExactlyOnce(t *testing.T) {
	db := newTestDB(t)
	product := seedProduct(t, db, "10")
	if _, _, err := TransferToStore(db, product.Id, dec(t, "5")); err != nil {
		t.Fatalf("transfer: %v", err)
	}

	debtor, err := RecordCreditSale(db, CreditSaleInput{
		ProductID:   product.Id,
		Quantity:    dec(t, "2"),
		SellPrice:   dec(t, "100"),
		Currency:    "usd",
		Location:    LocationStore,
		DebtorName:  "Bobur",
		DebtorPhone: "+998901234567",
		DueDate:     time.Now().AddDate(0, 1, 0),
	})
	if err != nil {
		t.Fatalf("RecordCreditSale: %v", err)
	}

	var store StoreProduct
	if err := db.First(&store, "product_id = ?", product.Id).Error; err != nil {
		t.Fatalf("load store: %v", err)
	}
	mustEqual(t, store.Quantity, dec(t, "3"), "store quantity after credit sale")

	_, settled, err := ApplyDebtorPayment(db, debtor.Id, DebtorPaymentInput{
		Amount: dec(t, "200"), Currency: "usd",
	}, dec(t, "12500"))
	if err != nil {
		t.Fatalf("settling payment: %v", err)
	}
	if !settled {
		t.Fatal("covering payment did not settle")
	}

	if err := db.First(&store, "product_id = ?", product.Id).Error; err != nil {
		t.Fatalf("reload store: %v", err)
	}
	mustEqual(t, store.Quantity, dec(t, "3"), "store quantity after settlement")

	var after Product
	if err := db.First(&after, "id = ?", product.Id).Error; err != nil {
		t.Fatalf("reload product: %v", err)
	}
	mustEqual(t, after.Stock, dec(t, "5"), "warehouse stock after settlement")

	// warehouse + storefront + sold accounts for every unit.
	var sale Sale
	if err := db.First(&sale).Error; err != nil {
		t.Fatalf("load sale: %v", err)
	}
	total := after.Stock.Add(store.Quantity).Add(sale.Quantity)
	mustEqual(t, total, dec(t, "10"), "stock conservation")
}

func TestReturnDebtorItemShrinksLineAndBalance(t *testing.T) {
	db := newTestDB(t)
	product := seedProduct(t, db, "10")
	debtor := Debtor{
		Name:       "Bobur",
		Phone:      "+998901234567",
		DebtAmount: dec(t, "200"),
		DueDate:    time.Now().AddDate(0, 1, 0),
		Currency:   "usd",
		Products: []DebtorProduct{{
			ProductID:   product.Id,
			ProductName: product.ProductName,
			Quantity:    dec(t, "2"),
			SellPrice:   dec(t, "100"),
			Currency:    "usd",
		}},
	}
	if err := db.Create(&debtor).Error; err != nil {
		t.Fatalf("create debtor: %v", err)
	}

	got, err := ReturnDebtorItem(db, debtor.Id, product.Id, dec(t, "1"))
	if err != nil {
		t.Fatalf("ReturnDebtorItem: %v", err)
	}
	mustEqual(t, got.DebtAmount, dec(t, "100"), "balance after return")

	var store StoreProduct
	if err := db.First(&store, "product_id = ?", product.Id).Error; err != nil {
		t.Fatalf("load store: %v", err)
	}
	mustEqual(t, store.Quantity, dec(t, "1"), "returned quantity on storefront")

	// More than the line still owes is rejected before anything moves.
	if _, err := ReturnDebtorItem(db, debtor.Id, product.Id, dec(t, "5")); !IsKind(err, KindInvalid) {
		t.Fatalf("expected invalid on over-return, got %v", err)
	}

	// Returning the rest removes the line entirely.
	if _, err := ReturnDebtorItem(db, debtor.Id, product.Id, dec(t, "1")); err != nil {
		t.Fatalf("second return: %v", err)
	}
	var lines int64
	db.Model(&DebtorProduct{}).Where("debtor_id = ?", debtor.Id).Count(&lines)
	if lines != 0 {
		t.Fatalf("emptied line survived: %d", lines)
	}
}

func TestReturnSaleItemShrinksSaleProportionally(t *testing.T) {
	db := newTestDB(t)
	product := seedProduct(t, db, "10")
	rate := dec(t, "12500")

	sale, err := RecordCashSale(db, CashSaleInput{
		ProductID:     product.Id,
		Quantity:      dec(t, "4"),
		SellPrice:     dec(t, "100"),
		BuyPrice:      dec(t, "60"),
		Currency:      "usd",
		PaymentMethod: PaymentCash,
		Location:      LocationWarehouse,
	}, rate)
	if err != nil {
		t.Fatalf("RecordCashSale: %v", err)
	}
	mustEqual(t, budgetTotal(t, db), dec(t, "160"), "budget after sale")

	got, err := ReturnSaleItem(db, sale.ID, dec(t, "1"))
	if err != nil {
		t.Fatalf("ReturnSaleItem: %v", err)
	}
	mustEqual(t, got.Quantity, dec(t, "3"), "quantity after return")
	mustEqual(t, got.TotalPrice, dec(t, "300"), "total after return")
	mustEqual(t, got.TotalPriceSum, dec(t, "3750000"), "frozen local total after return")
	mustEqual(t, budgetTotal(t, db), dec(t, "120"), "budget after return")

	var after Product
	if err := db.First(&after, "id = ?", product.Id).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	mustEqual(t, after.Stock, dec(t, "7"), "warehouse stock after return")

	if _, err := ReturnSaleItem(db, sale.ID, dec(t, "5")); !IsKind(err, KindInvalid) {
		t.Fatalf("expected invalid on over-return, got %v", err)
	}

	// Returning the rest removes the row.
	if _, err := ReturnSaleItem(db, sale.ID, dec(t, "3")); err != nil {
		t.Fatalf("final return: %v", err)
	}
	var count int64
	db.Model(&Sale{}).Count(&count)
	if count != 0 {
		t.Fatalf("fully-returned sale survived")
	}
	mustEqual(t, budgetTotal(t, db), decimal.Zero, "budget after full return")
}

func TestDeleteSaleReversesStockAndBudget(t *testing.T) {
	db := newTestDB(t)
	product := seedProduct(t, db, "10")
	rate := dec(t, "12500")

	sale, err := RecordCashSale(db, CashSaleInput{
		ProductID:     product.Id,
		Quantity:      dec(t, "2"),
		SellPrice:     dec(t, "100"),
		BuyPrice:      dec(t, "60"),
		Currency:      "usd",
		PaymentMethod: PaymentCash,
		Location:      LocationWarehouse,
	}, rate)
	if err != nil {
		t.Fatalf("RecordCashSale: %v", err)
	}

	if err := DeleteSale(db, sale.ID); err != nil {
		t.Fatalf("DeleteSale: %v", err)
	}

	var after Product
	if err := db.First(&after, "id = ?", product.Id).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	mustEqual(t, after.Stock, dec(t, "10"), "warehouse stock restored")
	mustEqual(t, budgetTotal(t, db), decimal.Zero, "budget restored")

	var count int64
	db.Model(&Sale{}).Count(&count)
	if count != 0 {
		t.Fatalf("sale row survived reversal")
	}

	if err := DeleteSale(db, sale.ID); !IsKind(err, KindNotFound) {
		t.Fatalf("expected not found on double delete, got %v", err)
	}
}

// The settlement engine inherits transactionality from the caller.
func TestCashSaleRollsBackWithTransaction(t *testing.T) {
	db := newTestDB(t)
	product := seedProduct(t, db, "10")
	fault := errors.New("downstream failure")

	err := db.Transaction(func(tx *gorm.DB) error {
		_, err := RecordCashSale(tx, CashSaleInput{
			ProductID:     product.Id,
			Quantity:      dec(t, "2"),
			SellPrice:     dec(t, "100"),
			BuyPrice:      dec(t, "60"),
			Currency:      "usd",
			PaymentMethod: PaymentCash,
			Location:      LocationWarehouse,
		}, dec(t, "12500"))
		if err != nil {
			return err
		}
		return fault
	})
	if !errors.Is(err, fault) {
		t.Fatalf("expected injected fault, got %v", err)
	}

	var after Product
	if err := db.First(&after, "id = ?", product.Id).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	mustEqual(t, after.Stock, dec(t, "10"), "stock after rollback")
	mustEqual(t, budgetTotal(t, db), decimal.Zero, "budget after rollback")

	var sales int64
	db.Model(&Sale{}).Count(&sales)
	if sales != 0 {
		t.Fatalf("sale row survived rollback")
	}
}
