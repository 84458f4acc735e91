package models

import (
	"testing"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func seedCar(t *testing.T, db *gorm.DB) (*Master, *MasterCar) {
	t.Helper()
	master := Master{MasterName: "Akmal usta"}
	if err := db.Create(&master).Error; err != nil {
		t.Fatalf("create master: %v", err)
	}
	car := MasterCar{MasterID: master.Id, CarName: "Isuzu"}
	if err := db.Create(&car).Error; err != nil {
		t.Fatalf("create car: %v", err)
	}
	return &master, &car
}

func TestAddCarSaleComputesTotal(t *testing.T) {
	db := newTestDB(t)
	master, car := seedCar(t, db)

	line, err := AddCarSale(db, master.Id, car.Id, CarSale{
		ProductID:   "p1",
		ProductName: "profil",
		SellPrice:   dec(t, "5000"),
		BuyPrice:    dec(t, "3000"),
		Currency:    "sum",
		Quantity:    dec(t, "2"),
	})
	if err != nil {
		t.Fatalf("AddCarSale: %v", err)
	}
	mustEqual(t, line.TotalPrice, dec(t, "10000"), "line total")
}

func TestAddCarSaleUnknownCar(t *testing.T) {
	db := newTestDB(t)
	master, _ := seedCar(t, db)
	_, err := AddCarSale(db, master.Id, "missing", CarSale{
		ProductID: "p1", ProductName: "profil",
		SellPrice: dec(t, "1"), Quantity: dec(t, "1"),
	})
	if !IsKind(err, KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

// Payments below the sales total leave the account pending; once the rounded
// converted payments cover the rounded converted sales, every pending line
// finalizes and the account clears.
func TestApplyCarPaymentSettlesWhenCovered(t *testing.T) {
	db := newTestDB(t)
	master, car := seedCar(t, db)
	rate := dec(t, "12500")

	if _, err := AddCarSale(db, master.Id, car.Id, CarSale{
		ProductID:   "p1",
		ProductName: "profil",
		SellPrice:   dec(t, "5000"),
		BuyPrice:    dec(t, "3000"),
		Currency:    "sum",
		Quantity:    dec(t, "2"),
	}); err != nil {
		t.Fatalf("AddCarSale: %v", err)
	}

	got, settled, err := ApplyCarPayment(db, master.Id, car.Id, CarPaymentInput{
		Amount: dec(t, "4000"), Currency: "sum", PaymentMethod: PaymentCash,
	}, rate)
	if err != nil {
		t.Fatalf("first payment: %v", err)
	}
	if settled {
		t.Fatal("partial payment settled the account")
	}
	if len(got.Sales) != 1 {
		t.Fatalf("pending lines = %d, want 1", len(got.Sales))
	}

	_, settled, err = ApplyCarPayment(db, master.Id, car.Id, CarPaymentInput{
		Amount: dec(t, "6000"), Currency: "sum", PaymentMethod: PaymentCash,
	}, rate)
	if err != nil {
		t.Fatalf("covering payment: %v", err)
	}
	if !settled {
		t.Fatal("covering payment did not settle")
	}

	var sales []Sale
	if err := db.Find(&sales).Error; err != nil {
		t.Fatalf("load sales: %v", err)
	}
	if len(sales) != 1 {
		t.Fatalf("finalized sales = %d, want 1", len(sales))
	}
	mustEqual(t, sales[0].TotalPriceSum, dec(t, "10000"), "local total")
	mustEqual(t, budgetTotal(t, db), dec(t, "4000"), "budget")

	var pending, payments int64
	db.Model(&CarSale{}).Where("car_id = ?", car.Id).Count(&pending)
	db.Model(&CarPayment{}).Where("car_id = ?", car.Id).Count(&payments)
	if pending != 0 || payments != 0 {
		t.Fatalf("account did not clear: %d sales, %d payments", pending, payments)
	}
}

// Comparison happens on whole local units, so sub-unit shortfalls still
// settle.
func TestApplyCarPaymentRoundsBeforeComparing(t *testing.T) {
	db := newTestDB(t)
	master, car := seedCar(t, db)

	if _, err := AddCarSale(db, master.Id, car.Id, CarSale{
		ProductID:   "p1",
		ProductName: "profil",
		SellPrice:   dec(t, "5000.2"),
		BuyPrice:    dec(t, "3000"),
		Currency:    "sum",
		Quantity:    dec(t, "2"),
	}); err != nil {
		t.Fatalf("AddCarSale: %v", err)
	}

	_, settled, err := ApplyCarPayment(db, master.Id, car.Id, CarPaymentInput{
		Amount: dec(t, "10000.1"), Currency: "sum", PaymentMethod: PaymentCash,
	}, dec(t, "12500"))
	if err != nil {
		t.Fatalf("payment: %v", err)
	}
	if !settled {
		t.Fatal("rounded-equal payment did not settle")
	}
}

func TestApplyCarPaymentMixedCurrency(t *testing.T) {
	db := newTestDB(t)
	master, car := seedCar(t, db)
	rate := dec(t, "12500")

	// 2 usd of sales = 25000 sum at this rate.
	if _, err := AddCarSale(db, master.Id, car.Id, CarSale{
		ProductID:   "p1",
		ProductName: "profil",
		SellPrice:   dec(t, "1"),
		BuyPrice:    dec(t, "0.5"),
		Currency:    "usd",
		Quantity:    dec(t, "2"),
	}); err != nil {
		t.Fatalf("AddCarSale: %v", err)
	}

	_, settled, err := ApplyCarPayment(db, master.Id, car.Id, CarPaymentInput{
		Amount: dec(t, "25000"), Currency: "sum", PaymentMethod: PaymentTransfer,
	}, rate)
	if err != nil {
		t.Fatalf("payment: %v", err)
	}
	if !settled {
		t.Fatal("equivalent local payment did not settle")
	}

	var sale Sale
	if err := db.First(&sale).Error; err != nil {
		t.Fatalf("load sale: %v", err)
	}
	if sale.Currency != "usd" {
		t.Fatalf("sale currency = %q, want usd", sale.Currency)
	}
	mustEqual(t, sale.TotalPriceSum, dec(t, "25000"), "frozen local total")
}

func TestApplyCarPaymentInvalidRateWithForeignLines(t *testing.T) {
	db := newTestDB(t)
	master, car := seedCar(t, db)

	if _, err := AddCarSale(db, master.Id, car.Id, CarSale{
		ProductID:   "p1",
		ProductName: "profil",
		SellPrice:   dec(t, "1"),
		Currency:    "usd",
		Quantity:    dec(t, "1"),
	}); err != nil {
		t.Fatalf("AddCarSale: %v", err)
	}

	_, _, err := ApplyCarPayment(db, master.Id, car.Id, CarPaymentInput{
		Amount: dec(t, "100"), Currency: "sum",
	}, decimal.Zero)
	if !IsKind(err, KindInvalidRate) {
		t.Fatalf("expected invalid rate, got %v", err)
	}
}
