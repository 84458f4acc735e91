package models

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestAddDebtComputesRemaining(t *testing.T) {
	client := &Client{Id: "c1", Name: "Usta Karim"}

	entry, err := client.AddDebt(DebtRoleSupplier, NewDebtEntry{
		ProductName:  "cement",
		Quantity:     dec(t, "10"),
		PricePerItem: dec(t, "5"),
		PaidAmount:   dec(t, "20"),
		Currency:     "usd",
	})
	if err != nil {
		t.Fatalf("AddDebt: %v", err)
	}

	mustEqual(t, entry.TotalPrice, dec(t, "50"), "total price")
	mustEqual(t, entry.RemainingDebt, dec(t, "30"), "remaining debt")
	mustEqual(t, client.SupplierTotalDebt, dec(t, "30"), "supplier total")
	mustEqual(t, client.CustomerTotalDebt, decimal.Zero, "customer total")
}

func TestAddDebtOverpaidEntryClampsAtZero(t *testing.T) {
	client := &Client{Id: "c1", Name: "Usta Karim"}
	entry, err := client.AddDebt(DebtRoleCustomer, NewDebtEntry{
		ProductName:  "paint",
		Quantity:     dec(t, "2"),
		PricePerItem: dec(t, "10"),
		PaidAmount:   dec(t, "25"),
	})
	if err != nil {
		t.Fatalf("AddDebt: %v", err)
	}
	mustEqual(t, entry.RemainingDebt, decimal.Zero, "remaining debt")
	mustEqual(t, client.CustomerTotalDebt, decimal.Zero, "customer total")
}

func TestAddDebtRejectsBadInput(t *testing.T) {
	client := &Client{Id: "c1"}
	cases := []NewDebtEntry{
		{ProductName: "x", Quantity: decimal.Zero, PricePerItem: dec(t, "1")},
		{ProductName: "x", Quantity: dec(t, "1"), PricePerItem: dec(t, "-1")},
		{ProductName: "x", Quantity: dec(t, "1"), PaidAmount: dec(t, "-1")},
		{ProductName: "", Quantity: dec(t, "1")},
	}
	for i, in := range cases {
		if _, err := client.AddDebt(DebtRoleSupplier, in); !IsKind(err, KindInvalid) {
			t.Fatalf("case %d: expected invalid, got %v", i, err)
		}
	}
}

// Two open entries, older 100 and newer 50. A 30 payment settles against the
// newest entry first, leaving it at 20 and the older one untouched.
func TestPayDebtNewestFirst(t *testing.T) {
	client := &Client{Id: "c1", Name: "Usta Karim"}
	if _, err := client.AddDebt(DebtRoleSupplier, NewDebtEntry{
		ProductName: "older", Quantity: dec(t, "1"), PricePerItem: dec(t, "100"),
	}); err != nil {
		t.Fatalf("AddDebt older: %v", err)
	}
	if _, err := client.AddDebt(DebtRoleSupplier, NewDebtEntry{
		ProductName: "newer", Quantity: dec(t, "1"), PricePerItem: dec(t, "50"),
	}); err != nil {
		t.Fatalf("AddDebt newer: %v", err)
	}
	// In-memory entries have no DB ids yet; order them explicitly.
	client.Debts[0].ID = 1
	client.Debts[1].ID = 2

	if err := client.PayDebt(DebtRoleSupplier, dec(t, "30"), AllocateNewestFirst); err != nil {
		t.Fatalf("PayDebt: %v", err)
	}

	mustEqual(t, client.SupplierTotalDebt, dec(t, "120"), "supplier total")
	mustEqual(t, client.Debts[0].RemainingDebt, dec(t, "100"), "older remaining")
	mustEqual(t, client.Debts[1].RemainingDebt, dec(t, "20"), "newer remaining")
	if !client.LedgerBalanced(DebtRoleSupplier) {
		t.Fatal("ledger out of balance")
	}
}

func TestPayDebtOldestFirst(t *testing.T) {
	client := &Client{Id: "c1"}
	client.AddDebt(DebtRoleSupplier, NewDebtEntry{
		ProductName: "older", Quantity: dec(t, "1"), PricePerItem: dec(t, "100"),
	})
	client.AddDebt(DebtRoleSupplier, NewDebtEntry{
		ProductName: "newer", Quantity: dec(t, "1"), PricePerItem: dec(t, "50"),
	})
	client.Debts[0].ID = 1
	client.Debts[1].ID = 2

	if err := client.PayDebt(DebtRoleSupplier, dec(t, "30"), AllocateOldestFirst); err != nil {
		t.Fatalf("PayDebt: %v", err)
	}
	mustEqual(t, client.Debts[0].RemainingDebt, dec(t, "70"), "older remaining")
	mustEqual(t, client.Debts[1].RemainingDebt, dec(t, "50"), "newer remaining")
}

func TestPayDebtOverpaymentClampsTotal(t *testing.T) {
	client := &Client{Id: "c1"}
	client.AddDebt(DebtRoleCustomer, NewDebtEntry{
		ProductName: "tile", Quantity: dec(t, "1"), PricePerItem: dec(t, "40"),
	})
	client.Debts[0].ID = 1

	if err := client.PayDebt(DebtRoleCustomer, dec(t, "100"), AllocateNewestFirst); err != nil {
		t.Fatalf("PayDebt: %v", err)
	}
	mustEqual(t, client.CustomerTotalDebt, decimal.Zero, "customer total")
	mustEqual(t, client.Debts[0].RemainingDebt, decimal.Zero, "entry remaining")
}

func TestPayDebtRejectsNonPositiveAmount(t *testing.T) {
	client := &Client{Id: "c1"}
	if err := client.PayDebt(DebtRoleSupplier, decimal.Zero, AllocateNewestFirst); !IsKind(err, KindInvalid) {
		t.Fatalf("expected invalid, got %v", err)
	}
}

// The two ledgers on one client never interfere.
func TestLedgersAreIndependent(t *testing.T) {
	client := &Client{Id: "c1"}
	client.AddDebt(DebtRoleSupplier, NewDebtEntry{
		ProductName: "cement", Quantity: dec(t, "1"), PricePerItem: dec(t, "80"),
	})
	client.AddDebt(DebtRoleCustomer, NewDebtEntry{
		ProductName: "paint", Quantity: dec(t, "1"), PricePerItem: dec(t, "60"),
	})
	client.Debts[0].ID = 1
	client.Debts[1].ID = 2

	if err := client.PayDebt(DebtRoleCustomer, dec(t, "60"), AllocateNewestFirst); err != nil {
		t.Fatalf("PayDebt: %v", err)
	}
	mustEqual(t, client.SupplierTotalDebt, dec(t, "80"), "supplier total")
	mustEqual(t, client.CustomerTotalDebt, decimal.Zero, "customer total")
	mustEqual(t, client.Debts[0].RemainingDebt, dec(t, "80"), "supplier entry")
}

func TestPostAndPayClientDebtPersisted(t *testing.T) {
	db := newTestDB(t)

	client := Client{Name: "Usta Karim", Type: "supplier"}
	if err := db.Create(&client).Error; err != nil {
		t.Fatalf("create client: %v", err)
	}

	if _, err := PostClientDebt(db, client.Id, DebtRoleSupplier, NewDebtEntry{
		ProductName: "cement", Quantity: dec(t, "10"), PricePerItem: dec(t, "10"), Currency: "usd",
	}); err != nil {
		t.Fatalf("PostClientDebt: %v", err)
	}
	if _, err := PostClientDebt(db, client.Id, DebtRoleSupplier, NewDebtEntry{
		ProductName: "sand", Quantity: dec(t, "5"), PricePerItem: dec(t, "10"), Currency: "usd",
	}); err != nil {
		t.Fatalf("PostClientDebt: %v", err)
	}

	got, err := PayClientDebt(db, client.Id, DebtRoleSupplier, dec(t, "30"), AllocateNewestFirst)
	if err != nil {
		t.Fatalf("PayClientDebt: %v", err)
	}
	mustEqual(t, got.SupplierTotalDebt, dec(t, "120"), "supplier total after payment")

	var reloaded Client
	if err := db.Preload("Debts").First(&reloaded, "id = ?", client.Id).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if !reloaded.LedgerBalanced(DebtRoleSupplier) {
		t.Fatal("persisted ledger out of balance")
	}
	entries := reloaded.RoleDebts(DebtRoleSupplier)
	mustEqual(t, entries[0].RemainingDebt, dec(t, "100"), "older entry remaining")
	mustEqual(t, entries[1].RemainingDebt, dec(t, "20"), "newer entry remaining")
}

func TestPayClientDebtUnknownClient(t *testing.T) {
	db := newTestDB(t)
	_, err := PayClientDebt(db, "missing", DebtRoleSupplier, dec(t, "10"), AllocateNewestFirst)
	if !IsKind(err, KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
