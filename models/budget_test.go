package models

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestGetBudgetCreatesSingleton(t *testing.T) {
	db := newTestDB(t)
	budget, err := GetBudget(db)
	if err != nil {
		t.Fatalf("GetBudget: %v", err)
	}
	mustEqual(t, budget.TotalBudget, decimal.Zero, "initial budget")

	again, err := GetBudget(db)
	if err != nil {
		t.Fatalf("second GetBudget: %v", err)
	}
	if again.ID != budget.ID {
		t.Fatalf("budget singleton duplicated: %d vs %d", again.ID, budget.ID)
	}
}

// The budget has no lower bound; returns can legitimately drive it negative.
func TestAddToBudgetAllowsNegative(t *testing.T) {
	db := newTestDB(t)
	if _, err := AddToBudget(db, dec(t, "100")); err != nil {
		t.Fatalf("AddToBudget: %v", err)
	}
	budget, err := AddToBudget(db, dec(t, "-250"))
	if err != nil {
		t.Fatalf("AddToBudget negative: %v", err)
	}
	mustEqual(t, budget.TotalBudget, dec(t, "-150"), "budget")
}

func TestCreateExpenseMovesBudget(t *testing.T) {
	db := newTestDB(t)
	if _, err := AddToBudget(db, dec(t, "500000")); err != nil {
		t.Fatalf("seed budget: %v", err)
	}

	expense, err := CreateExpense(db, &Expense{
		PaymentSumm: dec(t, "120000"),
		Comment:     "electricity",
		StaffName:   "Dilshod",
	})
	if err != nil {
		t.Fatalf("CreateExpense: %v", err)
	}
	if expense.ID == 0 {
		t.Fatal("expense not persisted")
	}
	mustEqual(t, budgetTotal(t, db), dec(t, "380000"), "budget after expense")
}

func TestCreateExpenseRejectsBadInput(t *testing.T) {
	db := newTestDB(t)
	_, err := CreateExpense(db, &Expense{PaymentSumm: decimal.Zero, Comment: "x"})
	if !IsKind(err, KindInvalid) {
		t.Fatalf("expected invalid for zero amount, got %v", err)
	}
	_, err = CreateExpense(db, &Expense{PaymentSumm: dec(t, "10")})
	if !IsKind(err, KindInvalid) {
		t.Fatalf("expected invalid for empty comment, got %v", err)
	}
}

func TestCurrentRateRequiresConfiguredRate(t *testing.T) {
	db := newTestDB(t)

	if _, err := CurrentRate(db); !IsKind(err, KindInvalidRate) {
		t.Fatalf("expected invalid rate on empty table, got %v", err)
	}

	if _, err := SetRate(db, decimal.Zero); !IsKind(err, KindInvalidRate) {
		t.Fatalf("expected invalid rate on zero, got %v", err)
	}

	if _, err := SetRate(db, dec(t, "12500")); err != nil {
		t.Fatalf("SetRate: %v", err)
	}
	rate, err := CurrentRate(db)
	if err != nil {
		t.Fatalf("CurrentRate: %v", err)
	}
	mustEqual(t, rate, dec(t, "12500"), "rate")

	// Upsert keeps a single row.
	if _, err := SetRate(db, dec(t, "12800")); err != nil {
		t.Fatalf("second SetRate: %v", err)
	}
	var count int64
	db.Model(&ExchangeRate{}).Count(&count)
	if count != 1 {
		t.Fatalf("rate rows = %d, want 1", count)
	}
	rate, _ = CurrentRate(db)
	mustEqual(t, rate, dec(t, "12800"), "updated rate")
}
