package models

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DebtRole selects which of a client's two ledgers an operation touches.
// The supplier ledger tracks what the shop owes the party; the customer
// ledger tracks what the party owes the shop. They are financially
// independent even though they live on the same client row.
type DebtRole string

const (
	DebtRoleSupplier DebtRole = "supplier"
	DebtRoleCustomer DebtRole = "customer"
)

// AllocationOrder is the payment allocation policy. Settling the newest
// entry first matches how the shop actually closes invoices; oldest-first is
// available per payment.
type AllocationOrder string

const (
	AllocateNewestFirst AllocationOrder = "newest_first"
	AllocateOldestFirst AllocationOrder = "oldest_first"
)

// Client is a supplier or customer. Type records how the party entered the
// system; both ledgers are usable regardless.
type Client struct {
	Id      string  `json:"id" gorm:"primaryKey"`
	Name    string  `json:"name" gorm:"not null"`
	Phone   *string `json:"phone" gorm:"uniqueIndex"` // unique only when present
	Address string  `json:"address"`
	Type    string  `json:"type" gorm:"type:VARCHAR(20);default:supplier"`

	SupplierTotalDebt decimal.Decimal `json:"supplier_total_debt" gorm:"type:decimal(20,4);default:0"`
	CustomerTotalDebt decimal.Decimal `json:"customer_total_debt" gorm:"type:decimal(20,4);default:0"`

	Debts []DebtEntry `json:"debts" gorm:"foreignKey:ClientID;constraint:OnDelete:CASCADE"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (client *Client) BeforeCreate(tx *gorm.DB) (err error) {
	if client.Id == "" {
		client.Id = uuid.NewString()
	}
	return
}

// DebtEntry is one line of a client ledger. The identifying fields are
// immutable once posted; only PaidAmount and RemainingDebt move, and only
// through PayDebt.
type DebtEntry struct {
	ID       uint     `json:"id" gorm:"primaryKey"`
	ClientID string   `json:"-" gorm:"index;not null"`
	Role     DebtRole `json:"role" gorm:"type:VARCHAR(20);index;not null"`

	ProductID   *string `json:"product_id"`
	ProductName string  `json:"product_name" gorm:"not null"`

	Quantity     decimal.Decimal `json:"quantity" gorm:"type:decimal(20,4)"`
	PricePerItem decimal.Decimal `json:"price_per_item" gorm:"type:decimal(20,4)"`

	TotalPrice    decimal.Decimal `json:"total_price" gorm:"type:decimal(20,4)"`
	PaidAmount    decimal.Decimal `json:"paid_amount" gorm:"type:decimal(20,4)"`
	RemainingDebt decimal.Decimal `json:"remaining_debt" gorm:"type:decimal(20,4)"`

	Currency string `json:"currency" gorm:"type:VARCHAR(10);default:usd"`
	Note     string `json:"note"`

	CreatedAt time.Time `json:"created_at"`
}

// NewDebtEntry is the input for posting one ledger line.
type NewDebtEntry struct {
	ProductID    *string
	ProductName  string
	Quantity     decimal.Decimal
	PricePerItem decimal.Decimal
	PaidAmount   decimal.Decimal
	Currency     string
	Note         string
}

// TotalDebt returns the running total for one role.
func (client *Client) TotalDebt(role DebtRole) decimal.Decimal {
	if role == DebtRoleSupplier {
		return client.SupplierTotalDebt
	}
	return client.CustomerTotalDebt
}

func (client *Client) setTotalDebt(role DebtRole, v decimal.Decimal) {
	if role == DebtRoleSupplier {
		client.SupplierTotalDebt = v
	} else {
		client.CustomerTotalDebt = v
	}
}

// RoleDebts returns the client's ledger lines for one role, oldest first.
func (client *Client) RoleDebts(role DebtRole) []*DebtEntry {
	var out []*DebtEntry
	for i := range client.Debts {
		if client.Debts[i].Role == role {
			out = append(out, &client.Debts[i])
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// AddDebt appends a ledger line and bumps the role's running total by the
// remaining (unpaid) part. The entry still has to be persisted by the caller
// together with the client row.
func (client *Client) AddDebt(role DebtRole, in NewDebtEntry) (*DebtEntry, error) {
	if in.Quantity.LessThanOrEqual(decimal.Zero) {
		return nil, Invalid("debt quantity must be positive")
	}
	if in.PricePerItem.IsNegative() {
		return nil, Invalid("debt price must not be negative")
	}
	if in.PaidAmount.IsNegative() {
		return nil, Invalid("paid amount must not be negative")
	}
	if in.ProductName == "" {
		return nil, Invalid("product name is required")
	}

	total := in.Quantity.Mul(in.PricePerItem)
	remaining := total.Sub(in.PaidAmount)
	if remaining.IsNegative() {
		remaining = decimal.Zero
	}

	entry := DebtEntry{
		ClientID:      client.Id,
		Role:          role,
		ProductID:     in.ProductID,
		ProductName:   in.ProductName,
		Quantity:      in.Quantity,
		PricePerItem:  in.PricePerItem,
		TotalPrice:    total,
		PaidAmount:    in.PaidAmount,
		RemainingDebt: remaining,
		Currency:      in.Currency,
		Note:          in.Note,
	}
	client.Debts = append(client.Debts, entry)
	client.setTotalDebt(role, client.TotalDebt(role).Add(remaining))
	return &client.Debts[len(client.Debts)-1], nil
}

// PayDebt applies a payment against one role's ledger. The running total is
// clamped at zero (overpayment is absorbed), then the amount is walked across
// open entries in the given allocation order.
func (client *Client) PayDebt(role DebtRole, amount decimal.Decimal, order AllocationOrder) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return Invalid("payment amount must be positive")
	}

	total := client.TotalDebt(role).Sub(amount)
	if total.IsNegative() {
		total = decimal.Zero
	}
	client.setTotalDebt(role, total)

	entries := client.RoleDebts(role)
	if order != AllocateOldestFirst {
		for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
			entries[i], entries[j] = entries[j], entries[i]
		}
	}

	left := amount
	for _, entry := range entries {
		if left.LessThanOrEqual(decimal.Zero) {
			break
		}
		if entry.RemainingDebt.LessThanOrEqual(decimal.Zero) {
			continue
		}
		used := decimal.Min(entry.RemainingDebt, left)
		entry.PaidAmount = entry.PaidAmount.Add(used)
		entry.RemainingDebt = entry.RemainingDebt.Sub(used)
		left = left.Sub(used)
	}
	return nil
}

// LedgerBalanced reports whether one role's running total still equals the
// sum of its entries' remaining debts.
func (client *Client) LedgerBalanced(role DebtRole) bool {
	sum := decimal.Zero
	for _, entry := range client.RoleDebts(role) {
		sum = sum.Add(entry.RemainingDebt)
	}
	return sum.Equal(client.TotalDebt(role))
}

// loadClientForUpdate fetches a client with its ledger under a row lock.
func loadClientForUpdate(db *gorm.DB, clientID string) (*Client, error) {
	var client Client
	err := db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Preload("Debts").
		First(&client, "id = ?", clientID).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, NotFound("client")
		}
		return nil, err
	}
	return &client, nil
}

// PostClientDebt posts one ledger line inside the caller's transaction.
func PostClientDebt(db *gorm.DB, clientID string, role DebtRole, in NewDebtEntry) (*DebtEntry, error) {
	client, err := loadClientForUpdate(db, clientID)
	if err != nil {
		return nil, err
	}
	entry, err := client.AddDebt(role, in)
	if err != nil {
		return nil, err
	}
	if err := db.Create(entry).Error; err != nil {
		return nil, err
	}
	err = db.Model(client).Select("SupplierTotalDebt", "CustomerTotalDebt").Updates(client).Error
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// PayClientDebt applies a payment inside the caller's transaction and
// persists the touched entries plus the running total.
func PayClientDebt(db *gorm.DB, clientID string, role DebtRole, amount decimal.Decimal, order AllocationOrder) (*Client, error) {
	client, err := loadClientForUpdate(db, clientID)
	if err != nil {
		return nil, err
	}
	if err := client.PayDebt(role, amount, order); err != nil {
		return nil, err
	}
	for i := range client.Debts {
		entry := &client.Debts[i]
		if entry.Role != role {
			continue
		}
		err := db.Model(entry).Select("PaidAmount", "RemainingDebt").Updates(entry).Error
		if err != nil {
			return nil, err
		}
	}
	err = db.Model(client).Select("SupplierTotalDebt", "CustomerTotalDebt").Updates(client).Error
	if err != nil {
		return nil, err
	}
	return client, nil
}

// ClientBalance returns the outstanding total for one role.
func ClientBalance(db *gorm.DB, clientID string, role DebtRole) (decimal.Decimal, error) {
	var client Client
	if err := db.First(&client, "id = ?", clientID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return decimal.Zero, NotFound("client")
		}
		return decimal.Zero, err
	}
	return client.TotalDebt(role), nil
}
