package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Inventory transfer engine. Every operation takes the caller's transaction
// (the per-request tx in handlers, db.Transaction in tests) so a quantity
// change and the ledger posting it triggers commit or roll back together.
// Rows are locked FOR UPDATE before the read-modify-write.

func lockProduct(db *gorm.DB, productID string) (*Product, error) {
	var product Product
	err := db.Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&product, "id = ?", productID).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, NotFound("product")
		}
		return nil, err
	}
	return &product, nil
}

func lockStoreProduct(db *gorm.DB, productID string) (*StoreProduct, error) {
	var store StoreProduct
	err := db.Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&store, "product_id = ?", productID).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, NotFound("store product")
		}
		return nil, err
	}
	return &store, nil
}

// TransferToStore moves qty from the warehouse to the storefront, creating
// the storefront row on first transfer. All-or-nothing: an insufficient
// warehouse balance fails before anything is written.
func TransferToStore(db *gorm.DB, productID string, qty decimal.Decimal) (*Product, *StoreProduct, error) {
	if qty.LessThanOrEqual(decimal.Zero) {
		return nil, nil, Invalid("transfer quantity must be positive")
	}
	product, err := lockProduct(db, productID)
	if err != nil {
		return nil, nil, err
	}
	if product.Stock.LessThan(qty) {
		return nil, nil, InsufficientStock(product.ProductName, LocationWarehouse, product.Stock, qty)
	}

	store, err := lockStoreProduct(db, productID)
	if IsKind(err, KindNotFound) {
		store = &StoreProduct{
			ProductID:   product.Id,
			ProductName: product.ProductName,
			Quantity:    qty,
		}
		if err := db.Create(store).Error; err != nil {
			return nil, nil, err
		}
	} else if err != nil {
		return nil, nil, err
	} else {
		store.Quantity = store.Quantity.Add(qty)
		if err := db.Save(store).Error; err != nil {
			return nil, nil, err
		}
	}

	product.Stock = product.Stock.Sub(qty)
	if err := db.Save(product).Error; err != nil {
		return nil, nil, err
	}
	return product, store, nil
}

// SellFromStore decrements the storefront quantity. It does not create the
// Sale record; that composition belongs to the settlement engine. A product
// that was never transferred to the storefront counts as zero available
// there, not as a missing record.
func SellFromStore(db *gorm.DB, productID string, qty decimal.Decimal) (*StoreProduct, error) {
	if qty.LessThanOrEqual(decimal.Zero) {
		return nil, Invalid("sale quantity must be positive")
	}
	store, err := lockStoreProduct(db, productID)
	if IsKind(err, KindNotFound) {
		product, perr := lockProduct(db, productID)
		if perr != nil {
			return nil, perr
		}
		return nil, InsufficientStock(product.ProductName, LocationStore, decimal.Zero, qty)
	}
	if err != nil {
		return nil, err
	}
	if store.Quantity.LessThan(qty) {
		return nil, InsufficientStock(store.ProductName, LocationStore, store.Quantity, qty)
	}
	store.Quantity = store.Quantity.Sub(qty)
	if err := db.Save(store).Error; err != nil {
		return nil, err
	}
	return store, nil
}

// SellFromWarehouse decrements the warehouse stock.
func SellFromWarehouse(db *gorm.DB, productID string, qty decimal.Decimal) (*Product, error) {
	if qty.LessThanOrEqual(decimal.Zero) {
		return nil, Invalid("sale quantity must be positive")
	}
	product, err := lockProduct(db, productID)
	if err != nil {
		return nil, err
	}
	if product.Stock.LessThan(qty) {
		return nil, InsufficientStock(product.ProductName, LocationWarehouse, product.Stock, qty)
	}
	product.Stock = product.Stock.Sub(qty)
	if err := db.Save(product).Error; err != nil {
		return nil, err
	}
	return product, nil
}

// ReturnToStore puts qty back on the storefront, creating the row if the
// product was never stocked there. Used by sale reversals and customer
// returns.
func ReturnToStore(db *gorm.DB, productID string, qty decimal.Decimal) (*StoreProduct, error) {
	if qty.LessThanOrEqual(decimal.Zero) {
		return nil, Invalid("return quantity must be positive")
	}
	product, err := lockProduct(db, productID)
	if err != nil {
		return nil, err
	}
	store, err := lockStoreProduct(db, productID)
	if IsKind(err, KindNotFound) {
		store = &StoreProduct{
			ProductID:   product.Id,
			ProductName: product.ProductName,
			Quantity:    qty,
		}
		if err := db.Create(store).Error; err != nil {
			return nil, err
		}
		return store, nil
	}
	if err != nil {
		return nil, err
	}
	store.Quantity = store.Quantity.Add(qty)
	if err := db.Save(store).Error; err != nil {
		return nil, err
	}
	return store, nil
}

// ReturnToWarehouse puts qty back on the warehouse stock.
func ReturnToWarehouse(db *gorm.DB, productID string, qty decimal.Decimal) (*Product, error) {
	if qty.LessThanOrEqual(decimal.Zero) {
		return nil, Invalid("return quantity must be positive")
	}
	product, err := lockProduct(db, productID)
	if err != nil {
		return nil, err
	}
	product.Stock = product.Stock.Add(qty)
	if err := db.Save(product).Error; err != nil {
		return nil, err
	}
	return product, nil
}

// ReceiveStockInput describes one inbound delivery line.
type ReceiveStockInput struct {
	ProductID  string
	Quantity   decimal.Decimal
	UnitCost   decimal.Decimal
	Currency   string
	PaidAmount decimal.Decimal
	ClientID   *string
	Note       string
}

// ReceiveStock increases warehouse stock and, when a supplier party is
// attached, posts the unpaid remainder to that party's supplier ledger in
// the same transaction.
func ReceiveStock(db *gorm.DB, in ReceiveStockInput) (*Product, *DebtEntry, error) {
	if in.Quantity.LessThanOrEqual(decimal.Zero) {
		return nil, nil, Invalid("receive quantity must be positive")
	}
	if in.UnitCost.IsNegative() {
		return nil, nil, Invalid("unit cost must not be negative")
	}
	product, err := lockProduct(db, in.ProductID)
	if err != nil {
		return nil, nil, err
	}
	product.Stock = product.Stock.Add(in.Quantity)
	if err := db.Save(product).Error; err != nil {
		return nil, nil, err
	}

	var entry *DebtEntry
	if in.ClientID != nil {
		entry, err = PostClientDebt(db, *in.ClientID, DebtRoleSupplier, NewDebtEntry{
			ProductID:    &product.Id,
			ProductName:  product.ProductName,
			Quantity:     in.Quantity,
			PricePerItem: in.UnitCost,
			PaidAmount:   in.PaidAmount,
			Currency:     in.Currency,
			Note:         in.Note,
		})
		if err != nil {
			return nil, nil, err
		}
	}

	// Supplier receipt document, one line per call.
	receipt := ProductReceipt{
		ClientID:    in.ClientID,
		ReceiptDate: time.Now(),
		PaidAmount:  in.PaidAmount,
		Items: []ReceiptItem{{
			ProductName: product.ProductName,
			Model:       product.Model,
			Quantity:    in.Quantity,
			UnitPrice:   in.UnitCost,
			Currency:    in.Currency,
			BrandName:   product.BrandName,
			CountType:   product.CountType,
			Barcode:     product.Barcode,
		}},
	}
	if err := db.Create(&receipt).Error; err != nil {
		return nil, nil, err
	}
	return product, entry, nil
}
