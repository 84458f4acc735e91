package controllers

import (
	"errors"
	"strings"

	"savdo-backend/database"
	"savdo-backend/middlewares"
	"savdo-backend/models"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type TransferDTO struct {
	ProductID string          `json:"product_id" validate:"required,min=1"`
	Quantity  decimal.Decimal `json:"quantity"`
}

// POST /api/store/transfer
// Warehouse -> storefront. All-or-nothing on insufficient stock.
func TransferToStore(c *fiber.Ctx) error {
	var in TransferDTO
	if err := middlewares.BindAndValidate(c, &in); err != nil {
		return err
	}
	db, err := database.FromCtx(c)
	if err != nil {
		return err
	}
	product, store, err := models.TransferToStore(db, in.ProductID, in.Quantity)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"message":       "transferred",
		"product":       product,
		"store_product": store,
	})
}

// POST /api/store/return
// Storefront -> warehouse, the reverse movement.
func ReturnToWarehouse(c *fiber.Ctx) error {
	var in TransferDTO
	if err := middlewares.BindAndValidate(c, &in); err != nil {
		return err
	}
	db, err := database.FromCtx(c)
	if err != nil {
		return err
	}
	store, err := models.SellFromStore(db, in.ProductID, in.Quantity)
	if err != nil {
		return err
	}
	product, err := models.ReturnToWarehouse(db, in.ProductID, in.Quantity)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"message":       "returned",
		"product":       product,
		"store_product": store,
	})
}

type StoreProductCreateDTO struct {
	ProductName string `json:"product_name" validate:"required,min=1"`
	Model       string `json:"model" validate:"required,min=1"`

	Quantity decimal.Decimal `json:"quantity"`

	PurchasePrice    decimal.Decimal `json:"purchase_price"`
	PurchaseCurrency string          `json:"purchase_currency" validate:"omitempty,oneof=usd sum"`
	SellPrice        decimal.Decimal `json:"sell_price"`
	SellCurrency     string          `json:"sell_currency" validate:"omitempty,oneof=usd sum"`

	BrandName  string          `json:"brand_name"`
	CountType  string          `json:"count_type" validate:"required,oneof=dona metr kg litr qadoq blok"`
	Barcode    string          `json:"barcode" validate:"required,min=1"`
	PaidAmount decimal.Decimal `json:"paid_amount"`
	ClientID   *string         `json:"client_id"`
}

// POST /api/store/products
// Goods that arrive straight onto the storefront: the product record, its
// storefront row, and the supplier's unpaid remainder in one transaction.
// The warehouse is never involved.
func CreateStoreProduct(c *fiber.Ctx) error {
	var in StoreProductCreateDTO
	if err := middlewares.BindAndValidate(c, &in); err != nil {
		return err
	}
	if in.Quantity.LessThanOrEqual(decimal.Zero) {
		return models.Invalid("quantity must be positive")
	}
	if in.PurchasePrice.IsNegative() || in.SellPrice.IsNegative() {
		return models.Invalid("prices must not be negative")
	}
	if in.PurchaseCurrency == "" {
		in.PurchaseCurrency = "usd"
	}
	if in.SellCurrency == "" {
		in.SellCurrency = "usd"
	}

	db, err := database.FromCtx(c)
	if err != nil {
		return err
	}

	var dup models.Product
	if err := db.Where("barcode = ?", in.Barcode).First(&dup).Error; err == nil {
		return models.Conflict("barcode already registered to " + dup.ProductName)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	product := models.Product{
		ProductName:      in.ProductName,
		Model:            in.Model,
		PurchasePrice:    in.PurchasePrice,
		PurchaseCurrency: in.PurchaseCurrency,
		SellPrice:        in.SellPrice,
		SellCurrency:     in.SellCurrency,
		BrandName:        in.BrandName,
		CountType:        in.CountType,
		Barcode:          in.Barcode,
		PaidAmount:       in.PaidAmount,
		ClientId:         in.ClientID,
		IsStoreProduct:   true,
	}
	if err := db.Create(&product).Error; err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "could not create product")
	}

	store := models.StoreProduct{
		ProductID:   product.Id,
		ProductName: product.ProductName,
		Quantity:    in.Quantity,
	}
	if err := db.Create(&store).Error; err != nil {
		return err
	}

	if in.ClientID != nil {
		_, err := models.PostClientDebt(db, *in.ClientID, models.DebtRoleSupplier, models.NewDebtEntry{
			ProductID:    &product.Id,
			ProductName:  product.ProductName,
			Quantity:     in.Quantity,
			PricePerItem: in.PurchasePrice,
			PaidAmount:   in.PaidAmount,
			Currency:     in.PurchaseCurrency,
			Note:         "store intake",
		})
		if err != nil {
			return err
		}
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"product":       product,
		"store_product": store,
	})
}

// GET /api/store?search=
func GetStoreProducts(c *fiber.Ctx) error {
	db, err := database.FromCtx(c)
	if err != nil {
		return err
	}
	q := db.Model(&models.StoreProduct{}).Preload("Product")
	if search := strings.TrimSpace(c.Query("search")); search != "" {
		q = q.Where("product_name LIKE ?", "%"+search+"%")
	}
	var items []models.StoreProduct
	if err := q.Order("product_name").Find(&items).Error; err != nil {
		return err
	}
	return c.JSON(fiber.Map{"total": len(items), "store_products": items})
}

// GET /api/store/:productId
func GetStoreProduct(c *fiber.Ctx) error {
	db, err := database.FromCtx(c)
	if err != nil {
		return err
	}
	var item models.StoreProduct
	err = db.Preload("Product").First(&item, "product_id = ?", c.Params("productId")).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.NotFound("store product")
		}
		return err
	}
	return c.JSON(item)
}

type StoreQuantityFixDTO struct {
	Quantity decimal.Decimal `json:"quantity"`
}

// PUT /api/store/:productId/quantity
// Stocktake correction: overwrites the storefront count outright.
func FixStoreQuantity(c *fiber.Ctx) error {
	var in StoreQuantityFixDTO
	if err := middlewares.BindAndValidate(c, &in); err != nil {
		return err
	}
	if in.Quantity.IsNegative() {
		return models.Invalid("quantity must not be negative")
	}
	db, err := database.FromCtx(c)
	if err != nil {
		return err
	}
	var item models.StoreProduct
	err = db.First(&item, "product_id = ?", c.Params("productId")).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.NotFound("store product")
		}
		return err
	}
	item.Quantity = in.Quantity
	if err := db.Save(&item).Error; err != nil {
		return err
	}
	return c.JSON(item)
}

// DELETE /api/store/:productId
// Removes the storefront row, handing any leftover quantity back to the
// warehouse first.
func DeleteStoreProduct(c *fiber.Ctx) error {
	db, err := database.FromCtx(c)
	if err != nil {
		return err
	}
	var item models.StoreProduct
	err = db.First(&item, "product_id = ?", c.Params("productId")).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.NotFound("store product")
		}
		return err
	}
	if item.Quantity.GreaterThan(decimal.Zero) {
		if _, err := models.ReturnToWarehouse(db, item.ProductID, item.Quantity); err != nil {
			return err
		}
	}
	if err := db.Delete(&item).Error; err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "store product deleted"})
}
