package controllers

import (
	"errors"
	"strings"

	"savdo-backend/database"
	"savdo-backend/middlewares"
	"savdo-backend/models"
	"savdo-backend/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type ProductCreateDTO struct {
	ProductName string `json:"product_name" validate:"required,min=1"`
	Model       string `json:"model" validate:"required,min=1"`

	Stock decimal.Decimal `json:"stock"`

	PurchasePrice    decimal.Decimal `json:"purchase_price"`
	PurchaseCurrency string          `json:"purchase_currency" validate:"omitempty,oneof=usd sum"`
	SellPrice        decimal.Decimal `json:"sell_price"`
	SellCurrency     string          `json:"sell_currency" validate:"omitempty,oneof=usd sum"`

	BrandName    string `json:"brand_name"`
	CountType    string `json:"count_type" validate:"required,oneof=dona metr kg litr qadoq blok"`
	Barcode      string `json:"barcode" validate:"required,min=1"`
	SpecialNotes string `json:"special_notes"`
	ReceivedFrom string `json:"received_from"`

	PaidAmount decimal.Decimal `json:"paid_amount"`

	// Optional supplier party. When set, the unpaid part of the purchase is
	// posted to that party's supplier ledger in the same transaction.
	ClientID *string `json:"client_id"`
}

// POST /api/products
func CreateProduct(c *fiber.Ctx) error {
	var in ProductCreateDTO
	if err := middlewares.BindAndValidate(c, &in); err != nil {
		return err
	}
	utils.NormalizeDTO(&in)
	if in.Stock.IsNegative() {
		return models.Invalid("stock must not be negative")
	}
	if in.PurchasePrice.IsNegative() || in.SellPrice.IsNegative() {
		return models.Invalid("prices must not be negative")
	}
	if in.PurchaseCurrency == "" {
		in.PurchaseCurrency = utils.CurrencyReference
	}
	if in.SellCurrency == "" {
		in.SellCurrency = utils.CurrencyReference
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
		Stock:            in.Stock,
		PurchasePrice:    in.PurchasePrice,
		PurchaseCurrency: in.PurchaseCurrency,
		SellPrice:        in.SellPrice,
		SellCurrency:     in.SellCurrency,
		BrandName:        in.BrandName,
		CountType:        in.CountType,
		Barcode:          in.Barcode,
		SpecialNotes:     in.SpecialNotes,
		ReceivedFrom:     in.ReceivedFrom,
		PaidAmount:       in.PaidAmount,
		ClientId:         in.ClientID,
	}
	if err := db.Create(&product).Error; err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "could not create product")
	}

	if in.ClientID != nil && in.Stock.GreaterThan(decimal.Zero) {
		_, err := models.PostClientDebt(db, *in.ClientID, models.DebtRoleSupplier, models.NewDebtEntry{
			ProductID:    &product.Id,
			ProductName:  product.ProductName,
			Quantity:     in.Stock,
			PricePerItem: in.PurchasePrice,
			PaidAmount:   in.PaidAmount,
			Currency:     in.PurchaseCurrency,
			Note:         "initial intake",
		})
		if err != nil {
			return err
		}
	}

	return c.Status(fiber.StatusCreated).JSON(product)
}

// GET /api/products?search=&page=&limit=
func GetProducts(c *fiber.Ctx) error {
	db, err := database.FromCtx(c)
	if err != nil {
		return err
	}

	q := db.Model(&models.Product{})
	if search := strings.TrimSpace(c.Query("search")); search != "" {
		like := "%" + search + "%"
		q = q.Where("product_name LIKE ? OR barcode LIKE ? OR model LIKE ?", like, like, like)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return err
	}

	page := utils.ParseIntDefault(c.Query("page"), 1)
	if page < 1 {
		page = 1
	}
	limit := utils.ParseIntDefault(c.Query("limit"), 50)
	if limit < 1 || limit > 200 {
		limit = 50
	}

	var products []models.Product
	err = q.Preload("Client").
		Order("created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&products).Error
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"total":    total,
		"page":     page,
		"limit":    limit,
		"products": products,
	})
}

// GET /api/products/:id
func GetProduct(c *fiber.Ctx) error {
	db, err := database.FromCtx(c)
	if err != nil {
		return err
	}
	var product models.Product
	err = db.Preload("Client").First(&product, "id = ?", c.Params("id")).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.NotFound("product")
		}
		return err
	}
	return c.JSON(product)
}

// GET /api/products/barcode/:barcode
func GetProductByBarcode(c *fiber.Ctx) error {
	db, err := database.FromCtx(c)
	if err != nil {
		return err
	}
	var product models.Product
	err = db.First(&product, "barcode = ?", c.Params("barcode")).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.NotFound("product")
		}
		return err
	}
	return c.JSON(product)
}

type ProductUpdateDTO struct {
	ProductName *string `json:"product_name" validate:"omitempty,min=1"`
	Model       *string `json:"model" validate:"omitempty,min=1"`

	Stock *decimal.Decimal `json:"stock"`

	PurchasePrice    *decimal.Decimal `json:"purchase_price"`
	PurchaseCurrency *string          `json:"purchase_currency" validate:"omitempty,oneof=usd sum"`
	SellPrice        *decimal.Decimal `json:"sell_price"`
	SellCurrency     *string          `json:"sell_currency" validate:"omitempty,oneof=usd sum"`

	BrandName    *string `json:"brand_name"`
	CountType    *string `json:"count_type" validate:"omitempty,oneof=dona metr kg litr qadoq blok"`
	Barcode      *string `json:"barcode" validate:"omitempty,min=1"`
	SpecialNotes *string `json:"special_notes"`
	ReceivedFrom *string `json:"received_from"`

	PaidAmount *decimal.Decimal `json:"paid_amount"`
}

// PUT /api/products/:id
// Fields are applied onto the loaded row and saved whole so the derived
// totals recompute.
func UpdateProduct(c *fiber.Ctx) error {
	var in ProductUpdateDTO
	if err := middlewares.BindAndValidate(c, &in); err != nil {
		return err
	}
	utils.NormalizePtrDTO(&in)

	db, err := database.FromCtx(c)
	if err != nil {
		return err
	}

	var product models.Product
	if err := db.First(&product, "id = ?", c.Params("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.NotFound("product")
		}
		return err
	}

	if in.Barcode != nil && *in.Barcode != product.Barcode {
		var dup models.Product
		err := db.Where("barcode = ? AND id <> ?", *in.Barcode, product.Id).First(&dup).Error
		if err == nil {
			return models.Conflict("barcode already registered to " + dup.ProductName)
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		product.Barcode = *in.Barcode
	}

	if in.ProductName != nil {
		product.ProductName = *in.ProductName
	}
	if in.Model != nil {
		product.Model = *in.Model
	}
	if in.Stock != nil {
		if in.Stock.IsNegative() {
			return models.Invalid("stock must not be negative")
		}
		product.Stock = *in.Stock
	}
	if in.PurchasePrice != nil {
		product.PurchasePrice = *in.PurchasePrice
	}
	if in.PurchaseCurrency != nil {
		product.PurchaseCurrency = *in.PurchaseCurrency
	}
	if in.SellPrice != nil {
		product.SellPrice = *in.SellPrice
	}
	if in.SellCurrency != nil {
		product.SellCurrency = *in.SellCurrency
	}
	if in.BrandName != nil {
		product.BrandName = *in.BrandName
	}
	if in.CountType != nil {
		product.CountType = *in.CountType
	}
	if in.SpecialNotes != nil {
		product.SpecialNotes = *in.SpecialNotes
	}
	if in.ReceivedFrom != nil {
		product.ReceivedFrom = *in.ReceivedFrom
	}
	if in.PaidAmount != nil {
		product.PaidAmount = *in.PaidAmount
	}

	if err := db.Save(&product).Error; err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "could not update product")
	}
	return c.JSON(product)
}

// DELETE /api/products/:id
func DeleteProduct(c *fiber.Ctx) error {
	db, err := database.FromCtx(c)
	if err != nil {
		return err
	}
	res := db.Delete(&models.Product{}, "id = ?", c.Params("id"))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return models.NotFound("product")
	}
	return c.JSON(fiber.Map{"message": "product deleted"})
}
