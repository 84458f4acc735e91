package controllers

import (
	"errors"
	"time"

	"savdo-backend/database"
	"savdo-backend/middlewares"
	"savdo-backend/models"
	"savdo-backend/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type DebtorCreateDTO struct {
	Name     string    `json:"name" validate:"required,min=1"`
	Phone    string    `json:"phone" validate:"required,min=3"`
	Currency string    `json:"currency" validate:"required,oneof=usd sum"`
	DueDate  time.Time `json:"due_date" validate:"required"`

	Products []DebtorLineDTO `json:"products" validate:"required,min=1"`
}

type DebtorLineDTO struct {
	ProductID string          `json:"product_id" validate:"required,min=1"`
	Quantity  decimal.Decimal `json:"quantity"`
	SellPrice decimal.Decimal `json:"sell_price"`
	Currency  string          `json:"currency" validate:"omitempty,oneof=usd sum"`
	Location  string          `json:"location" validate:"omitempty,oneof=warehouse store"`
}

// POST /api/debtors
// Multi-line credit sale: every line leaves stock immediately; the balance
// opens in the debtor's declared currency. Lines in the other unit are
// normalized through the reference currency.
func CreateDebtor(c *fiber.Ctx) error {
	var in DebtorCreateDTO
	if err := middlewares.BindAndValidate(c, &in); err != nil {
		return err
	}
	for i := range in.Products {
		if err := middlewares.ValidateStruct(&in.Products[i]); err != nil {
			return err
		}
	}
	db, err := database.FromCtx(c)
	if err != nil {
		return err
	}

	needsRate := false
	for _, line := range in.Products {
		if line.Currency != "" && line.Currency != in.Currency {
			needsRate = true
		}
	}
	rate := decimal.Zero
	if needsRate {
		if rate, err = models.CurrentRate(db); err != nil {
			return err
		}
	}

	debtor := models.Debtor{
		Name:       in.Name,
		Phone:      in.Phone,
		Currency:   in.Currency,
		DueDate:    in.DueDate,
		DebtAmount: decimal.Zero,
	}

	balance := decimal.Zero
	for _, line := range in.Products {
		if line.Quantity.LessThanOrEqual(decimal.Zero) {
			return models.Invalid("line quantity must be positive")
		}
		if line.SellPrice.IsNegative() {
			return models.Invalid("line price must not be negative")
		}
		lineCurrency := line.Currency
		if lineCurrency == "" {
			lineCurrency = in.Currency
		}

		var product *models.Product
		if line.Location == models.LocationWarehouse {
			if product, err = models.SellFromWarehouse(db, line.ProductID, line.Quantity); err != nil {
				return err
			}
		} else {
			if _, err = models.SellFromStore(db, line.ProductID, line.Quantity); err != nil {
				return err
			}
			var p models.Product
			if err := db.First(&p, "id = ?", line.ProductID).Error; err != nil {
				return err
			}
			product = &p
		}

		total := line.SellPrice.Mul(line.Quantity)
		if lineCurrency != in.Currency {
			ref, err := utils.ToReference(total, lineCurrency, rate)
			if err != nil {
				return models.InvalidRate(rate)
			}
			if total, err = utils.FromReference(ref, in.Currency, rate); err != nil {
				return models.InvalidRate(rate)
			}
		}
		balance = balance.Add(total)

		debtor.Products = append(debtor.Products, models.DebtorProduct{
			ProductID:   product.Id,
			ProductName: product.ProductName,
			Quantity:    line.Quantity,
			SellPrice:   line.SellPrice,
			Currency:    lineCurrency,
			SoldDate:    time.Now(),
			DueDate:     in.DueDate,
		})
	}
	debtor.DebtAmount = balance

	if err := db.Create(&debtor).Error; err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(debtor)
}

// GET /api/debtors?search=
func GetDebtors(c *fiber.Ctx) error {
	db, err := database.FromCtx(c)
	if err != nil {
		return err
	}
	q := db.Model(&models.Debtor{}).Preload("Products").Preload("PaymentLog")
	if search := c.Query("search"); search != "" {
		like := "%" + search + "%"
		q = q.Where("name LIKE ? OR phone LIKE ?", like, like)
	}
	var debtors []models.Debtor
	if err := q.Order("due_date").Find(&debtors).Error; err != nil {
		return err
	}
	return c.JSON(fiber.Map{"total": len(debtors), "debtors": debtors})
}

// GET /api/debtors/:id
func GetDebtor(c *fiber.Ctx) error {
	db, err := database.FromCtx(c)
	if err != nil {
		return err
	}
	var debtor models.Debtor
	err = db.Preload("Products").Preload("PaymentLog").
		First(&debtor, "id = ?", c.Params("id")).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.NotFound("debtor")
		}
		return err
	}
	return c.JSON(debtor)
}

type DebtorUpdateDTO struct {
	Name    *string    `json:"name" validate:"omitempty,min=1"`
	Phone   *string    `json:"phone" validate:"omitempty,min=3"`
	DueDate *time.Time `json:"due_date"`
}

// PUT /api/debtors/:id
// Contact details and due date only; the balance moves through payments and
// returns.
func UpdateDebtor(c *fiber.Ctx) error {
	var in DebtorUpdateDTO
	if err := middlewares.BindAndValidate(c, &in); err != nil {
		return err
	}
	utils.NormalizePtrDTO(&in)

	db, err := database.FromCtx(c)
	if err != nil {
		return err
	}
	var debtor models.Debtor
	if err := db.First(&debtor, "id = ?", c.Params("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.NotFound("debtor")
		}
		return err
	}

	updates := utils.UpdatesFromPtrDTO(&in, nil)
	if len(updates) > 0 {
		if err := db.Model(&debtor).Updates(updates).Error; err != nil {
			return err
		}
	}
	return c.JSON(debtor)
}

type DebtorPaymentDTO struct {
	Amount          decimal.Decimal `json:"amount"`
	Currency        string          `json:"currency" validate:"required,oneof=usd sum"`
	PaymentMethod   string          `json:"payment_method" validate:"omitempty,oneof=cash card transfer"`
	SettleAndDelete bool            `json:"settle_and_delete"`
}

// POST /api/debtors/:id/payments
func PayDebtor(c *fiber.Ctx) error {
	var in DebtorPaymentDTO
	if err := middlewares.BindAndValidate(c, &in); err != nil {
		return err
	}
	db, err := database.FromCtx(c)
	if err != nil {
		return err
	}
	rate, err := models.CurrentRate(db)
	if err != nil {
		return err
	}
	debtor, settled, err := models.ApplyDebtorPayment(db, c.Params("id"), models.DebtorPaymentInput{
		Amount:          in.Amount,
		Currency:        in.Currency,
		PaymentMethod:   in.PaymentMethod,
		SettleAndDelete: in.SettleAndDelete,
	}, rate)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"settled": settled, "debtor": debtor})
}

type DebtorReturnDTO struct {
	ProductID string          `json:"product_id" validate:"required,min=1"`
	Quantity  decimal.Decimal `json:"quantity"`
}

// POST /api/debtors/:id/returns
func ReturnDebtorItem(c *fiber.Ctx) error {
	var in DebtorReturnDTO
	if err := middlewares.BindAndValidate(c, &in); err != nil {
		return err
	}
	db, err := database.FromCtx(c)
	if err != nil {
		return err
	}
	debtor, err := models.ReturnDebtorItem(db, c.Params("id"), in.ProductID, in.Quantity)
	if err != nil {
		return err
	}
	return c.JSON(debtor)
}

// DELETE /api/debtors/:id
// Cancels the credit sale: every owed line goes back to the storefront
// before the record disappears.
func DeleteDebtor(c *fiber.Ctx) error {
	db, err := database.FromCtx(c)
	if err != nil {
		return err
	}
	var debtor models.Debtor
	err = db.Preload("Products").First(&debtor, "id = ?", c.Params("id")).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.NotFound("debtor")
		}
		return err
	}
	for _, line := range debtor.Products {
		if _, err := models.ReturnToStore(db, line.ProductID, line.Quantity); err != nil {
			return err
		}
	}
	if err := db.Select("Products", "PaymentLog").Delete(&debtor).Error; err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "debtor deleted"})
}

// GET /api/debtor-payments
// Flat payment history across all debtors, newest first.
func GetDebtorPayments(c *fiber.Ctx) error {
	db, err := database.FromCtx(c)
	if err != nil {
		return err
	}
	var payments []models.DebtorPayment
	if err := db.Order("date DESC").Find(&payments).Error; err != nil {
		return err
	}
	return c.JSON(fiber.Map{"total": len(payments), "payments": payments})
}
