package controllers

import (
	"errors"

	"savdo-backend/database"
	"savdo-backend/middlewares"
	"savdo-backend/models"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type ReceiveStockDTO struct {
	ProductID  string          `json:"product_id" validate:"required,min=1"`
	Quantity   decimal.Decimal `json:"quantity"`
	UnitCost   decimal.Decimal `json:"unit_cost"`
	Currency   string          `json:"currency" validate:"omitempty,oneof=usd sum"`
	PaidAmount decimal.Decimal `json:"paid_amount"`
	ClientID   *string         `json:"client_id"`
	Note       string          `json:"note"`
}

// POST /api/receipts
// Inbound delivery: warehouse stock up, unpaid remainder onto the supplier
// ledger, receipt document written. One transaction.
func ReceiveStock(c *fiber.Ctx) error {
	var in ReceiveStockDTO
	if err := middlewares.BindAndValidate(c, &in); err != nil {
		return err
	}
	if in.Currency == "" {
		in.Currency = "usd"
	}
	db, err := database.FromCtx(c)
	if err != nil {
		return err
	}
	product, entry, err := models.ReceiveStock(db, models.ReceiveStockInput{
		ProductID:  in.ProductID,
		Quantity:   in.Quantity,
		UnitCost:   in.UnitCost,
		Currency:   in.Currency,
		PaidAmount: in.PaidAmount,
		ClientID:   in.ClientID,
		Note:       in.Note,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"product":    product,
		"debt_entry": entry,
	})
}

// GET /api/receipts
func GetReceipts(c *fiber.Ctx) error {
	db, err := database.FromCtx(c)
	if err != nil {
		return err
	}
	var receipts []models.ProductReceipt
	err = db.Preload("Items").Preload("Client").
		Order("receipt_date DESC").
		Find(&receipts).Error
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"total": len(receipts), "receipts": receipts})
}

// GET /api/receipts/:id
func GetReceipt(c *fiber.Ctx) error {
	db, err := database.FromCtx(c)
	if err != nil {
		return err
	}
	var receipt models.ProductReceipt
	err = db.Preload("Items").Preload("Client").
		First(&receipt, "id = ?", c.Params("id")).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.NotFound("receipt")
		}
		return err
	}
	return c.JSON(receipt)
}

// DELETE /api/receipts/:id
// Removes the document only; stock and ledger movements stay.
func DeleteReceipt(c *fiber.Ctx) error {
	db, err := database.FromCtx(c)
	if err != nil {
		return err
	}
	res := db.Select("Items").Delete(&models.ProductReceipt{}, "id = ?", c.Params("id"))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return models.NotFound("receipt")
	}
	return c.JSON(fiber.Map{"message": "receipt deleted"})
}
