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

type ClientCreateDTO struct {
	Name    string `json:"name" validate:"required,min=1"`
	Phone   string `json:"phone" validate:"omitempty,min=3"`
	Address string `json:"address" validate:"omitempty"`
	Type    string `json:"type" validate:"omitempty,oneof=supplier customer"`
}

type ClientUpdateDTO struct {
	Name    *string `json:"name" validate:"omitempty,min=1"`
	Phone   *string `json:"phone" validate:"omitempty,min=3"`
	Address *string `json:"address" validate:"omitempty"`
	Type    *string `json:"type" validate:"omitempty,oneof=supplier customer"`
}

// POST /api/clients
func CreateClient(c *fiber.Ctx) error {
	var in ClientCreateDTO
	if err := middlewares.BindAndValidate(c, &in); err != nil {
		return err
	}
	utils.NormalizeDTO(&in)

	db, err := database.FromCtx(c)
	if err != nil {
		return err
	}

	client := models.Client{
		Name:    in.Name,
		Address: in.Address,
		Type:    in.Type,
	}
	if client.Type == "" {
		client.Type = string(models.DebtRoleSupplier)
	}
	if in.Phone != "" {
		var exists models.Client
		if err := db.Where("phone = ?", in.Phone).First(&exists).Error; err == nil {
			return models.Conflict("phone number already registered (" + exists.Type + ")")
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		client.Phone = &in.Phone
	}

	if err := db.Create(&client).Error; err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "could not create client")
	}
	return c.Status(fiber.StatusCreated).JSON(client)
}

// GET /api/clients
func GetClients(c *fiber.Ctx) error {
	db, err := database.FromCtx(c)
	if err != nil {
		return err
	}
	var clients []models.Client
	if err := db.Preload("Debts").Order("created_at DESC").Find(&clients).Error; err != nil {
		return err
	}
	return c.JSON(fiber.Map{"total": len(clients), "clients": clients})
}

// GET /api/clients/:id
func GetClient(c *fiber.Ctx) error {
	db, err := database.FromCtx(c)
	if err != nil {
		return err
	}
	var client models.Client
	err = db.Preload("Debts").First(&client, "id = ?", c.Params("id")).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.NotFound("client")
		}
		return err
	}
	return c.JSON(client)
}

// PUT /api/clients/:id
func UpdateClient(c *fiber.Ctx) error {
	id := strings.TrimSpace(c.Params("id"))
	if id == "" {
		return fiber.NewError(fiber.StatusBadRequest, "missing client id in path")
	}

	var in ClientUpdateDTO
	if err := middlewares.BindAndValidate(c, &in); err != nil {
		return err
	}
	utils.NormalizePtrDTO(&in)

	db, err := database.FromCtx(c)
	if err != nil {
		return err
	}

	var existing models.Client
	if err := db.First(&existing, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.NotFound("client")
		}
		return err
	}

	if in.Phone != nil && *in.Phone != "" {
		var other models.Client
		err := db.Where("phone = ? AND id <> ?", *in.Phone, id).First(&other).Error
		if err == nil {
			return models.Conflict("phone number belongs to another client")
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
	}

	updates := utils.UpdatesFromPtrDTO(&in, nil)
	if len(updates) > 0 {
		if err := db.Model(&existing).Updates(updates).Error; err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "could not update client")
		}
	}

	var out models.Client
	if err := db.Preload("Debts").First(&out, "id = ?", id).Error; err != nil {
		return err
	}
	return c.JSON(out)
}

// DELETE /api/clients/:id
func DeleteClient(c *fiber.Ctx) error {
	db, err := database.FromCtx(c)
	if err != nil {
		return err
	}
	res := db.Select("Debts").Delete(&models.Client{Id: c.Params("id")})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return models.NotFound("client")
	}
	return c.JSON(fiber.Map{"message": "client deleted"})
}

type DebtPostDTO struct {
	Role         string          `json:"role" validate:"required,oneof=supplier customer"`
	ProductID    *string         `json:"product_id"`
	ProductName  string          `json:"product_name" validate:"required,min=1"`
	Quantity     decimal.Decimal `json:"quantity"`
	PricePerItem decimal.Decimal `json:"price_per_item"`
	PaidAmount   decimal.Decimal `json:"paid_amount"`
	Currency     string          `json:"currency" validate:"omitempty,oneof=usd sum"`
	Note         string          `json:"note"`
}

// POST /api/clients/:id/debts
func PostClientDebt(c *fiber.Ctx) error {
	var in DebtPostDTO
	if err := middlewares.BindAndValidate(c, &in); err != nil {
		return err
	}
	if in.Currency == "" {
		in.Currency = utils.CurrencyReference
	}

	db, err := database.FromCtx(c)
	if err != nil {
		return err
	}

	entry, err := models.PostClientDebt(db, c.Params("id"), models.DebtRole(in.Role), models.NewDebtEntry{
		ProductID:    in.ProductID,
		ProductName:  in.ProductName,
		Quantity:     in.Quantity,
		PricePerItem: in.PricePerItem,
		PaidAmount:   in.PaidAmount,
		Currency:     in.Currency,
		Note:         in.Note,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(entry)
}

type DebtPaymentDTO struct {
	Role   string          `json:"role" validate:"required,oneof=supplier customer"`
	Amount decimal.Decimal `json:"amount"`
	// Allocation defaults to newest-first when omitted.
	Allocation string `json:"allocation" validate:"omitempty,oneof=newest_first oldest_first"`
}

// POST /api/clients/:id/payments
func PayClientDebt(c *fiber.Ctx) error {
	var in DebtPaymentDTO
	if err := middlewares.BindAndValidate(c, &in); err != nil {
		return err
	}

	db, err := database.FromCtx(c)
	if err != nil {
		return err
	}

	order := models.AllocationOrder(in.Allocation)
	if order == "" {
		order = models.AllocateNewestFirst
	}
	client, err := models.PayClientDebt(db, c.Params("id"), models.DebtRole(in.Role), in.Amount, order)
	if err != nil {
		return err
	}
	return c.JSON(client)
}

// GET /api/clients/:id/balance?role=supplier
func GetClientBalance(c *fiber.Ctx) error {
	role := models.DebtRole(c.Query("role", string(models.DebtRoleSupplier)))
	if role != models.DebtRoleSupplier && role != models.DebtRoleCustomer {
		return fiber.NewError(fiber.StatusBadRequest, "unknown role")
	}
	db, err := database.FromCtx(c)
	if err != nil {
		return err
	}
	balance, err := models.ClientBalance(db, c.Params("id"), role)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"role": role, "balance": balance})
}
