package controllers

import (
	"errors"
	"time"

	"savdo-backend/database"
	"savdo-backend/middlewares"
	"savdo-backend/models"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type MasterCreateDTO struct {
	MasterName string `json:"master_name" validate:"required,min=1"`
}

// POST /api/masters
func CreateMaster(c *fiber.Ctx) error {
	var in MasterCreateDTO
	if err := middlewares.BindAndValidate(c, &in); err != nil {
		return err
	}
	db, err := database.FromCtx(c)
	if err != nil {
		return err
	}
	master := models.Master{MasterName: in.MasterName}
	if err := db.Create(&master).Error; err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(master)
}

// GET /api/masters
func GetMasters(c *fiber.Ctx) error {
	db, err := database.FromCtx(c)
	if err != nil {
		return err
	}
	var masters []models.Master
	err = db.Preload("Cars").
		Preload("Cars.Sales").
		Preload("Cars.PaymentLog").
		Order("master_name").
		Find(&masters).Error
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"total": len(masters), "masters": masters})
}

// GET /api/masters/:id
func GetMaster(c *fiber.Ctx) error {
	db, err := database.FromCtx(c)
	if err != nil {
		return err
	}
	var master models.Master
	err = db.Preload("Cars").
		Preload("Cars.Sales").
		Preload("Cars.PaymentLog").
		First(&master, "id = ?", c.Params("id")).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.NotFound("master")
		}
		return err
	}
	return c.JSON(master)
}

// DELETE /api/masters/:id
func DeleteMaster(c *fiber.Ctx) error {
	db, err := database.FromCtx(c)
	if err != nil {
		return err
	}
	res := db.Select("Cars").Delete(&models.Master{Id: c.Params("id")})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return models.NotFound("master")
	}
	return c.JSON(fiber.Map{"message": "master deleted"})
}

type CarCreateDTO struct {
	CarName string     `json:"car_name" validate:"required,min=1"`
	Date    *time.Time `json:"date"`
}

// POST /api/masters/:id/cars
func AddMasterCar(c *fiber.Ctx) error {
	var in CarCreateDTO
	if err := middlewares.BindAndValidate(c, &in); err != nil {
		return err
	}
	db, err := database.FromCtx(c)
	if err != nil {
		return err
	}
	var master models.Master
	if err := db.First(&master, "id = ?", c.Params("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.NotFound("master")
		}
		return err
	}
	car := models.MasterCar{MasterID: master.Id, CarName: in.CarName}
	if in.Date != nil {
		car.Date = *in.Date
	}
	if err := db.Create(&car).Error; err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(car)
}

// DELETE /api/masters/:id/cars/:carId
func DeleteMasterCar(c *fiber.Ctx) error {
	db, err := database.FromCtx(c)
	if err != nil {
		return err
	}
	res := db.Where("id = ? AND master_id = ?", c.Params("carId"), c.Params("id")).
		Delete(&models.MasterCar{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return models.NotFound("car")
	}
	return c.JSON(fiber.Map{"message": "car deleted"})
}

type CarSaleDTO struct {
	ProductID string          `json:"product_id" validate:"required,min=1"`
	Quantity  decimal.Decimal `json:"quantity"`
	SellPrice decimal.Decimal `json:"sell_price"`
	Currency  string          `json:"currency" validate:"omitempty,oneof=usd sum"`
	Location  string          `json:"location" validate:"omitempty,oneof=warehouse store"`
}

// POST /api/masters/:id/cars/:carId/sales
// Goods leave stock now; the Sale row waits for the account to settle.
func AddCarSale(c *fiber.Ctx) error {
	var in CarSaleDTO
	if err := middlewares.BindAndValidate(c, &in); err != nil {
		return err
	}
	db, err := database.FromCtx(c)
	if err != nil {
		return err
	}

	var product *models.Product
	if in.Location == models.LocationWarehouse {
		if product, err = models.SellFromWarehouse(db, in.ProductID, in.Quantity); err != nil {
			return err
		}
	} else {
		if _, err = models.SellFromStore(db, in.ProductID, in.Quantity); err != nil {
			return err
		}
		var p models.Product
		if err := db.First(&p, "id = ?", in.ProductID).Error; err != nil {
			return err
		}
		product = &p
	}

	currency := in.Currency
	if currency == "" {
		currency = product.SellCurrency
	}
	line, err := models.AddCarSale(db, c.Params("id"), c.Params("carId"), models.CarSale{
		ProductID:   product.Id,
		ProductName: product.ProductName,
		SellPrice:   in.SellPrice,
		BuyPrice:    product.PurchasePrice,
		Currency:    currency,
		Quantity:    in.Quantity,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(line)
}

type CarPaymentDTO struct {
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency" validate:"required,oneof=usd sum"`
	PaymentMethod string          `json:"payment_method" validate:"omitempty,oneof=cash card transfer"`
}

// POST /api/masters/:id/cars/:carId/payments
func PayMasterCar(c *fiber.Ctx) error {
	var in CarPaymentDTO
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
	car, settled, err := models.ApplyCarPayment(db, c.Params("id"), c.Params("carId"), models.CarPaymentInput{
		Amount:        in.Amount,
		Currency:      in.Currency,
		PaymentMethod: in.PaymentMethod,
	}, rate)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"settled": settled, "car": car})
}
