package controllers

import (
	"savdo-backend/database"
	"savdo-backend/middlewares"
	"savdo-backend/models"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

// GET /api/budget
func GetBudget(c *fiber.Ctx) error {
	db, err := database.FromCtx(c)
	if err != nil {
		return err
	}
	budget, err := models.GetBudget(db)
	if err != nil {
		return err
	}
	return c.JSON(budget)
}

type ExpenseDTO struct {
	PaymentSumm decimal.Decimal `json:"payment_summ"`
	Comment     string          `json:"comment" validate:"required,min=1"`
	StaffName   string          `json:"staff_name"`
}

// POST /api/expenses
func CreateExpense(c *fiber.Ctx) error {
	var in ExpenseDTO
	if err := middlewares.BindAndValidate(c, &in); err != nil {
		return err
	}
	db, err := database.FromCtx(c)
	if err != nil {
		return err
	}
	expense := models.Expense{
		PaymentSumm: in.PaymentSumm,
		Comment:     in.Comment,
		StaffName:   in.StaffName,
	}
	out, err := models.CreateExpense(db, &expense)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// GET /api/expenses
func GetExpenses(c *fiber.Ctx) error {
	db, err := database.FromCtx(c)
	if err != nil {
		return err
	}
	var expenses []models.Expense
	if err := db.Order("created_at DESC").Find(&expenses).Error; err != nil {
		return err
	}
	return c.JSON(fiber.Map{"total": len(expenses), "expenses": expenses})
}

// DELETE /api/expenses/:id
// Reverses the cash-out: the amount goes back to the budget.
func DeleteExpense(c *fiber.Ctx) error {
	db, err := database.FromCtx(c)
	if err != nil {
		return err
	}
	var expense models.Expense
	if err := db.First(&expense, "id = ?", c.Params("id")).Error; err != nil {
		return models.NotFound("expense")
	}
	if _, err := models.AddToBudget(db, expense.PaymentSumm); err != nil {
		return err
	}
	if err := db.Delete(&expense).Error; err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "expense deleted"})
}

// GET /api/rate
func GetRate(c *fiber.Ctx) error {
	db, err := database.FromCtx(c)
	if err != nil {
		return err
	}
	rate, err := models.CurrentRate(db)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"rate": rate})
}

type RateDTO struct {
	Rate decimal.Decimal `json:"rate"`
}

// PUT /api/rate
func SetRate(c *fiber.Ctx) error {
	var in RateDTO
	if err := middlewares.BindAndValidate(c, &in); err != nil {
		return err
	}
	db, err := database.FromCtx(c)
	if err != nil {
		return err
	}
	rate, err := models.SetRate(db, in.Rate)
	if err != nil {
		return err
	}
	return c.JSON(rate)
}
