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

type SaleDTO struct {
	ProductID     string          `json:"product_id" validate:"required,min=1"`
	Quantity      decimal.Decimal `json:"quantity"`
	SellPrice     decimal.Decimal `json:"sell_price"`
	Currency      string          `json:"currency" validate:"required,oneof=usd sum"`
	PaymentMethod string          `json:"payment_method" validate:"required,oneof=cash card transfer debt"`
	Location      string          `json:"location" validate:"omitempty,oneof=warehouse store"`

	// Required when payment_method is debt.
	DebtorName  string     `json:"debtor_name"`
	DebtorPhone string     `json:"debtor_phone"`
	DueDate     *time.Time `json:"due_date"`
}

// saleRate reads the rate snapshot the sale will freeze its local total
// with. Pure local-currency sales need no rate, so a missing rate only
// fails conversions that would actually use it.
func saleRate(db *gorm.DB, currency string) (decimal.Decimal, error) {
	rate, err := models.CurrentRate(db)
	if err != nil {
		if currency == utils.CurrencyLocal {
			return decimal.Zero, nil
		}
		return decimal.Zero, err
	}
	return rate, nil
}

// POST /api/sales
// Cash-like methods finalize immediately; method "debt" opens a debtor
// record instead.
func RecordSale(c *fiber.Ctx) error {
	var in SaleDTO
	if err := middlewares.BindAndValidate(c, &in); err != nil {
		return err
	}
	db, err := database.FromCtx(c)
	if err != nil {
		return err
	}
	if in.Location == "" {
		in.Location = models.LocationStore
	}

	if in.PaymentMethod == models.PaymentDebt {
		if in.DueDate == nil {
			return models.Invalid("due_date is required for a credit sale")
		}
		debtor, err := models.RecordCreditSale(db, models.CreditSaleInput{
			ProductID:   in.ProductID,
			Quantity:    in.Quantity,
			SellPrice:   in.SellPrice,
			Currency:    in.Currency,
			Location:    in.Location,
			DebtorName:  in.DebtorName,
			DebtorPhone: in.DebtorPhone,
			DueDate:     *in.DueDate,
		})
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"message": "credit sale opened",
			"debtor":  debtor,
		})
	}

	var product models.Product
	if err := db.First(&product, "id = ?", in.ProductID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.NotFound("product")
		}
		return err
	}

	rate, err := saleRate(db, in.Currency)
	if err != nil {
		return err
	}
	sale, err := models.RecordCashSale(db, models.CashSaleInput{
		ProductID:     in.ProductID,
		Quantity:      in.Quantity,
		SellPrice:     in.SellPrice,
		BuyPrice:      product.PurchasePrice,
		Currency:      in.Currency,
		PaymentMethod: in.PaymentMethod,
		Location:      in.Location,
	}, rate)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(sale)
}

// GET /api/sales?from=&to=&page=&limit=
func GetSales(c *fiber.Ctx) error {
	db, err := database.FromCtx(c)
	if err != nil {
		return err
	}

	q := db.Model(&models.Sale{})
	if from := c.Query("from"); from != "" {
		t, err := time.Parse("2006-01-02", from)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "from must be YYYY-MM-DD")
		}
		q = q.Where("created_at >= ?", t)
	}
	if to := c.Query("to"); to != "" {
		t, err := time.Parse("2006-01-02", to)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "to must be YYYY-MM-DD")
		}
		q = q.Where("created_at < ?", t.AddDate(0, 0, 1))
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

	var sales []models.Sale
	err = q.Order("created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&sales).Error
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"total": total, "page": page, "limit": limit, "sales": sales})
}

// saleWindowStats aggregates the window in Go so the same code runs on any
// backing database.
func saleWindowStats(db *gorm.DB, since time.Time) (fiber.Map, error) {
	var sales []models.Sale
	if err := db.Where("created_at >= ?", since).Find(&sales).Error; err != nil {
		return nil, err
	}
	totalSum := decimal.Zero
	profit := decimal.Zero
	quantity := decimal.Zero
	for i := range sales {
		totalSum = totalSum.Add(sales[i].TotalPriceSum)
		profit = profit.Add(sales[i].Profit())
		quantity = quantity.Add(sales[i].Quantity)
	}
	return fiber.Map{
		"since":           since,
		"count":           len(sales),
		"quantity":        quantity,
		"total_price_sum": totalSum,
		"profit":          profit,
	}, nil
}

// GET /api/sales/stats/:window (daily|weekly|monthly|yearly)
func GetSaleStats(c *fiber.Ctx) error {
	db, err := database.FromCtx(c)
	if err != nil {
		return err
	}
	now := time.Now()
	var since time.Time
	switch c.Params("window") {
	case "daily":
		since = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	case "weekly":
		since = now.AddDate(0, 0, -7)
	case "monthly":
		since = now.AddDate(0, -1, 0)
	case "yearly":
		since = now.AddDate(-1, 0, 0)
	default:
		return fiber.NewError(fiber.StatusBadRequest, "window must be daily, weekly, monthly or yearly")
	}
	stats, err := saleWindowStats(db, since)
	if err != nil {
		return err
	}
	return c.JSON(stats)
}

// GET /api/sales/stats/months
// Per-month totals for the trailing 12 months, oldest first.
func GetMonthlySaleSeries(c *fiber.Ctx) error {
	db, err := database.FromCtx(c)
	if err != nil {
		return err
	}
	now := time.Now()
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()).AddDate(0, -11, 0)

	var sales []models.Sale
	if err := db.Where("created_at >= ?", start).Find(&sales).Error; err != nil {
		return err
	}

	type bucket struct {
		Month         string          `json:"month"`
		Count         int             `json:"count"`
		TotalPriceSum decimal.Decimal `json:"total_price_sum"`
		Profit        decimal.Decimal `json:"profit"`
	}
	series := make([]bucket, 12)
	index := make(map[string]int, 12)
	for i := 0; i < 12; i++ {
		month := start.AddDate(0, i, 0).Format("2006-01")
		series[i] = bucket{Month: month, TotalPriceSum: decimal.Zero, Profit: decimal.Zero}
		index[month] = i
	}
	for i := range sales {
		key := sales[i].CreatedAt.Format("2006-01")
		if at, ok := index[key]; ok {
			series[at].Count++
			series[at].TotalPriceSum = series[at].TotalPriceSum.Add(sales[i].TotalPriceSum)
			series[at].Profit = series[at].Profit.Add(sales[i].Profit())
		}
	}
	return c.JSON(fiber.Map{"months": series})
}

type SaleReturnDTO struct {
	Quantity decimal.Decimal `json:"quantity"`
}

// POST /api/sales/:id/returns
// Partial reversal: the returned quantity goes back to stock and the sale
// row shrinks.
func ReturnSaleItem(c *fiber.Ctx) error {
	id := utils.ParseIntDefault(c.Params("id"), -1)
	if id < 0 {
		return fiber.NewError(fiber.StatusBadRequest, "invalid sale id")
	}
	var in SaleReturnDTO
	if err := middlewares.BindAndValidate(c, &in); err != nil {
		return err
	}
	db, err := database.FromCtx(c)
	if err != nil {
		return err
	}
	sale, err := models.ReturnSaleItem(db, uint(id), in.Quantity)
	if err != nil {
		return err
	}
	return c.JSON(sale)
}

// DELETE /api/sales/:id
// Reverses the sale: stock back to its source location, profit out of the
// budget.
func DeleteSale(c *fiber.Ctx) error {
	id := utils.ParseIntDefault(c.Params("id"), -1)
	if id < 0 {
		return fiber.NewError(fiber.StatusBadRequest, "invalid sale id")
	}
	db, err := database.FromCtx(c)
	if err != nil {
		return err
	}
	if err := models.DeleteSale(db, uint(id)); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "sale reversed"})
}
