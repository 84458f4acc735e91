package routes

import (
	"github.com/gofiber/fiber/v2"

	"savdo-backend/controllers"
	"savdo-backend/middlewares"
	"savdo-backend/models"
)

// Register wires all HTTP routes.
func Register(app *fiber.App) {
	api := app.Group("/api")

	// Public auth endpoints
	api.Post("/registration", controllers.Register)
	api.Post("/login", controllers.Login)
	api.Post("/logout", controllers.Logout)

	// Protected endpoints (JWT auth)
	protected := api.Group("")
	protected.Use(middlewares.IsAuthenticatedHeader())

	// Idempotency guard FIRST (not tied to request TX)
	protected.Use(middlewares.Idempotency())

	// Then per-request transaction (commits/rolls back around the handler)
	protected.Use(middlewares.Tx())

	// Staff accounts (admin only)
	admin := protected.Group("", middlewares.RequireRole(models.RoleAdmin))
	admin.Get("/admins", controllers.GetAdmins)
	admin.Post("/admins", controllers.CreateAdmin)
	admin.Put("/admins/:id", controllers.UpdateAdmin)
	admin.Delete("/admins/:id", controllers.DeleteAdmin)

	// Clients (suppliers/customers with two ledgers)
	protected.Post("/clients", controllers.CreateClient)
	protected.Get("/clients", controllers.GetClients)
	protected.Get("/clients/:id", controllers.GetClient)
	protected.Put("/clients/:id", controllers.UpdateClient)
	protected.Delete("/clients/:id", controllers.DeleteClient)
	protected.Post("/clients/:id/debts", controllers.PostClientDebt)
	protected.Post("/clients/:id/payments", controllers.PayClientDebt)
	protected.Get("/clients/:id/balance", controllers.GetClientBalance)

	// Warehouse products
	protected.Post("/products", controllers.CreateProduct)
	protected.Get("/products", controllers.GetProducts)
	protected.Get("/products/barcode/:barcode", controllers.GetProductByBarcode)
	protected.Get("/products/:id", controllers.GetProduct)
	protected.Put("/products/:id", controllers.UpdateProduct)
	protected.Delete("/products/:id", controllers.DeleteProduct)

	// Storefront
	protected.Post("/store/transfer", controllers.TransferToStore)
	protected.Post("/store/return", controllers.ReturnToWarehouse)
	protected.Post("/store/products", controllers.CreateStoreProduct)
	protected.Get("/store", controllers.GetStoreProducts)
	protected.Get("/store/:productId", controllers.GetStoreProduct)
	protected.Put("/store/:productId/quantity", controllers.FixStoreQuantity)
	protected.Delete("/store/:productId", controllers.DeleteStoreProduct)

	// Sales (stats routes before the :id routes)
	protected.Post("/sales", controllers.RecordSale)
	protected.Get("/sales", controllers.GetSales)
	protected.Get("/sales/stats/months", controllers.GetMonthlySaleSeries)
	protected.Get("/sales/stats/:window", controllers.GetSaleStats)
	protected.Post("/sales/:id/returns", controllers.ReturnSaleItem)
	protected.Delete("/sales/:id", controllers.DeleteSale)

	// Debtors (credit sales)
	protected.Post("/debtors", controllers.CreateDebtor)
	protected.Get("/debtors", controllers.GetDebtors)
	protected.Get("/debtor-payments", controllers.GetDebtorPayments)
	protected.Get("/debtors/:id", controllers.GetDebtor)
	protected.Put("/debtors/:id", controllers.UpdateDebtor)
	protected.Delete("/debtors/:id", controllers.DeleteDebtor)
	protected.Post("/debtors/:id/payments", controllers.PayDebtor)
	protected.Post("/debtors/:id/returns", controllers.ReturnDebtorItem)

	// Masters and their car accounts
	protected.Post("/masters", controllers.CreateMaster)
	protected.Get("/masters", controllers.GetMasters)
	protected.Get("/masters/:id", controllers.GetMaster)
	protected.Delete("/masters/:id", controllers.DeleteMaster)
	protected.Post("/masters/:id/cars", controllers.AddMasterCar)
	protected.Delete("/masters/:id/cars/:carId", controllers.DeleteMasterCar)
	protected.Post("/masters/:id/cars/:carId/sales", controllers.AddCarSale)
	protected.Post("/masters/:id/cars/:carId/payments", controllers.PayMasterCar)

	// Supplier receipts
	protected.Post("/receipts", controllers.ReceiveStock)
	protected.Get("/receipts", controllers.GetReceipts)
	protected.Get("/receipts/:id", controllers.GetReceipt)
	protected.Delete("/receipts/:id", controllers.DeleteReceipt)

	// Budget, expenses, exchange rate
	protected.Get("/budget", controllers.GetBudget)
	protected.Post("/expenses", controllers.CreateExpense)
	protected.Get("/expenses", controllers.GetExpenses)
	protected.Delete("/expenses/:id", controllers.DeleteExpense)
	protected.Get("/rate", controllers.GetRate)
	protected.Put("/rate", controllers.SetRate)
}
