package middlewares

import (
	"savdo-backend/config"
	"savdo-backend/database"

	"github.com/gofiber/fiber/v2"
)

// Tx opens a per-request DB transaction. Every multi-document operation a
// handler performs (stock move + ledger posting, sale + budget) runs inside
// it, so a failure anywhere rolls the whole request back.
// Order: run AFTER IsAuthenticatedHeader() and AFTER Idempotency() (so
// idempotency records aren't tied to the handler TX).
func Tx() fiber.Handler {
	return func(c *fiber.Ctx) (err error) {
		tx := database.DB.Begin()
		if tx.Error != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to begin transaction")
		}

		// Ensure we always cleanup.
		defer func() {
			if r := recover(); r != nil {
				_ = tx.Rollback()
				panic(r) // re-panic after rollback so Fiber's handler can catch
			}
			if err != nil {
				_ = tx.Rollback()
				return
			}
			if e := tx.Commit().Error; e != nil {
				config.LogError("middlewares", "Tx", nil, e)
				err = fiber.NewError(fiber.StatusInternalServerError, "transaction commit failed")
			}
		}()

		// Make the TX available to handlers via database.FromCtx(c).
		c.Locals("tx", tx)

		// Run the handler chain inside this TX.
		err = c.Next()
		return err
	}
}
