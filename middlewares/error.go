package middlewares

import (
	"errors"

	"savdo-backend/config"
	"savdo-backend/models"
	"savdo-backend/utils"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// ErrorHandler centralizes error responses and keeps messages sanitized.
func ErrorHandler(c *fiber.Ctx, err error) error {
	// 1) Fiber errors (use their status code + message)
	if fe, ok := err.(*fiber.Error); ok {
		return c.Status(fe.Code).JSON(fiber.Map{"message": fe.Message})
	}

	// 2) Validation errors (422 + per-field info)
	if ve, ok := err.(validator.ValidationErrors); ok {
		out := make(map[string]string, len(ve))
		for _, fe := range ve {
			out[fe.Field()] = fe.Tag()
		}
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"message": "validation failed",
			"errors":  out,
		})
	}

	// 3) Typed domain errors carry enough to pick the status
	var de *models.DomainError
	if errors.As(err, &de) {
		status := fiber.StatusInternalServerError
		switch de.Kind {
		case models.KindNotFound:
			status = fiber.StatusNotFound
		case models.KindInvalid, models.KindInsufficientStock, models.KindInvalidRate:
			status = fiber.StatusBadRequest
		case models.KindConflict:
			status = fiber.StatusConflict
		case models.KindTxAborted:
			status = fiber.StatusConflict
		}
		return c.Status(status).JSON(fiber.Map{"message": de.Error()})
	}
	if errors.Is(err, utils.ErrInvalidRate) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}

	// 4) Unknown errors (500)
	config.LogError("middlewares", "ErrorHandler", c.OriginalURL(), err)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"message": "internal server error",
	})
}
