package middlewares

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

var validate = validator.New()

// BindAndValidate parses the JSON body into dst and runs the shared
// validator over its tags. A parse failure maps to 400; rule failures
// surface as validator.ValidationErrors for the error handler to turn into
// 422. Repeated elements (debtor lines, receipt items) are validated per
// element with ValidateStruct in the controller.
func BindAndValidate(c *fiber.Ctx, dst any) error {
	if err := c.BodyParser(dst); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	return validate.Struct(dst)
}

// ValidateStruct runs the shared validator over a single struct value.
func ValidateStruct(v any) error {
	return validate.Struct(v)
}
