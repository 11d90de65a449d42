package handler

import (
	"study-mitra/internal/domain"
	"study-mitra/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// bindJSON decodes the body into out and runs the DTO's validate tags.
func bindJSON(c *fiber.Ctx, v *validation.Validator, out interface{}) error {
	if err := c.BodyParser(out); err != nil {
		return domain.NewInvalidInputError("Request body could not be parsed")
	}
	return v.Struct(out)
}
