package handlers

import (
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/Ananth-NQI/aira-gateway/internal/models"
)

var validate = validator.New()

// errorResponse writes the {"error", "error_code"} body used by every endpoint
func errorResponse(c *fiber.Ctx, status int, message, code string) error {
	return c.Status(status).JSON(fiber.Map{
		"error":      message,
		"error_code": code,
	})
}

// parseAndValidate decodes the body into req and runs its validate tags.
// When ok is false the error response has already been written.
func parseAndValidate(c *fiber.Ctx, req interface{}) (ok bool, err error) {
	if err := c.BodyParser(req); err != nil {
		return false, errorResponse(c, fiber.StatusBadRequest, "Invalid request body", models.ErrCodeInvalidRequest)
	}
	if err := validate.Struct(req); err != nil {
		return false, errorResponse(c, fiber.StatusBadRequest, validationMessage(err), models.ErrCodeInvalidRequest)
	}
	return true, nil
}

func validationMessage(err error) string {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			parts = append(parts, fe.Field()+" is required")
		case "email":
			parts = append(parts, "Invalid email format")
		case "oneof":
			parts = append(parts, fe.Field()+" must be one of: "+fe.Param())
		default:
			parts = append(parts, fe.Field()+" is invalid")
		}
	}
	return strings.Join(parts, "; ")
}

// ErrorHandler maps errors that escape a handler to the JSON error body
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}
	return errorResponse(c, code, err.Error(), models.ErrCodeUnexpected)
}
