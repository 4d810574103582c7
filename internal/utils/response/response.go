package response

import (
	"errors"

	apperr "featurestore/internal/errors"

	"github.com/gofiber/fiber/v2"
)

func Success(c *fiber.Ctx, message string, data interface{}) error {
	return c.JSON(fiber.Map{
		"message": message,
		"data":    data,
	})
}

// FromError writes err with the status matching its error code. Store
// failure details are not exposed to clients.
func FromError(c *fiber.Ctx, err error) error {
	status := Status(err)

	message := "internal server error"
	var de *apperr.DomainError
	if status != fiber.StatusInternalServerError && errors.As(err, &de) {
		message = de.Message
	}

	return c.Status(status).JSON(fiber.Map{
		"error": message,
		"code":  apperr.Code(err),
	})
}

// Status maps an error to its HTTP status code.
func Status(err error) int {
	switch {
	case errors.Is(err, apperr.ErrValidation):
		return fiber.StatusBadRequest
	case errors.Is(err, apperr.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, apperr.ErrConstraintViolation):
		return fiber.StatusUnprocessableEntity
	case errors.Is(err, apperr.ErrServiceUnavailable),
		errors.Is(err, apperr.ErrStoreUnavailable):
		return fiber.StatusServiceUnavailable
	case errors.Is(err, apperr.ErrStoreTimeout):
		return fiber.StatusGatewayTimeout
	default:
		return fiber.StatusInternalServerError
	}
}
