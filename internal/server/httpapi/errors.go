package httpapi

import (
	"errors"

	"github.com/StepanDemidovets/taskflow/internal/common"
	"github.com/gofiber/fiber/v2"
)

// statusFromError maps service errors onto HTTP status codes. Anything not
// covered by a sentinel is treated as an internal error.
func statusFromError(err error) int {
	switch {
	case errors.Is(err, common.ErrInvalidInput):
		return fiber.StatusBadRequest
	case errors.Is(err, common.ErrAlreadyExists):
		return fiber.StatusConflict
	case errors.Is(err, common.ErrInvalidCredentials),
		errors.Is(err, common.ErrInvalidToken),
		errors.Is(err, common.ErrUnauthorized):
		return fiber.StatusUnauthorized
	case errors.Is(err, common.ErrNotFound):
		return fiber.StatusNotFound
	default:
		return fiber.StatusInternalServerError
	}
}

// publicMessage hides internal error detail from clients while keeping the
// sentinel text for expected failures.
func publicMessage(err error, status int) string {
	if status == fiber.StatusInternalServerError {
		return "internal error"
	}
	return err.Error()
}

func respondError(c *fiber.Ctx, err error) error {
	status := statusFromError(err)
	return c.Status(status).JSON(ErrorResponse{Error: publicMessage(err, status)})
}
