package httpapi

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"

	"task-tracker/internal/service"
)

// respond maps service errors onto HTTP statuses. Missing and foreign
// resources both answer 404.
func respond(c *fiber.Ctx, err error) error {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(errorResponse{
			Error:   "validation_error",
			Message: "Request has invalid fields",
			Fields:  verr.Fields,
		})
	case errors.Is(err, service.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(errorResponse{
			Error:   "not_found",
			Message: "Resource not found",
		})
	case errors.Is(err, service.ErrListNotEmpty):
		return c.Status(fiber.StatusConflict).JSON(errorResponse{
			Error:   "list_not_empty",
			Message: "List still has tasks",
		})
	case errors.Is(err, service.ErrConflict):
		return c.Status(fiber.StatusConflict).JSON(errorResponse{
			Error:   "conflict",
			Message: "Resource was modified, fetch it again and retry",
		})
	case errors.Is(err, service.ErrTimeout):
		return c.Status(fiber.StatusGatewayTimeout).JSON(errorResponse{
			Error:   "timeout",
			Message: "Storage did not respond in time",
		})
	default:
		log.Printf("[error] %s %s: %v", c.Method(), c.Path(), err)
		return c.Status(fiber.StatusInternalServerError).JSON(errorResponse{
			Error:   "internal_error",
			Message: "Internal server error",
		})
	}
}

func badRequest(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(errorResponse{
		Error:   "invalid_request",
		Message: message,
	})
}
