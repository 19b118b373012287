package handlers

import (
	"errors"

	"github.com/VinayBibyan/Donation-Network/internal/services"
	"github.com/charmbracelet/log"
	"github.com/gofiber/fiber/v2"
)

const serverErrorMessage = "Server error"

// ErrorResponder turns failures into the API's JSON error contract. Internal
// errors are logged and only expose their detail outside production.
type ErrorResponder struct {
	logger     *log.Logger
	showDetail bool
}

func NewErrorResponder(logger *log.Logger, showDetail bool) *ErrorResponder {
	if logger == nil {
		logger = log.Default()
	}
	return &ErrorResponder{logger: logger, showDetail: showDetail}
}

func (r *ErrorResponder) internal(c *fiber.Ctx, err error) error {
	r.logger.Error("request failed", "method", c.Method(), "path", c.Path(), "err", err)

	body := fiber.Map{"error": serverErrorMessage}
	if r.showDetail && err != nil {
		body["detail"] = err.Error()
	}
	return c.Status(fiber.StatusInternalServerError).JSON(body)
}

func (r *ErrorResponder) mapServiceError(c *fiber.Ctx, err error, notFoundMessage string) error {
	var validation *services.ValidationError
	switch {
	case errors.As(err, &validation):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": validation.Message})
	case errors.Is(err, services.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request"})
	case errors.Is(err, services.ErrInvalidCredentials):
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid email or password"})
	case errors.Is(err, services.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Not authorized"})
	case errors.Is(err, services.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": notFoundMessage})
	case errors.Is(err, services.ErrConflict):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "User already exists"})
	case errors.Is(err, services.ErrStorageUnavailable):
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "Storage service is not configured"})
	default:
		return r.internal(c, err)
	}
}

// FiberErrorHandler covers errors no handler answered itself, such as
// unknown routes, oversized bodies and recovered panics.
func (r *ErrorResponder) FiberErrorHandler(c *fiber.Ctx, err error) error {
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) && fiberErr.Code < fiber.StatusInternalServerError {
		return c.Status(fiberErr.Code).JSON(fiber.Map{"error": fiberErr.Message})
	}
	return r.internal(c, err)
}
