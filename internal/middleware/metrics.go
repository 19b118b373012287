package middleware

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
)

type requestRecorder interface {
	RecordRequest(method, route string, status int, duration time.Duration)
}

// RequestMetrics records every request under its route pattern, so that
// /api/items/:id stays a single series.
func RequestMetrics(recorder requestRecorder) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			status = fiber.StatusInternalServerError
			var fiberErr *fiber.Error
			if errors.As(err, &fiberErr) {
				status = fiberErr.Code
			}
		}

		route := c.Route().Path
		if status == fiber.StatusNotFound && route == "/" {
			route = "unmatched"
		}
		recorder.RecordRequest(c.Method(), route, status, time.Since(start))

		return err
	}
}
