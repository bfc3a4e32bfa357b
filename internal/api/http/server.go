package httpapi

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// NewErrorHandler returns the centralized error response used by the app.
// Server side failures are logged with the request id.
func NewErrorHandler(logger zerolog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		var e *fiber.Error
		if errors.As(err, &e) {
			code = e.Code
		}

		if code >= fiber.StatusInternalServerError {
			logger.Error().
				Err(err).
				Int("status", code).
				Str("path", c.Path()).
				Interface("requestId", c.Locals("requestid")).
				Msg("request failed")
		}

		return c.Status(code).JSON(fiber.Map{
			"error":   true,
			"message": err.Error(),
		})
	}
}

// CacheStats reports how many entries a cache holds.
type CacheStats interface {
	Len() (pages, details int)
}

// RegisterOps adds the health and Prometheus endpoints. cache may be nil.
func RegisterOps(app *fiber.App, service string, cache CacheStats) {
	app.Get("/health", func(c *fiber.Ctx) error {
		resp := fiber.Map{
			"status":  "ok",
			"service": service,
		}
		if cache != nil {
			pages, details := cache.Len()
			resp["cache"] = fiber.Map{"pages": pages, "details": details}
		}
		return c.JSON(resp)
	})

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))
}
