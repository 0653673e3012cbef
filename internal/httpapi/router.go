// Package httpapi exposes the config server's HTTP collaborator contract
// over fiber: GET /{application}/{profile}[/{label}] for resolution,
// DELETE /cache[/...] for selective invalidation, and GET /health.
package httpapi

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	"github.com/cburgosro9303/vortex-config/internal/log"
)

// NewRouter builds the fiber.App for h, wired with a
// recover, request-id, CORS, then request-logging middleware chain.
func NewRouter(h *Handler, logger log.Logger) *fiber.App {
	if logger == nil {
		logger = log.Nop{}
	}

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler:          fiberErrorHandler(logger),
	})

	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(cors.New())
	app.Use(requestLogger(logger))

	app.Get("/health", h.Health)

	app.Get("/:application/:profile", h.Resolve)
	app.Get("/:application/:profile/:label", h.Resolve)

	app.Delete("/cache", h.InvalidateCache)
	app.Delete("/cache/:application", h.InvalidateCache)
	app.Delete("/cache/:application/:profile", h.InvalidateCache)
	app.Delete("/cache/:application/:profile/:label", h.InvalidateCache)

	return app
}

func requestLogger(logger log.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		err := c.Next()

		fields := []any{
			"method", c.Method(),
			"path", c.Path(),
			"status", c.Response().StatusCode(),
			"request_id", c.Locals(requestid.ConfigDefault.ContextKey),
		}

		logger.WithFields(fields...).Info("request handled")

		return err
	}
}

func fiberErrorHandler(logger log.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		logger.Errorf("unhandled error: %v", err)

		code := fiber.StatusInternalServerError
		if fe, ok := err.(*fiber.Error); ok {
			code = fe.Code
		}

		return c.Status(code).JSON(fiber.Map{"error": err.Error()})
	}
}
