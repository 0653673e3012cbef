package httpapi

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/cburgosro9303/vortex-config/internal/source"
)

// mapError translates the five source error kinds to their HTTP status,
// per the error-handling design: bad input is 400, an unresolvable label
// is 404, a parse failure in a matched file is a 500 (the file exists and
// is malformed, not the client's fault), and a Git/backing-store failure
// is a 502 since the upstream, not this server, is unavailable.
func mapError(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError

	switch {
	case errors.Is(err, source.ErrInvalidQuery):
		status = fiber.StatusBadRequest
	case errors.Is(err, source.ErrLabelNotFound), errors.Is(err, source.ErrConfigNotFound):
		status = fiber.StatusNotFound
	case errors.Is(err, source.ErrParseSentinel):
		status = fiber.StatusInternalServerError
	case errors.Is(err, source.ErrSourceFailure):
		status = fiber.StatusBadGateway
	}

	return c.Status(status).JSON(fiber.Map{"error": err.Error()})
}
