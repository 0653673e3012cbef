package httpapi

import (
	"context"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/cburgosro9303/vortex-config/internal/audit"
	"github.com/cburgosro9303/vortex-config/internal/codec"
	"github.com/cburgosro9303/vortex-config/internal/log"
	"github.com/cburgosro9303/vortex-config/internal/merge"
	"github.com/cburgosro9303/vortex-config/internal/source"
	"github.com/cburgosro9303/vortex-config/pkg/springenv"
)

// Handler implements the HTTP collaborator contract against a
// source.Source. In production that source is the fully decorated
// cache.CachedSource wrapping a gitsource.GitSource; tests can wire in
// anything satisfying the interface.
type Handler struct {
	source source.Source
	audit  *audit.Store
	logger log.Logger

	validate *validator.Validate
}

// NewHandler builds a Handler. auditStore may be nil to disable
// resolution-history recording.
func NewHandler(src source.Source, auditStore *audit.Store, logger log.Logger) *Handler {
	if logger == nil {
		logger = log.Nop{}
	}

	return &Handler{
		source:   src,
		audit:    auditStore,
		logger:   logger,
		validate: validator.New(),
	}
}

type resolveParams struct {
	Application string `validate:"required,min=1,max=255"`
	Profile     string `validate:"required,min=1"`
}

// Health reports liveness. It never touches the source: a slow or
// unreachable Git remote should not make the process look unhealthy.
func (h *Handler) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "UP"})
}

// Resolve serves GET /{application}/{profile}[/{label}], content
// negotiating between the Spring Environment JSON shape, YAML, and flat
// properties.
func (h *Handler) Resolve(c *fiber.Ctx) error {
	params := resolveParams{
		Application: c.Params("application"),
		Profile:     c.Params("profile"),
	}

	if err := h.validate.Struct(params); err != nil {
		return mapError(c, source.NewInvalidQueryError(err.Error()))
	}

	label := c.Params("label")

	query := source.ConfigQuery{
		Application: params.Application,
		Profiles:    splitProfiles(params.Profile),
		Label:       label,
	}

	result, err := h.source.Fetch(c.UserContext(), query)
	if err != nil {
		return mapError(c, err)
	}

	h.recordAudit(params.Profile, result)

	switch c.Accepts("application/json", "application/x-yaml", "text/yaml", "text/plain") {
	case "application/x-yaml", "text/yaml":
		return h.writeMerged(c, result, codec.YAML{}, "application/x-yaml")
	case "text/plain":
		return h.writeMerged(c, result, codec.Properties{}, "text/plain; charset=utf-8")
	default:
		body, err := springenv.Encode(springenv.FromResult(result))
		if err != nil {
			return mapError(c, source.NewParseError("environment", err))
		}

		c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)

		return c.Send(body)
	}
}

func (h *Handler) writeMerged(c *fiber.Ctx, result source.ConfigResult, enc codec.Codec, contentType string) error {
	merged := merge.Sources(result.PropertySources)

	body, err := enc.Emit(merged)
	if err != nil {
		return mapError(c, source.NewParseError("merged", err))
	}

	c.Set(fiber.HeaderContentType, contentType)

	return c.Send(body)
}

func (h *Handler) recordAudit(profileParam string, result source.ConfigResult) {
	if h.audit == nil {
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := h.audit.Record(ctx, profileParam, result); err != nil {
			h.logger.Warnf("httpapi: audit record failed: %v", err)
		}
	}()
}

// InvalidateCache serves DELETE /cache[/{app}[/{profile}[/{label}]]].
func (h *Handler) InvalidateCache(c *fiber.Ctx) error {
	sel := source.InvalidateSelector{
		Application: c.Params("application"),
		Profile:     c.Params("profile"),
		Label:       c.Params("label"),
	}

	h.source.Invalidate(sel)

	return c.SendStatus(fiber.StatusNoContent)
}

func splitProfiles(profileParam string) []string {
	if profileParam == "" {
		return nil
	}

	parts := strings.Split(profileParam, ",")
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}

	return parts
}
