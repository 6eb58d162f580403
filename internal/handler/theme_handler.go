package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/preparai-api/internal/service"
	"github.com/noah-isme/preparai-api/internal/utils"
)

// ThemeHandler exposes theme generation.
type ThemeHandler struct {
	service service.ThemeService
	logger  zerolog.Logger
}

// NewThemeHandler constructs the handler.
func NewThemeHandler(service service.ThemeService, logger zerolog.Logger) *ThemeHandler {
	return &ThemeHandler{
		service: service,
		logger:  logger.With().Str("component", "theme_handler").Logger(),
	}
}

// Register wires the handler endpoints into the router group.
func (h *ThemeHandler) Register(router fiber.Router) {
	router.Get("/themes/generate", h.generate)
	router.Post("/themes/generate", h.generate)
}

func (h *ThemeHandler) generate(c *fiber.Ctx) error {
	theme := h.service.Generate(c.UserContext())
	return utils.SendSuccess(c, "theme generated", theme)
}
