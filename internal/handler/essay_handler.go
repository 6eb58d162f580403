package handler

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/preparai-api/internal/dto"
	"github.com/noah-isme/preparai-api/internal/service"
	"github.com/noah-isme/preparai-api/internal/utils"
)

// EssayHandler exposes essay grading endpoints.
type EssayHandler struct {
	service   service.EssayService
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewEssayHandler constructs the handler.
func NewEssayHandler(service service.EssayService, validator *validator.Validate, logger zerolog.Logger) *EssayHandler {
	return &EssayHandler{
		service:   service,
		validator: validator,
		logger:    logger.With().Str("component", "essay_handler").Logger(),
	}
}

// Register wires the handler endpoints into the router group. The limiter guards the routes
// that call the assessor; nil disables it.
func (h *EssayHandler) Register(router fiber.Router, limiter fiber.Handler) {
	if limiter == nil {
		limiter = func(c *fiber.Ctx) error { return c.Next() }
	}

	router.Post("", limiter, h.submit)
	router.Get("/history/:student_id", h.history)
	router.Get("/:id", h.detail)
	router.Post("/:id/regrade", limiter, h.regrade)
}

func (h *EssayHandler) submit(c *fiber.Ctx) error {
	var payload dto.EssaySubmitRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	if err := h.validator.Struct(payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	if userID := userIDFromContext(c); userID != 0 {
		payload.StudentID = userID
	}

	response, err := h.service.Submit(c.UserContext(), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "essay graded", response)
}

func (h *EssayHandler) regrade(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	response, err := h.service.Regrade(c.UserContext(), id)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "essay regraded", response)
}

func (h *EssayHandler) detail(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	response, err := h.service.Detail(c.UserContext(), id)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "essay retrieved", response)
}

func (h *EssayHandler) history(c *fiber.Ctx) error {
	studentID, err := parseUintParam(c, "student_id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	items, err := h.service.History(c.UserContext(), studentID)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "essay history retrieved", items)
}

func (h *EssayHandler) handleError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrMissingUser):
		return utils.SendError(c, fiber.StatusBadRequest, "student_id is required")
	case errors.Is(err, service.ErrEssayNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "essay not found")
	case errors.Is(err, service.ErrInferenceUnavailable):
		requestLogger(h.logger, c).Warn().Err(err).Msg("essay assessor unavailable")
		return utils.SendError(c, fiber.StatusServiceUnavailable, "essay assessor unavailable, try again later")
	case errors.Is(err, service.ErrMalformedInferenceOutput):
		requestLogger(h.logger, c).Warn().Err(err).Msg("essay assessor returned malformed output")
		return utils.SendError(c, fiber.StatusBadGateway, "essay assessor returned an unusable evaluation, try again")
	case errors.Is(err, service.ErrPersistenceFailure):
		requestLogger(h.logger, c).Error().Err(err).Msg("essay grade not stored")
		return utils.SendError(c, fiber.StatusServiceUnavailable, "essay grade could not be stored, resubmit the essay")
	case isValidationError(err):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	default:
		requestLogger(h.logger, c).Error().Err(err).Msg("essay operation failed")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
