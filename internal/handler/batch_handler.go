package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/sentiment-probe/internal/dto"
	"github.com/noah-isme/sentiment-probe/internal/repository"
	"github.com/noah-isme/sentiment-probe/internal/service"
	"github.com/noah-isme/sentiment-probe/internal/utils"
)

// BatchHandler exposes dataset evaluation.
type BatchHandler struct {
	service service.BatchService
	logger  zerolog.Logger
}

// NewBatchHandler constructs a batch handler.
func NewBatchHandler(service service.BatchService, logger zerolog.Logger) *BatchHandler {
	return &BatchHandler{
		service: service,
		logger:  logger.With().Str("component", "batch_handler").Logger(),
	}
}

// Register wires batch routes. guards run before the evaluation route only.
func (h *BatchHandler) Register(router fiber.Router, guards ...fiber.Handler) {
	runHandlers := append(append([]fiber.Handler{}, guards...), h.run)
	router.Post("/batch", runHandlers...)
	router.Get("/batch/:id", h.get)
}

func (h *BatchHandler) run(c *fiber.Ctx) error {
	var payload dto.BatchRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "Dataset must be a list of [text, gold_label] pairs.")
	}

	summary, err := h.service.Run(c.UserContext(), payload)
	if err != nil {
		if isValidationError(err) {
			return utils.SendError(c, fiber.StatusBadRequest, err.Error())
		}
		requestLogger(h.logger, c).Error().Err(err).Msg("batch evaluation failed")
		return utils.SendError(c, fiber.StatusInternalServerError, "batch evaluation failed")
	}

	return utils.SendSuccess(c, "batch evaluated", summary)
}

func (h *BatchHandler) get(c *fiber.Ctx) error {
	summary, err := h.service.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		if errors.Is(err, repository.ErrBatchRunNotFound) {
			return utils.SendError(c, fiber.StatusNotFound, "batch run not found")
		}
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to load batch run")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to load batch run")
	}

	return utils.SendSuccess(c, "batch run retrieved", summary)
}
