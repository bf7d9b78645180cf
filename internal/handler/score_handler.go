package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/sentiment-probe/internal/dto"
	"github.com/noah-isme/sentiment-probe/internal/service"
	"github.com/noah-isme/sentiment-probe/internal/utils"
)

// ScoreHandler exposes single-text scoring.
type ScoreHandler struct {
	service service.ScoreService
	logger  zerolog.Logger
}

// NewScoreHandler constructs a score handler.
func NewScoreHandler(service service.ScoreService, logger zerolog.Logger) *ScoreHandler {
	return &ScoreHandler{
		service: service,
		logger:  logger.With().Str("component", "score_handler").Logger(),
	}
}

// Register wires the score route.
func (h *ScoreHandler) Register(router fiber.Router) {
	router.Post("/score", h.score)
}

func (h *ScoreHandler) score(c *fiber.Ctx) error {
	var payload dto.ScoreRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	response, err := h.service.Score(c.UserContext(), payload)
	if err != nil {
		var upstream *service.UpstreamFailure
		switch {
		case isValidationError(err):
			return utils.SendError(c, fiber.StatusBadRequest, err.Error())
		case errors.As(err, &upstream):
			requestLogger(h.logger, c).Warn().
				Str("error_kind", string(upstream.Upstream.Kind)).
				Float64("latency_ms", upstream.LatencyMs).
				Msg("external scoring service failed")
			return utils.SendErrorWithDetails(c, fiber.StatusBadGateway, upstream.Error(), fiber.Map{
				"kind":       upstream.Upstream.Kind,
				"latency_ms": upstream.LatencyMs,
			})
		default:
			requestLogger(h.logger, c).Error().Err(err).Msg("failed to score text")
			return utils.SendError(c, fiber.StatusInternalServerError, "failed to score text")
		}
	}

	return utils.SendSuccess(c, "text scored", response)
}
