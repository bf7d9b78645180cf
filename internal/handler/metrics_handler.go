package handler

import (
	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/sentiment-probe/internal/observability"
	"github.com/noah-isme/sentiment-probe/internal/utils"
)

// MetricsSource provides the in-memory call statistics.
type MetricsSource interface {
	Snapshot() observability.MetricsSnapshot
}

// MetricsHandler exposes the call statistics snapshot as JSON.
type MetricsHandler struct {
	source MetricsSource
}

// NewMetricsHandler constructs a metrics handler.
func NewMetricsHandler(source MetricsSource) *MetricsHandler {
	return &MetricsHandler{source: source}
}

// Register wires the metrics route.
func (h *MetricsHandler) Register(router fiber.Router) {
	router.Get("/metrics", h.snapshot)
}

func (h *MetricsHandler) snapshot(c *fiber.Ctx) error {
	return utils.SendSuccess(c, "metrics retrieved", h.source.Snapshot())
}
