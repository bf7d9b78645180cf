package handler

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/sentiment-probe/internal/config"
	"github.com/noah-isme/sentiment-probe/internal/utils"
)

// HealthResponse represents the payload returned by the health endpoint.
type HealthResponse struct {
	Status           string    `json:"status"`
	Timestamp        time.Time `json:"timestamp"`
	Service          string    `json:"service"`
	Environment      string    `json:"environment"`
	ScoringBaseURL   string    `json:"scoring_base_url"`
	ScoringTimeoutMs int64     `json:"scoring_timeout_ms"`
}

// HealthCheck returns a handler that reports application health information.
// It never calls the external scoring service.
func HealthCheck(cfg config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		payload := HealthResponse{
			Status:           "ok",
			Timestamp:        time.Now().UTC(),
			Service:          cfg.AppName,
			Environment:      cfg.AppEnv,
			ScoringBaseURL:   cfg.ScoringBaseURL,
			ScoringTimeoutMs: cfg.ScoringTimeout.Milliseconds(),
		}

		return utils.SendSuccess(c, "service healthy", payload)
	}
}
