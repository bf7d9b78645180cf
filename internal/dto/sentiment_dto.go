package dto

import (
	"encoding/json"
	"time"

	"github.com/noah-isme/sentiment-probe/internal/models"
)

// ScoreRequest is the payload for scoring a single text.
type ScoreRequest struct {
	ServiceURL string `json:"service_url" validate:"max=2048"`
	Text       string `json:"text" validate:"required,min=1"`
}

// ScoreResponse is returned when the external service produced a usable score.
type ScoreResponse struct {
	Score     float64      `json:"score"`
	Label     models.Label `json:"label"`
	LatencyMs float64      `json:"latency_ms"`
	Warning   string       `json:"warning,omitempty"`
}

// BatchRequest is the payload for evaluating a labeled dataset. Dataset is kept
// raw so its shape can be checked before it is decoded.
type BatchRequest struct {
	ServiceURL string          `json:"service_url" validate:"max=2048"`
	Dataset    json.RawMessage `json:"dataset" validate:"required"`
}

// DatasetItem is one validated evaluation example.
type DatasetItem struct {
	Text string       `json:"text"`
	Gold models.Label `json:"gold"`
}

// BatchRow is the per-item outcome of a batch run.
type BatchRow struct {
	Text      string        `json:"text"`
	Gold      models.Label  `json:"gold"`
	Score     *float64      `json:"score"`
	Pred      *models.Label `json:"pred"`
	Correct   bool          `json:"ok"`
	LatencyMs float64       `json:"latency_ms"`
	Warning   string        `json:"warning,omitempty"`
	Error     *string       `json:"error,omitempty"`
}

// BatchSummary aggregates a complete batch run.
type BatchSummary struct {
	RunID        string                    `json:"run_id"`
	ServiceURL   string                    `json:"service_url"`
	ItemCount    int                       `json:"n"`
	CorrectCount int                       `json:"correct"`
	Accuracy     float64                   `json:"accuracy"`
	AvgLatencyMs float64                   `json:"avg_latency_ms"`
	Confusion    map[string]map[string]int `json:"confusion"`
	StartedAt    time.Time                 `json:"started_at"`
	FinishedAt   time.Time                 `json:"finished_at"`
	Rows         []BatchRow                `json:"rows"`
}

// DatasetResponse exposes the built-in example dataset as [text, gold] pairs.
type DatasetResponse struct {
	Count int         `json:"count"`
	Items [][2]string `json:"items"`
}
