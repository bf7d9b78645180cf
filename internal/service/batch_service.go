package service

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/sentiment-probe/internal/dto"
	"github.com/noah-isme/sentiment-probe/internal/models"
	"github.com/noah-isme/sentiment-probe/internal/observability"
	"github.com/noah-isme/sentiment-probe/internal/repository"
)

// PredErrorKey is the confusion-table column used for rows whose call failed.
const PredErrorKey = "error"

const datasetShapeMessage = "Dataset must be a list of [text, gold_label] pairs."

const datasetSchemaSource = `{
	"$schema": "https://json-schema.org/draft/2020-12/schema",
	"type": "array",
	"items": {
		"type": "array",
		"minItems": 2,
		"maxItems": 2,
		"items": {"type": "string"}
	}
}`

var datasetSchema = jsonschema.MustCompileString("dataset.schema.json", datasetSchemaSource)

// BatchService evaluates labeled datasets against the external scoring service.
type BatchService interface {
	Run(ctx context.Context, req dto.BatchRequest) (dto.BatchSummary, error)
	Get(ctx context.Context, runID string) (dto.BatchSummary, error)
}

// BatchConfig tunes batch execution.
type BatchConfig struct {
	DefaultServiceURL string
	// Workers bounds concurrent calls; 1 or less runs items strictly one after another.
	Workers int
}

type batchService struct {
	scorer    Scorer
	store     repository.BatchRunRepository
	validator *validator.Validate
	cfg       BatchConfig
	logger    zerolog.Logger
	tracer    trace.Tracer
	now       func() time.Time
}

// NewBatchService constructs the batch evaluator. store may be nil, in which case runs are not kept.
func NewBatchService(scorer Scorer, store repository.BatchRunRepository, validate *validator.Validate, cfg BatchConfig, logger zerolog.Logger) BatchService {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	return &batchService{
		scorer:    scorer,
		store:     store,
		validator: validate,
		cfg:       cfg,
		logger:    logger.With().Str("component", "batch_service").Logger(),
		tracer:    otel.Tracer("github.com/noah-isme/sentiment-probe/internal/service/batch"),
		now:       time.Now,
	}
}

// ParseDataset validates a raw [[text, gold], ...] document. It either returns
// every item or a *ValidationError; it never returns a partial dataset.
func ParseDataset(raw json.RawMessage) ([]dto.DatasetItem, error) {
	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.UseNumber()

	var document interface{}
	if err := decoder.Decode(&document); err != nil {
		return nil, datasetError(datasetShapeMessage)
	}
	if err := datasetSchema.Validate(document); err != nil {
		return nil, datasetError(datasetShapeMessage)
	}

	var pairs [][]string
	if err := json.Unmarshal(raw, &pairs); err != nil {
		return nil, datasetError(datasetShapeMessage)
	}

	items := make([]dto.DatasetItem, 0, len(pairs))
	for idx, pair := range pairs {
		text, gold := pair[0], pair[1]
		if text == "" {
			return nil, datasetError("Item %d has empty text.", idx)
		}
		label, ok := models.ParseLabel(gold)
		if !ok {
			return nil, datasetError("Gold label must be positive/neutral/negative. Got: %q", gold)
		}
		items = append(items, dto.DatasetItem{Text: text, Gold: label})
	}

	return items, nil
}

func (s *batchService) Run(ctx context.Context, req dto.BatchRequest) (dto.BatchSummary, error) {
	ctx, span := s.tracer.Start(ctx, "batch.run")
	defer span.End()

	req.ServiceURL = resolveServiceURL(req.ServiceURL, s.cfg.DefaultServiceURL)
	if err := s.validator.Struct(req); err != nil {
		span.SetStatus(codes.Error, "validation failed")
		observability.BatchRuns().WithLabelValues("rejected").Inc()
		return dto.BatchSummary{}, requestError(describeValidation(err))
	}

	items, err := ParseDataset(req.Dataset)
	if err != nil {
		span.SetStatus(codes.Error, "invalid dataset")
		observability.BatchRuns().WithLabelValues("rejected").Inc()
		return dto.BatchSummary{}, err
	}

	summary := dto.BatchSummary{
		RunID:      uuid.NewString(),
		ServiceURL: req.ServiceURL,
		StartedAt:  s.now().UTC(),
	}
	span.SetAttributes(
		attribute.String("run_id", summary.RunID),
		attribute.Int("items", len(items)),
		attribute.Int("workers", s.cfg.Workers),
	)

	// Once started, a batch always covers every item.
	runCtx := context.WithoutCancel(ctx)
	rows := s.evaluateAll(runCtx, req.ServiceURL, items)

	summarize(&summary, rows)
	summary.FinishedAt = s.now().UTC()

	observability.BatchRuns().WithLabelValues("completed").Inc()
	observability.BatchAccuracy().Set(summary.Accuracy)

	s.logger.Info().
		Str("run_id", summary.RunID).
		Str("service_url", summary.ServiceURL).
		Int("items", summary.ItemCount).
		Int("correct", summary.CorrectCount).
		Float64("accuracy", summary.Accuracy).
		Float64("avg_latency_ms", summary.AvgLatencyMs).
		Msg("batch evaluation completed")

	if s.store != nil {
		if err := s.store.Save(runCtx, summary); err != nil {
			s.logger.Warn().Err(err).Str("run_id", summary.RunID).Msg("failed to store batch run")
		}
	}

	return summary, nil
}

func (s *batchService) Get(ctx context.Context, runID string) (dto.BatchSummary, error) {
	if s.store == nil || strings.TrimSpace(runID) == "" {
		return dto.BatchSummary{}, repository.ErrBatchRunNotFound
	}
	return s.store.Get(ctx, runID)
}

// evaluateAll writes each result at its input index, so row order never depends on completion order.
func (s *batchService) evaluateAll(ctx context.Context, serviceURL string, items []dto.DatasetItem) []dto.BatchRow {
	rows := make([]dto.BatchRow, len(items))

	if s.cfg.Workers <= 1 || len(items) <= 1 {
		for idx, item := range items {
			rows[idx] = s.evaluate(ctx, serviceURL, item)
		}
		return rows
	}

	var group errgroup.Group
	group.SetLimit(s.cfg.Workers)
	for idx, item := range items {
		idx, item := idx, item
		group.Go(func() error {
			rows[idx] = s.evaluate(ctx, serviceURL, item)
			return nil
		})
	}
	_ = group.Wait()

	return rows
}

func (s *batchService) evaluate(ctx context.Context, serviceURL string, item dto.DatasetItem) dto.BatchRow {
	outcome := s.scorer.Score(ctx, serviceURL, item.Text)

	row := dto.BatchRow{
		Text:      item.Text,
		Gold:      item.Gold,
		LatencyMs: outcome.LatencyMs(),
	}

	score, ok := outcome.Score()
	if !ok {
		message := "Unknown error."
		if upstreamErr := outcome.Err(); upstreamErr != nil {
			message = upstreamErr.Message
		}
		row.Error = &message
		return row
	}

	pred := models.Classify(score)
	row.Score = &score
	row.Pred = &pred
	row.Correct = pred == item.Gold
	row.Warning = outcome.Warning()
	return row
}

func summarize(summary *dto.BatchSummary, rows []dto.BatchRow) {
	summary.Rows = rows
	summary.ItemCount = len(rows)
	summary.Confusion = newConfusion()

	var latencyTotal float64
	for _, row := range rows {
		latencyTotal += row.LatencyMs
		if row.Correct {
			summary.CorrectCount++
		}

		column := PredErrorKey
		if row.Pred != nil {
			column = string(*row.Pred)
		}
		summary.Confusion[string(row.Gold)][column]++
	}

	if summary.ItemCount > 0 {
		summary.Accuracy = float64(summary.CorrectCount) / float64(summary.ItemCount)
		summary.AvgLatencyMs = latencyTotal / float64(summary.ItemCount)
	}
}

func newConfusion() map[string]map[string]int {
	confusion := make(map[string]map[string]int, len(models.Labels))
	for _, gold := range models.Labels {
		columns := make(map[string]int, len(models.Labels)+1)
		for _, pred := range models.Labels {
			columns[string(pred)] = 0
		}
		columns[PredErrorKey] = 0
		confusion[string(gold)] = columns
	}
	return confusion
}
