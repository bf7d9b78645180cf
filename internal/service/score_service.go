package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/noah-isme/sentiment-probe/internal/dto"
	"github.com/noah-isme/sentiment-probe/internal/models"
	"github.com/noah-isme/sentiment-probe/pkg/scoring"
)

// Scorer performs one call to the external scoring service.
type Scorer interface {
	Score(ctx context.Context, baseURL, text string) scoring.Outcome
}

// ScoreService scores individual texts.
type ScoreService interface {
	Score(ctx context.Context, req dto.ScoreRequest) (dto.ScoreResponse, error)
}

type scoreService struct {
	scorer     Scorer
	validator  *validator.Validate
	defaultURL string
	logger     zerolog.Logger
}

// NewScoreService constructs the single-text scoring service.
func NewScoreService(scorer Scorer, validate *validator.Validate, defaultURL string, logger zerolog.Logger) ScoreService {
	return &scoreService{
		scorer:     scorer,
		validator:  validate,
		defaultURL: defaultURL,
		logger:     logger.With().Str("component", "score_service").Logger(),
	}
}

func (s *scoreService) Score(ctx context.Context, req dto.ScoreRequest) (dto.ScoreResponse, error) {
	req.ServiceURL = resolveServiceURL(req.ServiceURL, s.defaultURL)
	if err := s.validator.Struct(req); err != nil {
		return dto.ScoreResponse{}, requestError(describeValidation(err))
	}

	outcome := s.scorer.Score(ctx, req.ServiceURL, req.Text)
	score, ok := outcome.Score()
	if !ok {
		return dto.ScoreResponse{}, &UpstreamFailure{Upstream: outcome.Err(), LatencyMs: outcome.LatencyMs()}
	}

	return dto.ScoreResponse{
		Score:     score,
		Label:     models.Classify(score),
		LatencyMs: outcome.LatencyMs(),
		Warning:   outcome.Warning(),
	}, nil
}

func resolveServiceURL(raw, fallback string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return fallback
	}
	return trimmed
}
