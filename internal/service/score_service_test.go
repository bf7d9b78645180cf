package service

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sentiment-probe/internal/dto"
	"github.com/noah-isme/sentiment-probe/internal/models"
	"github.com/noah-isme/sentiment-probe/internal/observability"
	"github.com/noah-isme/sentiment-probe/pkg/scoring"
)

type urlCapturingScorer struct {
	baseURL string
	outcome scoring.Outcome
	calls   int
}

func (s *urlCapturingScorer) Score(_ context.Context, baseURL, _ string) scoring.Outcome {
	s.calls++
	s.baseURL = baseURL
	return s.outcome
}

func TestScoreServiceSuccessWithMockedService(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"score": 2.0}`))
	}))
	defer server.Close()

	recorder := observability.NewIsolatedRecorder()
	client, err := scoring.New(scoring.Config{Timeout: time.Second, Recorder: recorder, Logger: zerolog.Nop()})
	require.NoError(t, err)

	svc := NewScoreService(client, validator.New(), "http://unused", zerolog.Nop())
	resp, err := svc.Score(context.Background(), dto.ScoreRequest{ServiceURL: server.URL, Text: "positive text"})
	require.NoError(t, err)
	require.Equal(t, 2.0, resp.Score)
	require.Equal(t, models.LabelPositive, resp.Label)
	require.Empty(t, resp.Warning)
	require.Equal(t, 1, recorder.Snapshot().SuccessRequests)
}

func TestScoreServiceUsesDefaultURL(t *testing.T) {
	scorer := &urlCapturingScorer{outcome: scoring.Succeeded(-0.5, 4, "")}
	svc := NewScoreService(scorer, validator.New(), "http://default:8000", zerolog.Nop())

	resp, err := svc.Score(context.Background(), dto.ScoreRequest{ServiceURL: "   ", Text: "ok"})
	require.NoError(t, err)
	require.Equal(t, "http://default:8000", scorer.baseURL)
	require.Equal(t, models.LabelNeutral, resp.Label)
	require.Equal(t, 4.0, resp.LatencyMs)
}

func TestScoreServiceRejectsEmptyText(t *testing.T) {
	scorer := &urlCapturingScorer{}
	svc := NewScoreService(scorer, validator.New(), "http://default:8000", zerolog.Nop())

	_, err := svc.Score(context.Background(), dto.ScoreRequest{Text: ""})
	require.ErrorIs(t, err, ErrInvalidRequest)
	require.Contains(t, err.Error(), "text")
	require.Zero(t, scorer.calls)
}

func TestScoreServicePropagatesWarning(t *testing.T) {
	scorer := &urlCapturingScorer{outcome: scoring.SucceededWithWarning(-6, "Score -6 is outside expected range [-5, 5].", 2, "")}
	svc := NewScoreService(scorer, validator.New(), "http://default:8000", zerolog.Nop())

	resp, err := svc.Score(context.Background(), dto.ScoreRequest{Text: "terrible"})
	require.NoError(t, err)
	require.Equal(t, models.LabelNegative, resp.Label)
	require.Contains(t, resp.Warning, "outside expected range")
}

func TestScoreServiceUpstreamFailure(t *testing.T) {
	upstream := &scoring.UpstreamError{Kind: scoring.ErrorKindNetwork, Message: "Could not reach the external service (network error)."}
	scorer := &urlCapturingScorer{outcome: scoring.Failed(upstream, 7, "")}
	svc := NewScoreService(scorer, validator.New(), "http://default:8000", zerolog.Nop())

	_, err := svc.Score(context.Background(), dto.ScoreRequest{Text: "hello"})
	var failure *UpstreamFailure
	require.True(t, errors.As(err, &failure))
	require.Equal(t, upstream.Message, failure.Error())
	require.Equal(t, 7.0, failure.LatencyMs)
	require.ErrorIs(t, err, upstream)
}

func TestDatasetServiceDefault(t *testing.T) {
	svc := NewDatasetService()

	resp := svc.Default()
	require.Equal(t, 40, resp.Count)
	require.Len(t, resp.Items, 40)
	for _, pair := range resp.Items {
		require.NotEmpty(t, pair[0])
		_, ok := models.ParseLabel(pair[1])
		require.True(t, ok, pair[1])
	}

	items := svc.Items()
	items[0].Text = "mutated"
	require.NotEqual(t, "mutated", svc.Items()[0].Text)
}
