package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sentiment-probe/internal/dto"
	"github.com/noah-isme/sentiment-probe/internal/models"
	"github.com/noah-isme/sentiment-probe/internal/observability"
	"github.com/noah-isme/sentiment-probe/internal/repository"
	"github.com/noah-isme/sentiment-probe/pkg/scoring"
)

type stubScorer struct {
	mu       sync.Mutex
	calls    []string
	outcomes map[string]scoring.Outcome
	fallback scoring.Outcome
	delay    func(text string) time.Duration
	active   int32
	peak     int32
}

func (s *stubScorer) Score(_ context.Context, baseURL, text string) scoring.Outcome {
	current := atomic.AddInt32(&s.active, 1)
	for {
		seen := atomic.LoadInt32(&s.peak)
		if current <= seen || atomic.CompareAndSwapInt32(&s.peak, seen, current) {
			break
		}
	}
	if s.delay != nil {
		time.Sleep(s.delay(text))
	}
	atomic.AddInt32(&s.active, -1)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, text)
	if outcome, ok := s.outcomes[text]; ok {
		return outcome
	}
	return s.fallback
}

func (s *stubScorer) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

func rawDataset(t *testing.T, pairs ...[]string) json.RawMessage {
	t.Helper()
	if pairs == nil {
		pairs = [][]string{}
	}
	raw, err := json.Marshal(pairs)
	require.NoError(t, err)
	return raw
}

func newTestBatchService(scorer Scorer, store repository.BatchRunRepository, workers int) BatchService {
	return NewBatchService(scorer, store, validator.New(), BatchConfig{
		DefaultServiceURL: "http://default:8000",
		Workers:           workers,
	}, zerolog.Nop())
}

func TestParseDatasetRejectsBadShapes(t *testing.T) {
	cases := map[string]string{
		"not an array":   `{"text": "x"}`,
		"single element": `[["only text"]]`,
		"three elements": `[["a", "positive", "extra"]]`,
		"non-string":     `[["a", 1]]`,
		"flat strings":   `["a", "positive"]`,
		"null":           `null`,
		"invalid json":   `[[`,
	}

	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseDataset(json.RawMessage(raw))
			require.ErrorIs(t, err, ErrInvalidDataset)
			require.Contains(t, err.Error(), "[text, gold_label] pairs")
		})
	}
}

func TestParseDatasetRejectsUnknownGoldLabel(t *testing.T) {
	_, err := ParseDataset(json.RawMessage(`[["fine", "positive"], ["meh", "mixed"]]`))
	require.ErrorIs(t, err, ErrInvalidDataset)
	require.Contains(t, err.Error(), `Got: "mixed"`)

	var validationErr *ValidationError
	require.True(t, errors.As(err, &validationErr))
}

func TestParseDatasetRejectsEmptyText(t *testing.T) {
	_, err := ParseDataset(json.RawMessage(`[["", "neutral"]]`))
	require.ErrorIs(t, err, ErrInvalidDataset)
}

func TestBatchRunEmptyDataset(t *testing.T) {
	scorer := &stubScorer{}
	svc := newTestBatchService(scorer, nil, 1)

	summary, err := svc.Run(context.Background(), dto.BatchRequest{Dataset: rawDataset(t)})
	require.NoError(t, err)
	require.Zero(t, summary.ItemCount)
	require.Zero(t, summary.CorrectCount)
	require.Zero(t, summary.Accuracy)
	require.Zero(t, summary.AvgLatencyMs)
	require.NotNil(t, summary.Rows)
	require.Empty(t, summary.Rows)
	require.Zero(t, scorer.callCount())
	require.Equal(t, "http://default:8000", summary.ServiceURL)
}

func TestBatchRunInvalidLabelsMakeNoCalls(t *testing.T) {
	scorer := &stubScorer{fallback: scoring.Succeeded(2, 1, "")}
	svc := newTestBatchService(scorer, nil, 1)

	_, err := svc.Run(context.Background(), dto.BatchRequest{
		Dataset: rawDataset(t, []string{"a", "good"}, []string{"b", "bad"}),
	})
	require.ErrorIs(t, err, ErrInvalidDataset)
	require.Zero(t, scorer.callCount())
}

func TestBatchRunInvalidLabelLateInDatasetStillMakesNoCalls(t *testing.T) {
	scorer := &stubScorer{fallback: scoring.Succeeded(2, 1, "")}
	svc := newTestBatchService(scorer, nil, 1)

	_, err := svc.Run(context.Background(), dto.BatchRequest{
		Dataset: rawDataset(t, []string{"a", "positive"}, []string{"b", "negative"}, []string{"c", "NEUTRAL"}),
	})
	require.ErrorIs(t, err, ErrInvalidDataset)
	require.Zero(t, scorer.callCount())
}

func TestBatchRunMissingDatasetIsRequestError(t *testing.T) {
	svc := newTestBatchService(&stubScorer{}, nil, 1)

	_, err := svc.Run(context.Background(), dto.BatchRequest{})
	require.ErrorIs(t, err, ErrInvalidRequest)
}

func TestBatchRunClassifiesAndAggregates(t *testing.T) {
	timeoutMsg := "Timeout after 4.0s while calling the external service."
	scorer := &stubScorer{outcomes: map[string]scoring.Outcome{
		"great":   scoring.Succeeded(2.0, 10, ""),
		"fine":    scoring.Succeeded(0.2, 20, ""),
		"awful":   scoring.Succeeded(-1, 30, ""),
		"wild":    scoring.SucceededWithWarning(9, "Score 9 is outside expected range [-5, 5].", 40, ""),
		"timeout": scoring.Failed(&scoring.UpstreamError{Kind: scoring.ErrorKindTimeout, Message: timeoutMsg}, 50, ""),
	}}
	store := repository.NewMemoryBatchRunRepository(time.Hour)
	svc := newTestBatchService(scorer, store, 1)

	summary, err := svc.Run(context.Background(), dto.BatchRequest{
		ServiceURL: " http://svc:8000 ",
		Dataset: rawDataset(t,
			[]string{"great", "positive"},
			[]string{"fine", "negative"},
			[]string{"awful", "negative"},
			[]string{"wild", "positive"},
			[]string{"timeout", "neutral"},
		),
	})
	require.NoError(t, err)

	require.Equal(t, "http://svc:8000", summary.ServiceURL)
	require.Equal(t, 5, summary.ItemCount)
	require.Equal(t, 3, summary.CorrectCount)
	require.InDelta(t, 0.6, summary.Accuracy, 1e-9)
	require.InDelta(t, 30.0, summary.AvgLatencyMs, 1e-9)
	require.NotEmpty(t, summary.RunID)
	require.False(t, summary.FinishedAt.Before(summary.StartedAt))

	require.Equal(t, []string{"great", "fine", "awful", "wild", "timeout"}, scorer.calls)

	first := summary.Rows[0]
	require.NotNil(t, first.Score)
	require.Equal(t, models.LabelPositive, *first.Pred)
	require.True(t, first.Correct)
	require.Nil(t, first.Error)

	second := summary.Rows[1]
	require.Equal(t, models.LabelNeutral, *second.Pred)
	require.False(t, second.Correct)

	require.Equal(t, models.LabelNegative, *summary.Rows[2].Pred)
	require.True(t, summary.Rows[2].Correct)

	require.NotEmpty(t, summary.Rows[3].Warning)
	require.True(t, summary.Rows[3].Correct)

	failed := summary.Rows[4]
	require.Nil(t, failed.Score)
	require.Nil(t, failed.Pred)
	require.False(t, failed.Correct)
	require.NotNil(t, failed.Error)
	require.Equal(t, timeoutMsg, *failed.Error)
	require.Equal(t, 50.0, failed.LatencyMs)

	require.Equal(t, 2, summary.Confusion["positive"]["positive"])
	require.Equal(t, 1, summary.Confusion["negative"]["neutral"])
	require.Equal(t, 1, summary.Confusion["neutral"][PredErrorKey])
	require.Equal(t, 0, summary.Confusion["neutral"]["neutral"])

	stored, err := svc.Get(context.Background(), summary.RunID)
	require.NoError(t, err)
	require.Equal(t, summary.RunID, stored.RunID)
	require.Len(t, stored.Rows, 5)
}

func TestBatchGetUnknownRun(t *testing.T) {
	svc := newTestBatchService(&stubScorer{}, repository.NewMemoryBatchRunRepository(time.Hour), 1)
	_, err := svc.Get(context.Background(), "nope")
	require.ErrorIs(t, err, repository.ErrBatchRunNotFound)

	withoutStore := newTestBatchService(&stubScorer{}, nil, 1)
	_, err = withoutStore.Get(context.Background(), "nope")
	require.ErrorIs(t, err, repository.ErrBatchRunNotFound)
}

func TestBatchRunParallelPreservesInputOrder(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	delays := make(map[string]time.Duration)
	pairs := make([][]string, 0, 24)
	for i := 0; i < 24; i++ {
		text := fmt.Sprintf("item-%02d", i)
		delays[text] = time.Duration(rng.Intn(15)) * time.Millisecond
		pairs = append(pairs, []string{text, "positive"})
	}

	scorer := &stubScorer{
		fallback: scoring.Succeeded(3, 1, ""),
		delay:    func(text string) time.Duration { return delays[text] },
	}
	svc := newTestBatchService(scorer, nil, 4)

	summary, err := svc.Run(context.Background(), dto.BatchRequest{Dataset: rawDataset(t, pairs...)})
	require.NoError(t, err)
	require.Equal(t, 24, summary.ItemCount)
	require.Equal(t, 24, summary.CorrectCount)
	for i, row := range summary.Rows {
		require.Equal(t, fmt.Sprintf("item-%02d", i), row.Text)
	}
	require.LessOrEqual(t, atomic.LoadInt32(&scorer.peak), int32(4))
}

func TestBatchRunSequentialAgainstHTTPService(t *testing.T) {
	var active, maxActive int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		current := atomic.AddInt32(&active, 1)
		defer atomic.AddInt32(&active, -1)
		if current > atomic.LoadInt32(&maxActive) {
			atomic.StoreInt32(&maxActive, current)
		}
		time.Sleep(5 * time.Millisecond)
		_, _ = w.Write([]byte(`{"score": 2.0}`))
	}))
	defer server.Close()

	recorder := observability.NewIsolatedRecorder()
	client, err := scoring.New(scoring.Config{Timeout: time.Second, Recorder: recorder, Logger: zerolog.Nop()})
	require.NoError(t, err)
	svc := newTestBatchService(client, nil, 1)

	summary, err := svc.Run(context.Background(), dto.BatchRequest{
		ServiceURL: server.URL,
		Dataset: rawDataset(t,
			[]string{"positive text", "positive"},
			[]string{"more positive text", "positive"},
			[]string{"neutral text", "neutral"},
		),
	})
	require.NoError(t, err)
	require.Equal(t, 3, summary.ItemCount)
	require.Equal(t, 2, summary.CorrectCount)
	require.Equal(t, models.LabelPositive, *summary.Rows[0].Pred)
	require.True(t, summary.Rows[0].Correct)
	require.Equal(t, int32(1), atomic.LoadInt32(&maxActive))

	snapshot := recorder.Snapshot()
	require.Equal(t, 3, snapshot.TotalRequests)
	require.Equal(t, 3, snapshot.SuccessRequests)
}

func TestBatchRunTimeoutEveryCall(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-release:
		}
	}))
	defer server.Close()
	defer close(release)

	recorder := observability.NewIsolatedRecorder()
	client, err := scoring.New(scoring.Config{Timeout: 30 * time.Millisecond, Recorder: recorder, Logger: zerolog.Nop()})
	require.NoError(t, err)
	svc := newTestBatchService(client, nil, 1)

	summary, err := svc.Run(context.Background(), dto.BatchRequest{
		ServiceURL: server.URL,
		Dataset: rawDataset(t,
			[]string{"one", "positive"},
			[]string{"two", "neutral"},
			[]string{"three", "negative"},
		),
	})
	require.NoError(t, err)
	require.Equal(t, 3, summary.ItemCount)
	require.Equal(t, 0, summary.CorrectCount)
	require.Zero(t, summary.Accuracy)
	require.Greater(t, summary.AvgLatencyMs, 0.0)
	for _, row := range summary.Rows {
		require.Nil(t, row.Score)
		require.NotNil(t, row.Error)
		require.Contains(t, *row.Error, "Timeout after")
	}

	snapshot := recorder.Snapshot()
	require.Equal(t, 3, snapshot.TotalRequests)
	require.Equal(t, 3, snapshot.FailedRequests)
}

func TestBatchRunIgnoresCallerCancellation(t *testing.T) {
	scorer := &stubScorer{fallback: scoring.Succeeded(0, 1, "")}
	svc := newTestBatchService(scorer, nil, 1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	summary, err := svc.Run(ctx, dto.BatchRequest{
		Dataset: rawDataset(t, []string{"a", "neutral"}, []string{"b", "neutral"}),
	})
	require.NoError(t, err)
	require.Equal(t, 2, summary.ItemCount)
	require.Equal(t, 2, scorer.callCount())
	require.Equal(t, int32(1), atomic.LoadInt32(&scorer.peak))
}
