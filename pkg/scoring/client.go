package scoring

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/sentiment-probe/internal/models"
)

const (
	// ScorePath is appended to the base URL of the scoring service.
	ScorePath = "/v1/sentiment"
	// DefaultTimeout bounds a single call when no timeout is configured.
	DefaultTimeout = 4 * time.Second

	bodyExcerptLimit = 200
	maxResponseBytes = 1 << 20
)

// MetricsRecorder receives exactly one observation per call attempt.
type MetricsRecorder interface {
	Record(success bool, latencyMs float64)
}

// Config defines configuration options for the scoring client.
type Config struct {
	Timeout    time.Duration
	HTTPClient *http.Client
	Recorder   MetricsRecorder
	Logger     zerolog.Logger
}

// Client calls the external sentiment service and normalises every result into an Outcome.
type Client struct {
	cfg    Config
	http   *http.Client
	tracer trace.Tracer
	logger zerolog.Logger
}

type scoreRequest struct {
	Text string `json:"text"`
}

// New builds a client using the provided configuration.
func New(cfg Config) (*Client, error) {
	if cfg.Recorder == nil {
		return nil, fmt.Errorf("scoring client requires a metrics recorder")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)}
	}

	logger := cfg.Logger
	if logger.GetLevel() == zerolog.Disabled {
		logger = zerolog.Nop()
	}

	return &Client{
		cfg:    cfg,
		http:   httpClient,
		tracer: otel.Tracer("github.com/noah-isme/sentiment-probe/pkg/scoring"),
		logger: logger.With().Str("component", "scoring_client").Logger(),
	}, nil
}

// Timeout returns the configured per-call timeout.
func (c *Client) Timeout() time.Duration {
	return c.cfg.Timeout
}

// Endpoint builds the scoring URL for baseURL.
func Endpoint(baseURL string) string {
	return strings.TrimRight(baseURL, "/") + ScorePath
}

// Score scores text using the configured timeout.
func (c *Client) Score(ctx context.Context, baseURL, text string) Outcome {
	return c.ScoreWithTimeout(ctx, baseURL, text, c.cfg.Timeout)
}

// ScoreWithTimeout performs one POST to the scoring service. It never retries
// and never returns a transport error directly: every result, including panics
// while parsing, ends up in the returned Outcome and in exactly one Record call.
func (c *Client) ScoreWithTimeout(parent context.Context, baseURL, text string, timeout time.Duration) (outcome Outcome) {
	if timeout <= 0 {
		timeout = c.cfg.Timeout
	}
	endpoint := Endpoint(baseURL)

	ctx, span := c.tracer.Start(parent, "scoring.score", trace.WithAttributes(
		attribute.String("endpoint", endpoint),
		attribute.Int("text_length", len(text)),
	))
	defer span.End()

	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			outcome = Failed(unexpectedError(fmt.Errorf("panic: %v", r)), elapsedMs(start), endpoint)
		}
		c.cfg.Recorder.Record(outcome.OK(), outcome.LatencyMs())
		c.report(span, outcome)
	}()

	return c.call(ctx, endpoint, text, timeout, start)
}

func (c *Client) call(ctx context.Context, endpoint, text string, timeout time.Duration, start time.Time) Outcome {
	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	body, err := json.Marshal(scoreRequest{Text: text})
	if err != nil {
		return Failed(unexpectedError(err), elapsedMs(start), endpoint)
	}

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return Failed(networkError(err), elapsedMs(start), endpoint)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return Failed(c.transportError(reqCtx, err, timeout), elapsedMs(start), endpoint)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	latencyMs := elapsedMs(start)
	if err != nil {
		return Failed(c.transportError(reqCtx, err, timeout), latencyMs, endpoint)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return Failed(&UpstreamError{
			Kind:       ErrorKindProtocol,
			StatusCode: resp.StatusCode,
			Message: fmt.Sprintf(
				"External service responded with HTTP %d. Expected 2xx. Response body (truncated): %q",
				resp.StatusCode, excerpt(payload, bodyExcerptLimit),
			),
		}, latencyMs, endpoint)
	}

	score, upstreamErr := parseScore(payload)
	if upstreamErr != nil {
		upstreamErr.StatusCode = resp.StatusCode
		return Failed(upstreamErr, latencyMs, endpoint)
	}

	if !models.InRange(score) {
		warning := fmt.Sprintf("Score %s is outside expected range [%g, %g].",
			strconv.FormatFloat(score, 'g', -1, 64), models.ScoreMin, models.ScoreMax)
		return SucceededWithWarning(score, warning, latencyMs, endpoint)
	}

	return Succeeded(score, latencyMs, endpoint)
}

func parseScore(payload []byte) (float64, *UpstreamError) {
	if !gjson.ValidBytes(payload) {
		return 0, unexpectedError(fmt.Errorf("invalid JSON response body: %q", excerpt(payload, bodyExcerptLimit)))
	}

	parsed := gjson.ParseBytes(payload)
	if !parsed.IsObject() {
		return 0, unexpectedError(fmt.Errorf("expected a JSON object, got %s", jsonKind(parsed)))
	}

	field := parsed.Get("score")
	if !field.Exists() {
		keys := make([]string, 0)
		parsed.ForEach(func(key, _ gjson.Result) bool {
			keys = append(keys, key.String())
			return true
		})
		return 0, &UpstreamError{
			Kind: ErrorKindProtocol,
			Message: fmt.Sprintf(
				"External service returned JSON without the required field 'score'. Got keys: %q", keys,
			),
		}
	}

	var score float64
	switch field.Type {
	case gjson.Number:
		score = field.Float()
	case gjson.String:
		parsedScore, err := strconv.ParseFloat(strings.TrimSpace(field.Str), 64)
		if err != nil {
			return 0, unexpectedError(err)
		}
		score = parsedScore
	default:
		return 0, unexpectedError(fmt.Errorf("field 'score' must be numeric, got %s", jsonKind(field)))
	}

	if math.IsNaN(score) || math.IsInf(score, 0) {
		return 0, unexpectedError(fmt.Errorf("field 'score' is not a finite number: %v", score))
	}

	return score, nil
}

func jsonKind(value gjson.Result) string {
	switch {
	case value.IsArray():
		return "array"
	case value.IsObject():
		return "object"
	case value.IsBool():
		return "boolean"
	case value.Type == gjson.Null:
		return "null"
	default:
		return strings.ToLower(value.Type.String())
	}
}

func (c *Client) transportError(ctx context.Context, err error, timeout time.Duration) *UpstreamError {
	if isTimeout(ctx, err) {
		return &UpstreamError{
			Kind: ErrorKindTimeout,
			Message: fmt.Sprintf(
				"Timeout after %.1fs while calling the external service. "+
					"This usually means the container is not running, the URL/port is wrong, or the model is too slow. "+
					"Try: (1) open the service docs at /docs, (2) verify %s exists, (3) reduce model size or backend load.",
				timeout.Seconds(), ScorePath,
			),
			Cause: err,
		}
	}
	if errors.Is(err, context.Canceled) {
		return unexpectedError(err)
	}
	return networkError(err)
}

func isTimeout(ctx context.Context, err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func networkError(err error) *UpstreamError {
	return &UpstreamError{
		Kind: ErrorKindNetwork,
		Message: "Could not reach the external service (network error). " +
			"Check the base URL and whether the container is running. " +
			"Details: " + describe(err),
		Cause: err,
	}
}

func unexpectedError(err error) *UpstreamError {
	return &UpstreamError{
		Kind: ErrorKindUnexpected,
		Message: "Unexpected error while calling/parsing the external service response. " +
			"Details: " + describe(err),
		Cause: err,
	}
}

func describe(err error) string {
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Err != nil {
		err = urlErr.Err
	}
	return fmt.Sprintf("%T: %v", err, err)
}

func excerpt(body []byte, limit int) string {
	runes := []rune(string(body))
	if len(runes) <= limit {
		return string(runes)
	}
	return string(runes[:limit])
}

func elapsedMs(start time.Time) float64 {
	return float64(time.Since(start)) / float64(time.Millisecond)
}

func (c *Client) report(span trace.Span, outcome Outcome) {
	span.SetAttributes(
		attribute.String("outcome", outcome.Kind().String()),
		attribute.Float64("latency_ms", outcome.LatencyMs()),
	)

	event := c.logger.Debug()
	switch outcome.Kind() {
	case OutcomeFailure:
		upstreamErr := outcome.Err()
		span.RecordError(upstreamErr)
		span.SetStatus(codes.Error, string(upstreamErr.Kind))
		event = c.logger.Warn().Str("error_kind", string(upstreamErr.Kind))
		if upstreamErr.StatusCode != 0 {
			event = event.Int("status", upstreamErr.StatusCode)
		}
	case OutcomeWarning:
		event = c.logger.Warn().Str("warning", outcome.Warning())
	}

	if score, ok := outcome.Score(); ok {
		event = event.Float64("score", score)
	}

	event.
		Str("endpoint", outcome.Endpoint()).
		Str("outcome", outcome.Kind().String()).
		Float64("latency_ms", outcome.LatencyMs()).
		Msg("scoring call completed")
}
