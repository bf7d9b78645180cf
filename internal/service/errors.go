package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/sentiment-probe/pkg/scoring"
)

var (
	// ErrInvalidDataset indicates the batch dataset failed validation before any call was made.
	ErrInvalidDataset = errors.New("invalid dataset")
	// ErrInvalidRequest indicates a request payload failed struct validation.
	ErrInvalidRequest = errors.New("invalid request")
)

// ValidationError carries a message that is safe to return to the caller.
type ValidationError struct {
	Message string
	kind    error
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Is lets errors.Is match the validation category.
func (e *ValidationError) Is(target error) bool {
	return target == e.kind
}

func datasetError(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...), kind: ErrInvalidDataset}
}

func requestError(message string) *ValidationError {
	return &ValidationError{Message: message, kind: ErrInvalidRequest}
}

// UpstreamFailure is returned when a single score request could not be served
// by the external service. The call has already been recorded in the metrics.
type UpstreamFailure struct {
	Upstream  *scoring.UpstreamError
	LatencyMs float64
}

func (e *UpstreamFailure) Error() string {
	return e.Upstream.Message
}

func (e *UpstreamFailure) Unwrap() error {
	return e.Upstream
}

func describeValidation(err error) string {
	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) || len(fieldErrors) == 0 {
		return "invalid payload"
	}

	parts := make([]string, 0, len(fieldErrors))
	for _, fieldErr := range fieldErrors {
		parts = append(parts, fmt.Sprintf("%s failed %q validation", strings.ToLower(fieldErr.Field()), fieldErr.Tag()))
	}
	return strings.Join(parts, "; ")
}
