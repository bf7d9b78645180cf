package scoring

import "fmt"

// ErrorKind classifies why a call to the scoring service failed.
type ErrorKind string

const (
	// ErrorKindProtocol means the service answered, but not with a usable 2xx JSON body.
	ErrorKindProtocol ErrorKind = "protocol"
	// ErrorKindTimeout means the call did not finish before the deadline.
	ErrorKindTimeout ErrorKind = "timeout"
	// ErrorKindNetwork means the service could not be reached at all.
	ErrorKindNetwork ErrorKind = "network"
	// ErrorKindUnexpected covers everything else, such as an unparsable body.
	ErrorKindUnexpected ErrorKind = "unexpected"
)

// UpstreamError describes a failed call. Message is written for humans and is
// safe to show to the caller as-is.
type UpstreamError struct {
	Kind       ErrorKind
	StatusCode int
	Message    string
	Cause      error
}

func (e *UpstreamError) Error() string {
	return e.Message
}

func (e *UpstreamError) Unwrap() error {
	return e.Cause
}

// OutcomeKind tags the three possible results of one call attempt.
type OutcomeKind int

const (
	// OutcomeSuccess carries an in-range score.
	OutcomeSuccess OutcomeKind = iota + 1
	// OutcomeWarning carries a usable score outside the documented range.
	OutcomeWarning
	// OutcomeFailure carries an UpstreamError and no score.
	OutcomeFailure
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSuccess:
		return "success"
	case OutcomeWarning:
		return "warning"
	case OutcomeFailure:
		return "failure"
	default:
		return fmt.Sprintf("OutcomeKind(%d)", int(k))
	}
}

// Outcome is the immutable result of one call attempt. Build it with
// Succeeded, SucceededWithWarning or Failed.
type Outcome struct {
	kind      OutcomeKind
	score     float64
	warning   string
	err       *UpstreamError
	latencyMs float64
	endpoint  string
}

// Succeeded builds a success outcome.
func Succeeded(score, latencyMs float64, endpoint string) Outcome {
	return Outcome{kind: OutcomeSuccess, score: score, latencyMs: latencyMs, endpoint: endpoint}
}

// SucceededWithWarning builds a success outcome that carries a warning.
func SucceededWithWarning(score float64, warning string, latencyMs float64, endpoint string) Outcome {
	return Outcome{kind: OutcomeWarning, score: score, warning: warning, latencyMs: latencyMs, endpoint: endpoint}
}

// Failed builds a failure outcome. A nil err is replaced by a generic unexpected error.
func Failed(err *UpstreamError, latencyMs float64, endpoint string) Outcome {
	if err == nil {
		err = &UpstreamError{Kind: ErrorKindUnexpected, Message: "Unknown error."}
	}
	return Outcome{kind: OutcomeFailure, err: err, latencyMs: latencyMs, endpoint: endpoint}
}

// Kind returns the outcome tag.
func (o Outcome) Kind() OutcomeKind { return o.kind }

// OK reports whether the outcome carries a score. Warnings count as OK.
func (o Outcome) OK() bool { return o.kind == OutcomeSuccess || o.kind == OutcomeWarning }

// Score returns the score and whether one is present.
func (o Outcome) Score() (float64, bool) {
	if !o.OK() {
		return 0, false
	}
	return o.score, true
}

// Warning returns the range warning, if any.
func (o Outcome) Warning() string { return o.warning }

// Err returns the failure details, or nil for successful outcomes.
func (o Outcome) Err() *UpstreamError { return o.err }

// LatencyMs returns the measured wall-clock latency of the attempt.
func (o Outcome) LatencyMs() float64 { return o.latencyMs }

// Endpoint returns the URL that was called.
func (o Outcome) Endpoint() string { return o.endpoint }
