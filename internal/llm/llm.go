package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// Options carries per-call generation parameters.
type Options struct {
	MaxTokens   int
	Temperature float64
}

// Generator is the narrow contract the gateway needs from a text-generation backend.
// Implementations make exactly one attempt per call.
type Generator interface {
	Generate(ctx context.Context, prompt string, opts Options) (string, error)
}

// ErrTimeout is wrapped by Generate errors when the backend did not answer in time.
var ErrTimeout = errors.New("backend timed out")

// StatusError reports a non-success HTTP status returned by the backend.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend returned %d %s", e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("backend returned %d %s: %s", e.StatusCode, http.StatusText(e.StatusCode), e.Message)
}

// timeoutError wraps err with ErrTimeout when ctx hit its deadline.
func timeoutError(ctx context.Context, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", ErrTimeout, err)
	}
	return err
}
