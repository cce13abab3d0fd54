// Package summarize turns free text into study notes through a generation backend.
package summarize

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"study-summarizer/internal/llm"
)

const (
	// DefaultMaxTokens caps generation length when the caller sets none.
	DefaultMaxTokens = 32768
	// DefaultTemperature is the sampling temperature when the caller sets none.
	DefaultTemperature = 0.5
)

const promptTemplate = `You are a study assistant. Summarize the following content
into clear, organized markdown notes for studying.
Content:
%s`

// Request is a single summarization call.
type Request struct {
	Input       string
	MaxTokens   int
	Temperature float64
}

// Response carries the generated notes.
type Response struct {
	Summary string `json:"summary"`
}

// Service validates requests, builds the prompt and calls the backend once.
type Service struct {
	gen llm.Generator
}

// New returns a Service that sends prompts to gen.
func New(gen llm.Generator) *Service {
	return &Service{gen: gen}
}

// BuildPrompt embeds input verbatim into the study-notes template.
func BuildPrompt(input string) string {
	return fmt.Sprintf(promptTemplate, input)
}

// Summarize returns the backend's text for req. Every failure is a *Error.
func (s *Service) Summarize(ctx context.Context, req Request) (Response, error) {
	if strings.TrimSpace(req.Input) == "" {
		return Response{}, &Error{Kind: KindInvalidInput, Err: ErrNoInput}
	}

	text, err := s.gen.Generate(ctx, BuildPrompt(req.Input), llm.Options{
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	})
	if err != nil {
		return Response{}, classify(err)
	}
	return Response{Summary: text}, nil
}

func classify(err error) *Error {
	var statusErr *llm.StatusError
	switch {
	case errors.Is(err, llm.ErrTimeout):
		return &Error{Kind: KindTimeout, Err: err}
	case errors.As(err, &statusErr):
		return &Error{Kind: KindBackend, Err: err}
	default:
		return &Error{Kind: KindUnexpected, Err: err}
	}
}
