// Package llm talks to the language model: streamed completions for follow-up
// questions and single-shot completions for the title and summary.
package llm

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"net/http"
	"strings"

	"github.com/thebtf/journalcoach/internal/config"
)

// Provider is a remote (or local) completion service.
type Provider interface {
	// Name identifies the provider in logs and status lines.
	Name() string

	// StreamCompletion yields text fragments in order. The request is only sent
	// once the sequence is ranged over. A failure mid-stream is yielded as the
	// final error.
	StreamCompletion(ctx context.Context, system, user string) iter.Seq2[string, error]

	// StructuredCompletion returns the full response text in one piece.
	StructuredCompletion(ctx context.Context, system, user string) (string, error)
}

var (
	// ErrMissingAPIKey is returned when the OpenAI provider has no key.
	ErrMissingAPIKey = errors.New("OPENAI_API_KEY is not set")

	// ErrEmptyResponse is returned when the model answered with no text.
	ErrEmptyResponse = errors.New("model returned an empty response")
)

// ProviderError is a failed HTTP exchange or an error event reported by the service.
type ProviderError struct {
	Provider   string
	Message    string
	StatusCode int
}

func (e *ProviderError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s http %d: %s", e.Provider, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Provider, e.Message)
}

// New builds the provider selected by cfg.Provider. httpClient may be nil.
func New(cfg *config.Config, httpClient *http.Client) (Provider, error) {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	switch cfg.Provider {
	case "ollama":
		return NewOllama(cfg.OllamaBaseURL, cfg.Model, httpClient), nil
	case "openai", "":
		return NewOpenAI(cfg.OpenAIBaseURL, cfg.APIKey, cfg.Model, httpClient), nil
	default:
		return nil, fmt.Errorf("unknown provider %q", cfg.Provider)
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

func messages(system, user string) []chatMessage {
	return []chatMessage{
		{Role: "system", Content: system},
		{Role: "user", Content: user},
	}
}

// compactSingleLine flattens a response body for error messages.
func compactSingleLine(text string, limit int) string {
	compact := strings.Join(strings.Fields(text), " ")
	if limit > 0 && len(compact) > limit {
		return compact[:limit] + "..."
	}
	return compact
}

func endpoint(base, path string) string {
	return strings.TrimRight(strings.TrimSpace(base), "/") + path
}
