package llm

import (
	"context"
	"errors"
	"iter"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/thebtf/journalcoach/internal/privacy"
	"github.com/thebtf/journalcoach/internal/prompts"
	"github.com/thebtf/journalcoach/pkg/models"
)

// ErrNothingToSend is returned when the entry is empty once private sections are removed.
var ErrNothingToSend = errors.New("entry is empty after removing private sections")

// Coach turns journal text into model requests.
type Coach struct {
	provider Provider
	prompts  *prompts.Profile
}

// NewCoach wraps provider with the given prompt profile (Default if nil).
func NewCoach(provider Provider, profile *prompts.Profile) *Coach {
	if profile == nil {
		profile = prompts.Default()
	}
	return &Coach{provider: provider, prompts: profile}
}

// Provider returns the underlying provider.
func (c *Coach) Provider() Provider {
	return c.provider
}

// Questions streams numbered follow-up questions about entry.
func (c *Coach) Questions(ctx context.Context, entry string) iter.Seq2[string, error] {
	cleaned := privacy.Clean(entry)
	if cleaned == "" {
		return func(yield func(string, error) bool) {
			yield("", ErrNothingToSend)
		}
	}
	return c.provider.StreamCompletion(ctx, c.prompts.QuestionsSystem, prompts.QuestionsUser(cleaned))
}

// Summarize asks for a title and cleaned summary of the whole exchange.
// today supplies the local date quoted to the model.
func (c *Coach) Summarize(ctx context.Context, entry, questions, answers string, today time.Time) (TitleSummary, error) {
	cleaned := privacy.Clean(entry)
	if cleaned == "" {
		return TitleSummary{}, ErrNothingToSend
	}

	user := prompts.SummaryUser(
		today.Local().Format(models.DateLayout),
		cleaned,
		questions,
		privacy.Clean(answers),
	)
	text, err := c.provider.StructuredCompletion(ctx, c.prompts.SummarySystem, user)
	if err != nil {
		return TitleSummary{}, err
	}

	result := ParseTitleSummary(text)
	if result.Degraded {
		log.Warn().Str("provider", c.provider.Name()).Msg("Structured reply had no JSON object, saving raw text as summary")
	}
	return result, nil
}
