package llm

import (
	"context"
	"errors"
	"iter"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thebtf/journalcoach/internal/prompts"
	"github.com/thebtf/journalcoach/internal/stream"
)

type recordingProvider struct {
	structuredErr error
	structured    string
	systems       []string
	users         []string
	fragments     []string
}

func (p *recordingProvider) Name() string { return "recording" }

func (p *recordingProvider) StreamCompletion(_ context.Context, system, user string) iter.Seq2[string, error] {
	p.systems = append(p.systems, system)
	p.users = append(p.users, user)
	return stream.FromSlice(p.fragments...)
}

func (p *recordingProvider) StructuredCompletion(_ context.Context, system, user string) (string, error) {
	p.systems = append(p.systems, system)
	p.users = append(p.users, user)
	return p.structured, p.structuredErr
}

func TestCoach_QuestionsStripsPrivateText(t *testing.T) {
	provider := &recordingProvider{fragments: []string{"1. Why?"}}
	coach := NewCoach(provider, nil)

	text, err := stream.Accumulate(coach.Questions(context.Background(), "Met <private>Sam</private> for lunch."), nil)
	require.NoError(t, err)
	assert.Equal(t, "1. Why?", text)

	require.Len(t, provider.users, 1)
	assert.Equal(t, prompts.DefaultQuestionsSystem, provider.systems[0])
	assert.Equal(t, prompts.QuestionsUser("Met  for lunch."), provider.users[0])
	assert.NotContains(t, provider.users[0], "Sam")
}

func TestCoach_QuestionsEntirelyPrivate(t *testing.T) {
	provider := &recordingProvider{}
	coach := NewCoach(provider, nil)

	_, err := stream.Accumulate(coach.Questions(context.Background(), "<private>all</private>"), nil)
	assert.ErrorIs(t, err, ErrNothingToSend)
	assert.Empty(t, provider.users)
}

func TestCoach_SummarizeUsesProfileAndDate(t *testing.T) {
	provider := &recordingProvider{structured: `Here: {"title":"Launch","summary":"Shipped v2."}`}
	profile := &prompts.Profile{QuestionsSystem: "Q", SummarySystem: "Return JSON."}
	coach := NewCoach(provider, profile)

	today := time.Date(2024, 6, 15, 12, 0, 0, 0, time.Local)
	got, err := coach.Summarize(context.Background(), "Shipped.", "1. How?", "With <private>Ann</private> help", today)
	require.NoError(t, err)
	assert.Equal(t, TitleSummary{Title: "Launch", Summary: "Shipped v2."}, got)

	require.Len(t, provider.users, 1)
	assert.Equal(t, "Return JSON.", provider.systems[0])
	assert.Equal(t, prompts.SummaryUser("2024-06-15", "Shipped.", "1. How?", "With  help"), provider.users[0])
}

func TestCoach_SummarizeDegrades(t *testing.T) {
	coach := NewCoach(&recordingProvider{structured: "no json here"}, nil)

	got, err := coach.Summarize(context.Background(), "entry", "q", "a", time.Now())
	require.NoError(t, err)
	assert.True(t, got.Degraded)
	assert.Equal(t, "Untitled", got.Title)
	assert.Equal(t, "no json here", got.Summary)
}

func TestCoach_SummarizePropagatesError(t *testing.T) {
	boom := errors.New("connection reset")
	coach := NewCoach(&recordingProvider{structuredErr: boom}, nil)

	_, err := coach.Summarize(context.Background(), "entry", "q", "a", time.Now())
	assert.ErrorIs(t, err, boom)
}
