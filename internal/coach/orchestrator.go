// Package coach drives one ask, answer, summarize and save cycle at a time.
package coach

import (
	"context"
	"errors"
	"iter"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/thebtf/journalcoach/internal/journal"
	"github.com/thebtf/journalcoach/internal/llm"
	"github.com/thebtf/journalcoach/internal/ratelimit"
	"github.com/thebtf/journalcoach/internal/retry"
	"github.com/thebtf/journalcoach/internal/stream"
	"github.com/thebtf/journalcoach/internal/task"
	"github.com/thebtf/journalcoach/pkg/models"
)

var (
	// ErrRateLimited is returned when the limiter rejects a request.
	ErrRateLimited = errors.New("rate limited, try again later")
	// ErrEmptyEntry is returned by Ask for blank text.
	ErrEmptyEntry = errors.New("journal entry is empty")
	// ErrNoQuestions is returned by Summarize before questions have arrived.
	ErrNoQuestions = errors.New("no follow-up questions yet")
	// ErrEmptyAnswers is returned by Summarize for blank answers.
	ErrEmptyAnswers = errors.New("answers are empty")
	// ErrBusy is returned by Ask and Summarize while a summary is in flight.
	ErrBusy = errors.New("summary already in progress")
)

// State is the orchestrator's position in the cycle.
type State int

const (
	StateIdle State = iota
	StateAsking
	StateAwaitingAnswers
	StateSummarizing
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAsking:
		return "asking"
	case StateAwaitingAnswers:
		return "awaiting_answers"
	case StateSummarizing:
		return "summarizing"
	default:
		return "unknown"
	}
}

// Model produces questions and summaries. *llm.Coach implements it.
type Model interface {
	Questions(ctx context.Context, entry string) iter.Seq2[string, error]
	Summarize(ctx context.Context, entry, questions, answers string, today time.Time) (llm.TitleSummary, error)
}

// Journal persists records. *journal.Store implements it.
type Journal interface {
	AppendWithRecovery(rec models.Record) error
	LoadAll() iter.Seq[models.Record]
}

// PathStore holds the active journal path. *config.PathStore implements it.
type PathStore interface {
	Get() (string, bool)
	Set(path string) error
}

// Options wires an Orchestrator.
type Options struct {
	Model   Model
	Journal Journal
	Paths   PathStore
	Limiter *ratelimit.Limiter
	Runner  *task.Runner
	Display Display
	Metrics *Metrics

	// OnPathChanged runs on the interactive thread after a new journal path is set.
	OnPathChanged func(path string)

	// Now defaults to time.Now.
	Now func() time.Time

	Retry retry.Options
}

// Orchestrator owns the current Entry. All exported methods must be called on the
// interactive thread; background work reports back through the task runner.
type Orchestrator struct {
	opts    Options
	entry   *models.Entry
	state   State
	cycle   uint64
	metrics *Metrics
}

// New creates an orchestrator in the Idle state.
func New(opts Options) *Orchestrator {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Limiter == nil {
		opts.Limiter = ratelimit.New(ratelimit.DefaultPerMinute)
	}
	metrics := opts.Metrics
	if metrics == nil {
		// The no-op meter never fails to register.
		metrics, _ = NewMetrics(nil)
	}
	return &Orchestrator{opts: opts, metrics: metrics}
}

// State returns the current state.
func (o *Orchestrator) State() State {
	return o.state
}

// Entry returns a copy of the current entry, or nil outside a cycle.
func (o *Orchestrator) Entry() *models.Entry {
	if o.entry == nil {
		return nil
	}
	e := *o.entry
	return &e
}

// Cycle returns the current cycle id. It advances on every Ask and Clear.
func (o *Orchestrator) Cycle() uint64 {
	return o.cycle
}

// guard wraps fn so it does nothing once the cycle it belongs to has been replaced.
func (o *Orchestrator) guard(cycle uint64, fn func()) func() {
	return func() {
		if o.cycle != cycle {
			log.Debug().Uint64("cycle", cycle).Uint64("current", o.cycle).Msg("Dropping callback from stale cycle")
			return
		}
		fn()
	}
}

func (o *Orchestrator) retryOptions(op string) retry.Options {
	opts := o.opts.Retry
	opts.Notify = func(err error, attempt int, delay time.Duration) {
		o.metrics.retry(op)
		log.Warn().Err(err).Str("op", op).Int("attempt", attempt).Dur("delay", delay).Msg("Model call failed, retrying")
	}
	return opts
}

// permanent stops retries for failures another attempt cannot fix.
func permanent(err error) error {
	if errors.Is(err, llm.ErrMissingAPIKey) || errors.Is(err, llm.ErrNothingToSend) {
		return retry.Permanent(err)
	}
	return err
}

// fail ends the cycle's background step with an error in the output pane.
func (o *Orchestrator) fail(cycle uint64, status string) task.ErrorHandler {
	return func(err error) {
		o.guard(cycle, func() {
			o.opts.Display.AppendOutput(errorText(err))
			o.opts.Display.SetStatus(status)
			o.opts.Display.ShowProgress(false)
			o.state = StateIdle
		})()
	}
}

// Ask starts a new cycle: it records text and streams follow-up questions into the
// output. Any unsaved questions or answers from an earlier cycle are discarded.
// Ask is refused while a summary is being saved.
func (o *Orchestrator) Ask(text string) error {
	if o.state == StateSummarizing {
		o.opts.Display.Warn(WarnBusy)
		return ErrBusy
	}
	text = strings.TrimSpace(text)
	if text == "" {
		o.opts.Display.Warn(WarnNoEntry)
		return ErrEmptyEntry
	}
	if !o.opts.Limiter.Allow() {
		o.metrics.limited(opAsk)
		o.opts.Display.Warn(WarnRateLimited)
		return ErrRateLimited
	}
	o.metrics.request(opAsk)

	o.cycle++
	cycle := o.cycle
	entry := &models.Entry{OriginalText: text}
	o.entry = entry
	o.state = StateAsking

	d := o.opts.Display
	d.ClearOutput()
	d.SetStatus(StatusAsking)
	d.ShowProgress(true)

	log.Info().Uint64("cycle", cycle).Int("chars", len(text)).Msg("Asking for follow-up questions")

	o.opts.Runner.Run(opAsk, func(ctx context.Context, t *task.Task) error {
		attempt := 0
		questions, err := retry.Do(ctx, func(ctx context.Context) (string, error) {
			attempt++
			if attempt > 1 {
				// The previous attempt's partial stream is already on screen.
				t.Post(o.guard(cycle, d.ClearOutput))
			}
			out, err := stream.Accumulate(o.opts.Model.Questions(ctx, text), func(fragment string) {
				t.Post(o.guard(cycle, func() { d.AppendOutput(fragment) }))
			})
			return out, permanent(err)
		}, o.retryOptions(opAsk))
		if err != nil {
			return err
		}

		t.Post(o.guard(cycle, func() {
			entry.FollowUpQuestions = questions
			d.SetInput("")
			d.SetStatus(StatusQuestionsDone)
			d.ShowProgress(false)
			o.state = StateAwaitingAnswers
		}))
		return nil
	}, o.fail(cycle, StatusAskFailed))
	return nil
}

// Summarize asks the model for a title and summary of the current cycle and appends
// it to the journal. A record whose save failed is reused when answers are unchanged,
// so retrying a save does not call the model again.
func (o *Orchestrator) Summarize(answers string) error {
	d := o.opts.Display
	if o.state == StateSummarizing {
		d.Warn(WarnBusy)
		return ErrBusy
	}
	if !o.entry.HasQuestions() {
		d.Warn(WarnNoQuestions)
		return ErrNoQuestions
	}
	if _, ok := o.opts.Paths.Get(); !ok {
		if path, chosen := d.PromptForPath(); chosen {
			if err := o.ChoosePath(path); err != nil && !errors.Is(err, journal.ErrStorageUnavailable) {
				log.Warn().Err(err).Msg("Could not persist chosen journal path")
			}
		}
		if _, ok := o.opts.Paths.Get(); !ok {
			d.Warn(WarnNoPath)
			return journal.ErrStorageUnavailable
		}
	}
	answers = strings.TrimSpace(answers)
	if answers == "" {
		d.Warn(WarnNoAnswers)
		return ErrEmptyAnswers
	}

	pending, reuse := o.entry.PendingFor(answers)
	if !reuse {
		if !o.opts.Limiter.Allow() {
			o.metrics.limited(opSummarize)
			d.Warn(WarnRateLimited)
			return ErrRateLimited
		}
		o.metrics.request(opSummarize)
	}

	cycle := o.cycle
	entry := o.entry
	entry.UserAnswers = answers
	entry.Pending = nil
	if reuse {
		entry.Pending = &pending
	}
	snapshot := *entry
	o.state = StateSummarizing

	d.SetStatus(StatusSummarizing)
	d.ShowProgress(true)

	log.Info().Uint64("cycle", cycle).Bool("reusingSummary", reuse).Msg("Summarizing entry")

	o.opts.Runner.Run(opSummarize, func(ctx context.Context, t *task.Task) error {
		rec := pending
		if !reuse {
			result, err := retry.Do(ctx, func(ctx context.Context) (llm.TitleSummary, error) {
				res, err := o.opts.Model.Summarize(ctx, snapshot.OriginalText, snapshot.FollowUpQuestions, snapshot.UserAnswers, o.opts.Now())
				return res, permanent(err)
			}, o.retryOptions(opSummarize))
			if err != nil {
				return err
			}
			rec = models.NewRecord(result.Title, result.Summary, o.opts.Now())
		}

		if err := o.opts.Journal.AppendWithRecovery(rec); err != nil {
			o.metrics.saveFailed()
			log.Error().Err(err).Uint64("cycle", cycle).Msg("Failed to save journal record")
			t.Post(o.guard(cycle, func() { o.saveFailed(entry, rec, err) }))
			return nil
		}

		o.metrics.saved()
		log.Info().Uint64("cycle", cycle).Str("date", rec.DateLocal).Msg("Journal record saved")
		t.Post(func() {
			if o.cycle != cycle {
				// Cleared while saving. The record is on disk, so say so.
				d.SetStatus(StatusSaved)
				return
			}
			o.saved(rec)
		})
		return nil
	}, o.fail(cycle, StatusSummaryFailed))
	return nil
}

func (o *Orchestrator) saved(rec models.Record) {
	d := o.opts.Display
	d.ClearOutput()
	d.AppendOutput(recordText(rec))
	d.SetInput("")
	d.SetStatus(StatusSaved)
	d.ShowProgress(false)
	o.entry = nil
	o.state = StateIdle
}

// saveFailed keeps the summarized record on screen and on the entry for a retry.
func (o *Orchestrator) saveFailed(entry *models.Entry, rec models.Record, err error) {
	d := o.opts.Display
	entry.Pending = &rec
	d.ClearOutput()
	d.AppendOutput(recordText(rec))
	d.AppendOutput(errorText(err))
	d.SetStatus(StatusSaveFailed)
	d.ShowProgress(false)
	o.state = StateIdle
}

// Clear resets the display and drops the current entry. Callbacks from tasks that
// are still running are ignored from here on.
func (o *Orchestrator) Clear() {
	o.cycle++
	o.entry = nil
	o.state = StateIdle

	d := o.opts.Display
	d.SetInput("")
	d.ClearOutput()
	d.SetStatus("")
	d.ShowProgress(false)
}

// ChoosePath sets and remembers the journal file. The in-memory path is updated even
// if remembering it fails; that error is returned.
func (o *Orchestrator) ChoosePath(path string) error {
	d := o.opts.Display
	if strings.TrimSpace(path) == "" {
		d.Warn(WarnNoPath)
		return journal.ErrStorageUnavailable
	}
	err := o.opts.Paths.Set(path)
	current, ok := o.opts.Paths.Get()
	if !ok {
		d.Warn(WarnNoPath)
		return journal.ErrStorageUnavailable
	}

	if err != nil {
		log.Warn().Err(err).Str("path", current).Msg("Could not remember journal path")
		d.SetStatus("Using file: " + current + " (not remembered: " + err.Error() + ")")
	} else {
		log.Info().Str("path", current).Msg("Journal path set")
		d.SetStatus("Using file: " + current)
	}
	if o.opts.OnPathChanged != nil {
		o.opts.OnPathChanged(current)
	}
	return err
}

// History loads saved records in the background and hands them to the display.
func (o *Orchestrator) History(query string) {
	d := o.opts.Display
	d.SetStatus(StatusLoadingHist)

	o.opts.Runner.Run("history", func(ctx context.Context, t *task.Task) error {
		records := journal.History(o.opts.Journal.LoadAll(), query)
		t.Post(func() {
			d.SetStatus("")
			d.ShowHistory(records, query)
		})
		return nil
	}, func(err error) {
		d.SetStatus(err.Error())
	})
}

// JournalRemoved reports that the active journal file vanished from disk.
func (o *Orchestrator) JournalRemoved(path string) {
	if current, ok := o.opts.Paths.Get(); !ok || filepath.Clean(current) != filepath.Clean(path) {
		return
	}
	o.opts.Display.SetStatus(StatusJournalGone)
}
