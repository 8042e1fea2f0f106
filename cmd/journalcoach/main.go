// Package main provides the interactive journalcoach terminal app.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"golang.org/x/sync/errgroup"

	"github.com/thebtf/journalcoach/internal/coach"
	"github.com/thebtf/journalcoach/internal/config"
	"github.com/thebtf/journalcoach/internal/journal"
	"github.com/thebtf/journalcoach/internal/llm"
	"github.com/thebtf/journalcoach/internal/prompts"
	"github.com/thebtf/journalcoach/internal/ratelimit"
	"github.com/thebtf/journalcoach/internal/retry"
	"github.com/thebtf/journalcoach/internal/task"
	"github.com/thebtf/journalcoach/internal/tui"
)

// Version is set at build time via ldflags.
var Version = "dev"

func main() {
	debug := flag.Bool("debug", false, "Enable debug logging")
	journalPath := flag.String("journal", "", "Journal file to use (remembered for next time)")
	showVersion := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println("journalcoach", Version)
		return
	}

	if err := run(*debug, *journalPath); err != nil {
		fmt.Fprintf(os.Stderr, "journalcoach: %v\n", err)
		os.Exit(1)
	}
}

func run(debug bool, journalFlag string) error {
	if _, err := config.LoadDotEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "journalcoach: ignoring unreadable .env: %v\n", err)
	}
	if err := config.EnsureAll(); err != nil {
		return fmt.Errorf("prepare data directory: %w", err)
	}

	// The terminal belongs to the UI, so logs go to a file.
	logFile, err := os.OpenFile(config.LogPath(), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer logFile.Close()

	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: logFile, NoColor: true})

	cfg, err := config.Load()
	if err != nil {
		log.Warn().Err(err).Msg("Failed to load config, using defaults")
		cfg = config.Default()
	}

	paths := config.LoadPathStore(config.PathStorePath())
	if journalFlag != "" {
		if err := paths.Set(journalFlag); err != nil {
			log.Warn().Err(err).Str("path", journalFlag).Msg("Could not remember journal path")
		}
	}

	profile, err := prompts.Load(config.PromptsPath())
	if err != nil {
		log.Warn().Err(err).Str("path", config.PromptsPath()).Msg("Invalid prompt profile, using built-in prompts")
		profile = prompts.Default()
	}

	provider, err := llm.New(cfg, &http.Client{})
	if err != nil {
		return err
	}

	metrics, err := coach.NewMetrics(otel.Meter("github.com/thebtf/journalcoach"))
	if err != nil {
		return fmt.Errorf("register metrics: %w", err)
	}

	current, _ := paths.Get()
	model := tui.New(current)
	sched := tui.NewProgramScheduler()
	runner := task.NewRunner(sched, nil)
	defer runner.Close()

	var orch *coach.Orchestrator
	watch := newJournalWatch(func(path string) {
		sched.Schedule(func() { orch.JournalRemoved(path) })
	})
	defer watch.Stop()

	orch = coach.New(coach.Options{
		Model:         llm.NewCoach(provider, profile),
		Journal:       journal.NewStore(paths),
		Paths:         paths,
		Limiter:       ratelimit.New(cfg.RateLimitPerMinute),
		Runner:        runner,
		Display:       model,
		Metrics:       metrics,
		OnPathChanged: watch.Restart,
		Retry: retry.Options{
			Attempts:       cfg.RetryAttempts,
			BaseDelay:      cfg.RetryBaseDelay(),
			AttemptTimeout: cfg.AttemptTimeout(),
		},
	})
	model.SetController(orch)
	if current != "" {
		watch.Restart(current)
	}

	log.Info().
		Str("version", Version).
		Str("provider", provider.Name()).
		Str("model", cfg.Model).
		Int("ratePerMinute", cfg.RateLimitPerMinute).
		Bool("journalSet", current != "").
		Msg("Starting journalcoach")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithMouseCellMotion(), tea.WithContext(ctx))
	sched.Attach(program)

	g, gctx := errgroup.WithContext(ctx)
	done := make(chan struct{})
	g.Go(func() error {
		defer close(done)
		_, err := program.Run()
		if err != nil && ctx.Err() != nil {
			// Interrupted by a signal.
			return nil
		}
		return err
	})
	g.Go(func() error {
		select {
		case <-gctx.Done():
			program.Quit()
		case <-done:
		}
		return nil
	})

	err = g.Wait()
	log.Info().Msg("Shutting down journalcoach")
	return err
}
