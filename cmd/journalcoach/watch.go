package main

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/thebtf/journalcoach/internal/watcher"
)

// journalWatch keeps one watcher on whichever journal file is active.
type journalWatch struct {
	onRemoved func(path string)
	current   *watcher.Watcher
	mu        sync.Mutex
}

func newJournalWatch(onRemoved func(path string)) *journalWatch {
	return &journalWatch{onRemoved: onRemoved}
}

// Restart replaces the watcher with one on path.
func (j *journalWatch) Restart(path string) {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.current != nil {
		if j.current.Path() == path {
			return
		}
		_ = j.current.Stop()
		j.current = nil
	}

	w, err := watcher.New(path, j.onRemoved)
	if err != nil {
		log.Warn().Err(err).Str("path", path).Msg("Failed to create journal watcher")
		return
	}
	if err := w.Start(); err != nil {
		_ = w.Stop()
		log.Warn().Err(err).Str("path", path).Msg("Failed to start journal watcher")
		return
	}
	j.current = w
	log.Debug().Str("path", path).Msg("Watching journal file")
}

// Stop ends the current watcher.
func (j *journalWatch) Stop() {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.current != nil {
		_ = j.current.Stop()
		j.current = nil
	}
}
