// Package watcher reports when the active journal file disappears from disk.
package watcher

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
)

// DefaultDebounce is how long a removal must stand before it is reported.
// Editors and sync tools often remove and recreate a file in quick succession.
const DefaultDebounce = 200 * time.Millisecond

// Watcher calls onRemoved when the journal file is removed or renamed away.
// It watches the parent directory since fsnotify cannot watch a missing file.
type Watcher struct {
	fsw       *fsnotify.Watcher
	onRemoved func(path string)
	done      chan struct{}
	timer     *time.Timer
	journal   string
	parent    string
	debounce  time.Duration
	mu        sync.Mutex
	stopOnce  sync.Once
}

// New creates a watcher for journalPath. Call Start to begin watching.
func New(journalPath string, onRemoved func(path string)) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	journal := filepath.Clean(journalPath)
	return &Watcher{
		fsw:       fsw,
		onRemoved: onRemoved,
		done:      make(chan struct{}),
		journal:   journal,
		parent:    filepath.Dir(journal),
		debounce:  DefaultDebounce,
	}, nil
}

// Path returns the watched journal path.
func (w *Watcher) Path() string {
	return w.journal
}

// Start adds the parent directory watch and starts the event loop.
// A missing parent directory is not an error; nothing is reported until it exists.
func (w *Watcher) Start() error {
	if _, err := os.Stat(w.parent); err == nil {
		if err := w.fsw.Add(w.parent); err != nil {
			return err
		}
	} else {
		log.Debug().Str("path", w.parent).Msg("Journal directory missing, not watching yet")
	}
	go w.loop()
	return nil
}

// Stop ends the event loop and releases the fsnotify handle. Safe to call twice.
func (w *Watcher) Stop() error {
	var err error
	w.stopOnce.Do(func() {
		close(w.done)
		err = w.fsw.Close()
		w.mu.Lock()
		if w.timer != nil {
			w.timer.Stop()
		}
		w.mu.Unlock()
	})
	return err
}

func (w *Watcher) loop() {
	for {
		select {
		case <-w.done:
			return

		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handle(event)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			log.Warn().Err(err).Str("path", w.journal).Msg("Journal watcher error")
		}
	}
}

func (w *Watcher) handle(event fsnotify.Event) {
	name := filepath.Clean(event.Name)
	if name != w.journal {
		return
	}

	switch {
	case event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename):
		log.Info().Str("path", w.journal).Msg("Journal file removed")
		w.schedule()
	case event.Has(fsnotify.Create):
		// Recreated before the debounce fired: nothing to report.
		w.mu.Lock()
		if w.timer != nil {
			w.timer.Stop()
			w.timer = nil
		}
		w.mu.Unlock()
	}
}

func (w *Watcher) schedule() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.fire)
}

func (w *Watcher) fire() {
	select {
	case <-w.done:
		return
	default:
	}
	if _, err := os.Stat(w.journal); err == nil {
		return
	}
	if w.onRemoved != nil {
		w.onRemoved(w.journal)
	}
}
