package tui

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog/log"
)

// callbackMsg carries a marshaled callback into Update.
type callbackMsg struct {
	fn func()
}

// ProgramScheduler delivers callbacks to a running program as messages, so they run
// inside Update on the program's event loop. It implements task.Scheduler.
type ProgramScheduler struct {
	program *tea.Program
	mu      sync.RWMutex
}

// NewProgramScheduler returns a scheduler with no program attached yet.
func NewProgramScheduler() *ProgramScheduler {
	return &ProgramScheduler{}
}

// Attach sets the program callbacks are sent to.
func (s *ProgramScheduler) Attach(p *tea.Program) {
	s.mu.Lock()
	s.program = p
	s.mu.Unlock()
}

// Schedule sends fn to the program. Messages from one goroutine arrive in order.
// Send returns without delivering once the program has exited.
func (s *ProgramScheduler) Schedule(fn func()) {
	if fn == nil {
		return
	}
	s.mu.RLock()
	p := s.program
	s.mu.RUnlock()

	if p == nil {
		log.Warn().Msg("Dropping callback scheduled before the program started")
		return
	}
	p.Send(callbackMsg{fn: fn})
}
