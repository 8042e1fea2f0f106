// Package tui is the terminal front end: an editor for the entry and answers, a
// streamed output pane, a status line and a searchable history view.
package tui

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog/log"

	"github.com/thebtf/journalcoach/pkg/models"
)

// Controller receives the user's intents. *coach.Orchestrator implements it.
type Controller interface {
	Ask(text string) error
	Summarize(answers string) error
	Clear()
	ChoosePath(path string) error
	History(query string)
}

type screen int

const (
	screenCompose screen = iota
	screenPath
	screenHistory
)

const (
	minOutputHeight = 5
	inputHeight     = 6
)

// Model is the bubbletea model. It also implements coach.Display; those methods
// are only ever called from inside Update.
type Model struct {
	ctrl Controller

	keys  keyMap
	theme theme
	help  help.Model

	input   textarea.Model
	output  viewport.Model
	spinner spinner.Model
	path    textinput.Model
	search  textinput.Model
	detail  viewport.Model

	outputText strings.Builder
	history    []models.Record
	status     string
	warning    string
	journal    string
	selected   int
	width      int
	height     int
	screen     screen
	busy       bool
}

// New creates the model. SetController must be called before the program starts.
func New(journalPath string) *Model {
	input := textarea.New()
	input.Placeholder = "Write today's entry, then ctrl+q. Answer the questions here, then ctrl+s."
	input.ShowLineNumbers = false
	input.CharLimit = 0
	input.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Points
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#05ffa1"))

	path := textinput.New()
	path.Prompt = "file: "
	path.Placeholder = "/path/to/journal.jsonl"
	path.SetValue(journalPath)

	search := textinput.New()
	search.Prompt = "search: "
	search.Placeholder = "date, title or text"

	output := viewport.New(0, 0)
	output.MouseWheelEnabled = true
	output.MouseWheelDelta = 3

	return &Model{
		keys:    defaultKeyMap(),
		theme:   newTheme(),
		help:    help.New(),
		input:   input,
		output:  output,
		spinner: sp,
		path:    path,
		search:  search,
		detail:  viewport.New(0, 0),
		journal: journalPath,
	}
}

// SetController wires the intents.
func (m *Model) SetController(ctrl Controller) {
	m.ctrl = ctrl
}

// Init starts the spinner.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(textarea.Blink, m.spinner.Tick)
}

// Update handles one message.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case callbackMsg:
		msg.fn()
		return m, nil

	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.layout()
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.MouseMsg:
		var cmd tea.Cmd
		if m.screen == screenHistory {
			m.detail, cmd = m.detail.Update(msg)
		} else {
			m.output, cmd = m.output.Update(msg)
		}
		return m, cmd

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.Quit) {
			return m, tea.Quit
		}
		switch m.screen {
		case screenPath:
			return m.updatePath(msg)
		case screenHistory:
			return m.updateHistory(msg)
		default:
			return m.updateCompose(msg)
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) updateCompose(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Ask):
		m.warning = ""
		m.report(m.ctrl.Ask(m.input.Value()))
		return m, nil
	case key.Matches(msg, m.keys.Summarize):
		m.warning = ""
		m.report(m.ctrl.Summarize(m.input.Value()))
		return m, nil
	case key.Matches(msg, m.keys.Choose):
		m.openPathPrompt()
		return m, textinput.Blink
	case key.Matches(msg, m.keys.Clear):
		m.warning = ""
		m.ctrl.Clear()
		return m, nil
	case key.Matches(msg, m.keys.History):
		m.ctrl.History(m.search.Value())
		return m, nil
	case key.Matches(msg, m.keys.PageUp), key.Matches(msg, m.keys.PageDown):
		var cmd tea.Cmd
		m.output, cmd = m.output.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) updatePath(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Back):
		m.closeOverlay()
		return m, nil
	case key.Matches(msg, m.keys.Submit):
		value := strings.TrimSpace(m.path.Value())
		m.closeOverlay()
		m.report(m.ctrl.ChoosePath(value))
		if value != "" {
			m.journal = value
		}
		return m, nil
	}
	var cmd tea.Cmd
	m.path, cmd = m.path.Update(msg)
	return m, cmd
}

func (m *Model) updateHistory(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Back):
		m.closeOverlay()
		return m, nil
	case key.Matches(msg, m.keys.Submit):
		m.ctrl.History(m.search.Value())
		return m, nil
	case key.Matches(msg, m.keys.Up):
		m.selectRecord(m.selected - 1)
		return m, nil
	case key.Matches(msg, m.keys.Down):
		m.selectRecord(m.selected + 1)
		return m, nil
	case key.Matches(msg, m.keys.PageUp), key.Matches(msg, m.keys.PageDown):
		var cmd tea.Cmd
		m.detail, cmd = m.detail.Update(msg)
		return m, cmd
	}
	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	return m, cmd
}

// report logs intent errors; the orchestrator has already warned the user.
func (m *Model) report(err error) {
	if err != nil {
		log.Debug().Err(err).Msg("Intent rejected")
	}
}

func (m *Model) openPathPrompt() {
	m.screen = screenPath
	m.input.Blur()
	m.search.Blur()
	m.path.SetValue(m.journal)
	m.path.CursorEnd()
	m.path.Focus()
}

func (m *Model) closeOverlay() {
	m.screen = screenCompose
	m.path.Blur()
	m.search.Blur()
	m.input.Focus()
}

func (m *Model) selectRecord(i int) {
	if len(m.history) == 0 {
		m.selected = 0
		m.detail.SetContent(m.theme.muted.Render("No saved entries."))
		return
	}
	m.selected = max(0, min(i, len(m.history)-1))
	m.detail.SetContent(m.wrap(m.history[m.selected].Detail(), m.detail.Width))
	m.detail.GotoTop()
}

func (m *Model) layout() {
	inner := max(20, m.width-4)
	m.input.SetWidth(inner)
	m.input.SetHeight(inputHeight)
	m.help.Width = m.width
	m.path.Width = inner - len(m.path.Prompt)
	m.search.Width = inner - len(m.search.Prompt)

	// header, two panel borders, status and help lines
	chrome := 1 + 2 + 2 + 1 + 1
	m.output.Width = inner
	m.output.Height = max(minOutputHeight, m.height-chrome-inputHeight)
	m.output.SetContent(m.wrap(m.outputText.String(), m.output.Width))

	m.detail.Width = inner
	m.detail.Height = max(minOutputHeight, (m.height-chrome)/2)
	if m.screen == screenHistory {
		m.selectRecord(m.selected)
	}
}

func (m *Model) wrap(text string, width int) string {
	if width <= 0 {
		return text
	}
	return lipgloss.NewStyle().Width(width).Render(text)
}

// SetInput replaces the editor contents.
func (m *Model) SetInput(text string) {
	m.input.SetValue(text)
}

// Input returns the editor contents.
func (m *Model) Input() string {
	return m.input.Value()
}

// AppendOutput adds a fragment to the output pane and keeps it scrolled to the end.
func (m *Model) AppendOutput(fragment string) {
	m.outputText.WriteString(fragment)
	m.output.SetContent(m.wrap(m.outputText.String(), m.output.Width))
	m.output.GotoBottom()
}

// ClearOutput empties the output pane.
func (m *Model) ClearOutput() {
	m.outputText.Reset()
	m.output.SetContent("")
	m.output.GotoTop()
}

// SetStatus replaces the status line and dismisses any warning.
func (m *Model) SetStatus(text string) {
	m.status = text
	m.warning = ""
}

// ShowProgress toggles the spinner.
func (m *Model) ShowProgress(on bool) {
	m.busy = on
}

// Warn shows a warning until the next status change or action.
func (m *Model) Warn(message string) {
	m.warning = message
}

// PromptForPath opens the file prompt. The answer arrives later through
// ChoosePath, so this always reports that no path was chosen yet.
func (m *Model) PromptForPath() (string, bool) {
	m.openPathPrompt()
	return "", false
}

// ShowHistory switches to the history screen with records.
func (m *Model) ShowHistory(records []models.Record, query string) {
	m.history = records
	m.screen = screenHistory
	m.input.Blur()
	m.path.Blur()
	m.search.SetValue(query)
	m.search.CursorEnd()
	m.search.Focus()
	m.selectRecord(0)
}

// View renders the current screen.
func (m *Model) View() string {
	var sections []string
	sections = append(sections, m.theme.header.Render("journalcoach")+m.theme.muted.Render(m.fileLabel()))

	switch m.screen {
	case screenHistory:
		sections = append(sections, m.historyView())
	case screenPath:
		sections = append(sections, m.theme.panel.Render(m.output.View()))
		sections = append(sections, m.theme.panel.Render(m.theme.title.Render("Journal file")+"\n"+m.path.View()))
	default:
		sections = append(sections, m.theme.panel.Render(m.output.View()))
		sections = append(sections, m.theme.panel.Render(m.input.View()))
	}

	sections = append(sections, m.statusLine())
	sections = append(sections, m.help.View(m.helpKeys()))
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m *Model) fileLabel() string {
	if m.journal == "" {
		return "  no journal file (ctrl+o)"
	}
	return "  " + m.journal
}

func (m *Model) statusLine() string {
	var b strings.Builder
	if m.busy {
		b.WriteString(m.spinner.View())
		b.WriteString(" ")
	}
	if m.warning != "" {
		b.WriteString(m.theme.warning.Render(m.warning))
	} else {
		b.WriteString(m.theme.status.Render(m.status))
	}
	return b.String()
}

func (m *Model) historyView() string {
	var list strings.Builder
	list.WriteString(m.theme.title.Render(m.historyTitle()))
	list.WriteString("\n")
	list.WriteString(m.search.View())
	list.WriteString("\n\n")
	if len(m.history) == 0 {
		list.WriteString(m.theme.muted.Render("No matching entries."))
	}

	// Keep the selection visible in a window the height of the detail pane.
	height := max(1, m.detail.Height)
	start := 0
	if m.selected >= height {
		start = m.selected - height + 1
	}
	end := min(len(m.history), start+height)
	for i := start; i < end; i++ {
		label := m.history[i].Label()
		if i == m.selected {
			list.WriteString(m.theme.selected.Render("> " + label))
		} else {
			list.WriteString(m.theme.item.Render("  " + label))
		}
		if i < end-1 {
			list.WriteString("\n")
		}
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		m.theme.panel.Render(list.String()),
		m.theme.panel.Render(m.detail.View()),
	)
}

func (m *Model) historyTitle() string {
	file := m.journal
	if file == "" {
		file = "no journal file"
	}
	if len(m.history) == 1 {
		return "History of " + file + " (1 entry)"
	}
	return "History of " + file + " (" + strconv.Itoa(len(m.history)) + " entries)"
}

func (m *Model) helpKeys() help.KeyMap {
	switch m.screen {
	case screenHistory:
		return historyHelp{k: m.keys}
	case screenPath:
		return pathHelp{k: m.keys}
	default:
		return mainHelp{k: m.keys}
	}
}
