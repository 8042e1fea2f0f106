package tui

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thebtf/journalcoach/pkg/models"
)

type fakeController struct {
	asked      []string
	summarized []string
	chosen     []string
	queries    []string
	clears     int
}

func (c *fakeController) Ask(text string) error {
	c.asked = append(c.asked, text)
	return nil
}

func (c *fakeController) Summarize(answers string) error {
	c.summarized = append(c.summarized, answers)
	return nil
}

func (c *fakeController) Clear() { c.clears++ }

func (c *fakeController) ChoosePath(path string) error {
	c.chosen = append(c.chosen, path)
	return nil
}

func (c *fakeController) History(query string) {
	c.queries = append(c.queries, query)
}

func newTestModel(t *testing.T) (*Model, *fakeController) {
	t.Helper()
	m := New("/tmp/journal.jsonl")
	ctrl := &fakeController{}
	m.SetController(ctrl)
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	return m, ctrl
}

func typeText(m *Model, text string) {
	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(text)})
}

func TestModel_AskSendsEditorText(t *testing.T) {
	m, ctrl := newTestModel(t)

	typeText(m, "Shipped the release")
	m.Update(tea.KeyMsg{Type: tea.KeyCtrlQ})

	assert.Equal(t, []string{"Shipped the release"}, ctrl.asked)
}

func TestModel_SummarizeSendsEditorText(t *testing.T) {
	m, ctrl := newTestModel(t)

	m.SetInput("My answers")
	m.Update(tea.KeyMsg{Type: tea.KeyCtrlS})

	assert.Equal(t, []string{"My answers"}, ctrl.summarized)
}

func TestModel_ClearAndQuit(t *testing.T) {
	m, ctrl := newTestModel(t)

	m.Update(tea.KeyMsg{Type: tea.KeyCtrlL})
	assert.Equal(t, 1, ctrl.clears)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestModel_DisplayMethods(t *testing.T) {
	m, _ := newTestModel(t)

	m.AppendOutput("Hi, ")
	m.AppendOutput("there!")
	assert.Equal(t, "Hi, there!", m.outputText.String())
	assert.Contains(t, m.View(), "Hi, there!")

	m.ClearOutput()
	assert.Empty(t, m.outputText.String())

	m.SetInput("draft")
	assert.Equal(t, "draft", m.Input())

	m.Warn("Please wait before making another request.")
	assert.Contains(t, m.View(), "Please wait before making another request.")
	m.SetStatus("Saved.")
	assert.Empty(t, m.warning)
	assert.Contains(t, m.View(), "Saved.")

	m.ShowProgress(true)
	assert.True(t, m.busy)
	m.ShowProgress(false)
	assert.False(t, m.busy)
}

func TestModel_CallbackRunsInUpdate(t *testing.T) {
	m, _ := newTestModel(t)
	ran := false

	_, cmd := m.Update(callbackMsg{fn: func() { ran = true }})

	assert.True(t, ran)
	assert.Nil(t, cmd)
}

func TestModel_PathPrompt(t *testing.T) {
	m, ctrl := newTestModel(t)

	path, ok := m.PromptForPath()
	assert.False(t, ok)
	assert.Empty(t, path)
	assert.Equal(t, screenPath, m.screen)

	m.path.SetValue("/data/new.jsonl")
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})

	assert.Equal(t, []string{"/data/new.jsonl"}, ctrl.chosen)
	assert.Equal(t, screenCompose, m.screen)
	assert.Equal(t, "/data/new.jsonl", m.journal)

	m.Update(tea.KeyMsg{Type: tea.KeyCtrlO})
	assert.Equal(t, screenPath, m.screen)
	m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, screenCompose, m.screen)
	assert.Len(t, ctrl.chosen, 1)
}

func TestModel_History(t *testing.T) {
	m, ctrl := newTestModel(t)

	m.Update(tea.KeyMsg{Type: tea.KeyCtrlR})
	assert.Equal(t, []string{""}, ctrl.queries)

	records := []models.Record{
		{DateLocal: "2024-02-01", TimeUTC: "2024-02-01T09:00:00.000000Z", Title: "Newer", Summary: "Second."},
		{DateLocal: "2024-01-01", TimeUTC: "2024-01-01T09:00:00.000000Z", Title: "Older", Summary: "First."},
	}
	m.ShowHistory(records, "")
	assert.Equal(t, screenHistory, m.screen)

	view := m.View()
	assert.Contains(t, view, "History of /tmp/journal.jsonl (2 entries)")
	assert.Contains(t, view, "2024-02-01 - Newer")
	assert.Contains(t, view, "2024-01-01 - Older")
	assert.Contains(t, view, "Title: Newer")

	m.Update(tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, 1, m.selected)
	assert.Contains(t, m.View(), "Title: Older")

	m.Update(tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, 1, m.selected)

	typeText(m, "new")
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, []string{"", "new"}, ctrl.queries)

	m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, screenCompose, m.screen)
}

func TestModel_EmptyHistory(t *testing.T) {
	m, _ := newTestModel(t)

	m.ShowHistory(nil, "nothing")

	view := m.View()
	assert.Contains(t, view, "No matching entries.")
	assert.Contains(t, view, "History of /tmp/journal.jsonl (0 entries)")
	assert.Equal(t, 0, m.selected)
}

func TestProgramScheduler_DropsBeforeAttach(t *testing.T) {
	s := NewProgramScheduler()
	assert.NotPanics(t, func() {
		s.Schedule(func() {})
		s.Schedule(nil)
	})
}
