package coach

import "github.com/thebtf/journalcoach/pkg/models"

// Display is the interactive surface. Every method is called on the interactive thread.
type Display interface {
	SetInput(text string)
	Input() string
	AppendOutput(fragment string)
	ClearOutput()
	SetStatus(text string)
	ShowProgress(on bool)
	Warn(message string)

	// PromptForPath asks the user for a journal file. Displays that cannot answer
	// synchronously start their own prompt and return false; the user then retries.
	PromptForPath() (string, bool)

	// ShowHistory presents saved records, newest first, filtered by query.
	ShowHistory(records []models.Record, query string)
}

// User-visible text.
const (
	StatusAsking        = "Calling the model for questions..."
	StatusQuestionsDone = "Questions ready. Type your answers in the input box, then summarize and save."
	StatusAskFailed     = "Error while asking questions."
	StatusSummarizing   = "Summarizing and saving..."
	StatusSaved         = "Saved."
	StatusSaveFailed    = "Error while saving. Summarize again to retry saving."
	StatusSummaryFailed = "Error while summarizing."
	StatusLoadingHist   = "Loading history..."
	StatusJournalGone   = "journal file removed; it will be recreated on next save"

	WarnRateLimited = "Please wait before making another request."
	WarnNoEntry     = "Please write your journal entry in the input box."
	WarnNoQuestions = "First write an entry and ask for questions."
	WarnNoAnswers   = "Please type your answers in the input box first."
	WarnNoPath      = "Choose a journal file first."
	WarnBusy        = "Still summarizing the previous answers."
)

// errorText is how failures are appended to the output pane.
func errorText(err error) string {
	return "\n\n[Error] " + err.Error()
}

// recordText is how a saved record is shown in the output pane.
func recordText(rec models.Record) string {
	return "Title: " + rec.DisplayTitle() + "\n\n" + rec.Summary + "\n"
}
