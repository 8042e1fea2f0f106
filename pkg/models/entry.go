package models

// Entry is the in-memory state of one ask/answer/summarize cycle.
// Empty strings mean "not yet available".
type Entry struct {
	// Pending holds a summarized record whose append failed, so a retried save
	// with unchanged answers skips the model call.
	Pending *Record

	OriginalText      string
	FollowUpQuestions string
	UserAnswers       string
}

// HasQuestions reports whether follow-up questions have been received.
func (e *Entry) HasQuestions() bool {
	return e != nil && e.OriginalText != "" && e.FollowUpQuestions != ""
}

// PendingFor returns the pending record if it was produced from the given answers.
func (e *Entry) PendingFor(answers string) (Record, bool) {
	if e == nil || e.Pending == nil || e.UserAnswers != answers {
		return Record{}, false
	}
	return *e.Pending, true
}
