// Package models contains domain models for journalcoach.
package models

import (
	"strings"
	"time"
)

const (
	// DateLayout is the layout of Record.DateLocal.
	DateLayout = "2006-01-02"

	// TimeLayout is the layout of Record.TimeUTC. Fixed-width fractional seconds
	// keep lexical and chronological order identical.
	TimeLayout = "2006-01-02T15:04:05.000000Z07:00"
)

// UntitledTitle is used when the model does not provide a title.
const UntitledTitle = "Untitled"

// Record is one saved journal entry. Records are immutable once written.
type Record struct {
	DateLocal string `json:"date_local"`
	TimeUTC   string `json:"time_gmt_iso"`
	Title     string `json:"title"`
	Summary   string `json:"summary"`
}

// NewRecord builds a record stamped with the local calendar date and the UTC instant of now.
func NewRecord(title, summary string, now time.Time) Record {
	return Record{
		DateLocal: now.Local().Format(DateLayout),
		TimeUTC:   now.UTC().Format(TimeLayout),
		Title:     title,
		Summary:   summary,
	}
}

// SortKey orders records for display: the UTC timestamp when present, else the local date.
func (r Record) SortKey() string {
	if r.TimeUTC != "" {
		return r.TimeUTC
	}
	return r.DateLocal
}

// DisplayTitle returns the title, or UntitledTitle when empty.
func (r Record) DisplayTitle() string {
	if strings.TrimSpace(r.Title) == "" {
		return UntitledTitle
	}
	return r.Title
}

// Label is the one-line form used in history lists.
func (r Record) Label() string {
	return r.DateLocal + " - " + r.DisplayTitle()
}

// Detail is the multi-line form used when a record is selected.
func (r Record) Detail() string {
	var sb strings.Builder
	sb.WriteString("Date (local): " + r.DateLocal + "\n")
	sb.WriteString("Time (UTC): " + r.TimeUTC + "\n")
	sb.WriteString("Title: " + r.DisplayTitle() + "\n\n")
	sb.WriteString(r.Summary)
	return sb.String()
}

// Matches reports whether query (already lower-cased) occurs in any field.
func (r Record) Matches(query string) bool {
	if query == "" {
		return true
	}
	hay := strings.ToLower(strings.Join([]string{r.DateLocal, r.TimeUTC, r.Title, r.Summary}, " "))
	return strings.Contains(hay, query)
}
