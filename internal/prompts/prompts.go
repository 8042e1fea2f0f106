// Package prompts holds the instructions sent to the model, with optional YAML overrides.
package prompts

import (
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultQuestionsSystem instructs the model to ask follow-up questions.
	DefaultQuestionsSystem = "You are a journal coach. Ask pointed, helpful follow-up questions about the user's daily journal entry. " +
		"Keep a professional, journalistic tone. Number the questions like '1.', '2.', '3.'. " +
		"Ask only questions. No preamble. No summary."

	// DefaultSummarySystem instructs the model to return a title and summary as JSON.
	DefaultSummarySystem = "You are a journal editor. Produce a cleaned, readable journal summary and a concise title. " +
		"Return strictly in JSON with keys: title, summary."
)

// Profile is the set of system prompts used for one session.
type Profile struct {
	QuestionsSystem string `yaml:"questions_system"`
	SummarySystem   string `yaml:"summary_system"`
}

// Default returns the built-in profile.
func Default() *Profile {
	return &Profile{
		QuestionsSystem: DefaultQuestionsSystem,
		SummarySystem:   DefaultSummarySystem,
	}
}

// Load reads overrides from the YAML file at path on top of the defaults.
// If the file does not exist, Load returns Default() (not an error).
// Keys that are absent or blank keep their default.
func Load(path string) (*Profile, error) {
	p := Default()

	data, err := os.ReadFile(path) // #nosec G304 -- file lives in our data directory
	if err != nil {
		if os.IsNotExist(err) {
			return p, nil
		}
		return nil, err
	}

	var overrides Profile
	if err := yaml.Unmarshal(data, &overrides); err != nil {
		return nil, err
	}
	if s := strings.TrimSpace(overrides.QuestionsSystem); s != "" {
		p.QuestionsSystem = s
	}
	if s := strings.TrimSpace(overrides.SummarySystem); s != "" {
		p.SummarySystem = s
	}
	return p, nil
}

// QuestionsUser builds the user message for the follow-up questions call.
func QuestionsUser(entry string) string {
	return "Here is the journal entry:\n" + entry + "\n\nAsk numbered follow-up questions."
}

// SummaryUser builds the user message for the summary call.
func SummaryUser(localDate, entry, questions, answers string) string {
	var sb strings.Builder
	sb.WriteString("Summarize and clean the user's daily journal entry.\n")
	sb.WriteString("Include key accomplishments, lessons, and next-steps if implied.\n")
	sb.WriteString("Inputs:\n")
	sb.WriteString("- Local date: " + localDate + "\n")
	sb.WriteString("- Original entry:\n" + entry + "\n")
	sb.WriteString("- Follow-up questions:\n" + questions + "\n")
	sb.WriteString("- User answers:\n" + answers + "\n")
	sb.WriteString("Output JSON only.")
	return sb.String()
}
