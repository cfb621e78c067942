// Package quiz holds the question model, the session state machine and the
// attempt history.
package quiz

// Question is one generated multiple-choice question. Immutable once
// generated; CorrectAnswer is a zero-based index into Options.
type Question struct {
	ID            string   `json:"id"`
	Text          string   `json:"text"`
	Options       []string `json:"options"`
	CorrectAnswer int      `json:"correctAnswer"`
	Explanation   string   `json:"explanation"`
	Topic         string   `json:"topic"`
}
