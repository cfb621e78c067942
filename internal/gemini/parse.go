package gemini

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/mindprep/mindprep/internal/quiz"
)

// The model wraps its JSON in a markdown fence; only the first fenced block
// is considered.
var fencedJSON = regexp.MustCompile("(?s)```json\\n(.*?)\\n```")

// questionsSchema pins the shape of the fenced payload. The model is asked
// for 4 options but anything with 2+ is scorable, so that is the floor.
const questionsSchema = `{
  "type": "object",
  "required": ["questions"],
  "properties": {
    "questions": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["text", "options", "correctAnswer", "explanation"],
        "properties": {
          "text": {"type": "string", "minLength": 1},
          "options": {"type": "array", "minItems": 2, "items": {"type": "string"}},
          "correctAnswer": {"type": "integer", "minimum": 0},
          "explanation": {"type": "string"},
          "topic": {"type": "string"}
        }
      }
    }
  }
}`

var compiledSchema = gojsonschema.NewStringLoader(questionsSchema)

// extractFencedJSON returns the contents of the first ```json fenced block
// in text.
func extractFencedJSON(text string) (string, error) {
	m := fencedJSON.FindStringSubmatch(text)
	if m == nil {
		return "", fmt.Errorf("%w: no fenced JSON block in response text", ErrBadResponse)
	}
	return m[1], nil
}

// parseQuestions turns the model's free-text reply into a validated question
// list for topic. Identifiers supplied by the service are discarded in
// favour of deterministic "{topic}-{index}" ones.
func parseQuestions(text, topic string) ([]quiz.Question, error) {
	raw, err := extractFencedJSON(text)
	if err != nil {
		return nil, err
	}

	if !json.Valid([]byte(raw)) {
		return nil, fmt.Errorf("%w: fenced block is not valid JSON", ErrBadResponse)
	}

	result, err := gojsonschema.Validate(compiledSchema, gojsonschema.NewStringLoader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadResponse, err)
	}
	if !result.Valid() {
		issues := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			issues = append(issues, e.String())
		}
		return nil, fmt.Errorf("%w: %s", ErrBadResponse, strings.Join(issues, "; "))
	}

	var payload struct {
		Questions []quiz.Question `json:"questions"`
	}
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadResponse, err)
	}

	questions := payload.Questions
	for i := range questions {
		// A correctAnswer pointing outside its options would corrupt
		// scoring later; reject the whole batch.
		if questions[i].CorrectAnswer >= len(questions[i].Options) {
			return nil, fmt.Errorf("%w: question %d: correctAnswer %d out of range for %d options",
				ErrBadResponse, i, questions[i].CorrectAnswer, len(questions[i].Options))
		}
		questions[i].ID = fmt.Sprintf("%s-%d", topic, i)
	}
	return questions, nil
}
