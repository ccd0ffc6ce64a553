package grading

import (
	"fmt"
	"strings"
)

// AnswerType selects the grading strategy for a question.
type AnswerType string

const (
	Numeric        AnswerType = "numeric"
	Text           AnswerType = "text"
	MultipleChoice AnswerType = "multiple_choice"
)

// ParseAnswerType maps the answer_type column of an answer key to an AnswerType.
// An empty value is treated as text.
func ParseAnswerType(s string) (AnswerType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "numeric", "number":
		return Numeric, nil
	case "", "text", "string", "short":
		return Text, nil
	case "multiple_choice", "multiple-choice", "mc", "mcq", "choice":
		return MultipleChoice, nil
	default:
		return "", fmt.Errorf("unknown answer type %q", s)
	}
}

// Choice is one labelled option of a multiple-choice question.
type Choice struct {
	Label string `json:"label"`
	Text  string `json:"text"`
}

// Question is a read-only answer key row.
type Question struct {
	ID            string     `json:"id"`
	Prompt        string     `json:"prompt"`
	Type          AnswerType `json:"answer_type"`
	CorrectAnswer string     `json:"correct_answer,omitempty"`
	Alternatives  string     `json:"alternatives,omitempty"` // pipe separated
	Options       []Choice   `json:"options,omitempty"`
	Points        int        `json:"points"`
}

// Answers maps question id -> raw submitted value (string, number or nil).
type Answers map[string]any

// Result is the outcome of grading a single question.
type Result struct {
	QuestionID     string   `json:"question_id"`
	Prompt         string   `json:"prompt,omitempty"`
	Correct        bool     `json:"is_correct"`
	Answered       bool     `json:"answered"`
	PointsAwarded  int      `json:"points_awarded"`
	PointsPossible int      `json:"points_possible"`
	StudentValue   any      `json:"student_value"`
	CorrectValue   string   `json:"correct_value,omitempty"`
	Feedback       []string `json:"feedback,omitempty"`
}

// Summary aggregates the results of one grading request.
type Summary struct {
	Earned     int      `json:"earned_points"`
	Total      int      `json:"total_points"`
	Percentage float64  `json:"percentage"`
	Correct    int      `json:"correct_count"`
	Count      int      `json:"question_count"`
	Results    []Result `json:"per_question"`
}

// Band returns the score band for the summary's percentage.
func (s Summary) Band() Band { return BandFor(s.Percentage) }

// Redact returns a copy of s with every correct value cleared.
func (s Summary) Redact() Summary {
	out := s
	out.Results = make([]Result, len(s.Results))
	for i, r := range s.Results {
		r.CorrectValue = ""
		out.Results[i] = r
	}
	return out
}

// RevealIncorrect returns a copy of s that keeps correct values only on
// questions the student got wrong.
func (s Summary) RevealIncorrect() Summary {
	out := s
	out.Results = make([]Result, len(s.Results))
	for i, r := range s.Results {
		if r.Correct {
			r.CorrectValue = ""
		}
		out.Results[i] = r
	}
	return out
}
