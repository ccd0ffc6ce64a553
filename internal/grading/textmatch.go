package grading

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// AlternativeSeparator splits the alternative_answers column.
const AlternativeSeparator = "|"

// GradeText compares case-folded, trimmed text against the primary answer and
// each pipe-separated alternative. A blank answer is never correct.
func GradeText(student any, correct, alternatives string) bool {
	s := normalize(toText(student))
	if s == "" {
		return false
	}
	if s == normalize(correct) {
		return true
	}
	if alternatives == "" {
		return false
	}
	for _, alt := range strings.Split(alternatives, AlternativeSeparator) {
		if s == normalize(alt) {
			return true
		}
	}
	return false
}

// GradeMultipleChoice is exact label equality. Labels come from a closed set
// so no normalization is applied.
func GradeMultipleChoice(student any, correct string) bool {
	s := toText(student)
	if s == "" {
		return false
	}
	return s == correct
}

type textStrategy struct{}

func (textStrategy) Grade(q Question, response any) Result {
	res := newResult(q, response)
	if res.Answered && GradeText(response, q.CorrectAnswer, q.Alternatives) {
		res.award()
	}
	return res
}

type choiceStrategy struct{}

func (choiceStrategy) Grade(q Question, response any) Result {
	res := newResult(q, response)
	if !res.Answered {
		return res
	}
	if GradeMultipleChoice(response, q.CorrectAnswer) {
		res.award()
	} else if len(q.Options) > 0 && !hasChoice(q.Options, toText(response)) {
		res.Feedback = append(res.Feedback, "not one of the listed options")
	}
	return res
}

func hasChoice(opts []Choice, label string) bool {
	for _, o := range opts {
		if o.Label == label {
			return true
		}
	}
	return false
}

// normalize casefolds and trims surrounding whitespace.
func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func toText(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case json.Number:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	default:
		return fmt.Sprint(t)
	}
}
