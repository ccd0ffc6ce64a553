package grading

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// DefaultTolerance absorbs rounding noise from manual entry.
const DefaultTolerance = 0.01

// GradeNumeric reports whether student and correct both parse as real numbers
// whose absolute difference is strictly less than tolerance. Any parse failure
// grades as incorrect.
func GradeNumeric(student any, correct string, tolerance float64) bool {
	cv, ok := parseFloat(correct)
	if !ok {
		return false
	}
	sv, ok := toFloat(student)
	if !ok {
		return false
	}
	return math.Abs(sv-cv) < tolerance
}

type numericStrategy struct{ tolerance float64 }

func (s numericStrategy) Grade(q Question, response any) Result {
	res := newResult(q, response)
	if !res.Answered {
		return res
	}
	if _, ok := parseFloat(q.CorrectAnswer); !ok {
		res.Feedback = append(res.Feedback, "answer key value is not numeric")
		return res
	}
	if _, ok := toFloat(response); !ok {
		res.Feedback = append(res.Feedback, "not a number")
		return res
	}
	if GradeNumeric(response, q.CorrectAnswer, s.tolerance) {
		res.award()
	}
	return res
}

func toFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int8:
		return float64(t), true
	case int16:
		return float64(t), true
	case int32:
		return float64(t), true
	case int64:
		return float64(t), true
	case uint:
		return float64(t), true
	case uint8:
		return float64(t), true
	case uint16:
		return float64(t), true
	case uint32:
		return float64(t), true
	case uint64:
		return float64(t), true
	case json.Number:
		return parseFloat(t.String())
	case string:
		return parseFloat(t)
	default:
		return 0, false
	}
}

func parseFloat(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
