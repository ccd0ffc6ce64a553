package grading

import (
	"math"
	"strings"
)

// Strategy grades a single question. Implementations must be total: every
// response, however malformed, yields a Result.
type Strategy interface {
	Grade(q Question, response any) Result
}

// Engine routes each question to the Strategy for its AnswerType and
// aggregates the results. It holds no per-request state and is safe for
// concurrent use.
type Engine struct {
	strategies map[AnswerType]Strategy
}

type Option func(*config)

type config struct {
	Tolerance float64
}

// WithTolerance sets the numeric tolerance. Non-positive or NaN values are
// ignored.
func WithTolerance(t float64) Option {
	return func(c *config) {
		if t > 0 && !math.IsNaN(t) {
			c.Tolerance = t
		}
	}
}

// NewEngine installs the built-in strategies.
func NewEngine(opts ...Option) *Engine {
	cfg := &config{Tolerance: DefaultTolerance}
	for _, o := range opts {
		o(cfg)
	}
	return &Engine{
		strategies: map[AnswerType]Strategy{
			Numeric:        numericStrategy{tolerance: cfg.Tolerance},
			Text:           textStrategy{},
			MultipleChoice: choiceStrategy{},
		},
	}
}

var defaultEngine = NewEngine()

// GradeAll grades with the default tolerance.
func GradeAll(questions []Question, answers Answers) Summary {
	return defaultEngine.GradeAll(questions, answers)
}

// Grade grades one question against a raw response. A nil response means
// the question was not answered.
func (e *Engine) Grade(q Question, response any) Result {
	s, ok := e.strategies[q.Type]
	if !ok {
		res := newResult(q, response)
		res.Feedback = append(res.Feedback, "no strategy available")
		return res
	}
	return s.Grade(q, response)
}

// GradeAll grades questions in order. Unanswered questions count toward the
// total and never earn points. answers is only read.
func (e *Engine) GradeAll(questions []Question, answers Answers) Summary {
	sum := Summary{Results: make([]Result, 0, len(questions))}
	for _, q := range questions {
		res := e.Grade(q, answers[q.ID])
		sum.Total += res.PointsPossible
		if res.Correct {
			sum.Earned += res.PointsAwarded
			sum.Correct++
		}
		sum.Results = append(sum.Results, res)
	}
	sum.Count = len(sum.Results)
	sum.Percentage = Percentage(sum.Earned, sum.Total)
	return sum
}

// Percentage is earned/total*100, or 0 when total is not positive.
func Percentage(earned, total int) float64 {
	if total <= 0 {
		return 0
	}
	return float64(earned) / float64(total) * 100
}

func newResult(q Question, response any) Result {
	pts := q.Points
	if pts < 0 {
		pts = 0
	}
	return Result{
		QuestionID:     q.ID,
		Prompt:         q.Prompt,
		Answered:       answered(response),
		PointsPossible: pts,
		StudentValue:   response,
		CorrectValue:   q.CorrectAnswer,
	}
}

func (r *Result) award() {
	r.Correct = true
	r.PointsAwarded = r.PointsPossible
}

func answered(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case string:
		return strings.TrimSpace(t) != ""
	default:
		return true
	}
}
