package session

import (
	"context"
	"errors"

	"github.com/mind-engage/review-autograder/internal/grading"
)

var ErrNotFound = errors.New("session not found")

type Status string

const (
	StatusOpen   Status = "open"
	StatusGraded Status = "graded"
)

// Session is one student's answer sheet. Answers accumulate across sections
// and are only read when grading.
type Session struct {
	ID             string          `json:"id"`
	UserID         string          `json:"user_id"`
	Status         Status          `json:"status"`
	Answers        grading.Answers `json:"answers"`
	LastSection    string          `json:"last_section,omitempty"`
	LastPercentage float64         `json:"last_percentage"`
	CreatedAt      int64           `json:"created_at"`
	UpdatedAt      int64           `json:"updated_at"`
}

type ListOpts struct {
	UserID string // filter by student; empty lists all
	Limit  int
	Offset int
}

type Store interface {
	Create(ctx context.Context, userID string) (Session, error)
	Get(ctx context.Context, id string) (Session, error)
	List(ctx context.Context, opts ListOpts) ([]Session, error)
	// SaveAnswers merges answers into the session and reopens it.
	SaveAnswers(ctx context.Context, id string, answers grading.Answers) (Session, error)
	ClearAnswers(ctx context.Context, id string) (Session, error)
	RecordGrade(ctx context.Context, id, sectionID string, sum grading.Summary) (Session, error)
}

func copyAnswers(in grading.Answers) grading.Answers {
	out := make(grading.Answers, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func clampList(opts ListOpts) (limit, offset int) {
	limit, offset = opts.Limit, opts.Offset
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
