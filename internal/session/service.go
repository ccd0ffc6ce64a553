package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/mind-engage/review-autograder/internal/answerkey"
	"github.com/mind-engage/review-autograder/internal/grading"
	"github.com/mind-engage/review-autograder/internal/sections"
)

var ErrNoAnswerKey = errors.New("no answer key loaded")

// Report is what a grading request returns to the caller.
type Report struct {
	SessionID string           `json:"session_id"`
	Section   sections.Section `json:"section"`
	Summary   grading.Summary  `json:"summary"`
	Band      grading.Band     `json:"band"`
	Message   string           `json:"message"`
	// Missing lists section problem ids absent from the answer key; they are
	// not graded.
	Missing []string `json:"missing,omitempty"`
}

// Service ties the session store to the active answer key and catalogue.
type Service struct {
	Store    Store
	Keys     *answerkey.Holder
	Sections *sections.Catalogue
	Engine   *grading.Engine
}

// Questions returns the section's questions in catalogue order.
func (s *Service) Questions(sectionID string) (sections.Section, []grading.Question, []string, error) {
	sec, err := s.Sections.Get(sectionID)
	if err != nil {
		return sections.Section{}, nil, nil, err
	}
	key := s.Keys.Current()
	if key == nil {
		return sec, nil, nil, ErrNoAnswerKey
	}
	qs, missing := key.Select(sec.ProblemIDs)
	return sec, qs, missing, nil
}

// Grade grades one section of a session against the active key. Correct
// answers are withheld unless reveal is set, and even then only shown for
// incorrect results.
func (s *Service) Grade(ctx context.Context, sessionID, sectionID string, reveal bool) (Report, error) {
	sess, err := s.Store.Get(ctx, sessionID)
	if err != nil {
		return Report{}, err
	}
	sec, qs, missing, err := s.Questions(sectionID)
	if err != nil {
		return Report{}, err
	}

	sum := s.engine().GradeAll(qs, sess.Answers)

	if _, err := s.Store.RecordGrade(ctx, sessionID, sec.ID, sum); err != nil {
		return Report{}, fmt.Errorf("record grade: %w", err)
	}

	if reveal {
		sum = sum.RevealIncorrect()
	} else {
		sum = sum.Redact()
	}
	band := sum.Band()
	return Report{
		SessionID: sessionID,
		Section:   sec,
		Summary:   sum,
		Band:      band,
		Message:   band.Message(),
		Missing:   missing,
	}, nil
}

func (s *Service) engine() *grading.Engine {
	if s.Engine == nil {
		return grading.NewEngine()
	}
	return s.Engine
}
