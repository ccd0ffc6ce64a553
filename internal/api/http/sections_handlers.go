package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/mind-engage/review-autograder/internal/answerkey"
	"github.com/mind-engage/review-autograder/internal/grading"
	"github.com/mind-engage/review-autograder/internal/sections"
	"github.com/mind-engage/review-autograder/internal/session"
)

// GET /sections
func ListSectionsHandler(svc *session.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, svc.Sections.List())
	}
}

type sectionView struct {
	sections.Section
	Questions []grading.Question `json:"questions"`
	Missing   []string           `json:"missing,omitempty"`
}

// GET /sections/{sectionID}
//
// Questions are returned without correct answers.
func GetSectionHandler(svc *session.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(chi.URLParam(r, "sectionID"))
		sec, qs, missing, err := svc.Questions(id)
		switch {
		case errors.Is(err, sections.ErrUnknownSection):
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		case errors.Is(err, session.ErrNoAnswerKey):
			http.Error(w, err.Error(), http.StatusServiceUnavailable)
			return
		case err != nil:
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, sectionView{
			Section:   sec,
			Questions: answerkey.Public(qs),
			Missing:   missing,
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
