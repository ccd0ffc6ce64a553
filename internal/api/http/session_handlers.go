package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	auth "github.com/mind-engage/review-autograder/internal/auth/middleware"
	"github.com/mind-engage/review-autograder/internal/grading"
	"github.com/mind-engage/review-autograder/internal/rbac"
	"github.com/mind-engage/review-autograder/internal/sections"
	"github.com/mind-engage/review-autograder/internal/session"
)

const permViewAll = "session:view-all"

// POST /sessions  { "user_id": "..." }
//
// Students always get a session for themselves; user_id is honoured only for
// roles that can see every session.
func CreateSessionHandler(store session.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			UserID string `json:"user_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		userID := auth.SubjectFromContext(r.Context())
		if u := strings.TrimSpace(req.UserID); u != "" && rbac.Allowed(r.Context(), permViewAll) {
			userID = u
		}
		if userID == "" {
			http.Error(w, "user required", http.StatusBadRequest)
			return
		}
		s, err := store.Create(r.Context(), userID)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusCreated, s)
	}
}

// GET /sessions?user_id=...&limit=50&offset=0
func ListSessionsHandler(store session.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		userID := strings.TrimSpace(q.Get("user_id"))
		if !rbac.Allowed(r.Context(), permViewAll) {
			userID = auth.SubjectFromContext(r.Context())
		}
		list, err := store.List(r.Context(), session.ListOpts{
			UserID: userID,
			Limit:  parseIntDefault(q.Get("limit"), 50),
			Offset: parseIntDefault(q.Get("offset"), 0),
		})
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

// GET /sessions/{sessionID}
func GetSessionHandler(store session.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, ok := ownedSession(w, r, store)
		if !ok {
			return
		}
		writeJSON(w, http.StatusOK, s)
	}
}

// PUT /sessions/{sessionID}/answers  { "12a": 0.5, "12b": "sensitivity" }
func SaveAnswersHandler(store session.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, ok := ownedSession(w, r, store)
		if !ok {
			return
		}
		var answers grading.Answers
		dec := json.NewDecoder(r.Body)
		dec.UseNumber()
		if err := dec.Decode(&answers); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		s, err := store.SaveAnswers(r.Context(), s.ID, answers)
		if err != nil {
			writeStoreError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, s)
	}
}

// DELETE /sessions/{sessionID}/answers
func ClearAnswersHandler(store session.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, ok := ownedSession(w, r, store)
		if !ok {
			return
		}
		s, err := store.ClearAnswers(r.Context(), s.ID)
		if err != nil {
			writeStoreError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, s)
	}
}

// POST /sessions/{sessionID}/grade?section=bayes&reveal=true
//
// reveal is honoured when the role may see answers or revealAll is set.
func GradeSectionHandler(svc *session.Service, revealAll bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, ok := ownedSession(w, r, svc.Store)
		if !ok {
			return
		}
		sectionID := strings.TrimSpace(r.URL.Query().Get("section"))
		if sectionID == "" {
			http.Error(w, "section required", http.StatusBadRequest)
			return
		}
		reveal := false
		if b, _ := strconv.ParseBool(r.URL.Query().Get("reveal")); b {
			reveal = revealAll || rbac.Allowed(r.Context(), "answers:reveal")
		}

		rep, err := svc.Grade(r.Context(), s.ID, sectionID, reveal)
		switch {
		case errors.Is(err, sections.ErrUnknownSection):
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		case errors.Is(err, session.ErrNoAnswerKey):
			http.Error(w, err.Error(), http.StatusServiceUnavailable)
			return
		case err != nil:
			writeStoreError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, rep)
	}
}

// ownedSession loads the session named in the path and checks the caller may
// see it. Other students' sessions look the same as missing ones.
func ownedSession(w http.ResponseWriter, r *http.Request, store session.Store) (session.Session, bool) {
	id := strings.TrimSpace(chi.URLParam(r, "sessionID"))
	if id == "" {
		http.Error(w, "sessionID required", http.StatusBadRequest)
		return session.Session{}, false
	}
	s, err := store.Get(r.Context(), id)
	if err != nil {
		writeStoreError(w, err)
		return session.Session{}, false
	}
	if !rbac.Allowed(r.Context(), permViewAll) && s.UserID != auth.SubjectFromContext(r.Context()) {
		http.Error(w, session.ErrNotFound.Error(), http.StatusNotFound)
		return session.Session{}, false
	}
	return s, true
}

func writeStoreError(w http.ResponseWriter, err error) {
	if errors.Is(err, session.ErrNotFound) {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	http.Error(w, err.Error(), http.StatusInternalServerError)
}

func parseIntDefault(s string, def int) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return def
	}
	return n
}
