package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	auth "github.com/mind-engage/review-autograder/internal/auth/middleware"
	"github.com/mind-engage/review-autograder/internal/rbac"
	"github.com/mind-engage/review-autograder/internal/session"
	"github.com/mind-engage/review-autograder/internal/storage"
)

type RouterDeps struct {
	Auth    *auth.AuthService
	Teacher auth.TeacherCredentials
	Service *session.Service
	Blobs   storage.BlobStore

	RevealAnswers bool
	CORSOrigins   []string

	// Ready backs /readyz; nil means always ready.
	Ready func(ctx context.Context) error
}

func NewRouter(d RouterDeps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	if len(d.CORSOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   d.CORSOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Authorization", "Content-Type"},
			ExposedHeaders:   []string{"Content-Length"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	r.Post("/auth/login", auth.LoginHandler(d.Auth, d.Teacher))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if d.Ready != nil {
			if err := d.Ready(r.Context()); err != nil {
				http.Error(w, "not ready: "+err.Error(), http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
	})

	svc := d.Service
	r.Group(func(pr chi.Router) {
		pr.Use(auth.JWTMiddleware(d.Auth))

		pr.With(rbac.Require("section:view")).
			Get("/sections", ListSectionsHandler(svc))
		pr.With(rbac.Require("section:view")).
			Get("/sections/{sectionID}", GetSectionHandler(svc))

		pr.With(rbac.Require("session:create")).
			Post("/sessions", CreateSessionHandler(svc.Store))
		pr.With(rbac.RequireAny("session:view-own", "session:view-all")).
			Get("/sessions", ListSessionsHandler(svc.Store))
		pr.With(rbac.RequireAny("session:view-own", "session:view-all")).
			Get("/sessions/{sessionID}", GetSessionHandler(svc.Store))
		pr.With(rbac.Require("session:save")).
			Put("/sessions/{sessionID}/answers", SaveAnswersHandler(svc.Store))
		pr.With(rbac.Require("session:save")).
			Delete("/sessions/{sessionID}/answers", ClearAnswersHandler(svc.Store))
		pr.With(rbac.Require("session:grade")).
			Post("/sessions/{sessionID}/grade", GradeSectionHandler(svc, d.RevealAnswers))

		pr.With(rbac.Require("answerkey:view")).
			Get("/answerkey", GetAnswerKeyHandler(svc.Keys))
		pr.With(rbac.Require("answerkey:upload")).
			Post("/answerkey", UploadAnswerKeyHandler(svc.Keys, d.Blobs))
	})

	return r
}
