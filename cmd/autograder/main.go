package main

import (
	"context"
	"database/sql"
	"errors"
	"io/fs"
	"log"
	"net/http"
	"time"

	api "github.com/mind-engage/review-autograder/internal/api/http"
	"github.com/mind-engage/review-autograder/internal/answerkey"
	auth "github.com/mind-engage/review-autograder/internal/auth/middleware"
	"github.com/mind-engage/review-autograder/internal/config"
	"github.com/mind-engage/review-autograder/internal/db"
	"github.com/mind-engage/review-autograder/internal/grading"
	"github.com/mind-engage/review-autograder/internal/sections"
	"github.com/mind-engage/review-autograder/internal/session"
	"github.com/mind-engage/review-autograder/internal/storage"
)

func main() {
	cfg := config.FromEnv()

	// --- Sessions ---
	var (
		store session.Store
		dbh   *sql.DB
	)
	if cfg.DBDriver == "memory" {
		store = session.NewMemoryStore()
	} else {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		var err error
		dbh, err = db.Open(ctx, db.Driver(cfg.DBDriver), cfg.DBDSN)
		cancel()
		if err != nil {
			log.Fatalf("db open failed: %v", err)
		}
		defer dbh.Close()
		store = session.NewSQLStore(dbh)
	}

	bs, err := storage.NewFSStore(cfg.BlobBasePath)
	if err != nil {
		log.Fatalf("blob store: %v", err)
	}

	// --- Answer key: last upload wins over the configured file ---
	keys := answerkey.NewHolder(nil, "")
	if k, src, err := loadAnswerKey(bs, cfg.AnswerKeyPath); err != nil {
		log.Printf("WARN no answer key loaded: %v", err)
	} else {
		keys.Swap(k, src)
		log.Printf("answer key: %d questions from %s", k.Len(), src)
	}

	cat := sections.Default()
	if cfg.SectionsFile != "" {
		if cat, err = sections.LoadFile(cfg.SectionsFile); err != nil {
			log.Fatalf("sections: %v", err)
		}
	}

	svc := &session.Service{
		Store:    store,
		Keys:     keys,
		Sections: cat,
		Engine:   grading.NewEngine(grading.WithTolerance(cfg.Tolerance)),
	}

	deps := api.RouterDeps{
		Auth:          auth.NewAuthService(cfg.AuthSecret),
		Teacher:       auth.TeacherCredentials{User: cfg.AdminUser, PassHash: cfg.AdminPassHash},
		Service:       svc,
		Blobs:         bs,
		RevealAnswers: cfg.RevealAnswers,
		CORSOrigins:   cfg.CORSOrigins,
	}
	if dbh != nil {
		deps.Ready = dbh.PingContext
	}
	if cfg.AdminPassHash == "" {
		log.Printf("WARN ADMIN_PASS_HASH not set; teacher login disabled")
	}

	log.Printf("listening on %s (mode=%s, db=%s, sections=%d)", cfg.HTTPAddr, cfg.Mode, cfg.DBDriver, len(cat.List()))
	log.Fatal(http.ListenAndServe(cfg.HTTPAddr, api.NewRouter(deps)))
}

func loadAnswerKey(bs storage.BlobStore, path string) (*answerkey.Key, string, error) {
	rc, err := bs.Get(api.CurrentKeyBlob)
	switch {
	case err == nil:
		defer rc.Close()
		k, err := answerkey.Parse(rc)
		if err == nil {
			return k, "blob:" + api.CurrentKeyBlob, nil
		}
		log.Printf("WARN stored answer key unreadable, falling back to %s: %v", path, err)
	case !errors.Is(err, fs.ErrNotExist):
		log.Printf("WARN stored answer key: %v", err)
	}
	k, err := answerkey.LoadFile(path)
	if err != nil {
		return nil, "", err
	}
	return k, "file:" + path, nil
}
