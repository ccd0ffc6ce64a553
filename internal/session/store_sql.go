package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mind-engage/review-autograder/internal/grading"
	syncx "github.com/mind-engage/review-autograder/internal/sync"
)

type SQLStore struct {
	db     *sql.DB
	events *syncx.EventRepo
	now    func() time.Time
}

// NewSQLStore works for both sqlite and postgres handles from db.Open; the
// statements use $N placeholders, which both drivers accept.
func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db, events: syncx.NewEventRepo(db), now: time.Now}
}

// Events exposes the session event log.
func (s *SQLStore) Events() *syncx.EventRepo { return s.events }

type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

const selectSession = `SELECT id,user_id,status,answers_json,last_section,last_percentage,created_at,updated_at FROM sessions`

func (s *SQLStore) Create(ctx context.Context, userID string) (Session, error) {
	ts := s.now().Unix()
	sess := Session{
		ID:        uuid.NewString(),
		UserID:    userID,
		Status:    StatusOpen,
		Answers:   grading.Answers{},
		CreatedAt: ts,
		UpdatedAt: ts,
	}
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `INSERT INTO sessions (id,user_id,status,answers_json,created_at,updated_at)
			VALUES ($1,$2,$3,$4,$5,$6)`,
			sess.ID, sess.UserID, string(sess.Status), "{}", ts, ts); err != nil {
			return err
		}
		return s.events.AppendJSON(ctx, tx, syncx.EventSessionCreated, sess.ID, map[string]string{"user_id": userID})
	})
	if err != nil {
		return Session{}, err
	}
	return sess, nil
}

func (s *SQLStore) Get(ctx context.Context, id string) (Session, error) {
	return getSession(ctx, s.db, id)
}

func (s *SQLStore) List(ctx context.Context, opts ListOpts) ([]Session, error) {
	limit, offset := clampList(opts)
	var (
		rows *sql.Rows
		err  error
	)
	if opts.UserID != "" {
		rows, err = s.db.QueryContext(ctx, selectSession+` WHERE user_id=$1 ORDER BY created_at DESC, id LIMIT $2 OFFSET $3`,
			opts.UserID, limit, offset)
	} else {
		rows, err = s.db.QueryContext(ctx, selectSession+` ORDER BY created_at DESC, id LIMIT $1 OFFSET $2`, limit, offset)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Session{}
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sess)
	}
	return out, rows.Err()
}

func (s *SQLStore) SaveAnswers(ctx context.Context, id string, answers grading.Answers) (Session, error) {
	var out Session
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		sess, err := getSession(ctx, tx, id)
		if err != nil {
			return err
		}
		for k, v := range answers {
			sess.Answers[k] = v
		}
		buf, err := json.Marshal(sess.Answers)
		if err != nil {
			return fmt.Errorf("encode answers: %w", err)
		}
		sess.Status = StatusOpen
		sess.UpdatedAt = s.now().Unix()
		if _, err := tx.ExecContext(ctx, `UPDATE sessions SET answers_json=$1, status=$2, updated_at=$3 WHERE id=$4`,
			string(buf), string(sess.Status), sess.UpdatedAt, id); err != nil {
			return err
		}
		ids := make([]string, 0, len(answers))
		for k := range answers {
			ids = append(ids, k)
		}
		out = sess
		return s.events.AppendJSON(ctx, tx, syncx.EventAnswersSaved, id, map[string]any{"question_ids": ids})
	})
	return out, err
}

func (s *SQLStore) ClearAnswers(ctx context.Context, id string) (Session, error) {
	var out Session
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		sess, err := getSession(ctx, tx, id)
		if err != nil {
			return err
		}
		sess.Answers = grading.Answers{}
		sess.Status = StatusOpen
		sess.LastSection = ""
		sess.LastPercentage = 0
		sess.UpdatedAt = s.now().Unix()
		if _, err := tx.ExecContext(ctx, `UPDATE sessions SET answers_json='{}', status=$1, last_section='', last_percentage=0, updated_at=$2 WHERE id=$3`,
			string(sess.Status), sess.UpdatedAt, id); err != nil {
			return err
		}
		out = sess
		return s.events.AppendJSON(ctx, tx, syncx.EventAnswersCleared, id, map[string]any{})
	})
	return out, err
}

func (s *SQLStore) RecordGrade(ctx context.Context, id, sectionID string, sum grading.Summary) (Session, error) {
	var out Session
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		sess, err := getSession(ctx, tx, id)
		if err != nil {
			return err
		}
		sess.Status = StatusGraded
		sess.LastSection = sectionID
		sess.LastPercentage = sum.Percentage
		sess.UpdatedAt = s.now().Unix()
		if _, err := tx.ExecContext(ctx, `UPDATE sessions SET status=$1, last_section=$2, last_percentage=$3, updated_at=$4 WHERE id=$5`,
			string(sess.Status), sectionID, sum.Percentage, sess.UpdatedAt, id); err != nil {
			return err
		}
		out = sess
		return s.events.AppendJSON(ctx, tx, syncx.EventSectionGraded, id, map[string]any{
			"section":    sectionID,
			"earned":     sum.Earned,
			"total":      sum.Total,
			"percentage": sum.Percentage,
		})
	})
	return out, err
}

func (s *SQLStore) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func getSession(ctx context.Context, q querier, id string) (Session, error) {
	sess, err := scanSession(q.QueryRowContext(ctx, selectSession+` WHERE id=$1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Session{}, ErrNotFound
	}
	return sess, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSession(row scanner) (Session, error) {
	var (
		sess   Session
		status string
		ajson  string
	)
	if err := row.Scan(&sess.ID, &sess.UserID, &status, &ajson, &sess.LastSection, &sess.LastPercentage,
		&sess.CreatedAt, &sess.UpdatedAt); err != nil {
		return Session{}, err
	}
	sess.Status = Status(status)
	answers, err := decodeAnswers(ajson)
	if err != nil {
		return Session{}, fmt.Errorf("session %s: %w", sess.ID, err)
	}
	sess.Answers = answers
	return sess, nil
}

// decodeAnswers keeps numbers as json.Number so stored values round-trip
// without float formatting drift.
func decodeAnswers(s string) (grading.Answers, error) {
	var out grading.Answers
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()
	if err := dec.Decode(&out); err != nil {
		return nil, fmt.Errorf("decode answers: %w", err)
	}
	if out == nil {
		out = grading.Answers{}
	}
	return out, nil
}
