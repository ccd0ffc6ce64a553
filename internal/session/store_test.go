package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/mind-engage/review-autograder/internal/db"
	"github.com/mind-engage/review-autograder/internal/grading"
	syncx "github.com/mind-engage/review-autograder/internal/sync"
)

func newSQLStore(t *testing.T) *SQLStore {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	h, err := db.Open(context.Background(), db.DriverSQLite, dsn)
	if err != nil {
		t.Fatalf("db open: %v", err)
	}
	t.Cleanup(func() { h.Close() })
	return NewSQLStore(h)
}

// storeContract runs the same behaviour checks against every Store.
func storeContract(t *testing.T, st Store) {
	ctx := context.Background()

	s, err := st.Create(ctx, "cadet1")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if s.ID == "" || s.UserID != "cadet1" || s.Status != StatusOpen || len(s.Answers) != 0 {
		t.Fatalf("Create() = %+v", s)
	}

	if _, err := st.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get(missing) error = %v", err)
	}

	s, err = st.SaveAnswers(ctx, s.ID, grading.Answers{"5a": "0.62", "5b": "reject"})
	if err != nil {
		t.Fatalf("SaveAnswers() error = %v", err)
	}
	s, err = st.SaveAnswers(ctx, s.ID, grading.Answers{"5b": "fail to reject", "6a": ""})
	if err != nil {
		t.Fatalf("SaveAnswers() error = %v", err)
	}
	if len(s.Answers) != 3 || s.Answers["5a"] != "0.62" || s.Answers["5b"] != "fail to reject" {
		t.Fatalf("merged answers = %v", s.Answers)
	}

	// returned maps are detached from the store
	s.Answers["5a"] = "tampered"
	got, err := st.Get(ctx, s.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Answers["5a"] != "0.62" {
		t.Fatalf("stored answers mutated through returned map: %v", got.Answers)
	}

	got, err = st.RecordGrade(ctx, s.ID, "one-proportion-z", grading.Summary{Earned: 3, Total: 4, Percentage: 75})
	if err != nil {
		t.Fatalf("RecordGrade() error = %v", err)
	}
	if got.Status != StatusGraded || got.LastSection != "one-proportion-z" || got.LastPercentage != 75 {
		t.Fatalf("RecordGrade() = %+v", got)
	}

	got, err = st.ClearAnswers(ctx, s.ID)
	if err != nil {
		t.Fatalf("ClearAnswers() error = %v", err)
	}
	if len(got.Answers) != 0 || got.Status != StatusOpen || got.LastSection != "" {
		t.Fatalf("ClearAnswers() = %+v", got)
	}

	if _, err := st.SaveAnswers(ctx, "missing", grading.Answers{"a": "b"}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("SaveAnswers(missing) error = %v", err)
	}
	if _, err := st.RecordGrade(ctx, "missing", "x", grading.Summary{}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("RecordGrade(missing) error = %v", err)
	}

	if _, err := st.Create(ctx, "cadet2"); err != nil {
		t.Fatal(err)
	}
	mine, err := st.List(ctx, ListOpts{UserID: "cadet1"})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(mine) != 1 || mine[0].ID != s.ID {
		t.Fatalf("List(cadet1) = %+v", mine)
	}
	all, err := st.List(ctx, ListOpts{})
	if err != nil || len(all) != 2 {
		t.Fatalf("List() = %d sessions, %v", len(all), err)
	}
	page, err := st.List(ctx, ListOpts{Limit: 1, Offset: 5})
	if err != nil || len(page) != 0 {
		t.Fatalf("List(offset past end) = %+v, %v", page, err)
	}
}

func TestMemoryStore(t *testing.T) {
	storeContract(t, NewMemoryStore())
}

func TestSQLStore(t *testing.T) {
	storeContract(t, newSQLStore(t))
}

func TestSQLStoreNumbersRoundTrip(t *testing.T) {
	ctx := context.Background()
	st := newSQLStore(t)
	s, err := st.Create(ctx, "u")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := st.SaveAnswers(ctx, s.ID, grading.Answers{"5a": 0.615}); err != nil {
		t.Fatal(err)
	}
	got, err := st.Get(ctx, s.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !grading.GradeNumeric(got.Answers["5a"], "0.62", grading.DefaultTolerance) {
		t.Fatalf("stored numeric answer %v (%T) no longer grades", got.Answers["5a"], got.Answers["5a"])
	}
}

func TestSQLStoreEventLog(t *testing.T) {
	ctx := context.Background()
	st := newSQLStore(t)
	s, err := st.Create(ctx, "u")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := st.SaveAnswers(ctx, s.ID, grading.Answers{"1.1a": "x"}); err != nil {
		t.Fatal(err)
	}
	if _, err := st.RecordGrade(ctx, s.ID, "foundations", grading.Summary{Earned: 0, Total: 2}); err != nil {
		t.Fatal(err)
	}
	if _, err := st.ClearAnswers(ctx, s.ID); err != nil {
		t.Fatal(err)
	}

	events, err := st.Events().ListByKey(ctx, s.ID)
	if err != nil {
		t.Fatalf("ListByKey() error = %v", err)
	}
	want := []string{syncx.EventSessionCreated, syncx.EventAnswersSaved, syncx.EventSectionGraded, syncx.EventAnswersCleared}
	if len(events) != len(want) {
		t.Fatalf("got %d events, want %d", len(events), len(want))
	}
	for i, e := range events {
		if e.Type != want[i] {
			t.Errorf("event %d = %s, want %s", i, e.Type, want[i])
		}
		if e.SiteID != "local" || e.DataJSON == "" {
			t.Errorf("event %d = %+v", i, e)
		}
	}
}

func TestSQLStoreCorruptAnswersFailLoudly(t *testing.T) {
	ctx := context.Background()
	st := newSQLStore(t)
	s, err := st.Create(ctx, "u")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := st.db.ExecContext(ctx, `UPDATE sessions SET answers_json=$1 WHERE id=$2`, `{"5a":`, s.ID); err != nil {
		t.Fatal(err)
	}

	if _, err := st.Get(ctx, s.ID); err == nil {
		t.Fatal("Get() on corrupt answers returned no error")
	}
	if _, err := st.SaveAnswers(ctx, s.ID, grading.Answers{"5b": "x"}); err == nil {
		t.Fatal("SaveAnswers() overwrote corrupt answers")
	}
	var raw string
	if err := st.db.QueryRowContext(ctx, `SELECT answers_json FROM sessions WHERE id=$1`, s.ID).Scan(&raw); err != nil {
		t.Fatal(err)
	}
	if raw != `{"5a":` {
		t.Fatalf("stored answers changed to %q", raw)
	}
}

func TestDecodeAnswers(t *testing.T) {
	tests := []struct {
		in      string
		wantLen int
		wantErr bool
	}{
		{`{}`, 0, false},
		{`null`, 0, false},
		{`{"5a":0.62,"5b":"x"}`, 2, false},
		{`{"5a":`, 0, true},
		{``, 0, true},
	}
	for _, tc := range tests {
		got, err := decodeAnswers(tc.in)
		if (err != nil) != tc.wantErr {
			t.Errorf("decodeAnswers(%q) error = %v, wantErr %v", tc.in, err, tc.wantErr)
			continue
		}
		if !tc.wantErr && (got == nil || len(got) != tc.wantLen) {
			t.Errorf("decodeAnswers(%q) = %v", tc.in, got)
		}
	}
}
