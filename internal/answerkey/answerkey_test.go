package answerkey

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mind-engage/review-autograder/internal/grading"
)

const sampleCSV = `problem_id,question_part,answer_type,correct_answer,alternative_answers,points
1.1a,Population of interest,text,all cadets,cadets|all west point cadets,2
5a,Sample proportion,numeric,0.62,,3
5b,Test statistic,numeric,not-computed,,1
`

func TestParse(t *testing.T) {
	k, err := Parse(strings.NewReader(sampleCSV))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if k.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", k.Len())
	}
	q, ok := k.Lookup("1.1a")
	if !ok {
		t.Fatal("1.1a not found")
	}
	want := grading.Question{
		ID: "1.1a", Prompt: "Population of interest", Type: grading.Text,
		CorrectAnswer: "all cadets", Alternatives: "cadets|all west point cadets", Points: 2,
	}
	if q.ID != want.ID || q.Prompt != want.Prompt || q.Type != want.Type ||
		q.CorrectAnswer != want.CorrectAnswer || q.Alternatives != want.Alternatives || q.Points != want.Points {
		t.Fatalf("Lookup() = %+v, want %+v", q, want)
	}
	// a non-numeric key for a numeric question loads; it only fails at grading time
	if q, _ := k.Lookup("5b"); q.Type != grading.Numeric || q.CorrectAnswer != "not-computed" {
		t.Fatalf("5b = %+v", q)
	}
}

func TestParseAlternateColumnsAndOptions(t *testing.T) {
	in := "\ufeffQuestion_Num,Question_Text,Answer_Type,Correct_Answer,Points,option_b,option_a,option_c,option_d\n" +
		"4.1,Which test?,multiple_choice,B,1,Two-sample t,One-proportion z,Paired t,\n" +
		"4.2,Which test?,mc,C,2\n"
	k, err := Parse(strings.NewReader(in))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	q, _ := k.Lookup("4.1")
	if q.Prompt != "Which test?" || q.Type != grading.MultipleChoice || q.Alternatives != "" {
		t.Fatalf("4.1 = %+v", q)
	}
	if len(q.Options) != 3 || q.Options[0].Label != "A" || q.Options[0].Text != "One-proportion z" || q.Options[2].Label != "C" {
		t.Fatalf("options = %+v", q.Options)
	}
	q, _ = k.Lookup("4.2")
	if len(q.Options) != 0 || q.Points != 2 {
		t.Fatalf("4.2 = %+v", q)
	}
}

func TestParseLowercaseChoiceKey(t *testing.T) {
	in := "problem_id,answer_type,correct_answer,points,option_a,option_b\n" +
		"4.1,multiple_choice, b ,2,z-test,t-test\n"
	k, err := Parse(strings.NewReader(in))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	q, _ := k.Lookup("4.1")
	if q.CorrectAnswer != "B" {
		t.Fatalf("CorrectAnswer = %q, want %q", q.CorrectAnswer, "B")
	}
	e := grading.NewEngine()
	for label, want := range map[string]bool{"A": false, "B": true} {
		if got := e.Grade(q, label).Correct; got != want {
			t.Errorf("Grade(%q).Correct = %v, want %v", label, got, want)
		}
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want error
	}{
		{"empty input", "", ErrEmpty},
		{"missing points", "problem_id,answer_type,correct_answer\n1,text,a\n", ErrMissingColumn},
		{"missing id column", "answer_type,correct_answer,points\ntext,a,1\n", ErrMissingColumn},
		{"duplicate id", "problem_id,answer_type,correct_answer,points\n1,text,a,1\n1,text,b,1\n", ErrDuplicateID},
		{"empty id", "problem_id,answer_type,correct_answer,points\n,text,a,1\n", ErrEmptyID},
		{"negative points", "problem_id,answer_type,correct_answer,points\n1,text,a,-1\n", ErrBadPoints},
		{"fractional points", "problem_id,answer_type,correct_answer,points\n1,text,a,1.5\n", ErrBadPoints},
		{"blank points", "problem_id,answer_type,correct_answer,points\n1,text,a,\n", ErrBadPoints},
		{"huge points", "problem_id,answer_type,correct_answer,points\n1,text,a,1e19\n", ErrBadPoints},
		{"points past int32", "problem_id,answer_type,correct_answer,points\n1,text,a,2147483648\n", ErrBadPoints},
		{"infinite points", "problem_id,answer_type,correct_answer,points\n1,text,a,+Inf\n", ErrBadPoints},
		{"choice not listed", "problem_id,answer_type,correct_answer,points,option_a,option_b\n1,mc,e,1,x,y\n", ErrUnknownChoice},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tc.in))
			if !errors.Is(err, tc.want) {
				t.Fatalf("Parse() error = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestParseUnknownAnswerType(t *testing.T) {
	_, err := Parse(strings.NewReader("problem_id,answer_type,correct_answer,points\n1,essay,a,1\n"))
	if err == nil || !strings.Contains(err.Error(), "row 2") {
		t.Fatalf("expected row-tagged error, got %v", err)
	}
}

func TestParseDefaultsAndFloatPoints(t *testing.T) {
	k, err := Parse(strings.NewReader("problem_id,answer_type,correct_answer,points\n7a,,yes,2.0\n"))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	q, _ := k.Lookup("7a")
	if q.Type != grading.Text || q.Points != 2 {
		t.Fatalf("7a = %+v", q)
	}
}

func TestSelect(t *testing.T) {
	k, err := Parse(strings.NewReader(sampleCSV))
	if err != nil {
		t.Fatal(err)
	}
	qs, missing := k.Select([]string{"5a", "9z", "1.1a"})
	if len(qs) != 2 || qs[0].ID != "5a" || qs[1].ID != "1.1a" {
		t.Fatalf("Select() questions = %+v", qs)
	}
	if len(missing) != 1 || missing[0] != "9z" {
		t.Fatalf("Select() missing = %v", missing)
	}
}

func TestQuestionsIsACopy(t *testing.T) {
	k, _ := Parse(strings.NewReader(sampleCSV))
	qs := k.Questions()
	qs[0].CorrectAnswer = "changed"
	if q, _ := k.Lookup(qs[0].ID); q.CorrectAnswer == "changed" {
		t.Fatal("Questions() exposed internal storage")
	}
}

func TestPublic(t *testing.T) {
	k, _ := Parse(strings.NewReader(sampleCSV))
	for _, q := range Public(k.Questions()) {
		if q.CorrectAnswer != "" || q.Alternatives != "" {
			t.Fatalf("answer leaked in %+v", q)
		}
	}
}

func TestNew(t *testing.T) {
	if _, err := New([]grading.Question{{ID: "a"}, {ID: "a"}}); !errors.Is(err, ErrDuplicateID) {
		t.Fatalf("New() error = %v", err)
	}
	if _, err := New([]grading.Question{{ID: "a", Points: -1}}); !errors.Is(err, ErrBadPoints) {
		t.Fatalf("New() error = %v", err)
	}
	k, err := New([]grading.Question{{ID: "a"}, {ID: "b"}})
	if err != nil || k.Len() != 2 {
		t.Fatalf("New() = %v, %v", k, err)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "key.csv")
	if err := os.WriteFile(path, []byte(sampleCSV), 0o644); err != nil {
		t.Fatal(err)
	}
	k, err := LoadFile(path)
	if err != nil || k.Len() != 3 {
		t.Fatalf("LoadFile() = %v, %v", k, err)
	}
	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.csv")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
}

func TestHolder(t *testing.T) {
	h := NewHolder(nil, "")
	if h.Current() != nil {
		t.Fatal("expected nil key")
	}
	k, _ := Parse(strings.NewReader(sampleCSV))
	h.Swap(k, "upload")
	if h.Current() != k {
		t.Fatal("Swap did not install key")
	}
	if src, at := h.Info(); src != "upload" || at.IsZero() {
		t.Fatalf("Info() = %q, %v", src, at)
	}
}
