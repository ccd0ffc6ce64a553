package answerkey

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/mind-engage/review-autograder/internal/grading"
)

var (
	ErrMissingColumn = errors.New("missing required column")
	ErrDuplicateID   = errors.New("duplicate question id")
	ErrEmptyID       = errors.New("empty question id")
	ErrBadPoints     = errors.New("points must be a non-negative integer")
	ErrEmpty         = errors.New("answer key has no header row")
	ErrUnknownChoice = errors.New("correct answer is not one of the listed options")
)

// column aliases, first match wins
var (
	colID      = []string{"problem_id", "question_num"}
	colPrompt  = []string{"question_part", "question_text"}
	colType    = []string{"answer_type"}
	colCorrect = []string{"correct_answer"}
	colAlts    = []string{"alternative_answers"}
	colPoints  = []string{"points"}
)

const optionPrefix = "option_"

// Key is an ordered, read-only answer key.
type Key struct {
	questions []grading.Question
	index     map[string]int
}

// LoadFile parses the CSV answer key at path.
func LoadFile(path string) (*Key, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	k, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return k, nil
}

// Parse reads an answer key CSV. Required columns are id, answer_type,
// correct_answer and points; prompt, alternative_answers and option_* columns
// are optional.
func Parse(r io.Reader) (*Key, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrEmpty
	}
	if err != nil {
		return nil, err
	}
	cols := indexHeader(header)

	idCol, err := require(cols, colID)
	if err != nil {
		return nil, err
	}
	typeCol, err := require(cols, colType)
	if err != nil {
		return nil, err
	}
	correctCol, err := require(cols, colCorrect)
	if err != nil {
		return nil, err
	}
	pointsCol, err := require(cols, colPoints)
	if err != nil {
		return nil, err
	}
	promptCol := lookup(cols, colPrompt)
	altsCol := lookup(cols, colAlts)
	options := optionColumns(cols)

	k := &Key{index: map[string]int{}}
	for row := 2; ; row++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		if blank(rec) {
			continue
		}
		id := cell(rec, idCol)
		if id == "" {
			return nil, fmt.Errorf("row %d: %w", row, ErrEmptyID)
		}
		if _, dup := k.index[id]; dup {
			return nil, fmt.Errorf("row %d: %w: %s", row, ErrDuplicateID, id)
		}
		typ, err := grading.ParseAnswerType(cell(rec, typeCol))
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", row, err)
		}
		pts, err := parsePoints(cell(rec, pointsCol))
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", row, err)
		}
		q := grading.Question{
			ID:            id,
			Prompt:        cell(rec, promptCol),
			Type:          typ,
			CorrectAnswer: cell(rec, correctCol),
			Alternatives:  cell(rec, altsCol),
			Points:        pts,
		}
		for _, oc := range options {
			if text := cell(rec, oc.col); text != "" {
				q.Options = append(q.Options, grading.Choice{Label: oc.label, Text: text})
			}
		}
		if err := checkChoice(&q); err != nil {
			return nil, fmt.Errorf("row %d: %w", row, err)
		}
		k.index[id] = len(k.questions)
		k.questions = append(k.questions, q)
	}
	return k, nil
}

// New builds a Key from already parsed questions, enforcing unique ids.
func New(qs []grading.Question) (*Key, error) {
	k := &Key{index: make(map[string]int, len(qs))}
	for _, q := range qs {
		if q.ID == "" {
			return nil, ErrEmptyID
		}
		if _, dup := k.index[q.ID]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateID, q.ID)
		}
		if q.Points < 0 {
			return nil, fmt.Errorf("%s: %w", q.ID, ErrBadPoints)
		}
		k.index[q.ID] = len(k.questions)
		k.questions = append(k.questions, q)
	}
	return k, nil
}

// Len is the number of questions in the key.
func (k *Key) Len() int { return len(k.questions) }

// Questions returns the key in file order.
func (k *Key) Questions() []grading.Question {
	out := make([]grading.Question, len(k.questions))
	copy(out, k.questions)
	return out
}

// Lookup finds a question by id.
func (k *Key) Lookup(id string) (grading.Question, bool) {
	i, ok := k.index[id]
	if !ok {
		return grading.Question{}, false
	}
	return k.questions[i], true
}

// Select returns the questions for ids in the order given. Ids not present
// in the key are returned in missing and skipped.
func (k *Key) Select(ids []string) (qs []grading.Question, missing []string) {
	qs = make([]grading.Question, 0, len(ids))
	for _, id := range ids {
		if q, ok := k.Lookup(id); ok {
			qs = append(qs, q)
		} else {
			missing = append(missing, id)
		}
	}
	return qs, missing
}

// Public strips correct answers and alternatives so the questions can be
// shown to students.
func Public(qs []grading.Question) []grading.Question {
	out := make([]grading.Question, len(qs))
	for i, q := range qs {
		q.CorrectAnswer = ""
		q.Alternatives = ""
		out[i] = q
	}
	return out
}

type optionColumn struct {
	label string
	col   int
}

func indexHeader(header []string) map[string]int {
	cols := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if _, seen := cols[h]; !seen {
			cols[h] = i
		}
	}
	return cols
}

func lookup(cols map[string]int, names []string) int {
	for _, n := range names {
		if i, ok := cols[n]; ok {
			return i
		}
	}
	return -1
}

func require(cols map[string]int, names []string) (int, error) {
	i := lookup(cols, names)
	if i < 0 {
		return -1, fmt.Errorf("%w: %s", ErrMissingColumn, strings.Join(names, " or "))
	}
	return i, nil
}

func optionColumns(cols map[string]int) []optionColumn {
	var out []optionColumn
	for name, i := range cols {
		if label, ok := strings.CutPrefix(name, optionPrefix); ok && label != "" {
			out = append(out, optionColumn{label: strings.ToUpper(label), col: i})
		}
	}
	sort.Slice(out, func(a, b int) bool { return out[a].label < out[b].label })
	return out
}

func cell(rec []string, i int) string {
	if i < 0 || i >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[i])
}

func blank(rec []string) bool {
	for _, c := range rec {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// checkChoice puts a multiple-choice key in the same label case as its
// option columns and requires it to name one of them.
func checkChoice(q *grading.Question) error {
	if q.Type != grading.MultipleChoice || len(q.Options) == 0 {
		return nil
	}
	q.CorrectAnswer = strings.ToUpper(q.CorrectAnswer)
	for _, o := range q.Options {
		if o.Label == q.CorrectAnswer {
			return nil
		}
	}
	return fmt.Errorf("%w: %q", ErrUnknownChoice, q.CorrectAnswer)
}

// parsePoints accepts integer-valued numbers such as "3" or "3.0", up to
// math.MaxInt32.
func parsePoints(s string) (int, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v < 0 || v > math.MaxInt32 || v != math.Trunc(v) {
		return 0, fmt.Errorf("%w: %q", ErrBadPoints, s)
	}
	return int(v), nil
}
