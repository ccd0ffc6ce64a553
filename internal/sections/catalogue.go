package sections

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultYAML []byte

var ErrUnknownSection = errors.New("unknown section")

// Section is a named subset of answer key questions graded together.
type Section struct {
	ID         string   `yaml:"id" json:"id"`
	Title      string   `yaml:"title" json:"title"`
	ProblemIDs []string `yaml:"problems" json:"problem_ids"`
}

type file struct {
	Sections []Section `yaml:"sections"`
}

// Catalogue is the ordered list of sections offered to students.
type Catalogue struct {
	sections []Section
	byID     map[string]int
}

// Default returns the built-in review catalogue.
func Default() *Catalogue {
	c, err := Parse(defaultYAML)
	if err != nil {
		panic("sections: bad embedded catalogue: " + err.Error())
	}
	return c
}

// LoadFile reads a catalogue YAML file.
func LoadFile(path string) (*Catalogue, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read sections file: %w", err)
	}
	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// Parse decodes and validates a catalogue document.
func Parse(data []byte) (*Catalogue, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse sections YAML: %w", err)
	}
	return New(f.Sections)
}

// New validates sections: ids and titles are required, ids are unique and
// every section names at least one problem.
func New(secs []Section) (*Catalogue, error) {
	c := &Catalogue{byID: make(map[string]int, len(secs))}
	for i, s := range secs {
		s.ID = strings.TrimSpace(s.ID)
		s.Title = strings.TrimSpace(s.Title)
		if s.ID == "" {
			return nil, fmt.Errorf("section %d: id is required", i+1)
		}
		if s.Title == "" {
			return nil, fmt.Errorf("section %s: title is required", s.ID)
		}
		if _, dup := c.byID[s.ID]; dup {
			return nil, fmt.Errorf("duplicate section id: %s", s.ID)
		}
		if len(s.ProblemIDs) == 0 {
			return nil, fmt.Errorf("section %s: no problems listed", s.ID)
		}
		ids := make([]string, len(s.ProblemIDs))
		for j, p := range s.ProblemIDs {
			ids[j] = strings.TrimSpace(p)
		}
		s.ProblemIDs = ids
		c.byID[s.ID] = len(c.sections)
		c.sections = append(c.sections, s)
	}
	return c, nil
}

// List returns sections in catalogue order.
func (c *Catalogue) List() []Section {
	out := make([]Section, len(c.sections))
	copy(out, c.sections)
	return out
}

func (c *Catalogue) Get(id string) (Section, error) {
	i, ok := c.byID[id]
	if !ok {
		return Section{}, fmt.Errorf("%w: %s", ErrUnknownSection, id)
	}
	return c.sections[i], nil
}
