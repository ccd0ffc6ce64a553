package session

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mind-engage/review-autograder/internal/grading"
)

type memoryStore struct {
	mu       sync.RWMutex
	sessions map[string]Session
	now      func() time.Time
}

// NewMemoryStore keeps sessions for the life of the process.
func NewMemoryStore() Store {
	return &memoryStore{sessions: map[string]Session{}, now: time.Now}
}

func (m *memoryStore) Create(_ context.Context, userID string) (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ts := m.now().Unix()
	s := Session{
		ID:        uuid.NewString(),
		UserID:    userID,
		Status:    StatusOpen,
		Answers:   grading.Answers{},
		CreatedAt: ts,
		UpdatedAt: ts,
	}
	m.sessions[s.ID] = s
	return snapshot(s), nil
}

func (m *memoryStore) Get(_ context.Context, id string) (Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return Session{}, ErrNotFound
	}
	return snapshot(s), nil
}

func (m *memoryStore) List(_ context.Context, opts ListOpts) ([]Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	all := make([]Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		if opts.UserID != "" && s.UserID != opts.UserID {
			continue
		}
		all = append(all, snapshot(s))
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].CreatedAt != all[j].CreatedAt {
			return all[i].CreatedAt > all[j].CreatedAt
		}
		return all[i].ID < all[j].ID
	})
	limit, offset := clampList(opts)
	if offset >= len(all) {
		return []Session{}, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], nil
}

func (m *memoryStore) SaveAnswers(_ context.Context, id string, answers grading.Answers) (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return Session{}, ErrNotFound
	}
	merged := copyAnswers(s.Answers)
	for k, v := range answers {
		merged[k] = v
	}
	s.Answers = merged
	s.Status = StatusOpen
	s.UpdatedAt = m.now().Unix()
	m.sessions[id] = s
	return snapshot(s), nil
}

func (m *memoryStore) ClearAnswers(_ context.Context, id string) (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return Session{}, ErrNotFound
	}
	s.Answers = grading.Answers{}
	s.Status = StatusOpen
	s.LastSection = ""
	s.LastPercentage = 0
	s.UpdatedAt = m.now().Unix()
	m.sessions[id] = s
	return snapshot(s), nil
}

func (m *memoryStore) RecordGrade(_ context.Context, id, sectionID string, sum grading.Summary) (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return Session{}, ErrNotFound
	}
	s.Status = StatusGraded
	s.LastSection = sectionID
	s.LastPercentage = sum.Percentage
	s.UpdatedAt = m.now().Unix()
	m.sessions[id] = s
	return snapshot(s), nil
}

// snapshot detaches the answer map so callers cannot mutate stored state.
func snapshot(s Session) Session {
	s.Answers = copyAnswers(s.Answers)
	return s
}
