package course

import (
	"context"
	"sort"
	"sync"

	pkgerrors "github.com/coursehound/coursehound/pkg/errors"
)

// MemStore is an in-memory Store and Writer, used in tests and for corpora
// loaded from flat files.
type MemStore struct {
	mu      sync.RWMutex
	courses map[string]Course
	order   []string
}

// NewMemStore creates a MemStore seeded with the given courses.
func NewMemStore(courses ...Course) *MemStore {
	s := &MemStore{courses: make(map[string]Course, len(courses))}
	for _, c := range courses {
		if _, exists := s.courses[c.ID]; !exists {
			s.order = append(s.order, c.ID)
		}
		s.courses[c.ID] = c
	}
	sort.Strings(s.order)
	return s
}

// List returns all courses ordered by ID.
func (s *MemStore) List(ctx context.Context) ([]Course, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Course, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.courses[id])
	}
	return out, nil
}

// Get returns a course by ID.
func (s *MemStore) Get(ctx context.Context, id string) (*Course, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.courses[id]
	if !ok {
		return nil, pkgerrors.ErrCourseNotFound
	}
	return &c, nil
}

// Count returns the corpus size.
func (s *MemStore) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.courses), nil
}

// Upsert inserts or replaces a course.
func (s *MemStore) Upsert(ctx context.Context, c Course) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.courses[c.ID]; !exists {
		s.order = append(s.order, c.ID)
		sort.Strings(s.order)
	}
	s.courses[c.ID] = c
	return nil
}
