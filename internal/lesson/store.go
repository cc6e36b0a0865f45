package lesson

import (
	"sync"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/raksha/internal/domain"
)

// Store holds active visits in memory. Visits are transient UI state;
// they are keyed by ID and deliberately not persisted, because the
// durable record of completion lives in the reward ledger's stores.
type Store struct {
	mu     sync.RWMutex
	visits map[string]*Visit
}

// NewStore creates an empty visit store.
func NewStore() *Store {
	return &Store{visits: make(map[string]*Visit)}
}

// Save stores or replaces a visit.
func (s *Store) Save(v *Visit) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.visits[v.ID] = v
}

// Get retrieves a visit by ID.
func (s *Store) Get(id string) (*Visit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.visits[id]
	if !ok {
		return nil, domain.ErrVisitNotFound
	}
	return v, nil
}

// Delete removes a visit.
func (s *Store) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.visits, id)
}

// Find returns the learner's visit for a lesson, if any.
func (s *Store) Find(learnerID uuid.UUID, courseID string, lessonNumber int) (*Visit, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, v := range s.visits {
		if v.LearnerID == learnerID && v.CourseID == courseID && v.LessonNumber == lessonNumber {
			return v, true
		}
	}
	return nil, false
}

// ByLearner returns all visits for a learner.
func (s *Store) ByLearner(learnerID uuid.UUID) []*Visit {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Visit
	for _, v := range s.visits {
		if v.LearnerID == learnerID {
			out = append(out, v)
		}
	}
	return out
}
