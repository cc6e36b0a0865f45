package content

import (
	"context"
	"embed"
	"fmt"
	"sort"
	"sync"

	"github.com/felixgeelhaar/raksha/internal/domain"
)

//go:embed courses/*.yaml
var defaultCourses embed.FS

// Registry holds the loaded course catalog in memory and serves it to the
// lesson service and the reward ledger.
type Registry struct {
	mu      sync.RWMutex
	courses map[string]*domain.Course
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{courses: make(map[string]*domain.Course)}
}

// LoadDefaults loads the embedded default catalog.
func (r *Registry) LoadDefaults() error {
	courses, err := LoadFS(defaultCourses, "courses")
	if err != nil {
		return err
	}
	r.add(courses)
	return nil
}

// LoadDir loads course files from a directory, replacing any embedded
// course with the same ID.
func (r *Registry) LoadDir(path string) error {
	courses, err := NewLoader(path).LoadAll()
	if err != nil {
		return err
	}
	r.add(courses)
	return nil
}

func (r *Registry) add(courses []*domain.Course) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range courses {
		r.courses[c.ID] = c
	}
}

// Course returns a course by ID.
func (r *Registry) Course(_ context.Context, id string) (*domain.Course, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.courses[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrCourseNotFound, id)
	}
	return c, nil
}

// List returns all courses ordered by ID.
func (r *Registry) List() []*domain.Course {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*domain.Course, 0, len(r.courses))
	for _, c := range r.courses {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
