package patterns

import (
	"context"
	"sync"

	"fjacquet/stmt-categorizer/internal/models"
)

// MemoryRepository is a Repository that keeps patterns in memory. It backs
// the store when no persistent storage is configured, and tests.
type MemoryRepository struct {
	mu       sync.Mutex
	patterns []models.CategorizationPattern

	// SaveErr and DeleteErr, when set, are returned by the matching calls.
	SaveErr   error
	DeleteErr error
}

// NewMemoryRepository returns a repository seeded with patterns.
func NewMemoryRepository(seed ...models.CategorizationPattern) *MemoryRepository {
	return &MemoryRepository{patterns: append([]models.CategorizationPattern(nil), seed...)}
}

// ListPatterns returns the stored patterns.
func (r *MemoryRepository) ListPatterns(context.Context) ([]models.CategorizationPattern, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.CategorizationPattern(nil), r.patterns...), nil
}

// SavePattern inserts or replaces p by id.
func (r *MemoryRepository) SavePattern(_ context.Context, p models.CategorizationPattern) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.SaveErr != nil {
		return r.SaveErr
	}
	for i := range r.patterns {
		if r.patterns[i].ID == p.ID {
			r.patterns[i] = p
			return nil
		}
	}
	r.patterns = append(r.patterns, p)
	return nil
}

// DeletePattern removes the pattern with id.
func (r *MemoryRepository) DeletePattern(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.DeleteErr != nil {
		return r.DeleteErr
	}
	for i := range r.patterns {
		if r.patterns[i].ID == id {
			r.patterns = append(r.patterns[:i], r.patterns[i+1:]...)
			return nil
		}
	}
	return nil
}
