// Package patterns holds the user-confirmed description patterns consulted
// before any other categorization strategy.
package patterns

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"fjacquet/stmt-categorizer/internal/logging"
	"fjacquet/stmt-categorizer/internal/models"
)

var (
	// ErrPatternNotFound is returned by Update and Remove for unknown ids.
	ErrPatternNotFound = errors.New("pattern not found")
	// ErrEmptyPattern is returned when a pattern or its category is blank.
	ErrEmptyPattern = errors.New("pattern and category must not be empty")
)

// Repository persists patterns.
type Repository interface {
	ListPatterns(ctx context.Context) ([]models.CategorizationPattern, error)
	SavePattern(ctx context.Context, p models.CategorizationPattern) error
	DeletePattern(ctx context.Context, id string) error
}

type entry struct {
	pattern models.CategorizationPattern
	lower   string
}

// Store keeps every pattern in memory for matching and writes changes
// through to its Repository. It is safe for concurrent use.
type Store struct {
	repo   Repository
	logger logging.Logger
	now    func() time.Time

	mu      sync.RWMutex
	entries []entry
}

// NewStore loads the repository's patterns into a new Store.
func NewStore(ctx context.Context, repo Repository, logger logging.Logger) (*Store, error) {
	if logger == nil {
		logger = logging.GetLogger()
	}
	s := &Store{repo: repo, logger: logger, now: time.Now}
	if err := s.Reload(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// Reload replaces the in-memory patterns with the repository's.
func (s *Store) Reload(ctx context.Context) error {
	list, err := s.repo.ListPatterns(ctx)
	if err != nil {
		return fmt.Errorf("load patterns: %w", err)
	}
	entries := make([]entry, 0, len(list))
	for _, p := range list {
		if strings.TrimSpace(p.Pattern) == "" {
			s.logger.Warn("Ignoring empty stored pattern", logging.Field{Key: "pattern_id", Value: p.ID})
			continue
		}
		entries = append(entries, entry{pattern: p, lower: strings.ToLower(p.Pattern)})
	}

	s.mu.Lock()
	s.entries = entries
	s.mu.Unlock()

	s.logger.Debug("Loaded categorization patterns", logging.Field{Key: logging.FieldCount, Value: len(entries)})
	return nil
}

// FindMatchingPattern returns the pattern contained, case-insensitively, in
// description. When several match, the longest pattern wins, then the
// highest priority, then the earliest stored.
func (s *Store) FindMatchingPattern(description string) (models.CategorizationPattern, bool) {
	desc := strings.ToLower(description)

	s.mu.RLock()
	defer s.mu.RUnlock()

	best := -1
	for i, e := range s.entries {
		if !strings.Contains(desc, e.lower) {
			continue
		}
		if best < 0 || better(e, s.entries[best]) {
			best = i
		}
	}
	if best < 0 {
		return models.CategorizationPattern{}, false
	}
	return s.entries[best].pattern, true
}

func better(candidate, current entry) bool {
	if len(candidate.lower) != len(current.lower) {
		return len(candidate.lower) > len(current.lower)
	}
	return candidate.pattern.Priority > current.pattern.Priority
}

// List returns a copy of all patterns in stored order.
func (s *Store) List() []models.CategorizationPattern {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.CategorizationPattern, len(s.entries))
	for i, e := range s.entries {
		out[i] = e.pattern
	}
	return out
}

// Add stores a new pattern. Adding a pattern whose text already exists
// (ignoring case) updates that pattern instead.
func (s *Store) Add(ctx context.Context, pattern, categoryID string, priority int) (models.CategorizationPattern, error) {
	pattern, categoryID = strings.TrimSpace(pattern), strings.TrimSpace(categoryID)
	if pattern == "" || categoryID == "" {
		return models.CategorizationPattern{}, ErrEmptyPattern
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	lower := strings.ToLower(pattern)
	for i, e := range s.entries {
		if e.lower == lower {
			return s.updateLocked(ctx, i, pattern, categoryID, priority)
		}
	}

	now := s.now().UTC()
	p := models.CategorizationPattern{
		ID:         uuid.NewString(),
		Pattern:    pattern,
		CategoryID: categoryID,
		Priority:   priority,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.repo.SavePattern(ctx, p); err != nil {
		return models.CategorizationPattern{}, fmt.Errorf("save pattern: %w", err)
	}
	s.entries = append(s.entries, entry{pattern: p, lower: lower})

	s.logger.Info("Pattern added",
		logging.Field{Key: logging.FieldPattern, Value: pattern},
		logging.Field{Key: logging.FieldCategoryID, Value: categoryID})
	return p, nil
}

// Update changes an existing pattern.
func (s *Store) Update(ctx context.Context, id, pattern, categoryID string, priority int) (models.CategorizationPattern, error) {
	pattern, categoryID = strings.TrimSpace(pattern), strings.TrimSpace(categoryID)
	if pattern == "" || categoryID == "" {
		return models.CategorizationPattern{}, ErrEmptyPattern
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for i, e := range s.entries {
		if e.pattern.ID == id {
			return s.updateLocked(ctx, i, pattern, categoryID, priority)
		}
	}
	return models.CategorizationPattern{}, fmt.Errorf("%w: %s", ErrPatternNotFound, id)
}

func (s *Store) updateLocked(ctx context.Context, i int, pattern, categoryID string, priority int) (models.CategorizationPattern, error) {
	p := s.entries[i].pattern
	p.Pattern = pattern
	p.CategoryID = categoryID
	p.Priority = priority
	p.UpdatedAt = s.now().UTC()

	if err := s.repo.SavePattern(ctx, p); err != nil {
		return models.CategorizationPattern{}, fmt.Errorf("save pattern: %w", err)
	}
	s.entries[i] = entry{pattern: p, lower: strings.ToLower(pattern)}

	s.logger.Info("Pattern updated",
		logging.Field{Key: logging.FieldPattern, Value: pattern},
		logging.Field{Key: logging.FieldCategoryID, Value: categoryID})
	return p, nil
}

// Remove deletes a pattern.
func (s *Store) Remove(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, e := range s.entries {
		if e.pattern.ID != id {
			continue
		}
		if err := s.repo.DeletePattern(ctx, id); err != nil {
			return fmt.Errorf("delete pattern: %w", err)
		}
		s.entries = append(s.entries[:i:i], s.entries[i+1:]...)
		s.logger.Info("Pattern removed", logging.Field{Key: logging.FieldPattern, Value: e.pattern.Pattern})
		return nil
	}
	return fmt.Errorf("%w: %s", ErrPatternNotFound, id)
}
