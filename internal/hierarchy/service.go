package hierarchy

import (
	"context"
	"errors"
	"fmt"

	"fjacquet/stmt-categorizer/internal/logging"
	"fjacquet/stmt-categorizer/internal/models"
)

var (
	// ErrUnknownCategory is returned when a category id is not in the store.
	ErrUnknownCategory = errors.New("unknown category")
	// ErrNoCategoryCode is returned when neither a category nor its
	// ancestors map to the vocabulary.
	ErrNoCategoryCode = errors.New("category has no vocabulary code")
)

// Service answers tree and resolution queries from the cached category list.
type Service struct {
	cache  *Cache
	logger logging.Logger
}

// NewService creates a Service over cache.
func NewService(cache *Cache, logger logging.Logger) *Service {
	if logger == nil {
		logger = logging.GetLogger()
	}
	return &Service{cache: cache, logger: logger}
}

// Tree returns the sorted category forest.
func (s *Service) Tree(ctx context.Context) ([]*models.Category, error) {
	flat, err := s.cache.Get(ctx)
	if err != nil {
		return nil, err
	}
	return Build(flat, s.logger), nil
}

// List returns the flat cached category list.
func (s *Service) List(ctx context.Context) ([]models.Category, error) {
	return s.cache.Get(ctx)
}

// Resolve maps a pattern target to the vocabulary. Vocabulary tokens resolve
// to themselves; category ids resolve to their own code or the nearest
// ancestor's.
func (s *Service) Resolve(ctx context.Context, categoryID string) (models.TransactionCategory, error) {
	if tc := models.TransactionCategory(categoryID); tc.IsValid() {
		return tc, nil
	}

	flat, err := s.cache.Get(ctx)
	if err != nil {
		return "", err
	}
	byID := make(map[string]models.Category, len(flat))
	for _, c := range flat {
		byID[c.ID] = c
	}

	id := categoryID
	seen := make(map[string]bool)
	for id != "" && !seen[id] {
		seen[id] = true
		c, ok := byID[id]
		if !ok {
			if id == categoryID {
				return "", fmt.Errorf("%w: %s", ErrUnknownCategory, categoryID)
			}
			break
		}
		if c.Code.IsValid() {
			return c.Code, nil
		}
		id = c.ParentID
	}
	return "", fmt.Errorf("%w: %s", ErrNoCategoryCode, categoryID)
}

// Invalidate drops the cached list after a write.
func (s *Service) Invalidate() {
	s.cache.Invalidate()
}
