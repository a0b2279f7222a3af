package store

import (
	"context"
	"sync"

	"fjacquet/stmt-categorizer/internal/models"
)

// MockCategoryStore is an in-memory stand-in for CategoryStore.
type MockCategoryStore struct {
	Categories   []models.Category
	Patterns     []models.CategorizationPattern
	KeywordRules []models.KeywordRule

	ListErr     error
	SaveErr     error
	KeywordsErr error

	mu        sync.Mutex
	ListCalls int
}

// NewMockCategoryStore creates a mock seeded with categories.
func NewMockCategoryStore(categories ...models.Category) *MockCategoryStore {
	return &MockCategoryStore{Categories: categories}
}

// ListCategories returns the seeded categories.
func (m *MockCategoryStore) ListCategories(_ context.Context) ([]models.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ListCalls++
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	return append([]models.Category(nil), m.Categories...), nil
}

// SaveCategories replaces the seeded categories.
func (m *MockCategoryStore) SaveCategories(_ context.Context, categories []models.Category) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SaveErr != nil {
		return m.SaveErr
	}
	m.Categories = append([]models.Category(nil), categories...)
	return nil
}

// LoadKeywordRules returns the seeded rules.
func (m *MockCategoryStore) LoadKeywordRules() ([]models.KeywordRule, error) {
	if m.KeywordsErr != nil {
		return nil, m.KeywordsErr
	}
	return m.KeywordRules, nil
}

// ListPatterns returns the seeded patterns.
func (m *MockCategoryStore) ListPatterns(_ context.Context) ([]models.CategorizationPattern, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	return append([]models.CategorizationPattern(nil), m.Patterns...), nil
}

// SavePattern upserts a pattern by id.
func (m *MockCategoryStore) SavePattern(_ context.Context, p models.CategorizationPattern) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SaveErr != nil {
		return m.SaveErr
	}
	for i := range m.Patterns {
		if m.Patterns[i].ID == p.ID {
			m.Patterns[i] = p
			return nil
		}
	}
	m.Patterns = append(m.Patterns, p)
	return nil
}

// DeletePattern removes a pattern by id.
func (m *MockCategoryStore) DeletePattern(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SaveErr != nil {
		return m.SaveErr
	}
	for i := range m.Patterns {
		if m.Patterns[i].ID == id {
			m.Patterns = append(m.Patterns[:i], m.Patterns[i+1:]...)
			return nil
		}
	}
	return nil
}
