// Package store provides the file-backed record store: categories, patterns
// and keyword rules kept as YAML (or CSV for categories) next to the user's
// configuration.
package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/gocarina/gocsv"
	"gopkg.in/yaml.v3"

	"fjacquet/stmt-categorizer/internal/logging"
	"fjacquet/stmt-categorizer/internal/models"
)

// CategoryStore manages loading and saving of category data.
type CategoryStore struct {
	CategoriesFile string
	PatternsFile   string
	KeywordsFile   string

	logger logging.Logger
	mu     sync.Mutex
}

// categoriesDocument is the layout of categories.yaml.
type categoriesDocument struct {
	Categories []models.Category `yaml:"categories"`
}

// NewCategoryStore creates a new store for category-related data.
func NewCategoryStore(categoriesFile, patternsFile, keywordsFile string, logger logging.Logger) *CategoryStore {
	if logger == nil {
		logger = logging.GetLogger()
	}
	return &CategoryStore{
		CategoriesFile: categoriesFile,
		PatternsFile:   patternsFile,
		KeywordsFile:   keywordsFile,
		logger:         logger,
	}
}

// FindConfigFile looks for a configuration file in standard locations.
func (s *CategoryStore) FindConfigFile(filename string) (string, error) {
	if filepath.IsAbs(filename) {
		if _, err := os.Stat(filename); err == nil {
			return filename, nil
		}
		return "", os.ErrNotExist
	}

	locations := []string{
		filename,
		filepath.Join("config", filename),
		filepath.Join("database", filename),
	}
	if homeDir, err := os.UserHomeDir(); err == nil {
		locations = append(locations, filepath.Join(homeDir, ".config", "stmt-categorizer", filename))
	}

	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location, nil
		}
	}
	return "", os.ErrNotExist
}

// readConfigFile returns the file's content, or nil when it does not exist.
func (s *CategoryStore) readConfigFile(filename string) ([]byte, string, error) {
	path, err := s.FindConfigFile(filename)
	if err != nil {
		s.logger.Warn("Configuration file not found", logging.Field{Key: logging.FieldFile, Value: filename})
		return nil, filename, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, path, fmt.Errorf("error reading %s: %w", path, err)
	}
	return data, path, nil
}

// writeConfigFile writes data to the resolved location of filename, or to
// filename itself when it does not exist yet.
func (s *CategoryStore) writeConfigFile(filename string, data []byte) error {
	path, err := s.FindConfigFile(filename)
	if err != nil {
		path = filename
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("error creating directory for %s: %w", path, err)
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("error writing %s: %w", path, err)
	}
	s.logger.Debug("Saved configuration file", logging.Field{Key: logging.FieldFile, Value: path})
	return nil
}

func isCSV(filename string) bool {
	return strings.EqualFold(filepath.Ext(filename), ".csv")
}

// ListCategories loads the flat category rows. A .csv file is read with
// columns id,name,parent_id,code; anything else is YAML, either under a
// top-level "categories" key or as a bare list.
func (s *CategoryStore) ListCategories(_ context.Context) ([]models.Category, error) {
	filename := s.CategoriesFile
	if filename == "" {
		filename = "categories.yaml"
	}
	data, path, err := s.readConfigFile(filename)
	if err != nil || data == nil {
		return []models.Category{}, err
	}

	var categories []models.Category
	if isCSV(path) {
		if err := gocsv.UnmarshalBytes(data, &categories); err != nil {
			return nil, fmt.Errorf("error parsing categories CSV %s: %w", path, err)
		}
	} else {
		var doc categoriesDocument
		if err := yaml.Unmarshal(data, &doc); err == nil && len(doc.Categories) > 0 {
			categories = doc.Categories
		} else if err := yaml.Unmarshal(data, &categories); err != nil {
			return nil, fmt.Errorf("error parsing categories file %s: %w", path, err)
		}
	}

	for i := range categories {
		categories[i].ID = strings.TrimSpace(categories[i].ID)
		categories[i].ParentID = strings.TrimSpace(categories[i].ParentID)
	}
	s.logger.Debug("Loaded categories",
		logging.Field{Key: logging.FieldCount, Value: len(categories)},
		logging.Field{Key: logging.FieldFile, Value: path})
	return categories, nil
}

// SaveCategories replaces the category file, in CSV or YAML according to
// its extension.
func (s *CategoryStore) SaveCategories(_ context.Context, categories []models.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	filename := s.CategoriesFile
	if filename == "" {
		filename = "categories.yaml"
	}

	flat := make([]models.Category, len(categories))
	for i, c := range categories {
		c.Children = nil
		flat[i] = c
	}

	var (
		data []byte
		err  error
	)
	if isCSV(filename) {
		data, err = gocsv.MarshalBytes(&flat)
	} else {
		data, err = yaml.Marshal(categoriesDocument{Categories: flat})
	}
	if err != nil {
		return fmt.Errorf("error marshaling categories: %w", err)
	}
	return s.writeConfigFile(filename, data)
}

// LoadKeywordRules loads the keyword heuristics from keywords.yaml.
func (s *CategoryStore) LoadKeywordRules() ([]models.KeywordRule, error) {
	filename := s.KeywordsFile
	if filename == "" {
		filename = "keywords.yaml"
	}
	data, path, err := s.readConfigFile(filename)
	if err != nil || data == nil {
		return nil, err
	}

	var cfg models.KeywordsConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("error parsing keywords file %s: %w", path, err)
	}

	rules := cfg.Rules[:0]
	for _, r := range cfg.Rules {
		if !r.Category.IsValid() {
			s.logger.Warn("Skipping keyword rule with unknown category",
				logging.Field{Key: logging.FieldCategory, Value: r.Category})
			continue
		}
		rules = append(rules, r)
	}
	return rules, nil
}

func (s *CategoryStore) loadPatternsLocked() ([]models.CategorizationPattern, error) {
	filename := s.patternsFile()
	data, path, err := s.readConfigFile(filename)
	if err != nil || data == nil {
		return nil, err
	}
	var cfg models.PatternsConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("error parsing patterns file %s: %w", path, err)
	}
	return cfg.Patterns, nil
}

func (s *CategoryStore) patternsFile() string {
	if s.PatternsFile == "" {
		return "patterns.yaml"
	}
	return s.PatternsFile
}

func (s *CategoryStore) savePatternsLocked(list []models.CategorizationPattern) error {
	data, err := yaml.Marshal(models.PatternsConfig{Patterns: list})
	if err != nil {
		return fmt.Errorf("error marshaling patterns: %w", err)
	}
	return s.writeConfigFile(s.patternsFile(), data)
}

// ListPatterns returns the patterns stored in patterns.yaml.
func (s *CategoryStore) ListPatterns(_ context.Context) ([]models.CategorizationPattern, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadPatternsLocked()
}

// SavePattern inserts or replaces a pattern by id and rewrites the file.
func (s *CategoryStore) SavePattern(_ context.Context, p models.CategorizationPattern) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	list, err := s.loadPatternsLocked()
	if err != nil {
		return err
	}
	replaced := false
	for i := range list {
		if list[i].ID == p.ID {
			list[i] = p
			replaced = true
			break
		}
	}
	if !replaced {
		list = append(list, p)
	}
	return s.savePatternsLocked(list)
}

// DeletePattern removes a pattern by id and rewrites the file.
func (s *CategoryStore) DeletePattern(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	list, err := s.loadPatternsLocked()
	if err != nil {
		return err
	}
	kept := list[:0]
	for _, p := range list {
		if p.ID != id {
			kept = append(kept, p)
		}
	}
	return s.savePatternsLocked(kept)
}
