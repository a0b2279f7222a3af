package models

import "time"

// CategorizationPattern is a user-confirmed rule: any description containing
// Pattern (case-insensitively) belongs to CategoryID. CategoryID is either a
// vocabulary token or the id of a Category.
type CategorizationPattern struct {
	ID         string    `json:"id" yaml:"id"`
	Pattern    string    `json:"pattern" yaml:"pattern"`
	CategoryID string    `json:"category_id" yaml:"category_id"`
	Priority   int       `json:"priority" yaml:"priority"`
	CreatedAt  time.Time `json:"created_at" yaml:"created_at"`
	UpdatedAt  time.Time `json:"updated_at" yaml:"updated_at"`
}

// PatternsConfig represents the structure of the patterns YAML file.
type PatternsConfig struct {
	Patterns []CategorizationPattern `yaml:"patterns"`
}

// Categorization sources.
const (
	SourcePattern = "Pattern"
	SourceKeyword = "Keyword"
	SourceAI      = "AI"
)

// Confidence assigned to each stage.
const (
	ConfidencePattern = 1.0
	ConfidenceKeyword = 0.8
	ConfidenceAI      = 0.6
)

// CategorizationResult is the outcome of categorizing one description.
type CategorizationResult struct {
	Category       TransactionCategory `json:"category"`
	CategoryID     string              `json:"category_id,omitempty"`
	Source         string              `json:"source"`
	Confidence     float64             `json:"confidence"`
	MatchedPattern string              `json:"matched_pattern,omitempty"`
}
