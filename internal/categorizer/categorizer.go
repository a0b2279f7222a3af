// Package categorizer assigns a category to transaction descriptions using,
// in order:
// 1. User-confirmed patterns from the pattern store
// 2. Keyword rules from keywords.yaml
// 3. AI-based classification using a Gemini model as a fallback
package categorizer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"fjacquet/stmt-categorizer/internal/logging"
	"fjacquet/stmt-categorizer/internal/models"
	"fjacquet/stmt-categorizer/internal/parsererror"
)

// ErrPatternNotInDescription is returned by Confirm when the pattern would
// not match the description it was confirmed for.
var ErrPatternNotInDescription = errors.New("pattern does not occur in description")

// PatternStore is the pattern store as seen by the categorizer.
type PatternStore interface {
	PatternMatcher
	Add(ctx context.Context, pattern, categoryID string, priority int) (models.CategorizationPattern, error)
}

// Options tunes the AI strategy.
type Options struct {
	RequestsPerMinute int
	Timeout           time.Duration
}

// Categorizer runs the strategies in order and returns the first result.
type Categorizer struct {
	strategies []CategorizationStrategy
	patterns   PatternStore
	resolver   CategoryResolver
	logger     logging.Logger
}

// NewCategorizer creates a Categorizer with the pattern, keyword and AI
// strategies. A nil aiClient makes every description that reaches the AI
// stage fail with ClassificationUnavailableError.
func NewCategorizer(patterns PatternStore, resolver CategoryResolver, keywords KeywordSource, aiClient AIClient, opts Options, logger logging.Logger) *Categorizer {
	if logger == nil {
		logger = logging.GetLogger()
	}
	return NewCategorizerWithStrategies(patterns, resolver, logger,
		NewPatternStrategy(patterns, resolver, logger),
		NewKeywordStrategy(keywords, logger),
		NewAIStrategy(aiClient, opts.RequestsPerMinute, opts.Timeout, logger),
	)
}

// NewCategorizerWithStrategies creates a Categorizer running strategies in
// the given order.
func NewCategorizerWithStrategies(patterns PatternStore, resolver CategoryResolver, logger logging.Logger, strategies ...CategorizationStrategy) *Categorizer {
	if logger == nil {
		logger = logging.GetLogger()
	}
	if resolver == nil {
		resolver = tokenResolver{}
	}
	return &Categorizer{
		strategies: strategies,
		patterns:   patterns,
		resolver:   resolver,
		logger:     logger,
	}
}

// Categorize returns the category of description. The first strategy that
// recognizes it wins; a strategy error stops the chain and is returned
// wrapped in a CategorizationError.
func (c *Categorizer) Categorize(ctx context.Context, description string) (models.CategorizationResult, error) {
	if strings.TrimSpace(description) == "" {
		return models.CategorizationResult{}, fmt.Errorf("description must not be empty")
	}

	var attempts StrategyResults
	for _, strategy := range c.strategies {
		if err := ctx.Err(); err != nil {
			return models.CategorizationResult{}, err
		}

		result, found, err := strategy.Categorize(ctx, description)
		attempts.Add(strategy.Name(), found, err)
		if err != nil {
			c.logger.WithFields(
				logging.Field{Key: logging.FieldDescription, Value: description},
				logging.Field{Key: "attempts", Value: attempts.Summary()},
			).Debug("Categorization failed")
			return models.CategorizationResult{}, &parsererror.CategorizationError{
				Transaction: description,
				Strategy:    strategy.Name(),
				Err:         err,
			}
		}
		if found {
			c.logger.WithFields(
				logging.Field{Key: logging.FieldDescription, Value: description},
				logging.Field{Key: logging.FieldCategory, Value: result.Category},
				logging.Field{Key: "attempts", Value: attempts.Summary()},
			).Debug("Transaction categorized")
			return result, nil
		}
	}

	return models.CategorizationResult{}, &parsererror.ClassificationUnavailableError{
		Description: description,
		Err:         fmt.Errorf("no strategy recognized the description (%s)", attempts.Summary()),
	}
}

// Confirm records the user's decision that descriptions containing pattern
// belong to categoryID. pattern defaults to the whole description and must
// occur in it.
func (c *Categorizer) Confirm(ctx context.Context, description, pattern, categoryID string) (models.CategorizationPattern, error) {
	if c.patterns == nil {
		return models.CategorizationPattern{}, fmt.Errorf("no pattern store configured")
	}
	pattern = strings.TrimSpace(pattern)
	if pattern == "" {
		pattern = strings.TrimSpace(description)
	}
	if description != "" && !strings.Contains(strings.ToLower(description), strings.ToLower(pattern)) {
		return models.CategorizationPattern{}, fmt.Errorf("%w: %q", ErrPatternNotInDescription, pattern)
	}
	if _, err := c.resolver.Resolve(ctx, categoryID); err != nil {
		return models.CategorizationPattern{}, fmt.Errorf("invalid category %q: %w", categoryID, err)
	}

	p, err := c.patterns.Add(ctx, pattern, categoryID, 0)
	if err != nil {
		return models.CategorizationPattern{}, err
	}
	c.logger.WithFields(
		logging.Field{Key: logging.FieldPattern, Value: p.Pattern},
		logging.Field{Key: logging.FieldCategoryID, Value: p.CategoryID},
	).Info("Categorization confirmed")
	return p, nil
}
