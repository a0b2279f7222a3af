package categorizer

import (
	"context"
	"errors"
	"fmt"

	"fjacquet/stmt-categorizer/internal/hierarchy"
	"fjacquet/stmt-categorizer/internal/logging"
	"fjacquet/stmt-categorizer/internal/models"
)

// PatternMatcher finds the user-confirmed pattern for a description.
type PatternMatcher interface {
	FindMatchingPattern(description string) (models.CategorizationPattern, bool)
}

// CategoryResolver maps a pattern's category id to the vocabulary.
type CategoryResolver interface {
	Resolve(ctx context.Context, categoryID string) (models.TransactionCategory, error)
}

// tokenResolver resolves vocabulary tokens only; used when no hierarchy is
// configured.
type tokenResolver struct{}

func (tokenResolver) Resolve(_ context.Context, categoryID string) (models.TransactionCategory, error) {
	tc, err := models.ParseTransactionCategory(categoryID)
	if err != nil {
		return "", fmt.Errorf("%w: %s", hierarchy.ErrUnknownCategory, categoryID)
	}
	return tc, nil
}

// unresolvable reports whether err means the pattern's category is gone or
// has no code, as opposed to the hierarchy being unreadable.
func unresolvable(err error) bool {
	return errors.Is(err, hierarchy.ErrUnknownCategory) || errors.Is(err, hierarchy.ErrNoCategoryCode)
}

// PatternStrategy categorizes from the pattern store. It never calls a
// remote service.
type PatternStrategy struct {
	patterns PatternMatcher
	resolver CategoryResolver
	logger   logging.Logger
}

// NewPatternStrategy creates a new PatternStrategy. A nil resolver accepts
// vocabulary tokens only.
func NewPatternStrategy(patterns PatternMatcher, resolver CategoryResolver, logger logging.Logger) *PatternStrategy {
	if resolver == nil {
		resolver = tokenResolver{}
	}
	if logger == nil {
		logger = logging.GetLogger()
	}
	return &PatternStrategy{patterns: patterns, resolver: resolver, logger: logger}
}

// Name returns the name of this strategy for logging and debugging.
func (s *PatternStrategy) Name() string {
	return models.SourcePattern
}

// Categorize looks the description up in the pattern store. A match whose
// category no longer exists is logged and treated as a miss; any other
// resolver failure is returned so the chain stops before the AI stage.
func (s *PatternStrategy) Categorize(ctx context.Context, description string) (models.CategorizationResult, bool, error) {
	if s.patterns == nil {
		return models.CategorizationResult{}, false, nil
	}
	p, ok := s.patterns.FindMatchingPattern(description)
	if !ok {
		return models.CategorizationResult{}, false, nil
	}

	code, err := s.resolver.Resolve(ctx, p.CategoryID)
	if err != nil && !unresolvable(err) {
		return models.CategorizationResult{}, false, fmt.Errorf("resolve category %s: %w", p.CategoryID, err)
	}
	if err != nil {
		s.logger.WithError(err).WithFields(
			logging.Field{Key: logging.FieldStrategy, Value: s.Name()},
			logging.Field{Key: logging.FieldPattern, Value: p.Pattern},
			logging.Field{Key: logging.FieldCategoryID, Value: p.CategoryID},
		).Warn("Matched pattern points to an unresolvable category")
		return models.CategorizationResult{}, false, nil
	}

	s.logger.WithFields(
		logging.Field{Key: logging.FieldStrategy, Value: s.Name()},
		logging.Field{Key: logging.FieldPattern, Value: p.Pattern},
		logging.Field{Key: logging.FieldCategory, Value: code},
	).Debug("Transaction categorized using pattern")

	return models.CategorizationResult{
		Category:       code,
		CategoryID:     p.CategoryID,
		Source:         models.SourcePattern,
		Confidence:     models.ConfidencePattern,
		MatchedPattern: p.Pattern,
	}, true, nil
}
