package categorizer

import (
	"context"

	"fjacquet/stmt-categorizer/internal/models"
)

// CategorizationStrategy defines a method for categorizing a transaction
// description. Strategies are tried in order; the first one reporting found
// wins.
type CategorizationStrategy interface {
	// Categorize returns the result, whether the strategy recognized the
	// description, and any error that must stop the chain.
	Categorize(ctx context.Context, description string) (models.CategorizationResult, bool, error)

	// Name returns the name of this strategy for logging and debugging purposes.
	Name() string
}
