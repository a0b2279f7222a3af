package categorizer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"fjacquet/stmt-categorizer/internal/logging"
	"fjacquet/stmt-categorizer/internal/models"
	"fjacquet/stmt-categorizer/internal/parsererror"
)

// Defaults for the AI strategy.
const (
	DefaultRequestsPerMinute = 10
	DefaultAITimeout         = 30 * time.Second
)

// AIStrategy classifies descriptions with a remote AIClient. Every call
// waits on a shared rate limiter and runs under its own timeout.
type AIStrategy struct {
	aiClient AIClient
	limiter  *rate.Limiter
	timeout  time.Duration
	logger   logging.Logger
}

// NewAIStrategy creates a new AIStrategy. requestsPerMinute <= 0 disables
// rate limiting and timeout <= 0 uses DefaultAITimeout.
func NewAIStrategy(aiClient AIClient, requestsPerMinute int, timeout time.Duration, logger logging.Logger) *AIStrategy {
	if timeout <= 0 {
		timeout = DefaultAITimeout
	}
	if logger == nil {
		logger = logging.GetLogger()
	}
	limiter := rate.NewLimiter(rate.Inf, 1)
	if requestsPerMinute > 0 {
		limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(requestsPerMinute)), 1)
	}
	return &AIStrategy{
		aiClient: aiClient,
		limiter:  limiter,
		timeout:  timeout,
		logger:   logger,
	}
}

// Name returns the name of this strategy for logging and debugging.
func (s *AIStrategy) Name() string {
	return models.SourceAI
}

// Categorize asks the remote classifier. It never reports a miss: the
// answer is either a vocabulary token or an error.
func (s *AIStrategy) Categorize(ctx context.Context, description string) (models.CategorizationResult, bool, error) {
	if s.aiClient == nil {
		return models.CategorizationResult{}, false, &parsererror.ClassificationUnavailableError{
			Description: description,
			Err:         fmt.Errorf("no AI client configured"),
		}
	}

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.limiter.Wait(callCtx); err != nil {
		if ctx.Err() != nil {
			return models.CategorizationResult{}, false, &parsererror.ClassificationUnavailableError{
				Description: description,
				Err:         ctx.Err(),
			}
		}
		return models.CategorizationResult{}, false, fmt.Errorf("%w: %v", parsererror.ErrRateLimited, err)
	}

	output, err := s.aiClient.Classify(callCtx, description)
	if err != nil {
		s.logger.WithError(err).WithFields(
			logging.Field{Key: logging.FieldStrategy, Value: s.Name()},
			logging.Field{Key: logging.FieldDescription, Value: description},
		).Warn("AI categorization failed")
		return models.CategorizationResult{}, false, &parsererror.ClassificationUnavailableError{
			Description: description,
			Err:         err,
		}
	}

	category, ok := NormalizeClassification(output)
	if !ok {
		s.logger.WithFields(
			logging.Field{Key: logging.FieldStrategy, Value: s.Name()},
			logging.Field{Key: logging.FieldDescription, Value: description},
			logging.Field{Key: "ai_output", Value: output},
		).Warn("AI returned a value outside the category vocabulary")
		return models.CategorizationResult{}, false, &parsererror.InvalidClassificationOutputError{
			Description: description,
			Output:      output,
		}
	}

	s.logger.WithFields(
		logging.Field{Key: logging.FieldStrategy, Value: s.Name()},
		logging.Field{Key: logging.FieldDescription, Value: description},
		logging.Field{Key: logging.FieldCategory, Value: category},
	).Debug("Transaction categorized using AI")

	return models.CategorizationResult{
		Category:   category,
		CategoryID: string(category),
		Source:     models.SourceAI,
		Confidence: models.ConfidenceAI,
	}, true, nil
}

// NormalizeClassification turns a raw classifier answer into a vocabulary
// token. Surrounding whitespace, quotes and trailing punctuation are
// dropped and the rest upper-cased; the result must then match a token
// exactly.
func NormalizeClassification(output string) (models.TransactionCategory, bool) {
	s := strings.TrimSpace(output)
	s = strings.Trim(s, "\"'`*")
	s = strings.TrimRight(s, ".,;:!? \t\r\n")
	s = strings.Trim(strings.TrimSpace(s), "\"'`*")
	s = strings.ToUpper(s)

	category, err := models.ParseTransactionCategory(s)
	if err != nil {
		return "", false
	}
	return category, true
}
