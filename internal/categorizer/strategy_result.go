package categorizer

import (
	"fmt"
	"strings"
)

// StrategyResult records one strategy attempt.
type StrategyResult struct {
	Strategy string
	Found    bool
	Error    error
}

// StrategyResults aggregates the attempts made for one description.
type StrategyResults struct {
	Results []StrategyResult
}

// Add records an attempt.
func (sr *StrategyResults) Add(strategy string, found bool, err error) {
	sr.Results = append(sr.Results, StrategyResult{Strategy: strategy, Found: found, Error: err})
}

// GetErrors returns all errors encountered during strategy execution.
func (sr StrategyResults) GetErrors() []error {
	var errs []error
	for _, result := range sr.Results {
		if result.Error != nil {
			errs = append(errs, fmt.Errorf("%s strategy: %w", result.Strategy, result.Error))
		}
	}
	return errs
}

// Summary returns a human-readable summary of all strategy attempts.
func (sr StrategyResults) Summary() string {
	parts := make([]string, 0, len(sr.Results))
	for _, result := range sr.Results {
		status := "no_match"
		switch {
		case result.Error != nil:
			status = "failed"
		case result.Found:
			status = "success"
		}
		parts = append(parts, fmt.Sprintf("%s:%s", result.Strategy, status))
	}
	return strings.Join(parts, ", ")
}
