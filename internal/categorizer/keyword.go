package categorizer

import (
	"context"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"

	"fjacquet/stmt-categorizer/internal/logging"
	"fjacquet/stmt-categorizer/internal/models"
)

// KeywordSource loads keyword rules, typically from keywords.yaml.
type KeywordSource interface {
	LoadKeywordRules() ([]models.KeywordRule, error)
}

type keyword struct {
	text     string
	category models.TransactionCategory
}

// KeywordStrategy implements categorization using keyword matching. A
// keyword matches when it appears in the description as whole words; when
// several match, the longest keyword wins, then the earliest rule.
type KeywordStrategy struct {
	source KeywordSource
	logger logging.Logger

	mu       sync.RWMutex
	keywords []keyword
}

// NewKeywordStrategy creates a new KeywordStrategy and loads its rules. A
// nil source, or one yielding no rules, falls back to DefaultKeywordRules.
func NewKeywordStrategy(source KeywordSource, logger logging.Logger) *KeywordStrategy {
	if logger == nil {
		logger = logging.GetLogger()
	}
	s := &KeywordStrategy{source: source, logger: logger}
	s.ReloadRules()
	return s
}

// Name returns the name of this strategy for logging and debugging.
func (s *KeywordStrategy) Name() string {
	return models.SourceKeyword
}

// ReloadRules reloads the rules from the source.
func (s *KeywordStrategy) ReloadRules() {
	var rules []models.KeywordRule
	if s.source != nil {
		loaded, err := s.source.LoadKeywordRules()
		if err != nil {
			s.logger.WithError(err).Warn("Failed to load keyword rules, using built-in rules")
		} else {
			rules = loaded
		}
	}
	if len(rules) == 0 {
		rules = DefaultKeywordRules()
	}

	var keywords []keyword
	for _, rule := range rules {
		if !rule.Category.IsValid() {
			continue
		}
		for _, k := range rule.Keywords {
			k = strings.ToUpper(strings.TrimSpace(k))
			if k == "" {
				continue
			}
			keywords = append(keywords, keyword{text: k, category: rule.Category})
		}
	}

	s.mu.Lock()
	s.keywords = keywords
	s.mu.Unlock()

	s.logger.WithField(logging.FieldCount, len(keywords)).Debug("Loaded keyword rules")
}

// Categorize attempts to categorize a description using keyword matching.
func (s *KeywordStrategy) Categorize(_ context.Context, description string) (models.CategorizationResult, bool, error) {
	desc := strings.ToUpper(strings.TrimSpace(description))
	if desc == "" {
		return models.CategorizationResult{}, false, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	best := -1
	for i, k := range s.keywords {
		if !containsWord(desc, k.text) {
			continue
		}
		if best < 0 || len(k.text) > len(s.keywords[best].text) {
			best = i
		}
	}
	if best < 0 {
		return models.CategorizationResult{}, false, nil
	}

	k := s.keywords[best]
	s.logger.WithFields(
		logging.Field{Key: logging.FieldStrategy, Value: s.Name()},
		logging.Field{Key: "keyword", Value: k.text},
		logging.Field{Key: logging.FieldCategory, Value: k.category},
	).Debug("Transaction categorized using keyword matching")

	return models.CategorizationResult{
		Category:       k.category,
		CategoryID:     string(k.category),
		Source:         models.SourceKeyword,
		Confidence:     models.ConfidenceKeyword,
		MatchedPattern: k.text,
	}, true, nil
}

// containsWord reports whether word occurs in s with no letter or digit
// immediately before or after it.
func containsWord(s, word string) bool {
	for offset := 0; offset <= len(s)-len(word); {
		i := strings.Index(s[offset:], word)
		if i < 0 {
			return false
		}
		start := offset + i
		end := start + len(word)

		before, _ := utf8.DecodeLastRuneInString(s[:start])
		after, _ := utf8.DecodeRuneInString(s[end:])
		if (start == 0 || !isWordRune(before)) && (end == len(s) || !isWordRune(after)) {
			return true
		}
		_, size := utf8.DecodeRuneInString(s[start:])
		offset = start + size
	}
	return false
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

// DefaultKeywordRules returns the built-in rules for common French merchants
// and bank wordings.
func DefaultKeywordRules() []models.KeywordRule {
	return []models.KeywordRule{
		{Category: models.CategoryFood, Keywords: []string{
			"CARREFOUR", "LECLERC", "AUCHAN", "INTERMARCHE", "MONOPRIX", "FRANPRIX", "LIDL", "ALDI",
			"BIOCOOP", "PICARD", "BOULANGERIE", "BOUCHERIE", "RESTAURANT", "PIZZERIA", "SUSHI", "KEBAB",
		}},
		{Category: models.CategoryTransport, Keywords: []string{
			"SNCF", "RATP", "NAVIGO", "UBER", "BLABLACAR", "PEAGE", "AUTOROUTE", "TOTALENERGIES", "ESSO",
		}},
		{Category: models.CategoryHousing, Keywords: []string{
			"LOYER", "EDF", "ENGIE", "VEOLIA", "FONCIA", "SYNDIC",
		}},
		{Category: models.CategoryLeisure, Keywords: []string{
			"CINEMA", "PISCINE", "NETFLIX", "SPOTIFY", "DEEZER", "THEATRE", "MUSEE",
		}},
		{Category: models.CategoryHealth, Keywords: []string{
			"PHARMACIE", "MEDECIN", "DOCTEUR", "DENTISTE", "MUTUELLE", "LABORATOIRE",
		}},
		{Category: models.CategoryShopping, Keywords: []string{
			"AMAZON", "FNAC", "DECATHLON", "IKEA", "ZARA", "DARTY", "LEROY MERLIN",
		}},
		{Category: models.CategoryServices, Keywords: []string{
			"ORANGE", "SFR", "BOUYGUES TELECOM", "FREE MOBILE", "PRESSING", "COTISATION", "FRAIS",
		}},
		{Category: models.CategoryEducation, Keywords: []string{
			"ECOLE", "UNIVERSITE", "CANTINE", "LIBRAIRIE",
		}},
		{Category: models.CategoryGifts, Keywords: []string{
			"INTERFLORA", "FLEURISTE", "CADEAU",
		}},
		{Category: models.CategoryVeterinary, Keywords: []string{
			"VETERINAIRE", "CLINIQUE VETERINAIRE", "ANIMALERIE",
		}},
		{Category: models.CategoryIncome, Keywords: []string{
			"SALAIRE", "PAIE", "CAF", "FRANCE TRAVAIL", "REMBOURSEMENT",
		}},
		{Category: models.CategoryTransfers, Keywords: []string{
			"VIREMENT", "VIR SEPA", "VIR INST", "RETRAIT DAB",
		}},
	}
}
