package models

import (
	"fmt"
	"strings"
)

// TransactionCategory is the fixed vocabulary every categorization resolves to.
type TransactionCategory string

const (
	CategoryFood       TransactionCategory = "FOOD"
	CategoryTransport  TransactionCategory = "TRANSPORT"
	CategoryHousing    TransactionCategory = "HOUSING"
	CategoryLeisure    TransactionCategory = "LEISURE"
	CategoryHealth     TransactionCategory = "HEALTH"
	CategoryShopping   TransactionCategory = "SHOPPING"
	CategoryServices   TransactionCategory = "SERVICES"
	CategoryEducation  TransactionCategory = "EDUCATION"
	CategoryGifts      TransactionCategory = "GIFTS"
	CategoryVeterinary TransactionCategory = "VETERINARY"
	CategoryIncome     TransactionCategory = "INCOME"
	CategoryTransfers  TransactionCategory = "TRANSFERS"
	CategoryOther      TransactionCategory = "OTHER"
)

var allCategories = []TransactionCategory{
	CategoryFood,
	CategoryTransport,
	CategoryHousing,
	CategoryLeisure,
	CategoryHealth,
	CategoryShopping,
	CategoryServices,
	CategoryEducation,
	CategoryGifts,
	CategoryVeterinary,
	CategoryIncome,
	CategoryTransfers,
	CategoryOther,
}

var categoryLabels = map[TransactionCategory]string{
	CategoryFood:       "Alimentation",
	CategoryTransport:  "Transports",
	CategoryHousing:    "Logement",
	CategoryLeisure:    "Loisirs",
	CategoryHealth:     "Santé",
	CategoryShopping:   "Shopping",
	CategoryServices:   "Services",
	CategoryEducation:  "Éducation",
	CategoryGifts:      "Cadeaux",
	CategoryVeterinary: "Vétérinaire",
	CategoryIncome:     "Revenus",
	CategoryTransfers:  "Virements",
	CategoryOther:      "Autre",
}

// AllCategories returns the vocabulary in canonical order.
func AllCategories() []TransactionCategory {
	out := make([]TransactionCategory, len(allCategories))
	copy(out, allCategories)
	return out
}

// ParseTransactionCategory accepts an exact vocabulary token.
func ParseTransactionCategory(s string) (TransactionCategory, error) {
	c := TransactionCategory(s)
	if !c.IsValid() {
		return "", fmt.Errorf("unknown transaction category %q", s)
	}
	return c, nil
}

// IsValid reports whether c belongs to the vocabulary.
func (c TransactionCategory) IsValid() bool {
	_, ok := categoryLabels[c]
	return ok
}

// Label returns the French display name of the category.
func (c TransactionCategory) Label() string {
	if l, ok := categoryLabels[c]; ok {
		return l
	}
	return string(c)
}

func (c TransactionCategory) String() string {
	return string(c)
}

// Category is a node of the user's category tree. Rows read from a store are
// flat (Children empty); hierarchy.Build links them.
type Category struct {
	ID       string              `json:"id" yaml:"id" csv:"id"`
	Name     string              `json:"name" yaml:"name" csv:"name"`
	ParentID string              `json:"parent_id,omitempty" yaml:"parent_id,omitempty" csv:"parent_id"`
	Code     TransactionCategory `json:"code,omitempty" yaml:"code,omitempty" csv:"code"`
	Children []*Category         `json:"children,omitempty" yaml:"-" csv:"-"`
}

// IsRoot reports whether the category has no parent.
func (c Category) IsRoot() bool {
	return strings.TrimSpace(c.ParentID) == ""
}

// KeywordRule maps merchant keywords to a vocabulary category.
type KeywordRule struct {
	Category TransactionCategory `yaml:"category"`
	Keywords []string            `yaml:"keywords"`
}

// KeywordsConfig represents the structure of the keywords YAML file.
type KeywordsConfig struct {
	Rules []KeywordRule `yaml:"rules"`
}
