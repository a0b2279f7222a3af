// Package currencyutils normalizes the amount notations found in French bank
// statements into decimal values.
package currencyutils

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	currencyMarkers = strings.NewReplacer(
		"€", "", "EUR", "", "eur", "", "CHF", "", "$", "",
		"'", "", "’", "",
		" ", "", "\u00a0", "", "\u202f", "", "\t", "",
		"\u2212", "-",
	)
	standardAmount = regexp.MustCompile(`^[+-]?\d+(\.\d+)?$`)

	errEmptyAmount = errors.New("empty amount")
)

// ParseAmount parses a statement amount such as "1 234,56 €", "1.234,56",
// "1,234.56", "-45,00" or "1234.56" into a decimal value.
func ParseAmount(amountStr string) (decimal.Decimal, error) {
	standardized := StandardizeAmount(amountStr)
	if standardized == "" || standardized == "+" || standardized == "-" {
		return decimal.Zero, fmt.Errorf("failed to parse amount '%s': %w", amountStr, errEmptyAmount)
	}
	if !standardAmount.MatchString(standardized) {
		return decimal.Zero, fmt.Errorf("failed to parse amount '%s': unexpected characters in %q", amountStr, standardized)
	}

	amount, err := decimal.NewFromString(standardized)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to parse amount '%s': %w", amountStr, err)
	}
	return amount, nil
}

// StandardizeAmount rewrites an amount into the plain "-1234.56" notation
// understood by decimal.NewFromString. Currency markers and every kind of
// space are dropped. When both '.' and ',' appear, the rightmost one is the
// decimal separator. A single separator followed by exactly three digits is a
// thousands separator; otherwise it is the decimal separator.
func StandardizeAmount(amountStr string) string {
	s := currencyMarkers.Replace(strings.TrimSpace(amountStr))

	sign := ""
	switch {
	case strings.HasPrefix(s, "-"), strings.HasPrefix(s, "+"):
		sign, s = s[:1], s[1:]
	case strings.HasSuffix(s, "-"):
		sign, s = "-", strings.TrimSuffix(s, "-")
	}
	if sign == "+" {
		sign = ""
	}

	lastDot := strings.LastIndex(s, ".")
	lastComma := strings.LastIndex(s, ",")

	switch {
	case lastDot >= 0 && lastComma >= 0:
		if lastComma > lastDot {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.Replace(s, ",", ".", 1)
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case lastComma >= 0:
		s = normalizeSingleSeparator(s, ",")
	case lastDot >= 0:
		s = normalizeSingleSeparator(s, ".")
	}

	return sign + s
}

func normalizeSingleSeparator(s, sep string) string {
	if strings.Count(s, sep) > 1 {
		return strings.ReplaceAll(s, sep, "")
	}
	idx := strings.Index(s, sep)
	if len(s)-idx-1 == 3 && idx > 0 {
		return strings.Replace(s, sep, "", 1)
	}
	return strings.Replace(s, sep, ".", 1)
}

// FormatAmount renders an amount the way French statements print it:
// "1 234,56 €". An empty currency omits the suffix.
func FormatAmount(amount decimal.Decimal, currency string) string {
	fixed := amount.Abs().StringFixed(2)
	intPart, frac, _ := strings.Cut(fixed, ".")

	var b strings.Builder
	if amount.IsNegative() {
		b.WriteString("-")
	}
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteString(" ")
		}
		b.WriteRune(r)
	}
	b.WriteString(",")
	b.WriteString(frac)

	switch strings.ToUpper(currency) {
	case "":
	case "EUR":
		b.WriteString(" €")
	default:
		b.WriteString(" " + strings.ToUpper(currency))
	}
	return b.String()
}
