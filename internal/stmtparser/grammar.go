package stmtparser

import (
	"regexp"
	"strings"

	"fjacquet/stmt-categorizer/internal/dateutils"
	"fjacquet/stmt-categorizer/internal/models"
)

// AmountPattern matches a currency amount with cents: optional sign, digit
// groups separated by space, NBSP, '.', ',' or apostrophe, and an optional
// euro marker.
const AmountPattern = `[+\-\x{2212}]?\d{1,3}(?:[ \x{00A0}\x{202F}.,']?\d{3})*[.,]\d{2}(?:[ \x{00A0}]?(?:€|EUR))?`

var (
	amountToken = regexp.MustCompile(AmountPattern)
	columnRun   = regexp.MustCompile(`[ \t]{2,}|\t`)
)

// Grammar is the per-bank part of extraction: label alternations and the
// shape of an operation line. The scan itself is shared.
type Grammar struct {
	Name string

	holder         []*regexp.Regexp
	number         []*regexp.Regexp
	issueDate      []*regexp.Regexp
	closingDate    []*regexp.Regexp
	openingBalance []*regexp.Regexp

	// operation has the named groups date, value (optional), desc, first and
	// second (optional).
	operation *regexp.Regexp
	// shape matches any line that starts like an operation, amount or not.
	shape *regexp.Regexp
	// header locates the debit and credit columns (named groups debit, credit).
	header *regexp.Regexp
	// ignore matches balance and total lines that look like operations.
	ignore *regexp.Regexp

	// unsignedSingle is the direction of a lone unsigned amount when no
	// column header has been seen.
	unsignedSingle models.TransactionDirection
}

type grammarSpec struct {
	name           string
	holder         []string
	number         []string
	issueDate      []string
	closingDate    []string
	openingBalance []string
	operation      string
}

const (
	datePart   = `(?P<date>` + dateutils.DatePattern + `)`
	valuePart  = `(?P<value>` + dateutils.DatePattern + `)`
	descPart   = `(?P<desc>\S.*?)(?:[ ]{2,}|\t)[ \t]*`
	amountPart = `(?P<first>` + AmountPattern + `)(?:[ \t]+(?P<second>` + AmountPattern + `))?[ \t]*$`
)

// balanceLabel names the running-balance and total rows banks print between
// operations. Merchants such as TOTAL or CREDIT MUTUEL must not match.
const balanceLabel = `(?:(?:ancien|nouveau)[ \t]+solde` +
	`|solde[ \t]+(?:au|pr[ée]c[ée]dent|initial|final|cr[ée]diteur|d[ée]biteur|d` + apostrophe + `ouverture|de[ \t]+cl[ôo]ture)` +
	`|total[ \t]+des[ \t]+(?:op[ée]rations|mouvements|d[ée]bits|cr[ée]dits))\b`

func newGrammar(spec grammarSpec) *Grammar {
	return &Grammar{
		Name:           spec.name,
		holder:         labelPatterns(spec.holder),
		number:         labelPatterns(spec.number),
		issueDate:      labelPatterns(spec.issueDate),
		closingDate:    labelPatterns(spec.closingDate),
		openingBalance: labelPatterns(spec.openingBalance),
		operation:      regexp.MustCompile(spec.operation),
		shape:          regexp.MustCompile(`^[ \t]*` + dateutils.DatePattern + `[ \t]+\S`),
		header:         regexp.MustCompile(`(?i)(?P<debit>d[ée]bit)\b.*?\b(?P<credit>cr[ée]dit)\b`),
		ignore: regexp.MustCompile(`(?i)^[ \t]*(?:` + dateutils.DatePattern + `[ \t]+){0,2}` + balanceLabel),
		unsignedSingle: models.DirectionDebit,
	}
}

// labelPatterns compiles one pattern per label; the value is the rest of the
// line after an optional colon.
func labelPatterns(labels []string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(labels))
	for _, l := range labels {
		out = append(out, regexp.MustCompile(`(?im)`+l+`[ \t]*:?[ \t]*([^\n]*)`))
	}
	return out
}

// firstColumn cuts a label value at the next column gap.
func firstColumn(s string) string {
	if loc := columnRun.FindStringIndex(s); loc != nil {
		s = s[:loc[0]]
	}
	return strings.TrimSpace(s)
}
