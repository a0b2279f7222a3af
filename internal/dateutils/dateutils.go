// Package dateutils parses the day-first dates printed on French bank
// statements and renders them in ISO form.
package dateutils

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Date layouts recognised on statements.
const (
	DateLayoutISO      = "2006-01-02"
	DateLayoutSlash    = "02/01/2006"
	DateLayoutDash     = "02-01-2006"
	DateLayoutEuropean = "02.01.2006"
)

// StatementFormats lists the layouts tried by ParseStatementDate, in order.
var StatementFormats = []string{
	DateLayoutSlash,
	DateLayoutDash,
	DateLayoutEuropean,
	DateLayoutISO,
}

// DatePattern matches a DD/MM/YYYY, DD-MM-YYYY or DD.MM.YYYY token.
const DatePattern = `\d{2}[/.\-]\d{2}[/.\-]\d{4}`

var dateToken = regexp.MustCompile(DatePattern)

// ParseStatementDate parses a day-first statement date into a UTC midnight
// time.Time.
func ParseStatementDate(dateStr string) (time.Time, error) {
	dateStr = strings.TrimSpace(dateStr)
	for _, layout := range StatementFormats {
		if t, err := time.ParseInLocation(layout, dateStr, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unable to parse date: %q", dateStr)
}

// FindDate returns the first parseable date token in s.
func FindDate(s string) (time.Time, bool) {
	for _, tok := range dateToken.FindAllString(s, -1) {
		if t, err := ParseStatementDate(tok); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ToISODate formats a time.Time value as an ISO date (YYYY-MM-DD). The zero
// time renders as an empty string.
func ToISODate(date time.Time) string {
	if date.IsZero() {
		return ""
	}
	return date.Format(DateLayoutISO)
}
