// Package textutils provides text decoding and label extraction utilities for
// statement documents.
package textutils

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var lineBreak = regexp.MustCompile(`\r\n|\r|\n`)

// FirstLabeledValue tries each pattern in order and returns the first
// capture group of the first match, trimmed. Patterns must have one group.
func FirstLabeledValue(text string, patterns []*regexp.Regexp) (string, bool) {
	for _, re := range patterns {
		matches := re.FindStringSubmatch(text)
		if len(matches) > 1 {
			if v := strings.TrimSpace(matches[1]); v != "" {
				return v, true
			}
		}
	}
	return "", false
}

// SplitLines splits text on any line ending and removes the form feeds that
// pdftotext inserts at page breaks. Trailing whitespace is kept so column
// positions survive.
func SplitLines(text string) []string {
	text = strings.ReplaceAll(text, "\f", "")
	return lineBreak.Split(text, -1)
}

// Snippet returns at most n runes of s, for error messages.
func Snippet(s string, n int) string {
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n]) + "..."
}

// RuneOffset converts a byte offset within s into a rune (column) offset.
func RuneOffset(s string, byteOffset int) int {
	if byteOffset > len(s) {
		byteOffset = len(s)
	}
	return utf8.RuneCountInString(s[:byteOffset])
}
