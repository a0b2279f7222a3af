// Package detector decides which bank layout a statement document uses.
package detector

import (
	"fmt"
	"regexp"
	"strings"

	"fjacquet/stmt-categorizer/internal/logging"
	"fjacquet/stmt-categorizer/internal/parsererror"
	"fjacquet/stmt-categorizer/internal/textutils"
)

// Format identifies a statement layout.
type Format string

const (
	FormatAuto       Format = "auto"
	FormatFortuneo   Format = "fortuneo"
	FormatBoursobank Format = "boursobank"
)

// Formats lists the selectable formats.
func Formats() []Format {
	return []Format{FormatAuto, FormatFortuneo, FormatBoursobank}
}

// ParseFormat maps an operator selector to a Format. An empty selector means
// auto.
func ParseFormat(selector string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(selector))); f {
	case "":
		return FormatAuto, nil
	case FormatAuto, FormatFortuneo, FormatBoursobank:
		return f, nil
	default:
		return "", fmt.Errorf("unknown statement format %q (expected auto, fortuneo or boursobank)", selector)
	}
}

// Label returns the upper-case name used in reports.
func (f Format) Label() string {
	return strings.ToUpper(string(f))
}

func (f Format) String() string {
	return string(f)
}

// Document is an extracted statement text with the operator's format choice.
// Filename is only used for display.
type Document struct {
	Text     string
	Filename string
	Format   Format
}

// headerLines bounds content sniffing to the top of the document, where the
// issuing bank prints its name and BIC. Operation descriptions further down
// routinely mention other banks.
const headerLines = 40

type signature struct {
	format   Format
	patterns []*regexp.Regexp
}

var signatures = []signature{
	{
		format: FormatFortuneo,
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\bfortuneo\b`),
			regexp.MustCompile(`\bFTNOFRP1\b`),
		},
	},
	{
		format: FormatBoursobank,
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\bbourso(?:bank|rama)\b`),
			regexp.MustCompile(`\bBOUSFRPP\b`),
		},
	},
}

// Detector resolves the Format of a document.
type Detector struct {
	logger logging.Logger
}

// New creates a Detector.
func New(logger logging.Logger) *Detector {
	if logger == nil {
		logger = logging.GetLogger()
	}
	return &Detector{logger: logger}
}

// Detect returns the pinned format unchanged. For auto it sniffs the document
// header: a single bank signature selects that bank, several signatures are
// ambiguous, none falls back to the generic layout (auto).
func (d *Detector) Detect(doc Document) (Format, error) {
	if doc.Format != "" && doc.Format != FormatAuto {
		d.logger.Debug("Using pinned statement format",
			logging.Field{Key: logging.FieldFormat, Value: doc.Format},
			logging.Field{Key: logging.FieldFile, Value: doc.Filename})
		return doc.Format, nil
	}

	candidates := Sniff(doc.Text)
	switch len(candidates) {
	case 0:
		d.logger.Debug("No bank signature found, using generic layout",
			logging.Field{Key: logging.FieldFile, Value: doc.Filename})
		return FormatAuto, nil
	case 1:
		d.logger.Info("Detected statement format",
			logging.Field{Key: logging.FieldFormat, Value: candidates[0]},
			logging.Field{Key: logging.FieldFile, Value: doc.Filename})
		return candidates[0], nil
	default:
		names := make([]string, len(candidates))
		for i, c := range candidates {
			names[i] = string(c)
		}
		return "", &parsererror.FormatDetectionAmbiguousError{Filename: doc.Filename, Candidates: names}
	}
}

// Sniff returns every bank whose signature appears in the document header.
func Sniff(text string) []Format {
	lines := textutils.SplitLines(text)
	if len(lines) > headerLines {
		lines = lines[:headerLines]
	}
	head := strings.Join(lines, "\n")

	var found []Format
	for _, sig := range signatures {
		for _, re := range sig.patterns {
			if re.MatchString(head) {
				found = append(found, sig.format)
				break
			}
		}
	}
	return found
}
