// Package stmtparser extracts holder, metadata and operations from the text
// of a bank statement. Each supported bank contributes a Grammar; a single
// scan driver applies it.
package stmtparser

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"

	"fjacquet/stmt-categorizer/internal/currencyutils"
	"fjacquet/stmt-categorizer/internal/dateutils"
	"fjacquet/stmt-categorizer/internal/detector"
	"fjacquet/stmt-categorizer/internal/logging"
	"fjacquet/stmt-categorizer/internal/models"
	"fjacquet/stmt-categorizer/internal/parsererror"
	"fjacquet/stmt-categorizer/internal/textutils"
)

// SkippedLine is an operation-shaped line that was dropped.
type SkippedLine struct {
	Line   int    `json:"line"`
	Text   string `json:"text"`
	Reason string `json:"reason"`
}

// Result is the outcome of extracting one document.
type Result struct {
	Statement    *models.BankStatement
	Format       detector.Format
	SkippedLines []SkippedLine
}

// Extractor runs the shared scan driver. It holds no mutable state and is
// safe for concurrent use.
type Extractor struct {
	logger logging.Logger
}

// New creates an Extractor.
func New(logger logging.Logger) *Extractor {
	if logger == nil {
		logger = logging.GetLogger()
	}
	return &Extractor{logger: logger}
}

var (
	errNoAmount        = errors.New("no amount at end of line")
	errBothAmounts     = errors.New("both debit and credit are non-zero")
	errNoNonZeroAmount = errors.New("all amounts are zero")
)

type columns struct {
	debitEnd, creditEnd int
	known               bool
}

// Extract parses text with the grammar of format. It fails with
// NoOperationsFoundError when no operation line could be read.
func (e *Extractor) Extract(text string, format detector.Format) (*Result, error) {
	g := GrammarFor(format)
	log := e.logger.WithField(logging.FieldFormat, g.Name)

	holder := models.AccountHolder{}
	if v, ok := textutils.FirstLabeledValue(text, g.holder); ok {
		holder.Name = firstColumn(v)
	}
	info := e.extractInfo(text, g)

	var (
		ops     []models.BankOperation
		skipped []SkippedLine
		cols    columns
	)
	for i, line := range textutils.SplitLines(text) {
		if !g.shape.MatchString(line) {
			if m := g.header.FindStringSubmatchIndex(line); m != nil {
				cols = columns{
					debitEnd:  textutils.RuneOffset(line, m[2*g.header.SubexpIndex("debit")+1]),
					creditEnd: textutils.RuneOffset(line, m[2*g.header.SubexpIndex("credit")+1]),
					known:     true,
				}
			}
			continue
		}
		if g.ignore.MatchString(line) {
			continue
		}

		op, err := g.parseOperation(line, cols)
		if err != nil {
			malformed := &parsererror.MalformedOperationLineError{
				Line: i + 1, Text: strings.TrimSpace(line), Reason: err.Error(), Err: err,
			}
			log.Debug("Skipping malformed operation line",
				logging.Field{Key: logging.FieldLine, Value: malformed.Line},
				logging.Field{Key: logging.FieldReason, Value: malformed.Reason})
			skipped = append(skipped, SkippedLine{Line: malformed.Line, Text: malformed.Text, Reason: malformed.Reason})
			continue
		}
		ops = append(ops, op)
	}

	if len(ops) == 0 {
		return nil, &parsererror.NoOperationsFoundError{Format: g.Name, SkippedLines: len(skipped)}
	}

	log.Info("Extracted statement",
		logging.Field{Key: logging.FieldCount, Value: len(ops)},
		logging.Field{Key: "skipped", Value: len(skipped)})

	return &Result{
		Statement:    models.NewBankStatement(holder, info, ops),
		Format:       format,
		SkippedLines: skipped,
	}, nil
}

func (e *Extractor) extractInfo(text string, g *Grammar) models.StatementInfo {
	var info models.StatementInfo
	if v, ok := textutils.FirstLabeledValue(text, g.number); ok {
		if fields := strings.Fields(firstColumn(v)); len(fields) > 0 {
			info.StatementNumber = fields[0]
		}
	}
	if v, ok := textutils.FirstLabeledValue(text, g.issueDate); ok {
		info.IssueDate, _ = dateutils.FindDate(v)
	}
	if v, ok := textutils.FirstLabeledValue(text, g.closingDate); ok {
		info.ClosingDate, _ = dateutils.FindDate(v)
	}
	if v, ok := textutils.FirstLabeledValue(text, g.openingBalance); ok {
		if tok := amountToken.FindString(v); tok != "" {
			if amount, err := currencyutils.ParseAmount(tok); err == nil {
				info.OpeningBalance = &amount
			} else {
				e.logger.Debug("Ignoring unparseable opening balance",
					logging.Field{Key: logging.FieldReason, Value: err.Error()})
			}
		}
	}
	return info
}

func (g *Grammar) parseOperation(line string, cols columns) (models.BankOperation, error) {
	m := g.operation.FindStringSubmatchIndex(line)
	if m == nil {
		return models.BankOperation{}, errNoAmount
	}
	group := func(name string) (string, int) {
		idx := g.operation.SubexpIndex(name)
		if idx < 0 || m[2*idx] < 0 {
			return "", -1
		}
		return line[m[2*idx]:m[2*idx+1]], m[2*idx+1]
	}

	dateStr, _ := group("date")
	opDate, err := dateutils.ParseStatementDate(dateStr)
	if err != nil {
		return models.BankOperation{}, err
	}
	valueDate := opDate
	if v, _ := group("value"); v != "" {
		if valueDate, err = dateutils.ParseStatementDate(v); err != nil {
			return models.BankOperation{}, err
		}
	}
	desc, _ := group("desc")
	desc = strings.Join(strings.Fields(desc), " ")

	first, firstEnd := group("first")
	second, _ := group("second")

	direction, amount, err := g.attribute(line, first, firstEnd, second, cols)
	if err != nil {
		return models.BankOperation{}, err
	}
	if direction == models.DirectionCredit {
		return models.NewCreditOperation(opDate, valueDate, desc, amount), nil
	}
	return models.NewDebitOperation(opDate, valueDate, desc, amount), nil
}

// attribute decides whether the amount tokens of a line form a debit or a
// credit. Two tokens are debit then credit. A single token follows its sign,
// then the column header, then the grammar default.
func (g *Grammar) attribute(line, first string, firstEnd int, second string, cols columns) (models.TransactionDirection, decimal.Decimal, error) {
	a, err := parseToken(g.Name, first)
	if err != nil {
		return "", decimal.Zero, err
	}

	if second != "" {
		b, err := parseToken(g.Name, second)
		if err != nil {
			return "", decimal.Zero, err
		}
		switch {
		case !a.IsZero() && !b.IsZero():
			return "", decimal.Zero, errBothAmounts
		case !a.IsZero():
			return models.DirectionDebit, a.Abs(), nil
		case !b.IsZero():
			return models.DirectionCredit, b.Abs(), nil
		default:
			return "", decimal.Zero, errNoNonZeroAmount
		}
	}

	switch first[0] {
	case '-':
		return models.DirectionDebit, a.Abs(), nil
	case '+':
		return models.DirectionCredit, a.Abs(), nil
	}
	if strings.HasPrefix(first, "−") {
		return models.DirectionDebit, a.Abs(), nil
	}

	if cols.known {
		end := textutils.RuneOffset(line, firstEnd)
		if abs(end-cols.creditEnd) < abs(end-cols.debitEnd) {
			return models.DirectionCredit, a, nil
		}
		return models.DirectionDebit, a, nil
	}
	return g.unsignedSingle, a, nil
}

func parseToken(parser, tok string) (decimal.Decimal, error) {
	amount, err := currencyutils.ParseAmount(tok)
	if err != nil {
		return decimal.Zero, &parsererror.ParseError{Parser: parser, Field: "amount", Value: tok, Err: err}
	}
	return amount, nil
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
