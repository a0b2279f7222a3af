package stmtparser

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"fjacquet/stmt-categorizer/internal/detector"
	"fjacquet/stmt-categorizer/internal/logging"
	"fjacquet/stmt-categorizer/internal/models"
	"fjacquet/stmt-categorizer/internal/parsererror"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func genericStatement() string {
	row := func(d, desc, debit, credit string) string {
		return strings.TrimRight(fmt.Sprintf("%-12s%-33s%10s%12s", d, desc, debit, credit), " ")
	}
	return strings.Join([]string{
		"BANQUE EXEMPLE",
		"Titulaire : M. JEAN DUPONT",
		"Relevé n° 2024-01",
		"Date d'émission : 01/02/2024",
		"Arrêté au 31/01/2024",
		"Solde précédent : 1 234,56 €",
		"",
		row("Date", "Libellé", "Débit", "Crédit"),
		row("05/01/2024", "CB CARREFOUR MARKET", "45,90", ""),
		"07/01/2024  CB BOULANGERIE",
		row("25/01/2024", "VIR SALAIRE ACME", "", "2 000,00"),
	}, "\n")
}

func TestExtract_GenericStatement(t *testing.T) {
	logger := logging.NewMockLogger()
	res, err := New(logger).Extract(genericStatement(), detector.FormatAuto)
	require.NoError(t, err)

	stmt := res.Statement
	assert.Equal(t, "M. JEAN DUPONT", stmt.Holder.Name)
	assert.Equal(t, "2024-01", stmt.Info.StatementNumber)
	assert.Equal(t, date(2024, time.February, 1), stmt.Info.IssueDate)
	assert.Equal(t, date(2024, time.January, 31), stmt.Info.ClosingDate)
	require.NotNil(t, stmt.Info.OpeningBalance)
	assert.Equal(t, "1234.56", stmt.Info.OpeningBalance.String())

	ops := stmt.Operations()
	require.Len(t, ops, 2)

	assert.Equal(t, "CB CARREFOUR MARKET", ops[0].Description)
	assert.Equal(t, date(2024, time.January, 5), ops[0].OperationDate)
	assert.Equal(t, ops[0].OperationDate, ops[0].ValueDate)
	assert.True(t, ops[0].IsDebit())
	assert.Equal(t, "-45.9", ops[0].SignedAmount().String())

	assert.Equal(t, "VIR SALAIRE ACME", ops[1].Description)
	assert.False(t, ops[1].IsDebit())
	assert.Equal(t, "2000", ops[1].SignedAmount().String())

	for _, op := range ops {
		assert.NoError(t, op.Validate())
	}

	require.Len(t, res.SkippedLines, 1)
	assert.Equal(t, 10, res.SkippedLines[0].Line)
	assert.Equal(t, "07/01/2024  CB BOULANGERIE", res.SkippedLines[0].Text)
	assert.Len(t, logger.GetEntriesByLevel("DEBUG"), 1)
}

func TestExtract_SignedAmountsWithoutHeader(t *testing.T) {
	text := strings.Join([]string{
		"05/01/2024  CB PHARMACIE DU CENTRE     -12,50",
		"06/01/2024  REMBOURSEMENT SECU         +12,50",
		"07/01/2024  PRLV SEPA FREE MOBILE       19,99",
	}, "\n")

	res, err := New(logging.NewMockLogger()).Extract(text, detector.FormatAuto)
	require.NoError(t, err)
	ops := res.Statement.Operations()
	require.Len(t, ops, 3)

	assert.Equal(t, models.DirectionDebit, ops[0].Direction())
	assert.Equal(t, "12.5", ops[0].Debit.String())
	assert.Equal(t, models.DirectionCredit, ops[1].Direction())
	assert.Equal(t, models.DirectionDebit, ops[2].Direction(), "unsigned amounts default to debit")
	assert.Empty(t, res.SkippedLines)
}

func TestExtract_TwoAmountColumns(t *testing.T) {
	text := strings.Join([]string{
		"05/01/2024  06/01/2024  PRLV EDF        45,00      0,00",
		"08/01/2024  VIR CAF                     0,00     120,00",
		"09/01/2024  LIGNE INCOHERENTE           10,00     10,00",
		"10/01/2024  LIGNE VIDE                   0,00      0,00",
	}, "\n")

	res, err := New(logging.NewMockLogger()).Extract(text, detector.FormatAuto)
	require.NoError(t, err)
	ops := res.Statement.Operations()
	require.Len(t, ops, 2)

	assert.Equal(t, "PRLV EDF", ops[0].Description)
	assert.Equal(t, date(2024, time.January, 6), ops[0].ValueDate)
	assert.True(t, ops[0].IsDebit())
	assert.Equal(t, "45", ops[0].Debit.String())

	assert.Equal(t, "VIR CAF", ops[1].Description)
	assert.Equal(t, "120", ops[1].Credit.String())

	require.Len(t, res.SkippedLines, 2)
	assert.Contains(t, res.SkippedLines[0].Reason, "both debit and credit")
	assert.Contains(t, res.SkippedLines[1].Reason, "zero")
}

func TestExtract_DescriptionWithReferenceNumbers(t *testing.T) {
	text := "05/01/2024  PRLV SEPA EDF  123456      45,00"

	res, err := New(logging.NewMockLogger()).Extract(text, detector.FormatAuto)
	require.NoError(t, err)
	ops := res.Statement.Operations()
	require.Len(t, ops, 1)
	assert.Equal(t, "PRLV SEPA EDF 123456", ops[0].Description)
	assert.Equal(t, "45", ops[0].Debit.String())
}

func TestExtract_DateSeparators(t *testing.T) {
	text := strings.Join([]string{
		"05-01-2024  CB A     1,00",
		"06.01.2024  CB B     2,00",
	}, "\n")

	res, err := New(logging.NewMockLogger()).Extract(text, detector.FormatAuto)
	require.NoError(t, err)
	ops := res.Statement.Operations()
	require.Len(t, ops, 2)
	assert.Equal(t, date(2024, time.January, 5), ops[0].OperationDate)
	assert.Equal(t, date(2024, time.January, 6), ops[1].OperationDate)
}

func TestExtract_IgnoresBalanceLines(t *testing.T) {
	text := strings.Join([]string{
		"01/01/2024  SOLDE CREDITEUR AU 01/01/2024     1 000,00",
		"05/01/2024  CB CINEMA                           11,50",
		"31/01/2024  TOTAL DES OPERATIONS                11,50",
		"31/01/2024  NOUVEAU SOLDE                      988,50",
	}, "\n")

	res, err := New(logging.NewMockLogger()).Extract(text, detector.FormatAuto)
	require.NoError(t, err)
	require.Equal(t, 1, res.Statement.Len())
	assert.Equal(t, "CB CINEMA", res.Statement.Operation(0).Description)
	assert.Empty(t, res.SkippedLines)
}

func TestExtract_NoOperationsFound(t *testing.T) {
	text := strings.Join([]string{
		"Titulaire : M. X",
		"05/01/2024  CB SANS MONTANT",
		"06/01/2024  AUTRE LIGNE",
	}, "\n")

	_, err := New(logging.NewMockLogger()).Extract(text, detector.FormatAuto)
	require.Error(t, err)

	var noOps *parsererror.NoOperationsFoundError
	require.True(t, errors.As(err, &noOps))
	assert.Equal(t, 2, noOps.SkippedLines)
	assert.Equal(t, "auto", noOps.Format)
}

func TestExtract_Fortuneo(t *testing.T) {
	row := func(d, v, desc, debit, credit string) string {
		return strings.TrimRight(fmt.Sprintf("%-12s%-14s%-28s%10s%12s", d, v, desc, debit, credit), " ")
	}
	text := strings.Join([]string{
		"FORTUNEO",
		"Titulaire du compte : MME CLAIRE MARTIN",
		"Relevé n° 7         Date d'édition : 03/02/2024",
		"Relevé arrêté au 31/01/2024",
		"Ancien solde   850,00 €",
		row("Date opé.", "Date valeur", "Libellé", "Débit", "Crédit"),
		row("02/01/2024", "03/01/2024", "CARTE 01/01 SNCF CONNECT", "89,00", ""),
		row("15/01/2024", "15/01/2024", "VIR SEPA MME MARTIN", "", "300,00"),
		"20/01/2024  CB SANS DATE VALEUR         12,00",
	}, "\n")

	res, err := New(logging.NewMockLogger()).Extract(text, detector.FormatFortuneo)
	require.NoError(t, err)
	assert.Equal(t, detector.FormatFortuneo, res.Format)

	stmt := res.Statement
	assert.Equal(t, "MME CLAIRE MARTIN", stmt.Holder.Name)
	assert.Equal(t, "7", stmt.Info.StatementNumber)
	assert.Equal(t, date(2024, time.February, 3), stmt.Info.IssueDate)
	assert.Equal(t, date(2024, time.January, 31), stmt.Info.ClosingDate)
	require.NotNil(t, stmt.Info.OpeningBalance)
	assert.Equal(t, "850", stmt.Info.OpeningBalance.String())

	ops := stmt.Operations()
	require.Len(t, ops, 2)
	assert.Equal(t, "CARTE 01/01 SNCF CONNECT", ops[0].Description)
	assert.Equal(t, date(2024, time.January, 3), ops[0].ValueDate)
	assert.True(t, ops[0].IsDebit())
	assert.Equal(t, "300", ops[1].Credit.String())

	require.Len(t, res.SkippedLines, 1, "fortuneo lines always carry a value date")
	assert.Equal(t, 9, res.SkippedLines[0].Line)
}

func TestExtract_Boursobank(t *testing.T) {
	row := func(d, desc, v, debit, credit string) string {
		return strings.TrimRight(fmt.Sprintf("%-12s%-27s%-12s%10s%12s", d, desc, v, debit, credit), " ")
	}
	text := strings.Join([]string{
		"BoursoBank",
		"Intitulé du compte : M. PAUL DURAND",
		"Numéro de relevé : 0042",
		"Date d’émission : 05/02/2024",
		"SOLDE AU 31/12/2023                     1 500,00",
		row("Date", "Libellé", "Valeur", "Débit", "Crédit"),
		row("02/01/2024", "CARTE 31/12/23 MONOPRIX", "02/01/2024", "23,40", ""),
		row("05/01/2024", "VIR INST DE M. DURAND", "05/01/2024", "", "150,00"),
	}, "\n")

	res, err := New(logging.NewMockLogger()).Extract(text, detector.FormatBoursobank)
	require.NoError(t, err)

	stmt := res.Statement
	assert.Equal(t, "M. PAUL DURAND", stmt.Holder.Name)
	assert.Equal(t, "0042", stmt.Info.StatementNumber)
	assert.Equal(t, date(2024, time.February, 5), stmt.Info.IssueDate)
	require.NotNil(t, stmt.Info.OpeningBalance)
	assert.Equal(t, "1500", stmt.Info.OpeningBalance.String())

	ops := stmt.Operations()
	require.Len(t, ops, 2)
	assert.Equal(t, "CARTE 31/12/23 MONOPRIX", ops[0].Description)
	assert.True(t, ops[0].IsDebit())
	assert.Equal(t, "23.4", ops[0].Debit.String())
	assert.Equal(t, "VIR INST DE M. DURAND", ops[1].Description)
	assert.Equal(t, "150", ops[1].Credit.String())
}

func TestExtract_PreservesSourceOrder(t *testing.T) {
	var lines []string
	for i := 1; i <= 28; i++ {
		lines = append(lines, fmt.Sprintf("%02d/02/2024  OPERATION %02d      %d,00", i, i, i))
	}

	res, err := New(logging.NewMockLogger()).Extract(strings.Join(lines, "\n"), detector.FormatAuto)
	require.NoError(t, err)
	ops := res.Statement.Operations()
	require.Len(t, ops, 28)
	for i, op := range ops {
		assert.Equal(t, fmt.Sprintf("OPERATION %02d", i+1), op.Description)
	}
}

func TestGrammarFor(t *testing.T) {
	assert.Same(t, Generic, GrammarFor(detector.FormatAuto))
	assert.Same(t, Fortuneo, GrammarFor(detector.FormatFortuneo))
	assert.Same(t, Boursobank, GrammarFor(detector.FormatBoursobank))
	assert.Same(t, Generic, GrammarFor(""))
}

func TestExtract_KeepsOperationsNamedLikeLabels(t *testing.T) {
	generic := func(d, desc, debit, credit string) string {
		return strings.TrimRight(fmt.Sprintf("%-12s%-33s%10s%12s", d, desc, debit, credit), " ")
	}
	fortuneo := func(d, desc, debit, credit string) string {
		return strings.TrimRight(fmt.Sprintf("%-12s%-14s%-28s%10s%12s", d, d, desc, debit, credit), " ")
	}
	boursobank := func(d, desc, debit, credit string) string {
		return strings.TrimRight(fmt.Sprintf("%-12s%-27s%-12s%10s%12s", d, desc, d, debit, credit), " ")
	}

	tests := []struct {
		name   string
		format detector.Format
		row    func(d, desc, debit, credit string) string
		header string
	}{
		{"generic", detector.FormatAuto, generic, generic("Date", "Libellé", "Débit", "Crédit")},
		{"fortuneo", detector.FormatFortuneo, fortuneo,
			strings.TrimRight(fmt.Sprintf("%-12s%-14s%-28s%10s%12s", "Date opé.", "Date valeur", "Libellé", "Débit", "Crédit"), " ")},
		{"boursobank", detector.FormatBoursobank, boursobank,
			strings.TrimRight(fmt.Sprintf("%-12s%-27s%-12s%10s%12s", "Date", "Libellé", "Valeur", "Débit", "Crédit"), " ")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text := strings.Join([]string{
				tt.header,
				tt.row("05/01/2024", "CB CARREFOUR", "45,90", ""),
				tt.row("06/01/2024", "TOTAL ACCESS PARIS", "60,00", ""),
				tt.row("07/01/2024", "CARTE DEBIT CREDIT MUTUEL", "120,00", ""),
				tt.row("08/01/2024", "TOTAL DIRECT ENERGIE", "75,10", ""),
				tt.row("09/01/2024", "SOLDE TOUT COMPTE ACME", "", "450,00"),
				"31/01/2024  TOTAL DES OPERATIONS      300,00     450,00",
				"31/01/2024  NOUVEAU SOLDE                        150,00",
			}, "\n")

			res, err := New(logging.NewMockLogger()).Extract(text, tt.format)
			require.NoError(t, err)
			assert.Empty(t, res.SkippedLines)

			ops := res.Statement.Operations()
			require.Len(t, ops, 5)
			assert.Equal(t, "TOTAL ACCESS PARIS", ops[1].Description)
			assert.Equal(t, "CARTE DEBIT CREDIT MUTUEL", ops[2].Description)
			assert.True(t, ops[2].IsDebit())
			assert.Equal(t, "TOTAL DIRECT ENERGIE", ops[3].Description)
			assert.Equal(t, "SOLDE TOUT COMPTE ACME", ops[4].Description)
			assert.False(t, ops[4].IsDebit(), "column header still applies after a DEBIT/CREDIT description")
			assert.Equal(t, "450", ops[4].Credit.String())
		})
	}
}
