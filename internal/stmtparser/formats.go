package stmtparser

import (
	"fjacquet/stmt-categorizer/internal/detector"
)

const apostrophe = `['’]`

// Generic covers statements from unrecognised banks: label synonyms used by
// most French banks, an optional value date after the operation date.
var Generic = newGrammar(grammarSpec{
	name:   string(detector.FormatAuto),
	holder: []string{`Titulaire`, `Nom du client`, `Compte de`},
	number: []string{`Relevé n°`, `Relevé numéro`, `Numéro de relevé`, `N° de relevé`},
	issueDate: []string{
		`Date d` + apostrophe + `émission`, `Date d` + apostrophe + `édition`, `Émis le`, `Edité le`,
	},
	closingDate:    []string{`Date d` + apostrophe + `arrêté`, `Arrêté au`, `Date de clôture`},
	openingBalance: []string{`Solde précédent`, `Ancien solde`, `Solde initial`, `Solde d` + apostrophe + `ouverture`},
	operation:      `^[ \t]*` + datePart + `(?:[ \t]+` + valuePart + `)?[ \t]+` + descPart + amountPart,
})

// Fortuneo prints the value date right after the operation date on every
// line.
var Fortuneo = newGrammar(grammarSpec{
	name:           string(detector.FormatFortuneo),
	holder:         []string{`Titulaire du compte`, `Titulaire`},
	number:         []string{`Relevé n°`, `N° de relevé`},
	issueDate:      []string{`Date d` + apostrophe + `édition`, `Edité le`},
	closingDate:    []string{`Relevé arrêté au`, `Arrêté au`},
	openingBalance: []string{`Ancien solde`, `Solde précédent`},
	operation:      `^[ \t]*` + datePart + `[ \t]+` + valuePart + `[ \t]+` + descPart + amountPart,
})

// Boursobank prints the value date in its own column between the label and
// the amounts.
var Boursobank = newGrammar(grammarSpec{
	name:           string(detector.FormatBoursobank),
	holder:         []string{`Intitulé du compte`, `Titulaire`},
	number:         []string{`Relevé n°`, `Numéro de relevé`},
	issueDate:      []string{`Date d` + apostrophe + `émission`, `Émis le`},
	closingDate:    []string{`Date d` + apostrophe + `arrêté`, `Arrêté au`},
	openingBalance: []string{`SOLDE AU \d{2}/\d{2}/\d{4}`, `Solde précédent`},
	operation:      `^[ \t]*` + datePart + `[ \t]+` + descPart + valuePart + `[ \t]+` + amountPart,
})

// GrammarFor returns the grammar of a format; auto maps to Generic.
func GrammarFor(f detector.Format) *Grammar {
	switch f {
	case detector.FormatFortuneo:
		return Fortuneo
	case detector.FormatBoursobank:
		return Boursobank
	default:
		return Generic
	}
}
