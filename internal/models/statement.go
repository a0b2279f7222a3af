// Package models provides the data structures shared by the import pipeline:
// statements and their operations, categories, patterns and categorization
// results.
package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// TransactionDirection represents the direction of an operation.
type TransactionDirection string

const (
	DirectionDebit  TransactionDirection = "debit"
	DirectionCredit TransactionDirection = "credit"
)

// AccountHolder identifies the owner of the statement's account.
type AccountHolder struct {
	Name string `json:"name" yaml:"name"`
}

// StatementInfo carries the statement-level metadata. Zero dates and a nil
// opening balance mean the field was not found in the document.
type StatementInfo struct {
	StatementNumber string           `json:"statement_number,omitempty" yaml:"statement_number,omitempty"`
	IssueDate       time.Time        `json:"issue_date,omitempty" yaml:"issue_date,omitempty"`
	ClosingDate     time.Time        `json:"closing_date,omitempty" yaml:"closing_date,omitempty"`
	OpeningBalance  *decimal.Decimal `json:"opening_balance,omitempty" yaml:"opening_balance,omitempty"`
}

// BankOperation is a single line of a statement. Exactly one of Debit and
// Credit is set, and both are positive magnitudes.
type BankOperation struct {
	OperationDate time.Time        `json:"operation_date" yaml:"operation_date"`
	ValueDate     time.Time        `json:"value_date" yaml:"value_date"`
	Description   string           `json:"description" yaml:"description"`
	Debit         *decimal.Decimal `json:"debit,omitempty" yaml:"debit,omitempty"`
	Credit        *decimal.Decimal `json:"credit,omitempty" yaml:"credit,omitempty"`
}

var (
	errNoAmount       = errors.New("operation has neither debit nor credit")
	errBothAmounts    = errors.New("operation has both debit and credit")
	errNegativeAmount = errors.New("operation amount must be a positive magnitude")
)

// NewDebitOperation builds a debit operation of the given magnitude.
func NewDebitOperation(opDate, valueDate time.Time, description string, amount decimal.Decimal) BankOperation {
	a := amount.Abs()
	return BankOperation{OperationDate: opDate, ValueDate: valueDate, Description: description, Debit: &a}
}

// NewCreditOperation builds a credit operation of the given magnitude.
func NewCreditOperation(opDate, valueDate time.Time, description string, amount decimal.Decimal) BankOperation {
	a := amount.Abs()
	return BankOperation{OperationDate: opDate, ValueDate: valueDate, Description: description, Credit: &a}
}

// Validate checks the debit/credit invariant and the operation date.
func (o BankOperation) Validate() error {
	switch {
	case o.Debit == nil && o.Credit == nil:
		return errNoAmount
	case o.Debit != nil && o.Credit != nil:
		return errBothAmounts
	case o.Debit != nil && o.Debit.IsNegative(), o.Credit != nil && o.Credit.IsNegative():
		return errNegativeAmount
	case o.OperationDate.IsZero():
		return fmt.Errorf("operation %q has no date", o.Description)
	}
	return nil
}

// Direction reports whether the operation is a debit or a credit.
func (o BankOperation) Direction() TransactionDirection {
	if o.Debit != nil {
		return DirectionDebit
	}
	return DirectionCredit
}

// IsDebit returns true if the operation is a debit.
func (o BankOperation) IsDebit() bool {
	return o.Debit != nil
}

// SignedAmount returns the credit as a positive value or the debit as a
// negative one.
func (o BankOperation) SignedAmount() decimal.Decimal {
	switch {
	case o.Debit != nil:
		return o.Debit.Neg()
	case o.Credit != nil:
		return *o.Credit
	default:
		return decimal.Zero
	}
}

// Magnitude returns the absolute amount of the operation.
func (o BankOperation) Magnitude() decimal.Decimal {
	return o.SignedAmount().Abs()
}

// BankStatement is the immutable result of extracting one document.
type BankStatement struct {
	Holder     AccountHolder   `json:"holder"`
	Info       StatementInfo   `json:"info"`
	operations []BankOperation
}

// NewBankStatement builds a statement, copying the operation slice.
func NewBankStatement(holder AccountHolder, info StatementInfo, ops []BankOperation) *BankStatement {
	cp := make([]BankOperation, len(ops))
	copy(cp, ops)
	return &BankStatement{Holder: holder, Info: info, operations: cp}
}

// Operations returns a copy of the statement's operations in source order.
func (s *BankStatement) Operations() []BankOperation {
	cp := make([]BankOperation, len(s.operations))
	copy(cp, s.operations)
	return cp
}

// Operation returns the operation at index i.
func (s *BankStatement) Operation(i int) BankOperation {
	return s.operations[i]
}

// Len returns the number of operations.
func (s *BankStatement) Len() int {
	return len(s.operations)
}

// Totals returns the sum of debits and credits as positive magnitudes.
func (s *BankStatement) Totals() (debits, credits decimal.Decimal) {
	for _, op := range s.operations {
		if op.Debit != nil {
			debits = debits.Add(*op.Debit)
		} else if op.Credit != nil {
			credits = credits.Add(*op.Credit)
		}
	}
	return debits, credits
}

// MarshalJSON exposes the operations alongside holder and metadata.
func (s *BankStatement) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Holder     AccountHolder   `json:"holder"`
		Info       StatementInfo   `json:"info"`
		Operations []BankOperation `json:"operations"`
	}{s.Holder, s.Info, s.operations})
}
