package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var jan5 = time.Date(2024, time.January, 5, 0, 0, 0, 0, time.UTC)

func TestBankOperation_SignedAmount(t *testing.T) {
	debit := NewDebitOperation(jan5, jan5, "CB CARREFOUR", decimal.RequireFromString("-45.90"))
	credit := NewCreditOperation(jan5, jan5, "VIR SALAIRE", decimal.RequireFromString("2000"))

	assert.True(t, debit.IsDebit())
	assert.Equal(t, DirectionDebit, debit.Direction())
	assert.Equal(t, "-45.9", debit.SignedAmount().String())
	assert.Equal(t, "45.9", debit.Magnitude().String())

	assert.False(t, credit.IsDebit())
	assert.Equal(t, DirectionCredit, credit.Direction())
	assert.Equal(t, "2000", credit.SignedAmount().String())
}

func TestBankOperation_Validate(t *testing.T) {
	amount := decimal.NewFromInt(10)
	negative := decimal.NewFromInt(-10)

	tests := []struct {
		name    string
		op      BankOperation
		wantErr bool
	}{
		{"debit only", BankOperation{OperationDate: jan5, Debit: &amount}, false},
		{"credit only", BankOperation{OperationDate: jan5, Credit: &amount}, false},
		{"no amount", BankOperation{OperationDate: jan5}, true},
		{"both amounts", BankOperation{OperationDate: jan5, Debit: &amount, Credit: &amount}, true},
		{"negative magnitude", BankOperation{OperationDate: jan5, Debit: &negative}, true},
		{"missing date", BankOperation{Debit: &amount}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.op.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestBankStatement_IsImmutable(t *testing.T) {
	ops := []BankOperation{
		NewDebitOperation(jan5, jan5, "A", decimal.NewFromInt(1)),
		NewCreditOperation(jan5, jan5, "B", decimal.NewFromInt(2)),
	}
	stmt := NewBankStatement(AccountHolder{Name: "M. DUPONT"}, StatementInfo{}, ops)

	ops[0].Description = "changed"
	got := stmt.Operations()
	got[1].Description = "changed too"

	assert.Equal(t, "A", stmt.Operation(0).Description)
	assert.Equal(t, "B", stmt.Operation(1).Description)
	assert.Equal(t, 2, stmt.Len())

	debits, credits := stmt.Totals()
	assert.Equal(t, "1", debits.String())
	assert.Equal(t, "2", credits.String())
}

func TestBankStatement_MarshalJSON(t *testing.T) {
	stmt := NewBankStatement(AccountHolder{Name: "Mme MARTIN"}, StatementInfo{StatementNumber: "12"},
		[]BankOperation{NewDebitOperation(jan5, jan5, "CB", decimal.NewFromInt(3))})

	raw, err := json.Marshal(stmt)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Len(t, decoded["operations"], 1)
	assert.Equal(t, "Mme MARTIN", decoded["holder"].(map[string]interface{})["name"])
}

func TestTransactionCategory(t *testing.T) {
	all := AllCategories()
	require.Len(t, all, 13)
	assert.Equal(t, CategoryFood, all[0])
	assert.Equal(t, CategoryOther, all[len(all)-1])

	c, err := ParseTransactionCategory("VETERINARY")
	require.NoError(t, err)
	assert.Equal(t, CategoryVeterinary, c)
	assert.Equal(t, "Vétérinaire", c.Label())

	_, err = ParseTransactionCategory("food")
	assert.Error(t, err, "tokens are matched exactly")
	_, err = ParseTransactionCategory("PIZZA")
	assert.Error(t, err)

	assert.Equal(t, "PIZZA", TransactionCategory("PIZZA").Label())
}

func TestCategory_IsRoot(t *testing.T) {
	assert.True(t, Category{ID: "1"}.IsRoot())
	assert.True(t, Category{ID: "1", ParentID: "  "}.IsRoot())
	assert.False(t, Category{ID: "2", ParentID: "1"}.IsRoot())
}
