package models

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestRawTable_Rename(t *testing.T) {
	table := NewRawTable([]string{"PROCEDIMENTO", "OD", "AMB"}, [][]string{{"CONSULTA", "", "AMB"}})

	table.Rename(map[string]string{"OD": "Seg. Odontológica", "AMB": "Seg. Ambulatorial", "HCO": "unused"})

	assert.Equal(t, []string{"PROCEDIMENTO", "Seg. Odontológica", "Seg. Ambulatorial"}, table.Columns)
	assert.Equal(t, 1, table.Len())
}

func TestRawTable_ColumnIndex(t *testing.T) {
	table := NewRawTable([]string{"DATA", "REG_ANS", " VL_SALDO_FINAL "}, nil)

	assert.Equal(t, 1, table.ColumnIndex("reg_ans"))
	assert.Equal(t, 2, table.ColumnIndex("vl_saldo_final"))
	assert.Equal(t, -1, table.ColumnIndex("missing"))
}

func TestRawTable_Strings(t *testing.T) {
	table := &RawTable{
		Columns: []string{"a", "b", "c"},
		Rows:    [][]any{{"x", decimal.RequireFromString("1234.56")}, {nil, "y", "z"}},
	}

	assert.Equal(t, [][]string{{"x", "1234.56", ""}, {"", "y", "z"}}, table.Strings())
}

func TestAppError_Is(t *testing.T) {
	cause := errors.New("duplicate key value violates unique constraint")
	err := NewAppError(KindLoadTransaction, "Relatorio_cadop.csv", "insert failed", cause)

	assert.ErrorIs(t, err, ErrLoadTransaction)
	assert.ErrorIs(t, err, cause)
	assert.NotErrorIs(t, err, ErrExtraction)
	assert.Equal(t, KindLoadTransaction, KindOf(err))
	assert.Equal(t, ErrorKind(""), KindOf(cause))
}

func TestRunSummary_Record(t *testing.T) {
	summary := &RunSummary{}

	summary.Record(FileOutcome{Path: "1T2024.csv", Inserted: 10, Filtered: 2})
	summary.Record(FileOutcome{Path: "2T2024.csv", Err: errors.New("boom")})

	assert.Equal(t, 2, summary.FilesProcessed)
	assert.Equal(t, 1, summary.FilesSucceeded)
	assert.Equal(t, 1, summary.FilesFailed)
	assert.Equal(t, int64(10), summary.RowsInserted)
	assert.Equal(t, int64(2), summary.RowsFiltered)
	assert.Len(t, summary.Failures, 1)
}
