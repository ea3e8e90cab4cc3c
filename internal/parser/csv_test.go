package parser

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ThiagoRGoveia/ans-operadoras/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTempFile(t *testing.T, name string, content []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, content, 0o644))
	return path
}

func TestReadCSV(t *testing.T) {
	t.Run("Success case - quoted semicolon file with comma decimals", func(t *testing.T) {
		content := "\"DATA\";\"REG_ANS\";\"CD_CONTA_CONTABIL\";\"DESCRICAO\";\"VL_SALDO_INICIAL\";\"VL_SALDO_FINAL\"\n" +
			"\"2024-01-01\";\"123456\";\"41111\";\"EVENTOS/ SINISTROS\";\"1.234,56\";\"2.000,00\"\n" +
			"\"2024-01-01\";\"654321\";\"41111\";\"OUTROS; COM PONTO E VIRGULA\";\"0,00\";\"10,50\"\n"
		path := createTempFile(t, "1T2024.csv", []byte(content))

		table, err := ReadCSV(path)

		require.NoError(t, err)
		assert.Equal(t, []string{"DATA", "REG_ANS", "CD_CONTA_CONTABIL", "DESCRICAO", "VL_SALDO_INICIAL", "VL_SALDO_FINAL"}, table.Columns)
		require.Equal(t, 2, table.Len())
		assert.Equal(t, "1.234,56", table.Cell(0, 4))
		assert.Equal(t, "OUTROS; COM PONTO E VIRGULA", table.Cell(1, 3))
	})

	t.Run("Success case - BOM stripped and ragged rows tolerated", func(t *testing.T) {
		content := append([]byte{0xEF, 0xBB, 0xBF}, []byte("Registro_ANS;CNPJ;Razao_Social\n123456;12345678000199\n654321;1;ACME;extra\n")...)
		path := createTempFile(t, "Relatorio_cadop.csv", content)

		table, err := ReadCSV(path)

		require.NoError(t, err)
		assert.Equal(t, 0, table.ColumnIndex("registro_ans"))
		assert.Nil(t, table.Cell(0, 2))
		assert.Equal(t, "ACME", table.Cell(1, 2))
	})

	t.Run("Success case - windows-1252 content is decoded", func(t *testing.T) {
		// "SÃO PAULO" with Ã encoded as 0xC3 in Windows-1252
		content := []byte("Registro_ANS;Cidade\n123456;S\xc3O PAULO\n")
		path := createTempFile(t, "latin.csv", content)

		table, err := ReadCSV(path)

		require.NoError(t, err)
		assert.Equal(t, "SÃO PAULO", table.Cell(0, 1))
	})

	t.Run("Expect: empty file is an extraction error", func(t *testing.T) {
		path := createTempFile(t, "empty.csv", nil)

		_, err := ReadCSV(path)

		assert.ErrorIs(t, err, models.ErrExtraction)
	})

	t.Run("Expect: header only file is an extraction error", func(t *testing.T) {
		path := createTempFile(t, "header.csv", []byte("DATA;REG_ANS\n"))

		_, err := ReadCSV(path)

		assert.ErrorIs(t, err, models.ErrExtraction)
	})

	t.Run("Expect: missing file is an extraction error", func(t *testing.T) {
		_, err := ReadCSV(filepath.Join(t.TempDir(), "missing.csv"))

		assert.ErrorIs(t, err, models.ErrExtraction)
	})
}

func TestWriteCSV(t *testing.T) {
	table := &models.RawTable{
		Columns: []string{"PROCEDIMENTO", "Seg. Odontológica"},
		Rows:    [][]any{{"CONSULTA", nil}, {"RESTAURAÇÃO, AMÁLGAMA", "OD"}},
	}
	path := filepath.Join(t.TempDir(), "tables_ans.csv")

	require.NoError(t, WriteCSV(table, path))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "PROCEDIMENTO,Seg. Odontológica\nCONSULTA,\n\"RESTAURAÇÃO, AMÁLGAMA\",OD\n", string(content))
}
