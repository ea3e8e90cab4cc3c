package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// RawTable is the in-memory tabular form shared by extraction, transform and load.
// Cells hold nil for null, a string for raw or normalized text, or a decimal.Decimal
// once a decimal column has been transformed.
type RawTable struct {
	Columns []string
	Rows    [][]any
}

// NewRawTable builds a table from a header and string rows.
func NewRawTable(columns []string, rows [][]string) *RawTable {
	t := &RawTable{Columns: append([]string(nil), columns...), Rows: make([][]any, 0, len(rows))}
	for _, row := range rows {
		cells := make([]any, len(row))
		for i, v := range row {
			cells[i] = v
		}
		t.Rows = append(t.Rows, cells)
	}
	return t
}

// ColumnIndex returns the position of a column, matching names case-insensitively, or -1.
func (t *RawTable) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if strings.EqualFold(strings.TrimSpace(c), strings.TrimSpace(name)) {
			return i
		}
	}
	return -1
}

// Rename rewrites known column names; unmatched names pass through unchanged.
func (t *RawTable) Rename(renameMap map[string]string) {
	for i, c := range t.Columns {
		if renamed, ok := renameMap[c]; ok {
			t.Columns[i] = renamed
		}
	}
}

func (t *RawTable) Len() int {
	return len(t.Rows)
}

// Cell returns the value at row/col or nil when the row is shorter than the header.
func (t *RawTable) Cell(row, col int) any {
	if col < 0 || col >= len(t.Rows[row]) {
		return nil
	}
	return t.Rows[row][col]
}

// Strings renders every row as text, nil cells become empty strings.
func (t *RawTable) Strings() [][]string {
	out := make([][]string, len(t.Rows))
	for i, row := range t.Rows {
		line := make([]string, len(t.Columns))
		for j := range t.Columns {
			if j < len(row) {
				line[j] = CellString(row[j])
			}
		}
		out[i] = line
	}
	return out
}

// CellString renders a single cell.
func CellString(v any) string {
	switch c := v.(type) {
	case nil:
		return ""
	case string:
		return c
	case decimal.Decimal:
		return c.String()
	case time.Time:
		return c.Format(time.DateOnly)
	default:
		return ""
	}
}

type SourceKind string

const (
	SourceAnnexPDF         SourceKind = "annex_pdf"
	SourceOperatorCSV      SourceKind = "operator_csv"
	SourceStatementArchive SourceKind = "statement_archive"
	SourceStatementCSV     SourceKind = "statement_csv"
)

// SourceFile is a unit of acquisition. URL is empty for files found on disk.
type SourceFile struct {
	URL      string
	Path     string
	Kind     SourceKind
	Checksum string
}

// Operator mirrors a row of the operadoras table.
type Operator struct {
	RegistroANS             string     `json:"registro_ans"`
	CNPJ                    *string    `json:"cnpj"`
	RazaoSocial             *string    `json:"razao_social"`
	NomeFantasia            *string    `json:"nome_fantasia"`
	Modalidade              *string    `json:"modalidade"`
	Logradouro              *string    `json:"logradouro"`
	Numero                  *string    `json:"numero"`
	Complemento             *string    `json:"complemento"`
	Bairro                  *string    `json:"bairro"`
	Cidade                  *string    `json:"cidade"`
	UF                      *string    `json:"uf"`
	CEP                     *string    `json:"cep"`
	DDD                     *string    `json:"ddd"`
	Telefone                *string    `json:"telefone"`
	Fax                     *string    `json:"fax"`
	EnderecoEletronico      *string    `json:"endereco_eletronico"`
	Representante           *string    `json:"representante"`
	CargoRepresentante      *string    `json:"cargo_representante"`
	RegiaoDeComercializacao *string    `json:"regiao_de_comercializacao"`
	DataRegistroANS         *time.Time `json:"data_registro_ans"`
}

// OperatorFilter holds the optional predicates of an operator search.
type OperatorFilter struct {
	RegistroANS string `json:"registro_ans"`
	CNPJ        string `json:"cnpj"`
	RazaoSocial string `json:"razao_social"`
	Cidade      string `json:"cidade"`
}

// ReportWindow selects the trailing window of an expense report.
type ReportWindow string

const (
	WindowLastQuarter ReportWindow = "last_quarter"
	WindowLastYear    ReportWindow = "last_year"
)

// OperatorExpense is one line of a top-N expense report.
type OperatorExpense struct {
	RazaoSocial   string
	NomeFantasia  string
	TotalDespesas decimal.Decimal
}

// FileOutcome is the result of processing one source file.
type FileOutcome struct {
	Path     string
	Dataset  string
	Inserted int64
	Filtered int64
	Err      error
}

// RunSummary is what every run reports, whether or not files failed.
type RunSummary struct {
	RunID          string
	FilesProcessed int
	FilesSucceeded int
	FilesFailed    int
	RowsInserted   int64
	RowsFiltered   int64
	Failures       []FileOutcome
	StartedAt      time.Time
	FinishedAt     time.Time
}

// Record folds one file outcome into the summary.
func (s *RunSummary) Record(outcome FileOutcome) {
	s.FilesProcessed++
	s.RowsInserted += outcome.Inserted
	s.RowsFiltered += outcome.Filtered
	if outcome.Err != nil {
		s.FilesFailed++
		s.Failures = append(s.Failures, outcome)
		return
	}
	s.FilesSucceeded++
}
