// Package transform normalizes raw cells into typed, load-ready values.
package transform

import (
	"strings"
	"time"

	"github.com/ThiagoRGoveia/ans-operadoras/internal/models"
	"github.com/shopspring/decimal"
)

var DefaultDateLayouts = []string{time.DateOnly, "02/01/2006"}

type Options struct {
	DecimalColumns []string
	DateColumns    []string
	// DateLayouts are tried in order. Empty means DefaultDateLayouts.
	DateLayouts []string
}

// StatementOptions normalizes accounting statement files.
func StatementOptions() Options {
	return Options{
		DecimalColumns: models.StatementDecimalColumns,
		DateColumns:    models.StatementDateColumns,
	}
}

// OperatorOptions normalizes the active operator registry.
func OperatorOptions() Options {
	return Options{DateColumns: models.OperatorDateColumns}
}

// Transform returns a copy of table where blank cells are nil, decimal columns hold
// decimal.Decimal and date columns hold YYYY-MM-DD strings. Values that cannot be
// coerced become nil; the row count never changes. Columns named in opts but absent
// from the table are ignored.
func Transform(table *models.RawTable, opts Options) *models.RawTable {
	layouts := opts.DateLayouts
	if len(layouts) == 0 {
		layouts = DefaultDateLayouts
	}

	kinds := make([]func(string) any, len(table.Columns))
	for _, name := range opts.DecimalColumns {
		if i := table.ColumnIndex(name); i >= 0 {
			kinds[i] = func(s string) any { return decimalOrNil(s) }
		}
	}
	for _, name := range opts.DateColumns {
		if i := table.ColumnIndex(name); i >= 0 {
			kinds[i] = func(s string) any { return dateOrNil(s, layouts) }
		}
	}

	out := &models.RawTable{
		Columns: append([]string(nil), table.Columns...),
		Rows:    make([][]any, len(table.Rows)),
	}

	for r, row := range table.Rows {
		cells := make([]any, len(row))
		for c, v := range row {
			cells[c] = normalize(v, kindAt(kinds, c))
		}
		out.Rows[r] = cells
	}

	return out
}

func kindAt(kinds []func(string) any, i int) func(string) any {
	if i < len(kinds) {
		return kinds[i]
	}
	return nil
}

func normalize(v any, coerce func(string) any) any {
	s, ok := v.(string)
	if !ok {
		return v
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if coerce == nil {
		return s
	}
	return coerce(s)
}

// ParseDecimal reads a Brazilian formatted number such as 1.234,56.
func ParseDecimal(s string) (decimal.Decimal, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ".", "")
	s = strings.ReplaceAll(s, ",", ".")
	return decimal.NewFromString(s)
}

// ParseDate tries each layout in order and returns the first match.
func ParseDate(s string, layouts []string) (time.Time, error) {
	var err error
	for _, layout := range layouts {
		var t time.Time
		if t, err = time.Parse(layout, strings.TrimSpace(s)); err == nil {
			return t, nil
		}
	}
	return time.Time{}, err
}

func decimalOrNil(s string) any {
	d, err := ParseDecimal(s)
	if err != nil {
		return nil
	}
	return d
}

func dateOrNil(s string, layouts []string) any {
	t, err := ParseDate(s, layouts)
	if err != nil {
		return nil
	}
	return t.Format(time.DateOnly)
}
