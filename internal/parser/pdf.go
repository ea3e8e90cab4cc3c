package parser

import (
	"fmt"
	"math"
	"os"
	"sort"
	"strings"

	"github.com/ThiagoRGoveia/ans-operadoras/internal/models"
	"github.com/dslipak/pdf"
)

const (
	// glyphs whose baselines differ by less than this belong to the same line
	lineTolerance = 2.0
	// fallback horizontal gap, in points, that separates two cells
	defaultCellGap = 6.0
)

type glyph struct {
	X, Y, W  float64
	FontSize float64
	S        string
}

// ExtractTables reads every page of a PDF and concatenates the tables it finds.
// The first row of the first table becomes the header; renameMap rewrites header
// names that match exactly. Cell values are kept as raw text.
func ExtractTables(filePath string, renameMap map[string]string) (*models.RawTable, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, models.NewAppError(models.KindExtraction, filePath, "failed to open file", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, models.NewAppError(models.KindExtraction, filePath, "failed to stat file", err)
	}

	reader, err := pdf.NewReader(file, info.Size())
	if err != nil {
		return nil, models.NewAppError(models.KindExtraction, filePath, "not a readable pdf", err)
	}

	pages, err := readGlyphs(reader)
	if err != nil {
		return nil, models.NewAppError(models.KindExtraction, filePath, "malformed page content", err)
	}

	rows := tablesFromGlyphs(pages)
	if len(rows) == 0 {
		return nil, models.NewAppError(models.KindExtraction, filePath, "no table found on any page", nil)
	}

	return assembleTable(rows, renameMap), nil
}

// readGlyphs collects the positioned text of every page. The pdf package panics on
// malformed content streams, so that is turned into an error here.
func readGlyphs(reader *pdf.Reader) (pages [][]glyph, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%v", r)
		}
	}()

	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		texts := page.Content().Text
		glyphs := make([]glyph, 0, len(texts))
		for _, t := range texts {
			glyphs = append(glyphs, glyph{X: t.X, Y: t.Y, W: t.W, FontSize: t.FontSize, S: t.S})
		}
		pages = append(pages, glyphs)
	}
	return pages, nil
}

type cell struct {
	Text   string
	X0, X1 float64
}

// tablesFromGlyphs groups glyphs into lines by baseline and lines into cells by
// horizontal gaps. Lines with at least two cells are table rows; rows are
// returned in page order, top to bottom.
func tablesFromGlyphs(pages [][]glyph) [][]cell {
	var rows [][]cell
	for _, glyphs := range pages {
		for _, line := range groupLines(glyphs) {
			cells := splitCells(line)
			if len(cells) >= 2 {
				rows = append(rows, cells)
			}
		}
	}
	return rows
}

func groupLines(glyphs []glyph) [][]glyph {
	sorted := append([]glyph(nil), glyphs...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if math.Abs(sorted[i].Y-sorted[j].Y) > lineTolerance {
			return sorted[i].Y > sorted[j].Y
		}
		return sorted[i].X < sorted[j].X
	})

	var lines [][]glyph
	for _, g := range sorted {
		n := len(lines)
		if n > 0 && math.Abs(lines[n-1][0].Y-g.Y) <= lineTolerance {
			lines[n-1] = append(lines[n-1], g)
			continue
		}
		lines = append(lines, []glyph{g})
	}

	for _, line := range lines {
		sort.SliceStable(line, func(i, j int) bool { return line[i].X < line[j].X })
	}
	return lines
}

func splitCells(line []glyph) []cell {
	var cells []cell
	var current strings.Builder
	start, prevEnd := 0.0, math.Inf(-1)

	flush := func() {
		if text := strings.TrimSpace(current.String()); text != "" {
			cells = append(cells, cell{Text: text, X0: start, X1: prevEnd})
		}
		current.Reset()
	}

	for _, g := range line {
		blank := strings.TrimSpace(g.S) == ""
		if !blank && g.X-prevEnd > cellGap(g) && current.Len() > 0 {
			flush()
		}
		if !blank && strings.TrimSpace(current.String()) == "" {
			start = g.X
		}
		current.WriteString(g.S)
		if end := g.X + g.W; end > prevEnd {
			prevEnd = end
		}
	}
	flush()
	return cells
}

func cellGap(g glyph) float64 {
	if g.FontSize > 0 {
		return math.Max(defaultCellGap, g.FontSize)
	}
	return defaultCellGap
}

// assembleTable turns the first row into the header and places the cells of every
// other row under the header column their left edge falls in. Columns with no
// cell in a row are empty strings.
func assembleTable(rows [][]cell, renameMap map[string]string) *models.RawTable {
	header := rows[0]
	columns := make([]string, len(header))
	for i, c := range header {
		columns[i] = c.Text
	}

	bounds := columnBounds(header)
	data := make([][]string, 0, len(rows)-1)
	for _, row := range rows[1:] {
		data = append(data, alignRow(row, bounds))
	}

	table := models.NewRawTable(columns, data)
	table.Rename(renameMap)
	return table
}

// columnBounds returns the left edge of every column after the first, halfway
// between neighbouring header cells.
func columnBounds(header []cell) []float64 {
	bounds := make([]float64, 0, len(header)-1)
	for i := 1; i < len(header); i++ {
		bounds = append(bounds, (header[i-1].X1+header[i].X0)/2)
	}
	return bounds
}

func alignRow(row []cell, bounds []float64) []string {
	line := make([]string, len(bounds)+1)
	for _, c := range row {
		col := sort.SearchFloat64s(bounds, c.X0)
		if col < len(bounds) && bounds[col] == c.X0 {
			col++
		}
		if line[col] != "" {
			line[col] += " " + c.Text
			continue
		}
		line[col] = c.Text
	}
	return line
}
