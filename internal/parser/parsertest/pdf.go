// Package parsertest builds small PDF documents for tests of table extraction.
package parsertest

import (
	"bytes"
	"fmt"
	"os"
	"strings"
)

const (
	fontSize = 10
	// Courier advances 600/1000 of the font size per character.
	glyphWidth = 600
)

// Text is a run of characters drawn at X on the baseline of its Line.
type Text struct {
	X float64
	S string
}

type Line struct {
	Y     float64
	Texts []Text
}

// Row lays out cells at the given column positions. Empty cells draw nothing.
func Row(y float64, columns []float64, cells ...string) Line {
	line := Line{Y: y}
	for i, c := range cells {
		if c != "" {
			line.Texts = append(line.Texts, Text{X: columns[i], S: c})
		}
	}
	return line
}

// WritePDF writes a PDF with one page per element of pages to path.
func WritePDF(path string, pages ...[]Line) error {
	return os.WriteFile(path, Build(pages...), 0o644)
}

// Build renders pages into an uncompressed PDF with a single Courier font and
// an xref table the reader can follow.
func Build(pages ...[]Line) []byte {
	var objects []string

	kids := make([]string, len(pages))
	for i := range pages {
		kids[i] = fmt.Sprintf("%d 0 R", 4+2*i)
	}
	objects = append(objects,
		"<< /Type /Catalog /Pages 2 0 R >>",
		fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), len(pages)),
		fontObject(),
	)

	for i, lines := range pages {
		content := contentStream(lines)
		objects = append(objects,
			fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 595 842] /Resources << /Font << /F1 3 0 R >> >> /Contents %d 0 R >>", 5+2*i),
			fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(content), content),
		)
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(objects)+1)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)
	return buf.Bytes()
}

func fontObject() string {
	widths := make([]string, 0, 95)
	for c := 32; c <= 126; c++ {
		widths = append(widths, fmt.Sprint(glyphWidth))
	}
	return fmt.Sprintf("<< /Type /Font /Subtype /Type1 /BaseFont /Courier /Encoding /WinAnsiEncoding /FirstChar 32 /LastChar 126 /Widths [%s] >>",
		strings.Join(widths, " "))
}

func contentStream(lines []Line) string {
	var sb strings.Builder
	for _, line := range lines {
		for _, t := range line.Texts {
			fmt.Fprintf(&sb, "BT /F1 %d Tf 1 0 0 1 %g %g Tm (%s) Tj ET\n", fontSize, t.X, line.Y, escape(t.S))
		}
	}
	return sb.String()
}

func escape(s string) string {
	return strings.NewReplacer(`\`, `\\`, "(", `\(`, ")", `\)`).Replace(s)
}
