package parser

import (
	"bytes"
	"encoding/csv"
	"errors"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/ThiagoRGoveia/ans-operadoras/internal/models"
	"golang.org/x/text/encoding/charmap"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ReadCSV loads a semicolon delimited registry or statement file. Columns are
// addressed by header name downstream, so their order in the file is irrelevant.
// Files that are not valid UTF-8 are decoded as Windows-1252.
func ReadCSV(filePath string) (*models.RawTable, error) {
	content, err := os.ReadFile(filePath)
	if err != nil {
		return nil, models.NewAppError(models.KindExtraction, filePath, "failed to open file", err)
	}

	content = bytes.TrimPrefix(content, utf8BOM)
	if !utf8.Valid(content) {
		content, err = charmap.Windows1252.NewDecoder().Bytes(content)
		if err != nil {
			return nil, models.NewAppError(models.KindExtraction, filePath, "failed to decode file", err)
		}
	}

	reader := csv.NewReader(bytes.NewReader(content))
	reader.Comma = ';'
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, models.NewAppError(models.KindExtraction, filePath, "file is empty", nil)
	}
	if err != nil {
		return nil, models.NewAppError(models.KindExtraction, filePath, "failed to read header", err)
	}
	for i, name := range header {
		header[i] = strings.TrimSpace(name)
	}

	var rows [][]string
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, models.NewAppError(models.KindExtraction, filePath, "failed to read record", err)
		}
		rows = append(rows, record)
	}

	if len(rows) == 0 {
		return nil, models.NewAppError(models.KindExtraction, filePath, "file has only a header", nil)
	}

	return models.NewRawTable(header, rows), nil
}

// WriteCSV writes a table with its header using the default comma dialect.
func WriteCSV(table *models.RawTable, filePath string) error {
	file, err := os.Create(filePath)
	if err != nil {
		return err
	}

	writer := csv.NewWriter(file)
	if err := writer.Write(table.Columns); err != nil {
		file.Close()
		return err
	}
	if err := writer.WriteAll(table.Strings()); err != nil {
		file.Close()
		return err
	}

	return file.Close()
}
