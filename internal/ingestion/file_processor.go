package ingestion

import (
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"slices"
	"strings"

	"github.com/ThiagoRGoveia/ans-operadoras/internal/models"
	"github.com/ThiagoRGoveia/ans-operadoras/pkg/checksum"
)

// SourceSet is what a scan of the data directory found.
type SourceSet struct {
	Operators  *models.SourceFile
	Statements []models.SourceFile
	Duplicates []string
}

// Processor defines the interface for locating source files on disk.
type Processor interface {
	ScanForFiles(rootPath string) (SourceSet, error)
}

// FileProcessor classifies the CSV files of a data directory into the operator
// registry and statement files.
type FileProcessor struct {
	operatorsFile string
	ignoreFiles   []string
	logger        *slog.Logger
}

func NewFileProcessor(operatorsFile string, ignoreFiles []string, logger *slog.Logger) *FileProcessor {
	return &FileProcessor{
		operatorsFile: operatorsFile,
		ignoreFiles:   ignoreFiles,
		logger:        logger,
	}
}

// ScanForFiles walks rootPath in lexical order. A file whose content was already
// seen under another name in this scan is skipped.
func (fp *FileProcessor) ScanForFiles(rootPath string) (SourceSet, error) {
	var set SourceSet
	tracker := checksum.NewTracker()
	fp.logger.Info("scanning for files", "path", rootPath)

	err := filepath.WalkDir(rootPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(path), ".csv") {
			return nil
		}

		name := d.Name()
		isOperators := name == fp.operatorsFile
		if !isOperators && slices.Contains(fp.ignoreFiles, name) {
			fp.logger.Debug("file ignored", "file", path)
			return nil
		}

		sum, err := checksum.FileChecksum(path)
		if err != nil {
			fp.logger.Warn("could not hash file, skipping", "file", path, "error", err)
			return nil
		}
		if first, dup := tracker.Seen(sum, path); dup {
			fp.logger.Warn("duplicate file skipped", "file", path, "same_as", first, "checksum", sum)
			set.Duplicates = append(set.Duplicates, path)
			return nil
		}

		if isOperators {
			set.Operators = &models.SourceFile{Path: path, Kind: models.SourceOperatorCSV, Checksum: sum}
			return nil
		}
		set.Statements = append(set.Statements, models.SourceFile{Path: path, Kind: models.SourceStatementCSV, Checksum: sum})
		return nil
	})
	if err != nil {
		return SourceSet{}, fmt.Errorf("error walking directory %s: %w", rootPath, err)
	}

	fp.logger.Info("scan finished", "operators_found", set.Operators != nil, "statement_files", len(set.Statements), "duplicates", len(set.Duplicates))
	return set, nil
}
