// Package report runs the top-N expense reports over loaded statements.
package report

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/ThiagoRGoveia/ans-operadoras/internal/config"
	"github.com/ThiagoRGoveia/ans-operadoras/internal/database"
	"github.com/ThiagoRGoveia/ans-operadoras/internal/models"
	"github.com/gocarina/gocsv"
)

// Windows are reported in this order.
var Windows = []models.ReportWindow{models.WindowLastQuarter, models.WindowLastYear}

// Line is one exported report row.
type Line struct {
	Window        string `csv:"window"`
	Rank          int    `csv:"rank"`
	RazaoSocial   string `csv:"razao_social"`
	NomeFantasia  string `csv:"nome_fantasia"`
	TotalDespesas string `csv:"total_despesas"`
}

type Reporter struct {
	dbManager   database.DBManager
	logger      *slog.Logger
	description string
	limit       int
	output      string
}

func NewReporter(dbManager database.DBManager, logger *slog.Logger, cfg config.Config) *Reporter {
	return &Reporter{
		dbManager:   dbManager,
		logger:      logger,
		description: cfg.ReportDescription,
		limit:       cfg.ReportLimit,
		output:      cfg.ReportOutput,
	}
}

// Build queries every window and flattens the results.
func (r *Reporter) Build(ctx context.Context) ([]Line, error) {
	var lines []Line
	for _, window := range Windows {
		expenses, err := r.dbManager.TopOperatorsByExpense(ctx, window, r.description, r.limit)
		if err != nil {
			return nil, err
		}

		r.logger.Info("expense report", "window", window, "operators", len(expenses))
		for i, e := range expenses {
			line := Line{
				Window:        string(window),
				Rank:          i + 1,
				RazaoSocial:   e.RazaoSocial,
				NomeFantasia:  e.NomeFantasia,
				TotalDespesas: e.TotalDespesas.StringFixed(2),
			}
			r.logger.Info("top operator",
				"window", line.Window,
				"rank", line.Rank,
				"razao_social", line.RazaoSocial,
				"total_despesas", line.TotalDespesas,
			)
			lines = append(lines, line)
		}
	}
	return lines, nil
}

// Run builds the reports and, when an output path is configured, writes them as CSV.
func (r *Reporter) Run(ctx context.Context) error {
	lines, err := r.Build(ctx)
	if err != nil {
		return err
	}
	if r.output == "" {
		return nil
	}
	return Export(lines, r.output)
}

// Export writes lines to path with a header row, even when there are no lines.
func Export(lines []Line, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("error creating report directory: %w", err)
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("error creating report file: %w", err)
	}
	defer file.Close()

	if lines == nil {
		lines = []Line{}
	}
	if err := gocsv.Marshal(&lines, file); err != nil {
		return fmt.Errorf("error writing report: %w", err)
	}
	return nil
}
