package ingestion

import (
	"context"
	"log/slog"
	"sync"

	"github.com/ThiagoRGoveia/ans-operadoras/internal/database"
	"github.com/ThiagoRGoveia/ans-operadoras/internal/models"
)

type LoadResult struct {
	Inserted int64
	Filtered int64
}

// TableLoader persists one transformed table into one entity.
type TableLoader interface {
	Load(ctx context.Context, table *models.RawTable, entity models.Entity) (LoadResult, error)
}

// Loader writes each table in a single transaction. Writers of the same table are
// serialized in process and by a table lock in the database.
type Loader struct {
	dbManager database.DBManager
	logger    *slog.Logger
	batchSize int

	mu     sync.Mutex
	tables map[string]*sync.Mutex
}

func NewLoader(dbManager database.DBManager, logger *slog.Logger, batchSize int) *Loader {
	return &Loader{
		dbManager: dbManager,
		logger:    logger,
		batchSize: batchSize,
		tables:    make(map[string]*sync.Mutex),
	}
}

func (l *Loader) tableLock(table string) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()

	lock, ok := l.tables[table]
	if !ok {
		lock = &sync.Mutex{}
		l.tables[table] = lock
	}
	return lock
}

// Load maps table columns onto entity columns by name, drops rows whose foreign key
// has no parent and inserts the rest. Any database error rolls the whole table back.
func (l *Loader) Load(ctx context.Context, table *models.RawTable, entity models.Entity) (LoadResult, error) {
	columns, rows := l.project(table, entity)
	if len(columns) == 0 {
		return LoadResult{}, models.NewAppError(models.KindExtraction, entity.Table, "no column matches the target table", nil)
	}

	lock := l.tableLock(entity.Table)
	lock.Lock()
	defer lock.Unlock()

	var result LoadResult
	err := l.dbManager.WithTx(ctx, func(tx database.Tx) error {
		if err := tx.LockTable(ctx, entity.Table); err != nil {
			return err
		}

		if entity.ForeignKey != nil {
			keys, err := tx.ParentKeys(ctx, entity.ForeignKey.ParentTable, entity.ForeignKey.ParentColumn)
			if err != nil {
				return err
			}
			var filtered int64
			rows, filtered = filterOrphans(rows, indexOf(columns, entity.ForeignKey.Column), keys)
			result.Filtered = filtered
			if filtered > 0 {
				l.logger.Warn("rows without a parent were dropped",
					"table", entity.Table, "parent", entity.ForeignKey.ParentTable, "rows_filtered", filtered)
			}
		}

		if len(rows) == 0 {
			return nil
		}

		inserted, err := tx.InsertRows(ctx, entity.Table, columns, rows, l.batchSize)
		if err != nil {
			return err
		}
		result.Inserted = inserted
		return nil
	})
	if err != nil {
		return LoadResult{}, models.NewAppError(models.KindLoadTransaction, entity.Table, "transaction rolled back", err)
	}

	l.logger.Info("table loaded", "table", entity.Table, "rows_inserted", result.Inserted, "rows_filtered", result.Filtered)
	return result, nil
}

// project keeps the columns the entity knows, in table order, and reshapes every row.
func (l *Loader) project(table *models.RawTable, entity models.Entity) ([]string, [][]any) {
	var columns []string
	var source []int
	seen := make(map[string]bool)

	for i, name := range table.Columns {
		column, ok := entity.Column(name)
		if !ok || seen[column] {
			l.logger.Debug("column dropped", "table", entity.Table, "column", name)
			continue
		}
		seen[column] = true
		columns = append(columns, column)
		source = append(source, i)
	}

	rows := make([][]any, 0, table.Len())
	for r := range table.Rows {
		row := make([]any, len(source))
		for c, i := range source {
			row[c] = table.Cell(r, i)
		}
		rows = append(rows, row)
	}
	return columns, rows
}

func filterOrphans(rows [][]any, fkIndex int, keys map[string]struct{}) ([][]any, int64) {
	kept := rows[:0:0]
	var filtered int64
	for _, row := range rows {
		if fkIndex < 0 || row[fkIndex] == nil {
			filtered++
			continue
		}
		if _, ok := keys[models.CellString(row[fkIndex])]; !ok {
			filtered++
			continue
		}
		kept = append(kept, row)
	}
	return kept, filtered
}

func indexOf(columns []string, name string) int {
	for i, c := range columns {
		if c == name {
			return i
		}
	}
	return -1
}
