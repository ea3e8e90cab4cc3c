package database

import (
	"context"

	"github.com/ThiagoRGoveia/ans-operadoras/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// PgxIface is the subset of *pgxpool.Pool the store needs; pgxmock satisfies it too.
type PgxIface interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Tx is the write surface available inside WithTx.
type Tx interface {
	LockTable(ctx context.Context, table string) error
	ParentKeys(ctx context.Context, table, column string) (map[string]struct{}, error)
	InsertRows(ctx context.Context, table string, columns []string, rows [][]any, batchSize int) (int64, error)
}

type DBManager interface {
	EnsureSchema(ctx context.Context) error
	WithTx(ctx context.Context, fn func(Tx) error) error
	TopOperatorsByExpense(ctx context.Context, window models.ReportWindow, description string, limit int) ([]models.OperatorExpense, error)
	SearchOperators(ctx context.Context, filter models.OperatorFilter) ([]models.Operator, error)
}
