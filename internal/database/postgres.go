package database

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ThiagoRGoveia/ans-operadoras/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// maxParams is the bind parameter limit of a single Postgres statement.
const maxParams = 65535

func ConnectDB(ctx context.Context, connStr string) (*pgxpool.Pool, error) {
	dbpool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %w", err)
	}

	if err := dbpool.Ping(ctx); err != nil {
		dbpool.Close()
		return nil, fmt.Errorf("unable to reach database: %w", err)
	}

	return dbpool, nil
}

type PostgresDBManager struct {
	db     PgxIface
	logger *slog.Logger
}

func NewPostgresDBManager(db PgxIface, logger *slog.Logger) *PostgresDBManager {
	return &PostgresDBManager{db: db, logger: logger}
}

var schemaQueries = []string{
	`CREATE TABLE IF NOT EXISTS operadoras (
		registro_ans VARCHAR(20) PRIMARY KEY,
		cnpj VARCHAR(14),
		razao_social VARCHAR(255),
		nome_fantasia VARCHAR(255),
		modalidade VARCHAR(100),
		logradouro VARCHAR(255),
		numero VARCHAR(20),
		complemento VARCHAR(100),
		bairro VARCHAR(100),
		cidade VARCHAR(100),
		uf VARCHAR(2),
		cep VARCHAR(8),
		ddd VARCHAR(2),
		telefone VARCHAR(20),
		fax VARCHAR(20),
		endereco_eletronico VARCHAR(100),
		representante VARCHAR(255),
		cargo_representante VARCHAR(100),
		regiao_de_comercializacao VARCHAR(100),
		data_registro_ans DATE
	);`,
	`CREATE TABLE IF NOT EXISTS demonstracoes_contabeis (
		id SERIAL PRIMARY KEY,
		data DATE,
		reg_ans VARCHAR(20) REFERENCES operadoras(registro_ans),
		cd_conta_contabil VARCHAR(50),
		descricao TEXT,
		vl_saldo_inicial DECIMAL(15, 2),
		vl_saldo_final DECIMAL(15, 2)
	);`,
	`CREATE INDEX IF NOT EXISTS idx_demonstracoes_reg_ans_data ON demonstracoes_contabeis (reg_ans, data);`,
}

// EnsureSchema creates both tables when missing. Running it again is a no-op.
func (m *PostgresDBManager) EnsureSchema(ctx context.Context) error {
	for _, query := range schemaQueries {
		if _, err := m.db.Exec(ctx, query); err != nil {
			return models.NewAppError(models.KindSchemaBootstrap, "", "error creating schema", err)
		}
	}
	m.logger.Info("schema ready", "tables", []string{models.OperatorsTable, models.StatementsTable})
	return nil
}

// WithTx runs fn in a transaction. It commits when fn succeeds and rolls back when
// fn fails or panics; the rollback is not bound to ctx cancellation.
func (m *PostgresDBManager) WithTx(ctx context.Context, fn func(Tx) error) (err error) {
	tx, err := m.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("error beginning transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			m.rollback(ctx, tx)
			panic(p)
		}
	}()

	if err := fn(&pgTx{tx: tx}); err != nil {
		m.rollback(ctx, tx)
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("error committing transaction: %w", err)
	}
	return nil
}

func (m *PostgresDBManager) rollback(ctx context.Context, tx pgx.Tx) {
	if rx := tx.Rollback(context.WithoutCancel(ctx)); rx != nil {
		m.logger.Error("error rolling back transaction", "error", rx)
	}
}

type pgTx struct {
	tx pgx.Tx
}

// LockTable blocks concurrent writers of table until the transaction ends.
func (t *pgTx) LockTable(ctx context.Context, table string) error {
	query := fmt.Sprintf(`LOCK TABLE %s IN SHARE ROW EXCLUSIVE MODE;`, pgx.Identifier{table}.Sanitize())
	if _, err := t.tx.Exec(ctx, query); err != nil {
		return fmt.Errorf("error locking table %s: %w", table, err)
	}
	return nil
}

// ParentKeys returns the set of non-null values of column in table.
func (t *pgTx) ParentKeys(ctx context.Context, table, column string) (map[string]struct{}, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s IS NOT NULL;`,
		pgx.Identifier{column}.Sanitize(), pgx.Identifier{table}.Sanitize(), pgx.Identifier{column}.Sanitize())

	rows, err := t.tx.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("error querying %s.%s: %w", table, column, err)
	}
	defer rows.Close()

	keys := make(map[string]struct{})
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("error scanning %s.%s: %w", table, column, err)
		}
		keys[key] = struct{}{}
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over %s.%s: %w", table, column, err)
	}
	return keys, nil
}

// InsertRows writes rows with multi-row INSERT statements of at most batchSize rows,
// capped so a statement never exceeds the bind parameter limit.
func (t *pgTx) InsertRows(ctx context.Context, table string, columns []string, rows [][]any, batchSize int) (int64, error) {
	if len(rows) == 0 || len(columns) == 0 {
		return 0, nil
	}

	chunk := min(max(batchSize, 1), maxParams/len(columns))

	var inserted int64
	for start := 0; start < len(rows); start += chunk {
		end := min(start+chunk, len(rows))
		query, args := buildInsert(table, columns, rows[start:end])

		tag, err := t.tx.Exec(ctx, query, args...)
		if err != nil {
			return inserted, fmt.Errorf("error inserting rows %d-%d into %s: %w", start, end-1, table, err)
		}
		inserted += tag.RowsAffected()
	}
	return inserted, nil
}

func buildInsert(table string, columns []string, rows [][]any) (string, []any) {
	quoted := make([]string, len(columns))
	for i, c := range columns {
		quoted[i] = pgx.Identifier{c}.Sanitize()
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "INSERT INTO %s (%s) VALUES ", pgx.Identifier{table}.Sanitize(), strings.Join(quoted, ", "))

	args := make([]any, 0, len(rows)*len(columns))
	for r, row := range rows {
		if r > 0 {
			sb.WriteString(", ")
		}
		sb.WriteByte('(')
		for c := range columns {
			if c > 0 {
				sb.WriteString(", ")
			}
			fmt.Fprintf(&sb, "$%d", len(args)+1)
			if c < len(row) {
				args = append(args, row[c])
			} else {
				args = append(args, nil)
			}
		}
		sb.WriteByte(')')
	}
	return sb.String(), args
}
