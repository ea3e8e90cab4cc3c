package database

import (
	"context"
	"fmt"
	"strings"

	"github.com/ThiagoRGoveia/ans-operadoras/internal/models"
)

const searchLimit = 10

// Both windows are anchored to the latest statement date, never to the wall clock.
// last_year runs from Jan 1 of the year before the latest date through Dec 31 of
// the latest date's year.
var windowPredicates = map[models.ReportWindow]string{
	models.WindowLastQuarter: `d.data >= (SELECT MAX(data) FROM demonstracoes_contabeis) - INTERVAL '3 months'`,
	models.WindowLastYear: `d.data >= (SELECT date_trunc('year', MAX(data) - INTERVAL '1 year') FROM demonstracoes_contabeis)
		AND d.data < (SELECT date_trunc('year', MAX(data)) + INTERVAL '1 year' FROM demonstracoes_contabeis)`,
}

// TopOperatorsByExpense sums vl_saldo_final per operator for statement lines whose
// description contains description, keeping positive totals only.
func (m *PostgresDBManager) TopOperatorsByExpense(ctx context.Context, window models.ReportWindow, description string, limit int) ([]models.OperatorExpense, error) {
	predicate, ok := windowPredicates[window]
	if !ok {
		return nil, fmt.Errorf("unknown report window: %s", window)
	}

	query := fmt.Sprintf(`
	SELECT
		COALESCE(o.razao_social, '') AS razao_social,
		COALESCE(o.nome_fantasia, '') AS nome_fantasia,
		SUM(d.vl_saldo_final) AS total_despesas
	FROM demonstracoes_contabeis d
	JOIN operadoras o ON d.reg_ans = o.registro_ans
	WHERE d.descricao LIKE '%%' || $1 || '%%'
		AND %s
	GROUP BY o.razao_social, o.nome_fantasia
	HAVING SUM(d.vl_saldo_final) > 0
	ORDER BY total_despesas DESC
	LIMIT $2;`, predicate)

	rows, err := m.db.Query(ctx, query, description, limit)
	if err != nil {
		return nil, fmt.Errorf("error querying %s expenses: %w", window, err)
	}
	defer rows.Close()

	var expenses []models.OperatorExpense
	for rows.Next() {
		var e models.OperatorExpense
		if err := rows.Scan(&e.RazaoSocial, &e.NomeFantasia, &e.TotalDespesas); err != nil {
			return nil, fmt.Errorf("error scanning expense row: %w", err)
		}
		expenses = append(expenses, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over expense rows: %w", err)
	}
	return expenses, nil
}

var operatorColumns = strings.Join(models.OperatorEntity.Columns, ", ")

// SearchOperators applies only the predicates present in filter: exact matches on
// registro_ans and cnpj, case-insensitive substring matches on razao_social and cidade.
func (m *PostgresDBManager) SearchOperators(ctx context.Context, filter models.OperatorFilter) ([]models.Operator, error) {
	query, args := buildSearch(filter)

	rows, err := m.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error searching operators: %w", err)
	}
	defer rows.Close()

	operators := []models.Operator{}
	for rows.Next() {
		var o models.Operator
		err := rows.Scan(
			&o.RegistroANS, &o.CNPJ, &o.RazaoSocial, &o.NomeFantasia, &o.Modalidade,
			&o.Logradouro, &o.Numero, &o.Complemento, &o.Bairro, &o.Cidade, &o.UF, &o.CEP,
			&o.DDD, &o.Telefone, &o.Fax, &o.EnderecoEletronico, &o.Representante,
			&o.CargoRepresentante, &o.RegiaoDeComercializacao, &o.DataRegistroANS,
		)
		if err != nil {
			return nil, fmt.Errorf("error scanning operator row: %w", err)
		}
		operators = append(operators, o)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over operator rows: %w", err)
	}
	return operators, nil
}

func buildSearch(filter models.OperatorFilter) (string, []any) {
	var conditions []string
	var args []any

	add := func(condition string, value any) {
		args = append(args, value)
		conditions = append(conditions, fmt.Sprintf(condition, len(args)))
	}

	if v := strings.TrimSpace(filter.RegistroANS); v != "" {
		add("registro_ans = $%d", v)
	}
	if v := strings.TrimSpace(filter.CNPJ); v != "" {
		add("cnpj = $%d", v)
	}
	if v := strings.TrimSpace(filter.RazaoSocial); v != "" {
		add("razao_social ILIKE $%d", "%"+v+"%")
	}
	if v := strings.TrimSpace(filter.Cidade); v != "" {
		add("cidade ILIKE $%d", "%"+v+"%")
	}

	query := "SELECT " + operatorColumns + " FROM operadoras"
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += fmt.Sprintf(" ORDER BY data_registro_ans DESC NULLS LAST LIMIT %d", searchLimit)

	return query, args
}
