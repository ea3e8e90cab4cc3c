package models

import "strings"

// ForeignKey describes the parent a child table must reference.
type ForeignKey struct {
	Column       string
	ParentTable  string
	ParentColumn string
}

// Entity is a load target: a table and the columns a RawTable may be mapped onto.
type Entity struct {
	Table      string
	Columns    []string
	ForeignKey *ForeignKey
}

// Column resolves a raw header to an entity column, case-insensitively.
func (e Entity) Column(name string) (string, bool) {
	name = strings.TrimSpace(name)
	for _, c := range e.Columns {
		if strings.EqualFold(c, name) {
			return c, true
		}
	}
	return "", false
}

const (
	OperatorsTable  = "operadoras"
	StatementsTable = "demonstracoes_contabeis"
)

var OperatorEntity = Entity{
	Table: OperatorsTable,
	Columns: []string{
		"registro_ans", "cnpj", "razao_social", "nome_fantasia", "modalidade",
		"logradouro", "numero", "complemento", "bairro", "cidade", "uf", "cep",
		"ddd", "telefone", "fax", "endereco_eletronico", "representante",
		"cargo_representante", "regiao_de_comercializacao", "data_registro_ans",
	},
}

var StatementEntity = Entity{
	Table: StatementsTable,
	Columns: []string{
		"data", "reg_ans", "cd_conta_contabil", "descricao", "vl_saldo_inicial", "vl_saldo_final",
	},
	ForeignKey: &ForeignKey{
		Column:       "reg_ans",
		ParentTable:  OperatorsTable,
		ParentColumn: "registro_ans",
	},
}

var (
	OperatorDateColumns     = []string{"data_registro_ans"}
	StatementDecimalColumns = []string{"vl_saldo_inicial", "vl_saldo_final"}
	StatementDateColumns    = []string{"data"}
)
