package ddl

// Kind is a dialect-neutral column type. Each storage dialect maps a Kind to
// its own SQL type when rendering DDL.
type Kind string

const (
	KindInt    Kind = "int"
	KindBigInt Kind = "bigint"
	KindBool   Kind = "bool"
	KindText   Kind = "text"
)

// ColumnDef describes a single column in a table definition.
//
// Fields:
//   - Name: column name (unquoted; quoting happens at render time)
//   - Kind: logical type, mapped to a SQL type by the dialect
//   - Nullable: whether NULL is allowed
//   - PrimaryKey: whether the column is part of the primary key
type ColumnDef struct {
	Name       string
	Kind       Kind
	Nullable   bool
	PrimaryKey bool
}

// TableDef holds the table name and an ordered list of columns.
type TableDef struct {
	Name    string
	Columns []ColumnDef
}

// ColumnNames returns the column names in definition order.
func (t TableDef) ColumnNames() []string {
	out := make([]string, 0, len(t.Columns))
	for _, c := range t.Columns {
		out = append(out, c.Name)
	}
	return out
}

// PrimaryKey returns the names of the primary key columns in definition order.
func (t TableDef) PrimaryKey() []string {
	var out []string
	for _, c := range t.Columns {
		if c.PrimaryKey {
			out = append(out, c.Name)
		}
	}
	return out
}
