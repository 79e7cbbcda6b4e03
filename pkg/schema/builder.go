// Package schema builds SQL DDL statement text: CREATE TABLE with column
// and foreign-key clauses, ALTER TABLE column operations, and DROP TABLE.
// Identifiers are quoted, literal values escaped. Output is plain ANSI-ish
// SQL; dialect-specific variations are out of scope.
package schema

import (
	"fmt"
	"strings"

	"github.com/Mobinergy/database-kit/pkg/errors"
)

// ReferenceAction is a foreign-key ON DELETE / ON UPDATE action.
type ReferenceAction string

const (
	NoAction   ReferenceAction = "NO ACTION"
	Restrict   ReferenceAction = "RESTRICT"
	Cascade    ReferenceAction = "CASCADE"
	SetNull    ReferenceAction = "SET NULL"
	SetDefault ReferenceAction = "SET DEFAULT"
)

// Column describes one table column.
type Column struct {
	Name       string `yaml:"name" json:"name"`
	Type       string `yaml:"type" json:"type"`
	Nullable   bool   `yaml:"nullable" json:"nullable"`
	PrimaryKey bool   `yaml:"primary_key" json:"primary_key"`
	// Default, when non-nil, is rendered as a literal DEFAULT clause
	Default interface{} `yaml:"default" json:"default"`
}

// ForeignKey describes a table-level foreign-key constraint.
type ForeignKey struct {
	Name       string          `yaml:"name" json:"name"`
	Columns    []string        `yaml:"columns" json:"columns"`
	RefTable   string          `yaml:"ref_table" json:"ref_table"`
	RefColumns []string        `yaml:"ref_columns" json:"ref_columns"`
	OnDelete   ReferenceAction `yaml:"on_delete" json:"on_delete"`
	OnUpdate   ReferenceAction `yaml:"on_update" json:"on_update"`
}

// Table describes a table to create.
type Table struct {
	Name        string       `yaml:"name" json:"name"`
	Columns     []Column     `yaml:"columns" json:"columns"`
	ForeignKeys []ForeignKey `yaml:"foreign_keys" json:"foreign_keys"`
	IfNotExists bool         `yaml:"if_not_exists" json:"if_not_exists"`
}

// QuoteIdent quotes an SQL identifier with double quotes, doubling any
// embedded quote.
func QuoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func quoteIdents(names []string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = QuoteIdent(n)
	}
	return strings.Join(quoted, ", ")
}

// CreateSQL renders the CREATE TABLE statement for the table.
func (t *Table) CreateSQL() (string, error) {
	if t.Name == "" {
		return "", errors.New(errors.ErrorTypeQuery, "table name is required")
	}
	if len(t.Columns) == 0 {
		return "", errors.Newf(errors.ErrorTypeQuery, "table %s has no columns", t.Name)
	}

	clauses := make([]string, 0, len(t.Columns)+len(t.ForeignKeys)+1)
	var pk []string
	for _, col := range t.Columns {
		clause, err := col.clause()
		if err != nil {
			return "", err
		}
		clauses = append(clauses, clause)
		if col.PrimaryKey {
			pk = append(pk, col.Name)
		}
	}
	if len(pk) > 0 {
		clauses = append(clauses, fmt.Sprintf("PRIMARY KEY (%s)", quoteIdents(pk)))
	}
	for _, fk := range t.ForeignKeys {
		clause, err := fk.clause()
		if err != nil {
			return "", err
		}
		clauses = append(clauses, clause)
	}

	var b strings.Builder
	b.WriteString("CREATE TABLE ")
	if t.IfNotExists {
		b.WriteString("IF NOT EXISTS ")
	}
	b.WriteString(QuoteIdent(t.Name))
	b.WriteString(" (\n  ")
	b.WriteString(strings.Join(clauses, ",\n  "))
	b.WriteString("\n)")
	return b.String(), nil
}

// clause renders one column definition.
func (c Column) clause() (string, error) {
	if c.Name == "" || c.Type == "" {
		return "", errors.New(errors.ErrorTypeQuery, "column name and type are required")
	}

	var b strings.Builder
	b.WriteString(QuoteIdent(c.Name))
	b.WriteString(" ")
	b.WriteString(c.Type)
	if !c.Nullable {
		b.WriteString(" NOT NULL")
	}
	if c.Default != nil {
		lit, err := Literal(c.Default)
		if err != nil {
			return "", errors.Wrap(err, errors.ErrorTypeQuery, "default for column "+c.Name)
		}
		b.WriteString(" DEFAULT ")
		b.WriteString(lit)
	}
	return b.String(), nil
}

// clause renders one foreign-key constraint.
func (fk ForeignKey) clause() (string, error) {
	if len(fk.Columns) == 0 || fk.RefTable == "" || len(fk.RefColumns) == 0 {
		return "", errors.New(errors.ErrorTypeQuery, "foreign key needs columns, ref_table and ref_columns")
	}
	if len(fk.Columns) != len(fk.RefColumns) {
		return "", errors.Newf(errors.ErrorTypeQuery,
			"foreign key column count mismatch: %d vs %d", len(fk.Columns), len(fk.RefColumns))
	}

	var b strings.Builder
	if fk.Name != "" {
		b.WriteString("CONSTRAINT ")
		b.WriteString(QuoteIdent(fk.Name))
		b.WriteString(" ")
	}
	fmt.Fprintf(&b, "FOREIGN KEY (%s) REFERENCES %s (%s)",
		quoteIdents(fk.Columns), QuoteIdent(fk.RefTable), quoteIdents(fk.RefColumns))
	if fk.OnDelete != "" {
		b.WriteString(" ON DELETE ")
		b.WriteString(string(fk.OnDelete))
	}
	if fk.OnUpdate != "" {
		b.WriteString(" ON UPDATE ")
		b.WriteString(string(fk.OnUpdate))
	}
	return b.String(), nil
}

// DropSQL renders a DROP TABLE statement.
func DropSQL(table string, ifExists bool) string {
	if ifExists {
		return "DROP TABLE IF EXISTS " + QuoteIdent(table)
	}
	return "DROP TABLE " + QuoteIdent(table)
}

// AddColumnSQL renders an ALTER TABLE ... ADD COLUMN statement.
func AddColumnSQL(table string, col Column) (string, error) {
	clause, err := col.clause()
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s", QuoteIdent(table), clause), nil
}

// DropColumnSQL renders an ALTER TABLE ... DROP COLUMN statement.
func DropColumnSQL(table, column string) string {
	return fmt.Sprintf("ALTER TABLE %s DROP COLUMN %s", QuoteIdent(table), QuoteIdent(column))
}

// RenameColumnSQL renders an ALTER TABLE ... RENAME COLUMN statement.
func RenameColumnSQL(table, from, to string) string {
	return fmt.Sprintf("ALTER TABLE %s RENAME COLUMN %s TO %s",
		QuoteIdent(table), QuoteIdent(from), QuoteIdent(to))
}
