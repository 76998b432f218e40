package syntax

import (
	"context"
	"fmt"
	"strings"

	"github.com/tordrt/tablesmith/internal/db"
	"github.com/tordrt/tablesmith/internal/schema"
)

// MySQL renders MySQL DDL. An AUTO_INCREMENT column must be part of a key
// when the table is created, so the primary key is declared inline and
// CreatePrimaryKey returns "".
type MySQL struct{}

// NewMySQL creates a MySQL provider
func NewMySQL() *MySQL { return &MySQL{} }

func (m *MySQL) Product() db.Product { return db.MySQL }

func (m *MySQL) quoteIdent(id string) string {
	return "`" + strings.ReplaceAll(id, "`", "``") + "`"
}

func (m *MySQL) QuoteTableName(name string) string {
	return quoteFQN(name, m.quoteIdent)
}

func (m *MySQL) columnType(c schema.Column) string {
	switch c.Type {
	case schema.TypeInteger:
		return "INT"
	case schema.TypeBigInt:
		return "BIGINT"
	case schema.TypeBoolean:
		return "TINYINT(1)"
	case schema.TypeString:
		return fmt.Sprintf("VARCHAR(%d)", stringSize(c))
	case schema.TypeDateTime:
		return "DATETIME"
	case schema.TypeDecimal:
		return decimalType("DECIMAL", c)
	case schema.TypeGUID:
		return "CHAR(36)"
	default:
		return "LONGTEXT"
	}
}

func (m *MySQL) CreateTable(t schema.Table) (string, error) {
	if err := checkColumns(t); err != nil {
		return "", err
	}

	cols := make([]string, 0, len(t.Columns)+1)
	for _, c := range t.Columns {
		var sb strings.Builder
		sb.WriteString(m.quoteIdent(c.Name))
		sb.WriteByte(' ')
		sb.WriteString(m.columnType(c))
		sb.WriteString(columnSuffix(c))
		if c.Identity {
			sb.WriteString(" AUTO_INCREMENT")
		}
		cols = append(cols, sb.String())
	}
	if len(t.PrimaryKey) > 0 {
		cols = append(cols, fmt.Sprintf("PRIMARY KEY (%s)", quoteList(t.PrimaryKey, m.quoteIdent)))
	}

	stmt := fmt.Sprintf("CREATE TABLE %s (\n  %s\n)", m.QuoteTableName(t.Name), strings.Join(cols, ",\n  "))
	if c, ok := t.IdentityColumn(); ok && c.IdentitySeed > 0 {
		stmt += fmt.Sprintf(" AUTO_INCREMENT=%d", c.IdentitySeed)
	}
	return stmt, nil
}

func (m *MySQL) CreatePrimaryKey(schema.Table) string { return "" }

func (m *MySQL) CreateForeignKeys(t schema.Table) []string {
	return alterAddForeignKeys(t, m.QuoteTableName, m.quoteIdent)
}

func (m *MySQL) CreateIndexes(t schema.Table) []string {
	return createIndexes(t, "", m.QuoteTableName, m.quoteIdent)
}

// AlterIdentitySeeds returns nothing: the seed is a table option.
func (m *MySQL) AlterIdentitySeeds(schema.Table) []string { return nil }

func (m *MySQL) TableExists(ctx context.Context, s db.Session, name string) (bool, error) {
	schemaName, table := splitFQN(name)
	query := `
		SELECT COUNT(*)
		FROM information_schema.tables
		WHERE table_schema = COALESCE(NULLIF(?, ''), DATABASE())
			AND table_name = ?
			AND table_type = 'BASE TABLE'
	`
	return countExists(ctx, s, query, schemaName, table)
}

func (m *MySQL) Insert(t schema.Table, columns []string) string {
	return insert(t, columns, m.QuoteTableName, m.quoteIdent, func(int) string { return "?" })
}

func (m *MySQL) IdentityInsert(schema.Table, bool) string { return "" }

// IdentitySync returns nothing: AUTO_INCREMENT follows explicit values.
func (m *MySQL) IdentitySync(schema.Table) string { return "" }
