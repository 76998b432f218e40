package syntax

import (
	"context"
	"fmt"
	"strings"

	"github.com/tordrt/tablesmith/internal/db"
	"github.com/tordrt/tablesmith/internal/schema"
)

// SQLServer renders T-SQL. Identity columns are created as IDENTITY(1,1);
// seeded rows may carry explicit identity values, so the declared seed is
// applied afterwards with DBCC CHECKIDENT.
type SQLServer struct{}

// NewSQLServer creates a SQL Server provider
func NewSQLServer() *SQLServer { return &SQLServer{} }

func (m *SQLServer) Product() db.Product { return db.SQLServer }

// quoteIdent quotes a single identifier segment using bracket syntax,
// escaping any closing brackets.
//
//	name      -> [name]
//	weird]id  -> [weird]]id]
func (m *SQLServer) quoteIdent(id string) string {
	return "[" + strings.ReplaceAll(id, "]", "]]") + "]"
}

func (m *SQLServer) QuoteTableName(name string) string {
	return quoteFQN(name, m.quoteIdent)
}

func (m *SQLServer) columnType(c schema.Column) string {
	switch c.Type {
	case schema.TypeInteger:
		return "INT"
	case schema.TypeBigInt:
		return "BIGINT"
	case schema.TypeBoolean:
		return "BIT"
	case schema.TypeString:
		return fmt.Sprintf("NVARCHAR(%d)", stringSize(c))
	case schema.TypeDateTime:
		return "DATETIME2"
	case schema.TypeDecimal:
		return decimalType("DECIMAL", c)
	case schema.TypeGUID:
		return "UNIQUEIDENTIFIER"
	default:
		return "NVARCHAR(MAX)"
	}
}

func (m *SQLServer) CreateTable(t schema.Table) (string, error) {
	if err := checkColumns(t); err != nil {
		return "", err
	}

	cols := make([]string, 0, len(t.Columns))
	for _, c := range t.Columns {
		var sb strings.Builder
		sb.WriteString(m.quoteIdent(c.Name))
		sb.WriteByte(' ')
		sb.WriteString(m.columnType(c))
		if c.Identity {
			sb.WriteString(" IDENTITY(1,1)")
		}
		sb.WriteString(columnSuffix(c))
		cols = append(cols, sb.String())
	}

	return fmt.Sprintf("CREATE TABLE %s (\n  %s\n)", m.QuoteTableName(t.Name), strings.Join(cols, ",\n  ")), nil
}

func (m *SQLServer) CreatePrimaryKey(t schema.Table) string {
	if len(t.PrimaryKey) == 0 {
		return ""
	}
	return fmt.Sprintf("ALTER TABLE %s ADD CONSTRAINT %s PRIMARY KEY CLUSTERED (%s)",
		m.QuoteTableName(t.Name), m.quoteIdent(t.PrimaryKeyConstraint()), quoteList(t.PrimaryKey, m.quoteIdent))
}

func (m *SQLServer) CreateForeignKeys(t schema.Table) []string {
	return alterAddForeignKeys(t, m.QuoteTableName, m.quoteIdent)
}

func (m *SQLServer) CreateIndexes(t schema.Table) []string {
	return createIndexes(t, "NONCLUSTERED", m.QuoteTableName, m.quoteIdent)
}

// AlterIdentitySeeds makes the declared seed the next identity value.
//
// RESEED n yields n next on a table that never held rows and n+1 otherwise,
// so a seeded table is reseeded to n-1. When seeded rows already reach the
// seed the counter is left where IDENTITY_INSERT put it.
func (m *SQLServer) AlterIdentitySeeds(t schema.Table) []string {
	c, ok := t.IdentityColumn()
	if !ok || c.IdentitySeed <= 0 {
		return nil
	}
	table := m.QuoteTableName(t.Name)
	literal := strings.ReplaceAll(table, "'", "''")
	return []string{fmt.Sprintf(
		"IF NOT EXISTS (SELECT 1 FROM %[1]s) DBCC CHECKIDENT (N'%[2]s', RESEED, %[4]d) "+
			"ELSE IF (SELECT MAX(%[3]s) FROM %[1]s) < %[4]d DBCC CHECKIDENT (N'%[2]s', RESEED, %[5]d)",
		table, literal, m.quoteIdent(c.Name), c.IdentitySeed, c.IdentitySeed-1)}
}

func (m *SQLServer) TableExists(ctx context.Context, s db.Session, name string) (bool, error) {
	schemaName, table := splitFQN(name)
	query := `
		SELECT COUNT(*)
		FROM INFORMATION_SCHEMA.TABLES
		WHERE TABLE_SCHEMA = COALESCE(NULLIF(@p1, ''), SCHEMA_NAME())
			AND TABLE_NAME = @p2
			AND TABLE_TYPE = 'BASE TABLE'
	`
	return countExists(ctx, s, query, schemaName, table)
}

func (m *SQLServer) Insert(t schema.Table, columns []string) string {
	return insert(t, columns, m.QuoteTableName, m.quoteIdent, func(i int) string { return fmt.Sprintf("@p%d", i) })
}

// IdentitySync returns nothing: IDENTITY_INSERT advances the counter.
func (m *SQLServer) IdentitySync(schema.Table) string { return "" }

func (m *SQLServer) IdentityInsert(t schema.Table, enable bool) string {
	state := "OFF"
	if enable {
		state = "ON"
	}
	return fmt.Sprintf("SET IDENTITY_INSERT %s %s", m.QuoteTableName(t.Name), state)
}
