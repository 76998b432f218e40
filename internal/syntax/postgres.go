package syntax

import (
	"context"
	"fmt"
	"strings"

	"github.com/tordrt/tablesmith/internal/db"
	"github.com/tordrt/tablesmith/internal/schema"
)

// Postgres renders PostgreSQL DDL. Identifiers are double-quoted, identity
// columns use GENERATED BY DEFAULT AS IDENTITY with the seed as START WITH,
// and keys are added with ALTER TABLE after creation.
type Postgres struct{}

// NewPostgres creates a PostgreSQL provider
func NewPostgres() *Postgres { return &Postgres{} }

func (p *Postgres) Product() db.Product { return db.Postgres }

func (p *Postgres) quoteIdent(id string) string {
	return `"` + strings.ReplaceAll(id, `"`, `""`) + `"`
}

func (p *Postgres) QuoteTableName(name string) string {
	return quoteFQN(name, p.quoteIdent)
}

func (p *Postgres) columnType(c schema.Column) string {
	switch c.Type {
	case schema.TypeInteger:
		return "integer"
	case schema.TypeBigInt:
		return "bigint"
	case schema.TypeBoolean:
		return "boolean"
	case schema.TypeString:
		return fmt.Sprintf("varchar(%d)", stringSize(c))
	case schema.TypeDateTime:
		return "timestamp"
	case schema.TypeDecimal:
		return decimalType("numeric", c)
	case schema.TypeGUID:
		return "uuid"
	default:
		return "text"
	}
}

func (p *Postgres) CreateTable(t schema.Table) (string, error) {
	if err := checkColumns(t); err != nil {
		return "", err
	}

	cols := make([]string, 0, len(t.Columns))
	for _, c := range t.Columns {
		var sb strings.Builder
		sb.WriteString(p.quoteIdent(c.Name))
		sb.WriteByte(' ')
		sb.WriteString(p.columnType(c))
		if c.Identity {
			sb.WriteString(" GENERATED BY DEFAULT AS IDENTITY")
			if c.IdentitySeed > 0 {
				fmt.Fprintf(&sb, " (START WITH %d)", c.IdentitySeed)
			}
		}
		sb.WriteString(columnSuffix(c))
		cols = append(cols, sb.String())
	}

	return fmt.Sprintf("CREATE TABLE %s (\n  %s\n)", p.QuoteTableName(t.Name), strings.Join(cols, ",\n  ")), nil
}

func (p *Postgres) CreatePrimaryKey(t schema.Table) string {
	if len(t.PrimaryKey) == 0 {
		return ""
	}
	return fmt.Sprintf("ALTER TABLE %s ADD CONSTRAINT %s PRIMARY KEY (%s)",
		p.QuoteTableName(t.Name), p.quoteIdent(t.PrimaryKeyConstraint()), quoteList(t.PrimaryKey, p.quoteIdent))
}

func (p *Postgres) CreateForeignKeys(t schema.Table) []string {
	return alterAddForeignKeys(t, p.QuoteTableName, p.quoteIdent)
}

func (p *Postgres) CreateIndexes(t schema.Table) []string {
	return createIndexes(t, "", p.QuoteTableName, p.quoteIdent)
}

// AlterIdentitySeeds returns nothing: the seed is part of the column
// definition.
func (p *Postgres) AlterIdentitySeeds(schema.Table) []string { return nil }

// IdentitySync moves the identity sequence past the highest stored value,
// never below the declared seed. Explicit inserts do not advance it.
func (p *Postgres) IdentitySync(t schema.Table) string {
	c, ok := t.IdentityColumn()
	if !ok {
		return ""
	}
	start := c.IdentitySeed
	if start < 1 {
		start = 1
	}
	table := p.QuoteTableName(t.Name)
	return fmt.Sprintf("SELECT setval(pg_get_serial_sequence('%s', '%s'), GREATEST(COALESCE(MAX(%s), 0) + 1, %d), false) FROM %s",
		strings.ReplaceAll(table, "'", "''"),
		strings.ReplaceAll(c.Name, "'", "''"),
		p.quoteIdent(c.Name),
		start,
		table)
}

func (p *Postgres) TableExists(ctx context.Context, s db.Session, name string) (bool, error) {
	schemaName, table := splitFQN(name)
	query := `
		SELECT COUNT(*)
		FROM information_schema.tables
		WHERE table_schema = COALESCE(NULLIF($1::text, ''), current_schema())
			AND table_name = $2
			AND table_type = 'BASE TABLE'
	`
	return countExists(ctx, s, query, schemaName, table)
}

func (p *Postgres) Insert(t schema.Table, columns []string) string {
	return insert(t, columns, p.QuoteTableName, p.quoteIdent, func(i int) string { return fmt.Sprintf("$%d", i) })
}

func (p *Postgres) IdentityInsert(schema.Table, bool) string { return "" }
