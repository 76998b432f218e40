package syntax

import (
	"context"
	"fmt"
	"strings"

	"github.com/tordrt/tablesmith/internal/db"
	"github.com/tordrt/tablesmith/internal/schema"
)

// SQLite renders SQLite DDL. SQLite cannot add constraints to an existing
// table, so the primary key and every foreign key are declared inside
// CREATE TABLE; CreatePrimaryKey and CreateForeignKeys return nothing.
// A single-column integer identity primary key becomes
// INTEGER PRIMARY KEY AUTOINCREMENT.
type SQLite struct{}

// NewSQLite creates a SQLite provider
func NewSQLite() *SQLite { return &SQLite{} }

func (l *SQLite) Product() db.Product { return db.SQLite }

func (l *SQLite) quoteIdent(id string) string {
	return `"` + strings.ReplaceAll(id, `"`, `""`) + `"`
}

func (l *SQLite) QuoteTableName(name string) string {
	return quoteFQN(name, l.quoteIdent)
}

func (l *SQLite) columnType(c schema.Column) string {
	switch c.Type {
	case schema.TypeInteger, schema.TypeBigInt, schema.TypeBoolean:
		return "INTEGER"
	case schema.TypeDateTime:
		return "DATETIME"
	case schema.TypeDecimal:
		return "NUMERIC"
	default:
		return "TEXT"
	}
}

// rowidKey returns the identity column when it alone forms the primary key.
func (l *SQLite) rowidKey(t schema.Table) (schema.Column, bool) {
	c, ok := t.IdentityColumn()
	if !ok || len(t.PrimaryKey) != 1 || t.PrimaryKey[0] != c.Name {
		return schema.Column{}, false
	}
	return c, true
}

func (l *SQLite) CreateTable(t schema.Table) (string, error) {
	if err := checkColumns(t); err != nil {
		return "", err
	}

	rowid, hasRowid := l.rowidKey(t)

	cols := make([]string, 0, len(t.Columns)+1+len(t.Relations))
	for _, c := range t.Columns {
		var sb strings.Builder
		sb.WriteString(l.quoteIdent(c.Name))
		if hasRowid && c.Name == rowid.Name {
			sb.WriteString(" INTEGER PRIMARY KEY AUTOINCREMENT")
		} else {
			sb.WriteByte(' ')
			sb.WriteString(l.columnType(c))
			sb.WriteString(columnSuffix(c))
		}
		cols = append(cols, sb.String())
	}

	if len(t.PrimaryKey) > 0 && !hasRowid {
		cols = append(cols, fmt.Sprintf("CONSTRAINT %s PRIMARY KEY (%s)",
			l.quoteIdent(t.PrimaryKeyConstraint()), quoteList(t.PrimaryKey, l.quoteIdent)))
	}

	for _, r := range t.Relations {
		// Referenced tables must live in the same database file, so only the
		// table part is emitted.
		_, target := splitFQN(r.TargetTable)
		cols = append(cols, fmt.Sprintf("CONSTRAINT %s FOREIGN KEY (%s) REFERENCES %s (%s)%s",
			l.quoteIdent(r.ConstraintName(t)),
			quoteList(r.SourceColumns, l.quoteIdent),
			l.quoteIdent(target),
			quoteList(r.TargetColumns, l.quoteIdent),
			referentialActions(r),
		))
	}

	return fmt.Sprintf("CREATE TABLE %s (\n  %s\n)", l.QuoteTableName(t.Name), strings.Join(cols, ",\n  ")), nil
}

func (l *SQLite) CreatePrimaryKey(schema.Table) string { return "" }

func (l *SQLite) CreateForeignKeys(schema.Table) []string { return nil }

// CreateIndexes renders CREATE INDEX statements. For a schema-qualified
// table SQLite wants the schema on the index name and a bare table name.
func (l *SQLite) CreateIndexes(t schema.Table) []string {
	schemaName, _ := splitFQN(t.Name)
	quoteIndex := l.quoteIdent
	if schemaName != "" {
		quoteIndex = func(id string) string {
			return quoteFQN(schemaName, l.quoteIdent) + "." + l.quoteIdent(id)
		}
	}

	if len(t.Indexes) == 0 {
		return nil
	}
	stmts := make([]string, 0, len(t.Indexes))
	for _, idx := range t.Indexes {
		unique := ""
		if idx.IsUnique {
			unique = "UNIQUE "
		}
		stmts = append(stmts, fmt.Sprintf("CREATE %sINDEX %s ON %s (%s)",
			unique,
			quoteIndex(idx.IndexName(t)),
			l.quoteIdent(t.BaseName()),
			quoteList(idx.Columns, l.quoteIdent)))
	}
	return stmts
}

// AlterIdentitySeeds returns nothing; SQLite has no identity seed.
func (l *SQLite) AlterIdentitySeeds(schema.Table) []string { return nil }

func (l *SQLite) TableExists(ctx context.Context, s db.Session, name string) (bool, error) {
	schemaName, table := splitFQN(name)
	master := "sqlite_master"
	if schemaName != "" {
		master = l.quoteIdent(schemaName) + ".sqlite_master"
	}
	query := fmt.Sprintf(`
		SELECT COUNT(*)
		FROM %s
		WHERE type = 'table' AND name = ?
	`, master)
	return countExists(ctx, s, query, table)
}

func (l *SQLite) Insert(t schema.Table, columns []string) string {
	return insert(t, columns, l.QuoteTableName, l.quoteIdent, func(int) string { return "?" })
}

func (l *SQLite) IdentityInsert(schema.Table, bool) string { return "" }

// IdentitySync returns nothing: AUTOINCREMENT follows explicit values.
func (l *SQLite) IdentitySync(schema.Table) string { return "" }
