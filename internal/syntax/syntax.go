// Package syntax renders schema.Table definitions as dialect-specific DDL.
//
// Each Provider owns every dialect decision: identifier quoting, type
// mapping, whether keys are declared inline or added afterwards, and how a
// table's existence is checked. The applier only asks for statement text and
// runs it.
package syntax

import (
	"context"
	"fmt"
	"strings"

	"github.com/tordrt/tablesmith/internal/db"
	"github.com/tordrt/tablesmith/internal/schema"
)

// Provider translates table definitions into one product's SQL.
type Provider interface {
	// Product returns the database product this provider targets.
	Product() db.Product

	// QuoteTableName quotes a possibly schema-qualified table name.
	QuoteTableName(name string) string

	// CreateTable renders the CREATE TABLE statement.
	CreateTable(t schema.Table) (string, error)
	// CreatePrimaryKey renders the primary key statement, or "" when the
	// key is declared inside CREATE TABLE or the table has none.
	CreatePrimaryKey(t schema.Table) string
	// CreateForeignKeys renders one statement per relation that is not
	// declared inside CREATE TABLE.
	CreateForeignKeys(t schema.Table) []string
	// CreateIndexes renders one statement per index.
	CreateIndexes(t schema.Table) []string
	// AlterIdentitySeeds renders statements that move identity columns to
	// their declared seed after the table has been populated.
	AlterIdentitySeeds(t schema.Table) []string
	// IdentitySync renders the statement that moves the identity generator
	// past values inserted explicitly, or "" if the product does that itself.
	IdentitySync(t schema.Table) string

	// TableExists reports whether the table exists.
	TableExists(ctx context.Context, s db.Session, name string) (bool, error)

	// Insert renders a parameterized INSERT for the given columns.
	Insert(t schema.Table, columns []string) string
	// IdentityInsert renders the statement that allows (enable) or forbids
	// explicit values in the identity column, or "" if the product always
	// allows them.
	IdentityInsert(t schema.Table, enable bool) string
}

// ForProduct returns the provider for a database product.
func ForProduct(p db.Product) (Provider, error) {
	switch p {
	case db.Postgres:
		return NewPostgres(), nil
	case db.MySQL:
		return NewMySQL(), nil
	case db.SQLite:
		return NewSQLite(), nil
	case db.SQLServer:
		return NewSQLServer(), nil
	default:
		return nil, fmt.Errorf("no syntax provider for database product %q", p)
	}
}

const defaultStringSize = 255

func stringSize(c schema.Column) int {
	if c.Size > 0 {
		return c.Size
	}
	return defaultStringSize
}

func decimalType(name string, c schema.Column) string {
	if c.Precision <= 0 {
		return name
	}
	return fmt.Sprintf("%s(%d,%d)", name, c.Precision, c.Scale)
}

// quoteFQN quotes each dotted segment of a possibly schema-qualified name:
//
//	"dbo.Users" -> [dbo].[Users]
//	"Users"     -> [Users]
func quoteFQN(fqn string, quoteIdent func(string) string) string {
	parts := strings.Split(fqn, ".")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, quoteIdent(p))
	}
	return strings.Join(out, ".")
}

// splitFQN returns the schema part ("" if unqualified) and the table part.
func splitFQN(fqn string) (string, string) {
	if i := strings.LastIndexByte(fqn, '.'); i >= 0 {
		return fqn[:i], fqn[i+1:]
	}
	return "", fqn
}

func quoteList(cols []string, quoteIdent func(string) string) string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = quoteIdent(c)
	}
	return strings.Join(out, ", ")
}

// columnSuffix renders the NOT NULL / DEFAULT / UNIQUE tail shared by all
// dialects.
func columnSuffix(c schema.Column) string {
	var sb strings.Builder
	if !c.Nullable {
		sb.WriteString(" NOT NULL")
	}
	if c.DefaultValue != nil {
		if def := strings.TrimSpace(*c.DefaultValue); def != "" {
			sb.WriteString(" DEFAULT ")
			// Default is emitted as a raw SQL expression.
			sb.WriteString(def)
		}
	}
	if c.IsUnique {
		sb.WriteString(" UNIQUE")
	}
	return sb.String()
}

func referentialActions(r schema.Relation) string {
	var sb strings.Builder
	if r.OnDelete != "" {
		sb.WriteString(" ON DELETE ")
		sb.WriteString(strings.ToUpper(r.OnDelete))
	}
	if r.OnUpdate != "" {
		sb.WriteString(" ON UPDATE ")
		sb.WriteString(strings.ToUpper(r.OnUpdate))
	}
	return sb.String()
}

// alterAddForeignKeys renders ALTER TABLE ... ADD CONSTRAINT ... FOREIGN KEY
// statements, the form shared by every product that supports adding
// constraints after creation.
func alterAddForeignKeys(t schema.Table, quoteTable, quoteIdent func(string) string) []string {
	if len(t.Relations) == 0 {
		return nil
	}
	stmts := make([]string, 0, len(t.Relations))
	for _, r := range t.Relations {
		stmts = append(stmts, fmt.Sprintf("ALTER TABLE %s ADD CONSTRAINT %s FOREIGN KEY (%s) REFERENCES %s (%s)%s",
			quoteTable(t.Name),
			quoteIdent(r.ConstraintName(t)),
			quoteList(r.SourceColumns, quoteIdent),
			quoteTable(r.TargetTable),
			quoteList(r.TargetColumns, quoteIdent),
			referentialActions(r),
		))
	}
	return stmts
}

// createIndexes renders CREATE [UNIQUE] <kind> INDEX statements. kind is an
// optional keyword placed before INDEX, such as NONCLUSTERED.
func createIndexes(t schema.Table, kind string, quoteTable, quoteIdent func(string) string) []string {
	if len(t.Indexes) == 0 {
		return nil
	}
	stmts := make([]string, 0, len(t.Indexes))
	for _, idx := range t.Indexes {
		var sb strings.Builder
		sb.WriteString("CREATE ")
		if idx.IsUnique {
			sb.WriteString("UNIQUE ")
		}
		if kind != "" {
			sb.WriteString(kind)
			sb.WriteByte(' ')
		}
		fmt.Fprintf(&sb, "INDEX %s ON %s (%s)",
			quoteIdent(idx.IndexName(t)),
			quoteTable(t.Name),
			quoteList(idx.Columns, quoteIdent))
		stmts = append(stmts, sb.String())
	}
	return stmts
}

func insert(t schema.Table, columns []string, quoteTable, quoteIdent func(string) string, placeholder func(int) string) string {
	params := make([]string, len(columns))
	for i := range columns {
		params[i] = placeholder(i + 1)
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		quoteTable(t.Name), quoteList(columns, quoteIdent), strings.Join(params, ", "))
}

func countExists(ctx context.Context, s db.Session, query string, args ...any) (bool, error) {
	var n int64
	if err := s.QueryRow(ctx, query, args...).Scan(&n); err != nil {
		return false, fmt.Errorf("failed to check table existence: %w", err)
	}
	return n > 0, nil
}

func checkColumns(t schema.Table) error {
	if strings.TrimSpace(t.Name) == "" {
		return schema.ErrMissingTableName
	}
	if len(t.Columns) == 0 {
		return fmt.Errorf("%w %s: at least one column is required", schema.ErrInvalidTable, t.Name)
	}
	return nil
}
