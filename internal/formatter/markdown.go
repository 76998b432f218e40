package formatter

import (
	"fmt"
	"io"
	"strings"

	"github.com/tordrt/tablesmith/internal/applier"
	"github.com/tordrt/tablesmith/internal/schema"
)

// MarkdownFormatter formats plans as markdown
type MarkdownFormatter struct {
	writer    io.Writer
	withSeeds bool
}

// NewMarkdownFormatter creates a new markdown formatter
func NewMarkdownFormatter(w io.Writer, withSeeds bool) *MarkdownFormatter {
	return &MarkdownFormatter{writer: w, withSeeds: withSeeds}
}

// Format writes the plans in markdown format
func (f *MarkdownFormatter) Format(plans []*applier.Plan) error {
	_, _ = fmt.Fprintln(f.writer, "# Schema Plan")
	_, _ = fmt.Fprintln(f.writer)

	for _, plan := range plans {
		f.formatPlan(plan)
	}
	return nil
}

func (f *MarkdownFormatter) formatPlan(plan *applier.Plan) {
	table := plan.Table
	_, _ = fmt.Fprintf(f.writer, "## %s\n\n", table.Name)

	// Columns
	_, _ = fmt.Fprintln(f.writer, "### Columns")
	_, _ = fmt.Fprintln(f.writer)
	for _, col := range table.Columns {
		typeStr := columnType(col)
		constraintStr := formatConstraints(col, table.PrimaryKey)
		if constraintStr != "" {
			_, _ = fmt.Fprintf(f.writer, "- **%s:** %s, %s\n", col.Name, typeStr, constraintStr)
		} else {
			_, _ = fmt.Fprintf(f.writer, "- **%s:** %s\n", col.Name, typeStr)
		}
	}
	_, _ = fmt.Fprintln(f.writer)

	// References
	if len(table.Relations) > 0 {
		_, _ = fmt.Fprintln(f.writer, "### References")
		_, _ = fmt.Fprintln(f.writer)
		for _, rel := range table.Relations {
			_, _ = fmt.Fprintf(f.writer, "- %s → %s (%s)\n",
				strings.Join(rel.SourceColumns, ", "),
				rel.TargetTable,
				strings.Join(rel.TargetColumns, ", "))
		}
		_, _ = fmt.Fprintln(f.writer)
	}

	f.writeBlock("Create table", []string{plan.CreateTable})
	if plan.PrimaryKey != "" {
		f.writeBlock("Primary key", []string{plan.PrimaryKey})
	}
	f.writeBlock("Foreign keys", plan.ForeignKeys)
	f.writeBlock("Indexes", plan.Indexes)
	if f.withSeeds {
		f.writeBlock("Identity seeds", plan.IdentitySeeds)
	}
}

func (f *MarkdownFormatter) writeBlock(title string, stmts []string) {
	if len(stmts) == 0 {
		return
	}
	_, _ = fmt.Fprintf(f.writer, "### %s\n\n```sql\n", title)
	for _, stmt := range stmts {
		_, _ = fmt.Fprintf(f.writer, "%s;\n", stmt)
	}
	_, _ = fmt.Fprintln(f.writer, "```")
	_, _ = fmt.Fprintln(f.writer)
}

func columnType(col schema.Column) string {
	switch {
	case col.Type == schema.TypeString && col.Size > 0:
		return fmt.Sprintf("%s(%d)", col.Type, col.Size)
	case col.Type == schema.TypeDecimal && col.Precision > 0:
		return fmt.Sprintf("%s(%d,%d)", col.Type, col.Precision, col.Scale)
	}
	return string(col.Type)
}

func formatConstraints(col schema.Column, primaryKey []string) string {
	var constraints []string

	for _, pk := range primaryKey {
		if pk == col.Name {
			constraints = append(constraints, "PK")
			break
		}
	}

	if col.Identity {
		if col.IdentitySeed > 0 {
			constraints = append(constraints, fmt.Sprintf("IDENTITY from %d", col.IdentitySeed))
		} else {
			constraints = append(constraints, "IDENTITY")
		}
	}

	if col.IsUnique {
		constraints = append(constraints, "UNIQUE")
	}

	if !col.Nullable {
		constraints = append(constraints, "NOT NULL")
	}

	if col.DefaultValue != nil {
		constraints = append(constraints, fmt.Sprintf("DEFAULT %s", *col.DefaultValue))
	}

	return strings.Join(constraints, ", ")
}
