package formatter

import (
	"fmt"
	"io"
	"strings"

	"github.com/tordrt/tablesmith/internal/applier"
)

// Formatter writes table plans somewhere.
type Formatter interface {
	Format(plans []*applier.Plan) error
}

// TextFormatter writes plans as a runnable SQL script
type TextFormatter struct {
	writer    io.Writer
	withSeeds bool
}

// NewTextFormatter creates a new text formatter. withSeeds includes the
// identity-seed statements.
func NewTextFormatter(w io.Writer, withSeeds bool) *TextFormatter {
	return &TextFormatter{writer: w, withSeeds: withSeeds}
}

// Format writes every plan's statements, one table after another
func (f *TextFormatter) Format(plans []*applier.Plan) error {
	for i, plan := range plans {
		if i > 0 {
			_, _ = fmt.Fprintln(f.writer) // Blank line between tables
		}
		if err := f.formatPlan(plan); err != nil {
			return err
		}
	}
	return nil
}

func (f *TextFormatter) formatPlan(plan *applier.Plan) error {
	pkStr := ""
	if len(plan.Table.PrimaryKey) > 0 {
		pkStr = fmt.Sprintf(" (PK: %s)", strings.Join(plan.Table.PrimaryKey, ", "))
	}
	if _, err := fmt.Fprintf(f.writer, "-- TABLE %s%s\n", plan.Table.Name, pkStr); err != nil {
		return err
	}

	for _, stmt := range plan.Statements(f.withSeeds) {
		if _, err := fmt.Fprintf(f.writer, "%s;\n", stmt); err != nil {
			return err
		}
	}
	return nil
}
