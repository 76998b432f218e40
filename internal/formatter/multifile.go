package formatter

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/tordrt/tablesmith/internal/applier"
)

const (
	formatMarkdown = "markdown"
	formatText     = "text"
)

// MultiFileFormatter writes one file per table plus an overview
type MultiFileFormatter struct {
	OutputDir    string
	OutputFormat string // "text" or "markdown"
	WithSeeds    bool
}

// NewMultiFileFormatter creates a new multi-file formatter
func NewMultiFileFormatter(outputDir, format string, withSeeds bool) *MultiFileFormatter {
	return &MultiFileFormatter{
		OutputDir:    outputDir,
		OutputFormat: format,
		WithSeeds:    withSeeds,
	}
}

// Format writes the plans to multiple files
func (f *MultiFileFormatter) Format(plans []*applier.Plan) error {
	if f.OutputFormat != formatMarkdown && f.OutputFormat != formatText {
		return fmt.Errorf("unsupported format: %s (use text or markdown)", f.OutputFormat)
	}

	if err := os.MkdirAll(f.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	if err := f.writeOverview(plans); err != nil {
		return fmt.Errorf("failed to write overview: %w", err)
	}

	for _, plan := range plans {
		if err := f.writeTableFile(plan); err != nil {
			return fmt.Errorf("failed to write table file for %s: %w", plan.Table.Name, err)
		}
	}

	return nil
}

// writeOverview lists tables in creation order with their dependencies
func (f *MultiFileFormatter) writeOverview(plans []*applier.Plan) error {
	ext := f.getFileExtension()
	filename := filepath.Join(f.OutputDir, "_overview"+ext)

	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer func() { _ = file.Close() }()

	if f.OutputFormat == formatMarkdown {
		_, _ = fmt.Fprintf(file, "# Schema Overview\n\n")
		_, _ = fmt.Fprintf(file, "Each table has a corresponding file: `<table_name>%s`\n\n", ext)
		_, _ = fmt.Fprintf(file, "## Creation order\n\n")
	} else {
		_, _ = fmt.Fprintf(file, "-- SCHEMA OVERVIEW\n")
		_, _ = fmt.Fprintf(file, "-- Each table has a file: <table_name>%s\n\n", ext)
	}

	for i, plan := range plans {
		line := plan.Table.Name
		if targets := referencedTables(plan); len(targets) > 0 {
			line += fmt.Sprintf(" (references: %s)", strings.Join(targets, ", "))
		}
		if f.OutputFormat == formatMarkdown {
			_, _ = fmt.Fprintf(file, "%d. **%s**\n", i+1, line)
		} else {
			_, _ = fmt.Fprintf(file, "-- %d. %s\n", i+1, line)
		}
	}

	return nil
}

// writeTableFile writes a single table plan to its own file
func (f *MultiFileFormatter) writeTableFile(plan *applier.Plan) error {
	filename := filepath.Join(f.OutputDir, fileName(plan.Table.Name)+f.getFileExtension())

	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer func() { _ = file.Close() }()

	var formatter Formatter
	if f.OutputFormat == formatMarkdown {
		formatter = NewMarkdownFormatter(file, f.WithSeeds)
	} else {
		formatter = NewTextFormatter(file, f.WithSeeds)
	}
	return formatter.Format([]*applier.Plan{plan})
}

// referencedTables returns the distinct tables plan's relations point at,
// sorted.
func referencedTables(plan *applier.Plan) []string {
	seen := map[string]bool{}
	var targets []string
	for _, rel := range plan.Table.Relations {
		if !seen[rel.TargetTable] {
			seen[rel.TargetTable] = true
			targets = append(targets, rel.TargetTable)
		}
	}
	sort.Strings(targets)
	return targets
}

// fileName keeps schema-qualified names on a single path segment.
func fileName(table string) string {
	return strings.NewReplacer("/", "_", "\\", "_").Replace(table)
}

func (f *MultiFileFormatter) getFileExtension() string {
	if f.OutputFormat == formatMarkdown {
		return ".md"
	}
	return ".sql"
}
