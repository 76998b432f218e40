package schema

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrMissingTableName is returned for a definition without a table name.
	ErrMissingTableName = errors.New("table definition has no table name")
	// ErrInvalidTable is returned for a structurally invalid definition.
	ErrInvalidTable = errors.New("invalid table definition")
	// ErrUnknownEntity is returned by Lookup for an unregistered name.
	ErrUnknownEntity = errors.New("unknown entity")
	// ErrDuplicateTable is returned by Add for an already registered name.
	ErrDuplicateTable = errors.New("duplicate table")
)

// Validate checks that the definition can be rendered: a name, at least one
// column, and keys/indexes that only reference declared columns.
func (t Table) Validate() error {
	if strings.TrimSpace(t.Name) == "" {
		return ErrMissingTableName
	}
	if len(t.Columns) == 0 {
		return invalid(t, "at least one column is required")
	}

	seen := make(map[string]bool, len(t.Columns))
	identities := 0
	for _, c := range t.Columns {
		if strings.TrimSpace(c.Name) == "" {
			return invalid(t, "column with empty name")
		}
		if seen[c.Name] {
			return invalid(t, fmt.Sprintf("column %s declared twice", c.Name))
		}
		seen[c.Name] = true
		if !c.Type.Known() {
			return invalid(t, fmt.Sprintf("column %s has unknown type %q", c.Name, c.Type))
		}
		if c.Identity {
			identities++
			if c.Type != TypeInteger && c.Type != TypeBigInt {
				return invalid(t, fmt.Sprintf("identity column %s must be integer or bigint", c.Name))
			}
		}
	}
	if identities > 1 {
		return invalid(t, "at most one identity column is allowed")
	}

	if err := t.checkColumns("primary key", t.PrimaryKey, seen); err != nil {
		return err
	}
	for _, r := range t.Relations {
		if strings.TrimSpace(r.TargetTable) == "" {
			return invalid(t, "relation without target table")
		}
		if len(r.SourceColumns) != len(r.TargetColumns) {
			return invalid(t, fmt.Sprintf("relation to %s: %d source columns, %d target columns",
				r.TargetTable, len(r.SourceColumns), len(r.TargetColumns)))
		}
		if err := t.checkColumns("relation to "+r.TargetTable, r.SourceColumns, seen); err != nil {
			return err
		}
	}
	for _, idx := range t.Indexes {
		if len(idx.Columns) == 0 {
			return invalid(t, "index without columns")
		}
		if err := t.checkColumns("index "+idx.IndexName(t), idx.Columns, seen); err != nil {
			return err
		}
	}
	return nil
}

func (t Table) checkColumns(what string, cols []string, declared map[string]bool) error {
	for _, c := range cols {
		if !declared[c] {
			return invalid(t, fmt.Sprintf("%s references unknown column %s", what, c))
		}
	}
	return nil
}

func invalid(t Table, reason string) error {
	return fmt.Errorf("%w %s: %s", ErrInvalidTable, t.Name, reason)
}

// Validate checks every table and that relations only point at tables
// declared earlier (or the table itself), since tables are created in order
// and foreign keys are added right after each table is created.
func (s *Schema) Validate() error {
	declared := make(map[string]bool, len(s.Tables))
	for _, t := range s.Tables {
		if err := t.Validate(); err != nil {
			return err
		}
		if declared[t.Name] {
			return fmt.Errorf("%w: %s", ErrDuplicateTable, t.Name)
		}
		for _, r := range t.Relations {
			if r.TargetTable != t.Name && !declared[r.TargetTable] {
				return invalid(t, fmt.Sprintf("relation references %s, which is not declared before it", r.TargetTable))
			}
		}
		declared[t.Name] = true
	}
	return nil
}

// Add registers a table definition at the end of the creation order.
func (s *Schema) Add(t Table) error {
	if err := t.Validate(); err != nil {
		return err
	}
	if _, err := s.Lookup(t.Name); err == nil {
		return fmt.Errorf("%w: %s", ErrDuplicateTable, t.Name)
	}
	s.Tables = append(s.Tables, t)
	return nil
}

// Lookup returns the definition registered under name.
func (s *Schema) Lookup(name string) (Table, error) {
	for _, t := range s.Tables {
		if t.Name == name {
			return t, nil
		}
	}
	return Table{}, fmt.Errorf("%w: %s", ErrUnknownEntity, name)
}
