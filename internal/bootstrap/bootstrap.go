// Package bootstrap loads a schema document from YAML and turns it into a
// Creation and a Seeder for the applier.
//
// A document lists tables in creation order. Each table may carry seed rows,
// which are inserted right after the table is created and before any of its
// constraints exist:
//
//	tables:
//	  - name: WidgetKind
//	    columns:
//	      - {name: id, type: integer, identity: true}
//	      - {name: label, type: string, size: 64}
//	    primary_key: [id]
//	    seed:
//	      - {id: 1, label: gear}
package bootstrap

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/tordrt/tablesmith/internal/applier"
	"github.com/tordrt/tablesmith/internal/schema"
)

// Document is a schema file.
type Document struct {
	Tables []TableSpec `yaml:"tables"`
}

// TableSpec is a table definition plus the rows it is seeded with.
type TableSpec struct {
	schema.Table `yaml:",inline"`
	Seed         []map[string]any `yaml:"seed,omitempty"`
}

// Load reads and validates a schema file.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema file: %w", err)
	}
	doc, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

// Parse decodes and validates a schema document.
func Parse(data []byte) (*Document, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse schema: %w", err)
	}
	if len(doc.Tables) == 0 {
		return nil, fmt.Errorf("schema declares no tables")
	}
	s := doc.Schema()
	if err := s.Validate(); err != nil {
		return nil, err
	}
	for _, spec := range doc.Tables {
		if err := spec.checkSeed(); err != nil {
			return nil, err
		}
	}
	return &doc, nil
}

// Schema returns the table definitions in document order.
func (d *Document) Schema() schema.Schema {
	s := schema.Schema{Tables: make([]schema.Table, 0, len(d.Tables))}
	for _, spec := range d.Tables {
		s.Tables = append(s.Tables, spec.Table)
	}
	return s
}

// Table returns the named table spec.
func (d *Document) Table(name string) (TableSpec, bool) {
	for _, spec := range d.Tables {
		if spec.Name == name {
			return spec, true
		}
	}
	return TableSpec{}, false
}

func (ts TableSpec) checkSeed() error {
	for i, row := range ts.Seed {
		for col := range row {
			if _, ok := ts.Column(col); !ok {
				return fmt.Errorf("%w %s: seed row %d sets unknown column %s", schema.ErrInvalidTable, ts.Name, i, col)
			}
		}
	}
	return nil
}

// Creation creates every table of a document in order.
type Creation struct {
	doc       *Document
	overwrite bool
}

// NewCreation returns a Creation for doc. With overwrite, tables that
// already exist are dropped and recreated.
func NewCreation(doc *Document, overwrite bool) *Creation {
	return &Creation{doc: doc, overwrite: overwrite}
}

// InitializeSchema implements applier.Creation.
func (c *Creation) InitializeSchema(ctx context.Context, a *applier.Applier) error {
	for _, spec := range c.doc.Tables {
		if err := a.CreateTable(ctx, spec.Table, c.overwrite); err != nil {
			return err
		}
	}
	return nil
}

// Initialize creates every table of doc, seeding each with its document rows.
func Initialize(ctx context.Context, a *applier.Applier, doc *Document, overwrite bool) error {
	return a.Initialize(ctx, NewCreation(doc, overwrite), NewBaseData(doc, a.Logger()))
}
