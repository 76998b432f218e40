package schema

import (
	"fmt"
	"strings"
)

// DataType is a dialect-neutral column type. Dialect providers map it to
// product-specific SQL.
type DataType string

const (
	TypeInteger  DataType = "integer"
	TypeBigInt   DataType = "bigint"
	TypeBoolean  DataType = "boolean"
	TypeString   DataType = "string"
	TypeText     DataType = "text"
	TypeDateTime DataType = "datetime"
	TypeDecimal  DataType = "decimal"
	TypeGUID     DataType = "guid"
)

// Known reports whether t is one of the supported data types
func (t DataType) Known() bool {
	switch t {
	case TypeInteger, TypeBigInt, TypeBoolean, TypeString, TypeText,
		TypeDateTime, TypeDecimal, TypeGUID:
		return true
	}
	return false
}

// Schema represents an ordered set of table definitions.
// Table order is creation order.
type Schema struct {
	Tables []Table `yaml:"tables"`
}

// Table represents a database table definition
type Table struct {
	Name           string     `yaml:"name"`
	Columns        []Column   `yaml:"columns"`
	PrimaryKey     []string   `yaml:"primary_key"`
	PrimaryKeyName string     `yaml:"primary_key_name,omitempty"`
	Relations      []Relation `yaml:"relations"`
	Indexes        []Index    `yaml:"indexes"`
}

// Column represents a table column
type Column struct {
	Name         string   `yaml:"name"`
	Type         DataType `yaml:"type"`
	Size         int      `yaml:"size,omitempty"`
	Precision    int      `yaml:"precision,omitempty"`
	Scale        int      `yaml:"scale,omitempty"`
	Nullable     bool     `yaml:"nullable,omitempty"`
	DefaultValue *string  `yaml:"default,omitempty"`
	IsUnique     bool     `yaml:"unique,omitempty"`
	Identity     bool     `yaml:"identity,omitempty"`
	IdentitySeed int64    `yaml:"identity_seed,omitempty"`
}

// Relation represents a foreign key relationship
type Relation struct {
	Name          string   `yaml:"name,omitempty"`
	SourceColumns []string `yaml:"columns"`
	TargetTable   string   `yaml:"references"`
	TargetColumns []string `yaml:"target_columns"`
	OnDelete      string   `yaml:"on_delete,omitempty"`
	OnUpdate      string   `yaml:"on_update,omitempty"`
}

// Index represents a database index
type Index struct {
	Name     string   `yaml:"name,omitempty"`
	Columns  []string `yaml:"columns"`
	IsUnique bool     `yaml:"unique,omitempty"`
}

// Entity is anything that statically declares its table definition.
type Entity interface {
	Definition() Table
}

// Definition makes a Table usable wherever an Entity is expected.
func (t Table) Definition() Table { return t }

// BaseName returns the last dotted segment of the table name, so that
// "dbo.Widget" yields "Widget".
func (t Table) BaseName() string {
	if i := strings.LastIndexByte(t.Name, '.'); i >= 0 {
		return t.Name[i+1:]
	}
	return t.Name
}

// Column returns the named column.
func (t Table) Column(name string) (Column, bool) {
	for _, c := range t.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// IdentityColumn returns the table's identity column, if it has one.
func (t Table) IdentityColumn() (Column, bool) {
	for _, c := range t.Columns {
		if c.Identity {
			return c, true
		}
	}
	return Column{}, false
}

// PrimaryKeyConstraint returns the primary key constraint name, PK_<table>
// unless one was declared.
func (t Table) PrimaryKeyConstraint() string {
	if t.PrimaryKeyName != "" {
		return t.PrimaryKeyName
	}
	return "PK_" + t.BaseName()
}

// ConstraintName returns the foreign key name, FK_<table>_<target>_<cols>
// unless one was declared.
func (r Relation) ConstraintName(t Table) string {
	if r.Name != "" {
		return r.Name
	}
	target := r.TargetTable
	if i := strings.LastIndexByte(target, '.'); i >= 0 {
		target = target[i+1:]
	}
	return fmt.Sprintf("FK_%s_%s_%s", t.BaseName(), target, strings.Join(r.SourceColumns, "_"))
}

// IndexName returns the index name, IX_<table>_<cols> unless one was declared.
func (i Index) IndexName(t Table) string {
	if i.Name != "" {
		return i.Name
	}
	return fmt.Sprintf("IX_%s_%s", t.BaseName(), strings.Join(i.Columns, "_"))
}
