// Package applier creates tables from schema definitions.
//
// For a table that does not exist yet the applier runs, in order: CREATE
// TABLE, the seeder (if any), the primary key, each foreign key, each index,
// and on SQL Server the identity-seed adjustments. Constraints come after
// seeding so base data is inserted without constraint checks in the way.
//
// Any failure stops the sequence where it happened. Nothing is rolled back;
// wrap the session in a transaction if that matters.
package applier

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tordrt/tablesmith/internal/db"
	"github.com/tordrt/tablesmith/internal/metrics"
	"github.com/tordrt/tablesmith/internal/schema"
	"github.com/tordrt/tablesmith/internal/syntax"
)

// identitySeedProduct is the only product whose identity columns are
// reseeded after the table has been populated.
const identitySeedProduct = db.SQLServer

// TableCreated is passed to the seeder right after CREATE TABLE succeeds.
type TableCreated struct {
	Table      string
	Definition schema.Table
	// Cancel may be set by the seeder. It is not consulted: constraints are
	// always created.
	Cancel bool
}

// Seeder inserts rows into a table that has just been created and has no
// constraints yet.
type Seeder interface {
	SeedTable(ctx context.Context, s db.Session, ev *TableCreated) error
}

// SeederFunc adapts a function to the Seeder interface.
type SeederFunc func(ctx context.Context, s db.Session, ev *TableCreated) error

// SeedTable calls f.
func (f SeederFunc) SeedTable(ctx context.Context, s db.Session, ev *TableCreated) error {
	return f(ctx, s, ev)
}

// Creation decides which tables a bootstrap creates and in which order.
type Creation interface {
	InitializeSchema(ctx context.Context, a *Applier) error
}

// Applier runs DDL for table definitions on one session.
type Applier struct {
	session  db.Session
	provider syntax.Provider
	seeder   Seeder
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

// Option configures an Applier.
type Option func(*Applier)

// WithProvider overrides the syntax provider chosen from the session's product.
func WithProvider(p syntax.Provider) Option {
	return func(a *Applier) { a.provider = p }
}

// WithSeeder sets the seeder invoked after each table creation.
func WithSeeder(s Seeder) Option {
	return func(a *Applier) { a.seeder = s }
}

// WithLogger sets the logger. slog.Default() is used otherwise.
func WithLogger(l *slog.Logger) Option {
	return func(a *Applier) { a.logger = l }
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *metrics.Metrics) Option {
	return func(a *Applier) { a.metrics = m }
}

// New creates an Applier for the session.
func New(session db.Session, opts ...Option) (*Applier, error) {
	a := &Applier{session: session}
	for _, opt := range opts {
		opt(a)
	}
	if a.logger == nil {
		a.logger = slog.Default()
	}
	if a.provider == nil {
		p, err := syntax.ForProduct(session.Product())
		if err != nil {
			return nil, err
		}
		a.provider = p
	}
	return a, nil
}

// Provider returns the syntax provider in use.
func (a *Applier) Provider() syntax.Provider {
	return a.provider
}

// CreateEntity creates the table declared by e. See CreateTable.
func (a *Applier) CreateEntity(ctx context.Context, e schema.Entity, overwrite bool) error {
	return a.CreateTable(ctx, e.Definition(), overwrite)
}

// CreateTable creates t if it does not exist. With overwrite an existing
// table is dropped first and then recreated; without it an existing table
// is left alone and no statement is executed.
func (a *Applier) CreateTable(ctx context.Context, t schema.Table, overwrite bool) (err error) {
	defer func() {
		if err != nil {
			a.metrics.Table(metrics.OutcomeFailed)
		}
	}()

	if err := t.Validate(); err != nil {
		return &MetadataError{Entity: t.Name, Err: err}
	}

	plan, err := BuildPlan(a.provider, t)
	if err != nil {
		return &MetadataError{Entity: t.Name, Err: err}
	}

	exists, err := a.TableExists(ctx, t.Name)
	if err != nil {
		return err
	}

	if overwrite && exists {
		if err := a.DropTable(ctx, t.Name); err != nil {
			return err
		}
		exists = false
	}

	if exists {
		a.logger.Info("table exists, skipping", "table", t.Name)
		a.metrics.Table(metrics.OutcomeSkipped)
		return nil
	}

	return a.apply(ctx, plan)
}

func (a *Applier) apply(ctx context.Context, plan *Plan) error {
	name := plan.Table.Name

	if err := a.exec(ctx, name, CategoryCreateTable, plan.CreateTable); err != nil {
		return err
	}

	if a.seeder != nil {
		ev := &TableCreated{Table: name, Definition: plan.Table}
		if err := a.seeder.SeedTable(ctx, a.session, ev); err != nil {
			return fmt.Errorf("failed to seed table %s: %w", name, err)
		}
	}

	if plan.PrimaryKey != "" {
		if err := a.exec(ctx, name, CategoryPrimaryKey, plan.PrimaryKey); err != nil {
			return err
		}
	}

	for _, stmt := range plan.ForeignKeys {
		if err := a.exec(ctx, name, CategoryForeignKey, stmt); err != nil {
			return err
		}
	}

	for _, stmt := range plan.Indexes {
		if err := a.exec(ctx, name, CategoryIndex, stmt); err != nil {
			return err
		}
	}

	if a.session.Product() == identitySeedProduct {
		for _, stmt := range plan.IdentitySeeds {
			if err := a.exec(ctx, name, CategoryIdentitySeed, stmt); err != nil {
				return err
			}
		}
	}

	a.logger.Info("table created",
		"table", name,
		"foreign_keys", len(plan.ForeignKeys),
		"indexes", len(plan.Indexes))
	a.metrics.Table(metrics.OutcomeCreated)
	return nil
}

// DropEntity drops the table declared by e. It fails with a MetadataError
// when the declaration carries no table name.
func (a *Applier) DropEntity(ctx context.Context, e schema.Entity) error {
	t := e.Definition()
	if t.Name == "" {
		return &MetadataError{
			Entity: fmt.Sprintf("%T", e),
			Err:    fmt.Errorf("%w, which is used to find the table to drop", schema.ErrMissingTableName),
		}
	}
	return a.DropTable(ctx, t.Name)
}

// DropTable drops the named table. A missing table is an ExecutionError,
// like any other statement the database rejects.
func (a *Applier) DropTable(ctx context.Context, name string) error {
	stmt := "DROP TABLE " + a.provider.QuoteTableName(name)
	if err := a.exec(ctx, name, CategoryDropTable, stmt); err != nil {
		return err
	}
	a.logger.Info("table dropped", "table", name)
	a.metrics.Table(metrics.OutcomeDropped)
	return nil
}

// TableExists reports whether the named table exists.
func (a *Applier) TableExists(ctx context.Context, name string) (bool, error) {
	exists, err := a.provider.TableExists(ctx, a.session, name)
	if err != nil {
		return false, &ExecutionError{Table: name, Category: CategoryExists, Err: err}
	}
	return exists, nil
}

// Initialize runs a bootstrap with seeder bound to this call only. Other
// calls on a, concurrent or later, never see it.
func (a *Applier) Initialize(ctx context.Context, c Creation, seeder Seeder) error {
	scoped := *a
	scoped.seeder = seeder
	return c.InitializeSchema(ctx, &scoped)
}

// Session returns the session statements run on.
func (a *Applier) Session() db.Session {
	return a.session
}

// Logger returns the applier's logger.
func (a *Applier) Logger() *slog.Logger {
	return a.logger
}

// Metrics returns the metrics sink, which may be nil.
func (a *Applier) Metrics() *metrics.Metrics {
	return a.metrics
}

func (a *Applier) exec(ctx context.Context, table, category, stmt string) error {
	a.logger.Debug("executing statement", "table", table, "category", category, "sql", stmt)
	if _, err := a.session.Execute(ctx, stmt); err != nil {
		execErr := &ExecutionError{Table: table, Category: category, Statement: stmt, Err: err}
		a.logger.Error("statement failed", "table", table, "category", category, "code", execErr.Code(), "error", err)
		return execErr
	}
	a.metrics.Statement(category)
	return nil
}
