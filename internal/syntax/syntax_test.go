package syntax

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/tordrt/tablesmith/internal/db"
	"github.com/tordrt/tablesmith/internal/schema"
)

func strPtr(s string) *string { return &s }

func widget() schema.Table {
	return schema.Table{
		Name: "Widget",
		Columns: []schema.Column{
			{Name: "id", Type: schema.TypeInteger, Identity: true, IdentitySeed: 1000},
			{Name: "kindId", Type: schema.TypeInteger},
			{Name: "alias", Type: schema.TypeString, Size: 64},
			{Name: "price", Type: schema.TypeDecimal, Precision: 10, Scale: 2, Nullable: true},
			{Name: "active", Type: schema.TypeBoolean, DefaultValue: strPtr("1")},
		},
		PrimaryKey: []string{"id"},
		Relations: []schema.Relation{
			{SourceColumns: []string{"kindId"}, TargetTable: "WidgetKind", TargetColumns: []string{"id"}, OnDelete: "cascade"},
		},
		Indexes: []schema.Index{
			{Columns: []string{"alias"}, IsUnique: true},
			{Columns: []string{"kindId", "active"}},
		},
	}
}

type statements struct {
	create  string
	pk      string
	fks     []string
	indexes []string
	seeds   []string
}

func render(t *testing.T, p Provider, tb schema.Table) statements {
	t.Helper()
	create, err := p.CreateTable(tb)
	if err != nil {
		t.Fatalf("CreateTable() unexpected error: %v", err)
	}
	return statements{
		create:  create,
		pk:      p.CreatePrimaryKey(tb),
		fks:     p.CreateForeignKeys(tb),
		indexes: p.CreateIndexes(tb),
		seeds:   p.AlterIdentitySeeds(tb),
	}
}

func TestProviders(t *testing.T) {
	tests := []struct {
		name     string
		provider Provider
		want     statements
	}{
		{
			name:     "postgres",
			provider: NewPostgres(),
			want: statements{
				create: "CREATE TABLE \"Widget\" (\n" +
					"  \"id\" integer GENERATED BY DEFAULT AS IDENTITY (START WITH 1000) NOT NULL,\n" +
					"  \"kindId\" integer NOT NULL,\n" +
					"  \"alias\" varchar(64) NOT NULL,\n" +
					"  \"price\" numeric(10,2),\n" +
					"  \"active\" boolean NOT NULL DEFAULT 1\n" +
					")",
				pk: `ALTER TABLE "Widget" ADD CONSTRAINT "PK_Widget" PRIMARY KEY ("id")`,
				fks: []string{
					`ALTER TABLE "Widget" ADD CONSTRAINT "FK_Widget_WidgetKind_kindId" FOREIGN KEY ("kindId") REFERENCES "WidgetKind" ("id") ON DELETE CASCADE`,
				},
				indexes: []string{
					`CREATE UNIQUE INDEX "IX_Widget_alias" ON "Widget" ("alias")`,
					`CREATE INDEX "IX_Widget_kindId_active" ON "Widget" ("kindId", "active")`,
				},
			},
		},
		{
			name:     "mysql",
			provider: NewMySQL(),
			want: statements{
				create: "CREATE TABLE `Widget` (\n" +
					"  `id` INT NOT NULL AUTO_INCREMENT,\n" +
					"  `kindId` INT NOT NULL,\n" +
					"  `alias` VARCHAR(64) NOT NULL,\n" +
					"  `price` DECIMAL(10,2),\n" +
					"  `active` TINYINT(1) NOT NULL DEFAULT 1,\n" +
					"  PRIMARY KEY (`id`)\n" +
					") AUTO_INCREMENT=1000",
				fks: []string{
					"ALTER TABLE `Widget` ADD CONSTRAINT `FK_Widget_WidgetKind_kindId` FOREIGN KEY (`kindId`) REFERENCES `WidgetKind` (`id`) ON DELETE CASCADE",
				},
				indexes: []string{
					"CREATE UNIQUE INDEX `IX_Widget_alias` ON `Widget` (`alias`)",
					"CREATE INDEX `IX_Widget_kindId_active` ON `Widget` (`kindId`, `active`)",
				},
			},
		},
		{
			name:     "sqlite",
			provider: NewSQLite(),
			want: statements{
				create: "CREATE TABLE \"Widget\" (\n" +
					"  \"id\" INTEGER PRIMARY KEY AUTOINCREMENT,\n" +
					"  \"kindId\" INTEGER NOT NULL,\n" +
					"  \"alias\" TEXT NOT NULL,\n" +
					"  \"price\" NUMERIC,\n" +
					"  \"active\" INTEGER NOT NULL DEFAULT 1,\n" +
					"  CONSTRAINT \"FK_Widget_WidgetKind_kindId\" FOREIGN KEY (\"kindId\") REFERENCES \"WidgetKind\" (\"id\") ON DELETE CASCADE\n" +
					")",
				indexes: []string{
					`CREATE UNIQUE INDEX "IX_Widget_alias" ON "Widget" ("alias")`,
					`CREATE INDEX "IX_Widget_kindId_active" ON "Widget" ("kindId", "active")`,
				},
			},
		},
		{
			name:     "sqlserver",
			provider: NewSQLServer(),
			want: statements{
				create: "CREATE TABLE [Widget] (\n" +
					"  [id] INT IDENTITY(1,1) NOT NULL,\n" +
					"  [kindId] INT NOT NULL,\n" +
					"  [alias] NVARCHAR(64) NOT NULL,\n" +
					"  [price] DECIMAL(10,2),\n" +
					"  [active] BIT NOT NULL DEFAULT 1\n" +
					")",
				pk: "ALTER TABLE [Widget] ADD CONSTRAINT [PK_Widget] PRIMARY KEY CLUSTERED ([id])",
				fks: []string{
					"ALTER TABLE [Widget] ADD CONSTRAINT [FK_Widget_WidgetKind_kindId] FOREIGN KEY ([kindId]) REFERENCES [WidgetKind] ([id]) ON DELETE CASCADE",
				},
				indexes: []string{
					"CREATE UNIQUE NONCLUSTERED INDEX [IX_Widget_alias] ON [Widget] ([alias])",
					"CREATE NONCLUSTERED INDEX [IX_Widget_kindId_active] ON [Widget] ([kindId], [active])",
				},
				seeds: []string{
					"IF NOT EXISTS (SELECT 1 FROM [Widget]) DBCC CHECKIDENT (N'[Widget]', RESEED, 1000) " +
						"ELSE IF (SELECT MAX([id]) FROM [Widget]) < 1000 DBCC CHECKIDENT (N'[Widget]', RESEED, 999)",
				},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := render(t, tt.provider, widget())
			if got.create != tt.want.create {
				t.Errorf("CreateTable() =\n%s\nwant\n%s", got.create, tt.want.create)
			}
			if got.pk != tt.want.pk {
				t.Errorf("CreatePrimaryKey() = %q, want %q", got.pk, tt.want.pk)
			}
			if !reflect.DeepEqual(got.fks, tt.want.fks) {
				t.Errorf("CreateForeignKeys() = %q, want %q", got.fks, tt.want.fks)
			}
			if !reflect.DeepEqual(got.indexes, tt.want.indexes) {
				t.Errorf("CreateIndexes() = %q, want %q", got.indexes, tt.want.indexes)
			}
			if !reflect.DeepEqual(got.seeds, tt.want.seeds) {
				t.Errorf("AlterIdentitySeeds() = %q, want %q", got.seeds, tt.want.seeds)
			}
		})
	}
}

func TestSQLiteCompositeKey(t *testing.T) {
	tb := schema.Table{
		Name: "main.WidgetTag",
		Columns: []schema.Column{
			{Name: "widgetId", Type: schema.TypeInteger},
			{Name: "tag", Type: schema.TypeString},
		},
		PrimaryKey: []string{"widgetId", "tag"},
		Indexes:    []schema.Index{{Columns: []string{"tag"}}},
	}

	p := NewSQLite()
	create, err := p.CreateTable(tb)
	if err != nil {
		t.Fatalf("CreateTable() unexpected error: %v", err)
	}
	if !strings.Contains(create, `CONSTRAINT "PK_WidgetTag" PRIMARY KEY ("widgetId", "tag")`) {
		t.Errorf("CreateTable() missing composite key:\n%s", create)
	}
	if !strings.HasPrefix(create, `CREATE TABLE "main"."WidgetTag"`) {
		t.Errorf("CreateTable() table name not qualified:\n%s", create)
	}

	want := []string{`CREATE INDEX "main"."IX_WidgetTag_tag" ON "WidgetTag" ("tag")`}
	if got := p.CreateIndexes(tb); !reflect.DeepEqual(got, want) {
		t.Errorf("CreateIndexes() = %q, want %q", got, want)
	}
}

func TestQuoteTableName(t *testing.T) {
	tests := []struct {
		provider Provider
		in       string
		want     string
	}{
		{NewPostgres(), "public.Widget", `"public"."Widget"`},
		{NewPostgres(), `we"ird`, `"we""ird"`},
		{NewMySQL(), "app.Widget", "`app`.`Widget`"},
		{NewSQLite(), "Widget", `"Widget"`},
		{NewSQLServer(), "dbo.Users", "[dbo].[Users]"},
		{NewSQLServer(), "weird]id", "[weird]]id]"},
	}

	for _, tt := range tests {
		t.Run(string(tt.provider.Product())+"/"+tt.in, func(t *testing.T) {
			if got := tt.provider.QuoteTableName(tt.in); got != tt.want {
				t.Errorf("QuoteTableName(%q) = %s, want %s", tt.in, got, tt.want)
			}
		})
	}
}

func TestInsertAndIdentityInsert(t *testing.T) {
	cols := []string{"id", "alias"}
	tests := []struct {
		provider Provider
		want     string
		identity string
	}{
		{NewPostgres(), `INSERT INTO "Widget" ("id", "alias") VALUES ($1, $2)`, ""},
		{NewMySQL(), "INSERT INTO `Widget` (`id`, `alias`) VALUES (?, ?)", ""},
		{NewSQLite(), `INSERT INTO "Widget" ("id", "alias") VALUES (?, ?)`, ""},
		{NewSQLServer(), "INSERT INTO [Widget] ([id], [alias]) VALUES (@p1, @p2)", "SET IDENTITY_INSERT [Widget] ON"},
	}

	for _, tt := range tests {
		t.Run(string(tt.provider.Product()), func(t *testing.T) {
			if got := tt.provider.Insert(widget(), cols); got != tt.want {
				t.Errorf("Insert() = %s, want %s", got, tt.want)
			}
			if got := tt.provider.IdentityInsert(widget(), true); got != tt.identity {
				t.Errorf("IdentityInsert() = %q, want %q", got, tt.identity)
			}
		})
	}
}

func TestCreateTableRejectsEmptyDefinition(t *testing.T) {
	for _, p := range []Provider{NewPostgres(), NewMySQL(), NewSQLite(), NewSQLServer()} {
		if _, err := p.CreateTable(schema.Table{}); !errors.Is(err, schema.ErrMissingTableName) {
			t.Errorf("%s: CreateTable() error = %v, want %v", p.Product(), err, schema.ErrMissingTableName)
		}
		if _, err := p.CreateTable(schema.Table{Name: "Empty"}); !errors.Is(err, schema.ErrInvalidTable) {
			t.Errorf("%s: CreateTable() error = %v, want %v", p.Product(), err, schema.ErrInvalidTable)
		}
	}
}

func TestForProduct(t *testing.T) {
	for _, product := range []db.Product{db.Postgres, db.MySQL, db.SQLite, db.SQLServer} {
		p, err := ForProduct(product)
		if err != nil {
			t.Fatalf("ForProduct(%s) unexpected error: %v", product, err)
		}
		if p.Product() != product {
			t.Errorf("ForProduct(%s).Product() = %s", product, p.Product())
		}
	}
	if _, err := ForProduct("oracle"); err == nil {
		t.Error("Expected error for unknown product")
	}
}

// countSession answers every QueryRow with a fixed count and records the
// arguments it was given.
type countSession struct {
	db.Session
	count int64
	err   error
	query string
	args  []any
}

type countRow struct {
	count int64
	err   error
}

func (r countRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	*(dest[0].(*int64)) = r.count
	return nil
}

func (s *countSession) QueryRow(_ context.Context, query string, args ...any) db.Row {
	s.query = query
	s.args = args
	return countRow{count: s.count, err: s.err}
}

func TestTableExists(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name     string
		provider Provider
		table    string
		count    int64
		want     bool
		wantArgs []any
	}{
		{"postgres qualified", NewPostgres(), "audit.Widget", 1, true, []any{"audit", "Widget"}},
		{"postgres missing", NewPostgres(), "Widget", 0, false, []any{"", "Widget"}},
		{"mysql", NewMySQL(), "Widget", 1, true, []any{"", "Widget"}},
		{"sqlite", NewSQLite(), "Widget", 1, true, []any{"Widget"}},
		{"sqlserver", NewSQLServer(), "dbo.Widget", 0, false, []any{"dbo", "Widget"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &countSession{count: tt.count}
			got, err := tt.provider.TableExists(ctx, s, tt.table)
			if err != nil {
				t.Fatalf("TableExists() unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("TableExists() = %v, want %v", got, tt.want)
			}
			if !reflect.DeepEqual(s.args, tt.wantArgs) {
				t.Errorf("TableExists() args = %v, want %v", s.args, tt.wantArgs)
			}
		})
	}

	s := &countSession{err: errors.New("connection reset")}
	if _, err := NewSQLite().TableExists(ctx, s, "Widget"); err == nil {
		t.Error("Expected error when the existence query fails")
	}
}

func TestIdentitySync(t *testing.T) {
	kind := schema.Table{
		Name: "app.WidgetKind",
		Columns: []schema.Column{
			{Name: "id", Type: schema.TypeInteger, Identity: true},
			{Name: "label", Type: schema.TypeString},
		},
	}
	plain := schema.Table{Name: "Tag", Columns: []schema.Column{{Name: "id", Type: schema.TypeInteger}}}

	tests := []struct {
		name     string
		provider Provider
		table    schema.Table
		want     string
	}{
		{
			name:     "postgres without seed",
			provider: NewPostgres(),
			table:    kind,
			want: `SELECT setval(pg_get_serial_sequence('"app"."WidgetKind"', 'id'), ` +
				`GREATEST(COALESCE(MAX("id"), 0) + 1, 1), false) FROM "app"."WidgetKind"`,
		},
		{
			name:     "postgres keeps declared seed as floor",
			provider: NewPostgres(),
			table:    widget(),
			want: `SELECT setval(pg_get_serial_sequence('"Widget"', 'id'), ` +
				`GREATEST(COALESCE(MAX("id"), 0) + 1, 1000), false) FROM "Widget"`,
		},
		{name: "postgres without identity", provider: NewPostgres(), table: plain, want: ""},
		{name: "mysql", provider: NewMySQL(), table: kind, want: ""},
		{name: "sqlite", provider: NewSQLite(), table: kind, want: ""},
		{name: "sqlserver", provider: NewSQLServer(), table: kind, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.provider.IdentitySync(tt.table); got != tt.want {
				t.Errorf("IdentitySync() =\n%s\nwant\n%s", got, tt.want)
			}
		})
	}
}

func TestSQLServerReseedAfterSeeding(t *testing.T) {
	p := NewSQLServer()
	kind := schema.Table{
		Name: "WidgetKind",
		Columns: []schema.Column{
			{Name: "kind id", Type: schema.TypeInteger, Identity: true, IdentitySeed: 100},
		},
	}

	got := p.AlterIdentitySeeds(kind)
	want := []string{
		// Empty table: next value is the seed itself. Seeded rows below the
		// seed: reseed one lower so the next value is still the seed.
		// Seeded rows at or above the seed: leave the counter alone.
		"IF NOT EXISTS (SELECT 1 FROM [WidgetKind]) DBCC CHECKIDENT (N'[WidgetKind]', RESEED, 100) " +
			"ELSE IF (SELECT MAX([kind id]) FROM [WidgetKind]) < 100 DBCC CHECKIDENT (N'[WidgetKind]', RESEED, 99)",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("AlterIdentitySeeds() =\n%q\nwant\n%q", got, want)
	}

	kind.Columns[0].IdentitySeed = 0
	if got := p.AlterIdentitySeeds(kind); got != nil {
		t.Errorf("AlterIdentitySeeds() without seed = %q, want nil", got)
	}

	quoted := schema.Table{
		Name:    "dbo.O'Brien",
		Columns: []schema.Column{{Name: "id", Type: schema.TypeBigInt, Identity: true, IdentitySeed: 5}},
	}
	if got := p.AlterIdentitySeeds(quoted); len(got) != 1 || !strings.Contains(got[0], "N'[dbo].[O''Brien]', RESEED, 4)") {
		t.Errorf("AlterIdentitySeeds() = %q, want escaped table literal", got)
	}
}
