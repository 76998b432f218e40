package applier

import (
	"github.com/tordrt/tablesmith/internal/schema"
	"github.com/tordrt/tablesmith/internal/syntax"
)

// Statement categories, in execution order.
const (
	CategoryExists       = "exists"
	CategoryDropTable    = "drop_table"
	CategoryCreateTable  = "create_table"
	CategorySeed         = "seed"
	CategoryPrimaryKey   = "primary_key"
	CategoryForeignKey   = "foreign_key"
	CategoryIndex        = "index"
	CategoryIdentitySeed = "identity_seed"
)

// Plan holds every statement batch for one table, rendered up front.
type Plan struct {
	Table         schema.Table
	CreateTable   string
	PrimaryKey    string
	ForeignKeys   []string
	Indexes       []string
	IdentitySeeds []string
}

// BuildPlan renders all batches for t without touching a database.
func BuildPlan(p syntax.Provider, t schema.Table) (*Plan, error) {
	create, err := p.CreateTable(t)
	if err != nil {
		return nil, err
	}

	return &Plan{
		Table:         t,
		CreateTable:   create,
		PrimaryKey:    p.CreatePrimaryKey(t),
		ForeignKeys:   p.CreateForeignKeys(t),
		Indexes:       p.CreateIndexes(t),
		IdentitySeeds: p.AlterIdentitySeeds(t),
	}, nil
}

// Statements returns the plan as an ordered list, skipping an empty primary
// key statement. Identity seeds are included only when withSeeds is set.
func (p *Plan) Statements(withSeeds bool) []string {
	out := make([]string, 0, 2+len(p.ForeignKeys)+len(p.Indexes)+len(p.IdentitySeeds))
	out = append(out, p.CreateTable)
	if p.PrimaryKey != "" {
		out = append(out, p.PrimaryKey)
	}
	out = append(out, p.ForeignKeys...)
	out = append(out, p.Indexes...)
	if withSeeds {
		out = append(out, p.IdentitySeeds...)
	}
	return out
}
