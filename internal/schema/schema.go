// Package schema holds the static field registry consumed by the normalizer
// and the rule engine: alias mappings, canonical field defaults, and the
// analysis thresholds. A Registry is built once at startup and never mutated.
package schema

import (
	"fmt"
	"os"
	"sort"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Default thresholds for the rule engine.
const (
	DefaultHighDiscountThreshold = 20.0 // percent
	DefaultOpportunityCostFactor = 0.1
)

// Generator produces a per-row default value from the row's position within
// its batch. The index restarts at zero for every parse call.
type Generator func(index int) any

// Default is either a constant value or a per-row generator. Exactly one of
// the two is set.
type Default struct {
	Value    any
	Generate Generator
}

// For returns the default value for the row at index i.
func (d Default) For(i int) any {
	if d.Generate != nil {
		return d.Generate(i)
	}
	return d.Value
}

// Field pairs a canonical field name with its default.
type Field struct {
	Name    string
	Default Default
}

// Alias maps one raw column-name variant to a canonical field. Aliases are
// ordered: when several aliases for the same canonical field appear in one
// row, the earliest one wins.
type Alias struct {
	Raw       string
	Canonical string
}

// Registry is the immutable schema configuration: which raw column names map
// to which canonical fields, what every canonical field defaults to, and the
// rule thresholds.
type Registry struct {
	// Aliases lists known raw column-name variants in precedence order.
	Aliases []Alias

	// Fields lists the canonical fields in a fixed order.
	Fields []Field

	// HighDiscountThreshold is the sanctioned discount ceiling in percent.
	HighDiscountThreshold float64

	// OpportunityCostFactor estimates the carrying cost of a stale deal as a
	// fraction of its size.
	OpportunityCostFactor float64
}

// CanonicalFields returns the canonical field names in registry order.
func (r *Registry) CanonicalFields() []string {
	names := make([]string, len(r.Fields))
	for i, f := range r.Fields {
		names[i] = f.Name
	}
	return names
}

// Validate checks that the registry is usable. The pipeline cannot run
// without alias and default tables.
func (r *Registry) Validate() error {
	if len(r.Aliases) == 0 {
		return eris.New("schema: alias table is empty")
	}
	for _, a := range r.Aliases {
		if a.Raw == "" || a.Canonical == "" {
			return eris.Errorf("schema: incomplete alias %q -> %q", a.Raw, a.Canonical)
		}
	}
	if len(r.Fields) == 0 {
		return eris.New("schema: no canonical fields defined")
	}
	for _, f := range r.Fields {
		if f.Name == "" {
			return eris.New("schema: canonical field with empty name")
		}
	}
	if r.HighDiscountThreshold < 0 {
		return eris.Errorf("schema: negative discount threshold %v", r.HighDiscountThreshold)
	}
	if r.OpportunityCostFactor < 0 {
		return eris.Errorf("schema: negative opportunity cost factor %v", r.OpportunityCostFactor)
	}
	return nil
}

// DefaultRegistry returns the built-in registry.
func DefaultRegistry() *Registry {
	return &Registry{
		Aliases: []Alias{
			{Raw: "customer", Canonical: "customer_name"},
			{Raw: "client", Canonical: "customer_name"},
			{Raw: "account", Canonical: "customer_name"},
			{Raw: "deal_value", Canonical: "deal_size"},
			{Raw: "contract_value", Canonical: "deal_size"},
			{Raw: "amount", Canonical: "deal_size"},
			{Raw: "discount", Canonical: "discount_percent"},
			{Raw: "disc_%", Canonical: "discount_percent"},
			{Raw: "price", Canonical: "unit_price"},
			{Raw: "renewal_date", Canonical: "renewal"},
			{Raw: "close", Canonical: "close_date"},
			{Raw: "status", Canonical: "deal_status"},
		},
		Fields: []Field{
			{Name: "deal_id", Default: Default{Generate: func(i int) any {
				return fmt.Sprintf("DEAL_%04d", i)
			}}},
			{Name: "customer_name", Default: Default{Value: "Unknown Customer"}},
			{Name: "deal_size", Default: Default{Value: 0}},
			{Name: "discount_percent", Default: Default{Value: 0}},
			{Name: "close_date", Default: Default{Value: ""}},
			{Name: "renewal", Default: Default{Value: ""}},
			{Name: "deal_status", Default: Default{Value: "Open"}},
		},
		HighDiscountThreshold: DefaultHighDiscountThreshold,
		OpportunityCostFactor: DefaultOpportunityCostFactor,
	}
}

// fileSchema is the YAML overlay shape.
type fileSchema struct {
	Aliases    map[string]string `yaml:"aliases"`
	Defaults   map[string]string `yaml:"defaults"`
	Thresholds struct {
		HighDiscount    *float64 `yaml:"high_discount_percent"`
		OpportunityCost *float64 `yaml:"opportunity_cost_factor"`
	} `yaml:"thresholds"`
}

// Load returns the default registry overlaid with the YAML file at path.
// An empty path returns the defaults unchanged. Overlay entries extend or
// replace individual aliases and constant defaults; the deal_id generator
// cannot be overridden.
func Load(path string) (*Registry, error) {
	reg := DefaultRegistry()
	if path == "" {
		return reg, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "schema: read %s", path)
	}

	var fs fileSchema
	if err := yaml.Unmarshal(raw, &fs); err != nil {
		return nil, eris.Wrapf(err, "schema: parse %s", path)
	}

	rawNames := make([]string, 0, len(fs.Aliases))
	for raw := range fs.Aliases {
		rawNames = append(rawNames, raw)
	}
	sort.Strings(rawNames)
	for _, raw := range rawNames {
		target := fs.Aliases[raw]
		replaced := false
		for i := range reg.Aliases {
			if reg.Aliases[i].Raw == raw {
				reg.Aliases[i].Canonical = target
				replaced = true
				break
			}
		}
		if !replaced {
			reg.Aliases = append(reg.Aliases, Alias{Raw: raw, Canonical: target})
		}
	}
	fieldNames := make([]string, 0, len(fs.Defaults))
	for name := range fs.Defaults {
		fieldNames = append(fieldNames, name)
	}
	sort.Strings(fieldNames)
	for _, name := range fieldNames {
		val := fs.Defaults[name]
		if name == "deal_id" {
			return nil, eris.New("schema: deal_id default is generated and cannot be overridden")
		}
		replaced := false
		for i := range reg.Fields {
			if reg.Fields[i].Name == name {
				reg.Fields[i].Default = Default{Value: val}
				replaced = true
				break
			}
		}
		if !replaced {
			reg.Fields = append(reg.Fields, Field{Name: name, Default: Default{Value: val}})
		}
	}
	if fs.Thresholds.HighDiscount != nil {
		reg.HighDiscountThreshold = *fs.Thresholds.HighDiscount
	}
	if fs.Thresholds.OpportunityCost != nil {
		reg.OpportunityCostFactor = *fs.Thresholds.OpportunityCost
	}

	if err := reg.Validate(); err != nil {
		return nil, err
	}
	return reg, nil
}
