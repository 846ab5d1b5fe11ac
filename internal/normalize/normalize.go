// Package normalize reconciles arbitrary tabular rows into canonical deal
// records: known alias columns are renamed, missing canonical fields are
// filled with defaults, and everything else passes through untouched.
package normalize

import (
	"github.com/sells-group/revwatch/internal/model"
	"github.com/sells-group/revwatch/internal/schema"
)

// Normalize transforms a batch of raw rows into deal records. Column names
// must already be lower-cased with spaces replaced by underscores.
//
// For each row, alias columns are renamed to their canonical target unless
// the target column is already present. Explicit canonical data is never
// clobbered by an alias; the alias column then stays in place as a
// pass-through extra. Every canonical field absent after alias resolution is
// filled from the registry default, with deal_id drawn from a per-batch
// sequence starting at zero.
//
// No value-type validation happens here. Numeric coercion is deferred to the
// rule engine.
func Normalize(reg *schema.Registry, rows []model.RawRow) []model.Deal {
	deals := make([]model.Deal, len(rows))

	for i, row := range rows {
		deal := make(model.Deal, len(row)+len(reg.Fields))
		for k, v := range row {
			deal[k] = v
		}

		for _, a := range reg.Aliases {
			v, ok := deal[a.Raw]
			if !ok {
				continue
			}
			if _, exists := deal[a.Canonical]; exists {
				// Keep the explicit canonical value; the alias stays as an
				// extra column and never reaches the canonical field.
				continue
			}
			deal[a.Canonical] = v
			delete(deal, a.Raw)
		}

		for _, f := range reg.Fields {
			if _, ok := deal[f.Name]; !ok {
				deal[f.Name] = f.Default.For(i)
			}
		}

		deals[i] = deal
	}

	return deals
}
