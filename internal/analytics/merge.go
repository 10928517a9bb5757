package analytics

import (
	"slices"

	"github.com/ndewijer/Kinvo-Analytics-Backend/internal/model"
)

// Sources holds the normalized partial records of the three Kinvo record families.
type Sources struct {
	CapitalGain []model.Record
	Statements  []model.Record
	Benchmarks  []model.Record
}

// Merge folds the sources into one row per date key of granularity g.
//
// The sources are monthly snapshots, so for Year and Total the rows are merged per
// month first and then reduced with Aggregate: balances come from the first and last
// month of each bucket and profitability is compounded rather than overwritten.
//
// Sources are folded in a fixed order: capital gain (balances, returns, capital gain),
// then statements (flows, taxes, costs), then benchmarks (profitability). Capital gain
// and statement rows create rows and have their balances, flows and costs summed into
// them; benchmark rows only attach to rows that already exist, and a row without a
// benchmark point keeps zero profitability. Derived fields are recomputed last.
//
// The result is sorted descending by date.
func Merge(g Granularity, src Sources) []model.Record {
	if g == Year || g == Total {
		return Aggregate(mergeAt(Month, src), g)
	}
	return mergeAt(g, src)
}

func mergeAt(g Granularity, src Sources) []model.Record {
	var keys []string
	rows := make(map[string]*model.Record)

	fold := func(partials []model.Record) {
		for i := range partials {
			key := BucketKey(partials[i].ReferenceDate, g)
			row, ok := rows[key]
			if !ok {
				row = &model.Record{ReferenceDate: Truncate(partials[i].ReferenceDate, g)}
				rows[key] = row
				keys = append(keys, key)
			}
			addAdditive(row, &partials[i])
		}
	}
	fold(src.CapitalGain)
	fold(src.Statements)

	benchmarks := make(map[string]model.Profitability, len(src.Benchmarks))
	for _, b := range src.Benchmarks {
		benchmarks[BucketKey(b.ReferenceDate, g)] = b.Profitability
	}

	out := make([]model.Record, 0, len(keys))
	for _, key := range keys {
		row := *rows[key]
		row.Profitability = benchmarks[key]
		derive(&row)
		out = append(out, row)
	}

	slices.SortStableFunc(out, byDateDescending)
	return out
}

// addAdditive adds every First, Last and Sum field of src into dst.
func addAdditive(dst, src *model.Record) {
	for _, f := range Fields {
		switch f.Strategy {
		case First, Last, Sum:
			f.Set(dst, f.Get(dst)+f.Get(src))
		}
	}
}
