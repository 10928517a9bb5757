package analytics

import (
	"slices"
	"time"

	"github.com/ndewijer/Kinvo-Analytics-Backend/internal/model"
)

// Aggregate groups rows into buckets of granularity g and reduces each bucket to one row
// using the strategy table in Fields. Derived fields are recomputed from the reduced row.
//
// The reduced row's reference date is the start of its bucket; for Total it is the
// earliest row's date, so aggregating a Total row again yields the same row.
// The result is sorted descending by date. No rows in, no rows out.
func Aggregate(rows []model.Record, g Granularity) []model.Record {
	sorted := SortedAscending(rows)

	var keys []string
	groups := make(map[string][]model.Record)
	for _, row := range sorted {
		key := BucketKey(row.ReferenceDate, g)
		if _, ok := groups[key]; !ok {
			keys = append(keys, key)
		}
		groups[key] = append(groups[key], row)
	}

	out := make([]model.Record, 0, len(keys))
	for _, key := range keys {
		out = append(out, reduce(groups[key], g))
	}

	slices.SortStableFunc(out, byDateDescending)
	return out
}

// AggregateDense is Aggregate over a dense calendar: every bucket between from and to
// (inclusive) yields a row, and buckets without contributing rows are zero-filled.
// Rows outside the range are ignored. For Total, or an incomplete range, it behaves
// exactly like Aggregate.
func AggregateDense(rows []model.Record, g Granularity, from, to time.Time) []model.Record {
	if g == Total || from.IsZero() || to.IsZero() || to.Before(from) {
		return Aggregate(rows, g)
	}

	groups := make(map[string][]model.Record)
	for _, row := range SortedAscending(rows) {
		key := BucketKey(row.ReferenceDate, g)
		groups[key] = append(groups[key], row)
	}

	var out []model.Record
	for start := Truncate(from, g); !start.After(to); start = next(start, g) {
		if group, ok := groups[BucketKey(start, g)]; ok {
			out = append(out, reduce(group, g))
			continue
		}
		empty := model.Record{ReferenceDate: start}
		derive(&empty)
		out = append(out, empty)
	}

	slices.SortStableFunc(out, byDateDescending)
	return out
}

// reduce collapses a non-empty bucket sorted ascending by date into one row.
func reduce(group []model.Record, g Granularity) model.Record {
	first, last := &group[0], &group[len(group)-1]

	out := model.Record{ReferenceDate: Truncate(first.ReferenceDate, g)}
	if g == Total {
		out.ReferenceDate = first.ReferenceDate
	}

	values := make([]float64, len(group))
	for _, f := range Fields {
		switch f.Strategy {
		case First:
			f.Set(&out, f.Get(first))
		case Last:
			f.Set(&out, f.Get(last))
		case Sum:
			var sum float64
			for i := range group {
				sum += f.Get(&group[i])
			}
			f.Set(&out, sum)
		case Compound:
			for i := range group {
				values[i] = f.Get(&group[i])
			}
			f.Set(&out, CompoundSeries(values))
		}
	}

	derive(&out)
	return out
}
