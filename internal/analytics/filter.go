package analytics

import (
	"time"

	"github.com/ndewijer/Kinvo-Analytics-Backend/internal/model"
)

// DateRange is an inclusive range of reference dates. A zero bound is unset.
type DateRange struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// IsZero reports whether neither bound is set.
func (r DateRange) IsZero() bool {
	return r.From.IsZero() && r.To.IsZero()
}

// Contains reports whether t lies within the set bounds.
func (r DateRange) Contains(t time.Time) bool {
	if !r.From.IsZero() && t.Before(r.From) {
		return false
	}
	if !r.To.IsZero() && t.After(r.To) {
		return false
	}
	return true
}

// FilterByDateRange keeps the rows whose reference date lies within r, in input order.
// Either bound may be open. When neither bound is set the result is empty.
func FilterByDateRange(rows []model.Record, r DateRange) []model.Record {
	out := []model.Record{}
	if r.IsZero() {
		return out
	}
	for _, row := range rows {
		if r.Contains(row.ReferenceDate) {
			out = append(out, row)
		}
	}
	return out
}
