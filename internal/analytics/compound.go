package analytics

import (
	"github.com/ndewijer/Kinvo-Analytics-Backend/internal/apperrors"
	"github.com/ndewijer/Kinvo-Analytics-Backend/internal/model"
)

// CompoundSeries collapses periodic returns into one equivalent return: Π(1+r) - 1.
// An empty series compounds to 0. A single return is its own compound and is
// returned as-is, so re-aggregating a one-row bucket is exact.
func CompoundSeries(returns []float64) float64 {
	switch len(returns) {
	case 0:
		return 0
	case 1:
		return returns[0]
	}

	accumulated := 1.0
	for _, r := range returns {
		accumulated *= 1 + r
	}
	return accumulated - 1
}

// AddCompounding turns chronologically ordered periodic returns into cumulative
// returns: element i becomes the compound of elements 0..i.
func AddCompounding(periodic []float64) []float64 {
	out := make([]float64, len(periodic))
	accumulated := 1.0
	for i, r := range periodic {
		accumulated *= 1 + r
		out[i] = accumulated - 1
	}
	if len(out) > 0 {
		out[0] = periodic[0]
	}
	return out
}

// RemoveCompounding is the inverse of AddCompounding. It recovers the periodic
// return between consecutive cumulative points:
//
//	period[i] = (1 + cumulative[i]) / (1 + cumulative[i-1]) - 1
//
// period[0] is cumulative[0]. The series must already be in chronological order.
// A period following a cumulative return of -100% has no defined return and is 0.
func RemoveCompounding(cumulative []float64) []float64 {
	out := make([]float64, len(cumulative))
	for i, c := range cumulative {
		switch {
		case i == 0:
			out[i] = c
		case 1+cumulative[i-1] == 0:
			out[i] = 0
		default:
			out[i] = (1+c)/(1+cumulative[i-1]) - 1
		}
	}
	return out
}

// AddCompoundingRecords applies AddCompounding to every Compound field of rows
// and recomputes the ratios. rows must be sorted ascending by date.
func AddCompoundingRecords(rows []model.Record) ([]model.Record, error) {
	return mapCompoundColumns(rows, AddCompounding)
}

// RemoveCompoundingRecords applies RemoveCompounding to every Compound field of
// rows and recomputes the ratios. rows must be sorted ascending by date; sort
// before decompounding, never after.
func RemoveCompoundingRecords(rows []model.Record) ([]model.Record, error) {
	return mapCompoundColumns(rows, RemoveCompounding)
}

func mapCompoundColumns(rows []model.Record, fn func([]float64) []float64) ([]model.Record, error) {
	if !isAscending(rows) {
		return nil, apperrors.ErrUnsortedSeries
	}

	out := make([]model.Record, len(rows))
	copy(out, rows)

	column := make([]float64, len(rows))
	for _, f := range FieldsByStrategy(Compound) {
		for i := range rows {
			column[i] = f.Get(&rows[i])
		}
		for i, v := range fn(column) {
			f.Set(&out[i], v)
		}
	}

	for i := range out {
		out[i].Ratios = RatiosFor(out[i].Profitability)
	}
	return out, nil
}
