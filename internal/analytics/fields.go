package analytics

import "github.com/ndewijer/Kinvo-Analytics-Backend/internal/model"

// Strategy is how a field is combined across the rows of a bucket sorted ascending by date.
type Strategy int

const (
	// First takes the value of the earliest row.
	First Strategy = iota
	// Last takes the value of the latest row.
	Last
	// Sum adds the values of all rows.
	Sum
	// Compound combines periodic returns geometrically.
	Compound
	// Derived fields are never combined; they are recomputed from the other fields
	// once the bucket is resolved (movementations, charges and the ratios).
	Derived
)

// Field binds a numeric Record field to its aggregation strategy.
type Field struct {
	Name     string
	Strategy Strategy
	Get      func(*model.Record) float64
	Set      func(*model.Record, float64)
}

// Fields is the single table every merge and aggregation is driven by.
// The four ratio fields are Derived as well but are pointers, so they are
// handled by derive rather than listed here.
var Fields = []Field{
	{"initialEquity", First, func(r *model.Record) float64 { return r.InitialEquity }, func(r *model.Record, v float64) { r.InitialEquity = v }},

	{"valueApplied", Last, func(r *model.Record) float64 { return r.ValueApplied }, func(r *model.Record, v float64) { r.ValueApplied = v }},
	{"finalEquity", Last, func(r *model.Record) float64 { return r.FinalEquity }, func(r *model.Record, v float64) { r.FinalEquity = v }},

	{"applications", Sum, func(r *model.Record) float64 { return r.Applications }, func(r *model.Record, v float64) { r.Applications = v }},
	{"redemptions", Sum, func(r *model.Record) float64 { return r.Redemptions }, func(r *model.Record, v float64) { r.Redemptions = v }},
	{"returns", Sum, func(r *model.Record) float64 { return r.Returns }, func(r *model.Record, v float64) { r.Returns = v }},
	{"proceeds", Sum, func(r *model.Record) float64 { return r.Proceeds }, func(r *model.Record, v float64) { r.Proceeds = v }},
	{"capitalGain", Sum, func(r *model.Record) float64 { return r.CapitalGain }, func(r *model.Record, v float64) { r.CapitalGain = v }},
	{"incomeTax", Sum, func(r *model.Record) float64 { return r.IncomeTax }, func(r *model.Record, v float64) { r.IncomeTax = v }},
	{"iof", Sum, func(r *model.Record) float64 { return r.IOF }, func(r *model.Record, v float64) { r.IOF = v }},
	{"cost", Sum, func(r *model.Record) float64 { return r.Cost }, func(r *model.Record, v float64) { r.Cost = v }},

	{"movementations", Derived, func(r *model.Record) float64 { return r.Movementations }, func(r *model.Record, v float64) { r.Movementations = v }},
	{"charges", Derived, func(r *model.Record) float64 { return r.Charges }, func(r *model.Record, v float64) { r.Charges = v }},

	{"profitabilityPortfolio", Compound, func(r *model.Record) float64 { return r.Profitability.Portfolio }, func(r *model.Record, v float64) { r.Profitability.Portfolio = v }},
	{"profitabilityCdi", Compound, func(r *model.Record) float64 { return r.Profitability.CDI }, func(r *model.Record, v float64) { r.Profitability.CDI = v }},
	{"profitabilityIbov", Compound, func(r *model.Record) float64 { return r.Profitability.IBOV }, func(r *model.Record, v float64) { r.Profitability.IBOV = v }},
	{"profitabilityInflation", Compound, func(r *model.Record) float64 { return r.Profitability.Inflation }, func(r *model.Record, v float64) { r.Profitability.Inflation = v }},
	{"profitabilitySavings", Compound, func(r *model.Record) float64 { return r.Profitability.Savings }, func(r *model.Record, v float64) { r.Profitability.Savings = v }},
}

// FieldsByStrategy returns the fields of the table using strategy s, in table order.
func FieldsByStrategy(s Strategy) []Field {
	var out []Field
	for _, f := range Fields {
		if f.Strategy == s {
			out = append(out, f)
		}
	}
	return out
}

// derive recomputes every Derived field of r from its other fields.
func derive(r *model.Record) {
	r.Movementations = r.FinalEquity - (r.InitialEquity + r.CapitalGain)
	r.Charges = r.IncomeTax + r.IOF + r.Cost
	r.Ratios = RatiosFor(r.Profitability)
}
