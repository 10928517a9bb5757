package analytics_test

import (
	"math"
	"testing"
	"time"

	"github.com/ndewijer/Kinvo-Analytics-Backend/internal/model"
)

const tolerance = 1e-9

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func approxEqual(a, b float64) bool {
	return math.Abs(a-b) <= tolerance
}

func assertFloats(t *testing.T, got, want []float64) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("Expected %d values, got %d: %v", len(want), len(got), got)
	}
	for i := range want {
		if !approxEqual(got[i], want[i]) {
			t.Errorf("Value %d: expected %v, got %v", i, want[i], got[i])
		}
	}
}

func assertRatio(t *testing.T, name string, got *float64, want float64) {
	t.Helper()
	if got == nil {
		t.Errorf("Expected %s ratio %v, got not applicable", name, want)
		return
	}
	if !approxEqual(*got, want) {
		t.Errorf("Expected %s ratio %v, got %v", name, want, *got)
	}
}

func assertNA(t *testing.T, name string, got *float64) {
	t.Helper()
	if got != nil {
		t.Errorf("Expected %s ratio to be not applicable, got %v", name, *got)
	}
}

func assertMovementations(t *testing.T, rows []model.Record) {
	t.Helper()
	for _, r := range rows {
		want := r.FinalEquity - (r.InitialEquity + r.CapitalGain)
		if r.Movementations != want {
			t.Errorf("Row %s: movementations %v, want finalEquity - (initialEquity + capitalGain) = %v",
				r.ReferenceDate.Format("2006-01-02"), r.Movementations, want)
		}
	}
}
