package analytics_test

import (
	"testing"
	"time"

	"github.com/ndewijer/Kinvo-Analytics-Backend/internal/analytics"
	"github.com/ndewijer/Kinvo-Analytics-Backend/internal/model"
)

func monthlyRows(year int) []model.Record {
	rows := make([]model.Record, 12)
	for i := range rows {
		rows[i] = model.Record{ReferenceDate: date(year, time.Month(i+1), 1), Returns: float64(i + 1)}
	}
	return rows
}

// TestFilterByDateRange tests inclusive date filtering.
//
// WHY: Interval presets end on the last day of a month. Dropping the boundary
// rows would silently lose the first or last month of every selection.
func TestFilterByDateRange(t *testing.T) {
	rows := monthlyRows(2024)

	t.Run("march through june inclusive", func(t *testing.T) {
		got := analytics.FilterByDateRange(rows, analytics.DateRange{From: date(2024, 3, 1), To: date(2024, 6, 30)})

		if len(got) != 4 {
			t.Fatalf("Expected 4 rows, got %d", len(got))
		}
		for i, r := range got {
			if r.ReferenceDate.Month() != time.Month(i+3) {
				t.Errorf("Row %d: expected month %d, got %v", i, i+3, r.ReferenceDate.Month())
			}
		}
	})

	t.Run("lower bound only", func(t *testing.T) {
		got := analytics.FilterByDateRange(rows, analytics.DateRange{From: date(2024, 11, 1)})
		if len(got) != 2 {
			t.Errorf("Expected November and December, got %d rows", len(got))
		}
	})

	t.Run("upper bound only", func(t *testing.T) {
		got := analytics.FilterByDateRange(rows, analytics.DateRange{To: date(2024, 2, 1)})
		if len(got) != 2 {
			t.Errorf("Expected January and February, got %d rows", len(got))
		}
	})

	t.Run("no bounds yields nothing", func(t *testing.T) {
		got := analytics.FilterByDateRange(rows, analytics.DateRange{})
		if got == nil || len(got) != 0 {
			t.Errorf("Expected an empty non-nil result, got %v", got)
		}
	})

	t.Run("range outside data is empty, not an error", func(t *testing.T) {
		got := analytics.FilterByDateRange(rows, analytics.DateRange{From: date(2030, 1, 1), To: date(2030, 12, 31)})
		if len(got) != 0 {
			t.Errorf("Expected no rows, got %d", len(got))
		}
	})
}

func TestCalcRatioOrNA(t *testing.T) {
	tests := []struct {
		name         string
		value, total float64
		want         *float64
	}{
		{"negative value", -1, 5, nil},
		{"zero total", 5, 0, nil},
		{"negative total", 5, -1, nil},
		{"both negative", -2, -1, nil},
		{"plain ratio", 10, 5, ptr(2)},
		{"zero value", 0, 5, ptr(0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := analytics.CalcRatioOrNA(tt.value, tt.total)
			if tt.want == nil {
				assertNA(t, tt.name, got)
				return
			}
			assertRatio(t, tt.name, got, *tt.want)
		})
	}
}

func ptr(v float64) *float64 {
	return &v
}
