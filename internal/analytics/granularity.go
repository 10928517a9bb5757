// Package analytics turns the raw Kinvo record families into the canonical
// date-keyed series and re-aggregates that series for display.
//
// Every function in this package is pure: inputs are never modified and
// results are always freshly allocated.
package analytics

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/ndewijer/Kinvo-Analytics-Backend/internal/apperrors"
	"github.com/ndewijer/Kinvo-Analytics-Backend/internal/model"
)

// Granularity is the calendar bucket size used for merging and aggregation.
type Granularity string

const (
	Day   Granularity = "day"
	Month Granularity = "month"
	Year  Granularity = "year"
	Total Granularity = "total"
)

// ParseGranularity parses a granularity name. An empty string yields Month.
func ParseGranularity(s string) (Granularity, error) {
	switch g := Granularity(strings.ToLower(strings.TrimSpace(s))); g {
	case "":
		return Month, nil
	case Day, Month, Year, Total:
		return g, nil
	default:
		return "", fmt.Errorf("%w: %q", apperrors.ErrInvalidGranularity, s)
	}
}

// Truncate returns the start of the bucket containing t, in UTC.
// Total has no boundary and returns t unchanged (in UTC).
func Truncate(t time.Time, g Granularity) time.Time {
	t = t.UTC()
	switch g {
	case Day:
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	case Month:
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	case Year:
		return time.Date(t.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
	default:
		return t
	}
}

// BucketKey formats t as the key of its bucket: "dd/MM/yyyy", "MM/yyyy", "yyyy",
// or the empty string for Total.
func BucketKey(t time.Time, g Granularity) string {
	t = t.UTC()
	switch g {
	case Day:
		return t.Format("02/01/2006")
	case Month:
		return t.Format("01/2006")
	case Year:
		return t.Format("2006")
	default:
		return ""
	}
}

// next returns the start of the bucket after the one starting at t.
func next(t time.Time, g Granularity) time.Time {
	switch g {
	case Day:
		return t.AddDate(0, 0, 1)
	case Month:
		return t.AddDate(0, 1, 0)
	default:
		return t.AddDate(1, 0, 0)
	}
}

func byDateAscending(a, b model.Record) int {
	return a.ReferenceDate.Compare(b.ReferenceDate)
}

func byDateDescending(a, b model.Record) int {
	return b.ReferenceDate.Compare(a.ReferenceDate)
}

// SortedAscending returns a copy of rows sorted ascending by reference date.
// Rows sharing a date keep their relative order.
func SortedAscending(rows []model.Record) []model.Record {
	out := slices.Clone(rows)
	slices.SortStableFunc(out, byDateAscending)
	return out
}

func isAscending(rows []model.Record) bool {
	return slices.IsSortedFunc(rows, byDateAscending)
}
