package analytics

import (
	"fmt"
	"strings"
	"time"

	"github.com/ndewijer/Kinvo-Analytics-Backend/internal/apperrors"
)

// Interval is a preset date window, as offered by the dashboard's interval picker.
type Interval string

const (
	SinceStart   Interval = "inicio" // Do Início
	YearToDate   Interval = "ano"    // No Ano
	MonthToDate  Interval = "mes"    // No Mês
	Last3Months  Interval = "3m"
	Last6Months  Interval = "6m"
	Last12Months Interval = "12m"
	Last24Months Interval = "24m"
	Last36Months Interval = "36m"
	Custom       Interval = "custom" // Personalizado
)

var intervalMonths = map[Interval]int{
	Last3Months:  3,
	Last6Months:  6,
	Last12Months: 12,
	Last24Months: 24,
	Last36Months: 36,
}

// ParseInterval parses an interval id. An empty string yields SinceStart.
func ParseInterval(s string) (Interval, error) {
	switch i := Interval(strings.ToLower(strings.TrimSpace(s))); i {
	case "":
		return SinceStart, nil
	case SinceStart, YearToDate, MonthToDate, Custom:
		return i, nil
	default:
		if _, ok := intervalMonths[i]; ok {
			return i, nil
		}
		return "", fmt.Errorf("%w: %q", apperrors.ErrInvalidInterval, s)
	}
}

// Range resolves the interval against the current time and the first and last
// reference dates of the data. The end is always the last day of last's month.
// Custom is resolved with CustomRange instead and yields an empty range here.
func (i Interval) Range(now, first, last time.Time) DateRange {
	var from time.Time
	now = now.UTC()

	switch i {
	case SinceStart:
		from = Truncate(first, Month)
	case YearToDate:
		from = Truncate(now, Year)
	case MonthToDate:
		from = Truncate(now, Month)
	case Custom:
		return DateRange{}
	default:
		months, ok := intervalMonths[i]
		if !ok {
			return DateRange{}
		}
		from = Truncate(now, Month).AddDate(0, -(months - 1), 0)
	}

	return DateRange{From: from, To: lastDayOfMonth(last)}
}

// CustomRange widens an explicit range to whole months: the first day of from's
// month through the last day of to's month.
func CustomRange(from, to time.Time) (DateRange, error) {
	if from.IsZero() || to.IsZero() {
		return DateRange{}, fmt.Errorf("%w: custom interval needs both from and to", apperrors.ErrInvalidDateRange)
	}
	if to.Before(from) {
		return DateRange{}, fmt.Errorf("%w: from is after to", apperrors.ErrInvalidDateRange)
	}
	return DateRange{From: Truncate(from, Month), To: lastDayOfMonth(to)}, nil
}

func lastDayOfMonth(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return Truncate(t, Month).AddDate(0, 1, -1)
}
