package request

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ndewijer/Kinvo-Analytics-Backend/internal/analytics"
	"github.com/ndewijer/Kinvo-Analytics-Backend/internal/apperrors"
	"github.com/ndewijer/Kinvo-Analytics-Backend/internal/service"
)

// Default and maximum number of sync runs returned by the sync history endpoint.
const (
	DefaultSyncRunLimit = 20
	MaxSyncRunLimit     = 100
)

// ParseAnalysisQuery extracts and validates the analysis window from query parameters.
// Converts raw query string parameters into a service.Query.
//
// All parameters are optional:
//   - interval: inicio, ano, mes, 3m, 6m, 12m, 24m, 36m or custom (defaults to inicio)
//   - from/to: Dates (YYYY-MM-DD or RFC3339); setting either implies the custom interval
//   - granularity: day, month, year or total (defaults to month)
//
// Returns an error wrapping the matching apperrors validation sentinel.
func ParseAnalysisQuery(intervalParam, fromParam, toParam, granularityParam string) (service.Query, error) {
	var q service.Query

	if intervalParam != "" {
		interval, err := analytics.ParseInterval(intervalParam)
		if err != nil {
			return service.Query{}, err
		}
		q.Interval = interval
	}

	if fromParam != "" {
		from, err := parseQueryTime(fromParam)
		if err != nil {
			return service.Query{}, fmt.Errorf("%w: from: %v", apperrors.ErrInvalidDate, err)
		}
		q.From = from
	}
	if toParam != "" {
		to, err := parseQueryTime(toParam)
		if err != nil {
			return service.Query{}, fmt.Errorf("%w: to: %v", apperrors.ErrInvalidDate, err)
		}
		q.To = to
	}

	hasDates := fromParam != "" || toParam != ""
	switch {
	case hasDates && q.Interval == "":
		q.Interval = analytics.Custom
	case hasDates && q.Interval != analytics.Custom:
		return service.Query{}, fmt.Errorf("%w: from and to are only allowed with the custom interval", apperrors.ErrInvalidDateRange)
	}

	if granularityParam != "" {
		granularity, err := analytics.ParseGranularity(granularityParam)
		if err != nil {
			return service.Query{}, err
		}
		q.Granularity = granularity
	}

	return q, nil
}

// ParseAllocationGrouping parses the groupBy parameter, defaulting to strategy.
func ParseAllocationGrouping(groupByParam string) (analytics.AllocationGrouping, error) {
	if groupByParam == "" {
		return analytics.ByStrategy, nil
	}
	return analytics.ParseAllocationGrouping(groupByParam)
}

// ParseSyncRunLimit parses the limit parameter of the sync history.
// Must be between 1 and MaxSyncRunLimit (defaults to DefaultSyncRunLimit).
func ParseSyncRunLimit(limitParam string) (int, error) {
	if limitParam == "" {
		return DefaultSyncRunLimit, nil
	}
	limit, err := strconv.Atoi(strings.TrimSpace(limitParam))
	if err != nil {
		return 0, fmt.Errorf("invalid limit: must be a number")
	}
	if limit < 1 || limit > MaxSyncRunLimit {
		return 0, fmt.Errorf("invalid limit: must be between 1 and %d", MaxSyncRunLimit)
	}
	return limit, nil
}

// parseQueryTime parses date parameters.
// Accepts YYYY-MM-DD and RFC3339; the result is in UTC.
func parseQueryTime(str string) (time.Time, error) {
	for _, layout := range []string{"2006-01-02", time.RFC3339} {
		if t, err := time.Parse(layout, strings.TrimSpace(str)); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("cannot parse %q as a date", str)
}
