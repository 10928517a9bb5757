package analytics

import "github.com/ndewijer/Kinvo-Analytics-Backend/internal/model"

// ProfitabilityWindow re-bases a cumulative daily profitability series onto r.
//
// The series is sorted ascending, decompounded into daily returns, filtered to r
// and compounded again, so the first day in the window starts from its own daily
// return instead of the return accumulated since the start of the series.
// The result is ascending by date and empty when no day falls within r.
func ProfitabilityWindow(daily []model.Record, r DateRange) ([]model.Record, error) {
	periodic, err := RemoveCompoundingRecords(SortedAscending(daily))
	if err != nil {
		return nil, err
	}
	return AddCompoundingRecords(FilterByDateRange(periodic, r))
}
