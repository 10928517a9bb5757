package model

import "time"

// Snapshot is the stored result of one successful sync of a portfolio.
type Snapshot struct {
	ID          string    `json:"id"`
	PortfolioID int64     `json:"portfolioId"`
	CreatedAt   time.Time `json:"createdAt"`
	FirstDate   time.Time `json:"firstDate"`
	LastDate    time.Time `json:"lastDate"`
	RecordCount int       `json:"recordCount"`
}

// SnapshotData is everything a snapshot stores.
type SnapshotData struct {
	Snapshot            Snapshot
	Monthly             []Record
	DailyProfitability  []Record
	DailyEquity         []Record
	AnnualProfitability []Record // current year is year to date
	Assets              []Asset
}

// RecordSeries names one of the record series stored with a snapshot.
type RecordSeries string

const (
	SeriesMonthly             RecordSeries = "monthly"
	SeriesDailyProfitability  RecordSeries = "daily_profitability"
	SeriesDailyEquity         RecordSeries = "daily_equity"
	SeriesAnnualProfitability RecordSeries = "annual_profitability"
)

// Sync run statuses.
const (
	SyncStatusSuccess = "success"
	SyncStatusFailed  = "failed"
)

// SyncRun records one attempt to sync a portfolio from Kinvo.
type SyncRun struct {
	ID          string    `json:"id"`
	PortfolioID int64     `json:"portfolioId"`
	StartedAt   time.Time `json:"startedAt"`
	FinishedAt  time.Time `json:"finishedAt"`
	Status      string    `json:"status"`
	SnapshotID  *string   `json:"snapshotId"`
	Error       *string   `json:"error"`
	DurationMs  int64     `json:"durationMs"`
}
