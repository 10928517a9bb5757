package apperrors

import "errors"

// Domain entity errors represent missing entities in the system.
// These errors indicate that a requested resource does not exist.
var (
	// ErrPortfolioNotFound indicates that a portfolio with the given ID does not exist.
	ErrPortfolioNotFound = errors.New("portfolio not found")

	// ErrSnapshotNotFound indicates that a portfolio has never been synced successfully.
	ErrSnapshotNotFound = errors.New("no snapshot for portfolio")

	// ErrCredentialsNotFound indicates that no Kinvo credentials are stored or configured.
	ErrCredentialsNotFound = errors.New("kinvo credentials not found")
)

// ErrCredentialKeyMissing indicates that credentials cannot be stored or read
// because no encryption key is configured.
var ErrCredentialKeyMissing = errors.New("CREDENTIAL_KEY is not configured")

// Validation errors represent malformed input from API callers.
var (
	// ErrInvalidPortfolioID indicates that a portfolio ID is missing or not a positive integer.
	ErrInvalidPortfolioID = errors.New("portfolio ID must be a positive integer")

	// ErrInvalidDateRange indicates that the provided date range is invalid
	// (e.g., start date is after end date).
	ErrInvalidDateRange = errors.New("invalid date range")

	// ErrInvalidDate indicates that a date parameter could not be parsed.
	ErrInvalidDate = errors.New("invalid date")

	ErrInvalidInterval    = errors.New("invalid interval")
	ErrInvalidGranularity = errors.New("invalid granularity")
	ErrInvalidGrouping    = errors.New("invalid allocation grouping")
	ErrInvalidCredentials = errors.New("email and password are required")
)

// Source data errors describe problems with the data returned by Kinvo.
// They are fatal to the computation that hit them; nothing is aggregated from partial data.
var (
	// ErrMissingBenchmark indicates that a profitability chart lacks one of the fixed benchmark series.
	ErrMissingBenchmark = errors.New("missing benchmark series")

	// ErrSeriesLengthMismatch indicates that a chart series does not line up with its categories.
	ErrSeriesLengthMismatch = errors.New("series length does not match categories")

	// ErrInvalidCategory indicates that a chart category could not be parsed as a date.
	ErrInvalidCategory = errors.New("invalid chart category")

	// ErrUnsortedSeries indicates that a series passed to compounding was not sorted ascending by date.
	ErrUnsortedSeries = errors.New("series is not sorted ascending by date")

	// ErrSourceFailure indicates that a Kinvo endpoint failed or answered with success=false.
	ErrSourceFailure = errors.New("kinvo source failure")

	// ErrUnauthorized indicates that Kinvo rejected the credentials or the token.
	ErrUnauthorized = errors.New("kinvo rejected credentials")
)

// ErrSyncInProgress indicates that a sync of the same portfolio is already running.
var ErrSyncInProgress = errors.New("sync already in progress")

// Operation failure errors represent system-level failures when retrieving or processing data.
var (
	ErrFailedToRetrievePortfolios = errors.New("failed to retrieve portfolios")
	ErrFailedToSyncPortfolio      = errors.New("failed to sync portfolio")
	ErrFailedToRetrieveSyncRuns   = errors.New("failed to retrieve sync runs")
	ErrFailedToGetSummary         = errors.New("failed to get portfolio summary")
	ErrFailedToGetProfitability   = errors.New("failed to get portfolio profitability")
	ErrFailedToGetNetWorth        = errors.New("failed to get portfolio net worth")
	ErrFailedToGetAllocation      = errors.New("failed to get portfolio allocation")
	ErrFailedToExport             = errors.New("failed to export portfolio")
	ErrFailedToSaveCredentials    = errors.New("failed to save credentials")
	ErrFailedToDeleteCredentials  = errors.New("failed to delete credentials")
	ErrFailedToGetVersionInfo     = errors.New("failed to get version information")
)
