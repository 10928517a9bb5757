package testutil

import (
	"database/sql"
	"math/rand"
	"strings"
	"testing"
	"time"

	"github.com/fernet/fernet-go"
	"github.com/google/uuid"

	"github.com/ndewijer/Kinvo-Analytics-Backend/internal/events"
	"github.com/ndewijer/Kinvo-Analytics-Backend/internal/kinvo"
	"github.com/ndewijer/Kinvo-Analytics-Backend/internal/model"
	"github.com/ndewijer/Kinvo-Analytics-Backend/internal/repository"
	"github.com/ndewijer/Kinvo-Analytics-Backend/internal/service"
)

func NewTestPortfolioService(t *testing.T, db *sql.DB, client kinvo.Client) *service.PortfolioService {
	t.Helper()

	return service.NewPortfolioService(
		repository.NewPortfolioRepository(db),
		client,
	)
}

// NewTestSyncService wires a SyncService against db and the given Kinvo client.
// A nil publisher disables events.
func NewTestSyncService(t *testing.T, db *sql.DB, client kinvo.Client, publisher events.Publisher) *service.SyncService {
	t.Helper()

	portfolioRepo := repository.NewPortfolioRepository(db)

	return service.NewSyncService(
		db,
		service.NewPortfolioService(portfolioRepo, client),
		service.NewLoaderService(client),
		portfolioRepo,
		repository.NewSnapshotRepository(db),
		repository.NewSyncRunRepository(db),
		publisher,
	)
}

func NewTestAnalysisService(t *testing.T, db *sql.DB) *service.AnalysisService {
	t.Helper()

	return service.NewAnalysisService(
		repository.NewPortfolioRepository(db),
		repository.NewSnapshotRepository(db),
	)
}

// NewTestCredentialService creates a CredentialService with a fresh random key.
func NewTestCredentialService(t *testing.T, db *sql.DB, fallback kinvo.Credentials) *service.CredentialService {
	t.Helper()

	s, err := service.NewCredentialService(repository.NewCredentialRepository(db), MakeCredentialKey(t), fallback)
	if err != nil {
		t.Fatalf("Failed to create credential service: %v", err)
	}
	return s
}

func NewTestSystemService(t *testing.T, db *sql.DB) *service.SystemService {
	t.Helper()

	return service.NewSystemService(db, map[string]bool{model.FeatureEvents: false})
}

// MakeID returns a fresh snapshot or sync run ID.
func MakeID() string {
	return uuid.NewString()
}

// MakePortfolioID returns a random positive Kinvo portfolio ID. Tests that
// need the mock client to answer should use MockPortfolioID instead.
func MakePortfolioID() int64 {
	//nolint:gosec // G404: test data
	return rand.Int63n(1_000_000) + 1
}

// MakePortfolioName appends a short random suffix to base ("Carteira" when
// empty) so repeated factory calls do not collide.
func MakePortfolioName(base string) string {
	if base == "" {
		base = "Carteira"
	}
	return base + " " + strings.ToUpper(uuid.NewString()[:6])
}

// MakeCredentialKey returns a new base64-encoded fernet key.
func MakeCredentialKey(t *testing.T) string {
	t.Helper()

	var k fernet.Key
	if err := k.Generate(); err != nil {
		t.Fatalf("Failed to generate fernet key: %v", err)
	}
	return k.Encode()
}

// Date returns midnight UTC of the given day.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// Float returns a pointer to v, for ratio fields.
func Float(v float64) *float64 {
	return &v
}
