// Package app wires the database, the Kinvo client and the services together.
// The HTTP server and the command line tool share it.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ndewijer/Kinvo-Analytics-Backend/internal/config"
	"github.com/ndewijer/Kinvo-Analytics-Backend/internal/database"
	"github.com/ndewijer/Kinvo-Analytics-Backend/internal/events"
	"github.com/ndewijer/Kinvo-Analytics-Backend/internal/kinvo"
	"github.com/ndewijer/Kinvo-Analytics-Backend/internal/model"
	"github.com/ndewijer/Kinvo-Analytics-Backend/internal/repository"
	"github.com/ndewijer/Kinvo-Analytics-Backend/internal/service"
)

// amqpConnectAttempts bounds how long startup waits for the broker.
const amqpConnectAttempts = 5

// App holds the wired services of one process.
type App struct {
	DB        *sql.DB
	Client    *kinvo.HTTPClient
	Publisher events.Publisher

	System     *service.SystemService
	Portfolio  *service.PortfolioService
	Sync       *service.SyncService
	Analysis   *service.AnalysisService
	Credential *service.CredentialService
}

// New opens and migrates the database and builds every service.
//
// Parameters:
//   - ctx: Bounds migrations and the broker connection
//   - cfg: Loaded configuration
//
// Returns:
//   - *App: Ready to use; call Close when done
//   - error: If the database, the credential key or the Kinvo client is unusable
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	db, err := database.Open(cfg.Database.Path)
	if err != nil {
		return nil, err
	}
	slog.Info("connected to database", "path", cfg.Database.Path)

	if err := database.Migrate(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	a, err := build(ctx, cfg, db)
	if err != nil {
		db.Close()
		return nil, err
	}
	return a, nil
}

func build(ctx context.Context, cfg *config.Config, db *sql.DB) (*App, error) {
	// Repositories
	portfolioRepo := repository.NewPortfolioRepository(db)
	snapshotRepo := repository.NewSnapshotRepository(db)
	syncRunRepo := repository.NewSyncRunRepository(db)
	credentialRepo := repository.NewCredentialRepository(db)

	fallback := kinvo.Credentials{Email: cfg.Kinvo.Email, Password: cfg.Kinvo.Password}
	credentialService, err := service.NewCredentialService(credentialRepo, cfg.Security.CredentialKey, fallback)
	if err != nil {
		return nil, fmt.Errorf("credential service: %w", err)
	}
	if cfg.Security.CredentialKey == "" {
		slog.Warn("CREDENTIAL_KEY not set, credentials cannot be stored")
	}

	client, err := kinvo.NewHTTPClient(kinvo.Options{
		BaseURL:       cfg.Kinvo.BaseURL,
		Timeout:       cfg.Kinvo.Timeout,
		RatePerSecond: cfg.Kinvo.RatePerSecond,
		Cache:         kinvo.NewCache(cfg.Kinvo.CacheTTL),
		Credentials:   credentialService,
	})
	if err != nil {
		return nil, err
	}

	publisher, err := newPublisher(ctx, cfg.AMQP)
	if err != nil {
		return nil, err
	}

	portfolioService := service.NewPortfolioService(portfolioRepo, client)
	syncService := service.NewSyncService(
		db,
		portfolioService,
		service.NewLoaderService(client),
		portfolioRepo,
		snapshotRepo,
		syncRunRepo,
		publisher,
	)

	features := map[string]bool{
		model.FeatureEvents:            cfg.AMQP.URL != "",
		model.FeatureScheduledSync:     cfg.Sync.Cron != "",
		model.FeatureStoredCredentials: cfg.Security.CredentialKey != "",
	}

	return &App{
		DB:         db,
		Client:     client,
		Publisher:  publisher,
		System:     service.NewSystemService(db, features),
		Portfolio:  portfolioService,
		Sync:       syncService,
		Analysis:   service.NewAnalysisService(portfolioRepo, snapshotRepo),
		Credential: credentialService,
	}, nil
}

func newPublisher(ctx context.Context, cfg config.AMQPConfig) (events.Publisher, error) {
	if cfg.URL == "" {
		slog.Info("AMQP_URL not set, event publishing disabled")
		return events.NoopPublisher{}, nil
	}

	client, err := events.Connect(ctx, cfg.URL, cfg.Exchange, cfg.Queue, amqpConnectAttempts)
	if err != nil {
		return nil, fmt.Errorf("event publisher: %w", err)
	}
	slog.Info("event publishing enabled", "exchange", cfg.Exchange, "queue", cfg.Queue)
	return client, nil
}

// Close releases the publisher and the database.
func (a *App) Close() error {
	return errors.Join(a.Publisher.Close(), a.DB.Close())
}
