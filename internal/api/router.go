package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/ndewijer/Kinvo-Analytics-Backend/internal/api/handlers"
	custommiddleware "github.com/ndewijer/Kinvo-Analytics-Backend/internal/api/middleware"
	"github.com/ndewijer/Kinvo-Analytics-Backend/internal/config"
	"github.com/ndewijer/Kinvo-Analytics-Backend/internal/logging"
	"github.com/ndewijer/Kinvo-Analytics-Backend/internal/service"
)

// Services bundles the services the router exposes.
// Verifier checks stored credentials against Kinvo and may be nil.
type Services struct {
	System     *service.SystemService
	Portfolio  *service.PortfolioService
	Sync       *service.SyncService
	Analysis   *service.AnalysisService
	Credential *service.CredentialService
	Verifier   handlers.LoginVerifier
}

// NewRouter creates and configures the HTTP router
func NewRouter(svc Services, cfg *config.Config) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(custommiddleware.RequestLogger(logging.WithComponent("http")))
	r.Use(middleware.Recoverer)

	r.Use(custommiddleware.CORS(cfg.CORS.AllowedOrigins))
	r.Use(custommiddleware.RateLimit(custommiddleware.NewLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)))

	// API routes
	r.Route("/api", func(r chi.Router) {
		// System namespace
		r.Route("/system", func(r chi.Router) {
			systemHandler := handlers.NewSystemHandler(svc.System)
			r.Get("/health", systemHandler.Health)
			r.Get("/version", systemHandler.Version)
		})

		r.Route("/portfolio", func(r chi.Router) {
			portfolioHandler := handlers.NewPortfolioHandler(svc.Portfolio, svc.Sync)
			analysisHandler := handlers.NewAnalysisHandler(svc.Analysis)

			r.Get("/", portfolioHandler.Portfolios)

			r.Route("/{portfolioId}", func(r chi.Router) {
				r.Use(custommiddleware.ValidatePortfolioIDMiddleware)

				r.Post("/sync", portfolioHandler.Sync)
				r.Get("/sync", portfolioHandler.SyncRuns)

				r.Get("/summary", analysisHandler.Summary)
				r.Get("/profitability", analysisHandler.Profitability)
				r.Get("/net-worth", analysisHandler.NetWorth)
				r.Get("/allocation", analysisHandler.Allocation)
				r.Get("/export", analysisHandler.Export)
			})
		})

		r.Route("/credentials", func(r chi.Router) {
			credentialHandler := handlers.NewCredentialHandler(svc.Credential, svc.Verifier)
			r.Put("/", credentialHandler.Put)
			r.Delete("/", credentialHandler.Delete)
		})
	})

	return r
}
