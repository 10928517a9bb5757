// Package middleware provides HTTP middleware for request validation and processing.
package middleware

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ndewijer/Kinvo-Analytics-Backend/internal/api/response"
	"github.com/ndewijer/Kinvo-Analytics-Backend/internal/validation"
)

type portfolioIDKey struct{}

// ValidatePortfolioIDMiddleware validates that the portfolioId URL parameter is a
// positive integer and stores the parsed ID in the request context.
// Returns 400 Bad Request if the portfolio ID is missing or invalid.
//
// Example usage in router:
//
//	r.Route("/{portfolioId}", func(r chi.Router) {
//	    r.Use(middleware.ValidatePortfolioIDMiddleware)
//	    r.Get("/summary", handler.Summary)
//	})
func ValidatePortfolioIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		param := chi.URLParam(r, "portfolioId")
		if param == "" {
			response.RespondError(w, http.StatusBadRequest, "portfolio ID is required", "")
			return
		}

		id, err := validation.ParsePortfolioID(param)
		if err != nil {
			response.RespondError(w, http.StatusBadRequest, "invalid portfolio ID", err.Error())
			return
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), portfolioIDKey{}, id)))
	})
}

// PortfolioID returns the portfolio ID validated by ValidatePortfolioIDMiddleware.
// Without the middleware it parses the URL parameter itself.
func PortfolioID(r *http.Request) (int64, error) {
	if id, ok := r.Context().Value(portfolioIDKey{}).(int64); ok {
		return id, nil
	}
	return validation.ParsePortfolioID(chi.URLParam(r, "portfolioId"))
}
