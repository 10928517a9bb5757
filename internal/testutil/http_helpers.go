package testutil

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"
)

// NewPortfolioRequest builds a request for a portfolio endpoint as chi would
// route it: the path is /api/portfolio/{portfolioId}/{endpoint} and the
// portfolioId URL parameter is set on the route context, so handlers can be
// called directly without a router.
//
// Example:
//
//	req := testutil.NewPortfolioRequest(
//	    http.MethodGet, testutil.MockPortfolioID, "summary",
//	    url.Values{"interval": {"12m"}},
//	)
func NewPortfolioRequest(method string, portfolioID int64, endpoint string, query url.Values) *http.Request {
	id := strconv.FormatInt(portfolioID, 10)
	req := WithQuery(httptest.NewRequest(method, fmt.Sprintf("/api/portfolio/%s/%s", id, endpoint), nil), query)

	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("portfolioId", id)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

// WithQuery adds query to the request URL, keeping parameters already present.
func WithQuery(req *http.Request, query url.Values) *http.Request {
	if len(query) == 0 {
		return req
	}
	q := req.URL.Query()
	for key, values := range query {
		for _, v := range values {
			q.Add(key, v)
		}
	}
	req.URL.RawQuery = q.Encode()
	return req
}
