package kinvo_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"

	"github.com/ndewijer/Kinvo-Analytics-Backend/internal/apperrors"
	"github.com/ndewijer/Kinvo-Analytics-Backend/internal/kinvo"
)

// fakeKinvo is a minimal Kinvo API. Handlers for data endpoints are
// registered per test; login is always available.
type fakeKinvo struct {
	server   *httptest.Server
	mux      *chi.Mux
	logins   atomic.Int32
	tokenTTL time.Duration
}

func newFakeKinvo(t *testing.T) *fakeKinvo {
	t.Helper()
	f := &fakeKinvo{mux: chi.NewRouter(), tokenTTL: time.Hour}
	f.mux.HandleFunc("POST /v4/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var req kinvo.LoginRequest
		json.NewDecoder(r.Body).Decode(&req) //nolint:errcheck
		if req.Password != "secret" {
			writeEnvelope(w, http.StatusOK, false, nil, "invalid credentials")
			return
		}
		f.logins.Add(1)
		writeEnvelope(w, http.StatusOK, true, kinvo.LoginData{AccessToken: signedToken(t, f.tokenTTL)}, "")
	})
	f.server = httptest.NewServer(f.mux)
	t.Cleanup(f.server.Close)
	return f
}

func (f *fakeKinvo) client(t *testing.T, cache *kinvo.Cache) *kinvo.HTTPClient {
	t.Helper()
	c, err := kinvo.NewHTTPClient(kinvo.Options{
		BaseURL:        f.server.URL,
		Timeout:        5 * time.Second,
		Cache:          cache,
		Credentials:    kinvo.StaticCredentials{Email: "user@example.com", Password: "secret"},
		MaxAttempts:    3,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     5 * time.Millisecond,
		PollAttempts:   3,
	})
	if err != nil {
		t.Fatalf("NewHTTPClient() returned unexpected error: %v", err)
	}
	return c
}

func signedToken(t *testing.T, ttl time.Duration) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "user@example.com",
		"exp": time.Now().Add(ttl).Unix(),
	})
	s, err := token.SignedString([]byte("test-signing-key"))
	if err != nil {
		t.Fatalf("Failed to sign token: %v", err)
	}
	return s
}

func writeEnvelope(w http.ResponseWriter, status int, success bool, data any, errMsg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	env := map[string]any{"success": success, "data": data, "error": nil}
	if errMsg != "" {
		env["error"] = errMsg
	}
	json.NewEncoder(w).Encode(env) //nolint:errcheck
}

func capitalGainPayload() kinvo.CapitalGain {
	var cg kinvo.CapitalGain
	cg.CapitalGainByProductInTheMonth = []kinvo.CapitalGainByProduct{
		{PortfolioProductID: 7, MonthlyReferenceDate: "2024-01-01T00:00:00", InitialEquity: 1000, FinalEquity: 1010, CapitalGain: 10},
	}
	return cg
}

func TestHTTPClient_CapitalGain(t *testing.T) {
	f := newFakeKinvo(t)
	var hits atomic.Int32
	f.mux.HandleFunc("GET /v3/portfolio/1/capital-gain", func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.Header.Get("Authorization") == "" {
			t.Error("Expected bearer token on data request")
		}
		writeEnvelope(w, http.StatusOK, true, capitalGainPayload(), "")
	})

	t.Run("cached responses skip the API", func(t *testing.T) {
		cache := kinvo.NewCache(time.Minute)
		c := f.client(t, cache)

		for i := 0; i < 2; i++ {
			got, err := c.CapitalGain(context.Background(), 1)
			if err != nil {
				t.Fatalf("CapitalGain() returned unexpected error: %v", err)
			}
			if len(got.CapitalGainByProductInTheMonth) != 1 {
				t.Fatalf("Expected 1 entry, got %d", len(got.CapitalGainByProductInTheMonth))
			}
		}

		if hits.Load() != 1 {
			t.Errorf("Expected 1 API hit, got %d", hits.Load())
		}
		if f.logins.Load() != 1 {
			t.Errorf("Expected 1 login, got %d", f.logins.Load())
		}
	})

	t.Run("without cache every call hits the API", func(t *testing.T) {
		hits.Store(0)
		c := f.client(t, nil)
		for i := 0; i < 2; i++ {
			if _, err := c.CapitalGain(context.Background(), 1); err != nil {
				t.Fatalf("CapitalGain() returned unexpected error: %v", err)
			}
		}
		if hits.Load() != 2 {
			t.Errorf("Expected 2 API hits, got %d", hits.Load())
		}
	})
}

func TestHTTPClient_UnsuccessfulEnvelope(t *testing.T) {
	f := newFakeKinvo(t)
	f.mux.HandleFunc("GET /v3/portfolio/1/products", func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusOK, false, nil, "portfolio locked")
	})

	_, err := f.client(t, nil).PortfolioProducts(context.Background(), 1)

	if !errors.Is(err, apperrors.ErrSourceFailure) {
		t.Fatalf("Expected ErrSourceFailure, got %v", err)
	}
	var srcErr *kinvo.SourceError
	if !errors.As(err, &srcErr) {
		t.Fatalf("Expected *SourceError, got %T", err)
	}
	if srcErr.Message != "portfolio locked" {
		t.Errorf("Expected message 'portfolio locked', got %q", srcErr.Message)
	}
}

// TestHTTPClient_RetriesServerErrors tests the backoff loop.
//
// WHY: Kinvo occasionally answers 503 while consolidating. Transient failures
// must not abort a sync, but a persistent outage must surface as an error.
func TestHTTPClient_RetriesServerErrors(t *testing.T) {
	t.Run("recovers after transient failures", func(t *testing.T) {
		f := newFakeKinvo(t)
		var hits atomic.Int32
		f.mux.HandleFunc("GET /v3/portfolio", func(w http.ResponseWriter, r *http.Request) {
			if hits.Add(1) < 3 {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			writeEnvelope(w, http.StatusOK, true, []kinvo.PortfolioItem{{ID: 1, Title: "Principal"}}, "")
		})

		got, err := f.client(t, nil).Portfolios(context.Background())
		if err != nil {
			t.Fatalf("Portfolios() returned unexpected error: %v", err)
		}
		if len(got) != 1 || got[0].Title != "Principal" {
			t.Errorf("Unexpected portfolios: %+v", got)
		}
	})

	t.Run("gives up after max attempts", func(t *testing.T) {
		f := newFakeKinvo(t)
		var hits atomic.Int32
		f.mux.HandleFunc("GET /v3/portfolio", func(w http.ResponseWriter, r *http.Request) {
			hits.Add(1)
			w.WriteHeader(http.StatusBadGateway)
		})

		_, err := f.client(t, nil).Portfolios(context.Background())
		if !errors.Is(err, apperrors.ErrSourceFailure) {
			t.Errorf("Expected ErrSourceFailure, got %v", err)
		}
		if hits.Load() != 3 {
			t.Errorf("Expected 3 attempts, got %d", hits.Load())
		}
	})
}

func TestHTTPClient_Authentication(t *testing.T) {
	t.Run("401 triggers a fresh login", func(t *testing.T) {
		f := newFakeKinvo(t)
		var hits atomic.Int32
		f.mux.HandleFunc("GET /v3/portfolio/1/profitability", func(w http.ResponseWriter, r *http.Request) {
			if hits.Add(1) == 1 {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			writeEnvelope(w, http.StatusOK, true, kinvo.PortfolioProfitability{}, "")
		})

		if _, err := f.client(t, nil).Profitability(context.Background(), 1); err != nil {
			t.Fatalf("Profitability() returned unexpected error: %v", err)
		}
		if f.logins.Load() != 2 {
			t.Errorf("Expected 2 logins, got %d", f.logins.Load())
		}
	})

	t.Run("token close to expiry is refreshed", func(t *testing.T) {
		f := newFakeKinvo(t)
		f.tokenTTL = 30 * time.Second
		f.mux.HandleFunc("GET /v3/portfolio/1/products", func(w http.ResponseWriter, r *http.Request) {
			writeEnvelope(w, http.StatusOK, true, []kinvo.PortfolioProduct{}, "")
		})

		c := f.client(t, nil)
		for i := 0; i < 2; i++ {
			if _, err := c.PortfolioProducts(context.Background(), 1); err != nil {
				t.Fatalf("PortfolioProducts() returned unexpected error: %v", err)
			}
		}
		if f.logins.Load() != 2 {
			t.Errorf("Expected a login per call, got %d", f.logins.Load())
		}
	})

	t.Run("rejected credentials", func(t *testing.T) {
		f := newFakeKinvo(t)
		c, err := kinvo.NewHTTPClient(kinvo.Options{
			BaseURL:     f.server.URL,
			Credentials: kinvo.StaticCredentials{Email: "user@example.com", Password: "wrong"},
		})
		if err != nil {
			t.Fatalf("NewHTTPClient() returned unexpected error: %v", err)
		}

		if err := c.Login(context.Background()); !errors.Is(err, apperrors.ErrUnauthorized) {
			t.Errorf("Expected ErrUnauthorized, got %v", err)
		}
	})

	t.Run("missing credentials", func(t *testing.T) {
		f := newFakeKinvo(t)
		c, err := kinvo.NewHTTPClient(kinvo.Options{BaseURL: f.server.URL, Credentials: kinvo.StaticCredentials{}})
		if err != nil {
			t.Fatalf("NewHTTPClient() returned unexpected error: %v", err)
		}
		if err := c.Login(context.Background()); !errors.Is(err, apperrors.ErrCredentialsNotFound) {
			t.Errorf("Expected ErrCredentialsNotFound, got %v", err)
		}
	})
}

func TestHTTPClient_ConsolidatePortfolio(t *testing.T) {
	t.Run("polls queued consolidation until done", func(t *testing.T) {
		f := newFakeKinvo(t)
		var polls atomic.Int32
		f.mux.HandleFunc("POST /v3/portfolio/1/consolidate", func(w http.ResponseWriter, r *http.Request) {
			writeEnvelope(w, http.StatusOK, true, kinvo.ConsolidationData{ConsolidationRoute: "QUEUED"}, "")
		})
		f.mux.HandleFunc("GET /v3/portfolio/1/consolidation-status", func(w http.ResponseWriter, r *http.Request) {
			n := polls.Add(1)
			writeEnvelope(w, http.StatusOK, true, kinvo.ConsolidationStatus{InProgress: n < 2}, "")
		})

		if err := f.client(t, nil).ConsolidatePortfolio(context.Background(), 1); err != nil {
			t.Fatalf("ConsolidatePortfolio() returned unexpected error: %v", err)
		}
		if polls.Load() != 2 {
			t.Errorf("Expected 2 polls, got %d", polls.Load())
		}
	})

	t.Run("still running after last poll is not an error", func(t *testing.T) {
		f := newFakeKinvo(t)
		var polls atomic.Int32
		f.mux.HandleFunc("POST /v3/portfolio/1/consolidate", func(w http.ResponseWriter, r *http.Request) {
			writeEnvelope(w, http.StatusOK, true, kinvo.ConsolidationData{ConsolidationRoute: "QUEUED"}, "")
		})
		f.mux.HandleFunc("GET /v3/portfolio/1/consolidation-status", func(w http.ResponseWriter, r *http.Request) {
			polls.Add(1)
			writeEnvelope(w, http.StatusOK, true, kinvo.ConsolidationStatus{InProgress: true}, "")
		})

		if err := f.client(t, nil).ConsolidatePortfolio(context.Background(), 1); err != nil {
			t.Fatalf("ConsolidatePortfolio() returned unexpected error: %v", err)
		}
		if polls.Load() != 3 {
			t.Errorf("Expected 3 polls, got %d", polls.Load())
		}
	})

	t.Run("flushes the cache", func(t *testing.T) {
		f := newFakeKinvo(t)
		f.mux.HandleFunc("POST /v3/portfolio/1/consolidate", func(w http.ResponseWriter, r *http.Request) {
			writeEnvelope(w, http.StatusOK, true, kinvo.ConsolidationData{ConsolidationRoute: "DIRECT"}, "")
		})
		cache := kinvo.NewCache(time.Minute)
		cache.Set(kinvo.CacheKey("CapitalGain", 1), kinvo.CapitalGain{})

		if err := f.client(t, cache).ConsolidatePortfolio(context.Background(), 1); err != nil {
			t.Fatalf("ConsolidatePortfolio() returned unexpected error: %v", err)
		}
		if cache.Len() != 0 {
			t.Errorf("Expected empty cache, got %d entries", cache.Len())
		}
	})
}

// TestHTTPClient_WithoutCache tests that a caller can force a fresh read.
//
// WHY: Refreshing the portfolio list must show portfolios created in Kinvo a
// moment ago, not the list cached for the last few minutes.
func TestHTTPClient_WithoutCache(t *testing.T) {
	// Setup
	f := newFakeKinvo(t)
	var calls atomic.Int32
	f.mux.HandleFunc("GET /v3/portfolio", func(w http.ResponseWriter, r *http.Request) {
		n := calls.Add(1)
		writeEnvelope(w, http.StatusOK, true, []kinvo.PortfolioItem{{ID: int64(n), Title: "Carteira"}}, "")
	})
	cache := kinvo.NewCache(time.Minute)
	client := f.client(t, cache)
	ctx := context.Background()

	// Execute
	first, err := client.Portfolios(ctx)
	if err != nil {
		t.Fatalf("Portfolios() returned unexpected error: %v", err)
	}
	cached, _ := client.Portfolios(ctx)
	fresh, err := client.Portfolios(kinvo.WithoutCache(ctx))
	if err != nil {
		t.Fatalf("Portfolios() returned unexpected error: %v", err)
	}
	afterFresh, _ := client.Portfolios(ctx)

	// Assert
	if calls.Load() != 2 {
		t.Errorf("Expected 2 Kinvo calls, got %d", calls.Load())
	}
	if first[0].ID != 1 || cached[0].ID != 1 {
		t.Errorf("Expected the cached list before the forced read, got %v and %v", first, cached)
	}
	if fresh[0].ID != 2 || afterFresh[0].ID != 2 {
		t.Errorf("Expected the forced read to replace the cached list, got %v and %v", fresh, afterFresh)
	}
}

func TestNewHTTPClient_Validation(t *testing.T) {
	if _, err := kinvo.NewHTTPClient(kinvo.Options{BaseURL: "not a url", Credentials: kinvo.StaticCredentials{}}); err == nil {
		t.Error("Expected error for invalid base URL")
	}
	if _, err := kinvo.NewHTTPClient(kinvo.Options{BaseURL: "https://api.kinvo.com.br"}); err == nil {
		t.Error("Expected error without credentials provider")
	}
}

func TestCacheKey(t *testing.T) {
	if got := kinvo.CacheKey("ProductStatements", int64(42)); got != "ProductStatements:42" {
		t.Errorf("Expected ProductStatements:42, got %q", got)
	}
	if got := kinvo.CacheKey("Portfolios"); got != "Portfolios" {
		t.Errorf("Expected Portfolios, got %q", got)
	}
}
