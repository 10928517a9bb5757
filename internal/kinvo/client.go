// Package kinvo talks to the Kinvo portfolio API.
package kinvo

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/time/rate"

	"github.com/ndewijer/Kinvo-Analytics-Backend/internal/apperrors"
)

// Endpoint paths relative to the base URL.
const (
	pathLogin               = "v4/auth/login"
	pathPortfolios          = "v3/portfolio"
	pathConsolidate         = "v3/portfolio/%d/consolidate"
	pathConsolidationStatus = "v3/portfolio/%d/consolidation-status"
	pathProducts            = "v3/portfolio/%d/products"
	pathConsolidatedAssets  = "v3/portfolio/%d/consolidated-assets"
	pathFundSnapshots       = "v3/portfolio/%d/funds/snapshot"
	pathFundsDailyEquity    = "v3/portfolio/%d/funds/daily-equity"
	pathCapitalGain         = "v3/portfolio/%d/capital-gain"
	pathProfitability       = "v3/portfolio/%d/profitability"
	pathStatements          = "v3/portfolio-product/%d/statements"
)

// consolidationQueued is the consolidation route Kinvo returns when the
// consolidation runs asynchronously.
const consolidationQueued = "QUEUED"

// tokenRefreshMargin is how long before expiry a token is replaced.
const tokenRefreshMargin = time.Minute

// Client defines the calls made to Kinvo.
// This interface enables dependency injection and testing with mock implementations.
type Client interface {
	Login(ctx context.Context) error
	ConsolidatePortfolio(ctx context.Context, portfolioID int64) error
	Portfolios(ctx context.Context) ([]PortfolioItem, error)
	PortfolioProducts(ctx context.Context, portfolioID int64) ([]PortfolioProduct, error)
	ConsolidatedAssets(ctx context.Context, portfolioID int64) ([]ConsolidatedAsset, error)
	FundSnapshots(ctx context.Context, portfolioID int64) ([]FundSnapshot, error)
	FundsDailyEquity(ctx context.Context, portfolioID int64) ([]FundDailyEquity, error)
	CapitalGain(ctx context.Context, portfolioID int64) (CapitalGain, error)
	Profitability(ctx context.Context, portfolioID int64) (PortfolioProfitability, error)
	ProductStatements(ctx context.Context, portfolioProductID int64) ([]ProductStatement, error)
}

// Credentials are the e-mail and password used to sign in.
type Credentials struct {
	Email    string
	Password string
}

// CredentialsProvider supplies the credentials at login time, so stored
// credentials can change without restarting the client.
type CredentialsProvider interface {
	Credentials(ctx context.Context) (Credentials, error)
}

// StaticCredentials is a CredentialsProvider with fixed values.
type StaticCredentials Credentials

// Credentials returns the fixed credentials.
func (s StaticCredentials) Credentials(ctx context.Context) (Credentials, error) {
	if s.Email == "" || s.Password == "" {
		return Credentials{}, apperrors.ErrCredentialsNotFound
	}
	return Credentials(s), nil
}

// Options configures an HTTPClient. Zero values select the defaults.
type Options struct {
	BaseURL        string
	Timeout        time.Duration
	RatePerSecond  float64
	Cache          *Cache
	Credentials    CredentialsProvider
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	PollAttempts   int
}

// HTTPClient is the Kinvo client backed by net/http.
// It signs in lazily, paces outgoing calls, retries transient failures and
// caches decoded GET responses when a cache is configured.
type HTTPClient struct {
	baseURL        *url.URL
	httpClient     *http.Client
	limiter        *rate.Limiter
	cache          *Cache
	credentials    CredentialsProvider
	maxAttempts    int
	initialBackoff time.Duration
	maxBackoff     time.Duration
	pollAttempts   int
	logger         *slog.Logger

	mu          sync.Mutex
	token       string
	tokenExpiry time.Time
}

// NewHTTPClient creates a Kinvo client.
//
// Parameters:
//   - opts: Base URL, pacing, retry and cache settings
//
// Returns:
//   - *HTTPClient: A new client instance ready for use
//   - error: If the base URL is invalid or no credentials provider is given
func NewHTTPClient(opts Options) (*HTTPClient, error) {
	if opts.Credentials == nil {
		return nil, fmt.Errorf("kinvo client: credentials provider is required")
	}
	base, err := url.Parse(opts.BaseURL)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("kinvo client: invalid base url %q", opts.BaseURL)
	}
	if !strings.HasSuffix(base.Path, "/") {
		base.Path += "/"
	}

	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	limit := rate.Inf
	if opts.RatePerSecond > 0 {
		limit = rate.Limit(opts.RatePerSecond)
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 5
	}
	if opts.InitialBackoff <= 0 {
		opts.InitialBackoff = time.Second
	}
	if opts.MaxBackoff <= 0 {
		opts.MaxBackoff = 30 * time.Second
	}
	if opts.PollAttempts <= 0 {
		opts.PollAttempts = 5
	}

	return &HTTPClient{
		baseURL:        base,
		httpClient:     &http.Client{Timeout: opts.Timeout},
		limiter:        rate.NewLimiter(limit, 1),
		cache:          opts.Cache,
		credentials:    opts.Credentials,
		maxAttempts:    opts.MaxAttempts,
		initialBackoff: opts.InitialBackoff,
		maxBackoff:     opts.MaxBackoff,
		pollAttempts:   opts.PollAttempts,
		logger:         slog.Default().With("component", "kinvo"),
	}, nil
}

// Login signs in with the current credentials and stores the bearer token.
// The token lifetime is read from its exp claim; tokens without one are
// treated as valid for an hour.
func (c *HTTPClient) Login(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.login(ctx)
}

func (c *HTTPClient) login(ctx context.Context) error {
	creds, err := c.credentials.Credentials(ctx)
	if err != nil {
		return err
	}

	body, err := json.Marshal(LoginRequest{Email: creds.Email, Password: creds.Password})
	if err != nil {
		return err
	}

	resp, err := c.do(ctx, http.MethodPost, pathLogin, body, "")
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return fmt.Errorf("%w: login rejected", apperrors.ErrUnauthorized)
	}

	data, err := decodeEnvelope[LoginData](resp, pathLogin)
	if err != nil {
		var srcErr *SourceError
		if errors.As(err, &srcErr) && resp.StatusCode < 500 {
			return fmt.Errorf("%w: %s", apperrors.ErrUnauthorized, srcErr.Message)
		}
		return err
	}
	if data.AccessToken == "" {
		return fmt.Errorf("%w: empty access token", apperrors.ErrUnauthorized)
	}

	c.token = data.AccessToken
	c.tokenExpiry = tokenExpiry(data.AccessToken, time.Now())
	c.logger.Debug("signed in", "expires", c.tokenExpiry.Format(time.RFC3339))
	return nil
}

// tokenExpiry reads the exp claim without verifying the signature; the
// token is only ever sent back to its issuer.
func tokenExpiry(token string, now time.Time) time.Time {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return now.Add(time.Hour)
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return now.Add(time.Hour)
	}
	return exp.Time
}

// bearer returns a valid token, signing in again when it is missing or about to expire.
func (c *HTTPClient) bearer(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.token == "" || time.Now().After(c.tokenExpiry.Add(-tokenRefreshMargin)) {
		if err := c.login(ctx); err != nil {
			return "", err
		}
	}
	return c.token, nil
}

func (c *HTTPClient) invalidateToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.token == token {
		c.token = ""
	}
}

// do sends one request, retrying transport errors and 5xx responses with
// exponential backoff. The caller closes the response body.
func (c *HTTPClient) do(ctx context.Context, method, path string, body []byte, token string) (*http.Response, error) {
	target := c.baseURL.ResolveReference(&url.URL{Path: path})

	backoff := c.initialBackoff
	var lastErr error

	for attempt := 0; attempt < c.maxAttempts; attempt++ {
		if attempt > 0 {
			c.logger.Debug("retrying request", "path", path, "attempt", attempt+1, "error", lastErr)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
			if backoff > c.maxBackoff {
				backoff = c.maxBackoff
			}
		}

		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		var reader io.Reader
		if body != nil {
			reader = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, target.String(), reader)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = err
			continue
		}
		if resp.StatusCode >= 500 {
			io.Copy(io.Discard, resp.Body) //nolint:errcheck
			resp.Body.Close()
			lastErr = &SourceError{Endpoint: path, StatusCode: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
			continue
		}
		return resp, nil
	}

	return nil, fmt.Errorf("kinvo %s: giving up after %d attempts: %w", path, c.maxAttempts, lastErr)
}

// decodeEnvelope reads a response body into an Envelope and unwraps its data.
func decodeEnvelope[T any](resp *http.Response, path string) (T, error) {
	var zero T
	var env Envelope[T]
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		if resp.StatusCode >= 400 {
			return zero, &SourceError{Endpoint: path, StatusCode: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
		}
		return zero, fmt.Errorf("kinvo %s: decoding response: %w", path, err)
	}
	if !env.Success {
		msg := "request was not successful"
		if env.Error != nil && *env.Error != "" {
			msg = *env.Error
		}
		return zero, &SourceError{Endpoint: path, StatusCode: resp.StatusCode, Message: msg}
	}
	return env.Data, nil
}

// call performs an authenticated request and decodes the envelope. A 401
// drops the token and retries once with a fresh login.
func call[T any](ctx context.Context, c *HTTPClient, method, path string, body []byte) (T, error) {
	var zero T
	for i := 0; i < 2; i++ {
		token, err := c.bearer(ctx)
		if err != nil {
			return zero, err
		}
		resp, err := c.do(ctx, method, path, body, token)
		if err != nil {
			return zero, err
		}
		if resp.StatusCode == http.StatusUnauthorized {
			resp.Body.Close()
			c.invalidateToken(token)
			continue
		}
		data, err := decodeEnvelope[T](resp, path)
		resp.Body.Close()
		return data, err
	}
	return zero, fmt.Errorf("%w: kinvo %s rejected a fresh token", apperrors.ErrUnauthorized, path)
}

// cachedGet serves a GET from the cache unless ctx came from WithoutCache.
func cachedGet[T any](ctx context.Context, c *HTTPClient, key, path string) (T, error) {
	if !cacheSkipped(ctx) {
		if v, ok := c.cache.Get(key); ok {
			if data, ok := v.(T); ok {
				return data, nil
			}
		}
	}
	data, err := call[T](ctx, c, http.MethodGet, path, nil)
	if err != nil {
		return data, err
	}
	c.cache.Set(key, data)
	return data, nil
}

// ConsolidatePortfolio asks Kinvo to consolidate a portfolio. When the
// consolidation is queued the status is polled with backoff; a consolidation
// still running after the last poll is logged and not treated as an error.
// Cached responses are dropped because they predate the consolidation.
func (c *HTTPClient) ConsolidatePortfolio(ctx context.Context, portfolioID int64) error {
	defer c.cache.Flush()

	path := fmt.Sprintf(pathConsolidate, portfolioID)
	data, err := call[ConsolidationData](ctx, c, http.MethodPost, path, []byte("{}"))
	if err != nil {
		return err
	}
	if data.ConsolidationRoute != consolidationQueued {
		return nil
	}

	statusPath := fmt.Sprintf(pathConsolidationStatus, portfolioID)
	backoff := c.initialBackoff
	for attempt := 0; attempt < c.pollAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
		if backoff > c.maxBackoff {
			backoff = c.maxBackoff
		}

		status, err := call[ConsolidationStatus](ctx, c, http.MethodGet, statusPath, nil)
		if err != nil {
			return err
		}
		if !status.InProgress {
			return nil
		}
	}

	c.logger.Warn("consolidation still in progress, continuing with current data",
		"portfolio_id", portfolioID, "polls", c.pollAttempts)
	return nil
}

// Portfolios lists the portfolios of the signed-in user.
func (c *HTTPClient) Portfolios(ctx context.Context) ([]PortfolioItem, error) {
	return cachedGet[[]PortfolioItem](ctx, c, CacheKey("Portfolios"), pathPortfolios)
}

// PortfolioProducts lists the products of a portfolio.
func (c *HTTPClient) PortfolioProducts(ctx context.Context, portfolioID int64) ([]PortfolioProduct, error) {
	return cachedGet[[]PortfolioProduct](ctx, c, CacheKey("PortfolioProducts", portfolioID), fmt.Sprintf(pathProducts, portfolioID))
}

// ConsolidatedAssets returns the consolidated position of each product.
func (c *HTTPClient) ConsolidatedAssets(ctx context.Context, portfolioID int64) ([]ConsolidatedAsset, error) {
	return cachedGet[[]ConsolidatedAsset](ctx, c, CacheKey("ConsolidatedAssets", portfolioID), fmt.Sprintf(pathConsolidatedAssets, portfolioID))
}

// FundSnapshots returns the current position of each fund.
func (c *HTTPClient) FundSnapshots(ctx context.Context, portfolioID int64) ([]FundSnapshot, error) {
	return cachedGet[[]FundSnapshot](ctx, c, CacheKey("FundSnapshots", portfolioID), fmt.Sprintf(pathFundSnapshots, portfolioID))
}

// FundsDailyEquity returns the daily equity of each fund.
func (c *HTTPClient) FundsDailyEquity(ctx context.Context, portfolioID int64) ([]FundDailyEquity, error) {
	return cachedGet[[]FundDailyEquity](ctx, c, CacheKey("FundsDailyEquity", portfolioID), fmt.Sprintf(pathFundsDailyEquity, portfolioID))
}

// CapitalGain returns the monthly capital gain per product.
func (c *HTTPClient) CapitalGain(ctx context.Context, portfolioID int64) (CapitalGain, error) {
	return cachedGet[CapitalGain](ctx, c, CacheKey("CapitalGain", portfolioID), fmt.Sprintf(pathCapitalGain, portfolioID))
}

// Profitability returns the daily, monthly and annual profitability charts.
func (c *HTTPClient) Profitability(ctx context.Context, portfolioID int64) (PortfolioProfitability, error) {
	return cachedGet[PortfolioProfitability](ctx, c, CacheKey("Profitability", portfolioID), fmt.Sprintf(pathProfitability, portfolioID))
}

// ProductStatements returns the movements of one portfolio product.
func (c *HTTPClient) ProductStatements(ctx context.Context, portfolioProductID int64) ([]ProductStatement, error) {
	return cachedGet[[]ProductStatement](ctx, c, CacheKey("ProductStatements", portfolioProductID), fmt.Sprintf(pathStatements, portfolioProductID))
}
