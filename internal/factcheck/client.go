package factcheck

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/ppiankov/truthcore/internal/metrics"
	"github.com/ppiankov/truthcore/internal/model"
	"github.com/ppiankov/truthcore/internal/util"
	"github.com/sony/gobreaker"
)

const searchPath = "/v1alpha1/claims:search"

var (
	// ErrMissingAPIKey is returned when a client is built without a credential
	ErrMissingAPIKey = errors.New("fact-check API key is required")

	// ErrEmptyQuery is returned for blank search text
	ErrEmptyQuery = errors.New("empty query")

	// ErrMalformedResponse wraps bodies that do not decode as a search response
	ErrMalformedResponse = errors.New("malformed fact-check response")
)

// StatusError is returned for non-2xx responses
type StatusError struct {
	Code   int
	Status string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status: %d %s", e.Code, e.Status)
}

// RateLimiter waits for clearance before a request to rawURL
type RateLimiter interface {
	Wait(ctx context.Context, rawURL string) error
}

// Options configures a Client
type Options struct {
	BaseURL      string
	LanguageCode string
	PageSize     int
	UserAgent    string
	Timeout      time.Duration // per HTTP attempt
	MaxBodyBytes int64

	// Retry settings
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration

	// Circuit breaker settings; zero failures disables the breaker
	BreakerMaxFailures uint32
	BreakerTimeout     time.Duration

	HTTPProxy  string
	HTTPSProxy string

	Limiter RateLimiter
	Logger  *slog.Logger
}

// OptionsFromConfig builds client options from the application config
func OptionsFromConfig(cfg *model.Config) Options {
	return Options{
		BaseURL:            cfg.FactCheck.BaseURL,
		LanguageCode:       cfg.FactCheck.LanguageCode,
		PageSize:           cfg.FactCheck.PageSize,
		UserAgent:          cfg.HTTP.UserAgent,
		Timeout:            cfg.FactCheck.Timeout,
		MaxBodyBytes:       cfg.FactCheck.MaxBodyBytes,
		MaxRetries:         cfg.FactCheck.MaxRetries,
		InitialBackoff:     cfg.FactCheck.InitialBackoff,
		MaxBackoff:         cfg.FactCheck.MaxBackoff,
		BreakerMaxFailures: cfg.FactCheck.BreakerMaxFailures,
		BreakerTimeout:     cfg.FactCheck.BreakerTimeout,
		HTTPProxy:          cfg.HTTP.HTTPProxy,
		HTTPSProxy:         cfg.HTTP.HTTPSProxy,
	}
}

// Client queries the Google Fact Check Tools claim-search API
type Client struct {
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
	limiter    RateLimiter
	logger     *slog.Logger

	baseURL      string
	apiKey       string
	languageCode string
	pageSize     int
	userAgent    string
	maxBodyBytes int64

	maxRetries     int
	initialBackoff time.Duration
	maxBackoff     time.Duration
}

// NewClient creates a client. The API key is passed explicitly and never read
// from the environment here.
func NewClient(apiKey string, opts Options) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, ErrMissingAPIKey
	}

	defaults := model.DefaultConfig()
	if opts.BaseURL == "" {
		opts.BaseURL = defaults.FactCheck.BaseURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaults.FactCheck.Timeout
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = defaults.FactCheck.MaxBodyBytes
	}
	if opts.UserAgent == "" {
		opts.UserAgent = defaults.HTTP.UserAgent
	}
	if opts.InitialBackoff <= 0 {
		opts.InitialBackoff = defaults.FactCheck.InitialBackoff
	}
	if opts.MaxBackoff < opts.InitialBackoff {
		opts.MaxBackoff = opts.InitialBackoff
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	c := &Client{
		httpClient: &http.Client{
			Timeout: opts.Timeout,
			Transport: &http.Transport{
				Proxy: util.NewProxyFunc(opts.HTTPProxy, opts.HTTPSProxy, ""),
			},
		},
		limiter:        opts.Limiter,
		logger:         opts.Logger,
		baseURL:        strings.TrimRight(opts.BaseURL, "/"),
		apiKey:         apiKey,
		languageCode:   opts.LanguageCode,
		pageSize:       opts.PageSize,
		userAgent:      opts.UserAgent,
		maxBodyBytes:   opts.MaxBodyBytes,
		maxRetries:     opts.MaxRetries,
		initialBackoff: opts.InitialBackoff,
		maxBackoff:     opts.MaxBackoff,
	}

	if opts.BreakerMaxFailures > 0 {
		logger := opts.Logger
		c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "factcheck-api",
			MaxRequests: 1,
			Interval:    0, // Don't reset counts automatically
			Timeout:     opts.BreakerTimeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= opts.BreakerMaxFailures
			},
			OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
				logger.Warn("circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
				if to == gobreaker.StateOpen {
					metrics.RecordError("circuit_open")
				}
			},
		})
	}

	return c, nil
}

// BreakerState reports the circuit breaker state (closed when disabled)
func (c *Client) BreakerState() gobreaker.State {
	if c.breaker == nil {
		return gobreaker.StateClosed
	}
	return c.breaker.State()
}

// Search returns the claim records matching query
func (c *Client) Search(ctx context.Context, query string) ([]Claim, error) {
	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyQuery
	}

	endpoint := c.searchURL(query)

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx, endpoint); err != nil {
			return nil, fmt.Errorf("rate limit: %w", err)
		}
	}

	if c.breaker == nil {
		return c.searchWithRetry(ctx, endpoint)
	}

	result, err := c.breaker.Execute(func() (interface{}, error) {
		return c.searchWithRetry(ctx, endpoint)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			metrics.RecordError("circuit_open")
			return nil, fmt.Errorf("circuit breaker is open: %w", err)
		}
		return nil, err
	}

	return result.([]Claim), nil
}

// searchWithRetry retries transient failures with exponential backoff
func (c *Client) searchWithRetry(ctx context.Context, endpoint string) ([]Claim, error) {
	if c.maxRetries <= 0 {
		return c.doSearch(ctx, endpoint)
	}

	expBackoff := backoff.NewExponentialBackOff()
	expBackoff.InitialInterval = c.initialBackoff
	expBackoff.MaxInterval = c.maxBackoff
	expBackoff.Multiplier = 2.0
	expBackoff.MaxElapsedTime = 0 // bounded by retries and ctx

	retryBackoff := backoff.WithContext(backoff.WithMaxRetries(expBackoff, uint64(c.maxRetries)), ctx)

	var claims []Claim
	operation := func() error {
		var err error
		claims, err = c.doSearch(ctx, endpoint)
		if err == nil {
			return nil
		}
		if isRetryable(err) {
			c.logger.Debug("fact-check lookup failed, retrying", "error", err)
			return err
		}
		return backoff.Permanent(err)
	}

	if err := backoff.Retry(operation, retryBackoff); err != nil {
		return nil, err
	}
	return claims, nil
}

// doSearch performs a single HTTP attempt
func (c *Client) doSearch(ctx context.Context, endpoint string) ([]Claim, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", c.redact(err))
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if isTimeout(err) {
			metrics.RecordError("timeout")
		} else {
			metrics.RecordError("connection")
		}
		return nil, fmt.Errorf("fetch: %w", c.redact(err))
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		recordErrorFromStatus(resp.StatusCode)
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, &StatusError{Code: resp.StatusCode, Status: http.StatusText(resp.StatusCode)}
	}

	var payload searchResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, c.maxBodyBytes)).Decode(&payload); err != nil {
		metrics.RecordError("parse")
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	return payload.Claims, nil
}

// searchURL builds the request URL; the claim text is URL-encoded
func (c *Client) searchURL(query string) string {
	params := url.Values{}
	params.Set("query", query)
	params.Set("key", c.apiKey)
	if c.languageCode != "" {
		params.Set("languageCode", c.languageCode)
	}
	if c.pageSize > 0 {
		params.Set("pageSize", strconv.Itoa(c.pageSize))
	}
	return c.baseURL + searchPath + "?" + params.Encode()
}

// redact removes the API key from URLs embedded in transport errors
func (c *Client) redact(err error) error {
	var uerr *url.Error
	if errors.As(err, &uerr) {
		uerr.URL = strings.ReplaceAll(uerr.URL, url.QueryEscape(c.apiKey), "REDACTED")
	}
	return err
}

// isRetryable reports whether err is a transient failure
func isRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, ErrMalformedResponse) {
		return false
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Code == http.StatusTooManyRequests || statusErr.Code >= 500
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	s := strings.ToLower(err.Error())
	return strings.Contains(s, "connection refused") ||
		strings.Contains(s, "connection reset") ||
		strings.Contains(s, "eof")
}

func isTimeout(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded)
}

// recordErrorFromStatus records the error metric matching an HTTP status
func recordErrorFromStatus(code int) {
	switch {
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		metrics.RecordError("auth")
	case code == http.StatusTooManyRequests:
		metrics.RecordError("rate_limit")
	case code == http.StatusRequestTimeout:
		metrics.RecordError("timeout")
	case code >= 500:
		metrics.RecordError("server_error")
	default:
		metrics.RecordError("http_error")
	}
}
