package httpclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/GriffinCanCode/appsync/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/appsync/internal/infrastructure/resilience"
	"github.com/GriffinCanCode/appsync/internal/shared/id"
)

const (
	// RequestIDHeader carries the client-generated request ID
	RequestIDHeader = "X-Request-ID"
	// CSRFHeader echoes the session's CSRF cookie on unsafe methods
	CSRFHeader = "X-CSRFToken"

	csrfCookie = "csrftoken"
)

// Client wraps resty with rate limiting and a circuit breaker
type Client struct {
	Resty   *resty.Client
	Limiter *rate.Limiter
	Breaker *resilience.Breaker
	Mu      sync.RWMutex

	baseURL string
	base    *url.URL
	logger  *zap.Logger
	metrics *monitoring.Metrics
}

// Options configures a Client
type Options struct {
	BaseURL      string
	Timeout      time.Duration
	RetryMax     int
	RetryWaitMin time.Duration
	RetryWaitMax time.Duration
	RateLimitRPS float64
	Token        string
	UserAgent    string
	Logger       *zap.Logger
	Metrics      *monitoring.Metrics
}

// DefaultOptions returns the settings used when nothing is configured
func DefaultOptions() Options {
	return Options{
		BaseURL:      "http://localhost:8000",
		Timeout:      30 * time.Second,
		RetryMax:     3,
		RetryWaitMin: 1 * time.Second,
		RetryWaitMax: 30 * time.Second,
		UserAgent:    "appsync/1.0",
	}
}

// NewClient creates the sync transport
func NewClient(opts Options) *Client {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	// retryablehttp supplies the pooled transport and the retry/backoff policy
	retryClient := retryablehttp.NewClient()
	retryClient.Logger = nil

	minWait, maxWait := opts.RetryWaitMin, opts.RetryWaitMax
	restyClient := resty.New()
	restyClient.
		SetBaseURL(strings.TrimRight(opts.BaseURL, "/")).
		SetTimeout(opts.Timeout).
		SetRetryCount(opts.RetryMax).
		SetRetryWaitTime(minWait).
		SetRetryMaxWaitTime(maxWait).
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", opts.UserAgent).
		SetLogger(logger.Sugar()).
		AddRetryCondition(func(resp *resty.Response, err error) bool {
			ctx := context.Background()
			var raw *http.Response
			if resp != nil {
				raw = resp.RawResponse
				if resp.Request != nil {
					ctx = resp.Request.Context()
				}
			}
			retry, _ := retryablehttp.DefaultRetryPolicy(ctx, raw, err)
			return retry
		}).
		SetRetryAfter(func(_ *resty.Client, resp *resty.Response) (time.Duration, error) {
			if resp == nil || resp.Request == nil {
				return minWait, nil
			}
			return retryablehttp.DefaultBackoff(minWait, maxWait, resp.Request.Attempt-1, resp.RawResponse), nil
		})

	restyClient.SetTransport(retryClient.HTTPClient.Transport)

	c := &Client{
		Resty:   restyClient,
		Limiter: rate.NewLimiter(rate.Inf, 0),
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		logger:  logger,
		metrics: opts.Metrics,
	}
	if base, err := url.Parse(c.baseURL); err == nil {
		c.base = base
	}
	c.SetRateLimit(opts.RateLimitRPS)
	if opts.Token != "" {
		c.SetBearerAuth(opts.Token)
	}

	c.Breaker = resilience.New("app-endpoint", resilience.Settings{
		MaxRequests: 3,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts resilience.Counts) bool {
			return counts.ConsecutiveFailures >= 5 ||
				(counts.Requests >= 20 && float64(counts.TotalFailures)/float64(counts.Requests) > 0.5)
		},
		IsFailure: isBreakerFailure,
		OnStateChange: func(name string, from, to resilience.State) {
			logger.Warn("Circuit breaker state changed",
				zap.String("breaker", name),
				zap.Stringer("from", from),
				zap.Stringer("to", to),
			)
			c.metrics.SetBreakerState(int(to))
		},
	})

	return c
}

// SetRateLimit configures rate limiting (requests per second, 0 = unlimited)
func (c *Client) SetRateLimit(rps float64) {
	c.Mu.Lock()
	defer c.Mu.Unlock()
	if rps <= 0 {
		c.Limiter = rate.NewLimiter(rate.Inf, 0)
		return
	}
	burst := int(rps)
	if burst < 1 {
		burst = 1
	}
	c.Limiter = rate.NewLimiter(rate.Limit(rps), burst)
}

// SetBearerAuth configures bearer token authentication
func (c *Client) SetBearerAuth(token string) {
	c.Mu.Lock()
	defer c.Mu.Unlock()
	c.Resty.SetAuthToken(token)
}

// SetBasicAuth configures basic authentication
func (c *Client) SetBasicAuth(username, password string) {
	c.Mu.Lock()
	defer c.Mu.Unlock()
	c.Resty.SetBasicAuth(username, password)
}

// Request creates new request with rate limiting and circuit breaker protection
func (c *Client) Request(ctx context.Context) (*resty.Request, error) {
	if c.Breaker.State() == resilience.StateOpen {
		return nil, resilience.ErrCircuitOpen
	}

	c.Mu.RLock()
	limiter := c.Limiter
	c.Mu.RUnlock()

	if err := limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit error: %w", err)
	}

	c.Mu.RLock()
	defer c.Mu.RUnlock()
	return c.Resty.R().SetContext(ctx), nil
}

// Sync sends one request to path and returns the raw response body.
// body, when non-nil, is encoded as JSON.
func (c *Client) Sync(ctx context.Context, method, path string, body any) ([]byte, error) {
	req, err := c.Request(ctx)
	if err != nil {
		c.metrics.RecordSync(method, statusLabel(nil, err), 0)
		return nil, err
	}

	target := c.baseURL + path
	reqID := id.NewRequestID()
	req.SetHeader(RequestIDHeader, reqID.String())
	req.SetHeader("Referer", target)
	if method != http.MethodGet && method != http.MethodHead {
		if token := c.csrfToken(); token != "" {
			req.SetHeader(CSRFHeader, token)
		}
	}

	if body != nil {
		payload, err := sonic.ConfigStd.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode %s body: %w", method, err)
		}
		req.SetHeader("Content-Type", "application/json").SetBody(payload)
	}

	c.logger.Debug(method+" "+target, zap.String("request_id", reqID.String()))

	timer := monitoring.NewTimer(c.metrics, method)
	resp, err := resilience.Do(c.Breaker, func() (*resty.Response, error) {
		resp, err := req.Execute(method, path)
		if err != nil {
			return resp, fmt.Errorf("%s %s: %w", method, target, err)
		}
		return resp, checkResponse(method, target, resp)
	})
	elapsed := timer.Stop(statusLabel(resp, err))

	if err != nil {
		if errors.Is(err, resilience.ErrCircuitOpen) || errors.Is(err, resilience.ErrTooManyRequests) {
			err = fmt.Errorf("app endpoint unavailable: %w", err)
		}
		c.logger.Debug("Sync request failed",
			zap.String("request_id", reqID.String()),
			zap.Duration("elapsed", elapsed),
			zap.Uint32("consecutive_failures", c.BreakerCounts().ConsecutiveFailures),
			zap.Error(err),
		)
		return nil, err
	}

	return resp.Body(), nil
}

// BreakerState returns the current circuit breaker state
func (c *Client) BreakerState() resilience.State {
	return c.Breaker.State()
}

// BreakerCounts returns circuit breaker statistics
func (c *Client) BreakerCounts() resilience.Counts {
	return c.Breaker.Counts()
}

// csrfToken returns the CSRF cookie the API set on this session, or ""
func (c *Client) csrfToken() string {
	if c.base == nil {
		return ""
	}
	c.Mu.RLock()
	jar := c.Resty.GetClient().Jar
	c.Mu.RUnlock()
	if jar == nil {
		return ""
	}
	for _, cookie := range jar.Cookies(c.base) {
		if cookie.Name == csrfCookie {
			return cookie.Value
		}
	}
	return ""
}

// isBreakerFailure counts transport errors and server-side failures only
func isBreakerFailure(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	var reqErr *RequestError
	if errors.As(err, &reqErr) {
		return reqErr.Temporary()
	}
	return true
}

func statusLabel(resp *resty.Response, err error) string {
	switch {
	case errors.Is(err, resilience.ErrCircuitOpen), errors.Is(err, resilience.ErrTooManyRequests):
		return "circuit_open"
	case resp != nil && resp.StatusCode() != 0:
		return strconv.Itoa(resp.StatusCode())
	case err != nil:
		return "error"
	default:
		return "ok"
	}
}
