// Package httpclient is the HTTP transport shared by the weather provider
// adapters. Each provider gets its own Client with a circuit breaker and a
// rate limiter in front of a resty client.
package httpclient

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/couchcryptid/historic-weather-service/internal/observability"
)

// DefaultTimeout bounds a single provider request.
const DefaultTimeout = 300 * time.Second

// errServerStatus marks 5xx responses so the breaker counts them as failures.
var errServerStatus = errors.New("server error status")

// Options tune the transport for one provider.
type Options struct {
	Timeout            time.Duration
	RateLimit          float64 // requests per second, 0 disables limiting
	RateBurst          int
	BreakerMaxFailures uint32
	BreakerOpenTimeout time.Duration
}

// Response is a completed HTTP exchange.
type Response struct {
	StatusCode int
	Status     string
	Body       []byte
}

// OK reports a 2xx status.
func (r *Response) OK() bool { return r.StatusCode >= 200 && r.StatusCode <= 299 }

// Client performs GET requests against one provider.
type Client struct {
	service string
	rest    *resty.Client
	breaker *gobreaker.CircuitBreaker
	limiter *rate.Limiter
	metrics *observability.Metrics
}

// New creates a provider client. apiLog and metrics may be nil.
func New(service string, opts Options, apiLog *observability.APILog, metrics *observability.Metrics, logger *slog.Logger) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.BreakerMaxFailures == 0 {
		opts.BreakerMaxFailures = 5
	}
	if opts.RateBurst <= 0 {
		opts.RateBurst = 1
	}

	limit := rate.Inf
	if opts.RateLimit > 0 {
		limit = rate.Limit(opts.RateLimit)
	}

	c := &Client{
		service: service,
		limiter: rate.NewLimiter(limit, opts.RateBurst),
		metrics: metrics,
	}

	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    service,
		Timeout: opts.BreakerOpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= opts.BreakerMaxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("provider circuit breaker state changed",
				"provider", name, "from", from.String(), "to", to.String())
			if metrics != nil {
				metrics.BreakerState.WithLabelValues(name).Set(float64(to))
			}
		},
	})

	c.rest = resty.New().
		SetTimeout(opts.Timeout).
		SetHeader("Accept", "application/json").
		OnBeforeRequest(func(_ *resty.Client, r *resty.Request) error {
			apiLog.Request(service, r.URL, r.QueryParam)
			return nil
		}).
		OnAfterResponse(func(_ *resty.Client, r *resty.Response) error {
			apiLog.Response(service, r.StatusCode(), r.Body(), r.Time())
			return nil
		}).
		OnError(func(r *resty.Request, err error) {
			apiLog.Error(service, r.URL, err, time.Since(r.Time))
		})

	return c
}

// Get issues a GET to rawURL with params. Non-2xx statuses are returned as a
// Response, not an error; the error covers transport failures, an open
// breaker and a cancelled rate limiter wait.
func (c *Client) Get(ctx context.Context, rawURL string, params url.Values) (*Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%s rate limiter: %w", c.service, err)
	}

	start := time.Now()
	var resp *Response
	_, err := c.breaker.Execute(func() (any, error) {
		r, err := c.rest.R().
			SetContext(ctx).
			SetQueryParamsFromValues(params).
			Get(rawURL)
		if err != nil {
			return nil, err
		}
		resp = &Response{StatusCode: r.StatusCode(), Status: r.Status(), Body: r.Body()}
		if r.StatusCode() >= http.StatusInternalServerError {
			return nil, errServerStatus
		}
		return nil, nil
	})
	c.observe(resp, time.Since(start))

	if errors.Is(err, errServerStatus) {
		return resp, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s request: %w", c.service, err)
	}
	return resp, nil
}

func (c *Client) observe(resp *Response, d time.Duration) {
	if c.metrics == nil {
		return
	}
	status := "error"
	if resp != nil {
		status = strconv.Itoa(resp.StatusCode/100) + "xx"
	}
	c.metrics.ProviderRequests.WithLabelValues(c.service, status).Inc()
	c.metrics.ProviderRequestDuration.WithLabelValues(c.service).Observe(d.Seconds())
}
