package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/zeromicro/go-zero/core/logx"
	"github.com/zeromicro/go-zero/core/syncx"

	"cryptolens-api/internal/cache"
)

const (
	defaultName           = "upstream"
	defaultAttemptTimeout = 7 * time.Second
	maxErrorBodyBytes     = 512
)

// Result is a payload served by the gateway. Payload is shared between
// callers and must be treated as read-only.
type Result struct {
	Payload  json.RawMessage
	StoredAt time.Time
	Cached   bool
	Attempts int
}

// Decode unmarshals the payload into v.
func (r Result) Decode(v any) error {
	return json.Unmarshal(r.Payload, v)
}

// Gateway issues cached, retried GETs against a single upstream API.
type Gateway struct {
	name         string
	baseURL      string
	httpClient   *http.Client
	apiKeyHeader string
	apiKey       string
	timeout      time.Duration
	maxAttempts  int
	backoff      Backoff
	sleep        Sleeper

	store  *cache.Store[json.RawMessage]
	flight syncx.SingleFlight
}

type flightResult struct {
	val any
	err error
}

// Option configures a Gateway.
type Option func(*Gateway)

// WithName sets the upstream name used in cache keys, logs and metrics.
func WithName(name string) Option {
	return func(g *Gateway) {
		if name = strings.TrimSpace(name); name != "" {
			g.name = name
		}
	}
}

// WithBaseURL sets the upstream root that request paths are appended to.
func WithBaseURL(u string) Option {
	return func(g *Gateway) {
		if u != "" {
			g.baseURL = strings.TrimRight(u, "/")
		}
	}
}

// WithHTTPClient injects a custom http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(g *Gateway) {
		if hc != nil {
			g.httpClient = hc
		}
	}
}

// WithAPIKey attaches value under header on every outbound request.
func WithAPIKey(header, value string) Option {
	return func(g *Gateway) {
		g.apiKeyHeader = strings.TrimSpace(header)
		g.apiKey = value
	}
}

// WithTimeout overrides the per-attempt timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(g *Gateway) {
		if timeout > 0 {
			g.timeout = timeout
		}
	}
}

// WithMaxAttempts sets the total attempt budget, first attempt included.
func WithMaxAttempts(n int) Option {
	return func(g *Gateway) {
		if n > 0 {
			g.maxAttempts = n
		}
	}
}

// WithBackoff overrides the delay schedule between attempts.
func WithBackoff(b Backoff) Option {
	return func(g *Gateway) {
		g.backoff = b.normalise()
	}
}

// WithSleeper replaces the delay function used between attempts.
func WithSleeper(s Sleeper) Option {
	return func(g *Gateway) {
		if s != nil {
			g.sleep = s
		}
	}
}

// New constructs a Gateway writing successful responses to store.
func New(store *cache.Store[json.RawMessage], opts ...Option) *Gateway {
	g := &Gateway{
		name:        defaultName,
		httpClient:  &http.Client{},
		timeout:     defaultAttemptTimeout,
		maxAttempts: defaultMaxAttempts,
		backoff:     DefaultBackoff(),
		sleep:       sleepContext,
		store:       store,
		flight:      syncx.NewSingleFlight(),
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.store == nil {
		g.store = cache.NewStore[json.RawMessage](cache.DefaultTTLSet())
	}
	return g
}

// Name returns the upstream name.
func (g *Gateway) Name() string {
	return g.name
}

// Store exposes the backing cache.
func (g *Gateway) Store() *cache.Store[json.RawMessage] {
	return g.store
}

// FetchCached is Execute under the name consumers know it by.
func (g *Gateway) FetchCached(ctx context.Context, path string, params url.Values, class cache.TTLClass) (Result, error) {
	return g.Execute(ctx, path, params, class)
}

// Execute serves path+params from cache when fresh, otherwise fetches it from
// the upstream with retries and writes the payload through to the cache.
// Concurrent misses on the same key share one upstream call.
func (g *Gateway) Execute(ctx context.Context, path string, params url.Values, class cache.TTLClass) (Result, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	key := cache.RequestKey(g.name, path, params)
	if res, ok := g.cached(key); ok {
		metricRequests.Inc(g.name, outcomeHit)
		return res, nil
	}

	// The shared fetch ignores caller cancellation; only the per-attempt
	// timeout bounds it. A caller whose ctx ends stops waiting on its own.
	flightCtx := context.WithoutCancel(ctx)
	done := make(chan flightResult, 1)
	go func() {
		val, err := g.flight.Do(key, func() (any, error) {
			if res, ok := g.cached(key); ok {
				return res, nil
			}
			payload, attempts, err := g.fetch(flightCtx, path, params)
			if err != nil {
				return nil, err
			}
			entry := g.store.Put(key, payload, class)
			return Result{Payload: entry.Value, StoredAt: entry.StoredAt, Attempts: attempts}, nil
		})
		done <- flightResult{val: val, err: err}
	}()

	var r flightResult
	select {
	case <-ctx.Done():
		metricRequests.Inc(g.name, outcomeError)
		return Result{}, ctx.Err()
	case r = <-done:
	}
	if r.err != nil {
		metricRequests.Inc(g.name, outcomeError)
		return Result{}, r.err
	}
	res := r.val.(Result)
	if res.Cached {
		metricRequests.Inc(g.name, outcomeHit)
	} else {
		metricRequests.Inc(g.name, outcomeFetched)
	}
	return res, nil
}

// ExecuteOrStale behaves like Execute but, when the upstream fails and an
// expired entry exists, returns that entry with stale=true alongside the error.
func (g *Gateway) ExecuteOrStale(ctx context.Context, path string, params url.Values, class cache.TTLClass) (Result, bool, error) {
	res, err := g.Execute(ctx, path, params, class)
	if err == nil {
		return res, false, nil
	}
	entry, ok := g.store.GetStale(cache.RequestKey(g.name, path, params))
	if !ok {
		return Result{}, false, err
	}
	logx.WithContext(ctx).Infof("gateway: %s %s serving stale payload stored_at=%s err=%v",
		g.name, path, entry.StoredAt.Format(time.RFC3339), err)
	return Result{Payload: entry.Value, StoredAt: entry.StoredAt, Cached: true}, true, err
}

func (g *Gateway) cached(key string) (Result, bool) {
	entry, ok := g.store.Entry(key)
	if !ok {
		return Result{}, false
	}
	return Result{Payload: entry.Value, StoredAt: entry.StoredAt, Cached: true}, true
}

func (g *Gateway) fetch(ctx context.Context, path string, params url.Values) (json.RawMessage, int, error) {
	endpoint := g.endpoint(path, params)
	var lastErr *GatewayError
	for attempt := 1; attempt <= g.maxAttempts; attempt++ {
		payload, gerr := g.attempt(ctx, endpoint, path)
		if gerr == nil {
			return payload, attempt, nil
		}
		gerr.Attempts = attempt
		if !gerr.Kind.Retryable() {
			logx.WithContext(ctx).Errorf("gateway: %s %s failed attempt=%d err=%v", g.name, path, attempt, gerr)
			return nil, attempt, gerr
		}
		lastErr = gerr
		if attempt == g.maxAttempts {
			break
		}

		delay := g.backoff.Delay(attempt)
		metricRetries.Inc(g.name, gerr.Kind.String())
		logx.WithContext(ctx).Infof("gateway: %s %s retrying in %s attempt=%d err=%v", g.name, path, delay, attempt, gerr)
		if err := g.sleep(ctx, delay); err != nil {
			gerr.Err = err
			return nil, attempt, gerr
		}
	}

	lastErr.Exhausted = true
	logx.WithContext(ctx).Errorf("gateway: %s %s giving up: %v", g.name, path, lastErr)
	return nil, lastErr.Attempts, lastErr
}

func (g *Gateway) attempt(ctx context.Context, endpoint, path string) (json.RawMessage, *GatewayError) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, g.newError(KindPermanent, path, 0, fmt.Errorf("build request: %w", err))
	}
	req.Header.Set("Accept", "application/json")
	if g.apiKeyHeader != "" && g.apiKey != "" {
		req.Header.Set(g.apiKeyHeader, g.apiKey)
	}

	start := time.Now()
	resp, err := g.httpClient.Do(req)
	metricUpstreamDur.Observe(time.Since(start).Milliseconds(), g.name)
	if err != nil {
		return nil, g.newError(KindNetwork, path, 0, err)
	}
	body, readErr := io.ReadAll(resp.Body)
	resp.Body.Close()
	if readErr != nil {
		return nil, g.newError(KindNetwork, path, resp.StatusCode, fmt.Errorf("read response: %w", readErr))
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		gerr := g.newError(classifyStatus(resp.StatusCode), path, resp.StatusCode, nil)
		gerr.Body = truncate(string(body), maxErrorBodyBytes)
		return nil, gerr
	}
	if !json.Valid(body) {
		return nil, g.newError(KindMalformed, path, resp.StatusCode, fmt.Errorf("response body is not valid JSON"))
	}
	return json.RawMessage(body), nil
}

func (g *Gateway) newError(kind ErrorKind, path string, status int, err error) *GatewayError {
	return &GatewayError{
		Kind:       kind,
		Upstream:   g.name,
		Path:       path,
		StatusCode: status,
		Err:        err,
	}
}

func (g *Gateway) endpoint(path string, params url.Values) string {
	u := g.baseURL + "/" + strings.TrimLeft(path, "/")
	if query := cache.CanonicalQuery(params); query != "" {
		u += "?" + query
	}
	return u
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
