package integrations

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/lockgraph/lockgraph/pkg/cache"
	"github.com/lockgraph/lockgraph/pkg/observability"
)

// Client provides shared HTTP functionality for remote API clients.
// It applies default headers and reports every request to the
// observability HTTP hooks.
type Client struct {
	http *resty.Client
	base *url.URL
}

// NewClient creates a Client rooted at baseURL with the given default headers.
// Relative request paths resolve against baseURL; absolute URLs are used as-is.
// Pass nil for headers if no default headers are needed.
func NewClient(baseURL string, headers map[string]string) *Client {
	r := resty.New().SetTimeout(httpTimeout)
	if len(headers) > 0 {
		r.SetHeaders(headers)
	}
	c := &Client{http: r}
	if baseURL != "" {
		r.SetBaseURL(baseURL)
		c.base, _ = url.Parse(baseURL)
	}
	return c
}

// SetAuthToken sends token as a bearer credential on every request.
func (c *Client) SetAuthToken(token string) {
	if token != "" {
		c.http.SetAuthToken(token)
	}
}

// Cached returns the value stored under key, or calls fetch and stores its
// result for ttl. If refresh is true the cache is bypassed for reading.
func (c *Client) Cached(ctx context.Context, store cache.Cache, key string, ttl time.Duration, refresh bool, fetch func() ([]byte, error)) ([]byte, error) {
	hooks := observability.Cache()
	if store == nil {
		store = cache.NewNullCache()
	}
	if !refresh {
		if data, ok, _ := store.Get(ctx, key); ok {
			hooks.OnCacheHit(ctx, key)
			return data, nil
		}
		hooks.OnCacheMiss(ctx, key)
	}
	data, err := fetch()
	if err != nil {
		return nil, err
	}
	if err := store.Set(ctx, key, data, ttl); err == nil {
		hooks.OnCacheSet(ctx, key, len(data))
	}
	return data, nil
}

// Get performs an HTTP GET and returns the body of a 200 response.
// Any other status yields a [*StatusError]; transport failures wrap
// [ErrNetwork].
func (c *Client) Get(ctx context.Context, target string) ([]byte, error) {
	resp, err := c.do(ctx, target)
	if err != nil {
		return nil, err
	}
	if err := checkStatus(resp.StatusCode()); err != nil {
		return nil, err
	}
	return resp.Body(), nil
}

// GetJSON performs an HTTP GET and JSON-decodes a 200 response into v.
func (c *Client) GetJSON(ctx context.Context, target string, v any) error {
	body, err := c.Get(ctx, target)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("decode %s: %w", target, err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, target string) (*resty.Response, error) {
	hooks := observability.HTTP()
	host, path := c.split(target)
	hooks.OnRequest(ctx, http.MethodGet, host, path)

	resp, err := c.http.R().SetContext(ctx).Get(target)
	if err != nil {
		hooks.OnError(ctx, http.MethodGet, host, path, err)
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	hooks.OnResponse(ctx, http.MethodGet, host, path, resp.StatusCode(), resp.Time())
	return resp, nil
}

func (c *Client) split(target string) (host, path string) {
	u, err := url.Parse(target)
	if err != nil {
		return "", target
	}
	if u.Host == "" && c.base != nil {
		u = c.base.ResolveReference(u)
	}
	return u.Host, u.Path
}

// StatusError reports a non-200 reply. It unwraps to [ErrNotFound] for a 404
// and to [ErrNetwork] otherwise.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%v: status %d", e.Unwrap(), e.Code)
}

func (e *StatusError) Unwrap() error {
	if e.Code == http.StatusNotFound {
		return ErrNotFound
	}
	return ErrNetwork
}

func checkStatus(code int) error {
	if code == http.StatusOK {
		return nil
	}
	return &StatusError{Code: code}
}
