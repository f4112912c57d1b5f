// Package remote is a client for a running craftree API server.
//
// [Client] mirrors the read side of the item database: item pages, the
// total count, search, and recipes. A Client is a [pipeline.Source], so the
// command line can lay out recipes served by another machine:
//
//	c, err := remote.NewClient("http://127.0.0.1:8080", nil, nil)
//	if err != nil {
//	    return err
//	}
//	rows, err := c.Recipe(ctx, 42)
//
// Responses are cached through a [cache.Cache] and transient failures are
// retried with [httputil.Retry].
//
// [pipeline.Source]: github.com/matzehuels/craftree/pkg/pipeline#Source
package remote

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/matzehuels/craftree/pkg/buildinfo"
	"github.com/matzehuels/craftree/pkg/cache"
	apperrors "github.com/matzehuels/craftree/pkg/errors"
	"github.com/matzehuels/craftree/pkg/httputil"
	"github.com/matzehuels/craftree/pkg/itemdb"
	"github.com/matzehuels/craftree/pkg/observability"
	"github.com/matzehuels/craftree/pkg/recipe"
)

const namespace = "api"

// Client talks to the craftree HTTP API.
type Client struct {
	http    *http.Client
	base    *url.URL
	cache   cache.Cache
	keyer   cache.Keyer
	ttl     time.Duration
	headers map[string]string
	// Refresh bypasses cached responses.
	Refresh bool
}

// NewClient returns a client for the server at baseURL. A nil cache
// disables response caching; headers are sent with every request.
func NewClient(baseURL string, c cache.Cache, headers map[string]string) (*Client, error) {
	if err := apperrors.ValidateURL(baseURL); err != nil {
		return nil, err
	}
	u, err := url.Parse(strings.TrimSuffix(baseURL, "/"))
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInvalidInput, err, "parse base url")
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	return &Client{
		http:    httputil.NewClient(),
		base:    u,
		cache:   c,
		keyer:   cache.NewScopedKeyer(nil, u.Host+":"),
		ttl:     cache.TTLHTTP,
		headers: headers,
	}, nil
}

// Items returns up to one page of items with ids greater than after.
func (c *Client) Items(ctx context.Context, after int) ([]itemdb.Entry, error) {
	var out []itemdb.Entry
	if err := c.get(ctx, "/api/items", url.Values{"after": {strconv.Itoa(after)}}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Total returns the number of items known to the server.
func (c *Client) Total(ctx context.Context) (int, error) {
	var out struct{ Total int }
	if err := c.get(ctx, "/api/items/total", nil, &out); err != nil {
		return 0, err
	}
	return out.Total, nil
}

// Search returns items whose text contains query.
func (c *Client) Search(ctx context.Context, query string) ([]itemdb.Entry, error) {
	if err := apperrors.ValidateItemQuery(query); err != nil {
		return nil, err
	}
	var out []itemdb.Entry
	if err := c.get(ctx, "/api/items/search", url.Values{"query": {query}}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Recipe returns the recipe rows of item.
func (c *Client) Recipe(ctx context.Context, item int) ([]recipe.Row, error) {
	if err := apperrors.ValidateItemID(item); err != nil {
		return nil, err
	}
	data, err := c.fetch(ctx, "/api/recipe/"+strconv.Itoa(item), nil)
	if err != nil {
		return nil, err
	}
	return recipe.ReadRows(bytes.NewReader(data))
}

func (c *Client) get(ctx context.Context, path string, q url.Values, v any) error {
	data, err := c.fetch(ctx, path, q)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return apperrors.Wrap(apperrors.ErrCodeInvalidFormat, err, "decode %s", path)
	}
	return nil
}

// fetch returns the body of a GET request, from the cache when possible.
func (c *Client) fetch(ctx context.Context, path string, q url.Values) ([]byte, error) {
	u := *c.base
	u.Path += path
	u.RawQuery = q.Encode()
	key := c.keyer.HTTPKey(namespace, u.RequestURI())

	if !c.Refresh {
		if data, ok, err := c.cache.Get(ctx, key); err == nil && ok {
			return data, nil
		}
	}

	var body []byte
	err := httputil.RetryWithBackoff(ctx, func() error {
		var err error
		body, err = c.do(ctx, u.String(), path)
		return err
	})
	if err != nil {
		return nil, err
	}
	_ = c.cache.Set(ctx, key, body, c.ttl)
	return body, nil
}

func (c *Client) do(ctx context.Context, rawURL, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", buildinfo.UserAgent())
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	hooks := observability.HTTP()
	host := c.base.Host
	hooks.OnRequest(ctx, http.MethodGet, host, path)
	start := time.Now()

	resp, err := c.http.Do(req)
	if err != nil {
		hooks.OnError(ctx, http.MethodGet, host, path, err)
		return nil, &httputil.RetryableError{Err: apperrors.Wrap(apperrors.ErrCodeNetwork, err, "GET %s", path)}
	}
	defer resp.Body.Close()
	hooks.OnResponse(ctx, http.MethodGet, host, path, resp.StatusCode, time.Since(start))

	if err := httputil.CheckStatus(resp.StatusCode); err != nil {
		return nil, fmt.Errorf("GET %s: %w", path, err)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &httputil.RetryableError{Err: apperrors.Wrap(apperrors.ErrCodeNetwork, err, "read %s", path)}
	}
	return data, nil
}
