// Package github is a thin client for the GitHub repository search API.
package github

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/oauth2"

	"github.com/briangreenhill/trendscope/internal/apperr"
	"github.com/briangreenhill/trendscope/internal/models"
)

const (
	DefaultBaseURL = "https://api.github.com"
	DefaultTimeout = 10 * time.Second

	provider = "github"
	// cap on the error body we keep for logs
	maxErrorBody = 512
)

// Client is a thin wrapper around the GitHub REST search API.
type Client struct {
	http    *http.Client
	baseURL *url.URL
	token   string
	timeout time.Duration
}

type Option func(*Client)

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

func WithBaseURL(raw string) Option {
	return func(c *Client) {
		if u, err := url.Parse(raw); err == nil {
			c.baseURL = u
		}
	}
}

// WithToken authenticates requests, which raises the search rate limit.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

func New(opts ...Option) *Client {
	u, _ := url.Parse(DefaultBaseURL)
	c := &Client{
		http:    http.DefaultClient,
		baseURL: u,
		timeout: DefaultTimeout,
	}
	for _, o := range opts {
		o(c)
	}
	if c.token != "" {
		ctx := context.WithValue(context.Background(), oauth2.HTTPClient, c.http)
		c.http = oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: c.token}))
	}
	return c
}

// SearchRepositories runs one search request and returns the normalized results
// in provider order. The whole response is rejected if any record is malformed.
func (c *Client) SearchRepositories(ctx context.Context, q SearchQuery) ([]models.RepositorySummary, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	u := *c.baseURL
	u.Path = path.Join(u.Path, "/search/repositories")
	qq := u.Query()
	qq.Set("q", q.String())
	qq.Set("sort", "stars")
	qq.Set("order", "desc")
	qq.Set("per_page", strconv.Itoa(q.PerPage))
	u.RawQuery = qq.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github.v3+json")
	req.Header.Set("X-GitHub-Api-Version", "2022-11-28")

	zerolog.Ctx(ctx).Debug().Str("query", q.String()).Msg("searching repositories")

	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, &apperr.TimeoutError{Provider: provider, Err: err}
		}
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &apperr.UpstreamError{Provider: provider, StatusCode: resp.StatusCode, Body: string(b)}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, &apperr.TimeoutError{Provider: provider, Err: err}
		}
		return nil, fmt.Errorf("reading response: %w", err)
	}

	var sr searchResponse
	if err := json.Unmarshal(body, &sr); err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrMalformedPayload, err)
	}
	return sr.normalize()
}
