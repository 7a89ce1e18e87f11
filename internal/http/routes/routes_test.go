package routes

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/briangreenhill/trendscope/internal/apperr"
	"github.com/briangreenhill/trendscope/internal/cache"
	"github.com/briangreenhill/trendscope/internal/github"
	appmw "github.com/briangreenhill/trendscope/internal/http/middleware"
	"github.com/briangreenhill/trendscope/internal/http/routes/mocks"
	"github.com/briangreenhill/trendscope/internal/models"
	"github.com/briangreenhill/trendscope/web"
)

var now = time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)

func newTestServer(t *testing.T, trends TrendSource, sum Summarizer) *Server {
	t.Helper()
	tmpl, err := web.Templates()
	require.NoError(t, err)
	return New(ServerOptions{
		Logger:     zerolog.Nop(),
		Trends:     trends,
		Summarizer: sum,
		Tmpl:       tmpl,
		Now:        func() time.Time { return now },
	})
}

func do(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &m), rec.Body.String())
	return m
}

func sampleRepos() []models.RepositorySummary {
	desc := "LLM toolkit"
	return []models.RepositorySummary{
		{ID: 1, Name: "alpha", FullName: "o/alpha", Description: &desc, Stars: 900, URL: "https://github.com/o/alpha", CreatedAt: now.Add(-48 * time.Hour), Owner: models.Owner{Login: "o"}},
		{ID: 2, Name: "beta", FullName: "o/beta", Stars: 500, URL: "https://github.com/o/beta", CreatedAt: now.Add(-24 * time.Hour), Owner: models.Owner{Login: "o"}},
	}
}

func TestHealthzAndRequestID(t *testing.T) {
	s := newTestServer(t, nil, nil)
	rec := do(t, s, http.MethodGet, "/healthz", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get(appmw.RequestIDHeader))
}

func TestHome(t *testing.T) {
	s := newTestServer(t, nil, nil)
	rec := do(t, s, http.MethodGet, "/", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "AI Trends")
}

func TestHandleTrends(t *testing.T) {
	testCases := []struct {
		name       string
		result     cache.Result
		err        error
		wantStatus int
		check      func(t *testing.T, body map[string]any, raw string)
	}{
		{
			name:       "fresh_fetch",
			result:     cache.Result{Repos: sampleRepos(), Cached: false, FetchedAt: now},
			wantStatus: http.StatusOK,
			check: func(t *testing.T, body map[string]any, raw string) {
				assert.Equal(t, false, body["cached"])
				assert.Equal(t, "2026-10-15T12:00:00.000Z", body["fetchedAt"])
				assert.NotContains(t, body, "cacheAge")
				data := body["data"].([]any)
				require.Len(t, data, 2)
				first := data[0].(map[string]any)
				assert.Equal(t, "alpha", first["name"])
				assert.Equal(t, "o/alpha", first["fullName"])
				second := data[1].(map[string]any)
				assert.Nil(t, second["description"])
				assert.Contains(t, second, "language")
			},
		},
		{
			name:       "cache_hit",
			result:     cache.Result{Repos: sampleRepos(), Cached: true, Age: 90*time.Second + 700*time.Millisecond, FetchedAt: now.Add(-90 * time.Second)},
			wantStatus: http.StatusOK,
			check: func(t *testing.T, body map[string]any, raw string) {
				assert.Equal(t, true, body["cached"])
				assert.Equal(t, float64(90), body["cacheAge"])
				assert.NotContains(t, body, "fetchedAt")
			},
		},
		{
			name:       "cache_hit_age_zero",
			result:     cache.Result{Repos: sampleRepos(), Cached: true, FetchedAt: now},
			wantStatus: http.StatusOK,
			check: func(t *testing.T, body map[string]any, raw string) {
				assert.Equal(t, float64(0), body["cacheAge"])
			},
		},
		{
			name:       "empty_list",
			result:     cache.Result{FetchedAt: now},
			wantStatus: http.StatusOK,
			check: func(t *testing.T, body map[string]any, raw string) {
				assert.Contains(t, raw, `"data":[]`)
			},
		},
		{
			name:       "upstream_error_is_generic",
			err:        &apperr.UpstreamError{Provider: "github", StatusCode: 403, Body: "rate limit exceeded"},
			wantStatus: http.StatusInternalServerError,
			check: func(t *testing.T, body map[string]any, raw string) {
				assert.Equal(t, "Failed to fetch trends", body["error"])
				assert.Equal(t, "search provider request failed", body["message"])
				assert.NotContains(t, raw, "403")
				assert.NotContains(t, raw, "rate limit")
			},
		},
		{
			name:       "timeout",
			err:        &apperr.TimeoutError{Provider: "github", Err: context.DeadlineExceeded},
			wantStatus: http.StatusInternalServerError,
			check: func(t *testing.T, body map[string]any, raw string) {
				assert.Equal(t, "search provider timed out", body["message"])
			},
		},
		{
			name:       "malformed_payload",
			err:        fmt.Errorf("%w: missing items", apperr.ErrMalformedPayload),
			wantStatus: http.StatusInternalServerError,
			check: func(t *testing.T, body map[string]any, raw string) {
				assert.Equal(t, "Failed to fetch trends", body["error"])
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			src := mocks.NewMockTrendSource(ctrl)
			src.EXPECT().GetOrRefresh(gomock.Any(), now).Return(tc.result, tc.err).Times(1)

			rec := do(t, newTestServer(t, src, nil), http.MethodGet, "/api/trends", "")
			assert.Equal(t, tc.wantStatus, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
			tc.check(t, decode(t, rec), rec.Body.String())
		})
	}
}

func TestHandleTrendStats(t *testing.T) {
	ctrl := gomock.NewController(t)
	src := mocks.NewMockTrendSource(ctrl)
	src.EXPECT().Stats().Return(cache.Stats{Hits: 3, Misses: 1, Refreshes: 1, Entries: 20, LastRefreshAt: now})

	rec := do(t, newTestServer(t, src, nil), http.MethodGet, "/api/trends/stats", "")
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode(t, rec)
	assert.Equal(t, float64(3), body["hits"])
	assert.Equal(t, float64(20), body["entries"])
	assert.Equal(t, "2026-10-15T12:00:00Z", body["lastRefreshAt"])
}

func TestHandleSummarize(t *testing.T) {
	testCases := []struct {
		name        string
		body        string
		expectCall  bool
		mockSummary string
		mockErr     error
		wantStatus  int
		wantBody    map[string]any
	}{
		{
			name:        "success",
			body:        `{"text":"A vector database","apiKey":"sk-test"}`,
			expectCall:  true,
			mockSummary: "Line one\nLine two\nLine three",
			wantStatus:  http.StatusOK,
			wantBody:    map[string]any{"summary": "Line one\nLine two\nLine three"},
		},
		{
			name:       "missing_text",
			body:       `{"text":"","apiKey":"sk-test"}`,
			wantStatus: http.StatusBadRequest,
			wantBody:   map[string]any{"error": "Missing text or API key"},
		},
		{
			name:       "missing_api_key",
			body:       `{"text":"something"}`,
			wantStatus: http.StatusBadRequest,
			wantBody:   map[string]any{"error": "Missing text or API key"},
		},
		{
			name:       "malformed_json",
			body:       `{"text":`,
			wantStatus: http.StatusBadRequest,
			wantBody:   map[string]any{"error": "Invalid request body"},
		},
		{
			name:       "invalid_credential",
			body:       `{"text":"t","apiKey":"bad"}`,
			expectCall: true,
			mockErr:    &apperr.AuthError{Provider: "llm"},
			wantStatus: http.StatusUnauthorized,
			wantBody:   map[string]any{"error": "Invalid API key. Please check your API key in settings."},
		},
		{
			name:       "upstream_rate_limited",
			body:       `{"text":"t","apiKey":"sk-test"}`,
			expectCall: true,
			mockErr:    &apperr.UpstreamError{Provider: "llm", StatusCode: http.StatusTooManyRequests},
			wantStatus: http.StatusTooManyRequests,
			wantBody:   map[string]any{"error": "Failed to generate summary"},
		},
		{
			name:       "no_summary",
			body:       `{"text":"t","apiKey":"sk-test"}`,
			expectCall: true,
			mockErr:    apperr.ErrNoSummary,
			wantStatus: http.StatusInternalServerError,
			wantBody:   map[string]any{"error": "Failed to summarize", "message": "no summary generated"},
		},
		{
			name:       "timeout",
			body:       `{"text":"t","apiKey":"sk-test"}`,
			expectCall: true,
			mockErr:    &apperr.TimeoutError{Provider: "llm", Err: context.DeadlineExceeded},
			wantStatus: http.StatusGatewayTimeout,
			wantBody:   map[string]any{"error": "Failed to summarize", "message": "llm request timed out"},
		},
		{
			name:       "unexpected_error",
			body:       `{"text":"t","apiKey":"sk-test"}`,
			expectCall: true,
			mockErr:    errors.New("connection reset"),
			wantStatus: http.StatusInternalServerError,
			wantBody:   map[string]any{"error": "Failed to summarize", "message": "connection reset"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			sum := mocks.NewMockSummarizer(ctrl)
			if tc.expectCall {
				sum.EXPECT().
					Summarize(gomock.Any(), gomock.Any(), gomock.Any()).
					Return(tc.mockSummary, tc.mockErr).
					Times(1)
			}

			rec := do(t, newTestServer(t, nil, sum), http.MethodPost, "/api/summarize", tc.body)
			assert.Equal(t, tc.wantStatus, rec.Code)
			assert.Equal(t, tc.wantBody, decode(t, rec))
		})
	}
}

func TestHandleSummarizePassesCredential(t *testing.T) {
	ctrl := gomock.NewController(t)
	sum := mocks.NewMockSummarizer(ctrl)
	sum.EXPECT().Summarize(gomock.Any(), "sk-test", "A vector database").Return("ok", nil)

	rec := do(t, newTestServer(t, nil, sum), http.MethodPost, "/api/summarize", `{"text":"A vector database","apiKey":"sk-test"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHandleSummarizeBodyTooLarge(t *testing.T) {
	ctrl := gomock.NewController(t)
	sum := mocks.NewMockSummarizer(ctrl)

	big := `{"text":"` + strings.Repeat("a", maxSummarizeBody) + `","apiKey":"sk-test"}`
	rec := do(t, newTestServer(t, nil, sum), http.MethodPost, "/api/summarize", big)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

// End to end through the real cache and GitHub client
func TestTrendsThroughCache(t *testing.T) {
	var calls atomic.Int32
	var fail atomic.Bool
	gh := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if fail.Load() {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = fmt.Fprintf(w, `{"total_count":1,"items":[{"id":%d,"name":"repo","full_name":"o/repo","description":null,"stargazers_count":150,"forks_count":2,"language":null,"html_url":"https://github.com/o/repo","created_at":"2026-01-01T00:00:00Z","owner":{"login":"o","avatar_url":"https://a"}}]}`, calls.Load())
	}))
	t.Cleanup(gh.Close)

	tc := cache.New(&github.TrendingFetcher{
		Client:   github.New(github.WithBaseURL(gh.URL)),
		Topic:    "AI",
		MinStars: 100,
		Window:   7 * 24 * time.Hour,
		PerPage:  20,
	}, 10*time.Minute)

	clock := now
	s := New(ServerOptions{Logger: zerolog.Nop(), Trends: tc, Now: func() time.Time { return clock }})

	rec := do(t, s, http.MethodGet, "/api/trends", "")
	require.Equal(t, http.StatusOK, rec.Code)
	first := decode(t, rec)
	assert.Equal(t, false, first["cached"])

	clock = now.Add(5 * time.Minute)
	rec = do(t, s, http.MethodGet, "/api/trends", "")
	second := decode(t, rec)
	assert.Equal(t, true, second["cached"])
	assert.Equal(t, float64(300), second["cacheAge"])
	assert.Equal(t, first["data"], second["data"])
	assert.Equal(t, int32(1), calls.Load())

	// expired and upstream down: 500, previous entry kept
	fail.Store(true)
	clock = now.Add(10 * time.Minute)
	rec = do(t, s, http.MethodGet, "/api/trends", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, int32(2), calls.Load())
	e, ok := tc.Peek()
	require.True(t, ok)
	assert.Equal(t, now, e.FetchedAt)

	// upstream back: exactly one more fetch, new entry
	fail.Store(false)
	clock = now.Add(11 * time.Minute)
	rec = do(t, s, http.MethodGet, "/api/trends", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, false, decode(t, rec)["cached"])
	assert.Equal(t, int32(3), calls.Load())
}
