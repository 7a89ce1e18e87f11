// Package llm talks to an OpenAI-compatible chat completion endpoint to
// produce short repository summaries.
package llm

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"

	"github.com/briangreenhill/trendscope/internal/apperr"
)

const (
	DefaultBaseURL = "https://api.groq.com/openai/v1"
	DefaultModel   = "llama-3.3-70b-versatile"
	DefaultTimeout = 30 * time.Second

	provider = "llm"

	temperature = 0.5
	maxTokens   = 150
)

// SystemPrompt frames every summarization request
const SystemPrompt = `You are a helpful assistant that summarizes GitHub repository descriptions. Provide a clear, concise 3-line summary that highlights the key features and purpose.`

// UserPrompt returns the user message for text
func UserPrompt(text string) string {
	return "Summarize this repository description in exactly 3 lines:\n\n" + text
}

// Summarizer holds provider settings. The credential is supplied per call
// and never stored.
type Summarizer struct {
	baseURL string
	model   string
	http    *http.Client
	timeout time.Duration
}

type Option func(*Summarizer)

func WithHTTPClient(h *http.Client) Option { return func(s *Summarizer) { s.http = h } }
func WithTimeout(d time.Duration) Option   { return func(s *Summarizer) { s.timeout = d } }

func NewSummarizer(baseURL, model string, opts ...Option) *Summarizer {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if model == "" {
		model = DefaultModel
	}
	s := &Summarizer{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		model:   model,
		http:    &http.Client{},
		timeout: DefaultTimeout,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Model returns the configured model name
func (s *Summarizer) Model() string { return s.model }

// Summarize asks the provider for a three line summary of text using apiKey.
func (s *Summarizer) Summarize(ctx context.Context, apiKey, text string) (string, error) {
	if strings.TrimSpace(text) == "" || strings.TrimSpace(apiKey) == "" {
		return "", &apperr.ValidationError{Message: "Missing text or API key"}
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = s.baseURL
	cfg.HTTPClient = s.http
	client := openai.NewClientWithConfig(cfg)

	start := time.Now()
	resp, err := client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: s.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: SystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: UserPrompt(text)},
		},
		Temperature: temperature,
		MaxTokens:   maxTokens,
	})
	if err != nil {
		mapped := mapError(ctx, err)
		zerolog.Ctx(ctx).Error().Err(err).Str("model", s.model).Msg("summarization request failed")
		return "", mapped
	}

	if len(resp.Choices) == 0 {
		return "", apperr.ErrNoSummary
	}
	summary := strings.TrimSpace(resp.Choices[0].Message.Content)
	if summary == "" {
		return "", apperr.ErrNoSummary
	}

	zerolog.Ctx(ctx).Debug().
		Str("model", s.model).
		Dur("took", time.Since(start)).
		Int("tokens", resp.Usage.TotalTokens).
		Msg("summary generated")
	return summary, nil
}

func mapError(ctx context.Context, err error) error {
	var (
		apiErr *openai.APIError
		reqErr *openai.RequestError
		netErr net.Error
	)
	switch {
	case errors.As(err, &apiErr):
		return statusError(apiErr.HTTPStatusCode, apiErr.Message)
	case errors.As(err, &reqErr):
		return statusError(reqErr.HTTPStatusCode, string(reqErr.Body))
	case errors.Is(err, context.DeadlineExceeded),
		errors.Is(ctx.Err(), context.DeadlineExceeded),
		errors.As(err, &netErr) && netErr.Timeout():
		return &apperr.TimeoutError{Provider: provider, Err: err}
	default:
		return err
	}
}

func statusError(code int, body string) error {
	if code == http.StatusUnauthorized {
		return &apperr.AuthError{Provider: provider}
	}
	if len(body) > 512 {
		body = body[:512]
	}
	return &apperr.UpstreamError{Provider: provider, StatusCode: code, Body: body}
}
