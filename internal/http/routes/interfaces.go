package routes

import (
	"context"
	"time"

	"github.com/briangreenhill/trendscope/internal/cache"
)

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

// TrendSource serves the cached trending list
type TrendSource interface {
	GetOrRefresh(ctx context.Context, now time.Time) (cache.Result, error)
	Stats() cache.Stats
}

// Summarizer turns a repository description into a short summary using the
// caller's credential
type Summarizer interface {
	Summarize(ctx context.Context, apiKey, text string) (string, error)
}
