package github

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/briangreenhill/trendscope/internal/models"
)

// TrendingFetcher searches for popular repositories with recent activity.
// It satisfies the trend cache's fetcher contract.
type TrendingFetcher struct {
	Client   *Client
	Topic    string
	MinStars int
	Window   time.Duration // activity lookback, e.g. 7 days
	PerPage  int
}

// Query returns the search for the activity window ending at now
func (f *TrendingFetcher) Query(now time.Time) SearchQuery {
	return SearchQuery{
		Topic:       f.Topic,
		MinStars:    f.MinStars,
		PushedAfter: now.UTC().Add(-f.Window),
		PerPage:     f.PerPage,
	}
}

func (f *TrendingFetcher) Fetch(ctx context.Context, now time.Time) ([]models.RepositorySummary, error) {
	q := f.Query(now)
	zerolog.Ctx(ctx).Info().
		Str("pushed_after", q.PushedAfter.Format(time.DateOnly)).
		Msg("fetching trending repositories")
	return f.Client.SearchRepositories(ctx, q)
}
