package routes

import (
	"net/http"

	"github.com/rs/zerolog/hlog"

	"github.com/briangreenhill/trendscope/internal/apperr"
	"github.com/briangreenhill/trendscope/internal/models"
)

// isoMillis matches the JavaScript toISOString layout the page expects
const isoMillis = "2006-01-02T15:04:05.000Z07:00"

type trendsResponse struct {
	Data      []models.RepositorySummary `json:"data"`
	Cached    bool                       `json:"cached"`
	CacheAge  *int64                     `json:"cacheAge,omitempty"`
	FetchedAt string                     `json:"fetchedAt,omitempty"`
}

func (s *Server) handleTrends(w http.ResponseWriter, r *http.Request) {
	res, err := s.Trends.GetOrRefresh(r.Context(), s.Now())
	if err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("fetching trends")
		writeJSON(w, r, http.StatusInternalServerError, errorBody{
			Error:   "Failed to fetch trends",
			Message: trendsFailure(err),
		})
		return
	}

	resp := trendsResponse{Data: res.Repos, Cached: res.Cached}
	if resp.Data == nil {
		resp.Data = []models.RepositorySummary{}
	}
	if res.Cached {
		age := res.AgeSeconds()
		resp.CacheAge = &age
	} else {
		resp.FetchedAt = res.FetchedAt.UTC().Format(isoMillis)
	}
	writeJSON(w, r, http.StatusOK, resp)
}

func (s *Server) handleTrendStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, s.Trends.Stats())
}

// trendsFailure keeps provider status codes and bodies out of the response
func trendsFailure(err error) string {
	if apperr.IsTimeout(err) {
		return "search provider timed out"
	}
	return "search provider request failed"
}
