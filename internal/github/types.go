package github

import (
	"fmt"
	"strings"
	"time"

	"github.com/briangreenhill/trendscope/internal/apperr"
	"github.com/briangreenhill/trendscope/internal/models"
)

// SearchQuery describes a trending search: repositories about Topic with more
// than MinStars stars that were pushed to after PushedAfter.
type SearchQuery struct {
	Topic       string
	MinStars    int
	PushedAfter time.Time
	PerPage     int
}

// String renders the GitHub search qualifier string
func (q SearchQuery) String() string {
	return fmt.Sprintf("%s stars:>%d pushed:>%s", q.Topic, q.MinStars, q.PushedAfter.UTC().Format(time.DateOnly))
}

// Matches the search API response; nullable fields are pointers
type searchResponse struct {
	TotalCount int           `json:"total_count"`
	Items      *[]repository `json:"items"`
}

type repository struct {
	ID              *int64     `json:"id"`
	Name            string     `json:"name"`
	FullName        string     `json:"full_name"`
	Description     *string    `json:"description"`
	StargazersCount int        `json:"stargazers_count"`
	ForksCount      int        `json:"forks_count"`
	Language        *string    `json:"language"`
	HTMLURL         string     `json:"html_url"`
	CreatedAt       *time.Time `json:"created_at"`
	Owner           *owner     `json:"owner"`
}

type owner struct {
	Login     string `json:"login"`
	AvatarURL string `json:"avatar_url"`
}

func (sr searchResponse) normalize() ([]models.RepositorySummary, error) {
	if sr.Items == nil {
		return nil, fmt.Errorf("%w: missing items", apperr.ErrMalformedPayload)
	}
	repos := make([]models.RepositorySummary, 0, len(*sr.Items))
	for i, r := range *sr.Items {
		if err := r.validate(); err != nil {
			return nil, fmt.Errorf("%w: item %d: %v", apperr.ErrMalformedPayload, i, err)
		}
		repos = append(repos, r.toSummary())
	}
	return repos, nil
}

func (r repository) validate() error {
	var missing []string
	if r.ID == nil {
		missing = append(missing, "id")
	}
	if r.Name == "" {
		missing = append(missing, "name")
	}
	if r.FullName == "" {
		missing = append(missing, "full_name")
	}
	if r.HTMLURL == "" {
		missing = append(missing, "html_url")
	}
	if r.CreatedAt == nil {
		missing = append(missing, "created_at")
	}
	if r.Owner == nil || r.Owner.Login == "" {
		missing = append(missing, "owner.login")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing %s", strings.Join(missing, ", "))
	}
	if r.StargazersCount < 0 || r.ForksCount < 0 {
		return fmt.Errorf("negative counts")
	}
	return nil
}

func (r repository) toSummary() models.RepositorySummary {
	return models.RepositorySummary{
		ID:          *r.ID,
		Name:        r.Name,
		FullName:    r.FullName,
		Description: r.Description,
		Stars:       r.StargazersCount,
		Forks:       r.ForksCount,
		Language:    r.Language,
		URL:         r.HTMLURL,
		CreatedAt:   r.CreatedAt.UTC(),
		Owner: models.Owner{
			Login:  r.Owner.Login,
			Avatar: r.Owner.AvatarURL,
		},
	}
}
