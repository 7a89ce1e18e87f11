package models

import "time"

// RepositorySummary is the normalized, UI-facing projection of one search result.
// Values are never mutated after construction; a cache refresh replaces them wholesale.
type RepositorySummary struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	FullName    string    `json:"fullName"`
	Description *string   `json:"description"`
	Stars       int       `json:"stars"`
	Forks       int       `json:"forks"`
	Language    *string   `json:"language"`
	URL         string    `json:"url"`
	CreatedAt   time.Time `json:"createdAt"`
	Owner       Owner     `json:"owner"`
}

type Owner struct {
	Login  string `json:"login"`
	Avatar string `json:"avatar"`
}
