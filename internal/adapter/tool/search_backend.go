package tool

import "context"

// SearchScope selects which corpus a search runs against.
type SearchScope string

const (
	ScopeWeb        SearchScope = "web"
	ScopeRegulation SearchScope = "regulation"
	ScopeCase       SearchScope = "case"
)

// SearchBackend abstracts the search service shared by the research tools.
type SearchBackend interface {
	// Search runs a scoped search and returns at most count results.
	Search(ctx context.Context, scope SearchScope, query string, count int) ([]SearchResult, error)
	// Name returns the backend identifier (e.g. "http").
	Name() string
}

// SearchResult represents a single search result.
type SearchResult struct {
	Title   string
	URL     string
	Snippet string
	Date    string // publication or decision date when the corpus provides one
}
