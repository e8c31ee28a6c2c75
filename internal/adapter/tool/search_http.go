package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const maxSearchBodySize = 512 * 1024 // 512KB

// httpSearchResponse models the relevant portion of the search service's
// JSON response.
type httpSearchResponse struct {
	Results []struct {
		Title   string `json:"title"`
		URL     string `json:"url"`
		Snippet string `json:"snippet"`
		Date    string `json:"date"`
	} `json:"results"`
	Total int `json:"total"`
}

// HTTPBackend queries a search service over its JSON API. The scope maps to
// the service's corpus parameter, so one deployment serves web, regulation,
// and case search.
type HTTPBackend struct {
	client  *http.Client
	baseURL string
	logger  *slog.Logger
}

func NewHTTPBackend(baseURL string, logger *slog.Logger) *HTTPBackend {
	return &HTTPBackend{
		client: &http.Client{
			Timeout: 15 * time.Second,
		},
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  logger,
	}
}

func (b *HTTPBackend) Name() string { return "http" }

func (b *HTTPBackend) Search(ctx context.Context, scope SearchScope, query string, count int) ([]SearchResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.baseURL+"/search", nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	q := req.URL.Query()
	q.Set("q", query)
	q.Set("corpus", string(scope))
	q.Set("limit", strconv.Itoa(count))
	req.URL.RawQuery = q.Encode()
	req.Header.Set("Accept", "application/json")

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxSearchBodySize))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search failed (HTTP %d): %s", resp.StatusCode, string(body))
	}

	var parsed httpSearchResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}

	results := make([]SearchResult, 0, len(parsed.Results))
	for _, r := range parsed.Results {
		if len(results) >= count {
			break
		}
		results = append(results, SearchResult{
			Title:   r.Title,
			URL:     r.URL,
			Snippet: r.Snippet,
			Date:    r.Date,
		})
	}

	b.logger.Debug("search completed", "scope", scope, "query", query, "results", len(results))
	return results, nil
}
