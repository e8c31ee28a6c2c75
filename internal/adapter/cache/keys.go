package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
	"time"
)

// SearchKind selects the TTL class for a cached search result.
type SearchKind string

const (
	KindNews       SearchKind = "news"
	KindRegulation SearchKind = "regulation"
	KindCase       SearchKind = "case"
	KindGeneral    SearchKind = "general"
)

// TTLFor maps a search kind to its time-to-live. Regulations change rarely,
// news constantly.
func TTLFor(kind SearchKind) time.Duration {
	switch kind {
	case KindNews:
		return time.Hour
	case KindRegulation:
		return 24 * time.Hour
	case KindCase:
		return 6 * time.Hour
	case KindGeneral:
		return 2 * time.Hour
	default:
		return time.Hour
	}
}

// NormalizeQuery canonicalizes a search query so that trivially different
// phrasings share a cache entry: lowercase, whitespace collapsed, tokens
// sorted.
func NormalizeQuery(query string) string {
	tokens := strings.Fields(strings.ToLower(query))
	sort.Strings(tokens)
	return strings.Join(tokens, " ")
}

// Key derives the cache key for a query within a kind namespace. The query
// is normalized then hashed together with any option strings, so lookups
// that differ only in options (result count, filters) never share an entry.
// Callers must encode each option deterministically, e.g. "count=10".
func Key(kind SearchKind, query string, opts ...string) string {
	payload := NormalizeQuery(query)
	for _, opt := range opts {
		payload += "|" + opt
	}
	sum := sha256.Sum256([]byte(payload))
	return "search:" + string(kind) + ":" + hex.EncodeToString(sum[:16])
}
