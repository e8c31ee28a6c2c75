package tracing

import (
	"sync"
	"time"

	"legalmind/internal/domain"
)

const defaultMaxTraces = 1000

// Stats is an aggregate view over every stored trace.
type Stats struct {
	TotalTraces int                        `json:"total_traces"`
	AvgDuration time.Duration              `json:"avg_duration"`
	AvgTokens   float64                    `json:"avg_tokens"`
	AgentUsage  map[domain.AgentType]int   `json:"agent_usage"`
	IntentDist  map[domain.IntentKind]int  `json:"intent_distribution"`
	StatusDist  map[domain.AgentStatus]int `json:"status_distribution"`
}

// Store keeps the most recent traces in memory, bounded by maxSize. When
// full, inserting evicts the single oldest trace. Query results are returned
// newest first.
type Store struct {
	mu      sync.RWMutex
	traces  []domain.AgentTrace // insertion order, oldest first
	byID    map[string]int      // trace ID to index in traces
	maxSize int
}

// NewStore creates a store holding at most maxSize traces. A non-positive
// maxSize selects the default of 1000.
func NewStore(maxSize int) *Store {
	if maxSize <= 0 {
		maxSize = defaultMaxTraces
	}
	return &Store{
		byID:    make(map[string]int),
		maxSize: maxSize,
	}
}

// Put inserts a trace, evicting the oldest when the store is full.
func (s *Store) Put(t domain.AgentTrace) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.traces) >= s.maxSize {
		evicted := s.traces[0]
		s.traces = s.traces[1:]
		delete(s.byID, evicted.TraceID)
		for id, idx := range s.byID {
			s.byID[id] = idx - 1
		}
	}
	s.byID[t.TraceID] = len(s.traces)
	s.traces = append(s.traces, t)
}

// Get returns the trace with the given ID.
func (s *Store) Get(traceID string) (domain.AgentTrace, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	idx, ok := s.byID[traceID]
	if !ok {
		return domain.AgentTrace{}, domain.NewDomainError("Store.Get", domain.ErrNotFound, traceID)
	}
	return s.traces[idx], nil
}

// GetByChatID returns every trace for a chat, newest first.
func (s *Store) GetByChatID(chatID string) []domain.AgentTrace {
	return s.filter(func(t domain.AgentTrace) bool { return t.ChatID == chatID })
}

// GetByAgentType returns every trace in which the given agent executed,
// newest first.
func (s *Store) GetByAgentType(agent domain.AgentType) []domain.AgentTrace {
	return s.filter(func(t domain.AgentTrace) bool {
		for _, e := range t.Execution {
			if e.AgentName == agent {
				return true
			}
		}
		return false
	})
}

// GetByTimeRange returns traces with from <= Timestamp <= to, newest first.
func (s *Store) GetByTimeRange(from, to time.Time) []domain.AgentTrace {
	return s.filter(func(t domain.AgentTrace) bool {
		return !t.Timestamp.Before(from) && !t.Timestamp.After(to)
	})
}

// GetAll returns one page of traces, newest first. Pages are numbered from
// 1; a page past the end returns nil.
func (s *Store) GetAll(page, pageSize int) []domain.AgentTrace {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if page < 1 {
		page = 1
	}
	n := len(s.traces)
	offset := (page - 1) * pageSize
	if pageSize <= 0 || offset >= n {
		return nil
	}
	out := make([]domain.AgentTrace, 0, pageSize)
	for i := n - 1 - offset; i >= 0 && len(out) < pageSize; i-- {
		out = append(out, s.traces[i])
	}
	return out
}

// Len returns the number of stored traces.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.traces)
}

// Clear removes every trace.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.traces = nil
	s.byID = make(map[string]int)
}

// GetStats aggregates across all stored traces.
func (s *Store) GetStats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := Stats{
		TotalTraces: len(s.traces),
		AgentUsage:  make(map[domain.AgentType]int),
		IntentDist:  make(map[domain.IntentKind]int),
		StatusDist:  make(map[domain.AgentStatus]int),
	}
	if len(s.traces) == 0 {
		return stats
	}

	var totalDuration time.Duration
	totalTokens := 0
	for _, t := range s.traces {
		totalDuration += t.TotalDuration
		totalTokens += t.TotalTokens.Input + t.TotalTokens.Output
		stats.IntentDist[t.Intent.Classified]++
		for _, e := range t.Execution {
			stats.AgentUsage[e.AgentName]++
			stats.StatusDist[e.Status]++
		}
	}
	stats.AvgDuration = totalDuration / time.Duration(len(s.traces))
	stats.AvgTokens = float64(totalTokens) / float64(len(s.traces))
	return stats
}

func (s *Store) filter(keep func(domain.AgentTrace) bool) []domain.AgentTrace {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.AgentTrace
	for i := len(s.traces) - 1; i >= 0; i-- {
		if keep(s.traces[i]) {
			out = append(out, s.traces[i])
		}
	}
	return out
}
