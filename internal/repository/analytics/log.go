// Package analytics keeps a lightweight JSON-file log of search queries
// and derives trending/statistics views from it.
package analytics

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

// flushEvery is how many recorded searches pass between automatic saves.
const flushEvery = 10

// Period selects the trending window.
type Period string

// Trending window constants.
const (
	PeriodDay   Period = "day"
	PeriodWeek  Period = "week"
	PeriodMonth Period = "month"
	PeriodAll   Period = "all"
)

// entry is one logged search.
type entry struct {
	Query       string `json:"query"`
	Timestamp   int64  `json:"timestamp"`
	User        string `json:"user,omitempty"`
	ResultCount int    `json:"count"`
}

// fileShape is the on-disk JSON document.
type fileShape struct {
	Searches []entry `json:"searches"`
}

// Log is the JSON-file-backed search analytics store. Safe for
// concurrent use; the file is rewritten wholesale on flush.
type Log struct {
	path string

	mu       sync.Mutex
	searches []entry
	unsaved  int
	now      func() time.Time
}

// Open loads the analytics log at path, starting empty when the file is
// missing or unreadable.
func Open(path string) (*Log, error) {
	l := &Log{path: path, now: time.Now}

	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		if os.IsNotExist(err) {
			return l, nil
		}
		return nil, fmt.Errorf("read analytics log: %w", err)
	}

	var doc fileShape
	if err := json.Unmarshal(data, &doc); err != nil {
		// A corrupt log is not worth failing startup over.
		return l, nil
	}
	l.searches = doc.Searches
	return l, nil
}

// Record logs one search. Writes reach disk every few entries; call
// Flush on shutdown to persist the tail.
func (l *Log) Record(queryText, user string, resultCount int) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.searches = append(l.searches, entry{
		Query:       normalizeQuery(queryText),
		Timestamp:   l.now().Unix(),
		User:        user,
		ResultCount: resultCount,
	})
	l.unsaved++

	if l.unsaved >= flushEvery {
		return l.flushLocked()
	}
	return nil
}

// TrendingQuery is one trending row.
type TrendingQuery struct {
	Query string `json:"query"`
	Count int    `json:"count"`
}

// Trending returns the most frequent queries within the period.
func (l *Log) Trending(period Period, limit int) []TrendingQuery {
	if limit <= 0 {
		limit = 10
	}
	cutoff := l.cutoff(period)

	l.mu.Lock()
	counts := make(map[string]int)
	for i := range l.searches {
		if l.searches[i].Timestamp >= cutoff {
			counts[l.searches[i].Query]++
		}
	}
	l.mu.Unlock()

	trending := make([]TrendingQuery, 0, len(counts))
	for q, c := range counts {
		trending = append(trending, TrendingQuery{Query: q, Count: c})
	}
	sort.Slice(trending, func(i, j int) bool {
		if trending[i].Count != trending[j].Count {
			return trending[i].Count > trending[j].Count
		}
		return trending[i].Query < trending[j].Query
	})

	if len(trending) > limit {
		trending = trending[:limit]
	}
	return trending
}

// Stats holds overall search counters.
type Stats struct {
	TotalSearches   int `json:"total_searches"`
	UniqueQueries   int `json:"unique_queries"`
	SearchesLast24h int `json:"searches_last_24h"`
	UniqueUsers     int `json:"unique_users"`
}

// GetStats returns overall search statistics.
func (l *Log) GetStats() Stats {
	dayAgo := l.now().Add(-24 * time.Hour).Unix()

	l.mu.Lock()
	defer l.mu.Unlock()

	queries := make(map[string]struct{})
	users := make(map[string]struct{})
	recent := 0
	for i := range l.searches {
		queries[l.searches[i].Query] = struct{}{}
		if l.searches[i].User != "" {
			users[l.searches[i].User] = struct{}{}
		}
		if l.searches[i].Timestamp >= dayAgo {
			recent++
		}
	}

	return Stats{
		TotalSearches:   len(l.searches),
		UniqueQueries:   len(queries),
		SearchesLast24h: recent,
		UniqueUsers:     len(users),
	}
}

// Flush persists any unsaved entries to disk.
func (l *Log) Flush() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.flushLocked()
}

func (l *Log) flushLocked() error {
	data, err := json.Marshal(fileShape{Searches: l.searches})
	if err != nil {
		return fmt.Errorf("marshal analytics log: %w", err)
	}
	if err := os.WriteFile(l.path, data, 0o600); err != nil {
		return fmt.Errorf("write analytics log: %w", err)
	}
	l.unsaved = 0
	return nil
}

func (l *Log) cutoff(period Period) int64 {
	now := l.now()
	switch period {
	case PeriodDay:
		return now.Add(-24 * time.Hour).Unix()
	case PeriodWeek:
		return now.Add(-7 * 24 * time.Hour).Unix()
	case PeriodMonth:
		return now.Add(-30 * 24 * time.Hour).Unix()
	default:
		return 0
	}
}

func normalizeQuery(q string) string {
	return strings.Join(strings.Fields(strings.ToLower(q)), " ")
}
