package store

import (
	"errors"
	"sync"
	"time"

	"github.com/i474232898/weather-etl/internal/weather"
)

var (
	// ErrNotFound is returned when no run matches the query.
	ErrNotFound = errors.New("no etl runs recorded")
)

// MemoryStore is a concurrency-safe in-memory history of ETL runs, ordered by
// the time they were saved.
type MemoryStore struct {
	mu   sync.RWMutex
	runs []weather.RunSummary

	// retention configuration
	maxHistory int           // max number of runs kept
	maxAge     time.Duration // optional max age of a run, by StartedAt
	now        func() time.Time
}

// NewMemoryStore creates a new MemoryStore with optional limits.
// If maxHistory is <= 0, it is treated as unlimited.
func NewMemoryStore(maxHistory int, maxAge time.Duration) *MemoryStore {
	return &MemoryStore{
		maxHistory: maxHistory,
		maxAge:     maxAge,
		now:        time.Now,
	}
}

// SaveRun appends a run summary and enforces retention.
func (s *MemoryStore) SaveRun(summary weather.RunSummary) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.runs = append(s.runs, summary)

	// Enforce retention by count.
	if s.maxHistory > 0 && len(s.runs) > s.maxHistory {
		over := len(s.runs) - s.maxHistory
		s.runs = s.runs[over:]
	}

	// Enforce retention by age. The newest run is always kept.
	if s.maxAge > 0 {
		cutoff := s.now().Add(-s.maxAge)
		i := 0
		for ; i < len(s.runs)-1; i++ {
			if !s.runs[i].StartedAt.Before(cutoff) {
				break
			}
		}
		s.runs = s.runs[i:]
	}
}

// GetLatest returns the most recently saved run.
func (s *MemoryStore) GetLatest() (weather.RunSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.runs) == 0 {
		return weather.RunSummary{}, ErrNotFound
	}
	return s.runs[len(s.runs)-1], nil
}

// GetRange returns all runs started between from and to (inclusive).
func (s *MemoryStore) GetRange(from, to time.Time) ([]weather.RunSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []weather.RunSummary
	for _, run := range s.runs {
		if !run.StartedAt.Before(from) && !run.StartedAt.After(to) {
			result = append(result, run)
		}
	}

	if len(result) == 0 {
		return nil, ErrNotFound
	}
	return result, nil
}
