// Package reportcache retains recent learning and regime reports for retrieval by report ID.
package reportcache

import (
	"sync"
	"time"

	cache "github.com/patrickmn/go-cache"

	"github.com/yourusername/learning-agent/internal/metrics"
	"github.com/yourusername/learning-agent/internal/models"
)

// Report kinds
const (
	KindLearning = "learning"
	KindRegime   = "regime"
)

// Report is one retained response. Exactly one of Learning or Regime is set.
type Report struct {
	ID        string                   `json:"report_id"`
	Kind      string                   `json:"kind"`
	CreatedAt time.Time                `json:"created_at"`
	Learning  *models.LearnResponse    `json:"learning,omitempty"`
	Regime    *models.ClassifyResponse `json:"regime,omitempty"`
}

// Store provides in-memory TTL retention of reports
type Store struct {
	cache     *cache.Cache
	ttl       time.Duration
	maxSize   int
	mu        sync.Mutex
	hitCount  uint64
	missCount uint64
}

// NewStore creates a report store. A non-positive maxSize disables the size cap.
func NewStore(ttl, cleanupInterval time.Duration, maxSize int) *Store {
	return &Store{
		cache:   cache.New(ttl, cleanupInterval),
		ttl:     ttl,
		maxSize: maxSize,
	}
}

// Get retrieves a retained report
func (s *Store) Get(id string) (*Report, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if item, found := s.cache.Get(id); found {
		if report, ok := item.(*Report); ok {
			s.hitCount++
			metrics.RecordCacheHit()
			return report, true
		}
	}

	s.missCount++
	metrics.RecordCacheMiss()
	return nil, false
}

// Put retains a report, evicting the oldest entry when the store is full
func (s *Store) Put(report *Report) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.maxSize > 0 && s.cache.ItemCount() >= s.maxSize {
		s.cache.DeleteExpired()
		if s.cache.ItemCount() >= s.maxSize {
			s.evictOldest()
		}
	}

	s.cache.Set(report.ID, report, s.ttl)
	metrics.UpdateReportCacheSize(s.cache.ItemCount())
}

// evictOldest drops the entry closest to expiry; with a single TTL that is the oldest one.
func (s *Store) evictOldest() {
	var (
		oldestKey string
		oldestExp int64
	)
	for k, item := range s.cache.Items() {
		if oldestKey == "" || item.Expiration < oldestExp {
			oldestKey = k
			oldestExp = item.Expiration
		}
	}
	if oldestKey != "" {
		s.cache.Delete(oldestKey)
	}
}

// Sweep removes expired reports and returns how many remain
func (s *Store) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cache.DeleteExpired()
	count := s.cache.ItemCount()
	metrics.UpdateReportCacheSize(count)
	return count
}

// Clear flushes the store
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cache.Flush()
	s.hitCount = 0
	s.missCount = 0
	metrics.UpdateReportCacheSize(0)
}

// Stats returns lookup statistics
func (s *Store) Stats() (hits, misses uint64, ratio float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	hits = s.hitCount
	misses = s.missCount
	total := hits + misses
	if total > 0 {
		ratio = float64(hits) / float64(total)
	}
	return
}

// ItemCount returns the number of retained reports
func (s *Store) ItemCount() int {
	return s.cache.ItemCount()
}
