package reconcile

import "sync"

// Page is one day's worth of cached reconciliation summary, serialized as
// JSON so a read endpoint can serve yesterday's numbers without re-scanning
// payment rows.
type Page struct {
	Items []byte
}

// Snapshot is a date-keyed cache with oldest-first eviction once it holds
// more than seven distinct date keys, adapted from the single-key
// sync.RWMutex-guarded CouponCache shape into a bounded multi-key cache.
// This mutex guards only in-memory state and never spans a transaction.
type Snapshot struct {
	mu    sync.RWMutex
	pages map[string]Page
	order []string
}

const maxSnapshotDays = 7

// NewSnapshot builds an empty Snapshot.
func NewSnapshot() *Snapshot {
	return &Snapshot{pages: make(map[string]Page)}
}

// Get returns the page cached for dateKey, if any.
func (s *Snapshot) Get(dateKey string) (Page, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.pages[dateKey]
	return p, ok
}

// Set stores page under dateKey, evicting the oldest entry once more than
// seven distinct date keys are held.
func (s *Snapshot) Set(dateKey string, page Page) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.pages[dateKey]; !exists {
		s.order = append(s.order, dateKey)
	}
	s.pages[dateKey] = page

	for len(s.order) > maxSnapshotDays {
		oldest := s.order[0]
		s.order = s.order[1:]
		delete(s.pages, oldest)
	}
}
