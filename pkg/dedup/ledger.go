package dedup

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	// DefaultMaxEntries is the size past which Cleanup trims the ledger.
	DefaultMaxEntries = 10000
	// DefaultKeepEntries is how many of the newest ids survive a trim.
	DefaultKeepEntries = 5000
)

// Ledger is the idempotency gate for inbound message ids. MarkIfNew is an
// atomic membership-and-insert: for any id it returns true exactly once,
// no matter how many goroutines race on it.
//
// The ledger only grows through MarkIfNew; callers never remove single
// entries. Cleanup bulk-trims the oldest ids once the map passes the
// configured threshold, so long sessions do not leak memory. Losing old ids
// is acceptable: the classifier's recency window already rejects anything
// old enough to have been trimmed.
type Ledger struct {
	mu   sync.Mutex
	seen map[string]uint64
	seq  uint64

	maxEntries  int
	keepEntries int
}

// New creates a ledger with the default trim thresholds.
func New() *Ledger {
	return NewWithLimits(DefaultMaxEntries, DefaultKeepEntries)
}

// NewWithLimits creates a ledger that trims past maxEntries down to
// keepEntries of the newest ids.
func NewWithLimits(maxEntries, keepEntries int) *Ledger {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	if keepEntries <= 0 || keepEntries > maxEntries {
		keepEntries = maxEntries / 2
	}
	return &Ledger{
		seen:        make(map[string]uint64),
		maxEntries:  maxEntries,
		keepEntries: keepEntries,
	}
}

// MarkIfNew records messageID and returns true if it was not seen before.
// Returns false (and records nothing) for ids already present or empty ids.
func (l *Ledger) MarkIfNew(messageID string) bool {
	if messageID == "" {
		return false
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.seen[messageID]; ok {
		return false
	}
	l.seq++
	l.seen[messageID] = l.seq
	return true
}

// Seen reports whether messageID is currently recorded.
func (l *Ledger) Seen(messageID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.seen[messageID]
	return ok
}

// Len returns the number of recorded ids.
func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.seen)
}

// Cleanup trims the ledger to the newest keepEntries ids when it has grown
// past maxEntries. Safe to call at any time; no-op below the threshold.
func (l *Ledger) Cleanup() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.seen) <= l.maxEntries {
		return
	}

	seqs := make([]uint64, 0, len(l.seen))
	for _, s := range l.seen {
		seqs = append(seqs, s)
	}
	sort.Slice(seqs, func(i, j int) bool { return seqs[i] > seqs[j] })
	cutoff := seqs[l.keepEntries-1]

	before := len(l.seen)
	for id, s := range l.seen {
		if s < cutoff {
			delete(l.seen, id)
		}
	}
	logrus.Debugf("[DEDUP] Trimmed ledger %d -> %d entries", before, len(l.seen))
}

// StartCleanupLoop runs Cleanup every interval until ctx is cancelled.
func (l *Ledger) StartCleanupLoop(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Hour
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				l.Cleanup()
			}
		}
	}()
}
