package liveness

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	// DefaultCleanupThreshold is the entry count that triggers a trim.
	DefaultCleanupThreshold = 100
	// DefaultRetainCap is the number of entries kept after a trim.
	DefaultRetainCap = 50
	// DefaultCleanupInterval is how often the background loop runs.
	DefaultCleanupInterval = time.Hour
)

type entry struct {
	enabled       bool
	lastProcessed string
	touched       uint64
}

// Registry tracks, per chat, whether automated responses are enabled, plus
// the last message id the dispatcher consumed for that chat. Chats never
// seen are inactive (fail-closed). One entry accumulates per conversation
// ever touched, so Cleanup trims the map on a fixed interval: it keeps the
// most-recently-touched active chats up to the retain cap and discards the
// rest, inactive ones first.
type Registry struct {
	mu      sync.Mutex
	entries map[string]*entry
	seq     uint64

	threshold int
	retain    int
}

func New() *Registry {
	return NewWithLimits(DefaultCleanupThreshold, DefaultRetainCap)
}

func NewWithLimits(threshold, retain int) *Registry {
	if threshold <= 0 {
		threshold = DefaultCleanupThreshold
	}
	if retain <= 0 || retain > threshold {
		retain = threshold / 2
	}
	return &Registry{
		entries:   make(map[string]*entry),
		threshold: threshold,
		retain:    retain,
	}
}

func (r *Registry) touch(chatID string) *entry {
	e := r.entries[chatID]
	if e == nil {
		e = &entry{}
		r.entries[chatID] = e
	}
	r.seq++
	e.touched = r.seq
	return e
}

// Activate enables automated responses for chatID, creating the entry if
// absent.
func (r *Registry) Activate(chatID string) {
	if chatID == "" {
		return
	}
	r.mu.Lock()
	r.touch(chatID).enabled = true
	r.mu.Unlock()
}

// Deactivate disables automated responses for chatID. The entry is kept so
// the last-processed marker survives a toggle.
func (r *Registry) Deactivate(chatID string) {
	if chatID == "" {
		return
	}
	r.mu.Lock()
	r.touch(chatID).enabled = false
	r.mu.Unlock()
}

// IsActive reports whether automated responses are enabled for chatID.
// Absent chats are inactive.
func (r *Registry) IsActive(chatID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[chatID]
	return ok && e.enabled
}

// LastProcessed returns the id of the last message the dispatcher consumed
// for chatID, or "" if none.
func (r *Registry) LastProcessed(chatID string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.entries[chatID]; ok {
		return e.lastProcessed
	}
	return ""
}

// SetLastProcessed records messageID as consumed for chatID.
func (r *Registry) SetLastProcessed(chatID, messageID string) {
	if chatID == "" {
		return
	}
	r.mu.Lock()
	r.touch(chatID).lastProcessed = messageID
	r.mu.Unlock()
}

// Len returns the number of tracked chats.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// ChatState is the externally visible state of one tracked chat.
type ChatState struct {
	ChatID        string `json:"chat_id"`
	Active        bool   `json:"active"`
	LastProcessed string `json:"last_processed_message_id,omitempty"`
}

// Snapshot returns every tracked chat, active chats first, most recently
// touched first within each group.
func (r *Registry) Snapshot() []ChatState {
	r.mu.Lock()
	type row struct {
		state   ChatState
		touched uint64
	}
	rows := make([]row, 0, len(r.entries))
	for id, e := range r.entries {
		rows = append(rows, row{
			state:   ChatState{ChatID: id, Active: e.enabled, LastProcessed: e.lastProcessed},
			touched: e.touched,
		})
	}
	r.mu.Unlock()

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].state.Active != rows[j].state.Active {
			return rows[i].state.Active
		}
		return rows[i].touched > rows[j].touched
	})
	out := make([]ChatState, len(rows))
	for i, rw := range rows {
		out[i] = rw.state
	}
	return out
}

// Cleanup trims the registry once it has grown past the threshold. Active
// chats are favored for retention, ordered by recency of mutation; inactive
// entries only fill whatever room remains. No-op below the threshold.
func (r *Registry) Cleanup() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.entries) <= r.threshold {
		return
	}

	type candidate struct {
		chatID  string
		enabled bool
		touched uint64
	}
	cands := make([]candidate, 0, len(r.entries))
	for id, e := range r.entries {
		cands = append(cands, candidate{chatID: id, enabled: e.enabled, touched: e.touched})
	}
	sort.Slice(cands, func(i, j int) bool {
		if cands[i].enabled != cands[j].enabled {
			return cands[i].enabled
		}
		return cands[i].touched > cands[j].touched
	})

	before := len(r.entries)
	keep := make(map[string]struct{}, r.retain)
	for i := 0; i < len(cands) && i < r.retain; i++ {
		keep[cands[i].chatID] = struct{}{}
	}
	for id := range r.entries {
		if _, ok := keep[id]; !ok {
			delete(r.entries, id)
		}
	}
	logrus.Infof("[LIVENESS] Cleanup trimmed registry %d -> %d chats", before, len(r.entries))
}

// StartCleanupLoop runs Cleanup every interval until ctx is cancelled.
func (r *Registry) StartCleanupLoop(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultCleanupInterval
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				r.Cleanup()
			}
		}
	}()
}
