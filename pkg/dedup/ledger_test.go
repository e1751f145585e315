package dedup

import (
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLedger_MarkIfNewOnce(t *testing.T) {
	l := New()

	assert.True(t, l.MarkIfNew("m1"))
	assert.False(t, l.MarkIfNew("m1"))
	assert.False(t, l.MarkIfNew("m1"))
	assert.True(t, l.MarkIfNew("m2"))
	assert.True(t, l.Seen("m1"))
}

func TestLedger_EmptyIDNeverMarked(t *testing.T) {
	l := New()

	assert.False(t, l.MarkIfNew(""))
	assert.Equal(t, 0, l.Len())
}

// MarkIfNew debe retornar true exactamente una vez por id aunque varios
// goroutines compitan por el mismo id.
func TestLedger_ConcurrentSameID(t *testing.T) {
	l := New()

	var wins int64
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if l.MarkIfNew("race-1") {
				atomic.AddInt64(&wins, 1)
			}
		}()
	}
	wg.Wait()

	require.Equal(t, int64(1), wins, "exactly one caller may win the insert")
}

func TestLedger_ConcurrentDistinctIDs(t *testing.T) {
	l := New()

	var wins int64
	var wg sync.WaitGroup
	for i := 0; i < 200; i++ {
		id := fmt.Sprintf("m-%d", i)
		wg.Add(1)
		go func() {
			defer wg.Done()
			if l.MarkIfNew(id) {
				atomic.AddInt64(&wins, 1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(200), wins)
	assert.Equal(t, 200, l.Len())
}

func TestLedger_CleanupKeepsNewest(t *testing.T) {
	l := NewWithLimits(100, 50)

	for i := 0; i < 150; i++ {
		l.MarkIfNew(fmt.Sprintf("m-%d", i))
	}
	l.Cleanup()

	assert.LessOrEqual(t, l.Len(), 50)
	// Newest insertions survive, oldest are gone.
	assert.True(t, l.Seen("m-149"))
	assert.False(t, l.Seen("m-0"))
	// A trimmed id becomes markable again; the recency window upstream is
	// what keeps that from re-triggering a reply.
	assert.True(t, l.MarkIfNew("m-0"))
}

func TestLedger_CleanupBelowThresholdIsNoop(t *testing.T) {
	l := NewWithLimits(100, 50)

	for i := 0; i < 80; i++ {
		l.MarkIfNew(fmt.Sprintf("m-%d", i))
	}
	l.Cleanup()

	assert.Equal(t, 80, l.Len())
}
