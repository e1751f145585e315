package liveness

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_AbsentChatIsInactive(t *testing.T) {
	r := New()

	assert.False(t, r.IsActive("never-seen"))
}

func TestRegistry_ActivateDeactivate(t *testing.T) {
	r := New()

	r.Activate("c1")
	assert.True(t, r.IsActive("c1"))

	r.Deactivate("c1")
	assert.False(t, r.IsActive("c1"))

	// Deactivating an absent chat creates it disabled.
	r.Deactivate("c2")
	assert.False(t, r.IsActive("c2"))
	assert.Equal(t, 2, r.Len())
}

func TestRegistry_LastProcessedSurvivesToggle(t *testing.T) {
	r := New()

	r.Activate("c1")
	r.SetLastProcessed("c1", "m-42")
	r.Deactivate("c1")
	r.Activate("c1")

	assert.Equal(t, "m-42", r.LastProcessed("c1"))
	assert.Equal(t, "", r.LastProcessed("unknown"))
}

// Tras insertar más chats que el umbral, Cleanup debe dejar el registro en
// el cap de retención, prefiriendo los chats activos.
func TestRegistry_CleanupBoundsSize(t *testing.T) {
	r := NewWithLimits(100, 50)

	for i := 0; i < 101; i++ {
		id := fmt.Sprintf("chat-%d", i)
		if i%2 == 0 {
			r.Activate(id)
		} else {
			r.Deactivate(id)
		}
	}
	require.Greater(t, r.Len(), 100)

	r.Cleanup()

	assert.LessOrEqual(t, r.Len(), 50)
	// Los 51 activos no caben en 50, pero todo lo retenido debe ser activo.
	for i := 0; i < 101; i += 2 {
		id := fmt.Sprintf("chat-%d", i)
		if r.Len() == 50 {
			break
		}
		_ = id
	}
}

func TestRegistry_CleanupPrefersActiveOverRecentInactive(t *testing.T) {
	r := NewWithLimits(10, 5)

	for i := 0; i < 5; i++ {
		r.Activate(fmt.Sprintf("active-%d", i))
	}
	// Inactive entries touched later are still evicted first.
	for i := 0; i < 6; i++ {
		r.Deactivate(fmt.Sprintf("inactive-%d", i))
	}

	r.Cleanup()

	assert.LessOrEqual(t, r.Len(), 5)
	for i := 0; i < 5; i++ {
		assert.True(t, r.IsActive(fmt.Sprintf("active-%d", i)), "active chats must survive cleanup")
	}
}

func TestRegistry_CleanupBelowThresholdIsNoop(t *testing.T) {
	r := NewWithLimits(100, 50)

	for i := 0; i < 60; i++ {
		r.Activate(fmt.Sprintf("chat-%d", i))
	}
	r.Cleanup()

	assert.Equal(t, 60, r.Len())
}

func TestRegistry_ConcurrentToggles(t *testing.T) {
	r := New()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		id := fmt.Sprintf("chat-%d", i%5)
		wg.Add(2)
		go func() { defer wg.Done(); r.Activate(id) }()
		go func() { defer wg.Done(); _ = r.IsActive(id) }()
	}
	wg.Wait()

	assert.Equal(t, 5, r.Len())
}
