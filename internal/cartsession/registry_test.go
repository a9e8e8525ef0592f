package cartsession

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/example/eri-mobile-shop/internal/domain/cart"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_SessionsAreIsolated(t *testing.T) {
	r := NewRegistry(10, time.Hour)

	require.NoError(t, r.Update("a", func(c *cart.Cart) error {
		c.AddItem("p1", "Black", "256GB", 999, "", "Phone")
		return nil
	}))

	assert.Len(t, r.Snapshot("a"), 1)
	assert.Empty(t, r.Snapshot("b"))
	assert.Equal(t, 2, r.Len())
}

func TestRegistry_UpdatePropagatesError(t *testing.T) {
	r := NewRegistry(10, time.Hour)
	boom := errors.New("boom")

	err := r.Update("a", func(c *cart.Cart) error { return boom })

	assert.ErrorIs(t, err, boom)
}

func TestRegistry_ConcurrentUpdatesSerialize(t *testing.T) {
	r := NewRegistry(10, time.Hour)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = r.Update("a", func(c *cart.Cart) error {
				c.AddItem("p1", "Black", "256GB", 10, "", "")
				return nil
			})
		}()
	}
	wg.Wait()

	items := r.Snapshot("a")
	require.Len(t, items, 1)
	assert.Equal(t, 50, items[0].Quantity)
}

func TestRegistry_EvictsLeastRecentlyUsed(t *testing.T) {
	r := NewRegistry(2, time.Hour)
	add := func(id string) {
		_ = r.Update(id, func(c *cart.Cart) error {
			c.AddItem("p1", "", "", 1, "", "")
			return nil
		})
	}

	add("a")
	add("b")
	add("a")
	add("c")

	assert.Len(t, r.Snapshot("a"), 1)
	assert.Empty(t, r.Snapshot("b"))
}

func TestRegistry_Forget(t *testing.T) {
	r := NewRegistry(10, time.Hour)
	_ = r.Update("a", func(c *cart.Cart) error {
		c.AddItem("p1", "", "", 1, "", "")
		return nil
	})

	r.Forget("a")

	assert.Empty(t, r.Snapshot("a"))
}

func TestNewSessionID(t *testing.T) {
	assert.NotEqual(t, NewSessionID(), NewSessionID())
	assert.Len(t, NewSessionID(), 36)
}

func TestRegistry_EvictedEntryIsNotCurrent(t *testing.T) {
	r := NewRegistry(1, time.Hour)

	stale := r.acquire("a")
	r.acquire("b") // size bound evicts "a"

	assert.False(t, r.isCurrent("a", stale))

	// a write for "a" lands in a live cart, not in the evicted one
	require.NoError(t, r.Update("a", func(c *cart.Cart) error {
		c.AddItem("p1", "Black", "256GB", 999, "", "Phone")
		return nil
	}))
	assert.True(t, stale.cart.IsEmpty())
	assert.Len(t, r.Snapshot("a"), 1)
}
