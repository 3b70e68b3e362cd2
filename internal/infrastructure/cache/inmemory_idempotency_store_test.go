package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryIdempotencyStore_Remember(t *testing.T) {
	store := NewInMemoryIdempotencyStore()
	defer store.Close()

	ctx := context.Background()

	t.Run("records a new key", func(t *testing.T) {
		isNew, err := store.Remember(ctx, "req-1", "payment-1", 1*time.Hour)
		require.NoError(t, err)
		assert.True(t, isNew, "new key should return true")
	})

	t.Run("returns false for an already recorded key", func(t *testing.T) {
		isNew, err := store.Remember(ctx, "req-2", "payment-2", 1*time.Hour)
		require.NoError(t, err)
		assert.True(t, isNew)

		isNew, err = store.Remember(ctx, "req-2", "payment-other", 1*time.Hour)
		require.NoError(t, err)
		assert.False(t, isNew, "already recorded key should return false")

		// The original result reference is kept
		resultID, err := store.Lookup(ctx, "req-2")
		require.NoError(t, err)
		assert.Equal(t, "payment-2", resultID)
	})

	t.Run("allows re-recording after expiration", func(t *testing.T) {
		isNew, err := store.Remember(ctx, "req-3", "payment-3", 10*time.Millisecond)
		require.NoError(t, err)
		assert.True(t, isNew)

		time.Sleep(20 * time.Millisecond)

		isNew, err = store.Remember(ctx, "req-3", "payment-3b", 10*time.Millisecond)
		require.NoError(t, err)
		assert.True(t, isNew, "expired key should be recordable again")
	})
}

func TestInMemoryIdempotencyStore_Lookup(t *testing.T) {
	store := NewInMemoryIdempotencyStore()
	defer store.Close()

	ctx := context.Background()

	t.Run("returns empty for an unknown key", func(t *testing.T) {
		resultID, err := store.Lookup(ctx, "unknown-key")
		require.NoError(t, err)
		assert.Empty(t, resultID)
	})

	t.Run("returns the stored result reference", func(t *testing.T) {
		_, err := store.Remember(ctx, "known-key", "payment-42", 1*time.Hour)
		require.NoError(t, err)

		resultID, err := store.Lookup(ctx, "known-key")
		require.NoError(t, err)
		assert.Equal(t, "payment-42", resultID)
	})

	t.Run("returns empty for an expired key", func(t *testing.T) {
		_, err := store.Remember(ctx, "expired-key", "payment-x", 10*time.Millisecond)
		require.NoError(t, err)

		time.Sleep(20 * time.Millisecond)

		resultID, err := store.Lookup(ctx, "expired-key")
		require.NoError(t, err)
		assert.Empty(t, resultID, "expired key should look up empty")
	})
}

func TestInMemoryIdempotencyStore_Size(t *testing.T) {
	store := NewInMemoryIdempotencyStore()
	defer store.Close()

	ctx := context.Background()

	assert.Equal(t, 0, store.Size(), "empty store should have size 0")

	store.Remember(ctx, "req-1", "p1", 1*time.Hour)
	assert.Equal(t, 1, store.Size())

	store.Remember(ctx, "req-2", "p2", 1*time.Hour)
	assert.Equal(t, 2, store.Size())

	// Recording the same key again shouldn't increase size
	store.Remember(ctx, "req-1", "p1", 1*time.Hour)
	assert.Equal(t, 2, store.Size())
}

func TestInMemoryIdempotencyStore_Cleanup(t *testing.T) {
	store := NewInMemoryIdempotencyStore()
	defer store.Close()

	ctx := context.Background()

	store.Remember(ctx, "short-lived-1", "p1", 10*time.Millisecond)
	store.Remember(ctx, "short-lived-2", "p2", 10*time.Millisecond)
	store.Remember(ctx, "long-lived", "p3", 1*time.Hour)

	assert.Equal(t, 3, store.Size())

	time.Sleep(20 * time.Millisecond)

	store.cleanup()

	assert.Equal(t, 1, store.Size())

	resultID, err := store.Lookup(ctx, "long-lived")
	require.NoError(t, err)
	assert.Equal(t, "p3", resultID)

	resultID, err = store.Lookup(ctx, "short-lived-1")
	require.NoError(t, err)
	assert.Empty(t, resultID)
}

func TestInMemoryIdempotencyStore_ConcurrentAccess(t *testing.T) {
	store := NewInMemoryIdempotencyStore()
	defer store.Close()

	ctx := context.Background()
	const numGoroutines = 100
	const key = "concurrent-key"

	results := make(chan bool, numGoroutines)

	for i := 0; i < numGoroutines; i++ {
		go func() {
			isNew, err := store.Remember(ctx, key, "payment-1", 1*time.Hour)
			if err != nil {
				results <- false
			} else {
				results <- isNew
			}
		}()
	}

	newCount := 0
	duplicateCount := 0
	for i := 0; i < numGoroutines; i++ {
		if <-results {
			newCount++
		} else {
			duplicateCount++
		}
	}

	assert.Equal(t, 1, newCount, "exactly one goroutine should record the key")
	assert.Equal(t, numGoroutines-1, duplicateCount, "all others should see a duplicate")
}

func TestInMemoryIdempotencyStore_Close(t *testing.T) {
	store := NewInMemoryIdempotencyStore()

	err := store.Close()
	assert.NoError(t, err)

	// Multiple closes should be safe
	err = store.Close()
	assert.NoError(t, err)
}
