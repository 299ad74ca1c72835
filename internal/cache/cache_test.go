package cache

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadThroughMemoizes(t *testing.T) {
	c := New[int](Options{})
	calls := 0
	load := func(context.Context) (int, error) {
		calls++
		return 42, nil
	}
	v, hit, err := c.Get(context.Background(), "k", load)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, 42, v)

	v, hit, err = c.Get(context.Background(), "k", load)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, 42, v)
	assert.Equal(t, 1, calls)
}

func TestReadThroughDoesNotCacheErrors(t *testing.T) {
	c := New[string](Options{})
	boom := errors.New("boom")
	_, _, err := c.Get(context.Background(), "k", func(context.Context) (string, error) { return "", boom })
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, c.Len())
}

func TestReadThroughEvictsLeastRecentlyUsed(t *testing.T) {
	c := New[int](Options{Size: 2})
	ctx := context.Background()
	for i := range 3 {
		k := fmt.Sprintf("k%d", i)
		_, _, err := c.Get(ctx, k, func(context.Context) (int, error) { return i, nil })
		require.NoError(t, err)
	}
	assert.Equal(t, 2, c.Len())
	_, ok := c.Peek("k0")
	assert.False(t, ok)
}

func TestReadThroughExpires(t *testing.T) {
	c := New[int](Options{TTL: 20 * time.Millisecond})
	ctx := context.Background()
	_, _, err := c.Get(ctx, "k", func(context.Context) (int, error) { return 1, nil })
	require.NoError(t, err)
	time.Sleep(60 * time.Millisecond)
	_, ok := c.Peek("k")
	assert.False(t, ok)
}

func TestReadThroughCollapsesConcurrentMisses(t *testing.T) {
	c := New[int](Options{})
	var calls atomic.Int32
	release := make(chan struct{})
	load := func(context.Context) (int, error) {
		calls.Add(1)
		<-release
		return 7, nil
	}
	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, _, err := c.Get(context.Background(), "same", load)
			assert.NoError(t, err)
			assert.Equal(t, 7, v)
		}()
	}
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()
	assert.LessOrEqual(t, calls.Load(), int32(8))
	assert.GreaterOrEqual(t, calls.Load(), int32(1))
	assert.Equal(t, 1, c.Len())
}

func TestReadThroughWithoutTTLStartsNoGoroutine(t *testing.T) {
	before := runtime.NumGoroutine()
	caches := make([]*ReadThrough[int], 0, 32)
	for range 32 {
		caches = append(caches, New[int](Options{Size: 4}))
	}
	assert.Equal(t, before, runtime.NumGoroutine())
	assert.Len(t, caches, 32)
}
