package conncache

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dberrors "github.com/Mobinergy/database-kit/pkg/errors"
	"github.com/Mobinergy/database-kit/pkg/testutil"
)

func TestGetAcquiresOnceForConcurrentCallers(t *testing.T) {
	ctx, cancel := testutil.TestContext(t)
	defer cancel()

	pool := &testutil.FakePool{Delay: 50 * time.Millisecond}
	cache := New[string]("test")

	const callers = 20
	results := make(chan string, callers)
	errs := make(chan error, callers)

	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			conn, err := cache.Get(ctx, "db1", pool)
			results <- conn
			errs <- err
		}()
	}
	wg.Wait()
	close(results)
	close(errs)

	assert.Equal(t, 1, pool.Acquires(), "acquire must run exactly once")
	for err := range errs {
		require.NoError(t, err)
	}
	for conn := range results {
		assert.Equal(t, "conn-1", conn, "all callers must see the same connection")
	}
}

func TestGetDistinctKeysDoNotBlockEachOther(t *testing.T) {
	ctx, cancel := testutil.TestContext(t)
	defer cancel()

	cache := New[string]("test")
	slow := &testutil.FakePool{Delay: 300 * time.Millisecond}
	fast := &testutil.FakePool{}

	go cache.Get(ctx, "a", slow)
	// Give the slow owner time to win key "a".
	time.Sleep(10 * time.Millisecond)

	start := time.Now()
	conn, err := cache.Get(ctx, "b", fast)
	require.NoError(t, err)
	assert.Equal(t, "conn-1", conn)
	assert.Less(t, time.Since(start), 200*time.Millisecond,
		"a slow pool on one key must not delay another key")
}

func TestGetAfterReleaseAllAcquiresFresh(t *testing.T) {
	ctx, cancel := testutil.TestContext(t)
	defer cancel()

	pool := &testutil.FakePool{}
	cache := New[string]("test")

	conn, err := cache.Get(ctx, "db1", pool)
	require.NoError(t, err)
	assert.Equal(t, "conn-1", conn)

	assert.Equal(t, 1, cache.ReleaseAll())
	assert.Equal(t, []string{"conn-1"}, pool.Released())

	conn, err = cache.Get(ctx, "db1", pool)
	require.NoError(t, err)
	assert.Equal(t, "conn-2", conn, "a drained key must acquire fresh")
	assert.Equal(t, 2, pool.Acquires())
}

func TestReleaseAllTwice(t *testing.T) {
	ctx, cancel := testutil.TestContext(t)
	defer cancel()

	pool := &testutil.FakePool{}
	cache := New[string]("test")

	_, err := cache.Get(ctx, "db1", pool)
	require.NoError(t, err)
	_, err = cache.Get(ctx, "db2", pool)
	require.NoError(t, err)

	assert.Equal(t, 2, cache.ReleaseAll())
	assert.Equal(t, 0, cache.ReleaseAll(), "second release must find nothing")
	assert.Len(t, pool.Released(), 2, "no connection is released twice")
}

func TestReleaseAllWaitsForInFlightAcquisition(t *testing.T) {
	ctx, cancel := testutil.TestContext(t)
	defer cancel()

	pool := &testutil.FakePool{Delay: 80 * time.Millisecond}
	cache := New[string]("test")

	started := make(chan struct{})
	go func() {
		close(started)
		cache.Get(ctx, "db1", pool)
	}()
	<-started
	time.Sleep(10 * time.Millisecond) // let the owner enter Acquire

	released := cache.ReleaseAll()
	assert.Equal(t, 1, released, "drain must wait for the in-flight acquisition, then release it")
	assert.Equal(t, []string{"conn-1"}, pool.Released())
}

func TestFailedAcquisitionSharedByWaiters(t *testing.T) {
	ctx, cancel := testutil.TestContext(t)
	defer cancel()

	acquireErr := errors.New("database is on fire")
	pool := &testutil.FakePool{Delay: 50 * time.Millisecond, Err: acquireErr}
	cache := New[string]("test")

	const callers = 2
	errs := make(chan error, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := cache.Get(ctx, "db2", pool)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	assert.Equal(t, 1, pool.Acquires(), "waiters must not re-trigger a failed acquisition")
	for err := range errs {
		require.Error(t, err)
		assert.ErrorIs(t, err, acquireErr)
		assert.True(t, dberrors.IsType(err, dberrors.ErrorTypeConnection))
	}
}

func TestFailedAcquisitionCachedUntilDrain(t *testing.T) {
	ctx, cancel := testutil.TestContext(t)
	defer cancel()

	acquireErr := errors.New("refused")
	pool := &testutil.FakePool{Err: acquireErr}
	cache := New[string]("test")

	_, err := cache.Get(ctx, "db1", pool)
	require.ErrorIs(t, err, acquireErr)

	// The failure is memoized: no second attempt before a drain.
	_, err = cache.Get(ctx, "db1", pool)
	require.ErrorIs(t, err, acquireErr)
	assert.Equal(t, 1, pool.Acquires())

	// The failed entry has nothing to release; the batch reports zero and
	// does not error.
	assert.Equal(t, 0, cache.ReleaseAll())

	// After the drain the key retries fresh.
	pool.Err = nil
	conn, err := cache.Get(ctx, "db1", pool)
	require.NoError(t, err)
	assert.Equal(t, "conn-2", conn)
}

func TestReleaseAllSkipsFailedEntriesButReleasesRest(t *testing.T) {
	ctx, cancel := testutil.TestContext(t)
	defer cancel()

	good := &testutil.FakePool{}
	bad := &testutil.FakePool{Err: errors.New("nope")}
	cache := New[string]("test")

	_, err := cache.Get(ctx, "ok", good)
	require.NoError(t, err)
	_, err = cache.Get(ctx, "broken", bad)
	require.Error(t, err)

	assert.Equal(t, 1, cache.ReleaseAll(), "the failed entry must not abort the batch")
	assert.Equal(t, []string{"conn-1"}, good.Released())
}

func TestLen(t *testing.T) {
	ctx, cancel := testutil.TestContext(t)
	defer cancel()

	pool := &testutil.FakePool{}
	cache := New[string]("test")
	assert.Zero(t, cache.Len())

	cache.Get(ctx, "a", pool)
	cache.Get(ctx, "b", pool)
	assert.Equal(t, 2, cache.Len())

	cache.ReleaseAll()
	assert.Zero(t, cache.Len())
}

func TestGetStress(t *testing.T) {
	ctx, cancel := testutil.TestContext(t)
	defer cancel()

	pool := &testutil.FakePool{Delay: time.Millisecond}
	cache := New[string]("stress")

	keys := []string{"a", "b", "c", "d"}
	var wg sync.WaitGroup
	seen := make([]map[string]string, 16)
	for g := 0; g < 16; g++ {
		wg.Add(1)
		seen[g] = make(map[string]string)
		go func(mine map[string]string) {
			defer wg.Done()
			for i := 0; i < 20; i++ {
				key := keys[i%len(keys)]
				conn, err := cache.Get(ctx, key, pool)
				if err != nil {
					t.Errorf("get %s: %v", key, err)
					return
				}
				if prev, ok := mine[key]; ok && prev != conn {
					t.Errorf("key %s changed from %s to %s without a drain", key, prev, conn)
					return
				}
				mine[key] = conn
			}
		}(seen[g])
	}
	wg.Wait()

	assert.Equal(t, len(keys), pool.Acquires(), "one acquisition per key")
	assert.Equal(t, len(keys), cache.ReleaseAll())

	// Every goroutine saw the same connection for a given key.
	for _, key := range keys {
		var want string
		for _, mine := range seen {
			got, ok := mine[key]
			if !ok {
				continue
			}
			if want == "" {
				want = got
			}
			assert.Equal(t, want, got)
		}
	}
}

func TestContextUnused(t *testing.T) {
	// A cancelled waiter context does not disturb the owner's acquisition.
	pool := &testutil.FakePool{Delay: 50 * time.Millisecond}
	cache := New[string]("test")

	ownerCtx, ownerCancel := testutil.TestContext(t)
	defer ownerCancel()

	ownerDone := make(chan error, 1)
	go func() {
		_, err := cache.Get(ownerCtx, "db1", pool)
		ownerDone <- err
	}()
	time.Sleep(10 * time.Millisecond)

	waiterCtx, waiterCancel := context.WithCancel(context.Background())
	waiterCancel() // already cancelled

	conn, err := cache.Get(waiterCtx, "db1", pool)
	require.NoError(t, err, "the waiter rides on the owner's acquisition")
	assert.Equal(t, "conn-1", conn)
	require.NoError(t, <-ownerDone)
}
