package syncx

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCellSetGet(t *testing.T) {
	c := NewCell[int]()
	c.Set(42)

	assert.Equal(t, 42, c.Get())
	assert.Equal(t, 42, c.Get(), "Get must be repeatable")
}

func TestCellGetBlocksUntilSet(t *testing.T) {
	c := NewCell[string]()

	got := make(chan string)
	go func() {
		got <- c.Get()
	}()

	select {
	case v := <-got:
		t.Fatalf("Get returned %q before Set", v)
	case <-time.After(20 * time.Millisecond):
	}

	c.Set("ready")

	select {
	case v := <-got:
		assert.Equal(t, "ready", v)
	case <-time.After(time.Second):
		t.Fatal("Get did not return after Set")
	}
}

func TestCellManyReadersSameValue(t *testing.T) {
	c := NewCell[*struct{ n int }]()

	const readers = 50
	results := make(chan *struct{ n int }, readers)
	var wg sync.WaitGroup
	for i := 0; i < readers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- c.Get()
		}()
	}

	want := &struct{ n int }{n: 7}
	c.Set(want)
	wg.Wait()
	close(results)

	for got := range results {
		assert.Same(t, want, got)
	}
}

func TestCellDoubleSetPanics(t *testing.T) {
	c := NewCell[int]()
	c.Set(1)
	assert.Panics(t, func() { c.Set(2) })
}

func TestCellTakeYieldsOnce(t *testing.T) {
	c := NewCell[string]()
	c.Set("v")

	v, ok := c.Take()
	require.True(t, ok)
	assert.Equal(t, "v", v)

	_, ok = c.Take()
	assert.False(t, ok, "second Take must yield nothing")

	// Get still works after Take.
	assert.Equal(t, "v", c.Get())
}

func TestCellTakeBlocksUntilSet(t *testing.T) {
	c := NewCell[int]()

	var took int32
	done := make(chan struct{})
	go func() {
		defer close(done)
		v, ok := c.Take()
		require.True(t, ok)
		require.Equal(t, 9, v)
		atomic.StoreInt32(&took, 1)
	}()

	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, int32(0), atomic.LoadInt32(&took), "Take must wait for Set")

	c.Set(9)
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Take did not return after Set")
	}
}

func TestCellTryGet(t *testing.T) {
	c := NewCell[int]()

	_, ok := c.TryGet()
	assert.False(t, ok)

	c.Set(3)
	v, ok := c.TryGet()
	assert.True(t, ok)
	assert.Equal(t, 3, v)
}
