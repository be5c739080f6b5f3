package workerspool

import (
	"runtime"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPool_WaitToStart(t *testing.T) {
	pool := NewWithParallelism(2)
	var count atomic.Int32
	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		pool.WaitToStart(func() {
			defer wg.Done()
			runtime.Gosched()
			count.Add(1)
		})
	}
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Timeout before all tasks were executed.")
	}
	assert.Equal(t, int32(10), count.Load())

	// No parallelism: runs inline.
	pool.SetMaxParallelism(0)
	ran := false
	pool.WaitToStart(func() { ran = true })
	assert.True(t, ran)
}

func TestPool_NumRanges(t *testing.T) {
	pool := NewWithParallelism(4)
	assert.Equal(t, 0, pool.NumRanges(0, 10))
	assert.Equal(t, 1, pool.NumRanges(5, 10))
	assert.Equal(t, 2, pool.NumRanges(25, 10))
	assert.Equal(t, 4, pool.NumRanges(1000, 10))

	pool.SetMaxParallelism(0)
	assert.False(t, pool.IsEnabled())
	assert.Equal(t, 1, pool.NumRanges(1000, 10))

	pool.SetMaxParallelism(-1)
	assert.True(t, pool.IsUnlimited())
	assert.LessOrEqual(t, pool.NumRanges(1_000_000, 1), runtime.NumCPU())
}

func TestPool_ParallelFor(t *testing.T) {
	for _, parallelism := range []int{0, 1, 3, -1} {
		pool := NewWithParallelism(parallelism)
		const n = 1001
		visits := make([]int32, n)
		pool.ParallelFor(n, 10, func(start, end int) {
			assert.Less(t, start, end)
			for ii := start; ii < end; ii++ {
				atomic.AddInt32(&visits[ii], 1)
			}
		})
		for ii, v := range visits {
			require.Equalf(t, int32(1), v, "parallelism=%d: item %d visited %d times", parallelism, ii, v)
		}
	}

	// Nothing to do.
	NewWithParallelism(4).ParallelFor(0, 10, func(_, _ int) { t.Fatal("unexpected call") })
}
