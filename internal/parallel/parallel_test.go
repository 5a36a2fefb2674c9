package parallel

import (
	"runtime"
	"sync/atomic"
	"testing"
	"time"
)

func TestForCoversAllIndices(t *testing.T) {
	const n = 10_000
	covered := make([]int32, n)

	For(n, func(start, end int) {
		for i := start; i < end; i++ {
			atomic.AddInt32(&covered[i], 1)
		}
	})

	for i, c := range covered {
		if c != 1 {
			t.Fatalf("index %d visited %d times, want exactly once", i, c)
		}
	}
}

func TestForSmallRunsInline(t *testing.T) {
	var calls int
	For(5, func(start, end int) {
		calls++
		if start != 0 || end != 5 {
			t.Errorf("inline range = [%d, %d), want [0, 5)", start, end)
		}
	})
	if calls != 1 {
		t.Errorf("small loop split into %d ranges, want 1", calls)
	}
}

func TestForZeroAndNegative(t *testing.T) {
	For(0, func(start, end int) {
		t.Error("fn called for n = 0")
	})
	For(-3, func(start, end int) {
		t.Error("fn called for negative n")
	})
}

func TestForEachPlaneCoversAllIndices(t *testing.T) {
	const n = 37
	covered := make([]int32, n)

	ForEachPlane(n, func(i int) {
		atomic.AddInt32(&covered[i], 1)
	})

	for i, c := range covered {
		if c != 1 {
			t.Fatalf("plane %d visited %d times, want exactly once", i, c)
		}
	}
}

// TestForEachPlaneFansOutSmallCounts checks that two plane units run
// concurrently even though two is far below the chunking threshold of
// For. A conv forward over a batch-1 input fans out over only a
// handful of output planes and still has to use every core.
func TestForEachPlaneFansOutSmallCounts(t *testing.T) {
	if runtime.NumCPU() < 2 {
		t.Skip("needs at least two CPUs")
	}

	barrier := make(chan struct{})
	done := make(chan struct{})
	go func() {
		ForEachPlane(2, func(i int) {
			// Each unit waits for its peer; completes only if both
			// are in flight at once.
			select {
			case barrier <- struct{}{}:
			case <-barrier:
			}
		})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("plane units did not run concurrently")
	}
}

func TestForEach(t *testing.T) {
	const n = 2_000
	var sum int64
	ForEach(n, func(i int) {
		atomic.AddInt64(&sum, int64(i))
	})

	want := int64(n) * int64(n-1) / 2
	if sum != want {
		t.Errorf("sum = %d, want %d", sum, want)
	}
}
