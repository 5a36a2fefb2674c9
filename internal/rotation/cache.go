package rotation

import "sync"

// Operators are pure functions of their arguments, and the convolution
// layers need the same one on every forward call. The cache keys on the
// full argument tuple; entries are immutable and shared freely across
// concurrent forward passes.

type cacheKey struct {
	height, width int
	orientations  int
	periodicity   float64
	diskMask      bool
}

var (
	mu     sync.RWMutex
	planar = map[cacheKey]*Operator{}
	group  = map[cacheKey]*GroupOperator{}
)

// Cached returns the planar operator for the tuple, building it on
// first use.
func Cached(height, width, orientations int, periodicity float64, diskMask bool) (*Operator, error) {
	key := cacheKey{height, width, orientations, periodicity, diskMask}

	mu.RLock()
	op, ok := planar[key]
	mu.RUnlock()
	if ok {
		return op, nil
	}

	op, err := Build(height, width, orientations, periodicity, diskMask)
	if err != nil {
		return nil, err
	}

	mu.Lock()
	// A racing builder may have beaten us; keep the first stored copy
	// so callers share one instance.
	if prior, ok := planar[key]; ok {
		op = prior
	} else {
		planar[key] = op
	}
	mu.Unlock()
	return op, nil
}

// CachedGroup returns the group operator for the tuple, building it on
// first use.
func CachedGroup(height, width, orientations int, periodicity float64, diskMask bool) (*GroupOperator, error) {
	key := cacheKey{height, width, orientations, periodicity, diskMask}

	mu.RLock()
	op, ok := group[key]
	mu.RUnlock()
	if ok {
		return op, nil
	}

	op, err := BuildGroup(height, width, orientations, periodicity, diskMask)
	if err != nil {
		return nil, err
	}

	mu.Lock()
	if prior, ok := group[key]; ok {
		op = prior
	} else {
		group[key] = op
	}
	mu.Unlock()
	return op, nil
}
