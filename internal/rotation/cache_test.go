package rotation_test

import (
	"sync"
	"testing"

	"github.com/roto-ml/roto/internal/rotation"
)

func TestCachedReturnsSameOperator(t *testing.T) {
	a, err := rotation.Cached(3, 3, 4, rotation.FullTurn, true)
	if err != nil {
		t.Fatal(err)
	}
	b, err := rotation.Cached(3, 3, 4, rotation.FullTurn, true)
	if err != nil {
		t.Fatal(err)
	}
	if a != b {
		t.Error("identical keys should share one operator")
	}

	c, err := rotation.Cached(3, 3, 4, rotation.FullTurn, false)
	if err != nil {
		t.Fatal(err)
	}
	if a == c {
		t.Error("different disk mask must not share an operator")
	}
}

func TestCachedGroupReturnsSameOperator(t *testing.T) {
	a, err := rotation.CachedGroup(5, 5, 8, rotation.HalfTurn, true)
	if err != nil {
		t.Fatal(err)
	}
	b, err := rotation.CachedGroup(5, 5, 8, rotation.HalfTurn, true)
	if err != nil {
		t.Fatal(err)
	}
	if a != b {
		t.Error("identical keys should share one group operator")
	}
}

func TestCachedConcurrentAccess(t *testing.T) {
	var wg sync.WaitGroup
	ops := make([]*rotation.Operator, 16)
	for i := range ops {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			op, err := rotation.Cached(7, 7, 6, rotation.FullTurn, true)
			if err != nil {
				t.Error(err)
				return
			}
			ops[i] = op
		}(i)
	}
	wg.Wait()

	for i := 1; i < len(ops); i++ {
		if ops[i] != ops[0] {
			t.Fatal("concurrent lookups returned different operators")
		}
	}
}

func TestCachedPropagatesErrors(t *testing.T) {
	if _, err := rotation.Cached(0, 3, 4, rotation.FullTurn, false); err == nil {
		t.Error("invalid shape should not be cached silently")
	}
	if _, err := rotation.CachedGroup(3, 3, 0, rotation.FullTurn, false); err == nil {
		t.Error("invalid orientation count should not be cached silently")
	}
}
