package dispatch_test

import (
	"testing"
	"time"

	"github.com/reoring/fastskema/dispatch"
)

func TestRollingOptimizer(t *testing.T) {
	o := dispatch.NewRollingOptimizer(4, 2)
	const sig = "object:abc"
	o.Observe(sig, dispatch.BackendInterpreted, 10*time.Millisecond)
	o.Observe(sig, dispatch.BackendInterpreted, 10*time.Millisecond)
	o.Observe(sig, dispatch.BackendAccelerated, time.Millisecond)
	if _, ok := o.Recommend(sig); ok {
		t.Fatal("needs minSamples for both backends")
	}
	o.Observe(sig, dispatch.BackendAccelerated, time.Millisecond)
	if k, ok := o.Recommend(sig); !ok || k != dispatch.BackendAccelerated {
		t.Fatalf("got %v %v", k, ok)
	}

	// the window rolls: four slow samples push the fast ones out
	for i := 0; i < 4; i++ {
		o.Observe(sig, dispatch.BackendAccelerated, 50*time.Millisecond)
	}
	interp, acc, n := o.Averages(sig)
	if acc != 50*time.Millisecond || interp != 10*time.Millisecond || n != [2]int{2, 4} {
		t.Fatalf("averages interp=%s accel=%s n=%v", interp, acc, n)
	}
	if k, _ := o.Recommend(sig); k != dispatch.BackendInterpreted {
		t.Fatalf("got %v", k)
	}

	if _, ok := o.Recommend("other"); ok {
		t.Fatal("unknown signature")
	}
	o.Reset()
	if _, ok := o.Recommend(sig); ok {
		t.Fatal("reset kept samples")
	}
}

func TestNopStrategy(t *testing.T) {
	var s dispatch.Strategy = dispatch.NopStrategy{}
	s.Observe("x", dispatch.BackendAccelerated, time.Second)
	if _, ok := s.Recommend("x"); ok {
		t.Fatal("nop recommends nothing")
	}
}
