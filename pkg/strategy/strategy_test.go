package strategy_test

import (
	"testing"

	"github.com/nsimlab/loadsim/pkg/distribution"
	"github.com/nsimlab/loadsim/pkg/strategy"
)

func TestRoundRobinCyclesInRegistrationOrder(t *testing.T) {
	rr := strategy.NewRoundRobin()
	rr.Register("a")
	rr.Register("b")
	rr.Register("c")

	got := []string{rr.Select(), rr.Select(), rr.Select(), rr.Select()}
	want := []string{"a", "b", "c", "a"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestRoundRobinSingleServerAlwaysReturnsIt(t *testing.T) {
	rr := strategy.NewRoundRobin()
	rr.Register("only")
	for i := 0; i < 5; i++ {
		if got := rr.Select(); got != "only" {
			t.Fatalf("got %q, want %q", got, "only")
		}
	}
}

func TestLeastConnectionsTieBreaksByRegistrationOrder(t *testing.T) {
	depths := map[string]int{"a": 0, "b": 0, "c": 0}
	lc := strategy.NewLeastConnections(func(addr string) int { return depths[addr] })
	lc.Register("a")
	lc.Register("b")
	lc.Register("c")

	for i := 0; i < 10; i++ {
		if got := lc.Select(); got != "a" {
			t.Fatalf("iteration %d: got %q, want %q with all depths equal", i, got, "a")
		}
	}
}

func TestLeastConnectionsPicksSmallestDepth(t *testing.T) {
	depths := map[string]int{"a": 5, "b": 1, "c": 3}
	lc := strategy.NewLeastConnections(func(addr string) int { return depths[addr] })
	lc.Register("a")
	lc.Register("b")
	lc.Register("c")

	if got := lc.Select(); got != "b" {
		t.Fatalf("got %q, want %q", got, "b")
	}
}

func TestRandomChoosesAmongRegistered(t *testing.T) {
	r := strategy.NewRandom(distribution.NewSampler(1))
	r.Register("a")
	r.Register("b")
	valid := map[string]bool{"a": true, "b": true}
	for i := 0; i < 20; i++ {
		if got := r.Select(); !valid[got] {
			t.Fatalf("got %q, not in registered set", got)
		}
	}
}

func TestUnregisterRemovesServer(t *testing.T) {
	rr := strategy.NewRoundRobin()
	rr.Register("a")
	rr.Register("b")
	rr.Unregister("a")
	if got := rr.Select(); got != "b" {
		t.Fatalf("got %q, want %q", got, "b")
	}
}

func TestNewRejectsUnknownKind(t *testing.T) {
	if _, err := strategy.New("bogus", nil, nil); err == nil {
		t.Fatal("expected error for unknown strategy kind")
	}
}
