package simtime_test

import (
	"testing"

	"github.com/nsimlab/loadsim/pkg/simtime"
)

func TestRunUntilOrdersByTimeThenSeq(t *testing.T) {
	s := simtime.New()
	var order []string

	s.ScheduleAfter(5, func(float64) { order = append(order, "a") })
	s.ScheduleAfter(2, func(float64) { order = append(order, "b") })
	s.ScheduleAfter(2, func(float64) { order = append(order, "c") }) // same time, later seq
	s.ScheduleAfter(0, func(float64) { order = append(order, "d") })

	s.RunUntil(100)

	want := []string{"d", "b", "c", "a"}
	if len(order) != len(want) {
		t.Fatalf("got %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("got %v, want %v", order, want)
		}
	}
}

func TestRunUntilStopsAtHorizon(t *testing.T) {
	s := simtime.New()
	fired := 0
	s.ScheduleAfter(1, func(float64) { fired++ })
	s.ScheduleAfter(10, func(float64) { fired++ })

	s.RunUntil(5)
	if fired != 1 {
		t.Fatalf("fired = %d, want 1", fired)
	}
	if s.Pending() != 1 {
		t.Fatalf("pending = %d, want 1", s.Pending())
	}

	s.RunUntil(100)
	if fired != 2 {
		t.Fatalf("fired = %d, want 2", fired)
	}
}

func TestScheduleAfterNegativeDelayPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on negative delay")
		}
	}()
	simtime.New().ScheduleAfter(-1, func(float64) {})
}

func TestResetClearsStateBetweenRuns(t *testing.T) {
	s := simtime.New()
	s.ScheduleAfter(1, func(float64) {})
	s.RunUntil(100)
	if s.Dispatched() != 1 {
		t.Fatalf("dispatched = %d, want 1", s.Dispatched())
	}

	s.Reset()
	if s.Now() != 0 || s.Pending() != 0 || s.Dispatched() != 0 {
		t.Fatalf("reset left now=%g pending=%d dispatched=%d", s.Now(), s.Pending(), s.Dispatched())
	}
}

func TestNowIsMonotoneNonDecreasing(t *testing.T) {
	s := simtime.New()
	var times []float64
	for _, dt := range []float64{3, 1, 4, 1, 5, 0, 2} {
		d := dt
		s.ScheduleAfter(d, func(now float64) { times = append(times, now) })
	}
	s.RunUntil(1000)
	for i := 1; i < len(times); i++ {
		if times[i] < times[i-1] {
			t.Fatalf("time went backwards: %v", times)
		}
	}
}
