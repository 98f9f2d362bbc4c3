// Package simtime implements the simulator's virtual-time event loop: a
// single-threaded min-heap of future events keyed by (time, sequence),
// dispatched with no wall-clock sleep anywhere in the path.
package simtime

import (
	"container/heap"
	"fmt"
)

// Action runs when its event is dispatched. now is the scheduler's current
// virtual time at the moment of dispatch, equal to the event's own time.
type Action func(now float64)

type event struct {
	time   float64
	seq    uint64
	action Action
}

// eventHeap orders by (time, seq) so that equal-time events dispatch in the
// order they were scheduled, giving the FIFO-per-pair guarantee the fabric
// relies on.
type eventHeap []*event

func (h eventHeap) Len() int { return len(h) }
func (h eventHeap) Less(i, j int) bool {
	if h[i].time != h[j].time {
		return h[i].time < h[j].time
	}
	return h[i].seq < h[j].seq
}
func (h eventHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *eventHeap) Push(x any)   { *h = append(*h, x.(*event)) }
func (h *eventHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return item
}

// Scheduler drives the simulation's single logical clock. It is not safe
// for concurrent use: every actor and every Action runs on the goroutine
// that calls RunUntil.
type Scheduler struct {
	now    float64
	seq    uint64
	heap   eventHeap
	events uint64 // total events dispatched, for diagnostics/tests
}

// New returns a Scheduler with its clock at zero.
func New() *Scheduler {
	s := &Scheduler{}
	heap.Init(&s.heap)
	return s
}

// Now returns the current virtual time.
func (s *Scheduler) Now() float64 { return s.now }

// Pending returns the number of events still in the queue.
func (s *Scheduler) Pending() int { return s.heap.Len() }

// Dispatched returns the total number of events dispatched so far.
func (s *Scheduler) Dispatched() uint64 { return s.events }

// ScheduleAfter enqueues action to run at now+dt. dt must be non-negative;
// a zero delay is legal and only advances the FIFO sequence, not the clock.
func (s *Scheduler) ScheduleAfter(dt float64, action Action) {
	if dt < 0 {
		panic(fmt.Sprintf("simtime: negative delay %g", dt))
	}
	s.seq++
	heap.Push(&s.heap, &event{time: s.now + dt, seq: s.seq, action: action})
}

// ScheduleWake is an alias for ScheduleAfter used at call sites where the
// scheduled action resumes a cooperative task that suspended itself rather
// than reacting to a freshly arrived message. The mechanics are identical;
// the name documents intent at the call site.
func (s *Scheduler) ScheduleWake(dt float64, resume Action) {
	s.ScheduleAfter(dt, resume)
}

// RunUntil pops and dispatches events in (time, seq) order, advancing Now
// to each event's time, until the heap is empty or the next event's time is
// >= horizon.
func (s *Scheduler) RunUntil(horizon float64) {
	for s.heap.Len() > 0 {
		next := s.heap[0]
		if next.time >= horizon {
			return
		}
		heap.Pop(&s.heap)
		s.now = next.time
		s.events++
		next.action(s.now)
	}
}

// Reset clears all pending events and resets the clock to zero, leaving the
// scheduler ready to drive the next run of a parameter sweep.
func (s *Scheduler) Reset() {
	s.now = 0
	s.seq = 0
	s.events = 0
	s.heap = s.heap[:0]
	heap.Init(&s.heap)
}
