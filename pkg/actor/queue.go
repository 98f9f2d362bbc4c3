// Package actor implements the four cooperative state machines the
// simulator drives: backend server, load balancer, DNS server, and client.
// Each actor is a netfabric.Entity whose only suspension points are
// scheduling a future continuation ("sleep dt") or waiting for Receive to
// be called again ("await event") — there is no goroutine per actor and no
// real blocking anywhere in this package.
package actor

import "github.com/nsimlab/loadsim/pkg/message"

// queueItem is one pending piece of work sitting in a bounded queue.
type queueItem struct {
	sender  string
	msg     message.Message
	arrival float64
}

// boundedQueue is the fixed-capacity FIFO every actor's inbox is built on.
// Enqueue and dequeue are O(1) amortized; overflow is reported to the
// caller rather than handled here, since the drop policy (who gets
// notified, with which message) differs per actor.
type boundedQueue struct {
	items    []queueItem
	capacity int
}

func newBoundedQueue(capacity int) boundedQueue {
	return boundedQueue{capacity: capacity}
}

func (q *boundedQueue) tryEnqueue(item queueItem) bool {
	if len(q.items) >= q.capacity {
		return false
	}
	q.items = append(q.items, item)
	return true
}

func (q *boundedQueue) dequeue() (queueItem, bool) {
	if len(q.items) == 0 {
		return queueItem{}, false
	}
	item := q.items[0]
	q.items = q.items[1:]
	return item, true
}

func (q *boundedQueue) len() int { return len(q.items) }
