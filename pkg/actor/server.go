package actor

import (
	"github.com/nsimlab/loadsim/pkg/distribution"
	"github.com/nsimlab/loadsim/pkg/message"
	"github.com/nsimlab/loadsim/pkg/metrics"
	"github.com/nsimlab/loadsim/pkg/netfabric"
	"github.com/nsimlab/loadsim/pkg/simtime"
)

// Server is a backend: one bounded request queue, one worker that samples a
// service time per request and accumulates busy time. Its response routing
// reads the canonical ThroughLB field on the request to decide whether to
// answer the client directly or hand the response back to the configured
// load balancer.
type Server struct {
	address   string
	lbAddress string

	fabric  *netfabric.Fabric
	sched   *simtime.Scheduler
	sink    *metrics.Sink
	sampler *distribution.Sampler

	serviceTime distribution.Spec
	queue       boundedQueue
	busy        bool

	busyTime  float64
	startedAt float64
}

// NewServer registers a new Server at address on fabric. lbAddress is the
// address responses are routed to when ThroughLB is set; it is unused in
// DNS-LB topologies and may be empty there.
func NewServer(address, lbAddress string, fabric *netfabric.Fabric, sched *simtime.Scheduler, sink *metrics.Sink, sampler *distribution.Sampler, serviceTime distribution.Spec, capacity int) *Server {
	s := &Server{
		address:     address,
		lbAddress:   lbAddress,
		fabric:      fabric,
		sched:       sched,
		sink:        sink,
		sampler:     sampler,
		serviceTime: serviceTime,
		queue:       newBoundedQueue(capacity),
		startedAt:   sched.Now(),
	}
	fabric.Register(address, s)
	return s
}

func (s *Server) Kind() netfabric.EntityKind { return netfabric.KindServer }

// Address returns the fabric address this server is registered under.
func (s *Server) Address() string { return s.address }

func (s *Server) QueueDepth() int { return s.queue.len() }

// Receive accepts a request, enqueuing it if the queue has room or emitting
// a drop_server back to the client if it is full. Any other message kind
// arriving here is a no-op: a server only ever receives requests.
func (s *Server) Receive(from string, m message.Message) {
	if m.Kind != message.Request {
		return
	}
	now := s.sched.Now()
	if s.queue.tryEnqueue(queueItem{sender: from, msg: m, arrival: now}) {
		s.sink.RecordServerQueueDepth(s.address, now, s.queue.len())
		s.kick()
		return
	}
	s.sink.RecordServerDrop(s.address, now)
	s.fabric.Send(s.address, m.ClientIP, message.NewDropServer(m, "server queue full"))
}

// kick starts the worker if it is idle and there is work to do.
func (s *Server) kick() {
	if s.busy {
		return
	}
	s.busy = true
	s.step()
}

// step dequeues the next item, if any, and runs its service time as a
// scheduled continuation; when the queue is empty it goes idle and waits
// for the next Receive to call kick again.
func (s *Server) step() {
	item, ok := s.queue.dequeue()
	if !ok {
		s.busy = false
		return
	}
	s.sink.RecordServerQueueDepth(s.address, s.sched.Now(), s.queue.len())

	serviceTime := s.sampler.Sample(s.serviceTime)
	s.sched.ScheduleAfter(serviceTime, func(now float64) {
		s.busyTime += serviceTime
		resp := message.NewResponse(item.msg, s.address)
		dst := item.msg.ClientIP
		if item.msg.ThroughLB {
			dst = s.lbAddress
		}
		s.fabric.Send(s.address, dst, resp)
		s.step()
	})
}

// Utilization returns busy_time / (now - started_at), the fraction of this
// server's lifetime spent actively serving a request.
func (s *Server) Utilization(now float64) float64 {
	elapsed := now - s.startedAt
	if elapsed <= 0 {
		return 0
	}
	return s.busyTime / elapsed
}
