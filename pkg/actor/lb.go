package actor

import (
	"github.com/nsimlab/loadsim/pkg/distribution"
	"github.com/nsimlab/loadsim/pkg/message"
	"github.com/nsimlab/loadsim/pkg/metrics"
	"github.com/nsimlab/loadsim/pkg/netfabric"
	"github.com/nsimlab/loadsim/pkg/simtime"
	"github.com/nsimlab/loadsim/pkg/strategy"
)

// LoadBalancer is the gateway-mode actor: two independent bounded queues
// (request, response), each drained by its own worker. The request worker
// consults the strategy to pick a
// backend and stamps the forwarded request with ThroughLB so the backend
// knows to route its response back here.
type LoadBalancer struct {
	address string

	fabric   *netfabric.Fabric
	sched    *simtime.Scheduler
	sink     *metrics.Sink
	sampler  *distribution.Sampler
	strategy strategy.Strategy

	reqQueue boundedQueue
	resQueue boundedQueue
	reqBusy  bool
	resBusy  bool

	// baseProcessing and baseResponse are the LB's own per-direction
	// processing delay, drawn from the configured distribution.
	baseProcessing distribution.Spec
	baseResponse   distribution.Spec
	// strategyProcessing is the strategy's own per-call delay (e.g. ~0 for
	// round-robin, ~40ms mean for least-connections), added into the
	// request-path delay rather than charged separately.
	strategyProcessing distribution.Spec
}

// NewLoadBalancer registers a new LoadBalancer at address on fabric.
func NewLoadBalancer(address string, fabric *netfabric.Fabric, sched *simtime.Scheduler, sink *metrics.Sink, sampler *distribution.Sampler, strat strategy.Strategy, reqCapacity, resCapacity int, baseProcessing, baseResponse, strategyProcessing distribution.Spec) *LoadBalancer {
	lb := &LoadBalancer{
		address:            address,
		fabric:             fabric,
		sched:              sched,
		sink:               sink,
		sampler:            sampler,
		strategy:           strat,
		reqQueue:           newBoundedQueue(reqCapacity),
		resQueue:           newBoundedQueue(resCapacity),
		baseProcessing:     baseProcessing,
		baseResponse:       baseResponse,
		strategyProcessing: strategyProcessing,
	}
	fabric.Register(address, lb)
	return lb
}

func (lb *LoadBalancer) Kind() netfabric.EntityKind { return netfabric.KindLB }

func (lb *LoadBalancer) RequestQueueDepth() int  { return lb.reqQueue.len() }
func (lb *LoadBalancer) ResponseQueueDepth() int { return lb.resQueue.len() }

func (lb *LoadBalancer) Receive(from string, m message.Message) {
	now := lb.sched.Now()
	switch m.Kind {
	case message.Request:
		if lb.reqQueue.tryEnqueue(queueItem{sender: from, msg: m, arrival: now}) {
			lb.sink.RecordLBRequestQueueDepth(now, lb.reqQueue.len())
			lb.kickReq()
			return
		}
		lb.sink.RecordLBRequestDrop(now)
		lb.fabric.Send(lb.address, m.ClientIP, message.NewDropServer(m, "lb request queue full"))

	case message.Response:
		if lb.resQueue.tryEnqueue(queueItem{sender: from, msg: m, arrival: now}) {
			lb.sink.RecordLBResponseQueueDepth(now, lb.resQueue.len())
			lb.kickRes()
			return
		}
		lb.sink.RecordLBResponseDrop(now)
		lb.fabric.Send(lb.address, m.ClientIP, message.NewDropServer(m, "lb response queue full"))
	}
}

func (lb *LoadBalancer) kickReq() {
	if lb.reqBusy {
		return
	}
	lb.reqBusy = true
	lb.stepReq()
}

func (lb *LoadBalancer) stepReq() {
	item, ok := lb.reqQueue.dequeue()
	if !ok {
		lb.reqBusy = false
		return
	}
	lb.sink.RecordLBRequestQueueDepth(lb.sched.Now(), lb.reqQueue.len())

	delay := lb.sampler.Sample(lb.strategyProcessing) + lb.sampler.Sample(lb.baseProcessing)
	lb.sched.ScheduleAfter(delay, func(now float64) {
		target := lb.strategy.Select()
		forwarded := item.msg
		forwarded.ClientIP = item.sender
		forwarded.ThroughLB = true
		lb.fabric.Send(lb.address, target, forwarded)
		lb.stepReq()
	})
}

func (lb *LoadBalancer) kickRes() {
	if lb.resBusy {
		return
	}
	lb.resBusy = true
	lb.stepRes()
}

func (lb *LoadBalancer) stepRes() {
	item, ok := lb.resQueue.dequeue()
	if !ok {
		lb.resBusy = false
		return
	}
	lb.sink.RecordLBResponseQueueDepth(lb.sched.Now(), lb.resQueue.len())

	delay := lb.sampler.Sample(lb.baseResponse)
	lb.sched.ScheduleAfter(delay, func(now float64) {
		lb.fabric.Send(lb.address, item.msg.ClientIP, item.msg)
		lb.stepRes()
	})
}
