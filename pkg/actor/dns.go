package actor

import (
	"github.com/nsimlab/loadsim/pkg/distribution"
	"github.com/nsimlab/loadsim/pkg/message"
	"github.com/nsimlab/loadsim/pkg/metrics"
	"github.com/nsimlab/loadsim/pkg/netfabric"
	"github.com/nsimlab/loadsim/pkg/simtime"
	"github.com/nsimlab/loadsim/pkg/strategy"
)

// Topology names which actor the DNS server hands clients to.
type Topology int

const (
	// Gateway resolves every client to the fixed gateway load-balancer
	// address; the load balancer then picks a backend per request.
	Gateway Topology = iota
	// DNSLB resolves each client directly to a backend chosen by the
	// DNS server's own strategy; there is no load-balancer actor.
	DNSLB
)

// DNSServer answers name resolution requests. Its queue-depth samples are
// taken on both enqueue and dequeue, the same as the server and
// load-balancer actors, for a consistent queue-depth signal across actors.
type DNSServer struct {
	address string

	fabric  *netfabric.Fabric
	sched   *simtime.Scheduler
	sink    *metrics.Sink
	sampler *distribution.Sampler

	queue boundedQueue
	busy  bool

	serviceTime distribution.Spec
	topology    Topology

	// gatewayAddress is returned to every client in Gateway topology.
	gatewayAddress string
	// strategy and strategyDelay are only consulted in DNSLB topology.
	strategy      strategy.Strategy
	strategyDelay distribution.Spec
}

// NewDNSServer registers a new DNSServer at address on fabric. strat and
// strategyDelay are ignored when topology is Gateway.
func NewDNSServer(address string, fabric *netfabric.Fabric, sched *simtime.Scheduler, sink *metrics.Sink, sampler *distribution.Sampler, serviceTime distribution.Spec, capacity int, topology Topology, gatewayAddress string, strat strategy.Strategy, strategyDelay distribution.Spec) *DNSServer {
	d := &DNSServer{
		address:        address,
		fabric:         fabric,
		sched:          sched,
		sink:           sink,
		sampler:        sampler,
		queue:          newBoundedQueue(capacity),
		serviceTime:    serviceTime,
		topology:       topology,
		gatewayAddress: gatewayAddress,
		strategy:       strat,
		strategyDelay:  strategyDelay,
	}
	fabric.Register(address, d)
	return d
}

func (d *DNSServer) Kind() netfabric.EntityKind { return netfabric.KindDNS }

func (d *DNSServer) QueueDepth() int { return d.queue.len() }

func (d *DNSServer) Receive(from string, m message.Message) {
	if m.Kind != message.DNSRequest {
		return
	}
	now := d.sched.Now()
	if d.queue.tryEnqueue(queueItem{sender: from, msg: m, arrival: now}) {
		d.sink.RecordDNSQueueDepth(now, d.queue.len())
		d.kick()
		return
	}
	d.sink.RecordDNSDrop(now)
	d.fabric.Send(d.address, m.ClientIP, message.NewDropDNS(m, "dns queue full"))
}

func (d *DNSServer) kick() {
	if d.busy {
		return
	}
	d.busy = true
	d.step()
}

func (d *DNSServer) step() {
	item, ok := d.queue.dequeue()
	if !ok {
		d.busy = false
		return
	}
	d.sink.RecordDNSQueueDepth(d.sched.Now(), d.queue.len())

	svc := d.sampler.Sample(d.serviceTime)
	if d.topology == DNSLB {
		svc += d.sampler.Sample(d.strategyDelay)
	}
	d.sched.ScheduleAfter(svc, func(now float64) {
		resolved := d.gatewayAddress
		if d.topology == DNSLB {
			resolved = d.strategy.Select()
		}
		d.fabric.Send(d.address, item.msg.ClientIP, message.NewDNSResponse(item.msg, resolved))
		d.step()
	})
}
