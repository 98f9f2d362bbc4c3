package actor

import (
	"github.com/nsimlab/loadsim/pkg/distribution"
	"github.com/nsimlab/loadsim/pkg/message"
	"github.com/nsimlab/loadsim/pkg/metrics"
	"github.com/nsimlab/loadsim/pkg/netfabric"
	"github.com/nsimlab/loadsim/pkg/simtime"
)

// ThinkTime configures the per-family parameters a client's inter-request
// backoff is drawn from. One Family is chosen uniformly at random every
// cycle.
type ThinkTime struct {
	Families []distribution.Family
	Specs    map[distribution.Family]distribution.Spec
}

func (t ThinkTime) sample(s *distribution.Sampler) float64 {
	family := s.ChooseFamily(t.Families)
	spec := t.Specs[family]
	spec.Family = family
	return s.Sample(spec)
}

// Client runs the think/resolve/request/back-off cycle: at most one of
// awaiting-DNS and awaiting-response is ever true, so a single in-flight
// correlation slot is enough to route the next
// inbound message unambiguously.
type Client struct {
	id      string
	address string

	fabric  *netfabric.Fabric
	sched   *simtime.Scheduler
	sink    *metrics.Sink
	sampler *distribution.Sampler

	dnsAddress  string
	cacheWindow float64
	termProb    float64
	thinkTime   ThinkTime

	alive            bool
	awaitingDNS      bool
	awaitingResponse bool
	dropped          bool

	cachedAddress     string
	cachedInstalledAt float64
	hasCached         bool

	cycleStart float64
}

// NewClient registers a new Client at address on fabric but does not start
// its cycle; call Start once the simulation should bring it to life.
func NewClient(id, address, dnsAddress string, cacheWindow, termProb float64, thinkTime ThinkTime, fabric *netfabric.Fabric, sched *simtime.Scheduler, sink *metrics.Sink, sampler *distribution.Sampler) *Client {
	c := &Client{
		id:          id,
		address:     address,
		fabric:      fabric,
		sched:       sched,
		sink:        sink,
		sampler:     sampler,
		dnsAddress:  dnsAddress,
		cacheWindow: cacheWindow,
		termProb:    termProb,
		thinkTime:   thinkTime,
	}
	fabric.Register(address, c)
	return c
}

func (c *Client) Kind() netfabric.EntityKind { return netfabric.KindClient }

// Alive reports whether this client has not yet terminated.
func (c *Client) Alive() bool { return c.alive }

// Start brings the client to life: registers its presence with the metrics
// sink and begins its think/resolve/request/back-off cycle immediately.
func (c *Client) Start(now float64) {
	c.alive = true
	c.sink.RecordClientBirth(now)
	c.runCycle(now)
}

// runCycle is the gate at the top of every cycle: with probability
// termProb the client terminates instead of issuing more work.
func (c *Client) runCycle(now float64) {
	if !c.alive {
		return
	}
	if c.sampler.Bool(c.termProb) {
		c.terminate(now)
		return
	}
	c.cycleStart = now
	c.resolve(now)
}

// resolve uses the cached address if it is still within the invalidation
// window, otherwise issues a dns_request and waits for the answer.
func (c *Client) resolve(now float64) {
	if c.hasCached && now-c.cachedInstalledAt < c.cacheWindow {
		c.issueRequest(c.cachedAddress)
		return
	}
	c.awaitingDNS = true
	c.fabric.Send(c.address, c.dnsAddress, message.NewDNSRequest(c.id, c.address, now))
}

// issueRequest sends the request for this cycle and waits for its outcome.
// start_timestamp is always cycleStart, not now, so that a cycle's latency
// includes any DNS resolution time spent earlier in the same cycle.
func (c *Client) issueRequest(target string) {
	c.awaitingResponse = true
	req := message.NewRequest(c.id, c.address, c.cycleStart)
	c.fabric.Send(c.address, target, req)
}

// Receive routes an inbound message to whichever suspension point is
// currently active; a message that doesn't match the awaited kind (a stray
// reply for a cycle this client has already moved past) is ignored.
func (c *Client) Receive(from string, m message.Message) {
	switch m.Kind {
	case message.DNSResponse:
		if !c.awaitingDNS {
			return
		}
		c.awaitingDNS = false
		now := c.sched.Now()
		c.cachedAddress = m.ResolvedAddress
		c.cachedInstalledAt = now
		c.hasCached = true
		c.issueRequest(m.ResolvedAddress)

	case message.DropDNS:
		if !c.awaitingDNS {
			return
		}
		c.awaitingDNS = false
		c.dropped = true
		c.backoff(c.sched.Now())

	case message.Response:
		if !c.awaitingResponse {
			return
		}
		c.awaitingResponse = false
		now := c.sched.Now()
		c.sink.RecordLatency(c.cycleStart, now-c.cycleStart, now)
		c.backoff(now)

	case message.DropServer:
		if !c.awaitingResponse {
			return
		}
		c.awaitingResponse = false
		c.dropped = true
		c.backoff(c.sched.Now())
	}
}

// backoff clears the dropped flag and schedules the next cycle after an
// interval drawn from the configured think-time distribution.
func (c *Client) backoff(now float64) {
	c.dropped = false
	q := c.thinkTime.sample(c.sampler)
	c.sched.ScheduleAfter(q, c.runCycle)
}

// terminate removes the client from the fabric and decrements the
// concurrent-client gauge. Any response still in flight for this client
// becomes a no-op on delivery since it is no longer registered.
func (c *Client) terminate(now float64) {
	c.alive = false
	c.fabric.Unregister(c.address)
	c.sink.RecordClientDeath(now)
}
