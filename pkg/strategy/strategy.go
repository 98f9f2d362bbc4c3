// Package strategy implements the pluggable backend-selection policies
// consulted by the load balancer (gateway mode) or the DNS server (DNS-LB
// mode): round-robin, least-connections, and random. Each is a tiny
// capability interface with no inheritance hierarchy.
package strategy

import (
	"fmt"

	"github.com/nsimlab/loadsim/pkg/distribution"
)

// QueueDepth is consulted by least-connections to read a server's current
// request-queue length without strategy owning the server itself.
type QueueDepth func(address string) int

// Strategy selects one backend address from a registered set.
type Strategy interface {
	// Select returns the address of the backend to route to. It panics if
	// no servers are registered; callers must guarantee at least one
	// server exists before routing traffic, since an empty server set is
	// a configuration error caught at setup time, not a runtime drop.
	Select() string
	Register(address string)
	Unregister(address string)
	// Name identifies the strategy for config parsing and CSV row labels.
	Name() string
}

// New constructs the strategy named by kind. An unknown name is a
// configuration error.
func New(kind string, sampler *distribution.Sampler, depth QueueDepth) (Strategy, error) {
	switch kind {
	case "round_robin":
		return NewRoundRobin(), nil
	case "least_connections":
		return NewLeastConnections(depth), nil
	case "random":
		return NewRandom(sampler), nil
	default:
		return nil, fmt.Errorf("strategy: unknown kind %q", kind)
	}
}

// RoundRobin cycles through registered servers in registration order.
type RoundRobin struct {
	servers []string
	next    int
}

func NewRoundRobin() *RoundRobin { return &RoundRobin{} }

func (r *RoundRobin) Name() string { return "round_robin" }

func (r *RoundRobin) Select() string {
	if len(r.servers) == 0 {
		panic("strategy: round_robin.Select with no registered servers")
	}
	addr := r.servers[r.next%len(r.servers)]
	r.next = (r.next + 1) % len(r.servers)
	return addr
}

func (r *RoundRobin) Register(address string) {
	r.servers = append(r.servers, address)
}

func (r *RoundRobin) Unregister(address string) {
	for i, a := range r.servers {
		if a == address {
			r.servers = append(r.servers[:i], r.servers[i+1:]...)
			if r.next > i {
				r.next--
			}
			return
		}
	}
}

// LeastConnections returns the server with the smallest current request
// queue, breaking ties by registration order (the first-registered server
// among those tied wins).
type LeastConnections struct {
	servers []string
	depth   QueueDepth
}

func NewLeastConnections(depth QueueDepth) *LeastConnections {
	return &LeastConnections{depth: depth}
}

func (l *LeastConnections) Name() string { return "least_connections" }

func (l *LeastConnections) Select() string {
	if len(l.servers) == 0 {
		panic("strategy: least_connections.Select with no registered servers")
	}
	best := l.servers[0]
	bestDepth := l.depth(best)
	for _, addr := range l.servers[1:] {
		d := l.depth(addr)
		if d < bestDepth {
			best, bestDepth = addr, d
		}
	}
	return best
}

func (l *LeastConnections) Register(address string) {
	l.servers = append(l.servers, address)
}

func (l *LeastConnections) Unregister(address string) {
	for i, a := range l.servers {
		if a == address {
			l.servers = append(l.servers[:i], l.servers[i+1:]...)
			return
		}
	}
}

// Random chooses uniformly among registered servers using the simulation's
// seeded RNG, so draws remain reproducible across identical runs.
type Random struct {
	servers []string
	sampler *distribution.Sampler
}

func NewRandom(sampler *distribution.Sampler) *Random {
	return &Random{sampler: sampler}
}

func (r *Random) Name() string { return "random" }

func (r *Random) Select() string {
	if len(r.servers) == 0 {
		panic("strategy: random.Select with no registered servers")
	}
	return r.servers[r.sampler.Intn(len(r.servers))]
}

func (r *Random) Register(address string) {
	r.servers = append(r.servers, address)
}

func (r *Random) Unregister(address string) {
	for i, a := range r.servers {
		if a == address {
			r.servers = append(r.servers[:i], r.servers[i+1:]...)
			return
		}
	}
}
