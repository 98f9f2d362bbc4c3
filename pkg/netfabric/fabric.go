// Package netfabric is the simulated network: a registry mapping addresses
// to entities and a send/deliver path that schedules message arrival after
// a per-(src-kind, dst-kind) transport delay.
package netfabric

import (
	"fmt"

	"github.com/nsimlab/loadsim/pkg/message"
	"github.com/nsimlab/loadsim/pkg/simtime"
)

// EntityKind classifies an addressable entity for the purpose of looking up
// a transport delay; it carries no other behavior.
type EntityKind int

const (
	KindClient EntityKind = iota
	KindDNS
	KindLB
	KindServer
)

func (k EntityKind) String() string {
	switch k {
	case KindClient:
		return "client"
	case KindDNS:
		return "dns"
	case KindLB:
		return "lb"
	case KindServer:
		return "server"
	default:
		return "unknown"
	}
}

// Entity is anything addressable on the fabric. Receive is invoked
// synchronously, inside the scheduler's current event, whenever a message
// addressed to this entity is delivered.
type Entity interface {
	Kind() EntityKind
	Receive(from string, m message.Message)
}

// edge identifies a (source kind, destination kind) transport-delay lookup.
type edge struct {
	src, dst EntityKind
}

// Fabric is the address->entity registry plus the delayed send path.
// Entities are looked up by address only; there is no entity->address
// lookup. It is not safe for concurrent use, matching the
// single-threaded cooperative scheduler it is built on.
type Fabric struct {
	scheduler *simtime.Scheduler
	entities  map[string]Entity
	delays    map[edge]float64
}

// New returns a Fabric driven by sched, with no registered entities and no
// configured transport delays (every edge defaults to zero).
func New(sched *simtime.Scheduler) *Fabric {
	return &Fabric{
		scheduler: sched,
		entities:  make(map[string]Entity),
		delays:    make(map[edge]float64),
	}
}

// Register associates address with entity. A message may not be sent to
// address before this call; sending to an unregistered address is a
// programming error and Send panics.
func (f *Fabric) Register(address string, entity Entity) {
	f.entities[address] = entity
}

// Unregister removes address from the registry, matching a client's
// departure from the simulation. It is safe to call even if the entity
// still has in-flight messages addressed to it; those deliveries become
// no-ops (see deliver).
func (f *Fabric) Unregister(address string) {
	delete(f.entities, address)
}

// SetDelay configures the one-way transport delay applied to every message
// sent from an entity of kind src to an entity of kind dst. Unconfigured
// pairs default to zero delay.
func (f *Fabric) SetDelay(src, dst EntityKind, delay float64) {
	f.delays[edge{src, dst}] = delay
}

func (f *Fabric) delayFor(src, dst EntityKind) float64 {
	return f.delays[edge{src, dst}]
}

// Lookup returns the entity registered at address, if any.
func (f *Fabric) Lookup(address string) (Entity, bool) {
	e, ok := f.entities[address]
	return e, ok
}

// Send schedules delivery of m from src to dst after the configured
// transport delay for (src.kind, dst.kind). Both addresses must already be
// registered; sending from or to an unregistered address is a programming
// error, not a capacity overflow, and panics immediately rather than being
// silently dropped.
func (f *Fabric) Send(src, dst string, m message.Message) {
	srcEntity, ok := f.entities[src]
	if !ok {
		panic(fmt.Sprintf("netfabric: send from unregistered address %q", src))
	}
	dstEntity, ok := f.entities[dst]
	if !ok {
		panic(fmt.Sprintf("netfabric: send to unregistered address %q", dst))
	}

	delay := f.delayFor(srcEntity.Kind(), dstEntity.Kind())
	f.scheduler.ScheduleAfter(delay, func(float64) {
		f.deliver(src, dst, m)
	})
}

// deliver invokes the destination's Receive if it is still registered. A
// destination that unregistered itself (a client that terminated) between
// send and delivery simply drops the message on the floor: nothing awaits
// it any longer, so this is not an error.
func (f *Fabric) deliver(src, dst string, m message.Message) {
	entity, ok := f.entities[dst]
	if !ok {
		return
	}
	entity.Receive(src, m)
}
