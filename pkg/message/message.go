// Package message defines the typed envelopes exchanged on the simulated
// network fabric: DNS queries and answers, client requests and server
// responses, and the drop notifications a full queue sends back to the
// client that originated the work.
package message

// Kind identifies which variant of Message is populated. Only the fields
// documented for a given Kind are meaningful; the rest are zero.
type Kind int

const (
	DNSRequest Kind = iota
	DNSResponse
	Request
	Response
	DropServer
	DropDNS
)

func (k Kind) String() string {
	switch k {
	case DNSRequest:
		return "dns_request"
	case DNSResponse:
		return "dns_response"
	case Request:
		return "request"
	case Response:
		return "response"
	case DropServer:
		return "drop_server"
	case DropDNS:
		return "drop_dns"
	default:
		return "unknown"
	}
}

// Message is a tagged union over the six wire types the fabric carries.
// A Go sum type via interfaces would scatter the common fields across six
// structs with no shared accessor; a single struct with a Kind discriminant
// keeps the common envelope (ClientID, ClientIP, StartTimestamp) in one
// place while documenting, field by field, which Kind populates it.
type Message struct {
	Kind Kind

	// Common envelope, present on every kind.
	ClientID       string
	ClientIP       string
	StartTimestamp float64

	// Domain is the name being resolved; DNSRequest only. The simulated
	// topology serves a single logical service, so this is always the
	// same constant, carried for realism rather than routing.
	Domain string

	// ResolvedAddress is the backend or gateway address handed back to the
	// client; DNSResponse only.
	ResolvedAddress string

	// ThroughLB is set by the load balancer on the copy of Request it
	// forwards to a backend, and read by the server to decide whether the
	// matching Response must be routed back through the load balancer or
	// sent directly to the client.
	ThroughLB bool

	// ServerIP identifies the backend that produced a Response.
	ServerIP string

	// Reason is a short, human-readable explanation carried on drop
	// messages (DropServer, DropDNS).
	Reason string
}

// DefaultDomain is the single service name every client resolves.
const DefaultDomain = "example.com"

// NewDNSRequest builds a dns_request envelope.
func NewDNSRequest(clientID, clientIP string, now float64) Message {
	return Message{
		Kind:           DNSRequest,
		ClientID:       clientID,
		ClientIP:       clientIP,
		StartTimestamp: now,
		Domain:         DefaultDomain,
	}
}

// NewDNSResponse builds a dns_response envelope answering req.
func NewDNSResponse(req Message, resolved string) Message {
	return Message{
		Kind:            DNSResponse,
		ClientID:        req.ClientID,
		ClientIP:        req.ClientIP,
		StartTimestamp:  req.StartTimestamp,
		ResolvedAddress: resolved,
	}
}

// NewDropDNS builds a drop_dns envelope answering req.
func NewDropDNS(req Message, reason string) Message {
	return Message{
		Kind:           DropDNS,
		ClientID:       req.ClientID,
		ClientIP:       req.ClientIP,
		StartTimestamp: req.StartTimestamp,
		Reason:         reason,
	}
}

// NewRequest builds a request envelope issued by a client.
func NewRequest(clientID, clientIP string, now float64) Message {
	return Message{
		Kind:           Request,
		ClientID:       clientID,
		ClientIP:       clientIP,
		StartTimestamp: now,
	}
}

// NewResponse builds a response envelope answering req.
func NewResponse(req Message, serverIP string) Message {
	return Message{
		Kind:           Response,
		ClientID:       req.ClientID,
		ClientIP:       req.ClientIP,
		StartTimestamp: req.StartTimestamp,
		ServerIP:       serverIP,
		ThroughLB:      req.ThroughLB,
	}
}

// NewDropServer builds a drop_server envelope answering req.
func NewDropServer(req Message, reason string) Message {
	return Message{
		Kind:           DropServer,
		ClientID:       req.ClientID,
		ClientIP:       req.ClientIP,
		StartTimestamp: req.StartTimestamp,
		Reason:         reason,
	}
}

// IsDrop reports whether m is one of the two drop variants.
func (m Message) IsDrop() bool {
	return m.Kind == DropServer || m.Kind == DropDNS
}
