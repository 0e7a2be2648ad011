package sim

import (
	"fmt"

	"github.com/sarchlab/nodetopo/sim/naming"
)

// An Endpoint is one end of a link: a port of a component and the latency a
// message experiences when it enters the link from that side.
type Endpoint struct {
	Component Component
	Port      string
	Latency   Latency
}

// At creates an endpoint.
func At(c Component, port string, latency Latency) Endpoint {
	return Endpoint{Component: c, Port: port, Latency: latency}
}

// String returns "Component.port@latency".
func (e Endpoint) String() string {
	compName := "<nil>"
	if e.Component != nil {
		compName = e.Component.Name()
	}

	return fmt.Sprintf("%s.%s@%s", compName, e.Port, e.Latency)
}

// A Link connects two endpoints. A link may be created with only one end
// attached and handed to another builder that attaches the other end.
type Link interface {
	naming.Named

	// Connect attaches both ends at once.
	Connect(a, b Endpoint) error

	// Attach attaches one end. A link has at most two ends.
	Attach(e Endpoint) error

	// MarkUncuttable forbids partitioning the link across parallel
	// simulation regions.
	MarkUncuttable()

	// Uncuttable reports whether the link was marked uncuttable.
	Uncuttable() bool

	// Endpoints returns the ends attached so far, in attach order.
	Endpoints() []Endpoint
}

// A LinkWirer creates links from unique names.
type LinkWirer interface {
	CreateLink(name string) (Link, error)
}

// IsOpen reports whether the link still has a free end.
func IsOpen(l Link) bool {
	return len(l.Endpoints()) < 2
}
