// Package node builds the component graph of one simulated compute node.
package node

import (
	"github.com/sarchlab/nodetopo/params"
	"github.com/sarchlab/nodetopo/sim"
)

// DefaultModelName is the name of a model built without a name.
const DefaultModelName = "BasicDetailedModel"

// NodeID identifies a node in a platform.
type NodeID int

// Builder can build BasicModels.
type Builder struct {
	factory   sim.ComponentFactory
	wirer     sim.LinkWirer
	params    params.TopologyParameters
	nodeList  []NodeID
	latencies *Latencies
}

// MakeBuilder creates a builder with an empty node list.
func MakeBuilder() Builder {
	return Builder{}
}

// WithFactory sets the factory that creates the components.
func (b Builder) WithFactory(f sim.ComponentFactory) Builder {
	b.factory = f
	return b
}

// WithWirer sets the wirer that creates the links.
func (b Builder) WithWirer(w sim.LinkWirer) Builder {
	b.wirer = w
	return b
}

// WithParams sets the parameters shared by every node the model builds.
func (b Builder) WithParams(p params.TopologyParameters) Builder {
	b.params = p
	return b
}

// WithNodeList sets the nodes that the model is allowed to build.
func (b Builder) WithNodeList(ids ...NodeID) Builder {
	b.nodeList = append([]NodeID(nil), ids...)
	return b
}

// WithLatencies replaces the default link latencies. Latencies given here
// take precedence over the latencies section of the parameters.
func (b Builder) WithLatencies(l Latencies) Builder {
	b.latencies = &l
	return b
}

func (b Builder) parametersMustBeValid() {
	if b.factory == nil {
		panic("component factory is not set")
	}

	if b.wirer == nil {
		panic("link wirer is not set")
	}
}

// Build creates a model. An empty name means DefaultModelName.
func (b Builder) Build(name string) *BasicModel {
	b.parametersMustBeValid()

	if name == "" {
		name = DefaultModelName
	}

	m := &BasicModel{
		name:     name,
		factory:  b.factory,
		wirer:    b.wirer,
		params:   b.params,
		nodeList: make(map[NodeID]bool, len(b.nodeList)),
	}

	for _, id := range b.nodeList {
		m.nodeList[id] = true
	}

	if b.latencies != nil {
		l := *b.latencies
		m.latencies = &l
	}

	return m
}
