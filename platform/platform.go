// Package platform wires the nodes built by a node model into a network: the
// NIC uplink of every node goes to a router and every thread gets an engine
// endpoint on its src link.
package platform

import (
	"fmt"

	"github.com/sarchlab/nodetopo/monitoring"
	"github.com/sarchlab/nodetopo/node"
	"github.com/sarchlab/nodetopo/sim"
	"github.com/sarchlab/nodetopo/sim/naming"
	"github.com/sirupsen/logrus"
)

// A NodeModel builds one node at a time and hands out the links it leaves
// open.
type NodeModel interface {
	Build(nodeID node.NodeID, numCores int) (bool, error)
	ThreadLinks(core int) ([]sim.Link, error)
	NicLink() (sim.Link, error)
}

// Platform is the result of a build.
type Platform struct {
	Router  sim.Component
	Engines []sim.Component
	Built   []node.NodeID
	Skipped []node.NodeID
}

// Builder can build platforms.
type Builder struct {
	factory       sim.ComponentFactory
	model         NodeModel
	numNodes      int
	numCores      int
	routerParams  sim.Params
	engineParams  sim.Params
	routerLatency sim.Latency
	engineLatency sim.Latency
	monitor       *monitoring.Monitor
}

// MakeBuilder creates a builder with 1ns router links and 1ps engine links.
func MakeBuilder() Builder {
	return Builder{
		routerLatency: sim.NS,
		engineLatency: sim.PS,
	}
}

// WithFactory sets the factory that creates the router and the engines.
func (b Builder) WithFactory(f sim.ComponentFactory) Builder {
	b.factory = f
	return b
}

// WithNodeModel sets the model that builds the nodes.
func (b Builder) WithNodeModel(m NodeModel) Builder {
	b.model = m
	return b
}

// WithNumNodes sets the number of nodes. Nodes are numbered from 0.
func (b Builder) WithNumNodes(n int) Builder {
	b.numNodes = n
	return b
}

// WithNumCores sets the number of cores of each node.
func (b Builder) WithNumCores(n int) Builder {
	b.numCores = n
	return b
}

// WithRouterParams sets the router parameters. num_ports is always set to
// the number of nodes.
func (b Builder) WithRouterParams(p sim.Params) Builder {
	b.routerParams = p.Clone()
	return b
}

// WithEngineParams sets the parameters of every engine endpoint.
func (b Builder) WithEngineParams(p sim.Params) Builder {
	b.engineParams = p.Clone()
	return b
}

// WithRouterLatency sets the latency of both ends of the NIC uplinks.
func (b Builder) WithRouterLatency(l sim.Latency) Builder {
	b.routerLatency = l
	return b
}

// WithEngineLatency sets the latency of the engine end of the src links.
func (b Builder) WithEngineLatency(l sim.Latency) Builder {
	b.engineLatency = l
	return b
}

// WithMonitor reports build progress to the monitor.
func (b Builder) WithMonitor(m *monitoring.Monitor) Builder {
	b.monitor = m
	return b
}

func (b Builder) parametersMustBeValid() {
	if b.factory == nil {
		panic("component factory is not set")
	}

	if b.model == nil {
		panic("node model is not set")
	}

	if b.numNodes <= 0 {
		panic("number of nodes must be positive")
	}
}

// Build builds every node in order and wires the open links of the built
// ones. Nodes the model does not build are listed as skipped.
func (b Builder) Build() (*Platform, error) {
	b.parametersMustBeValid()

	p := &Platform{}

	router, err := b.createComponent("Router", sim.TagRouter, b.routerParams,
		sim.Params{"num_ports": b.numNodes})
	if err != nil {
		return nil, err
	}

	p.Router = router

	var bar *monitoring.ProgressBar
	if b.monitor != nil {
		bar = b.monitor.CreateProgressBar("Nodes", uint64(b.numNodes))
		defer b.monitor.CompleteProgressBar(bar)
	}

	for i := 0; i < b.numNodes; i++ {
		id := node.NodeID(i)

		built, err := b.model.Build(id, b.numCores)
		if err != nil {
			return nil, err
		}

		if bar != nil {
			bar.Finish(built)
		}

		if !built {
			p.Skipped = append(p.Skipped, id)
			continue
		}

		if err := b.wireNode(p, id); err != nil {
			return nil, fmt.Errorf("wiring node %d: %w", id, err)
		}

		p.Built = append(p.Built, id)
	}

	logrus.Infof("platform: built %d nodes, skipped %d",
		len(p.Built), len(p.Skipped))

	return p, nil
}

func (b Builder) wireNode(p *Platform, id node.NodeID) error {
	nic, err := b.model.NicLink()
	if err != nil {
		return err
	}

	err = nic.Attach(sim.At(
		p.Router, sim.IndexedPort("port", int(id)), b.routerLatency))
	if err != nil {
		return err
	}

	ctx := naming.NewContext("Node", int(id))

	for c := 0; c < b.numCores; c++ {
		links, err := b.model.ThreadLinks(c)
		if err != nil {
			return err
		}

		for t, l := range links {
			name := ctx.Indexed("Core", c).Indexed("Thread", t).Name("Engine")

			engine, err := b.createComponent(
				name, sim.TagEmberEngine, b.engineParams)
			if err != nil {
				return err
			}

			err = l.Attach(sim.At(engine, "detailed", b.engineLatency))
			if err != nil {
				return err
			}

			p.Engines = append(p.Engines, engine)
		}
	}

	return nil
}

func (b Builder) createComponent(
	name string,
	tag sim.TypeTag,
	bags ...sim.Params,
) (sim.Component, error) {
	c, err := b.factory.CreateComponent(name, tag)
	if err != nil {
		return nil, err
	}

	merged := make(sim.Params)
	for _, bag := range bags {
		merged.Merge(bag)
	}

	if err := c.SetParameters(merged); err != nil {
		return nil, fmt.Errorf("setting parameters of %s: %w", name, err)
	}

	return c, nil
}
