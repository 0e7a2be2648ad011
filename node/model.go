package node

import (
	"fmt"

	"github.com/sarchlab/nodetopo/params"
	"github.com/sarchlab/nodetopo/sim"
	"github.com/sarchlab/nodetopo/sim/naming"
	"github.com/sirupsen/logrus"
)

// BasicModel builds detailed nodes: cores with private L1 caches, a shared
// bus and L2 cache, a memory controller with a backend, and a NIC cache.
//
// A model answers ThreadLinks and NicLink for the last node it built.
// Building the same node twice against the same registry fails with the
// registry's duplicate name error.
type BasicModel struct {
	name      string
	factory   sim.ComponentFactory
	wirer     sim.LinkWirer
	params    params.TopologyParameters
	nodeList  map[NodeID]bool
	latencies *Latencies

	built       bool
	nodeID      NodeID
	threadLinks [][]sim.Link
	nicLink     sim.Link
}

// Name returns the name of the model.
func (m *BasicModel) Name() string {
	return m.name
}

// InNodeList reports whether the model builds the node.
func (m *BasicModel) InNodeList(id NodeID) bool {
	return m.nodeList[id]
}

// A buildPlan holds everything a build needs, resolved before anything is
// created.
type buildPlan struct {
	numCores   int
	numThreads int
	backend    params.BackendKind
	latencies  Latencies

	cpu, l1, l2, bus      sim.Params
	memory, memoryBackend sim.Params
	nicCPU, nicL1         sim.Params
	bridge, ctrl, dimm    sim.Params
}

func (m *BasicModel) plan(nodeID NodeID, numCores int) (*buildPlan, error) {
	if nodeID < 0 {
		return nil, &params.ConfigError{
			Key: "nodeID",
			Err: fmt.Errorf("%w: %d", params.ErrNegative, nodeID),
		}
	}

	if numCores < 0 {
		return nil, &params.ConfigError{
			Key: "numCores",
			Err: fmt.Errorf("%w: %d", params.ErrNegative, numCores),
		}
	}

	p := &buildPlan{numCores: numCores}

	var err error

	p.numThreads, err = m.params.NumThreads()
	if err != nil {
		return nil, err
	}

	p.backend, err = m.params.MemoryBackend()
	if err != nil {
		return nil, err
	}

	hasThreads := numCores > 0 && p.numThreads > 0

	subMaps := []struct {
		key    string
		dst    *sim.Params
		needed bool
	}{
		{params.KeyL2Params, &p.l2, true},
		{params.KeyBusParams, &p.bus, true},
		{params.KeyMemoryParams, &p.memory, true},
		{params.KeyMemoryBackendParams, &p.memoryBackend, true},
		{params.KeyCPUParams, &p.cpu, hasThreads},
		{params.KeyL1Params, &p.l1, hasThreads},
		{params.KeyNicCPUParams, &p.nicCPU, true},
		{params.KeyNicL1Params, &p.nicL1, true},
		{params.KeyBridgeParams, &p.bridge, p.backend.Cascaded()},
		{params.KeyCtrlParams, &p.ctrl, p.backend.Cascaded()},
		{params.KeyDimmParams, &p.dimm, p.backend.Cascaded()},
	}

	for _, s := range subMaps {
		if !s.needed {
			continue
		}

		*s.dst, err = m.params.SubMap(s.key)
		if err != nil {
			return nil, err
		}
	}

	p.latencies, err = m.resolveLatencies()
	if err != nil {
		return nil, err
	}

	return p, nil
}

func (m *BasicModel) resolveLatencies() (Latencies, error) {
	if m.latencies != nil {
		return *m.latencies, nil
	}

	overrides, err := m.params.LatencyOverrides()
	if err != nil {
		return Latencies{}, err
	}

	return DefaultLatencies().WithOverrides(overrides)
}

// Build builds one node. It returns false without touching the registry if
// the node is not in the node list. Configuration errors are reported before
// any component is created.
func (m *BasicModel) Build(nodeID NodeID, numCores int) (bool, error) {
	if !m.nodeList[nodeID] {
		logrus.Debugf("node %d: not in the node list of %s, skipped",
			nodeID, m.name)
		return false, nil
	}

	plan, err := m.plan(nodeID, numCores)
	if err != nil {
		return false, fmt.Errorf("node %d: %w", nodeID, err)
	}

	ctx := naming.NewContext("Node", int(nodeID))

	logrus.Infof("node %d: building %d cores with %d threads each, %s memory",
		nodeID, plan.numCores, plan.numThreads, plan.backend)

	threadLinks, nicLink, err := m.buildNode(ctx, plan)
	if err != nil {
		return false, fmt.Errorf("node %d: %w", nodeID, err)
	}

	m.built = true
	m.nodeID = nodeID
	m.threadLinks = threadLinks
	m.nicLink = nicLink

	return true, nil
}

func (m *BasicModel) buildNode(
	ctx naming.Context,
	plan *buildPlan,
) ([][]sim.Link, sim.Link, error) {
	lat := plan.latencies

	l2, err := m.createComponent(ctx.Name("L2Cache"), sim.TagCache, plan.l2)
	if err != nil {
		return nil, nil, err
	}

	bus, err := m.createComponent(ctx.Name("Bus"), sim.TagBus, plan.bus)
	if err != nil {
		return nil, nil, err
	}

	_, err = m.connect(ctx.Name("BusL2Link"),
		sim.At(bus, "low_network_0", lat.BusL2Bus),
		sim.At(l2, "high_network_0", lat.BusL2L2))
	if err != nil {
		return nil, nil, err
	}

	memory, err := m.createComponent(
		ctx.Name("Memory"), sim.TagMemController, plan.memory)
	if err != nil {
		return nil, nil, err
	}

	if err = m.selectBackend(ctx, memory, plan); err != nil {
		return nil, nil, err
	}

	_, err = m.connect(ctx.Name("L2MemLink"),
		sim.At(l2, "low_network_0", lat.L2MemL2),
		sim.At(memory, "direct_link", lat.L2MemMemory))
	if err != nil {
		return nil, nil, err
	}

	threadLinks := make([][]sim.Link, 0, plan.numCores)
	for i := 0; i < plan.numCores; i++ {
		links, err := m.createThreads(
			ctx.Indexed("Core", i),
			bus,
			1+i*plan.numThreads,
			plan.numThreads,
			plan.cpu, plan.l1,
			lat,
		)
		if err != nil {
			return nil, nil, err
		}

		threadLinks = append(threadLinks, links)
	}

	nicLink, err := m.createNic(ctx, bus, plan.nicCPU, plan.nicL1, lat)
	if err != nil {
		return nil, nil, err
	}

	return threadLinks, nicLink, nil
}

// ThreadLinks returns the src links of the threads of a core, in thread
// order. The links have one end attached and are left for the caller to
// connect.
func (m *BasicModel) ThreadLinks(core int) ([]sim.Link, error) {
	if !m.built {
		return nil, ErrNotBuilt
	}

	if core < 0 || core >= len(m.threadLinks) {
		return nil, fmt.Errorf("%w: core %d, node %d has %d cores",
			ErrCoreOutOfRange, core, m.nodeID, len(m.threadLinks))
	}

	return append([]sim.Link(nil), m.threadLinks[core]...), nil
}

// NicLink returns the uplink of the NIC, with one end attached.
func (m *BasicModel) NicLink() (sim.Link, error) {
	if !m.built {
		return nil, ErrNotBuilt
	}

	return m.nicLink, nil
}

// NumCores returns the number of cores of the last build.
func (m *BasicModel) NumCores() int {
	return len(m.threadLinks)
}

func (m *BasicModel) createComponent(
	name string,
	tag sim.TypeTag,
	p sim.Params,
) (sim.Component, error) {
	c, err := m.factory.CreateComponent(name, tag)
	if err != nil {
		return nil, err
	}

	if err := c.SetParameters(p); err != nil {
		return nil, fmt.Errorf("setting parameters of %s: %w", name, err)
	}

	logrus.Debugf("created %s (%s)", name, tag)

	return c, nil
}

// connect creates an uncuttable link between two ports.
func (m *BasicModel) connect(
	name string,
	a, b sim.Endpoint,
) (sim.Link, error) {
	l, err := m.wirer.CreateLink(name)
	if err != nil {
		return nil, err
	}

	if err := l.Connect(a, b); err != nil {
		return nil, fmt.Errorf("connecting %s: %w", name, err)
	}

	l.MarkUncuttable()

	return l, nil
}

// openLink creates a link with only one end attached. The link stays
// cuttable.
func (m *BasicModel) openLink(name string, e sim.Endpoint) (sim.Link, error) {
	l, err := m.wirer.CreateLink(name)
	if err != nil {
		return nil, err
	}

	if err := l.Attach(e); err != nil {
		return nil, fmt.Errorf("attaching %s: %w", name, err)
	}

	return l, nil
}
