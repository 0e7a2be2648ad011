package node

import (
	"github.com/sarchlab/nodetopo/sim"
	"github.com/sarchlab/nodetopo/sim/naming"
)

// createNic builds the NIC cache on bus port high_network_0 and returns its
// uplink with only the cache end attached.
//
// cpuParams is accepted but not used. The NIC has no CPU of its own.
func (m *BasicModel) createNic(
	ctx naming.Context,
	bus sim.Component,
	cpuParams, l1Params sim.Params,
	lat Latencies,
) (sim.Link, error) {
	nicCtx := ctx.Child("NIC")

	l1, err := m.createComponent(nicCtx.Name("L1Cache"), sim.TagCache, l1Params)
	if err != nil {
		return nil, err
	}

	_, err = m.connect(nicCtx.Name("L1BusLink"),
		sim.At(l1, "low_network_0", lat.NicL1BusL1),
		sim.At(bus, "high_network_0", lat.NicL1BusBus))
	if err != nil {
		return nil, err
	}

	return m.openLink(nicCtx.Name("CPUL1Link"),
		sim.At(l1, "high_network_0", lat.NicUplink))
}
