package node

import (
	"fmt"

	"github.com/sarchlab/nodetopo/params"
	"github.com/sarchlab/nodetopo/sim"
	"github.com/sarchlab/nodetopo/sim/naming"
)

// createThreads builds one CPU and one private L1 cache per thread of a core.
// Thread i is plugged into bus port high_network_<portOffset+i>. The returned
// src links are in thread order and have only the CPU end attached.
func (m *BasicModel) createThreads(
	ctx naming.Context,
	bus sim.Component,
	portOffset int,
	numThreads int,
	cpuParams, l1Params sim.Params,
	lat Latencies,
) ([]sim.Link, error) {
	if numThreads < 0 {
		return nil, &params.ConfigError{
			Key: params.KeyNumThreads,
			Err: fmt.Errorf("%w: %d", params.ErrNegative, numThreads),
		}
	}

	srcLinks := make([]sim.Link, 0, numThreads)

	for i := 0; i < numThreads; i++ {
		threadCtx := ctx.Indexed("Thread", i)

		cpu, err := m.createComponent(
			threadCtx.Name("CPU"), sim.TagBaseCPU, cpuParams)
		if err != nil {
			return nil, err
		}

		l1, err := m.createComponent(
			threadCtx.Name("L1Cache"), sim.TagCache, l1Params)
		if err != nil {
			return nil, err
		}

		_, err = m.connect(threadCtx.Name("CPUL1Link"),
			sim.At(cpu, "cache_link", lat.CPUL1CPU),
			sim.At(l1, "high_network_0", lat.CPUL1L1))
		if err != nil {
			return nil, err
		}

		_, err = m.connect(threadCtx.Name("L1BusLink"),
			sim.At(l1, "low_network_0", lat.L1BusL1),
			sim.At(bus, sim.IndexedPort("high_network_", portOffset+i),
				lat.L1BusBus))
		if err != nil {
			return nil, err
		}

		src, err := m.openLink(threadCtx.Name("SrcLink"),
			sim.At(cpu, "src", lat.Src))
		if err != nil {
			return nil, err
		}

		srcLinks = append(srcLinks, src)
	}

	return srcLinks, nil
}
