package node

import (
	"fmt"
	"slices"

	"github.com/sarchlab/nodetopo/params"
	"github.com/sarchlab/nodetopo/sim"
)

// Latencies holds the delay of each side of every link a node creates.
type Latencies struct {
	BusL2Bus    sim.Latency
	BusL2L2     sim.Latency
	L2MemL2     sim.Latency
	L2MemMemory sim.Latency

	CPUL1CPU sim.Latency
	CPUL1L1  sim.Latency
	L1BusL1  sim.Latency
	L1BusBus sim.Latency
	Src      sim.Latency

	NicL1BusL1  sim.Latency
	NicL1BusBus sim.Latency
	NicUplink   sim.Latency

	HBMBackend    sim.Latency
	HBMBridgeCPU  sim.Latency
	HBMBridgeMem  sim.Latency
	HBMCtrlTxnGen sim.Latency
	HBMCtrlMem    sim.Latency
	HBMDimm       sim.Latency
}

// DefaultLatencies returns the delays of the reference detailed node.
func DefaultLatencies() Latencies {
	return Latencies{
		BusL2Bus:    50 * sim.PS,
		BusL2L2:     50 * sim.PS,
		L2MemL2:     50 * sim.PS,
		L2MemMemory: 50 * sim.PS,

		CPUL1CPU: 100 * sim.PS,
		CPUL1L1:  1000 * sim.PS,
		L1BusL1:  50 * sim.PS,
		L1BusBus: 1000 * sim.PS,
		Src:      1 * sim.PS,

		NicL1BusL1:  50 * sim.PS,
		NicL1BusBus: 1000 * sim.PS,
		NicUplink:   1000 * sim.PS,

		HBMBackend:    2 * sim.NS,
		HBMBridgeCPU:  2 * sim.NS,
		HBMBridgeMem:  1 * sim.NS,
		HBMCtrlTxnGen: 1 * sim.NS,
		HBMCtrlMem:    1 * sim.NS,
		HBMDimm:       1 * sim.NS,
	}
}

func (l *Latencies) fields() map[string]*sim.Latency {
	return map[string]*sim.Latency{
		"bus_l2_bus":      &l.BusL2Bus,
		"bus_l2_l2":       &l.BusL2L2,
		"l2_mem_l2":       &l.L2MemL2,
		"l2_mem_memory":   &l.L2MemMemory,
		"cpu_l1_cpu":      &l.CPUL1CPU,
		"cpu_l1_l1":       &l.CPUL1L1,
		"l1_bus_l1":       &l.L1BusL1,
		"l1_bus_bus":      &l.L1BusBus,
		"src":             &l.Src,
		"nic_l1_bus_l1":   &l.NicL1BusL1,
		"nic_l1_bus_bus":  &l.NicL1BusBus,
		"nic_uplink":      &l.NicUplink,
		"hbm_backend":     &l.HBMBackend,
		"hbm_bridge_cpu":  &l.HBMBridgeCPU,
		"hbm_bridge_mem":  &l.HBMBridgeMem,
		"hbm_ctrl_txngen": &l.HBMCtrlTxnGen,
		"hbm_ctrl_mem":    &l.HBMCtrlMem,
		"hbm_dimm":        &l.HBMDimm,
	}
}

// LatencyKeys returns the keys accepted in the latencies section of a
// parameter file, sorted.
func LatencyKeys() []string {
	var l Latencies

	keys := make([]string, 0)
	for k := range l.fields() {
		keys = append(keys, k)
	}

	slices.Sort(keys)

	return keys
}

// WithOverrides returns a copy with the given entries replaced. Keys are the
// ones listed by LatencyKeys.
func (l Latencies) WithOverrides(
	overrides map[string]sim.Latency,
) (Latencies, error) {
	fields := l.fields()

	for k, v := range overrides {
		field, ok := fields[k]
		if !ok {
			return Latencies{}, &params.ConfigError{
				Key: params.KeyLatencies + "." + k,
				Err: fmt.Errorf("%w: %q", ErrUnknownLatency, k),
			}
		}

		*field = v
	}

	return l, nil
}
