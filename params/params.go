// Package params holds the role-partitioned parameter set that describes one
// compute node.
package params

import (
	"fmt"
	"math"

	"github.com/sarchlab/nodetopo/sim"
)

// Parameter keys.
const (
	KeyL1Params            = "l1_params"
	KeyL2Params            = "l2_params"
	KeyBusParams           = "bus_params"
	KeyMemoryParams        = "memory_params"
	KeyMemoryBackendParams = "memory_backend_params"
	KeyCPUParams           = "cpu_params"
	KeyNicCPUParams        = "nic_cpu_params"
	KeyNicL1Params         = "nic_l1_params"
	KeyBridgeParams        = "bridge_params"
	KeyCtrlParams          = "ctrl_params"
	KeyDimmParams          = "dimm_params"
	KeyNumThreads          = "numThreads"
	KeyMemoryBackend       = "memory_backend"
	KeyLatencies           = "latencies"
)

// TopologyParameters is an immutable parameter set. Every accessor returns
// copies, so callers cannot change the set after it is created.
type TopologyParameters struct {
	values sim.Params
}

// New creates a parameter set from a bag. The bag is copied.
func New(values sim.Params) (TopologyParameters, error) {
	if err := values.Validate(); err != nil {
		return TopologyParameters{}, err
	}

	return TopologyParameters{values: values.Clone()}, nil
}

// MustNew is New that panics on an invalid bag.
func MustNew(values sim.Params) TopologyParameters {
	p, err := New(values)
	if err != nil {
		panic(err)
	}

	return p
}

// Has reports whether the key is present.
func (p TopologyParameters) Has(key string) bool {
	_, ok := p.values[key]
	return ok
}

// Keys returns the present keys, sorted.
func (p TopologyParameters) Keys() []string {
	return p.values.Keys()
}

// SubMap returns a copy of a nested parameter bag.
func (p TopologyParameters) SubMap(key string) (sim.Params, error) {
	v, ok := p.values[key]
	if !ok {
		return nil, configErr(key, ErrMissingKey)
	}

	sub, ok := v.(sim.Params)
	if !ok {
		return nil, configErr(key,
			fmt.Errorf("%w: want a parameter map, got %T", ErrWrongType, v))
	}

	return sub.Clone(), nil
}

// NumThreads returns the number of threads per core.
func (p TopologyParameters) NumThreads() (int, error) {
	v, ok := p.values[KeyNumThreads]
	if !ok {
		return 0, configErr(KeyNumThreads, ErrMissingKey)
	}

	n, ok := toInt(v)
	if !ok {
		return 0, configErr(KeyNumThreads,
			fmt.Errorf("%w: want an integer, got %T", ErrWrongType, v))
	}

	if n < 0 {
		return 0, configErr(KeyNumThreads, fmt.Errorf("%w: %d", ErrNegative, n))
	}

	return n, nil
}

// MemoryBackend returns the selected backend kind.
func (p TopologyParameters) MemoryBackend() (BackendKind, error) {
	v, ok := p.values[KeyMemoryBackend]
	if !ok {
		return "", configErr(KeyMemoryBackend, ErrMissingKey)
	}

	s, ok := v.(string)
	if !ok {
		return "", configErr(KeyMemoryBackend,
			fmt.Errorf("%w: want a string, got %T", ErrWrongType, v))
	}

	kind, err := ParseBackendKind(s)
	if err != nil {
		return "", configErr(KeyMemoryBackend, err)
	}

	return kind, nil
}

// LatencyOverrides returns the entries of the optional latencies section.
// Strings are parsed as latencies and integers are taken as picoseconds.
func (p TopologyParameters) LatencyOverrides() (map[string]sim.Latency, error) {
	overrides := make(map[string]sim.Latency)

	if !p.Has(KeyLatencies) {
		return overrides, nil
	}

	section, err := p.SubMap(KeyLatencies)
	if err != nil {
		return nil, err
	}

	for _, name := range section.Keys() {
		key := KeyLatencies + "." + name

		switch v := section[name].(type) {
		case string:
			l, err := sim.ParseLatency(v)
			if err != nil {
				return nil, configErr(key, err)
			}

			overrides[name] = l
		default:
			n, ok := toInt(v)
			if !ok || n < 0 {
				return nil, configErr(key,
					fmt.Errorf("%w: want a latency, got %v", ErrWrongType, v))
			}

			overrides[name] = sim.Latency(n)
		}
	}

	return overrides, nil
}

func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int8:
		return int(n), true
	case int16:
		return int(n), true
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	case uint:
		return int(n), n <= math.MaxInt
	case uint8:
		return int(n), true
	case uint16:
		return int(n), true
	case uint32:
		return int(n), true
	case uint64:
		return int(n), n <= math.MaxInt
	case float64:
		if n != math.Trunc(n) || n < math.MinInt || n >= math.MaxInt {
			return 0, false
		}

		return int(n), true
	default:
		return 0, false
	}
}
