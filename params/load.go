package params

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/sarchlab/nodetopo/sim"
	"gopkg.in/yaml.v3"
)

// file lists every top-level section of a parameter file. Unknown sections
// are rejected.
type file struct {
	L1Params            map[string]any `yaml:"l1_params"`
	L2Params            map[string]any `yaml:"l2_params"`
	BusParams           map[string]any `yaml:"bus_params"`
	MemoryParams        map[string]any `yaml:"memory_params"`
	MemoryBackendParams map[string]any `yaml:"memory_backend_params"`
	CPUParams           map[string]any `yaml:"cpu_params"`
	NicCPUParams        map[string]any `yaml:"nic_cpu_params"`
	NicL1Params         map[string]any `yaml:"nic_l1_params"`
	BridgeParams        map[string]any `yaml:"bridge_params"`
	CtrlParams          map[string]any `yaml:"ctrl_params"`
	DimmParams          map[string]any `yaml:"dimm_params"`
	Latencies           map[string]any `yaml:"latencies"`

	NumThreads    *int    `yaml:"numThreads"`
	MemoryBackend *string `yaml:"memory_backend"`
}

func (f *file) sections() map[string]map[string]any {
	return map[string]map[string]any{
		KeyL1Params:            f.L1Params,
		KeyL2Params:            f.L2Params,
		KeyBusParams:           f.BusParams,
		KeyMemoryParams:        f.MemoryParams,
		KeyMemoryBackendParams: f.MemoryBackendParams,
		KeyCPUParams:           f.CPUParams,
		KeyNicCPUParams:        f.NicCPUParams,
		KeyNicL1Params:         f.NicL1Params,
		KeyBridgeParams:        f.BridgeParams,
		KeyCtrlParams:          f.CtrlParams,
		KeyDimmParams:          f.DimmParams,
		KeyLatencies:           f.Latencies,
	}
}

// Load reads a parameter file.
func Load(path string) (TopologyParameters, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return TopologyParameters{}, fmt.Errorf("reading parameter file: %w", err)
	}

	p, err := Parse(bytes.NewReader(data))
	if err != nil {
		return TopologyParameters{}, fmt.Errorf("%s: %w", path, err)
	}

	return p, nil
}

// Parse decodes a YAML parameter set. Sections that are absent in the input
// are absent in the result.
func Parse(r io.Reader) (TopologyParameters, error) {
	var f file

	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return TopologyParameters{}, fmt.Errorf("parsing parameters: %w", err)
	}

	values := make(sim.Params)

	for key, section := range f.sections() {
		if section == nil {
			continue
		}

		bag, err := normalize(key, section)
		if err != nil {
			return TopologyParameters{}, err
		}

		values[key] = bag
	}

	if f.NumThreads != nil {
		values[KeyNumThreads] = *f.NumThreads
	}

	if f.MemoryBackend != nil {
		values[KeyMemoryBackend] = *f.MemoryBackend
	}

	return New(values)
}

func normalize(path string, m map[string]any) (sim.Params, error) {
	bag := make(sim.Params, len(m))

	for k, v := range m {
		key := path + "." + k

		switch v := v.(type) {
		case map[string]any:
			nested, err := normalize(key, v)
			if err != nil {
				return nil, err
			}

			bag[k] = nested
		case nil:
			return nil, configErr(key,
				fmt.Errorf("%w: value is empty", ErrWrongType))
		case []any:
			return nil, configErr(key,
				fmt.Errorf("%w: lists are not supported", ErrWrongType))
		default:
			bag[k] = v
		}
	}

	return bag, nil
}
