package sim

import (
	"fmt"
	"maps"
	"slices"
)

// Params is a parameter bag handed to a component. Values are strings,
// booleans, integers, floats or nested Params.
type Params map[string]any

// Clone returns a deep copy of the bag.
func (p Params) Clone() Params {
	if p == nil {
		return nil
	}

	c := make(Params, len(p))
	for k, v := range p {
		if nested, ok := v.(Params); ok {
			v = nested.Clone()
		}

		c[k] = v
	}

	return c
}

// Keys returns the keys of the bag, sorted.
func (p Params) Keys() []string {
	return slices.Sorted(maps.Keys(p))
}

// Merge copies all entries of other into p, overwriting existing keys.
func (p Params) Merge(other Params) {
	for k, v := range other.Clone() {
		p[k] = v
	}
}

// Validate checks that the bag only holds supported value types.
func (p Params) Validate() error {
	return p.validate("")
}

func (p Params) validate(path string) error {
	for _, k := range p.Keys() {
		if k == "" {
			return fmt.Errorf("%w: empty key under %q", ErrInvalidParams, path)
		}

		key := k
		if path != "" {
			key = path + "." + k
		}

		switch v := p[k].(type) {
		case string, bool,
			int, int8, int16, int32, int64,
			uint, uint8, uint16, uint32, uint64,
			float32, float64:
		case Params:
			if err := v.validate(key); err != nil {
				return err
			}
		default:
			return fmt.Errorf("%w: key %q has unsupported type %T",
				ErrInvalidParams, key, v)
		}
	}

	return nil
}
