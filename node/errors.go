package node

import "errors"

var (
	// ErrNotBuilt is returned by the link accessors before a successful
	// build.
	ErrNotBuilt = errors.New("node has not been built")

	// ErrCoreOutOfRange is returned when a core index is outside the cores
	// of the last build.
	ErrCoreOutOfRange = errors.New("core index out of range")

	// ErrUnknownLatency is returned for an unknown key in the latencies
	// section.
	ErrUnknownLatency = errors.New("unknown latency")
)
