package params

import "fmt"

// BackendKind selects the storage model plugged into the memory controller.
type BackendKind string

// Backend kinds.
const (
	BackendSimple BackendKind = "simple"
	BackendTiming BackendKind = "timing"
	BackendHBM    BackendKind = "hbm"
)

// BackendKinds returns all known backend kinds.
func BackendKinds() []BackendKind {
	return []BackendKind{BackendSimple, BackendTiming, BackendHBM}
}

// ParseBackendKind returns ErrUnknownBackend for anything but the known
// kinds.
func ParseBackendKind(s string) (BackendKind, error) {
	for _, k := range BackendKinds() {
		if string(k) == s {
			return k, nil
		}
	}

	return "", fmt.Errorf("%w: %q", ErrUnknownBackend, s)
}

// Cascaded reports whether the backend needs the bridge, controller and
// device chain.
func (k BackendKind) Cascaded() bool {
	return k == BackendHBM
}
