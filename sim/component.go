// Package sim defines the contract between topology builders and the
// simulator that owns the components they create.
package sim

import "github.com/sarchlab/nodetopo/sim/naming"

// A Component is a simulated hardware unit created by a ComponentFactory. It
// carries a type tag, a parameter bag and a set of named ports.
type Component interface {
	naming.Named

	// TypeTag returns the kind of the component.
	TypeTag() TypeTag

	// SetParameters merges the bag into the parameters of the component.
	SetParameters(p Params) error

	// Parameters returns a copy of the parameters set so far.
	Parameters() Params

	// AttachSubsystem creates a subcomponent in the given slot. A slot can
	// only hold one subsystem.
	AttachSubsystem(slot string, tag TypeTag) (Component, error)

	// Subsystem returns the subcomponent in the slot, or nil.
	Subsystem(slot string) Component

	// LinkAt returns the link plugged into the port, or nil. A port
	// carries at most one link.
	LinkAt(port string) Link

	// Ports returns the names of the ports that have a link plugged in,
	// sorted.
	Ports() []string
}

// A ComponentFactory creates components from a unique name and a type tag.
type ComponentFactory interface {
	CreateComponent(name string, tag TypeTag) (Component, error)
}
