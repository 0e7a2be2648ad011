package sim

import "errors"

var (
	// ErrDuplicateName is returned when a component or link name is reused.
	ErrDuplicateName = errors.New("name already used")

	// ErrUnknownTypeTag is returned when a type tag is not in the closed
	// enumeration.
	ErrUnknownTypeTag = errors.New("unknown type tag")

	// ErrInvalidPort is returned when a port name does not belong to the
	// schema of the component's type tag.
	ErrInvalidPort = errors.New("invalid port")

	// ErrPortOccupied is returned when a port already carries a link.
	ErrPortOccupied = errors.New("port already connected")

	// ErrLinkFull is returned when a third end is attached to a link.
	ErrLinkFull = errors.New("link already has two ends")

	// ErrSlotOccupied is returned when a subsystem slot is reused.
	ErrSlotOccupied = errors.New("subsystem slot already used")

	// ErrInvalidParams is returned when a parameter bag breaks the schema.
	ErrInvalidParams = errors.New("invalid parameters")
)
