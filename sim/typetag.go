package sim

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// A TypeTag names the kind of a simulated component, such as
// "memHierarchy.Cache". Only the tags declared in this file are accepted.
type TypeTag string

// Role groups type tags by what they do in a node.
type Role int

// Roles of type tags.
const (
	RoleUnknown Role = iota
	RoleComputeUnit
	RoleCache
	RoleBus
	RoleMemController
	RoleMemBackend
	RoleMemCascade
	RoleRouter
	RoleEndpoint
	RoleDevice
	RoleMemInterface
)

var roleNames = map[Role]string{
	RoleUnknown:       "unknown",
	RoleComputeUnit:   "compute unit",
	RoleCache:         "cache",
	RoleBus:           "bus",
	RoleMemController: "memory controller",
	RoleMemBackend:    "memory backend",
	RoleMemCascade:    "memory cascade stage",
	RoleRouter:        "router",
	RoleEndpoint:      "endpoint",
	RoleDevice:        "memory-mapped device",
	RoleMemInterface:  "memory interface",
}

func (r Role) String() string {
	return roleNames[r]
}

// The closed set of type tags.
const (
	TagBaseCPU       TypeTag = "miranda.BaseCPU"
	TagCache         TypeTag = "memHierarchy.Cache"
	TagBus           TypeTag = "memHierarchy.Bus"
	TagMemController TypeTag = "memHierarchy.MemController"

	TagSimpleMem  TypeTag = "memHierarchy.simpleMem"
	TagTimingDRAM TypeTag = "memHierarchy.timingDRAM"
	TagCramSim    TypeTag = "memHierarchy.cramsim"

	TagCramSimBridge     TypeTag = "CramSim.c_MemhBridge"
	TagCramSimController TypeTag = "CramSim.c_Controller"
	TagCramSimDimm       TypeTag = "CramSim.c_Dimm"

	TagRouter      TypeTag = "merlin.hr_router"
	TagEmberEngine TypeTag = "ember.EmberEngine"

	// A device reaches the bus through an MMIO subsystem that holds a
	// MemLink subsystem in its "link" slot.
	TagMIPS4KC TypeTag = "mips_4kc.MIPS4KC"
	TagUART    TypeTag = "memHierarchy.UART"
	TagMMIO    TypeTag = "memHierarchy.MMIO"
	TagMemLink TypeTag = "memHierarchy.MemLink"
)

// A portPattern matches either one fixed port name or a series of ports
// that share a prefix and end with a non-negative index.
type portPattern struct {
	name    string
	indexed bool
}

func fixed(name string) portPattern   { return portPattern{name: name} }
func indexed(name string) portPattern { return portPattern{name: name, indexed: true} }

func (p portPattern) match(port string) bool {
	if !p.indexed {
		return port == p.name
	}

	if !strings.HasPrefix(port, p.name) {
		return false
	}

	index, err := strconv.Atoi(strings.TrimPrefix(port, p.name))

	return err == nil && index >= 0 &&
		strconv.Itoa(index) == strings.TrimPrefix(port, p.name)
}

func (p portPattern) String() string {
	if p.indexed {
		return p.name + "N"
	}

	return p.name
}

type tagSchema struct {
	role  Role
	ports []portPattern
}

var schemas = map[TypeTag]tagSchema{
	TagBaseCPU: {RoleComputeUnit, []portPattern{
		fixed("cache_link"), fixed("src"),
	}},
	TagCache: {RoleCache, []portPattern{
		indexed("high_network_"), indexed("low_network_"),
	}},
	TagBus: {RoleBus, []portPattern{
		indexed("high_network_"), indexed("low_network_"),
	}},
	TagMemController: {RoleMemController, []portPattern{
		fixed("direct_link"),
	}},
	TagSimpleMem:  {RoleMemBackend, nil},
	TagTimingDRAM: {RoleMemBackend, nil},
	TagCramSim: {RoleMemBackend, []portPattern{
		fixed("cramsim_link"),
	}},
	TagCramSimBridge: {RoleMemCascade, []portPattern{
		fixed("cpuLink"), fixed("memLink"),
	}},
	TagCramSimController: {RoleMemCascade, []portPattern{
		fixed("txngenLink"), fixed("memLink"),
	}},
	TagCramSimDimm: {RoleMemCascade, []portPattern{
		fixed("ctrlLink"),
	}},
	TagRouter: {RoleRouter, []portPattern{
		indexed("port"),
	}},
	TagEmberEngine: {RoleEndpoint, []portPattern{
		fixed("detailed"), fixed("nic"),
	}},
	TagMIPS4KC: {RoleComputeUnit, []portPattern{
		fixed("mem_link"),
	}},
	TagUART: {RoleDevice, []portPattern{
		fixed("direct_link"), fixed("other_UART"),
	}},
	TagMMIO:    {RoleMemInterface, nil},
	TagMemLink: {RoleMemInterface, []portPattern{
		fixed("port"),
	}},
}

// KnownTypeTags returns all accepted type tags, sorted.
func KnownTypeTags() []TypeTag {
	tags := make([]TypeTag, 0, len(schemas))
	for t := range schemas {
		tags = append(tags, t)
	}

	slices.Sort(tags)

	return tags
}

// Validate returns ErrUnknownTypeTag if the tag is not declared.
func (t TypeTag) Validate() error {
	if _, ok := schemas[t]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownTypeTag, string(t))
	}

	return nil
}

// Role returns the role of the tag.
func (t TypeTag) Role() Role {
	return schemas[t].role
}

// HasPort reports whether a component of this kind exposes the port.
func (t TypeTag) HasPort(port string) bool {
	for _, p := range schemas[t].ports {
		if p.match(port) {
			return true
		}
	}

	return false
}

// ValidatePort returns ErrInvalidPort if the port is not part of the tag's
// schema.
func (t TypeTag) ValidatePort(port string) error {
	if t.HasPort(port) {
		return nil
	}

	allowed := make([]string, 0, len(schemas[t].ports))
	for _, p := range schemas[t].ports {
		allowed = append(allowed, p.String())
	}

	return fmt.Errorf("%w: %s has no port %q (ports: %s)",
		ErrInvalidPort, string(t), port, strings.Join(allowed, ", "))
}

// IndexedPort builds the name of the index-th port of a series, such as
// high_network_3.
func IndexedPort(prefix string, index int) string {
	return prefix + strconv.Itoa(index)
}
