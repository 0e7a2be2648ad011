package simulation

import (
	"fmt"
	"slices"
	"strings"

	"github.com/sarchlab/nodetopo/sim"
	"github.com/sarchlab/nodetopo/sim/hooking"
)

type component struct {
	sim *Simulation

	name       string
	tag        sim.TypeTag
	params     sim.Params
	parent     *component
	subsystems map[string]*component
	ports      map[string]*link
}

func (c *component) Name() string {
	return c.name
}

func (c *component) TypeTag() sim.TypeTag {
	return c.tag
}

func (c *component) SetParameters(p sim.Params) error {
	if err := p.Validate(); err != nil {
		return fmt.Errorf("setting parameters of %s: %w", c.name, err)
	}

	c.sim.lock.Lock()
	c.params.Merge(p)
	c.sim.lock.Unlock()

	c.sim.InvokeHook(hooking.HookCtx{
		Domain: c.sim,
		Pos:    sim.HookPosParamsSet,
		Item:   c,
		Detail: p.Clone(),
	})

	return nil
}

func (c *component) Parameters() sim.Params {
	c.sim.lock.RLock()
	defer c.sim.lock.RUnlock()

	return c.params.Clone()
}

func (c *component) AttachSubsystem(
	slot string,
	tag sim.TypeTag,
) (sim.Component, error) {
	if slot == "" {
		return nil, fmt.Errorf("empty subsystem slot on %s", c.name)
	}

	c.sim.lock.Lock()
	if _, found := c.subsystems[slot]; found {
		c.sim.lock.Unlock()
		return nil, fmt.Errorf("%s slot %q: %w",
			c.name, slot, sim.ErrSlotOccupied)
	}
	c.sim.lock.Unlock()

	subName := c.name + "." + strings.ToUpper(slot[:1]) + slot[1:]

	sub, err := c.sim.newComponent(subName, tag, c)
	if err != nil {
		return nil, err
	}

	c.sim.lock.Lock()
	c.subsystems[slot] = sub
	c.sim.lock.Unlock()

	c.sim.InvokeHook(hooking.HookCtx{
		Domain: c.sim,
		Pos:    sim.HookPosSubsystemAttached,
		Item:   sub,
		Detail: c,
	})

	return sub, nil
}

func (c *component) Subsystem(slot string) sim.Component {
	c.sim.lock.RLock()
	defer c.sim.lock.RUnlock()

	sub, found := c.subsystems[slot]
	if !found {
		return nil
	}

	return sub
}

// Parent returns the component that holds this subsystem, or nil for a
// top-level component.
func (c *component) Parent() sim.Component {
	if c.parent == nil {
		return nil
	}

	return c.parent
}

func (c *component) plugInLocked(port string, l *link) error {
	if err := c.portMustBeFree(port); err != nil {
		return err
	}

	c.ports[port] = l

	return nil
}

func (c *component) portMustBeFree(port string) error {
	if err := c.tag.ValidatePort(port); err != nil {
		return fmt.Errorf("%s: %w", c.name, err)
	}

	if existing, found := c.ports[port]; found {
		return fmt.Errorf("%s.%s is used by %s: %w",
			c.name, port, existing.name, sim.ErrPortOccupied)
	}

	return nil
}

func (c *component) LinkAt(port string) sim.Link {
	c.sim.lock.RLock()
	defer c.sim.lock.RUnlock()

	l, found := c.ports[port]
	if !found {
		return nil
	}

	return l
}

func (c *component) Ports() []string {
	c.sim.lock.RLock()
	defer c.sim.lock.RUnlock()

	ports := make([]string, 0, len(c.ports))
	for p := range c.ports {
		ports = append(ports, p)
	}

	slices.Sort(ports)

	return ports
}
