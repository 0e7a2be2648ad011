package simulation

import (
	"fmt"

	"github.com/sarchlab/nodetopo/sim"
	"github.com/sarchlab/nodetopo/sim/hooking"
)

type link struct {
	sim *Simulation

	name       string
	ends       []sim.Endpoint
	uncuttable bool
}

func (l *link) Name() string {
	return l.name
}

func (l *link) Connect(a, b sim.Endpoint) error {
	compA, err := l.ownComponent(a)
	if err != nil {
		return err
	}

	compB, err := l.ownComponent(b)
	if err != nil {
		return err
	}

	if compA == compB && a.Port == b.Port {
		return fmt.Errorf("link %s connects %s to itself",
			l.name, a.String())
	}

	l.sim.lock.Lock()

	if len(l.ends) != 0 {
		l.sim.lock.Unlock()
		return fmt.Errorf("connecting link %s: %w", l.name, sim.ErrLinkFull)
	}

	if err := compA.portMustBeFree(a.Port); err != nil {
		l.sim.lock.Unlock()
		return fmt.Errorf("connecting link %s: %w", l.name, err)
	}

	if err := compB.portMustBeFree(b.Port); err != nil {
		l.sim.lock.Unlock()
		return fmt.Errorf("connecting link %s: %w", l.name, err)
	}

	compA.ports[a.Port] = l
	compB.ports[b.Port] = l
	l.ends = append(l.ends, a, b)

	l.sim.lock.Unlock()

	l.invokeAttached(a)
	l.invokeAttached(b)

	return nil
}

func (l *link) Attach(e sim.Endpoint) error {
	comp, err := l.ownComponent(e)
	if err != nil {
		return err
	}

	l.sim.lock.Lock()

	if len(l.ends) >= 2 {
		l.sim.lock.Unlock()
		return fmt.Errorf("attaching %s to link %s: %w",
			e.String(), l.name, sim.ErrLinkFull)
	}

	if err := comp.plugInLocked(e.Port, l); err != nil {
		l.sim.lock.Unlock()
		return fmt.Errorf("attaching link %s: %w", l.name, err)
	}

	l.ends = append(l.ends, e)

	l.sim.lock.Unlock()

	l.invokeAttached(e)

	return nil
}

func (l *link) ownComponent(e sim.Endpoint) (*component, error) {
	if e.Component == nil {
		return nil, fmt.Errorf("link %s: endpoint has no component", l.name)
	}

	c, ok := e.Component.(*component)
	if !ok || c.sim != l.sim {
		return nil, fmt.Errorf(
			"link %s: component %s does not belong to the same simulation",
			l.name, e.Component.Name())
	}

	return c, nil
}

func (l *link) invokeAttached(e sim.Endpoint) {
	l.sim.InvokeHook(hooking.HookCtx{
		Domain: l.sim,
		Pos:    sim.HookPosLinkAttached,
		Item:   l,
		Detail: e,
	})
}

func (l *link) MarkUncuttable() {
	l.sim.lock.Lock()
	wasMarked := l.uncuttable
	l.uncuttable = true
	l.sim.lock.Unlock()

	if wasMarked {
		return
	}

	l.sim.InvokeHook(hooking.HookCtx{
		Domain: l.sim,
		Pos:    sim.HookPosLinkMarkedUncuttable,
		Item:   l,
	})
}

func (l *link) Uncuttable() bool {
	l.sim.lock.RLock()
	defer l.sim.lock.RUnlock()

	return l.uncuttable
}

func (l *link) Endpoints() []sim.Endpoint {
	l.sim.lock.RLock()
	defer l.sim.lock.RUnlock()

	ends := make([]sim.Endpoint, len(l.ends))
	copy(ends, l.ends)

	return ends
}
