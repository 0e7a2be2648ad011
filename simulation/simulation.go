// Package simulation provides an in-process registry that creates the
// components and links of a topology and enforces its structural rules.
package simulation

import (
	"fmt"
	"sync"

	"github.com/rs/xid"
	"github.com/sarchlab/nodetopo/datarecording"
	"github.com/sarchlab/nodetopo/monitoring"
	"github.com/sarchlab/nodetopo/sim"
	"github.com/sarchlab/nodetopo/sim/hooking"
	"github.com/sarchlab/nodetopo/sim/naming"
)

// A Simulation owns every component and link created through it. Component
// names and link names must be unique within a simulation.
type Simulation struct {
	hooking.HookableBase

	lock sync.RWMutex
	id   string

	components    []*component
	subsystems    []*component
	compNameIndex map[string]*component
	links         []*link
	linkNameIndex map[string]*link

	dataRecorder datarecording.DataRecorder
	monitor      *monitoring.Monitor
}

var (
	_ sim.ComponentFactory = (*Simulation)(nil)
	_ sim.LinkWirer        = (*Simulation)(nil)
	_ monitoring.Topology  = (*Simulation)(nil)
)

// NewSimulation creates a simulation without recording and monitoring.
func NewSimulation() *Simulation {
	return &Simulation{
		id:            xid.New().String(),
		compNameIndex: make(map[string]*component),
		linkNameIndex: make(map[string]*link),
	}
}

// ID returns the ID of the simulation.
func (s *Simulation) ID() string {
	return s.id
}

// GetDataRecorder returns the data recorder used in the simulation, or nil.
func (s *Simulation) GetDataRecorder() datarecording.DataRecorder {
	return s.dataRecorder
}

// GetMonitor returns the monitor used in the simulation, or nil.
func (s *Simulation) GetMonitor() *monitoring.Monitor {
	return s.monitor
}

// CreateComponent creates a top-level component.
func (s *Simulation) CreateComponent(
	name string,
	tag sim.TypeTag,
) (sim.Component, error) {
	c, err := s.newComponent(name, tag, nil)
	if err != nil {
		return nil, err
	}

	s.InvokeHook(hooking.HookCtx{
		Domain: s,
		Pos:    sim.HookPosComponentCreated,
		Item:   c,
	})

	return c, nil
}

func (s *Simulation) newComponent(
	name string,
	tag sim.TypeTag,
	parent *component,
) (*component, error) {
	if !naming.IsValid(name) {
		return nil, fmt.Errorf("component name %q is not valid", name)
	}

	if err := tag.Validate(); err != nil {
		return nil, fmt.Errorf("creating %s: %w", name, err)
	}

	s.lock.Lock()
	defer s.lock.Unlock()

	if _, found := s.compNameIndex[name]; found {
		return nil, fmt.Errorf("component %s: %w", name, sim.ErrDuplicateName)
	}

	c := &component{
		sim:        s,
		name:       name,
		tag:        tag,
		params:     make(sim.Params),
		parent:     parent,
		subsystems: make(map[string]*component),
		ports:      make(map[string]*link),
	}

	s.compNameIndex[name] = c
	if parent == nil {
		s.components = append(s.components, c)
	} else {
		s.subsystems = append(s.subsystems, c)
	}

	return c, nil
}

// CreateLink creates a link with no ends attached.
func (s *Simulation) CreateLink(name string) (sim.Link, error) {
	if !naming.IsValid(name) {
		return nil, fmt.Errorf("link name %q is not valid", name)
	}

	s.lock.Lock()

	if _, found := s.linkNameIndex[name]; found {
		s.lock.Unlock()
		return nil, fmt.Errorf("link %s: %w", name, sim.ErrDuplicateName)
	}

	l := &link{sim: s, name: name}
	s.links = append(s.links, l)
	s.linkNameIndex[name] = l

	s.lock.Unlock()

	s.InvokeHook(hooking.HookCtx{
		Domain: s,
		Pos:    sim.HookPosLinkCreated,
		Item:   l,
	})

	return l, nil
}

// Components returns the top-level components in creation order.
func (s *Simulation) Components() []sim.Component {
	s.lock.RLock()
	defer s.lock.RUnlock()

	list := make([]sim.Component, len(s.components))
	for i, c := range s.components {
		list[i] = c
	}

	return list
}

// Subsystems returns the subsystems in creation order.
func (s *Simulation) Subsystems() []sim.Component {
	s.lock.RLock()
	defer s.lock.RUnlock()

	list := make([]sim.Component, len(s.subsystems))
	for i, c := range s.subsystems {
		list[i] = c
	}

	return list
}

// Links returns the links in creation order.
func (s *Simulation) Links() []sim.Link {
	s.lock.RLock()
	defer s.lock.RUnlock()

	list := make([]sim.Link, len(s.links))
	for i, l := range s.links {
		list[i] = l
	}

	return list
}

// GetComponentByName returns the component or subsystem with the given name.
func (s *Simulation) GetComponentByName(name string) (sim.Component, bool) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	c, found := s.compNameIndex[name]
	if !found {
		return nil, false
	}

	return c, true
}

// GetLinkByName returns the link with the given name.
func (s *Simulation) GetLinkByName(name string) (sim.Link, bool) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	l, found := s.linkNameIndex[name]
	if !found {
		return nil, false
	}

	return l, true
}

// ComponentsByTag returns the components and subsystems of the given kind in
// creation order.
func (s *Simulation) ComponentsByTag(tag sim.TypeTag) []sim.Component {
	s.lock.RLock()
	defer s.lock.RUnlock()

	var list []sim.Component

	for _, c := range s.components {
		if c.tag == tag {
			list = append(list, c)
		}
	}

	for _, c := range s.subsystems {
		if c.tag == tag {
			list = append(list, c)
		}
	}

	return list
}

// OpenLinks returns the links that still have a free end.
func (s *Simulation) OpenLinks() []sim.Link {
	var list []sim.Link

	for _, l := range s.Links() {
		if sim.IsOpen(l) {
			list = append(list, l)
		}
	}

	return list
}

// Terminate flushes the data recorder.
func (s *Simulation) Terminate() {
	if s.dataRecorder != nil {
		s.dataRecorder.Flush()
	}
}
