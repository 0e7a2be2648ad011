package datarecording

import (
	"fmt"

	"github.com/sarchlab/nodetopo/sim"
	"github.com/sarchlab/nodetopo/sim/hooking"
)

// Table names used by the TopologyRecorder.
const (
	ComponentTable      = "component"
	ComponentParamTable = "component_param"
	LinkTable           = "link"
	LinkEndTable        = "link_end"
	UncuttableLinkTable = "uncuttable_link"
)

// ComponentEntry is a row of the component table.
type ComponentEntry struct {
	Name   string
	Type   string
	Role   string
	Parent string
}

// ComponentParamEntry is a row of the component_param table. Nested bags are
// flattened into dotted keys.
type ComponentParamEntry struct {
	Component  string
	ParamKey   string
	ParamValue string
}

// LinkEntry is a row of the link table.
type LinkEntry struct {
	Name string
}

// LinkEndEntry is a row of the link_end table.
type LinkEndEntry struct {
	Link      string
	EndIndex  int
	Component string
	Port      string
	LatencyPS uint64
}

// UncuttableLinkEntry is a row of the uncuttable_link table.
type UncuttableLinkEntry struct {
	Link string
}

type parented interface {
	Parent() sim.Component
}

// TopologyRecorder is a hook that records every component and link created
// by a registry.
type TopologyRecorder struct {
	recorder DataRecorder
	endCount map[string]int
}

// NewTopologyRecorder creates the topology tables and returns the hook.
func NewTopologyRecorder(r DataRecorder) *TopologyRecorder {
	r.CreateTable(ComponentTable, ComponentEntry{})
	r.CreateTable(ComponentParamTable, ComponentParamEntry{})
	r.CreateTable(LinkTable, LinkEntry{})
	r.CreateTable(LinkEndTable, LinkEndEntry{})
	r.CreateTable(UncuttableLinkTable, UncuttableLinkEntry{})

	return &TopologyRecorder{
		recorder: r,
		endCount: make(map[string]int),
	}
}

// Func records the item of the hook context.
func (t *TopologyRecorder) Func(ctx hooking.HookCtx) {
	switch ctx.Pos {
	case sim.HookPosComponentCreated, sim.HookPosSubsystemAttached:
		t.recordComponent(ctx.Item.(sim.Component))
	case sim.HookPosParamsSet:
		t.recordParams(ctx.Item.(sim.Component), ctx.Detail.(sim.Params))
	case sim.HookPosLinkCreated:
		t.recorder.InsertData(LinkTable, LinkEntry{
			Name: ctx.Item.(sim.Link).Name(),
		})
	case sim.HookPosLinkAttached:
		t.recordEnd(ctx.Item.(sim.Link), ctx.Detail.(sim.Endpoint))
	case sim.HookPosLinkMarkedUncuttable:
		t.recorder.InsertData(UncuttableLinkTable, UncuttableLinkEntry{
			Link: ctx.Item.(sim.Link).Name(),
		})
	}
}

func (t *TopologyRecorder) recordComponent(c sim.Component) {
	entry := ComponentEntry{
		Name: c.Name(),
		Type: string(c.TypeTag()),
		Role: c.TypeTag().Role().String(),
	}

	if p, ok := c.(parented); ok && p.Parent() != nil {
		entry.Parent = p.Parent().Name()
	}

	t.recorder.InsertData(ComponentTable, entry)
}

func (t *TopologyRecorder) recordParams(c sim.Component, p sim.Params) {
	flattenParams("", p, func(key string, value any) {
		t.recorder.InsertData(ComponentParamTable, ComponentParamEntry{
			Component:  c.Name(),
			ParamKey:   key,
			ParamValue: fmt.Sprint(value),
		})
	})
}

func flattenParams(prefix string, p sim.Params, emit func(string, any)) {
	for _, k := range p.Keys() {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}

		if nested, ok := p[k].(sim.Params); ok {
			flattenParams(key, nested, emit)
			continue
		}

		emit(key, p[k])
	}
}

func (t *TopologyRecorder) recordEnd(l sim.Link, e sim.Endpoint) {
	index := t.endCount[l.Name()]
	t.endCount[l.Name()]++

	t.recorder.InsertData(LinkEndTable, LinkEndEntry{
		Link:      l.Name(),
		EndIndex:  index,
		Component: e.Component.Name(),
		Port:      e.Port,
		LatencyPS: uint64(e.Latency),
	})
}
