package sim

import "github.com/sarchlab/nodetopo/sim/hooking"

// HookPosComponentCreated marks when a component is created. The item is the
// component.
var HookPosComponentCreated = &hooking.HookPos{Name: "Component Created"}

// HookPosSubsystemAttached marks when a subsystem is attached to a component.
// The item is the subsystem and the detail is the parent component.
var HookPosSubsystemAttached = &hooking.HookPos{Name: "Subsystem Attached"}

// HookPosParamsSet marks when parameters are set on a component. The item is
// the component and the detail is the bag that was set.
var HookPosParamsSet = &hooking.HookPos{Name: "Params Set"}

// HookPosLinkCreated marks when a link is created. The item is the link.
var HookPosLinkCreated = &hooking.HookPos{Name: "Link Created"}

// HookPosLinkAttached marks when an end is attached to a link. The item is the
// link and the detail is the Endpoint.
var HookPosLinkAttached = &hooking.HookPos{Name: "Link Attached"}

// HookPosLinkMarkedUncuttable marks when a link is marked uncuttable for the
// first time. The item is the link.
var HookPosLinkMarkedUncuttable = &hooking.HookPos{
	Name: "Link Marked Uncuttable",
}
