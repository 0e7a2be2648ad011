package node

import (
	"fmt"

	"github.com/sarchlab/nodetopo/params"
	"github.com/sarchlab/nodetopo/sim"
	"github.com/sarchlab/nodetopo/sim/naming"
	"github.com/sirupsen/logrus"
)

// BackendSlot is the subsystem slot of the memory controller that holds the
// backend.
const BackendSlot = "backend"

var backendTags = map[params.BackendKind]sim.TypeTag{
	params.BackendSimple: sim.TagSimpleMem,
	params.BackendTiming: sim.TagTimingDRAM,
	params.BackendHBM:    sim.TagCramSim,
}

// selectBackend attaches the backend to the memory controller. The hbm
// backend also gets a bridge, a controller and a DIMM chained behind it.
func (m *BasicModel) selectBackend(
	ctx naming.Context,
	memory sim.Component,
	plan *buildPlan,
) error {
	tag, ok := backendTags[plan.backend]
	if !ok {
		return &params.ConfigError{
			Key: params.KeyMemoryBackend,
			Err: fmt.Errorf("%w: %q", params.ErrUnknownBackend, plan.backend),
		}
	}

	logrus.Infof("%s: configuring %s memory backend", ctx.Prefix(), plan.backend)

	backend, err := memory.AttachSubsystem(BackendSlot, tag)
	if err != nil {
		return err
	}

	if err := backend.SetParameters(plan.memoryBackend); err != nil {
		return fmt.Errorf("setting parameters of %s: %w", backend.Name(), err)
	}

	if !plan.backend.Cascaded() {
		return nil
	}

	return m.createHBMChain(ctx.Child("HBM"), backend, plan)
}

func (m *BasicModel) createHBMChain(
	ctx naming.Context,
	backend sim.Component,
	plan *buildPlan,
) error {
	lat := plan.latencies

	bridge, err := m.createComponent(
		ctx.Name("Bridge"), sim.TagCramSimBridge, plan.bridge)
	if err != nil {
		return err
	}

	ctrl, err := m.createComponent(
		ctx.Name("Controller"), sim.TagCramSimController, plan.ctrl)
	if err != nil {
		return err
	}

	dimm, err := m.createComponent(
		ctx.Name("Dimm"), sim.TagCramSimDimm, plan.dimm)
	if err != nil {
		return err
	}

	_, err = m.connect(ctx.Name("MemCtrlBridgeLink"),
		sim.At(backend, "cramsim_link", lat.HBMBackend),
		sim.At(bridge, "cpuLink", lat.HBMBridgeCPU))
	if err != nil {
		return err
	}

	_, err = m.connect(ctx.Name("BridgeCtrlLink"),
		sim.At(bridge, "memLink", lat.HBMBridgeMem),
		sim.At(ctrl, "txngenLink", lat.HBMCtrlTxnGen))
	if err != nil {
		return err
	}

	_, err = m.connect(ctx.Name("CtrlDimmLink"),
		sim.At(ctrl, "memLink", lat.HBMCtrlMem),
		sim.At(dimm, "ctrlLink", lat.HBMDimm))

	return err
}
