package fabric

import (
	"fmt"

	"github.com/roach88/socgen/internal/bus"
	"github.com/roach88/socgen/internal/core"
	"github.com/roach88/socgen/internal/ir"
)

// InterruptTargets is the controller's output count: target 0 is the
// machine-mode interrupt, target 1 the supervisor-mode interrupt. It must
// track core.InterruptInputs.
const InterruptTargets = 2

// InterruptController describes the interrupt controller as advertised by
// its port list.
type InterruptController struct {
	Module  string
	Name    string
	Sources int
	Targets int
	Base    uint64
	Size    uint64
}

// PLIC returns the platform-level interrupt controller used by the SoC.
func PLIC() InterruptController {
	return InterruptController{
		Module:  "wishbone_plic_top",
		Name:    "plic",
		Sources: core.InterruptSources,
		Targets: InterruptTargets,
		Base:    PLICBase,
		Size:    PLICSize,
	}
}

// InterruptFabric is the built interrupt wiring.
type InterruptFabric struct {
	Instance ir.Instance
	Port     ir.BusPort
	Region   ir.Region
	Assigns  []ir.Assign
	// Wires are the core inputs driven by the controller.
	Wires []ir.Param
}

// BuildInterrupt wires the core's raw interrupt sources into the controller
// and the controller's two targets back into the core's machine and
// supervisor inputs. Any width or fan-in disagreement is a TopologyMismatch.
func BuildInterrupt(ctrl InterruptController, cpu InterruptTarget) (*InterruptFabric, error) {
	component := ctrl.Name
	if component == "" {
		component = "interrupt"
	}

	sources := cpu.Interrupt()
	if ctrl.Sources != sources.Width {
		return nil, ir.NewWidthMismatch(component, "interrupt sources", sources.Width, ctrl.Sources)
	}
	switch inputs := cpu.InterruptInputs(); {
	case inputs != InterruptTargets:
		return nil, ir.NewTopologyMismatch(component,
			fmt.Sprintf("%d core interrupt inputs cannot take the machine/supervisor targets", inputs))
	case ctrl.Targets != inputs:
		return nil, ir.NewWidthMismatch(component, "interrupt targets", inputs, ctrl.Targets)
	}

	port := bus.NewPort(ctrl.Name, ir.RolePeripheral)
	if err := bus.Validate(port); err != nil {
		return nil, err
	}

	targets := ir.Signal{Name: "cpu_irqs", Width: ctrl.Targets}
	mInterrupt := ir.Signal{Name: "m_interrupt", Width: 1}
	sInterrupt := ir.Signal{Name: "s_interrupt", Width: 1}

	params := []ir.Param{
		ir.ConstParam("SOURCES", int64(ctrl.Sources)),
		ir.ConstParam("TARGETS", int64(ctrl.Targets)),
		ir.Input("clk", cpu.Clock()),
		ir.Input("reset", cpu.Reset()),
	}
	params = append(params, bus.SlaveParams(port)...)
	params = append(params,
		ir.Input("sources", sources),
		ir.Output("targets", targets),
	)

	return &InterruptFabric{
		Instance: ir.Instance{Module: ctrl.Module, Name: ctrl.Name, Params: params},
		Port:     port,
		Region:   uncachedRegion(ctrl.Name, ctrl.Base, ctrl.Size),
		Assigns: []ir.Assign{
			{Dst: mInterrupt, Src: targets.Bit(0)},
			{Dst: sInterrupt, Src: targets.Bit(1)},
		},
		Wires: []ir.Param{
			ir.Input(core.InputMachineInterrupt, mInterrupt),
			ir.Input(core.InputSupervisorInterrupt, sInterrupt),
		},
	}, nil
}
