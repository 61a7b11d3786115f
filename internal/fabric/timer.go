package fabric

import (
	"github.com/roach88/socgen/internal/bus"
	"github.com/roach88/socgen/internal/core"
	"github.com/roach88/socgen/internal/ir"
)

// Timer describes the timer unit as advertised by its port list.
type Timer struct {
	Module    string
	Name      string
	TimeWidth int
	Base      uint64
	Size      uint64
}

// CLINT returns the core-local interruptor used by the SoC.
func CLINT() Timer {
	return Timer{
		Module:    "clint",
		Name:      "clint",
		TimeWidth: core.TimeWidth,
		Base:      CLINTBase,
		Size:      CLINTSize,
	}
}

// TimerFabric is the built timer wiring.
type TimerFabric struct {
	Instance ir.Instance
	Port     ir.BusPort
	Region   ir.Region
	// Time is the free-running counter. Only the timer drives it.
	Time  ir.Signal
	Wires []ir.Param
}

// BuildTimer instantiates the timer on the system clock, using the same
// clock as its real-time reference, and routes its time value, timer-pending
// and software-interrupt-pending outputs to the core.
func BuildTimer(t Timer, cpu Clocked) (*TimerFabric, error) {
	component := t.Name
	if component == "" {
		component = "timer"
	}
	if t.TimeWidth != core.TimeWidth {
		return nil, ir.NewWidthMismatch(component, "mtime", core.TimeWidth, t.TimeWidth)
	}

	port := bus.NewPort(t.Name, ir.RolePeripheral)
	if err := bus.Validate(port); err != nil {
		return nil, err
	}

	mtime := ir.Signal{Name: "mtime", Width: t.TimeWidth}
	softwareIn := ir.Signal{Name: "software_in", Width: 1}
	timerIn := ir.Signal{Name: "timer_in", Width: 1}

	params := []ir.Param{
		ir.Input("clk", cpu.Clock()),
		ir.Input("reset", cpu.Reset()),
	}
	params = append(params, bus.SlaveParams(port)...)
	params = append(params,
		ir.Input("rtc_i", cpu.Clock()),
		ir.Output("timer_irq_o", timerIn),
		ir.Output("ipi_o", softwareIn),
		ir.Output("mtime_o", mtime),
	)

	return &TimerFabric{
		Instance: ir.Instance{Module: t.Module, Name: t.Name, Params: params},
		Port:     port,
		Region:   uncachedRegion(t.Name, t.Base, t.Size),
		Time:     mtime,
		Wires: []ir.Param{
			ir.Input(core.InputTime, mtime),
			ir.Input(core.InputSoftwareInterrupt, softwareIn),
			ir.Input(core.InputTimerInterrupt, timerIn),
		},
	}, nil
}
