// Package core models the CPU core as seen by the SoC: its bus ports, its
// static configuration, and the input signals other fabrics wire into it.
//
// A Core moves through three states:
//
//	Constructed -> Configured -> Finalized
//
// SetResetAddress performs the first transition and may happen exactly once.
// Finalize performs the second and emits the instantiation parameters;
// nothing can be configured or wired afterwards.
package core

import (
	"fmt"

	"github.com/roach88/socgen/internal/bus"
	"github.com/roach88/socgen/internal/ir"
	"github.com/roach88/socgen/internal/variant"
)

// Module is the HDL wrapper the core is instantiated as.
const Module = "litex_wrapper"

// Fixed interface widths.
const (
	// InterruptSources is the width of the raw interrupt source vector.
	InterruptSources = 32
	// InterruptInputs is the number of privilege-level interrupt inputs
	// (machine, supervisor).
	InterruptInputs = 2
	// TimeWidth is the width of the external time value.
	TimeWidth = 64
)

// Input port names accepted by Connect.
const (
	InputMachineInterrupt    = "cpu_m_interrupt"
	InputSupervisorInterrupt = "cpu_s_interrupt"
	InputTime                = "mtime"
	InputSoftwareInterrupt   = "cpu_software_in"
	InputTimerInterrupt      = "cpu_timer_in"
)

var inputs = []struct {
	name  string
	width int
}{
	{InputMachineInterrupt, 1},
	{InputSupervisorInterrupt, 1},
	{InputTime, TimeWidth},
	{InputSoftwareInterrupt, 1},
	{InputTimerInterrupt, 1},
}

// Inputs returns the names of the wireable inputs in declaration order.
func Inputs() []string {
	names := make([]string, len(inputs))
	for i, in := range inputs {
		names[i] = in.name
	}
	return names
}

// DefaultNonCacheable is the uncached I/O window used when none is given.
// It stops below 0xF000_0000, where the interrupt controller and timer live.
var DefaultNonCacheable = ir.AddressRange{Low: 0x80000000, High: 0xEFFFFFFF}

// Default clock and reset nets of the system clock domain.
var (
	SysClock = ir.Signal{Name: "sys_clk", Width: 1}
	SysReset = ir.Signal{Name: "sys_rst", Width: 1}
)

// State is a step in the core's lifecycle.
type State int

const (
	StateConstructed State = iota
	StateConfigured
	StateFinalized
)

func (s State) String() string {
	switch s {
	case StateConstructed:
		return "constructed"
	case StateConfigured:
		return "configured"
	case StateFinalized:
		return "finalized"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// resetVector is either unset or set to addr.
type resetVector struct {
	addr uint64
	set  bool
}

// Options configures a Core. Zero values select the defaults.
type Options struct {
	NonCacheable *ir.AddressRange
	Clock        *ir.Signal
	Reset        *ir.Signal
}

// Core is one CPU instance.
type Core struct {
	profile      variant.Profile
	ports        []ir.BusPort
	nonCacheable ir.AddressRange
	clk          ir.Signal
	rst          ir.Signal
	interrupt    ir.Signal

	reset resetVector
	wired []ir.Param
	state State
}

// New builds a core for profile, constructing its bus interface set.
func New(profile variant.Profile, opts Options) (*Core, error) {
	ports, err := bus.NewInterfaceSet(profile.Topology)
	if err != nil {
		return nil, fmt.Errorf("core %s: %w", profile.Variant, err)
	}

	nc := DefaultNonCacheable
	if opts.NonCacheable != nil {
		nc = *opts.NonCacheable
	}
	if nc.High < nc.Low {
		return nil, fmt.Errorf("core %s: non-cacheable range 0x%x-0x%x is inverted", profile.Variant, nc.Low, nc.High)
	}
	if nc.High >= uint64(1)<<bus.AddressWidth {
		return nil, fmt.Errorf("core %s: non-cacheable range ends at 0x%x, past the %d-bit address space",
			profile.Variant, nc.High, bus.AddressWidth)
	}

	c := &Core{
		profile:      profile,
		ports:        ports,
		nonCacheable: nc,
		clk:          SysClock,
		rst:          SysReset,
		interrupt:    ir.Signal{Name: "litex_interrupt", Width: InterruptSources},
	}
	if opts.Clock != nil {
		c.clk = *opts.Clock
	}
	if opts.Reset != nil {
		c.rst = *opts.Reset
	}
	return c, nil
}

// Profile returns the variant profile the core was built with.
func (c *Core) Profile() variant.Profile { return c.profile }

// Ports returns the core's bus ports: one combined port or fetch then
// load-store.
func (c *Core) Ports() []ir.BusPort {
	out := make([]ir.BusPort, len(c.ports))
	copy(out, c.ports)
	return out
}

// Interrupt returns the raw interrupt source vector.
func (c *Core) Interrupt() ir.Signal { return c.interrupt }

// InterruptInputs returns the number of privilege-level interrupt inputs.
func (c *Core) InterruptInputs() int { return InterruptInputs }

// Clock returns the core's clock net.
func (c *Core) Clock() ir.Signal { return c.clk }

// Reset returns the core's reset net.
func (c *Core) Reset() ir.Signal { return c.rst }

// NonCacheable returns the declared uncached address range.
func (c *Core) NonCacheable() ir.AddressRange { return c.nonCacheable }

// State returns the lifecycle state.
func (c *Core) State() State { return c.state }

// SetResetAddress sets the reset vector. It may be called exactly once.
func (c *Core) SetResetAddress(addr uint64) error {
	if c.state == StateFinalized {
		return ir.NewDuplicate("core", "reset vector (core is finalized)")
	}
	if c.reset.set {
		err := ir.NewDuplicate("core", "reset vector")
		err.Details = map[string]string{
			"current":   fmt.Sprintf("0x%x", c.reset.addr),
			"requested": fmt.Sprintf("0x%x", addr),
		}
		return err
	}
	if addr >= uint64(1)<<bus.AddressWidth {
		return fmt.Errorf("core: reset vector 0x%x outside the %d-bit address space", addr, bus.AddressWidth)
	}
	c.reset = resetVector{addr: addr, set: true}
	c.state = StateConfigured
	return nil
}

// ResetAddress returns the reset vector and whether it has been set.
func (c *Core) ResetAddress() (uint64, bool) {
	return c.reset.addr, c.reset.set
}

// Connect wires one of the core's inputs. The parameter must be an input
// named after a declared core input with a matching width; each input may be
// wired once.
func (c *Core) Connect(p ir.Param) error {
	if c.state == StateFinalized {
		return ir.NewDuplicate("core", fmt.Sprintf("input %q (core is finalized)", p.Name))
	}
	if p.Dir != ir.DirInput || p.Signal == nil {
		return ir.NewTopologyMismatch("core", fmt.Sprintf("%s is not an input connection", p.Key()))
	}
	width := -1
	for _, in := range inputs {
		if in.name == p.Name {
			width = in.width
			break
		}
	}
	if width < 0 {
		return ir.NewTopologyMismatch("core", fmt.Sprintf("no input named %q", p.Name))
	}
	if p.Signal.Width != width {
		return ir.NewWidthMismatch("core", p.Name, width, p.Signal.Width)
	}
	if c.Wired(p.Name) {
		return ir.NewDuplicate("core", fmt.Sprintf("input %q", p.Name))
	}
	c.wired = append(c.wired, p)
	return nil
}

// Wired reports whether the named input has been connected.
func (c *Core) Wired(name string) bool {
	for _, w := range c.wired {
		if w.Name == name {
			return true
		}
	}
	return false
}

// Unwired returns the declared inputs that have no connection yet.
func (c *Core) Unwired() []string {
	var out []string
	for _, in := range inputs {
		if !c.Wired(in.name) {
			out = append(out, in.name)
		}
	}
	return out
}

// Finalize emits the core's instance. The reset vector must be set; a core
// can be finalized once.
func (c *Core) Finalize() (ir.Instance, error) {
	switch c.state {
	case StateConstructed:
		return ir.Instance{}, ir.NewMissing("core", "reset vector")
	case StateFinalized:
		return ir.Instance{}, ir.NewDuplicate("core", "finalize")
	}

	params := []ir.Param{
		ir.ConstParam("LITEX_VARIANT", int64(c.profile.Index)),
		ir.ConstParam("RESET_VEC", int64(c.reset.addr)),
		ir.ConstParam("NON_CACHABLE_L", int64(c.nonCacheable.Low)),
		ir.ConstParam("NON_CACHABLE_H", int64(c.nonCacheable.High)),
		ir.Input("clk", c.clk),
		ir.Input("rst", c.rst),
		ir.Input("litex_interrupt", c.interrupt),
	}
	for _, p := range c.ports {
		params = append(params, bus.MasterParams(p)...)
	}
	params = append(params, c.wired...)

	c.state = StateFinalized
	return ir.Instance{Module: Module, Name: "cpu", Params: params}, nil
}
