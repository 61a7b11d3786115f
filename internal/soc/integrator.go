// Package soc assembles a complete SoC around one CPU core.
//
// An Integrator owns the core, the address map and the fabric descriptors
// for a single build. Construction resolves the variant, builds the core and
// attaches its bus ports; Build adds the interrupt and timer fabrics,
// finalizes the core, validates the signal driver table and emits the
// instantiation bundle. Every step fails fast with an *ir.BuildError and no
// partial bundle is ever returned.
package soc

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/roach88/socgen/internal/addrmap"
	"github.com/roach88/socgen/internal/bus"
	"github.com/roach88/socgen/internal/core"
	"github.com/roach88/socgen/internal/fabric"
	"github.com/roach88/socgen/internal/ir"
	"github.com/roach88/socgen/internal/variant"
)

// NonCacheableName is the address map reservation for the CPU's uncached
// window.
const NonCacheableName = "cpu_non_cacheable"

// GCCTriples are the toolchain prefixes accepted for 32-bit RISC-V software,
// in preference order.
var GCCTriples = []string{
	"riscv64-pc-linux-musl",
	"riscv64-unknown-elf",
	"riscv64-unknown-linux-gnu",
	"riscv64-elf",
	"riscv64-linux",
	"riscv64-linux-gnu",
	"riscv64-none-elf",
	"riscv32-unknown-elf",
	"riscv32-unknown-linux-gnu",
	"riscv32-elf",
	"riscv-none-elf",
	"riscv-none-embed",
}

// Options configures an Integrator. Zero values select the defaults.
type Options struct {
	Logger *slog.Logger
	// Core overrides the core options derived from the config.
	Core core.Options
	// Interrupt and Timer override the peripheral descriptors.
	Interrupt *fabric.InterruptController
	Timer     *fabric.Timer
	// Sources is the resolved HDL source list recorded in the bundle.
	Sources []string
	// IDs names the bundle. Defaults to UUIDv7Generator.
	IDs IDGenerator
}

// Integrator builds one SoC.
type Integrator struct {
	cfg     ir.Config
	profile variant.Profile
	core    *core.Core
	amap    *addrmap.Map
	ctrl    fabric.InterruptController
	timer   fabric.Timer
	sources []string
	ids     IDGenerator
	logger  *slog.Logger

	built bool
}

// New resolves cfg.Variant in table, builds the core and the address map,
// reserves the core's non-cacheable window and attaches the core's ports as
// bus masters.
func New(table variant.Table, cfg ir.Config, opts Options) (*Integrator, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("soc", cfg.Name)

	profile, err := table.Lookup(cfg.Variant)
	if err != nil {
		return nil, fmt.Errorf("soc %s: %w", cfg.Name, err)
	}

	coreOpts := opts.Core
	if coreOpts.NonCacheable == nil && cfg.NonCacheable != nil {
		nc := *cfg.NonCacheable
		coreOpts.NonCacheable = &nc
	}
	cpu, err := core.New(profile, coreOpts)
	if err != nil {
		return nil, fmt.Errorf("soc %s: %w", cfg.Name, err)
	}

	amap := addrmap.New(bus.AddressWidth)
	if err := amap.Reserve(NonCacheableName, cpu.NonCacheable()); err != nil {
		return nil, fmt.Errorf("soc %s: %w", cfg.Name, err)
	}
	for _, p := range cpu.Ports() {
		if err := amap.AddMaster(p.Name, p); err != nil {
			return nil, fmt.Errorf("soc %s: %w", cfg.Name, err)
		}
	}

	s := &Integrator{
		cfg:     cfg,
		profile: profile,
		core:    cpu,
		amap:    amap,
		ctrl:    fabric.PLIC(),
		timer:   fabric.CLINT(),
		sources: append([]string(nil), opts.Sources...),
		ids:     opts.IDs,
		logger:  logger,
	}
	if s.ids == nil {
		s.ids = UUIDv7Generator{}
	}
	if opts.Interrupt != nil {
		s.ctrl = *opts.Interrupt
	}
	if opts.Timer != nil {
		s.timer = *opts.Timer
	}

	logger.Debug("core constructed",
		"variant", profile.Variant,
		"topology", profile.Topology,
		"ports", len(cpu.Ports()))
	return s, nil
}

// Core returns the CPU core being integrated.
func (s *Integrator) Core() *core.Core { return s.core }

// AddressMap returns the build's address map.
func (s *Integrator) AddressMap() *addrmap.Map { return s.amap }

// Profile returns the resolved variant profile.
func (s *Integrator) Profile() variant.Profile { return s.profile }

// SetResetAddress sets the core's reset vector. It may be called once.
func (s *Integrator) SetResetAddress(addr uint64) error {
	if err := s.core.SetResetAddress(addr); err != nil {
		return fmt.Errorf("soc %s: %w", s.cfg.Name, err)
	}
	s.logger.Debug("reset vector set", "addr", fmt.Sprintf("0x%x", addr))
	return nil
}

// Build wires the interrupt and timer fabrics, finalizes the core and
// returns the instantiation bundle. It may be called once.
func (s *Integrator) Build() (*ir.Bundle, error) {
	if s.built {
		return nil, fmt.Errorf("soc %s: %w", s.cfg.Name, ir.NewDuplicate("soc", "build"))
	}
	s.built = true

	irq, err := fabric.BuildInterrupt(s.ctrl, s.core)
	if err != nil {
		return nil, s.fail("interrupt fabric", err)
	}
	if err := s.attach(irq.Port, irq.Region, irq.Wires); err != nil {
		return nil, s.fail("interrupt fabric", err)
	}
	s.logger.Debug("interrupt fabric wired", "region", irq.Region.String())

	tmr, err := fabric.BuildTimer(s.timer, s.core)
	if err != nil {
		return nil, s.fail("timer fabric", err)
	}
	if err := s.attach(tmr.Port, tmr.Region, tmr.Wires); err != nil {
		return nil, s.fail("timer fabric", err)
	}
	s.logger.Debug("timer fabric wired", "region", tmr.Region.String())

	cpu, err := s.core.Finalize()
	if err != nil {
		return nil, s.fail("core", err)
	}

	for _, name := range []string{s.ctrl.Name, s.timer.Name} {
		if _, ok := s.amap.Region(name); !ok {
			return nil, s.fail("address map", ir.NewMissing("addrmap", fmt.Sprintf("region %q", name)))
		}
	}

	instances := []ir.Instance{cpu, irq.Instance, tmr.Instance}
	if err := checkDrivers(instances, irq.Assigns, s.core, tmr.Instance.Name, tmr.Time); err != nil {
		return nil, s.fail("drivers", err)
	}

	bundle := s.assemble(instances, irq.Assigns)
	hash, err := ir.BundleHash(bundle)
	if err != nil {
		return nil, fmt.Errorf("soc %s: %w", s.cfg.Name, err)
	}
	bundle.Hash = hash

	s.logger.Info("soc built",
		"variant", bundle.Variant,
		"regions", len(bundle.Regions),
		"hash", hash)
	return bundle, nil
}

// attach registers a peripheral slave and its region, then applies its core
// wires.
func (s *Integrator) attach(port ir.BusPort, region ir.Region, wires []ir.Param) error {
	if err := s.amap.AddSlave(port.Name, port, region); err != nil {
		return err
	}
	for _, w := range wires {
		if err := s.core.Connect(w); err != nil {
			return err
		}
	}
	return nil
}

func (s *Integrator) fail(step string, err error) error {
	s.logger.Debug("build failed", "step", step, "code", ir.CodeOf(err), "error", err)
	return fmt.Errorf("soc %s: %s: %w", s.cfg.Name, step, err)
}

func (s *Integrator) assemble(instances []ir.Instance, assigns []ir.Assign) *ir.Bundle {
	reset, _ := s.core.ResetAddress()
	nc := s.core.NonCacheable()

	return &ir.Bundle{
		ID:        s.ids.Generate(),
		IRVersion: ir.IRVersion,
		SoC:       s.cfg.Name,
		Variant:   s.profile.Variant,
		CPU: ir.CPUInfo{
			Name:               "cva5",
			HumanName:          s.profile.HumanName(),
			Category:           "softcore",
			Family:             "riscv",
			DataWidth:          bus.DataWidth,
			Endianness:         "little",
			GCCTriple:          append([]string(nil), GCCTriples...),
			GCCFlags:           s.profile.GCCFlags(),
			LinkerOutputFormat: "elf32-littleriscv",
			Nop:                "nop",
			VariantIndex:       s.profile.Index,
			ResetVector:        reset,
			NonCacheable:       nc,
			IORegions:          []ir.Region{nc.Region("io")},
		},
		Instances: instances,
		Assigns:   append([]ir.Assign(nil), assigns...),
		Regions:   s.amap.Regions(),
		Masters:   s.amap.Masters(),
		Slaves:    s.amap.Slaves(),
		Sources:   append([]string(nil), s.sources...),
	}
}

// checkDrivers builds the driver table from instance outputs and
// combinational assigns and enforces:
//   - every signal has at most one driver;
//   - the time value is driven by the timer instance alone;
//   - every core input is wired and its net has a driver.
func checkDrivers(instances []ir.Instance, assigns []ir.Assign, cpu *core.Core, timer string, mtime ir.Signal) error {
	drivers := make(map[string][]string)
	for _, in := range instances {
		for _, p := range in.Params {
			if p.Dir == ir.DirOutput && p.Signal != nil {
				drivers[p.Signal.Name] = append(drivers[p.Signal.Name], in.Name)
			}
		}
	}
	for _, a := range assigns {
		drivers[a.Dst.Name] = append(drivers[a.Dst.Name], "assign")
	}

	names := make([]string, 0, len(drivers))
	for name := range drivers {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if d := drivers[name]; len(d) > 1 {
			err := ir.NewTopologyMismatch("drivers", fmt.Sprintf("signal %q has %d drivers", name, len(d)))
			err.Details = map[string]string{"drivers": fmt.Sprint(d)}
			return err
		}
	}

	if d := drivers[mtime.Name]; len(d) != 1 || d[0] != timer {
		return ir.NewTopologyMismatch("drivers", fmt.Sprintf("%s must be driven by %s only, got %v", mtime.Name, timer, d))
	}

	if unwired := cpu.Unwired(); len(unwired) > 0 {
		return ir.NewMissing("core", fmt.Sprintf("connection for inputs %v", unwired))
	}

	var cpuInst ir.Instance
	for _, in := range instances {
		if in.Module == core.Module {
			cpuInst = in
		}
	}
	for _, name := range core.Inputs() {
		p, ok := cpuInst.Lookup("i_" + name)
		if !ok {
			return ir.NewMissing("core", fmt.Sprintf("input %q in the core instance", name))
		}
		if len(drivers[p.Signal.Name]) == 0 {
			return ir.NewTopologyMismatch("drivers", fmt.Sprintf("core input %q is wired to undriven net %q", name, p.Signal.Name))
		}
	}
	return nil
}
