package soc

import (
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/socgen/internal/core"
	"github.com/roach88/socgen/internal/fabric"
	"github.com/roach88/socgen/internal/ir"
	"github.com/roach88/socgen/internal/testutil"
	"github.com/roach88/socgen/internal/variant"
)

func quietOptions() Options {
	return Options{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

func newIntegrator(t *testing.T, v ir.Variant) *Integrator {
	t.Helper()
	s, err := New(variant.Default(), ir.Config{Name: "demo", Variant: v}, quietOptions())
	require.NoError(t, err)
	return s
}

func TestStandardBuild(t *testing.T) {
	s := newIntegrator(t, ir.VariantStandard)
	require.NoError(t, s.SetResetAddress(0x1000))

	b, err := s.Build()
	require.NoError(t, err)

	cpu, ok := b.Instance(core.Module)
	require.True(t, ok)

	p, ok := cpu.Lookup("p_RESET_VEC")
	require.True(t, ok)
	assert.Equal(t, int64(0x1000), *p.Const)

	// One combined port.
	_, ok = cpu.Lookup("o_idbus_adr")
	assert.True(t, ok)
	_, ok = cpu.Lookup("o_ibus_adr")
	assert.False(t, ok)
	require.Len(t, b.Masters, 1)
	assert.Equal(t, "idbus", b.Masters[0].Name)

	plic, ok := b.Region("plic")
	require.True(t, ok)
	assert.Equal(t, uint64(0xF0C00000), plic.Base)
	assert.Equal(t, uint64(0x400000), plic.Size)
	assert.False(t, plic.Cacheable)

	clint, ok := b.Region("clint")
	require.True(t, ok)
	assert.Equal(t, uint64(0xF0010000), clint.Base)
	assert.Equal(t, uint64(0x10000), clint.Size)
	assert.False(t, clint.Cacheable)

	assert.Equal(t, core.StateFinalized, s.Core().State())
}

func TestMinimalBuildUsesSplitPorts(t *testing.T) {
	s := newIntegrator(t, ir.VariantMinimal)
	require.NoError(t, s.SetResetAddress(0))

	b, err := s.Build()
	require.NoError(t, err)

	require.Len(t, b.Masters, 2)
	assert.Equal(t, "ibus", b.Masters[0].Name)
	assert.Equal(t, ir.RoleFetch, b.Masters[0].Port.Role)
	assert.Equal(t, "dbus", b.Masters[1].Name)
	assert.Equal(t, ir.RoleLoadStore, b.Masters[1].Port.Role)

	assert.Equal(t, "CVA5-MINIMAL", b.CPU.HumanName)
	assert.Equal(t, 0, b.CPU.VariantIndex)
	assert.Equal(t, "-march=rv32i2p0 -mabi=ilp32 -D__cva5__", b.CPU.GCCFlags)
}

func TestBuildWithoutResetVector(t *testing.T) {
	s := newIntegrator(t, ir.VariantMinimal)

	b, err := s.Build()
	require.Error(t, err)
	assert.Nil(t, b)
	assert.True(t, ir.IsMissingConfiguration(err))
}

func TestUnknownVariant(t *testing.T) {
	_, err := New(variant.Default(), ir.Config{Name: "demo", Variant: "turbo"}, quietOptions())
	require.Error(t, err)
	assert.True(t, ir.IsInvalidVariant(err))
}

func TestSetResetAddressTwice(t *testing.T) {
	s := newIntegrator(t, ir.VariantStandard)
	require.NoError(t, s.SetResetAddress(0x1000))

	err := s.SetResetAddress(0x2000)
	require.Error(t, err)
	assert.True(t, ir.IsDuplicateConfiguration(err))
}

func TestBuildTwice(t *testing.T) {
	s := newIntegrator(t, ir.VariantStandard)
	require.NoError(t, s.SetResetAddress(0x1000))
	_, err := s.Build()
	require.NoError(t, err)

	_, err = s.Build()
	require.Error(t, err)
	assert.True(t, ir.IsDuplicateConfiguration(err))
}

func TestBuildWiresInterrupts(t *testing.T) {
	s := newIntegrator(t, ir.VariantStandard)
	require.NoError(t, s.SetResetAddress(0x1000))
	b, err := s.Build()
	require.NoError(t, err)

	plic, ok := b.Instance("wishbone_plic_top")
	require.True(t, ok)
	p, ok := plic.Lookup("p_SOURCES")
	require.True(t, ok)
	assert.Equal(t, int64(32), *p.Const)
	p, ok = plic.Lookup("p_TARGETS")
	require.True(t, ok)
	assert.Equal(t, int64(2), *p.Const)

	require.Len(t, b.Assigns, 2)
	assert.Equal(t, ir.Assign{
		Dst: ir.Signal{Name: "m_interrupt", Width: 1},
		Src: ir.Signal{Name: "cpu_irqs[0]", Width: 1},
	}, b.Assigns[0])
	assert.Equal(t, ir.Assign{
		Dst: ir.Signal{Name: "s_interrupt", Width: 1},
		Src: ir.Signal{Name: "cpu_irqs[1]", Width: 1},
	}, b.Assigns[1])

	cpu, _ := b.Instance(core.Module)
	for _, name := range core.Inputs() {
		_, ok := cpu.Lookup("i_" + name)
		assert.True(t, ok, name)
	}
}

func TestBuildTimerSharesClock(t *testing.T) {
	s := newIntegrator(t, ir.VariantStandard)
	require.NoError(t, s.SetResetAddress(0x1000))
	b, err := s.Build()
	require.NoError(t, err)

	clint, ok := b.Instance("clint")
	require.True(t, ok)
	rtc, _ := clint.Lookup("i_rtc_i")
	clk, _ := clint.Lookup("i_clk")
	assert.Equal(t, core.SysClock, *rtc.Signal)
	assert.Equal(t, core.SysClock, *clk.Signal)

	cpu, _ := b.Instance(core.Module)
	mtime, ok := cpu.Lookup("i_mtime")
	require.True(t, ok)
	assert.Equal(t, 64, mtime.Signal.Width)
}

func TestBuildRegionsSortedAndDisjoint(t *testing.T) {
	s := newIntegrator(t, ir.VariantStandard)
	require.NoError(t, s.SetResetAddress(0x1000))
	b, err := s.Build()
	require.NoError(t, err)

	require.Len(t, b.Regions, 2)
	assert.Equal(t, "clint", b.Regions[0].Name)
	assert.Equal(t, "plic", b.Regions[1].Name)

	nc := b.CPU.NonCacheable.Region(NonCacheableName)
	for i, r := range b.Regions {
		assert.False(t, r.Overlaps(nc), r.Name)
		for _, o := range b.Regions[i+1:] {
			assert.False(t, r.Overlaps(o), "%s/%s", r.Name, o.Name)
		}
	}
}

func TestBuildOverlappingNonCacheable(t *testing.T) {
	// The full upper half collides with both peripheral windows.
	cfg := ir.Config{
		Name:         "demo",
		Variant:      ir.VariantStandard,
		NonCacheable: &ir.AddressRange{Low: 0x80000000, High: 0xFFFFFFFF},
	}
	s, err := New(variant.Default(), cfg, quietOptions())
	require.NoError(t, err)
	require.NoError(t, s.SetResetAddress(0x1000))

	b, err := s.Build()
	require.Error(t, err)
	assert.Nil(t, b)
	assert.True(t, ir.IsRegionOverlap(err))
}

func TestBuildRegionPlacementSweep(t *testing.T) {
	const limit = uint64(1) << 32
	bases := []uint64{0x0, 0x7FFF0000, 0x80000000, 0xEFFF8000, 0xF0000000,
		0xF0010000, 0xF0018000, 0xF0C00000, 0xF0E00000, 0xFFC00000}
	sizes := []uint64{0x1000, 0x10000, 0x400000}
	windows := []ir.AddressRange{core.DefaultNonCacheable, {Low: 0, High: 0xFFFF}}

	for _, window := range windows {
		reserved := window.Region(NonCacheableName)
		for _, pb := range bases {
			for _, ps := range sizes {
				for _, cb := range bases {
					for _, cs := range sizes {
						plic := ir.Region{Name: "plic", Base: pb, Size: ps}
						clint := ir.Region{Name: "clint", Base: cb, Size: cs}
						if plic.End() > limit || clint.End() > limit {
							continue
						}
						label := fmt.Sprintf("window=%s plic=%s clint=%s", reserved, plic, clint)

						ctrl := fabric.PLIC()
						ctrl.Base, ctrl.Size = pb, ps
						timer := fabric.CLINT()
						timer.Base, timer.Size = cb, cs
						opts := quietOptions()
						opts.Interrupt = &ctrl
						opts.Timer = &timer

						nc := window
						cfg := ir.Config{Name: "demo", Variant: ir.VariantStandard, NonCacheable: &nc}
						s, err := New(variant.Default(), cfg, opts)
						require.NoError(t, err, label)
						require.NoError(t, s.SetResetAddress(0x1000), label)

						b, err := s.Build()
						if plic.Overlaps(clint) || plic.Overlaps(reserved) || clint.Overlaps(reserved) {
							require.Error(t, err, label)
							assert.True(t, ir.IsRegionOverlap(err), label)
							assert.Nil(t, b, label)
							continue
						}
						require.NoError(t, err, label)
						all := append([]ir.Region{reserved}, b.Regions...)
						require.Len(t, all, 3, label)
						for i := range all {
							for j := i + 1; j < len(all); j++ {
								assert.False(t, all[i].Overlaps(all[j]), "%s: %s and %s", label, all[i], all[j])
							}
						}
					}
				}
			}
		}
	}
}

func TestBuildOverlappingPeripheral(t *testing.T) {
	timer := fabric.CLINT()
	timer.Base = 0xF0C00000 + 0x1000

	opts := quietOptions()
	opts.Timer = &timer
	s, err := New(variant.Default(), ir.Config{Name: "demo", Variant: ir.VariantStandard}, opts)
	require.NoError(t, err)
	require.NoError(t, s.SetResetAddress(0x1000))

	_, err = s.Build()
	require.Error(t, err)
	assert.True(t, ir.IsRegionOverlap(err))
}

func TestBuildInterruptMismatch(t *testing.T) {
	ctrl := fabric.PLIC()
	ctrl.Targets = 3

	opts := quietOptions()
	opts.Interrupt = &ctrl
	s, err := New(variant.Default(), ir.Config{Name: "demo", Variant: ir.VariantStandard}, opts)
	require.NoError(t, err)
	require.NoError(t, s.SetResetAddress(0x1000))

	_, err = s.Build()
	require.Error(t, err)
	assert.True(t, ir.IsTopologyMismatch(err))

	_, err = s.Build()
	assert.True(t, ir.IsDuplicateConfiguration(err))
}

func TestBuildHashStable(t *testing.T) {
	build := func() *ir.Bundle {
		s := newIntegrator(t, ir.VariantStandard)
		require.NoError(t, s.SetResetAddress(0x1000))
		b, err := s.Build()
		require.NoError(t, err)
		return b
	}

	a, b := build(), build()
	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, a.Hash, b.Hash)
	assert.Len(t, a.Hash, 64)

	want, err := ir.BundleHash(a)
	require.NoError(t, err)
	assert.Equal(t, want, a.Hash)
}

func TestBuildUsesIDGenerator(t *testing.T) {
	opts := quietOptions()
	opts.IDs = testutil.NewFixedIDGenerator("build-fixed")
	s, err := New(variant.Default(), ir.Config{Name: "demo", Variant: ir.VariantMinimal}, opts)
	require.NoError(t, err)
	require.NoError(t, s.SetResetAddress(0))

	b, err := s.Build()
	require.NoError(t, err)
	assert.Equal(t, "build-fixed", b.ID)
}

func TestBuildHashDependsOnResetVector(t *testing.T) {
	s1 := newIntegrator(t, ir.VariantStandard)
	require.NoError(t, s1.SetResetAddress(0x1000))
	a, err := s1.Build()
	require.NoError(t, err)

	s2 := newIntegrator(t, ir.VariantStandard)
	require.NoError(t, s2.SetResetAddress(0x2000))
	b, err := s2.Build()
	require.NoError(t, err)

	assert.NotEqual(t, a.Hash, b.Hash)
}

func TestBuildRecordsSources(t *testing.T) {
	opts := quietOptions()
	opts.Sources = []string{"PLIC.sv", "clint.sv"}
	s, err := New(variant.Default(), ir.Config{Name: "demo", Variant: ir.VariantMinimal}, opts)
	require.NoError(t, err)
	require.NoError(t, s.SetResetAddress(0))

	b, err := s.Build()
	require.NoError(t, err)
	assert.Equal(t, []string{"PLIC.sv", "clint.sv"}, b.Sources)
	assert.Equal(t, "demo", b.SoC)
	assert.Equal(t, ir.IRVersion, b.IRVersion)
}

func TestNewReservesNonCacheable(t *testing.T) {
	s := newIntegrator(t, ir.VariantStandard)

	reserved := s.AddressMap().Reserved()
	require.Len(t, reserved, 1)
	assert.Equal(t, NonCacheableName, reserved[0].Name)
	assert.Equal(t, core.DefaultNonCacheable.Region(NonCacheableName), reserved[0])
}

func TestBuildKeepsZeroNonCacheable(t *testing.T) {
	// [0, 0] is a real one-byte window, not "unset".
	zero := ir.AddressRange{}
	cfg := ir.Config{Name: "demo", Variant: ir.VariantStandard, NonCacheable: &zero}
	s, err := New(variant.Default(), cfg, quietOptions())
	require.NoError(t, err)
	assert.Equal(t, zero, s.Core().NonCacheable())
	assert.Equal(t, []ir.Region{zero.Region(NonCacheableName)}, s.AddressMap().Reserved())

	require.NoError(t, s.SetResetAddress(0x1000))
	b, err := s.Build()
	require.NoError(t, err)
	assert.Equal(t, zero, b.CPU.NonCacheable)

	cpu, ok := b.Instance(core.Module)
	require.True(t, ok)
	for _, key := range []string{"p_NON_CACHABLE_L", "p_NON_CACHABLE_H"} {
		p, ok := cpu.Lookup(key)
		require.True(t, ok, key)
		require.NotNil(t, p.Const, key)
		assert.Equal(t, int64(0), *p.Const, key)
	}
}

func TestCheckDriversRejectsSecondTimeDriver(t *testing.T) {
	s := newIntegrator(t, ir.VariantStandard)
	require.NoError(t, s.SetResetAddress(0x1000))
	b, err := s.Build()
	require.NoError(t, err)

	mtime := ir.Signal{Name: "mtime", Width: 64}
	rogue := ir.Instance{Module: "rogue", Name: "rogue", Params: []ir.Param{ir.Output("count", mtime)}}
	instances := append(append([]ir.Instance(nil), b.Instances...), rogue)

	err = checkDrivers(instances, b.Assigns, s.Core(), "clint", mtime)
	require.Error(t, err)
	assert.True(t, ir.IsTopologyMismatch(err))
	assert.Contains(t, err.Error(), `"mtime" has 2 drivers`)
}

func TestCheckDriversRejectsForeignTimeDriver(t *testing.T) {
	s := newIntegrator(t, ir.VariantStandard)
	require.NoError(t, s.SetResetAddress(0x1000))
	b, err := s.Build()
	require.NoError(t, err)

	err = checkDrivers(b.Instances, b.Assigns, s.Core(), "other_timer", ir.Signal{Name: "mtime", Width: 64})
	require.Error(t, err)
	assert.True(t, ir.IsTopologyMismatch(err))
}
