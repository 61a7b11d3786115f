package variant

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/socgen/internal/ir"
)

func TestDefaultTableRows(t *testing.T) {
	table := Default()

	assert.Equal(t, []ir.Variant{ir.VariantMinimal, ir.VariantStandard}, table.Variants())

	minimal, err := table.Lookup(ir.VariantMinimal)
	require.NoError(t, err)
	assert.Equal(t, 0, minimal.Index)
	assert.Equal(t, ir.TopologySplit, minimal.Topology)
	assert.False(t, minimal.MulDiv)
	assert.False(t, minimal.Caches)
	assert.False(t, minimal.BranchPredictor)

	standard, err := table.Lookup(ir.VariantStandard)
	require.NoError(t, err)
	assert.Equal(t, 1, standard.Index)
	assert.Equal(t, ir.TopologyCombined, standard.Topology)
	assert.True(t, standard.MulDiv)
	assert.True(t, standard.Caches)
	assert.True(t, standard.BranchPredictor)
}

func TestGCCFlags(t *testing.T) {
	table := Default()

	tests := []struct {
		variant ir.Variant
		want    string
	}{
		{ir.VariantMinimal, "-march=rv32i2p0 -mabi=ilp32 -D__cva5__"},
		{ir.VariantStandard, "-march=rv32i2p0_m -mabi=ilp32 -D__cva5__"},
	}

	for _, tt := range tests {
		t.Run(string(tt.variant), func(t *testing.T) {
			p, err := table.Lookup(tt.variant)
			require.NoError(t, err)
			assert.Equal(t, tt.want, p.GCCFlags())
		})
	}
}

func TestHumanName(t *testing.T) {
	p, err := Default().Lookup(ir.VariantStandard)
	require.NoError(t, err)
	assert.Equal(t, "CVA5-STANDARD", p.HumanName())
}

func TestLookupUnknownVariant(t *testing.T) {
	_, err := Default().Lookup("turbo")
	require.Error(t, err)
	assert.True(t, ir.IsInvalidVariant(err))
	assert.Contains(t, err.Error(), "turbo")
	assert.Contains(t, err.Error(), "minimal,standard")
}

func TestParse(t *testing.T) {
	table := Default()

	v, err := table.Parse("  Standard ")
	require.NoError(t, err)
	assert.Equal(t, ir.VariantStandard, v)

	v, err = table.Parse("MINIMAL")
	require.NoError(t, err)
	assert.Equal(t, ir.VariantMinimal, v)

	_, err = table.Parse("")
	assert.True(t, ir.IsInvalidVariant(err))
}

func TestNewTableRejectsDuplicates(t *testing.T) {
	_, err := NewTable(
		Profile{Variant: "a", Topology: ir.TopologySplit},
		Profile{Variant: "a", Topology: ir.TopologyCombined},
	)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate variant")
}

func TestNewTableRejectsUnknownTopology(t *testing.T) {
	_, err := NewTable(Profile{Variant: "a", Topology: "ring"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown topology")
}

func TestNewTableAssignsIndexByPosition(t *testing.T) {
	table, err := NewTable(
		Profile{Variant: "b", Index: 7, Topology: ir.TopologySplit},
		Profile{Variant: "a", Index: 3, Topology: ir.TopologyCombined},
	)
	require.NoError(t, err)

	p, err := table.Lookup("a")
	require.NoError(t, err)
	assert.Equal(t, 1, p.Index)
}

func TestProfilesReturnsCopy(t *testing.T) {
	table := Default()
	rows := table.Profiles()
	rows[0].March = "rv64gc"

	p, err := table.Lookup(ir.VariantMinimal)
	require.NoError(t, err)
	assert.Equal(t, "rv32i2p0", p.March)
}
