package emit_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/roach88/socgen/internal/core"
	"github.com/roach88/socgen/internal/emit"
	"github.com/roach88/socgen/internal/ir"
	"github.com/roach88/socgen/internal/soc"
	"github.com/roach88/socgen/internal/variant"
)

func buildStandard(t *testing.T) (*soc.Integrator, *ir.Bundle) {
	t.Helper()
	return buildVariant(t, ir.VariantStandard)
}

func buildVariant(t *testing.T, v ir.Variant) (*soc.Integrator, *ir.Bundle) {
	t.Helper()
	s, err := soc.New(variant.Default(),
		ir.Config{Name: "demo", Variant: v},
		soc.Options{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))})
	require.NoError(t, err)
	require.NoError(t, s.SetResetAddress(0x1000))
	b, err := s.Build()
	require.NoError(t, err)
	return s, b
}

func newGoldie(t *testing.T) *goldie.Goldie {
	return goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
}

func TestRegionTableGolden(t *testing.T) {
	s, _ := buildStandard(t)

	var buf bytes.Buffer
	require.NoError(t, emit.RegionTable(&buf, s.AddressMap().Reserved(), s.AddressMap().Regions()))
	newGoldie(t).Assert(t, "region_table_standard", buf.Bytes())
}

func TestCPUParamsGolden(t *testing.T) {
	_, b := buildStandard(t)
	cpu, ok := b.Instance(core.Module)
	require.True(t, ok)

	var buf bytes.Buffer
	require.NoError(t, emit.ParamList(&buf, cpu))
	newGoldie(t).Assert(t, "cpu_params_standard", buf.Bytes())
}

func TestJSONRoundTrip(t *testing.T) {
	_, b := buildStandard(t)

	var buf bytes.Buffer
	require.NoError(t, emit.JSON(&buf, b))

	var got ir.Bundle
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, b.Hash, got.Hash)
	assert.Equal(t, b.Regions, got.Regions)

	hash, err := ir.BundleHash(&got)
	require.NoError(t, err)
	assert.Equal(t, b.Hash, hash)
}

func TestYAMLKeepsJSONKeys(t *testing.T) {
	_, b := buildStandard(t)

	var buf bytes.Buffer
	require.NoError(t, emit.YAML(&buf, b))
	out := buf.String()

	assert.True(t, strings.HasPrefix(out, "id: "), out[:40])
	assert.Contains(t, out, "ir_version: \"1\"\n")
	assert.Contains(t, out, "variant: standard\n")
	assert.NotContains(t, out, "{")

	var doc map[string]any
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &doc))
	assert.Equal(t, b.Hash, doc["hash"])
	assert.Equal(t, "demo", doc["soc"])
}

func TestVerilog(t *testing.T) {
	_, b := buildStandard(t)

	var buf bytes.Buffer
	require.NoError(t, emit.Verilog(&buf, b))
	out := buf.String()

	for _, want := range []string{
		"module demo_top (\n",
		"    input  wire sys_clk,\n",
		"    input  wire [31:0] litex_interrupt,\n",
		"    output wire [31:0] idbus_adr,\n",
		"    input  wire [31:0] idbus_dat_r,\n",
		"    input  wire idbus_ack,\n",
		"    input  wire clint_stb,\n",
		"    input  wire plic_cyc,\n",
		"    output wire plic_ack\n",
		"    wire [63:0] mtime;\n",
		"    wire [1:0] cpu_irqs;\n",
		"    litex_wrapper #(\n",
		"        .RESET_VEC(32'h00001000),\n",
		"        .LITEX_VARIANT(1),\n",
		"    ) cpu (\n",
		"    wishbone_plic_top #(\n",
		"    clint clint (\n",
		"        .rtc_i(sys_clk),\n",
		"    assign m_interrupt = cpu_irqs[0];\n",
		"    assign s_interrupt = cpu_irqs[1];\n",
		"endmodule\n",
	} {
		assert.Contains(t, out, want)
	}
	// Bus nets are ports, not internal wires.
	for _, net := range []string{"sys_clk", "idbus_ack", "idbus_dat_r", "plic_cyc", "clint_stb"} {
		assert.NotContains(t, out, " "+net+";")
	}
}

func TestVerilogSplitBusPorts(t *testing.T) {
	_, b := buildVariant(t, ir.VariantMinimal)

	var buf bytes.Buffer
	require.NoError(t, emit.Verilog(&buf, b))
	out := buf.String()

	for _, want := range []string{
		"    output wire [31:0] ibus_adr,\n",
		"    input  wire ibus_err,\n",
		"    output wire [31:0] dbus_dat_w,\n",
		"    input  wire dbus_ack,\n",
	} {
		assert.Contains(t, out, want)
	}
	assert.NotContains(t, out, "idbus_")
}

func TestWriteDispatch(t *testing.T) {
	_, b := buildStandard(t)

	tests := []struct {
		path   string
		format emit.Format
		prefix string
	}{
		{"out.json", emit.FormatJSON, "{\n"},
		{"out.YAML", emit.FormatYAML, "id: "},
		{"out.yml", emit.FormatYAML, "id: "},
		{"top.v", emit.FormatVerilog, "// Generated by socgen"},
		{"bundle", emit.FormatJSON, "{\n"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			f := emit.FormatForPath(tt.path)
			assert.Equal(t, tt.format, f)

			var buf bytes.Buffer
			require.NoError(t, emit.Write(&buf, b, f))
			assert.True(t, strings.HasPrefix(buf.String(), tt.prefix))
		})
	}

	assert.Error(t, emit.Write(io.Discard, b, "toml"))
}
