package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/socgen/internal/ir"
)

func builtBundle(t *testing.T) *ir.Bundle {
	t.Helper()
	result, err := Run(mustLoad(t, "standard_build"))
	require.NoError(t, err)
	require.NotNil(t, result.Bundle)
	return result.Bundle
}

func u64(v uint64) *uint64 { return &v }
func i64(v int64) *int64   { return &v }

func TestEvaluateAssertionsFailures(t *testing.T) {
	b := builtBundle(t)

	tests := []struct {
		name string
		a    Assertion
		want string
	}{
		{"region missing", Assertion{Type: AssertRegion, Name: "uart", Base: u64(0)}, `region "uart", got not found`},
		{"region base", Assertion{Type: AssertRegion, Name: "plic", Base: u64(0xF0000000)}, "plic base 0xf0000000, got 0xf0c00000"},
		{"region size", Assertion{Type: AssertRegion, Name: "clint", Size: u64(0x1000)}, "clint size 0x1000, got 0x10000"},
		{"region present", Assertion{Type: AssertNoRegion, Name: "plic"}, `no region "plic"`},
		{"param value", Assertion{Type: AssertParam, Instance: "cpu", Key: "p_RESET_VEC", Value: i64(0)}, "cpu.p_RESET_VEC = 0x0, got 0x1000"},
		{"param not const", Assertion{Type: AssertParam, Instance: "cpu", Key: "i_clk", Value: i64(0)}, "not a constant"},
		{"param signal", Assertion{Type: AssertParam, Instance: "cpu", Key: "i_mtime", Signal: "time"}, "got mtime"},
		{"param key", Assertion{Type: AssertParam, Instance: "cpu", Key: "p_NOPE", Value: i64(0)}, "cpu.p_NOPE, got not found"},
		{"instance", Assertion{Type: AssertParam, Instance: "uart", Key: "p_X", Value: i64(0)}, `instance "uart"`},
		{"assign src", Assertion{Type: AssertAssign, Dst: "m_interrupt", Src: "cpu_irqs[1]"}, "got cpu_irqs[0]"},
		{"assign dst", Assertion{Type: AssertAssign, Dst: "x", Src: "y"}, "got no assign"},
		{"masters", Assertion{Type: AssertMasters, Names: []string{"ibus", "dbus"}}, "[ibus dbus], got [idbus]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := EvaluateAssertions(b, []Assertion{tt.a})
			require.Len(t, errs, 1)
			assert.Contains(t, errs[0], tt.want)
			assert.Contains(t, errs[0], "assertions[0]")
		})
	}
}

func TestEvaluateAssertionsPass(t *testing.T) {
	b := builtBundle(t)

	errs := EvaluateAssertions(b, []Assertion{
		{Type: AssertRegion, Name: "plic", Base: u64(0xF0C00000)},
		{Type: AssertNoRegion, Name: "uart"},
		// Module names resolve too.
		{Type: AssertParam, Instance: "wishbone_plic_top", Key: "p_SOURCES", Value: i64(32)},
		{Type: AssertAssign, Dst: "s_interrupt", Src: "cpu_irqs[1]"},
		{Type: AssertMasters, Names: []string{"idbus"}},
	})
	assert.Empty(t, errs)
}
