package emit

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/roach88/socgen/internal/bus"
	"github.com/roach88/socgen/internal/core"
	"github.com/roach88/socgen/internal/ir"
)

// Verilog writes a structural top level: one module whose ports are the
// clock, reset and raw interrupt vector plus every master and slave bus net,
// a wire for every other net, each instance with its parameters and
// connections, and the combinational assigns. Bus nets are ports so the host
// interconnect can drive the responses into the CPU and the requests into
// the peripherals.
func Verilog(w io.Writer, b *ir.Bundle) error {
	var sb strings.Builder

	top := topPorts(b)
	fmt.Fprintf(&sb, "// Generated by socgen %s. Do not edit.\n", ir.EngineVersion)
	fmt.Fprintf(&sb, "// soc=%s variant=%s hash=%s\n\n", b.SoC, b.Variant, b.Hash)
	fmt.Fprintf(&sb, "module %s_top (\n", identifier(b.SoC))
	for i, p := range top {
		dir := "input "
		if p.Dir == ir.DirOutput {
			dir = "output"
		}
		fmt.Fprintf(&sb, "    %s wire %s%s%s\n", dir, rangeDecl(p.Signal.Width), p.Signal.Name, comma(i, len(top)))
	}
	sb.WriteString(");\n\n")

	for _, s := range nets(b, top) {
		fmt.Fprintf(&sb, "    wire %s%s;\n", rangeDecl(s.Width), s.Name)
	}
	sb.WriteString("\n")

	for _, in := range b.Instances {
		writeInstance(&sb, in)
	}

	for _, a := range b.Assigns {
		fmt.Fprintf(&sb, "    assign %s = %s;\n", a.Dst.Name, a.Src.Name)
	}
	if len(b.Assigns) > 0 {
		sb.WriteString("\n")
	}
	sb.WriteString("endmodule\n")

	_, err := io.WriteString(w, sb.String())
	return err
}

func writeInstance(sb *strings.Builder, in ir.Instance) {
	var consts, conns []ir.Param
	for _, p := range in.Params {
		if p.Dir == ir.DirParam {
			consts = append(consts, p)
		} else {
			conns = append(conns, p)
		}
	}

	sb.WriteString("    " + in.Module)
	if len(consts) > 0 {
		sb.WriteString(" #(\n")
		for i, p := range consts {
			fmt.Fprintf(sb, "        .%s(%s)%s\n", p.Name, literal(*p.Const), comma(i, len(consts)))
		}
		sb.WriteString("    )")
	}
	fmt.Fprintf(sb, " %s (\n", in.Name)
	for i, p := range conns {
		fmt.Fprintf(sb, "        .%s(%s)%s\n", p.Name, p.Signal.Name, comma(i, len(conns)))
	}
	sb.WriteString("    );\n\n")
}

// topPorts returns the module ports: the core's clock, reset and interrupt
// vector as inputs, then each master's and each slave's bus nets. A net keeps
// the direction of the instance pin it connects to: CPU requests leave the
// module, peripheral requests enter it.
func topPorts(b *ir.Bundle) []ir.Param {
	cpu, ok := b.Instance(core.Module)
	if !ok {
		return nil
	}
	var out []ir.Param
	for _, key := range []string{"i_clk", "i_rst", "i_litex_interrupt"} {
		if p, ok := cpu.Lookup(key); ok && p.Signal != nil {
			out = append(out, ir.Input(p.Signal.Name, *p.Signal))
		}
	}
	for _, m := range b.Masters {
		out = append(out, bus.MasterParams(m.Port)...)
	}
	for _, s := range b.Slaves {
		out = append(out, bus.SlaveParams(s.Port)...)
	}
	return out
}

// nets returns every whole signal referenced by an instance or assign that
// is not a module port, sorted by name.
func nets(b *ir.Bundle, top []ir.Param) []ir.Signal {
	seen := make(map[string]ir.Signal)
	add := func(s ir.Signal) {
		if strings.Contains(s.Name, "[") {
			return
		}
		if _, ok := seen[s.Name]; !ok {
			seen[s.Name] = s
		}
	}
	for _, in := range b.Instances {
		for _, p := range in.Params {
			if p.Signal != nil {
				add(*p.Signal)
			}
		}
	}
	for _, a := range b.Assigns {
		add(a.Dst)
		add(a.Src)
	}

	ports := make(map[string]bool, len(top))
	for _, p := range top {
		ports[p.Signal.Name] = true
	}
	var out []ir.Signal
	for name, s := range seen {
		if !ports[name] {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func rangeDecl(width int) string {
	if width <= 1 {
		return ""
	}
	return fmt.Sprintf("[%d:0] ", width-1)
}

// literal renders small values in decimal and addresses as 32-bit hex.
func literal(v int64) string {
	if v >= 0 && v < 256 {
		return fmt.Sprintf("%d", v)
	}
	return fmt.Sprintf("32'h%08x", v)
}

func comma(i, n int) string {
	if i == n-1 {
		return ""
	}
	return ","
}

func identifier(name string) string {
	if name == "" {
		return "soc"
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			return r
		default:
			return '_'
		}
	}, name)
}
