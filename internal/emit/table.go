package emit

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/charmbracelet/x/ansi"

	"github.com/roach88/socgen/internal/ir"
)

// RegionTable writes the address map: reserved ranges and peripheral
// regions, sorted by base address.
func RegionTable(w io.Writer, reserved, regions []ir.Region) error {
	type row struct {
		region ir.Region
		kind   string
	}
	var rows []row
	for _, r := range reserved {
		rows = append(rows, row{r, "reserved"})
	}
	for _, r := range regions {
		rows = append(rows, row{r, "slave"})
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].region.Base < rows[j].region.Base })

	t := table{header: []string{"NAME", "KIND", "BASE", "END", "SIZE", "CACHEABLE"}}
	for _, r := range rows {
		t.add(
			r.region.Name,
			r.kind,
			hex32(r.region.Base),
			hex32(r.region.End()-1),
			hex32(r.region.Size),
			yesNo(r.region.Cacheable),
		)
	}
	return t.write(w)
}

// ParamList writes an instance's parameters in declaration order: constants
// as values, inputs as "<- net[width]" and outputs as "-> net[width]".
func ParamList(w io.Writer, in ir.Instance) error {
	if _, err := fmt.Fprintf(w, "%s %s\n", in.Module, in.Name); err != nil {
		return err
	}
	t := table{indent: "  "}
	for _, p := range in.Params {
		var value string
		switch {
		case p.Const != nil:
			value = fmt.Sprintf("0x%x", *p.Const)
		case p.Dir == ir.DirOutput:
			value = "-> " + p.Signal.String()
		default:
			value = "<- " + p.Signal.String()
		}
		t.add(p.Key(), value)
	}
	return t.write(w)
}

// table lays out left-aligned columns separated by two spaces. The last
// column is never padded.
type table struct {
	indent string
	header []string
	rows   [][]string
}

func (t *table) add(cells ...string) {
	t.rows = append(t.rows, cells)
}

func (t *table) write(w io.Writer) error {
	all := t.rows
	if t.header != nil {
		all = append([][]string{t.header}, t.rows...)
	}

	var widths []int
	for _, r := range all {
		for i, c := range r {
			if i >= len(widths) {
				widths = append(widths, 0)
			}
			if n := ansi.StringWidth(c); n > widths[i] {
				widths[i] = n
			}
		}
	}

	var sb strings.Builder
	for _, r := range all {
		sb.WriteString(t.indent)
		for i, c := range r {
			sb.WriteString(c)
			if i < len(r)-1 {
				sb.WriteString(strings.Repeat(" ", widths[i]-ansi.StringWidth(c)+2))
			}
		}
		sb.WriteString("\n")
	}
	_, err := io.WriteString(w, sb.String())
	return err
}

func hex32(v uint64) string {
	return fmt.Sprintf("0x%08x", v)
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
