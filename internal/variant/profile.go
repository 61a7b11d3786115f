// Package variant holds the CPU variant table: per-variant compiler flags,
// bus topology and capability flags.
//
// The table is an immutable value passed explicitly to whoever needs it.
// There is no package-level mutable state; Default returns a fresh copy.
package variant

import (
	"fmt"
	"strings"

	"github.com/roach88/socgen/internal/ir"
)

// Profile is one row of the variant table.
type Profile struct {
	Variant  ir.Variant  `json:"variant"`
	Index    int         `json:"index"`
	Topology ir.Topology `json:"topology"`

	// March and Mabi compose the GCC flags.
	March string `json:"march"`
	Mabi  string `json:"mabi"`

	// Capability flags. Descriptive only; the core implements them.
	MulDiv          bool `json:"mul_div"`
	Caches          bool `json:"caches"`
	BranchPredictor bool `json:"branch_predictor"`
}

// GCCFlags returns the compiler flags for software built against the core.
func (p Profile) GCCFlags() string {
	return fmt.Sprintf("-march=%s -mabi=%s -D__cva5__", p.March, p.Mabi)
}

// HumanName returns the display name, e.g. "CVA5-STANDARD".
func (p Profile) HumanName() string {
	return "CVA5-" + strings.ToUpper(string(p.Variant))
}

// Table is an ordered, immutable set of profiles. Row order defines the
// variant index passed to the hardware.
type Table struct {
	rows []Profile
}

// NewTable builds a table from rows. Each row's Index is overwritten with
// its position. Duplicate variants are rejected.
func NewTable(rows ...Profile) (Table, error) {
	out := make([]Profile, len(rows))
	seen := make(map[ir.Variant]bool, len(rows))
	for i, r := range rows {
		if r.Variant == "" {
			return Table{}, fmt.Errorf("variant table row %d: empty variant", i)
		}
		if seen[r.Variant] {
			return Table{}, fmt.Errorf("variant table row %d: duplicate variant %q", i, r.Variant)
		}
		switch r.Topology {
		case ir.TopologyCombined, ir.TopologySplit:
		default:
			return Table{}, fmt.Errorf("variant table row %d: unknown topology %q", i, r.Topology)
		}
		seen[r.Variant] = true
		r.Index = i
		out[i] = r
	}
	return Table{rows: out}, nil
}

// Default returns the two-row CVA5 table.
//
// minimal has no caches, no multiply/divide and no branch predictor, and
// uses separate fetch and load-store ports. standard adds all three and
// shares one port.
func Default() Table {
	t, err := NewTable(
		Profile{
			Variant:  ir.VariantMinimal,
			Topology: ir.TopologySplit,
			March:    "rv32i2p0",
			Mabi:     "ilp32",
		},
		Profile{
			Variant:         ir.VariantStandard,
			Topology:        ir.TopologyCombined,
			March:           "rv32i2p0_m",
			Mabi:            "ilp32",
			MulDiv:          true,
			Caches:          true,
			BranchPredictor: true,
		},
	)
	if err != nil {
		panic(err)
	}
	return t
}

// Lookup returns the profile for v, or an InvalidVariant error.
func (t Table) Lookup(v ir.Variant) (Profile, error) {
	for _, r := range t.rows {
		if r.Variant == v {
			return r, nil
		}
	}
	return Profile{}, ir.NewInvalidVariant(v, t.Variants())
}

// Variants returns the variant names in index order.
func (t Table) Variants() []ir.Variant {
	out := make([]ir.Variant, len(t.rows))
	for i, r := range t.rows {
		out[i] = r.Variant
	}
	return out
}

// Profiles returns a copy of the rows in index order.
func (t Table) Profiles() []Profile {
	out := make([]Profile, len(t.rows))
	copy(out, t.rows)
	return out
}

// Parse maps user text to a variant known to t. Matching ignores case and
// surrounding space.
func (t Table) Parse(s string) (ir.Variant, error) {
	v := ir.Variant(strings.ToLower(strings.TrimSpace(s)))
	if _, err := t.Lookup(v); err != nil {
		return "", err
	}
	return v, nil
}
