// Package bus builds the memory-transaction ports a CPU variant exposes and
// the transfer-control signal bundles that connect them.
//
// Every port speaks the same word-addressed handshake protocol: 32-bit
// address, 32-bit data, byte selects, cycle/strobe/write-enable, burst type
// and extension, and ack/err responses. Widths are fixed when a port is
// created and checked again by Validate before anything is wired.
package bus

import (
	"fmt"

	"github.com/roach88/socgen/internal/ir"
)

// Protocol constants shared by every port.
const (
	AddressWidth = 32
	DataWidth    = 32
	Addressing   = ir.AddressingWord
)

// Line is one signal of the transfer-control bundle.
type Line struct {
	// Field is the signal suffix, e.g. "adr".
	Field string
	Width int
	// FromMaster is true for signals the master drives.
	FromMaster bool
}

// Lines is the transfer-control bundle in instantiation order.
var Lines = []Line{
	{Field: "adr", Width: AddressWidth, FromMaster: true},
	{Field: "dat_w", Width: DataWidth, FromMaster: true},
	{Field: "sel", Width: DataWidth / 8, FromMaster: true},
	{Field: "cyc", Width: 1, FromMaster: true},
	{Field: "stb", Width: 1, FromMaster: true},
	{Field: "we", Width: 1, FromMaster: true},
	{Field: "cti", Width: 3, FromMaster: true},
	{Field: "bte", Width: 2, FromMaster: true},
	{Field: "dat_r", Width: DataWidth},
	{Field: "ack", Width: 1},
	{Field: "err", Width: 1},
}

// NewPort returns a port with the fixed protocol widths.
func NewPort(name string, role ir.PortRole) ir.BusPort {
	return ir.BusPort{
		Name:         name,
		Role:         role,
		AddressWidth: AddressWidth,
		DataWidth:    DataWidth,
		Addressing:   Addressing,
	}
}

// Validate checks a port against the protocol. Any deviation is a
// TopologyMismatch: the other end of the bus was built for the fixed widths.
func Validate(p ir.BusPort) error {
	if p.Name == "" {
		return ir.NewTopologyMismatch("bus", "port has no name")
	}
	component := "bus." + p.Name
	switch p.Role {
	case ir.RoleInstructionData, ir.RoleFetch, ir.RoleLoadStore, ir.RolePeripheral:
	default:
		return ir.NewTopologyMismatch(component, fmt.Sprintf("unknown port role %q", p.Role))
	}
	if p.AddressWidth != AddressWidth {
		return ir.NewWidthMismatch(component, "address", AddressWidth, p.AddressWidth)
	}
	if p.DataWidth != DataWidth {
		return ir.NewWidthMismatch(component, "data", DataWidth, p.DataWidth)
	}
	if p.Addressing != Addressing {
		return ir.NewTopologyMismatch(component,
			fmt.Sprintf("addressing %q, want %q", p.Addressing, Addressing))
	}
	return nil
}

// Signal returns the net for one field of a port's bundle.
func Signal(p ir.BusPort, field string) (ir.Signal, error) {
	for _, l := range Lines {
		if l.Field == field {
			return ir.Signal{Name: p.Name + "_" + field, Width: l.Width}, nil
		}
	}
	return ir.Signal{}, fmt.Errorf("bus: unknown signal %q", field)
}

// MasterParams returns the CPU-side connections for a port, named
// <port>_<field>: outputs for master-driven signals, inputs for responses.
func MasterParams(p ir.BusPort) []ir.Param {
	params := make([]ir.Param, 0, len(Lines))
	for _, l := range Lines {
		if l.FromMaster {
			params = append(params, masterParam(p, l))
		}
	}
	for _, l := range Lines {
		if !l.FromMaster {
			params = append(params, masterParam(p, l))
		}
	}
	return params
}

func masterParam(p ir.BusPort, l Line) ir.Param {
	sig := ir.Signal{Name: p.Name + "_" + l.Field, Width: l.Width}
	if l.FromMaster {
		return ir.Output(sig.Name, sig)
	}
	return ir.Input(sig.Name, sig)
}

// slaveLines maps bus fields to the peripheral-side port names used by the
// interrupt controller and timer modules. Peripherals ignore sel, cti, bte
// and err.
var slaveLines = []struct {
	field string
	port  string
}{
	{"cyc", "wb_cyc"},
	{"stb", "wb_stb"},
	{"we", "wb_we"},
	{"adr", "wb_adr"},
	{"dat_w", "wb_dat_i"},
	{"dat_r", "wb_dat_o"},
	{"ack", "wb_ack"},
}

// SlaveParams returns the peripheral-side connections for a port.
func SlaveParams(p ir.BusPort) []ir.Param {
	params := make([]ir.Param, 0, len(slaveLines))
	for _, sl := range slaveLines {
		sig, err := Signal(p, sl.field)
		if err != nil {
			panic(err)
		}
		if isMasterDriven(sl.field) {
			params = append(params, ir.Input(sl.port, sig))
		} else {
			params = append(params, ir.Output(sl.port, sig))
		}
	}
	return params
}

func isMasterDriven(field string) bool {
	for _, l := range Lines {
		if l.Field == field {
			return l.FromMaster
		}
	}
	return false
}
