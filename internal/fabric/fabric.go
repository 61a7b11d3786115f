// Package fabric builds the peripheral wiring around the CPU core: the
// interrupt fabric (platform-level interrupt controller) and the timer
// fabric (core-local interruptor with the 64-bit time counter).
//
// Builders have no side effects. Each returns a descriptor holding the
// peripheral instance, its bus port and address region, and the connections
// that must be applied to the core; the integrator registers and applies
// them in one place.
package fabric

import (
	"github.com/roach88/socgen/internal/ir"
)

// Address map ABI. Software hardcodes these; changing them requires a
// coordinated software update.
const (
	PLICBase  uint64 = 0xF0C00000
	PLICSize  uint64 = 0x400000
	CLINTBase uint64 = 0xF0010000
	CLINTSize uint64 = 0x10000
)

// Clocked is anything with a clock domain a peripheral can share.
type Clocked interface {
	Clock() ir.Signal
	Reset() ir.Signal
}

// InterruptTarget is the core side of the interrupt fabric.
type InterruptTarget interface {
	Clocked
	Interrupt() ir.Signal
	InterruptInputs() int
}

func uncachedRegion(name string, base, size uint64) ir.Region {
	return ir.Region{Name: name, Base: base, Size: size, Cacheable: false}
}
