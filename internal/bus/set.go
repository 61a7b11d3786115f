package bus

import (
	"fmt"

	"github.com/roach88/socgen/internal/ir"
)

// Port names fixed by topology. They become signal prefixes in the bundle.
const (
	CombinedPort  = "idbus"
	FetchPort     = "ibus"
	LoadStorePort = "dbus"
)

// NewInterfaceSet returns the CPU's ports for a topology: one combined port,
// or a fetch port followed by a load-store port. It never returns an empty
// set without an error.
func NewInterfaceSet(t ir.Topology) ([]ir.BusPort, error) {
	var ports []ir.BusPort
	switch t {
	case ir.TopologyCombined:
		ports = []ir.BusPort{NewPort(CombinedPort, ir.RoleInstructionData)}
	case ir.TopologySplit:
		ports = []ir.BusPort{
			NewPort(FetchPort, ir.RoleFetch),
			NewPort(LoadStorePort, ir.RoleLoadStore),
		}
	default:
		return nil, ir.NewTopologyMismatch("bus", fmt.Sprintf("unknown topology %q", t))
	}
	for _, p := range ports {
		if err := Validate(p); err != nil {
			return nil, err
		}
	}
	return ports, nil
}
