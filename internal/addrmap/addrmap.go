// Package addrmap is the system address map and host bus fabric model.
//
// It records bus masters (CPU ports), bus slaves (peripheral ports with their
// regions) and reserved ranges (the CPU's non-cacheable window), and refuses
// any registration that would make two of them intersect. Registration is
// serialized by a mutex; the map is the one mutable resource shared by
// fabric construction.
package addrmap

import (
	"fmt"
	"sort"
	"sync"

	"github.com/roach88/socgen/internal/bus"
	"github.com/roach88/socgen/internal/ir"
)

// Map is the address map for a single build.
type Map struct {
	mu sync.Mutex

	limit    uint64
	reserved []ir.Region
	regions  []ir.Region
	masters  []ir.Attachment
	slaves   []ir.Attachment
	names    map[string]bool
}

// New returns an empty map for an address space of the given width in bits.
func New(addressWidth int) *Map {
	return &Map{
		limit: uint64(1) << addressWidth,
		names: make(map[string]bool),
	}
}

// Reserve claims an inclusive range that no region may overlap.
func (m *Map) Reserve(name string, r ir.AddressRange) error {
	if r.High < r.Low {
		return fmt.Errorf("addrmap: reserved range %q is inverted (0x%x > 0x%x)", name, r.Low, r.High)
	}
	region := r.Region(name)

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.checkLocked(region); err != nil {
		return err
	}
	m.names[name] = true
	m.reserved = append(m.reserved, region)
	return nil
}

// Register adds a peripheral region.
func (m *Map) Register(r ir.Region) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.checkLocked(r); err != nil {
		return err
	}
	m.names[r.Name] = true
	m.regions = append(m.regions, r)
	return nil
}

// checkLocked validates r against the space limit and every existing
// reservation and region. Overlap is reported before a name clash.
// m.mu must be held.
func (m *Map) checkLocked(r ir.Region) error {
	if r.Name == "" {
		return fmt.Errorf("addrmap: region name is empty")
	}
	if r.Size == 0 {
		return fmt.Errorf("addrmap: region %q at 0x%x has zero size", r.Name, r.Base)
	}
	if r.End() < r.Base || r.End() > m.limit {
		return fmt.Errorf("addrmap: region %q at 0x%x size 0x%x exceeds the 0x%x address space",
			r.Name, r.Base, r.Size, m.limit)
	}
	for _, existing := range m.reserved {
		if r.Overlaps(existing) {
			return ir.NewRegionOverlap(r, existing)
		}
	}
	for _, existing := range m.regions {
		if r.Overlaps(existing) {
			return ir.NewRegionOverlap(r, existing)
		}
	}
	if m.names[r.Name] {
		return ir.NewDuplicate("addrmap", fmt.Sprintf("region %q", r.Name))
	}
	return nil
}

// AddMaster attaches a CPU-side port to the fabric.
func (m *Map) AddMaster(name string, port ir.BusPort) error {
	if !port.IsMaster() {
		return ir.NewTopologyMismatch("addrmap", fmt.Sprintf("master %q has peripheral role", name))
	}
	if err := bus.Validate(port); err != nil {
		return fmt.Errorf("addrmap: master %q: %w", name, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, a := range m.masters {
		if a.Name == name {
			return ir.NewDuplicate("addrmap", fmt.Sprintf("master %q", name))
		}
	}
	m.masters = append(m.masters, ir.Attachment{Name: name, Port: port})
	return nil
}

// AddSlave attaches a peripheral port and registers its region in one step.
func (m *Map) AddSlave(name string, port ir.BusPort, region ir.Region) error {
	if port.IsMaster() {
		return ir.NewTopologyMismatch("addrmap", fmt.Sprintf("slave %q has master role %q", name, port.Role))
	}
	if err := bus.Validate(port); err != nil {
		return fmt.Errorf("addrmap: slave %q: %w", name, err)
	}
	if region.Name != name {
		return fmt.Errorf("addrmap: slave %q registered with region %q", name, region.Name)
	}
	if err := m.Register(region); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	r := region
	m.slaves = append(m.slaves, ir.Attachment{Name: name, Port: port, Region: &r})
	return nil
}

// Regions returns the peripheral regions sorted by base address.
func (m *Map) Regions() []ir.Region {
	m.mu.Lock()
	defer m.mu.Unlock()
	return sortedCopy(m.regions)
}

// Reserved returns the reserved ranges sorted by base address.
func (m *Map) Reserved() []ir.Region {
	m.mu.Lock()
	defer m.mu.Unlock()
	return sortedCopy(m.reserved)
}

// Region returns the peripheral region with the given name.
func (m *Map) Region(name string) (ir.Region, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.regions {
		if r.Name == name {
			return r, true
		}
	}
	return ir.Region{}, false
}

// Decode returns the peripheral region containing addr.
func (m *Map) Decode(addr uint64) (ir.Region, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.regions {
		if r.Contains(addr) {
			return r, true
		}
	}
	return ir.Region{}, false
}

// Masters returns the attached master ports in attachment order.
func (m *Map) Masters() []ir.Attachment {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]ir.Attachment, len(m.masters))
	copy(out, m.masters)
	return out
}

// Slaves returns the attached peripheral ports sorted by region base.
func (m *Map) Slaves() []ir.Attachment {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]ir.Attachment, len(m.slaves))
	copy(out, m.slaves)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Region.Base < out[j].Region.Base
	})
	return out
}

func sortedCopy(rs []ir.Region) []ir.Region {
	out := make([]ir.Region, len(rs))
	copy(out, rs)
	sort.Slice(out, func(i, j int) bool { return out[i].Base < out[j].Base })
	return out
}
