package ir

import "fmt"

// Variant names a CPU core configuration. It selects bus topology and
// compiler flags and is immutable once a core is constructed.
type Variant string

const (
	VariantMinimal  Variant = "minimal"
	VariantStandard Variant = "standard"
)

// Topology describes how a variant exposes its memory-transaction ports.
type Topology string

const (
	// TopologyCombined is a single port shared by fetch and data access.
	TopologyCombined Topology = "combined"
	// TopologySplit is an independent fetch port plus a load-store port.
	TopologySplit Topology = "split"
)

// PortRole is the function a bus port serves. A port has exactly one role.
type PortRole string

const (
	RoleInstructionData PortRole = "instruction_data"
	RoleFetch           PortRole = "fetch"
	RoleLoadStore       PortRole = "load_store"
	RolePeripheral      PortRole = "peripheral"
)

// Addressing is the bus address granularity.
type Addressing string

const (
	AddressingWord Addressing = "word"
	AddressingByte Addressing = "byte"
)

// BusPort is a word-addressed handshake bus interface.
// Widths are fixed at construction; see bus.NewPort.
type BusPort struct {
	Name         string     `json:"name"`
	Role         PortRole   `json:"role"`
	AddressWidth int        `json:"address_width"`
	DataWidth    int        `json:"data_width"`
	Addressing   Addressing `json:"addressing"`
}

// IsMaster reports whether the port is driven by the CPU side.
func (p BusPort) IsMaster() bool {
	return p.Role != RolePeripheral
}

// Signal is a named net of fixed width.
type Signal struct {
	Name  string `json:"name"`
	Width int    `json:"width"`
}

// Bit returns a single-bit reference into s.
func (s Signal) Bit(i int) Signal {
	return Signal{Name: fmt.Sprintf("%s[%d]", s.Name, i), Width: 1}
}

func (s Signal) String() string {
	return fmt.Sprintf("%s[%d]", s.Name, s.Width)
}

// Direction classifies an instance parameter the way structural
// instantiation does: a static parameter, an input port or an output port.
type Direction string

const (
	DirParam  Direction = "p"
	DirInput  Direction = "i"
	DirOutput Direction = "o"
)

// Param is one entry of an instance's parameter bundle.
// Exactly one of Const or Signal is set.
type Param struct {
	Dir    Direction `json:"dir"`
	Name   string    `json:"name"`
	Const  *int64    `json:"const,omitempty"`
	Signal *Signal   `json:"signal,omitempty"`
}

// Key returns the prefixed parameter name, e.g. "i_clk" or "p_RESET_VEC".
func (p Param) Key() string {
	return string(p.Dir) + "_" + p.Name
}

// ConstParam builds a static parameter.
func ConstParam(name string, v int64) Param {
	return Param{Dir: DirParam, Name: name, Const: &v}
}

// Input builds an input port connection.
func Input(name string, s Signal) Param {
	return Param{Dir: DirInput, Name: name, Signal: &s}
}

// Output builds an output port connection.
func Output(name string, s Signal) Param {
	return Param{Dir: DirOutput, Name: name, Signal: &s}
}

// Instance is a structural instantiation of an external HDL module.
type Instance struct {
	Module string  `json:"module"`
	Name   string  `json:"name"`
	Params []Param `json:"params"`
}

// Lookup returns the parameter with the given prefixed key.
func (in Instance) Lookup(key string) (Param, bool) {
	for _, p := range in.Params {
		if p.Key() == key {
			return p, true
		}
	}
	return Param{}, false
}

// Keys returns the prefixed parameter names in declaration order.
func (in Instance) Keys() []string {
	keys := make([]string, len(in.Params))
	for i, p := range in.Params {
		keys[i] = p.Key()
	}
	return keys
}

// Assign is a combinational connection Dst = Src.
type Assign struct {
	Dst Signal `json:"dst"`
	Src Signal `json:"src"`
}

// Region is a contiguous slice of the system address space backing one
// peripheral. Size is in bytes.
type Region struct {
	Name      string `json:"name"`
	Base      uint64 `json:"base"`
	Size      uint64 `json:"size"`
	Cacheable bool   `json:"cacheable"`
}

// End returns the first address past the region.
func (r Region) End() uint64 {
	return r.Base + r.Size
}

// Contains reports whether addr falls inside the region.
func (r Region) Contains(addr uint64) bool {
	return addr >= r.Base && addr < r.End()
}

// Overlaps reports whether the two half-open ranges intersect.
func (r Region) Overlaps(o Region) bool {
	return r.Base < o.End() && o.Base < r.End()
}

func (r Region) String() string {
	return fmt.Sprintf("%s 0x%08x-0x%08x", r.Name, r.Base, r.End()-1)
}

// AddressRange is an inclusive [Low, High] address range.
type AddressRange struct {
	Low  uint64 `json:"low"`
	High uint64 `json:"high"`
}

// Region converts the inclusive range to a half-open Region.
func (a AddressRange) Region(name string) Region {
	return Region{Name: name, Base: a.Low, Size: a.High - a.Low + 1}
}

// Attachment records a bus port connected to the host bus fabric.
// Region is set for peripheral (slave) attachments only.
type Attachment struct {
	Name   string  `json:"name"`
	Port   BusPort `json:"port"`
	Region *Region `json:"region,omitempty"`
}

// CPUInfo is the descriptive metadata the host build system needs to pick
// a toolchain and link software for the core.
type CPUInfo struct {
	Name               string       `json:"name"`
	HumanName          string       `json:"human_name"`
	Category           string       `json:"category"`
	Family             string       `json:"family"`
	DataWidth          int          `json:"data_width"`
	Endianness         string       `json:"endianness"`
	GCCTriple          []string     `json:"gcc_triple"`
	GCCFlags           string       `json:"gcc_flags"`
	LinkerOutputFormat string       `json:"linker_output_format"`
	Nop                string       `json:"nop"`
	VariantIndex       int          `json:"variant_index"`
	ResetVector        uint64       `json:"reset_vector"`
	NonCacheable       AddressRange `json:"non_cacheable"`
	IORegions          []Region     `json:"io_regions"`
}

// Bundle is the final instantiation descriptor handed to the host build
// system. ID and Hash are excluded from the hashed form.
type Bundle struct {
	ID        string       `json:"id"`
	Hash      string       `json:"hash"`
	IRVersion string       `json:"ir_version"`
	SoC       string       `json:"soc"`
	Variant   Variant      `json:"variant"`
	CPU       CPUInfo      `json:"cpu"`
	Instances []Instance   `json:"instances"`
	Assigns   []Assign     `json:"assigns"`
	Regions   []Region     `json:"regions"`
	Masters   []Attachment `json:"masters"`
	Slaves    []Attachment `json:"slaves"`
	Sources   []string     `json:"sources"`
}

// Instance returns the instance of the given module.
func (b *Bundle) Instance(module string) (Instance, bool) {
	for _, in := range b.Instances {
		if in.Module == module {
			return in, true
		}
	}
	return Instance{}, false
}

// Region returns the registered region with the given name.
func (b *Bundle) Region(name string) (Region, bool) {
	for _, r := range b.Regions {
		if r.Name == name {
			return r, true
		}
	}
	return Region{}, false
}

// Config is a compiled SoC configuration. A nil NonCacheable leaves the
// core's default window in place.
type Config struct {
	Name         string        `json:"name"`
	Variant      Variant       `json:"variant"`
	ResetVector  *uint64       `json:"reset_vector,omitempty"`
	NonCacheable *AddressRange `json:"non_cacheable,omitempty"`
	Sources      SourceConfig  `json:"sources"`
}

// SourceConfig locates the external HDL sources for the referenced modules.
// Empty fields leave the source list without those entries.
type SourceConfig struct {
	CVA5Root string `json:"cva5_root,omitempty"`
	PLIC     string `json:"plic,omitempty"`
	CLINT    string `json:"clint,omitempty"`
}
