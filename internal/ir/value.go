package ir

import (
	"slices"
	"unicode/utf16"
)

// Value is a sealed interface over the value kinds allowed in canonical
// bundle encoding. There is deliberately no float or null kind.
type Value interface {
	irValue()
}

// String is a string value.
type String string

func (String) irValue() {}

// Int is an integer value. Addresses and widths fit in int64.
type Int int64

func (Int) irValue() {}

// Bool is a boolean value.
type Bool bool

func (Bool) irValue() {}

// List is an ordered sequence of values.
type List []Value

func (List) irValue() {}

// Object is a map of string keys to values.
// Use SortedKeys() for deterministic iteration.
type Object map[string]Value

func (Object) irValue() {}

// SortedKeys returns keys in RFC 8785 canonical order (UTF-16 code units).
func (obj Object) SortedKeys() []string {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, compareKeysRFC8785)
	return keys
}

// compareKeysRFC8785 compares strings by UTF-16 code units.
// Go's string comparison is by UTF-8 bytes, which orders differently above
// the BMP.
func compareKeysRFC8785(a, b string) int {
	a16 := utf16.Encode([]rune(a))
	b16 := utf16.Encode([]rune(b))
	return slices.Compare(a16, b16)
}

// Value conversions for the bundle model. Each returns the canonical object
// used for hashing and golden comparisons.

func (s Signal) Value() Object {
	return Object{"name": String(s.Name), "width": Int(s.Width)}
}

func (p Param) Value() Object {
	obj := Object{"dir": String(p.Dir), "name": String(p.Name)}
	if p.Const != nil {
		obj["const"] = Int(*p.Const)
	}
	if p.Signal != nil {
		obj["signal"] = p.Signal.Value()
	}
	return obj
}

func (in Instance) Value() Object {
	params := make(List, len(in.Params))
	for i, p := range in.Params {
		params[i] = p.Value()
	}
	return Object{"module": String(in.Module), "name": String(in.Name), "params": params}
}

func (r Region) Value() Object {
	return Object{
		"name":      String(r.Name),
		"base":      Int(r.Base),
		"size":      Int(r.Size),
		"cacheable": Bool(r.Cacheable),
	}
}

func (p BusPort) Value() Object {
	return Object{
		"name":          String(p.Name),
		"role":          String(p.Role),
		"address_width": Int(p.AddressWidth),
		"data_width":    Int(p.DataWidth),
		"addressing":    String(p.Addressing),
	}
}

func (a Attachment) Value() Object {
	obj := Object{"name": String(a.Name), "port": a.Port.Value()}
	if a.Region != nil {
		obj["region"] = a.Region.Value()
	}
	return obj
}

func (c CPUInfo) Value() Object {
	triples := make(List, len(c.GCCTriple))
	for i, t := range c.GCCTriple {
		triples[i] = String(t)
	}
	io := make(List, len(c.IORegions))
	for i, r := range c.IORegions {
		io[i] = r.Value()
	}
	return Object{
		"name":                 String(c.Name),
		"human_name":           String(c.HumanName),
		"category":             String(c.Category),
		"family":               String(c.Family),
		"data_width":           Int(c.DataWidth),
		"endianness":           String(c.Endianness),
		"gcc_triple":           triples,
		"gcc_flags":            String(c.GCCFlags),
		"linker_output_format": String(c.LinkerOutputFormat),
		"nop":                  String(c.Nop),
		"variant_index":        Int(c.VariantIndex),
		"reset_vector":         Int(c.ResetVector),
		"non_cacheable": Object{
			"low":  Int(c.NonCacheable.Low),
			"high": Int(c.NonCacheable.High),
		},
		"io_regions": io,
	}
}

// Value returns the hashed form of the bundle. ID and Hash are excluded so
// the same configuration always hashes the same.
func (b *Bundle) Value() Object {
	instances := make(List, len(b.Instances))
	for i, in := range b.Instances {
		instances[i] = in.Value()
	}
	assigns := make(List, len(b.Assigns))
	for i, a := range b.Assigns {
		assigns[i] = Object{"dst": a.Dst.Value(), "src": a.Src.Value()}
	}
	regions := make(List, len(b.Regions))
	for i, r := range b.Regions {
		regions[i] = r.Value()
	}
	masters := make(List, len(b.Masters))
	for i, m := range b.Masters {
		masters[i] = m.Value()
	}
	slaves := make(List, len(b.Slaves))
	for i, s := range b.Slaves {
		slaves[i] = s.Value()
	}
	sources := make(List, len(b.Sources))
	for i, s := range b.Sources {
		sources[i] = String(s)
	}
	return Object{
		"ir_version": String(b.IRVersion),
		"soc":        String(b.SoC),
		"variant":    String(b.Variant),
		"cpu":        b.CPU.Value(),
		"instances":  instances,
		"assigns":    assigns,
		"regions":    regions,
		"masters":    masters,
		"slaves":     slaves,
		"sources":    sources,
	}
}

// Value returns the hashed form of a configuration.
func (c Config) Value() Object {
	obj := Object{
		"name":    String(c.Name),
		"variant": String(c.Variant),
		"sources": Object{
			"cva5_root": String(c.Sources.CVA5Root),
			"plic":      String(c.Sources.PLIC),
			"clint":     String(c.Sources.CLINT),
		},
	}
	if c.ResetVector != nil {
		obj["reset_vector"] = Int(*c.ResetVector)
	}
	if c.NonCacheable != nil {
		obj["non_cacheable"] = Object{
			"low":  Int(c.NonCacheable.Low),
			"high": Int(c.NonCacheable.High),
		}
	}
	return obj
}
