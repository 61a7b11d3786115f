package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValueSealed(t *testing.T) {
	// Compile-time check that every kind implements Value
	var _ Value = String("test")
	var _ Value = Int(42)
	var _ Value = Bool(true)
	var _ Value = List{String("a"), Int(1)}
	var _ Value = Object{"key": String("value")}
}

func TestObjectSortedKeys(t *testing.T) {
	obj := Object{
		"zebra":  String("z"),
		"apple":  String("a"),
		"banana": String("b"),
	}

	assert.Equal(t, []string{"apple", "banana", "zebra"}, obj.SortedKeys())
}

func TestObjectSortedKeysCaseOrder(t *testing.T) {
	// 'A' = 65 sorts before 'a' = 97
	obj := Object{
		"a":  Int(1),
		"A":  Int(2),
		"aa": Int(3),
		"aA": Int(4),
		"Aa": Int(5),
		"AA": Int(6),
	}

	assert.Equal(t, []string{"A", "AA", "Aa", "a", "aA", "aa"}, obj.SortedKeys())
}

func TestObjectEmpty(t *testing.T) {
	assert.Empty(t, Object{}.SortedKeys())
}

func TestCompareKeysRFC8785(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"a", "b", -1},
		{"b", "a", 1},
		{"a", "a", 0},
		{"a", "aa", -1},
		{"", "a", -1},
		// Surrogate pair (0xD800) sorts below U+FFFD under UTF-16.
		{"\U00010000", "\ufffd", -1},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, compareKeysRFC8785(tt.a, tt.b), "%q vs %q", tt.a, tt.b)
	}
}

func TestParamValue(t *testing.T) {
	got := ConstParam("RESET_VEC", 0x1000).Value()
	assert.Equal(t, Object{"dir": String("p"), "name": String("RESET_VEC"), "const": Int(0x1000)}, got)

	got = Output("o", Signal{Name: "net", Width: 30}).Value()
	assert.Equal(t, Object{
		"dir":    String("o"),
		"name":   String("o"),
		"signal": Object{"name": String("net"), "width": Int(30)},
	}, got)
}

func TestAttachmentValueRegionOptional(t *testing.T) {
	port := BusPort{Name: "idbus", Role: RoleInstructionData, AddressWidth: 30, DataWidth: 32, Addressing: AddressingWord}

	master := Attachment{Name: "idbus", Port: port}.Value()
	assert.NotContains(t, master, "region")

	r := Region{Name: "plic", Base: 0xF0C00000, Size: 0x400000}
	slave := Attachment{Name: "plic", Port: port, Region: &r}.Value()
	assert.Equal(t, r.Value(), slave["region"])
}

func TestBundleValueExcludesIdentity(t *testing.T) {
	v := testBundle().Value()

	assert.NotContains(t, v, "id")
	assert.NotContains(t, v, "hash")
	assert.Equal(t, []string{"assigns", "cpu", "instances", "ir_version", "masters", "regions", "slaves", "soc", "sources", "variant"}, v.SortedKeys())
}

func TestConfigValueResetVectorOptional(t *testing.T) {
	cfg := Config{Name: "demo", Variant: VariantMinimal}
	assert.NotContains(t, cfg.Value(), "reset_vector")

	addr := uint64(0)
	cfg.ResetVector = &addr
	assert.Equal(t, Int(0), cfg.Value()["reset_vector"])
}

func TestConfigValueNonCacheableOptional(t *testing.T) {
	cfg := Config{Name: "demo", Variant: VariantStandard}
	assert.NotContains(t, cfg.Value(), "non_cacheable")

	cfg.NonCacheable = &AddressRange{}
	assert.Equal(t, Object{"low": Int(0), "high": Int(0)}, cfg.Value()["non_cacheable"])
}

func TestValuesEncodeWithoutNull(t *testing.T) {
	// Every zero-valued model type still encodes: no nil leaks into Values.
	values := []Value{
		(&Bundle{}).Value(),
		Config{}.Value(),
		CPUInfo{}.Value(),
		Instance{}.Value(),
	}
	for _, v := range values {
		_, err := MarshalCanonical(v)
		require.NoError(t, err)
	}
}
