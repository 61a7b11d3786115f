package ir

import (
	"encoding/json"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/unicode/norm"
)

func TestMarshalCanonicalBasic(t *testing.T) {
	tests := []struct {
		name     string
		input    Value
		expected string
	}{
		{"string", String("hello"), `"hello"`},
		{"empty string", String(""), `""`},
		{"int", Int(42), "42"},
		{"negative int", Int(-100), "-100"},
		{"zero", Int(0), "0"},
		{"max int64", Int(9223372036854775807), "9223372036854775807"},
		{"min int64", Int(-9223372036854775808), "-9223372036854775808"},
		{"bool true", Bool(true), "true"},
		{"bool false", Bool(false), "false"},
		{"empty list", List{}, "[]"},
		{"empty object", Object{}, "{}"},
		{"list of ints", List{Int(1), Int(2), Int(3)}, "[1,2,3]"},
		{"simple object", Object{"a": Int(1)}, `{"a":1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := MarshalCanonical(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, string(result))
		})
	}
}

func TestMarshalCanonicalSortedKeys(t *testing.T) {
	obj := Object{
		"zebra": Int(1),
		"alpha": Int(2),
		"beta":  Int(3),
	}

	result, err := MarshalCanonical(obj)
	require.NoError(t, err)
	assert.Equal(t, `{"alpha":2,"beta":3,"zebra":1}`, string(result))
}

func TestMarshalCanonicalNestedSortedKeys(t *testing.T) {
	obj := Object{
		"z": Object{
			"b": Int(1),
			"a": Int(2),
		},
		"a": Int(3),
	}

	result, err := MarshalCanonical(obj)
	require.NoError(t, err)
	assert.Equal(t, `{"a":3,"z":{"a":2,"b":1}}`, string(result))
}

func TestMarshalCanonicalUTF16Ordering(t *testing.T) {
	// U+10000 encodes as a surrogate pair starting 0xD800, which sorts below
	// U+FFFD in UTF-16 but above it in UTF-8.
	obj := Object{
		"\ufffd":     Int(1),
		"\U00010000": Int(2),
	}

	result, err := MarshalCanonical(obj)
	require.NoError(t, err)
	assert.Equal(t, "{\"\U00010000\":2,\"\ufffd\":1}", string(result))
}

func TestMarshalCanonicalNoHTMLEscape(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"less than", "<", `"<"`},
		{"greater than", ">", `">"`},
		{"ampersand", "&", `"&"`},
		{"verilog range", "adr_o[29:0] <= 0", `"adr_o[29:0] <= 0"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := MarshalCanonical(String(tt.input))
			require.NoError(t, err)
			assert.Equal(t, tt.expected, string(result))
		})
	}
}

func TestMarshalCanonicalRejectsNull(t *testing.T) {
	_, err := MarshalCanonical(nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "null")

	_, err = MarshalCanonical(Object{"a": List{Int(1), nil}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `value for key "a": array[1]`)
}

func TestMarshalCanonicalNFCNormalization(t *testing.T) {
	// e + combining acute (NFD) must encode as the precomposed form.
	a, err := MarshalCanonical(String("e\u0301"))
	require.NoError(t, err)
	b, err := MarshalCanonical(String("\u00e9"))
	require.NoError(t, err)
	assert.Equal(t, b, a)
}

func TestMarshalCanonicalNFCInObjectKeys(t *testing.T) {
	a, err := MarshalCanonical(Object{"e\u0301": Int(1)})
	require.NoError(t, err)
	b, err := MarshalCanonical(Object{"\u00e9": Int(1)})
	require.NoError(t, err)
	assert.Equal(t, b, a)
}

func TestMarshalCanonicalCompactOutput(t *testing.T) {
	obj := Object{
		"list": List{Int(1), Int(2)},
		"obj":  Object{"k": String("v")},
	}

	result, err := MarshalCanonical(obj)
	require.NoError(t, err)
	assert.Equal(t, `{"list":[1,2],"obj":{"k":"v"}}`, string(result))
}

func TestMarshalCanonicalIdempotency(t *testing.T) {
	b := testBundle()
	first, err := MarshalCanonical(b.Value())
	require.NoError(t, err)
	second, err := MarshalCanonical(b.Value())
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestMarshalCanonicalStringEscaping(t *testing.T) {
	// Standard JSON escapes should still work
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"newline", "a\nb", `"a\nb"`},
		{"tab", "a\tb", `"a\tb"`},
		{"quote", `a"b`, `"a\"b"`},
		{"backslash", `a\b`, `"a\\b"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := MarshalCanonical(String(tt.input))
			require.NoError(t, err)
			assert.Equal(t, tt.expected, string(result))
		})
	}
}

func TestMarshalCanonicalU2028U2029NotEscaped(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"U+2028 LINE SEPARATOR", "hello\u2028world", "\"hello\u2028world\""},
		{"U+2029 PARAGRAPH SEPARATOR", "hello\u2029world", "\"hello\u2029world\""},
		{"both", "a\u2028b\u2029c", "\"a\u2028b\u2029c\""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := MarshalCanonical(String(tt.input))
			require.NoError(t, err)
			assert.Equal(t, tt.expected, string(result))
			assert.NotContains(t, string(result), `\u2028`)
			assert.NotContains(t, string(result), `\u2029`)
		})
	}
}

func TestMarshalCanonicalLiteralBackslashU2028(t *testing.T) {
	// A literal backslash followed by "u2028" is text, not an escape.
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"literal backslash-u2028 text", `the escape sequence is \u2028`, `"the escape sequence is \\u2028"`},
		{"literal backslash-u2029 text", `the escape sequence is \u2029`, `"the escape sequence is \\u2029"`},
		{"mixed literal and actual", "literal \\u2028 and actual \u2028", "\"literal \\\\u2028 and actual \u2028\""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := MarshalCanonical(String(tt.input))
			require.NoError(t, err)
			assert.Equal(t, tt.expected, string(result))
		})
	}
}

// FuzzMarshalCanonicalString checks that every canonical string decodes
// back to the NFC form of its input.
func FuzzMarshalCanonicalString(f *testing.F) {
	f.Add("hello")
	f.Add("a\u2028b")
	f.Add(`back\slash`)
	f.Add("<tag>&amp;")

	f.Fuzz(func(t *testing.T, s string) {
		if !utf8.ValidString(s) {
			t.Skip()
		}
		out, err := MarshalCanonical(String(s))
		require.NoError(t, err)

		var decoded string
		require.NoError(t, json.Unmarshal(out, &decoded))
		assert.Equal(t, norm.NFC.String(s), decoded)
	})
}
