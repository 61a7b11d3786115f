// Package emit renders a built bundle for the host build system and for
// people: JSON and YAML documents, a structural Verilog top level, and text
// tables of the address map and instance parameters.
package emit

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/socgen/internal/ir"
)

// Format selects an output encoding.
type Format string

const (
	FormatJSON    Format = "json"
	FormatYAML    Format = "yaml"
	FormatVerilog Format = "verilog"
)

// FormatForPath picks the format from a file extension. Unknown extensions
// fall back to JSON.
func FormatForPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	case ".v", ".sv":
		return FormatVerilog
	default:
		return FormatJSON
	}
}

// Write renders b to w in the given format.
func Write(w io.Writer, b *ir.Bundle, f Format) error {
	switch f {
	case FormatJSON:
		return JSON(w, b)
	case FormatYAML:
		return YAML(w, b)
	case FormatVerilog:
		return Verilog(w, b)
	default:
		return fmt.Errorf("emit: unknown format %q", f)
	}
}

// JSON writes the bundle as indented JSON.
func JSON(w io.Writer, b *ir.Bundle) error {
	data, err := json.MarshalIndent(b, "", "  ")
	if err != nil {
		return fmt.Errorf("emit json: %w", err)
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}

// YAML writes the bundle as YAML with the same keys and key order as the
// JSON form. The JSON document is decoded into a yaml.Node so field order
// survives.
func YAML(w io.Writer, b *ir.Bundle) error {
	var buf bytes.Buffer
	if err := JSON(&buf, b); err != nil {
		return err
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(buf.Bytes(), &doc); err != nil {
		return fmt.Errorf("emit yaml: %w", err)
	}
	plainStyle(&doc)

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(&doc); err != nil {
		return fmt.Errorf("emit yaml: %w", err)
	}
	return enc.Close()
}

// plainStyle clears the flow style the JSON decoder leaves on every
// collection so the output reads as block YAML.
func plainStyle(n *yaml.Node) {
	n.Style &^= yaml.FlowStyle
	if n.Kind == yaml.ScalarNode && n.Style&yaml.DoubleQuotedStyle != 0 && n.Tag == "!!str" {
		n.Style &^= yaml.DoubleQuotedStyle
	}
	for _, c := range n.Content {
		plainStyle(c)
	}
}
