package compiler

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/socgen/internal/core"
	"github.com/roach88/socgen/internal/ir"
)

// DefaultVariant is used when a config leaves variant out.
const DefaultVariant = ir.VariantStandard

var socFields = map[string]bool{
	"variant":       true,
	"reset_vector":  true,
	"non_cacheable": true,
	"sources":       true,
}

// CompileSoC parses a CUE value into a Config.
// The value should be one SoC struct, e.g.:
//
//	ctx := cuecontext.New()
//	v := ctx.CompileString(`soc: demo: { variant: "standard" }`)
//	cfg, err := CompileSoC(v.LookupPath(cue.ParsePath("soc.demo")))
func CompileSoC(v cue.Value) (*ir.Config, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	nc := core.DefaultNonCacheable
	cfg := &ir.Config{
		Variant:      DefaultVariant,
		NonCacheable: &nc,
	}

	// Name comes from the struct label
	labels := v.Path().Selectors()
	if len(labels) > 0 {
		cfg.Name = labels[len(labels)-1].String()
	}

	if err := checkFields(v, socFields); err != nil {
		return nil, err
	}

	if variantVal := v.LookupPath(cue.ParsePath("variant")); variantVal.Exists() {
		s, err := variantVal.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		cfg.Variant = ir.Variant(s)
	}

	if resetVal := v.LookupPath(cue.ParsePath("reset_vector")); resetVal.Exists() {
		addr, err := resetVal.Uint64()
		if err != nil {
			return nil, &CompileError{
				Field:   "reset_vector",
				Message: "must be a non-negative integer",
				Pos:     resetVal.Pos(),
			}
		}
		cfg.ResetVector = &addr
	}

	if ncVal := v.LookupPath(cue.ParsePath("non_cacheable")); ncVal.Exists() {
		r, err := parseRange(ncVal)
		if err != nil {
			return nil, err
		}
		cfg.NonCacheable = &r
	}

	if srcVal := v.LookupPath(cue.ParsePath("sources")); srcVal.Exists() {
		src, err := parseSources(srcVal)
		if err != nil {
			return nil, err
		}
		cfg.Sources = src
	}

	return cfg, nil
}

// parseRange parses {low, high}. Both bounds are required.
func parseRange(v cue.Value) (ir.AddressRange, error) {
	var r ir.AddressRange
	if err := checkFields(v, map[string]bool{"low": true, "high": true}); err != nil {
		return r, err
	}
	for _, f := range []struct {
		name string
		dst  *uint64
	}{
		{"low", &r.Low},
		{"high", &r.High},
	} {
		fv := v.LookupPath(cue.ParsePath(f.name))
		if !fv.Exists() {
			return r, &CompileError{
				Field:   "non_cacheable." + f.name,
				Message: "is required",
				Pos:     v.Pos(),
			}
		}
		n, err := fv.Uint64()
		if err != nil {
			return r, &CompileError{
				Field:   "non_cacheable." + f.name,
				Message: "must be a non-negative integer",
				Pos:     fv.Pos(),
			}
		}
		*f.dst = n
	}
	return r, nil
}

func parseSources(v cue.Value) (ir.SourceConfig, error) {
	var src ir.SourceConfig
	targets := map[string]*string{
		"cva5_root": &src.CVA5Root,
		"plic":      &src.PLIC,
		"clint":     &src.CLINT,
	}
	allowed := make(map[string]bool, len(targets))
	for k := range targets {
		allowed[k] = true
	}
	if err := checkFields(v, allowed); err != nil {
		return src, err
	}

	for name, dst := range targets {
		fv := v.LookupPath(cue.ParsePath(name))
		if !fv.Exists() {
			continue
		}
		s, err := fv.String()
		if err != nil {
			return src, formatCUEError(err)
		}
		*dst = s
	}
	return src, nil
}

// checkFields rejects any regular field of v not in allowed.
func checkFields(v cue.Value, allowed map[string]bool) error {
	iter, err := v.Fields()
	if err != nil {
		return formatCUEError(err)
	}
	for iter.Next() {
		name := iter.Selector().String()
		if !allowed[name] {
			return &CompileError{
				Field:   name,
				Message: "unknown field",
				Pos:     iter.Value().Pos(),
			}
		}
	}
	return nil
}

// CompileError represents a compilation error with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	// CUE errors may contain multiple errors
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	// Return first error with position info
	firstErr := errs[0]
	positions := errors.Positions(firstErr)
	if len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: firstErr.Error(),
			Pos:     positions[0],
		}
	}

	return err
}
