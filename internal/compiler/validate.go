package compiler

import (
	"fmt"
	"regexp"

	"github.com/roach88/socgen/internal/bus"
	"github.com/roach88/socgen/internal/ir"
	"github.com/roach88/socgen/internal/variant"
)

// Validation error codes (E200-E299)
const (
	ErrUnknownVariant      = "E201" // variant not in the table
	ErrInvalidResetVector  = "E202" // reset vector out of range or misaligned
	ErrInvalidNonCacheable = "E203" // non-cacheable range inverted or out of range
	ErrInvalidName         = "E204" // SoC name is not an identifier
)

// ValidationError represents a schema validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
	Line    int    `json:"line,omitempty"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("[%s] line %d: %s: %s", e.Code, e.Line, e.Field, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// namePattern keeps SoC names usable as HDL identifiers and file stems.
var namePattern = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

const addressLimit = uint64(1) << bus.AddressWidth

// Validate checks a compiled config against the variant table and the
// address space. Returns all errors found (does not fail-fast).
func Validate(cfg *ir.Config, table variant.Table) []ValidationError {
	var errs []ValidationError

	// E204: name
	if !namePattern.MatchString(cfg.Name) {
		errs = append(errs, ValidationError{
			Field:   "name",
			Message: fmt.Sprintf("invalid SoC name %q: must match %s", cfg.Name, namePattern.String()),
			Code:    ErrInvalidName,
		})
	}

	// E201: variant
	if _, err := table.Lookup(cfg.Variant); err != nil {
		errs = append(errs, ValidationError{
			Field:   "variant",
			Message: fmt.Sprintf("unknown variant %q, known: %v", cfg.Variant, table.Variants()),
			Code:    ErrUnknownVariant,
		})
	}

	// E203: non-cacheable range; nil keeps the core default
	switch nc := cfg.NonCacheable; {
	case nc == nil:
	case nc.High < nc.Low:
		errs = append(errs, ValidationError{
			Field:   "non_cacheable",
			Message: fmt.Sprintf("range 0x%x-0x%x is inverted", nc.Low, nc.High),
			Code:    ErrInvalidNonCacheable,
		})
	case nc.High >= addressLimit:
		errs = append(errs, ValidationError{
			Field:   "non_cacheable.high",
			Message: fmt.Sprintf("0x%x is outside the %d-bit address space", nc.High, bus.AddressWidth),
			Code:    ErrInvalidNonCacheable,
		})
	}

	// E202: reset vector
	if cfg.ResetVector != nil {
		addr := *cfg.ResetVector
		switch {
		case addr >= addressLimit:
			errs = append(errs, ValidationError{
				Field:   "reset_vector",
				Message: fmt.Sprintf("0x%x is outside the %d-bit address space", addr, bus.AddressWidth),
				Code:    ErrInvalidResetVector,
			})
		case addr%4 != 0:
			errs = append(errs, ValidationError{
				Field:   "reset_vector",
				Message: fmt.Sprintf("0x%x is not word aligned", addr),
				Code:    ErrInvalidResetVector,
			})
		}
	}

	return errs
}
