package ir

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrorCode categorizes build errors.
type ErrorCode string

const (
	// ErrCodeInvalidVariant indicates an unknown variant was requested.
	ErrCodeInvalidVariant ErrorCode = "INVALID_VARIANT"

	// ErrCodeDuplicateConfiguration indicates a set-once value or wire was
	// configured twice, or configuration was attempted after finalization.
	ErrCodeDuplicateConfiguration ErrorCode = "DUPLICATE_CONFIGURATION"

	// ErrCodeMissingConfiguration indicates a required value was never set.
	ErrCodeMissingConfiguration ErrorCode = "MISSING_CONFIGURATION"

	// ErrCodeTopologyMismatch indicates a signal width or fan-in disagreement
	// between a fabric and the core.
	ErrCodeTopologyMismatch ErrorCode = "TOPOLOGY_MISMATCH"

	// ErrCodeRegionOverlap indicates two address regions intersect.
	ErrCodeRegionOverlap ErrorCode = "REGION_OVERLAP"
)

// BuildError is a non-recoverable composition error. A build that returns
// one produces no bundle.
type BuildError struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// Component names the part of the system that refused the build
	// (e.g. "core", "addrmap", "plic").
	Component string

	// Details contains additional context.
	Details map[string]string
}

// Error implements the error interface.
func (e *BuildError) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Code))
	b.WriteString(": ")
	if e.Component != "" {
		b.WriteString(e.Component)
		b.WriteString(": ")
	}
	b.WriteString(e.Message)
	if len(e.Details) > 0 {
		keys := make([]string, 0, len(e.Details))
		for k := range e.Details {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		b.WriteString(" (")
		for i, k := range keys {
			if i > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "%s=%s", k, e.Details[k])
		}
		b.WriteString(")")
	}
	return b.String()
}

// CodeOf returns the code of the first BuildError in err's chain, or "".
func CodeOf(err error) ErrorCode {
	var be *BuildError
	if errors.As(err, &be) {
		return be.Code
	}
	return ""
}

// HasCode reports whether err wraps a BuildError with the given code.
func HasCode(err error, code ErrorCode) bool {
	return err != nil && CodeOf(err) == code
}

// IsInvalidVariant reports whether err is an unknown-variant error.
func IsInvalidVariant(err error) bool { return HasCode(err, ErrCodeInvalidVariant) }

// IsDuplicateConfiguration reports whether err is a set-twice error.
func IsDuplicateConfiguration(err error) bool {
	return HasCode(err, ErrCodeDuplicateConfiguration)
}

// IsMissingConfiguration reports whether err is a missing-value error.
func IsMissingConfiguration(err error) bool {
	return HasCode(err, ErrCodeMissingConfiguration)
}

// IsTopologyMismatch reports whether err is a width or fan-in mismatch.
func IsTopologyMismatch(err error) bool { return HasCode(err, ErrCodeTopologyMismatch) }

// IsRegionOverlap reports whether err is an address region conflict.
func IsRegionOverlap(err error) bool { return HasCode(err, ErrCodeRegionOverlap) }

// NewInvalidVariant creates a BuildError for an unknown variant.
func NewInvalidVariant(v Variant, known []Variant) *BuildError {
	names := make([]string, len(known))
	for i, k := range known {
		names[i] = string(k)
	}
	return &BuildError{
		Code:      ErrCodeInvalidVariant,
		Message:   fmt.Sprintf("unknown variant %q", string(v)),
		Component: "variant",
		Details:   map[string]string{"known": strings.Join(names, ",")},
	}
}

// NewDuplicate creates a BuildError for a value configured twice.
func NewDuplicate(component, what string) *BuildError {
	return &BuildError{
		Code:      ErrCodeDuplicateConfiguration,
		Message:   fmt.Sprintf("%s already configured", what),
		Component: component,
	}
}

// NewMissing creates a BuildError for a required value that was never set.
func NewMissing(component, what string) *BuildError {
	return &BuildError{
		Code:      ErrCodeMissingConfiguration,
		Message:   fmt.Sprintf("%s is not configured", what),
		Component: component,
	}
}

// NewWidthMismatch creates a BuildError for a signal whose width disagrees
// with what the other side of the connection expects.
func NewWidthMismatch(component, signal string, want, got int) *BuildError {
	return &BuildError{
		Code:      ErrCodeTopologyMismatch,
		Message:   fmt.Sprintf("%s width mismatch", signal),
		Component: component,
		Details: map[string]string{
			"want": fmt.Sprintf("%d", want),
			"got":  fmt.Sprintf("%d", got),
		},
	}
}

// NewTopologyMismatch creates a BuildError for a structural disagreement
// that is not a plain width mismatch.
func NewTopologyMismatch(component, message string) *BuildError {
	return &BuildError{
		Code:      ErrCodeTopologyMismatch,
		Message:   message,
		Component: component,
	}
}

// NewRegionOverlap creates a BuildError for two intersecting regions.
func NewRegionOverlap(r, existing Region) *BuildError {
	return &BuildError{
		Code: ErrCodeRegionOverlap,
		Message: fmt.Sprintf("region %s 0x%x-0x%x overlaps %s 0x%x-0x%x",
			r.Name, r.Base, r.End()-1, existing.Name, existing.Base, existing.End()-1),
		Component: "addrmap",
		Details: map[string]string{
			"region":   r.Name,
			"existing": existing.Name,
		},
	}
}
