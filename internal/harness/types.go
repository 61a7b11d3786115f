package harness

import "github.com/roach88/socgen/internal/ir"

// TraceEvent records one executed step.
type TraceEvent struct {
	Seq     int64   `json:"seq"`
	Op      string  `json:"op"`
	Addr    *uint64 `json:"addr,omitempty"`
	Outcome string  `json:"outcome"` // "ok" or an error code
	// ID is the bundle ID of a successful build.
	ID string `json:"id,omitempty"`
}

// Value returns the canonical form of the event.
func (e TraceEvent) Value() ir.Object {
	obj := ir.Object{
		"seq":     ir.Int(e.Seq),
		"op":      ir.String(e.Op),
		"outcome": ir.String(e.Outcome),
	}
	if e.Addr != nil {
		obj["addr"] = ir.Int(*e.Addr)
	}
	if e.ID != "" {
		obj["id"] = ir.String(e.ID)
	}
	return obj
}

// Result is the outcome of a scenario run.
type Result struct {
	// Pass is true when every step met its expectation and every assertion
	// held.
	Pass bool `json:"pass"`

	Trace  []TraceEvent `json:"trace"`
	Errors []string     `json:"errors,omitempty"`

	// Bundle is the build output, nil if no build step succeeded.
	Bundle *ir.Bundle `json:"bundle,omitempty"`
}

// NewResult creates a passing result with an empty trace.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError records a failure and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddStep appends a trace event.
func (r *Result) AddStep(e TraceEvent) {
	r.Trace = append(r.Trace, e)
}
