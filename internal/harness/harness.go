package harness

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/socgen/internal/fabric"
	"github.com/roach88/socgen/internal/ir"
	"github.com/roach88/socgen/internal/soc"
	"github.com/roach88/socgen/internal/testutil"
	"github.com/roach88/socgen/internal/variant"
)

// Harness executes one scenario against a fresh integrator.
type Harness struct {
	table  variant.Table
	clock  *testutil.DeterministicClock
	ids    *testutil.FixedIDGenerator
	logger *slog.Logger

	integrator *soc.Integrator
}

// Run executes a scenario against the default variant table.
func Run(scenario *Scenario) (*Result, error) {
	return RunWithTable(scenario, variant.Default())
}

// RunWithTable executes a scenario against table.
//
// Steps run in order. A step whose outcome differs from its expectation is
// recorded as an error and the remaining steps still run, except after a
// failed new, which leaves nothing to operate on. Assertions are evaluated
// only when a build succeeded.
func RunWithTable(scenario *Scenario, table variant.Table) (*Result, error) {
	if scenario == nil {
		return nil, fmt.Errorf("scenario is nil")
	}

	h := &Harness{
		table:  table,
		clock:  testutil.NewDeterministicClock(),
		ids:    testutil.NewFixedIDGenerator(scenario.BuildID),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	result := NewResult()
	for i, step := range scenario.Steps {
		if step.Op != OpNew && h.integrator == nil {
			result.AddError(fmt.Sprintf("steps[%d] %s: no integrator (new failed)", i, step.Op))
			break
		}

		event, err := h.execute(scenario, step, result)
		result.AddStep(event)
		if err != nil {
			return nil, fmt.Errorf("steps[%d] %s: %w", i, step.Op, err)
		}

		want := step.Expect
		if want == "" {
			want = OutcomeOK
		}
		if event.Outcome != want {
			result.AddError(fmt.Sprintf("steps[%d] %s: expected %s, got %s", i, step.Op, want, event.Outcome))
		}
	}

	if len(scenario.Assertions) > 0 {
		if result.Bundle == nil {
			result.AddError("assertions: no bundle was built")
		} else {
			for _, msg := range EvaluateAssertions(result.Bundle, scenario.Assertions) {
				result.AddError(msg)
			}
		}
	}

	return result, nil
}

// execute applies one step. Build failures are outcomes, not errors; the
// returned error is reserved for steps the harness cannot run at all.
func (h *Harness) execute(scenario *Scenario, step Step, result *Result) (TraceEvent, error) {
	event := TraceEvent{Seq: h.clock.Next(), Op: step.Op, Addr: step.Addr}

	var err error
	switch step.Op {
	case OpNew:
		h.integrator, err = soc.New(h.table, scenario.Config.IRConfig(), h.options(scenario.Overrides))
	case OpSetResetAddress:
		err = h.integrator.SetResetAddress(*step.Addr)
	case OpBuild:
		var b *ir.Bundle
		b, err = h.integrator.Build()
		if err == nil {
			result.Bundle = b
			event.ID = b.ID
		}
	default:
		return event, fmt.Errorf("unknown op %q", step.Op)
	}

	event.Outcome = outcome(err)
	if err != nil {
		h.logger.Debug("step failed", "op", step.Op, "error", err)
		if ir.CodeOf(err) == "" {
			return event, err
		}
	}
	return event, nil
}

func (h *Harness) options(o *Overrides) soc.Options {
	opts := soc.Options{Logger: h.logger, IDs: h.ids}
	if o == nil {
		return opts
	}
	if o.Interrupt != nil {
		ctrl := fabric.PLIC()
		if o.Interrupt.Sources != nil {
			ctrl.Sources = *o.Interrupt.Sources
		}
		if o.Interrupt.Targets != nil {
			ctrl.Targets = *o.Interrupt.Targets
		}
		if o.Interrupt.Base != nil {
			ctrl.Base = *o.Interrupt.Base
		}
		if o.Interrupt.Size != nil {
			ctrl.Size = *o.Interrupt.Size
		}
		opts.Interrupt = &ctrl
	}
	if o.Timer != nil {
		t := fabric.CLINT()
		if o.Timer.TimeWidth != nil {
			t.TimeWidth = *o.Timer.TimeWidth
		}
		if o.Timer.Base != nil {
			t.Base = *o.Timer.Base
		}
		if o.Timer.Size != nil {
			t.Size = *o.Timer.Size
		}
		opts.Timer = &t
	}
	return opts
}

func outcome(err error) string {
	if err == nil {
		return OutcomeOK
	}
	if code := ir.CodeOf(err); code != "" {
		return string(code)
	}
	return "error"
}
