package harness

import (
	"fmt"
	"strings"

	"github.com/roach88/socgen/internal/ir"
)

// AssertionError describes a failed assertion.
type AssertionError struct {
	Type     string
	Expected string
	Actual   string
}

func (e *AssertionError) Error() string {
	return fmt.Sprintf("assertion %s failed: expected %s, got %s", e.Type, e.Expected, e.Actual)
}

// EvaluateAssertions checks every assertion against b and returns the
// failure messages in assertion order.
func EvaluateAssertions(b *ir.Bundle, assertions []Assertion) []string {
	var errs []string
	for i, a := range assertions {
		if err := evaluate(b, a); err != nil {
			errs = append(errs, fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}
	return errs
}

func evaluate(b *ir.Bundle, a Assertion) error {
	switch a.Type {
	case AssertRegion:
		return assertRegion(b, a)
	case AssertNoRegion:
		if r, ok := b.Region(a.Name); ok {
			return &AssertionError{Type: a.Type, Expected: fmt.Sprintf("no region %q", a.Name), Actual: r.String()}
		}
		return nil
	case AssertParam:
		return assertParam(b, a)
	case AssertAssign:
		return assertAssign(b, a)
	case AssertMasters:
		names := make([]string, len(b.Masters))
		for i, m := range b.Masters {
			names[i] = m.Name
		}
		if strings.Join(names, ",") != strings.Join(a.Names, ",") {
			return &AssertionError{Type: a.Type, Expected: fmt.Sprint(a.Names), Actual: fmt.Sprint(names)}
		}
		return nil
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
}

func assertRegion(b *ir.Bundle, a Assertion) error {
	r, ok := b.Region(a.Name)
	if !ok {
		return &AssertionError{Type: a.Type, Expected: fmt.Sprintf("region %q", a.Name), Actual: "not found"}
	}
	if a.Base != nil && r.Base != *a.Base {
		return &AssertionError{Type: a.Type, Expected: fmt.Sprintf("%s base 0x%x", a.Name, *a.Base), Actual: fmt.Sprintf("0x%x", r.Base)}
	}
	if a.Size != nil && r.Size != *a.Size {
		return &AssertionError{Type: a.Type, Expected: fmt.Sprintf("%s size 0x%x", a.Name, *a.Size), Actual: fmt.Sprintf("0x%x", r.Size)}
	}
	return nil
}

func assertParam(b *ir.Bundle, a Assertion) error {
	in, ok := findInstance(b, a.Instance)
	if !ok {
		return &AssertionError{Type: a.Type, Expected: fmt.Sprintf("instance %q", a.Instance), Actual: "not found"}
	}
	p, ok := in.Lookup(a.Key)
	if !ok {
		return &AssertionError{Type: a.Type, Expected: fmt.Sprintf("%s.%s", a.Instance, a.Key), Actual: "not found"}
	}

	if a.Value != nil {
		if p.Const == nil {
			return &AssertionError{Type: a.Type, Expected: fmt.Sprintf("%s.%s = 0x%x", a.Instance, a.Key, *a.Value), Actual: "not a constant"}
		}
		if *p.Const != *a.Value {
			return &AssertionError{Type: a.Type, Expected: fmt.Sprintf("%s.%s = 0x%x", a.Instance, a.Key, *a.Value), Actual: fmt.Sprintf("0x%x", *p.Const)}
		}
		return nil
	}

	if p.Signal == nil || p.Signal.Name != a.Signal {
		actual := "not a signal"
		if p.Signal != nil {
			actual = p.Signal.Name
		}
		return &AssertionError{Type: a.Type, Expected: fmt.Sprintf("%s.%s -> %s", a.Instance, a.Key, a.Signal), Actual: actual}
	}
	return nil
}

func assertAssign(b *ir.Bundle, a Assertion) error {
	var drivers []string
	for _, as := range b.Assigns {
		if as.Dst.Name != a.Dst {
			continue
		}
		if as.Src.Name == a.Src {
			return nil
		}
		drivers = append(drivers, as.Src.Name)
	}
	actual := "no assign"
	if len(drivers) > 0 {
		actual = strings.Join(drivers, ",")
	}
	return &AssertionError{Type: a.Type, Expected: fmt.Sprintf("%s = %s", a.Dst, a.Src), Actual: actual}
}

// findInstance matches by instance name, then by module.
func findInstance(b *ir.Bundle, name string) (ir.Instance, bool) {
	for _, in := range b.Instances {
		if in.Name == name {
			return in, true
		}
	}
	return b.Instance(name)
}
