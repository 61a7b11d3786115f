package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/socgen/internal/ir"
)

// Scenario is one build scenario loaded from YAML.
type Scenario struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`

	// Config is the SoC being built.
	Config ConfigSpec `yaml:"config"`

	// Overrides replaces fields of the default peripheral descriptors.
	Overrides *Overrides `yaml:"overrides,omitempty"`

	// Steps are applied in order. The first must be "new".
	Steps []Step `yaml:"steps"`

	// Assertions are checked against the built bundle.
	Assertions []Assertion `yaml:"assertions,omitempty"`

	// BuildID names the bundle. Empty selects testutil.DefaultBuildID.
	BuildID string `yaml:"build_id,omitempty"`
}

// ConfigSpec is the YAML form of ir.Config.
type ConfigSpec struct {
	Name         string     `yaml:"name"`
	Variant      string     `yaml:"variant"`
	NonCacheable *RangeSpec `yaml:"non_cacheable,omitempty"`
}

// RangeSpec is an inclusive address range.
type RangeSpec struct {
	Low  uint64 `yaml:"low"`
	High uint64 `yaml:"high"`
}

// Overrides adjusts the interrupt controller and timer descriptors. Unset
// fields keep their defaults.
type Overrides struct {
	Interrupt *InterruptOverride `yaml:"interrupt,omitempty"`
	Timer     *TimerOverride     `yaml:"timer,omitempty"`
}

// InterruptOverride adjusts the interrupt controller.
type InterruptOverride struct {
	Sources *int    `yaml:"sources,omitempty"`
	Targets *int    `yaml:"targets,omitempty"`
	Base    *uint64 `yaml:"base,omitempty"`
	Size    *uint64 `yaml:"size,omitempty"`
}

// TimerOverride adjusts the timer.
type TimerOverride struct {
	TimeWidth *int    `yaml:"time_width,omitempty"`
	Base      *uint64 `yaml:"base,omitempty"`
	Size      *uint64 `yaml:"size,omitempty"`
}

// Step is one integrator operation.
type Step struct {
	Op   string  `yaml:"op"`
	Addr *uint64 `yaml:"addr,omitempty"`
	// Expect is "ok" (the default) or the error code the step must fail with.
	Expect string `yaml:"expect,omitempty"`
}

// Step operations.
const (
	OpNew             = "new"
	OpSetResetAddress = "set_reset_address"
	OpBuild           = "build"
)

// OutcomeOK is the outcome of a step that succeeded.
const OutcomeOK = "ok"

// Assertion checks one property of the built bundle.
type Assertion struct {
	Type string `yaml:"type"`

	// region, no_region
	Name string  `yaml:"name,omitempty"`
	Base *uint64 `yaml:"base,omitempty"`
	Size *uint64 `yaml:"size,omitempty"`

	// param
	Instance string `yaml:"instance,omitempty"`
	Key      string `yaml:"key,omitempty"`
	Value    *int64 `yaml:"value,omitempty"`
	Signal   string `yaml:"signal,omitempty"`

	// assign
	Dst string `yaml:"dst,omitempty"`
	Src string `yaml:"src,omitempty"`

	// masters
	Names []string `yaml:"names,omitempty"`
}

// Assertion types.
const (
	AssertRegion   = "region"
	AssertNoRegion = "no_region"
	AssertParam    = "param"
	AssertAssign   = "assign"
	AssertMasters  = "masters"
)

var knownCodes = map[string]bool{
	string(ir.ErrCodeInvalidVariant):         true,
	string(ir.ErrCodeDuplicateConfiguration): true,
	string(ir.ErrCodeMissingConfiguration):   true,
	string(ir.ErrCodeTopologyMismatch):       true,
	string(ir.ErrCodeRegionOverlap):          true,
}

// LoadScenario reads and validates a scenario file. Unknown fields are
// rejected so typos surface as load errors rather than silently ignored keys.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario decodes and validates a scenario document.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.Config.Name == "" {
		return fmt.Errorf("config.name is required")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}
	if nc := s.Config.NonCacheable; nc != nil && nc.Low > nc.High {
		return fmt.Errorf("config.non_cacheable: low 0x%x is above high 0x%x", nc.Low, nc.High)
	}

	for i, step := range s.Steps {
		switch step.Op {
		case OpNew:
			if i != 0 {
				return fmt.Errorf("steps[%d]: new must be the first step", i)
			}
		case OpSetResetAddress:
			if step.Addr == nil {
				return fmt.Errorf("steps[%d]: addr is required for set_reset_address", i)
			}
		case OpBuild:
		case "":
			return fmt.Errorf("steps[%d]: op is required", i)
		default:
			return fmt.Errorf("steps[%d]: unknown op %q", i, step.Op)
		}
		if i == 0 && step.Op != OpNew {
			return fmt.Errorf("steps[0]: first step must be new, got %q", step.Op)
		}
		if step.Expect != "" && step.Expect != OutcomeOK && !knownCodes[step.Expect] {
			return fmt.Errorf("steps[%d]: unknown expected code %q", i, step.Expect)
		}
	}

	for i := range s.Assertions {
		if err := validateAssertion(i, &s.Assertions[i]); err != nil {
			return err
		}
	}
	return nil
}

func validateAssertion(index int, a *Assertion) error {
	switch a.Type {
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	case AssertRegion:
		if a.Name == "" {
			return fmt.Errorf("assertions[%d]: name is required for region", index)
		}
		if a.Base == nil && a.Size == nil {
			return fmt.Errorf("assertions[%d]: base or size is required for region", index)
		}
	case AssertNoRegion:
		if a.Name == "" {
			return fmt.Errorf("assertions[%d]: name is required for no_region", index)
		}
	case AssertParam:
		if a.Instance == "" || a.Key == "" {
			return fmt.Errorf("assertions[%d]: instance and key are required for param", index)
		}
		if (a.Value == nil) == (a.Signal == "") {
			return fmt.Errorf("assertions[%d]: exactly one of value or signal is required for param", index)
		}
	case AssertAssign:
		if a.Dst == "" || a.Src == "" {
			return fmt.Errorf("assertions[%d]: dst and src are required for assign", index)
		}
	case AssertMasters:
		if len(a.Names) == 0 {
			return fmt.Errorf("assertions[%d]: names list is required for masters", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}

// IRConfig converts the scenario config to the model form.
func (c ConfigSpec) IRConfig() ir.Config {
	cfg := ir.Config{Name: c.Name, Variant: ir.Variant(c.Variant)}
	if c.NonCacheable != nil {
		cfg.NonCacheable = &ir.AddressRange{Low: c.NonCacheable.Low, High: c.NonCacheable.High}
	}
	return cfg
}
