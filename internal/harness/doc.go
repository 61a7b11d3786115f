// Package harness runs SoC build scenarios and checks their outcome.
//
// A scenario is a YAML file naming one SoC config, the integrator operations
// to apply to it in order, and assertions on the bundle the build produces:
//
//	name: standard_build
//	description: Standard variant builds with the default fabrics.
//	config:
//	  name: demo
//	  variant: standard
//	steps:
//	  - op: new
//	  - op: set_reset_address
//	    addr: 0x1000
//	  - op: build
//	assertions:
//	  - type: region
//	    name: plic
//	    base: 0xF0C00000
//	    size: 0x400000
//
// Each step records a trace event stamped by a deterministic clock. A step
// may expect a failure by naming its error code:
//
//	  - op: set_reset_address
//	    addr: 0x2000
//	    expect: DUPLICATE_CONFIGURATION
//
// Bundles are named by a fixed ID generator, so the trace and the region
// table snapshot are reproducible and can be compared against golden files.
package harness
