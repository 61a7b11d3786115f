package testutil

import "fmt"

// DefaultBuildID is returned by a FixedIDGenerator created with an empty ID.
const DefaultBuildID = "test-build-default"

// FixedIDGenerator names every bundle with the same ID, so golden snapshots
// of a build are byte-identical across runs.
//
// Thread-safety: FixedIDGenerator is immutable and safe for concurrent use.
type FixedIDGenerator struct {
	id string
}

// NewFixedIDGenerator returns a generator for id. Scenarios set it with
//
//	build_id: "build-0001"
func NewFixedIDGenerator(id string) *FixedIDGenerator {
	if id == "" {
		id = DefaultBuildID
	}
	return &FixedIDGenerator{id: id}
}

// Generate returns the fixed ID.
func (g *FixedIDGenerator) Generate() string {
	return g.id
}

// SequentialIDGenerator hands out prefix-0001, prefix-0002 and so on, for
// tests that record several builds in one ledger.
type SequentialIDGenerator struct {
	prefix string
	clock  *DeterministicClock
}

// NewSequentialIDGenerator returns a generator counting from 1.
func NewSequentialIDGenerator(prefix string) *SequentialIDGenerator {
	return &SequentialIDGenerator{prefix: prefix, clock: NewDeterministicClock()}
}

// Generate returns the next ID in sequence.
func (g *SequentialIDGenerator) Generate() string {
	return fmt.Sprintf("%s-%04d", g.prefix, g.clock.Next())
}

// Reset restarts the sequence at 1.
func (g *SequentialIDGenerator) Reset() {
	g.clock.Reset()
}
