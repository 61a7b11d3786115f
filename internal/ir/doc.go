// Package ir provides the shared data model for socgen: variants, bus ports,
// address regions, instance parameters and the emitted bundle.
//
// This package contains types only, plus their canonical encoding. All other
// internal packages import ir; ir imports nothing internal.
//
// Key design constraints:
//   - NO float types anywhere - addresses, widths and sizes are integers
//   - All JSON tags use snake_case
//   - Bundle identity is a content hash over canonical JSON, never wall time
package ir
