// Package store provides SQLite-backed durable storage for the build ledger.
//
// The ledger is append-only:
//   - Builds: one row per emitted bundle, with the bundle JSON, its content
//     hash and the hash of the config it was built from
//   - Regions: the address map of each build, for history queries without
//     decoding bundles
//
// # Ordering
//
// All ordering uses seq INTEGER (logical clock), never timestamps. Listing
// queries order by seq ASC, id ASC COLLATE BINARY so results are identical
// across runs.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//
// Content hashes are computed in internal/ir/hash.go using RFC 8785
// canonical JSON and SHA-256 with domain separation.
package store
