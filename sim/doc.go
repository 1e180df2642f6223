// Package sim provides the core data model shared across the dice-loadout
// optimization engine.
//
// # Reading Guide
//
// Start with these two files to understand the domain:
//   - catalog.go: DieType, Catalog, loading and validation of the probability table
//   - facecount.go: FaceCount, the packed roll representation used as the scoring
//     engine's hot-path lookup key
//
// # Architecture
//
// sim defines the shared types; the evaluation pipeline lives in sub-packages:
//   - sim/scoring: precomputed scoring lattice over packed FaceCount keys
//   - sim/policy: exact bust/EV estimation and risk-profile tables
//   - sim/metrics: dynamic-programming fold of a turn-score distribution
//   - sim/simulate: seeded per-turn Monte Carlo state machine
//   - sim/search: bounded multiset enumeration and weighted sampling
//   - sim/eval: single/batch loadout evaluation with cancellation
//   - sim/cache: content-addressed, write-behind result store
//   - sim/keybuilder: deterministic cache-key fingerprinting
//   - sim/workflow: staged pilot-to-full pruning orchestrator
//   - sim/rank: objective-specific rank keys and UI-facing grouping
//   - sim/settings: optimization settings, efficiency-plan validation
//   - sim/rngfab: deterministic seed derivation and the perf-sink capability
//
// Sub-packages depend on the sim root package and on one another; the root
// package itself imports sim/metrics for TurnMetrics. None of them import
// sim/workflow, which is the top of the dependency graph.
package sim
