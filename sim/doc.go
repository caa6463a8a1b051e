// Package sim provides the discrete-event simulation engine used by the
// container terminal model.
//
// # Reading Guide
//
// Start with these files to understand the kernel:
//   - event.go: Event ordering by (time, seq) and the heap-backed EventQueue
//   - simulator.go: the virtual clock, Schedule and the RunUntil event loop
//   - process.go: suspendable processes (Wait) run one at a time on goroutines
//   - pool.go: FIFO resource pools with direct hand-off and scoped Use
//
// # Architecture
//
// The engine knows nothing about vessels; the domain lives in sub-packages:
//   - sim/arrival/: inter-arrival samplers (poisson, constant, gamma, weibull, replay)
//   - sim/terminal/: berths, cranes and trucks, the vessel lifecycle and statistics
//   - sim/trace/: event records, the Sink interface and in-memory traces
//   - sim/eventlog/: logrus, JSON lines and SQLite sinks
//
// # Determinism
//
// A run is fully determined by its configuration and seed: events due at the
// same instant fire in scheduling order, pool waiters are served in request
// order, and every random draw comes from a PartitionedRNG subsystem stream.
package sim
