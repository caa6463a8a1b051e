// Package trace provides event-record types and in-memory recording for
// terminal simulation runs.
// This package has no dependencies on sim/ or sim/terminal/; it stores pure data types.
package trace

// EventKind names a vessel lifecycle notification.
type EventKind string

const (
	KindArrive      EventKind = "arrive"
	KindBerth       EventKind = "berth"
	KindCraneStart  EventKind = "crane_start"
	KindCraneDone   EventKind = "crane_done"
	KindTruckStart  EventKind = "truck_start"
	KindTruckReturn EventKind = "truck_return"
	KindDepart      EventKind = "depart"
)

// Kinds lists every EventKind in lifecycle order.
var Kinds = []EventKind{KindArrive, KindBerth, KindCraneStart, KindCraneDone, KindTruckStart, KindTruckReturn, KindDepart}

// EventRecord is one timestamped notification emitted by the terminal.
type EventRecord struct {
	RunID     string    `json:"run_id"`
	Seq       uint64    `json:"seq"`
	Time      float64   `json:"time"`
	Kind      EventKind `json:"kind"`
	Vessel    int       `json:"vessel"`
	Container int       `json:"container,omitempty"` // 1-based; 0 for vessel-level events
	Message   string    `json:"message"`
}

// Sink receives event records in emission order. Implementations must not
// block the simulation; writers buffer and report I/O errors on Close.
type Sink interface {
	Record(rec EventRecord)
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(rec EventRecord)

// Record calls f(rec).
func (f SinkFunc) Record(rec EventRecord) { f(rec) }

// Discard is a Sink that drops every record.
var Discard Sink = SinkFunc(func(EventRecord) {})
