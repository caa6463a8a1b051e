package testutil

import (
	"testing"

	"github.com/terminal-sim/terminal-sim/sim"
	"github.com/terminal-sim/terminal-sim/sim/trace"
)

// PoolWatcher observes pools through OnChange and remembers every snapshot
// that broke the occupancy invariants.
type PoolWatcher struct {
	Violations []sim.PoolStats
	Changes    int
}

// WatchPools attaches a PoolWatcher to each pool. It must be called before
// the simulation runs.
func WatchPools(pools ...*sim.Pool) *PoolWatcher {
	w := &PoolWatcher{}
	for _, p := range pools {
		p.OnChange(func(st sim.PoolStats) {
			w.Changes++
			if st.InUse < 0 || st.InUse > st.Capacity || (st.Waiting > 0 && st.InUse < st.Capacity) {
				w.Violations = append(w.Violations, st)
			}
		})
	}
	return w
}

// AssertHeld fails the test if any observed snapshot broke an invariant.
func (w *PoolWatcher) AssertHeld(t *testing.T) {
	t.Helper()
	if w.Changes == 0 {
		t.Error("pool watcher saw no occupancy change")
	}
	for _, st := range w.Violations {
		t.Errorf("pool %s: in_use=%d waiting=%d capacity=%d", st.Name, st.InUse, st.Waiting, st.Capacity)
	}
}

// AssertNonDecreasingTime fails the test if record times ever move backwards.
func AssertNonDecreasingTime(t *testing.T, records []trace.EventRecord) {
	t.Helper()
	for i := 1; i < len(records); i++ {
		if records[i].Time < records[i-1].Time {
			t.Fatalf("record %d at t=%v precedes record %d at t=%v",
				records[i].Seq, records[i].Time, records[i-1].Seq, records[i-1].Time)
		}
	}
}

// WithoutRunID returns a copy of records with RunID cleared, for comparing
// two runs of the same configuration.
func WithoutRunID(records []trace.EventRecord) []trace.EventRecord {
	out := make([]trace.EventRecord, len(records))
	for i, rec := range records {
		rec.RunID = ""
		out[i] = rec
	}
	return out
}
