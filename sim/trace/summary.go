package trace

import (
	"fmt"
	"io"
	"sort"
)

// TraceSummary aggregates statistics from a SimulationTrace.
type TraceSummary struct {
	TotalEvents int
	ByKind      map[EventKind]int
	PerVessel   map[int]int // vessel ID → count of records
	FirstTime   float64
	LastTime    float64
}

// Summarize computes aggregate statistics from a SimulationTrace.
// Safe for nil or empty traces (returns zero-value fields).
func Summarize(st *SimulationTrace) *TraceSummary {
	summary := &TraceSummary{
		ByKind:    make(map[EventKind]int),
		PerVessel: make(map[int]int),
	}
	if st == nil || len(st.Records) == 0 {
		return summary
	}

	summary.TotalEvents = len(st.Records)
	summary.FirstTime = st.Records[0].Time
	for _, rec := range st.Records {
		summary.ByKind[rec.Kind]++
		summary.PerVessel[rec.Vessel]++
		summary.FirstTime = min(summary.FirstTime, rec.Time)
		summary.LastTime = max(summary.LastTime, rec.Time)
	}
	return summary
}

// Print writes the summary to w: totals, then counts per kind in lifecycle
// order, then counts per vessel in ID order. Kinds with no records are omitted.
func (ts *TraceSummary) Print(w io.Writer) {
	fmt.Fprintln(w, "=== Trace Summary ===")
	fmt.Fprintf(w, "Trace Events         : %d\n", ts.TotalEvents)
	if ts.TotalEvents == 0 {
		return
	}
	fmt.Fprintf(w, "Trace Window         : %.2f .. %.2f minutes\n", ts.FirstTime, ts.LastTime)
	for _, kind := range Kinds {
		if n := ts.ByKind[kind]; n > 0 {
			fmt.Fprintf(w, "Kind %-15s : %d\n", kind, n)
		}
	}
	ids := make([]int, 0, len(ts.PerVessel))
	for id := range ts.PerVessel {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	for _, id := range ids {
		fmt.Fprintf(w, "Vessel %-13d : %d\n", id, ts.PerVessel[id])
	}
}
