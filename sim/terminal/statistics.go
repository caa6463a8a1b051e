package terminal

import (
	"fmt"
	"io"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/terminal-sim/terminal-sim/sim"
)

// Statistics is the collector updated while the run is in progress.
// Berth waits are recorded once per vessel, at the moment it obtains a berth;
// crane and truck waits are kept on the vessels and never enter the average.
type Statistics struct {
	VesselsArrived   int
	VesselsProcessed int // Vessels that obtained a berth
	VesselsDeparted  int
	TotalBerthWait   float64

	berthWaits []float64
}

func (s *Statistics) recordBerth(wait float64) {
	s.VesselsProcessed++
	s.TotalBerthWait += wait
	s.berthWaits = append(s.berthWaits, wait)
}

// FinalStatistics is the read-only result of a completed run.
type FinalStatistics struct {
	RunID   string
	Horizon float64

	VesselsArrived    int
	VesselsProcessed  int
	VesselsDeparted   int
	VesselsInTerminal int // Arrived but not departed when the horizon was reached

	// HasData is false when no vessel berthed; the berth-wait figures are
	// then zero and must not be reported as averages.
	HasData          bool
	AverageBerthWait float64
	BerthWaitStdDev  float64
	BerthWaitP50     float64
	BerthWaitP95     float64
	BerthWaitMax     float64

	Makespan    float64 // Time of the last departure, 0 if none
	Pools       []sim.PoolStats
	EventsFired uint64
	Vessels     []Vessel
}

func (t *Terminal) finalStatistics(horizon float64) FinalStatistics {
	st := t.stats
	final := FinalStatistics{
		RunID:             t.runID,
		Horizon:           horizon,
		VesselsArrived:    st.VesselsArrived,
		VesselsProcessed:  st.VesselsProcessed,
		VesselsDeparted:   st.VesselsDeparted,
		VesselsInTerminal: st.VesselsArrived - st.VesselsDeparted,
		Pools:             []sim.PoolStats{t.berths.Stats(), t.cranes.Stats(), t.trucks.Stats()},
		EventsFired:       t.sim.Fired(),
	}
	for _, v := range t.vessels {
		final.Vessels = append(final.Vessels, *v)
		if v.Departed {
			final.Makespan = max(final.Makespan, v.DepartureTime)
		}
	}

	if st.VesselsProcessed == 0 {
		return final
	}
	final.HasData = true
	final.AverageBerthWait = st.TotalBerthWait / float64(st.VesselsProcessed)

	waits := append([]float64(nil), st.berthWaits...)
	sort.Float64s(waits)
	if len(waits) > 1 {
		final.BerthWaitStdDev = stat.StdDev(waits, nil)
	}
	final.BerthWaitP50 = stat.Quantile(0.5, stat.Empirical, waits, nil)
	final.BerthWaitP95 = stat.Quantile(0.95, stat.Empirical, waits, nil)
	final.BerthWaitMax = floats.Max(waits)
	return final
}

// Print writes the end-of-run report to w.
func (f FinalStatistics) Print(w io.Writer) {
	fmt.Fprintln(w, "=== Simulation Metrics ===")
	fmt.Fprintf(w, "Run ID               : %s\n", f.RunID)
	fmt.Fprintf(w, "Vessels Arrived      : %d\n", f.VesselsArrived)
	if !f.HasData {
		fmt.Fprintln(w, "No vessels processed.")
		return
	}
	fmt.Fprintf(w, "Vessels Processed    : %d\n", f.VesselsProcessed)
	fmt.Fprintf(w, "Vessels Departed     : %d\n", f.VesselsDeparted)
	fmt.Fprintf(w, "Vessels In Terminal  : %d\n", f.VesselsInTerminal)
	fmt.Fprintf(w, "Average Berth Wait   : %.2f minutes\n", f.AverageBerthWait)
	fmt.Fprintf(w, "Berth Wait StdDev    : %.2f minutes\n", f.BerthWaitStdDev)
	fmt.Fprintf(w, "Berth Wait P50 / P95 : %.2f / %.2f minutes\n", f.BerthWaitP50, f.BerthWaitP95)
	fmt.Fprintf(w, "Berth Wait Max       : %.2f minutes\n", f.BerthWaitMax)
	fmt.Fprintf(w, "Makespan             : %.2f minutes\n", f.Makespan)
	for _, p := range f.Pools {
		fmt.Fprintf(w, "Pool %-15s : utilization %.2f, peak %d/%d, max queue %d\n",
			p.Name, p.Utilization(f.Horizon), p.PeakInUse, p.Capacity, p.MaxWaiting)
	}
}
