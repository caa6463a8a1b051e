// Package terminal models a container terminal: vessels arrive, wait for a
// berth, and have their containers lifted one at a time by a shared crane
// pool and hauled away by a shared truck pool.
package terminal

import (
	"errors"
	"fmt"
	"math"
	"math/rand"

	"github.com/rs/xid"
	"github.com/sirupsen/logrus"

	"github.com/terminal-sim/terminal-sim/sim"
	"github.com/terminal-sim/terminal-sim/sim/arrival"
	"github.com/terminal-sim/terminal-sim/sim/trace"
)

// Terminal is the composition root of one simulation run. It owns the
// simulator, the berth, crane and truck pools, every vessel created during
// the run and the statistics collected from them.
type Terminal struct {
	cfg   Config
	runID string

	sim    *sim.Simulator
	berths *sim.Pool
	cranes *sim.Pool
	trucks *sim.Pool

	sampler arrival.Sampler
	rng     *rand.Rand
	sink    trace.Sink
	seq     uint64

	vessels []*Vessel
	stats   Statistics
	ran     bool
}

// New validates cfg and builds a terminal ready to Run. Records of every
// lifecycle notification are sent to sink; a nil sink discards them.
func New(cfg Config, sink trace.Sink) (*Terminal, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if sink == nil {
		sink = trace.Discard
	}

	s := sim.NewSimulator()
	t := &Terminal{
		cfg:   cfg,
		runID: xid.New().String(),
		sim:   s,
		sink:  sink,
	}

	var err error
	if t.berths, err = sim.NewPool(s, "berths", cfg.Berths); err != nil {
		return nil, err
	}
	if t.cranes, err = sim.NewPool(s, "cranes", cfg.Cranes); err != nil {
		return nil, err
	}
	if t.trucks, err = sim.NewPool(s, "trucks", cfg.Trucks); err != nil {
		return nil, err
	}

	t.sampler, err = arrival.New(cfg.Arrival, cfg.MeanInterArrival)
	if err != nil {
		return nil, &sim.ConfigurationError{Field: "arrival", Reason: err.Error()}
	}
	rng := sim.NewPartitionedRNG(sim.NewSimulationKey(cfg.Seed))
	t.rng = rng.ForSubsystem(sim.SubsystemArrival)
	return t, nil
}

// RunID returns the identifier stamped on every record of this run.
func (t *Terminal) RunID() string { return t.runID }

// Config returns the configuration the terminal was built with.
func (t *Terminal) Config() Config { return t.cfg }

// Berths returns the berth pool.
func (t *Terminal) Berths() *sim.Pool { return t.berths }

// Cranes returns the crane pool.
func (t *Terminal) Cranes() *sim.Pool { return t.cranes }

// Trucks returns the truck pool.
func (t *Terminal) Trucks() *sim.Pool { return t.trucks }

// Vessels returns every vessel created so far, in arrival order.
func (t *Terminal) Vessels() []*Vessel { return t.vessels }

// Run starts the arrival generator at time zero and drives the simulation
// until horizon. A terminal runs at most once.
func (t *Terminal) Run(horizon float64) (FinalStatistics, error) {
	if t.ran {
		return FinalStatistics{}, errors.New("terminal: Run called more than once")
	}
	if horizon < 0 || math.IsNaN(horizon) || math.IsInf(horizon, 0) {
		return FinalStatistics{}, &sim.ConfigurationError{
			Field:  "horizon",
			Reason: fmt.Sprintf("must be finite and >= 0, got %v", horizon),
		}
	}
	t.ran = true

	logrus.Debugf("Starting terminal run %s until t=%.2f (berths=%d cranes=%d trucks=%d)",
		t.runID, horizon, t.cfg.Berths, t.cfg.Cranes, t.cfg.Trucks)
	t.sim.Start("arrivals", t.generateArrivals)
	if err := t.sim.RunUntil(horizon); err != nil {
		return FinalStatistics{}, fmt.Errorf("terminal run %s: %w", t.runID, err)
	}

	final := t.finalStatistics(horizon)
	if final.VesselsInTerminal > 0 {
		logrus.Warnf("Horizon t=%.2f reached with %d vessel(s) still in the terminal", horizon, final.VesselsInTerminal)
	}
	return final, nil
}

// generateArrivals creates vessels at sampled intervals until the sampler is
// exhausted, the vessel cap is hit, or the horizon cuts it off.
func (t *Terminal) generateArrivals(p *sim.Process) error {
	for t.cfg.MaxVessels == 0 || len(t.vessels) < t.cfg.MaxVessels {
		gap, ok := t.sampler.SampleIAT(t.rng)
		if !ok {
			logrus.Debugf("[t=%.2f] arrival schedule exhausted after %d vessels", p.Now(), len(t.vessels))
			return nil
		}
		p.Wait(gap)

		v := newVessel(len(t.vessels)+1, p.Now(), t.cfg.ContainersPerVessel)
		t.vessels = append(t.vessels, v)
		t.stats.VesselsArrived++
		p.Sim().Start(v.Name, t.vesselLifecycle(v))
	}
	logrus.Debugf("[t=%.2f] vessel cap %d reached", p.Now(), t.cfg.MaxVessels)
	return nil
}

// vesselLifecycle returns the process body of v: berth, then every container
// through a crane and a truck in turn, then depart.
func (t *Terminal) vesselLifecycle(v *Vessel) func(p *sim.Process) error {
	return func(p *sim.Process) error {
		t.emit(p.Now(), trace.KindArrive, v, 0, fmt.Sprintf("%s arrives.", v.Name))
		v.State = StateAwaitingBerth

		return t.berths.Use(p, func() error {
			v.BerthTime = p.Now()
			v.Berthed = true
			v.State = StateBerthed
			t.stats.recordBerth(v.BerthWait())
			t.emit(p.Now(), trace.KindBerth, v, 0,
				fmt.Sprintf("%s berths. (Waited %.2f minutes)", v.Name, v.BerthWait()))

			for i := 1; i <= v.ContainersTotal; i++ {
				if err := t.handleContainer(p, v, i); err != nil {
					return err
				}
			}

			v.DepartureTime = p.Now()
			v.Departed = true
			v.State = StateDeparted
			t.stats.VesselsDeparted++
			t.emit(p.Now(), trace.KindDepart, v, 0, fmt.Sprintf("%s departs.", v.Name))
			return nil
		})
	}
}

// handleContainer lifts container i off v with a crane, gives the crane
// back, then hauls the container away with a truck.
func (t *Terminal) handleContainer(p *sim.Process, v *Vessel, i int) error {
	requested := p.Now()
	v.State = StateAwaitingCrane
	err := t.cranes.Use(p, func() error {
		start := p.Now()
		v.CraneWait += start - requested
		v.State = StateLifting
		t.emit(start, trace.KindCraneStart, v, i,
			fmt.Sprintf("Crane starts lifting container %d from %s.", i, v.Name))
		p.Wait(t.cfg.CraneServiceTime)
		v.CraneHold += p.Now() - start
		t.emit(p.Now(), trace.KindCraneDone, v, i,
			fmt.Sprintf("Crane finishes lifting container %d from %s.", i, v.Name))
		return nil
	})
	if err != nil {
		return err
	}

	requested = p.Now()
	v.State = StateAwaitingTruck
	return t.trucks.Use(p, func() error {
		start := p.Now()
		v.TruckWait += start - requested
		v.State = StateHauling
		t.emit(start, trace.KindTruckStart, v, i,
			fmt.Sprintf("Truck starts transporting container %d from %s.", i, v.Name))
		p.Wait(t.cfg.TruckTripTime)
		v.TruckHold += p.Now() - start
		v.ContainersRemaining--
		t.emit(p.Now(), trace.KindTruckReturn, v, i,
			fmt.Sprintf("Truck returns after dropping container %d from %s.", i, v.Name))
		return nil
	})
}

func (t *Terminal) emit(now float64, kind trace.EventKind, v *Vessel, container int, msg string) {
	t.seq++
	t.sink.Record(trace.EventRecord{
		RunID:     t.runID,
		Seq:       t.seq,
		Time:      now,
		Kind:      kind,
		Vessel:    v.ID,
		Container: container,
		Message:   msg,
	})
}
