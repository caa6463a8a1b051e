// sim/simulator.go
package sim

import (
	"container/heap"
	"fmt"
	"math"

	"github.com/sirupsen/logrus"
)

// Simulator is the core object that holds the virtual clock, the pending
// events and the live processes of one simulation run.
//
// Everything runs on a single logical thread of control: the event loop fires
// one event at a time and a process only executes while the loop is blocked
// waiting for it to suspend. No locking is needed around simulation state.
type Simulator struct {
	clock float64
	queue EventQueue
	// nextSeq is the per-simulator tie-breaker counter, so that separate
	// simulators never influence each other's ordering.
	nextSeq uint64
	fired   uint64

	procs   []*Process
	current *Process

	failure  error
	closing  bool
	finished bool
}

// NewSimulator creates a simulator with its clock at zero and no events.
func NewSimulator() *Simulator {
	return &Simulator{
		queue: make(EventQueue, 0),
	}
}

// Now returns the current virtual time.
func (s *Simulator) Now() float64 {
	return s.clock
}

// Pending returns the number of events waiting to fire.
func (s *Simulator) Pending() int {
	return s.queue.Len()
}

// Fired returns the number of events fired so far.
func (s *Simulator) Fired() uint64 {
	return s.fired
}

// Schedule inserts fn to fire at Now()+delay. Firing an event may itself
// schedule further events. A negative or NaN delay would move time backwards
// and is a programming error.
func (s *Simulator) Schedule(delay float64, fn func()) {
	if delay < 0 || math.IsNaN(delay) {
		panic(fmt.Sprintf("sim: scheduling an event with invalid delay %v at t=%.4f", delay, s.clock))
	}
	if fn == nil {
		panic("sim: Schedule: fn must not be nil")
	}
	if s.closing {
		// Releases performed while processes are torn down may try to wake
		// waiters; the run is over, so these are dropped.
		return
	}
	s.nextSeq++
	heap.Push(&s.queue, &Event{Time: s.clock + delay, Seq: s.nextSeq, fire: fn})
}

// RunUntil fires events in (time, seq) order while the earliest pending event
// is due at or before horizon. When the queue drains or the next event lies
// beyond the horizon, the clock is advanced to horizon and the run ends.
//
// An error returned by a process body, or a resource misuse, aborts the run;
// the clock then stays at the instant of the failure. Either way every
// process still alive is torn down before RunUntil returns, so scoped
// resource holds are released and no goroutine outlives the run.
func (s *Simulator) RunUntil(horizon float64) error {
	if s.finished {
		return fmt.Errorf("sim: simulator already ran until t=%.4f", s.clock)
	}
	if horizon < s.clock || math.IsNaN(horizon) {
		return fmt.Errorf("sim: horizon %v is before current time %.4f", horizon, s.clock)
	}
	s.finished = true

	for s.queue.Len() > 0 {
		next := s.queue.Peek()
		if next.Time > horizon {
			break
		}
		heap.Pop(&s.queue)

		if next.Time < s.clock {
			panic(fmt.Sprintf("sim: clock went backwards: %.4f < %.4f", next.Time, s.clock))
		}
		s.clock = next.Time
		s.fired++
		logrus.Tracef("[t=%.4f] firing event #%d", s.clock, next.Seq)
		next.fire()

		if s.failure != nil {
			break
		}
	}

	if s.failure == nil {
		s.clock = horizon
	}
	s.teardown()
	logrus.Debugf("[t=%.4f] Simulation ended after %d events", s.clock, s.fired)
	return s.failure
}

// fail records the first fatal error of the run. The event loop stops after
// the currently firing event.
func (s *Simulator) fail(err error) {
	if s.closing || s.failure != nil {
		return
	}
	s.failure = err
}

// teardown stops every live process in start order. Each one unwinds on its
// own goroutine, running its deferred releases, before the next is stopped.
func (s *Simulator) teardown() {
	s.closing = true
	for _, p := range s.procs {
		if p.done {
			continue
		}
		s.current = p
		p.resume <- false
		<-p.yield
		s.current = nil
	}
	s.procs = nil
	s.queue = nil
}

func (s *Simulator) processExited(p *Process) {
	for i, live := range s.procs {
		if live == p {
			s.procs = append(s.procs[:i], s.procs[i+1:]...)
			break
		}
	}
	if p.panicked != nil {
		panic(fmt.Sprintf("sim: process %q panicked: %v\n%s", p.name, p.panicked, p.stack))
	}
	if p.err != nil {
		s.fail(fmt.Errorf("process %s: %w", p.name, p.err))
	}
}
