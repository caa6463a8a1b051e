package sim

import (
	"fmt"
	"runtime/debug"
)

// Process is a suspendable sequential unit of simulated activity.
//
// Each process body runs on its own goroutine, but control is handed back and
// forth with the event loop over unbuffered channels so that exactly one of
// them executes at any moment. A process suspends in exactly two places: a
// timer wait (Wait) and a resource acquisition that cannot be granted
// immediately (Pool.Acquire). The event loop resumes it by firing the event
// that was scheduled for it.
type Process struct {
	sim  *Simulator
	name string

	resume chan bool     // loop -> process; false asks the process to unwind
	yield  chan struct{} // process -> loop; the process suspended or exited

	done     bool
	err      error
	panicked any
	stack    []byte
}

// killSignal unwinds a process goroutine when the run ends while the process
// is still suspended.
type killSignal struct{}

// Start creates a process running body and schedules it to begin at the
// current instant, after any events already due now.
func (s *Simulator) Start(name string, body func(p *Process) error) *Process {
	if body == nil {
		panic("sim: Start: body must not be nil")
	}
	p := &Process{
		sim:    s,
		name:   name,
		resume: make(chan bool),
		yield:  make(chan struct{}),
	}
	s.procs = append(s.procs, p)
	go p.run(body)
	s.Schedule(0, p.step)
	return p
}

// Name returns the name the process was started with.
func (p *Process) Name() string {
	return p.name
}

// Sim returns the simulator the process belongs to.
func (p *Process) Sim() *Simulator {
	return p.sim
}

// Now is shorthand for p.Sim().Now().
func (p *Process) Now() float64 {
	return p.sim.clock
}

// Done reports whether the process body has returned.
func (p *Process) Done() bool {
	return p.done
}

// Wait suspends the process for delay units of virtual time.
func (p *Process) Wait(delay float64) {
	p.mustBeCurrent("Wait")
	p.sim.Schedule(delay, p.step)
	p.suspend()
}

func (p *Process) run(body func(p *Process) error) {
	defer func() {
		if r := recover(); r != nil {
			if _, killed := r.(killSignal); !killed {
				p.panicked = r
				p.stack = debug.Stack()
			}
		}
		p.done = true
		p.yield <- struct{}{}
	}()

	if !<-p.resume {
		return
	}
	p.err = body(p)
}

// step runs on the event loop: it hands control to the process and blocks
// until the process suspends again or exits.
func (p *Process) step() {
	s := p.sim
	s.current = p
	p.resume <- true
	<-p.yield
	s.current = nil

	if p.done {
		s.processExited(p)
	}
}

// suspend runs on the process goroutine: it hands control back to the event
// loop and blocks until the next resumption.
func (p *Process) suspend() {
	if p.sim.closing {
		panic(killSignal{})
	}
	p.yield <- struct{}{}
	if !<-p.resume {
		panic(killSignal{})
	}
}

func (p *Process) mustBeCurrent(op string) {
	if p.sim.current != p {
		panic(fmt.Sprintf("sim: %s called on process %q while it is not running", op, p.name))
	}
}
