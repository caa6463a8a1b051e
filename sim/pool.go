package sim

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// Pool is a named pool of identical, interchangeable units.
//
// Units are granted in strict arrival order. When a unit is released while
// processes are waiting, it passes straight to the head of the queue: the
// in-use count never drops, so no third party can observe the unit as free
// in between.
//
// Invariants: 0 <= InUse() <= Capacity(), and Waiting() > 0 only while
// InUse() == Capacity().
type Pool struct {
	sim      *Simulator
	name     string
	capacity int
	inUse    int
	waiters  WaitQueue

	nextLease  uint64
	lastChange float64
	stats      PoolStats
	observers  []func(PoolStats)
}

// Lease is the proof of one granted unit. It must be released exactly once.
type Lease struct {
	pool      *Pool
	id        uint64
	holder    *Process
	granted   bool
	released  bool
	grantedAt float64
}

// GrantedAt returns the virtual time at which the unit was granted.
func (l *Lease) GrantedAt() float64 {
	return l.grantedAt
}

// PoolStats is a snapshot of a pool's occupancy and counters.
type PoolStats struct {
	Name         string
	Capacity     int
	InUse        int
	Waiting      int
	PeakInUse    int     // Max number of simultaneously held units
	MaxWaiting   int     // Longest observed wait queue
	Grants       uint64  // Units granted, immediately or after queueing
	QueuedGrants uint64  // Grants that had to wait
	Releases     uint64  // Units given back
	TotalWait    float64 // Sum of queueing delay across queued grants
	BusyTime     float64 // Integral of InUse over virtual time
}

// Utilization returns BusyTime / (Capacity * elapsed), or 0 when elapsed is 0.
func (ps PoolStats) Utilization(elapsed float64) float64 {
	if elapsed <= 0 || ps.Capacity == 0 {
		return 0
	}
	return ps.BusyTime / (float64(ps.Capacity) * elapsed)
}

// NewPool creates a pool of capacity units bound to s.
func NewPool(s *Simulator, name string, capacity int) (*Pool, error) {
	if capacity <= 0 {
		return nil, &ConfigurationError{
			Field:  name,
			Reason: fmt.Sprintf("capacity must be > 0, got %d", capacity),
		}
	}
	return &Pool{
		sim:        s,
		name:       name,
		capacity:   capacity,
		lastChange: s.Now(),
		stats:      PoolStats{Name: name, Capacity: capacity},
	}, nil
}

// Name returns the pool name.
func (pl *Pool) Name() string { return pl.name }

// Capacity returns the number of units in the pool.
func (pl *Pool) Capacity() int { return pl.capacity }

// InUse returns the number of units currently held.
func (pl *Pool) InUse() int { return pl.inUse }

// Waiting returns the number of processes queued for a unit.
func (pl *Pool) Waiting() int { return pl.waiters.Len() }

// OnChange registers fn to be called with a fresh snapshot after every grant
// and release.
func (pl *Pool) OnChange(fn func(PoolStats)) {
	pl.observers = append(pl.observers, fn)
}

// Stats returns a snapshot with BusyTime integrated up to the current time.
func (pl *Pool) Stats() PoolStats {
	st := pl.stats
	st.InUse = pl.inUse
	st.Waiting = pl.waiters.Len()
	st.BusyTime += float64(pl.inUse) * (pl.sim.Now() - pl.lastChange)
	return st
}

// Acquire obtains one unit for p. If a unit is free it is granted at once and
// p keeps running; otherwise p joins the tail of the wait queue and is
// suspended until a Release hands it a unit.
func (pl *Pool) Acquire(p *Process) *Lease {
	p.mustBeCurrent("Acquire")
	pl.nextLease++
	lease := &Lease{pool: pl, id: pl.nextLease, holder: p}

	if pl.inUse < pl.capacity {
		pl.account()
		pl.inUse++
		pl.grant(lease)
		return lease
	}

	w := &waiter{proc: p, lease: lease, enqueuedAt: pl.sim.Now()}
	pl.waiters.Enqueue(w)
	pl.stats.MaxWaiting = max(pl.stats.MaxWaiting, pl.waiters.Len())
	logrus.Tracef("[t=%.4f] %s queued on %s %s", pl.sim.Now(), p.name, pl.name, pl.waiters.String())
	defer func() {
		if !pl.sim.closing {
			return
		}
		// The run ended while p was queued, or after a Release handed it a
		// unit but before p could resume to take ownership.
		if !lease.granted {
			pl.waiters.Remove(w)
		} else if !lease.released {
			_ = pl.Release(lease)
		}
	}()
	p.suspend()
	return lease
}

// Release gives back the unit held by lease. If processes are waiting, the
// unit passes directly to the head of the queue, which resumes at the current
// instant. Releasing a lease twice, or one from another pool, is a
// ResourceMisuseError and aborts the run.
func (pl *Pool) Release(lease *Lease) error {
	if err := pl.checkRelease(lease); err != nil {
		pl.sim.fail(err)
		return err
	}
	lease.released = true
	pl.stats.Releases++

	if pl.sim.closing {
		// Waiters are being torn down too; no hand-off and no observers.
		pl.account()
		pl.inUse--
		return nil
	}

	if next := pl.waiters.Dequeue(); next != nil {
		pl.stats.QueuedGrants++
		pl.stats.TotalWait += pl.sim.Now() - next.enqueuedAt
		pl.grant(next.lease)
		pl.sim.Schedule(0, next.proc.step)
		return nil
	}

	pl.account()
	pl.inUse--
	pl.notify()
	return nil
}

// Use acquires a unit, runs body and releases the unit on every exit path,
// including the unwinding of a process stopped at the end of the run.
func (pl *Pool) Use(p *Process, body func() error) (err error) {
	lease := pl.Acquire(p)
	defer func() {
		if rerr := pl.Release(lease); rerr != nil && err == nil {
			err = rerr
		}
	}()
	return body()
}

func (pl *Pool) checkRelease(lease *Lease) error {
	switch {
	case lease == nil:
		return &ResourceMisuseError{Pool: pl.name, Reason: "release of a nil lease"}
	case lease.pool != pl:
		return &ResourceMisuseError{Pool: pl.name, Reason: fmt.Sprintf("lease #%d was granted by pool %q", lease.id, lease.pool.name)}
	case !lease.granted:
		return &ResourceMisuseError{Pool: pl.name, Reason: fmt.Sprintf("lease #%d released before it was granted", lease.id)}
	case lease.released:
		return &ResourceMisuseError{Pool: pl.name, Reason: fmt.Sprintf("lease #%d released twice", lease.id)}
	case pl.inUse == 0:
		return &ResourceMisuseError{Pool: pl.name, Reason: "release with no unit in use"}
	}
	return nil
}

func (pl *Pool) grant(lease *Lease) {
	lease.granted = true
	lease.grantedAt = pl.sim.Now()
	pl.stats.Grants++
	pl.stats.PeakInUse = max(pl.stats.PeakInUse, pl.inUse)
	pl.notify()
}

// account folds the occupancy since the last change into BusyTime.
func (pl *Pool) account() {
	now := pl.sim.Now()
	pl.stats.BusyTime += float64(pl.inUse) * (now - pl.lastChange)
	pl.lastChange = now
}

func (pl *Pool) notify() {
	if len(pl.observers) == 0 {
		return
	}
	st := pl.Stats()
	for _, fn := range pl.observers {
		fn(st)
	}
}
