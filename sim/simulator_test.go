package sim

import (
	"container/heap"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventQueue_OrdersByTimeThenSeq(t *testing.T) {
	// GIVEN events pushed out of order, two of them sharing a due time
	eq := make(EventQueue, 0)
	heap.Push(&eq, &Event{Time: 5, Seq: 1})
	heap.Push(&eq, &Event{Time: 2, Seq: 3})
	heap.Push(&eq, &Event{Time: 2, Seq: 2})
	heap.Push(&eq, &Event{Time: 0, Seq: 4})

	// WHEN they are popped
	var got [][2]float64
	for eq.Len() > 0 {
		ev := heap.Pop(&eq).(*Event)
		got = append(got, [2]float64{ev.Time, float64(ev.Seq)})
	}

	// THEN time is the primary key and seq breaks ties
	assert.Equal(t, [][2]float64{{0, 4}, {2, 2}, {2, 3}, {5, 1}}, got)
	assert.Nil(t, eq.Peek())
}

func TestSimulator_SameTimeEvents_FireInSchedulingOrder(t *testing.T) {
	s := NewSimulator()
	var order []string
	for _, name := range []string{"a", "b", "c"} {
		name := name
		s.Schedule(3, func() { order = append(order, name) })
	}

	require.NoError(t, s.RunUntil(10))

	assert.Equal(t, []string{"a", "b", "c"}, order)
}

func TestSimulator_ReentrantScheduling(t *testing.T) {
	// GIVEN an event that schedules two more while firing
	s := NewSimulator()
	var times []float64
	record := func() { times = append(times, s.Now()) }
	s.Schedule(1, func() {
		record()
		s.Schedule(0, record)
		s.Schedule(2, record)
	})
	s.Schedule(2, record)

	// WHEN the simulation runs
	require.NoError(t, s.RunUntil(10))

	// THEN the nested events are merged into the timeline in order
	assert.Equal(t, []float64{1, 1, 2, 3}, times)
	assert.Equal(t, uint64(4), s.Fired())
}

func TestSimulator_RunUntil_StopsAtHorizon(t *testing.T) {
	// GIVEN events before, at and after the horizon
	s := NewSimulator()
	var fired []float64
	for _, d := range []float64{4, 10, 11} {
		s.Schedule(d, func() { fired = append(fired, s.Now()) })
	}

	// WHEN running until 10
	require.NoError(t, s.RunUntil(10))

	// THEN events due at or before the horizon fire and the clock ends on it
	assert.Equal(t, []float64{4, 10}, fired)
	assert.Equal(t, 10.0, s.Now())
}

func TestSimulator_RunUntil_EmptyQueueAdvancesToHorizon(t *testing.T) {
	s := NewSimulator()
	s.Schedule(1, func() {})

	require.NoError(t, s.RunUntil(50))

	assert.Equal(t, 50.0, s.Now())
	assert.Equal(t, 0, s.Pending())
}

func TestSimulator_RunUntil_RejectsSecondRunAndPastHorizon(t *testing.T) {
	s := NewSimulator()
	require.NoError(t, s.RunUntil(5))
	assert.Error(t, s.RunUntil(10))

	assert.Error(t, NewSimulator().RunUntil(-1))
}

func TestSimulator_Schedule_NegativeDelayPanics(t *testing.T) {
	s := NewSimulator()
	assert.Panics(t, func() { s.Schedule(-0.5, func() {}) })
}

func TestProcess_Wait_AdvancesVirtualTime(t *testing.T) {
	// GIVEN a process waiting 3 then 6 units
	s := NewSimulator()
	var marks []float64
	s.Start("p", func(p *Process) error {
		marks = append(marks, p.Now())
		p.Wait(3)
		marks = append(marks, p.Now())
		p.Wait(6)
		marks = append(marks, p.Now())
		return nil
	})

	// WHEN the simulation runs
	require.NoError(t, s.RunUntil(100))

	// THEN each wait resumes exactly delay units later
	assert.Equal(t, []float64{0, 3, 9}, marks)
}

func TestProcess_InterleavesDeterministically(t *testing.T) {
	// GIVEN two processes with overlapping timers
	s := NewSimulator()
	var log []string
	body := func(step float64) func(p *Process) error {
		return func(p *Process) error {
			for i := 0; i < 3; i++ {
				p.Wait(step)
				log = append(log, p.Name())
			}
			return nil
		}
	}
	s.Start("fast", body(2))
	s.Start("slow", body(3))

	require.NoError(t, s.RunUntil(100))

	// fast: 2,4,6  slow: 3,6,9 -- at t=6 slow scheduled its wake first (at t=3)
	assert.Equal(t, []string{"fast", "slow", "fast", "slow", "fast", "slow"}, log)
}

func TestProcess_Error_AbortsRun(t *testing.T) {
	// GIVEN a process that fails at t=4 and another that would run later
	s := NewSimulator()
	boom := errors.New("boom")
	lateRan := false
	s.Start("failing", func(p *Process) error {
		p.Wait(4)
		return boom
	})
	s.Start("late", func(p *Process) error {
		p.Wait(10)
		lateRan = true
		return nil
	})

	// WHEN the simulation runs
	err := s.RunUntil(100)

	// THEN the error surfaces, the clock stays at the failure and nothing later runs
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "failing")
	assert.Equal(t, 4.0, s.Now())
	assert.False(t, lateRan)
}

func TestProcess_Panic_PropagatesToEventLoop(t *testing.T) {
	s := NewSimulator()
	s.Start("bad", func(p *Process) error {
		p.Wait(1)
		panic("broken invariant")
	})

	assert.Panics(t, func() { _ = s.RunUntil(10) })
}

func TestProcess_CutOffAtHorizon_RunsDeferredCleanup(t *testing.T) {
	// GIVEN a process that would loop forever
	s := NewSimulator()
	cleaned := false
	p := s.Start("forever", func(p *Process) error {
		defer func() { cleaned = true }()
		for {
			p.Wait(1)
		}
	})

	// WHEN the horizon cuts it off
	require.NoError(t, s.RunUntil(5.5))

	// THEN it was unwound and its defers ran
	assert.True(t, cleaned)
	assert.True(t, p.Done())
}

func TestProcess_NeverStarted_IsTornDown(t *testing.T) {
	// GIVEN a process that fails at t=0 ahead of one not yet started
	s := NewSimulator()
	ran := false
	s.Start("failing", func(p *Process) error { return errors.New("aborted") })
	p := s.Start("late-start", func(p *Process) error {
		ran = true
		return nil
	})

	// WHEN the failure aborts the run
	require.Error(t, s.RunUntil(1))

	// THEN the second process is torn down without ever running
	assert.False(t, ran)
	assert.True(t, p.Done())
}
