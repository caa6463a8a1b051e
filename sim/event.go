package sim

// Event is a scheduled resumption of simulated activity.
// Events are ordered by (Time, Seq): Seq is assigned by the Simulator at
// insertion, so two events due at the same instant fire in the order they
// were scheduled. An Event is consumed exactly once.
type Event struct {
	Time float64 // Virtual time at which the event fires
	Seq  uint64  // Insertion order, used as the tie-breaker
	fire func()
}

// EventQueue implements heap.Interface and orders events by (Time, Seq).
// See canonical Golang example here: https://pkg.go.dev/container/heap#example-package-IntHeap
type EventQueue []*Event

func (eq EventQueue) Len() int { return len(eq) }

func (eq EventQueue) Less(i, j int) bool {
	if eq[i].Time != eq[j].Time {
		return eq[i].Time < eq[j].Time
	}
	return eq[i].Seq < eq[j].Seq
}

func (eq EventQueue) Swap(i, j int) { eq[i], eq[j] = eq[j], eq[i] }

func (eq *EventQueue) Push(x any) {
	*eq = append(*eq, x.(*Event))
}

func (eq *EventQueue) Pop() any {
	old := *eq
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*eq = old[0 : n-1]
	return item
}

// Peek returns the earliest event without removing it, or nil when empty.
func (eq EventQueue) Peek() *Event {
	if len(eq) == 0 {
		return nil
	}
	return eq[0]
}
