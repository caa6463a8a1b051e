// Implements the WaitQueue, which holds processes blocked on a Pool.
// Processes are enqueued when they request a unit that is not available.

package sim

import (
	"strings"
)

// waiter is a process blocked in Pool.Acquire together with the lease it
// will receive.
type waiter struct {
	proc       *Process
	lease      *Lease
	enqueuedAt float64
}

// WaitQueue is a FIFO queue of processes waiting for a unit of a Pool.
// A process appears in it at most once, since it is suspended while queued.
type WaitQueue struct {
	queue []*waiter
}

// Enqueue adds a waiter to the back of the queue.
func (wq *WaitQueue) Enqueue(w *waiter) {
	wq.queue = append(wq.queue, w)
}

// Dequeue removes and returns the waiter at the head of the queue.
// Returns nil if the queue is empty.
func (wq *WaitQueue) Dequeue() *waiter {
	if len(wq.queue) == 0 {
		return nil
	}
	head := wq.queue[0]
	wq.queue[0] = nil
	wq.queue = wq.queue[1:]
	return head
}

// Remove deletes w from the queue if present, keeping the order of the rest.
func (wq *WaitQueue) Remove(w *waiter) {
	for i, cur := range wq.queue {
		if cur == w {
			wq.queue = append(wq.queue[:i], wq.queue[i+1:]...)
			return
		}
	}
}

// Len returns the number of waiting processes.
func (wq *WaitQueue) Len() int {
	return len(wq.queue)
}

func (wq *WaitQueue) String() string {
	var sb strings.Builder
	sb.WriteString("[")
	for i, w := range wq.queue {
		sb.WriteString(w.proc.name)
		if i < len(wq.queue)-1 {
			sb.WriteString(" ")
		}
	}
	sb.WriteString("]")
	return sb.String()
}
