package loop

import (
	"container/heap"
	"time"
)

// entry is one registered action.
type entry struct {
	id     ID
	action Action

	// Untimered entries are due on every tick.
	timered  bool
	dueAt    time.Time
	interval time.Duration

	// limit == 0 repeats until cancelled.
	limit int
	fired int

	removed bool
}

func (e *entry) due(now time.Time) bool {
	return !e.timered || !now.Before(e.dueAt)
}

func (e *entry) done() bool {
	return e.limit > 0 && e.fired >= e.limit
}

// idPool hands out the smallest non-negative ID not in use.
// Released IDs below the high-water mark sit in a min-heap.
type idPool struct {
	next ID
	max  ID
	free idHeap
}

func (p *idPool) acquire() (ID, error) {
	if p.free.Len() > 0 {
		return heap.Pop(&p.free).(ID), nil
	}
	if p.next > p.max {
		return NoID, ErrIDsExhausted
	}
	id := p.next
	p.next++
	return id, nil
}

func (p *idPool) release(id ID) {
	heap.Push(&p.free, id)
}

type idHeap []ID

func (h idHeap) Len() int           { return len(h) }
func (h idHeap) Less(i, j int) bool { return h[i] < h[j] }
func (h idHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

func (h *idHeap) Push(x any) { *h = append(*h, x.(ID)) }

func (h *idHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}
