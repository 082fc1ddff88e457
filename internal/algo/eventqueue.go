package algo

import (
	"container/heap"
	"math"
	"sort"
)

// normTime rounds t to nanosecond resolution so that sums of durations
// compare and hash stably.
func normTime(t float64) float64 {
	return math.Round(t*1e9) / 1e9
}

type timeHeap []float64

func (h timeHeap) Len() int           { return len(h) }
func (h timeHeap) Less(i, j int) bool { return h[i] < h[j] }
func (h timeHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *timeHeap) Push(x any)        { *h = append(*h, x.(float64)) }
func (h *timeHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[0 : n-1]
	return x
}

// eventQueue is a min-heap of decision times with a membership set that
// rejects duplicates.
type eventQueue struct {
	h   timeHeap
	set map[float64]struct{}
}

func newEventQueue() *eventQueue {
	return &eventQueue{set: make(map[float64]struct{})}
}

// Push inserts t unless it is already queued. It reports whether t was added.
func (q *eventQueue) Push(t float64) bool {
	t = normTime(t)
	if _, ok := q.set[t]; ok {
		return false
	}
	q.set[t] = struct{}{}
	heap.Push(&q.h, t)
	return true
}

func (q *eventQueue) Len() int { return q.h.Len() }

// Peek returns the smallest queued time.
func (q *eventQueue) Peek() (float64, bool) {
	if q.h.Len() == 0 {
		return 0, false
	}
	return q.h[0], true
}

// Pop removes the smallest time, merging any queued times within eps of it.
func (q *eventQueue) Pop(eps float64) (float64, bool) {
	if q.h.Len() == 0 {
		return 0, false
	}
	t := heap.Pop(&q.h).(float64)
	delete(q.set, t)
	for q.h.Len() > 0 && q.h[0]-t < eps {
		delete(q.set, heap.Pop(&q.h).(float64))
	}
	return t, true
}

// snapshotCache records, per decision time, the log index of every agent's
// current state after that round.
type snapshotCache struct {
	times []float64
	heads map[float64][]int
}

func newSnapshotCache() *snapshotCache {
	return &snapshotCache{heads: make(map[float64][]int)}
}

func (c *snapshotCache) store(t float64, agents []*Agent) {
	heads := make([]int, len(agents))
	for i, a := range agents {
		heads[i] = a.head()
	}
	if _, ok := c.heads[t]; !ok {
		c.times = append(c.times, t)
	}
	c.heads[t] = heads
}

// Times returns the cached decision times in ascending order.
func (c *snapshotCache) Times() []float64 {
	out := make([]float64, len(c.times))
	copy(out, c.times)
	sort.Float64s(out)
	return out
}

// states resolves the snapshot at t against the agent logs.
func (c *snapshotCache) states(t float64, agents []*Agent) ([]State, bool) {
	heads, ok := c.heads[t]
	if !ok {
		return nil, false
	}
	out := make([]State, len(heads))
	for i, h := range heads {
		out[i] = agents[i].log[h]
	}
	return out, true
}
