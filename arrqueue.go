package netana

// arrqueue.go holds the ArrQueue, a best-first search over the joint outcomes of
// several independent distributions.  An arrangement picks, for each distribution,
// the rank of the value it realizes; rank 0 is the most probable value.  The queue
// yields arrangements in order of non-increasing joint probability, starting from
// the all-zero arrangement, and stops once the joint probability falls below a
// fraction (the cutoff) of that first probability.

import (
	"container/heap"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// DefaultCutoff is the relative probability below which an ArrQueue stops
const DefaultCutoff = 0.01

// ErrQueueExhausted is returned when an arrangement is requested from an exhausted queue
var ErrQueueExhausted = errors.New("arrangement queue exhausted")

// Arrangement holds one rank per distribution of an ArrQueue
type Arrangement []int

func (arr Arrangement) key() string {
	strs := make([]string, len(arr))
	for idx, rank := range arr {
		strs[idx] = strconv.Itoa(rank)
	}
	return strings.Join(strs, ",")
}

// lexLess orders arrangements of equal length lexicographically
func lexLess(a, b Arrangement) bool {
	for idx := range a {
		if a[idx] != b[idx] {
			return a[idx] < b[idx]
		}
	}
	return false
}

// arrEntry is an arrangement waiting in the frontier
type arrEntry struct {
	arr  Arrangement
	prob float64
}

// arrHeap and its methods implement a max-priority heap on joint probability.
// Arrangements of equal probability come out in lexicographic order.
type arrHeap []*arrEntry

func (h arrHeap) Len() int { return len(h) }
func (h arrHeap) Less(i, j int) bool {
	if h[i].prob != h[j].prob {
		return h[i].prob > h[j].prob
	}
	return lexLess(h[i].arr, h[j].arr)
}
func (h arrHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *arrHeap) Push(x any) {
	*h = append(*h, x.(*arrEntry))
}

func (h *arrHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[0 : n-1]
	return x
}

// ArrQueue is the search state
type ArrQueue struct {
	distros  []Distribution
	cutoff   float64
	maxProb  float64
	frontier arrHeap
	pending  map[string]bool // keys of arrangements in the frontier
	closed   map[string]bool // keys of arrangements already dequeued
	started  bool
	done     bool
	err      error
}

// CreateArrQueue is a constructor.  The frontier is seeded with the all-zero
// arrangement, whose probability becomes the reference for the cutoff.
func CreateArrQueue(distros []Distribution) *ArrQueue {
	q := new(ArrQueue)
	q.distros = distros
	q.cutoff = DefaultCutoff
	q.pending = make(map[string]bool)
	q.closed = make(map[string]bool)
	q.frontier = []*arrEntry{}
	heap.Init(&q.frontier)

	first := make(Arrangement, len(distros))
	prob, err := q.Prob(first)
	if err != nil {
		q.err = err
		q.done = true
		return q
	}
	q.maxProb = prob
	q.push(first, prob)
	return q
}

// SetCutoff changes the cutoff ratio.  It is refused once the search has started.
func (q *ArrQueue) SetCutoff(ratio float64) error {
	if q.started {
		return errors.New("cutoff changed after the search started")
	}
	if !(ratio >= 0) || ratio > 1 {
		return fmt.Errorf("cutoff %v: %w", ratio, ErrInvalidParameter)
	}
	q.cutoff = ratio
	return nil
}

// Cutoff returns the cutoff ratio in force
func (q *ArrQueue) Cutoff() float64 {
	return q.cutoff
}

// MaxProb is the probability of the all-zero arrangement
func (q *ArrQueue) MaxProb() float64 {
	return q.maxProb
}

// Size is the number of arrangements waiting in the frontier
func (q *ArrQueue) Size() int {
	return len(q.frontier)
}

// Err returns the first error met while expanding the search
func (q *ArrQueue) Err() error {
	return q.err
}

// Prob returns the joint probability of arr, the product of its marginal probabilities
func (q *ArrQueue) Prob(arr Arrangement) (float64, error) {
	if len(arr) != len(q.distros) {
		return 0, fmt.Errorf("arrangement of length %d over %d distributions: %w",
			len(arr), len(q.distros), ErrInvalidParameter)
	}
	prob := 1.0
	for idx, rank := range arr {
		pp, err := q.distros[idx].Kth(rank)
		if err != nil {
			return 0, fmt.Errorf("dimension %d: %w", idx, err)
		}
		prob *= pp.Prob
	}
	return prob, nil
}

// Values maps the ranks of arr to the values the distributions realize
func (q *ArrQueue) Values(arr Arrangement) ([]int, error) {
	if len(arr) != len(q.distros) {
		return nil, fmt.Errorf("arrangement of length %d over %d distributions: %w",
			len(arr), len(q.distros), ErrInvalidParameter)
	}
	vals := make([]int, len(arr))
	for idx, rank := range arr {
		pp, err := q.distros[idx].Kth(rank)
		if err != nil {
			return nil, fmt.Errorf("dimension %d: %w", idx, err)
		}
		vals[idx] = pp.Value
	}
	return vals, nil
}

// Below reports whether prob falls under the cutoff relative to the first arrangement
func (q *ArrQueue) Below(prob float64) bool {
	if !(q.maxProb > 0) {
		return true
	}
	return prob/q.maxProb < q.cutoff
}

func (q *ArrQueue) push(arr Arrangement, prob float64) {
	key := arr.key()
	if q.pending[key] || q.closed[key] {
		return
	}
	q.pending[key] = true
	heap.Push(&q.frontier, &arrEntry{arr: arr, prob: prob})
}

// FindNext returns the most probable arrangement not yet returned, with its probability.
// The boolean is false once the frontier is empty, the next arrangement falls below the
// cutoff, or an error has been met (see Err).
func (q *ArrQueue) FindNext() (Arrangement, float64, bool) {
	q.started = true
	if q.done || len(q.frontier) == 0 {
		q.done = true
		return nil, 0, false
	}

	entry := heap.Pop(&q.frontier).(*arrEntry)
	key := entry.arr.key()
	delete(q.pending, key)

	if q.Below(entry.prob) {
		q.done = true
		return nil, 0, false
	}
	q.closed[key] = true

	// successors raise one rank at a time, where the distribution has that rank
	for idx := range entry.arr {
		next := make(Arrangement, len(entry.arr))
		copy(next, entry.arr)
		next[idx] += 1
		if !q.distros[idx].ExistsKth(next[idx]) {
			continue
		}
		prob, err := q.Prob(next)
		if err != nil {
			q.err = err
			q.done = true
			return nil, 0, false
		}
		q.push(next, prob)
	}
	return entry.arr, entry.prob, true
}

// Next is FindNext reporting exhaustion as ErrQueueExhausted
func (q *ArrQueue) Next() (Arrangement, float64, error) {
	arr, prob, ok := q.FindNext()
	if !ok {
		if q.err != nil {
			return nil, 0, q.err
		}
		return nil, 0, ErrQueueExhausted
	}
	return arr, prob, nil
}
