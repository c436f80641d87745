package book

import "container/heap"

// levelHeap orders priceLevels by price for one side of the book. The
// less function is supplied by the side (descending for bids, ascending
// for asks) so a single implementation of heap.Interface serves both.
type levelHeap struct {
	levels []*priceLevel
	less   func(a, b *priceLevel) bool
}

func newLevelHeap(less func(a, b *priceLevel) bool) *levelHeap {
	return &levelHeap{less: less}
}

func (h *levelHeap) Len() int { return len(h.levels) }

func (h *levelHeap) Less(i, j int) bool { return h.less(h.levels[i], h.levels[j]) }

func (h *levelHeap) Swap(i, j int) {
	h.levels[i], h.levels[j] = h.levels[j], h.levels[i]
	h.levels[i].heapIndex = i
	h.levels[j].heapIndex = j
}

func (h *levelHeap) Push(x interface{}) {
	l := x.(*priceLevel)
	l.heapIndex = len(h.levels)
	h.levels = append(h.levels, l)
}

func (h *levelHeap) Pop() interface{} {
	old := h.levels
	n := len(old)
	l := old[n-1]
	old[n-1] = nil
	h.levels = old[:n-1]
	l.heapIndex = -1
	return l
}

// push inserts a level maintaining the heap invariant.
func (h *levelHeap) push(l *priceLevel) { heap.Push(h, l) }

// removeAt removes the level currently at heap position idx, an O(log L)
// operation since we track each level's own index.
func (h *levelHeap) removeAt(idx int) { heap.Remove(h, idx) }

// best returns the level at the top of the heap without removing it.
func (h *levelHeap) best() *priceLevel {
	if len(h.levels) == 0 {
		return nil
	}
	return h.levels[0]
}
