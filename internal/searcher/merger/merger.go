// Package merger combines individually sorted runs into one sorted sequence
// with a k-way heap merge.
package merger

import "container/heap"

// Merge merges runs, each already sorted by less, into a single slice sorted
// by less. Among equal elements, earlier runs come first, so merging runs
// cut from a stably sorted sequence reproduces that sequence. limit <= 0
// means no limit.
func Merge[T any](runs [][]T, less func(a, b T) bool, limit int) []T {
	total := 0
	for _, run := range runs {
		total += len(run)
	}
	if limit <= 0 || limit > total {
		limit = total
	}
	h := &cursorHeap[T]{less: less}
	for i, run := range runs {
		if len(run) > 0 {
			h.items = append(h.items, cursor{run: i})
		}
	}
	h.runs = runs
	heap.Init(h)

	result := make([]T, 0, limit)
	for h.Len() > 0 && len(result) < limit {
		top := &h.items[0]
		result = append(result, runs[top.run][top.pos])
		top.pos++
		if top.pos == len(runs[top.run]) {
			heap.Pop(h)
		} else {
			heap.Fix(h, 0)
		}
	}
	return result
}

type cursor struct {
	run int
	pos int
}

type cursorHeap[T any] struct {
	items []cursor
	runs  [][]T
	less  func(a, b T) bool
}

func (h *cursorHeap[T]) Len() int { return len(h.items) }

func (h *cursorHeap[T]) Less(i, j int) bool {
	a := h.runs[h.items[i].run][h.items[i].pos]
	b := h.runs[h.items[j].run][h.items[j].pos]
	if h.less(a, b) {
		return true
	}
	if h.less(b, a) {
		return false
	}
	return h.items[i].run < h.items[j].run
}

func (h *cursorHeap[T]) Swap(i, j int) { h.items[i], h.items[j] = h.items[j], h.items[i] }

func (h *cursorHeap[T]) Push(x interface{}) {
	h.items = append(h.items, x.(cursor))
}

func (h *cursorHeap[T]) Pop() interface{} {
	old := h.items
	n := len(old)
	item := old[n-1]
	h.items = old[:n-1]
	return item
}
