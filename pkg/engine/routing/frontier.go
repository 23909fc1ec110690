package routing

import (
	da "github.com/meridian-nav/meridian/pkg/datastructure"
)

// frontier is the complete state of one search direction: the label arena,
// the open set ordered by rank and the best label per traversal id. Only the
// owning direction mutates it, the opposite direction reads best for its
// meeting checks.
type frontier struct {
	pq      *da.MinHeap[int32]
	entries []sptEntry
	best    map[da.Index]int32
}

func newFrontier(sizeHint int) *frontier {
	f := &frontier{
		pq:   da.NewFourAryHeap[int32](),
		best: make(map[da.Index]int32, sizeHint),
	}
	f.pq.Preallocate(sizeHint)
	f.entries = make([]sptEntry, 0, sizeHint)
	return f
}

func (f *frontier) addEntry(e sptEntry) int32 {
	f.entries = append(f.entries, e)
	return int32(len(f.entries) - 1)
}

func (f *frontier) entry(idx int32) *sptEntry {
	return &f.entries[idx]
}

func (f *frontier) lookup(traversalId da.Index) (int32, bool) {
	idx, ok := f.best[traversalId]
	return idx, ok
}

func (f *frontier) put(traversalId da.Index, idx int32) {
	f.best[traversalId] = idx
}

// push puts a fresh label on the open set.
func (f *frontier) push(idx int32) {
	node := da.NewPriorityQueueNode(f.entries[idx].weight, idx)
	f.entries[idx].heapNode = node
	f.pq.Insert(node)
}

// update sinks an improved label to its new rank, or reopens it when it
// already left the open set.
func (f *frontier) update(idx int32) error {
	e := &f.entries[idx]
	if e.heapNode == nil || e.heapNode.GetPos() < 0 {
		f.push(idx)
		return nil
	}
	return f.pq.DecreaseKey(e.heapNode, e.weight)
}

// popMin settles the cheapest open label. ok is false once the open set is
// exhausted.
func (f *frontier) popMin() (int32, bool) {
	node, err := f.pq.ExtractMin()
	if err != nil {
		return -1, false
	}
	return node.GetItem(), true
}

func (f *frontier) openSetSize() int {
	return f.pq.Size()
}
