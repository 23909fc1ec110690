package routing

import (
	da "github.com/meridian-nav/meridian/pkg/datastructure"
)

// noParent marks the origin entry of a shortest path tree.
const noParent int32 = -1

// sptEntry is one label of a shortest path tree. Entries live in a flat
// per-direction arena and reference their predecessor by arena index, which
// keeps them off the garbage collector's scan path and makes path walks cheap.
//
// weight is the priority queue rank. For plain dijkstra it equals
// weightOfVisitedPath, for a-star it additionally carries the goal potential.
type sptEntry struct {
	edge                da.Index // incoming edge, INVALID_EDGE_ID at the origin
	adjNode             da.Index
	weight              float64
	weightOfVisitedPath float64
	parent              int32
	heapNode            *da.PriorityQueueNode[int32]
}

// entryFactory builds the labels of one search direction. The bidirectional
// driver is generic over it: plain dijkstra ranks by exact cost, the landmark
// a-star adds a potential on top.
type entryFactory interface {
	createStartEntry(node da.Index, weight float64) sptEntry
	createEntry(edge da.Index, adjNode da.Index, weight float64, parent int32) sptEntry
}

type weightEntryFactory struct{}

func (weightEntryFactory) createStartEntry(node da.Index, weight float64) sptEntry {
	return sptEntry{
		edge:                da.INVALID_EDGE_ID,
		adjNode:             node,
		weight:              weight,
		weightOfVisitedPath: weight,
		parent:              noParent,
	}
}

func (weightEntryFactory) createEntry(edge da.Index, adjNode da.Index, weight float64, parent int32) sptEntry {
	return sptEntry{
		edge:                edge,
		adjNode:             adjNode,
		weight:              weight,
		weightOfVisitedPath: weight,
		parent:              parent,
	}
}

// approximatedEntryFactory ranks entries by exact cost plus a balanced goal
// potential. The potential cancels out between the two directions, so the
// driver's stopping rule keeps working unchanged.
type approximatedEntryFactory struct {
	bounds  LandmarkBounds
	reverse bool
}

func (f approximatedEntryFactory) createStartEntry(node da.Index, weight float64) sptEntry {
	return sptEntry{
		edge:                da.INVALID_EDGE_ID,
		adjNode:             node,
		weight:              weight + f.bounds.Approximate(node, f.reverse),
		weightOfVisitedPath: weight,
		parent:              noParent,
	}
}

func (f approximatedEntryFactory) createEntry(edge da.Index, adjNode da.Index, weight float64, parent int32) sptEntry {
	return sptEntry{
		edge:                edge,
		adjNode:             adjNode,
		weight:              weight + f.bounds.Approximate(adjNode, f.reverse),
		weightOfVisitedPath: weight,
		parent:              parent,
	}
}
