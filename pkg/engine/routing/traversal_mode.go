package routing

import (
	da "github.com/meridian-nav/meridian/pkg/datastructure"
)

type TraversalMode int

const (
	// NODE_BASED keys search labels by node id. One label per node, turn
	// costs cannot be expressed.
	NODE_BASED TraversalMode = iota
	// EDGE_BASED keys search labels by directed edge, so a node can carry
	// one label per incoming edge and turn restrictions stay exact.
	EDGE_BASED
)

func (t TraversalMode) IsEdgeBased() bool {
	return t == EDGE_BASED
}

func (t TraversalMode) String() string {
	if t == EDGE_BASED {
		return "edge_based"
	}
	return "node_based"
}

// CreateTraversalId maps a relaxed edge to the key its label is stored
// under. Node based that is just the adjacent node. Edge based it is the
// edge id shifted left with the travel orientation in the low bit, so the
// forward search traveling tail to head and the backward search walking the
// same edge against travel direction agree on the key and can meet on it.
func (t TraversalMode) CreateTraversalId(e da.EdgeRef, reverse bool) da.Index {
	if t == EDGE_BASED {
		tail, head := e.GetBaseNode(), e.GetAdjNode()
		if reverse {
			tail, head = head, tail
		}
		key := e.GetEdgeId() << 1
		if tail > head {
			key++
		}
		return key
	}
	return e.GetAdjNode()
}
