package costfunction

import (
	"github.com/meridian-nav/meridian/pkg"
	da "github.com/meridian-nav/meridian/pkg/datastructure"
)

type turnRestrictedGraph interface {
	IsTurnRestricted(fromEdge, viaNode, toEdge da.Index) bool
}

// TurnRestrictionFunction decorates a cost function with banned-turn lookups.
// only meaningful under edge-based traversal, which is the mode that hands a
// previous edge to CalcWeight.
type TurnRestrictionFunction struct {
	base  costFunction
	graph turnRestrictedGraph
}

type costFunction interface {
	CalcWeight(e da.EdgeRef, reverse bool, prevEdgeId da.Index) float64
	MinWeight(dist float64) float64
	Name() string
}

func NewTurnRestrictionFunction(base costFunction, graph turnRestrictedGraph) *TurnRestrictionFunction {
	return &TurnRestrictionFunction{base: base, graph: graph}
}

func (tr *TurnRestrictionFunction) CalcWeight(e da.EdgeRef, reverse bool, prevEdgeId da.Index) float64 {
	weight := tr.base.CalcWeight(e, reverse, prevEdgeId)
	if weight >= pkg.INF_WEIGHT || prevEdgeId == da.INVALID_EDGE_ID {
		return weight
	}

	// the backward search walks edges against travel direction, so the turn
	// runs from this edge into the previous one there.
	viaNode := e.GetBaseNode()
	if reverse {
		if tr.graph.IsTurnRestricted(e.GetEdgeId(), viaNode, prevEdgeId) {
			return pkg.INF_WEIGHT
		}
		return weight
	}
	if tr.graph.IsTurnRestricted(prevEdgeId, viaNode, e.GetEdgeId()) {
		return pkg.INF_WEIGHT
	}
	return weight
}

func (tr *TurnRestrictionFunction) MinWeight(dist float64) float64 {
	return tr.base.MinWeight(dist)
}

func (tr *TurnRestrictionFunction) Name() string {
	return tr.base.Name() + "_turn_restricted"
}
