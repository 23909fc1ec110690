package costfunction

import (
	"github.com/meridian-nav/meridian/pkg"
	da "github.com/meridian-nav/meridian/pkg/datastructure"
)

// BlockedEdgesFunction makes a set of edges impassable on top of a base cost
// function, e.g. for temporary closures.
type BlockedEdgesFunction struct {
	base    costFunction
	blocked map[da.Index]struct{}
}

func NewBlockedEdgesFunction(base costFunction, blockedEdges []da.Index) *BlockedEdgesFunction {
	blocked := make(map[da.Index]struct{}, len(blockedEdges))
	for _, e := range blockedEdges {
		blocked[e] = struct{}{}
	}
	return &BlockedEdgesFunction{base: base, blocked: blocked}
}

func (bf *BlockedEdgesFunction) CalcWeight(e da.EdgeRef, reverse bool, prevEdgeId da.Index) float64 {
	if _, ok := bf.blocked[e.GetEdgeId()]; ok {
		return pkg.INF_WEIGHT
	}
	return bf.base.CalcWeight(e, reverse, prevEdgeId)
}

func (bf *BlockedEdgesFunction) MinWeight(dist float64) float64 {
	return bf.base.MinWeight(dist)
}

func (bf *BlockedEdgesFunction) Name() string {
	return bf.base.Name() + "_blocked"
}
