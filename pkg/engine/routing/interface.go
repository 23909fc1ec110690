package routing

import (
	da "github.com/meridian-nav/meridian/pkg/datastructure"
)

// RoutingGraph is the read-only graph view the searches run on. Implemented
// by datastructure.Graph for both plain and shortcut-augmented graphs.
type RoutingGraph interface {
	NumberOfVertices() int
	NumberOfEdges() int
	GetEdge(edgeId da.Index) *da.Edge
	GetVertexLevel(u da.Index) int16

	// ForOutEdgesOf visits every edge leaving u in travel direction,
	// ForInEdgesOf every edge entering u. The EdgeRef base node is u in
	// both cases and the adj node is the opposite endpoint.
	ForOutEdgesOf(u da.Index, handle func(e da.EdgeRef))
	ForInEdgesOf(u da.Index, handle func(e da.EdgeRef))
}

// CostFunction turns an edge traversal into a nonnegative weight. prevEdgeId
// is the edge the search used to reach the base node (INVALID_EDGE_ID at an
// origin) so implementations can charge or forbid turns. A weight of
// pkg.INF_WEIGHT or more marks the traversal impassable and the searches skip
// it without touching their frontiers.
//
// For a backward search reverse is true and e runs against travel direction:
// the base node is where the traversal ends, prevEdgeId is the edge taken
// after e on the eventual path.
//
// MinWeight underestimates the cost of covering dist meters, no matter which
// edges are involved. Goal direction bounds rely on it.
type CostFunction interface {
	CalcWeight(e da.EdgeRef, reverse bool, prevEdgeId da.Index) float64
	MinWeight(dist float64) float64
	Name() string
}

// EdgeFilter restricts which edges a search may relax, on top of the access
// flags the graph already enforces. Searches call it after the u-turn check.
type EdgeFilter interface {
	Accept(e da.EdgeRef) bool
}

// LandmarkBounds supplies goal-direction potentials for the bidirectional
// a-star search. Approximate(u, false) estimates the remaining cost from u to
// the target, Approximate(u, true) the remaining cost from the source to u.
// Implementations must keep the pair balanced, that is
// Approximate(u, false) == -Approximate(u, true) for every u, otherwise the
// shared stopping rule of the bidirectional searches is no longer safe.
type LandmarkBounds interface {
	Approximate(u da.Index, reverse bool) float64
}

// upwardEdgeFilter keeps only edges that climb the vertex ordering of a
// shortcut-augmented graph. Both directions of a hierarchy query use it, the
// backward search on the in-edge view.
type upwardEdgeFilter struct {
	graph RoutingGraph
}

func NewUpwardEdgeFilter(graph RoutingGraph) EdgeFilter {
	return &upwardEdgeFilter{graph: graph}
}

func (f *upwardEdgeFilter) Accept(e da.EdgeRef) bool {
	return f.graph.GetVertexLevel(e.GetAdjNode()) >= f.graph.GetVertexLevel(e.GetBaseNode())
}
