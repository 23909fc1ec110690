package routing

import (
	"github.com/meridian-nav/meridian/pkg"
	da "github.com/meridian-nav/meridian/pkg/datastructure"
	"github.com/meridian-nav/meridian/pkg/util"
)

// Path is the result of a shortest path query. Vertices and edges are in
// travel order and shortcut edges are already unpacked to base edges, so
// len(edges) == len(vertices)-1 on every non empty path.
type Path struct {
	vertices []da.Index
	edges    []da.Index
	weight   float64
	dist     float64
	eta      float64
}

func (p Path) GetVertices() []da.Index { return p.vertices }
func (p Path) GetEdges() []da.Index    { return p.edges }

// GetWeight total cost under the query's cost function, turn costs included.
func (p Path) GetWeight() float64 { return p.weight }

// GetDist total length in meters.
func (p Path) GetDist() float64 { return p.dist }

// GetEta total travel time in minutes.
func (p Path) GetEta() float64 { return p.eta }

// ExtractPath stitches the two search trees together at the best meeting.
// found is false when the trees never met.
func (b *BidirectionalSearch) ExtractPath() (Path, bool) {
	if b.aborted || b.best.fwdEntry < 0 || b.best.weight >= pkg.INF_WEIGHT {
		return Path{}, false
	}

	fwdNodes, fwdEdges := chain(b.fwd, b.best.fwdEntry)
	fwdNodes = util.ReverseG(fwdNodes)
	fwdEdges = util.ReverseG(fwdEdges)
	bwdNodes, bwdEdges := chain(b.bwd, b.best.bwdEntry)

	util.AssertPanic(fwdNodes[len(fwdNodes)-1] == bwdNodes[0], "search trees meet on different vertices")

	packed := append(fwdEdges, bwdEdges...)
	nodes, edges := expandPath(b.graph, fwdNodes[0], packed)

	p := Path{
		vertices: nodes,
		edges:    edges,
		weight:   b.best.weight,
	}
	for _, id := range edges {
		e := b.graph.GetEdge(id)
		p.dist += e.GetDist()
		p.eta += e.TravelTime()
	}
	return p, true
}

// chain walks a label's parent links back to the seed. The node and edge
// lists run from the given label toward the seed, which is travel order for
// the backward tree and reversed travel order for the forward tree.
func chain(f *frontier, idx int32) ([]da.Index, []da.Index) {
	nodes := make([]da.Index, 0, 16)
	edges := make([]da.Index, 0, 16)
	for {
		e := f.entry(idx)
		nodes = append(nodes, e.adjNode)
		if e.edge == da.INVALID_EDGE_ID {
			return nodes, edges
		}
		edges = append(edges, e.edge)
		idx = e.parent
	}
}

// expandPath rebuilds the full vertex and edge sequence from a packed edge
// list, recursively unpacking shortcuts as it walks from start.
func expandPath(graph RoutingGraph, start da.Index, packed []da.Index) ([]da.Index, []da.Index) {
	nodes := make([]da.Index, 0, len(packed)+1)
	edges := make([]da.Index, 0, len(packed))
	nodes = append(nodes, start)
	tail := start
	for _, id := range packed {
		nodes, edges, tail = appendEdge(graph, nodes, edges, id, tail)
	}
	return nodes, edges
}

func appendEdge(graph RoutingGraph, nodes, edges []da.Index, id, tail da.Index) ([]da.Index, []da.Index, da.Index) {
	e := graph.GetEdge(id)
	head := e.GetNodeB()
	if e.GetNodeA() != tail {
		head = e.GetNodeA()
	}
	if !e.IsShortcut() {
		return append(nodes, head), append(edges, id), head
	}

	first, second := e.GetSkippedA(), e.GetSkippedB()
	if !touchesVertex(graph.GetEdge(first), tail) {
		first, second = second, first
	}
	util.AssertPanic(touchesVertex(graph.GetEdge(first), tail), "shortcut does not connect to its tail vertex")

	nodes, edges, mid := appendEdge(graph, nodes, edges, first, tail)
	util.AssertPanic(touchesVertex(graph.GetEdge(second), mid), "shortcut halves do not share a via vertex")
	return appendEdge(graph, nodes, edges, second, mid)
}

func touchesVertex(e *da.Edge, v da.Index) bool {
	return e.GetNodeA() == v || e.GetNodeB() == v
}
