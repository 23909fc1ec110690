package routing

import (
	"math"

	"github.com/meridian-nav/meridian/pkg"
	da "github.com/meridian-nav/meridian/pkg/datastructure"
	"github.com/meridian-nav/meridian/pkg/util"
)

// Dijkstra is the plain unidirectional search. Point to point queries are
// better served by the bidirectional driver, this one answers one to all
// workloads such as landmark table building and doubles as the reference
// implementation the bidirectional results are checked against in tests.
//
// One instance answers one query.
type Dijkstra struct {
	graph     RoutingGraph
	weighting CostFunction
	mode      TraversalMode

	// a reverse search explores in edges from the seed, so it computes
	// costs toward the seed instead of away from it
	reverse bool

	fr      *frontier
	visited int
	relaxed int
	err     error

	maxVisitedNodes int
}

func NewDijkstra(graph RoutingGraph, weighting CostFunction, mode TraversalMode) *Dijkstra {
	return newDijkstra(graph, weighting, mode, false)
}

func NewReverseDijkstra(graph RoutingGraph, weighting CostFunction, mode TraversalMode) *Dijkstra {
	return newDijkstra(graph, weighting, mode, true)
}

func newDijkstra(graph RoutingGraph, weighting CostFunction, mode TraversalMode, reverse bool) *Dijkstra {
	sizeHint := util.MinInt(util.MaxInt(200, graph.NumberOfVertices()/10), 150_000)
	return &Dijkstra{
		graph:     graph,
		weighting: weighting,
		mode:      mode,
		reverse:   reverse,
		fr:        newFrontier(sizeHint),
	}
}

func (d *Dijkstra) SetMaxVisitedNodes(max int) {
	d.maxVisitedNodes = max
}

func (d *Dijkstra) Visited() int { return d.visited }
func (d *Dijkstra) Relaxed() int { return d.relaxed }

// SearchOneToOne settles labels around from until to is reached. found is
// false when to lives in another component.
func (d *Dijkstra) SearchOneToOne(from, to da.Index) (Path, bool, error) {
	if err := d.seed(from); err != nil {
		return Path{}, false, err
	}
	if int(to) >= d.graph.NumberOfVertices() {
		return Path{}, false, util.WrapErrorf(nil, util.ErrBadParamInput,
			"vertex %d outside of graph with %d vertices", to, d.graph.NumberOfVertices())
	}
	for {
		idx, ok := d.fr.popMin()
		if !ok {
			return Path{}, false, nil
		}
		d.visited++
		if d.fr.entry(idx).adjNode == to {
			return d.extractPath(idx), true, nil
		}
		if d.maxVisitedNodes > 0 && d.visited > d.maxVisitedNodes {
			return Path{}, false, nil
		}
		d.relax(idx)
		if d.err != nil {
			return Path{}, false, d.err
		}
	}
}

// ShortestPathTree holds the settled weights of a one to all run, indexed by
// vertex. Unreached vertices sit at INF_WEIGHT.
type ShortestPathTree struct {
	weights []float64
	visited int
}

func (t *ShortestPathTree) WeightTo(v da.Index) float64 { return t.weights[v] }
func (t *ShortestPathTree) Weights() []float64          { return t.weights }
func (t *ShortestPathTree) Visited() int                { return t.visited }

// SearchOneToAll settles the whole component around from. Node based only,
// edge based labels have no single weight per vertex.
func (d *Dijkstra) SearchOneToAll(from da.Index) (*ShortestPathTree, error) {
	util.AssertPanic(!d.mode.IsEdgeBased(), "one to all runs node based")
	if err := d.seed(from); err != nil {
		return nil, err
	}
	weights := make([]float64, d.graph.NumberOfVertices())
	for i := range weights {
		weights[i] = pkg.INF_WEIGHT
	}
	for {
		idx, ok := d.fr.popMin()
		if !ok {
			return &ShortestPathTree{weights: weights, visited: d.visited}, nil
		}
		d.visited++
		e := d.fr.entry(idx)
		weights[e.adjNode] = e.weightOfVisitedPath
		d.relax(idx)
		if d.err != nil {
			return nil, d.err
		}
	}
}

func (d *Dijkstra) seed(from da.Index) error {
	if int(from) >= d.graph.NumberOfVertices() {
		return util.WrapErrorf(nil, util.ErrBadParamInput,
			"vertex %d outside of graph with %d vertices", from, d.graph.NumberOfVertices())
	}
	if d.fr.openSetSize() > 0 || d.visited > 0 {
		return util.WrapErrorf(nil, util.ErrBadParamInput, "search instance already ran, create a new one per query")
	}
	factory := weightEntryFactory{}
	idx := d.fr.addEntry(factory.createStartEntry(from, 0))
	d.fr.push(idx)
	if !d.mode.IsEdgeBased() {
		d.fr.put(from, idx)
	}
	return nil
}

func (d *Dijkstra) relax(currIdx int32) {
	node := d.fr.entry(currIdx).adjNode
	prevEdge := d.fr.entry(currIdx).edge
	prevWeight := d.fr.entry(currIdx).weightOfVisitedPath
	factory := weightEntryFactory{}

	handle := func(e da.EdgeRef) {
		if d.err != nil {
			return
		}
		if e.GetEdgeId() == prevEdge {
			return
		}
		weight := d.weighting.CalcWeight(e, d.reverse, prevEdge)
		if weight < 0 || math.IsNaN(weight) {
			d.err = util.WrapErrorf(nil, util.ErrInternalServerError,
				"cost function %s returned weight %v on edge %d", d.weighting.Name(), weight, e.GetEdgeId())
			return
		}
		if weight >= pkg.INF_WEIGHT {
			return
		}
		d.relaxed++

		tmpWeight := weight + prevWeight
		traversalId := d.mode.CreateTraversalId(e, d.reverse)
		existing, ok := d.fr.lookup(traversalId)
		if !ok {
			idx := d.fr.addEntry(factory.createEntry(e.GetEdgeId(), e.GetAdjNode(), tmpWeight, currIdx))
			d.fr.put(traversalId, idx)
			d.fr.push(idx)
			return
		}
		if !da.Gt(d.fr.entry(existing).weightOfVisitedPath, tmpWeight) {
			return
		}
		updated := factory.createEntry(e.GetEdgeId(), e.GetAdjNode(), tmpWeight, currIdx)
		updated.heapNode = d.fr.entry(existing).heapNode
		*d.fr.entry(existing) = updated
		if err := d.fr.update(existing); err != nil {
			d.err = util.WrapErrorf(err, util.ErrInternalServerError,
				"open set rejected improved label for edge %d", e.GetEdgeId())
		}
	}

	if d.reverse {
		d.graph.ForInEdgesOf(node, handle)
	} else {
		d.graph.ForOutEdgesOf(node, handle)
	}
}

func (d *Dijkstra) extractPath(idx int32) Path {
	nodes, edges := chain(d.fr, idx)
	if !d.reverse {
		nodes = util.ReverseG(nodes)
		edges = util.ReverseG(edges)
	}
	expandedNodes, expandedEdges := expandPath(d.graph, nodes[0], edges)
	p := Path{
		vertices: expandedNodes,
		edges:    expandedEdges,
		weight:   d.fr.entry(idx).weightOfVisitedPath,
	}
	for _, id := range expandedEdges {
		e := d.graph.GetEdge(id)
		p.dist += e.GetDist()
		p.eta += e.TravelTime()
	}
	return p
}
