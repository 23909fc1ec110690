package routing

import (
	"math"

	"github.com/meridian-nav/meridian/pkg"
	da "github.com/meridian-nav/meridian/pkg/datastructure"
	"github.com/meridian-nav/meridian/pkg/util"
)

// meeting is the cheapest known connection between the two search trees. The
// entry fields index into the forward and backward arenas.
type meeting struct {
	weight   float64
	fwdEntry int32
	bwdEntry int32
}

// BidirectionalSearch grows a dijkstra shortest path tree from the source and
// a second one from the target, in lock step, until the cheapest meeting of
// the two trees can no longer be beaten. With an entry factory that adds
// balanced landmark potentials the same driver runs goal directed, and with
// an upward edge filter it runs on shortcut augmented graphs.
//
// An instance answers exactly one query. Not safe for concurrent use, run one
// instance per goroutine.
type BidirectionalSearch struct {
	graph      RoutingGraph
	weighting  CostFunction
	mode       TraversalMode
	edgeFilter EdgeFilter

	fwdFactory entryFactory
	bwdFactory entryFactory

	fwd *frontier
	bwd *frontier

	// last settled label per direction, -1 until the side is seeded
	currFwd int32
	currBwd int32

	best meeting

	finishedFwd bool
	finishedBwd bool
	stepForward bool

	// hierarchy queries prune downward edges, so one frontier's minimum says
	// nothing about paths the other side can still complete. In that case
	// each frontier must pass the best meeting on its own before we stop.
	bothSidesRule bool

	aborted bool
	err     error

	visitedFwd int
	visitedBwd int
	relaxedFwd int
	relaxedBwd int

	maxVisitedNodes int
}

func NewBidirectionalDijkstra(graph RoutingGraph, weighting CostFunction, mode TraversalMode) *BidirectionalSearch {
	return newBidirectionalSearch(graph, weighting, mode, weightEntryFactory{}, weightEntryFactory{})
}

// NewBidirectionalDijkstraCH runs the node based search on a shortcut
// augmented graph. Both directions climb the vertex ordering only and the
// stopping rule switches to the two sided variant.
func NewBidirectionalDijkstraCH(graph RoutingGraph, weighting CostFunction) *BidirectionalSearch {
	b := newBidirectionalSearch(graph, weighting, NODE_BASED, weightEntryFactory{}, weightEntryFactory{})
	b.edgeFilter = NewUpwardEdgeFilter(graph)
	b.bothSidesRule = true
	return b
}

func newBidirectionalSearch(graph RoutingGraph, weighting CostFunction, mode TraversalMode,
	fwdFactory, bwdFactory entryFactory) *BidirectionalSearch {

	sizeHint := util.MinInt(util.MaxInt(200, graph.NumberOfVertices()/10), 150_000)
	return &BidirectionalSearch{
		graph:       graph,
		weighting:   weighting,
		mode:        mode,
		fwdFactory:  fwdFactory,
		bwdFactory:  bwdFactory,
		fwd:         newFrontier(sizeHint),
		bwd:         newFrontier(sizeHint),
		currFwd:     -1,
		currBwd:     -1,
		best:        meeting{weight: 2 * pkg.INF_WEIGHT, fwdEntry: -1, bwdEntry: -1},
		stepForward: true,
	}
}

func (b *BidirectionalSearch) SetEdgeFilter(filter EdgeFilter) {
	b.edgeFilter = filter
}

// SetMaxVisitedNodes caps the total number of settled labels. An exceeded cap
// aborts the query and the result reads as not found. Zero means no cap.
func (b *BidirectionalSearch) SetMaxVisitedNodes(max int) {
	b.maxVisitedNodes = max
}

func (b *BidirectionalSearch) checkVertex(node da.Index) error {
	if int(node) >= b.graph.NumberOfVertices() {
		return util.WrapErrorf(nil, util.ErrBadParamInput,
			"vertex %d outside of graph with %d vertices", node, b.graph.NumberOfVertices())
	}
	return nil
}

// InitForward seeds the source side. weight is the cost already paid before
// entering the graph, zero for plain vertex to vertex queries.
func (b *BidirectionalSearch) InitForward(node da.Index, weight float64) error {
	if err := b.checkVertex(node); err != nil {
		return err
	}
	if b.currFwd >= 0 {
		return util.WrapErrorf(nil, util.ErrBadParamInput, "forward side seeded twice")
	}
	b.currFwd = b.fwd.addEntry(b.fwdFactory.createStartEntry(node, weight))
	b.fwd.push(b.currFwd)
	if !b.mode.IsEdgeBased() {
		b.fwd.put(node, b.currFwd)
		b.connectSeeds()
	} else if b.currBwd >= 0 && b.bwd.entry(b.currBwd).adjNode == node {
		b.connectIdenticalSeeds()
	}
	return nil
}

// InitBackward seeds the target side, see InitForward.
func (b *BidirectionalSearch) InitBackward(node da.Index, weight float64) error {
	if err := b.checkVertex(node); err != nil {
		return err
	}
	if b.currBwd >= 0 {
		return util.WrapErrorf(nil, util.ErrBadParamInput, "backward side seeded twice")
	}
	b.currBwd = b.bwd.addEntry(b.bwdFactory.createStartEntry(node, weight))
	b.bwd.push(b.currBwd)
	if !b.mode.IsEdgeBased() {
		b.bwd.put(node, b.currBwd)
		b.connectSeeds()
	} else if b.currFwd >= 0 && b.fwd.entry(b.currFwd).adjNode == node {
		b.connectIdenticalSeeds()
	}
	return nil
}

// connectSeeds records the trivial meeting when source and target coincide.
// Node based the seeds live in the label maps, so a later relaxation would
// find the meeting anyway, but checking here keeps the zero length query free
// of any relaxation.
func (b *BidirectionalSearch) connectSeeds() {
	if b.currFwd < 0 || b.currBwd < 0 {
		return
	}
	fwdSeed := b.fwd.entry(b.currFwd)
	bwdSeed := b.bwd.entry(b.currBwd)
	if fwdSeed.adjNode != bwdSeed.adjNode {
		return
	}
	w := fwdSeed.weightOfVisitedPath + bwdSeed.weightOfVisitedPath
	if da.Lt(w, b.best.weight) {
		b.best = meeting{weight: w, fwdEntry: b.currFwd, bwdEntry: b.currBwd}
	}
}

// connectIdenticalSeeds is the edge based twin of connectSeeds. Seeds carry
// no traversal id there, so the meeting has to be forced and both sides
// closed before the first step.
func (b *BidirectionalSearch) connectIdenticalSeeds() {
	fwdSeed := b.fwd.entry(b.currFwd)
	bwdSeed := b.bwd.entry(b.currBwd)
	b.best = meeting{
		weight:   fwdSeed.weightOfVisitedPath + bwdSeed.weightOfVisitedPath,
		fwdEntry: b.currFwd,
		bwdEntry: b.currBwd,
	}
	b.finishedFwd = true
	b.finishedBwd = true
}

// Step settles one label on the side whose turn it is and relaxes the edges
// around it. It reports whether the search is complete afterwards. Both
// sides must be seeded first.
func (b *BidirectionalSearch) Step() (bool, error) {
	if b.currFwd < 0 || b.currBwd < 0 {
		return true, util.WrapErrorf(nil, util.ErrBadParamInput, "search stepped before both sides were seeded")
	}
	if b.Finished() {
		return true, nil
	}
	if b.maxVisitedNodes > 0 && b.visitedFwd+b.visitedBwd > b.maxVisitedNodes {
		b.aborted = true
		return true, nil
	}

	forward := b.stepForward
	b.stepForward = !b.stepForward
	if forward && b.finishedFwd {
		forward = false
	} else if !forward && b.finishedBwd {
		forward = true
	}

	if forward {
		b.finishedFwd = !b.fillEdges(b.fwd, b.bwd, false)
	} else {
		b.finishedBwd = !b.fillEdges(b.bwd, b.fwd, true)
	}
	if b.err != nil {
		return true, b.err
	}
	return b.Finished(), nil
}

// Finished reports whether no further step can improve the best meeting.
//
// The default rule stops when one open set runs dry or when the settled
// minima of both sides add up to the best meeting weight, see
// https://www.cs.princeton.edu/courses/archive/spr06/cos423/Handouts/EPP%20shortest%20path%20algorithms.pdf
// An exhausted side is safe to stop on because every meeting is checked
// against the opposite label map the moment a label is created or improved.
func (b *BidirectionalSearch) Finished() bool {
	if b.aborted {
		return true
	}
	if b.bothSidesRule {
		if b.finishedFwd && b.finishedBwd {
			return true
		}
		fwdDone := b.finishedFwd || da.Ge(b.fwd.entry(b.currFwd).weight, b.best.weight)
		bwdDone := b.finishedBwd || da.Ge(b.bwd.entry(b.currBwd).weight, b.best.weight)
		return fwdDone && bwdDone
	}
	if b.finishedFwd || b.finishedBwd {
		return true
	}
	return da.Ge(b.fwd.entry(b.currFwd).weight+b.bwd.entry(b.currBwd).weight, b.best.weight)
}

// fillEdges settles the cheapest open label of one side. It reports false
// once that side's open set is exhausted.
func (b *BidirectionalSearch) fillEdges(own, other *frontier, reverse bool) bool {
	idx, ok := own.popMin()
	if !ok {
		return false
	}
	if reverse {
		b.currBwd = idx
		b.visitedBwd++
	} else {
		b.currFwd = idx
		b.visitedFwd++
	}
	b.relaxEdges(own, other, idx, reverse)
	return true
}

// relaxEdges expands one settled label. Forward labels walk the out edges of
// their node, backward labels the in edges, so a backward chain read from the
// meeting point toward the seed is already in travel order.
func (b *BidirectionalSearch) relaxEdges(own, other *frontier, currIdx int32, reverse bool) {
	node := own.entry(currIdx).adjNode
	prevEdge := own.entry(currIdx).edge
	prevWeight := own.entry(currIdx).weightOfVisitedPath

	factory := b.fwdFactory
	if reverse {
		factory = b.bwdFactory
	}

	handle := func(e da.EdgeRef) {
		if b.err != nil {
			return
		}
		if !b.accept(e, prevEdge) {
			return
		}
		weight := b.weighting.CalcWeight(e, reverse, prevEdge)
		if weight < 0 || math.IsNaN(weight) {
			b.err = util.WrapErrorf(nil, util.ErrInternalServerError,
				"cost function %s returned weight %v on edge %d", b.weighting.Name(), weight, e.GetEdgeId())
			return
		}
		if weight >= pkg.INF_WEIGHT {
			return
		}
		if reverse {
			b.relaxedBwd++
		} else {
			b.relaxedFwd++
		}

		tmpWeight := weight + prevWeight
		traversalId := b.mode.CreateTraversalId(e, reverse)
		existing, ok := own.lookup(traversalId)
		if !ok {
			idx := own.addEntry(factory.createEntry(e.GetEdgeId(), e.GetAdjNode(), tmpWeight, currIdx))
			own.put(traversalId, idx)
			own.push(idx)
			b.updateBestPath(e, own, other, idx, traversalId, reverse)
			return
		}
		if !da.Gt(own.entry(existing).weightOfVisitedPath, tmpWeight) {
			return
		}
		updated := factory.createEntry(e.GetEdgeId(), e.GetAdjNode(), tmpWeight, currIdx)
		updated.heapNode = own.entry(existing).heapNode
		*own.entry(existing) = updated
		if err := own.update(existing); err != nil {
			b.err = util.WrapErrorf(err, util.ErrInternalServerError,
				"open set rejected improved label for edge %d", e.GetEdgeId())
			return
		}
		b.updateBestPath(e, own, other, existing, traversalId, reverse)
	}

	if reverse {
		b.graph.ForInEdgesOf(node, handle)
	} else {
		b.graph.ForOutEdgesOf(node, handle)
	}
}

// accept applies the u-turn rule and the optional edge filter. A label never
// leaves over the edge it arrived on.
func (b *BidirectionalSearch) accept(e da.EdgeRef, prevEdge da.Index) bool {
	if e.GetEdgeId() == prevEdge {
		return false
	}
	return b.edgeFilter == nil || b.edgeFilter.Accept(e)
}

// updateBestPath checks whether a created or improved label connects to the
// opposite tree under the same traversal id and keeps the cheapest meeting.
func (b *BidirectionalSearch) updateBestPath(e da.EdgeRef, own, other *frontier, entryIdx int32, traversalId da.Index, reverse bool) {
	otherIdx, ok := other.lookup(traversalId)
	if !ok {
		return
	}
	entry := own.entry(entryIdx)
	otherEntry := other.entry(otherIdx)
	newWeight := entry.weightOfVisitedPath + otherEntry.weightOfVisitedPath

	if b.mode.IsEdgeBased() {
		util.AssertPanic(otherEntry.edge == entry.edge, "meeting labels disagree on the shared edge")
		if otherEntry.adjNode != entry.adjNode {
			// both labels paid for the shared edge. Drop one copy and step
			// this side back to its parent so the edge stays on exactly one
			// chain when the path is stitched together.
			util.AssertPanic(entry.parent >= 0, "meeting label without a parent")
			entryIdx = entry.parent
			newWeight -= b.weighting.CalcWeight(e, reverse, da.INVALID_EDGE_ID)
		}
	}

	if !da.Lt(newWeight, b.best.weight) {
		return
	}
	if reverse {
		b.best = meeting{weight: newWeight, fwdEntry: otherIdx, bwdEntry: entryIdx}
	} else {
		b.best = meeting{weight: newWeight, fwdEntry: entryIdx, bwdEntry: otherIdx}
	}
}

// Search runs a full vertex to vertex query. found is false when target and
// source live in different components or the visited cap struck first.
func (b *BidirectionalSearch) Search(from, to da.Index) (Path, bool, error) {
	if b.currFwd >= 0 || b.currBwd >= 0 {
		return Path{}, false, util.WrapErrorf(nil, util.ErrBadParamInput, "search instance already ran, create a new one per query")
	}
	if err := b.InitForward(from, 0); err != nil {
		return Path{}, false, err
	}
	if err := b.InitBackward(to, 0); err != nil {
		return Path{}, false, err
	}
	for {
		done, err := b.Step()
		if err != nil {
			return Path{}, false, err
		}
		if done {
			break
		}
	}
	path, found := b.ExtractPath()
	return path, found, nil
}

func (b *BidirectionalSearch) VisitedForward() int  { return b.visitedFwd }
func (b *BidirectionalSearch) VisitedBackward() int { return b.visitedBwd }
func (b *BidirectionalSearch) RelaxedForward() int  { return b.relaxedFwd }
func (b *BidirectionalSearch) RelaxedBackward() int { return b.relaxedBwd }

// BestWeight exposes the weight of the cheapest meeting found so far,
// 2*INF_WEIGHT while none exists.
func (b *BidirectionalSearch) BestWeight() float64 { return b.best.weight }
