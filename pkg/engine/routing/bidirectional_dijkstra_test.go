package routing

import (
	"math"
	"testing"

	"golang.org/x/exp/rand"

	"github.com/meridian-nav/meridian/pkg"
	"github.com/meridian-nav/meridian/pkg/costfunction"
	da "github.com/meridian-nav/meridian/pkg/datastructure"
	"github.com/meridian-nav/meridian/pkg/geo"
)

func geoDistanceMeters(latA, lonA, latB, lonB float64) float64 {
	return geo.CalculateHaversineDistance(latA, lonA, latB, lonB) * 1000.0
}

// arc is a shorthand for building test graphs. weight doubles as the edge
// length in meters, so the distance cost function reproduces it exactly.
type arc struct {
	a, b   da.Index
	weight float64
	oneWay bool
}

func buildGraph(n int, arcs []arc, turns ...da.TurnKey) *da.Graph {
	vertices := make([]*da.Vertex, n)
	for i := range vertices {
		vertices[i] = da.NewVertex(0, 0, da.Index(i))
	}
	edges := make([]*da.Edge, len(arcs))
	for i, ar := range arcs {
		edges[i] = da.NewEdge(da.Index(i), ar.a, ar.b, ar.weight, 60.0, true, !ar.oneWay, pkg.RESIDENTIAL)
	}
	return da.NewGraph(vertices, edges, turns)
}

// tableCost reads weights straight from a per edge table, ignoring lengths
// and speeds. Entries at INF_WEIGHT make an edge impassable.
type tableCost struct {
	weights []float64
}

func (t tableCost) CalcWeight(e da.EdgeRef, reverse bool, prevEdgeId da.Index) float64 {
	return t.weights[e.GetEdgeId()]
}

func (t tableCost) MinWeight(dist float64) float64 { return 0 }
func (t tableCost) Name() string                   { return "table" }

func modes() []TraversalMode {
	return []TraversalMode{NODE_BASED, EDGE_BASED}
}

func TestLineGraph(t *testing.T) {
	// a - b - c - d - e, unit weights
	g := buildGraph(5, []arc{{0, 1, 1, false}, {1, 2, 1, false}, {2, 3, 1, false}, {3, 4, 1, false}})
	w := costfunction.NewDistanceCostFunction()

	for _, mode := range modes() {
		t.Run(mode.String(), func(t *testing.T) {
			b := NewBidirectionalDijkstra(g, w, mode)
			path, found, err := b.Search(0, 4)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !found {
				t.Fatal("expected a path")
			}
			if math.Abs(path.GetWeight()-4) > 1e-9 {
				t.Fatalf("weight = %v, want 4", path.GetWeight())
			}
			wantNodes := []da.Index{0, 1, 2, 3, 4}
			if len(path.GetVertices()) != len(wantNodes) {
				t.Fatalf("vertices = %v, want %v", path.GetVertices(), wantNodes)
			}
			for i, v := range wantNodes {
				if path.GetVertices()[i] != v {
					t.Fatalf("vertices = %v, want %v", path.GetVertices(), wantNodes)
				}
			}
			if len(path.GetEdges()) != 4 {
				t.Fatalf("edges = %v, want 4 edges", path.GetEdges())
			}
			if b.VisitedForward() == 0 || b.VisitedBackward() == 0 {
				t.Fatalf("both sides should settle labels, got %d/%d", b.VisitedForward(), b.VisitedBackward())
			}
		})
	}
}

func TestDiamondPrefersCheaperDetour(t *testing.T) {
	// a->c (1), c->b (1), a->b (5), b->d (1): best a->d goes via c with weight
	// 3, never 6 over the direct edge
	g := buildGraph(4, []arc{
		{0, 2, 1, true},
		{2, 1, 1, true},
		{0, 1, 5, true},
		{1, 3, 1, true},
	})
	w := costfunction.NewDistanceCostFunction()

	for _, mode := range modes() {
		t.Run(mode.String(), func(t *testing.T) {
			b := NewBidirectionalDijkstra(g, w, mode)
			path, found, err := b.Search(0, 3)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !found {
				t.Fatal("expected a path")
			}
			if math.Abs(path.GetWeight()-3) > 1e-9 {
				t.Fatalf("weight = %v, want 3", path.GetWeight())
			}
			want := []da.Index{0, 2, 1, 3}
			got := path.GetVertices()
			if len(got) != len(want) {
				t.Fatalf("vertices = %v, want %v", got, want)
			}
			for i := range want {
				if got[i] != want[i] {
					t.Fatalf("vertices = %v, want %v", got, want)
				}
			}
		})
	}
}

func TestIdenticalSourceAndTarget(t *testing.T) {
	g := buildGraph(3, []arc{{0, 1, 1, false}, {1, 2, 1, false}})
	w := costfunction.NewDistanceCostFunction()

	for _, mode := range modes() {
		t.Run(mode.String(), func(t *testing.T) {
			b := NewBidirectionalDijkstra(g, w, mode)
			path, found, err := b.Search(1, 1)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !found {
				t.Fatal("expected the zero length path")
			}
			if path.GetWeight() != 0 {
				t.Fatalf("weight = %v, want 0", path.GetWeight())
			}
			if len(path.GetVertices()) != 1 || path.GetVertices()[0] != 1 {
				t.Fatalf("vertices = %v, want [1]", path.GetVertices())
			}
			if len(path.GetEdges()) != 0 {
				t.Fatalf("edges = %v, want none", path.GetEdges())
			}
			if b.RelaxedForward()+b.RelaxedBackward() != 0 {
				t.Fatalf("zero length query must not relax edges, relaxed %d", b.RelaxedForward()+b.RelaxedBackward())
			}
		})
	}
}

func TestDisconnectedComponents(t *testing.T) {
	g := buildGraph(4, []arc{{0, 1, 1, false}, {2, 3, 1, false}})
	w := costfunction.NewDistanceCostFunction()

	for _, mode := range modes() {
		t.Run(mode.String(), func(t *testing.T) {
			b := NewBidirectionalDijkstra(g, w, mode)
			_, found, err := b.Search(0, 3)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if found {
				t.Fatal("no path exists between the components")
			}
		})
	}
}

func TestImpassableEdge(t *testing.T) {
	// 0 - 1 - 2 with a 5 weight detour 0 - 3 - 2
	arcs := []arc{
		{0, 1, 1, false},
		{1, 2, 1, false},
		{0, 3, 2, false},
		{3, 2, 3, false},
	}
	g := buildGraph(4, arcs)

	for _, mode := range modes() {
		t.Run(mode.String(), func(t *testing.T) {
			blocked := tableCost{weights: []float64{1, pkg.INF_WEIGHT, 2, 3}}
			b := NewBidirectionalDijkstra(g, blocked, mode)
			path, found, err := b.Search(0, 2)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !found {
				t.Fatal("detour should be found")
			}
			if math.Abs(path.GetWeight()-5) > 1e-9 {
				t.Fatalf("weight = %v, want 5 via the detour", path.GetWeight())
			}
			if len(path.GetEdges()) != 2 || path.GetEdges()[0] != 2 || path.GetEdges()[1] != 3 {
				t.Fatalf("edges = %v, want [2 3]", path.GetEdges())
			}

			// without a detour the target becomes unreachable
			cut := buildGraph(3, []arc{{0, 1, 1, false}, {1, 2, 1, false}})
			b2 := NewBidirectionalDijkstra(cut, tableCost{weights: []float64{1, pkg.INF_WEIGHT}}, mode)
			_, found, err = b2.Search(0, 2)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if found {
				t.Fatal("impassable edge without detour must yield no path")
			}
		})
	}
}

func TestBannedTurnForcesDetour(t *testing.T) {
	//      3
	//      |
	// 0 -- 1 -- 2     banning edge0 -> edge1 at vertex 1 forces 0-1-3-1-2?
	// u-turns are off, so the query has to fail unless a real detour exists.
	g := buildGraph(4,
		[]arc{{0, 1, 1, false}, {1, 2, 1, false}, {1, 3, 1, false}},
		da.NewTurnKey(0, 1, 1))
	w := costfunction.NewTurnRestrictionFunction(costfunction.NewDistanceCostFunction(), g)

	b := NewBidirectionalDijkstra(g, w, EDGE_BASED)
	_, found, err := b.Search(0, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if found {
		t.Fatal("banned turn with no detour must yield no path")
	}

	// add a parallel detour edge 0 - 2, the query must take it
	g2 := buildGraph(4,
		[]arc{{0, 1, 1, false}, {1, 2, 1, false}, {1, 3, 1, false}, {0, 2, 5, false}},
		da.NewTurnKey(0, 1, 1))
	w2 := costfunction.NewTurnRestrictionFunction(costfunction.NewDistanceCostFunction(), g2)
	b2 := NewBidirectionalDijkstra(g2, w2, EDGE_BASED)
	path, found, err := b2.Search(0, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !found {
		t.Fatal("detour around the banned turn should be found")
	}
	if math.Abs(path.GetWeight()-5) > 1e-9 {
		t.Fatalf("weight = %v, want 5 via the direct edge", path.GetWeight())
	}
	if len(path.GetEdges()) != 1 || path.GetEdges()[0] != 3 {
		t.Fatalf("edges = %v, want [3]", path.GetEdges())
	}
}

func TestParallelEdgesEdgeBased(t *testing.T) {
	// two parallel edges between 0 and 1, the cheaper one must win and both
	// keep their own label
	g := buildGraph(2, []arc{{0, 1, 7, false}, {0, 1, 3, false}})
	w := costfunction.NewDistanceCostFunction()

	b := NewBidirectionalDijkstra(g, w, EDGE_BASED)
	path, found, err := b.Search(0, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !found {
		t.Fatal("expected a path")
	}
	if math.Abs(path.GetWeight()-3) > 1e-9 {
		t.Fatalf("weight = %v, want 3", path.GetWeight())
	}
	if len(path.GetEdges()) != 1 || path.GetEdges()[0] != 1 {
		t.Fatalf("edges = %v, want [1]", path.GetEdges())
	}
}

func TestStepAfterFinishedChangesNothing(t *testing.T) {
	g := buildGraph(5, []arc{{0, 1, 1, false}, {1, 2, 1, false}, {2, 3, 1, false}, {3, 4, 1, false}})
	w := costfunction.NewDistanceCostFunction()

	for _, mode := range modes() {
		t.Run(mode.String(), func(t *testing.T) {
			b := NewBidirectionalDijkstra(g, w, mode)
			if err := b.InitForward(0, 0); err != nil {
				t.Fatal(err)
			}
			if err := b.InitBackward(4, 0); err != nil {
				t.Fatal(err)
			}
			for {
				done, err := b.Step()
				if err != nil {
					t.Fatal(err)
				}
				if done {
					break
				}
			}
			first, foundFirst := b.ExtractPath()
			visited := b.VisitedForward() + b.VisitedBackward()
			relaxed := b.RelaxedForward() + b.RelaxedBackward()

			for i := 0; i < 5; i++ {
				done, err := b.Step()
				if err != nil {
					t.Fatal(err)
				}
				if !done {
					t.Fatal("a finished search must stay finished")
				}
			}
			second, foundSecond := b.ExtractPath()
			if foundFirst != foundSecond || first.GetWeight() != second.GetWeight() {
				t.Fatalf("result changed after extra steps: %v/%v vs %v/%v",
					first.GetWeight(), foundFirst, second.GetWeight(), foundSecond)
			}
			if visited != b.VisitedForward()+b.VisitedBackward() ||
				relaxed != b.RelaxedForward()+b.RelaxedBackward() {
				t.Fatal("extra steps after finish must not touch the frontiers")
			}
		})
	}
}

func TestTerminationLeavesNoImprovingLabel(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	g := randomGraph(rng, 80, 240)
	w := costfunction.NewDistanceCostFunction()

	b := NewBidirectionalDijkstra(g, w, NODE_BASED)
	if err := b.InitForward(0, 0); err != nil {
		t.Fatal(err)
	}
	if err := b.InitBackward(79, 0); err != nil {
		t.Fatal(err)
	}
	for {
		done, err := b.Step()
		if err != nil {
			t.Fatal(err)
		}
		if done {
			break
		}
	}
	if _, found := b.ExtractPath(); !found {
		t.Skip("components not connected for this seed")
	}
	// every label still open on both sides together can only form connections
	// at least as expensive as the reported meeting
	if b.fwd.pq.GetMinrank()+b.bwd.pq.GetMinrank() < b.best.weight-1e-9 {
		t.Fatalf("open labels %v + %v could still beat the meeting %v",
			b.fwd.pq.GetMinrank(), b.bwd.pq.GetMinrank(), b.best.weight)
	}

	// drain both frontiers completely, the meeting must not improve anymore
	stopWeight := b.best.weight
	for b.fillEdges(b.fwd, b.bwd, false) {
	}
	for b.fillEdges(b.bwd, b.fwd, true) {
	}
	if b.err != nil {
		t.Fatal(b.err)
	}
	if b.best.weight != stopWeight {
		t.Fatalf("meeting improved from %v to %v after the stopping rule fired", stopWeight, b.best.weight)
	}
}

func TestRepeatedQueryIsDeterministic(t *testing.T) {
	rng := rand.New(rand.NewSource(17))
	g := randomGraph(rng, 70, 210)
	w := costfunction.NewDistanceCostFunction()

	run := func() (Path, bool, int, int) {
		b := NewBidirectionalDijkstra(g, w, NODE_BASED)
		path, found, err := b.Search(3, 61)
		if err != nil {
			t.Fatal(err)
		}
		return path, found, b.VisitedForward(), b.VisitedBackward()
	}

	first, foundFirst, visFwd, visBwd := run()
	second, foundSecond, visFwd2, visBwd2 := run()

	if foundFirst != foundSecond {
		t.Fatalf("found differs across runs: %v vs %v", foundFirst, foundSecond)
	}
	if visFwd != visFwd2 || visBwd != visBwd2 {
		t.Fatalf("visited counts differ across runs: %d/%d vs %d/%d", visFwd, visBwd, visFwd2, visBwd2)
	}
	if !foundFirst {
		return
	}
	if first.GetWeight() != second.GetWeight() {
		t.Fatalf("weights differ across runs: %v vs %v", first.GetWeight(), second.GetWeight())
	}
	if len(first.GetVertices()) != len(second.GetVertices()) {
		t.Fatalf("paths differ across runs: %v vs %v", first.GetVertices(), second.GetVertices())
	}
	for i := range first.GetVertices() {
		if first.GetVertices()[i] != second.GetVertices()[i] {
			t.Fatalf("paths differ across runs: %v vs %v", first.GetVertices(), second.GetVertices())
		}
	}
}

func TestMaxVisitedNodesAborts(t *testing.T) {
	g := buildGraph(5, []arc{{0, 1, 1, false}, {1, 2, 1, false}, {2, 3, 1, false}, {3, 4, 1, false}})
	w := costfunction.NewDistanceCostFunction()

	b := NewBidirectionalDijkstra(g, w, NODE_BASED)
	b.SetMaxVisitedNodes(2)
	_, found, err := b.Search(0, 4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if found {
		t.Fatal("the cap of 2 settled labels cannot reach the target")
	}
	if b.VisitedForward()+b.VisitedBackward() > 3 {
		t.Fatalf("visited %d labels despite the cap", b.VisitedForward()+b.VisitedBackward())
	}
}

func TestInvalidVertexRejected(t *testing.T) {
	g := buildGraph(3, []arc{{0, 1, 1, false}, {1, 2, 1, false}})
	w := costfunction.NewDistanceCostFunction()

	b := NewBidirectionalDijkstra(g, w, NODE_BASED)
	if _, _, err := b.Search(0, 99); err == nil {
		t.Fatal("vertex outside the graph must be rejected")
	}
	b2 := NewBidirectionalDijkstra(g, w, NODE_BASED)
	if err := b2.InitForward(da.INVALID_VERTEX_ID, 0); err == nil {
		t.Fatal("invalid vertex id must be rejected")
	}
	b3 := NewBidirectionalDijkstra(g, w, NODE_BASED)
	if _, err := b3.Step(); err == nil {
		t.Fatal("stepping an unseeded search must fail")
	}
}

func TestNegativeWeightAbortsQuery(t *testing.T) {
	g := buildGraph(3, []arc{{0, 1, 1, false}, {1, 2, 1, false}})
	bad := tableCost{weights: []float64{1, -1}}

	b := NewBidirectionalDijkstra(g, bad, NODE_BASED)
	_, _, err := b.Search(0, 2)
	if err == nil {
		t.Fatal("negative edge weight must abort the query")
	}
}

func TestSearchInstanceRunsOnce(t *testing.T) {
	g := buildGraph(3, []arc{{0, 1, 1, false}, {1, 2, 1, false}})
	w := costfunction.NewDistanceCostFunction()

	b := NewBidirectionalDijkstra(g, w, NODE_BASED)
	if _, _, err := b.Search(0, 2); err != nil {
		t.Fatal(err)
	}
	if _, _, err := b.Search(0, 2); err == nil {
		t.Fatal("reusing a search instance must fail")
	}
}

// randomGraph builds a connected-ish random road network. Edge lengths are
// small integers so weight comparisons across algorithms stay exact.
func randomGraph(rng *rand.Rand, n, m int) *da.Graph {
	vertices := make([]*da.Vertex, n)
	for i := range vertices {
		vertices[i] = da.NewVertex(-7.5+rng.Float64()*0.1, 110.3+rng.Float64()*0.1, da.Index(i))
	}
	edges := make([]*da.Edge, 0, m+n-1)
	// a random spine keeps most vertex pairs connected
	for i := 1; i < n; i++ {
		a := da.Index(rng.Intn(i))
		edges = append(edges, da.NewEdge(da.Index(len(edges)), a, da.Index(i),
			float64(1+rng.Intn(50)), 60.0, true, true, pkg.RESIDENTIAL))
	}
	for len(edges) < m {
		a := da.Index(rng.Intn(n))
		b := da.Index(rng.Intn(n))
		if a == b {
			continue
		}
		oneWay := rng.Float64() < 0.3
		edges = append(edges, da.NewEdge(da.Index(len(edges)), a, b,
			float64(1+rng.Intn(50)), 60.0, true, !oneWay, pkg.RESIDENTIAL))
	}
	return da.NewGraph(vertices, edges, nil)
}

func TestMatchesUnidirectionalDijkstra(t *testing.T) {
	w := costfunction.NewDistanceCostFunction()
	for seed := uint64(1); seed <= 4; seed++ {
		rng := rand.New(rand.NewSource(seed))
		g := randomGraph(rng, 60, 180)

		for q := 0; q < 25; q++ {
			from := da.Index(rng.Intn(60))
			to := da.Index(rng.Intn(60))

			ref := NewDijkstra(g, w, NODE_BASED)
			refPath, refFound, err := ref.SearchOneToOne(from, to)
			if err != nil {
				t.Fatal(err)
			}

			b := NewBidirectionalDijkstra(g, w, NODE_BASED)
			path, found, err := b.Search(from, to)
			if err != nil {
				t.Fatal(err)
			}

			if found != refFound {
				t.Fatalf("seed %d %d->%d: found=%v but reference says %v", seed, from, to, found, refFound)
			}
			if found && math.Abs(path.GetWeight()-refPath.GetWeight()) > 1e-9 {
				t.Fatalf("seed %d %d->%d: weight %v, reference %v", seed, from, to, path.GetWeight(), refPath.GetWeight())
			}
		}
	}
}

func TestEdgeBasedMatchesNodeBasedWithoutRestrictions(t *testing.T) {
	w := costfunction.NewDistanceCostFunction()
	for seed := uint64(10); seed <= 12; seed++ {
		rng := rand.New(rand.NewSource(seed))
		g := randomGraph(rng, 40, 120)

		for q := 0; q < 20; q++ {
			from := da.Index(rng.Intn(40))
			to := da.Index(rng.Intn(40))

			nb := NewBidirectionalDijkstra(g, w, NODE_BASED)
			nodePath, nodeFound, err := nb.Search(from, to)
			if err != nil {
				t.Fatal(err)
			}
			eb := NewBidirectionalDijkstra(g, w, EDGE_BASED)
			edgePath, edgeFound, err := eb.Search(from, to)
			if err != nil {
				t.Fatal(err)
			}

			if nodeFound != edgeFound {
				t.Fatalf("seed %d %d->%d: node based found=%v, edge based found=%v", seed, from, to, nodeFound, edgeFound)
			}
			if nodeFound && math.Abs(nodePath.GetWeight()-edgePath.GetWeight()) > 1e-9 {
				t.Fatalf("seed %d %d->%d: node based %v, edge based %v", seed, from, to, nodePath.GetWeight(), edgePath.GetWeight())
			}
		}
	}
}

func TestAStarBeelineMatchesDijkstra(t *testing.T) {
	w := costfunction.NewTimeCostFunction()
	for seed := uint64(21); seed <= 23; seed++ {
		rng := rand.New(rand.NewSource(seed))
		g := geoRandomGraph(rng, 50, 150)

		for q := 0; q < 15; q++ {
			from := da.Index(rng.Intn(50))
			to := da.Index(rng.Intn(50))

			ref := NewDijkstra(g, w, NODE_BASED)
			refPath, refFound, err := ref.SearchOneToOne(from, to)
			if err != nil {
				t.Fatal(err)
			}

			bounds := NewBeelineBounds(g, w, from, to)
			a := NewBidirectionalAStarLandmarks(g, w, NODE_BASED, bounds)
			path, found, err := a.Search(from, to)
			if err != nil {
				t.Fatal(err)
			}

			if found != refFound {
				t.Fatalf("seed %d %d->%d: found=%v but reference says %v", seed, from, to, found, refFound)
			}
			if found && math.Abs(path.GetWeight()-refPath.GetWeight()) > 1e-6 {
				t.Fatalf("seed %d %d->%d: weight %v, reference %v", seed, from, to, path.GetWeight(), refPath.GetWeight())
			}
		}
	}
}

// geoRandomGraph scatters vertices over a small bounding box and keeps every
// edge at least as long as the straight line between its endpoints, which
// beeline bounds rely on.
func geoRandomGraph(rng *rand.Rand, n, m int) *da.Graph {
	vertices := make([]*da.Vertex, n)
	for i := range vertices {
		vertices[i] = da.NewVertex(-7.5+rng.Float64()*0.05, 110.3+rng.Float64()*0.05, da.Index(i))
	}
	edgeLen := func(a, b da.Index) float64 {
		latA, lonA := vertices[a].GetLat(), vertices[a].GetLon()
		latB, lonB := vertices[b].GetLat(), vertices[b].GetLon()
		beeline := geoDistanceMeters(latA, lonA, latB, lonB)
		return beeline * (1.0 + rng.Float64())
	}
	edges := make([]*da.Edge, 0, m+n-1)
	for i := 1; i < n; i++ {
		a := da.Index(rng.Intn(i))
		edges = append(edges, da.NewEdge(da.Index(len(edges)), a, da.Index(i),
			edgeLen(a, da.Index(i)), 20.0+rng.Float64()*100.0, true, true, pkg.RESIDENTIAL))
	}
	for len(edges) < m {
		a := da.Index(rng.Intn(n))
		b := da.Index(rng.Intn(n))
		if a == b {
			continue
		}
		edges = append(edges, da.NewEdge(da.Index(len(edges)), a, b,
			edgeLen(a, b), 20.0+rng.Float64()*100.0, true, rng.Float64() > 0.3, pkg.RESIDENTIAL))
	}
	return da.NewGraph(vertices, edges, nil)
}
