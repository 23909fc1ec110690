package engine

import (
	"math"
	"testing"

	"golang.org/x/exp/rand"

	"github.com/meridian-nav/meridian/pkg"
	"github.com/meridian-nav/meridian/pkg/costfunction"
	da "github.com/meridian-nav/meridian/pkg/datastructure"
	"github.com/meridian-nav/meridian/pkg/engine/routing"
	"github.com/meridian-nav/meridian/pkg/geo"
	"github.com/meridian-nav/meridian/pkg/landmark"
	"go.uber.org/zap"
)

// testGraph scatters vertices over a small box and keeps every edge at least
// as long as the straight line between its endpoints so beeline bounds hold.
func testGraph(rng *rand.Rand, n, m int) *da.Graph {
	vertices := make([]*da.Vertex, n)
	for i := range vertices {
		vertices[i] = da.NewVertex(-7.5+rng.Float64()*0.05, 110.3+rng.Float64()*0.05, da.Index(i))
	}
	edgeLen := func(a, b da.Index) float64 {
		latA, lonA := vertices[a].GetLat(), vertices[a].GetLon()
		latB, lonB := vertices[b].GetLat(), vertices[b].GetLon()
		return geo.CalculateHaversineDistance(latA, lonA, latB, lonB) * 1000.0 * (1.0 + rng.Float64())
	}
	edges := make([]*da.Edge, 0, m+n-1)
	for i := 1; i < n; i++ {
		a := da.Index(rng.Intn(i))
		edges = append(edges, da.NewEdge(da.Index(len(edges)), a, da.Index(i),
			edgeLen(a, da.Index(i)), 30.0+rng.Float64()*60.0, true, true, pkg.RESIDENTIAL))
	}
	for len(edges) < m {
		a := da.Index(rng.Intn(n))
		b := da.Index(rng.Intn(n))
		if a == b {
			continue
		}
		edges = append(edges, da.NewEdge(da.Index(len(edges)), a, b,
			edgeLen(a, b), 30.0+rng.Float64()*60.0, true, rng.Float64() > 0.3, pkg.RESIDENTIAL))
	}
	return da.NewGraph(vertices, edges, nil)
}

func TestAlgorithmsAgreeOnWeights(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	g := testGraph(rng, 60, 180)

	lm := landmark.NewLandmark()
	if err := lm.BuildTables(g, costfunction.NewTimeCostFunction(),
		landmark.SelectLandmarks(g, 4), 2, zap.NewNop()); err != nil {
		t.Fatal(err)
	}

	plain := NewEngineFromGraph(g, nil, zap.NewNop())
	withLm := NewEngineFromGraph(g, lm, zap.NewNop())

	for q := 0; q < 25; q++ {
		from := da.Index(rng.Intn(60))
		to := da.Index(rng.Intn(60))

		refPath, refStats, refFound, err := plain.Route(from, to, DIJKSTRA)
		if err != nil {
			t.Fatal(err)
		}

		for _, tc := range []struct {
			e    *Engine
			algo Algorithm
		}{
			{plain, DIJKSTRA_BI},
			{plain, ASTAR_LM_BI}, // falls back to beeline bounds
			{withLm, ASTAR_LM_BI},
		} {
			path, stats, found, err := tc.e.Route(from, to, tc.algo)
			if err != nil {
				t.Fatalf("%s %d->%d: %v", tc.algo, from, to, err)
			}
			if found != refFound {
				t.Fatalf("%s %d->%d: found=%v, reference says %v", tc.algo, from, to, found, refFound)
			}
			if found && math.Abs(path.GetWeight()-refPath.GetWeight()) > 1e-6 {
				t.Fatalf("%s %d->%d: weight %v, reference %v", tc.algo, from, to, path.GetWeight(), refPath.GetWeight())
			}
			if found && stats.Visited <= 0 {
				t.Fatalf("%s %d->%d: missing visited counter", tc.algo, from, to)
			}
		}
		if refFound && refStats.Visited <= 0 {
			t.Fatal("reference search must report visited labels")
		}
	}
}

func TestBannedTurnsSwitchToEdgeBased(t *testing.T) {
	vertices := []*da.Vertex{
		da.NewVertex(0, 0, 0), da.NewVertex(0, 0.001, 1),
		da.NewVertex(0, 0.002, 2), da.NewVertex(0.001, 0.001, 3),
	}
	edges := []*da.Edge{
		da.NewEdge(0, 0, 1, 100, 30, true, true, pkg.RESIDENTIAL),
		da.NewEdge(1, 1, 2, 100, 30, true, true, pkg.RESIDENTIAL),
		da.NewEdge(2, 1, 3, 100, 30, true, true, pkg.RESIDENTIAL),
	}
	g := da.NewGraph(vertices, edges, []da.TurnKey{da.NewTurnKey(0, 1, 1)})

	e := NewEngineFromGraph(g, nil, zap.NewNop())
	if e.TraversalMode() != routing.EDGE_BASED {
		t.Fatal("banned turns must switch the engine to edge based traversal")
	}

	_, _, found, err := e.Route(0, 2, DIJKSTRA_BI)
	if err != nil {
		t.Fatal(err)
	}
	if found {
		t.Fatal("the banned turn has no detour, the query must fail")
	}

	open := NewEngineFromGraph(da.NewGraph(vertices, edges, nil), nil, zap.NewNop())
	if open.TraversalMode() != routing.NODE_BASED {
		t.Fatal("a graph without banned turns must stay node based")
	}
	_, _, found, err = open.Route(0, 2, DIJKSTRA_BI)
	if err != nil {
		t.Fatal(err)
	}
	if !found {
		t.Fatal("without the restriction the path exists")
	}
}

func TestHierarchyQueryFallsBackWithoutShortcuts(t *testing.T) {
	rng := rand.New(rand.NewSource(9))
	g := testGraph(rng, 30, 90)
	e := NewEngineFromGraph(g, nil, zap.NewNop())

	if e.Hierarchical() {
		t.Fatal("flat graph must not report a hierarchy")
	}
	_, stats, found, err := e.Route(0, 29, DIJKSTRA_CH)
	if err != nil {
		t.Fatal(err)
	}
	if !found {
		t.Fatal("expected a path")
	}
	if stats.Algorithm != DIJKSTRA_BI {
		t.Fatalf("stats.Algorithm = %s, want the %s fallback", stats.Algorithm, DIJKSTRA_BI)
	}
}

func TestDefaultAlgorithmSelection(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	g := testGraph(rng, 20, 50)

	plain := NewEngineFromGraph(g, nil, zap.NewNop())
	if got := plain.DefaultAlgorithm(); got != DIJKSTRA_BI {
		t.Fatalf("flat graph default = %s, want %s", got, DIJKSTRA_BI)
	}

	lm := landmark.NewLandmark()
	if err := lm.BuildTables(g, costfunction.NewTimeCostFunction(),
		landmark.SelectLandmarks(g, 2), 1, zap.NewNop()); err != nil {
		t.Fatal(err)
	}
	withLm := NewEngineFromGraph(g, lm, zap.NewNop())
	if got := withLm.DefaultAlgorithm(); got != ASTAR_LM_BI {
		t.Fatalf("landmark default = %s, want %s", got, ASTAR_LM_BI)
	}
}

func TestUnknownAlgorithmRejected(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	e := NewEngineFromGraph(testGraph(rng, 10, 20), nil, zap.NewNop())
	if _, _, _, err := e.Route(0, 5, Algorithm("contraction")); err == nil {
		t.Fatal("unknown algorithm must be rejected")
	}
}

func TestMaxVisitedNodesCapsQueries(t *testing.T) {
	// a 12 vertex chain, the frontiers need about five settles per side to meet
	n := 12
	vertices := make([]*da.Vertex, n)
	for i := range vertices {
		vertices[i] = da.NewVertex(0, 0.001*float64(i), da.Index(i))
	}
	edges := make([]*da.Edge, n-1)
	for i := 1; i < n; i++ {
		edges[i-1] = da.NewEdge(da.Index(i-1), da.Index(i-1), da.Index(i), 120, 30, true, true, pkg.RESIDENTIAL)
	}
	e := NewEngineFromGraph(da.NewGraph(vertices, edges, nil), nil, zap.NewNop())
	e.SetMaxVisitedNodes(2)

	_, stats, found, err := e.Route(0, da.Index(n-1), DIJKSTRA_BI)
	if err != nil {
		t.Fatal(err)
	}
	if found {
		t.Fatal("a cap of 2 settled labels cannot reach the target")
	}
	if stats.Visited > 4 {
		t.Fatalf("visited %d labels despite the cap", stats.Visited)
	}
}

func TestVertexOutsideGraphRejected(t *testing.T) {
	rng := rand.New(rand.NewSource(13))
	e := NewEngineFromGraph(testGraph(rng, 10, 20), nil, zap.NewNop())

	if _, _, _, err := e.Route(0, 99, DIJKSTRA_BI); err == nil {
		t.Fatal("vertex outside the graph must be rejected")
	}
	if _, _, _, err := e.Route(0, 99, ASTAR_LM_BI); err == nil {
		t.Fatal("vertex outside the graph must be rejected for the a-star driver too")
	}
}
