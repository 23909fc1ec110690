package costfunction

import (
	"math"
	"testing"

	"github.com/meridian-nav/meridian/pkg"
	da "github.com/meridian-nav/meridian/pkg/datastructure"
)

func edgeRef(id, a, b da.Index, dist, speed float64) da.EdgeRef {
	e := da.NewEdge(id, a, b, dist, speed, true, true, pkg.RESIDENTIAL)
	return da.NewEdgeRef(e, a, b)
}

func TestTimeFunction(t *testing.T) {
	tf := NewTimeCostFunction()

	// 3km at 60 km/h is 3 minutes
	got := tf.CalcWeight(edgeRef(0, 0, 1, 3000, 60), false, da.INVALID_EDGE_ID)
	if math.Abs(got-3.0) > 1e-9 {
		t.Fatalf("weight = %v, want 3", got)
	}

	// negative speed marks a blocked road
	if w := tf.CalcWeight(edgeRef(1, 0, 1, 100, -1), false, da.INVALID_EDGE_ID); w < pkg.INF_WEIGHT {
		t.Fatalf("negative speed gave %v, want impassable", w)
	}

	// unknown speed falls back instead of dividing by zero
	w := tf.CalcWeight(edgeRef(2, 0, 1, 1000, 0), false, da.INVALID_EDGE_ID)
	if math.IsInf(w, 0) || math.IsNaN(w) || w <= 0 {
		t.Fatalf("zero speed gave %v", w)
	}

	// MinWeight must never exceed the real weight of any edge
	for _, speed := range []float64{5, 30, 60, 130} {
		real := tf.CalcWeight(edgeRef(3, 0, 1, 5000, speed), false, da.INVALID_EDGE_ID)
		if tf.MinWeight(5000) > real+1e-9 {
			t.Fatalf("MinWeight %v exceeds real weight %v at %v km/h", tf.MinWeight(5000), real, speed)
		}
	}
}

func TestTimeFunctionBoundFollowsFastestRoad(t *testing.T) {
	vertices := []*da.Vertex{da.NewVertex(0, 0, 0), da.NewVertex(0, 0, 1)}
	fast := da.NewEdge(0, 0, 1, 5000, 160, true, true, pkg.MOTORWAY)
	g := da.NewGraph(vertices, []*da.Edge{fast}, nil)

	tf := NewTimeCostFunctionForGraph(g)
	real := tf.CalcWeight(da.NewEdgeRef(fast, 0, 1), false, da.INVALID_EDGE_ID)
	if tf.MinWeight(5000) > real+1e-9 {
		t.Fatalf("MinWeight %v exceeds the 160 km/h edge weight %v", tf.MinWeight(5000), real)
	}
}

func TestDistanceFunction(t *testing.T) {
	df := NewDistanceCostFunction()
	if got := df.CalcWeight(edgeRef(0, 0, 1, 250, 60), false, da.INVALID_EDGE_ID); got != 250 {
		t.Fatalf("weight = %v, want 250", got)
	}
	if df.MinWeight(250) != 250 {
		t.Fatalf("MinWeight = %v, want 250", df.MinWeight(250))
	}
}

func TestTurnRestrictionFunction(t *testing.T) {
	vertices := []*da.Vertex{da.NewVertex(0, 0, 0), da.NewVertex(0, 0, 1), da.NewVertex(0, 0, 2)}
	edges := []*da.Edge{
		da.NewEdge(0, 0, 1, 100, 60, true, true, pkg.RESIDENTIAL),
		da.NewEdge(1, 1, 2, 100, 60, true, true, pkg.RESIDENTIAL),
	}
	g := da.NewGraph(vertices, edges, []da.TurnKey{da.NewTurnKey(0, 1, 1)})
	tr := NewTurnRestrictionFunction(NewDistanceCostFunction(), g)

	// forward: arriving at 1 over edge 0 and leaving over edge 1 is banned
	leaving := da.NewEdgeRef(g.GetEdge(1), 1, 2)
	if w := tr.CalcWeight(leaving, false, 0); w < pkg.INF_WEIGHT {
		t.Fatalf("banned turn gave %v, want impassable", w)
	}

	// the backward search sees the same turn mirrored: it walks edge 0 with
	// edge 1 as the previous one
	arriving := da.NewEdgeRef(g.GetEdge(0), 1, 0)
	if w := tr.CalcWeight(arriving, true, 1); w < pkg.INF_WEIGHT {
		t.Fatalf("banned turn must hit the backward search too, got %v", w)
	}

	// without a previous edge there is no turn to check
	if w := tr.CalcWeight(leaving, false, da.INVALID_EDGE_ID); w != 100 {
		t.Fatalf("origin relaxation gave %v, want 100", w)
	}

	// the opposite turn, edge 1 via 1 into edge 0, is not banned
	if w := tr.CalcWeight(arriving, false, 1); w >= pkg.INF_WEIGHT {
		t.Fatalf("unbanned turn gave %v", w)
	}
}

func TestBlockedEdgesFunction(t *testing.T) {
	bf := NewBlockedEdgesFunction(NewDistanceCostFunction(), []da.Index{1})

	if w := bf.CalcWeight(edgeRef(1, 0, 1, 100, 60), false, da.INVALID_EDGE_ID); w < pkg.INF_WEIGHT {
		t.Fatalf("blocked edge gave %v, want impassable", w)
	}
	if w := bf.CalcWeight(edgeRef(0, 0, 1, 100, 60), false, da.INVALID_EDGE_ID); w != 100 {
		t.Fatalf("open edge gave %v, want 100", w)
	}
}
