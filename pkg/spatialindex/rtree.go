package spatialindex

import (
	"math"

	da "github.com/meridian-nav/meridian/pkg/datastructure"
	"github.com/meridian-nav/meridian/pkg/geo"
	"github.com/tidwall/rtree"
	"go.uber.org/zap"
)

const (
	initialSnapRadiusKm = 0.3
	maxSnapRadiusKm     = 4.8
)

// SnappedPoint is the result of matching a raw coordinate onto the road
// network: the nearest edge, the projection of the query point onto it, and
// the vertex to start or end a route at.
type SnappedPoint struct {
	edge     da.Index
	vertex   da.Index
	snapped  geo.Coordinate
	distance float64
}

func (sp SnappedPoint) GetEdge() da.Index {
	return sp.edge
}

func (sp SnappedPoint) GetVertex() da.Index {
	return sp.vertex
}

func (sp SnappedPoint) GetSnappedCoordinate() geo.Coordinate {
	return sp.snapped
}

// GetDistance query point to snapped point, in meters.
func (sp SnappedPoint) GetDistance() float64 {
	return sp.distance
}

// Rtree indexes the bounding box of every plain edge for nearest road
// lookups. Shortcuts are skipped, they are not physical roads.
type Rtree struct {
	tr    *rtree.RTreeG[da.Index]
	graph *da.Graph
}

func NewRtree(graph *da.Graph) *Rtree {
	var tr rtree.RTreeG[da.Index]
	return &Rtree{
		tr:    &tr,
		graph: graph,
	}
}

func (rt *Rtree) Build(log *zap.Logger) {
	log.Info("building r-tree spatial index",
		zap.Int("edges", rt.graph.NumberOfEdges()))

	indexed := 0
	for _, e := range rt.graph.GetEdges() {
		if e.IsShortcut() {
			continue
		}
		aLat, aLon := rt.graph.GetVertexCoordinates(e.GetNodeA())
		bLat, bLon := rt.graph.GetVertexCoordinates(e.GetNodeB())

		min := [2]float64{math.Min(aLon, bLon), math.Min(aLat, bLat)}
		max := [2]float64{math.Max(aLon, bLon), math.Max(aLat, bLat)}
		rt.tr.Insert(min, max, e.GetId())
		indexed++
	}

	log.Info("r-tree spatial index built", zap.Int("indexed", indexed))
}

// SnapToNetwork finds the road nearest to (qLat, qLon). The search box starts
// small and doubles until something is inside it or the maximum radius is
// hit, so a point in open country still fails fast.
func (rt *Rtree) SnapToNetwork(qLat, qLon float64) (SnappedPoint, bool) {
	for radius := initialSnapRadiusKm; radius <= maxSnapRadiusKm; radius *= 2 {
		if sp, ok := rt.snapWithin(qLat, qLon, radius); ok {
			return sp, true
		}
	}
	return SnappedPoint{}, false
}

func (rt *Rtree) snapWithin(qLat, qLon, radiusKm float64) (SnappedPoint, bool) {
	lowerLat, lowerLon := geo.GetDestinationPoint(qLat, qLon, 225, radiusKm)
	upperLat, upperLon := geo.GetDestinationPoint(qLat, qLon, 45, radiusKm)

	query := geo.NewCoordinate(qLat, qLon)
	best := SnappedPoint{distance: math.MaxFloat64}
	found := false

	rt.tr.Search([2]float64{lowerLon, lowerLat}, [2]float64{upperLon, upperLat},
		func(min, max [2]float64, edgeId da.Index) bool {
			e := rt.graph.GetEdge(edgeId)
			aLat, aLon := rt.graph.GetVertexCoordinates(e.GetNodeA())
			bLat, bLon := rt.graph.GetVertexCoordinates(e.GetNodeB())
			a := geo.NewCoordinate(aLat, aLon)
			b := geo.NewCoordinate(bLat, bLon)

			snapped := geo.ProjectPointToLineCoord(a, b, query)
			dist := geo.CalculateHaversineDistance(qLat, qLon,
				snapped.GetLat(), snapped.GetLon()) * 1000

			if dist < best.distance {
				best = SnappedPoint{
					edge:     edgeId,
					vertex:   closerEndpoint(e, snapped, a, b),
					snapped:  snapped,
					distance: dist,
				}
				found = true
			}
			return true
		})

	return best, found
}

func closerEndpoint(e *da.Edge, snapped, a, b geo.Coordinate) da.Index {
	toA := geo.CalculateHaversineDistance(snapped.GetLat(), snapped.GetLon(), a.GetLat(), a.GetLon())
	toB := geo.CalculateHaversineDistance(snapped.GetLat(), snapped.GetLon(), b.GetLat(), b.GetLon())
	if toA <= toB {
		return e.GetNodeA()
	}
	return e.GetNodeB()
}
