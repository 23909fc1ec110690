package routing

import (
	da "github.com/meridian-nav/meridian/pkg/datastructure"
	"github.com/meridian-nav/meridian/pkg/geo"
)

// NewBidirectionalAStarLandmarks is the goal directed variant of the
// bidirectional search. It ranks open labels by exact cost plus the potential
// supplied by bounds, typically landmark triangle inequality bounds.
// https://www.microsoft.com/en-us/research/publication/computing-the-shortest-path-a-search-meets-graph-theory/
//
// The bounds must be balanced in the sense of LandmarkBounds, which is what
// lets the driver keep its plain stopping rule (Ikeda et al., average
// potential bidirectional a-star).
func NewBidirectionalAStarLandmarks(graph RoutingGraph, weighting CostFunction, mode TraversalMode,
	bounds LandmarkBounds) *BidirectionalSearch {

	return newBidirectionalSearch(graph, weighting, mode,
		approximatedEntryFactory{bounds: bounds, reverse: false},
		approximatedEntryFactory{bounds: bounds, reverse: true})
}

type vertexCoordinates interface {
	GetVertexCoordinates(u da.Index) (float64, float64)
}

// BeelineBounds is the landmark free potential: great circle distance run
// through the cost function's MinWeight. Much weaker than landmark bounds but
// available without any preprocessing.
type BeelineBounds struct {
	coords    vertexCoordinates
	weighting CostFunction
	fromLat   float64
	fromLon   float64
	toLat     float64
	toLon     float64
}

func NewBeelineBounds(coords vertexCoordinates, weighting CostFunction, from, to da.Index) *BeelineBounds {
	bb := &BeelineBounds{coords: coords, weighting: weighting}
	bb.fromLat, bb.fromLon = coords.GetVertexCoordinates(from)
	bb.toLat, bb.toLon = coords.GetVertexCoordinates(to)
	return bb
}

func (bb *BeelineBounds) Approximate(u da.Index, reverse bool) float64 {
	lat, lon := bb.coords.GetVertexCoordinates(u)
	toTarget := bb.weighting.MinWeight(geo.CalculateHaversineDistance(lat, lon, bb.toLat, bb.toLon) * 1000.0)
	fromSource := bb.weighting.MinWeight(geo.CalculateHaversineDistance(lat, lon, bb.fromLat, bb.fromLon) * 1000.0)
	potential := (toTarget - fromSource) / 2.0
	if reverse {
		return -potential
	}
	return potential
}
