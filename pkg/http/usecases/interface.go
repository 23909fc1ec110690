package usecases

import (
	da "github.com/meridian-nav/meridian/pkg/datastructure"
	"github.com/meridian-nav/meridian/pkg/engine"
	"github.com/meridian-nav/meridian/pkg/engine/routing"
	"github.com/meridian-nav/meridian/pkg/spatialindex"
)

type RoutingEngine interface {
	Route(from, to da.Index, algo engine.Algorithm) (routing.Path, engine.RouteStats, bool, error)
	DefaultAlgorithm() engine.Algorithm
	Graph() *da.Graph
}

type SpatialIndex interface {
	SnapToNetwork(lat, lon float64) (spatialindex.SnappedPoint, bool)
}
