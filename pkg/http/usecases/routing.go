package usecases

import (
	"errors"

	lru "github.com/hashicorp/golang-lru/v2"
	da "github.com/meridian-nav/meridian/pkg/datastructure"
	"github.com/meridian-nav/meridian/pkg/engine"
	"github.com/meridian-nav/meridian/pkg/geo"
	"github.com/meridian-nav/meridian/pkg/util"
	"go.uber.org/zap"
)

const routeCacheSize = 1 << 14

var errPathNotFound = errors.New("path not found")

type routeKey struct {
	from, to da.Index
	algo     engine.Algorithm
}

type cachedRoute struct {
	eta, dist float64
	polyline  string
	algorithm string
}

// RoutingService answers computeRoutes queries: snap both endpoints to the
// road network, run the requested search and render the path. Identical
// queries are served from an lru cache, the loaded graph never changes while
// the server runs.
type RoutingService struct {
	log          *zap.Logger
	engine       RoutingEngine
	spatialIndex SpatialIndex
	routeCache   *lru.Cache[routeKey, cachedRoute]
}

func NewRoutingService(log *zap.Logger, engine RoutingEngine,
	spatialIndex SpatialIndex) (*RoutingService, error) {

	routeCache, err := lru.New[routeKey, cachedRoute](routeCacheSize)
	if err != nil {
		return nil, err
	}
	return &RoutingService{
		log:          log,
		engine:       engine,
		spatialIndex: spatialIndex,
		routeCache:   routeCache,
	}, nil
}

func (rs *RoutingService) ShortestPath(origLat, origLon, dstLat, dstLon float64,
	algorithm string) (float64, float64, string, string, error) {

	from, to, err := rs.snapOrigDestToNearbyVertices(origLat, origLon, dstLat, dstLon)
	if err != nil {
		return 0, 0, "", "", err
	}

	algo := engine.Algorithm(algorithm)
	if algorithm == "" {
		algo = rs.engine.DefaultAlgorithm()
	}

	key := routeKey{from: from, to: to, algo: algo}
	if cached, ok := rs.routeCache.Get(key); ok {
		return cached.eta, cached.dist, cached.polyline, cached.algorithm, nil
	}

	path, stats, found, err := rs.engine.Route(from, to, algo)
	if err != nil {
		return 0, 0, "", "", err
	}
	if !found {
		return 0, 0, "", "", util.WrapErrorf(errPathNotFound, util.ErrNotFound,
			"no path found from %f,%f to %f,%f", origLat, origLon, dstLat, dstLon)
	}

	rs.log.Debug("route computed",
		zap.Uint32("from", uint32(from)), zap.Uint32("to", uint32(to)),
		zap.String("algorithm", string(stats.Algorithm)),
		zap.Int("visited", stats.Visited))

	route := cachedRoute{
		eta:       path.GetEta(),
		dist:      path.GetDist(),
		polyline:  rs.renderPolyline(path.GetVertices()),
		algorithm: string(stats.Algorithm),
	}
	rs.routeCache.Add(key, route)
	return route.eta, route.dist, route.polyline, route.algorithm, nil
}

func (rs *RoutingService) renderPolyline(vertices []da.Index) string {
	graph := rs.engine.Graph()
	coords := make([]geo.Coordinate, len(vertices))
	for i, v := range vertices {
		lat, lon := graph.GetVertexCoordinates(v)
		coords[i] = geo.NewCoordinate(lat, lon)
	}
	return geo.PolylineFromCoords(coords)
}
