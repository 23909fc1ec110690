package engine

import (
	"github.com/meridian-nav/meridian/pkg/costfunction"
	da "github.com/meridian-nav/meridian/pkg/datastructure"
	"github.com/meridian-nav/meridian/pkg/engine/routing"
	"github.com/meridian-nav/meridian/pkg/landmark"
	"github.com/meridian-nav/meridian/pkg/util"
	"go.uber.org/zap"
)

// Algorithm selects the search driver built for a query. the values double
// as api parameters and measurement prefixes.
type Algorithm string

const (
	DIJKSTRA    Algorithm = "dijkstra"
	DIJKSTRA_BI Algorithm = "dijkstrabi"
	ASTAR_LM_BI Algorithm = "astarbi_lm"
	DIJKSTRA_CH Algorithm = "dijkstrabi_ch"
)

// RouteStats carries the per query counters read by the measurement harness.
type RouteStats struct {
	Algorithm Algorithm
	Visited   int
	Relaxed   int
}

// Engine holds the loaded road network and builds a fresh single use search
// per query. the graph, cost function and landmark tables are immutable
// after load and shared by concurrent queries.
type Engine struct {
	log             *zap.Logger
	graph           *da.Graph
	weighting       routing.CostFunction
	mode            routing.TraversalMode
	landmarks       *landmark.Landmark
	hierarchical    bool
	maxVisitedNodes int
	activeLandmarks int
}

// NewEngine reads the serialized graph and the optional landmark tables.
// traversal switches to edge based when the graph carries banned turns, the
// hierarchy query is enabled when vertex levels are present.
func NewEngine(graphFilePath, landmarkFilePath string, logger *zap.Logger) (*Engine, error) {
	logger.Info("reading graph", zap.String("path", graphFilePath))
	graph, err := da.ReadGraph(graphFilePath)
	if err != nil {
		return nil, err
	}

	var landmarks *landmark.Landmark
	if landmarkFilePath != "" {
		logger.Info("reading landmark tables", zap.String("path", landmarkFilePath))
		landmarks, err = landmark.ReadLandmarks(landmarkFilePath)
		if err != nil {
			return nil, err
		}
	}

	e := NewEngineFromGraph(graph, landmarks, logger)
	logger.Info("routing engine ready",
		zap.Int("vertices", graph.NumberOfVertices()),
		zap.Int("edges", graph.NumberOfEdges()),
		zap.Bool("edge_based", e.mode == routing.EDGE_BASED),
		zap.Bool("hierarchical", e.hierarchical),
		zap.Bool("landmarks", landmarks != nil))
	return e, nil
}

// NewEngineFromGraph wraps an already built graph, used by the builder and
// the test harnesses.
func NewEngineFromGraph(graph *da.Graph, landmarks *landmark.Landmark, logger *zap.Logger) *Engine {
	var weighting routing.CostFunction = costfunction.NewTimeCostFunctionForGraph(graph)
	mode := routing.NODE_BASED
	if len(graph.GetBannedTurns()) > 0 {
		weighting = costfunction.NewTurnRestrictionFunction(weighting, graph)
		mode = routing.EDGE_BASED
	}

	hierarchical := false
	graph.ForVertices(func(v *da.Vertex) {
		if v.GetLevel() > 0 {
			hierarchical = true
		}
	})

	return &Engine{
		log:          logger,
		graph:        graph,
		weighting:    weighting,
		mode:         mode,
		landmarks:    landmarks,
		hierarchical: hierarchical,
	}
}

func (e *Engine) Graph() *da.Graph {
	return e.graph
}

func (e *Engine) Landmarks() *landmark.Landmark {
	return e.landmarks
}

func (e *Engine) Weighting() routing.CostFunction {
	return e.weighting
}

func (e *Engine) TraversalMode() routing.TraversalMode {
	return e.mode
}

func (e *Engine) Hierarchical() bool {
	return e.hierarchical
}

// SetMaxVisitedNodes bounds every query, 0 means unbounded.
func (e *Engine) SetMaxVisitedNodes(max int) {
	e.maxVisitedNodes = max
}

// SetActiveLandmarks overrides how many landmarks the ALT bounds consult per
// query, 0 keeps the landmark package default.
func (e *Engine) SetActiveLandmarks(count int) {
	e.activeLandmarks = count
}

// DefaultAlgorithm is the best driver the loaded data supports: hierarchy
// query on contracted graphs, ALT when landmark tables are loaded, plain
// bidirectional dijkstra otherwise.
func (e *Engine) DefaultAlgorithm() Algorithm {
	if e.hierarchical && e.mode == routing.NODE_BASED {
		return DIJKSTRA_CH
	}
	if e.landmarks != nil {
		return ASTAR_LM_BI
	}
	return DIJKSTRA_BI
}

// Route runs one query with a fresh search instance. found=false reports an
// unreachable destination, errors report invalid vertices or a broken cost
// function.
func (e *Engine) Route(from, to da.Index, algo Algorithm) (routing.Path, RouteStats, bool, error) {
	stats := RouteStats{Algorithm: algo}
	switch algo {
	case DIJKSTRA:
		search := routing.NewDijkstra(e.graph, e.weighting, e.mode)
		if e.maxVisitedNodes > 0 {
			search.SetMaxVisitedNodes(e.maxVisitedNodes)
		}
		path, found, err := search.SearchOneToOne(from, to)
		stats.Visited = search.Visited()
		stats.Relaxed = search.Relaxed()
		return path, stats, found, err

	case ASTAR_LM_BI:
		bounds, err := e.queryBounds(from, to)
		if err != nil {
			return routing.Path{}, stats, false, err
		}
		search := routing.NewBidirectionalAStarLandmarks(e.graph, e.weighting, e.mode, bounds)
		return e.runBidirectional(search, from, to, &stats)

	case DIJKSTRA_CH:
		if !e.hierarchical || e.mode == routing.EDGE_BASED {
			// no usable hierarchy, serve the query with the plain driver
			stats.Algorithm = DIJKSTRA_BI
			search := routing.NewBidirectionalDijkstra(e.graph, e.weighting, e.mode)
			return e.runBidirectional(search, from, to, &stats)
		}
		search := routing.NewBidirectionalDijkstraCH(e.graph, e.weighting)
		return e.runBidirectional(search, from, to, &stats)

	case DIJKSTRA_BI:
		search := routing.NewBidirectionalDijkstra(e.graph, e.weighting, e.mode)
		return e.runBidirectional(search, from, to, &stats)

	default:
		return routing.Path{}, stats, false, util.WrapErrorf(nil, util.ErrBadParamInput,
			"engine.Route unknown algorithm %q", algo)
	}
}

func (e *Engine) runBidirectional(search *routing.BidirectionalSearch, from, to da.Index,
	stats *RouteStats) (routing.Path, RouteStats, bool, error) {
	if e.maxVisitedNodes > 0 {
		search.SetMaxVisitedNodes(e.maxVisitedNodes)
	}
	path, found, err := search.Search(from, to)
	stats.Visited = search.VisitedForward() + search.VisitedBackward()
	stats.Relaxed = search.RelaxedForward() + search.RelaxedBackward()
	return path, *stats, found, err
}

// queryBounds builds the A* potential for one query: landmark triangle
// bounds when tables are loaded, the beeline bound otherwise.
func (e *Engine) queryBounds(from, to da.Index) (routing.LandmarkBounds, error) {
	if err := e.checkVertex(from); err != nil {
		return nil, err
	}
	if err := e.checkVertex(to); err != nil {
		return nil, err
	}
	if e.landmarks != nil {
		if e.activeLandmarks > 0 {
			return landmark.NewQueryBoundsActive(e.landmarks, from, to, e.activeLandmarks), nil
		}
		return landmark.NewQueryBounds(e.landmarks, from, to), nil
	}
	return routing.NewBeelineBounds(e.graph, e.weighting, from, to), nil
}

func (e *Engine) checkVertex(u da.Index) error {
	if int(u) >= e.graph.NumberOfVertices() {
		return util.WrapErrorf(nil, util.ErrBadParamInput,
			"engine: vertex %d outside graph with %d vertices", u, e.graph.NumberOfVertices())
	}
	return nil
}
