package landmark

import (
	"math"
	"sort"

	"github.com/meridian-nav/meridian/pkg"
	"github.com/meridian-nav/meridian/pkg/concurrent"
	da "github.com/meridian-nav/meridian/pkg/datastructure"
	"github.com/meridian-nav/meridian/pkg/engine/routing"
	"github.com/meridian-nav/meridian/pkg/util"
	"go.uber.org/zap"
)

// maximum number of landmarks a table may hold. More landmarks sharpen the
// bounds but every query pays O(k) per relaxed label.
const maxLandmarks = 64

// Landmark holds the ALT preprocessing output: per landmark L the distances
// d(L,v) to every vertex and d(v,L) from every vertex. Immutable after build
// or load, safe for concurrent readers.
//
// [1] Goldberg, A.V. and Harrelson, C. (2005) 'Computing the shortest path: A*
// search meets graph theory', SODA '05, pp. 156-165.
type Landmark struct {
	landmarks []da.Index
	// distFrom[i][v] = d(landmark_i, v), distTo[v][i] = d(v, landmark_i)
	distFrom [][]float64
	distTo   [][]float64
}

func NewLandmark() *Landmark {
	return &Landmark{}
}

func (lm *Landmark) Count() int {
	return len(lm.landmarks)
}

func (lm *Landmark) GetLandmarks() []da.Index {
	return lm.landmarks
}

// SelectLandmarks picks k vertices spread over the rim of the network, the
// planar selection of section 7 in [1]: walk k equally spaced bearings around
// the bounding box center and take the vertex that projects farthest along
// each bearing. Far apart landmarks give tight bounds for most queries.
func SelectLandmarks(graph *da.Graph, k int) []da.Index {
	n := graph.NumberOfVertices()
	if k > n {
		k = n
	}

	chosen := make([]da.Index, 0, k)
	taken := make(map[da.Index]struct{}, k)
	step := 360.0 / float64(k)

	theta := 0.0
	for i := 0; i < k; i++ {
		thetaRad := util.DegreeToRadians(theta)
		sinT, cosT := math.Sin(thetaRad), math.Cos(thetaRad)

		best := da.INVALID_VERTEX_ID
		bestProj := -math.MaxFloat64
		graph.ForVertices(func(v *da.Vertex) {
			if _, dup := taken[v.GetID()]; dup {
				return
			}
			proj := v.GetLon()*cosT + v.GetLat()*sinT
			if proj > bestProj {
				bestProj = proj
				best = v.GetID()
			}
		})
		if best != da.INVALID_VERTEX_ID {
			chosen = append(chosen, best)
			taken[best] = struct{}{}
		}
		theta += step
	}
	return chosen
}

// tableJob asks for both distance tables of one landmark.
type tableJob struct {
	slot     int
	landmark da.Index
}

type tableResult struct {
	slot     int
	from, to []float64
	err      error
}

// BuildTables runs one forward and one backward one to all search per
// landmark, fanned out over workers goroutines. The cost function must be the
// one later queried with, bounds from a different metric are useless.
func (lm *Landmark) BuildTables(graph *da.Graph, weighting routing.CostFunction,
	landmarks []da.Index, workers int, logger *zap.Logger) error {

	if len(landmarks) > maxLandmarks {
		return util.WrapErrorf(nil, util.ErrBadParamInput,
			"%d landmarks exceed the maximum of %d", len(landmarks), maxLandmarks)
	}
	k := len(landmarks)
	n := graph.NumberOfVertices()
	logger.Info("computing landmark distance tables",
		zap.Int("landmarks", k), zap.Int("vertices", n), zap.Int("workers", workers))

	lm.landmarks = append([]da.Index(nil), landmarks...)
	lm.distFrom = make([][]float64, k)
	lm.distTo = make([][]float64, n)
	for v := 0; v < n; v++ {
		lm.distTo[v] = make([]float64, k)
	}

	pool := concurrent.NewWorkerPool[tableJob, tableResult](workers, k)
	pool.Start(func(job tableJob) tableResult {
		fwd := routing.NewDijkstra(graph, weighting, routing.NODE_BASED)
		fromTree, err := fwd.SearchOneToAll(job.landmark)
		if err != nil {
			return tableResult{slot: job.slot, err: err}
		}
		bwd := routing.NewReverseDijkstra(graph, weighting, routing.NODE_BASED)
		toTree, err := bwd.SearchOneToAll(job.landmark)
		if err != nil {
			return tableResult{slot: job.slot, err: err}
		}
		return tableResult{slot: job.slot, from: fromTree.Weights(), to: toTree.Weights()}
	})

	for slot, l := range landmarks {
		pool.Submit(tableJob{slot: slot, landmark: l})
	}
	pool.Close()
	go pool.Wait()

	for res := range pool.Results() {
		if res.err != nil {
			return res.err
		}
		lm.distFrom[res.slot] = res.from
		for v := 0; v < n; v++ {
			lm.distTo[v][res.slot] = res.to[v]
		}
	}

	logger.Info("landmark distance tables ready", zap.Int("landmarks", k))
	return nil
}

// TightestLowerBound is the triangle inequality bound on d(u,t), the maximum
// over all landmarks of d(u,L)-d(t,L) and d(L,t)-d(L,u), clamped to zero.
// Landmarks that cannot reach one of the vertices contribute nothing.
func (lm *Landmark) TightestLowerBound(u, t da.Index) float64 {
	bound := 0.0
	for i := range lm.landmarks {
		if lm.distTo[u][i] >= pkg.INF_WEIGHT || lm.distTo[t][i] >= pkg.INF_WEIGHT ||
			lm.distFrom[i][u] >= pkg.INF_WEIGHT || lm.distFrom[i][t] >= pkg.INF_WEIGHT {
			continue
		}
		if lb := lm.distTo[u][i] - lm.distTo[t][i]; lb > bound {
			bound = lb
		}
		if lb := lm.distFrom[i][t] - lm.distFrom[i][u]; lb > bound {
			bound = lb
		}
	}
	return bound
}

// QueryBounds adapts the landmark tables to one (source, target) pair as the
// balanced potential the bidirectional a-star needs:
//
//	forward(u)  = (bound(u,target) - bound(source->u proxy)) / 2
//	backward(u) = -forward(u)
//
// the averaging trick of Ikeda et al., VNIS'94. Only the activeCount
// landmarks most relevant to the pair are consulted per call.
type QueryBounds struct {
	lm     *Landmark
	active []int
	source da.Index
	target da.Index
}

const defaultActiveLandmarks = 6

func NewQueryBounds(lm *Landmark, source, target da.Index) *QueryBounds {
	return NewQueryBoundsActive(lm, source, target, defaultActiveLandmarks)
}

// NewQueryBoundsActive keeps the activeCount landmarks whose triangle bound
// on d(source,target) is largest. Scoring them once up front is much cheaper
// than consulting every landmark for every relaxed label.
func NewQueryBoundsActive(lm *Landmark, source, target da.Index, activeCount int) *QueryBounds {
	k := lm.Count()
	if activeCount > k {
		activeCount = k
	}

	type scored struct {
		slot  int
		bound float64
	}
	scores := make([]scored, 0, k)
	for i := 0; i < k; i++ {
		b := 0.0
		if lm.distTo[source][i] < pkg.INF_WEIGHT && lm.distTo[target][i] < pkg.INF_WEIGHT {
			b = math.Max(b, lm.distTo[source][i]-lm.distTo[target][i])
		}
		if lm.distFrom[i][target] < pkg.INF_WEIGHT && lm.distFrom[i][source] < pkg.INF_WEIGHT {
			b = math.Max(b, lm.distFrom[i][target]-lm.distFrom[i][source])
		}
		scores = append(scores, scored{slot: i, bound: b})
	}
	sort.Slice(scores, func(i, j int) bool { return scores[i].bound > scores[j].bound })

	active := make([]int, activeCount)
	for i := 0; i < activeCount; i++ {
		active[i] = scores[i].slot
	}
	return &QueryBounds{lm: lm, active: active, source: source, target: target}
}

func (qb *QueryBounds) boundBetween(u, t da.Index) float64 {
	bound := 0.0
	for _, i := range qb.active {
		if qb.lm.distTo[u][i] < pkg.INF_WEIGHT && qb.lm.distTo[t][i] < pkg.INF_WEIGHT {
			if lb := qb.lm.distTo[u][i] - qb.lm.distTo[t][i]; lb > bound {
				bound = lb
			}
		}
		if qb.lm.distFrom[i][t] < pkg.INF_WEIGHT && qb.lm.distFrom[i][u] < pkg.INF_WEIGHT {
			if lb := qb.lm.distFrom[i][t] - qb.lm.distFrom[i][u]; lb > bound {
				bound = lb
			}
		}
	}
	return bound
}

func (qb *QueryBounds) Approximate(u da.Index, reverse bool) float64 {
	potential := (qb.boundBetween(u, qb.target) - qb.boundBetween(qb.source, u)) / 2.0
	if reverse {
		return -potential
	}
	return potential
}
