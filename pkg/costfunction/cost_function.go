package costfunction

import (
	"github.com/meridian-nav/meridian/pkg"
	da "github.com/meridian-nav/meridian/pkg/datastructure"
)

// TimeFunction weights edges by travel time in minutes. maxSpeed caps how
// fast any road can be traveled and anchors the MinWeight lower bound.
type TimeFunction struct {
	maxSpeed float64
}

func NewTimeCostFunction() *TimeFunction {
	return &TimeFunction{maxSpeed: pkg.MAX_SPEED_KMH}
}

// NewTimeCostFunctionForGraph binds the lower bound to the fastest road of
// graph, so beeline bounds stay admissible when a road exceeds MAX_SPEED_KMH.
func NewTimeCostFunctionForGraph(graph *da.Graph) *TimeFunction {
	return &TimeFunction{maxSpeed: graph.GetMaxSpeed()}
}

const (
	fallbackSpeed = 20.0 // km/h
)

func (tf *TimeFunction) CalcWeight(e da.EdgeRef, reverse bool, prevEdgeId da.Index) float64 {
	edge := e.GetEdge()
	speed := edge.GetSpeed()
	if speed < 0 {
		return pkg.INF_WEIGHT
	}
	if speed == 0 {
		speed = fallbackSpeed
	}
	return edge.GetDist() / 1000.0 / speed * 60.0
}

// MinWeight cheapest conceivable cost for dist meters, travel at the highest
// speed any road allows. Goal direction estimates build on this staying
// admissible.
func (tf *TimeFunction) MinWeight(dist float64) float64 {
	return dist / 1000.0 / tf.maxSpeed * 60.0
}

func (tf *TimeFunction) Name() string {
	return "fastest"
}

// DistanceFunction weights edges by length in meters.
type DistanceFunction struct {
}

func NewDistanceCostFunction() *DistanceFunction {
	return &DistanceFunction{}
}

func (df *DistanceFunction) CalcWeight(e da.EdgeRef, reverse bool, prevEdgeId da.Index) float64 {
	return e.GetEdge().GetDist()
}

func (df *DistanceFunction) MinWeight(dist float64) float64 {
	return dist
}

func (df *DistanceFunction) Name() string {
	return "shortest"
}
