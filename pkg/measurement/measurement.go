package measurement

import (
	"math"
	"time"

	da "github.com/meridian-nav/meridian/pkg/datastructure"
	"github.com/meridian-nav/meridian/pkg/engine"
	"github.com/meridian-nav/meridian/pkg/util"
	"go.uber.org/zap"
	"golang.org/x/exp/rand"
)

// Measurement benchmarks the loaded engine with seeded random queries. The
// same seed replays the same from/to pairs for every algorithm, so the
// reported search statistics are comparable across drivers and across runs.
type Measurement struct {
	log    *zap.Logger
	eng    *engine.Engine
	seed   uint64
	report *Report
}

type queryPair struct {
	from, to da.Index
}

func New(eng *engine.Engine, seed uint64, log *zap.Logger) *Measurement {
	m := &Measurement{
		log:    log,
		eng:    eng,
		seed:   seed,
		report: NewReport(),
	}
	graph := eng.Graph()
	m.report.Put("measurement.seed", seed)
	m.report.Put("graph.nodes", graph.NumberOfVertices())
	m.report.Put("graph.edges", graph.NumberOfEdges())
	m.report.Put("graph.banned_turns", len(graph.GetBannedTurns()))
	return m
}

func (m *Measurement) Report() *Report {
	return m.report
}

// randomPairs draws the query endpoints for one algorithm run. A fresh
// generator keeps the pairs identical for every algorithm measured.
func (m *Measurement) randomPairs(count int) []queryPair {
	rng := rand.New(rand.NewSource(m.seed))
	n := m.eng.Graph().NumberOfVertices()
	pairs := make([]queryPair, count)
	for i := range pairs {
		pairs[i] = queryPair{
			from: da.Index(rng.Intn(n)),
			to:   da.Index(rng.Intn(n)),
		}
	}
	return pairs
}

// floatStats accumulates min/mean/max over recorded samples.
type floatStats struct {
	min, max, sum float64
	count         int
}

func newFloatStats() floatStats {
	return floatStats{min: math.MaxFloat64, max: -math.MaxFloat64}
}

func (s *floatStats) record(v float64) {
	if v < s.min {
		s.min = v
	}
	if v > s.max {
		s.max = v
	}
	s.sum += v
	s.count++
}

func (s *floatStats) mean() float64 {
	if s.count == 0 {
		return 0
	}
	return s.sum / float64(s.count)
}

func (s *floatStats) minOrZero() float64 {
	if s.count == 0 {
		return 0
	}
	return s.min
}

func (s *floatStats) maxOrZero() float64 {
	if s.count == 0 {
		return 0
	}
	return s.max
}

// RunAlgorithm measures one search driver: warmup queries untimed, then
// count timed queries. Results land in the report under the algorithm name
// as key prefix.
func (m *Measurement) RunAlgorithm(algo engine.Algorithm, count, warmup int) error {
	if count <= 0 {
		return util.WrapErrorf(nil, util.ErrBadParamInput,
			"measurement: query count must be positive, got %d", count)
	}
	m.log.Info("measuring algorithm",
		zap.String("algorithm", string(algo)),
		zap.Int("queries", count), zap.Int("warmup", warmup))

	pairs := m.randomPairs(warmup + count)

	for _, p := range pairs[:warmup] {
		if _, _, _, err := m.eng.Route(p.from, p.to, algo); err != nil {
			return err
		}
	}

	elapsed := newFloatStats()
	visited := newFloatStats()
	distance := newFloatStats()
	failed := 0

	for _, p := range pairs[warmup:] {
		start := time.Now()
		path, stats, found, err := m.eng.Route(p.from, p.to, algo)
		took := time.Since(start)
		if err != nil {
			return err
		}
		elapsed.record(float64(took.Nanoseconds()) / 1e6)
		if !found {
			failed++
			continue
		}
		visited.record(float64(stats.Visited))
		distance.record(path.GetDist())
	}

	prefix := string(algo)
	m.report.Put(prefix+".queries", count)
	m.report.Put(prefix+".failed_count", failed)
	m.report.Put(prefix+".sum", elapsed.sum)
	m.report.Put(prefix+".min", elapsed.minOrZero())
	m.report.Put(prefix+".mean", elapsed.mean())
	m.report.Put(prefix+".max", elapsed.maxOrZero())
	m.report.Put(prefix+".visited_nodes_mean", visited.mean())
	m.report.Put(prefix+".visited_nodes_max", visited.maxOrZero())
	m.report.Put(prefix+".distance_min", distance.minOrZero())
	m.report.Put(prefix+".distance_mean", distance.mean())
	m.report.Put(prefix+".distance_max", distance.maxOrZero())

	m.log.Info("algorithm measured",
		zap.String("algorithm", string(algo)),
		zap.Float64("mean_ms", elapsed.mean()),
		zap.Float64("visited_mean", visited.mean()),
		zap.Int("failed", failed))
	return nil
}

// Run measures every given algorithm over the same seeded query pairs.
func (m *Measurement) Run(algos []engine.Algorithm, count, warmup int) error {
	start := time.Now()
	for _, algo := range algos {
		if err := m.RunAlgorithm(algo, count, warmup); err != nil {
			return err
		}
	}
	m.report.Put("measurement.queries", count)
	m.report.Put("measurement.warmup", warmup)
	m.report.Put("measurement.total_ms", float64(time.Since(start).Nanoseconds())/1e6)
	m.report.Put("measurement.finished", time.Now().Format(time.RFC3339))
	return nil
}
