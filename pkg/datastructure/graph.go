package datastructure

import (
	"math"
	"sort"

	"github.com/meridian-nav/meridian/pkg"
)

type Index uint32

const (
	INVALID_VERTEX_ID Index = math.MaxUint32
	INVALID_EDGE_ID   Index = math.MaxUint32
)

type Direction uint8

const (
	FORWARD Direction = iota
	BACKWARD
)

type Vertex struct {
	lat   float64
	lon   float64
	level int16 // contraction level. 0 everywhere on a plain graph
	id    Index
}

func NewVertex(lat, lon float64, id Index) *Vertex {
	return &Vertex{
		lat: lat,
		lon: lon,
		id:  id,
	}
}

func (v *Vertex) GetID() Index {
	return v.id
}

func (v *Vertex) GetLat() float64 {
	return v.lat
}

func (v *Vertex) GetLon() float64 {
	return v.lon
}

func (v *Vertex) GetLevel() int16 {
	return v.level
}

func (v *Vertex) SetLevel(level int16) {
	v.level = level
}

func (v *Vertex) SetId(id Index) {
	v.id = id
}

// Edge is one road segment. a segment is stored once and carries an access
// flag per travel direction; a shortcut edge replaces the two edges
// skippedA/skippedB found during contraction.
type Edge struct {
	nodeA, nodeB Index
	dist         float64 // meter
	speed        float64 // km/h
	accessFwd    bool    // nodeA -> nodeB traversable
	accessBwd    bool    // nodeB -> nodeA traversable
	highwayType  pkg.OsmHighwayType
	shortcut     bool
	skippedA     Index
	skippedB     Index
	id           Index
}

func NewEdge(id, nodeA, nodeB Index, dist, speed float64, accessFwd, accessBwd bool,
	highwayType pkg.OsmHighwayType) *Edge {
	return &Edge{
		id:          id,
		nodeA:       nodeA,
		nodeB:       nodeB,
		dist:        dist,
		speed:       speed,
		accessFwd:   accessFwd,
		accessBwd:   accessBwd,
		highwayType: highwayType,
		skippedA:    INVALID_EDGE_ID,
		skippedB:    INVALID_EDGE_ID,
	}
}

func NewShortcutEdge(id, nodeA, nodeB Index, dist, speed float64, accessFwd, accessBwd bool,
	skippedA, skippedB Index) *Edge {
	return &Edge{
		id:          id,
		nodeA:       nodeA,
		nodeB:       nodeB,
		dist:        dist,
		speed:       speed,
		accessFwd:   accessFwd,
		accessBwd:   accessBwd,
		highwayType: pkg.UNKNOWN,
		shortcut:    true,
		skippedA:    skippedA,
		skippedB:    skippedB,
	}
}

func (e *Edge) GetId() Index {
	return e.id
}

func (e *Edge) GetNodeA() Index {
	return e.nodeA
}

func (e *Edge) GetNodeB() Index {
	return e.nodeB
}

func (e *Edge) GetDist() float64 {
	return e.dist
}

func (e *Edge) GetSpeed() float64 {
	return e.speed
}

func (e *Edge) GetHighwayType() pkg.OsmHighwayType {
	return e.highwayType
}

func (e *Edge) IsShortcut() bool {
	return e.shortcut
}

func (e *Edge) GetSkippedA() Index {
	return e.skippedA
}

func (e *Edge) GetSkippedB() Index {
	return e.skippedB
}

func (e *Edge) IsAccessForward() bool {
	return e.accessFwd
}

func (e *Edge) IsAccessBackward() bool {
	return e.accessBwd
}

// travel time over the full segment in minutes.
func (e *Edge) TravelTime() float64 {
	if e.speed <= 0 {
		return pkg.INF_WEIGHT
	}
	return e.dist / 1000.0 / e.speed * 60.0
}

// EdgeRef is one incident edge as seen from the base vertex of an iteration.
// for out iterations travel runs baseNode -> adjNode, for in iterations
// adjNode -> baseNode.
type EdgeRef struct {
	edge     *Edge
	baseNode Index
	adjNode  Index
}

func NewEdgeRef(edge *Edge, baseNode, adjNode Index) EdgeRef {
	return EdgeRef{edge: edge, baseNode: baseNode, adjNode: adjNode}
}

func (e EdgeRef) GetEdge() *Edge {
	return e.edge
}

func (e EdgeRef) GetEdgeId() Index {
	return e.edge.id
}

func (e EdgeRef) GetBaseNode() Index {
	return e.baseNode
}

func (e EdgeRef) GetAdjNode() Index {
	return e.adjNode
}

type TurnKey struct {
	fromEdge Index
	viaNode  Index
	toEdge   Index
}

func NewTurnKey(fromEdge, viaNode, toEdge Index) TurnKey {
	return TurnKey{fromEdge: fromEdge, viaNode: viaNode, toEdge: toEdge}
}

func (t TurnKey) GetFromEdge() Index {
	return t.fromEdge
}

func (t TurnKey) GetViaNode() Index {
	return t.viaNode
}

func (t TurnKey) GetToEdge() Index {
	return t.toEdge
}

// Graph is the road network. incidence lists are flattened into one array
// with a first-offset per vertex, every edge appears in the list of both its
// endpoints (once for self loops). immutable after construction, safe for
// concurrent readers.
type Graph struct {
	vertices    []*Vertex
	edges       []*Edge
	firstEdge   []Index
	incident    []Index
	bannedTurns map[TurnKey]struct{}
	maxSpeed    float64
}

func NewGraph(vertices []*Vertex, edges []*Edge, bannedTurns []TurnKey) *Graph {
	g := &Graph{
		vertices:    vertices,
		edges:       edges,
		bannedTurns: make(map[TurnKey]struct{}, len(bannedTurns)),
	}
	for _, turn := range bannedTurns {
		g.bannedTurns[turn] = struct{}{}
	}
	g.buildIncidence()
	g.maxSpeed = pkg.MAX_SPEED_KMH
	for _, e := range edges {
		if !e.shortcut && e.speed > g.maxSpeed {
			g.maxSpeed = e.speed
		}
	}
	return g
}

func (g *Graph) buildIncidence() {
	n := len(g.vertices)
	degree := make([]Index, n+1)
	for _, e := range g.edges {
		degree[e.nodeA+1]++
		if e.nodeB != e.nodeA {
			degree[e.nodeB+1]++
		}
	}

	g.firstEdge = make([]Index, n+1)
	for i := 1; i <= n; i++ {
		g.firstEdge[i] = g.firstEdge[i-1] + degree[i]
	}

	g.incident = make([]Index, g.firstEdge[n])
	fill := make([]Index, n)
	for _, e := range g.edges {
		g.incident[g.firstEdge[e.nodeA]+fill[e.nodeA]] = e.id
		fill[e.nodeA]++
		if e.nodeB != e.nodeA {
			g.incident[g.firstEdge[e.nodeB]+fill[e.nodeB]] = e.id
			fill[e.nodeB]++
		}
	}

	// incident lists sorted by edge id so iteration order never depends on
	// input edge order
	for u := 0; u < n; u++ {
		lo, hi := g.firstEdge[u], g.firstEdge[u+1]
		part := g.incident[lo:hi]
		sort.Slice(part, func(i, j int) bool { return part[i] < part[j] })
	}
}

func (g *Graph) NumberOfVertices() int {
	return len(g.vertices)
}

func (g *Graph) NumberOfEdges() int {
	return len(g.edges)
}

func (g *Graph) GetVertex(u Index) *Vertex {
	return g.vertices[u]
}

func (g *Graph) GetVertices() []*Vertex {
	return g.vertices
}

func (g *Graph) GetEdge(e Index) *Edge {
	return g.edges[e]
}

func (g *Graph) GetEdges() []*Edge {
	return g.edges
}

func (g *Graph) GetVertexLevel(u Index) int16 {
	return g.vertices[u].level
}

func (g *Graph) GetVertexCoordinates(u Index) (float64, float64) {
	v := g.vertices[u]
	return v.lat, v.lon
}

// GetMaxSpeed highest non-shortcut edge speed in km/h, used by the beeline
// lower bound.
func (g *Graph) GetMaxSpeed() float64 {
	return g.maxSpeed
}

func (g *Graph) IsTurnRestricted(fromEdge, viaNode, toEdge Index) bool {
	_, banned := g.bannedTurns[NewTurnKey(fromEdge, viaNode, toEdge)]
	return banned
}

func (g *Graph) GetBannedTurns() []TurnKey {
	turns := make([]TurnKey, 0, len(g.bannedTurns))
	for turn := range g.bannedTurns {
		turns = append(turns, turn)
	}
	sort.Slice(turns, func(i, j int) bool {
		a, b := turns[i], turns[j]
		if a.fromEdge != b.fromEdge {
			return a.fromEdge < b.fromEdge
		}
		if a.viaNode != b.viaNode {
			return a.viaNode < b.viaNode
		}
		return a.toEdge < b.toEdge
	})
	return turns
}

// ForOutEdgesOf calls handle for every edge traversable away from u.
func (g *Graph) ForOutEdgesOf(u Index, handle func(e EdgeRef)) {
	for i := g.firstEdge[u]; i < g.firstEdge[u+1]; i++ {
		edge := g.edges[g.incident[i]]
		if edge.nodeA == u && edge.accessFwd {
			handle(EdgeRef{edge: edge, baseNode: u, adjNode: edge.nodeB})
		} else if edge.nodeB == u && edge.accessBwd {
			handle(EdgeRef{edge: edge, baseNode: u, adjNode: edge.nodeA})
		}
	}
}

// ForInEdgesOf calls handle for every edge traversable toward u. adjNode of
// the callback ref is the travel tail.
func (g *Graph) ForInEdgesOf(u Index, handle func(e EdgeRef)) {
	for i := g.firstEdge[u]; i < g.firstEdge[u+1]; i++ {
		edge := g.edges[g.incident[i]]
		if edge.nodeB == u && edge.accessFwd {
			handle(EdgeRef{edge: edge, baseNode: u, adjNode: edge.nodeA})
		} else if edge.nodeA == u && edge.accessBwd {
			handle(EdgeRef{edge: edge, baseNode: u, adjNode: edge.nodeB})
		}
	}
}

func (g *Graph) ForEdgesOf(u Index, dir Direction, handle func(e EdgeRef)) {
	if dir == FORWARD {
		g.ForOutEdgesOf(u, handle)
	} else {
		g.ForInEdgesOf(u, handle)
	}
}

func (g *Graph) ForVertices(handle func(v *Vertex)) {
	for _, v := range g.vertices {
		handle(v)
	}
}

// BoundingBox of all vertices: minLat, minLon, maxLat, maxLon.
func (g *Graph) BoundingBox() (float64, float64, float64, float64) {
	minLat, minLon := math.MaxFloat64, math.MaxFloat64
	maxLat, maxLon := -math.MaxFloat64, -math.MaxFloat64
	for _, v := range g.vertices {
		minLat = math.Min(minLat, v.lat)
		minLon = math.Min(minLon, v.lon)
		maxLat = math.Max(maxLat, v.lat)
		maxLon = math.Max(maxLon, v.lon)
	}
	return minLat, minLon, maxLat, maxLon
}
