package osmparser

import (
	"github.com/meridian-nav/meridian/pkg/datastructure"
)

// BuildGraph turns the scanned segments into the final graph. dense vertex
// ids were assigned in scan order, turn restriction relations are mapped
// onto edge id triples at their via vertex.
func (p *OsmParser) BuildGraph() *datastructure.Graph {
	vertices := make([]*datastructure.Vertex, len(p.nodeIDMap))
	for osmID, id := range p.nodeIDMap {
		coord := p.acceptedNodeMap[osmID]
		vertices[id] = datastructure.NewVertex(coord.lat, coord.lon, datastructure.Index(id))
	}

	edges := make([]*datastructure.Edge, 0, len(p.scannedEdges))
	edgeAt := make(map[uint64]datastructure.Index, len(p.scannedEdges))
	outEdges := make([][]datastructure.Index, len(vertices))
	for i, e := range p.scannedEdges {
		id := datastructure.Index(i)
		edges = append(edges, datastructure.NewEdge(id, datastructure.Index(e.from), datastructure.Index(e.to),
			e.distance, e.speed, true, e.twoWay, e.highwayType))
		edgeAt[undirectedKey(e.from, e.to)] = id
		outEdges[e.from] = append(outEdges[e.from], id)
		if e.twoWay {
			outEdges[e.to] = append(outEdges[e.to], id)
		}
	}

	return datastructure.NewGraph(vertices, edges, p.bannedTurns(edgeAt, outEdges))
}

// bannedTurns resolves the collected restriction relations into edge id
// triples. the entry edge is the segment reaching the via vertex on the from
// way, the exit edge the segment leaving it on the to way. a mandatory
// restriction bans every other exit at the via vertex instead.
func (p *OsmParser) bannedTurns(edgeAt map[uint64]datastructure.Index,
	outEdges [][]datastructure.Index) []datastructure.TurnKey {
	banned := make([]datastructure.TurnKey, 0)
	for fromWayID, way := range p.ways {
		for _, rest := range p.restrictions[fromWayID] {
			if fromWayID == rest.to {
				continue
			}
			viaID, ok := p.nodeIDMap[rest.via]
			if !ok {
				continue
			}
			toWay, ok := p.ways[rest.to]
			if !ok {
				continue
			}

			entryNode, ok := p.wayNeighborVertex(way, rest.via, true)
			if !ok {
				continue
			}
			exitNode, ok := p.wayNeighborVertex(toWay, rest.via, false)
			if !ok {
				continue
			}

			entryEdge, ok := edgeAt[undirectedKey(entryNode, viaID)]
			if !ok {
				continue
			}
			exitEdge, ok := edgeAt[undirectedKey(viaID, exitNode)]
			if !ok {
				continue
			}

			via := datastructure.Index(viaID)
			if rest.turnRestriction.mandatory() {
				for _, eid := range outEdges[viaID] {
					if eid == exitEdge {
						continue
					}
					banned = append(banned, datastructure.NewTurnKey(entryEdge, via, eid))
				}
			} else {
				banned = append(banned, datastructure.NewTurnKey(entryEdge, via, exitEdge))
			}
		}
	}
	return banned
}

// wayNeighborVertex walks the node chain of a way away from the via node
// until it meets a node that became a graph vertex, the far endpoint of the
// segment touching via. entry walks against node order first, exit along it,
// the opposite direction is only tried on two way streets.
func (p *OsmParser) wayNeighborVertex(way osmWay, viaOsmID int64, entry bool) (uint32, bool) {
	pos := -1
	for i, nodeID := range way.nodes {
		if nodeID == viaOsmID {
			pos = i
			break
		}
	}
	if pos == -1 {
		return 0, false
	}

	if entry {
		if id, ok := p.firstVertexBefore(way.nodes, pos); ok {
			return id, true
		}
		if way.oneWay {
			// no predecessor, travel cannot reach via on this way
			return 0, false
		}
		return p.firstVertexAfter(way.nodes, pos)
	}

	if id, ok := p.firstVertexAfter(way.nodes, pos); ok {
		return id, true
	}
	if way.oneWay {
		return 0, false
	}
	return p.firstVertexBefore(way.nodes, pos)
}

func (p *OsmParser) firstVertexBefore(nodes []int64, pos int) (uint32, bool) {
	for i := pos - 1; i >= 0; i-- {
		if id, ok := p.nodeIDMap[nodes[i]]; ok {
			return id, true
		}
	}
	return 0, false
}

func (p *OsmParser) firstVertexAfter(nodes []int64, pos int) (uint32, bool) {
	for i := pos + 1; i < len(nodes); i++ {
		if id, ok := p.nodeIDMap[nodes[i]]; ok {
			return id, true
		}
	}
	return 0, false
}

func undirectedKey(u, v uint32) uint64 {
	if u > v {
		u, v = v, u
	}
	return uint64(u)<<32 | uint64(v)
}
