package osmparser

import (
	"context"
	"io"
	"os"

	"github.com/meridian-nav/meridian/pkg"
	"github.com/meridian-nav/meridian/pkg/datastructure"
	"github.com/meridian-nav/meridian/pkg/geo"
	"github.com/meridian-nav/meridian/pkg/util"
	"github.com/paulmach/osm"
	"github.com/paulmach/osm/osmpbf"
	"go.uber.org/zap"
)

// OsmParser reads an openstreetmap pbf extract and builds the road network
// graph. the file is scanned twice: the first pass classifies way nodes and
// collects turn restriction relations, the second pass stores coordinates and
// splits the accepted ways into edges between junction nodes.
type OsmParser struct {
	log             *zap.Logger
	wayNodeMap      map[int64]NodeType
	acceptedNodeMap map[int64]nodeCoord
	barrierNodes    map[int64]bool
	nodeIDMap       map[int64]uint32
	maxNodeID       int64
	restrictions    map[int64][]restriction // from way id -> restrictions
	ways            map[int64]osmWay
	edgeSet         map[uint32]map[uint32]struct{}
	scannedEdges    []scannedEdge
	countWays       int
	countNodes      int
}

// scannedEdge is one road segment before graph construction. from/to are
// dense vertex ids, distance is in meter and speed in km/h. a two way
// segment is emitted once and carries access for both directions.
type scannedEdge struct {
	from        uint32
	to          uint32
	distance    float64
	speed       float64
	twoWay      bool
	highwayType pkg.OsmHighwayType
}

func NewOSMParser(log *zap.Logger) *OsmParser {
	return &OsmParser{
		log:             log,
		wayNodeMap:      make(map[int64]NodeType),
		acceptedNodeMap: make(map[int64]nodeCoord),
		barrierNodes:    make(map[int64]bool),
		nodeIDMap:       make(map[int64]uint32),
		restrictions:    make(map[int64][]restriction),
		ways:            make(map[int64]osmWay),
		edgeSet:         make(map[uint32]map[uint32]struct{}),
	}
}

func (p *OsmParser) Parse(mapFile string) (*datastructure.Graph, error) {
	f, err := os.Open(mapFile)
	if err != nil {
		return nil, util.WrapErrorf(err, util.ErrBadParamInput, "osmparser.Parse os.Open")
	}
	defer f.Close()

	// must not be parallel, node classification depends on scan order
	scanner := osmpbf.New(context.Background(), f, 0)
	for scanner.Scan() {
		p.scanFirstPass(scanner.Object())
	}
	if err := scanner.Err(); err != nil {
		scanner.Close()
		return nil, util.WrapErrorf(err, util.ErrInternalServerError, "osmparser.Parse first pass")
	}
	scanner.Close()

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, util.WrapErrorf(err, util.ErrInternalServerError, "osmparser.Parse f.Seek")
	}

	p.countWays = 0
	scanner = osmpbf.New(context.Background(), f, 0)
	defer scanner.Close()
	for scanner.Scan() {
		p.scanSecondPass(scanner.Object())
	}
	if err := scanner.Err(); err != nil {
		return nil, util.WrapErrorf(err, util.ErrInternalServerError, "osmparser.Parse second pass")
	}

	p.log.Info("openstreetmap extract scanned",
		zap.Int("ways", p.countWays), zap.Int("nodes", p.countNodes),
		zap.Int("vertices", len(p.nodeIDMap)), zap.Int("segments", len(p.scannedEdges)))

	return p.BuildGraph(), nil
}

// scanFirstPass classifies every node of the accepted ways. a node seen by
// two ways, or twice within one way, is a junction. turn restriction
// relations are collected keyed by their from way.
func (p *OsmParser) scanFirstPass(o osm.Object) {
	switch o.ObjectID().Type() {
	case osm.TypeWay:
		way := o.(*osm.Way)
		if len(way.Nodes) < 2 || !acceptOsmWay(way) {
			return
		}
		if (p.countWays+1)%50000 == 0 {
			p.log.Info("scanning openstreetmap ways", zap.Int("count", p.countWays+1))
		}
		p.countWays++

		for i, wayNode := range way.Nodes {
			if _, ok := p.wayNodeMap[int64(wayNode.ID)]; !ok {
				if i == 0 || i == len(way.Nodes)-1 {
					p.wayNodeMap[int64(wayNode.ID)] = END_NODE
				} else {
					p.wayNodeMap[int64(wayNode.ID)] = BETWEEN_NODE
				}
			} else {
				p.wayNodeMap[int64(wayNode.ID)] = JUNCTION_NODE
			}
		}
	case osm.TypeRelation:
		relation := o.(*osm.Relation)
		tagVal := relation.Tags.Find("restriction")
		if tagVal == "" {
			return
		}
		// https://www.openstreetmap.org/api/0.6/relation/5710500
		var from, via, to int64
		for _, member := range relation.Members {
			switch member.Role {
			case "from":
				from = member.Ref
			case "to":
				to = member.Ref
			default:
				if member.Type == osm.TypeNode {
					via = member.Ref
				}
			}
		}
		if from == 0 || via == 0 || to == 0 {
			return
		}
		p.restrictions[from] = append(p.restrictions[from], restriction{
			via:             via,
			to:              to,
			turnRestriction: parseTurnRestriction(tagVal),
		})
	}
}

// scanSecondPass stores coordinates and barrier flags for the classified
// nodes and processes the accepted ways. pbf files list nodes before ways,
// so the coordinates are complete when the first way arrives.
func (p *OsmParser) scanSecondPass(o osm.Object) {
	switch o.ObjectID().Type() {
	case osm.TypeNode:
		if (p.countNodes+1)%500000 == 0 {
			p.log.Info("processing openstreetmap nodes", zap.Int("count", p.countNodes+1))
		}
		p.countNodes++
		osmNode := o.(*osm.Node)

		p.maxNodeID = max(p.maxNodeID, int64(osmNode.ID))

		if _, ok := p.wayNodeMap[int64(osmNode.ID)]; ok {
			p.acceptedNodeMap[int64(osmNode.ID)] = nodeCoord{
				lat: osmNode.Lat,
				lon: osmNode.Lon,
			}
		}

		accessType := osmNode.Tags.Find("access")
		barrierType := osmNode.Tags.Find("barrier")
		if _, ok := acceptedBarrierType[barrierType]; ok && accessType == "no" {
			p.barrierNodes[int64(osmNode.ID)] = true
		}
	case osm.TypeWay:
		way := o.(*osm.Way)
		if len(way.Nodes) < 2 || !acceptOsmWay(way) {
			return
		}
		if (p.countWays+1)%50000 == 0 {
			p.log.Info("processing openstreetmap ways", zap.Int("count", p.countWays+1))
		}
		p.countWays++

		p.processWay(way)

		wayNodes := make([]int64, 0, len(way.Nodes))
		for _, wayNode := range way.Nodes {
			wayNodes = append(wayNodes, int64(wayNode.ID))
		}
		p.ways[int64(way.ID)] = osmWay{
			nodes:  wayNodes,
			oneWay: getWayExtraInfo(way).oneWay,
		}
	}
}

// processWay cuts a way at its junction nodes and hands every piece to
// processSegment. a junction node ends one segment and starts the next.
func (p *OsmParser) processWay(way *osm.Way) {
	highwayType := pkg.GetHighwayType(way.Tags.Find("highway"))

	maxSpeed := parseMaxSpeed(way)
	if maxSpeed == 0 {
		maxSpeed = pkg.DefaultSpeed(highwayType) * pkg.NERF_MAXSPEED_OSM
	}

	wayInfo := getWayExtraInfo(way)

	waySegment := []node{}
	for _, wayNode := range way.Nodes {
		nodeData := node{
			id:    int64(wayNode.ID),
			coord: p.acceptedNodeMap[int64(wayNode.ID)],
		}
		if p.isJunctionNode(nodeData.id) {
			waySegment = append(waySegment, nodeData)
			p.processSegment(waySegment, maxSpeed, highwayType, wayInfo)
			waySegment = []node{nodeData}
		} else {
			waySegment = append(waySegment, nodeData)
		}
	}
	if len(waySegment) > 1 {
		p.processSegment(waySegment, maxSpeed, highwayType, wayInfo)
	}
}

func (p *OsmParser) processSegment(segment []node, speed float64, highwayType pkg.OsmHighwayType,
	wayInfo wayExtraInfo) {
	if len(segment) == 2 && segment[0].id == segment[1].id {
		// skip
		return
	} else if len(segment) > 2 && segment[0].id == segment[len(segment)-1].id {
		// loop, split so both pieces have distinct endpoints
		p.splitOnBarriers(segment[0:len(segment)-1], speed, highwayType, wayInfo)
		p.splitOnBarriers(segment[len(segment)-2:], speed, highwayType, wayInfo)
	} else {
		p.splitOnBarriers(segment, speed, highwayType, wayInfo)
	}
}

// splitOnBarriers cuts a segment at impassable barrier nodes. the barrier
// node is duplicated under a fresh id so the two pieces stay disconnected.
func (p *OsmParser) splitOnBarriers(segment []node, speed float64, highwayType pkg.OsmHighwayType,
	wayInfo wayExtraInfo) {
	waySegment := []node{}
	for _, nodeData := range segment {
		if p.barrierNodes[nodeData.id] {
			if len(waySegment) != 0 {
				waySegment = append(waySegment, nodeData)
				p.addEdge(waySegment, speed, highwayType, wayInfo)
				waySegment = []node{}
			}
			nodeData = p.copyNode(nodeData)
		}
		waySegment = append(waySegment, nodeData)
	}
	if len(waySegment) > 1 {
		p.addEdge(waySegment, speed, highwayType, wayInfo)
	}
}

func (p *OsmParser) copyNode(nodeData node) node {
	// same coordinate under an unused osm id
	p.maxNodeID++
	p.acceptedNodeMap[p.maxNodeID] = nodeData.coord
	return node{id: p.maxNodeID, coord: nodeData.coord}
}

// addEdge emits one edge for the segment between two graph vertices. the
// endpoints get dense vertex ids, intermediate nodes only contribute to the
// accumulated distance. reversed oneways are flipped so travel always runs
// nodeA -> nodeB.
func (p *OsmParser) addEdge(segment []node, speed float64, highwayType pkg.OsmHighwayType,
	wayInfo wayExtraInfo) {
	from := segment[0]
	to := segment[len(segment)-1]
	if from.id == to.id {
		return
	}

	if _, ok := p.nodeIDMap[from.id]; !ok {
		p.nodeIDMap[from.id] = uint32(len(p.nodeIDMap))
	}
	if _, ok := p.nodeIDMap[to.id]; !ok {
		p.nodeIDMap[to.id] = uint32(len(p.nodeIDMap))
	}

	distance := 0.0
	for i := 1; i < len(segment); i++ {
		distance += geo.CalculateHaversineDistance(segment[i-1].coord.lat, segment[i-1].coord.lon,
			segment[i].coord.lat, segment[i].coord.lon)
	}
	distanceInMeter := distance * 1000

	fromID := p.nodeIDMap[from.id]
	toID := p.nodeIDMap[to.id]
	if wayInfo.oneWay && !wayInfo.forward {
		fromID, toID = toID, fromID
	}

	if p.hasEdge(fromID, toID) {
		return
	}
	p.markEdge(fromID, toID)
	if !wayInfo.oneWay {
		p.markEdge(toID, fromID)
	}

	p.scannedEdges = append(p.scannedEdges, scannedEdge{
		from:        fromID,
		to:          toID,
		distance:    distanceInMeter,
		speed:       speed,
		twoWay:      !wayInfo.oneWay,
		highwayType: highwayType,
	})
}

func (p *OsmParser) hasEdge(from, to uint32) bool {
	_, ok := p.edgeSet[from][to]
	return ok
}

func (p *OsmParser) markEdge(from, to uint32) {
	if _, ok := p.edgeSet[from]; !ok {
		p.edgeSet[from] = make(map[uint32]struct{})
	}
	p.edgeSet[from][to] = struct{}{}
}

func (p *OsmParser) isJunctionNode(nodeID int64) bool {
	return p.wayNodeMap[nodeID] == JUNCTION_NODE
}

func max(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}
