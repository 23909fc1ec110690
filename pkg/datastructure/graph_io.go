package datastructure

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/dsnet/compress/bzip2"
	"github.com/meridian-nav/meridian/pkg"
	"github.com/meridian-nav/meridian/pkg/util"
)

// graph file layout (bzip2 compressed text):
//
//	numVertices numEdges numBannedTurns
//	vertex lines:      id lat lon level
//	edge lines:        id nodeA nodeB dist speed accessFwd accessBwd hwType shortcut skippedA skippedB
//	banned turn lines: fromEdge viaNode toEdge
func (g *Graph) WriteGraph(filename string) error {
	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer f.Close()

	bz, err := bzip2.NewWriter(f, &bzip2.WriterConfig{})
	if err != nil {
		return err
	}

	w := bufio.NewWriter(bz)

	fmt.Fprintf(w, "%d %d %d\n", g.NumberOfVertices(), g.NumberOfEdges(), len(g.bannedTurns))

	for _, v := range g.vertices {
		latF := strconv.FormatFloat(v.lat, 'f', -1, 64)
		lonF := strconv.FormatFloat(v.lon, 'f', -1, 64)

		fmt.Fprintf(w, "%d %s %s %d\n", v.id, latF, lonF, v.level)
	}

	for _, e := range g.edges {
		distF := strconv.FormatFloat(e.dist, 'f', -1, 64)
		speedF := strconv.FormatFloat(e.speed, 'f', -1, 64)

		fmt.Fprintf(w, "%d %d %d %s %s %t %t %d %t %d %d\n",
			e.id, e.nodeA, e.nodeB, distF, speedF, e.accessFwd, e.accessBwd,
			e.highwayType, e.shortcut, e.skippedA, e.skippedB)
	}

	for _, turn := range g.GetBannedTurns() {
		fmt.Fprintf(w, "%d %d %d\n", turn.fromEdge, turn.viaNode, turn.toEdge)
	}

	if err := w.Flush(); err != nil {
		return err
	}
	// the bzip2 trailer only hits the file on close
	if err := bz.Close(); err != nil {
		return err
	}
	return f.Close()
}

func ReadGraph(filename string) (*Graph, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}

	defer f.Close()

	bz, err := bzip2.NewReader(f, nil)

	if err != nil {
		return nil, err
	}

	br := bufio.NewReader(bz)

	line, err := util.ReadLine(br)
	if err != nil {
		return nil, err
	}

	tokens := fields(line)
	if len(tokens) != 3 {
		return nil, util.WrapErrorf(nil, util.ErrBadParamInput, "malformed graph header %q", line)
	}

	numVertices, err := ParseIndex(tokens[0])
	if err != nil {
		return nil, err
	}

	numEdges, err := ParseIndex(tokens[1])
	if err != nil {
		return nil, err
	}

	numBannedTurns, err := ParseIndex(tokens[2])
	if err != nil {
		return nil, err
	}

	vertices := make([]*Vertex, numVertices)
	for i := 0; i < int(numVertices); i++ {
		vertexLine, err := util.ReadLine(br)
		if err != nil {
			return nil, err
		}
		vertices[i], err = parseVertex(vertexLine)
		if err != nil {
			return nil, err
		}
	}

	edges := make([]*Edge, numEdges)
	for i := 0; i < int(numEdges); i++ {
		edgeLine, err := util.ReadLine(br)
		if err != nil {
			return nil, err
		}
		edges[i], err = parseEdge(edgeLine)
		if err != nil {
			return nil, err
		}
	}

	bannedTurns := make([]TurnKey, numBannedTurns)
	for i := 0; i < int(numBannedTurns); i++ {
		turnLine, err := util.ReadLine(br)
		if err != nil {
			return nil, err
		}
		bannedTurns[i], err = parseTurnKey(turnLine)
		if err != nil {
			return nil, err
		}
	}

	return NewGraph(vertices, edges, bannedTurns), nil
}

func fields(line string) []string {
	return strings.Fields(line)
}

func ParseIndex(token string) (Index, error) {
	v, err := strconv.ParseUint(token, 10, 32)
	if err != nil {
		return 0, err
	}
	return Index(v), nil
}

func parseVertex(line string) (*Vertex, error) {
	tokens := fields(line)
	if len(tokens) != 4 {
		return nil, util.WrapErrorf(nil, util.ErrBadParamInput, "malformed vertex line %q", line)
	}

	id, err := ParseIndex(tokens[0])
	if err != nil {
		return nil, err
	}
	lat, err := strconv.ParseFloat(tokens[1], 64)
	if err != nil {
		return nil, err
	}
	lon, err := strconv.ParseFloat(tokens[2], 64)
	if err != nil {
		return nil, err
	}
	level, err := strconv.ParseInt(tokens[3], 10, 16)
	if err != nil {
		return nil, err
	}

	v := NewVertex(lat, lon, id)
	v.SetLevel(int16(level))
	return v, nil
}

func parseEdge(line string) (*Edge, error) {
	tokens := fields(line)
	if len(tokens) != 11 {
		return nil, util.WrapErrorf(nil, util.ErrBadParamInput, "malformed edge line %q", line)
	}

	id, err := ParseIndex(tokens[0])
	if err != nil {
		return nil, err
	}
	nodeA, err := ParseIndex(tokens[1])
	if err != nil {
		return nil, err
	}
	nodeB, err := ParseIndex(tokens[2])
	if err != nil {
		return nil, err
	}
	dist, err := strconv.ParseFloat(tokens[3], 64)
	if err != nil {
		return nil, err
	}
	speed, err := strconv.ParseFloat(tokens[4], 64)
	if err != nil {
		return nil, err
	}
	accessFwd, err := strconv.ParseBool(tokens[5])
	if err != nil {
		return nil, err
	}
	accessBwd, err := strconv.ParseBool(tokens[6])
	if err != nil {
		return nil, err
	}
	hwType, err := strconv.ParseUint(tokens[7], 10, 8)
	if err != nil {
		return nil, err
	}
	shortcut, err := strconv.ParseBool(tokens[8])
	if err != nil {
		return nil, err
	}
	skippedA, err := ParseIndex(tokens[9])
	if err != nil {
		return nil, err
	}
	skippedB, err := ParseIndex(tokens[10])
	if err != nil {
		return nil, err
	}

	if shortcut {
		return NewShortcutEdge(id, nodeA, nodeB, dist, speed, accessFwd, accessBwd, skippedA, skippedB), nil
	}

	e := NewEdge(id, nodeA, nodeB, dist, speed, accessFwd, accessBwd, pkg.OsmHighwayType(hwType))
	return e, nil
}

func parseTurnKey(line string) (TurnKey, error) {
	tokens := fields(line)
	if len(tokens) != 3 {
		return TurnKey{}, util.WrapErrorf(nil, util.ErrBadParamInput, "malformed turn line %q", line)
	}

	fromEdge, err := ParseIndex(tokens[0])
	if err != nil {
		return TurnKey{}, err
	}
	viaNode, err := ParseIndex(tokens[1])
	if err != nil {
		return TurnKey{}, err
	}
	toEdge, err := ParseIndex(tokens[2])
	if err != nil {
		return TurnKey{}, err
	}

	return NewTurnKey(fromEdge, viaNode, toEdge), nil
}
