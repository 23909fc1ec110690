package osmparser

import (
	"strconv"
	"strings"

	"github.com/paulmach/osm"
)

// NodeType classifies how an osm node is used by the accepted ways. a node
// shared by more than one way is a junction and becomes a graph vertex.
type NodeType uint8

const (
	END_NODE NodeType = iota
	BETWEEN_NODE
	JUNCTION_NODE
)

type TurnRestriction uint8

const (
	NO_RESTRICTION TurnRestriction = iota
	NO_LEFT_TURN
	NO_RIGHT_TURN
	NO_STRAIGHT_ON
	NO_U_TURN
	NO_ENTRY
	ONLY_LEFT_TURN
	ONLY_RIGHT_TURN
	ONLY_STRAIGHT_ON
)

// https://wiki.openstreetmap.org/wiki/Relation:restriction
func parseTurnRestriction(value string) TurnRestriction {
	switch value {
	case "no_left_turn":
		return NO_LEFT_TURN
	case "no_right_turn":
		return NO_RIGHT_TURN
	case "no_straight_on":
		return NO_STRAIGHT_ON
	case "no_u_turn":
		return NO_U_TURN
	case "no_entry", "no_exit":
		return NO_ENTRY
	case "only_left_turn":
		return ONLY_LEFT_TURN
	case "only_right_turn":
		return ONLY_RIGHT_TURN
	case "only_straight_on":
		return ONLY_STRAIGHT_ON
	default:
		return NO_RESTRICTION
	}
}

// mandatory restrictions ban every exit at the via node except the one the
// relation names.
func (t TurnRestriction) mandatory() bool {
	return t == ONLY_LEFT_TURN || t == ONLY_RIGHT_TURN || t == ONLY_STRAIGHT_ON
}

type node struct {
	id    int64
	coord nodeCoord
}

type nodeCoord struct {
	lat float64
	lon float64
}

// restriction is one turn restriction relation keyed by its from way. via is
// the osm node id, to the osm way id.
type restriction struct {
	via             int64
	to              int64
	turnRestriction TurnRestriction
}

// osmWay keeps the node chain of an accepted way for restriction mapping
// after the scan.
type osmWay struct {
	nodes  []int64
	oneWay bool
}

type wayExtraInfo struct {
	oneWay  bool
	forward bool
}

var (
	// https://wiki.openstreetmap.org/wiki/OSM_tags_for_routing/Telenav
	acceptedHighway = map[string]struct{}{
		"motorway":         {},
		"motorway_link":    {},
		"trunk":            {},
		"trunk_link":       {},
		"primary":          {},
		"primary_link":     {},
		"secondary":        {},
		"secondary_link":   {},
		"residential":      {},
		"residential_link": {},
		"service":          {},
		"tertiary":         {},
		"tertiary_link":    {},
		"road":             {},
		"track":            {},
		"unclassified":     {},
		"undefined":        {},
		"unknown":          {},
		"living_street":    {},
		"private":          {},
		"motorroad":        {},
	}

	// https://wiki.openstreetmap.org/wiki/Key:barrier
	// a barrier node with access=no splits its street segment into two
	// disconnected edges.
	acceptedBarrierType = map[string]struct{}{
		"bollard":        {},
		"swing_gate":     {},
		"jersey_barrier": {},
		"lift_gate":      {},
		"block":          {},
		"gate":           {},
	}
)

func acceptOsmWay(way *osm.Way) bool {
	highway := way.Tags.Find("highway")
	junction := way.Tags.Find("junction")
	if highway != "" {
		if _, ok := acceptedHighway[highway]; ok {
			return true
		}
	} else if junction != "" {
		return true
	}
	return false
}

func isRestricted(value string) bool {
	return value == "no" || value == "restricted"
}

// getReversedOneWay reports the vehicle:forward, motor_vehicle:forward,
// vehicle:backward and motor_vehicle:backward access of a way.
func getReversedOneWay(way *osm.Way) (bool, bool, bool, bool) {
	vehicleForward := way.Tags.Find("vehicle:forward")
	motorVehicleForward := way.Tags.Find("motor_vehicle:forward")
	vehicleBackward := way.Tags.Find("vehicle:backward")
	motorVehicleBackward := way.Tags.Find("motor_vehicle:backward")
	return isRestricted(vehicleForward), isRestricted(motorVehicleForward),
		isRestricted(vehicleBackward), isRestricted(motorVehicleBackward)
}

func getWayExtraInfo(way *osm.Way) wayExtraInfo {
	info := wayExtraInfo{forward: true}
	okvf, okmvf, okvb, okmvb := getReversedOneWay(way)
	if val := way.Tags.Find("oneway"); val == "yes" || val == "-1" || okvf || okmvf || okvb || okmvb {
		info.oneWay = true
	}
	if way.Tags.Find("oneway") == "-1" || okvf || okmvf {
		info.forward = false
	}
	return info
}

// parseMaxSpeed reads the maxspeed tag in km/h. returns 0 when the tag is
// missing, unitless or malformed so the caller falls back to the highway
// type default.
func parseMaxSpeed(way *osm.Way) float64 {
	val := way.Tags.Find("maxspeed")
	if val == "" {
		return 0
	}
	switch {
	case strings.Contains(val, "mph"):
		speed, err := strconv.ParseFloat(strings.Replace(val, " mph", "", -1), 64)
		if err != nil {
			return 0
		}
		return speed * 1.60934
	case strings.Contains(val, "km/h"):
		speed, err := strconv.ParseFloat(strings.Replace(val, " km/h", "", -1), 64)
		if err != nil {
			return 0
		}
		return speed
	case strings.Contains(val, "knots"):
		speed, err := strconv.ParseFloat(strings.Replace(val, " knots", "", -1), 64)
		if err != nil {
			return 0
		}
		return speed * 1.852
	default:
		return 0
	}
}
