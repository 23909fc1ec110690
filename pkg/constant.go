package pkg

const (
	INF_WEIGHT float64 = 1e15

	// speed assumed by the beeline lower bound. must be >= the fastest
	// road speed in the graph or the bound stops being admissible.
	MAX_SPEED_KMH = 130.0

	NERF_MAXSPEED_OSM = 0.9
)

const (
	DEBUG = false
)

type OsmHighwayType uint8

// enum of osm highway values relevant for car routing: https://wiki.openstreetmap.org/wiki/OSM_tags_for_routing
const (
	MOTORWAY       OsmHighwayType = 0
	TRUNK          OsmHighwayType = 1
	PRIMARY        OsmHighwayType = 2
	SECONDARY      OsmHighwayType = 3
	TERTIARY       OsmHighwayType = 4
	RESIDENTIAL    OsmHighwayType = 5
	SERVICE        OsmHighwayType = 6
	UNCLASSIFIED   OsmHighwayType = 7
	MOTORWAY_LINK  OsmHighwayType = 8
	TRUNK_LINK     OsmHighwayType = 9
	PRIMARY_LINK   OsmHighwayType = 10
	SECONDARY_LINK OsmHighwayType = 11
	TERTIARY_LINK  OsmHighwayType = 12
	LIVING_STREET  OsmHighwayType = 13
	ROAD           OsmHighwayType = 14
	TRACK          OsmHighwayType = 15
	UNKNOWN        OsmHighwayType = 16
)

func GetHighwayType(roadType string) OsmHighwayType {
	switch roadType {
	case "motorway":
		return MOTORWAY
	case "trunk":
		return TRUNK
	case "primary":
		return PRIMARY
	case "secondary":
		return SECONDARY
	case "tertiary":
		return TERTIARY
	case "unclassified":
		return UNCLASSIFIED
	case "residential":
		return RESIDENTIAL
	case "service":
		return SERVICE
	case "motorway_link":
		return MOTORWAY_LINK
	case "trunk_link":
		return TRUNK_LINK
	case "primary_link":
		return PRIMARY_LINK
	case "secondary_link":
		return SECONDARY_LINK
	case "tertiary_link":
		return TERTIARY_LINK
	case "living_street":
		return LIVING_STREET
	case "road":
		return ROAD
	case "track":
		return TRACK
	default:
		return UNKNOWN
	}
}

// default speed in km/h per highway type, used when an osm way has no
// usable maxspeed tag.
func DefaultSpeed(highwayType OsmHighwayType) float64 {
	switch highwayType {
	case MOTORWAY:
		return 100
	case TRUNK:
		return 70
	case PRIMARY:
		return 65
	case SECONDARY:
		return 60
	case TERTIARY:
		return 50
	case UNCLASSIFIED:
		return 30
	case RESIDENTIAL:
		return 30
	case SERVICE:
		return 20
	case MOTORWAY_LINK:
		return 70
	case TRUNK_LINK:
		return 65
	case PRIMARY_LINK:
		return 60
	case SECONDARY_LINK:
		return 50
	case TERTIARY_LINK:
		return 40
	case LIVING_STREET:
		return 10
	case ROAD:
		return 20
	case TRACK:
		return 15
	default:
		return 25
	}
}
