package controllers

// RoutingService answers one shortest path query: travel time in minutes,
// distance in meters, the encoded polyline of the route geometry and the
// algorithm that served the query.
type RoutingService interface {
	ShortestPath(origLat, origLon, dstLat, dstLon float64,
		algorithm string) (float64, float64, string, string, error)
}
