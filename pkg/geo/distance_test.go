package geo

import (
	"math"
	"testing"
)

func TestHaversineDistance(t *testing.T) {
	// tugu jogja to malioboro southern end, roughly 1.9 km
	got := CalculateHaversineDistance(-7.782889, 110.367083, -7.800678, 110.364928)
	if got < 1.8 || got > 2.1 {
		t.Fatalf("distance = %v km, want about 1.9", got)
	}

	if d := CalculateHaversineDistance(-7.78, 110.36, -7.78, 110.36); d != 0 {
		t.Fatalf("zero distance = %v", d)
	}
}

func TestGetDestinationPoint(t *testing.T) {
	lat, lon := GetDestinationPoint(-7.78, 110.36, 90, 1.0)
	back := CalculateHaversineDistance(-7.78, 110.36, lat, lon)
	if math.Abs(back-1.0) > 0.01 {
		t.Fatalf("destination point is %v km away, want 1", back)
	}
	if lon <= 110.36 {
		t.Fatalf("bearing 90 must move east, got lon %v", lon)
	}
}

func TestProjectPointToLine(t *testing.T) {
	a := NewCoordinate(-7.780, 110.360)
	b := NewCoordinate(-7.780, 110.380)
	p := NewCoordinate(-7.785, 110.370)

	proj := ProjectPointToLineCoord(a, b, p)
	if math.Abs(proj.GetLat()-(-7.780)) > 1e-3 {
		t.Fatalf("projection lat = %v, want close to -7.780", proj.GetLat())
	}
	if proj.GetLon() < 110.360 || proj.GetLon() > 110.380 {
		t.Fatalf("projection lon = %v, want inside the segment", proj.GetLon())
	}

	dist := PointLinePerpendicularDistance(a, b, p)
	straight := CalculateHaversineDistance(p.GetLat(), p.GetLon(), proj.GetLat(), proj.GetLon()) * 1000
	if math.Abs(dist-straight) > 5 {
		t.Fatalf("perpendicular distance %v m, projection distance %v m", dist, straight)
	}
}

func TestPolylineRoundTrip(t *testing.T) {
	coords := []Coordinate{
		NewCoordinate(-7.782889, 110.367083),
		NewCoordinate(-7.790000, 110.365000),
		NewCoordinate(-7.800678, 110.364928),
	}
	encoded := PolylineFromCoords(coords)
	if encoded == "" {
		t.Fatal("empty polyline")
	}
	decoded, err := CoordsFromPolyline(encoded)
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if len(decoded) != len(coords) {
		t.Fatalf("decoded %d coords, want %d", len(decoded), len(coords))
	}
	for i := range coords {
		if math.Abs(decoded[i].GetLat()-coords[i].GetLat()) > 1e-5 ||
			math.Abs(decoded[i].GetLon()-coords[i].GetLon()) > 1e-5 {
			t.Fatalf("coord %d = %v, want %v", i, decoded[i], coords[i])
		}
	}
}
