package weights

import "math"

// EarthRadiusKm is the sphere radius used by the haversine metric.
const EarthRadiusKm = 6371.0

// Point is a geolocation in degrees. Euclidean and manhattan treat
// (Lng, Lat) as raw planar (x, y); only haversine is geographic.
type Point struct {
	Lat float64
	Lng float64
}

func (p Point) finite() bool {
	return !math.IsNaN(p.Lat) && !math.IsNaN(p.Lng) && !math.IsInf(p.Lat, 0) && !math.IsInf(p.Lng, 0)
}

// Distance between a and b under metric m. Haversine returns kilometres,
// the planar metrics return coordinate units. Unknown metrics yield NaN.
func Distance(m Metric, a, b Point) float64 {
	switch m {
	case DISTANCE_EUCLIDEAN:
		dx := a.Lng - b.Lng
		dy := a.Lat - b.Lat
		return math.Sqrt(dx*dx + dy*dy)
	case DISTANCE_MANHATTAN:
		return math.Abs(a.Lng-b.Lng) + math.Abs(a.Lat-b.Lat)
	case DISTANCE_HAVERSINE:
		return haversine(a, b)
	default:
		return math.NaN()
	}
}

func haversine(a, b Point) float64 {
	const rad = math.Pi / 180
	lat1 := a.Lat * rad
	lat2 := b.Lat * rad
	dLat := (b.Lat - a.Lat) * rad
	dLng := (b.Lng - a.Lng) * rad

	s := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(s), math.Sqrt(1-s))
	return EarthRadiusKm * c
}

// Nearest returns the index of the point in pts closest to p, -1 for an
// empty slice. Ties keep the first index.
func Nearest(m Metric, pts []Point, p Point) int {
	best := -1
	bestD := math.Inf(1)
	for i, q := range pts {
		if d := Distance(m, p, q); d < bestD {
			best, bestD = i, d
		}
	}
	return best
}
