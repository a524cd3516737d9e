package geofence

import "math"

// Point is a geographic coordinate in degrees.
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Polygon is a closed ring of vertices. The first vertex does not need to be
// repeated at the end. Containment uses a planar even-odd test over raw
// degrees; zones are small enough (city blocks, school grounds) that planar
// geometry is adequate, and the same test is used everywhere so results are
// consistent.
type Polygon []Point

const onBoundaryEps = 1e-12

// Contains reports whether pt lies inside or on the boundary of the polygon.
func (p Polygon) Contains(pt Point) bool {
	n := len(p)
	if n < 3 {
		return false
	}

	// Boundary points count as contained.
	for i := 0; i < n; i++ {
		if onSegment(p[i], p[(i+1)%n], pt) {
			return true
		}
	}

	inside := false
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		yi, yj := p[i].Lat, p[j].Lat
		xi, xj := p[i].Lng, p[j].Lng
		if (yi > pt.Lat) != (yj > pt.Lat) {
			crossX := (xj-xi)*(pt.Lat-yi)/(yj-yi) + xi
			if pt.Lng < crossX {
				inside = !inside
			}
		}
	}
	return inside
}

// Area returns the planar shoelace area of the polygon in squared degrees.
// Only used to rank zones by size; never reported as a physical quantity.
func (p Polygon) Area() float64 {
	n := len(p)
	if n < 3 {
		return 0
	}
	sum := 0.0
	for i := 0; i < n; i++ {
		a, b := p[i], p[(i+1)%n]
		sum += a.Lng*b.Lat - b.Lng*a.Lat
	}
	return math.Abs(sum) / 2
}

// Valid reports whether the polygon has enough vertices to bound an area and
// every vertex is a plausible geographic coordinate.
func (p Polygon) Valid() bool {
	if len(p) < 3 {
		return false
	}
	for _, v := range p {
		if !ValidCoordinate(v.Lat, v.Lng) {
			return false
		}
	}
	return true
}

// ValidCoordinate reports whether lat/lng are within geographic range.
func ValidCoordinate(lat, lng float64) bool {
	return lat >= -90 && lat <= 90 && lng >= -180 && lng <= 180
}

func onSegment(a, b, pt Point) bool {
	cross := (b.Lng-a.Lng)*(pt.Lat-a.Lat) - (b.Lat-a.Lat)*(pt.Lng-a.Lng)
	if math.Abs(cross) > onBoundaryEps {
		return false
	}
	return pt.Lat >= math.Min(a.Lat, b.Lat) && pt.Lat <= math.Max(a.Lat, b.Lat) &&
		pt.Lng >= math.Min(a.Lng, b.Lng) && pt.Lng <= math.Max(a.Lng, b.Lng)
}
