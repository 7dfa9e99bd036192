package domain

import "math"

// EarthRadiusMeters is the mean radius used for spherical distances.
const EarthRadiusMeters = 6_371_000.0

// Point is a WGS-84 position. Stores keep it as [longitude, latitude].
type Point struct {
	Longitude float64 `json:"longitude"`
	Latitude  float64 `json:"latitude"`
}

func NewPoint(lng, lat float64) (Point, error) {
	p := Point{Longitude: lng, Latitude: lat}
	if err := p.Validate(); err != nil {
		return Point{}, err
	}
	return p, nil
}

func (p Point) Validate() error {
	if math.IsNaN(p.Latitude) || math.IsNaN(p.Longitude) {
		return ErrInvalidLocation
	}
	if p.Latitude < -90 || p.Latitude > 90 || p.Longitude < -180 || p.Longitude > 180 {
		return ErrInvalidLocation
	}
	return nil
}

// Coordinates returns the GeoJSON ordering.
func (p Point) Coordinates() []float64 {
	return []float64{p.Longitude, p.Latitude}
}

// DistanceMeters returns the haversine distance between two points.
func (p Point) DistanceMeters(q Point) float64 {
	lat1 := p.Latitude * math.Pi / 180
	lat2 := q.Latitude * math.Pi / 180
	dLat := (q.Latitude - p.Latitude) * math.Pi / 180
	dLng := (q.Longitude - p.Longitude) * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadiusMeters * c
}
