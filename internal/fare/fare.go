// Package fare provides pure fare and distance computation for trips.
// It has no dependencies and no side effects; pricing parameters are
// passed in as a single snapshot so one quote never mixes configurations.
package fare

import (
	"errors"
	"math"
)

// ErrInvalidCoordinate is returned when a latitude or longitude is out of range.
var ErrInvalidCoordinate = errors.New("invalid coordinate")

// DefaultEarthRadiusKm is the mean Earth radius used by the haversine formula.
const DefaultEarthRadiusKm = 6371.0

// Default pricing parameters, in the local currency unit.
const (
	DefaultBaseFare    = 50.0
	DefaultPerKmRate   = 25.0
	DefaultMinimumFare = 100.0
)

// Point is a geographic coordinate in decimal degrees.
type Point struct {
	Lat float64
	Lng float64
}

// Valid reports whether the point is within +/-90 latitude and +/-180 longitude.
func (p Point) Valid() bool {
	return p.Lat >= -90 && p.Lat <= 90 && p.Lng >= -180 && p.Lng <= 180
}

// Params is one consistent set of pricing parameters.
type Params struct {
	BaseFare      float64
	PerKmRate     float64
	MinimumFare   float64
	EarthRadiusKm float64
}

// DefaultParams returns the documented default pricing parameters.
func DefaultParams() Params {
	return Params{
		BaseFare:      DefaultBaseFare,
		PerKmRate:     DefaultPerKmRate,
		MinimumFare:   DefaultMinimumFare,
		EarthRadiusKm: DefaultEarthRadiusKm,
	}
}

// Quote is the result of a fare computation.
type Quote struct {
	DistanceKm float64
	Fare       float64
}

// Quote computes the great-circle distance between pickup and dropoff and
// the resulting fare: base + km*rate, floored at the minimum fare, both
// rounded to 2 decimal places.
func (p Params) Quote(pickup, dropoff Point) (Quote, error) {
	if !pickup.Valid() || !dropoff.Valid() {
		return Quote{}, ErrInvalidCoordinate
	}

	distance := p.distanceKm(pickup, dropoff)

	fare := p.BaseFare + distance*p.PerKmRate
	if fare < p.MinimumFare {
		fare = p.MinimumFare
	}

	return Quote{
		DistanceKm: round2(distance),
		Fare:       round2(fare),
	}, nil
}

// Distance returns the haversine distance in kilometers between two points.
func (p Params) Distance(a, b Point) (float64, error) {
	if !a.Valid() || !b.Valid() {
		return 0, ErrInvalidCoordinate
	}
	return p.distanceKm(a, b), nil
}

func (p Params) distanceKm(a, b Point) float64 {
	radius := p.EarthRadiusKm
	if radius <= 0 {
		radius = DefaultEarthRadiusKm
	}

	dLat := degreesToRadians(b.Lat - a.Lat)
	dLng := degreesToRadians(b.Lng - a.Lng)

	rLat1 := degreesToRadians(a.Lat)
	rLat2 := degreesToRadians(b.Lat)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(rLat1)*math.Cos(rLat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return radius * c
}

func degreesToRadians(deg float64) float64 {
	return deg * math.Pi / 180.0
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
