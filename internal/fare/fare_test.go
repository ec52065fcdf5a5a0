package fare

import (
	"errors"
	"math"
	"testing"
)

var (
	nairobiCBD = Point{Lat: -1.2921, Lng: 36.8219}
	jkia       = Point{Lat: -1.3197, Lng: 36.9256}
)

func TestQuote_NairobiToAirport(t *testing.T) {
	t.Parallel()

	quote, err := DefaultParams().Quote(nairobiCBD, jkia)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if quote.DistanceKm < 11 || quote.DistanceKm > 13 {
		t.Errorf("distance = %.2f km, want roughly 12 km", quote.DistanceKm)
	}

	want := math.Round((50+quote.DistanceKm*25)*100) / 100
	if quote.Fare != want {
		t.Errorf("fare = %.2f, want %.2f (base + km*rate)", quote.Fare, want)
	}
	if quote.Fare < DefaultMinimumFare {
		t.Errorf("fare = %.2f below minimum %.2f", quote.Fare, DefaultMinimumFare)
	}
}

func TestQuote_MinimumFareFloor(t *testing.T) {
	t.Parallel()

	// A few hundred meters: base + distance*rate is well under the minimum.
	a := Point{Lat: -1.2921, Lng: 36.8219}
	b := Point{Lat: -1.2925, Lng: 36.8221}

	quote, err := DefaultParams().Quote(a, b)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if quote.Fare != DefaultMinimumFare {
		t.Errorf("fare = %.2f, want minimum fare %.2f", quote.Fare, DefaultMinimumFare)
	}
}

func TestQuote_MonotonicInDistance(t *testing.T) {
	t.Parallel()

	params := DefaultParams()
	prev := 0.0
	for i := 0; i < 20; i++ {
		dest := Point{Lat: nairobiCBD.Lat, Lng: nairobiCBD.Lng + float64(i)*0.05}
		quote, err := params.Quote(nairobiCBD, dest)
		if err != nil {
			t.Fatalf("unexpected error at step %d: %v", i, err)
		}
		if quote.Fare < prev {
			t.Fatalf("fare decreased with distance: %.2f after %.2f", quote.Fare, prev)
		}
		prev = quote.Fare
	}
}

func TestDistance_SymmetryAndIdentity(t *testing.T) {
	t.Parallel()

	params := DefaultParams()

	ab, err := params.Distance(nairobiCBD, jkia)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ba, err := params.Distance(jkia, nairobiCBD)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if math.Abs(ab-ba) > 1e-9 {
		t.Errorf("distance not symmetric: %v vs %v", ab, ba)
	}

	aa, err := params.Distance(nairobiCBD, nairobiCBD)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if aa != 0 {
		t.Errorf("distance(A,A) = %v, want 0", aa)
	}
}

func TestQuote_InvalidCoordinates(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		pickup Point
	}{
		{"latitude too high", Point{Lat: 91, Lng: 0}},
		{"latitude too low", Point{Lat: -91, Lng: 0}},
		{"longitude too high", Point{Lat: 0, Lng: 181}},
		{"longitude too low", Point{Lat: 0, Lng: -181}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := DefaultParams().Quote(tc.pickup, jkia)
			if !errors.Is(err, ErrInvalidCoordinate) {
				t.Errorf("err = %v, want ErrInvalidCoordinate", err)
			}
		})
	}
}

func TestQuote_CustomParameters(t *testing.T) {
	t.Parallel()

	params := Params{BaseFare: 0, PerKmRate: 10, MinimumFare: 0, EarthRadiusKm: DefaultEarthRadiusKm}
	quote, err := params.Quote(nairobiCBD, jkia)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// DistanceKm is rounded independently of the fare, so allow a cent or two.
	want := math.Round(quote.DistanceKm*10*100) / 100
	if math.Abs(quote.Fare-want) > 0.1 {
		t.Errorf("fare = %.2f, want about %.2f", quote.Fare, want)
	}
}
