package geo

import (
	"math"
	"testing"

	"github.com/GHULAM-1/supreme-drive-suite-sub000/internal/model"
)

func TestHaversineMiles_SamePoint(t *testing.T) {
	loc := model.Coordinates{Lat: 51.5007, Lon: -0.1246}
	got := HaversineMiles(loc, loc)
	if got != 0 {
		t.Errorf("HaversineMiles(same point) = %v, want 0", got)
	}
}

func TestHaversineMiles_WestminsterToHeathrow(t *testing.T) {
	// Westminster to Heathrow, ~14.3 mi great-circle.
	westminster := model.Coordinates{Lat: 51.5007, Lon: -0.1246}
	heathrow := model.Coordinates{Lat: 51.4700, Lon: -0.4543}
	got := RoundMiles(HaversineMiles(westminster, heathrow))
	if got != 14.3 {
		t.Errorf("HaversineMiles(Westminster→Heathrow) = %.1f mi, want 14.3", got)
	}
}

func TestHaversineMiles_Symmetric(t *testing.T) {
	a := model.Coordinates{Lat: 53.4808, Lon: -2.2426}
	b := model.Coordinates{Lat: 51.5007, Lon: -0.1246}
	if d1, d2 := HaversineMiles(a, b), HaversineMiles(b, a); math.Abs(d1-d2) > 1e-9 {
		t.Errorf("HaversineMiles not symmetric: %v vs %v", d1, d2)
	}
}

func TestMilesFromMeters(t *testing.T) {
	got := MilesFromMeters(1609.344)
	if math.Abs(got-1.0) > 1e-9 {
		t.Errorf("MilesFromMeters(1609.344) = %v, want 1.0", got)
	}
}

func TestEstimateTimeMinutes(t *testing.T) {
	// ~14.3 mi at 28 mph ≈ 31 min.
	a := model.Coordinates{Lat: 51.5007, Lon: -0.1246}
	b := model.Coordinates{Lat: 51.4700, Lon: -0.4543}
	got := EstimateTimeMinutes(a, b)
	if got < 25 || got > 40 {
		t.Errorf("EstimateTimeMinutes = %.1f, expected ~30 min", got)
	}
}

func TestRoundMiles(t *testing.T) {
	cases := []struct {
		in, want float64
	}{
		{14.3433, 14.3},
		{0.05, 0.1},
		{0, 0},
		{99.96, 100.0},
	}
	for _, c := range cases {
		if got := RoundMiles(c.in); got != c.want {
			t.Errorf("RoundMiles(%v) = %v, want %v", c.in, got, c.want)
		}
	}
}
