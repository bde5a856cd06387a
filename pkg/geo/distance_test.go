package geo

import (
	"math"
	"testing"
)

func TestDistanceKm_SamePoint(t *testing.T) {
	pts := [][2]float64{
		{0, 0},
		{51.1694, 71.4491},
		{-33.8688, 151.2093},
		{89.9, -179.9},
	}

	for _, p := range pts {
		if d := DistanceKm(p[0], p[1], p[0], p[1]); d != 0 {
			t.Fatalf("distance between identical points must be 0, got %f for %v", d, p)
		}
	}
}

func TestDistanceKm_KnownDistance(t *testing.T) {
	// Astana to Almaty, roughly 970 km.
	d := DistanceKm(51.1694, 71.4491, 43.2389, 76.8897)
	if d < 950 || d > 990 {
		t.Fatalf("Astana-Almaty distance out of expected range: %f km", d)
	}
}

func TestDistanceKm_Symmetric(t *testing.T) {
	d1 := DistanceKm(51.1694, 71.4491, 43.2389, 76.8897)
	d2 := DistanceKm(43.2389, 76.8897, 51.1694, 71.4491)
	if math.Abs(d1-d2) > 1e-9 {
		t.Fatalf("distance must be symmetric: %f vs %f", d1, d2)
	}
}

func TestDistanceM_MatchesKm(t *testing.T) {
	km := DistanceKm(51.0, 71.0, 51.001, 71.0)
	m := DistanceM(51.0, 71.0, 51.001, 71.0)
	if math.Abs(m-km*1000) > 1e-6 {
		t.Fatalf("meter and kilometer variants disagree: %f vs %f", m, km*1000)
	}
	// 0.001 degrees of latitude is about 111 meters.
	if m < 100 || m > 125 {
		t.Fatalf("unexpected distance for 0.001 deg latitude: %f m", m)
	}
}

func BenchmarkDistanceKm(b *testing.B) {
	for b.Loop() {
		_ = DistanceKm(51.1694, 71.4491, 43.2389, 76.8897)
	}
}
