package aggregate

import "math"

// Nominal working day against which scores are normalized.
const (
	nominalDayMin   = 480.0
	nominalSpeedKmh = 25.0
)

// DefaultScorer is the built-in scoring policy. Route efficiency rewards
// keeping pace without erratic speed swings; fuel efficiency rewards
// smooth driving over a well-utilized shift.
type DefaultScorer struct {
	NominalDayMin   float64
	NominalSpeedKmh float64
}

func NewDefaultScorer() DefaultScorer {
	return DefaultScorer{
		NominalDayMin:   nominalDayMin,
		NominalSpeedKmh: nominalSpeedKmh,
	}
}

func (s DefaultScorer) Score(distanceKm, durationMin float64, segmentSpeedsKmh []float64) (float64, float64) {
	avgSpeed := 0.0
	if durationMin > 0 {
		avgSpeed = distanceKm / (durationMin / 60.0)
	}

	speedRatio := clamp01(avgSpeed / s.NominalSpeedKmh)
	consistency := 1 - clamp01(stddev(segmentSpeedsKmh)/s.NominalSpeedKmh)
	efficiency := 100 * (0.5*speedRatio + 0.5*consistency)

	smoothness := 1 - clamp01(overspeedFraction(segmentSpeedsKmh, s.NominalSpeedKmh))
	utilization := clamp01(durationMin / s.NominalDayMin)
	fuel := 100 * (0.6*smoothness + 0.4*utilization)

	return clamp(efficiency, 0, 100), clamp(fuel, 0, 100)
}

// overspeedFraction is the share of segments driven above nominal speed.
func overspeedFraction(speeds []float64, nominal float64) float64 {
	if len(speeds) == 0 {
		return 0
	}
	over := 0
	for _, v := range speeds {
		if v > nominal {
			over++
		}
	}
	return float64(over) / float64(len(speeds))
}

func stddev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}

	mean := 0.0
	for _, v := range values {
		mean += v
	}
	mean /= float64(len(values))

	variance := 0.0
	for _, v := range values {
		variance += (v - mean) * (v - mean)
	}
	variance /= float64(len(values))

	return math.Sqrt(variance)
}

func clamp01(v float64) float64 {
	return clamp(v, 0, 1)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
