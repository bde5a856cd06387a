package aggregate

import (
	"sort"
	"time"

	"github.com/courierops/fieldtrack/internal/domain/models"
	"github.com/courierops/fieldtrack/pkg/geo"
	"github.com/courierops/fieldtrack/pkg/uuid"
)

// ComputeDailyMetric folds one worker's usable fixes for a day into a
// metric row. Pure: same fixes in, same row out, any time it runs.
//
// Fewer than two usable fixes yield zero distance and duration, the row
// still records that the worker reported in.
func ComputeDailyMetric(workerID uuid.UUID, date time.Time, fixes []models.Fix, scorer Scorer) models.DailyMetric {
	usable := make([]models.Fix, 0, len(fixes))
	for _, f := range fixes {
		if f.Usable() {
			usable = append(usable, f)
		}
	}
	sort.Slice(usable, func(i, j int) bool {
		return usable[i].RecordedAt.Before(usable[j].RecordedAt)
	})

	m := models.DailyMetric{WorkerID: workerID, Date: date}
	if len(usable) < 2 {
		m.Efficiency, m.FuelEfficiency = scorer.Score(0, 0, nil)
		return m
	}

	var segmentSpeeds []float64
	for i := 1; i < len(usable); i++ {
		prev, cur := usable[i-1], usable[i]

		km := geo.DistanceKm(prev.Latitude, prev.Longitude, cur.Latitude, cur.Longitude)
		m.DistanceKm += km

		if hours := cur.RecordedAt.Sub(prev.RecordedAt).Hours(); hours > 0 {
			segmentSpeeds = append(segmentSpeeds, km/hours)
		}
	}

	m.DurationMin = usable[len(usable)-1].RecordedAt.Sub(usable[0].RecordedAt).Minutes()
	if m.DurationMin > 0 {
		m.AvgSpeedKmh = m.DistanceKm / (m.DurationMin / 60.0)
	}

	m.Efficiency, m.FuelEfficiency = scorer.Score(m.DistanceKm, m.DurationMin, segmentSpeeds)

	return m
}
