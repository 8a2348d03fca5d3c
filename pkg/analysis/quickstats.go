package analysis

import (
	"f1raceanalyticsbot/pkg/filters"
	"f1raceanalyticsbot/pkg/helper"
	"f1raceanalyticsbot/pkg/model"
	"math"
)

// QuickStats is the race summary shown before any chart.
type QuickStats struct {
	TotalLaps         int     `json:"totalLaps"`
	Drivers           int     `json:"drivers"`
	PitStops          int     `json:"pitStops"`
	FastestDriver     string  `json:"fastestDriver"`
	FastestLap        int     `json:"fastestLap"`
	FastestTime       float64 `json:"fastestTime"`       // 0 when no lap is valid
	AveragePitSeconds float64 `json:"averagePitSeconds"` // 0 when no duration is known
}

// ComputeQuickStats summarises the raw batch. The first lap in lap order
// wins a tie for the fastest lap.
func ComputeQuickStats(batch model.RaceBatch) QuickStats {
	qs := QuickStats{
		TotalLaps: filters.TotalLaps(batch.Laps),
		PitStops:  len(batch.PitStops),
	}

	drivers := map[string]bool{}
	for _, lap := range batch.Laps {
		for _, t := range lap.Timings {
			drivers[t.DriverID] = true
			v := helper.ParseRaceTime(t.Time)
			if !helper.IsValidLapTime(v) {
				continue
			}
			better := qs.FastestLap == 0 || v < qs.FastestTime ||
				(v == qs.FastestTime && lap.Number < qs.FastestLap)
			if better {
				qs.FastestTime, qs.FastestDriver, qs.FastestLap = v, t.DriverID, lap.Number
			}
		}
	}
	qs.Drivers = len(drivers)

	sum, n := 0.0, 0
	for _, ps := range batch.PitStops {
		if math.IsNaN(ps.Duration) || ps.Duration <= 0 {
			continue
		}
		sum += ps.Duration
		n++
	}
	if n > 0 {
		qs.AveragePitSeconds = sum / float64(n)
	}
	return qs
}
