// Package filters narrows a lap batch before it is charted or analysed.
//
// Lap-level filters decide which laps appear at all. Value-level filters work
// per driver and per lap time; they never remove a lap, they only null the
// point (NaN) so a line chart can span the gap.
package filters

import (
	"f1raceanalyticsbot/pkg/helper"
	"f1raceanalyticsbot/pkg/model"
	"math"
	"sort"
)

const (
	// minOutlierSample is the sample size the IQR test needs to be meaningful.
	minOutlierSample = 5
	iqrFactor        = 1.5
	racePaceTailLaps = 3
)

// Result of applying a FilterConfig to a batch.
type Result struct {
	Laps      []model.LapRecord           `json:"laps"`
	LapTimes  map[string][]model.LapValue `json:"lapTimes"`
	TotalLaps int                         `json:"totalLaps"`
}

// TotalLaps is the highest lap number present in laps.
func TotalLaps(laps []model.LapRecord) int {
	total := 0
	for _, l := range laps {
		if l.Number > total {
			total = l.Number
		}
	}
	return total
}

func sortedCopy(laps []model.LapRecord) []model.LapRecord {
	out := make([]model.LapRecord, len(laps))
	copy(out, laps)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Number < out[j].Number
	})
	return out
}

// ApplyLapFilters returns the laps passing every lap-level filter, ordered by
// lap number. The input slice is left untouched.
func ApplyLapFilters(laps []model.LapRecord, pitStops []model.PitStopEvent, cfg model.FilterConfig) []model.LapRecord {
	totalLaps := TotalLaps(laps)
	pitLaps := map[int]bool{}
	for _, ps := range pitStops {
		pitLaps[ps.Lap] = true
	}

	out := []model.LapRecord{}
	for _, lap := range sortedCopy(laps) {
		if cfg.LapRangeStart != nil && lap.Number < *cfg.LapRangeStart {
			continue
		}
		if cfg.LapRangeEnd != nil && lap.Number > *cfg.LapRangeEnd {
			continue
		}
		if cfg.ShowOnlyRacePace && (lap.Number == 1 || lap.Number > totalLaps-racePaceTailLaps) {
			continue
		}
		if cfg.ExcludePitLaps && pitLaps[lap.Number] {
			continue
		}
		out = append(out, lap)
	}
	return out
}

// OutlierBounds computes Tukey's fences over sample using nearest-rank
// quartiles. ok is false when the sample is too small for the test.
func OutlierBounds(sample []float64) (lower, upper float64, ok bool) {
	if len(sample) < minOutlierSample {
		return 0, 0, false
	}
	sorted := make([]float64, len(sample))
	copy(sorted, sample)
	sort.Float64s(sorted)
	n := float64(len(sorted))
	q1 := sorted[int(math.Floor(n*0.25))]
	q3 := sorted[int(math.Floor(n*0.75))]
	iqr := q3 - q1
	return q1 - iqrFactor*iqr, q3 + iqrFactor*iqr, true
}

// KeepLapTime applies the value-level filters to a single lap time. sample is
// the driver's full raw valid lap-time sample used by the outlier test.
func KeepLapTime(lapTime float64, cfg model.FilterConfig, sample []float64) bool {
	if math.IsNaN(lapTime) {
		return false
	}
	if cfg.MinLapTime != nil && lapTime < *cfg.MinLapTime {
		return false
	}
	if cfg.MaxLapTime != nil && lapTime > *cfg.MaxLapTime {
		return false
	}
	if cfg.ExcludeOutliers {
		lower, upper, ok := OutlierBounds(sample)
		if ok && (lapTime < lower || lapTime > upper) {
			return false
		}
	}
	return true
}

// RawSample collects a driver's valid (>0s) lap times over the whole,
// unfiltered batch.
func RawSample(laps []model.LapRecord, driverID string) []float64 {
	sample := []float64{}
	for _, lap := range laps {
		t, ok := lap.TimingFor(driverID)
		if !ok {
			continue
		}
		v := helper.ParseRaceTime(t.Time)
		if !math.IsNaN(v) && v > 0 {
			sample = append(sample, v)
		}
	}
	return sample
}

// Apply runs both filter tiers. Every lap kept by the lap-level filters in
// which a driver has a timing produces one LapValue for that driver; values
// rejected by the value-level filters (or unparsable) are NaN.
func Apply(laps []model.LapRecord, pitStops []model.PitStopEvent, cfg model.FilterConfig, drivers []string) Result {
	kept := ApplyLapFilters(laps, pitStops, cfg)
	res := Result{
		Laps:      kept,
		LapTimes:  make(map[string][]model.LapValue, len(drivers)),
		TotalLaps: TotalLaps(laps),
	}
	for _, driverID := range drivers {
		sample := RawSample(laps, driverID)
		values := []model.LapValue{}
		for _, lap := range kept {
			t, ok := lap.TimingFor(driverID)
			if !ok {
				continue
			}
			v := helper.ParseRaceTime(t.Time)
			if !KeepLapTime(v, cfg, sample) {
				v = math.NaN()
			}
			values = append(values, model.LapValue{Lap: lap.Number, Time: v})
		}
		res.LapTimes[driverID] = values
	}
	return res
}
