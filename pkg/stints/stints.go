// Package stints splits a driver's race into pit-stop bounded stints and
// builds tyre-age relative degradation curves.
//
// No feed carries tyre compounds. The compound of a stint is a rotation
// placeholder and every stint is flagged as Simulated.
package stints

import (
	"f1raceanalyticsbot/pkg/helper"
	"f1raceanalyticsbot/pkg/model"
	"sort"
)

var rotation = []model.Compound{model.CompoundSoft, model.CompoundMedium, model.CompoundHard}

// Summary holds per-stint pace figures.
type Summary struct {
	Stint     model.Stint `json:"stint"`
	ValidLaps int         `json:"validLaps"`
	MeanPace  float64     `json:"meanPace"`
	// Slope is the least-squares lap time trend in seconds per lap.
	Slope float64 `json:"slope"`
}

// pitLaps returns the sorted, deduplicated pit laps of driverID that can
// close a stint inside the race.
func pitLaps(driverID string, pitStops []model.PitStopEvent, totalLaps int) []int {
	seen := map[int]bool{}
	laps := []int{}
	for _, ps := range pitStops {
		if ps.DriverID != driverID || ps.Lap < 1 || ps.Lap >= totalLaps || seen[ps.Lap] {
			continue
		}
		seen[ps.Lap] = true
		laps = append(laps, ps.Lap)
	}
	sort.Ints(laps)
	return laps
}

func newStint(driverID string, index, start, end int) model.Stint {
	return model.Stint{
		DriverID:  driverID,
		Index:     index,
		Compound:  rotation[index%len(rotation)],
		StartLap:  start,
		EndLap:    end,
		Simulated: true,
	}
}

// Segment partitions laps 1..totalLaps of driverID. Each pit lap closes the
// current stint; the next one starts on the following lap.
func Segment(driverID string, pitStops []model.PitStopEvent, totalLaps int) []model.Stint {
	stints := []model.Stint{}
	if totalLaps < 1 {
		return stints
	}
	start := 1
	for _, pit := range pitLaps(driverID, pitStops, totalLaps) {
		stints = append(stints, newStint(driverID, len(stints), start, pit))
		start = pit + 1
	}
	return append(stints, newStint(driverID, len(stints), start, totalLaps))
}

// SegmentAll runs Segment for every driver.
func SegmentAll(drivers []string, pitStops []model.PitStopEvent, totalLaps int) map[string][]model.Stint {
	out := make(map[string][]model.Stint, len(drivers))
	for _, d := range drivers {
		out[d] = Segment(d, pitStops, totalLaps)
	}
	return out
}

// Degradation pairs each valid lap time with its position inside the stint.
// LapInStint counts valid laps only and restarts at 1 on every stint;
// TyreAge counts laps since the stint started.
func Degradation(driverID string, laps []model.LapRecord, stints []model.Stint) []model.DegradationPoint {
	ordered := make([]model.LapRecord, len(laps))
	copy(ordered, laps)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Number < ordered[j].Number
	})

	points := []model.DegradationPoint{}
	for _, stint := range stints {
		n := 0
		for _, lap := range ordered {
			if !stint.Contains(lap.Number) {
				continue
			}
			t, ok := lap.TimingFor(driverID)
			if !ok {
				continue
			}
			v := helper.ParseRaceTime(t.Time)
			if !helper.IsValidLapTime(v) {
				continue
			}
			n++
			points = append(points, model.DegradationPoint{
				StintIndex: stint.Index,
				LapInStint: n,
				TyreAge:    lap.Number - stint.StartLap + 1,
				Lap:        lap.Number,
				LapTime:    v,
			})
		}
	}
	return points
}

// Summarize computes pace and degradation slope per stint.
func Summarize(stints []model.Stint, points []model.DegradationPoint) []Summary {
	out := make([]Summary, 0, len(stints))
	for _, stint := range stints {
		xs, ys := []float64{}, []float64{}
		for _, p := range points {
			if p.StintIndex == stint.Index {
				xs = append(xs, float64(p.LapInStint))
				ys = append(ys, p.LapTime)
			}
		}
		s := Summary{Stint: stint, ValidLaps: len(ys)}
		if len(ys) > 0 {
			s.MeanPace = mean(ys)
		}
		s.Slope = slope(xs, ys)
		out = append(out, s)
	}
	return out
}

func mean(values []float64) float64 {
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func slope(xs, ys []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	mx, my := mean(xs), mean(ys)
	num, den := 0.0, 0.0
	for i := range xs {
		num += (xs[i] - mx) * (ys[i] - my)
		den += (xs[i] - mx) * (xs[i] - mx)
	}
	if den == 0 {
		return 0
	}
	return num / den
}
