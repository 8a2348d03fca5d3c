package timeline

import (
	"f1raceanalyticsbot/pkg/model"
	"sort"
)

// Stats summarises a driver's gap-to-leader series.
type Stats struct {
	DriverID      string  `json:"driverId"`
	BestPosition  int     `json:"bestPosition"`
	WorstPosition int     `json:"worstPosition"`
	AverageGap    float64 `json:"averageGap"`
	BiggestGain   float64 `json:"biggestGain"`
	BiggestLoss   float64 `json:"biggestLoss"`
	TimesLed      int     `json:"timesLed"`
}

// FindLeader returns the driver reporting position 1 on lap and its
// cumulative time. When the feed reports more than one leader the one with
// the smallest cumulative time wins, then the lowest driver id. Leaders
// without a timeline entry are ignored; ok is false if none is left.
func FindLeader(lap model.LapRecord, tl *Timeline) (driverID string, cumulative float64, ok bool) {
	for _, t := range lap.Timings {
		if t.Position != 1 {
			continue
		}
		p, found := tl.At(t.DriverID, lap.Number)
		if !found {
			continue
		}
		if !ok || p.Time < cumulative || (p.Time == cumulative && t.DriverID < driverID) {
			driverID, cumulative, ok = t.DriverID, p.Time, true
		}
	}
	return driverID, cumulative, ok
}

// Gaps computes the gap to the leader for every driver in drivers. Laps
// without a determinable leader produce no points.
func Gaps(laps []model.LapRecord, tl *Timeline, drivers []string) map[string][]model.GapPoint {
	out := make(map[string][]model.GapPoint, len(drivers))
	for _, d := range drivers {
		out[d] = []model.GapPoint{}
	}
	for _, lap := range sortedLaps(laps) {
		_, leaderTime, ok := FindLeader(lap, tl)
		if !ok {
			continue
		}
		for _, d := range drivers {
			p, found := tl.At(d, lap.Number)
			if !found {
				continue
			}
			out[d] = append(out[d], model.GapPoint{Lap: lap.Number, Gap: p.Time - leaderTime, Position: p.Position})
		}
	}
	return out
}

// byRunningOrder sorts a lap's timings by position; unknown positions go last
// and keep their feed order.
func byRunningOrder(timings []model.Timing) []model.Timing {
	sorted := make([]model.Timing, len(timings))
	copy(sorted, timings)
	sort.SliceStable(sorted, func(i, j int) bool {
		pi, pj := sorted[i].Position, sorted[j].Position
		if pi <= 0 {
			return false
		}
		if pj <= 0 {
			return true
		}
		return pi < pj
	})
	return sorted
}

// Intervals computes the time to the car ahead for every driver in drivers.
// The first car in running order always has interval 0. No point is emitted
// when either car lacks a cumulative time on that lap.
func Intervals(laps []model.LapRecord, tl *Timeline, drivers []string) map[string][]model.IntervalPoint {
	wanted := map[string]bool{}
	out := make(map[string][]model.IntervalPoint, len(drivers))
	for _, d := range drivers {
		wanted[d] = true
		out[d] = []model.IntervalPoint{}
	}
	for _, lap := range sortedLaps(laps) {
		order := byRunningOrder(lap.Timings)
		for rank, t := range order {
			if !wanted[t.DriverID] {
				continue
			}
			if rank == 0 {
				out[t.DriverID] = append(out[t.DriverID], model.IntervalPoint{Lap: lap.Number, Interval: 0, Position: t.Position})
				continue
			}
			own, ok := tl.At(t.DriverID, lap.Number)
			if !ok {
				continue
			}
			ahead, ok := tl.At(order[rank-1].DriverID, lap.Number)
			if !ok {
				continue
			}
			out[t.DriverID] = append(out[t.DriverID], model.IntervalPoint{Lap: lap.Number, Interval: own.Time - ahead.Time, Position: t.Position})
		}
	}
	return out
}

// ComputeStats derives position and gap statistics from a gap series.
func ComputeStats(driverID string, gaps []model.GapPoint) Stats {
	s := Stats{DriverID: driverID}
	sum, trailing := 0.0, 0
	for i, g := range gaps {
		if g.Position > 0 {
			if s.BestPosition == 0 || g.Position < s.BestPosition {
				s.BestPosition = g.Position
			}
			if g.Position > s.WorstPosition {
				s.WorstPosition = g.Position
			}
		}
		if g.Gap > model.LeadingThreshold {
			sum += g.Gap
			trailing++
		}
		if g.Leading() {
			s.TimesLed++
		}
		if i == 0 {
			continue
		}
		change := gaps[i-1].Gap - g.Gap
		if change > s.BiggestGain {
			s.BiggestGain = change
		}
		if -change > s.BiggestLoss {
			s.BiggestLoss = -change
		}
	}
	if trailing > 0 {
		s.AverageGap = sum / float64(trailing)
	}
	return s
}
