// Package timeline rebuilds each driver's cumulative race time lap by lap and
// derives gap-to-leader and interval-to-car-ahead series from it.
package timeline

import (
	"f1raceanalyticsbot/pkg/helper"
	"f1raceanalyticsbot/pkg/model"
	"sort"
)

// Timeline is the per-driver cumulative race time. It is built once per batch
// and only read afterwards.
type Timeline struct {
	series map[string]model.DriverSeries
	byLap  map[string]map[int]model.CumulativePoint
}

func driversIn(laps []model.LapRecord) []string {
	ids := []string{}
	seen := map[string]bool{}
	for _, lap := range laps {
		for _, t := range lap.Timings {
			if !seen[t.DriverID] {
				seen[t.DriverID] = true
				ids = append(ids, t.DriverID)
			}
		}
	}
	return ids
}

func sortedLaps(laps []model.LapRecord) []model.LapRecord {
	out := make([]model.LapRecord, len(laps))
	copy(out, laps)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Number < out[j].Number
	})
	return out
}

// Build accumulates every driver appearing in laps. A lap with a missing or
// invalid time is skipped and the running total carries on.
func Build(laps []model.LapRecord) *Timeline {
	tl := &Timeline{
		series: map[string]model.DriverSeries{},
		byLap:  map[string]map[int]model.CumulativePoint{},
	}
	ordered := sortedLaps(laps)
	for _, driverID := range driversIn(ordered) {
		total := 0.0
		points := []model.CumulativePoint{}
		index := map[int]model.CumulativePoint{}
		for _, lap := range ordered {
			t, ok := lap.TimingFor(driverID)
			if !ok {
				continue
			}
			v := helper.ParseRaceTime(t.Time)
			if !helper.IsValidLapTime(v) {
				continue
			}
			total += v
			p := model.CumulativePoint{Lap: lap.Number, Time: total, Position: t.Position}
			points = append(points, p)
			index[lap.Number] = p
		}
		tl.series[driverID] = model.DriverSeries{DriverID: driverID, Points: points}
		tl.byLap[driverID] = index
	}
	return tl
}

// At returns the cumulative point of driverID at lap.
func (tl *Timeline) At(driverID string, lap int) (model.CumulativePoint, bool) {
	index, ok := tl.byLap[driverID]
	if !ok {
		return model.CumulativePoint{}, false
	}
	p, ok := index[lap]
	return p, ok
}

// Series returns the cumulative series of driverID, empty when unknown.
func (tl *Timeline) Series(driverID string) model.DriverSeries {
	if s, ok := tl.series[driverID]; ok {
		return s
	}
	return model.DriverSeries{DriverID: driverID, Points: []model.CumulativePoint{}}
}

// Drivers lists the drivers known to the timeline in id order.
func (tl *Timeline) Drivers() []string {
	ids := make([]string, 0, len(tl.series))
	for id := range tl.series {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
