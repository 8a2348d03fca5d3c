// Package analysis runs the whole race pipeline over one immutable batch.
package analysis

import (
	"f1raceanalyticsbot/pkg/filters"
	"f1raceanalyticsbot/pkg/model"
	"f1raceanalyticsbot/pkg/stints"
	"f1raceanalyticsbot/pkg/timeline"

	"github.com/pkg/errors"
)

// ErrNoData is returned when the batch carries no laps at all. Every other
// gap in the data degrades to missing points.
var ErrNoData = errors.New("no race data")

// DriverReport gathers every derived series of one driver.
type DriverReport struct {
	DriverID     string                   `json:"driverId"`
	LapTimes     []model.LapValue         `json:"lapTimes"`
	Cumulative   []model.CumulativePoint  `json:"cumulative"`
	Gaps         []model.GapPoint         `json:"gaps"`
	Intervals    []model.IntervalPoint    `json:"intervals"`
	Stats        timeline.Stats           `json:"stats"`
	Stints       []model.Stint            `json:"stints"`
	Degradation  []model.DegradationPoint `json:"degradation"`
	StintSummary []stints.Summary         `json:"stintSummary"`
}

type Report struct {
	Race      model.Race         `json:"race"`
	Filters   model.FilterConfig `json:"filters"`
	TotalLaps int                `json:"totalLaps"`
	Laps      []int              `json:"laps"`
	Drivers   []DriverReport     `json:"drivers"`
	Quick     QuickStats         `json:"quick"`
}

// Driver returns the report of driverID.
func (r Report) Driver(driverID string) (DriverReport, bool) {
	for _, d := range r.Drivers {
		if d.DriverID == driverID {
			return d, true
		}
	}
	return DriverReport{}, false
}

// Analyze derives every series for drivers (all drivers of the batch when
// empty). Cumulative times always use the full batch; the filters only decide
// which laps are reported.
func Analyze(batch model.RaceBatch, cfg model.FilterConfig, drivers []string) (Report, error) {
	if batch.IsEmpty() {
		return Report{}, errors.Wrapf(ErrNoData, "race %s", batch.Race.Key())
	}
	if len(drivers) == 0 {
		drivers = batch.DriverIDs()
	}

	filtered := filters.Apply(batch.Laps, batch.PitStops, cfg, drivers)
	tl := timeline.Build(batch.Laps)
	gaps := timeline.Gaps(filtered.Laps, tl, drivers)
	intervals := timeline.Intervals(filtered.Laps, tl, drivers)

	report := Report{
		Race:      batch.Race,
		Filters:   cfg,
		TotalLaps: filtered.TotalLaps,
		Laps:      make([]int, 0, len(filtered.Laps)),
		Drivers:   make([]DriverReport, 0, len(drivers)),
		Quick:     ComputeQuickStats(batch),
	}
	for _, lap := range filtered.Laps {
		report.Laps = append(report.Laps, lap.Number)
	}

	kept := map[int]bool{}
	for _, n := range report.Laps {
		kept[n] = true
	}
	for _, d := range drivers {
		cumulative := []model.CumulativePoint{}
		for _, p := range tl.Series(d).Points {
			if kept[p.Lap] {
				cumulative = append(cumulative, p)
			}
		}
		driverStints := stints.Segment(d, batch.PitStops, filtered.TotalLaps)
		degradation := stints.Degradation(d, batch.Laps, driverStints)
		report.Drivers = append(report.Drivers, DriverReport{
			DriverID:     d,
			LapTimes:     filtered.LapTimes[d],
			Cumulative:   cumulative,
			Gaps:         gaps[d],
			Intervals:    intervals[d],
			Stats:        timeline.ComputeStats(d, gaps[d]),
			Stints:       driverStints,
			Degradation:  degradation,
			StintSummary: stints.Summarize(driverStints, degradation),
		})
	}
	return report, nil
}
