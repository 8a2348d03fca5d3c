// Package sectors finds personal and overall best sector times and the
// theoretical best lap of each driver.
package sectors

import (
	"f1raceanalyticsbot/pkg/model"
	"math"
	"sort"
)

// Tolerance used to compare sector times against a best.
const Tolerance = 1e-3

// Best is a driver's composed lap: the sum of its personal best sectors.
type Best struct {
	DriverID    string     `json:"driverId"`
	Sectors     [3]float64 `json:"sectors"`
	Theoretical float64    `json:"theoretical"`
	Laps        int        `json:"laps"`
}

// Table is the outcome of Track.
type Table struct {
	Samples       map[string][]model.SectorSample `json:"samples"`
	Bests         []Best                          `json:"bests"`
	Overall       [3]float64                      `json:"overall"`
	OverallHolder [3]string                       `json:"overallHolder"`
	// Unresolved lists requested drivers with no usable sector data.
	Unresolved []string `json:"unresolved"`
	// Unmapped is the part of Unresolved the sector source could not
	// identify at all.
	Unmapped []string `json:"unmapped"`
}

// WithUnmapped records drivers the sector source could not identify. They
// stay in Unresolved too.
func (t Table) WithUnmapped(driverIDs []string) Table {
	unmapped := []string{}
	seen := map[string]bool{}
	for _, d := range driverIDs {
		if seen[d] {
			continue
		}
		seen[d] = true
		unmapped = append(unmapped, d)
		if _, ok := t.BestFor(d); !ok && !contains(t.Unresolved, d) {
			t.Unresolved = append(t.Unresolved, d)
		}
	}
	t.Unmapped = unmapped
	return t
}

// IsUnmapped reports whether driverID was never identified by the source.
func (t Table) IsUnmapped(driverID string) bool {
	return contains(t.Unmapped, driverID)
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

// BestFor returns the composed lap of driverID.
func (t Table) BestFor(driverID string) (Best, bool) {
	for _, b := range t.Bests {
		if b.DriverID == driverID {
			return b, true
		}
	}
	return Best{}, false
}

func usable(v *float64) bool {
	return v != nil && *v > 0 && !math.IsInf(*v, 0) && !math.IsNaN(*v)
}

// Usable reports whether lap has three timed sectors and is not an out lap.
func Usable(lap model.SectorLap) bool {
	return !lap.IsPitOutLap && usable(lap.Sector1) && usable(lap.Sector2) && usable(lap.Sector3)
}

// Track flags personal and overall bests over laps for the requested drivers.
// Laps of drivers not in drivers are ignored.
func Track(laps []model.SectorLap, drivers []string) Table {
	wanted := map[string]bool{}
	order := []string{}
	for _, d := range drivers {
		if !wanted[d] {
			wanted[d] = true
			order = append(order, d)
		}
	}

	table := Table{
		Samples:    map[string][]model.SectorSample{},
		Bests:      []Best{},
		Unresolved: []string{},
		Unmapped:   []string{},
	}
	for _, lap := range laps {
		if !wanted[lap.DriverID] || !Usable(lap) {
			continue
		}
		table.Samples[lap.DriverID] = append(table.Samples[lap.DriverID], model.SectorSample{
			DriverID:  lap.DriverID,
			LapNumber: lap.LapNumber,
			Sectors:   [3]float64{*lap.Sector1, *lap.Sector2, *lap.Sector3},
		})
	}

	personal := map[string][3]float64{}
	for i := range table.Overall {
		table.Overall[i] = math.Inf(1)
	}
	for _, d := range order {
		samples, ok := table.Samples[d]
		if !ok {
			table.Unresolved = append(table.Unresolved, d)
			continue
		}
		pb := [3]float64{math.Inf(1), math.Inf(1), math.Inf(1)}
		for _, s := range samples {
			for i, v := range s.Sectors {
				pb[i] = math.Min(pb[i], v)
			}
		}
		personal[d] = pb
		for i := range pb {
			table.Overall[i] = math.Min(table.Overall[i], pb[i])
		}
		table.Bests = append(table.Bests, Best{
			DriverID:    d,
			Sectors:     pb,
			Theoretical: pb[0] + pb[1] + pb[2],
			Laps:        len(samples),
		})
	}
	if len(table.Bests) == 0 {
		table.Overall = [3]float64{}
		return table
	}

	ids := make([]string, 0, len(personal))
	for id := range personal {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for i := range table.Overall {
		for _, id := range ids {
			if math.Abs(personal[id][i]-table.Overall[i]) < Tolerance {
				table.OverallHolder[i] = id
				break
			}
		}
	}

	for id, samples := range table.Samples {
		pb := personal[id]
		for j := range samples {
			for i, v := range samples[j].Sectors {
				samples[j].IsPersonalBest[i] = math.Abs(v-pb[i]) < Tolerance
				samples[j].IsOverallBest[i] = math.Abs(v-table.Overall[i]) < Tolerance
			}
		}
	}
	return table
}
