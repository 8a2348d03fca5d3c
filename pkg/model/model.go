package model

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
)

// Timing is one driver's entry on a lap as reported by the timing feed.
type Timing struct {
	DriverID string `json:"driverId"`
	Time     string `json:"time"`
	Position int    `json:"position"` // 0 when the feed did not report one
}

// LapRecord holds every driver's timing for one lap.
type LapRecord struct {
	Number  int      `json:"number"`
	Timings []Timing `json:"timings"`
}

// TimingFor returns the entry for driverID on this lap.
func (l LapRecord) TimingFor(driverID string) (Timing, bool) {
	for _, t := range l.Timings {
		if t.DriverID == driverID {
			return t, true
		}
	}
	return Timing{}, false
}

type PitStopEvent struct {
	DriverID string  `json:"driverId"`
	Lap      int     `json:"lap"`
	Stop     int     `json:"stop"`
	Duration float64 `json:"duration"` // seconds, NaN when the feed value was unparsable
}

type Driver struct {
	DriverID   string `json:"driverId"`
	Code       string `json:"code"`
	Number     string `json:"number"`
	GivenName  string `json:"givenName"`
	FamilyName string `json:"familyName"`
}

func (d Driver) FullName() string {
	return strings.TrimSpace(d.GivenName + " " + d.FamilyName)
}

// Race identifies one round of a season.
type Race struct {
	Season      string `json:"season"`
	Round       string `json:"round"`
	RaceName    string `json:"raceName"`
	Date        string `json:"date"`
	CircuitName string `json:"circuitName"`
}

func (r Race) Key() string {
	return r.Season + "/" + r.Round
}

func (r Race) String() string {
	return fmt.Sprintf("%s %s (R%s)", r.Season, r.RaceName, r.Round)
}

// RaceBatch is an immutable snapshot of everything fetched for one race.
type RaceBatch struct {
	Race     Race           `json:"race"`
	Drivers  []Driver       `json:"drivers"`
	Laps     []LapRecord    `json:"laps"`
	PitStops []PitStopEvent `json:"pitStops"`
}

// IsEmpty reports whether the batch is structurally absent.
func (b RaceBatch) IsEmpty() bool {
	return len(b.Laps) == 0
}

// DriverIDs returns the driver ids known to the batch, preferring the result
// order and falling back to first appearance in the lap timings.
func (b RaceBatch) DriverIDs() []string {
	ids := []string{}
	seen := map[string]bool{}
	for _, d := range b.Drivers {
		if !seen[d.DriverID] {
			seen[d.DriverID] = true
			ids = append(ids, d.DriverID)
		}
	}
	for _, lap := range b.Laps {
		for _, t := range lap.Timings {
			if !seen[t.DriverID] {
				seen[t.DriverID] = true
				ids = append(ids, t.DriverID)
			}
		}
	}
	return ids
}

type CumulativePoint struct {
	Lap      int     `json:"lap"`
	Time     float64 `json:"time"`
	Position int     `json:"position"`
}

type DriverSeries struct {
	DriverID string            `json:"driverId"`
	Points   []CumulativePoint `json:"points"`
}

type GapPoint struct {
	Lap      int     `json:"lap"`
	Gap      float64 `json:"gap"`
	Position int     `json:"position"`
}

// LeadingThreshold is the gap under which a driver counts as leading.
const LeadingThreshold = 0.1

func (g GapPoint) Leading() bool {
	return math.Abs(g.Gap) < LeadingThreshold
}

type IntervalPoint struct {
	Lap      int     `json:"lap"`
	Interval float64 `json:"interval"`
	Position int     `json:"position"`
}

// LapValue is a lap time after value-level filtering. Time is NaN when the
// point was nulled so charts can span the gap.
type LapValue struct {
	Lap  int     `json:"lap"`
	Time float64 `json:"time"`
}

type Compound string

const (
	CompoundSoft   Compound = "SOFT"
	CompoundMedium Compound = "MEDIUM"
	CompoundHard   Compound = "HARD"
)

// Stint is a pit-stop bounded run of laps. The compound is never sourced
// from the feed; Simulated marks it as a rotation placeholder.
type Stint struct {
	DriverID  string   `json:"driverId"`
	Index     int      `json:"index"`
	Compound  Compound `json:"compound"`
	StartLap  int      `json:"startLap"`
	EndLap    int      `json:"endLap"`
	Simulated bool     `json:"simulated"`
}

func (s Stint) Laps() int {
	return s.EndLap - s.StartLap + 1
}

func (s Stint) Contains(lap int) bool {
	return lap >= s.StartLap && lap <= s.EndLap
}

type DegradationPoint struct {
	StintIndex int     `json:"stintIndex"`
	LapInStint int     `json:"lapInStint"`
	TyreAge    int     `json:"tyreAge"`
	Lap        int     `json:"lap"`
	LapTime    float64 `json:"lapTime"`
}

// SectorLap is the ingestion shape of a lap with sector durations. Nil
// sectors were not reported by the feed.
type SectorLap struct {
	DriverID     string   `json:"driverId"`
	DriverNumber int      `json:"driverNumber"`
	LapNumber    int      `json:"lapNumber"`
	Sector1      *float64 `json:"sector1"`
	Sector2      *float64 `json:"sector2"`
	Sector3      *float64 `json:"sector3"`
	IsPitOutLap  bool     `json:"isPitOutLap"`
}

type SectorSample struct {
	DriverID       string     `json:"driverId"`
	LapNumber      int        `json:"lapNumber"`
	Sectors        [3]float64 `json:"sectors"`
	IsPersonalBest [3]bool    `json:"isPersonalBest"`
	IsOverallBest  [3]bool    `json:"isOverallBest"`
}

type TelemetryPoint struct {
	Distance float64 `json:"distance"`
	Speed    float64 `json:"speed"`
	Throttle float64 `json:"throttle"`
	Brake    float64 `json:"brake"`
	Gear     int     `json:"gear"`
}

// nullable maps NaN to nil so encoding/json writes null instead of failing.
func nullable(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func (v LapValue) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Lap  int      `json:"lap"`
		Time *float64 `json:"time"`
	}{v.Lap, nullable(v.Time)})
}

func (p PitStopEvent) MarshalJSON() ([]byte, error) {
	type plain PitStopEvent
	return json.Marshal(struct {
		plain
		Duration *float64 `json:"duration"`
	}{plain(p), nullable(p.Duration)})
}
