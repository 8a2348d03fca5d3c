package charts

import (
	"f1raceanalyticsbot/pkg/analysis"
	"f1raceanalyticsbot/pkg/model"
	"f1raceanalyticsbot/pkg/telemetry"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func report() analysis.Report {
	return analysis.Report{
		Drivers: []analysis.DriverReport{
			{
				DriverID: "hamilton",
				LapTimes: []model.LapValue{{Lap: 1, Time: 90}, {Lap: 2, Time: math.NaN()}, {Lap: 3, Time: 91}},
				Gaps:     []model.GapPoint{{Lap: 1, Gap: 0}, {Lap: 2, Gap: 1.5}, {Lap: 3, Gap: 2}},
				Degradation: []model.DegradationPoint{
					{StintIndex: 0, Lap: 1, LapTime: 90},
					{StintIndex: 0, Lap: 2, LapTime: 90.5},
					{StintIndex: 1, Lap: 4, LapTime: 89},
				},
			},
			{
				DriverID: "leclerc",
				Gaps:     []model.GapPoint{{Lap: 1, Gap: 0.8}, {Lap: 2, Gap: 0}, {Lap: 3, Gap: 0}},
			},
		},
	}
}

func TestGapsDashPitLaps(t *testing.T) {
	c := Gaps(report(), []model.PitStopEvent{{DriverID: "hamilton", Lap: 2}})
	if !c.InvertY || len(c.Series) != 2 {
		t.Fatalf("unexpected chart %+v", c)
	}
	ham := c.Series[0].Points
	if ham[0].Dashed || !ham[1].Dashed || ham[2].Dashed {
		t.Errorf("expected only the pit lap segment dashed but found %+v", ham)
	}
	for _, p := range c.Series[1].Points {
		if p.Dashed {
			t.Errorf("expected no dashed segment for leclerc")
		}
	}
}

func TestDegradationBreaksBetweenStints(t *testing.T) {
	c := Degradation(report())
	points := c.Series[0].Points
	if len(points) != 4 || !math.IsNaN(points[2].Y) {
		t.Errorf("expected a break before the second stint but found %+v", points)
	}
}

func TestEmpty(t *testing.T) {
	if !(Chart{}).Empty() {
		t.Errorf("expected a chart without series to be empty")
	}
	c := Chart{Series: []Series{{Points: []Point{{X: 1, Y: math.NaN()}}}}}
	if !c.Empty() {
		t.Errorf("expected a chart of NaN points to be empty")
	}
	if LapTimes(report()).Empty() {
		t.Errorf("expected lap times to be drawable")
	}
}

func TestLegend(t *testing.T) {
	legend := Legend(LapTimes(report()), strings.ToUpper)
	if legend != "🔴 HAMILTON\n🔵 LECLERC" {
		t.Errorf("unexpected legend %q", legend)
	}
}

func TestBuildFiles(t *testing.T) {
	dir := t.TempDir()
	pair, err := telemetry.HeadToHead("monza", 10, 81.5, 82.0, 7)
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	charts := map[string]Chart{
		"gaps.png":  Gaps(report(), nil),
		"speed.png": Speed(pair, "HAM", "LEC"),
		"laps.svg":  LapTimes(report()),
		"empty.png": {},
	}
	for name, c := range charts {
		path := filepath.Join(dir, name)
		build := BuildPNG
		if strings.HasSuffix(name, ".svg") {
			build = BuildSVG
		}
		if err := build(path, c); err != nil {
			t.Fatalf("unexpected error building %s: %v", name, err)
		}
		info, err := os.Stat(path)
		if err != nil || info.Size() == 0 {
			t.Errorf("expected %s to be written", name)
		}
	}
}

func TestID(t *testing.T) {
	race := model.Race{Season: "2024", Round: "5"}
	a := ID(race, "gaps", model.FilterConfig{MinLapTime: model.FloatPtr(80.25)}, nil)
	b := ID(race, "gaps", model.FilterConfig{MinLapTime: model.FloatPtr(80.2)}, nil)
	if a == b || a != ID(race, "gaps", model.FilterConfig{MinLapTime: model.FloatPtr(80.25)}, nil) {
		t.Errorf("expected ids to follow the content")
	}
	if ID(race, "speed", model.FilterConfig{}, nil, "12") == ID(race, "speed", model.FilterConfig{}, nil, "13") {
		t.Errorf("expected the extra parts to change the id")
	}
}
