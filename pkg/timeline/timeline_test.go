package timeline

import (
	"f1raceanalyticsbot/pkg/model"
	"math"
	"testing"
)

func near(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

// three laps, hamilton leads laps 1-2, leclerc takes the lead on lap 3
func sampleLaps() []model.LapRecord {
	return []model.LapRecord{
		{Number: 1, Timings: []model.Timing{
			{DriverID: "hamilton", Time: "1:30.000", Position: 1},
			{DriverID: "leclerc", Time: "1:31.000", Position: 2},
			{DriverID: "norris", Time: "1:32.500", Position: 3},
		}},
		{Number: 2, Timings: []model.Timing{
			{DriverID: "hamilton", Time: "1:30.000", Position: 1},
			{DriverID: "leclerc", Time: "1:29.500", Position: 2},
			{DriverID: "norris", Time: "bad", Position: 3},
		}},
		{Number: 3, Timings: []model.Timing{
			{DriverID: "leclerc", Time: "1:28.000", Position: 1},
			{DriverID: "hamilton", Time: "1:30.000", Position: 2},
			{DriverID: "norris", Time: "1:29.000", Position: 3},
		}},
	}
}

func TestBuildCumulative(t *testing.T) {
	tl := Build(sampleLaps())

	ham := tl.Series("hamilton").Points
	if len(ham) != 3 || !near(ham[2].Time, 270) {
		t.Fatalf("expected hamilton to total 270s over 3 laps but found %+v", ham)
	}

	nor := tl.Series("norris").Points
	if len(nor) != 2 {
		t.Fatalf("expected norris to skip the unparsable lap but found %+v", nor)
	}
	if nor[1].Lap != 3 || !near(nor[1].Time, 92.5+89) {
		t.Errorf("expected the running total to carry over the skipped lap but found %+v", nor[1])
	}
	if _, ok := tl.At("norris", 2); ok {
		t.Errorf("expected no point for norris on lap 2")
	}
}

func TestBuildIsNonDecreasing(t *testing.T) {
	laps := sampleLaps()
	laps = append(laps, model.LapRecord{Number: 4, Timings: []model.Timing{
		{DriverID: "hamilton", Time: "-5.0", Position: 1},
		{DriverID: "leclerc", Time: "3:40.000", Position: 2},
	}})
	tl := Build(laps)
	for _, d := range tl.Drivers() {
		pts := tl.Series(d).Points
		for i := 1; i < len(pts); i++ {
			if pts[i].Time < pts[i-1].Time {
				t.Errorf("expected non-decreasing cumulative time for %s but found %v after %v", d, pts[i].Time, pts[i-1].Time)
			}
		}
	}
	if len(tl.Series("leclerc").Points) != 3 {
		t.Errorf("expected the 220s lap to be skipped")
	}
}

func TestBuildOrdersLaps(t *testing.T) {
	laps := sampleLaps()
	laps[0], laps[2] = laps[2], laps[0]
	pts := Build(laps).Series("hamilton").Points
	if pts[0].Lap != 1 || pts[2].Lap != 3 {
		t.Errorf("expected lap order 1..3 but found %+v", pts)
	}
}

func TestGapsLeaderIsZero(t *testing.T) {
	laps := sampleLaps()
	tl := Build(laps)
	gaps := Gaps(laps, tl, []string{"hamilton", "leclerc", "norris"})

	for _, lap := range laps {
		leader, _, ok := FindLeader(lap, tl)
		if !ok {
			t.Fatalf("expected a leader on lap %d", lap.Number)
		}
		for _, g := range gaps[leader] {
			if g.Lap == lap.Number && g.Gap != 0 {
				t.Errorf("expected leader %s to have gap 0 on lap %d but found %v", leader, lap.Number, g.Gap)
			}
		}
	}

	lec := gaps["leclerc"]
	if len(lec) != 3 || !near(lec[0].Gap, 1) || !near(lec[1].Gap, 0.5) || lec[2].Gap != 0 {
		t.Errorf("unexpected leclerc gaps %+v", lec)
	}
	ham := gaps["hamilton"]
	if !near(ham[2].Gap, 1.5) {
		t.Errorf("expected hamilton 1.5s behind on lap 3 but found %v", ham[2].Gap)
	}
}

func TestFindLeaderTieBreak(t *testing.T) {
	laps := []model.LapRecord{
		{Number: 1, Timings: []model.Timing{
			{DriverID: "sainz", Time: "1:31.000", Position: 1},
			{DriverID: "albon", Time: "1:30.000", Position: 1},
			{DriverID: "bottas", Time: "1:30.000", Position: 1},
			{DriverID: "zhou", Time: "1:29.000", Position: 2},
		}},
		{Number: 2, Timings: []model.Timing{
			{DriverID: "sainz", Time: "bad", Position: 1},
			{DriverID: "zhou", Time: "1:29.000", Position: 2},
		}},
	}
	tl := Build(laps)

	leader, cumulative, ok := FindLeader(laps[0], tl)
	if !ok || leader != "albon" || cumulative != 90 {
		t.Errorf("expected albon at 90s but found %s at %v (%v)", leader, cumulative, ok)
	}

	if _, _, ok := FindLeader(laps[1], tl); ok {
		t.Errorf("expected no leader when the only leader has no timeline entry")
	}
	gaps := Gaps(laps, tl, []string{"zhou"})
	if len(gaps["zhou"]) != 1 || gaps["zhou"][0].Lap != 1 {
		t.Errorf("expected a single gap point on lap 1 but found %+v", gaps["zhou"])
	}
}

func TestIntervals(t *testing.T) {
	laps := sampleLaps()
	tl := Build(laps)
	intervals := Intervals(laps, tl, []string{"hamilton", "norris"})

	ham := intervals["hamilton"]
	if len(ham) != 3 || ham[0].Interval != 0 || ham[1].Interval != 0 {
		t.Fatalf("expected hamilton to have interval 0 while leading but found %+v", ham)
	}
	if !near(ham[2].Interval, 1.5) {
		t.Errorf("expected 1.5s to leclerc on lap 3 but found %v", ham[2].Interval)
	}

	nor := intervals["norris"]
	if len(nor) != 2 {
		t.Fatalf("expected no interval for norris on lap 2 but found %+v", nor)
	}
	if !near(nor[0].Interval, 1.5) {
		t.Errorf("expected 1.5s to leclerc on lap 1 but found %v", nor[0].Interval)
	}
}

func TestIntervalsUnknownPositionLast(t *testing.T) {
	laps := []model.LapRecord{{Number: 1, Timings: []model.Timing{
		{DriverID: "stroll", Time: "1:35.000", Position: 0},
		{DriverID: "alonso", Time: "1:30.000", Position: 1},
		{DriverID: "ocon", Time: "1:31.000", Position: 2},
	}}}
	tl := Build(laps)
	intervals := Intervals(laps, tl, []string{"stroll", "alonso"})
	if got := intervals["alonso"]; len(got) != 1 || got[0].Interval != 0 {
		t.Errorf("expected alonso first in running order but found %+v", got)
	}
	if got := intervals["stroll"]; len(got) != 1 || !near(got[0].Interval, 4) {
		t.Errorf("expected stroll 4s behind ocon but found %+v", got)
	}
}

func TestComputeStats(t *testing.T) {
	gaps := []model.GapPoint{
		{Lap: 1, Gap: 0, Position: 1},
		{Lap: 2, Gap: 2, Position: 3},
		{Lap: 3, Gap: 1, Position: 2},
		{Lap: 4, Gap: 0.05, Position: 1},
		{Lap: 5, Gap: 3, Position: 4},
	}
	s := ComputeStats("hamilton", gaps)
	if s.BestPosition != 1 || s.WorstPosition != 4 {
		t.Errorf("expected positions 1..4 but found %d..%d", s.BestPosition, s.WorstPosition)
	}
	if !near(s.AverageGap, 2) {
		t.Errorf("expected average gap 2 but found %v", s.AverageGap)
	}
	if !near(s.BiggestGain, 1) {
		t.Errorf("expected biggest gain 1 but found %v", s.BiggestGain)
	}
	if !near(s.BiggestLoss, 2.95) {
		t.Errorf("expected biggest loss 2.95 but found %v", s.BiggestLoss)
	}
	if s.TimesLed != 2 {
		t.Errorf("expected 2 laps led but found %d", s.TimesLed)
	}

	empty := ComputeStats("nobody", nil)
	if empty.BestPosition != 0 || empty.AverageGap != 0 || empty.TimesLed != 0 {
		t.Errorf("expected zero stats but found %+v", empty)
	}
}
