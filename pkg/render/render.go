// Package render turns analysis results into monospace tables for Telegram.
package render

import (
	"bytes"
	"f1raceanalyticsbot/pkg/analysis"
	"f1raceanalyticsbot/pkg/helper"
	"f1raceanalyticsbot/pkg/model"
	"f1raceanalyticsbot/pkg/sectors"
	"f1raceanalyticsbot/pkg/telemetry"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
)

const (
	tableDriver = "PIL"
	simulated   = "*"
)

// Labeler turns a driver id into the short label shown in tables.
type Labeler func(driverID string) string

// Codes labels drivers with their three letter code when the feed has one.
func Codes(drivers []model.Driver) Labeler {
	codes := map[string]string{}
	for _, d := range drivers {
		if d.Code != "" {
			codes[d.DriverID] = d.Code
		}
	}
	return func(driverID string) string {
		if code, ok := codes[driverID]; ok {
			return code
		}
		return helper.GetDriverCodeName(driverID)
	}
}

func newTable() (table.Writer, *bytes.Buffer) {
	var b bytes.Buffer
	t := table.NewWriter()
	t.SetOutputMirror(&b)
	t.SetStyle(table.StyleRounded)
	return t, &b
}

// Block wraps a rendered table in a MarkdownV2 code block.
func Block(title, body string) string {
	escape := strings.NewReplacer("\\", "\\\\", "`", "\\`")
	return fmt.Sprintf("```\n%s\n\n%s```", escape.Replace(title), escape.Replace(body))
}

func QuickStats(race model.Race, qs analysis.QuickStats, label Labeler) string {
	lines := []string{
		fmt.Sprintf("🏁 %s", race),
		fmt.Sprintf("Vueltas: %d", qs.TotalLaps),
		fmt.Sprintf("Pilotos: %d", qs.Drivers),
		fmt.Sprintf("Paradas: %d", qs.PitStops),
	}
	if qs.FastestLap > 0 {
		lines = append(lines, fmt.Sprintf("Vuelta rápida: %s %s (v%d)", label(qs.FastestDriver), helper.FormatRaceTime(qs.FastestTime), qs.FastestLap))
	}
	if qs.AveragePitSeconds > 0 {
		lines = append(lines, fmt.Sprintf("Parada media: %.1fs", qs.AveragePitSeconds))
	}
	return strings.Join(lines, "\n")
}

func LapTimes(report analysis.Report, label Labeler) string {
	t, b := newTable()
	header := table.Row{"V"}
	for _, d := range report.Drivers {
		header = append(header, label(d.DriverID))
	}
	t.AppendHeader(header)

	for _, lap := range report.Laps {
		row := table.Row{lap}
		for _, d := range report.Drivers {
			row = append(row, lapTime(d.LapTimes, lap))
		}
		t.AppendRow(row)
	}
	t.Render()
	return b.String()
}

func lapTime(values []model.LapValue, lap int) string {
	for _, v := range values {
		if v.Lap == lap {
			return helper.FormatRaceTime(v.Time)
		}
	}
	return "-"
}

func Gaps(report analysis.Report, label Labeler) string {
	t, b := newTable()
	t.AppendHeader(table.Row{tableDriver, "MEJ", "PEO", "GAP MED", "GAN", "PÉR", "LÍD"})
	for _, d := range report.Drivers {
		s := d.Stats
		if len(d.Gaps) == 0 {
			t.AppendRow(table.Row{label(d.DriverID), "-", "-", "-", "-", "-", "-"})
			continue
		}
		t.AppendRow(table.Row{
			label(d.DriverID),
			s.BestPosition,
			s.WorstPosition,
			helper.SecondsToDiff(s.AverageGap),
			fmt.Sprintf("%.3f", s.BiggestGain),
			fmt.Sprintf("%.3f", s.BiggestLoss),
			s.TimesLed,
		})
	}
	t.Render()
	return b.String()
}

// Intervals shows the running order on the last reported lap.
func Intervals(report analysis.Report, label Labeler) string {
	type row struct {
		driverID string
		point    model.IntervalPoint
	}
	rows := []row{}
	lastLap := 0
	if len(report.Laps) > 0 {
		lastLap = report.Laps[len(report.Laps)-1]
	}
	for _, d := range report.Drivers {
		for _, p := range d.Intervals {
			if p.Lap == lastLap {
				rows = append(rows, row{d.DriverID, p})
			}
		}
	}
	sort.SliceStable(rows, func(i, j int) bool {
		pi, pj := rows[i].point.Position, rows[j].point.Position
		if (pi <= 0) != (pj <= 0) {
			return pj <= 0
		}
		return pi < pj
	})

	t, b := newTable()
	t.AppendHeader(table.Row{"POS", tableDriver, "INTERVALO"})
	for _, r := range rows {
		t.AppendRow(table.Row{r.point.Position, label(r.driverID), helper.SecondsToDiff(r.point.Interval)})
	}
	t.Render()
	return fmt.Sprintf("Vuelta %d\n%s", lastLap, b.String())
}

func Stints(report analysis.Report, label Labeler) string {
	t, b := newTable()
	t.AppendHeader(table.Row{tableDriver, "#", "GOMA" + simulated, "VUELTAS", "RITMO", "DEG/V"})
	for _, d := range report.Drivers {
		for _, s := range d.StintSummary {
			pace, slope := "-", "-"
			if s.ValidLaps > 0 {
				pace = helper.FormatRaceTime(s.MeanPace)
				slope = fmt.Sprintf("%+.3f", s.Slope)
			}
			t.AppendRow(table.Row{
				label(d.DriverID),
				s.Stint.Index + 1,
				compound(s.Stint.Compound),
				fmt.Sprintf("%d-%d", s.Stint.StartLap, s.Stint.EndLap),
				pace,
				slope,
			})
		}
		t.AppendSeparator()
	}
	t.Render()
	return b.String() + simulated + " compuesto simulado, el feed no lo publica"
}

func compound(c model.Compound) string {
	if c == "" {
		return "?"
	}
	return string(c)[:1]
}

func Sectors(st sectors.Table, label Labeler) string {
	t, b := newTable()
	t.AppendHeader(table.Row{tableDriver, "S1", "S2", "S3", "IDEAL"})
	for _, best := range st.Bests {
		row := table.Row{label(best.DriverID)}
		for i, v := range best.Sectors {
			mark := ""
			if st.OverallHolder[i] == best.DriverID {
				mark = "★"
			}
			row = append(row, helper.ToSectorTime(v)+mark)
		}
		row = append(row, helper.FormatRaceTime(best.Theoretical))
		t.AppendRow(row)
	}
	if len(st.Bests) > 0 {
		t.AppendSeparator()
		sum := st.Overall[0] + st.Overall[1] + st.Overall[2]
		t.AppendRow(table.Row{"MEJ", helper.ToSectorTime(st.Overall[0]), helper.ToSectorTime(st.Overall[1]), helper.ToSectorTime(st.Overall[2]), helper.FormatRaceTime(sum)})
	}
	t.Render()
	out := b.String()
	names, unmapped := []string{}, []string{}
	for _, id := range st.Unresolved {
		if st.IsUnmapped(id) {
			unmapped = append(unmapped, label(id))
		} else {
			names = append(names, label(id))
		}
	}
	if len(names) > 0 {
		out += "Sin datos de sectores: " + strings.Join(names, ", ") + "\n"
	}
	if len(unmapped) > 0 {
		out += "No encontrados en OpenF1: " + strings.Join(unmapped, ", ") + "\n"
	}
	return out
}

func Telemetry(pair telemetry.Pair, labelA, labelB string) string {
	a, b := telemetry.Summarize(pair.A), telemetry.Summarize(pair.B)
	t, buf := newTable()
	t.AppendHeader(table.Row{"", labelA, labelB})
	t.AppendRow(table.Row{"VEL MÁX", kmh(a.TopSpeed), kmh(b.TopSpeed)})
	t.AppendRow(table.Row{"VEL MEDIA", kmh(a.AverageSpeed), kmh(b.AverageSpeed)})
	t.AppendRow(table.Row{"GAS 100%", percent(a.FullThrottle), percent(b.FullThrottle)})
	t.AppendRow(table.Row{"FRENO", percent(a.Braking), percent(b.Braking)})
	t.Render()
	return fmt.Sprintf("%s, vuelta %d (simulada)\n%s", pair.Circuit.ID, pair.Lap, buf.String())
}

func kmh(v float64) string {
	return fmt.Sprintf("%.0f km/h", v)
}

func percent(v float64) string {
	return fmt.Sprintf("%.0f%%", math.Round(v*100))
}

func DriverStandings(standings []model.DriverStanding) string {
	t, b := newTable()
	t.AppendHeader(table.Row{"POS", tableDriver, "EQUIPO", "PTS", "VIC"})
	for _, s := range standings {
		code := s.Driver.Code
		if code == "" {
			code = helper.GetDriverCodeName(s.Driver.DriverID)
		}
		t.AppendRow(table.Row{s.Position, code, s.Constructor, s.Points, s.Wins})
	}
	t.Render()
	return b.String()
}

func ConstructorStandings(standings []model.ConstructorStanding) string {
	t, b := newTable()
	t.AppendHeader(table.Row{"POS", "EQUIPO", "PTS", "VIC"})
	for _, s := range standings {
		t.AppendRow(table.Row{s.Position, s.Name, s.Points, s.Wins})
	}
	t.Render()
	return b.String()
}
