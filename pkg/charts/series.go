package charts

import (
	"encoding/json"
	"f1raceanalyticsbot/pkg/analysis"
	"f1raceanalyticsbot/pkg/helper"
	"f1raceanalyticsbot/pkg/model"
	"f1raceanalyticsbot/pkg/telemetry"
	"fmt"
	"image/color"
	"math"
	"strings"
)

type swatch struct {
	color color.RGBA
	emoji string
}

var palette = []swatch{
	{color.RGBA{0xe1, 0x06, 0x00, 0xff}, "🔴"},
	{color.RGBA{0x1e, 0x41, 0xff, 0xff}, "🔵"},
	{color.RGBA{0x00, 0xa1, 0x4b, 0xff}, "🟢"},
	{color.RGBA{0xff, 0x87, 0x00, 0xff}, "🟠"},
	{color.RGBA{0x8e, 0x44, 0xad, 0xff}, "🟣"},
	{color.RGBA{0xf1, 0xc4, 0x0f, 0xff}, "🟡"},
	{color.RGBA{0x8b, 0x5a, 0x2b, 0xff}, "🟤"},
	{color.RGBA{0x22, 0x22, 0x22, 0xff}, "⚫"},
}

// ID identifies a chart by everything that changes its content. extra holds
// anything else the kind depends on, such as the telemetry lap.
func ID(race model.Race, kind string, cfg model.FilterConfig, drivers []string, extra ...string) string {
	filters, _ := json.Marshal(cfg)
	parts := []string{race.Key(), kind, string(filters), strings.Join(drivers, ",")}
	return helper.ToID(strings.Join(append(parts, extra...), "|"))
}

func colorAt(i int) color.RGBA {
	return palette[i%len(palette)].color
}

// Legend maps every series to the emoji of its colour, one per line, so the
// bot can caption a chart that has no text on it.
func Legend(c Chart, label func(string) string) string {
	lines := []string{}
	for i, s := range c.Series {
		name := s.Label
		if label != nil {
			name = label(s.Label)
		}
		lines = append(lines, fmt.Sprintf("%s %s", palette[i%len(palette)].emoji, name))
	}
	return strings.Join(lines, "\n")
}

func LapTimes(report analysis.Report) Chart {
	c := Chart{}
	for i, d := range report.Drivers {
		s := Series{Label: d.DriverID, Color: colorAt(i)}
		for _, v := range d.LapTimes {
			s.Points = append(s.Points, Point{X: float64(v.Lap), Y: v.Time})
		}
		c.Series = append(c.Series, s)
	}
	return c
}

// Gaps plots the gap to the leader. Segments reaching a pit lap are dashed.
func Gaps(report analysis.Report, pitStops []model.PitStopEvent) Chart {
	c := Chart{InvertY: true, ZeroLine: true}
	for i, d := range report.Drivers {
		pits := pitLapsOf(d.DriverID, pitStops)
		s := Series{Label: d.DriverID, Color: colorAt(i)}
		for _, g := range d.Gaps {
			s.Points = append(s.Points, Point{X: float64(g.Lap), Y: g.Gap, Dashed: pits[g.Lap]})
		}
		c.Series = append(c.Series, s)
	}
	return c
}

func Intervals(report analysis.Report) Chart {
	c := Chart{InvertY: true, ZeroLine: true}
	for i, d := range report.Drivers {
		s := Series{Label: d.DriverID, Color: colorAt(i)}
		for _, iv := range d.Intervals {
			s.Points = append(s.Points, Point{X: float64(iv.Lap), Y: iv.Interval})
		}
		c.Series = append(c.Series, s)
	}
	return c
}

// Degradation plots lap time against lap number with a break between stints.
func Degradation(report analysis.Report) Chart {
	c := Chart{}
	for i, d := range report.Drivers {
		s := Series{Label: d.DriverID, Color: colorAt(i)}
		stint := -1
		for _, p := range d.Degradation {
			if stint >= 0 && p.StintIndex != stint {
				s.Points = append(s.Points, Point{X: math.NaN(), Y: math.NaN()})
			}
			stint = p.StintIndex
			s.Points = append(s.Points, Point{X: float64(p.Lap), Y: p.LapTime})
		}
		c.Series = append(c.Series, s)
	}
	return c
}

// Speed overlays the synthetic speed traces of a head-to-head.
func Speed(pair telemetry.Pair, labelA, labelB string) Chart {
	c := Chart{}
	for i, trace := range [][]model.TelemetryPoint{pair.A, pair.B} {
		s := Series{Label: labelA, Color: colorAt(i)}
		if i == 1 {
			s.Label = labelB
		}
		for _, p := range trace {
			s.Points = append(s.Points, Point{X: p.Distance, Y: p.Speed})
		}
		c.Series = append(c.Series, s)
	}
	return c
}

func pitLapsOf(driverID string, pitStops []model.PitStopEvent) map[int]bool {
	laps := map[int]bool{}
	for _, ps := range pitStops {
		if ps.DriverID == driverID {
			laps[ps.Lap] = true
		}
	}
	return laps
}
