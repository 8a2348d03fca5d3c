// Package telemetry synthesises a plausible speed, throttle, brake and gear
// trace for one lap when no car data is available. The trace is procedural
// and must never be presented as measured.
package telemetry

import (
	"f1raceanalyticsbot/pkg/model"
	"math"
	"math/rand"

	"github.com/pkg/errors"
)

// Samples is the number of points in every trace.
const Samples = 200

const (
	MinSkill = 0.9
	MaxSkill = 1.1
	// RivalSkill is the multiplier of the second car in a head-to-head.
	RivalSkill = 0.98
)

var ErrInvalidLapTime = errors.New("invalid lap time")

type zone int

const (
	straight zone = iota
	corner
	approach
	exit
)

// Request describes one synthetic lap. Identical requests produce identical
// traces.
type Request struct {
	CircuitID string
	LapTime   float64
	Skill     float64
	Seed      int64
}

// Pair is a head-to-head comparison of two drivers on the same lap.
type Pair struct {
	Circuit Circuit                `json:"circuit"`
	Lap     int                    `json:"lap"`
	A       []model.TelemetryPoint `json:"a"`
	B       []model.TelemetryPoint `json:"b"`
}

func classify(phase float64) zone {
	s := math.Sin(phase)
	switch {
	case math.Sin(phase+math.Pi/4) > 0.3:
		return corner
	case s > 0.5 && s < 0.9:
		return approach
	case s > -0.7 && s < -0.3:
		return exit
	}
	return straight
}

// Gear maps a speed in km/h to a gear between 2 and 8.
func Gear(speed float64) int {
	for i, limit := range []float64{80, 120, 160, 200, 240, 280} {
		if speed < limit {
			return i + 2
		}
	}
	return 8
}

func between(r *rand.Rand, lo, hi float64) float64 {
	return lo + r.Float64()*(hi-lo)
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(hi, math.Max(lo, v))
}

// Synthesize generates a trace of Samples points evenly spaced over the
// circuit length.
func Synthesize(req Request) ([]model.TelemetryPoint, error) {
	if math.IsNaN(req.LapTime) || math.IsInf(req.LapTime, 0) || req.LapTime <= 0 {
		return nil, errors.Wrapf(ErrInvalidLapTime, "%v", req.LapTime)
	}
	c := CircuitFor(req.CircuitID)
	skill := clamp(req.Skill, MinSkill, MaxSkill)
	r := rand.New(rand.NewSource(req.Seed))

	points := make([]model.TelemetryPoint, 0, Samples)
	for i := 0; i < Samples; i++ {
		distance := float64(i) / Samples * c.Length
		phase := 2 * math.Pi * distance * float64(c.Corners) / c.Length

		var speed, throttle, brake float64
		switch classify(phase) {
		case corner:
			speed = c.TopSpeed * between(r, 0.6, 0.8) * skill
			throttle = between(r, 40, 70)
			brake = between(r, 10, 30)
		case approach:
			speed = c.TopSpeed * between(r, 0.7, 0.85) * skill
			throttle = between(r, 20, 40)
			brake = between(r, 60, 100)
		case exit:
			speed = c.TopSpeed * between(r, 0.85, 1) * skill
			throttle = between(r, 70, 95)
		default:
			speed = c.TopSpeed * between(r, 0.85, 1) * skill
			throttle = between(r, 95, 100)
		}

		points = append(points, model.TelemetryPoint{
			Distance: math.Round(distance),
			Speed:    math.Round(speed),
			Throttle: math.Round(clamp(throttle, 0, 100)),
			Brake:    math.Round(clamp(brake, 0, 100)),
			Gear:     Gear(speed),
		})
	}
	return points, nil
}

// HeadToHead synthesises both drivers' traces for lap. The second driver runs
// with RivalSkill and the next seed.
func HeadToHead(circuitID string, lap int, lapTimeA, lapTimeB float64, seed int64) (Pair, error) {
	a, err := Synthesize(Request{CircuitID: circuitID, LapTime: lapTimeA, Skill: 1, Seed: seed})
	if err != nil {
		return Pair{}, errors.Wrap(err, "first driver")
	}
	b, err := Synthesize(Request{CircuitID: circuitID, LapTime: lapTimeB, Skill: RivalSkill, Seed: seed + 1})
	if err != nil {
		return Pair{}, errors.Wrap(err, "second driver")
	}
	return Pair{Circuit: CircuitFor(circuitID), Lap: lap, A: a, B: b}, nil
}

// Summary condenses a trace for tables.
type Summary struct {
	TopSpeed     float64 `json:"topSpeed"`
	AverageSpeed float64 `json:"averageSpeed"`
	FullThrottle float64 `json:"fullThrottle"` // share of samples at or above 95 %
	Braking      float64 `json:"braking"`      // share of samples with brake applied
}

func Summarize(points []model.TelemetryPoint) Summary {
	s := Summary{}
	if len(points) == 0 {
		return s
	}
	full, braking, sum := 0, 0, 0.0
	for _, p := range points {
		sum += p.Speed
		s.TopSpeed = math.Max(s.TopSpeed, p.Speed)
		if p.Throttle >= 95 {
			full++
		}
		if p.Brake > 0 {
			braking++
		}
	}
	n := float64(len(points))
	s.AverageSpeed = sum / n
	s.FullThrottle = float64(full) / n
	s.Braking = float64(braking) / n
	return s
}
