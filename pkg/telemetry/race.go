package telemetry

import (
	"f1raceanalyticsbot/pkg/helper"
	"f1raceanalyticsbot/pkg/model"
	"fmt"
	"hash/fnv"

	"github.com/pkg/errors"
)

// Seed derives a stable seed so that the same race and lap always yield the
// same traces.
func Seed(raceKey string, lap int) int64 {
	h := fnv.New64a()
	fmt.Fprintf(h, "%s#%d", raceKey, lap)
	return int64(h.Sum64() >> 1)
}

// LapTime returns the parsed lap time of driverID on lap, NaN when missing.
func LapTime(batch model.RaceBatch, driverID string, lap int) float64 {
	for _, l := range batch.Laps {
		if l.Number != lap {
			continue
		}
		if t, ok := l.TimingFor(driverID); ok {
			return helper.ParseRaceTime(t.Time)
		}
	}
	return helper.ParseRaceTime("")
}

// ForRace builds the head-to-head of two drivers on one lap of a race, using
// their real lap times and a circuit guessed from the race name.
func ForRace(batch model.RaceBatch, driverA, driverB string, lap int) (Pair, error) {
	pair, err := HeadToHead(
		CircuitIDFromRace(batch.Race.RaceName),
		lap,
		LapTime(batch, driverA, lap),
		LapTime(batch, driverB, lap),
		Seed(batch.Race.Key(), lap),
	)
	return pair, errors.Wrapf(err, "%s vs %s on lap %d", driverA, driverB, lap)
}
