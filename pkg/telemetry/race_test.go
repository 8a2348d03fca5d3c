package telemetry

import (
	"f1raceanalyticsbot/pkg/model"
	"reflect"
	"testing"

	"github.com/pkg/errors"
)

func TestForRace(t *testing.T) {
	batch := model.RaceBatch{
		Race: model.Race{Season: "2024", Round: "16", RaceName: "Italian Grand Prix"},
		Laps: []model.LapRecord{
			{Number: 10, Timings: []model.Timing{
				{DriverID: "leclerc", Time: "1:22.100", Position: 1},
				{DriverID: "piastri", Time: "1:22.400", Position: 2},
			}},
		},
	}
	pair, err := ForRace(batch, "leclerc", "piastri", 10)
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if pair.Circuit.ID != "monza" || pair.Lap != 10 {
		t.Errorf("unexpected pair %+v", pair.Circuit)
	}
	again, _ := ForRace(batch, "leclerc", "piastri", 10)
	if !reflect.DeepEqual(pair, again) {
		t.Errorf("expected the same race and lap to give the same traces")
	}

	if _, err := ForRace(batch, "leclerc", "sainz", 10); !errors.Is(err, ErrInvalidLapTime) {
		t.Errorf("expected ErrInvalidLapTime for a driver without a time but found %v", err)
	}
	if _, err := ForRace(batch, "leclerc", "piastri", 11); !errors.Is(err, ErrInvalidLapTime) {
		t.Errorf("expected ErrInvalidLapTime for a missing lap but found %v", err)
	}
}

func TestSeed(t *testing.T) {
	if Seed("2024/16", 10) != Seed("2024/16", 10) {
		t.Errorf("expected a stable seed")
	}
	if Seed("2024/16", 10) == Seed("2024/16", 11) {
		t.Errorf("expected different laps to give different seeds")
	}
	if Seed("2024/16", 10) < 0 {
		t.Errorf("expected a non negative seed")
	}
}
