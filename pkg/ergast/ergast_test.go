package ergast

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pkg/errors"
)

func server(t *testing.T, routes map[string]string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := routes[r.URL.Path+"?"+r.URL.RawQuery]
		if !ok {
			body, ok = routes[r.URL.Path]
		}
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestResults(t *testing.T) {
	srv := server(t, map[string]string{
		"/2024/5/results.json": `{"MRData":{"RaceTable":{"Races":[{"season":"2024","round":"5","raceName":"Miami Grand Prix","date":"2024-05-05",
			"Circuit":{"circuitId":"miami","circuitName":"Miami International Autodrome"},
			"Results":[{"number":"4","position":"1","Driver":{"driverId":"norris","code":"NOR","givenName":"Lando","familyName":"Norris"}},
			           {"number":"1","position":"2","Driver":{"driverId":"max_verstappen","code":"VER","givenName":"Max","familyName":"Verstappen"}}]}]}}}`,
	})
	c := NewClient(srv.URL, srv.Client())

	race, drivers, err := c.Results(context.Background(), "2024", "5")
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if race.Key() != "2024/5" || race.CircuitName != "Miami International Autodrome" {
		t.Errorf("unexpected race %+v", race)
	}
	if len(drivers) != 2 || drivers[0].DriverID != "norris" || drivers[0].Number != "4" || drivers[1].FullName() != "Max Verstappen" {
		t.Errorf("unexpected drivers %+v", drivers)
	}
}

func TestResultsNotFound(t *testing.T) {
	srv := server(t, map[string]string{
		"/2024/30/results.json": `{"MRData":{"RaceTable":{"Races":[]}}}`,
	})
	c := NewClient(srv.URL, srv.Client())

	if _, _, err := c.Results(context.Background(), "2024", "30"); !errors.Is(err, ErrRaceNotFound) {
		t.Errorf("expected ErrRaceNotFound but found %v", err)
	}
	if _, err := c.SeasonRaces(context.Background(), "1900"); !errors.Is(err, ErrUnexpectedStatus) {
		t.Errorf("expected ErrUnexpectedStatus but found %v", err)
	}
}

func TestLapsFollowsPages(t *testing.T) {
	srv := server(t, map[string]string{
		"/2024/5/laps.json?limit=2000&offset=0": `{"MRData":{"total":"2003","RaceTable":{"Races":[{"Laps":[
			{"number":"2","Timings":[{"driverId":"norris","position":"1","time":"1:32.100"}]},
			{"number":"1","Timings":[{"driverId":"norris","position":"2","time":"1:35.000"}]}]}]}}}`,
		"/2024/5/laps.json?limit=2000&offset=2000": `{"MRData":{"total":"2003","RaceTable":{"Races":[{"Laps":[
			{"number":"2","Timings":[{"driverId":"max_verstappen","position":"2","time":"1:32.400"}]}]}]}}}`,
	})
	c := NewClient(srv.URL, srv.Client())

	laps, err := c.Laps(context.Background(), "2024", "5")
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if len(laps) != 2 || laps[0].Number != 1 || laps[1].Number != 2 {
		t.Fatalf("expected laps 1 and 2 in order but found %+v", laps)
	}
	if len(laps[1].Timings) != 2 {
		t.Errorf("expected lap 2 to merge both pages but found %+v", laps[1].Timings)
	}
	if tm, ok := laps[1].TimingFor("max_verstappen"); !ok || tm.Position != 2 || tm.Time != "1:32.400" {
		t.Errorf("unexpected timing %+v", tm)
	}
}

func TestPitStops(t *testing.T) {
	srv := server(t, map[string]string{
		"/2024/5/pitstops.json": `{"MRData":{"RaceTable":{"Races":[{"PitStops":[
			{"driverId":"norris","lap":"28","stop":"1","duration":"22.123"},
			{"driverId":"sainz","lap":"12","stop":"1","duration":"1:02.500"},
			{"driverId":"albon","lap":"x","stop":"1","duration":"25.0"},
			{"driverId":"stroll","lap":"40","stop":"2","duration":""}]}]}}}`,
	})
	c := NewClient(srv.URL, srv.Client())

	stops, err := c.PitStops(context.Background(), "2024", "5")
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if len(stops) != 3 {
		t.Fatalf("expected the unparsable lap to be skipped but found %+v", stops)
	}
	if stops[0].Duration != 22.123 || stops[1].Duration != 62.5 {
		t.Errorf("unexpected durations %+v", stops)
	}
	if !math.IsNaN(stops[2].Duration) || stops[2].Stop != 2 {
		t.Errorf("expected a NaN duration but found %+v", stops[2])
	}
}

func TestStandings(t *testing.T) {
	srv := server(t, map[string]string{
		"/2024/driverStandings.json": `{"MRData":{"StandingsTable":{"StandingsLists":[{"DriverStandings":[
			{"position":"1","points":"437","wins":"9","Driver":{"driverId":"max_verstappen","permanentNumber":"33","code":"VER"},
			 "Constructors":[{"name":"Red Bull"}]}]}]}}}`,
		"/2024/constructorStandings.json": `{"MRData":{"StandingsTable":{"StandingsLists":[{"ConstructorStandings":[
			{"position":"1","points":"666","wins":"6","Constructor":{"name":"McLaren"}}]}]}}}`,
	})
	c := NewClient(srv.URL, srv.Client())

	drivers, err := c.DriverStandings(context.Background(), "2024")
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if len(drivers) != 1 || drivers[0].Points != 437 || drivers[0].Driver.Number != "33" || drivers[0].Constructor != "Red Bull" {
		t.Errorf("unexpected driver standings %+v", drivers)
	}

	teams, err := c.ConstructorStandings(context.Background(), "2024")
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if len(teams) != 1 || teams[0].Name != "McLaren" || teams[0].Wins != 6 {
		t.Errorf("unexpected constructor standings %+v", teams)
	}
}

func TestLatestRace(t *testing.T) {
	srv := server(t, map[string]string{
		"/current/last/results.json": `{"MRData":{"RaceTable":{"Races":[{"season":"2024","round":"24","raceName":"Abu Dhabi Grand Prix"}]}}}`,
		"/2024.json?limit=100":       `{"MRData":{"RaceTable":{"Races":[{"season":"2024","round":"1"},{"season":"2024","round":"2"}]}}}`,
	})
	c := NewClient(srv.URL, srv.Client())

	race, err := c.LatestRace(context.Background())
	if err != nil || race.Key() != "2024/24" {
		t.Errorf("expected 2024/24 but found %v %v", race, err)
	}
	races, err := c.SeasonRaces(context.Background(), "2024")
	if err != nil || len(races) != 2 {
		t.Errorf("expected 2 races but found %v %v", races, err)
	}
}

func TestRetriesRateLimitedRequests(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		fmt.Fprint(w, `{"MRData":{"RaceTable":{"Races":[{"season":"2024","round":"1"}]}}}`)
	}))
	t.Cleanup(srv.Close)
	c := NewClient(srv.URL, srv.Client())
	c.retryWait = time.Millisecond

	races, err := c.SeasonRaces(context.Background(), "2024")
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if len(races) != 1 || atomic.LoadInt32(&calls) != 2 {
		t.Errorf("expected one race after 2 calls but found %d races after %d calls", len(races), calls)
	}
}

func TestGivesUpOnPersistentServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	t.Cleanup(srv.Close)
	c := NewClient(srv.URL, srv.Client())
	c.retryWait = time.Millisecond

	_, err := c.SeasonRaces(context.Background(), "2024")
	if !errors.Is(err, ErrUnexpectedStatus) {
		t.Errorf("expected ErrUnexpectedStatus but found %v", err)
	}
	if atomic.LoadInt32(&calls) != retryAttempts {
		t.Errorf("expected %d calls but found %d", retryAttempts, calls)
	}
}
