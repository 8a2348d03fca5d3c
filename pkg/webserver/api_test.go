package webserver

import (
	"context"
	"encoding/json"
	"f1raceanalyticsbot/pkg/analysis"
	"f1raceanalyticsbot/pkg/ergast"
	"f1raceanalyticsbot/pkg/model"
	"f1raceanalyticsbot/pkg/pubsub"
	"f1raceanalyticsbot/pkg/races"
	"f1raceanalyticsbot/pkg/resources"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	"github.com/vmihailenco/msgpack/v5"
)

type fakeRaces struct{}

func (fakeRaces) Batch(ctx context.Context, season, round string) (model.RaceBatch, error) {
	if season != "2024" || round != "5" {
		return model.RaceBatch{}, errors.Wrap(ergast.ErrRaceNotFound, season+"/"+round)
	}
	b := model.RaceBatch{
		Race:     model.Race{Season: "2024", Round: "5", RaceName: "Miami Grand Prix"},
		Drivers:  []model.Driver{{DriverID: "norris", Code: "NOR"}, {DriverID: "max_verstappen", Code: "VER"}},
		PitStops: []model.PitStopEvent{{DriverID: "norris", Lap: 3, Stop: 1, Duration: 22.1}},
	}
	for i := 1; i <= 6; i++ {
		b.Laps = append(b.Laps, model.LapRecord{Number: i, Timings: []model.Timing{
			{DriverID: "norris", Time: fmt.Sprintf("1:30.%03d", i), Position: 1},
			{DriverID: "max_verstappen", Time: "1:31.000", Position: 2},
		}})
	}
	return b, nil
}

type fakeSectors struct{}

func (fakeSectors) SectorLaps(ctx context.Context, race model.Race, driverIDs []string) ([]model.SectorLap, []string, error) {
	unmapped := []string{}
	for _, id := range driverIDs {
		if id == "ghost" {
			unmapped = append(unmapped, id)
		}
	}
	return []model.SectorLap{
		{DriverID: "norris", LapNumber: 2, Sector1: model.FloatPtr(28), Sector2: model.FloatPtr(30), Sector3: model.FloatPtr(27)},
	}, unmapped, nil
}

// refetchingRaces publishes an update on the first Batch call, like a race
// manager fetching on a cache miss.
type refetchingRaces struct {
	fakeRaces
	ps    *pubsub.PubSub[string]
	calls int32
}

func (f *refetchingRaces) Batch(ctx context.Context, season, round string) (model.RaceBatch, error) {
	if atomic.AddInt32(&f.calls, 1) == 1 {
		f.ps.Publish(races.UpdatedTopic(season+"/"+round), "{}")
	}
	return f.fakeRaces.Batch(ctx, season, round)
}

func newServer(t *testing.T) (*httptest.Server, *pubsub.PubSub[string]) {
	t.Helper()
	ps := pubsub.NewPubSub[string]()
	return newServerWith(t, fakeRaces{}, ps), ps
}

func newServerWith(t *testing.T, rs Races, ps *pubsub.PubSub[string]) *httptest.Server {
	t.Helper()
	store, err := resources.NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	m := NewManager(store.Dir())
	NewAPI(rs, fakeSectors{}, store, ps).Register(m.Router())
	srv := httptest.NewServer(m.Router())
	t.Cleanup(srv.Close)
	return srv
}

func get(t *testing.T, url string) (int, string) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, string(body)
}

func TestAnalysisEndpoint(t *testing.T) {
	srv, _ := newServer(t)

	status, body := get(t, srv.URL+"/api/races/2024/5/analysis?drivers=norris&lapStart=2&excludePitLaps=true")
	if status != http.StatusOK {
		t.Fatalf("expected 200 but found %d: %s", status, body)
	}
	var report analysis.Report
	if err := json.Unmarshal([]byte(body), &report); err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if len(report.Drivers) != 1 || fmt.Sprint(report.Laps) != "[2 4 5 6]" {
		t.Errorf("unexpected report laps %v drivers %d", report.Laps, len(report.Drivers))
	}
	if !report.Filters.ExcludePitLaps || *report.Filters.LapRangeStart != 2 {
		t.Errorf("expected the filters to be echoed but found %+v", report.Filters)
	}
}

func TestErrorStatuses(t *testing.T) {
	srv, _ := newServer(t)
	tests := []struct {
		name   string
		path   string
		status int
	}{
		{"bad bool", "/api/races/2024/5/analysis?excludeOutliers=maybe", http.StatusBadRequest},
		{"inverted range", "/api/races/2024/5/analysis?lapStart=9&lapEnd=2", http.StatusBadRequest},
		{"nan lap time", "/api/races/2024/5/analysis?minTime=NaN", http.StatusBadRequest},
		{"infinite lap time", "/api/races/2024/5/analysis?maxTime=Inf", http.StatusBadRequest},
		{"unknown race", "/api/races/2024/30/analysis", http.StatusNotFound},
		{"missing telemetry params", "/api/races/2024/5/telemetry?a=norris", http.StatusBadRequest},
		{"lap without times", "/api/races/2024/5/telemetry?a=norris&b=max_verstappen&lap=40", http.StatusUnprocessableEntity},
		{"unknown chart", "/api/races/2024/5/charts/weather.svg", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if status, body := get(t, srv.URL+tt.path); status != tt.status {
				t.Errorf("expected %d but found %d: %s", tt.status, status, body)
			}
		})
	}
}

func TestStintsSectorsTelemetry(t *testing.T) {
	srv, _ := newServer(t)

	status, body := get(t, srv.URL+"/api/races/2024/5/stints?drivers=norris")
	if status != http.StatusOK || !strings.Contains(body, `"startLap":4`) {
		t.Errorf("expected a second stint from lap 4 but found %d %s", status, body)
	}

	status, body = get(t, srv.URL+"/api/races/2024/5/sectors?drivers=norris,max_verstappen")
	if status != http.StatusOK || !strings.Contains(body, `"unresolved":["max_verstappen"]`) {
		t.Errorf("unexpected sectors %d %s", status, body)
	}

	status, body = get(t, srv.URL+"/api/races/2024/5/sectors?drivers=norris,max_verstappen,ghost")
	if status != http.StatusOK || !strings.Contains(body, `"unresolved":["max_verstappen","ghost"]`) || !strings.Contains(body, `"unmapped":["ghost"]`) {
		t.Errorf("expected ghost to be reported as unmapped but found %d %s", status, body)
	}

	status, body = get(t, srv.URL+"/api/races/2024/5/telemetry?a=norris&b=max_verstappen&lap=3")
	if status != http.StatusOK || !strings.Contains(body, `"id":"default"`) {
		t.Errorf("unexpected telemetry %d %.200s", status, body)
	}
}

func TestChartEndpoint(t *testing.T) {
	srv, _ := newServer(t)
	resp, err := http.Get(srv.URL + "/api/races/2024/5/charts/gaps.svg")
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK || !strings.Contains(resp.Header.Get("Content-Type"), "svg") {
		t.Errorf("expected an svg but found %d %s", resp.StatusCode, resp.Header.Get("Content-Type"))
	}
}

func dial(t *testing.T, srv *httptest.Server, path string) *websocket.Conn {
	t.Helper()
	c, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+path, nil)
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func TestLiveUpdates(t *testing.T) {
	srv, ps := newServer(t)
	c := dial(t, srv, "/ws/races/2024/5?drivers=norris")

	var report analysis.Report
	if err := c.ReadJSON(&report); err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if report.Race.Key() != "2024/5" || len(report.Drivers) != 1 {
		t.Errorf("unexpected first report %+v", report.Race)
	}

	ps.Publish(races.UpdatedTopic("2024/5"), "{}")
	report = analysis.Report{}
	if err := c.ReadJSON(&report); err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if report.TotalLaps != 6 {
		t.Errorf("expected a second report after the update but found %+v", report.Race)
	}
}

func TestLiveSkipsItsOwnFetch(t *testing.T) {
	ps := pubsub.NewPubSub[string]()
	rs := &refetchingRaces{ps: ps}
	srv := newServerWith(t, rs, ps)
	c := dial(t, srv, "/ws/races/2024/5")

	var report analysis.Report
	if err := c.ReadJSON(&report); err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	ps.Publish(races.UpdatedTopic("2024/5"), "{}")
	if err := c.ReadJSON(&report); err != nil {
		t.Fatalf("unexpected error %v", err)
	}

	c.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
	if _, _, err := c.ReadMessage(); err == nil {
		t.Errorf("expected one report per update but found an extra one")
	}
	if calls := atomic.LoadInt32(&rs.calls); calls != 2 {
		t.Errorf("expected 2 reports built but found %d", calls)
	}
}

func TestLiveMsgpack(t *testing.T) {
	srv, _ := newServer(t)
	c := dial(t, srv, "/ws/races/2024/5?format=msgpack")

	mt, data, err := c.ReadMessage()
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if mt != websocket.BinaryMessage {
		t.Errorf("expected a binary frame but found %d", mt)
	}
	var report analysis.Report
	if err := msgpack.Unmarshal(data, &report); err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if report.Quick.PitStops != 1 || len(report.Drivers) != 2 {
		t.Errorf("unexpected report %+v", report.Quick)
	}
}

func TestParseFilters(t *testing.T) {
	values := map[string]string{"excludeOutliers": "1", "lapEnd": "30", "maxTime": "99.5"}
	cfg, err := parseFilters(func(k string) string { return values[k] })
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if !cfg.ExcludeOutliers || *cfg.LapRangeEnd != 30 || *cfg.MaxLapTime != 99.5 || cfg.LapRangeStart != nil {
		t.Errorf("unexpected filters %+v", cfg)
	}
	if _, err := parseFilters(func(k string) string {
		if k == "lapStart" {
			return "x"
		}
		return ""
	}); !errors.Is(err, model.ErrInvalidFilter) {
		t.Errorf("expected ErrInvalidFilter but found %v", err)
	}
}
