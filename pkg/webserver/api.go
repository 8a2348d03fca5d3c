package webserver

import (
	"context"
	"encoding/json"
	"f1raceanalyticsbot/pkg/analysis"
	"f1raceanalyticsbot/pkg/charts"
	"f1raceanalyticsbot/pkg/ergast"
	"f1raceanalyticsbot/pkg/model"
	"f1raceanalyticsbot/pkg/openf1"
	"f1raceanalyticsbot/pkg/pubsub"
	"f1raceanalyticsbot/pkg/resources"
	"f1raceanalyticsbot/pkg/sectors"
	"f1raceanalyticsbot/pkg/stints"
	"f1raceanalyticsbot/pkg/telemetry"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

type Races interface {
	Batch(ctx context.Context, season, round string) (model.RaceBatch, error)
}

type SectorSource interface {
	SectorLaps(ctx context.Context, race model.Race, driverIDs []string) ([]model.SectorLap, []string, error)
}

// API exposes the race analytics over HTTP and websockets.
type API struct {
	races   Races
	sectors SectorSource
	store   *resources.Store
	pubsub  *pubsub.PubSub[string]
}

func NewAPI(races Races, sectorSource SectorSource, store *resources.Store, ps *pubsub.PubSub[string]) *API {
	return &API{races: races, sectors: sectorSource, store: store, pubsub: ps}
}

func (a *API) Register(r *mux.Router) {
	api := r.PathPrefix("/api/races/{season}/{round}").Subrouter()
	api.HandleFunc("/analysis", a.analysis).Methods(http.MethodGet)
	api.HandleFunc("/stints", a.stints).Methods(http.MethodGet)
	api.HandleFunc("/sectors", a.sectorTable).Methods(http.MethodGet)
	api.HandleFunc("/telemetry", a.telemetry).Methods(http.MethodGet)
	api.HandleFunc("/charts/{kind}.svg", a.chart).Methods(http.MethodGet)

	r.HandleFunc("/ws/races/{season}/{round}", a.live)
	r.HandleFunc("/races/{season}/{round}", a.page).Methods(http.MethodGet)
}

type request struct {
	season  string
	round   string
	filters model.FilterConfig
	drivers []string
}

func parseRequest(r *http.Request) (request, error) {
	vars := mux.Vars(r)
	q := r.URL.Query()
	req := request{season: vars["season"], round: vars["round"], drivers: parseDrivers(q.Get("drivers"))}
	cfg, err := parseFilters(q.Get)
	req.filters = cfg
	return req, err
}

func parseDrivers(s string) []string {
	drivers := []string{}
	for _, d := range strings.Split(s, ",") {
		if d = strings.TrimSpace(d); d != "" {
			drivers = append(drivers, d)
		}
	}
	return drivers
}

// parseFilters reads the filter query parameters. A malformed value is
// reported as an invalid filter.
func parseFilters(get func(string) string) (model.FilterConfig, error) {
	cfg := model.FilterConfig{}
	bools := map[string]*bool{
		"excludePitLaps":   &cfg.ExcludePitLaps,
		"excludeOutliers":  &cfg.ExcludeOutliers,
		"showOnlyRacePace": &cfg.ShowOnlyRacePace,
	}
	for name, dst := range bools {
		if v := get(name); v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return cfg, errors.Wrapf(model.ErrInvalidFilter, "%s=%q", name, v)
			}
			*dst = b
		}
	}
	ints := map[string]**int{"lapStart": &cfg.LapRangeStart, "lapEnd": &cfg.LapRangeEnd}
	for name, dst := range ints {
		if v := get(name); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return cfg, errors.Wrapf(model.ErrInvalidFilter, "%s=%q", name, v)
			}
			*dst = model.IntPtr(n)
		}
	}
	floats := map[string]**float64{"minTime": &cfg.MinLapTime, "maxTime": &cfg.MaxLapTime}
	for name, dst := range floats {
		if v := get(name); v != "" {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return cfg, errors.Wrapf(model.ErrInvalidFilter, "%s=%q", name, v)
			}
			*dst = model.FloatPtr(f)
		}
	}
	return cfg, cfg.Validate()
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, model.ErrInvalidFilter):
		return http.StatusBadRequest
	case errors.Is(err, analysis.ErrNoData),
		errors.Is(err, ergast.ErrRaceNotFound),
		errors.Is(err, openf1.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, telemetry.ErrInvalidLapTime):
		return http.StatusUnprocessableEntity
	}
	return http.StatusBadGateway
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	log.Warn().Err(err).Str("path", r.URL.Path).Int("status", status).Msg("Request failed")
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Err(err).Msg("Could not encode response")
	}
}

func (a *API) report(ctx context.Context, req request) (analysis.Report, model.RaceBatch, error) {
	batch, err := a.races.Batch(ctx, req.season, req.round)
	if err != nil {
		return analysis.Report{}, batch, err
	}
	report, err := analysis.Analyze(batch, req.filters, req.drivers)
	return report, batch, err
}

func (a *API) analysis(w http.ResponseWriter, r *http.Request) {
	req, err := parseRequest(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	report, _, err := a.report(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

type stintsResponse struct {
	DriverID    string                   `json:"driverId"`
	Stints      []model.Stint            `json:"stints"`
	Summary     []stints.Summary         `json:"summary"`
	Degradation []model.DegradationPoint `json:"degradation"`
}

func (a *API) stints(w http.ResponseWriter, r *http.Request) {
	req, err := parseRequest(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	report, _, err := a.report(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := []stintsResponse{}
	for _, d := range report.Drivers {
		out = append(out, stintsResponse{DriverID: d.DriverID, Stints: d.Stints, Summary: d.StintSummary, Degradation: d.Degradation})
	}
	writeJSON(w, http.StatusOK, out)
}

func (a *API) sectorTable(w http.ResponseWriter, r *http.Request) {
	req, err := parseRequest(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	batch, err := a.races.Batch(r.Context(), req.season, req.round)
	if err != nil {
		writeError(w, r, err)
		return
	}
	drivers := req.drivers
	if len(drivers) == 0 {
		drivers = batch.DriverIDs()
	}
	laps, unmapped, err := a.sectors.SectorLaps(r.Context(), batch.Race, drivers)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sectors.Track(laps, drivers).WithUnmapped(unmapped))
}

func (a *API) telemetry(w http.ResponseWriter, r *http.Request) {
	req, err := parseRequest(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	q := r.URL.Query()
	lap, err := strconv.Atoi(q.Get("lap"))
	if err != nil || q.Get("a") == "" || q.Get("b") == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "a, b and lap are required"})
		return
	}
	batch, err := a.races.Batch(r.Context(), req.season, req.round)
	if err != nil {
		writeError(w, r, err)
		return
	}
	pair, err := telemetry.ForRace(batch, q.Get("a"), q.Get("b"), lap)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, pair)
}

var chartKinds = map[string]func(analysis.Report, model.RaceBatch) charts.Chart{
	"laps":        func(r analysis.Report, _ model.RaceBatch) charts.Chart { return charts.LapTimes(r) },
	"gaps":        func(r analysis.Report, b model.RaceBatch) charts.Chart { return charts.Gaps(r, b.PitStops) },
	"intervals":   func(r analysis.Report, _ model.RaceBatch) charts.Chart { return charts.Intervals(r) },
	"degradation": func(r analysis.Report, _ model.RaceBatch) charts.Chart { return charts.Degradation(r) },
}

func (a *API) chart(w http.ResponseWriter, r *http.Request) {
	build, ok := chartKinds[mux.Vars(r)["kind"]]
	if !ok {
		http.NotFound(w, r)
		return
	}
	req, err := parseRequest(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	report, batch, err := a.report(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	id := charts.ID(batch.Race, mux.Vars(r)["kind"], req.filters, req.drivers)
	res, err := a.store.Build("chart_", id, ".svg", func(filePath string) error {
		return charts.BuildSVG(filePath, build(report, batch))
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	http.ServeFile(w, r, res.FilePath())
}
