// Package ergast reads race results, lap timings and pit stops from an
// Ergast compatible API (Jolpica).
package ergast

import (
	"context"
	"encoding/json"
	"f1raceanalyticsbot/pkg/helper"
	"f1raceanalyticsbot/pkg/model"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

const (
	// lapsPageSize is the page size requested for lap timings. A race can
	// exceed it, so Laps follows the offsets reported by the API.
	lapsPageSize = 2000
	racesLimit   = 100

	retryAttempts = 3
	retryWait     = 2 * time.Second
)

var (
	ErrUnexpectedStatus = errors.New("unexpected status")
	ErrRaceNotFound     = errors.New("race not found")
	// ErrTransientStatus wraps rate limiting and gateway errors, which are
	// worth another attempt.
	ErrTransientStatus = errors.Wrap(ErrUnexpectedStatus, "transient")
)

type Client struct {
	baseURL   string
	http      *http.Client
	retryWait time.Duration
}

func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 20 * time.Second}
	}
	return &Client{baseURL: baseURL, http: httpClient, retryWait: retryWait}
}

func (c *Client) get(ctx context.Context, path string, out interface{}) error {
	return helper.RetryWithCancel(ctx, retryAttempts, c.retryWait, func() error {
		return c.getOnce(ctx, path, out)
	}, func(err error) bool {
		return errors.Is(err, ErrTransientStatus)
	})
}

func (c *Client) getOnce(ctx context.Context, path string, out interface{}) error {
	url := c.baseURL + path
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return errors.Wrapf(err, "building request %s", url)
	}
	response, err := c.http.Do(req)
	if err != nil {
		return errors.Wrapf(err, "getting %s", url)
	}
	defer response.Body.Close()

	switch {
	case response.StatusCode == http.StatusTooManyRequests, response.StatusCode >= http.StatusInternalServerError:
		log.Warn().Str("url", url).Int("status", response.StatusCode).Msg("Transient status")
		return errors.Wrapf(ErrTransientStatus, "%s: %s", url, response.Status)
	case response.StatusCode != http.StatusOK:
		return errors.Wrapf(ErrUnexpectedStatus, "%s: %s", url, response.Status)
	}
	if err := json.NewDecoder(response.Body).Decode(out); err != nil {
		return errors.Wrapf(err, "decoding %s", url)
	}
	return nil
}

// SeasonRaces returns the schedule of season in round order.
func (c *Client) SeasonRaces(ctx context.Context, season string) ([]model.Race, error) {
	var resp response
	if err := c.get(ctx, fmt.Sprintf("/%s.json?limit=%d", season, racesLimit), &resp); err != nil {
		return nil, err
	}
	races := make([]model.Race, 0, len(resp.MRData.RaceTable.Races))
	for _, r := range resp.MRData.RaceTable.Races {
		races = append(races, r.toModel())
	}
	return races, nil
}

// LatestRace returns the last race with published results.
func (c *Client) LatestRace(ctx context.Context) (model.Race, error) {
	var resp response
	if err := c.get(ctx, "/current/last/results.json", &resp); err != nil {
		return model.Race{}, err
	}
	if len(resp.MRData.RaceTable.Races) == 0 {
		return model.Race{}, errors.Wrap(ErrRaceNotFound, "latest race")
	}
	return resp.MRData.RaceTable.Races[0].toModel(), nil
}

// Results returns the race and its classified drivers in finishing order.
func (c *Client) Results(ctx context.Context, season, round string) (model.Race, []model.Driver, error) {
	var resp response
	if err := c.get(ctx, fmt.Sprintf("/%s/%s/results.json", season, round), &resp); err != nil {
		return model.Race{}, nil, err
	}
	if len(resp.MRData.RaceTable.Races) == 0 {
		return model.Race{}, nil, errors.Wrapf(ErrRaceNotFound, "%s/%s", season, round)
	}
	race := resp.MRData.RaceTable.Races[0]
	drivers := make([]model.Driver, 0, len(race.Results))
	for _, r := range race.Results {
		drivers = append(drivers, r.Driver.toModel(r.Number))
	}
	return race.toModel(), drivers, nil
}

// Laps returns every lap of the race ordered by lap number. Pages may split
// the timings of one lap, so entries are merged by lap number.
func (c *Client) Laps(ctx context.Context, season, round string) ([]model.LapRecord, error) {
	byNumber := map[int]*model.LapRecord{}
	for offset := 0; ; {
		var resp response
		path := fmt.Sprintf("/%s/%s/laps.json?limit=%d&offset=%d", season, round, lapsPageSize, offset)
		if err := c.get(ctx, path, &resp); err != nil {
			return nil, err
		}
		for _, race := range resp.MRData.RaceTable.Races {
			for _, l := range race.Laps {
				number, err := strconv.Atoi(l.Number)
				if err != nil {
					continue
				}
				lap, ok := byNumber[number]
				if !ok {
					lap = &model.LapRecord{Number: number}
					byNumber[number] = lap
				}
				for _, t := range l.Timings {
					position, _ := strconv.Atoi(t.Position)
					lap.Timings = append(lap.Timings, model.Timing{DriverID: t.DriverID, Time: t.Time, Position: position})
				}
			}
		}
		total, _ := strconv.Atoi(resp.MRData.Total)
		offset += lapsPageSize
		if offset >= total {
			break
		}
	}

	laps := make([]model.LapRecord, 0, len(byNumber))
	for _, lap := range byNumber {
		laps = append(laps, *lap)
	}
	sort.Slice(laps, func(i, j int) bool { return laps[i].Number < laps[j].Number })
	return laps, nil
}

// PitStops returns the pit stops of the race. Durations that cannot be
// parsed are NaN.
func (c *Client) PitStops(ctx context.Context, season, round string) ([]model.PitStopEvent, error) {
	var resp response
	if err := c.get(ctx, fmt.Sprintf("/%s/%s/pitstops.json?limit=%d", season, round, racesLimit), &resp); err != nil {
		return nil, err
	}
	stops := []model.PitStopEvent{}
	for _, race := range resp.MRData.RaceTable.Races {
		for _, ps := range race.PitStops {
			lap, err := strconv.Atoi(ps.Lap)
			if err != nil {
				continue
			}
			stop, _ := strconv.Atoi(ps.Stop)
			stops = append(stops, model.PitStopEvent{
				DriverID: ps.DriverID,
				Lap:      lap,
				Stop:     stop,
				Duration: helper.ParseRaceTime(ps.Duration),
			})
		}
	}
	return stops, nil
}

func (c *Client) DriverStandings(ctx context.Context, season string) ([]model.DriverStanding, error) {
	var resp response
	if err := c.get(ctx, fmt.Sprintf("/%s/driverStandings.json", season), &resp); err != nil {
		return nil, err
	}
	standings := []model.DriverStanding{}
	for _, list := range resp.MRData.StandingsTable.StandingsLists {
		for _, s := range list.DriverStandings {
			ds := model.DriverStanding{
				Position: atoi(s.Position),
				Points:   atof(s.Points),
				Wins:     atoi(s.Wins),
				Driver:   s.Driver.toModel(s.Driver.PermanentNumber),
			}
			if len(s.Constructors) > 0 {
				ds.Constructor = s.Constructors[len(s.Constructors)-1].Name
			}
			standings = append(standings, ds)
		}
	}
	return standings, nil
}

func (c *Client) ConstructorStandings(ctx context.Context, season string) ([]model.ConstructorStanding, error) {
	var resp response
	if err := c.get(ctx, fmt.Sprintf("/%s/constructorStandings.json", season), &resp); err != nil {
		return nil, err
	}
	standings := []model.ConstructorStanding{}
	for _, list := range resp.MRData.StandingsTable.StandingsLists {
		for _, s := range list.ConstructorStandings {
			standings = append(standings, model.ConstructorStanding{
				Position: atoi(s.Position),
				Points:   atof(s.Points),
				Wins:     atoi(s.Wins),
				Name:     s.Constructor.Name,
			})
		}
	}
	return standings, nil
}

func atoi(s string) int {
	v, _ := strconv.Atoi(s)
	return v
}

func atof(s string) float64 {
	v, _ := strconv.ParseFloat(s, 64)
	return v
}
