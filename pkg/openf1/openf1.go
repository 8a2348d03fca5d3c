// Package openf1 reads sessions, drivers and sector timings from the OpenF1
// API and turns them into sector laps keyed by Ergast driver ids.
package openf1

import (
	"context"
	"encoding/json"
	"f1raceanalyticsbot/pkg/model"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

var (
	ErrUnexpectedStatus = errors.New("unexpected status")
	ErrSessionNotFound  = errors.New("session not found")
)

type Session struct {
	SessionKey       int    `json:"session_key"`
	SessionName      string `json:"session_name"`
	Location         string `json:"location"`
	CountryName      string `json:"country_name"`
	CircuitShortName string `json:"circuit_short_name"`
	Year             int    `json:"year"`
	DateStart        string `json:"date_start"`
}

type Driver struct {
	DriverNumber int    `json:"driver_number"`
	FullName     string `json:"full_name"`
	NameAcronym  string `json:"name_acronym"`
	TeamName     string `json:"team_name"`
}

type Lap struct {
	DriverNumber    int      `json:"driver_number"`
	LapNumber       int      `json:"lap_number"`
	LapDuration     *float64 `json:"lap_duration"`
	DurationSector1 *float64 `json:"duration_sector_1"`
	DurationSector2 *float64 `json:"duration_sector_2"`
	DurationSector3 *float64 `json:"duration_sector_3"`
	IsPitOutLap     bool     `json:"is_pit_out_lap"`
}

type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 20 * time.Second}
	}
	return &Client{baseURL: baseURL, http: httpClient}
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out interface{}) error {
	u := c.baseURL + path + "?" + query.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return errors.Wrapf(err, "building request %s", u)
	}
	response, err := c.http.Do(req)
	if err != nil {
		return errors.Wrapf(err, "getting %s", u)
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		return errors.Wrapf(ErrUnexpectedStatus, "%s: %s", u, response.Status)
	}
	if err := json.NewDecoder(response.Body).Decode(out); err != nil {
		return errors.Wrapf(err, "decoding %s", u)
	}
	return nil
}

func (c *Client) RaceSessions(ctx context.Context, season string) ([]Session, error) {
	sessions := []Session{}
	err := c.get(ctx, "/sessions", url.Values{"year": {season}, "session_name": {"Race"}}, &sessions)
	return sessions, err
}

// FindRaceSession picks the race session whose location or country appears in
// raceName. When nothing matches, the session at position round-1 is used.
func (c *Client) FindRaceSession(ctx context.Context, season, round, raceName string) (Session, error) {
	sessions, err := c.RaceSessions(ctx, season)
	if err != nil {
		return Session{}, err
	}
	if s, ok := MatchSession(sessions, round, raceName); ok {
		return s, nil
	}
	return Session{}, errors.Wrapf(ErrSessionNotFound, "%s round %s (%s)", season, round, raceName)
}

func MatchSession(sessions []Session, round, raceName string) (Session, bool) {
	name := strings.ToLower(raceName)
	for _, s := range sessions {
		location := strings.ToLower(s.Location)
		country := strings.ToLower(s.CountryName)
		if (location != "" && strings.Contains(name, location)) || (country != "" && strings.Contains(name, country)) {
			return s, true
		}
	}
	idx, err := strconv.Atoi(round)
	if err != nil || idx < 1 || idx > len(sessions) {
		return Session{}, false
	}
	return sessions[idx-1], true
}

func (c *Client) Drivers(ctx context.Context, sessionKey int) ([]Driver, error) {
	drivers := []Driver{}
	err := c.get(ctx, "/drivers", url.Values{"session_key": {strconv.Itoa(sessionKey)}}, &drivers)
	return drivers, err
}

func (c *Client) Laps(ctx context.Context, sessionKey, driverNumber int) ([]Lap, error) {
	laps := []Lap{}
	query := url.Values{
		"session_key":   {strconv.Itoa(sessionKey)},
		"driver_number": {strconv.Itoa(driverNumber)},
	}
	err := c.get(ctx, "/laps", query, &laps)
	return laps, err
}

// SectorLaps fetches the sector timings of driverIDs for one race. Drivers
// that cannot be mapped to a car number are returned as unresolved.
func (c *Client) SectorLaps(ctx context.Context, race model.Race, driverIDs []string) ([]model.SectorLap, []string, error) {
	session, err := c.FindRaceSession(ctx, race.Season, race.Round, race.RaceName)
	if err != nil {
		return nil, nil, err
	}
	drivers, err := c.Drivers(ctx, session.SessionKey)
	if err != nil {
		return nil, nil, err
	}

	unresolved := []string{}
	numbers := map[string]int{}
	for _, id := range driverIDs {
		if n, ok := DriverNumber(id, drivers); ok {
			numbers[id] = n
		} else {
			unresolved = append(unresolved, id)
		}
	}

	perDriver := make([][]model.SectorLap, len(driverIDs))
	g, gctx := errgroup.WithContext(ctx)
	for i, id := range driverIDs {
		n, ok := numbers[id]
		if !ok {
			continue
		}
		i, id := i, id
		g.Go(func() error {
			laps, err := c.Laps(gctx, session.SessionKey, n)
			if err != nil {
				return errors.Wrapf(err, "laps of %s", id)
			}
			for _, l := range laps {
				perDriver[i] = append(perDriver[i], l.toModel(id))
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, unresolved, err
	}

	out := []model.SectorLap{}
	for _, laps := range perDriver {
		out = append(out, laps...)
	}
	return out, unresolved, nil
}

func (l Lap) toModel(driverID string) model.SectorLap {
	return model.SectorLap{
		DriverID:     driverID,
		DriverNumber: l.DriverNumber,
		LapNumber:    l.LapNumber,
		Sector1:      l.DurationSector1,
		Sector2:      l.DurationSector2,
		Sector3:      l.DurationSector3,
		IsPitOutLap:  l.IsPitOutLap,
	}
}

// knownDrivers maps Ergast ids whose surname differs from the obvious search
// term, or that need the acronym to be unambiguous.
var knownDrivers = map[string][]string{
	"max_verstappen": {"VER", "VERSTAPPEN"},
	"norris":         {"NOR", "NORRIS"},
	"leclerc":        {"LEC", "LECLERC"},
	"hamilton":       {"HAM", "HAMILTON"},
	"russell":        {"RUS", "RUSSELL"},
	"piastri":        {"PIA", "PIASTRI"},
	"sainz":          {"SAI", "SAINZ"},
	"alonso":         {"ALO", "ALONSO"},
	"stroll":         {"STR", "STROLL"},
	"perez":          {"PER", "PEREZ"},
}

// DriverNumber resolves an Ergast driver id to the car number of the session.
func DriverNumber(driverID string, drivers []Driver) (int, bool) {
	terms, ok := knownDrivers[driverID]
	if !ok {
		terms = []string{strings.ToUpper(driverID)}
	}
	for _, term := range terms {
		for _, d := range drivers {
			if d.NameAcronym == term || strings.Contains(strings.ToUpper(d.FullName), term) {
				return d.DriverNumber, true
			}
		}
	}
	return 0, false
}

func (s Session) String() string {
	return fmt.Sprintf("%d %s (%s)", s.Year, s.Location, s.SessionName)
}
