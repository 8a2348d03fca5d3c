package ergast

import "f1raceanalyticsbot/pkg/model"

// Ergast encodes every number as a string.
type response struct {
	MRData struct {
		Limit          string         `json:"limit"`
		Offset         string         `json:"offset"`
		Total          string         `json:"total"`
		RaceTable      raceTable      `json:"RaceTable"`
		StandingsTable standingsTable `json:"StandingsTable"`
	} `json:"MRData"`
}

type raceTable struct {
	Season string `json:"season"`
	Races  []race `json:"Races"`
}

type race struct {
	Season   string `json:"season"`
	Round    string `json:"round"`
	RaceName string `json:"raceName"`
	Date     string `json:"date"`
	Circuit  struct {
		CircuitID   string `json:"circuitId"`
		CircuitName string `json:"circuitName"`
	} `json:"Circuit"`
	Results  []result  `json:"Results"`
	Laps     []lap     `json:"Laps"`
	PitStops []pitStop `json:"PitStops"`
}

func (r race) toModel() model.Race {
	return model.Race{
		Season:      r.Season,
		Round:       r.Round,
		RaceName:    r.RaceName,
		Date:        r.Date,
		CircuitName: r.Circuit.CircuitName,
	}
}

type result struct {
	Number      string `json:"number"`
	Position    string `json:"position"`
	Driver      driver `json:"Driver"`
	Constructor struct {
		Name string `json:"name"`
	} `json:"Constructor"`
}

type driver struct {
	DriverID        string `json:"driverId"`
	PermanentNumber string `json:"permanentNumber"`
	Code            string `json:"code"`
	GivenName       string `json:"givenName"`
	FamilyName      string `json:"familyName"`
}

func (d driver) toModel(number string) model.Driver {
	return model.Driver{
		DriverID:   d.DriverID,
		Code:       d.Code,
		Number:     number,
		GivenName:  d.GivenName,
		FamilyName: d.FamilyName,
	}
}

type lap struct {
	Number  string `json:"number"`
	Timings []struct {
		DriverID string `json:"driverId"`
		Position string `json:"position"`
		Time     string `json:"time"`
	} `json:"Timings"`
}

type pitStop struct {
	DriverID string `json:"driverId"`
	Lap      string `json:"lap"`
	Stop     string `json:"stop"`
	Duration string `json:"duration"`
}

type standingsTable struct {
	StandingsLists []struct {
		DriverStandings []struct {
			Position     string `json:"position"`
			Points       string `json:"points"`
			Wins         string `json:"wins"`
			Driver       driver `json:"Driver"`
			Constructors []struct {
				Name string `json:"name"`
			} `json:"Constructors"`
		} `json:"DriverStandings"`
		ConstructorStandings []struct {
			Position    string `json:"position"`
			Points      string `json:"points"`
			Wins        string `json:"wins"`
			Constructor struct {
				Name string `json:"name"`
			} `json:"Constructor"`
		} `json:"ConstructorStandings"`
	} `json:"StandingsLists"`
}
