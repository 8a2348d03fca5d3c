package model

import (
	"fmt"
	"math"
	"strings"

	"github.com/pkg/errors"
)

var ErrInvalidFilter = errors.New("invalid filter configuration")

// FilterConfig toggles and bounds applied by the filters package. Nil
// pointers mean "no bound".
type FilterConfig struct {
	ExcludePitLaps   bool     `json:"excludePitLaps"`
	ExcludeOutliers  bool     `json:"excludeOutliers"`
	ShowOnlyRacePace bool     `json:"showOnlyRacePace"`
	LapRangeStart    *int     `json:"lapRangeStart"`
	LapRangeEnd      *int     `json:"lapRangeEnd"`
	MinLapTime       *float64 `json:"minLapTime"`
	MaxLapTime       *float64 `json:"maxLapTime"`
}

func IntPtr(v int) *int {
	return &v
}

func FloatPtr(v float64) *float64 {
	return &v
}

// Active reports whether any filter is set.
func (f FilterConfig) Active() bool {
	return f.ExcludePitLaps ||
		f.ExcludeOutliers ||
		f.ShowOnlyRacePace ||
		f.LapRangeStart != nil ||
		f.LapRangeEnd != nil ||
		f.MinLapTime != nil ||
		f.MaxLapTime != nil
}

// Validate is meant for the ingestion boundary (bot commands, query strings).
func (f FilterConfig) Validate() error {
	if f.LapRangeStart != nil && *f.LapRangeStart < 1 {
		return errors.Wrapf(ErrInvalidFilter, "lap range start %d", *f.LapRangeStart)
	}
	if f.LapRangeStart != nil && f.LapRangeEnd != nil && *f.LapRangeStart > *f.LapRangeEnd {
		return errors.Wrapf(ErrInvalidFilter, "lap range %d-%d", *f.LapRangeStart, *f.LapRangeEnd)
	}
	for _, bound := range []*float64{f.MinLapTime, f.MaxLapTime} {
		if bound != nil && (math.IsNaN(*bound) || math.IsInf(*bound, 0)) {
			return errors.Wrapf(ErrInvalidFilter, "lap time bound %v", *bound)
		}
	}
	if f.MinLapTime != nil && f.MaxLapTime != nil && *f.MinLapTime > *f.MaxLapTime {
		return errors.Wrapf(ErrInvalidFilter, "lap time range %.3f-%.3f", *f.MinLapTime, *f.MaxLapTime)
	}
	return nil
}

func (f FilterConfig) String() string {
	if !f.Active() {
		return "Sin filtros"
	}
	active := []string{}
	if f.ExcludePitLaps {
		active = append(active, "sin vueltas de boxes")
	}
	if f.ExcludeOutliers {
		active = append(active, "sin outliers")
	}
	if f.ShowOnlyRacePace {
		active = append(active, "solo ritmo de carrera")
	}
	if f.LapRangeStart != nil {
		active = append(active, fmt.Sprintf("desde vuelta %d", *f.LapRangeStart))
	}
	if f.LapRangeEnd != nil {
		active = append(active, fmt.Sprintf("hasta vuelta %d", *f.LapRangeEnd))
	}
	if f.MinLapTime != nil {
		active = append(active, fmt.Sprintf("mín %.1fs", *f.MinLapTime))
	}
	if f.MaxLapTime != nil {
		active = append(active, fmt.Sprintf("máx %.1fs", *f.MaxLapTime))
	}
	return "Filtros: " + strings.Join(active, ", ")
}
