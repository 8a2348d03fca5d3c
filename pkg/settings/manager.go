package settings

import (
	"database/sql"
	"f1raceanalyticsbot/pkg/model"
	"sync"

	"dario.cat/mergo"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	_ "github.com/mattn/go-sqlite3"
)

const (
	FilterPitLaps  = "pits"
	FilterOutliers = "outliers"
	FilterRacePace = "pace"
)

var ErrUnknownFilter = errors.New("unknown filter")

type TelegramUser struct {
	ID     string
	Name   string
	ChatID int64
}

// Selection is the race and drivers a user is looking at.
type Selection struct {
	Season  string
	Round   string
	Drivers []string
}

func (s Selection) HasRace() bool {
	return s.Season != "" && s.Round != ""
}

func (s Selection) Selected(driverID string) bool {
	for _, d := range s.Drivers {
		if d == driverID {
			return true
		}
	}
	return false
}

type Manager struct {
	db *sql.DB
	mu sync.Mutex
}

func NewManager(dbPath string) (*Manager, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, errors.Wrapf(err, "opening database %s", dbPath)
	}

	for _, stmt := range buildCreateTables() {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, errors.Wrap(err, "init database")
		}
	}

	return &Manager{db: db}, nil
}

func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.db.Close()
}

func (m *Manager) Filters(userID string) (model.FilterConfig, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.filters(userID)
}

func (m *Manager) filters(userID string) (model.FilterConfig, error) {
	query, args, read := buildSelectFiltersCommand(userID)
	rows, err := m.db.Query(query, args...)
	if err != nil {
		return model.FilterConfig{}, errors.Wrapf(err, "filters of %s", userID)
	}
	return read(rows)
}

func (m *Manager) SaveFilters(userID string, cfg model.FilterConfig) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.saveFilters(userID, cfg)
}

func (m *Manager) saveFilters(userID string, cfg model.FilterConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	stmt, args := buildUpsertFiltersCommand(userID, cfg)
	if _, err := m.db.Exec(stmt, args...); err != nil {
		log.Err(err).Str("user", userID).Msg("Could not update filters")
		return errors.Wrapf(err, "saving filters of %s", userID)
	}
	return nil
}

// ToggleFilter flips one of the boolean filters and returns the result.
func (m *Manager) ToggleFilter(userID, filter string) (model.FilterConfig, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cfg, err := m.filters(userID)
	if err != nil {
		return cfg, err
	}
	switch filter {
	case FilterPitLaps:
		cfg.ExcludePitLaps = !cfg.ExcludePitLaps
	case FilterOutliers:
		cfg.ExcludeOutliers = !cfg.ExcludeOutliers
	case FilterRacePace:
		cfg.ShowOnlyRacePace = !cfg.ShowOnlyRacePace
	default:
		return cfg, errors.Wrapf(ErrUnknownFilter, "%q", filter)
	}
	return cfg, m.saveFilters(userID, cfg)
}

// MergeFilters overrides the stored filters with whatever patch sets. Unset
// fields of patch keep their stored value.
func (m *Manager) MergeFilters(userID string, patch model.FilterConfig) (model.FilterConfig, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cfg, err := m.filters(userID)
	if err != nil {
		return cfg, err
	}
	if err := mergo.Merge(&cfg, patch, mergo.WithOverride); err != nil {
		return cfg, errors.Wrap(err, "merging filters")
	}
	return cfg, m.saveFilters(userID, cfg)
}

func (m *Manager) ResetFilters(userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	stmt, args := buildDeleteFiltersCommand(userID)
	_, err := m.db.Exec(stmt, args...)
	return errors.Wrapf(err, "resetting filters of %s", userID)
}

func (m *Manager) Selection(userID string) (Selection, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.selection(userID)
}

func (m *Manager) selection(userID string) (Selection, error) {
	query, args, read := buildSelectSelectionCommand(userID)
	rows, err := m.db.Query(query, args...)
	if err != nil {
		return Selection{}, errors.Wrapf(err, "selection of %s", userID)
	}
	return read(rows)
}

func (m *Manager) saveSelection(userID string, s Selection) error {
	stmt, args := buildUpsertSelectionCommand(userID, s)
	_, err := m.db.Exec(stmt, args...)
	return errors.Wrapf(err, "saving selection of %s", userID)
}

// SelectRace switches the user to another race. The driver choice is kept
// only when the race does not change.
func (m *Manager) SelectRace(userID, season, round string) (Selection, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, err := m.selection(userID)
	if err != nil {
		return s, err
	}
	if s.Season != season || s.Round != round {
		s = Selection{Season: season, Round: round, Drivers: []string{}}
	}
	return s, m.saveSelection(userID, s)
}

func (m *Manager) ToggleDriver(userID, driverID string) (Selection, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, err := m.selection(userID)
	if err != nil {
		return s, err
	}
	drivers := []string{}
	for _, d := range s.Drivers {
		if d != driverID {
			drivers = append(drivers, d)
		}
	}
	if len(drivers) == len(s.Drivers) {
		drivers = append(drivers, driverID)
	}
	s.Drivers = drivers
	return s, m.saveSelection(userID, s)
}

func (m *Manager) NewRaceNotification(userID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.newRaceNotification(userID)
}

func (m *Manager) newRaceNotification(userID string) (bool, error) {
	query, args, read := buildSelectSubscriptionCommand(userID)
	rows, err := m.db.Query(query, args...)
	if err != nil {
		return false, errors.Wrapf(err, "subscription of %s", userID)
	}
	return read(rows)
}

func (m *Manager) ToggleNewRaceNotification(user TelegramUser) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	enabled, err := m.newRaceNotification(user.ID)
	if err != nil {
		return enabled, err
	}
	stmt, args := buildUpsertSubscriptionCommand(user, !enabled)
	if _, err := m.db.Exec(stmt, args...); err != nil {
		log.Err(err).Str("user", user.ID).Msg("Could not update subscription")
		return enabled, errors.Wrapf(err, "saving subscription of %s", user.ID)
	}
	return !enabled, nil
}

func (m *Manager) ListSubscribers() ([]TelegramUser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	query, read := buildSelectSubscribersCommand()
	rows, err := m.db.Query(query)
	if err != nil {
		return []TelegramUser{}, errors.Wrap(err, "listing subscribers")
	}
	return read(rows)
}
