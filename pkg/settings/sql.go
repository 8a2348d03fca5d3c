package settings

import (
	"database/sql"
	"f1raceanalyticsbot/pkg/model"
	"strings"
)

func buildCreateTables() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS filters (
		userid TEXT PRIMARY KEY,
		excludepits INTEGER NOT NULL,
		excludeoutliers INTEGER NOT NULL,
		racepace INTEGER NOT NULL,
		lapstart INTEGER,
		lapend INTEGER,
		mintime REAL,
		maxtime REAL);`,
		`CREATE TABLE IF NOT EXISTS selections (
		userid TEXT PRIMARY KEY,
		season TEXT NOT NULL,
		round TEXT NOT NULL,
		drivers TEXT NOT NULL);`,
		`CREATE TABLE IF NOT EXISTS subscriptions (
		userid TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		chatid INTEGER NOT NULL,
		newrace INTEGER NOT NULL);`,
	}
}

func buildSelectFiltersCommand(userID string) (string, []interface{}, func(*sql.Rows) (model.FilterConfig, error)) {
	fields := "excludepits, excludeoutliers, racepace, lapstart, lapend, mintime, maxtime"
	return `SELECT ` + fields + ` FROM filters WHERE userid = ?`, []interface{}{userID}, processSelectFiltersRows
}

func processSelectFiltersRows(rows *sql.Rows) (model.FilterConfig, error) {
	defer rows.Close()

	cfg := model.FilterConfig{}
	// only can be one row
	if rows.Next() {
		var pits, outliers, pace int
		var start, end sql.NullInt64
		var min, max sql.NullFloat64
		if err := rows.Scan(&pits, &outliers, &pace, &start, &end, &min, &max); err != nil {
			return cfg, err
		}
		cfg.ExcludePitLaps = pits == 1
		cfg.ExcludeOutliers = outliers == 1
		cfg.ShowOnlyRacePace = pace == 1
		if start.Valid {
			cfg.LapRangeStart = model.IntPtr(int(start.Int64))
		}
		if end.Valid {
			cfg.LapRangeEnd = model.IntPtr(int(end.Int64))
		}
		if min.Valid {
			cfg.MinLapTime = model.FloatPtr(min.Float64)
		}
		if max.Valid {
			cfg.MaxLapTime = model.FloatPtr(max.Float64)
		}
	}
	return cfg, rows.Err()
}

func buildUpsertFiltersCommand(userID string, cfg model.FilterConfig) (string, []interface{}) {
	fields := "userid, excludepits, excludeoutliers, racepace, lapstart, lapend, mintime, maxtime"
	args := []interface{}{
		userID,
		boolInt(cfg.ExcludePitLaps),
		boolInt(cfg.ExcludeOutliers),
		boolInt(cfg.ShowOnlyRacePace),
		nullInt(cfg.LapRangeStart),
		nullInt(cfg.LapRangeEnd),
		nullFloat(cfg.MinLapTime),
		nullFloat(cfg.MaxLapTime),
	}
	return `INSERT OR REPLACE INTO filters (` + fields + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`, args
}

func buildDeleteFiltersCommand(userID string) (string, []interface{}) {
	return `DELETE FROM filters WHERE userid = ?`, []interface{}{userID}
}

func buildSelectSelectionCommand(userID string) (string, []interface{}, func(*sql.Rows) (Selection, error)) {
	return `SELECT season, round, drivers FROM selections WHERE userid = ?`, []interface{}{userID}, processSelectSelectionRows
}

func processSelectSelectionRows(rows *sql.Rows) (Selection, error) {
	defer rows.Close()

	s := Selection{Drivers: []string{}}
	if rows.Next() {
		var drivers string
		if err := rows.Scan(&s.Season, &s.Round, &drivers); err != nil {
			return s, err
		}
		if drivers != "" {
			s.Drivers = strings.Split(drivers, ",")
		}
	}
	return s, rows.Err()
}

func buildUpsertSelectionCommand(userID string, s Selection) (string, []interface{}) {
	fields := "userid, season, round, drivers"
	args := []interface{}{userID, s.Season, s.Round, strings.Join(s.Drivers, ",")}
	return `INSERT OR REPLACE INTO selections (` + fields + `) VALUES (?, ?, ?, ?)`, args
}

func buildSelectSubscriptionCommand(userID string) (string, []interface{}, func(*sql.Rows) (bool, error)) {
	return `SELECT newrace FROM subscriptions WHERE userid = ?`, []interface{}{userID}, processSelectSubscriptionRows
}

func processSelectSubscriptionRows(rows *sql.Rows) (bool, error) {
	defer rows.Close()

	enabled := 0
	if rows.Next() {
		if err := rows.Scan(&enabled); err != nil {
			return false, err
		}
	}
	return enabled == 1, rows.Err()
}

func buildUpsertSubscriptionCommand(user TelegramUser, enabled bool) (string, []interface{}) {
	fields := "userid, name, chatid, newrace"
	args := []interface{}{user.ID, user.Name, user.ChatID, boolInt(enabled)}
	return `INSERT OR REPLACE INTO subscriptions (` + fields + `) VALUES (?, ?, ?, ?)`, args
}

func buildSelectSubscribersCommand() (string, func(*sql.Rows) ([]TelegramUser, error)) {
	return `SELECT userid, name, chatid FROM subscriptions WHERE newrace = 1 ORDER BY userid`, processSelectSubscribersRows
}

func processSelectSubscribersRows(rows *sql.Rows) ([]TelegramUser, error) {
	defer rows.Close()

	users := make([]TelegramUser, 0)
	for rows.Next() {
		var u TelegramUser
		if err := rows.Scan(&u.ID, &u.Name, &u.ChatID); err != nil {
			return users, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}
