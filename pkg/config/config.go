package config

import (
	"os"
	"time"

	"dario.cat/mergo"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

type Config struct {
	TelegramToken    string
	WebserverAddress string
	ErgastBaseURL    string
	OpenF1BaseURL    string
	SettingsDB       string
	ResourcesDir     string
	RefreshInterval  time.Duration
	LogLevel         string
	// Season browsed by default from the bot menu.
	Season string
}

func Defaults() Config {
	return Config{
		WebserverAddress: ":8080",
		ErgastBaseURL:    "https://api.jolpi.ca/ergast/f1",
		OpenF1BaseURL:    "https://api.openf1.org/v1",
		SettingsDB:       "./f1raceanalytics-bot.db",
		ResourcesDir:     "./resources",
		RefreshInterval:  60 * time.Minute,
		LogLevel:         "info",
		Season:           "current",
	}
}

// FromEnv reads the environment and fills whatever is unset from Defaults.
func FromEnv() (Config, error) {
	cfg := Config{
		TelegramToken:    os.Getenv("TELEGRAM_TOKEN"),
		WebserverAddress: os.Getenv("WEBSERVER_ADDRESS"),
		ErgastBaseURL:    os.Getenv("ERGAST_BASE_URL"),
		OpenF1BaseURL:    os.Getenv("OPENF1_BASE_URL"),
		SettingsDB:       os.Getenv("SETTINGS_DB"),
		ResourcesDir:     os.Getenv("RESOURCES_DIR"),
		LogLevel:         os.Getenv("LOG_LEVEL"),
		Season:           os.Getenv("SEASON"),
	}
	if v := os.Getenv("REFRESH_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return cfg, errors.Wrapf(err, "REFRESH_INTERVAL %q", v)
		}
		if d <= 0 {
			return cfg, errors.Errorf("REFRESH_INTERVAL must be positive, found %s", d)
		}
		cfg.RefreshInterval = d
	}

	if err := mergo.Merge(&cfg, Defaults()); err != nil {
		return cfg, errors.Wrap(err, "applying defaults")
	}
	return cfg, nil
}

// Level parses LogLevel, falling back to info.
func (c Config) Level() zerolog.Level {
	level, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return level
}
