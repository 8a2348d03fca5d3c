package mainapp

import (
	"context"
	"f1raceanalyticsbot/pkg/model"
	"f1raceanalyticsbot/pkg/resources"
	"f1raceanalyticsbot/pkg/settings"
	"path/filepath"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type recorder struct {
	sent []tgbotapi.Chattable
}

func (r *recorder) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	r.sent = append(r.sent, c)
	return tgbotapi.Message{}, nil
}

type emptySource struct{}

func (emptySource) Latest(ctx context.Context) (model.Race, error) {
	return model.Race{}, nil
}

func (emptySource) SeasonRaces(ctx context.Context, season string) ([]model.Race, error) {
	return nil, nil
}

func (emptySource) Batch(ctx context.Context, season, round string) (model.RaceBatch, error) {
	return model.RaceBatch{}, nil
}

func (emptySource) SectorLaps(ctx context.Context, race model.Race, driverIDs []string) ([]model.SectorLap, []string, error) {
	return nil, nil, nil
}

func (emptySource) DriverStandings(ctx context.Context, season string) ([]model.DriverStanding, error) {
	return nil, nil
}

func (emptySource) ConstructorStandings(ctx context.Context, season string) ([]model.ConstructorStanding, error) {
	return nil, nil
}

func newMainApp(t *testing.T) (*MainApp, *recorder) {
	t.Helper()
	sm, err := settings.NewManager(filepath.Join(t.TempDir(), "settings.db"))
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	t.Cleanup(func() { sm.Close() })
	store, err := resources.NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	bot := &recorder{}
	src := emptySource{}
	return NewMainApp(bot, Sources{Races: src, Sectors: src, Standings: src}, sm, store, "2024"), bot
}

func TestStart(t *testing.T) {
	m, bot := newMainApp(t)
	ok, handler := m.AcceptCommand(menuStart)
	if !ok {
		t.Fatalf("expected /start to be accepted")
	}
	if err := handler(context.Background(), 1); err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	msg := bot.sent[0].(tgbotapi.MessageConfig)
	if keyboard, ok := msg.ReplyMarkup.(tgbotapi.ReplyKeyboardMarkup); !ok || keyboard.Keyboard[0][0].Text != buttonRaces {
		t.Errorf("expected the main keyboard but found %+v", msg.ReplyMarkup)
	}
}

func TestRouting(t *testing.T) {
	m, _ := newMainApp(t)
	for _, button := range []string{buttonRaces, buttonFilters, buttonStandings, buttonNotifications, "Volver a " + appName} {
		if ok, _ := m.AcceptButton(button); !ok {
			t.Errorf("expected button %q to be accepted", button)
		}
	}
	for _, command := range []string{"/r2024_5", "/vueltas 1 10", "/tiempos"} {
		if ok, _ := m.AcceptCommand(command); !ok {
			t.Errorf("expected command %q to be accepted", command)
		}
	}
	for _, data := range []string{"race:laps:2024:5", "drv:2024:5:norris", "pager:2024:1", "flt:pits", "std:drivers", "notifications:1"} {
		if ok, _ := m.AcceptCallback(&tgbotapi.CallbackQuery{Data: data}); !ok {
			t.Errorf("expected callback %q to be accepted", data)
		}
	}
	if ok, _ := m.AcceptButton("Hotlaps"); ok {
		t.Errorf("expected unknown buttons to be ignored")
	}
	if ok, _ := m.AcceptCallback(&tgbotapi.CallbackQuery{Data: "unknown:1"}); ok {
		t.Errorf("expected unknown callbacks to be ignored")
	}
}
