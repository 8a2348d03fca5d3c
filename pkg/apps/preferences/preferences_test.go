package preferences

import (
	"context"
	"f1raceanalyticsbot/pkg/apps"
	"f1raceanalyticsbot/pkg/menus"
	"f1raceanalyticsbot/pkg/model"
	"f1raceanalyticsbot/pkg/settings"
	"path/filepath"
	"strings"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/pkg/errors"
)

type recorder struct {
	sent []tgbotapi.Chattable
}

func (r *recorder) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	r.sent = append(r.sent, c)
	return tgbotapi.Message{}, nil
}

type staticMenu struct{}

func (staticMenu) Menu() tgbotapi.ReplyKeyboardMarkup {
	return tgbotapi.NewReplyKeyboard(tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton("Filtros")))
}

func newSettings(t *testing.T) *settings.Manager {
	t.Helper()
	sm, err := settings.NewManager(filepath.Join(t.TempDir(), "settings.db"))
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	t.Cleanup(func() { sm.Close() })
	return sm
}

func userContext() context.Context {
	ctx := context.WithValue(context.Background(), apps.UserContextKey, &tgbotapi.User{ID: 42, UserName: "lando"})
	return context.WithValue(ctx, apps.ChatContextKey, &tgbotapi.Chat{ID: 7})
}

func callback(data string) *tgbotapi.CallbackQuery {
	return &tgbotapi.CallbackQuery{
		Data:    data,
		Message: &tgbotapi.Message{MessageID: 3, Chat: &tgbotapi.Chat{ID: 7}},
	}
}

func TestParseLapRange(t *testing.T) {
	cfg, err := ParseLapRange([]string{"5", "40"})
	if err != nil || *cfg.LapRangeStart != 5 || *cfg.LapRangeEnd != 40 {
		t.Errorf("expected 5-40 but found %s %v", cfg, err)
	}
	if cfg, err := ParseLapRange(nil); err != nil || cfg.Active() {
		t.Errorf("expected an empty range but found %s %v", cfg, err)
	}
	if _, err := ParseLapRange([]string{"a", "4"}); !errors.Is(err, ErrBadArguments) {
		t.Errorf("expected ErrBadArguments but found %v", err)
	}
	if _, err := ParseLapRange([]string{"40", "5"}); !errors.Is(err, model.ErrInvalidFilter) {
		t.Errorf("expected ErrInvalidFilter but found %v", err)
	}
}

func TestParseTimeRange(t *testing.T) {
	cfg, err := ParseTimeRange([]string{"1:30", "100.5"})
	if err != nil || *cfg.MinLapTime != 90 || *cfg.MaxLapTime != 100.5 {
		t.Errorf("expected 90-100.5 but found %s %v", cfg, err)
	}
	if _, err := ParseTimeRange([]string{"1:30"}); !errors.Is(err, ErrBadArguments) {
		t.Errorf("expected ErrBadArguments but found %v", err)
	}
	if _, err := ParseTimeRange([]string{"x", "1:40"}); !errors.Is(err, ErrBadArguments) {
		t.Errorf("expected ErrBadArguments but found %v", err)
	}
}

func TestFilterCommands(t *testing.T) {
	sm := newSettings(t)
	bot := &recorder{}
	fa := NewFiltersApp(bot, menus.NewApplicationMenu("Filtros", "menú", staticMenu{}), sm)

	for _, command := range []string{"/vueltas 5 40", "/tiempos@f1bot 1:30 1:40"} {
		ok, handler := fa.AcceptCommand(command)
		if !ok {
			t.Fatalf("expected %q to be accepted", command)
		}
		if err := handler(userContext(), 7); err != nil {
			t.Fatalf("unexpected error %v", err)
		}
	}
	cfg, _ := sm.Filters("42")
	if *cfg.LapRangeStart != 5 || *cfg.LapRangeEnd != 40 || *cfg.MinLapTime != 90 || *cfg.MaxLapTime != 100 {
		t.Errorf("expected both ranges to be stored but found %s", cfg)
	}

	_, handler := fa.AcceptCommand("/vueltas")
	if err := handler(userContext(), 7); err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	cfg, _ = sm.Filters("42")
	if cfg.LapRangeStart != nil || cfg.MinLapTime == nil {
		t.Errorf("expected only the lap range to be cleared but found %s", cfg)
	}

	_, handler = fa.AcceptCommand("/vueltas 3")
	handler(userContext(), 7)
	msg := bot.sent[len(bot.sent)-1].(tgbotapi.MessageConfig)
	if !strings.HasPrefix(msg.Text, "Formato") {
		t.Errorf("expected the usage but found %q", msg.Text)
	}

	if ok, _ := fa.AcceptCommand("/r2024_5"); ok {
		t.Errorf("expected race commands to be ignored")
	}
}

func TestFilterCallbacks(t *testing.T) {
	sm := newSettings(t)
	bot := &recorder{}
	fa := NewFiltersApp(bot, menus.NewApplicationMenu("Filtros", "menú", staticMenu{}), sm)

	q := callback("flt:" + settings.FilterOutliers)
	ok, handler := fa.AcceptCallback(q)
	if !ok {
		t.Fatalf("expected the callback to be accepted")
	}
	if err := handler(userContext(), q); err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	edit := bot.sent[len(bot.sent)-1].(tgbotapi.EditMessageTextConfig)
	if edit.ReplyMarkup.InlineKeyboard[0][1].Text != "Sin outliers "+symbolOn {
		t.Errorf("unexpected keyboard %+v", edit.ReplyMarkup.InlineKeyboard[0])
	}

	q = callback("flt:reset")
	_, handler = fa.AcceptCallback(q)
	if err := handler(userContext(), q); err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if cfg, _ := sm.Filters("42"); cfg.Active() {
		t.Errorf("expected no filters after reset but found %s", cfg)
	}
}

func TestNotifications(t *testing.T) {
	sm := newSettings(t)
	bot := &recorder{}
	na := NewNotificationsApp(bot, menus.NewApplicationMenu("Avisos", "menú", staticMenu{}), sm)

	q := callback("notifications:42")
	ok, handler := na.AcceptCallback(q)
	if !ok {
		t.Fatalf("expected the callback to be accepted")
	}
	if err := handler(userContext(), q); err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	users, err := sm.ListSubscribers()
	if err != nil || len(users) != 1 || users[0].ChatID != 7 || users[0].Name != "lando" {
		t.Errorf("expected lando to be subscribed but found %+v %v", users, err)
	}
	edit := bot.sent[len(bot.sent)-1].(tgbotapi.EditMessageTextConfig)
	if !strings.HasSuffix(edit.ReplyMarkup.InlineKeyboard[0][0].Text, symbolOn) {
		t.Errorf("unexpected keyboard %+v", edit.ReplyMarkup.InlineKeyboard[0])
	}
}
