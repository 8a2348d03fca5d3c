package mainapp

import (
	"context"
	"f1raceanalyticsbot/pkg/apps"
	"f1raceanalyticsbot/pkg/apps/preferences"
	"f1raceanalyticsbot/pkg/apps/racing"
	"f1raceanalyticsbot/pkg/apps/standings"
	"f1raceanalyticsbot/pkg/menus"
	"f1raceanalyticsbot/pkg/resources"
	"f1raceanalyticsbot/pkg/settings"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const (
	menuStart           = "/start"
	menuMenu            = "/menu"
	buttonRaces         = "Carreras"
	buttonFilters       = "Filtros"
	buttonStandings     = "Clasificación"
	buttonNotifications = "Avisos"
	appName             = "menú"
)

var (
	menuKeyboard = tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(buttonRaces),
			tgbotapi.NewKeyboardButton(buttonStandings),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(buttonFilters),
			tgbotapi.NewKeyboardButton(buttonNotifications),
		),
	)
)

type menuer struct{}

func (m menuer) Menu() tgbotapi.ReplyKeyboardMarkup {
	return menuKeyboard
}

// Sources groups the data the apps read from.
type Sources struct {
	Races     racing.RaceSource
	Sectors   racing.SectorSource
	Standings standings.Source
}

type MainApp struct {
	bot       apps.Sender
	accepters []apps.Accepter
}

func NewMainApp(bot apps.Sender, sources Sources, sm *settings.Manager, store *resources.Store, season string) *MainApp {
	racingAppMenu := menus.NewApplicationMenu(buttonRaces, appName, menuer{})
	racingApp := racing.NewRacingApp(bot, racingAppMenu, sources.Races, sources.Sectors, sm, store, season)

	filtersAppMenu := menus.NewApplicationMenu(buttonFilters, appName, menuer{})
	filtersApp := preferences.NewFiltersApp(bot, filtersAppMenu, sm)

	standingsAppMenu := menus.NewApplicationMenu(buttonStandings, appName, menuer{})
	standingsApp := standings.NewStandingsApp(bot, standingsAppMenu, sources.Standings, season)

	notificationsAppMenu := menus.NewApplicationMenu(buttonNotifications, appName, menuer{})
	notificationsApp := preferences.NewNotificationsApp(bot, notificationsAppMenu, sm)

	accepters := []apps.Accepter{racingApp, filtersApp, standingsApp, notificationsApp}

	return &MainApp{
		bot:       bot,
		accepters: accepters,
	}
}

func (m *MainApp) AcceptCommand(command string) (bool, func(ctx context.Context, chatId int64) error) {
	if command == menuStart {
		return true, m.renderStart()
	} else if command == menuMenu {
		return true, m.renderMenu()
	}
	for _, accepter := range m.accepters {
		accept, handler := accepter.AcceptCommand(command)
		if accept {
			return true, handler
		}
	}

	return false, nil
}

func (m *MainApp) AcceptCallback(query *tgbotapi.CallbackQuery) (bool, func(ctx context.Context, query *tgbotapi.CallbackQuery) error) {
	for _, accepter := range m.accepters {
		accept, handler := accepter.AcceptCallback(query)
		if accept {
			return true, handler
		}
	}

	return false, nil
}

func (m *MainApp) AcceptButton(button string) (bool, func(ctx context.Context, chatId int64) error) {
	for _, accepter := range m.accepters {
		accept, handler := accepter.AcceptButton(button)
		if accept {
			return true, handler
		}
	}
	return false, nil
}

func (m *MainApp) renderStart() func(ctx context.Context, chatId int64) error {
	return func(ctx context.Context, chatId int64) error {
		message := "Hola, soy el bot de análisis de carreras de F1: tiempos por vuelta, diferencias, tandas, sectores y telemetría simulada.\n\n"
		message += "Puedes usar los siguientes comandos:\n\n"
		message += fmt.Sprintf("%s - Muestra el menú del bot\n", menuMenu)
		message += "/r<temporada>_<ronda> - Abre una carrera, por ejemplo /r2024_5\n"
		message += "/vueltas <desde> <hasta> - Limita las vueltas analizadas\n"
		message += "/tiempos <mín> <máx> - Limita los tiempos de vuelta\n"
		msg := tgbotapi.NewMessage(chatId, message)
		msg.ReplyMarkup = menuKeyboard
		_, err := m.bot.Send(msg)
		return err
	}
}

func (m *MainApp) renderMenu() func(ctx context.Context, chatId int64) error {
	return func(ctx context.Context, chatId int64) error {
		message := "Menú del bot.\n\n"
		msg := tgbotapi.NewMessage(chatId, message)
		msg.ReplyMarkup = menuKeyboard
		_, err := m.bot.Send(msg)
		return err
	}
}
