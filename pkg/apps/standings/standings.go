package standings

import (
	"context"
	"f1raceanalyticsbot/pkg/apps"
	"f1raceanalyticsbot/pkg/menus"
	"f1raceanalyticsbot/pkg/model"
	"f1raceanalyticsbot/pkg/render"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog/log"
)

const (
	subcommandStandings = "std"
	kindDrivers         = "drivers"
	kindConstructors    = "constructors"

	inlineKeyboardDrivers      = "Pilotos"
	inlineKeyboardConstructors = "Constructores"
	symbolDriver               = "👐"
	symbolTeam                 = "🏎️"
)

type Source interface {
	DriverStandings(ctx context.Context, season string) ([]model.DriverStanding, error)
	ConstructorStandings(ctx context.Context, season string) ([]model.ConstructorStanding, error)
}

type StandingsApp struct {
	bot     apps.Sender
	appMenu menus.ApplicationMenu
	source  Source
	season  string
}

func NewStandingsApp(bot apps.Sender, appMenu menus.ApplicationMenu, source Source, season string) *StandingsApp {
	return &StandingsApp{
		bot:     bot,
		appMenu: appMenu,
		source:  source,
		season:  season,
	}
}

func (sa *StandingsApp) AcceptCommand(command string) (bool, func(ctx context.Context, chatId int64) error) {
	return false, nil
}

func (sa *StandingsApp) AcceptButton(button string) (bool, func(ctx context.Context, chatId int64) error) {
	if button == sa.appMenu.Name {
		return true, func(ctx context.Context, chatId int64) error {
			return sa.sendStandings(ctx, chatId, nil, kindDrivers)
		}
	}
	return false, nil
}

func (sa *StandingsApp) AcceptCallback(query *tgbotapi.CallbackQuery) (bool, func(ctx context.Context, query *tgbotapi.CallbackQuery) error) {
	data := strings.Split(query.Data, ":")
	if data[0] != subcommandStandings || len(data) != 2 {
		return false, nil
	}
	return true, func(ctx context.Context, query *tgbotapi.CallbackQuery) error {
		return sa.sendStandings(ctx, query.Message.Chat.ID, &query.Message.MessageID, data[1])
	}
}

func (sa *StandingsApp) sendStandings(ctx context.Context, chatId int64, messageID *int, kind string) error {
	var body string
	switch kind {
	case kindConstructors:
		standings, err := sa.source.ConstructorStandings(ctx, sa.season)
		if err != nil {
			log.Err(err).Str("season", sa.season).Msg("Could not get constructor standings")
			return sa.send(chatId, "No se pudo leer la clasificación de constructores")
		}
		body = render.ConstructorStandings(standings)
	default:
		standings, err := sa.source.DriverStandings(ctx, sa.season)
		if err != nil {
			log.Err(err).Str("season", sa.season).Msg("Could not get driver standings")
			return sa.send(chatId, "No se pudo leer la clasificación de pilotos")
		}
		body = render.DriverStandings(standings)
	}

	keyboard := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(inlineKeyboardDrivers+" "+symbolDriver, fmt.Sprintf("%s:%s", subcommandStandings, kindDrivers)),
			tgbotapi.NewInlineKeyboardButtonData(inlineKeyboardConstructors+" "+symbolTeam, fmt.Sprintf("%s:%s", subcommandStandings, kindConstructors)),
		),
	)
	text := render.Block(fmt.Sprintf("Clasificación %s", sa.season), body)
	return apps.SendOrEdit(sa.bot, chatId, messageID, text, tgbotapi.ModeMarkdownV2, &keyboard)
}

func (sa *StandingsApp) send(chatId int64, text string) error {
	_, err := sa.bot.Send(tgbotapi.NewMessage(chatId, text))
	return err
}
