package racing

import (
	"context"
	"f1raceanalyticsbot/pkg/analysis"
	"f1raceanalyticsbot/pkg/apps"
	"f1raceanalyticsbot/pkg/menus"
	"f1raceanalyticsbot/pkg/model"
	"f1raceanalyticsbot/pkg/resources"
	"f1raceanalyticsbot/pkg/settings"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

const (
	buttonLatest = "Última carrera"
	buttonSeason = "Temporada"

	subcommandPager  = "pager"
	subcommandView   = "race"
	subcommandDriver = "drv"

	racesPerPage = 8
	// tables list this many drivers when the user picked none
	defaultDrivers = 3
	maxMessageSize = 4096
)

var raceCommand = regexp.MustCompile(`^/r(\d{4})_(\d{1,2})(@\S+)?$`)

type RaceSource interface {
	Latest(ctx context.Context) (model.Race, error)
	SeasonRaces(ctx context.Context, season string) ([]model.Race, error)
	Batch(ctx context.Context, season, round string) (model.RaceBatch, error)
}

type SectorSource interface {
	SectorLaps(ctx context.Context, race model.Race, driverIDs []string) ([]model.SectorLap, []string, error)
}

// Preferences is the per-user state the app reads and updates.
type Preferences interface {
	Filters(userID string) (model.FilterConfig, error)
	Selection(userID string) (settings.Selection, error)
	SelectRace(userID, season, round string) (settings.Selection, error)
	ToggleDriver(userID, driverID string) (settings.Selection, error)
}

type RacingApp struct {
	bot          apps.Sender
	appMenu      menus.ApplicationMenu
	menuKeyboard tgbotapi.ReplyKeyboardMarkup
	races        RaceSource
	sectors      SectorSource
	prefs        Preferences
	store        *resources.Store
	season       string
}

func NewRacingApp(bot apps.Sender, appMenu menus.ApplicationMenu, races RaceSource, sectors SectorSource, prefs Preferences, store *resources.Store, season string) *RacingApp {
	menuKeyboard := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(buttonLatest),
			tgbotapi.NewKeyboardButton(buttonSeason),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(appMenu.ButtonBackTo()),
		),
	)
	return &RacingApp{
		bot:          bot,
		appMenu:      appMenu,
		menuKeyboard: menuKeyboard,
		races:        races,
		sectors:      sectors,
		prefs:        prefs,
		store:        store,
		season:       season,
	}
}

func (ra *RacingApp) Menu() tgbotapi.ReplyKeyboardMarkup {
	return ra.menuKeyboard
}

// ParseRaceCommand reads commands like /r2024_5.
func ParseRaceCommand(command string) (season, round string, ok bool) {
	m := raceCommand.FindStringSubmatch(strings.TrimSpace(command))
	if m == nil {
		return "", "", false
	}
	round = strings.TrimLeft(m[2], "0")
	if round == "" {
		return "", "", false
	}
	return m[1], round, true
}

func RaceCommand(race model.Race) string {
	return fmt.Sprintf("/r%s_%s", race.Season, race.Round)
}

func (ra *RacingApp) AcceptCommand(command string) (bool, func(ctx context.Context, chatId int64) error) {
	season, round, ok := ParseRaceCommand(command)
	if !ok {
		return false, nil
	}
	return true, func(ctx context.Context, chatId int64) error {
		return ra.renderRace(ctx, chatId, nil, season, round)
	}
}

func (ra *RacingApp) AcceptButton(button string) (bool, func(ctx context.Context, chatId int64) error) {
	switch button {
	case ra.appMenu.Name:
		return true, func(ctx context.Context, chatId int64) error {
			return apps.SendText(ra.bot, chatId, "Elige una carrera", ra.menuKeyboard)
		}
	case ra.appMenu.ButtonBackTo():
		return true, func(ctx context.Context, chatId int64) error {
			return apps.SendText(ra.bot, chatId, "OK", ra.appMenu.PrevMenu())
		}
	case buttonLatest:
		return true, func(ctx context.Context, chatId int64) error {
			race, err := ra.races.Latest(ctx)
			if err != nil {
				log.Err(err).Msg("Could not get the latest race")
				return ra.sendError(chatId, "No se pudo leer la última carrera")
			}
			return ra.renderRace(ctx, chatId, nil, race.Season, race.Round)
		}
	case buttonSeason:
		return true, func(ctx context.Context, chatId int64) error {
			return ra.renderSeason(ctx, chatId, nil, ra.season, 0)
		}
	}
	return false, nil
}

func (ra *RacingApp) AcceptCallback(query *tgbotapi.CallbackQuery) (bool, func(ctx context.Context, query *tgbotapi.CallbackQuery) error) {
	data := strings.Split(query.Data, ":")
	switch {
	case data[0] == subcommandPager && len(data) == 3:
		page, err := strconv.Atoi(data[2])
		if err != nil {
			return false, nil
		}
		return true, func(ctx context.Context, query *tgbotapi.CallbackQuery) error {
			return ra.renderSeason(ctx, query.Message.Chat.ID, &query.Message.MessageID, data[1], page)
		}
	case data[0] == subcommandView && len(data) >= 4:
		return true, func(ctx context.Context, query *tgbotapi.CallbackQuery) error {
			return ra.handleView(ctx, query, data[1], data[2], data[3], data[4:]...)
		}
	case data[0] == subcommandDriver && len(data) == 4:
		return true, func(ctx context.Context, query *tgbotapi.CallbackQuery) error {
			userID, ok := apps.UserID(ctx)
			if !ok {
				return ra.sendError(query.Message.Chat.ID, "No se pudo leer el usuario")
			}
			if _, err := ra.prefs.SelectRace(userID, data[1], data[2]); err != nil {
				return ra.sendError(query.Message.Chat.ID, "No se pudo guardar la selección")
			}
			if _, err := ra.prefs.ToggleDriver(userID, data[3]); err != nil {
				return ra.sendError(query.Message.Chat.ID, "No se pudo guardar la selección")
			}
			return ra.renderDrivers(ctx, query.Message.Chat.ID, &query.Message.MessageID, data[1], data[2])
		}
	}
	return false, nil
}

func (ra *RacingApp) sendError(chatId int64, text string) error {
	msg := tgbotapi.NewMessage(chatId, text)
	_, err := ra.bot.Send(msg)
	return err
}

// sendLoadError tells the user why a race could not be analysed.
func (ra *RacingApp) sendLoadError(chatId int64, race string, err error) error {
	log.Err(err).Str("race", race).Msg("Could not load race")
	if errors.Is(err, analysis.ErrNoData) {
		return ra.sendError(chatId, fmt.Sprintf("No hay vueltas publicadas para %s", race))
	}
	return ra.sendError(chatId, fmt.Sprintf("No se pudieron leer los datos de %s", race))
}

func (ra *RacingApp) renderSeason(ctx context.Context, chatId int64, messageID *int, season string, page int) error {
	races, err := ra.races.SeasonRaces(ctx, season)
	if err != nil {
		log.Err(err).Str("season", season).Msg("Could not get season races")
		return ra.sendError(chatId, "No se pudo leer el calendario")
	}
	if len(races) == 0 {
		return ra.sendError(chatId, "No hay carreras en la temporada")
	}
	text, keyboard := SeasonTextMarkup(season, races, page)
	return apps.SendOrEdit(ra.bot, chatId, messageID, text, "", &keyboard)
}

// SeasonTextMarkup lists one page of races, each with the command that opens
// it, and the pager buttons around it.
func SeasonTextMarkup(season string, races []model.Race, page int) (string, tgbotapi.InlineKeyboardMarkup) {
	maxPages := (len(races) + racesPerPage - 1) / racesPerPage
	if page < 0 {
		page = 0
	}
	if page > maxPages-1 {
		page = maxPages - 1
	}
	from := page * racesPerPage
	to := from + racesPerPage
	if to > len(races) {
		to = len(races)
	}

	lines := []string{}
	for _, race := range races[from:to] {
		lines = append(lines, fmt.Sprintf("R%s %s %s", race.Round, race.RaceName, RaceCommand(race)))
	}
	text := fmt.Sprintf("Temporada %s (%d/%d)\n\n%s", season, page+1, maxPages, strings.Join(lines, "\n"))

	row := []tgbotapi.InlineKeyboardButton{}
	if page > 0 {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData("Anterior", fmt.Sprintf("%s:%s:%d", subcommandPager, season, page-1)))
	}
	if page < maxPages-1 {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData("Siguiente", fmt.Sprintf("%s:%s:%d", subcommandPager, season, page+1)))
	}
	if len(row) == 0 {
		return text, tgbotapi.NewInlineKeyboardMarkup()
	}
	return text, tgbotapi.NewInlineKeyboardMarkup(row)
}

// renderRace selects the race for the user and shows its summary.
func (ra *RacingApp) renderRace(ctx context.Context, chatId int64, messageID *int, season, round string) error {
	key := season + "/" + round
	batch, err := ra.races.Batch(ctx, season, round)
	if err != nil {
		return ra.sendLoadError(chatId, key, err)
	}
	if userID, ok := apps.UserID(ctx); ok {
		if _, err := ra.prefs.SelectRace(userID, season, round); err != nil {
			log.Err(err).Str("user", userID).Msg("Could not save the selected race")
		}
	}
	text := summaryText(batch, ra.userFilters(ctx))
	keyboard := viewKeyboard(season, round)
	return apps.SendOrEdit(ra.bot, chatId, messageID, text, "", &keyboard)
}
