package preferences

import (
	"context"
	"f1raceanalyticsbot/pkg/apps"
	"f1raceanalyticsbot/pkg/helper"
	"f1raceanalyticsbot/pkg/menus"
	"f1raceanalyticsbot/pkg/model"
	"f1raceanalyticsbot/pkg/settings"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

const (
	commandLaps  = "/vueltas"
	commandTimes = "/tiempos"

	subcommandFilter = "flt"
	filterReset      = "reset"

	symbolOn  = "✅"
	symbolOff = "❌"
)

var ErrBadArguments = errors.New("bad arguments")

type FilterStore interface {
	Filters(userID string) (model.FilterConfig, error)
	SaveFilters(userID string, cfg model.FilterConfig) error
	ToggleFilter(userID, filter string) (model.FilterConfig, error)
	MergeFilters(userID string, patch model.FilterConfig) (model.FilterConfig, error)
	ResetFilters(userID string) error
}

type FiltersApp struct {
	bot     apps.Sender
	appMenu menus.ApplicationMenu
	store   FilterStore
}

func NewFiltersApp(bot apps.Sender, appMenu menus.ApplicationMenu, store FilterStore) *FiltersApp {
	return &FiltersApp{
		bot:     bot,
		appMenu: appMenu,
		store:   store,
	}
}

// ParseLapRange reads "<from> <to>". No arguments clears the range.
func ParseLapRange(args []string) (model.FilterConfig, error) {
	cfg := model.FilterConfig{}
	if len(args) == 0 {
		return cfg, nil
	}
	if len(args) != 2 {
		return cfg, errors.Wrapf(ErrBadArguments, "%d arguments", len(args))
	}
	from, err := strconv.Atoi(args[0])
	if err != nil {
		return cfg, errors.Wrapf(ErrBadArguments, "%q", args[0])
	}
	to, err := strconv.Atoi(args[1])
	if err != nil {
		return cfg, errors.Wrapf(ErrBadArguments, "%q", args[1])
	}
	cfg.LapRangeStart, cfg.LapRangeEnd = model.IntPtr(from), model.IntPtr(to)
	return cfg, cfg.Validate()
}

// ParseTimeRange reads "<min> <max>" in race time format (1:32.5 or 92.5).
// No arguments clears the bounds.
func ParseTimeRange(args []string) (model.FilterConfig, error) {
	cfg := model.FilterConfig{}
	if len(args) == 0 {
		return cfg, nil
	}
	if len(args) != 2 {
		return cfg, errors.Wrapf(ErrBadArguments, "%d arguments", len(args))
	}
	lo, hi := helper.ParseRaceTime(args[0]), helper.ParseRaceTime(args[1])
	if !helper.IsValidLapTime(lo) || !helper.IsValidLapTime(hi) {
		return cfg, errors.Wrapf(ErrBadArguments, "%q %q", args[0], args[1])
	}
	cfg.MinLapTime, cfg.MaxLapTime = model.FloatPtr(lo), model.FloatPtr(hi)
	return cfg, cfg.Validate()
}

func (fa *FiltersApp) AcceptCommand(command string) (bool, func(ctx context.Context, chatId int64) error) {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return false, nil
	}
	name := strings.SplitN(fields[0], "@", 2)[0]
	switch name {
	case commandLaps:
		return true, fa.applyRange(fields[1:], ParseLapRange, func(cfg *model.FilterConfig) {
			cfg.LapRangeStart, cfg.LapRangeEnd = nil, nil
		}, "Formato: /vueltas <desde> <hasta>")
	case commandTimes:
		return true, fa.applyRange(fields[1:], ParseTimeRange, func(cfg *model.FilterConfig) {
			cfg.MinLapTime, cfg.MaxLapTime = nil, nil
		}, "Formato: /tiempos <mín> <máx>, por ejemplo /tiempos 1:30 1:40")
	}
	return false, nil
}

// applyRange merges the parsed bounds into the stored filters. An empty
// argument list clears them, as merging cannot unset a field.
func (fa *FiltersApp) applyRange(args []string, parse func([]string) (model.FilterConfig, error), clear func(*model.FilterConfig), usage string) func(ctx context.Context, chatId int64) error {
	return func(ctx context.Context, chatId int64) error {
		userID, ok := apps.UserID(ctx)
		if !ok {
			return fa.send(chatId, "No se pudo leer el usuario")
		}
		patch, err := parse(args)
		if err != nil {
			return fa.send(chatId, usage)
		}
		if len(args) == 0 {
			cfg, err := fa.store.Filters(userID)
			if err == nil {
				clear(&cfg)
				err = fa.store.SaveFilters(userID, cfg)
			}
			if err != nil {
				log.Err(err).Str("user", userID).Msg("Could not clear filter")
				return fa.send(chatId, "No se pudieron guardar los filtros")
			}
		} else if _, err := fa.store.MergeFilters(userID, patch); err != nil {
			log.Warn().Err(err).Str("user", userID).Msg("Could not merge filter")
			if errors.Is(err, model.ErrInvalidFilter) {
				return fa.send(chatId, "El filtro no es válido con los que ya tienes. "+usage)
			}
			return fa.send(chatId, "No se pudieron guardar los filtros")
		}
		return fa.renderFilters(nil)(ctx, chatId)
	}
}

func (fa *FiltersApp) AcceptButton(button string) (bool, func(ctx context.Context, chatId int64) error) {
	if button == fa.appMenu.Name {
		return true, fa.renderFilters(nil)
	}
	return false, nil
}

func (fa *FiltersApp) AcceptCallback(query *tgbotapi.CallbackQuery) (bool, func(ctx context.Context, query *tgbotapi.CallbackQuery) error) {
	data := strings.Split(query.Data, ":")
	if data[0] != subcommandFilter || len(data) != 2 {
		return false, nil
	}
	return true, func(ctx context.Context, query *tgbotapi.CallbackQuery) error {
		chatId := query.Message.Chat.ID
		userID, ok := apps.UserID(ctx)
		if !ok {
			return fa.send(chatId, "No se pudo leer el usuario")
		}
		var err error
		if data[1] == filterReset {
			err = fa.store.ResetFilters(userID)
		} else {
			_, err = fa.store.ToggleFilter(userID, data[1])
		}
		if err != nil {
			log.Err(err).Str("user", userID).Str("filter", data[1]).Msg("Could not change filter")
			return fa.send(chatId, "No se pudo cambiar el filtro")
		}
		return fa.renderFilters(&query.Message.MessageID)(ctx, chatId)
	}
}

func (fa *FiltersApp) send(chatId int64, text string) error {
	_, err := fa.bot.Send(tgbotapi.NewMessage(chatId, text))
	return err
}

func (fa *FiltersApp) renderFilters(messageID *int) func(ctx context.Context, chatId int64) error {
	return func(ctx context.Context, chatId int64) error {
		userID, ok := apps.UserID(ctx)
		if !ok {
			return apps.SendText(fa.bot, chatId, "No se pudo leer el usuario", fa.appMenu.PrevMenu())
		}
		cfg, err := fa.store.Filters(userID)
		if err != nil {
			log.Err(err).Str("user", userID).Msg("Could not read filters")
			return apps.SendText(fa.bot, chatId, "No se pudieron leer los filtros", fa.appMenu.PrevMenu())
		}
		text := fmt.Sprintf("%s\n\n%s <desde> <hasta> limita las vueltas\n%s <mín> <máx> limita los tiempos\nSin argumentos quitan el límite", cfg, commandLaps, commandTimes)
		keyboard := FiltersKeyboard(cfg)
		return apps.SendOrEdit(fa.bot, chatId, messageID, text, "", &keyboard)
	}
}

func symbol(on bool) string {
	if on {
		return symbolOn
	}
	return symbolOff
}

func FiltersKeyboard(cfg model.FilterConfig) tgbotapi.InlineKeyboardMarkup {
	data := func(filter string) string {
		return subcommandFilter + ":" + filter
	}
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Sin boxes "+symbol(cfg.ExcludePitLaps), data(settings.FilterPitLaps)),
			tgbotapi.NewInlineKeyboardButtonData("Sin outliers "+symbol(cfg.ExcludeOutliers), data(settings.FilterOutliers)),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Solo ritmo de carrera "+symbol(cfg.ShowOnlyRacePace), data(settings.FilterRacePace)),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Quitar filtros", data(filterReset)),
		),
	)
}
