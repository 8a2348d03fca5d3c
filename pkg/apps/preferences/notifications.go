package preferences

import (
	"context"
	"f1raceanalyticsbot/pkg/apps"
	"f1raceanalyticsbot/pkg/menus"
	"f1raceanalyticsbot/pkg/settings"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog/log"
)

const (
	symbolNotifications     = "🔔"
	subcommandNotifications = "notifications"
)

type SubscriptionStore interface {
	NewRaceNotification(userID string) (bool, error)
	ToggleNewRaceNotification(user settings.TelegramUser) (bool, error)
}

// NotificationsApp lets a user opt in to the new race announcements.
type NotificationsApp struct {
	bot     apps.Sender
	appMenu menus.ApplicationMenu
	store   SubscriptionStore
}

func NewNotificationsApp(bot apps.Sender, appMenu menus.ApplicationMenu, store SubscriptionStore) *NotificationsApp {
	return &NotificationsApp{
		bot:     bot,
		appMenu: appMenu,
		store:   store,
	}
}

func (na *NotificationsApp) AcceptCommand(command string) (bool, func(ctx context.Context, chatId int64) error) {
	return false, nil
}

func (na *NotificationsApp) AcceptButton(button string) (bool, func(ctx context.Context, chatId int64) error) {
	if button == na.appMenu.Name {
		return true, na.renderNotifications(nil)
	}
	return false, nil
}

func (na *NotificationsApp) AcceptCallback(query *tgbotapi.CallbackQuery) (bool, func(ctx context.Context, query *tgbotapi.CallbackQuery) error) {
	data := strings.Split(query.Data, ":")
	if data[0] != subcommandNotifications {
		return false, nil
	}
	return true, func(ctx context.Context, query *tgbotapi.CallbackQuery) error {
		userID, ok := apps.UserID(ctx)
		chatID, chatOK := apps.ChatID(ctx)
		if !ok || !chatOK {
			msg := tgbotapi.NewMessage(query.Message.Chat.ID, "No se pudo leer información del chat")
			msg.ReplyMarkup = na.appMenu.PrevMenu()
			_, err := na.bot.Send(msg)
			return err
		}
		user := settings.TelegramUser{ID: userID, Name: apps.UserName(ctx), ChatID: chatID}
		if _, err := na.store.ToggleNewRaceNotification(user); err != nil {
			log.Err(err).Str("user", userID).Msg("Could not toggle notification")
			msg := tgbotapi.NewMessage(query.Message.Chat.ID, "No se pudo cambiar el estado de la notificación")
			msg.ReplyMarkup = na.appMenu.PrevMenu()
			_, err := na.bot.Send(msg)
			return err
		}
		return na.renderNotifications(&query.Message.MessageID)(ctx, query.Message.Chat.ID)
	}
}

func (na *NotificationsApp) renderNotifications(messageID *int) func(ctx context.Context, chatId int64) error {
	return func(ctx context.Context, chatId int64) error {
		userID, ok := apps.UserID(ctx)
		if !ok {
			return apps.SendText(na.bot, chatId, "No se pudo leer el usuario", na.appMenu.PrevMenu())
		}
		enabled, err := na.store.NewRaceNotification(userID)
		if err != nil {
			log.Err(err).Str("user", userID).Msg("Could not read notification")
			return apps.SendText(na.bot, chatId, "No se pudo leer el estado de las notificaciones", na.appMenu.PrevMenu())
		}
		keyboard := tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData(symbolNotifications+" Nueva carrera "+symbol(enabled), subcommandNotifications+":"+userID),
			),
		)
		return apps.SendOrEdit(na.bot, chatId, messageID, "Avisos de nuevas carreras con resultados", "", &keyboard)
	}
}
