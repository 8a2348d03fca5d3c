package apps

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type ContextUser string
type ContextChatID string

const (
	UserContextKey ContextUser   = "user"
	ChatContextKey ContextChatID = "chat"
)

type Accepter interface {
	AcceptCommand(command string) (bool, func(ctx context.Context, chatId int64) error)
	AcceptButton(button string) (bool, func(ctx context.Context, chatId int64) error)
	AcceptCallback(query *tgbotapi.CallbackQuery) (bool, func(ctx context.Context, query *tgbotapi.CallbackQuery) error)
}

// Sender is the part of the bot client the apps use.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// UserID reads the id of the user that sent the update being handled.
func UserID(ctx context.Context) (string, bool) {
	user, ok := ctx.Value(UserContextKey).(*tgbotapi.User)
	if !ok || user == nil {
		return "", false
	}
	return fmt.Sprintf("%d", user.ID), true
}

func UserName(ctx context.Context) string {
	user, ok := ctx.Value(UserContextKey).(*tgbotapi.User)
	if !ok || user == nil {
		return ""
	}
	if user.UserName != "" {
		return user.UserName
	}
	return user.FirstName
}

// ChatID reads the chat of the update being handled.
func ChatID(ctx context.Context) (int64, bool) {
	chat, ok := ctx.Value(ChatContextKey).(*tgbotapi.Chat)
	if !ok || chat == nil {
		return 0, false
	}
	return chat.ID, true
}

// SendOrEdit sends text as a new message, or edits messageID when set.
func SendOrEdit(bot Sender, chatId int64, messageID *int, text, parseMode string, keyboard *tgbotapi.InlineKeyboardMarkup) error {
	var cfg tgbotapi.Chattable
	if messageID == nil {
		msg := tgbotapi.NewMessage(chatId, text)
		msg.ParseMode = parseMode
		if keyboard != nil {
			msg.ReplyMarkup = *keyboard
		}
		cfg = msg
	} else {
		msg := tgbotapi.NewEditMessageText(chatId, *messageID, text)
		msg.ParseMode = parseMode
		msg.ReplyMarkup = keyboard
		cfg = msg
	}
	_, err := bot.Send(cfg)
	return err
}

// SendText sends a plain message with a reply keyboard.
func SendText(bot Sender, chatId int64, text string, keyboard tgbotapi.ReplyKeyboardMarkup) error {
	msg := tgbotapi.NewMessage(chatId, text)
	msg.ReplyMarkup = keyboard
	_, err := bot.Send(msg)
	return err
}
