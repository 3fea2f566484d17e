package middleware

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Sender is the part of the Bot API the middlewares reply through
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// origin returns the user and chat an update came from
func origin(update tgbotapi.Update) (userID, chatID int64, ok bool) {
	msg := update.Message
	if msg == nil || msg.Chat == nil {
		return 0, 0, false
	}
	if msg.From != nil {
		userID = msg.From.ID
	}
	return userID, msg.Chat.ID, true
}
