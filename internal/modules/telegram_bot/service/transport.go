package service

import (
	"net/http"
	"time"

	tgbot "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Bot подмножество *tgbot.BotAPI, которым пользуется шлюз.
type Bot interface {
	GetMe() (tgbot.User, error)
	Send(c tgbot.Chattable) (tgbot.Message, error)
	GetUpdatesChan(config tgbot.UpdateConfig) tgbot.UpdatesChannel
	StopReceivingUpdates()
}

// BotFactory создаёт клиента и проверяет токен (getMe).
type BotFactory func(token string, timeout time.Duration) (Bot, error)

var _ Bot = (*tgbot.BotAPI)(nil)

// NewBotFactory фабрика поверх Bot API; timeout ограничивает каждый HTTP-вызов.
func NewBotFactory(debug bool) BotFactory {
	return func(token string, timeout time.Duration) (Bot, error) {
		b, err := tgbot.NewBotAPIWithClient(token, tgbot.APIEndpoint, &http.Client{Timeout: timeout})
		if err != nil {
			return nil, err
		}
		b.Debug = debug
		return b, nil
	}
}

// longPoll даёт клиенту бота таймаут под getUpdates. getMe в фабрике идёт
// с коротким таймаутом, а long-poll держит запрос до pollTimeout.
func longPoll(b Bot, timeout time.Duration) {
	if api, ok := b.(*tgbot.BotAPI); ok {
		api.Client = &http.Client{Timeout: timeout}
	}
}

// newMessage HTML-сообщение в чат или канал.
func newMessage(to ChatRef, text string) tgbot.MessageConfig {
	var msg tgbot.MessageConfig
	if to.Username != "" {
		msg = tgbot.NewMessageToChannel(to.Username, text)
	} else {
		msg = tgbot.NewMessage(to.ID, text)
	}
	msg.ParseMode = tgbot.ModeHTML
	return msg
}
