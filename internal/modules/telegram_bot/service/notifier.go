package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"arb_gateway/internal/models"
	"arb_gateway/internal/storage"
	"arb_gateway/pkg/tracing"

	tgbot "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

const reasonNotConfigured = "Telegram not configured"

// Тексты диагностики для проверки подключения.
const (
	diagNotConfigured = "Пожалуйста, укажите Bot Token и Chat ID в настройках"
	diagBadToken      = "Неверный Bot Token. Проверьте токен в @BotFather"
	diagBadChat       = "Неверный Chat ID. Отправьте /start боту и получите Chat ID через @userinfobot"
	diagRateLimited   = "Слишком много запросов к Telegram. Повторите попытку позже"
	diagGeneric       = "Не удалось подключиться к Telegram"
)

// Outcome результат одной попытки отправки.
type Outcome struct {
	Success bool                       `json:"success"`
	Error   string                     `json:"error,omitempty"`
	Record  *models.NotificationRecord `json:"record,omitempty"`
}

// ConnectionReport результат TestConnection.
type ConnectionReport struct {
	Success     bool   `json:"success"`
	BotUsername string `json:"bot_username,omitempty"`
	ChatID      string `json:"chat_id,omitempty"`
	Error       string `json:"error,omitempty"`
}

// Broadcaster получает каждую записанную попытку (websocket-лента).
type Broadcaster interface {
	Broadcast(rec *models.NotificationRecord)
}

// Notifier отправляет уведомления вне входящего потока команд.
// Безопасен для конкурентного вызова.
type Notifier struct {
	configs storage.ConfigStore
	records storage.NotificationLog
	newBot  BotFactory
	timeout time.Duration
	log     *zap.Logger

	mu   sync.Mutex
	bots map[string]*botEntry

	broadcaster Broadcaster
}

func NewNotifier(configs storage.ConfigStore, records storage.NotificationLog, factory BotFactory, timeout time.Duration, log *zap.Logger) *Notifier {
	if log == nil {
		log = zap.NewNop()
	}
	return &Notifier{
		configs: configs,
		records: records,
		newBot:  factory,
		timeout: timeout,
		log:     log.Named("notifier"),
		bots:    make(map[string]*botEntry),
	}
}

func (n *Notifier) SetBroadcaster(b Broadcaster) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.broadcaster = b
}

// Notify отправляет сообщение в домашний чат пользователя и пишет запись
// в журнал при любом исходе. Повторов нет: решает вызывающий.
func (n *Notifier) Notify(ctx context.Context, userID, message, category string, meta map[string]any) Outcome {
	if category == "" {
		category = models.MessageTypeNotification
	}

	span, ctx := tracing.StartSpan(ctx, "telegram.notify")
	span.SetTag("category", category)
	defer span.Finish()

	log := n.log.With(zap.String("user_id", userID), zap.String("type", category))

	sendErr := n.send(ctx, userID, message)

	rec := &models.NotificationRecord{
		Message:     message,
		MessageType: category,
		Success:     sendErr == nil,
		Metadata:    meta,
	}
	result := "sent"
	if sendErr != nil {
		rec.Error = sendErr.Error()
		span.SetTag("error", true)
		if errors.Is(sendErr, errNotConfigured) {
			result = "not_configured"
			log.Info("telegram not configured, notification logged only")
		} else {
			result = "failed"
			log.Warn("notification not delivered", zap.Error(sendErr))
		}
	}
	NotificationsTotal.WithLabelValues(category, result).Inc()

	out := Outcome{Success: rec.Success, Error: rec.Error}

	saved, err := n.records.AppendRecord(ctx, userID, rec)
	if err != nil {
		log.Error("append notification record", zap.Error(err))
		return out
	}
	out.Record = saved

	n.mu.Lock()
	b := n.broadcaster
	n.mu.Unlock()
	if b != nil {
		b.Broadcast(saved)
	}
	return out
}

var errNotConfigured = errors.New(reasonNotConfigured)

func (n *Notifier) send(ctx context.Context, userID, message string) error {
	cfg, err := n.configs.GetConfig(ctx, userID)
	if errors.Is(err, storage.ErrNotFound) || (err == nil && !cfg.TelegramConfigured()) {
		return errNotConfigured
	}
	if err != nil {
		return err
	}

	to, err := ParseChatRef(cfg.TelegramChatID)
	if err != nil {
		return err
	}

	bot, err := n.bot(cfg.TelegramBotToken)
	if err != nil {
		return err
	}

	if _, err := bot.Send(newMessage(to, message)); err != nil {
		if isBadToken(err) {
			n.forget(cfg.TelegramBotToken)
		}
		return err
	}
	return nil
}

// TestConnection getMe и одно тестовое сообщение; ошибки переводятся
// в понятные подсказки.
func (n *Notifier) TestConnection(ctx context.Context, userID string) ConnectionReport {
	span, ctx := tracing.StartSpan(ctx, "telegram.test_connection")
	defer span.Finish()

	log := n.log.With(zap.String("user_id", userID))

	cfg, err := n.configs.GetConfig(ctx, userID)
	if errors.Is(err, storage.ErrNotFound) || (err == nil && !cfg.TelegramConfigured()) {
		return ConnectionReport{Error: diagNotConfigured}
	}
	if err != nil {
		log.Error("load config", zap.Error(err))
		return ConnectionReport{Error: diagGeneric}
	}

	fail := func(err error) ConnectionReport {
		log.Warn("telegram connection test failed", zap.Error(err))
		return ConnectionReport{Error: diagnose(err)}
	}

	to, err := ParseChatRef(cfg.TelegramChatID)
	if err != nil {
		return fail(err)
	}

	bot, err := n.bot(cfg.TelegramBotToken)
	if err != nil {
		return fail(err)
	}

	me, err := bot.GetMe()
	if err != nil {
		if isBadToken(err) {
			n.forget(cfg.TelegramBotToken)
		}
		return fail(err)
	}

	if _, err := bot.Send(newMessage(to, formatTestMessage(me.UserName, to, cfg.TelegramChatID))); err != nil {
		return fail(err)
	}

	log.Info("telegram connection ok", zap.String("bot", me.UserName))
	return ConnectionReport{
		Success:     true,
		BotUsername: me.UserName,
		ChatID:      cfg.TelegramChatID,
	}
}

// botEntry клиент для одного токена; ready закрывается, когда фабрика отработала.
type botEntry struct {
	ready chan struct{}
	bot   Bot
	err   error
}

// bot отдаёт клиента для токена. Фабрика (getMe по сети) вызывается вне
// n.mu: медленный токен одного пользователя не держит отправки других.
func (n *Notifier) bot(token string) (Bot, error) {
	n.mu.Lock()
	e, ok := n.bots[token]
	if !ok {
		e = &botEntry{ready: make(chan struct{})}
		n.bots[token] = e
	}
	n.mu.Unlock()

	if ok {
		<-e.ready
		return e.bot, e.err
	}

	e.bot, e.err = n.newBot(token, n.timeout)
	if e.err != nil {
		// неудачу не кешируем, следующий вызов попробует снова
		n.mu.Lock()
		if n.bots[token] == e {
			delete(n.bots, token)
		}
		n.mu.Unlock()
	}
	close(e.ready)
	return e.bot, e.err
}

func (n *Notifier) forget(token string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	delete(n.bots, token)
}

func isBadToken(err error) bool {
	var apiErr *tgbot.Error
	if errors.As(err, &apiErr) {
		return apiErr.Code == 401 || apiErr.Code == 404
	}
	return strings.Contains(err.Error(), "Unauthorized")
}

func diagnose(err error) string {
	if errors.Is(err, ErrBadChatID) {
		return diagBadChat
	}

	var apiErr *tgbot.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case 401, 404:
			return diagBadToken
		case 400:
			return diagBadChat
		case 429:
			return diagRateLimited
		}
	}

	msg := err.Error()
	switch {
	case strings.Contains(msg, "401") || strings.Contains(msg, "Unauthorized"):
		return diagBadToken
	case strings.Contains(msg, "400") || strings.Contains(msg, "chat not found"):
		return diagBadChat
	case strings.Contains(msg, "429") || strings.Contains(msg, "Too Many Requests"):
		return diagRateLimited
	}
	return diagGeneric
}
