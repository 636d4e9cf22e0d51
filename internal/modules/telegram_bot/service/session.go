package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	tgbot "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// Credentials то, на чём держится сессия. Смена любого поля = новая сессия.
type Credentials struct {
	Token    string
	HomeChat string
}

// Inbound входящее сообщение в терминах шлюза.
type Inbound struct {
	SenderID string
	ChatID   string
	Text     string
}

// Reply ответ в тот же чат. nil => ничего не отправляем.
type Reply struct {
	Text      string
	ParseMode string
}

type Handler interface {
	Handle(ctx context.Context, in Inbound) *Reply
}

// Observer получает события жизненного цикла сессии (health-state).
type Observer interface {
	SessionStarted(info SessionInfo)
	SessionStopped()
	UpdateHandled(at time.Time)
}

type SessionInfo struct {
	BotUsername string    `json:"bot_username"`
	HomeChat    string    `json:"home_chat"`
	StartedAt   time.Time `json:"started_at"`
}

type session struct {
	info     SessionInfo
	creds    Credentials
	bot      Bot
	observer Observer
	cancel   context.CancelFunc
	quit     chan struct{}
	done     chan struct{}
}

// SessionManager владеет единственным long-polling подключением.
type SessionManager struct {
	mu sync.Mutex

	newBot         BotFactory
	pollTimeout    int
	requestTimeout time.Duration
	log            *zap.Logger
	observer       Observer

	active *session
}

func NewSessionManager(factory BotFactory, pollTimeout int, requestTimeout time.Duration, log *zap.Logger) *SessionManager {
	if log == nil {
		log = zap.NewNop()
	}
	return &SessionManager{
		newBot:         factory,
		pollTimeout:    pollTimeout,
		requestTimeout: requestTimeout,
		log:            log.Named("session"),
	}
}

func (m *SessionManager) SetObserver(o Observer) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.observer = o
}

// Start останавливает текущую сессию и поднимает новую. При ошибке сессии нет.
func (m *SessionManager) Start(ctx context.Context, creds Credentials, h Handler) error {
	if creds.Token == "" || creds.HomeChat == "" {
		return errors.New("session: empty credentials")
	}
	if h == nil {
		return errors.New("session: nil handler")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.stopLocked()

	bot, err := m.newBot(creds.Token, m.requestTimeout)
	if err != nil {
		SessionStarts.WithLabelValues("error").Inc()
		return fmt.Errorf("start session: %w", err)
	}
	// long-poll держит запрос до pollTimeout, клиенту нужен запас сверху
	longPoll(bot, time.Duration(m.pollTimeout)*time.Second+m.requestTimeout)

	var username string
	if api, ok := bot.(*tgbot.BotAPI); ok {
		username = api.Self.UserName
	} else if me, err := bot.GetMe(); err == nil {
		username = me.UserName
	}

	u := tgbot.NewUpdate(0)
	u.Timeout = m.pollTimeout
	u.AllowedUpdates = []string{"message"}
	updates := bot.GetUpdatesChan(u)

	sctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s := &session{
		info: SessionInfo{
			BotUsername: username,
			HomeChat:    creds.HomeChat,
			StartedAt:   time.Now(),
		},
		creds:    creds,
		bot:      bot,
		observer: m.observer,
		cancel:   cancel,
		quit:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	m.active = s

	go m.loop(sctx, s, updates, h)

	SessionStarts.WithLabelValues("ok").Inc()
	SessionActive.Set(1)
	if m.observer != nil {
		m.observer.SessionStarted(s.info)
	}
	m.log.Info("telegram session started",
		zap.String("bot", username),
		zap.String("home_chat", creds.HomeChat),
	)
	return nil
}

// Stop идемпотентен.
func (m *SessionManager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopLocked()
}

func (m *SessionManager) stopLocked() {
	s := m.active
	if s == nil {
		return
	}
	m.active = nil

	close(s.quit)
	s.bot.StopReceivingUpdates()
	s.cancel()
	<-s.done

	SessionActive.Set(0)
	if m.observer != nil {
		m.observer.SessionStopped()
	}
	m.log.Info("telegram session stopped", zap.String("bot", s.info.BotUsername))
}

// Active информация о текущей сессии.
func (m *SessionManager) Active() (SessionInfo, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.active == nil {
		return SessionInfo{}, false
	}
	return m.active.info, true
}

// Credentials текущей сессии; используются для сравнения при перезагрузке.
func (m *SessionManager) Credentials() (Credentials, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.active == nil {
		return Credentials{}, false
	}
	return m.active.creds, true
}

func (m *SessionManager) loop(ctx context.Context, s *session, updates tgbot.UpdatesChannel, h Handler) {
	defer close(s.done)
	// библиотека закроет канал сама; дочитываем, чтобы её горутина не встала на записи
	defer func() {
		go func() {
			for range updates {
			}
		}()
	}()

	for {
		select {
		case <-s.quit:
			return
		case upd, ok := <-updates:
			if !ok {
				return
			}
			select {
			case <-s.quit:
				return
			default:
			}
			m.dispatch(ctx, s, upd, h)
		}
	}
}

func (m *SessionManager) dispatch(ctx context.Context, s *session, upd tgbot.Update, h Handler) {
	msg := upd.Message
	if msg == nil || msg.Chat == nil || msg.Text == "" {
		return
	}

	defer func() {
		if r := recover(); r != nil {
			m.log.Error("panic in telegram handler",
				zap.Any("panic", r),
				zap.Int("update_id", upd.UpdateID),
			)
		}
	}()

	in := Inbound{
		ChatID: strconv.FormatInt(msg.Chat.ID, 10),
		Text:   msg.Text,
	}
	if msg.From != nil {
		in.SenderID = strconv.FormatInt(msg.From.ID, 10)
	}

	reply := h.Handle(ctx, in)
	if s.observer != nil {
		s.observer.UpdateHandled(time.Now())
	}
	if reply == nil {
		return
	}

	out := tgbot.NewMessage(msg.Chat.ID, reply.Text)
	out.ParseMode = reply.ParseMode
	if _, err := s.bot.Send(out); err != nil {
		m.log.Warn("send reply failed",
			zap.Error(err),
			zap.Int64("chat_id", msg.Chat.ID),
		)
	}
}
