package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"arb_gateway/internal/models"
	"arb_gateway/internal/storage/memory"

	tgbot "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// fakeBot ведёт себя как *tgbot.BotAPI без сети.
type fakeBot struct {
	mu       sync.Mutex
	username string
	meErr    error
	sendErr  error
	sent     []tgbot.MessageConfig
	stopped  int
	sentCh   chan tgbot.MessageConfig
	updates  chan tgbot.Update
}

func newFakeBot(username string) *fakeBot {
	return &fakeBot{
		username: username,
		sentCh:   make(chan tgbot.MessageConfig, 64),
		updates:  make(chan tgbot.Update, 64),
	}
}

func (b *fakeBot) GetMe() (tgbot.User, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.meErr != nil {
		return tgbot.User{}, b.meErr
	}
	return tgbot.User{ID: 1, IsBot: true, UserName: b.username}, nil
}

func (b *fakeBot) Send(c tgbot.Chattable) (tgbot.Message, error) {
	b.mu.Lock()
	err := b.sendErr
	msg, ok := c.(tgbot.MessageConfig)
	if ok && err == nil {
		b.sent = append(b.sent, msg)
	}
	b.mu.Unlock()

	if err != nil {
		return tgbot.Message{}, err
	}
	if ok {
		b.sentCh <- msg
	}
	return tgbot.Message{MessageID: 1}, nil
}

func (b *fakeBot) GetUpdatesChan(tgbot.UpdateConfig) tgbot.UpdatesChannel {
	return b.updates
}

func (b *fakeBot) StopReceivingUpdates() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.stopped++
}

func (b *fakeBot) stopCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.stopped
}

func (b *fakeBot) sentMessages() []tgbot.MessageConfig {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]tgbot.MessageConfig(nil), b.sent...)
}

func (b *fakeBot) waitSent(t *testing.T) tgbot.MessageConfig {
	t.Helper()
	select {
	case m := <-b.sentCh:
		return m
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for outgoing message")
		return tgbot.MessageConfig{}
	}
}

func (b *fakeBot) push(chatID, fromID int64, text string) {
	upd := tgbot.Update{
		UpdateID: int(time.Now().UnixNano() % 1_000_000),
		Message: &tgbot.Message{
			Chat: &tgbot.Chat{ID: chatID},
			Text: text,
		},
	}
	if fromID != 0 {
		upd.Message.From = &tgbot.User{ID: fromID}
	}
	b.updates <- upd
}

// fakeFactory выдаёт по боту на токен. gate[token] держит вызов до закрытия.
type fakeFactory struct {
	mu       sync.Mutex
	bots     map[string]*fakeBot
	errs     map[string]error
	gate     map[string]chan struct{}
	timeouts []time.Duration
	calls    int
}

func newFakeFactory() *fakeFactory {
	return &fakeFactory{
		bots: make(map[string]*fakeBot),
		errs: make(map[string]error),
		gate: make(map[string]chan struct{}),
	}
}

func (f *fakeFactory) New(token string, timeout time.Duration) (Bot, error) {
	f.mu.Lock()
	f.calls++
	f.timeouts = append(f.timeouts, timeout)
	gate := f.gate[token]
	f.mu.Unlock()

	if gate != nil {
		<-gate
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.errs[token]; err != nil {
		return nil, err
	}
	b, ok := f.bots[token]
	if !ok {
		b = newFakeBot("bot_" + token)
		f.bots[token] = b
	}
	return b, nil
}

// hold заставляет вызовы для token ждать до close у возвращённого канала.
func (f *fakeFactory) hold(token string) chan struct{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch := make(chan struct{})
	f.gate[token] = ch
	return ch
}

func (f *fakeFactory) lastTimeout() time.Duration {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.timeouts) == 0 {
		return 0
	}
	return f.timeouts[len(f.timeouts)-1]
}

func (f *fakeFactory) bot(token string) *fakeBot {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.bots[token]
	if !ok {
		b = newFakeBot("bot_" + token)
		f.bots[token] = b
	}
	return b
}

func (f *fakeFactory) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// failingStore отдаёт одну и ту же ошибку на всё.
type failingStore struct{ err error }

func (s failingStore) GetConfig(context.Context, string) (*models.BotConfig, error) {
	return nil, s.err
}

func (s failingStore) GetStatus(context.Context, string) (*models.BotStatus, error) {
	return nil, s.err
}

func (s failingStore) UpdateStatus(context.Context, string, models.StatusPatch) (*models.BotStatus, error) {
	return nil, s.err
}

func (s failingStore) GetRecentTransactions(context.Context, string, int) ([]models.Transaction, error) {
	return nil, s.err
}

var errStoreDown = errors.New("dial tcp 10.0.0.5:5432: connection refused")

func storesOf(s *memory.Store) Stores {
	return Stores{Config: s, Status: s, Transactions: s}
}

func configuredStore(userID, token, chat string) *memory.Store {
	s := memory.New()
	s.PutConfig(models.BotConfig{
		UserID:           userID,
		NetworkMode:      models.NetworkTestnet,
		TelegramBotToken: token,
		TelegramChatID:   chat,
		PrivateKey:       "0xdeadbeefcafe",
	})
	return s
}
