package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"arb_gateway/internal/models"
	"arb_gateway/internal/storage/memory"

	tgbot "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap/zaptest"
)

type recordSink struct {
	mu   sync.Mutex
	recs []*models.NotificationRecord
}

func (s *recordSink) Broadcast(rec *models.NotificationRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recs = append(s.recs, rec)
}

func newTestNotifier(t *testing.T, s *memory.Store, f *fakeFactory) *Notifier {
	return NewNotifier(s, s, f.New, time.Second, zaptest.NewLogger(t))
}

func TestNotifyNotConfigured(t *testing.T) {
	s := memory.New()
	f := newFakeFactory()
	n := newTestNotifier(t, s, f)

	out := n.Notify(context.Background(), testUser, "Profit +$12", models.MessageTypeProfit, nil)
	if out.Success || out.Error != "Telegram not configured" {
		t.Fatalf("outcome = %+v", out)
	}
	if f.callCount() != 0 {
		t.Error("transport must not be touched without configuration")
	}

	recs, _ := s.RecentRecords(context.Background(), testUser, 10)
	if len(recs) != 1 || recs[0].Success || recs[0].Error != "Telegram not configured" || recs[0].MessageType != models.MessageTypeProfit {
		t.Errorf("records = %+v", recs)
	}
}

func TestNotifyEmptyChatIsNotConfigured(t *testing.T) {
	s := configuredStore(testUser, "T1", "  ")
	n := newTestNotifier(t, s, newFakeFactory())

	out := n.Notify(context.Background(), testUser, "hi", "", nil)
	if out.Success || out.Error != reasonNotConfigured {
		t.Fatalf("outcome = %+v", out)
	}
	if out.Record == nil || out.Record.MessageType != models.MessageTypeNotification {
		t.Errorf("record = %+v", out.Record)
	}
}

func TestNotifyTransportFailureRecordedOnce(t *testing.T) {
	s := configuredStore(testUser, "T1", "-1009")
	f := newFakeFactory()
	f.bot("T1").sendErr = &tgbot.Error{Code: 400, Message: "Bad Request: chat not found"}
	n := newTestNotifier(t, s, f)

	meta := map[string]any{"pair": "WETH/USDC", "loss_usd": 120.5}
	out := n.Notify(context.Background(), testUser, "Risk limit breached", models.MessageTypeAlert, meta)
	if out.Success || out.Error != "Bad Request: chat not found" {
		t.Fatalf("outcome = %+v", out)
	}

	recs, _ := s.RecentRecords(context.Background(), testUser, 10)
	if len(recs) != 1 {
		t.Fatalf("records = %d, want exactly 1", len(recs))
	}
	r := recs[0]
	if r.Success || r.Error != "Bad Request: chat not found" || r.MessageType != models.MessageTypeAlert || r.Metadata["pair"] != "WETH/USDC" {
		t.Errorf("record = %+v", r)
	}
}

func TestNotifySuccessUsesGroupChatID(t *testing.T) {
	s := configuredStore(testUser, "T1", "-1001234567890")
	f := newFakeFactory()
	n := newTestNotifier(t, s, f)
	sink := &recordSink{}
	n.SetBroadcaster(sink)

	out := n.Notify(context.Background(), testUser, "<b>Trade done</b>", models.MessageTypeProfit, nil)
	if !out.Success || out.Error != "" || out.Record == nil || out.Record.ID == "" {
		t.Fatalf("outcome = %+v", out)
	}

	sent := f.bot("T1").sentMessages()
	if len(sent) != 1 {
		t.Fatalf("sent = %d", len(sent))
	}
	if sent[0].ChatID != -1001234567890 || sent[0].ParseMode != tgbot.ModeHTML {
		t.Errorf("message = %+v", sent[0])
	}

	if len(sink.recs) != 1 || sink.recs[0].ID != out.Record.ID {
		t.Errorf("broadcast = %+v", sink.recs)
	}
}

func TestNotifyChannelUsername(t *testing.T) {
	s := configuredStore(testUser, "T1", "@arb_alerts")
	f := newFakeFactory()
	n := newTestNotifier(t, s, f)

	if out := n.Notify(context.Background(), testUser, "hi", "", nil); !out.Success {
		t.Fatalf("outcome = %+v", out)
	}
	if sent := f.bot("T1").sentMessages(); len(sent) != 1 || sent[0].ChannelUsername != "@arb_alerts" {
		t.Errorf("sent = %+v", sent)
	}
}

func TestNotifyReusesBotPerToken(t *testing.T) {
	s := configuredStore(testUser, "T1", "-1009")
	f := newFakeFactory()
	n := newTestNotifier(t, s, f)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			n.Notify(context.Background(), testUser, fmt.Sprintf("msg %d", i), models.MessageTypeNotification, nil)
		}(i)
	}
	wg.Wait()

	if f.callCount() != 1 {
		t.Errorf("factory calls = %d, want 1", f.callCount())
	}
	recs, _ := s.RecentRecords(context.Background(), testUser, 0)
	if len(recs) != 20 {
		t.Errorf("records = %d, want 20", len(recs))
	}
}

func TestNotifySlowTokenDoesNotBlockOtherUsers(t *testing.T) {
	s := configuredStore(testUser, "SLOW", "-1009")
	s.PutConfig(models.BotConfig{UserID: "u2", TelegramBotToken: "FAST", TelegramChatID: "-2000"})
	f := newFakeFactory()
	release := f.hold("SLOW")
	n := newTestNotifier(t, s, f)

	slow := make(chan Outcome, 2)
	for i := 0; i < 2; i++ {
		go func() { slow <- n.Notify(context.Background(), testUser, "slow", "", nil) }()
	}

	fast := make(chan Outcome, 1)
	go func() { fast <- n.Notify(context.Background(), "u2", "fast", "", nil) }()

	select {
	case out := <-fast:
		if !out.Success {
			t.Errorf("fast outcome = %+v", out)
		}
	case <-time.After(time.Second):
		t.Fatal("notify for another token blocked behind a slow bot build")
	}

	close(release)
	for i := 0; i < 2; i++ {
		select {
		case out := <-slow:
			if !out.Success {
				t.Errorf("slow outcome = %+v", out)
			}
		case <-time.After(2 * time.Second):
			t.Fatal("slow notify never finished")
		}
	}
	// второй вызов дождался первой сборки, а не строил своего клиента
	if f.callCount() != 2 {
		t.Errorf("factory calls = %d, want 2", f.callCount())
	}
}

func TestNotifyFactoryFailureIsNotCached(t *testing.T) {
	s := configuredStore(testUser, "T1", "-1009")
	f := newFakeFactory()
	f.errs["T1"] = errors.New("dial tcp: i/o timeout")
	n := newTestNotifier(t, s, f)

	if out := n.Notify(context.Background(), testUser, "a", "", nil); out.Success {
		t.Fatalf("outcome = %+v", out)
	}
	f.mu.Lock()
	delete(f.errs, "T1")
	f.mu.Unlock()

	if out := n.Notify(context.Background(), testUser, "b", "", nil); !out.Success {
		t.Fatalf("outcome after recovery = %+v", out)
	}
	if f.callCount() != 2 {
		t.Errorf("factory calls = %d, want 2", f.callCount())
	}
}

func TestNotifyBadTokenDropsCachedBot(t *testing.T) {
	s := configuredStore(testUser, "T1", "-1009")
	f := newFakeFactory()
	f.bot("T1").sendErr = &tgbot.Error{Code: 401, Message: "Unauthorized"}
	n := newTestNotifier(t, s, f)

	n.Notify(context.Background(), testUser, "a", "", nil)
	n.Notify(context.Background(), testUser, "b", "", nil)

	if f.callCount() != 2 {
		t.Errorf("factory calls = %d, want 2", f.callCount())
	}
}

func TestNotifyConfigStoreFailureStillRecorded(t *testing.T) {
	s := memory.New()
	n := NewNotifier(failingStore{err: errStoreDown}, s, newFakeFactory().New, time.Second, zaptest.NewLogger(t))

	out := n.Notify(context.Background(), testUser, "hi", models.MessageTypeError, nil)
	if out.Success || out.Record == nil {
		t.Fatalf("outcome = %+v", out)
	}
	if recs, _ := s.RecentRecords(context.Background(), testUser, 10); len(recs) != 1 {
		t.Errorf("records = %d", len(recs))
	}
}

func TestTestConnection(t *testing.T) {
	tests := []struct {
		name    string
		chat    string
		token   string
		meErr   error
		sendErr error
		newErr  error
		want    string
	}{
		{name: "not configured", chat: "", token: "T1", want: diagNotConfigured},
		{name: "bad token on create", chat: "-1009", token: "T1", newErr: &tgbot.Error{Code: 401, Message: "Unauthorized"}, want: diagBadToken},
		{name: "bad token on getMe", chat: "-1009", token: "T1", meErr: &tgbot.Error{Code: 404, Message: "Not Found"}, want: diagBadToken},
		{name: "chat not found", chat: "-1009", token: "T1", sendErr: &tgbot.Error{Code: 400, Message: "Bad Request: chat not found"}, want: diagBadChat},
		{name: "chat not found text only", chat: "-1009", token: "T1", sendErr: errors.New("chat not found"), want: diagBadChat},
		{name: "malformed chat id", chat: "chat-1", token: "T1", want: diagBadChat},
		{name: "rate limit", chat: "-1009", token: "T1", sendErr: &tgbot.Error{Code: 429, Message: "Too Many Requests: retry after 5"}, want: diagRateLimited},
		{name: "network", chat: "-1009", token: "T1", sendErr: errors.New("i/o timeout"), want: diagGeneric},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := configuredStore(testUser, tt.token, tt.chat)
			f := newFakeFactory()
			if tt.newErr != nil {
				f.errs[tt.token] = tt.newErr
			}
			b := f.bot(tt.token)
			b.meErr = tt.meErr
			b.sendErr = tt.sendErr

			rep := newTestNotifier(t, s, f).TestConnection(context.Background(), testUser)
			if rep.Success || rep.Error != tt.want {
				t.Errorf("report = %+v, want error %q", rep, tt.want)
			}
		})
	}
}

func TestTestConnectionSuccess(t *testing.T) {
	s := configuredStore(testUser, "T1", "-1009")
	f := newFakeFactory()

	rep := newTestNotifier(t, s, f).TestConnection(context.Background(), testUser)
	if !rep.Success || rep.BotUsername != "bot_T1" || rep.ChatID != "-1009" {
		t.Fatalf("report = %+v", rep)
	}

	sent := f.bot("T1").sentMessages()
	if len(sent) != 1 || sent[0].ChatID != -1009 {
		t.Fatalf("sent = %+v", sent)
	}
	if want := "💬 Тип: Группа/Канал"; !strings.Contains(sent[0].Text, want) {
		t.Errorf("test message misses %q:\n%s", want, sent[0].Text)
	}
}
