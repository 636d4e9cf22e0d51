package service

import (
	"context"
	"errors"
	"time"

	"arb_gateway/internal/models"
	"arb_gateway/internal/storage"
	"arb_gateway/pkg/tracing"

	tgbot "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// Stores внешние данные, которые читают команды.
type Stores struct {
	Config       storage.ConfigStore
	Status       storage.StatusStore
	Transactions storage.TransactionStore
}

type DispatcherConfig struct {
	UserID   string
	Policy   Policy
	Location *time.Location
	TxLimit  int
}

// Dispatcher обрабатывает команды одной сессии. Своего состояния не держит:
// всё читается из хранилища на каждый вызов.
type Dispatcher struct {
	cfg    DispatcherConfig
	stores Stores
	log    *zap.Logger
	now    func() time.Time
}

var _ Handler = (*Dispatcher)(nil)

func NewDispatcher(cfg DispatcherConfig, stores Stores, log *zap.Logger) *Dispatcher {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.TxLimit <= 0 {
		cfg.TxLimit = 100
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	return &Dispatcher{
		cfg:    cfg,
		stores: stores,
		log:    log.Named("dispatcher"),
		now:    time.Now,
	}
}

func htmlReply(text string) *Reply {
	return &Reply{Text: text, ParseMode: tgbot.ModeHTML}
}

func plainReply(text string) *Reply {
	return &Reply{Text: text}
}

func (d *Dispatcher) Handle(ctx context.Context, in Inbound) *Reply {
	cmd := Classify(in.Text)
	if cmd == CommandNone {
		return nil
	}

	span, ctx := tracing.StartSpan(ctx, "telegram.command")
	span.SetTag("command", cmd.String())
	defer span.Finish()

	log := d.log.With(
		zap.String("command", cmd.String()),
		zap.String("sender", in.SenderID),
		zap.String("chat", in.ChatID),
	)

	if !d.cfg.Policy.Allows(in.SenderID, in.ChatID) {
		log.Info("unauthorized command")
		AuthDenials.Inc()
		CommandsTotal.WithLabelValues(cmd.String(), "denied").Inc()
		if cmd == CommandStart {
			return plainReply(textDeniedStart)
		}
		return plainReply(textDenied)
	}

	started := time.Now()
	reply, err := d.run(ctx, cmd, in)
	CommandDuration.WithLabelValues(cmd.String()).Observe(time.Since(started).Seconds())

	if err != nil {
		span.SetTag("error", true)
		log.Error("command failed", zap.Error(err))
		CommandsTotal.WithLabelValues(cmd.String(), "error").Inc()
		return reply
	}
	CommandsTotal.WithLabelValues(cmd.String(), "ok").Inc()
	return reply
}

// run при ошибке возвращает и её, и безопасный для чата текст.
func (d *Dispatcher) run(ctx context.Context, cmd Command, in Inbound) (*Reply, error) {
	switch cmd {
	case CommandStart:
		return htmlReply(textWelcome), nil
	case CommandHelp:
		return htmlReply(textHelp), nil
	case CommandStatus:
		return d.status(ctx)
	case CommandStats:
		return d.stats(ctx)
	case CommandConfig:
		return d.config(ctx)
	case CommandStop:
		return d.stop(ctx)
	default:
		return plainReply(textUnknown(in.Text)), nil
	}
}

func (d *Dispatcher) status(ctx context.Context) (*Reply, error) {
	st, err := d.stores.Status.GetStatus(ctx, d.cfg.UserID)
	if errors.Is(err, storage.ErrNotFound) {
		return plainReply(textStatusUnavailable), nil
	}
	if err != nil {
		return plainReply(textStatusFailed), err
	}

	cfg, err := d.stores.Config.GetConfig(ctx, d.cfg.UserID)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return plainReply(textStatusFailed), err
	}

	return htmlReply(formatStatus(st, cfg, d.cfg.Location)), nil
}

func (d *Dispatcher) stats(ctx context.Context) (*Reply, error) {
	st, err := d.stores.Status.GetStatus(ctx, d.cfg.UserID)
	if errors.Is(err, storage.ErrNotFound) {
		return plainReply(textStatsUnavailable), nil
	}
	if err != nil {
		return plainReply(textStatsFailed), err
	}

	txs, err := d.stores.Transactions.GetRecentTransactions(ctx, d.cfg.UserID, d.cfg.TxLimit)
	if err != nil {
		return plainReply(textStatsFailed), err
	}

	return htmlReply(formatStats(st, models.Summarize(txs))), nil
}

func (d *Dispatcher) config(ctx context.Context) (*Reply, error) {
	cfg, err := d.stores.Config.GetConfig(ctx, d.cfg.UserID)
	if errors.Is(err, storage.ErrNotFound) {
		return plainReply(textConfigMissing), nil
	}
	if err != nil {
		return plainReply(textConfigFailed), err
	}
	return htmlReply(formatConfig(cfg)), nil
}

func (d *Dispatcher) stop(ctx context.Context) (*Reply, error) {
	if _, err := d.stores.Status.UpdateStatus(ctx, d.cfg.UserID, models.StopPatch(d.now())); err != nil {
		return plainReply(textStopFailed), err
	}
	d.log.Info("bot stopped via telegram", zap.String("user_id", d.cfg.UserID))
	return htmlReply(textStopped), nil
}
