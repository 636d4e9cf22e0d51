package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ============ Команды ============

// CommandsTotal обработанные команды по имени и результату (ok, error, denied)
var CommandsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "arb_gateway",
		Subsystem: "telegram",
		Name:      "commands_total",
		Help:      "Total number of handled Telegram commands",
	},
	[]string{"command", "result"},
)

// CommandDuration время обработки команды вместе с чтением хранилища
var CommandDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: "arb_gateway",
		Subsystem: "telegram",
		Name:      "command_duration_seconds",
		Help:      "Time spent handling a Telegram command",
		Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
	},
	[]string{"command"},
)

// AuthDenials отказы в доступе
var AuthDenials = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: "arb_gateway",
		Subsystem: "telegram",
		Name:      "auth_denials_total",
		Help:      "Commands rejected by the authorization policy",
	},
)

// ============ Уведомления ============

// NotificationsTotal попытки отправки по типу и исходу (sent, failed, not_configured)
var NotificationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "arb_gateway",
		Subsystem: "telegram",
		Name:      "notifications_total",
		Help:      "Outbound notification attempts",
	},
	[]string{"type", "outcome"},
)

// ============ Сессии ============

var SessionStarts = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "arb_gateway",
		Subsystem: "telegram",
		Name:      "session_starts_total",
		Help:      "Transport session start attempts",
	},
	[]string{"result"},
)

var SessionActive = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: "arb_gateway",
		Subsystem: "telegram",
		Name:      "session_active",
		Help:      "1 while a long-polling session is running",
	},
)
