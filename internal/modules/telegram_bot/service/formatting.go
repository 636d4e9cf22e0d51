package service

import (
	"fmt"
	"html"
	"time"

	"arb_gateway/internal/models"

	"github.com/shopspring/decimal"
)

const timeLayout = "02.01.2006, 15:04:05"

const (
	textDenied      = "⛔ Доступ запрещен."
	textDeniedStart = "⛔ Доступ запрещен. Этот бот настроен для другого пользователя."

	textStatusUnavailable = "❌ Не удалось получить статус бота"
	textStatusFailed      = "❌ Ошибка получения статуса"
	textStatsUnavailable  = "❌ Не удалось получить статистику"
	textStatsFailed       = "❌ Ошибка получения статистики"
	textConfigMissing     = "❌ Конфигурация не найдена"
	textConfigFailed      = "❌ Ошибка получения конфигурации"
	textStopFailed        = "❌ Ошибка остановки бота"

	textStopped = "⏹️ <b>Бот остановлен</b>\n\n" +
		"Флаг работы снят. Текущие операции движок завершит сам."
)

const textWelcome = "🤖 <b>Flash Loan Arbitrage Bot</b>\n\n" +
	"Добро пожаловать! Я помогу вам управлять арбитражным ботом.\n\n" +
	"<b>Доступные команды:</b>\n" +
	"/status - Текущий статус бота\n" +
	"/stats - Статистика и метрики\n" +
	"/config - Показать конфигурацию\n" +
	"/stop - Остановить бота\n" +
	"/help - Помощь и документация\n\n" +
	"Используйте эти команды для управления ботом в режиме реального времени! 📊"

const textHelp = "📚 <b>Справка по командам</b>\n\n" +
	"<b>/start</b> - Приветственное сообщение и список команд\n" +
	"Покажет основную информацию о боте и доступные команды\n\n" +
	"<b>/status</b> - Текущий статус бота\n" +
	"Показывает: работает ли бот, режим сети, активные возможности\n\n" +
	"<b>/stats</b> - Статистика торговли\n" +
	"Показывает: прибыль, затраты на gas, количество сделок, success rate\n\n" +
	"<b>/config</b> - Конфигурация\n" +
	"Показывает: параметры торговли, лимиты безопасности, настройки gas\n\n" +
	"<b>/stop</b> - Остановить бота\n" +
	"Снимает флаг работы (запустить снова можно через веб-интерфейс)\n\n" +
	"<b>/help</b> - Эта справка\n\n" +
	"💡 <b>Совет:</b> Используйте веб-интерфейс для детальной настройки и запуска бота.\n" +
	"Telegram команды предназначены для быстрого мониторинга!"

func textUnknown(input string) string {
	return fmt.Sprintf("❓ Неизвестная команда: %s\n\nИспользуйте /help для списка доступных команд.", input)
}

func onOff(v bool) string {
	if v {
		return "✅ Включен"
	}
	return "❌ Выключен"
}

func f2(v decimal.Decimal) string { // деньги
	return v.StringFixed(2)
}

func formatTime(t *time.Time, loc *time.Location) string {
	if t == nil || t.IsZero() {
		return "Никогда"
	}
	if loc == nil {
		loc = time.Local
	}
	return t.In(loc).Format(timeLayout)
}

func networkLabel(cfg *models.BotConfig) string {
	if cfg.IsMainnet() {
		return "🔴 Mainnet"
	}
	return "🟡 Testnet"
}

func formatStatus(st *models.BotStatus, cfg *models.BotConfig, loc *time.Location) string {
	emoji, text := "🔴", "Остановлен"
	if st.IsRunning {
		emoji, text = "🟢", "Работает"
	}

	paused := ""
	if st.IsPaused {
		reason := st.PauseReason
		if reason == "" {
			reason = "Неизвестная причина"
		}
		paused = "\n⏸️ <b>На паузе:</b> " + html.EscapeString(reason)
	}

	return fmt.Sprintf(
		"%s <b>Статус бота: %s</b>\n"+
			"%s\n\n"+
			"<b>Режим:</b> %s\n"+
			"<b>Активные возможности:</b> %d\n"+
			"<b>Последний запуск:</b> %s\n"+
			"<b>Последняя остановка:</b> %s",
		emoji, text,
		paused,
		networkLabel(cfg),
		st.ActiveOpportunities,
		formatTime(st.LastStartedAt, loc),
		formatTime(st.LastStoppedAt, loc),
	)
}

func formatStats(st *models.BotStatus, sum models.TransactionSummary) string {
	return fmt.Sprintf(
		"📊 <b>Статистика торговли</b>\n\n"+
			"💰 <b>Общая прибыль:</b> $%s\n"+
			"📈 <b>Прибыль за 24ч:</b> $%s\n"+
			"⛽ <b>Затраты на gas:</b> $%s\n"+
			"🛡️ <b>Страховой фонд:</b> $%s\n\n"+
			"<b>Транзакции:</b>\n"+
			"✅ Успешных: %d (%s%%)\n"+
			"❌ Неудачных: %d\n"+
			"📝 Всего: %d\n"+
			"🎯 <b>Success Rate:</b> %s%%",
		f2(st.TotalProfitUSD),
		f2(st.Net24hUSD),
		f2(st.GasCostUSD),
		f2(st.InsuranceFundUSD),
		sum.Success, sum.SuccessPercent(),
		sum.Failed,
		sum.Total,
		st.SuccessRate.StringFixed(1),
	)
}

// formatConfig без токена, chat id и приватного ключа.
func formatConfig(cfg *models.BotConfig) string {
	network := "🟡 Testnet (Amoy)"
	if cfg.IsMainnet() {
		network = "🔴 Mainnet (Polygon)"
	}

	return fmt.Sprintf(
		"⚙️ <b>Конфигурация бота</b>\n\n"+
			"<b>Сеть:</b> %s\n"+
			"<b>RPC:</b> %s\n\n"+
			"<b>Параметры торговли:</b>\n"+
			"• Min profit: %s%%\n"+
			"• Min net profit: %s%%\n"+
			"• Flash loan amount: $%s\n"+
			"• Scan interval: %ds\n\n"+
			"<b>Лимиты безопасности:</b>\n"+
			"• Max loan: $%s\n"+
			"• Daily loss limit: $%s\n"+
			"• Max single loss: $%s\n"+
			"• Insurance fund: %s%%\n\n"+
			"<b>Gas настройки:</b>\n"+
			"• Max gas price: %s Gwei\n"+
			"• Priority fee: %s Gwei\n"+
			"• Min net profit: $%s\n\n"+
			"<b>Режимы:</b>\n"+
			"• Real trading: %s\n"+
			"• Simulation: %s\n"+
			"• Auto pause: %s",
		network,
		html.EscapeString(cfg.RPCURL()),
		cfg.MinProfitPercent, cfg.MinNetProfitPercent, cfg.FlashLoanAmount, cfg.ScanInterval,
		cfg.MaxLoanUSD, cfg.DailyLossLimit, cfg.MaxSingleLossUSD, cfg.InsuranceFundPercent,
		cfg.MaxGasPriceGwei, cfg.PriorityFeeGwei, cfg.MinNetProfitUSD,
		onOff(cfg.EnableRealTrading),
		onOff(cfg.UseSimulation),
		onOff(cfg.AutoPauseEnabled),
	)
}

func formatTestMessage(botUsername string, to ChatRef, rawChat string) string {
	chatType := "Личный чат"
	if IsGroupChat(rawChat) {
		chatType = "Группа/Канал"
	}
	return fmt.Sprintf(
		"✅ <b>Telegram бот подключен успешно!</b>\n\n"+
			"🤖 Бот: @%s\n"+
			"📱 Chat ID: %s\n"+
			"💬 Тип: %s\n\n"+
			"Уведомления настроены и работают.\n\n"+
			"<b>Доступные команды:</b>\n"+
			"/start - Начать работу\n"+
			"/status - Статус бота\n"+
			"/stats - Статистика\n"+
			"/config - Конфигурация\n"+
			"/stop - Остановить бота\n"+
			"/help - Помощь",
		botUsername, to, chatType,
	)
}
