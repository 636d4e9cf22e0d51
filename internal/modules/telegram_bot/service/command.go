package service

import "strings"

type Command int

const (
	// CommandNone обычный текст без "/", шлюз его не обрабатывает.
	CommandNone Command = iota
	CommandStart
	CommandStatus
	CommandStats
	CommandConfig
	CommandStop
	CommandHelp
	CommandUnknown
)

const commandMarker = "/"

var commandTokens = map[string]Command{
	"start":  CommandStart,
	"status": CommandStatus,
	"stats":  CommandStats,
	"config": CommandConfig,
	"stop":   CommandStop,
	"help":   CommandHelp,
}

func (c Command) String() string {
	switch c {
	case CommandStart:
		return "start"
	case CommandStatus:
		return "status"
	case CommandStats:
		return "stats"
	case CommandConfig:
		return "config"
	case CommandStop:
		return "stop"
	case CommandHelp:
		return "help"
	case CommandUnknown:
		return "unknown"
	default:
		return "none"
	}
}

// Classify берёт первое слово, отрезает "@botname" и сверяет токен
// с регистром. Аргументы после команды игнорируются.
func Classify(text string) Command {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, commandMarker) {
		return CommandNone
	}

	token := strings.TrimPrefix(strings.Fields(text)[0], commandMarker)
	if i := strings.IndexByte(token, '@'); i >= 0 {
		token = token[:i]
	}
	if cmd, ok := commandTokens[token]; ok {
		return cmd
	}
	return CommandUnknown
}
