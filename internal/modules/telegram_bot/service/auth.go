package service

// IsAuthorized порядок проверки: админ из любого чата, затем точное совпадение
// чата, затем совпадение без минуса с любой стороны.
func IsAuthorized(sender, chat, home, fallback string) bool {
	if fallback != "" && sender == fallback {
		return true
	}
	if home == "" || chat == "" {
		return false
	}
	if chat == home {
		return true
	}
	return UnsignChatID(chat) == UnsignChatID(home)
}

// Policy снимок авторизации на время жизни сессии.
type Policy struct {
	HomeChat       string
	FallbackAdmins []string
}

func (p Policy) Allows(sender, chat string) bool {
	for _, admin := range p.FallbackAdmins {
		if IsAuthorized(sender, chat, p.HomeChat, admin) {
			return true
		}
	}
	return IsAuthorized(sender, chat, p.HomeChat, "")
}
