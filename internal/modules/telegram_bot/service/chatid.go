package service

import (
	"errors"
	"strconv"
	"strings"
)

// Группы и каналы в Telegram имеют отрицательный id.
const groupSign = "-"

var ErrBadChatID = errors.New("telegram: invalid chat id")

// SignChatID приводит id к групповой форме: "1009" -> "-1009".
func SignChatID(id string) string {
	id = strings.TrimSpace(id)
	if id == "" || strings.HasPrefix(id, groupSign) || strings.HasPrefix(id, "@") {
		return id
	}
	return groupSign + id
}

// UnsignChatID снимает один ведущий минус: "-1009" -> "1009".
func UnsignChatID(id string) string {
	return strings.TrimPrefix(strings.TrimSpace(id), groupSign)
}

// IsGroupChat группа или канал.
func IsGroupChat(id string) bool {
	id = strings.TrimSpace(id)
	return strings.HasPrefix(id, groupSign) || strings.HasPrefix(id, "@")
}

// ChatRef адрес получателя: числовой id или @username канала.
type ChatRef struct {
	ID       int64
	Username string
}

func (r ChatRef) String() string {
	if r.Username != "" {
		return r.Username
	}
	return strconv.FormatInt(r.ID, 10)
}

// ParseChatRef разбирает chat id из настроек. Отрицательные id остаются числом,
// чтобы сообщение ушло в группу, а не в личку с тем же номером.
func ParseChatRef(raw string) (ChatRef, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ChatRef{}, ErrBadChatID
	}
	if strings.HasPrefix(raw, "@") {
		if len(raw) == 1 {
			return ChatRef{}, ErrBadChatID
		}
		return ChatRef{Username: raw}, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id == 0 {
		return ChatRef{}, ErrBadChatID
	}
	return ChatRef{ID: id}, nil
}
