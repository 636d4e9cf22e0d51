package service

import (
	"errors"
	"testing"
)

func TestSignUnsignChatID(t *testing.T) {
	tests := []struct {
		in       string
		signed   string
		unsigned string
	}{
		{"1009", "-1009", "1009"},
		{"-1009", "-1009", "1009"},
		{" -100123 ", "-100123", "100123"},
		{"", "", ""},
		{"@channel", "@channel", "@channel"},
	}

	for _, tt := range tests {
		if got := SignChatID(tt.in); got != tt.signed {
			t.Errorf("SignChatID(%q) = %q, want %q", tt.in, got, tt.signed)
		}
		if got := UnsignChatID(tt.in); got != tt.unsigned {
			t.Errorf("UnsignChatID(%q) = %q, want %q", tt.in, got, tt.unsigned)
		}
		// туда и обратно даёт ту же пару
		if UnsignChatID(SignChatID(tt.in)) != tt.unsigned {
			t.Errorf("round trip broken for %q", tt.in)
		}
	}
}

func TestParseChatRef(t *testing.T) {
	tests := []struct {
		raw     string
		want    ChatRef
		wantErr bool
	}{
		{raw: "-1001234567890", want: ChatRef{ID: -1001234567890}},
		{raw: "861887555", want: ChatRef{ID: 861887555}},
		{raw: "@arb_alerts", want: ChatRef{Username: "@arb_alerts"}},
		{raw: "", wantErr: true},
		{raw: "@", wantErr: true},
		{raw: "0", wantErr: true},
		{raw: "chat-1", wantErr: true},
	}

	for _, tt := range tests {
		got, err := ParseChatRef(tt.raw)
		if tt.wantErr {
			if !errors.Is(err, ErrBadChatID) {
				t.Errorf("ParseChatRef(%q) err = %v, want ErrBadChatID", tt.raw, err)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("ParseChatRef(%q) = %+v, %v", tt.raw, got, err)
		}
	}
}

func TestIsGroupChat(t *testing.T) {
	if !IsGroupChat("-1009") || !IsGroupChat("@news") {
		t.Error("group not detected")
	}
	if IsGroupChat("1009") {
		t.Error("private chat reported as group")
	}
}
