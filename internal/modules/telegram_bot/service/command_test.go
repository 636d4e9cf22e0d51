package service

import "testing"

func TestClassify(t *testing.T) {
	tests := []struct {
		text string
		want Command
	}{
		{"/start", CommandStart},
		{"/status", CommandStatus},
		{"/stats", CommandStats},
		{"/config", CommandConfig},
		{"/stop", CommandStop},
		{"/help", CommandHelp},
		{"  /status  ", CommandStatus},
		{"/status now please", CommandStatus},
		{"/stats@arb_gateway_bot", CommandStats},
		{"/xyz", CommandUnknown},
		{"/Status", CommandUnknown},
		{"/statusx", CommandUnknown},
		{"/", CommandUnknown},
		{"status", CommandNone},
		{"hello /status", CommandNone},
		{"", CommandNone},
	}

	for _, tt := range tests {
		if got := Classify(tt.text); got != tt.want {
			t.Errorf("Classify(%q) = %s, want %s", tt.text, got, tt.want)
		}
	}
}

func TestCommandTokensAreClassified(t *testing.T) {
	for token, cmd := range commandTokens {
		if cmd.String() != token {
			t.Errorf("command %d prints %q, token %q", cmd, cmd, token)
		}
		if Classify("/"+token) != cmd {
			t.Errorf("token %q not classified", token)
		}
	}
}
