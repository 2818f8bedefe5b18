package effector

import (
	"errors"
	"testing"
)

func TestNormalizeKey(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"a", "a", false},
		{"A", "A", false},
		{"7", "7", false},
		{";", ";", false},
		{"Backspace", KeyBackspace, false},
		{"Enter", KeyEnter, false},
		{"return", KeyEnter, false},
		{"Space", KeySpace, false},
		{" ", KeySpace, false},
		{"Tab", KeyTab, false},
		{"Esc", KeyEscape, false},
		{"Shift", KeyShift, false},
		{"Ctrl", KeyCtrl, false},
		{"Alt", KeyAlt, false},
		{"←", KeyLeft, false},
		{"→", KeyRight, false},
		{"↑", KeyUp, false},
		{"↓", KeyDown, false},
		{"", "", true},
		{"F13", "", true},
		{"\t", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := NormalizeKey(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrUnknownKey) {
					t.Fatalf("expected ErrUnknownKey, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("NormalizeKey(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestCommand_Empty(t *testing.T) {
	if !(Command{}).Empty() {
		t.Error("zero command should be empty")
	}
	if (Command{Move: &Point{}}).Empty() {
		t.Error("command with a move is not empty")
	}
	if (Command{Actions: []Action{Click()}}).Empty() {
		t.Error("command with actions is not empty")
	}
}
