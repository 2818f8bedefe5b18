package main

import "testing"

func TestBuildKeyScript(t *testing.T) {
	tests := []struct {
		name      string
		key       string
		modifiers []string
		want      string
		wantErr   bool
	}{
		{"letter", "a", nil, `tell application "System Events" to keystroke "a"`, false},
		{"named key", "Enter", nil, `tell application "System Events" to key code 36`, false},
		{"arrow", "left", nil, `tell application "System Events" to key code 123`, false},
		{"quote escaped", `"`, nil, `tell application "System Events" to keystroke "\""`, false},
		{"with modifiers", "c", []string{"cmd", "bogus"}, `tell application "System Events" to keystroke "c" using {command down}`, false},
		{"empty", "", nil, "", true},
		{"unknown name", "hyper", nil, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := buildKeyScript(tt.key, tt.modifiers)
			if (err != nil) != tt.wantErr {
				t.Fatalf("expected error=%v, got %v", tt.wantErr, err)
			}
			if got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}
