// Package main provides a key plugin for macOS.
// It taps logical keys from the on-screen keyboard via AppleScript.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// Request represents the input from the plugin executor.
type Request struct {
	Action string          `json:"action"`
	Key    string          `json:"key"`
	Params json.RawMessage `json:"params,omitempty"`
}

// Response represents the output to the plugin executor.
type Response struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// keyParams carries optional modifiers held while the key is tapped.
type keyParams struct {
	Modifiers []string `json:"modifiers"` // command, option, control, shift
}

// keyCodes maps named logical keys to macOS virtual key codes.
var keyCodes = map[string]int{
	"enter":     36,
	"tab":       48,
	"space":     49,
	"backspace": 51,
	"escape":    53,
	"left":      123,
	"right":     124,
	"down":      125,
	"up":        126,
}

var modifierMap = map[string]string{
	"command": "command down",
	"cmd":     "command down",
	"option":  "option down",
	"alt":     "option down",
	"control": "control down",
	"ctrl":    "control down",
	"shift":   "shift down",
}

func main() {
	var req Request
	if err := json.NewDecoder(os.Stdin).Decode(&req); err != nil {
		writeResponse(fmt.Errorf("decode request: %w", err))
		return
	}

	if req.Action != "key" {
		writeResponse(fmt.Errorf("unknown action: %s", req.Action))
		return
	}

	var p keyParams
	if len(req.Params) > 0 {
		if err := json.Unmarshal(req.Params, &p); err != nil {
			writeResponse(fmt.Errorf("parse params: %w", err))
			return
		}
	}

	script, err := buildKeyScript(req.Key, p.Modifiers)
	if err != nil {
		writeResponse(err)
		return
	}
	writeResponse(runAppleScript(script))
}

// buildKeyScript generates an AppleScript that taps key with modifiers held.
func buildKeyScript(key string, modifiers []string) (string, error) {
	if key == "" {
		return "", fmt.Errorf("key is required")
	}

	var stroke string
	if code, ok := keyCodes[strings.ToLower(key)]; ok {
		stroke = fmt.Sprintf("key code %d", code)
	} else if len([]rune(key)) == 1 {
		escaped := strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(key)
		stroke = fmt.Sprintf(`keystroke "%s"`, escaped)
	} else {
		return "", fmt.Errorf("unsupported key %q", key)
	}

	var using []string
	for _, mod := range modifiers {
		if m, ok := modifierMap[strings.ToLower(mod)]; ok {
			using = append(using, m)
		}
	}

	script := `tell application "System Events" to ` + stroke
	if len(using) > 0 {
		script += " using {" + strings.Join(using, ", ") + "}"
	}
	return script, nil
}

func writeResponse(err error) {
	resp := Response{Success: err == nil}
	if err != nil {
		resp.Error = err.Error()
	}
	json.NewEncoder(os.Stdout).Encode(resp)
}

func runAppleScript(script string) error {
	output, err := exec.Command("osascript", "-e", script).CombinedOutput()
	if err != nil {
		return fmt.Errorf("%w: %s", err, string(output))
	}
	return nil
}
