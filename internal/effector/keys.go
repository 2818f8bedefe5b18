package effector

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	// ErrUnknownKey is returned for keys outside the logical key set.
	ErrUnknownKey = errors.New("unknown key")
	// ErrUnknownAction is returned for unrecognised action kinds.
	ErrUnknownAction = errors.New("unknown action")
)

// Named logical keys. Any other key is a single printable character.
const (
	KeyBackspace = "backspace"
	KeyEnter     = "enter"
	KeySpace     = "space"
	KeyTab       = "tab"
	KeyEscape    = "escape"
	KeyLeft      = "left"
	KeyRight     = "right"
	KeyUp        = "up"
	KeyDown      = "down"
	KeyShift     = "shift"
	KeyCtrl      = "ctrl"
	KeyAlt       = "alt"
)

var keyAliases = map[string]string{
	"backspace": KeyBackspace,
	"enter":     KeyEnter,
	"return":    KeyEnter,
	"space":     KeySpace,
	"tab":       KeyTab,
	"esc":       KeyEscape,
	"escape":    KeyEscape,
	"left":      KeyLeft,
	"right":     KeyRight,
	"up":        KeyUp,
	"down":      KeyDown,
	"shift":     KeyShift,
	"ctrl":      KeyCtrl,
	"control":   KeyCtrl,
	"alt":       KeyAlt,
	"←":         KeyLeft,
	"→":         KeyRight,
	"↑":         KeyUp,
	"↓":         KeyDown,
	" ":         KeySpace,
}

// NormalizeKey maps an on-screen keyboard label to a logical key name.
// Single printable characters are returned unchanged so case is kept.
func NormalizeKey(key string) (string, error) {
	if k, ok := keyAliases[strings.ToLower(key)]; ok {
		return k, nil
	}
	if utf8.RuneCountInString(key) == 1 {
		r, _ := utf8.DecodeRuneInString(key)
		if unicode.IsPrint(r) && !unicode.IsSpace(r) {
			return key, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKey, key)
}
