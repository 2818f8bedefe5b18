package effector

import (
	"fmt"
	"strings"
	"sync"
	"unicode"

	"github.com/go-vgo/robotgo"
	"github.com/rs/zerolog"
)

// Desktop drives the real mouse and keyboard.
type Desktop struct {
	mu     sync.Mutex
	logger zerolog.Logger
}

// NewDesktop creates a Desktop effector.
func NewDesktop(logger zerolog.Logger) *Desktop {
	d := &Desktop{logger: logger.With().Str("component", "desktop").Logger()}
	if err := initKeys(); err != nil {
		d.logger.Warn().Err(err).Msg("key injection unavailable, using robotgo for all keys")
	}
	return d
}

// ScreenSize returns the primary display size in pixels.
func (d *Desktop) ScreenSize() (int, int) {
	return robotgo.GetScreenSize()
}

func (d *Desktop) MoveCursor(x, y int) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	robotgo.Move(x, y)
	return nil
}

func (d *Desktop) Click() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	robotgo.Click("left", false)
	return nil
}

func (d *Desktop) Scroll(delta int) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	robotgo.Scroll(0, delta)
	return nil
}

// DispatchKey taps a logical key.
func (d *Desktop) DispatchKey(key string) error {
	k, err := NormalizeKey(key)
	if err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if err := tapKey(k); err != nil {
		d.logger.Debug().Err(err).Str("key", k).Msg("key tap failed")
		return fmt.Errorf("tap %q: %w", k, err)
	}
	return nil
}

var robotgoNames = map[string]string{
	KeyBackspace: "backspace",
	KeyEnter:     "enter",
	KeySpace:     "space",
	KeyTab:       "tab",
	KeyEscape:    "esc",
	KeyLeft:      "left",
	KeyRight:     "right",
	KeyUp:        "up",
	KeyDown:      "down",
	KeyShift:     "shift",
	KeyCtrl:      "ctrl",
	KeyAlt:       "alt",
}

// robotgoTap taps a normalized key through robotgo.
func robotgoTap(key string) error {
	if name, ok := robotgoNames[key]; ok {
		return robotgo.KeyTap(name)
	}
	r := []rune(key)[0]
	if unicode.IsUpper(r) {
		return robotgo.KeyTap(strings.ToLower(key), "shift")
	}
	return robotgo.KeyTap(key)
}
