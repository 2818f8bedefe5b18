//go:build linux

package effector

import (
	"sync"
	"unicode"

	"github.com/micmonay/keybd_event"
)

var (
	kb      keybd_event.KeyBonding
	kbOnce  sync.Once
	kbErr   error
	kbInits int
)

// initKeys creates the uinput device once. The kernel needs a moment to
// register it, so this runs when the Desktop is built rather than on the
// first key press.
func initKeys() error {
	kbOnce.Do(func() {
		kbInits++
		kb, kbErr = keybd_event.NewKeyBonding()
	})
	return kbErr
}

var linuxKeyCodes = map[string]int{
	KeyBackspace: keybd_event.VK_BACKSPACE,
	KeyEnter:     keybd_event.VK_ENTER,
	KeySpace:     keybd_event.VK_SPACE,
	KeyTab:       keybd_event.VK_TAB,
	KeyEscape:    keybd_event.VK_ESC,
	KeyLeft:      keybd_event.VK_LEFT,
	KeyRight:     keybd_event.VK_RIGHT,
	KeyUp:        keybd_event.VK_UP,
	KeyDown:      keybd_event.VK_DOWN,

	"a": keybd_event.VK_A, "b": keybd_event.VK_B, "c": keybd_event.VK_C,
	"d": keybd_event.VK_D, "e": keybd_event.VK_E, "f": keybd_event.VK_F,
	"g": keybd_event.VK_G, "h": keybd_event.VK_H, "i": keybd_event.VK_I,
	"j": keybd_event.VK_J, "k": keybd_event.VK_K, "l": keybd_event.VK_L,
	"m": keybd_event.VK_M, "n": keybd_event.VK_N, "o": keybd_event.VK_O,
	"p": keybd_event.VK_P, "q": keybd_event.VK_Q, "r": keybd_event.VK_R,
	"s": keybd_event.VK_S, "t": keybd_event.VK_T, "u": keybd_event.VK_U,
	"v": keybd_event.VK_V, "w": keybd_event.VK_W, "x": keybd_event.VK_X,
	"y": keybd_event.VK_Y, "z": keybd_event.VK_Z,

	"0": keybd_event.VK_0, "1": keybd_event.VK_1, "2": keybd_event.VK_2,
	"3": keybd_event.VK_3, "4": keybd_event.VK_4, "5": keybd_event.VK_5,
	"6": keybd_event.VK_6, "7": keybd_event.VK_7, "8": keybd_event.VK_8,
	"9": keybd_event.VK_9,
}

// tapKey uses the uinput key bonding for letters, digits and navigation keys
// and robotgo for everything else (punctuation, bare modifiers).
func tapKey(key string) error {
	lookup := key
	shift := false
	if r := []rune(key); len(r) == 1 && unicode.IsUpper(r[0]) {
		lookup = string(unicode.ToLower(r[0]))
		shift = true
	}

	code, ok := linuxKeyCodes[lookup]
	if !ok {
		return robotgoTap(key)
	}
	if err := initKeys(); err != nil {
		return robotgoTap(key)
	}

	kb.Clear()
	kb.SetKeys(code)
	kb.HasSHIFT(shift)
	return kb.Launching()
}
