// Package tray provides the system tray menu for abhinaya.
package tray

import (
	"sync"

	"github.com/getlantern/systray"
	"github.com/rs/zerolog"

	"github.com/ayusman/abhinaya/internal/session"
)

// Controls are the session commands the menu drives.
type Controls interface {
	Pause() error
	Resume() error
	Recalibrate()
	ToggleKeyboard() bool
}

// Tray represents the system tray application.
type Tray struct {
	controls   Controls
	logger     zerolog.Logger
	onSettings func()
	onQuit     func()

	mu       sync.RWMutex
	state    session.State
	keyboard bool

	// Menu items stored for later updates
	menuState    *systray.MenuItem
	menuPause    *systray.MenuItem
	menuKeyboard *systray.MenuItem
}

// New creates a Tray bound to controls.
func New(controls Controls, logger zerolog.Logger) *Tray {
	return &Tray{
		controls: controls,
		logger:   logger.With().Str("component", "tray").Logger(),
		state:    session.StateUncalibrated,
	}
}

// OnSettings sets the callback function to be called when the settings menu item is clicked.
func (t *Tray) OnSettings(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onSettings = fn
}

// OnQuit sets the callback function to be called when the quit menu item is clicked.
func (t *Tray) OnQuit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onQuit = fn
}

// Run starts the system tray application.
// This function blocks until Quit is called.
func (t *Tray) Run() {
	systray.Run(t.onReady, func() {})
}

// Quit ends Run.
func (t *Tray) Quit() {
	systray.Quit()
}

func (t *Tray) onReady() {
	systray.SetTitle("Abhinaya")
	systray.SetTooltip("Abhinaya face cursor control")

	t.mu.Lock()
	t.menuState = systray.AddMenuItem(stateTitle(t.state), "Tracking state")
	t.menuState.Disable()
	systray.AddSeparator()
	t.menuPause = systray.AddMenuItem(pauseTitle(t.state), "Pause or resume cursor control")
	t.menuKeyboard = systray.AddMenuItem(keyboardTitle(t.keyboard), "Show or hide the on-screen keyboard")
	t.mu.Unlock()

	menuCalibrate := systray.AddMenuItem("Recalibrate", "Hold still to capture a new neutral position")
	systray.AddSeparator()
	menuSettings := systray.AddMenuItem("Open Settings...", "Open settings in browser")
	systray.AddSeparator()
	menuQuit := systray.AddMenuItem("Quit", "Quit Abhinaya")

	go func() {
		for {
			select {
			case <-t.menuPause.ClickedCh:
				t.handlePauseResume()
			case <-t.menuKeyboard.ClickedCh:
				t.handleKeyboard()
			case <-menuCalibrate.ClickedCh:
				t.controls.Recalibrate()
			case <-menuSettings.ClickedCh:
				t.handleSettings()
			case <-menuQuit.ClickedCh:
				t.handleQuit()
				systray.Quit()
				return
			}
		}
	}()
}

// SetState updates the menu for a controller state change.
func (t *Tray) SetState(s session.State) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state = s
	if t.menuState != nil {
		t.menuState.SetTitle(stateTitle(s))
		t.menuPause.SetTitle(pauseTitle(s))
	}
}

// SetKeyboard updates the keyboard item.
func (t *Tray) SetKeyboard(visible bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.keyboard = visible
	if t.menuKeyboard != nil {
		t.menuKeyboard.SetTitle(keyboardTitle(visible))
	}
}

// handlePauseResume pauses a running session and resumes a paused one.
func (t *Tray) handlePauseResume() {
	t.mu.RLock()
	paused := t.state == session.StatePaused
	t.mu.RUnlock()

	var err error
	if paused {
		err = t.controls.Resume()
	} else {
		err = t.controls.Pause()
	}
	if err != nil {
		t.logger.Warn().Err(err).Msg("pause/resume")
	}
}

func (t *Tray) handleKeyboard() {
	t.controls.ToggleKeyboard()
}

func (t *Tray) handleSettings() {
	t.mu.RLock()
	callback := t.onSettings
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}
}

func (t *Tray) handleQuit() {
	t.mu.RLock()
	callback := t.onQuit
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}
}

func stateTitle(s session.State) string {
	switch s {
	case session.StateCalibrating:
		return "◐ Calibrating, hold still"
	case session.StateTracking:
		return "● Tracking"
	case session.StatePaused:
		return "○ Paused"
	default:
		return "○ Not calibrated"
	}
}

func pauseTitle(s session.State) string {
	if s == session.StatePaused {
		return "Resume"
	}
	return "Pause"
}

func keyboardTitle(visible bool) string {
	if visible {
		return "Hide Keyboard"
	}
	return "Show Keyboard"
}
