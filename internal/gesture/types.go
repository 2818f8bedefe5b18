// Package gesture turns face landmarks into calibrated cursor positions and
// discrete gesture events.
package gesture

import "time"

// EventKind identifies a discrete gesture event.
type EventKind string

const (
	EventClick           EventKind = "click"
	EventToggleKeyboard  EventKind = "toggle_keyboard"
	EventScrollUp        EventKind = "scroll_up"
	EventScrollDown      EventKind = "scroll_down"
	EventScrollModeEnter EventKind = "scroll_mode_enter"
	EventScrollModeExit  EventKind = "scroll_mode_exit"
)

// Event is a discrete gesture emitted by the Detector.
type Event struct {
	Kind  EventKind `json:"kind"`
	Delta int       `json:"delta,omitempty"` // scroll amount, positive is up
	At    time.Time `json:"at"`
}

// Gaze is the vertical gaze direction estimated from eye openness.
type Gaze string

const (
	GazeNeutral Gaze = "neutral"
	GazeUp      Gaze = "up"
	GazeDown    Gaze = "down"
)

// Baseline is the neutral face position captured during calibration.
// All values are in normalized landmark space.
type Baseline struct {
	NoseX                float64 `json:"nose_x"`
	NoseY                float64 `json:"nose_y"`
	NeutralCheekDistance float64 `json:"neutral_cheek_distance"`
}

// Point is a screen position in pixels.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Size is a screen size in pixels.
type Size struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}
