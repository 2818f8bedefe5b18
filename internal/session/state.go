package session

import (
	"errors"
	"fmt"
)

// State is the controller run state.
type State string

const (
	StateUncalibrated State = "uncalibrated"
	StateCalibrating  State = "calibrating"
	StateTracking     State = "tracking"
	StatePaused       State = "paused"
)

// ErrInvalidTransition is returned when a command does not apply to the
// current state.
var ErrInvalidTransition = errors.New("invalid state transition")

func invalid(cmd string, from State) error {
	return fmt.Errorf("%w: %s while %s", ErrInvalidTransition, cmd, from)
}
