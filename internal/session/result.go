package session

import (
	"time"

	"github.com/ayusman/abhinaya/internal/detector"
	"github.com/ayusman/abhinaya/internal/effector"
	"github.com/ayusman/abhinaya/internal/gesture"
)

// FrameResult is everything the controller decided for one frame.
type FrameResult struct {
	At           time.Time                  `json:"at"`
	State        State                      `json:"state"`
	FaceDetected bool                       `json:"face_detected"`
	Calibration  *gesture.CalibrationStatus `json:"calibration,omitempty"`

	// Nose is the normalized nose tip, Baseline the calibrated neutral point.
	Nose     *detector.Point3D `json:"nose,omitempty"`
	Baseline *gesture.Baseline `json:"baseline,omitempty"`
	// Cursor is the screen position sent to the effector, margin applied.
	Cursor *effector.Point `json:"cursor,omitempty"`

	Events         []gesture.Event `json:"events,omitempty"`
	MouthOpen      bool            `json:"mouth_open"`
	MouthRatio     float64         `json:"mouth_ratio"`
	CheekExpansion float64         `json:"cheek_expansion"`
	ScrollMode     bool            `json:"scroll_mode"`
	Gaze           gesture.Gaze    `json:"gaze,omitempty"`
	OpenCount      int             `json:"open_count"`

	KeyboardVisible bool                      `json:"keyboard_visible"`
	DispatchErrors  []*effector.DispatchError `json:"dispatch_errors,omitempty"`
}

// Status is a point-in-time view of the controller for the UI.
type Status struct {
	State           State             `json:"state"`
	KeyboardVisible bool              `json:"keyboard_visible"`
	Baseline        *gesture.Baseline `json:"baseline,omitempty"`
	Calibrated      int               `json:"calibrated"`
	CalibrationGoal int               `json:"calibration_goal"`
	Screen          gesture.Size      `json:"screen"`
	Last            *FrameResult      `json:"last,omitempty"`
}
