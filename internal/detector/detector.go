package detector

import "gocv.io/x/gocv"

// Detector defines the interface for face landmark detection implementations.
type Detector interface {
	// Detect analyzes a video frame and returns detected face landmarks.
	// Returns an empty slice if no face is detected.
	Detect(frame *gocv.Mat) ([]FaceLandmarks, error)

	// Close releases any resources held by the detector.
	Close() error
}

// Config holds configuration options for face detection.
type Config struct {
	// MaxFaces is the maximum number of faces to detect. Gesture control only
	// ever reads the first face.
	MaxFaces int

	// MinConfidence is the minimum detection confidence threshold (0.0-1.0).
	MinConfidence float64

	// MinTrackingConf is the minimum tracking confidence threshold (0.0-1.0).
	MinTrackingConf float64

	// RefineLandmarks enables iris refinement (478 points instead of 468).
	RefineLandmarks bool

	// IdleTimeout shuts the detector process down after this long without frames.
	IdleTimeoutSec int
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() Config {
	return Config{
		MaxFaces:        1,
		MinConfidence:   0.5,
		MinTrackingConf: 0.5,
		RefineLandmarks: true,
		IdleTimeoutSec:  30,
	}
}

// First returns the first detected face, or nil when the slice is empty.
func First(faces []FaceLandmarks) *FaceLandmarks {
	if len(faces) == 0 {
		return nil
	}
	return &faces[0]
}
