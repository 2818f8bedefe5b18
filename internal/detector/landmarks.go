// Package detector provides face landmark detection interfaces and types for gesture control.
package detector

import "math"

// Face mesh landmark indices following the MediaPipe Face Mesh convention.
// See: https://developers.google.com/mediapipe/solutions/vision/face_landmarker
const (
	NoseTip        = 1
	Forehead       = 10
	UpperLip       = 13
	LowerLip       = 14
	LeftEyeOuter   = 33
	MouthLeft      = 61
	LeftCheek      = 123
	LeftEyeInner   = 133
	LeftEyeBottom  = 145
	Chin           = 152
	LeftEyeTop     = 159
	FaceLeft       = 234
	RightEyeOuter  = 263
	MouthRight     = 291
	RightCheek     = 352
	RightEyeInner  = 362
	RightEyeBottom = 374
	RightEyeTop    = 386
	FaceRight      = 454

	// NumLandmarks is the number of points in a face mesh without iris refinement.
	NumLandmarks = 468
)

// required lists every index the gesture core reads.
var required = []int{
	NoseTip, Forehead, UpperLip, LowerLip, LeftEyeOuter, MouthLeft, LeftCheek,
	LeftEyeInner, LeftEyeBottom, Chin, LeftEyeTop, FaceLeft, RightEyeOuter,
	MouthRight, RightCheek, RightEyeInner, RightEyeBottom, RightEyeTop, FaceRight,
}

// Point3D represents a normalized landmark position. X and Y are in [0,1]
// relative to the frame width and height.
type Point3D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// FaceLandmarks is the ordered set of face mesh points detected for one face.
type FaceLandmarks struct {
	Points []Point3D `json:"points"`
	Score  float64   `json:"score"`
}

// Point returns the landmark at index i.
func (f *FaceLandmarks) Point(i int) (Point3D, bool) {
	if f == nil || i < 0 || i >= len(f.Points) {
		return Point3D{}, false
	}
	return f.Points[i], true
}

// Valid reports whether every landmark used for gesture interpretation is present.
func (f *FaceLandmarks) Valid() bool {
	if f == nil {
		return false
	}
	for _, i := range required {
		if i >= len(f.Points) {
			return false
		}
	}
	return true
}

// Nose returns the nose tip position.
func (f *FaceLandmarks) Nose() Point3D {
	p, _ := f.Point(NoseTip)
	return p
}

// MouthOpenness returns the vertical lip separation relative to face height.
func (f *FaceLandmarks) MouthOpenness() float64 {
	mouth := math.Abs(f.Points[UpperLip].Y - f.Points[LowerLip].Y)
	face := math.Abs(f.Points[Forehead].Y - f.Points[Chin].Y)
	return ratio(mouth, face)
}

// CheekDistance returns the vertical separation between the two cheek landmarks.
func (f *FaceLandmarks) CheekDistance() float64 {
	return math.Abs(f.Points[LeftCheek].Y - f.Points[RightCheek].Y)
}

// MouthWidthRatio returns the mouth corner distance relative to the ear-to-ear width.
func (f *FaceLandmarks) MouthWidthRatio() float64 {
	mouth := math.Abs(f.Points[MouthLeft].X - f.Points[MouthRight].X)
	face := math.Abs(f.Points[FaceLeft].X - f.Points[FaceRight].X)
	return ratio(mouth, face)
}

// EyeAspectRatio returns the eye height over eye width, averaged over both eyes.
func (f *FaceLandmarks) EyeAspectRatio() float64 {
	leftH := math.Abs(f.Points[LeftEyeTop].Y - f.Points[LeftEyeBottom].Y)
	rightH := math.Abs(f.Points[RightEyeTop].Y - f.Points[RightEyeBottom].Y)
	leftW := math.Abs(f.Points[LeftEyeOuter].X - f.Points[LeftEyeInner].X)
	rightW := math.Abs(f.Points[RightEyeInner].X - f.Points[RightEyeOuter].X)
	return (ratio(leftH, leftW) + ratio(rightH, rightW)) / 2
}

func ratio(num, den float64) float64 {
	if den < 1e-10 {
		return 0
	}
	return num / den
}
