package detector

import (
	"sync"

	"gocv.io/x/gocv"
)

// MockDetector is a test implementation of the Detector interface.
// It allows tests to control the detection results.
type MockDetector struct {
	mu    sync.Mutex
	faces []FaceLandmarks
	err   error
	calls int
}

// NewMockDetector creates a new MockDetector instance.
func NewMockDetector() *MockDetector {
	return &MockDetector{}
}

// SetFaces sets the faces that will be returned by Detect.
func (m *MockDetector) SetFaces(faces []FaceLandmarks) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.faces = faces
}

// SetError sets the error that will be returned by Detect.
func (m *MockDetector) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Calls returns how many times Detect has been called.
func (m *MockDetector) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Detect returns the pre-configured faces or error.
func (m *MockDetector) Detect(frame *gocv.Mat) ([]FaceLandmarks, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.faces, nil
}

// Close is a no-op for the mock detector.
func (m *MockDetector) Close() error {
	return nil
}

// NeutralFace returns a relaxed, front-facing face with the nose at the frame centre.
//
// Ratios: mouth openness 0.02, cheek distance 0.02, mouth width ratio 0.40,
// eye aspect ratio 0.25.
func NeutralFace() FaceLandmarks {
	return FaceAt(0.5, 0.5)
}

// FaceAt returns a neutral face translated so the nose tip sits at (x, y).
func FaceAt(x, y float64) FaceLandmarks {
	f := FaceLandmarks{
		Points: make([]Point3D, NumLandmarks),
		Score:  0.95,
	}

	// Unused mesh points collapse onto the nose.
	for i := range f.Points {
		f.Points[i] = Point3D{X: x, Y: y}
	}

	set := func(i int, dx, dy float64) {
		f.Points[i] = Point3D{X: x + dx, Y: y + dy}
	}

	set(NoseTip, 0, 0)

	// Face height 0.50.
	set(Forehead, 0, -0.25)
	set(Chin, 0, 0.25)

	// Lips closed: 0.01 apart.
	set(UpperLip, 0, 0.10)
	set(LowerLip, 0, 0.11)

	// Face width 0.40, mouth width 0.16.
	set(FaceLeft, -0.20, 0)
	set(FaceRight, 0.20, 0)
	set(MouthLeft, -0.08, 0.105)
	set(MouthRight, 0.08, 0.105)

	// Cheeks slightly offset vertically.
	set(LeftCheek, -0.12, 0.02)
	set(RightCheek, 0.12, 0.04)

	// Eyes 0.08 wide, 0.02 tall.
	set(LeftEyeOuter, -0.14, -0.08)
	set(LeftEyeInner, -0.06, -0.08)
	set(LeftEyeTop, -0.10, -0.09)
	set(LeftEyeBottom, -0.10, -0.07)
	set(RightEyeInner, 0.06, -0.08)
	set(RightEyeOuter, 0.14, -0.08)
	set(RightEyeTop, 0.10, -0.09)
	set(RightEyeBottom, 0.10, -0.07)

	return f
}

// OpenMouthFace returns a neutral face with the mouth open (openness 0.08).
func OpenMouthFace() FaceLandmarks {
	f := NeutralFace()
	f.Points[LowerLip].Y = f.Points[UpperLip].Y + 0.04
	return f
}

// WithMouthOpenness returns a copy of f whose lower lip is moved so the mouth
// openness ratio equals r.
func WithMouthOpenness(f FaceLandmarks, r float64) FaceLandmarks {
	out := f.clone()
	height := out.Points[Chin].Y - out.Points[Forehead].Y
	out.Points[LowerLip].Y = out.Points[UpperLip].Y + r*height
	return out
}

// PuffedCheeksFace returns a face with inflated cheeks and a narrowed mouth.
// Cheek distance grows by expansion over NeutralFace and the mouth width
// ratio drops to 0.20.
func PuffedCheeksFace(expansion float64) FaceLandmarks {
	f := NeutralFace()
	f.Points[RightCheek].Y += expansion
	f.Points[MouthLeft].X = 0.46
	f.Points[MouthRight].X = 0.54
	return f
}

// WithEyeAspect returns a copy of f whose eyes have the given aspect ratio.
func WithEyeAspect(f FaceLandmarks, r float64) FaceLandmarks {
	out := f.clone()
	for _, eye := range [][4]int{
		{LeftEyeOuter, LeftEyeInner, LeftEyeTop, LeftEyeBottom},
		{RightEyeInner, RightEyeOuter, RightEyeTop, RightEyeBottom},
	} {
		width := out.Points[eye[1]].X - out.Points[eye[0]].X
		if width < 0 {
			width = -width
		}
		centre := (out.Points[eye[2]].Y + out.Points[eye[3]].Y) / 2
		out.Points[eye[2]].Y = centre - r*width/2
		out.Points[eye[3]].Y = centre + r*width/2
	}
	return out
}

func (f FaceLandmarks) clone() FaceLandmarks {
	pts := make([]Point3D, len(f.Points))
	copy(pts, f.Points)
	return FaceLandmarks{Points: pts, Score: f.Score}
}
