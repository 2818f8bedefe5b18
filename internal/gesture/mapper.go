package gesture

import "github.com/ayusman/abhinaya/internal/detector"

// weightedMinSamples is the sample count above which the weighted mean is used.
const weightedMinSamples = 3

// Mapper converts nose offsets from the baseline into smoothed screen points.
type Mapper struct {
	window *Window
}

// NewMapper creates a Mapper with a smoothing window of the given size.
func NewMapper(windowSize int) *Mapper {
	return &Mapper{window: NewWindow(windowSize)}
}

// Target returns the unsmoothed screen point for a nose position,
// clamped to [0, dimension] on each axis.
func Target(nose detector.Point3D, baseline Baseline, sensitivity float64, screen Size) Point {
	offX := (nose.X - baseline.NoseX) * sensitivity
	offY := (nose.Y - baseline.NoseY) * sensitivity
	return Point{
		X: clamp(float64(screen.Width)*(0.5+offX), 0, float64(screen.Width)),
		Y: clamp(float64(screen.Height)*(0.5+offY), 0, float64(screen.Height)),
	}
}

// Map pushes the target for nose into the smoothing window and returns the
// smoothed point. The caller applies any edge margin.
func (m *Mapper) Map(nose detector.Point3D, baseline Baseline, sensitivity float64, screen Size) Point {
	m.window.Push(Target(nose, baseline, sensitivity, screen))
	if m.window.Len() > weightedMinSamples {
		return m.window.WeightedMean()
	}
	return m.window.Mean()
}

// Reset clears the smoothing window.
func (m *Mapper) Reset() {
	m.window.Clear()
}

// Resize changes the smoothing window size without dropping the newest samples.
func (m *Mapper) Resize(size int) {
	m.window.Resize(size)
}

// Window exposes the smoothing window.
func (m *Mapper) Window() *Window {
	return m.window
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
