package capture

import (
	"image"
	"sync"

	"gocv.io/x/gocv"
)

const (
	// blurKernel is the Gaussian kernel size applied before differencing.
	blurKernel = 21
	// pixelDelta is the grey-level change that counts a pixel as changed.
	pixelDelta = 25
)

// MotionGate reports whether consecutive frames differ enough to be worth
// running face detection on. The pipeline consults it only while idle.
type MotionGate struct {
	mu        sync.Mutex
	threshold float64 // fraction of changed pixels, 0..1

	prev    gocv.Mat
	gray    gocv.Mat
	blurred gocv.Mat
	diff    gocv.Mat
	primed  bool
	closed  bool
}

// NewMotionGate creates a gate that opens when more than threshold (a
// fraction of the frame, e.g. 0.01) of pixels change.
func NewMotionGate(threshold float64) *MotionGate {
	return &MotionGate{
		threshold: threshold,
		prev:      gocv.NewMat(),
		gray:      gocv.NewMat(),
		blurred:   gocv.NewMat(),
		diff:      gocv.NewMat(),
	}
}

// Moved compares frame with the previous one. It returns whether motion
// exceeded the threshold and the changed fraction. The first frame after
// construction or Reset never counts as motion.
func (g *MotionGate) Moved(frame *gocv.Mat) (bool, float64) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.closed || frame == nil || frame.Empty() {
		return false, 0
	}

	if frame.Channels() > 1 {
		gocv.CvtColor(*frame, &g.gray, gocv.ColorBGRToGray)
	} else {
		frame.CopyTo(&g.gray)
	}
	gocv.GaussianBlur(g.gray, &g.blurred, image.Pt(blurKernel, blurKernel), 0, 0, gocv.BorderDefault)

	if !g.primed || g.prev.Rows() != g.blurred.Rows() || g.prev.Cols() != g.blurred.Cols() {
		g.blurred.CopyTo(&g.prev)
		g.primed = true
		return false, 0
	}

	gocv.AbsDiff(g.blurred, g.prev, &g.diff)
	gocv.Threshold(g.diff, &g.diff, pixelDelta, 255, gocv.ThresholdBinary)
	changed := float64(gocv.CountNonZero(g.diff)) / float64(g.diff.Rows()*g.diff.Cols())

	g.blurred.CopyTo(&g.prev)
	return changed > g.threshold, changed
}

// SetThreshold changes the gate threshold. Values <= 0 are ignored.
func (g *MotionGate) SetThreshold(threshold float64) {
	if threshold <= 0 {
		return
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.threshold = threshold
}

// Reset forgets the previous frame.
func (g *MotionGate) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.primed = false
}

// Close releases the gate's buffers. A closed gate never reports motion.
func (g *MotionGate) Close() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return
	}
	for _, m := range []*gocv.Mat{&g.prev, &g.gray, &g.blurred, &g.diff} {
		m.Close()
	}
	g.closed = true
	g.primed = false
}
