package gesture

import (
	"sort"

	"github.com/ayusman/abhinaya/internal/detector"
)

// trimFraction is the share of samples dropped from each end of an axis
// before averaging.
const trimFraction = 0.2

// StatusKind describes the outcome of feeding one frame to the Calibrator.
type StatusKind int

const (
	StatusNoFace StatusKind = iota
	StatusInProgress
	StatusComplete
)

func (k StatusKind) String() string {
	switch k {
	case StatusNoFace:
		return "no_face"
	case StatusInProgress:
		return "in_progress"
	case StatusComplete:
		return "complete"
	default:
		return "unknown"
	}
}

// CalibrationStatus reports calibration progress. Baseline is only set when
// Kind is StatusComplete.
type CalibrationStatus struct {
	Kind     StatusKind `json:"-"`
	Count    int        `json:"count"`
	Total    int        `json:"total"`
	Baseline *Baseline  `json:"baseline,omitempty"`
}

// Calibrator accumulates nose samples until a target count is reached and
// then derives a neutral Baseline.
type Calibrator struct {
	target   int
	xs       []float64
	ys       []float64
	cheek    float64
	baseline *Baseline
}

// NewCalibrator creates a Calibrator that completes after target faces.
func NewCalibrator(target int) *Calibrator {
	c := &Calibrator{}
	c.Reset(target)
	return c
}

// Reset discards all partial state and sets a new target.
func (c *Calibrator) Reset(target int) {
	if target < 1 {
		target = 1
	}
	c.target = target
	c.xs = make([]float64, 0, target)
	c.ys = make([]float64, 0, target)
	c.cheek = 0
	c.baseline = nil
}

// Target returns the number of faces required to complete.
func (c *Calibrator) Target() int {
	return c.target
}

// Count returns the number of faces accumulated so far.
func (c *Calibrator) Count() int {
	return len(c.xs)
}

// Feed adds one frame. A nil or incomplete face does not advance the count.
// Once complete, further frames are ignored and the same baseline is returned.
func (c *Calibrator) Feed(face *detector.FaceLandmarks) CalibrationStatus {
	if c.baseline != nil {
		return c.status(StatusComplete)
	}
	if !face.Valid() {
		return c.status(StatusNoFace)
	}

	nose := face.Nose()
	c.xs = append(c.xs, nose.X)
	c.ys = append(c.ys, nose.Y)
	c.cheek = face.CheekDistance()

	if len(c.xs) < c.target {
		return c.status(StatusInProgress)
	}

	c.baseline = &Baseline{
		NoseX:                trimmedMean(c.xs),
		NoseY:                trimmedMean(c.ys),
		NeutralCheekDistance: c.cheek,
	}
	return c.status(StatusComplete)
}

func (c *Calibrator) status(kind StatusKind) CalibrationStatus {
	s := CalibrationStatus{
		Kind:  kind,
		Count: len(c.xs),
		Total: c.target,
	}
	if kind == StatusComplete && c.baseline != nil {
		b := *c.baseline
		s.Baseline = &b
	}
	return s
}

// trimmedMean drops int(n*0.2) of the lowest and highest values and
// averages the rest.
func trimmedMean(values []float64) float64 {
	n := len(values)
	if n == 0 {
		return 0
	}

	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	k := int(float64(n) * trimFraction)
	kept := sorted[k : n-k]
	if len(kept) == 0 {
		kept = sorted
	}

	var sum float64
	for _, v := range kept {
		sum += v
	}
	return sum / float64(len(kept))
}
