package gesture

import (
	"time"

	"github.com/ayusman/abhinaya/internal/detector"
)

// Params holds the tunable thresholds read by the Detector on every frame.
type Params struct {
	ClickThreshold   float64       // mouth openness ratio above which the mouth is open
	ClickCooldown    time.Duration // minimum gap between clicks
	Debounce         time.Duration // minimum gap between counted mouth opens
	OpenWindow       time.Duration // how long a counted open stays in the sequence
	ToggleCount      int           // opens within OpenWindow that toggle the keyboard
	ToggleCooldown   time.Duration // minimum gap between keyboard toggles
	CheekThreshold   float64       // cheek expansion over baseline that qualifies for scroll
	MouthWidthMax    float64       // mouth/face width ratio below which the mouth is narrowed
	ActivationFrames int           // consecutive qualifying frames before scroll mode
	ScrollCooldown   time.Duration // minimum gap between scroll events
	ScrollSpeed      int
	GazeDownBelow    float64
	GazeUpAbove      float64
}

// DefaultParams returns the standard thresholds.
func DefaultParams() Params {
	return Params{
		ClickThreshold:   0.05,
		ClickCooldown:    500 * time.Millisecond,
		Debounce:         500 * time.Millisecond,
		OpenWindow:       2 * time.Second,
		ToggleCount:      3,
		ToggleCooldown:   5 * time.Second,
		CheekThreshold:   0.04,
		MouthWidthMax:    0.25,
		ActivationFrames: 10,
		ScrollCooldown:   150 * time.Millisecond,
		ScrollSpeed:      30,
		GazeDownBelow:    0.2,
		GazeUpAbove:      0.3,
	}
}

// Result is the per-frame output of the Detector.
type Result struct {
	Events         []Event `json:"events,omitempty"`
	MouthOpen      bool    `json:"mouth_open"`
	MouthRatio     float64 `json:"mouth_ratio"`
	CheekExpansion float64 `json:"cheek_expansion"`
	ScrollMode     bool    `json:"scroll_mode"`
	Gaze           Gaze    `json:"gaze,omitempty"`
	OpenCount      int     `json:"open_count"`
}

// Detector classifies landmark ratios into discrete gesture events.
// It keeps two independent channels: mouth opens for click and keyboard
// toggle, and cheek inflation plus gaze for scrolling. All timing uses the
// supplied wall-clock time so gaps without a face expire cooldowns normally.
//
// A Detector is not safe for concurrent use.
type Detector struct {
	// click / toggle channel
	opens      []time.Time
	lastOpen   time.Time
	lastClick  time.Time
	lastToggle time.Time

	// scroll channel
	armed      int
	scrolling  bool
	lastScroll time.Time
}

// NewDetector creates a Detector with no gesture history.
func NewDetector() *Detector {
	return &Detector{}
}

// Reset clears all gesture state including cooldowns.
func (d *Detector) Reset() {
	*d = Detector{}
}

// ScrollMode reports whether scroll mode is active.
func (d *Detector) ScrollMode() bool {
	return d.scrolling
}

// OpenCount returns the number of mouth opens currently in the sequence.
func (d *Detector) OpenCount() int {
	return len(d.opens)
}

// Update evaluates one frame. A nil face produces an empty result and leaves
// all state untouched.
func (d *Detector) Update(face *detector.FaceLandmarks, baseline Baseline, p Params, now time.Time) Result {
	if !face.Valid() {
		return Result{ScrollMode: d.scrolling, OpenCount: len(d.opens)}
	}

	var res Result
	res.MouthRatio = face.MouthOpenness()
	res.MouthOpen = res.MouthRatio > p.ClickThreshold
	res.Events = d.updateMouth(res.MouthOpen, p, now, res.Events)

	res.CheekExpansion = face.CheekDistance() - baseline.NeutralCheekDistance
	qualifies := res.CheekExpansion > p.CheekThreshold && face.MouthWidthRatio() < p.MouthWidthMax
	res.Events, res.Gaze = d.updateScroll(qualifies, face.EyeAspectRatio(), p, now, res.Events)

	res.ScrollMode = d.scrolling
	res.OpenCount = len(d.opens)
	return res
}

// updateMouth counts an open on any open frame once the debounce has passed
// since the last counted one, so a mouth held open keeps adding to the
// sequence. The click check runs on every open frame.
func (d *Detector) updateMouth(open bool, p Params, now time.Time, events []Event) []Event {
	if !open {
		return events
	}

	if elapsed(d.lastOpen, now, p.Debounce) {
		d.opens = append(d.opens, now)
		d.lastOpen = now

		for len(d.opens) > 0 && now.Sub(d.opens[0]) > p.OpenWindow {
			d.opens = d.opens[1:]
		}

		if len(d.opens) >= p.ToggleCount && elapsed(d.lastToggle, now, p.ToggleCooldown) {
			events = append(events, Event{Kind: EventToggleKeyboard, At: now})
			d.lastToggle = now
			d.lastClick = now
			d.opens = d.opens[:0]
			return events
		}
	}

	if len(d.opens) == 1 && elapsed(d.lastClick, now, p.ClickCooldown) {
		events = append(events, Event{Kind: EventClick, At: now})
		d.lastClick = now
	}
	return events
}

func (d *Detector) updateScroll(qualifies bool, eyeRatio float64, p Params, now time.Time, events []Event) ([]Event, Gaze) {
	if !qualifies {
		d.armed = 0
		if d.scrolling {
			d.scrolling = false
			events = append(events, Event{Kind: EventScrollModeExit, At: now})
		}
		return events, ""
	}

	if d.armed < p.ActivationFrames {
		d.armed++
	}
	if !d.scrolling {
		if d.armed < p.ActivationFrames {
			return events, ""
		}
		d.scrolling = true
		events = append(events, Event{Kind: EventScrollModeEnter, At: now})
	}

	gaze := gazeFromRatio(eyeRatio, p)
	if gaze == GazeNeutral || !elapsed(d.lastScroll, now, p.ScrollCooldown) {
		return events, gaze
	}

	delta := p.ScrollSpeed
	kind := EventScrollUp
	if gaze == GazeDown {
		delta = -p.ScrollSpeed
		kind = EventScrollDown
	}
	events = append(events, Event{Kind: kind, Delta: delta, At: now})
	d.lastScroll = now
	return events, gaze
}

func gazeFromRatio(r float64, p Params) Gaze {
	switch {
	case r < p.GazeDownBelow:
		return GazeDown
	case r > p.GazeUpAbove:
		return GazeUp
	default:
		return GazeNeutral
	}
}

// elapsed reports whether more than d has passed since last. A zero last
// time has always elapsed.
func elapsed(last, now time.Time, d time.Duration) bool {
	return last.IsZero() || now.Sub(last) > d
}
