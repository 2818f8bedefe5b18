// Package session owns the per-frame gesture pipeline: calibration, cursor
// mapping, gesture detection and the hand-off of resulting actions to the
// effector.
package session

import (
	"math"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/ayusman/abhinaya/internal/config"
	"github.com/ayusman/abhinaya/internal/detector"
	"github.com/ayusman/abhinaya/internal/effector"
	"github.com/ayusman/abhinaya/internal/gesture"
)

// Dispatcher accepts effector commands without blocking.
type Dispatcher interface {
	Submit(cmd effector.Command) error
	Failures() <-chan *effector.DispatchError
}

// Config configures a Controller.
type Config struct {
	Settings   *config.Live
	Screen     gesture.Size
	Margin     int // pixels kept clear at each screen edge
	Dispatcher Dispatcher
	Logger     zerolog.Logger
	Now        func() time.Time
}

// Controller drives the Uncalibrated, Calibrating, Tracking and Paused states.
// ProcessFrame and the command methods are safe to call from different
// goroutines.
type Controller struct {
	settings   *config.Live
	screen     gesture.Size
	margin     int
	dispatcher Dispatcher
	logger     zerolog.Logger
	now        func() time.Time

	mu              sync.Mutex
	state           State
	resumeTo        State
	calibrator      *gesture.Calibrator
	baseline        *gesture.Baseline
	mapper          *gesture.Mapper
	detector        *gesture.Detector
	keyboardVisible bool
	last            *FrameResult

	hookMu        sync.Mutex
	keyboardHooks []func(visible bool)
	stateHooks    []func(State)
}

// NewController creates a Controller in the Uncalibrated state.
func NewController(cfg Config) *Controller {
	if cfg.Settings == nil {
		cfg.Settings = config.NewLive(config.DefaultSettings())
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	s := cfg.Settings.Snapshot()

	return &Controller{
		settings:   cfg.Settings,
		screen:     cfg.Screen,
		margin:     cfg.Margin,
		dispatcher: cfg.Dispatcher,
		logger:     cfg.Logger.With().Str("component", "session").Logger(),
		now:        cfg.Now,
		state:      StateUncalibrated,
		calibrator: gesture.NewCalibrator(s.CalibrationFrameCount),
		mapper:     gesture.NewMapper(s.SmoothingWindowSize),
		detector:   gesture.NewDetector(),
	}
}

// OnKeyboardToggle registers fn to run whenever keyboard visibility flips.
func (c *Controller) OnKeyboardToggle(fn func(visible bool)) {
	c.hookMu.Lock()
	defer c.hookMu.Unlock()
	c.keyboardHooks = append(c.keyboardHooks, fn)
}

// OnStateChange registers fn to run after every state transition.
func (c *Controller) OnStateChange(fn func(State)) {
	c.hookMu.Lock()
	defer c.hookMu.Unlock()
	c.stateHooks = append(c.stateHooks, fn)
}

// State returns the current run state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Status returns a snapshot for the UI.
func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()

	st := Status{
		State:           c.state,
		KeyboardVisible: c.keyboardVisible,
		Calibrated:      c.calibrator.Count(),
		CalibrationGoal: c.calibrator.Target(),
		Screen:          c.screen,
	}
	if c.baseline != nil {
		b := *c.baseline
		st.Baseline = &b
	}
	if c.last != nil {
		last := *c.last
		st.Last = &last
	}
	return st
}

// Start begins calibration. It is a no-op once the session has started.
func (c *Controller) Start() error {
	c.mu.Lock()
	if c.state != StateUncalibrated {
		c.mu.Unlock()
		return nil
	}
	c.beginCalibration()
	c.mu.Unlock()

	c.notifyState(StateCalibrating)
	return nil
}

// Recalibrate discards the baseline and smoothing window and starts a new
// calibration. Gesture cooldowns and the open sequence are kept.
func (c *Controller) Recalibrate() {
	c.mu.Lock()
	c.beginCalibration()
	c.mu.Unlock()

	c.notifyState(StateCalibrating)
}

// Pause suspends frame processing.
func (c *Controller) Pause() error {
	c.mu.Lock()
	switch c.state {
	case StatePaused:
		c.mu.Unlock()
		return nil
	case StateTracking, StateCalibrating:
		c.resumeTo = c.state
		c.state = StatePaused
	default:
		from := c.state
		c.mu.Unlock()
		return invalid("pause", from)
	}
	c.mu.Unlock()

	c.logger.Info().Msg("paused")
	c.notifyState(StatePaused)
	return nil
}

// Resume returns to the state that was active before Pause.
func (c *Controller) Resume() error {
	c.mu.Lock()
	if c.state != StatePaused {
		from := c.state
		c.mu.Unlock()
		if from == StateTracking || from == StateCalibrating {
			return nil
		}
		return invalid("resume", from)
	}
	next := c.resumeTo
	if next == "" {
		next = StateTracking
	}
	c.state = next
	c.mu.Unlock()

	c.logger.Info().Str("state", string(next)).Msg("resumed")
	c.notifyState(next)
	return nil
}

// ToggleKeyboard flips on-screen keyboard visibility and returns the new value.
func (c *Controller) ToggleKeyboard() bool {
	c.mu.Lock()
	c.keyboardVisible = !c.keyboardVisible
	visible := c.keyboardVisible
	c.mu.Unlock()

	c.notifyKeyboard(visible)
	return visible
}

// KeyboardVisible reports whether the on-screen keyboard is shown.
func (c *Controller) KeyboardVisible() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.keyboardVisible
}

// PressKey queues a logical key tap. The tap runs on the dispatch worker;
// failures show up in a later FrameResult.
func (c *Controller) PressKey(key string) error {
	k, err := effector.NormalizeKey(key)
	if err != nil {
		return err
	}
	if c.dispatcher == nil {
		return nil
	}
	return c.dispatcher.Submit(effector.Command{Actions: []effector.Action{effector.Key(k)}})
}

// ResetGestures clears click, toggle and scroll state.
func (c *Controller) ResetGestures() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.detector.Reset()
}

// ProcessFrame runs one frame through the pipeline. A nil face means no face
// was detected.
func (c *Controller) ProcessFrame(face *detector.FaceLandmarks) FrameResult {
	s := c.settings.Snapshot()
	now := c.now()
	if !face.Valid() {
		face = nil
	}

	c.mu.Lock()
	res := FrameResult{
		At:             now,
		FaceDetected:   face != nil,
		DispatchErrors: c.drainFailures(),
	}
	if face != nil {
		nose := face.Nose()
		res.Nose = &nose
	}
	if c.mapper.Window().Cap() != s.SmoothingWindowSize {
		c.mapper.Resize(s.SmoothingWindowSize)
	}

	var (
		stateChanged bool
		toggled      bool
	)
	switch c.state {
	case StateCalibrating:
		stateChanged = c.calibrate(face, &res)
	case StateTracking:
		toggled = c.track(face, s, now, &res)
	}

	if c.baseline != nil {
		b := *c.baseline
		res.Baseline = &b
	}
	res.State = c.state
	res.KeyboardVisible = c.keyboardVisible
	last := res
	c.last = &last
	c.mu.Unlock()

	for _, e := range res.DispatchErrors {
		c.logger.Warn().Err(e.Err).Str("action", string(e.Action)).Msg("action failed")
	}
	if stateChanged {
		c.notifyState(res.State)
	}
	if toggled {
		c.notifyKeyboard(res.KeyboardVisible)
	}
	return res
}

// beginCalibration must be called with mu held.
func (c *Controller) beginCalibration() {
	s := c.settings.Snapshot()
	c.calibrator.Reset(s.CalibrationFrameCount)
	c.mapper.Reset()
	c.baseline = nil
	c.state = StateCalibrating
	c.logger.Info().Int("frames", s.CalibrationFrameCount).Msg("calibration started")
}

func (c *Controller) calibrate(face *detector.FaceLandmarks, res *FrameResult) bool {
	status := c.calibrator.Feed(face)
	res.Calibration = &status
	if status.Kind != gesture.StatusComplete {
		return false
	}

	c.baseline = status.Baseline
	c.mapper.Reset()
	c.state = StateTracking
	c.logger.Info().
		Float64("nose_x", c.baseline.NoseX).
		Float64("nose_y", c.baseline.NoseY).
		Float64("cheek", c.baseline.NeutralCheekDistance).
		Msg("calibration complete")
	return true
}

// track returns true when the keyboard visibility flipped.
func (c *Controller) track(face *detector.FaceLandmarks, s config.Settings, now time.Time, res *FrameResult) bool {
	var cmd effector.Command

	if face != nil {
		p := c.mapper.Map(face.Nose(), *c.baseline, s.Sensitivity, c.screen)
		cursor := c.applyMargin(p)
		res.Cursor = &cursor
		cmd.Move = &cursor
	}

	g := c.detector.Update(face, *c.baseline, paramsFrom(s), now)
	res.Events = g.Events
	res.MouthOpen = g.MouthOpen
	res.MouthRatio = g.MouthRatio
	res.CheekExpansion = g.CheekExpansion
	res.ScrollMode = g.ScrollMode
	res.Gaze = g.Gaze
	res.OpenCount = g.OpenCount

	toggled := false
	for _, e := range g.Events {
		c.logger.Debug().Str("event", string(e.Kind)).Int("delta", e.Delta).Msg("gesture")
		switch e.Kind {
		case gesture.EventClick:
			cmd.Actions = append(cmd.Actions, effector.Click())
		case gesture.EventScrollUp, gesture.EventScrollDown:
			cmd.Actions = append(cmd.Actions, effector.Scroll(e.Delta))
		case gesture.EventToggleKeyboard:
			c.keyboardVisible = !c.keyboardVisible
			toggled = !toggled
		}
	}

	if c.dispatcher != nil && !cmd.Empty() {
		if err := c.dispatcher.Submit(cmd); err != nil {
			c.logger.Warn().Err(err).Msg("submit failed")
		}
	}
	return toggled
}

// applyMargin rounds p and keeps it margin pixels away from each edge.
func (c *Controller) applyMargin(p gesture.Point) effector.Point {
	return effector.Point{
		X: clampInt(int(math.Round(p.X)), c.margin, c.screen.Width-c.margin),
		Y: clampInt(int(math.Round(p.Y)), c.margin, c.screen.Height-c.margin),
	}
}

func (c *Controller) drainFailures() []*effector.DispatchError {
	if c.dispatcher == nil {
		return nil
	}
	var out []*effector.DispatchError
	ch := c.dispatcher.Failures()
	for {
		select {
		case e := <-ch:
			out = append(out, e)
		default:
			return out
		}
	}
}

func (c *Controller) notifyState(s State) {
	c.hookMu.Lock()
	hooks := append(([]func(State))(nil), c.stateHooks...)
	c.hookMu.Unlock()
	for _, fn := range hooks {
		fn(s)
	}
}

func (c *Controller) notifyKeyboard(visible bool) {
	c.hookMu.Lock()
	hooks := append(([]func(bool))(nil), c.keyboardHooks...)
	c.hookMu.Unlock()
	for _, fn := range hooks {
		fn(visible)
	}
}

func paramsFrom(s config.Settings) gesture.Params {
	p := gesture.DefaultParams()
	p.ClickThreshold = s.ClickThreshold
	p.ClickCooldown = seconds(s.ClickCooldown)
	p.OpenWindow = seconds(s.MouthOpenTimeWindow)
	p.ToggleCooldown = seconds(s.KeyboardToggleCooldown)
	p.CheekThreshold = s.CheekInflationThreshold
	p.ActivationFrames = s.ScrollActivationFrames
	p.ScrollCooldown = seconds(s.ScrollCooldown)
	p.ScrollSpeed = s.ScrollSpeed
	return p
}

func seconds(v float64) time.Duration {
	return time.Duration(v * float64(time.Second))
}

func clampInt(v, lo, hi int) int {
	if hi < lo {
		return lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
