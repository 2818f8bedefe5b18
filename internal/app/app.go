// Package app wires the camera, face detector, session controller and effector
// dispatcher into a running pipeline.
package app

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/ayusman/abhinaya/internal/capture"
	"github.com/ayusman/abhinaya/internal/config"
	"github.com/ayusman/abhinaya/internal/detector"
	"github.com/ayusman/abhinaya/internal/effector"
	"github.com/ayusman/abhinaya/internal/session"
	"github.com/ayusman/abhinaya/internal/store"
)

// Config holds the collaborators the App owns.
type Config struct {
	Camera     capture.Camera
	Detector   detector.Detector
	Controller *session.Controller
	Dispatcher *effector.Dispatcher
	// Store is optional; without it no events are recorded.
	Store    *store.Store
	Pipeline config.PipelineConfig
	Logger   zerolog.Logger
}

// App runs the frame pipeline and owns every resource it acquires.
type App struct {
	camera     capture.Camera
	detector   detector.Detector
	controller *session.Controller
	dispatcher *effector.Dispatcher
	store      *store.Store
	pipeline   config.PipelineConfig
	logger     zerolog.Logger

	motion  *capture.MotionGate
	preview *Preview

	mu        sync.RWMutex
	running   bool
	stopCh    chan struct{}
	doneCh    chan struct{}
	recorder  *EventRecorder
	sessionID string
	frameFns  []func(session.FrameResult)
}

// New creates an App. Camera, Detector and Controller are required.
func New(cfg Config) (*App, error) {
	if cfg.Camera == nil || cfg.Detector == nil || cfg.Controller == nil {
		return nil, errors.New("app: camera, detector and controller are required")
	}
	def := config.Default().Pipeline
	if cfg.Pipeline.IdleFPS <= 0 {
		cfg.Pipeline.IdleFPS = def.IdleFPS
	}
	if cfg.Pipeline.ActiveFPS <= 0 {
		cfg.Pipeline.ActiveFPS = def.ActiveFPS
	}
	if cfg.Pipeline.IdleTimeout <= 0 {
		cfg.Pipeline.IdleTimeout = def.IdleTimeout
	}
	if cfg.Pipeline.MotionThreshold <= 0 {
		cfg.Pipeline.MotionThreshold = def.MotionThreshold
	}

	a := &App{
		camera:     cfg.Camera,
		detector:   cfg.Detector,
		controller: cfg.Controller,
		dispatcher: cfg.Dispatcher,
		store:      cfg.Store,
		pipeline:   cfg.Pipeline,
		logger:     cfg.Logger.With().Str("component", "app").Logger(),
		motion:     capture.NewMotionGate(cfg.Pipeline.MotionThreshold),
		preview:    NewPreview(),
	}
	a.controller.OnStateChange(func(s session.State) {
		a.recordControl("state", string(s))
	})
	return a, nil
}

// OnFrame registers fn to receive every FrameResult. Callbacks run on the
// pipeline goroutine and must not block.
func (a *App) OnFrame(fn func(session.FrameResult)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.frameFns = append(a.frameFns, fn)
}

// Start opens the camera, begins a recorded session and launches the
// pipeline. The camera is released again if anything fails.
func (a *App) Start(ctx context.Context) error {
	if err := a.start(ctx); err != nil {
		return err
	}
	// Outside the lock: state hooks record through the App.
	return a.controller.Start()
}

func (a *App) start(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.running {
		return nil
	}

	if err := a.camera.Open(); err != nil {
		return fmt.Errorf("start pipeline: %w", err)
	}
	a.camera.SetFPS(a.pipeline.IdleFPS)

	if a.store != nil {
		sess, err := a.store.Sessions().Begin()
		if err != nil {
			a.camera.Close()
			return fmt.Errorf("begin session: %w", err)
		}
		a.sessionID = sess.ID
		a.recorder = NewEventRecorder(a.store.Events(), sess.ID, a.logger)
		a.recorder.Start()
	}

	if a.dispatcher != nil {
		a.dispatcher.Start(ctx)
	}

	a.stopCh = make(chan struct{})
	a.doneCh = make(chan struct{})
	a.running = true
	go a.runPipeline(a.stopCh, a.doneCh)

	a.logger.Info().Str("session", a.sessionID).Msg("pipeline started")
	return nil
}

// Stop halts the pipeline and releases the camera, detector, dispatcher and
// motion gate. It is safe to call more than once.
func (a *App) Stop() {
	a.mu.Lock()
	if !a.running {
		a.mu.Unlock()
		return
	}
	a.running = false
	close(a.stopCh)
	done := a.doneCh
	recorder := a.recorder
	sessionID := a.sessionID
	a.mu.Unlock()

	<-done

	if err := a.camera.Close(); err != nil {
		a.logger.Warn().Err(err).Msg("close camera")
	}
	a.motion.Close()
	if err := a.detector.Close(); err != nil {
		a.logger.Warn().Err(err).Msg("close detector")
	}
	if a.dispatcher != nil {
		a.dispatcher.Close()
	}
	if recorder != nil {
		recorder.Close()
	}
	if a.store != nil && sessionID != "" {
		if err := a.store.Sessions().End(sessionID); err != nil {
			a.logger.Warn().Err(err).Msg("end session")
		}
	}
	a.logger.Info().Msg("pipeline stopped")
}

// Running reports whether the pipeline goroutine is active.
func (a *App) Running() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.running
}

// SessionID returns the recorded session ID, or "" without a store.
func (a *App) SessionID() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.sessionID
}

// Controller returns the session controller.
func (a *App) Controller() *session.Controller {
	return a.controller
}

// Preview returns the annotated preview feed.
func (a *App) Preview() *Preview {
	return a.preview
}

func (a *App) recordControl(kind, detail string) {
	a.mu.RLock()
	r := a.recorder
	a.mu.RUnlock()
	if r != nil {
		r.Control(kind, detail)
	}
}
