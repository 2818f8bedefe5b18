package app

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"gocv.io/x/gocv"

	"github.com/ayusman/abhinaya/internal/capture"
	"github.com/ayusman/abhinaya/internal/config"
	"github.com/ayusman/abhinaya/internal/detector"
	"github.com/ayusman/abhinaya/internal/effector"
	"github.com/ayusman/abhinaya/internal/gesture"
	"github.com/ayusman/abhinaya/internal/session"
	"github.com/ayusman/abhinaya/internal/store"
)

func TestNew_RequiresCollaborators(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Error("expected error without camera, detector and controller")
	}
}

func TestApp_Pipeline_CalibratesAndClicks(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	s, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("store.New() error = %v", err)
	}
	defer s.Close()

	frame := gocv.NewMatWithSize(120, 160, gocv.MatTypeCV8UC3)
	defer frame.Close()
	cam := capture.NewReplayCamera([]*gocv.Mat{&frame}, true)

	det := detector.NewMockDetector()
	det.SetFaces([]detector.FaceLandmarks{detector.NeutralFace()})

	settings := config.DefaultSettings()
	settings.CalibrationFrameCount = 5
	rec := effector.NewRecorder()
	disp := effector.NewDispatcher(rec, effector.DefaultDispatcherConfig())
	ctrl := session.NewController(session.Config{
		Settings:   config.NewLive(settings),
		Screen:     gesture.Size{Width: 1920, Height: 1080},
		Margin:     15,
		Dispatcher: disp,
	})

	a, err := New(Config{
		Camera:     cam,
		Detector:   det,
		Controller: ctrl,
		Dispatcher: disp,
		Store:      s,
		Pipeline: config.PipelineConfig{
			IdleFPS:         50,
			ActiveFPS:       100,
			IdleTimeout:     time.Second,
			MotionThreshold: 0.01,
		},
	})
	if err != nil {
		t.Fatal(err)
	}

	var mu sync.Mutex
	var results []session.FrameResult
	a.OnFrame(func(r session.FrameResult) {
		mu.Lock()
		results = append(results, r)
		mu.Unlock()
	})

	if err := a.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer a.Stop()

	waitFor(t, func() bool { return ctrl.State() == session.StateTracking })

	det.SetFaces([]detector.FaceLandmarks{detector.OpenMouthFace()})
	waitFor(t, func() bool {
		for _, c := range rec.Calls() {
			if c.Op == "click" {
				return true
			}
		}
		return false
	})

	if _, seq := a.Preview().Latest(); seq == 0 {
		t.Error("expected preview frames to be published")
	}

	sessionID := a.SessionID()
	a.Stop()
	if cam.IsOpen() {
		t.Error("camera must be released after Stop")
	}

	counts, err := s.Events().CountByKind(sessionID)
	if err != nil {
		t.Fatal(err)
	}
	if counts["click"] < 1 {
		t.Errorf("expected click recorded, got %v", counts)
	}
	if counts["state"] < 2 {
		t.Errorf("expected calibrating and tracking state changes recorded, got %v", counts)
	}

	sess, err := s.Sessions().Get(sessionID)
	if err != nil || sess.EndedAt == nil {
		t.Errorf("expected ended session, got %+v (%v)", sess, err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(results) == 0 {
		t.Error("expected frame callbacks")
	}
}

func TestApp_Pipeline_PausedSkipsDetection(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	frame := gocv.NewMatWithSize(120, 160, gocv.MatTypeCV8UC3)
	defer frame.Close()
	cam := capture.NewReplayCamera([]*gocv.Mat{&frame}, true)
	det := detector.NewMockDetector()
	det.SetFaces([]detector.FaceLandmarks{detector.NeutralFace()})

	settings := config.DefaultSettings()
	settings.CalibrationFrameCount = 5
	ctrl := session.NewController(session.Config{
		Settings: config.NewLive(settings),
		Screen:   gesture.Size{Width: 800, Height: 600},
	})

	a, err := New(Config{
		Camera:     cam,
		Detector:   det,
		Controller: ctrl,
		Pipeline:   config.PipelineConfig{IdleFPS: 50, ActiveFPS: 100, IdleTimeout: time.Second, MotionThreshold: 0.01},
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := a.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer a.Stop()

	waitFor(t, func() bool { return ctrl.State() == session.StateTracking })
	if err := ctrl.Pause(); err != nil {
		t.Fatal(err)
	}

	time.Sleep(50 * time.Millisecond)
	before := det.Calls()
	time.Sleep(100 * time.Millisecond)
	if after := det.Calls(); after != before {
		t.Errorf("detector called %d times while paused", after-before)
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met within 5s")
}
