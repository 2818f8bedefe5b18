package app

import (
	"errors"
	"time"

	"gocv.io/x/gocv"

	"github.com/ayusman/abhinaya/internal/capture"
	"github.com/ayusman/abhinaya/internal/detector"
	"github.com/ayusman/abhinaya/internal/session"
)

// pacer switches between idle and active frame rates. The pipeline goes
// active as soon as a face is seen and drops back to idle once no face has
// been seen for the timeout.
type pacer struct {
	idle, active time.Duration
	timeout      time.Duration
	activeMode   bool
	lastFace     time.Time
}

func newPacer(idleFPS, activeFPS int, timeout time.Duration) *pacer {
	return &pacer{
		idle:    time.Second / time.Duration(idleFPS),
		active:  time.Second / time.Duration(activeFPS),
		timeout: timeout,
	}
}

// observe records whether a face was seen at now and reports a mode change.
func (p *pacer) observe(face bool, now time.Time) bool {
	if face {
		p.lastFace = now
		if !p.activeMode {
			p.activeMode = true
			return true
		}
		return false
	}
	if p.activeMode && now.Sub(p.lastFace) > p.timeout {
		p.activeMode = false
		return true
	}
	return false
}

func (p *pacer) interval() time.Duration {
	if p.activeMode {
		return p.active
	}
	return p.idle
}

// runPipeline reads frames until stop is closed.
//
// Per tick: read and mirror a frame, consult the motion gate while idle,
// run face detection, hand the first face to the controller, publish the
// annotated preview and fan the FrameResult out to listeners and the event
// recorder.
func (a *App) runPipeline(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	pace := newPacer(a.pipeline.IdleFPS, a.pipeline.ActiveFPS, a.pipeline.IdleTimeout)
	ticker := time.NewTicker(pace.interval())
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
		}

		frame, err := a.camera.ReadFrame()
		if err != nil {
			if errors.Is(err, capture.ErrNoFrames) {
				a.logger.Debug().Msg("frame source exhausted")
			} else {
				a.logger.Warn().Err(err).Msg("read frame")
			}
			continue
		}

		res := a.step(frame, pace.activeMode)
		frame.Close()

		if pace.observe(res.FaceDetected, time.Now()) {
			fps := a.pipeline.IdleFPS
			if pace.activeMode {
				fps = a.pipeline.ActiveFPS
			} else {
				a.motion.Reset()
			}
			a.camera.SetFPS(fps)
			ticker.Reset(pace.interval())
			a.logger.Debug().Bool("active", pace.activeMode).Int("fps", fps).Msg("frame rate changed")
		}
	}
}

// step runs one frame through detection and the controller.
func (a *App) step(frame *gocv.Mat, active bool) session.FrameResult {
	face := a.detect(frame, active)
	res := a.controller.ProcessFrame(face)

	if err := a.preview.Publish(frame, &res); err != nil {
		a.logger.Debug().Err(err).Msg("publish preview")
	}

	a.mu.RLock()
	fns := a.frameFns
	recorder := a.recorder
	a.mu.RUnlock()

	for _, fn := range fns {
		fn(res)
	}
	if recorder != nil {
		recorder.Record(res)
	}
	return res
}

// detect returns the first face, or nil. While idle and tracking it only
// runs the detector when the motion gate sees movement; calibration always
// detects so a still user can calibrate. Nothing is detected while paused.
func (a *App) detect(frame *gocv.Mat, active bool) *detector.FaceLandmarks {
	state := a.controller.State()
	if state == session.StatePaused {
		return nil
	}
	if !active && state != session.StateCalibrating {
		if moved, _ := a.motion.Moved(frame); !moved {
			return nil
		}
	}

	faces, err := a.detector.Detect(frame)
	if err != nil {
		a.logger.Warn().Err(err).Msg("face detection failed")
		return nil
	}
	return detector.First(faces)
}
