package app

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"gocv.io/x/gocv"

	"github.com/ayusman/abhinaya/internal/detector"
	"github.com/ayusman/abhinaya/internal/gesture"
	"github.com/ayusman/abhinaya/internal/session"
)

func TestPreview_NextWaitsForNewFrame(t *testing.T) {
	p := NewPreview()

	if data, seq := p.Latest(); data != nil || seq != 0 {
		t.Fatalf("expected empty preview, got %d bytes seq %d", len(data), seq)
	}

	got := make(chan []byte, 1)
	go func() {
		data, _, err := p.Next(context.Background(), 0)
		if err != nil {
			t.Errorf("Next() error = %v", err)
		}
		got <- data
	}()

	time.Sleep(20 * time.Millisecond)
	p.Set([]byte("frame-1"))

	select {
	case data := <-got:
		if !bytes.Equal(data, []byte("frame-1")) {
			t.Errorf("unexpected frame %q", data)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Next() did not wake up")
	}

	// A reader that is already behind gets the latest frame immediately.
	p.Set([]byte("frame-2"))
	data, seq, err := p.Next(context.Background(), 0)
	if err != nil || string(data) != "frame-2" || seq != 2 {
		t.Errorf("expected frame-2 at seq 2, got %q %d %v", data, seq, err)
	}
}

func TestPreview_NextCancelled(t *testing.T) {
	p := NewPreview()
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if _, _, err := p.Next(ctx, 0); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded, got %v", err)
	}
}

func TestPreview_PublishEncodesJPEG(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV")
	}

	frame := gocv.NewMatWithSize(120, 160, gocv.MatTypeCV8UC3)
	defer frame.Close()

	nose := detector.Point3D{X: 0.5, Y: 0.5}
	res := &session.FrameResult{
		State:        session.StateCalibrating,
		FaceDetected: true,
		Nose:         &nose,
		Baseline:     &gesture.Baseline{NoseX: 0.45, NoseY: 0.5},
		Calibration:  &gesture.CalibrationStatus{Kind: gesture.StatusInProgress, Count: 3, Total: 30},
		ScrollMode:   true,
		Gaze:         gesture.GazeUp,
	}

	p := NewPreview()
	if err := p.Publish(&frame, res); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
	data, seq := p.Latest()
	if seq != 1 || len(data) < 4 || data[0] != 0xFF || data[1] != 0xD8 {
		t.Errorf("expected a JPEG at seq 1, got %d bytes seq %d", len(data), seq)
	}
}
