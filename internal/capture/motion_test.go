package capture

import (
	"testing"

	"gocv.io/x/gocv"
)

func solidFrame(v float64) gocv.Mat {
	m := gocv.NewMatWithSize(120, 160, gocv.MatTypeCV8UC3)
	m.SetTo(gocv.NewScalar(v, v, v, 0))
	return m
}

func TestMotionGate(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	black := solidFrame(0)
	defer black.Close()
	white := solidFrame(255)
	defer white.Close()

	tests := []struct {
		name      string
		threshold float64
		second    *gocv.Mat
		want      bool
	}{
		{"identical frames", 0.01, &black, false},
		{"black to white", 0.01, &white, true},
		{"threshold above full change", 1.0, &white, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewMotionGate(tt.threshold)
			defer g.Close()

			if moved, changed := g.Moved(&black); moved || changed != 0 {
				t.Fatalf("first frame must prime the gate, got %v %f", moved, changed)
			}
			moved, changed := g.Moved(tt.second)
			if moved != tt.want {
				t.Errorf("Moved() = %v (changed %f), want %v", moved, changed, tt.want)
			}
		})
	}
}

func TestMotionGate_Reset(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	black := solidFrame(0)
	defer black.Close()
	white := solidFrame(255)
	defer white.Close()

	g := NewMotionGate(0.01)
	defer g.Close()

	g.Moved(&black)
	g.Reset()
	if moved, _ := g.Moved(&white); moved {
		t.Error("first frame after Reset must not count as motion")
	}
}

func TestMotionGate_SetThreshold(t *testing.T) {
	g := NewMotionGate(0.01)
	defer g.Close()

	g.SetThreshold(0.2)
	if g.threshold != 0.2 {
		t.Errorf("threshold = %f, want 0.2", g.threshold)
	}
	g.SetThreshold(-1)
	if g.threshold != 0.2 {
		t.Errorf("negative threshold should be ignored, got %f", g.threshold)
	}
}

func TestMotionGate_Closed(t *testing.T) {
	g := NewMotionGate(0.01)
	g.Close()
	g.Close()

	if moved, _ := g.Moved(nil); moved {
		t.Error("closed gate must not report motion")
	}
}
