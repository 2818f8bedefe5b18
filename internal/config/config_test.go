package config

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func TestDefaultSettings_Valid(t *testing.T) {
	s := DefaultSettings()
	if err := s.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}

	values := s.Values()
	if len(values) != len(Names()) {
		t.Errorf("expected %d values, got %d", len(Names()), len(values))
	}
	if values[Sensitivity] != 3.5 || values[SmoothingWindowSize] != 10 {
		t.Errorf("unexpected defaults: %v", values)
	}
}

func TestSettings_With(t *testing.T) {
	tests := []struct {
		name    string
		setting string
		value   float64
		wantErr error
	}{
		{"sensitivity in range", Sensitivity, 5.0, nil},
		{"sensitivity lower bound", Sensitivity, 1.0, nil},
		{"sensitivity too high", Sensitivity, 8.5, ErrOutOfRange},
		{"window too large", SmoothingWindowSize, 21, ErrOutOfRange},
		{"window zero", SmoothingWindowSize, 0, ErrOutOfRange},
		{"window fractional", SmoothingWindowSize, 4.5, ErrOutOfRange},
		{"toggle cooldown zero allowed", KeyboardToggleCooldown, 0, nil},
		{"unknown name", "brightness", 1, ErrUnknownSetting},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			orig := DefaultSettings()
			next, err := orig.With(tt.setting, tt.value)

			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if got, _ := next.Get(tt.setting); got != tt.value {
					t.Errorf("expected %g, got %g", tt.value, got)
				}
				return
			}

			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
			if next != orig {
				t.Error("expected settings unchanged after rejection")
			}
		})
	}
}

func TestRangeError(t *testing.T) {
	_, err := DefaultSettings().With(ClickThreshold, 0.5)

	var rangeErr *RangeError
	if !errors.As(err, &rangeErr) {
		t.Fatalf("expected *RangeError, got %T", err)
	}
	if rangeErr.Name != ClickThreshold || rangeErr.Min != 0.01 || rangeErr.Max != 0.15 {
		t.Errorf("unexpected range error fields: %+v", rangeErr)
	}
}

func TestLive_SetRejectsAndKeepsPrior(t *testing.T) {
	live := NewLive(DefaultSettings())

	if err := live.Set(Sensitivity, 6.0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := live.Set(Sensitivity, 100); !errors.Is(err, ErrOutOfRange) {
		t.Fatalf("expected ErrOutOfRange, got %v", err)
	}
	if got := live.Snapshot().Sensitivity; got != 6.0 {
		t.Errorf("expected prior value 6.0 retained, got %g", got)
	}
}

func TestLive_UpdateAllOrNothing(t *testing.T) {
	live := NewLive(DefaultSettings())

	err := live.Update(map[string]float64{
		Sensitivity:    4.0,
		ClickThreshold: 0.9,
	})
	if !errors.Is(err, ErrOutOfRange) {
		t.Fatalf("expected ErrOutOfRange, got %v", err)
	}
	if got := live.Snapshot(); got != DefaultSettings() {
		t.Errorf("expected no partial update, got %+v", got)
	}

	if err := live.Update(map[string]float64{Sensitivity: 4.0, ClickThreshold: 0.07}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := live.Snapshot()
	if got.Sensitivity != 4.0 || got.ClickThreshold != 0.07 {
		t.Errorf("expected both values applied, got %+v", got)
	}
}

func TestLive_SetEachKeepsValidValues(t *testing.T) {
	live := NewLive(DefaultSettings())

	rejected := live.SetEach(map[string]float64{
		Sensitivity:    4.0,
		ClickThreshold: 0.9,
		"retired":      1,
	})

	if len(rejected) != 2 {
		t.Fatalf("expected 2 rejected values, got %v", rejected)
	}
	if !errors.Is(rejected[ClickThreshold], ErrOutOfRange) {
		t.Errorf("expected ErrOutOfRange for %s, got %v", ClickThreshold, rejected[ClickThreshold])
	}
	if !errors.Is(rejected["retired"], ErrUnknownSetting) {
		t.Errorf("expected ErrUnknownSetting for an unknown name, got %v", rejected["retired"])
	}

	got := live.Snapshot()
	if got.Sensitivity != 4.0 {
		t.Errorf("expected valid value applied, got %g", got.Sensitivity)
	}
	if got.ClickThreshold != DefaultSettings().ClickThreshold {
		t.Errorf("expected rejected value to keep default, got %g", got.ClickThreshold)
	}

	if rejected := live.SetEach(map[string]float64{Sensitivity: 5.0}); rejected != nil {
		t.Errorf("expected no rejections, got %v", rejected)
	}
}

func TestLive_OnChange(t *testing.T) {
	live := NewLive(DefaultSettings())

	var calls []Settings
	live.OnChange(func(s Settings) {
		// Reading back from inside the callback must not deadlock.
		_ = live.Snapshot()
		calls = append(calls, s)
	})

	live.Set(ScrollSpeed, 50)
	live.Set(ScrollSpeed, 5000)

	if len(calls) != 1 {
		t.Fatalf("expected 1 change notification, got %d", len(calls))
	}
	if calls[0].ScrollSpeed != 50 {
		t.Errorf("expected scroll speed 50, got %d", calls[0].ScrollSpeed)
	}
}

func TestLive_ConcurrentAccess(t *testing.T) {
	live := NewLive(DefaultSettings())

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				live.Set(Sensitivity, 1.0+float64((i+j)%7))
				_ = live.Snapshot()
			}
		}(i)
	}
	wg.Wait()

	if err := live.Snapshot().Validate(); err != nil {
		t.Errorf("settings invalid after concurrent updates: %v", err)
	}
}

func TestNewLive_SanitizesInvalid(t *testing.T) {
	s := DefaultSettings()
	s.SmoothingWindowSize = 99
	s.Sensitivity = 2.0

	got := NewLive(s).Snapshot()

	if got.SmoothingWindowSize != 10 {
		t.Errorf("expected invalid window size replaced by default, got %d", got.SmoothingWindowSize)
	}
	if got.Sensitivity != 2.0 {
		t.Errorf("expected valid sensitivity kept, got %g", got.Sensitivity)
	}
}

func TestLoad(t *testing.T) {
	t.Run("missing file yields defaults", func(t *testing.T) {
		cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.Pipeline.ActiveFPS != 15 || cfg.Screen.Margin != 15 {
			t.Errorf("expected defaults, got %+v", cfg)
		}
	})

	t.Run("file overrides defaults", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		data := `
camera:
  id: 2
  mirror: false
server:
  addr: "127.0.0.1:9999"
pipeline:
  idle_timeout: 3s
settings:
  sensitivity: 5.5
  smoothing_window_size: 4
`
		if err := os.WriteFile(path, []byte(data), 0644); err != nil {
			t.Fatal(err)
		}

		cfg, err := Load(path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.Camera.ID != 2 || cfg.Camera.Mirror {
			t.Errorf("camera not applied: %+v", cfg.Camera)
		}
		if cfg.Server.Addr != "127.0.0.1:9999" {
			t.Errorf("expected addr override, got %s", cfg.Server.Addr)
		}
		if cfg.Pipeline.IdleTimeout != 3*time.Second {
			t.Errorf("expected idle timeout 3s, got %v", cfg.Pipeline.IdleTimeout)
		}
		if cfg.Pipeline.ActiveFPS != 15 {
			t.Errorf("expected unspecified fields to keep defaults, got %d", cfg.Pipeline.ActiveFPS)
		}
		if cfg.Settings.Sensitivity != 5.5 || cfg.Settings.SmoothingWindowSize != 4 {
			t.Errorf("settings not applied: %+v", cfg.Settings)
		}
		if cfg.Settings.ClickThreshold != 0.05 {
			t.Errorf("expected default click threshold, got %g", cfg.Settings.ClickThreshold)
		}
	})

	t.Run("out of range setting rejected", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		if err := os.WriteFile(path, []byte("settings:\n  sensitivity: 42\n"), 0644); err != nil {
			t.Fatal(err)
		}

		_, err := Load(path)
		if !errors.Is(err, ErrOutOfRange) {
			t.Errorf("expected ErrOutOfRange, got %v", err)
		}
	})

	t.Run("plugin backend requires plugin", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		if err := os.WriteFile(path, []byte("keys:\n  backend: plugin\n"), 0644); err != nil {
			t.Fatal(err)
		}

		if _, err := Load(path); err == nil {
			t.Error("expected validation error")
		}
	})

	t.Run("malformed yaml", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		if err := os.WriteFile(path, []byte("camera: [\n"), 0644); err != nil {
			t.Fatal(err)
		}

		if _, err := Load(path); err == nil {
			t.Error("expected parse error")
		}
	})
}
