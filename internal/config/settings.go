// Package config holds the runtime-adjustable gesture settings and the YAML
// application configuration.
package config

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// Setting names as used by the HTTP API and the settings table.
const (
	Sensitivity             = "sensitivity"
	ClickThreshold          = "click_threshold"
	ClickCooldown           = "click_cooldown"
	CheekInflationThreshold = "cheek_inflation_threshold"
	ScrollSpeed             = "scroll_speed"
	SmoothingWindowSize     = "smoothing_window_size"
	CalibrationFrameCount   = "calibration_frame_count"
	KeyboardToggleCooldown  = "keyboard_toggle_cooldown"
	MouthOpenTimeWindow     = "mouth_open_time_window"
	ScrollCooldown          = "scroll_cooldown"
	ScrollActivationFrames  = "scroll_activation_frames"
)

var (
	// ErrOutOfRange is matched by every *RangeError.
	ErrOutOfRange = errors.New("setting out of range")
	// ErrUnknownSetting is returned for names that are not settings.
	ErrUnknownSetting = errors.New("unknown setting")
)

// RangeError reports a rejected setting value. The previous value is kept.
type RangeError struct {
	Name  string
	Value float64
	Min   float64
	Max   float64
	// Integer is set when the value was rejected for having a fractional part.
	Integer bool
}

func (e *RangeError) Error() string {
	if e.Integer {
		return fmt.Sprintf("%s: %g is not a whole number", e.Name, e.Value)
	}
	return fmt.Sprintf("%s: %g outside [%g, %g]", e.Name, e.Value, e.Min, e.Max)
}

func (e *RangeError) Unwrap() error { return ErrOutOfRange }

// Settings are the gesture tuning values. Durations are in seconds.
type Settings struct {
	Sensitivity             float64 `yaml:"sensitivity" json:"sensitivity"`
	ClickThreshold          float64 `yaml:"click_threshold" json:"click_threshold"`
	ClickCooldown           float64 `yaml:"click_cooldown" json:"click_cooldown"`
	CheekInflationThreshold float64 `yaml:"cheek_inflation_threshold" json:"cheek_inflation_threshold"`
	ScrollSpeed             int     `yaml:"scroll_speed" json:"scroll_speed"`
	SmoothingWindowSize     int     `yaml:"smoothing_window_size" json:"smoothing_window_size"`
	CalibrationFrameCount   int     `yaml:"calibration_frame_count" json:"calibration_frame_count"`
	KeyboardToggleCooldown  float64 `yaml:"keyboard_toggle_cooldown" json:"keyboard_toggle_cooldown"`
	MouthOpenTimeWindow     float64 `yaml:"mouth_open_time_window" json:"mouth_open_time_window"`
	ScrollCooldown          float64 `yaml:"scroll_cooldown" json:"scroll_cooldown"`
	ScrollActivationFrames  int     `yaml:"scroll_activation_frames" json:"scroll_activation_frames"`
}

// DefaultSettings returns the stock tuning.
func DefaultSettings() Settings {
	return Settings{
		Sensitivity:             3.5,
		ClickThreshold:          0.05,
		ClickCooldown:           0.5,
		CheekInflationThreshold: 0.04,
		ScrollSpeed:             30,
		SmoothingWindowSize:     10,
		CalibrationFrameCount:   30,
		KeyboardToggleCooldown:  5.0,
		MouthOpenTimeWindow:     2.0,
		ScrollCooldown:          0.15,
		ScrollActivationFrames:  10,
	}
}

// descriptor binds a setting name to its range and field.
type descriptor struct {
	min, max float64
	integer  bool
	get      func(*Settings) float64
	set      func(*Settings, float64)
}

func floatField(p func(*Settings) *float64) (func(*Settings) float64, func(*Settings, float64)) {
	return func(s *Settings) float64 { return *p(s) },
		func(s *Settings, v float64) { *p(s) = v }
}

func intField(p func(*Settings) *int) (func(*Settings) float64, func(*Settings, float64)) {
	return func(s *Settings) float64 { return float64(*p(s)) },
		func(s *Settings, v float64) { *p(s) = int(v) }
}

func floatSetting(min, max float64, p func(*Settings) *float64) descriptor {
	get, set := floatField(p)
	return descriptor{min: min, max: max, get: get, set: set}
}

func intSetting(min, max float64, p func(*Settings) *int) descriptor {
	get, set := intField(p)
	return descriptor{min: min, max: max, integer: true, get: get, set: set}
}

var descriptors = map[string]descriptor{
	Sensitivity:             floatSetting(1.0, 8.0, func(s *Settings) *float64 { return &s.Sensitivity }),
	ClickThreshold:          floatSetting(0.01, 0.15, func(s *Settings) *float64 { return &s.ClickThreshold }),
	ClickCooldown:           floatSetting(0.1, 5.0, func(s *Settings) *float64 { return &s.ClickCooldown }),
	CheekInflationThreshold: floatSetting(0.005, 0.2, func(s *Settings) *float64 { return &s.CheekInflationThreshold }),
	ScrollSpeed:             intSetting(1, 200, func(s *Settings) *int { return &s.ScrollSpeed }),
	SmoothingWindowSize:     intSetting(1, 20, func(s *Settings) *int { return &s.SmoothingWindowSize }),
	CalibrationFrameCount:   intSetting(5, 300, func(s *Settings) *int { return &s.CalibrationFrameCount }),
	KeyboardToggleCooldown:  floatSetting(0, 60, func(s *Settings) *float64 { return &s.KeyboardToggleCooldown }),
	MouthOpenTimeWindow:     floatSetting(0.5, 10, func(s *Settings) *float64 { return &s.MouthOpenTimeWindow }),
	ScrollCooldown:          floatSetting(0.05, 2.0, func(s *Settings) *float64 { return &s.ScrollCooldown }),
	ScrollActivationFrames:  intSetting(1, 60, func(s *Settings) *int { return &s.ScrollActivationFrames }),
}

// Names returns every setting name in sorted order.
func Names() []string {
	names := make([]string, 0, len(descriptors))
	for name := range descriptors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Range returns the accepted bounds for a setting.
func Range(name string) (min, max float64, err error) {
	d, ok := descriptors[name]
	if !ok {
		return 0, 0, fmt.Errorf("%w: %q", ErrUnknownSetting, name)
	}
	return d.min, d.max, nil
}

// Values returns the settings keyed by name.
func (s Settings) Values() map[string]float64 {
	out := make(map[string]float64, len(descriptors))
	for name, d := range descriptors {
		out[name] = d.get(&s)
	}
	return out
}

// Get returns a single setting by name.
func (s Settings) Get(name string) (float64, error) {
	d, ok := descriptors[name]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownSetting, name)
	}
	return d.get(&s), nil
}

// Validate checks every setting against its range.
func (s Settings) Validate() error {
	for _, name := range Names() {
		d := descriptors[name]
		if err := d.check(name, d.get(&s)); err != nil {
			return err
		}
	}
	return nil
}

// With returns a copy of s with one setting changed. s is never modified.
func (s Settings) With(name string, v float64) (Settings, error) {
	d, ok := descriptors[name]
	if !ok {
		return s, fmt.Errorf("%w: %q", ErrUnknownSetting, name)
	}
	if err := d.check(name, v); err != nil {
		return s, err
	}
	d.set(&s, v)
	return s, nil
}

func (d descriptor) check(name string, v float64) error {
	if math.IsNaN(v) || v < d.min || v > d.max {
		return &RangeError{Name: name, Value: v, Min: d.min, Max: d.max}
	}
	if d.integer && v != math.Trunc(v) {
		return &RangeError{Name: name, Value: v, Min: d.min, Max: d.max, Integer: true}
	}
	return nil
}
