package config

import (
	"sort"
	"sync"
)

// Live holds the current Settings and lets UI goroutines change them while
// the frame loop reads them.
type Live struct {
	mu       sync.RWMutex
	settings Settings
	onChange []func(Settings)
}

// NewLive creates a Live starting from s. Invalid values in s are replaced
// by their defaults.
func NewLive(s Settings) *Live {
	return &Live{settings: sanitize(s)}
}

// Snapshot returns a copy of the current settings.
func (l *Live) Snapshot() Settings {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.settings
}

// Values returns the current settings keyed by name.
func (l *Live) Values() map[string]float64 {
	return l.Snapshot().Values()
}

// OnChange registers fn to be called after every successful change.
func (l *Live) OnChange(fn func(Settings)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.onChange = append(l.onChange, fn)
}

// Set changes one setting. On error the previous value is kept.
func (l *Live) Set(name string, v float64) error {
	return l.Update(map[string]float64{name: v})
}

// SetEach applies each value on its own, in name order, and returns the
// errors of the ones that were rejected. Accepted values stay applied.
func (l *Live) SetEach(values map[string]float64) map[string]error {
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)

	var rejected map[string]error
	for _, name := range names {
		if err := l.Set(name, values[name]); err != nil {
			if rejected == nil {
				rejected = make(map[string]error)
			}
			rejected[name] = err
		}
	}
	return rejected
}

// Update applies all values or none of them.
func (l *Live) Update(values map[string]float64) error {
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)

	l.mu.Lock()
	next := l.settings
	for _, name := range names {
		var err error
		next, err = next.With(name, values[name])
		if err != nil {
			l.mu.Unlock()
			return err
		}
	}
	l.settings = next
	callbacks := append([]func(Settings){}, l.onChange...)
	l.mu.Unlock()

	// Call outside lock to prevent deadlock
	for _, fn := range callbacks {
		fn(next)
	}
	return nil
}

// sanitize replaces out-of-range fields with defaults.
func sanitize(s Settings) Settings {
	def := DefaultSettings()
	for name, d := range descriptors {
		if d.check(name, d.get(&s)) != nil {
			d.set(&s, d.get(&def))
		}
	}
	return s
}
