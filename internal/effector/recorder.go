package effector

import (
	"sync"
	"time"
)

// Call is one recorded effector invocation.
type Call struct {
	Op    string // move, click, scroll, key
	X, Y  int
	Delta int
	Key   string
}

// Recorder is an Effector that records calls instead of touching the desktop.
// It can inject a per-call delay and per-operation errors.
type Recorder struct {
	mu     sync.Mutex
	calls  []Call
	delay  time.Duration
	errs   map[string]error
	signal chan struct{}
}

// NewRecorder creates an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{
		errs:   make(map[string]error),
		signal: make(chan struct{}, 1),
	}
}

// SetDelay makes every call sleep for d before returning.
func (r *Recorder) SetDelay(d time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.delay = d
}

// SetError makes calls to op return err. A nil err clears it.
func (r *Recorder) SetError(op string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err == nil {
		delete(r.errs, op)
		return
	}
	r.errs[op] = err
}

// Calls returns a copy of the recorded calls.
func (r *Recorder) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Call, len(r.calls))
	copy(out, r.calls)
	return out
}

// WaitFor blocks until at least n calls were recorded or timeout elapses.
func (r *Recorder) WaitFor(n int, timeout time.Duration) bool {
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	for {
		r.mu.Lock()
		got := len(r.calls)
		r.mu.Unlock()
		if got >= n {
			return true
		}
		select {
		case <-r.signal:
		case <-deadline.C:
			return false
		}
	}
}

func (r *Recorder) MoveCursor(x, y int) error {
	return r.record(Call{Op: "move", X: x, Y: y})
}

func (r *Recorder) Click() error {
	return r.record(Call{Op: "click"})
}

func (r *Recorder) Scroll(delta int) error {
	return r.record(Call{Op: "scroll", Delta: delta})
}

func (r *Recorder) DispatchKey(key string) error {
	return r.record(Call{Op: "key", Key: key})
}

func (r *Recorder) record(c Call) error {
	r.mu.Lock()
	delay := r.delay
	err := r.errs[c.Op]
	r.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}

	r.mu.Lock()
	r.calls = append(r.calls, c)
	r.mu.Unlock()

	select {
	case r.signal <- struct{}{}:
	default:
	}
	return err
}
