package effector

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// ErrDispatcherClosed is returned by Submit after Close.
var ErrDispatcherClosed = errors.New("dispatcher closed")

// DispatchError reports an effector call that failed on the worker.
type DispatchError struct {
	Action ActionKind `json:"action"` // empty for cursor moves
	Key    string     `json:"key,omitempty"`
	At     time.Time  `json:"at"`
	Err    error      `json:"-"`
}

func (e *DispatchError) Error() string {
	op := "move"
	if e.Action != "" {
		op = string(e.Action)
	}
	if e.Key != "" {
		return fmt.Sprintf("dispatch %s %q: %v", op, e.Key, e.Err)
	}
	return fmt.Sprintf("dispatch %s: %v", op, e.Err)
}

func (e *DispatchError) Unwrap() error { return e.Err }

// MarshalJSON includes the error text.
func (e *DispatchError) MarshalJSON() ([]byte, error) {
	type alias DispatchError
	msg := ""
	if e.Err != nil {
		msg = e.Err.Error()
	}
	return json.Marshal(struct {
		*alias
		Error string `json:"error"`
	}{alias: (*alias)(e), Error: msg})
}

// DispatcherConfig configures a Dispatcher.
type DispatcherConfig struct {
	// MaxPendingActions bounds queued discrete actions; the oldest are dropped.
	MaxPendingActions int
	// FailureBuffer is the capacity of the Failures channel.
	FailureBuffer int
	Logger        zerolog.Logger
}

// DefaultDispatcherConfig returns the standard bounds.
func DefaultDispatcherConfig() DispatcherConfig {
	return DispatcherConfig{
		MaxPendingActions: 32,
		FailureBuffer:     16,
		Logger:            zerolog.Nop(),
	}
}

// Dispatcher runs effector calls on a single worker goroutine.
//
// Submitted commands go into one pending slot. If the worker is still busy
// when a new command arrives the two are merged: the newest cursor move
// replaces the older one and discrete actions are appended in order. Submit
// never blocks on the effector.
type Dispatcher struct {
	effector Effector
	config   DispatcherConfig

	mu      sync.Mutex
	pending Command
	closed  bool

	wake     chan struct{}
	stop     chan struct{}
	done     chan struct{}
	failures chan *DispatchError

	startOnce sync.Once
	closeOnce sync.Once
	started   bool
}

// NewDispatcher creates a Dispatcher for e. Call Start to begin dispatching.
func NewDispatcher(e Effector, config DispatcherConfig) *Dispatcher {
	if config.MaxPendingActions <= 0 {
		config.MaxPendingActions = DefaultDispatcherConfig().MaxPendingActions
	}
	if config.FailureBuffer <= 0 {
		config.FailureBuffer = DefaultDispatcherConfig().FailureBuffer
	}
	return &Dispatcher{
		effector: e,
		config:   config,
		wake:     make(chan struct{}, 1),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
		failures: make(chan *DispatchError, config.FailureBuffer),
	}
}

// Start launches the worker. It stops when ctx is cancelled or Close is called.
func (d *Dispatcher) Start(ctx context.Context) {
	d.startOnce.Do(func() {
		d.mu.Lock()
		d.started = true
		d.mu.Unlock()
		go d.run(ctx)
	})
}

// Submit hands cmd to the worker, merging it with any pending command.
func (d *Dispatcher) Submit(cmd Command) error {
	if cmd.Empty() {
		return nil
	}

	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return ErrDispatcherClosed
	}

	if cmd.Move != nil {
		p := *cmd.Move
		d.pending.Move = &p
	}
	d.pending.Actions = append(d.pending.Actions, cmd.Actions...)
	dropped := 0
	if over := len(d.pending.Actions) - d.config.MaxPendingActions; over > 0 {
		d.pending.Actions = append([]Action(nil), d.pending.Actions[over:]...)
		dropped = over
	}
	d.mu.Unlock()

	if dropped > 0 {
		d.config.Logger.Warn().Int("dropped", dropped).Msg("effector backlog full, dropping oldest actions")
	}

	select {
	case d.wake <- struct{}{}:
	default:
	}
	return nil
}

// Failures reports effector errors. The channel is never closed; undelivered
// failures are dropped when it is full.
func (d *Dispatcher) Failures() <-chan *DispatchError {
	return d.failures
}

// Close stops the worker and waits for the in-flight call to finish.
// Pending work is discarded.
func (d *Dispatcher) Close() error {
	d.closeOnce.Do(func() {
		d.mu.Lock()
		d.closed = true
		d.pending = Command{}
		started := d.started
		d.mu.Unlock()

		close(d.stop)
		if started {
			<-d.done
		}
	})
	return nil
}

func (d *Dispatcher) run(ctx context.Context) {
	defer close(d.done)

	for {
		select {
		case <-ctx.Done():
			return
		case <-d.stop:
			return
		case <-d.wake:
			d.execute(d.take())
		}
	}
}

func (d *Dispatcher) take() Command {
	d.mu.Lock()
	defer d.mu.Unlock()
	cmd := d.pending
	d.pending = Command{}
	return cmd
}

func (d *Dispatcher) execute(cmd Command) {
	if cmd.Move != nil {
		if err := d.effector.MoveCursor(cmd.Move.X, cmd.Move.Y); err != nil {
			d.report(&DispatchError{At: time.Now(), Err: err})
		}
	}
	for _, a := range cmd.Actions {
		if err := apply(d.effector, a); err != nil {
			d.report(&DispatchError{Action: a.Kind, Key: a.Key, At: time.Now(), Err: err})
		}
	}
}

func (d *Dispatcher) report(err *DispatchError) {
	d.config.Logger.Warn().Err(err.Err).Str("action", string(err.Action)).Str("key", err.Key).Msg("effector dispatch failed")
	select {
	case d.failures <- err:
	default:
		d.config.Logger.Debug().Msg("failure channel full, dropping report")
	}
}
