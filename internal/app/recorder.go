package app

import (
	"strconv"
	"sync"

	"github.com/rs/zerolog"

	"github.com/ayusman/abhinaya/internal/session"
	"github.com/ayusman/abhinaya/internal/store"
)

const recorderBuffer = 128

// EventRecorder persists gesture events and control actions on its own
// goroutine so database writes never stall the frame loop.
type EventRecorder struct {
	repo      *store.EventRepository
	sessionID string
	logger    zerolog.Logger

	mu     sync.Mutex
	closed bool
	ch     chan store.Event
	done   chan struct{}
}

// NewEventRecorder creates a recorder for one session. Call Start to begin.
func NewEventRecorder(repo *store.EventRepository, sessionID string, logger zerolog.Logger) *EventRecorder {
	return &EventRecorder{
		repo:      repo,
		sessionID: sessionID,
		logger:    logger,
		ch:        make(chan store.Event, recorderBuffer),
		done:      make(chan struct{}),
	}
}

// Start launches the writer goroutine.
func (r *EventRecorder) Start() {
	go r.run()
}

// Record queues the gesture events and dispatch failures in res.
func (r *EventRecorder) Record(res session.FrameResult) {
	for _, e := range res.Events {
		detail := ""
		if e.Delta != 0 {
			detail = strconv.Itoa(e.Delta)
		}
		r.enqueue(store.Event{Kind: string(e.Kind), Detail: detail, CreatedAt: e.At})
	}
	for _, f := range res.DispatchErrors {
		r.enqueue(store.Event{Kind: "dispatch_error", Detail: f.Error(), CreatedAt: f.At})
	}
}

// Control queues a control action such as a state change.
func (r *EventRecorder) Control(kind, detail string) {
	r.enqueue(store.Event{Kind: kind, Detail: detail})
}

// Close stops accepting events and waits for queued ones to be written.
func (r *EventRecorder) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	close(r.ch)
	r.mu.Unlock()
	<-r.done
}

func (r *EventRecorder) enqueue(e store.Event) {
	e.SessionID = r.sessionID

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	select {
	case r.ch <- e:
	default:
		r.logger.Warn().Str("kind", e.Kind).Msg("event recorder full, dropping event")
	}
}

func (r *EventRecorder) run() {
	defer close(r.done)
	for e := range r.ch {
		if err := r.repo.Create(&e); err != nil {
			r.logger.Warn().Err(err).Str("kind", e.Kind).Msg("record event")
		}
	}
}
