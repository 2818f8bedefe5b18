package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/ayusman/abhinaya/internal/store"
)

const (
	defaultEventLimit = 50
	maxEventLimit     = 500
)

// EventSource lists recorded gesture events.
type EventSource interface {
	Recent(limit int) ([]*store.Event, error)
}

// EventsHandler serves the gesture event history.
type EventsHandler struct {
	events EventSource
	logger zerolog.Logger
}

// NewEventsHandler creates an EventsHandler.
func NewEventsHandler(events EventSource, logger zerolog.Logger) *EventsHandler {
	return &EventsHandler{events: events, logger: logger}
}

// RegisterHTTP mounts the event routes on r.
func (h *EventsHandler) RegisterHTTP(r chi.Router) {
	r.Get("/events", h.list)
}

type eventResponse struct {
	ID        string `json:"id"`
	SessionID string `json:"session_id"`
	Kind      string `json:"kind"`
	Detail    string `json:"detail,omitempty"`
	CreatedAt string `json:"created_at"`
}

type listEventsResponse struct {
	Events []eventResponse `json:"events"`
}

// list handles GET /api/events?limit=N, newest first.
func (h *EventsHandler) list(w http.ResponseWriter, r *http.Request) {
	limit := defaultEventLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, maxEventLimit)
	}

	events, err := h.events.Recent(limit)
	if err != nil {
		h.logger.Error().Err(err).Msg("list events")
		writeError(w, http.StatusInternalServerError, "failed to list events")
		return
	}

	resp := listEventsResponse{Events: make([]eventResponse, 0, len(events))}
	for _, e := range events {
		resp.Events = append(resp.Events, eventResponse{
			ID:        e.ID,
			SessionID: e.SessionID,
			Kind:      e.Kind,
			Detail:    e.Detail,
			CreatedAt: e.CreatedAt.Format(time.RFC3339),
		})
	}
	writeJSON(w, http.StatusOK, resp)
}
