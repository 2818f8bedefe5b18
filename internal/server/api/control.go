package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/ayusman/abhinaya/internal/effector"
	"github.com/ayusman/abhinaya/internal/session"
)

// ControlHandler exposes session commands: calibrate, pause, resume,
// keyboard toggle and key presses.
type ControlHandler struct {
	controller Controller
	logger     zerolog.Logger
}

// NewControlHandler creates a ControlHandler for c.
func NewControlHandler(c Controller, logger zerolog.Logger) *ControlHandler {
	return &ControlHandler{controller: c, logger: logger}
}

// RegisterHTTP mounts the control routes on r.
func (h *ControlHandler) RegisterHTTP(r chi.Router) {
	r.Get("/status", h.status)
	r.Post("/calibrate", h.calibrate)
	r.Post("/pause", h.pause)
	r.Post("/resume", h.resume)
	r.Post("/keyboard/toggle", h.toggleKeyboard)
	r.Post("/keys", h.pressKey)
}

type keyRequest struct {
	Key string `json:"key"`
}

type keyboardResponse struct {
	Visible bool `json:"visible"`
}

// status handles GET /api/status.
func (h *ControlHandler) status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.controller.Status())
}

// calibrate handles POST /api/calibrate.
func (h *ControlHandler) calibrate(w http.ResponseWriter, r *http.Request) {
	h.controller.Recalibrate()
	writeJSON(w, http.StatusOK, h.controller.Status())
}

// pause handles POST /api/pause.
func (h *ControlHandler) pause(w http.ResponseWriter, r *http.Request) {
	h.transition(w, h.controller.Pause())
}

// resume handles POST /api/resume.
func (h *ControlHandler) resume(w http.ResponseWriter, r *http.Request) {
	h.transition(w, h.controller.Resume())
}

func (h *ControlHandler) transition(w http.ResponseWriter, err error) {
	if errors.Is(err, session.ErrInvalidTransition) {
		writeError(w, http.StatusConflict, err.Error())
		return
	}
	if err != nil {
		h.logger.Error().Err(err).Msg("state transition")
		writeError(w, http.StatusInternalServerError, "transition failed")
		return
	}
	writeJSON(w, http.StatusOK, h.controller.Status())
}

// toggleKeyboard handles POST /api/keyboard/toggle.
func (h *ControlHandler) toggleKeyboard(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, keyboardResponse{Visible: h.controller.ToggleKeyboard()})
}

// pressKey handles POST /api/keys. The tap is queued and the handler
// returns before it runs.
func (h *ControlHandler) pressKey(w http.ResponseWriter, r *http.Request) {
	var req keyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	err := h.controller.PressKey(req.Key)
	switch {
	case errors.Is(err, effector.ErrUnknownKey):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, effector.ErrDispatcherClosed):
		writeError(w, http.StatusServiceUnavailable, "dispatcher stopped")
	case err != nil:
		h.logger.Error().Err(err).Str("key", req.Key).Msg("press key")
		writeError(w, http.StatusInternalServerError, "failed to queue key")
	default:
		w.WriteHeader(http.StatusAccepted)
	}
}
