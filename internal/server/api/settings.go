package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ayusman/abhinaya/internal/config"
)

// SettingsHandler reads and updates the live tuning settings.
type SettingsHandler struct {
	live *config.Live
}

// NewSettingsHandler creates a SettingsHandler over live.
func NewSettingsHandler(live *config.Live) *SettingsHandler {
	return &SettingsHandler{live: live}
}

// RegisterHTTP mounts the settings routes on r.
func (h *SettingsHandler) RegisterHTTP(r chi.Router) {
	r.Get("/settings", h.get)
	r.Put("/settings", h.update)
}

type settingRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

type settingsResponse struct {
	Settings map[string]float64      `json:"settings"`
	Ranges   map[string]settingRange `json:"ranges"`
}

type settingsError struct {
	Error    string             `json:"error"`
	Setting  string             `json:"setting,omitempty"`
	Settings map[string]float64 `json:"settings"`
}

func (h *SettingsHandler) response() settingsResponse {
	ranges := make(map[string]settingRange, len(config.Names()))
	for _, name := range config.Names() {
		min, max, _ := config.Range(name)
		ranges[name] = settingRange{Min: min, Max: max}
	}
	return settingsResponse{Settings: h.live.Values(), Ranges: ranges}
}

// get handles GET /api/settings.
func (h *SettingsHandler) get(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.response())
}

// update handles PUT /api/settings. The body is a partial map of setting
// name to value. Either every value is applied or none is; a rejected
// update answers 422 with the values still in effect.
func (h *SettingsHandler) update(w http.ResponseWriter, r *http.Request) {
	var values map[string]float64
	if err := json.NewDecoder(r.Body).Decode(&values); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(values) == 0 {
		writeError(w, http.StatusBadRequest, "no settings given")
		return
	}

	if err := h.live.Update(values); err != nil {
		resp := settingsError{Error: err.Error(), Settings: h.live.Values()}
		var rangeErr *config.RangeError
		if errors.As(err, &rangeErr) {
			resp.Setting = rangeErr.Name
		}
		status := http.StatusUnprocessableEntity
		if errors.Is(err, config.ErrUnknownSetting) {
			status = http.StatusBadRequest
		}
		writeJSON(w, status, resp)
		return
	}

	writeJSON(w, http.StatusOK, h.response())
}
