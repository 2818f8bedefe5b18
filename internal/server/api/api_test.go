package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/ayusman/abhinaya/internal/config"
	"github.com/ayusman/abhinaya/internal/effector"
	"github.com/ayusman/abhinaya/internal/session"
	"github.com/ayusman/abhinaya/internal/store"
)

type fakeController struct {
	mu          sync.Mutex
	state       session.State
	keyboard    bool
	recalibrate int
	keys        []string
	keyErr      error
}

func (f *fakeController) Status() session.Status {
	f.mu.Lock()
	defer f.mu.Unlock()
	return session.Status{State: f.state, KeyboardVisible: f.keyboard}
}

func (f *fakeController) Recalibrate() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.recalibrate++
	f.state = session.StateCalibrating
}

func (f *fakeController) Pause() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state == session.StateUncalibrated {
		return session.ErrInvalidTransition
	}
	f.state = session.StatePaused
	return nil
}

func (f *fakeController) Resume() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state == session.StateUncalibrated {
		return session.ErrInvalidTransition
	}
	f.state = session.StateTracking
	return nil
}

func (f *fakeController) ToggleKeyboard() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.keyboard = !f.keyboard
	return f.keyboard
}

func (f *fakeController) PressKey(key string) error {
	if f.keyErr != nil {
		return f.keyErr
	}
	k, err := effector.NormalizeKey(key)
	if err != nil {
		return err
	}
	f.mu.Lock()
	f.keys = append(f.keys, k)
	f.mu.Unlock()
	return nil
}

func newRouter(register ...func(chi.Router)) *chi.Mux {
	r := chi.NewRouter()
	for _, fn := range register {
		fn(r)
	}
	return r
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestControlHandler_Transitions(t *testing.T) {
	ctrl := &fakeController{state: session.StateTracking}
	r := newRouter(NewControlHandler(ctrl, zerolog.Nop()).RegisterHTTP)

	tests := []struct {
		name      string
		path      string
		wantCode  int
		wantState session.State
	}{
		{"pause while tracking", "/pause", http.StatusOK, session.StatePaused},
		{"pause again is idempotent", "/pause", http.StatusOK, session.StatePaused},
		{"resume", "/resume", http.StatusOK, session.StateTracking},
		{"calibrate", "/calibrate", http.StatusOK, session.StateCalibrating},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, r, http.MethodPost, tt.path, "")
			if rec.Code != tt.wantCode {
				t.Fatalf("expected status %d, got %d: %s", tt.wantCode, rec.Code, rec.Body.String())
			}
			if got := ctrl.Status().State; got != tt.wantState {
				t.Errorf("expected state %s, got %s", tt.wantState, got)
			}
			if rec.Code == http.StatusOK {
				var st session.Status
				if err := json.NewDecoder(rec.Body).Decode(&st); err != nil {
					t.Fatalf("failed to decode status: %v", err)
				}
				if st.State != tt.wantState {
					t.Errorf("response state %s, want %s", st.State, tt.wantState)
				}
			}
		})
	}

	if ctrl.recalibrate != 1 {
		t.Errorf("expected 1 recalibration, got %d", ctrl.recalibrate)
	}
}

func TestControlHandler_Status(t *testing.T) {
	r := newRouter(NewControlHandler(&fakeController{state: session.StateUncalibrated}, zerolog.Nop()).RegisterHTTP)

	rec := do(t, r, http.MethodGet, "/status", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected JSON, got %s", ct)
	}

	for _, path := range []string{"/pause", "/resume"} {
		rec = do(t, r, http.MethodPost, path, "")
		if rec.Code != http.StatusConflict {
			t.Errorf("%s before start: expected 409, got %d", path, rec.Code)
		}
	}
}

func TestControlHandler_ToggleKeyboard(t *testing.T) {
	ctrl := &fakeController{}
	r := newRouter(NewControlHandler(ctrl, zerolog.Nop()).RegisterHTTP)

	for _, want := range []bool{true, false} {
		rec := do(t, r, http.MethodPost, "/keyboard/toggle", "")
		var resp keyboardResponse
		if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
			t.Fatal(err)
		}
		if resp.Visible != want {
			t.Errorf("expected visible=%v, got %v", want, resp.Visible)
		}
	}
}

func TestControlHandler_PressKey(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		keyErr   error
		wantCode int
	}{
		{"letter", `{"key":"a"}`, nil, http.StatusAccepted},
		{"alias", `{"key":"return"}`, nil, http.StatusAccepted},
		{"unknown key", `{"key":"hyper"}`, nil, http.StatusBadRequest},
		{"bad body", `{`, nil, http.StatusBadRequest},
		{"dispatcher closed", `{"key":"a"}`, effector.ErrDispatcherClosed, http.StatusServiceUnavailable},
		{"other failure", `{"key":"a"}`, errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := &fakeController{keyErr: tt.keyErr}
			r := newRouter(NewControlHandler(ctrl, zerolog.Nop()).RegisterHTTP)

			rec := do(t, r, http.MethodPost, "/keys", tt.body)
			if rec.Code != tt.wantCode {
				t.Errorf("expected status %d, got %d: %s", tt.wantCode, rec.Code, rec.Body.String())
			}
		})
	}

	ctrl := &fakeController{}
	r := newRouter(NewControlHandler(ctrl, zerolog.Nop()).RegisterHTTP)
	do(t, r, http.MethodPost, "/keys", `{"key":"return"}`)
	if len(ctrl.keys) != 1 || ctrl.keys[0] != effector.KeyEnter {
		t.Errorf("expected enter queued, got %v", ctrl.keys)
	}
}

func TestSettingsHandler_Get(t *testing.T) {
	r := newRouter(NewSettingsHandler(config.NewLive(config.DefaultSettings())).RegisterHTTP)

	rec := do(t, r, http.MethodGet, "/settings", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp settingsResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.Settings[config.Sensitivity] != 3.5 {
		t.Errorf("expected default sensitivity, got %v", resp.Settings[config.Sensitivity])
	}
	if rng := resp.Ranges[config.ClickThreshold]; rng.Min != 0.01 || rng.Max != 0.15 {
		t.Errorf("unexpected click threshold range %+v", rng)
	}
	if len(resp.Ranges) != len(config.Names()) {
		t.Errorf("expected %d ranges, got %d", len(config.Names()), len(resp.Ranges))
	}
}

func TestSettingsHandler_Update(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		wantCode    int
		wantSetting string
		wantSens    float64
	}{
		{"valid partial update", `{"sensitivity":5}`, http.StatusOK, "", 5},
		{"out of range keeps prior", `{"sensitivity":5,"click_threshold":0.9}`, http.StatusUnprocessableEntity, config.ClickThreshold, 3.5},
		{"fractional window", `{"smoothing_window_size":4.5}`, http.StatusUnprocessableEntity, config.SmoothingWindowSize, 3.5},
		{"unknown setting", `{"brightness":1}`, http.StatusBadRequest, "", 3.5},
		{"empty body", `{}`, http.StatusBadRequest, "", 3.5},
		{"malformed", `nope`, http.StatusBadRequest, "", 3.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			live := config.NewLive(config.DefaultSettings())
			r := newRouter(NewSettingsHandler(live).RegisterHTTP)

			rec := do(t, r, http.MethodPut, "/settings", tt.body)
			if rec.Code != tt.wantCode {
				t.Fatalf("expected status %d, got %d: %s", tt.wantCode, rec.Code, rec.Body.String())
			}
			if got := live.Snapshot().Sensitivity; got != tt.wantSens {
				t.Errorf("expected sensitivity %g, got %g", tt.wantSens, got)
			}

			if tt.wantCode == http.StatusUnprocessableEntity {
				var resp settingsError
				if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
					t.Fatal(err)
				}
				if resp.Setting != tt.wantSetting {
					t.Errorf("expected rejected setting %q, got %q", tt.wantSetting, resp.Setting)
				}
				if resp.Settings[config.Sensitivity] != 3.5 {
					t.Errorf("expected prior values in response, got %v", resp.Settings)
				}
			}
		})
	}
}

type fakeEvents struct {
	events    []*store.Event
	err       error
	lastLimit int
}

func (f *fakeEvents) Recent(limit int) ([]*store.Event, error) {
	f.lastLimit = limit
	if f.err != nil {
		return nil, f.err
	}
	if limit < len(f.events) {
		return f.events[:limit], nil
	}
	return f.events, nil
}

func TestEventsHandler_List(t *testing.T) {
	at := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	events := &fakeEvents{events: []*store.Event{
		{ID: "e2", SessionID: "s1", Kind: "scroll_up", Detail: "30", CreatedAt: at.Add(time.Second)},
		{ID: "e1", SessionID: "s1", Kind: "click", CreatedAt: at},
	}}
	r := newRouter(NewEventsHandler(events, zerolog.Nop()).RegisterHTTP)

	tests := []struct {
		name      string
		query     string
		wantCode  int
		wantLimit int
		wantLen   int
	}{
		{"default limit", "", http.StatusOK, defaultEventLimit, 2},
		{"explicit limit", "?limit=1", http.StatusOK, 1, 1},
		{"capped limit", "?limit=100000", http.StatusOK, maxEventLimit, 2},
		{"bad limit", "?limit=abc", http.StatusBadRequest, 0, 0},
		{"zero limit", "?limit=0", http.StatusBadRequest, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			events.lastLimit = 0
			rec := do(t, r, http.MethodGet, "/events"+tt.query, "")
			if rec.Code != tt.wantCode {
				t.Fatalf("expected status %d, got %d", tt.wantCode, rec.Code)
			}
			if tt.wantCode != http.StatusOK {
				return
			}
			if events.lastLimit != tt.wantLimit {
				t.Errorf("expected limit %d, got %d", tt.wantLimit, events.lastLimit)
			}
			var resp listEventsResponse
			if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
				t.Fatal(err)
			}
			if len(resp.Events) != tt.wantLen {
				t.Fatalf("expected %d events, got %d", tt.wantLen, len(resp.Events))
			}
			if resp.Events[0].Kind != "scroll_up" || resp.Events[0].Detail != "30" {
				t.Errorf("unexpected first event %+v", resp.Events[0])
			}
		})
	}
}

func TestEventsHandler_StoreError(t *testing.T) {
	r := newRouter(NewEventsHandler(&fakeEvents{err: errors.New("db gone")}, zerolog.Nop()).RegisterHTTP)

	rec := do(t, r, http.MethodGet, "/events", "")
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", rec.Code)
	}
}
