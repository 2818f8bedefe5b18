package effector

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/ayusman/abhinaya/internal/plugin"
)

func shellPlugin(t *testing.T, script string, actions ...string) *plugin.Plugin {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("skipping shell plugin test on Windows")
	}

	dir := t.TempDir()
	path := filepath.Join(dir, "keys.sh")
	if err := os.WriteFile(path, []byte(script), 0755); err != nil {
		t.Fatalf("failed to write script: %v", err)
	}
	return &plugin.Plugin{
		Manifest:   plugin.Manifest{Name: "keys", Executable: "keys.sh", Actions: actions},
		Path:       dir,
		Executable: path,
	}
}

func TestNewPlugin_RequiresKeyAction(t *testing.T) {
	p := shellPlugin(t, "#!/bin/sh\n", "volume")

	if _, err := NewPlugin(p, plugin.NewExecutor(time.Second), NewRecorder()); err == nil {
		t.Fatal("expected error for plugin without key action")
	}
}

func TestPlugin_DispatchKey(t *testing.T) {
	out := filepath.Join(t.TempDir(), "received.json")
	p := shellPlugin(t, "#!/bin/sh\ncat > "+out+"\necho '{\"success\":true}'\n", plugin.ActionKey)

	eff, err := NewPlugin(p, plugin.NewExecutor(5*time.Second), NewRecorder())
	if err != nil {
		t.Fatalf("NewPlugin() error = %v", err)
	}
	if err := eff.DispatchKey("Esc"); err != nil {
		t.Fatalf("DispatchKey() error = %v", err)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("plugin did not receive request: %v", err)
	}
	if !strings.Contains(string(data), `"key":"escape"`) {
		t.Errorf("expected normalized key in request, got %s", data)
	}
}

func TestPlugin_DispatchKey_Failure(t *testing.T) {
	p := shellPlugin(t, "#!/bin/sh\necho '{\"success\":false,\"error\":\"denied\"}'\n", plugin.ActionKey)

	eff, err := NewPlugin(p, plugin.NewExecutor(5*time.Second), NewRecorder())
	if err != nil {
		t.Fatalf("NewPlugin() error = %v", err)
	}
	err = eff.DispatchKey("a")
	if err == nil || !strings.Contains(err.Error(), "denied") {
		t.Errorf("expected plugin error, got %v", err)
	}
}

func TestPlugin_PointerDelegates(t *testing.T) {
	p := shellPlugin(t, "#!/bin/sh\n", plugin.ActionKey)
	rec := NewRecorder()

	eff, err := NewPlugin(p, plugin.NewExecutor(time.Second), rec)
	if err != nil {
		t.Fatalf("NewPlugin() error = %v", err)
	}
	eff.MoveCursor(5, 6)
	eff.Click()
	eff.Scroll(-30)

	calls := rec.Calls()
	if len(calls) != 3 || calls[0].Op != "move" || calls[1].Op != "click" || calls[2].Delta != -30 {
		t.Errorf("unexpected delegated calls: %+v", calls)
	}
}
