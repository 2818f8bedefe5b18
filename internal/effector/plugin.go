package effector

import (
	"context"
	"fmt"

	"github.com/ayusman/abhinaya/internal/plugin"
)

// Plugin dispatches keys through an external plugin and delegates pointer
// actions to another Effector.
type Plugin struct {
	plugin   *plugin.Plugin
	executor *plugin.Executor
	pointer  Effector
}

// NewPlugin wraps p. The plugin must declare the key action.
func NewPlugin(p *plugin.Plugin, executor *plugin.Executor, pointer Effector) (*Plugin, error) {
	if !p.Supports(plugin.ActionKey) {
		return nil, fmt.Errorf("plugin %s does not support %q", p.Manifest.Name, plugin.ActionKey)
	}
	return &Plugin{plugin: p, executor: executor, pointer: pointer}, nil
}

func (p *Plugin) MoveCursor(x, y int) error { return p.pointer.MoveCursor(x, y) }
func (p *Plugin) Click() error              { return p.pointer.Click() }
func (p *Plugin) Scroll(delta int) error    { return p.pointer.Scroll(delta) }

// DispatchKey runs the plugin with the normalized key.
func (p *Plugin) DispatchKey(key string) error {
	k, err := NormalizeKey(key)
	if err != nil {
		return err
	}

	resp, err := p.executor.Execute(context.Background(), p.plugin, &plugin.Request{
		Action: plugin.ActionKey,
		Key:    k,
	})
	if err != nil {
		return fmt.Errorf("plugin %s: %w", p.plugin.Manifest.Name, err)
	}
	if !resp.Success {
		return fmt.Errorf("plugin %s: %s", p.plugin.Manifest.Name, resp.Error)
	}
	return nil
}
