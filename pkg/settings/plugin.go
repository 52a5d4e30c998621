package settings

import "sort"

// PluginSettings records which plugins are enabled. Plugins missing from the
// table are enabled.
type PluginSettings struct {
	Plugins map[string]PluginState
}

// PluginState is the stored state of one plugin.
type PluginState struct {
	Enabled bool
	Version string `json:",omitempty"`
}

func (p *PluginSettings) SetDefaults() {
	p.Plugins = map[string]PluginState{}
}

// IsEnabled reports whether plugin id may be loaded.
func (p PluginSettings) IsEnabled(id string) bool {
	state, ok := p.Plugins[id]
	return !ok || state.Enabled
}

// SetEnabled records the state of plugin id. The table is copied so a
// document returned by Load is never modified in place.
func (p *PluginSettings) SetEnabled(id string, enabled bool) {
	next := make(map[string]PluginState, len(p.Plugins)+1)
	for k, v := range p.Plugins {
		next[k] = v
	}
	state := next[id]
	state.Enabled = enabled
	next[id] = state
	p.Plugins = next
}

// Disabled lists the IDs of disabled plugins in sorted order.
func (p PluginSettings) Disabled() []string {
	var out []string
	for id, state := range p.Plugins {
		if !state.Enabled {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out
}
