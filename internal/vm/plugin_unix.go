//go:build linux || darwin

package vm

import (
	"plugin"

	"pocket/internal/object"
)

// pluginHandle wraps Go's plugin.Plugin, which only builds on the
// platforms that support dlopen-style shared libraries (spec §6.2
// native modules are inherently platform-specific).
type pluginHandle struct{ p *plugin.Plugin }

func openPlugin(path string) (*pluginHandle, error) {
	p, err := plugin.Open(path)
	if err != nil {
		return nil, err
	}
	return &pluginHandle{p: p}, nil
}

func (h *pluginHandle) lookupInit() (func(*ModuleAPI), bool) {
	sym, err := h.p.Lookup("PkInitAPI")
	if err != nil {
		return nil, false
	}
	fn, ok := sym.(func(*ModuleAPI))
	return fn, ok
}

func (h *pluginHandle) lookupExport() (func(*VM) *object.Module, bool) {
	sym, err := h.p.Lookup("PkExportModule")
	if err != nil {
		return nil, false
	}
	fn, ok := sym.(func(*VM) *object.Module)
	return fn, ok
}

func (h *pluginHandle) lookupCleanup() (func(*VM), bool) {
	sym, err := h.p.Lookup("PkCleanupModule")
	if err != nil {
		return nil, false
	}
	fn, ok := sym.(func(*VM))
	return fn, ok
}


