//go:build !linux && !darwin

package vm

import (
	"fmt"

	"pocket/internal/object"
)

// pluginHandle has no usable implementation on platforms Go's plugin
// package doesn't support; loadDynamicModule degrades to an error there
// instead of failing to build.
type pluginHandle struct{}

func openPlugin(path string) (*pluginHandle, error) {
	return nil, fmt.Errorf("pocket: dynamic-library modules are not supported on this platform")
}

func (h *pluginHandle) lookupInit() (func(*ModuleAPI), bool)          { return nil, false }
func (h *pluginHandle) lookupExport() (func(*VM) *object.Module, bool) { return nil, false }
func (h *pluginHandle) lookupCleanup() (func(*VM), bool)              { return nil, false }


