// Dynamic-library module loading (spec §6.2 "Native modules: a shared
// library exposing an init function and module registration callback").
// The teacher's module loader only ever compiles source text read from
// disk — it has no shared-library loading of any kind — so this is built
// directly from §6.2's init/export/cleanup triad on Go's plugin package,
// the only dlopen-style loader Go offers (see DESIGN.md).
package vm

import (
	"fmt"
	"os"
	"runtime"

	"pocket/internal/errors"
	"pocket/internal/object"
)

// ModuleAPI is the function-pointer table handed to a dynamic-library
// module's PkInitAPI (spec §6.2): enough surface to allocate through the
// host VM's own GC and wrap native functions, so a module built against
// one VM instance never reaches across to another VM's heap.
type ModuleAPI struct {
	GC             *object.GC
	RegisterNative func(name string, arity int, fn object.NativeFn) *object.Fn
}

// loadDynamicModule implements the last step of §6.3's extension search
// order: a platform shared library exporting PkInitAPI and
// PkExportModule (and optionally PkCleanupModule, run at VM shutdown).
func (v *VM) loadDynamicModule(path string) (*object.Module, error) {
	lib, ok := resolveLibPath(path)
	if !ok {
		return nil, fmt.Errorf("pocket: no dynamic library at %s", path)
	}

	p, err := openPlugin(lib)
	if err != nil {
		return nil, err
	}
	initFn, ok := p.lookupInit()
	if !ok {
		return nil, errors.New(errors.ImportError, "PkInitAPI missing or has the wrong signature", lib, 0, 0)
	}
	exportFn, ok := p.lookupExport()
	if !ok {
		return nil, errors.New(errors.ImportError, "PkExportModule missing or has the wrong signature", lib, 0, 0)
	}

	initFn(&ModuleAPI{
		GC: v.GC,
		RegisterNative: func(name string, arity int, fn object.NativeFn) *object.Fn {
			return object.NewNativeFn(v.GC, name, arity, fn)
		},
	})

	mod := exportFn(v)
	if mod == nil {
		return nil, errors.New(errors.ImportError, "PkExportModule returned nil", lib, 0, 0)
	}
	mod.NativeHandle = p

	if cleanupFn, ok := p.lookupCleanup(); ok {
		v.dlCleanups = append(v.dlCleanups, func() { cleanupFn(v) })
	}
	return mod, nil
}

func resolveLibPath(path string) (string, bool) {
	ext := ".so"
	switch runtime.GOOS {
	case "darwin":
		ext = ".dylib"
	case "windows":
		ext = ".dll"
	}
	for _, suffix := range []string{ext, "/__init__" + ext} {
		if fileExists(path + suffix) {
			return path + suffix, true
		}
	}
	return "", false
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}


