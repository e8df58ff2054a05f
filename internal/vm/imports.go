// IMPORT/IMPORT_STAR support (spec §4.4 "initialized", §6.3 "import
// resolution"). Grounded on the teacher's module loader (sentra
// internal/vm/module_loader.go: ModuleLoader.LoadFileModule/resolvePath —
// extension search order, module cache keyed by resolved path) plus the
// search-path fan-out wired to golang.org/x/sync/errgroup
// (SPEC_FULL.md §4.11).
package vm

import (
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"pocket/internal/errors"
	"pocket/internal/object"
)

// importModule resolves and loads (or returns the cached) module for
// path, requested from fromPath (spec §4.4, §6.3): resolve via the host
// ResolveImportFn, falling back to the literal path; try the extension
// order "", ".pk", "/__init__.pk", then a platform dynamic library;
// cache by canonical path; run the body exactly once.
func (v *VM) importModule(fromPath, path string) (*object.Module, *errors.PocketError) {
	canonical := path
	if v.ResolveImport != nil {
		if c, ok := v.ResolveImport(fromPath, path); ok {
			canonical = c
		}
	}

	if mod, ok := v.Modules[canonical]; ok {
		if !mod.Initialized {
			if _, err := v.RunModule(mod); err != nil {
				return nil, wrapImportErr(err)
			}
		}
		return mod, nil
	}

	for _, suffix := range []string{"", ".pk", "/__init__.pk"} {
		candidate := canonical + suffix
		if v.LoadSource == nil && len(v.SearchPaths) > 1 {
			if p, ok := v.probeSearchPaths(candidate); ok {
				candidate = p
			}
		}
		src, ok := v.readSource(candidate)
		if !ok {
			continue
		}
		mod, errs := v.CompileString(path, candidate, src)
		if len(errs) > 0 {
			return nil, errs[0]
		}
		v.Modules[canonical] = mod
		if _, err := v.RunModule(mod); err != nil {
			return nil, wrapImportErr(err)
		}
		return mod, nil
	}

	if mod, err := v.loadDynamicModule(canonical); err == nil {
		v.Modules[canonical] = mod
		return mod, nil
	}

	return nil, errors.New(errors.ImportError, "cannot resolve module "+path, fromPath, 0, 0)
}

func wrapImportErr(err error) *errors.PocketError {
	if pe, ok := err.(*errors.PocketError); ok {
		return pe
	}
	return errors.New(errors.ImportError, err.Error(), "", 0, 0)
}

// probeSearchPaths checks every configured search root for rel
// concurrently — a plain filesystem Stat fan-out, safe to parallelize
// because it touches no VM/GC state, unlike resuming fibers would.
func (v *VM) probeSearchPaths(rel string) (string, bool) {
	found := make([]string, len(v.SearchPaths))
	var g errgroup.Group
	for i, base := range v.SearchPaths {
		i, base := i, base
		g.Go(func() error {
			full := filepath.Join(base, rel)
			if fileExists(full) {
				found[i] = full
			}
			return nil
		})
	}
	_ = g.Wait()
	for _, p := range found {
		if p != "" {
			return p, true
		}
	}
	return "", false
}


