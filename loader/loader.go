// Package loader acquires a dsrt computational backend.
//
// [Acquire] looks for the WebAssembly module under a base location and
// negotiates the richest mode it can get:
//
//  1. If the companion glue resource exists, the module is instantiated
//     with the host imports the glue would provide. When it exports
//     malloc, free and its memory the result is [backend.ModeRich].
//  2. Otherwise, or if that fails, the same module bytes are instantiated
//     with no imports, giving [backend.ModeRaw].
//  3. If that fails too, the result is [backend.Unavailable].
//
// Acquire never returns an error. A descriptor that is not ready is a
// normal outcome: callers compute in Go instead.
package loader

import (
	"context"

	"github.com/dsrt-dev/dsrt/backend"
	"github.com/dsrt-dev/dsrt/backend/wasm"
)

// Acquire negotiates a backend from the resources under base.
//
// It issues at most one existence probe and one fetch. No timeout is
// applied; cancel ctx to abandon a hung request.
func Acquire(ctx context.Context, base string, opts ...Option) backend.Descriptor {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	src := o.source
	if src == nil {
		src = SourceFor(base, o.client)
	}
	log := o.logger.With("base", base)

	hasGlue := src.Exists(ctx, o.glueName)
	if !hasGlue {
		log.Debug("loader: glue not found, rich mode unavailable", "glue", o.glueName)
	}

	bin, err := src.Fetch(ctx, o.moduleName)
	if err != nil {
		log.Warn("loader: backend unavailable, using Go fallback", "module", o.moduleName, "err", err)
		return backend.Unavailable()
	}

	if hasGlue {
		m, err := wasm.InstantiateRich(ctx, bin)
		if err == nil {
			log.Info("loader: backend acquired", "mode", backend.ModeRich, "exports", len(m.Exports()))
			return backend.Rich(m, m, m)
		}
		log.Debug("loader: rich instantiation failed, trying raw", "err", err)
	}

	m, err := wasm.InstantiateRaw(ctx, bin)
	if err != nil {
		log.Warn("loader: backend unavailable, using Go fallback", "module", o.moduleName, "err", err)
		return backend.Unavailable()
	}
	log.Info("loader: backend acquired", "mode", backend.ModeRaw, "exports", len(m.Exports()))
	return backend.Raw(m, m)
}
