package dsrt

import (
	"context"
	"sync/atomic"

	"github.com/dsrt-dev/dsrt/backend"
	"github.com/dsrt-dev/dsrt/loader"
)

// Runtime holds the active backend descriptor.
//
// The zero Runtime is usable and has no backend. A Runtime is safe for
// concurrent use: Init swaps the descriptor atomically, and concurrent Init
// calls are not de-duplicated, so the last one to finish wins.
type Runtime struct {
	desc atomic.Pointer[backend.Descriptor]
}

// NewRuntime returns a Runtime with no backend.
func NewRuntime() *Runtime {
	return &Runtime{}
}

var defaultRuntime = NewRuntime()

// Default returns the process-wide Runtime used by values that are not
// bound to a Runtime of their own.
func Default() *Runtime {
	return defaultRuntime
}

// Init acquires a backend for the default Runtime. See Runtime.Init.
func Init(ctx context.Context, opts ...InitOption) backend.Descriptor {
	return defaultRuntime.Init(ctx, opts...)
}

// Init acquires a backend and makes it the Runtime's active descriptor.
//
// Every call probes again and replaces the previous descriptor, closing it.
// Init never fails: a descriptor that is not ready means operations will
// use Go arithmetic.
func (r *Runtime) Init(ctx context.Context, opts ...InitOption) backend.Descriptor {
	o := defaultInitOptions()
	for _, opt := range opts {
		opt(&o)
	}
	lopts := append([]loader.Option{loader.WithLogger(Logger())}, o.loaderOptions...)
	d := o.acquire(ctx, o.baseLocation, lopts...)
	r.SetBackend(ctx, d)
	return d
}

// SetBackend installs d as the active descriptor and closes the previous one.
func (r *Runtime) SetBackend(ctx context.Context, d backend.Descriptor) {
	old := r.desc.Swap(&d)
	if old == nil {
		return
	}
	if err := old.Close(context.WithoutCancel(ctx)); err != nil {
		Logger().Warn("dsrt: closing previous backend failed", "mode", old.Mode, "err", err)
	}
}

// Descriptor returns the active descriptor, or backend.Unavailable if Init
// has not been called.
func (r *Runtime) Descriptor() backend.Descriptor {
	if d := r.desc.Load(); d != nil {
		return *d
	}
	return backend.Unavailable()
}

// Ready reports whether a backend is loaded.
func (r *Runtime) Ready() bool {
	return r.Descriptor().Ready
}

// Close releases the active backend. Later operations use Go arithmetic
// until Init is called again.
func (r *Runtime) Close(ctx context.Context) error {
	old := r.desc.Swap(nil)
	if old == nil {
		return nil
	}
	return old.Close(ctx)
}

// callScalar invokes a scalar export. It reports false when the backend
// cannot serve the call, in which case the caller computes in Go.
func (r *Runtime) callScalar(ctx context.Context, name string, args ...float64) (float64, bool) {
	fn, ok := r.Descriptor().Scalar(name)
	if !ok {
		return 0, false
	}
	out, err := backend.CallF64(ctx, fn, args...)
	if err != nil {
		Logger().Warn("dsrt: backend call failed, using Go fallback", "func", name, "err", err)
		return 0, false
	}
	return out, true
}

// callPointer invokes a pointer-based export. Each input is written to its
// own scratch region; the function receives scalars, then one pointer per
// input, then the output pointer. It reports false when the backend cannot
// serve the call.
func (r *Runtime) callPointer(ctx context.Context, name string, scalars []float64, inputs [][]float64, outLen int) ([]float64, bool) {
	fn, mem, ok := r.Descriptor().Pointer(name)
	if !ok {
		return nil, false
	}

	sizes := make([]uint32, 0, len(inputs)+1)
	for _, in := range inputs {
		sizes = append(sizes, backend.FloatBytes(len(in)))
	}
	sizes = append(sizes, backend.FloatBytes(outLen))

	var out []float64
	err := backend.WithScratch(ctx, mem, sizes, func(ptrs []uint32) error {
		for i, in := range inputs {
			if err := mem.WriteFloats(ptrs[i], in); err != nil {
				return err
			}
		}
		if err := backend.CallPointers(ctx, fn, scalars, ptrs...); err != nil {
			return err
		}
		var err error
		out, err = mem.ReadFloats(ptrs[len(ptrs)-1], outLen)
		return err
	})
	if err != nil {
		Logger().Warn("dsrt: backend call failed, using Go fallback", "func", name, "err", err)
		return nil, false
	}
	return out, true
}
