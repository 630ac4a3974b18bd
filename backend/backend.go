package backend

import (
	"context"
	"errors"
	"fmt"
	"math"
)

// Common backend errors.
var (
	// ErrNotAvailable is returned when no usable backend has been acquired.
	ErrNotAvailable = errors.New("backend: not available")

	// ErrFunctionMissing is returned when the module does not export a function.
	ErrFunctionMissing = errors.New("backend: function not exported")

	// ErrNoMemory is returned when the module allocator cannot satisfy a request.
	ErrNoMemory = errors.New("backend: out of memory")

	// ErrOutOfBounds is returned when a read or write falls outside module memory.
	ErrOutOfBounds = errors.New("backend: memory access out of bounds")
)

// Exported function names understood by the facade.
const (
	FuncAdd            = "dsrt_add"
	FuncDot3           = "dsrt_dot3"
	FuncLength3        = "dsrt_length3"
	FuncCross3         = "dsrt_cross3"
	FuncNormalize3     = "dsrt_normalize3"
	FuncMat4Multiply   = "dsrt_mat4_multiply"
	FuncMalloc         = "malloc"
	FuncFree           = "free"
	ExportedMemoryName = "memory"
)

// Mode identifies how a backend was acquired.
type Mode uint8

const (
	// ModeNone means no backend is loaded; all operations use Go arithmetic.
	ModeNone Mode = iota

	// ModeRaw means the module was instantiated without host imports.
	// Only scalar functions are usable because there is no allocator.
	ModeRaw

	// ModeRich means the module was instantiated with its glue host imports
	// and exports an allocator and linear memory.
	ModeRich
)

// String returns the mode name.
func (m Mode) String() string {
	switch m {
	case ModeNone:
		return "none"
	case ModeRaw:
		return "raw"
	case ModeRich:
		return "rich"
	default:
		return fmt.Sprintf("Mode(%d)", uint8(m))
	}
}

// Function is a callable module export. Parameters and results use the
// WebAssembly value encoding: float64 values are passed as their IEEE 754
// bits and pointers as zero-extended uint32 values.
type Function interface {
	Call(ctx context.Context, params ...uint64) ([]uint64, error)
}

// FunctionTable resolves module exports by name.
type FunctionTable interface {
	// Function returns the named export, or false if it is not exported.
	Function(name string) (Function, bool)
}

// Memory is the set of helpers used to marshal values through module memory.
// Pointers are byte offsets into the module's linear memory.
type Memory interface {
	// Allocate reserves size bytes and returns the byte offset of the region.
	Allocate(ctx context.Context, size uint32) (uint32, error)

	// Release returns a region obtained from Allocate.
	Release(ctx context.Context, ptr uint32) error

	// WriteFloats stores values starting at the float64 element that
	// contains ptr, i.e. at byte offset (ptr/8)*8.
	WriteFloats(ptr uint32, values []float64) error

	// ReadFloats loads count values starting at the float64 element that
	// contains ptr.
	ReadFloats(ptr uint32, count int) ([]float64, error)
}

// Closer releases the native resources behind a descriptor.
type Closer interface {
	Close(ctx context.Context) error
}

// Descriptor is the uniform result of backend acquisition.
//
// A Descriptor is built once per acquisition and never mutated afterwards.
// Memory is non-nil only in ModeRich.
type Descriptor struct {
	Ready     bool
	Mode      Mode
	Functions FunctionTable
	Memory    Memory

	closer Closer
}

// Unavailable returns the descriptor used when no backend could be acquired.
func Unavailable() Descriptor {
	return Descriptor{Mode: ModeNone}
}

// Raw returns a ready descriptor exposing plain function exports only.
func Raw(fns FunctionTable, closer Closer) Descriptor {
	if fns == nil {
		return Unavailable()
	}
	return Descriptor{Ready: true, Mode: ModeRaw, Functions: fns, closer: closer}
}

// Rich returns a ready descriptor with memory helpers.
// If mem is nil the descriptor is downgraded to raw mode.
func Rich(fns FunctionTable, mem Memory, closer Closer) Descriptor {
	if mem == nil {
		return Raw(fns, closer)
	}
	if fns == nil {
		return Unavailable()
	}
	return Descriptor{Ready: true, Mode: ModeRich, Functions: fns, Memory: mem, closer: closer}
}

// Scalar returns the named function if the descriptor is ready and exports it.
// Scalar functions take and return plain float64 values, so any ready mode
// can serve them.
func (d Descriptor) Scalar(name string) (Function, bool) {
	if !d.Ready || d.Functions == nil {
		return nil, false
	}
	return d.Functions.Function(name)
}

// Pointer returns the named function together with the memory helpers
// required to pass output pointers. Only ModeRich can serve pointer calls.
func (d Descriptor) Pointer(name string) (Function, Memory, bool) {
	if !d.Ready || d.Mode != ModeRich || d.Memory == nil || d.Functions == nil {
		return nil, nil, false
	}
	fn, ok := d.Functions.Function(name)
	if !ok {
		return nil, nil, false
	}
	return fn, d.Memory, true
}

// Close releases the resources behind the descriptor, if any.
// Closing an unavailable descriptor is a no-op.
func (d Descriptor) Close(ctx context.Context) error {
	if d.closer == nil {
		return nil
	}
	return d.closer.Close(ctx)
}

// CallF64 invokes a scalar function with float64 arguments and decodes
// its single float64 result.
func CallF64(ctx context.Context, fn Function, args ...float64) (float64, error) {
	params := make([]uint64, len(args))
	for i, a := range args {
		params[i] = math.Float64bits(a)
	}
	results, err := fn.Call(ctx, params...)
	if err != nil {
		return 0, err
	}
	if len(results) != 1 {
		return 0, fmt.Errorf("backend: expected 1 result, got %d", len(results))
	}
	return math.Float64frombits(results[0]), nil
}

// CallPointers invokes a pointer-based function. Scalars are passed first,
// followed by the pointers, matching the calling convention of the
// dsrt_cross3, dsrt_normalize3 and dsrt_mat4_multiply exports.
func CallPointers(ctx context.Context, fn Function, scalars []float64, ptrs ...uint32) error {
	params := make([]uint64, 0, len(scalars)+len(ptrs))
	for _, s := range scalars {
		params = append(params, math.Float64bits(s))
	}
	for _, p := range ptrs {
		params = append(params, uint64(p))
	}
	_, err := fn.Call(ctx, params...)
	return err
}
