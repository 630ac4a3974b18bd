// Package wasm implements backend.FunctionTable and backend.Memory on top of
// the wazero WebAssembly runtime.
//
// A module can be instantiated in two ways:
//
//   - [InstantiateRich] links the WASI preview1 and Emscripten host modules,
//     the imports an Emscripten build expects from its JavaScript glue, and
//     requires the module to export malloc, free and its linear memory.
//   - [InstantiateRaw] links nothing. Modules with imports fail to
//     instantiate, and the resulting [Module] has no memory helpers.
//
// Calls into a Module are serialised: a wazero module instance is not safe
// for concurrent use.
package wasm

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"github.com/tetratelabs/wazero/imports/emscripten"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"

	"github.com/dsrt-dev/dsrt/backend"
)

// ErrNoAllocator is returned by InstantiateRich when the module does not
// export a usable allocator and linear memory.
var ErrNoAllocator = errors.New("wasm: module does not export malloc, free and memory")

// ModuleName is the name the guest module is instantiated under.
const ModuleName = "dsrt"

// compilationCache is shared by every runtime so that re-acquiring the same
// module bytes does not recompile them.
var compilationCache = wazero.NewCompilationCache()

// Module is an instantiated dsrt module.
type Module struct {
	mu       sync.Mutex
	runtime  wazero.Runtime
	compiled wazero.CompiledModule
	mod      api.Module

	// Set only for rich instantiation.
	mem    api.Memory
	malloc api.Function
	free   api.Function
}

// Compile-time interface checks.
var (
	_ backend.FunctionTable = (*Module)(nil)
	_ backend.Memory        = (*Module)(nil)
	_ backend.Closer        = (*Module)(nil)
)

func newRuntime(ctx context.Context) wazero.Runtime {
	cfg := wazero.NewRuntimeConfig().WithCompilationCache(compilationCache)
	return wazero.NewRuntimeWithConfig(ctx, cfg)
}

func moduleConfig() wazero.ModuleConfig {
	// Emscripten reactors export _initialize; it is skipped when absent.
	return wazero.NewModuleConfig().
		WithName(ModuleName).
		WithStartFunctions("_initialize")
}

// InstantiateRaw instantiates bin without any host imports.
func InstantiateRaw(ctx context.Context, bin []byte) (*Module, error) {
	r := newRuntime(ctx)
	compiled, err := r.CompileModule(ctx, bin)
	if err != nil {
		_ = r.Close(ctx)
		return nil, fmt.Errorf("wasm: compile: %w", err)
	}
	mod, err := r.InstantiateModule(ctx, compiled, moduleConfig())
	if err != nil {
		_ = r.Close(ctx)
		return nil, fmt.Errorf("wasm: instantiate: %w", err)
	}
	return &Module{runtime: r, compiled: compiled, mod: mod}, nil
}

// InstantiateRich instantiates bin with the WASI and Emscripten host modules
// and binds its allocator. It returns ErrNoAllocator if the module lacks
// malloc, free or an exported memory.
func InstantiateRich(ctx context.Context, bin []byte) (*Module, error) {
	r := newRuntime(ctx)
	m, err := instantiateRich(ctx, r, bin)
	if err != nil {
		_ = r.Close(ctx)
		return nil, err
	}
	return m, nil
}

func instantiateRich(ctx context.Context, r wazero.Runtime, bin []byte) (*Module, error) {
	compiled, err := r.CompileModule(ctx, bin)
	if err != nil {
		return nil, fmt.Errorf("wasm: compile: %w", err)
	}
	if _, err := wasi_snapshot_preview1.Instantiate(ctx, r); err != nil {
		return nil, fmt.Errorf("wasm: instantiate wasi: %w", err)
	}
	if _, err := emscripten.InstantiateForModule(ctx, r, compiled); err != nil {
		return nil, fmt.Errorf("wasm: instantiate emscripten: %w", err)
	}
	mod, err := r.InstantiateModule(ctx, compiled, moduleConfig())
	if err != nil {
		return nil, fmt.Errorf("wasm: instantiate: %w", err)
	}

	m := &Module{runtime: r, compiled: compiled, mod: mod}
	if err := m.bindAllocator(); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Module) bindAllocator() error {
	mem := m.mod.ExportedMemory(backend.ExportedMemoryName)
	malloc := m.lookup(backend.FuncMalloc)
	free := m.lookup(backend.FuncFree)
	if mem == nil || malloc == nil || free == nil {
		return ErrNoAllocator
	}
	if !hasSignature(malloc, []api.ValueType{api.ValueTypeI32}, []api.ValueType{api.ValueTypeI32}) {
		return fmt.Errorf("%w: malloc must be (i32) -> i32", ErrNoAllocator)
	}
	if !hasSignature(free, []api.ValueType{api.ValueTypeI32}, nil) {
		return fmt.Errorf("%w: free must be (i32) -> ()", ErrNoAllocator)
	}
	m.mem, m.malloc, m.free = mem, malloc, free
	return nil
}

func hasSignature(fn api.Function, params, results []api.ValueType) bool {
	def := fn.Definition()
	return slices.Equal(def.ParamTypes(), params) && slices.Equal(def.ResultTypes(), results)
}

// lookup finds an export by name, also accepting the underscore-prefixed
// spelling some toolchains emit.
func (m *Module) lookup(name string) api.Function {
	if fn := m.mod.ExportedFunction(name); fn != nil {
		return fn
	}
	return m.mod.ExportedFunction("_" + name)
}

type signature struct {
	params, results []api.ValueType
}

func f64s(n int) []api.ValueType {
	return slices.Repeat([]api.ValueType{api.ValueTypeF64}, n)
}

var (
	i32 = api.ValueTypeI32
	f64 = []api.ValueType{api.ValueTypeF64}
)

// signatures lists the types dsrt exports must have to be called.
var signatures = map[string]signature{
	backend.FuncAdd:          {f64s(2), f64},
	backend.FuncDot3:         {f64s(6), f64},
	backend.FuncLength3:      {f64s(3), f64},
	backend.FuncCross3:       {append(f64s(6), i32), nil},
	backend.FuncNormalize3:   {append(f64s(3), i32), nil},
	backend.FuncMat4Multiply: {[]api.ValueType{i32, i32, i32}, nil},
}

// Function returns the named export wrapped so that calls are serialised.
// An export named after a dsrt function is reported missing unless its
// type matches.
func (m *Module) Function(name string) (backend.Function, bool) {
	fn := m.lookup(name)
	if fn == nil {
		return nil, false
	}
	if sig, ok := signatures[name]; ok && !hasSignature(fn, sig.params, sig.results) {
		return nil, false
	}
	return &lockedFunction{m: m, fn: fn}, true
}

// Exports returns the sorted names of all exported functions.
func (m *Module) Exports() []string {
	defs := m.compiled.ExportedFunctions()
	names := make([]string, 0, len(defs))
	for name := range defs {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// HasAllocator reports whether the module was bound with memory helpers.
func (m *Module) HasAllocator() bool {
	return m.mem != nil
}

// Allocate calls the module's malloc.
func (m *Module) Allocate(ctx context.Context, size uint32) (uint32, error) {
	if m.malloc == nil {
		return 0, ErrNoAllocator
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	res, err := m.malloc.Call(ctx, uint64(size))
	if err != nil {
		return 0, fmt.Errorf("wasm: malloc: %w", err)
	}
	return uint32(res[0]), nil
}

// Release calls the module's free.
func (m *Module) Release(ctx context.Context, ptr uint32) error {
	if m.free == nil {
		return ErrNoAllocator
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, err := m.free.Call(ctx, uint64(ptr)); err != nil {
		return fmt.Errorf("wasm: free: %w", err)
	}
	return nil
}

// WriteFloats writes values as little-endian float64 starting at the
// element containing ptr.
func (m *Module) WriteFloats(ptr uint32, values []float64) error {
	if m.mem == nil {
		return ErrNoAllocator
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	base := elementOffset(ptr)
	for i, v := range values {
		if !m.mem.WriteFloat64Le(base+uint32(i)*backend.FloatSize, v) {
			return fmt.Errorf("%w: write at %#x", backend.ErrOutOfBounds, base+uint32(i)*backend.FloatSize)
		}
	}
	return nil
}

// ReadFloats reads count little-endian float64 values starting at the
// element containing ptr.
func (m *Module) ReadFloats(ptr uint32, count int) ([]float64, error) {
	if m.mem == nil {
		return nil, ErrNoAllocator
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	base := elementOffset(ptr)
	out := make([]float64, count)
	for i := range out {
		v, ok := m.mem.ReadFloat64Le(base + uint32(i)*backend.FloatSize)
		if !ok {
			return nil, fmt.Errorf("%w: read at %#x", backend.ErrOutOfBounds, base+uint32(i)*backend.FloatSize)
		}
		out[i] = v
	}
	return out, nil
}

// Close closes the wazero runtime and every module instantiated in it.
func (m *Module) Close(ctx context.Context) error {
	return m.runtime.Close(ctx)
}

// elementOffset maps a byte pointer to the start of the float64 element
// holding it, as a Float64Array view indexed by ptr>>3 would.
func elementOffset(ptr uint32) uint32 {
	return ptr / backend.FloatSize * backend.FloatSize
}

type lockedFunction struct {
	m  *Module
	fn api.Function
}

func (f *lockedFunction) Call(ctx context.Context, params ...uint64) ([]uint64, error) {
	f.m.mu.Lock()
	defer f.m.mu.Unlock()
	return f.fn.Call(ctx, params...)
}
