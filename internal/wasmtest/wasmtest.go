// Package wasmtest assembles small WebAssembly modules for tests.
//
// The modules implement the dsrt export surface directly in bytecode so
// that tests can exercise real instantiation without a C toolchain.
// Sections are described with the wabin module model and encoded by its
// binary encoder; this package only emits the function bodies.
package wasmtest

import (
	"encoding/binary"
	"math"

	wabin "github.com/tetratelabs/wabin/binary"
	"github.com/tetratelabs/wabin/leb128"
	"github.com/tetratelabs/wabin/wasm"
)

const (
	valI32 = wasm.ValueTypeI32
	valF64 = wasm.ValueTypeF64
)

// Opcodes used by the generated bodies.
const (
	opUnreachable = 0x00
	opIf          = 0x04
	opEnd         = 0x0B
	opLocalGet    = 0x20
	opLocalSet    = 0x21
	opGlobalGet   = 0x23
	opGlobalSet   = 0x24
	opF64Load     = 0x2B
	opF64Store    = 0x39
	opI32Const    = 0x41
	opF64Const    = 0x44
	opF64Eq       = 0x61
	opI32Add      = 0x6A
	opF64Sqrt     = 0x9F
	opF64Add      = 0xA0
	opF64Sub      = 0xA1
	opF64Mul      = 0xA2
	opF64Div      = 0xA3
	blockEmpty    = 0x40
	alignF64      = 3
)

// Func is a function definition in a Module.
type Func struct {
	Name    string
	Params  []wasm.ValueType
	Results []wasm.ValueType
	Locals  []wasm.ValueType
	Body    []byte
}

// Import is an imported function.
type Import struct {
	Module, Name    string
	Params, Results []wasm.ValueType
}

// Module describes a module to assemble.
type Module struct {
	Imports []Import
	Funcs   []Func
	// Memory exports one page of linear memory named "memory" when set.
	Memory bool
	// HeapBase adds a mutable i32 global initialised to HeapBase when
	// non-zero, followed by a mutable i32 global exported as "frees".
	HeapBase int32
}

// Bytes encodes the module.
func (m Module) Bytes() []byte {
	mod := &wasm.Module{}

	// One type per import and per function; duplicates are harmless.
	for i, imp := range m.Imports {
		mod.TypeSection = append(mod.TypeSection, &wasm.FunctionType{Params: imp.Params, Results: imp.Results})
		mod.ImportSection = append(mod.ImportSection, &wasm.Import{
			Type:     wasm.ExternTypeFunc,
			Module:   imp.Module,
			Name:     imp.Name,
			DescFunc: wasm.Index(i),
		})
	}
	imported := wasm.Index(len(m.Imports))
	for i, f := range m.Funcs {
		idx := imported + wasm.Index(i)
		mod.TypeSection = append(mod.TypeSection, &wasm.FunctionType{Params: f.Params, Results: f.Results})
		mod.FunctionSection = append(mod.FunctionSection, idx)
		mod.ExportSection = append(mod.ExportSection, &wasm.Export{Type: wasm.ExternTypeFunc, Name: f.Name, Index: idx})
		mod.CodeSection = append(mod.CodeSection, &wasm.Code{
			LocalTypes: f.Locals,
			Body:       append(append([]byte{}, f.Body...), opEnd),
		})
	}

	if m.Memory {
		mod.MemorySection = &wasm.Memory{Min: 1}
		mod.ExportSection = append(mod.ExportSection, &wasm.Export{Type: wasm.ExternTypeMemory, Name: "memory", Index: 0})
	}
	if m.HeapBase != 0 {
		mod.GlobalSection = []*wasm.Global{i32Global(m.HeapBase), i32Global(0)}
		mod.ExportSection = append(mod.ExportSection, &wasm.Export{Type: wasm.ExternTypeGlobal, Name: "frees", Index: 1})
	}
	return wabin.EncodeModule(mod)
}

func i32Global(v int32) *wasm.Global {
	return &wasm.Global{
		Type: &wasm.GlobalType{ValType: valI32, Mutable: true},
		Init: &wasm.ConstantExpression{Opcode: wasm.OpcodeI32Const, Data: leb128.EncodeInt32(v)},
	}
}

func f64s(n int) []wasm.ValueType {
	out := make([]wasm.ValueType, n)
	for i := range out {
		out[i] = valF64
	}
	return out
}

func get(i uint32) []byte { return append([]byte{opLocalGet}, leb128.EncodeUint32(i)...) }

func join(parts ...[]byte) []byte {
	var out []byte
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

func f64Const(v float64) []byte {
	b := []byte{opF64Const}
	return binary.LittleEndian.AppendUint64(b, math.Float64bits(v))
}

func store(ptrLocal uint32, offset uint32, value []byte) []byte {
	b := join(get(ptrLocal), value, []byte{opF64Store, alignF64})
	return append(b, leb128.EncodeUint32(offset)...)
}

func load(ptrLocal uint32, index int) []byte {
	b := join(get(ptrLocal), []byte{opF64Load, alignF64})
	return append(b, leb128.EncodeUint32(uint32(index*8))...)
}

func mul(a, b []byte) []byte { return join(a, b, []byte{opF64Mul}) }
func sub(a, b []byte) []byte { return join(a, b, []byte{opF64Sub}) }
func add(a, b []byte) []byte { return join(a, b, []byte{opF64Add}) }

// Scalar returns the scalar exports: dsrt_add, dsrt_dot3 and dsrt_length3.
func Scalar() []Func {
	return []Func{
		{
			Name:    "dsrt_add",
			Params:  f64s(2),
			Results: f64s(1),
			Body:    add(get(0), get(1)),
		},
		{
			Name:    "dsrt_dot3",
			Params:  f64s(6),
			Results: f64s(1),
			Body:    add(add(mul(get(0), get(3)), mul(get(1), get(4))), mul(get(2), get(5))),
		},
		{
			Name:    "dsrt_length3",
			Params:  f64s(3),
			Results: f64s(1),
			Body:    join(add(add(mul(get(0), get(0)), mul(get(1), get(1))), mul(get(2), get(2))), []byte{opF64Sqrt}),
		},
	}
}

// Allocator returns a bump allocator: malloc returns the current heap
// pointer and advances it, free only counts calls in the "frees" global.
// It needs HeapBase set.
func Allocator() []Func {
	return []Func{
		{
			Name:    "malloc",
			Params:  []wasm.ValueType{valI32},
			Results: []wasm.ValueType{valI32},
			Body: join(
				[]byte{opGlobalGet, 0x00},
				[]byte{opGlobalGet, 0x00}, get(0), []byte{opI32Add},
				[]byte{opGlobalSet, 0x00},
			),
		},
		{
			Name:   "free",
			Params: []wasm.ValueType{valI32},
			Body: join(
				[]byte{opGlobalGet, 0x01, opI32Const, 0x01, opI32Add},
				[]byte{opGlobalSet, 0x01},
			),
		},
	}
}

// Pointer returns the pointer-based exports: dsrt_cross3, dsrt_normalize3
// and dsrt_mat4_multiply (row-major).
func Pointer() []Func {
	cross := Func{
		Name:   "dsrt_cross3",
		Params: append(f64s(6), valI32),
		Body: join(
			store(6, 0, sub(mul(get(1), get(5)), mul(get(2), get(4)))),
			store(6, 8, sub(mul(get(2), get(3)), mul(get(0), get(5)))),
			store(6, 16, sub(mul(get(0), get(4)), mul(get(1), get(3)))),
		),
	}

	// Local 4 holds the magnitude; zero is replaced by one so that the
	// zero vector normalises to itself.
	length := join(add(add(mul(get(0), get(0)), mul(get(1), get(1))), mul(get(2), get(2))), []byte{opF64Sqrt})
	normalize := Func{
		Name:   "dsrt_normalize3",
		Params: append(f64s(3), valI32),
		Locals: []wasm.ValueType{valF64},
		Body: join(
			length, []byte{opLocalSet, 0x04},
			get(4), f64Const(0), []byte{opF64Eq, opIf, blockEmpty},
			f64Const(1), []byte{opLocalSet, 0x04},
			[]byte{opEnd},
			store(3, 0, join(get(0), get(4), []byte{opF64Div})),
			store(3, 8, join(get(1), get(4), []byte{opF64Div})),
			store(3, 16, join(get(2), get(4), []byte{opF64Div})),
		),
	}

	var mm []byte
	for r := 0; r < 4; r++ {
		for c := 0; c < 4; c++ {
			sum := mul(load(0, r*4), load(1, c))
			for k := 1; k < 4; k++ {
				sum = add(sum, mul(load(0, r*4+k), load(1, k*4+c)))
			}
			mm = append(mm, store(2, uint32((r*4+c)*8), sum)...)
		}
	}
	multiply := Func{
		Name:   "dsrt_mat4_multiply",
		Params: []wasm.ValueType{valI32, valI32, valI32},
		Body:   mm,
	}
	return []Func{cross, normalize, multiply}
}

func trap(name string, params []wasm.ValueType) Func {
	return Func{Name: name, Params: params, Body: []byte{opUnreachable}}
}

// ScalarModule is a module exporting only the scalar functions.
func ScalarModule() []byte {
	return Module{Funcs: Scalar()}.Bytes()
}

// RichModule is a module exporting scalar and pointer functions together
// with an allocator and memory.
func RichModule() []byte {
	funcs := append(Scalar(), Pointer()...)
	funcs = append(funcs, Allocator()...)
	return Module{Funcs: funcs, Memory: true, HeapBase: 1024}.Bytes()
}

// TrapModule is a rich module whose dsrt_cross3 and dsrt_mat4_multiply
// always trap.
func TrapModule() []byte {
	funcs := append(Scalar(),
		trap("dsrt_cross3", append(f64s(6), valI32)),
		trap("dsrt_mat4_multiply", []wasm.ValueType{valI32, valI32, valI32}),
	)
	funcs = append(funcs, Allocator()...)
	return Module{Funcs: funcs, Memory: true, HeapBase: 1024}.Bytes()
}

// NoAllocatorModule exports memory and every math function but no
// allocator.
func NoAllocatorModule() []byte {
	return Module{Funcs: append(Scalar(), Pointer()...), Memory: true}.Bytes()
}

// ImportingModule is a scalar module that imports a function from "env",
// so it cannot be instantiated without host imports.
func ImportingModule() []byte {
	return Module{
		Imports:  []Import{{Module: "env", Name: "emscripten_notify_memory_growth", Params: []wasm.ValueType{valI32}}},
		Funcs:    append(Scalar(), Allocator()...),
		Memory:   true,
		HeapBase: 1024,
	}.Bytes()
}

// MistypedScalarModule exports the scalar names with i32 signatures:
// dsrt_add is (i32, i32) -> i32 and returns its first argument.
func MistypedScalarModule() []byte {
	i32s := []wasm.ValueType{valI32, valI32}
	return Module{Funcs: []Func{
		{Name: "dsrt_add", Params: i32s, Results: i32s[:1], Body: get(0)},
		{Name: "dsrt_length3", Params: f64s(3), Results: i32s[:1], Body: []byte{opI32Const, 0x00}},
	}}.Bytes()
}

// UnguardedNormalizeModule is a rich module whose dsrt_normalize3 divides
// by the magnitude unconditionally, so a zero vector yields NaN.
func UnguardedNormalizeModule() []byte {
	length := join(add(add(mul(get(0), get(0)), mul(get(1), get(1))), mul(get(2), get(2))), []byte{opF64Sqrt})
	normalize := Func{
		Name:   "dsrt_normalize3",
		Params: append(f64s(3), valI32),
		Locals: []wasm.ValueType{valF64},
		Body: join(
			length, []byte{opLocalSet, 0x04},
			store(3, 0, join(get(0), get(4), []byte{opF64Div})),
			store(3, 8, join(get(1), get(4), []byte{opF64Div})),
			store(3, 16, join(get(2), get(4), []byte{opF64Div})),
		),
	}
	funcs := append(Scalar(), normalize)
	funcs = append(funcs, Allocator()...)
	return Module{Funcs: funcs, Memory: true, HeapBase: 1024}.Bytes()
}

// Garbage is a byte sequence that is not a WebAssembly module.
func Garbage() []byte {
	return []byte("not a wasm module")
}
