// Package backend defines the computational backend abstraction used by dsrt.
//
// A backend is an optional WebAssembly module exporting fast math
// functions. Acquisition (see package loader) yields a [Descriptor], a
// tagged value whose [Mode] says what the module can do:
//
//   - [ModeRich]: the module exports an allocator and linear memory, so
//     functions that write their results through output pointers can be used.
//   - [ModeRaw]: only plain scalar exports are usable.
//   - [ModeNone]: nothing was loaded; callers compute in Go.
//
// Callers dispatch on the mode once, through [Descriptor.Scalar] and
// [Descriptor.Pointer], instead of probing for individual capabilities.
//
// # Scratch Memory
//
// Pointer-based calls need regions in module memory. [WithScratch]
// allocates them and releases every region on all exit paths:
//
//	err := backend.WithScratch(ctx, mem, []uint32{24}, func(ptrs []uint32) error {
//		if err := backend.CallPointers(ctx, fn, []float64{x, y, z}, ptrs[0]); err != nil {
//			return err
//		}
//		out, err = mem.ReadFloats(ptrs[0], 3)
//		return err
//	})
//
// The WebAssembly implementation lives in backend/wasm.
package backend
