// Package dsrt provides 3D vector and 4x4 matrix math backed by an optional
// WebAssembly module.
//
// # Overview
//
// dsrt loads a small precompiled math module (dsrt.wasm) and routes
// Vector3 and Matrix4 operations through it. When the module cannot be
// loaded, or cannot serve an operation, the same result is computed in Go.
// Callers never see the difference except in speed.
//
// # Quick Start
//
//	import "github.com/dsrt-dev/dsrt"
//
//	// Acquire a backend once; failure is not an error.
//	d := dsrt.Init(ctx, dsrt.WithBaseLocation("https://cdn.example.com/dsrt/v1/"))
//	fmt.Println(d.Ready, d.Mode)
//
//	a := dsrt.V3(1, 0, 0)
//	b := dsrt.V3(0, 1, 0)
//	c := a.Cross(ctx, b) // (0, 0, 1)
//
// # Backends
//
// The loader negotiates one of three modes (see package backend):
//   - rich: companion glue present, module exports malloc/free/memory.
//     Every operation may use the module.
//   - raw: plain exports only. Length and Dot may use the module; Cross,
//     Normalize and Multiply need output pointers and run in Go.
//   - none: everything runs in Go.
//
// # Runtimes
//
// Init configures the process-wide default Runtime. Values created with
// V3 and M4 use it. For isolation (tests, several modules side by side),
// create a Runtime with NewRuntime and build values from it:
//
//	rt := dsrt.NewRuntime()
//	rt.Init(ctx, dsrt.WithBaseLocation("./assets/"))
//	v := rt.Vector3(3, 4, 0)
//
// # Matrices
//
// Matrix4 elements are row-major everywhere: in Go, in the module, and
// in the public API.
package dsrt

// Version is the library version.
const Version = "1.0.0"
