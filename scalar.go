package dsrt

import (
	"context"
	"math"

	"github.com/dsrt-dev/dsrt/backend"
)

// Add returns a+b using the default Runtime.
//
// The scalar functions never initialise a backend on first use. Until Init
// has been called they compute in Go, so call Init first to use the module.
func Add(ctx context.Context, a, b float64) float64 {
	return defaultRuntime.Add(ctx, a, b)
}

// Dot3 returns the dot product of (ax, ay, az) and (bx, by, bz) using the
// default Runtime. Like Add, it does not call Init.
func Dot3(ctx context.Context, ax, ay, az, bx, by, bz float64) float64 {
	return defaultRuntime.Dot3(ctx, ax, ay, az, bx, by, bz)
}

// Length3 returns the length of (x, y, z) using the default Runtime.
// Like Add, it does not call Init.
func Length3(ctx context.Context, x, y, z float64) float64 {
	return defaultRuntime.Length3(ctx, x, y, z)
}

// Add returns a+b.
func (r *Runtime) Add(ctx context.Context, a, b float64) float64 {
	if out, ok := r.callScalar(ctx, backend.FuncAdd, a, b); ok {
		return out
	}
	return a + b
}

// Dot3 returns ax*bx + ay*by + az*bz.
func (r *Runtime) Dot3(ctx context.Context, ax, ay, az, bx, by, bz float64) float64 {
	if out, ok := r.callScalar(ctx, backend.FuncDot3, ax, ay, az, bx, by, bz); ok {
		return out
	}
	return ax*bx + ay*by + az*bz
}

// Length3 returns sqrt(x*x + y*y + z*z).
func (r *Runtime) Length3(ctx context.Context, x, y, z float64) float64 {
	if out, ok := r.callScalar(ctx, backend.FuncLength3, x, y, z); ok {
		return out
	}
	return math.Sqrt(x*x + y*y + z*z)
}
